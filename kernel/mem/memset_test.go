package mem

import (
	"testing"
	"unsafe"
)

func TestMemset(t *testing.T) {
	// memset with a 0 size should be a no-op
	Memset(uintptr(0), 0x00, 0)

	for pageCount := uint32(1); pageCount <= 10; pageCount++ {
		buf := make([]byte, PageSize<<pageCount)
		for i := 0; i < len(buf); i++ {
			buf[i] = 0xFE
		}

		addr := uintptr(unsafe.Pointer(&buf[0]))
		Memset(addr, 0x00, Size(len(buf)))

		for i := 0; i < len(buf); i++ {
			if got := buf[i]; got != 0x00 {
				t.Errorf("[block with %d pages] expected byte: %d to be 0x00; got 0x%x", pageCount, i, got)
			}
		}
	}
}

func TestMemsetUnalignedRange(t *testing.T) {
	buf := make([]byte, 128)

	// every combination of unaligned start and end inside the buffer, with
	// a guard byte on each side that must not be touched.
	for start := 1; start < 17; start++ {
		for end := start; end < len(buf)-1; end += 7 {
			for i := range buf {
				buf[i] = 0xAA
			}

			Memset(uintptr(unsafe.Pointer(&buf[start])), 0x5C, Size(end-start))

			for i := range buf {
				exp := byte(0xAA)
				if i >= start && i < end {
					exp = 0x5C
				}

				if buf[i] != exp {
					t.Fatalf("[start %d, end %d] expected byte %d to be 0x%x; got 0x%x", start, end, i, exp, buf[i])
				}
			}
		}
	}
}

package mem

import (
	"sync/atomic"
	"unsafe"
)

// Memset sets size bytes at the given address to the supplied value.
//
// Memset is used on memory that no Go code reads through the same symbol
// (e.g. the bss region before any global is touched), so every store is
// issued either through sync/atomic or through a function the compiler is
// not allowed to inline. Neither form can be proven dead and removed.
//
// Unaligned head and tail bytes are written one at a time; the aligned body
// is written a word at a time.
//
//go:nosplit
func Memset(addr uintptr, value byte, size Size) {
	if size == 0 {
		return
	}

	end := addr + uintptr(size)

	for ; addr < end && !IsAligned(addr, 1<<PointerShift); addr++ {
		storeByte(addr, value)
	}

	word := uint64(value) * 0x0101010101010101
	for ; addr+(1<<PointerShift) <= end; addr += 1 << PointerShift {
		atomic.StoreUint64((*uint64)(unsafe.Pointer(addr)), word)
	}

	for ; addr < end; addr++ {
		storeByte(addr, value)
	}
}

//go:noinline
//go:nosplit
func storeByte(addr uintptr, value byte) {
	*(*byte)(unsafe.Pointer(addr)) = value
}

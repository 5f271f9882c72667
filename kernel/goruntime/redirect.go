package goruntime

import (
	"encoding/binary"
	"unsafe"

	"github.com/c20h30o2/rvos/kernel"
	"github.com/c20h30o2/rvos/kernel/layout"
)

// redirectEntrySize is the size of a (src, dst) pair in the redirect table
// written by tools/redirects.
const redirectEntrySize = 16

// RISC-V instruction encodings used by the redirect trampoline.
const (
	// addi x12, x1, 0 (mv a2, ra): hands the return address of the
	// redirected call to the target as its trailing argument.
	insnMoveRAToA2 = 0x00008613

	// auipc x31, 0
	insnAuipcX31 = 0x00000f97

	// jalr x0, 0(x31)
	insnJumpX31 = 0x000f8067

	// nop (addi x0, x0, 0)
	insnNop = 0x00000013

	maxTrampolineSize = 32
)

// ldX31 encodes ld x31, off(x31).
func ldX31(off uint32) uint32 {
	return off<<20 | 31<<15 | 3<<12 | 31<<7 | 0x03
}

// trampoline is an absolute jump to a redirect target, written over the
// first instructions of the redirected function.
type trampoline struct {
	code [maxTrampolineSize]byte
	len  int
}

// buildTrampoline encodes
//
//	mv    a2, ra
//	auipc t6, 0
//	ld    t6, off(t6)
//	jr    t6
//	.dword dst
//
// for a function starting at src. A nop is inserted when needed so that the
// target address is stored 8-byte aligned.
func buildTrampoline(src, dst uintptr) trampoline {
	var (
		t   trampoline
		off int
	)

	putInsn := func(insn uint32) {
		binary.LittleEndian.PutUint32(t.code[off:], insn)
		off += 4
	}

	putInsn(insnMoveRAToA2)
	putInsn(insnAuipcX31)

	// The auipc sits at src+4; the data follows ld, jr and an optional nop.
	dataOff := 16
	if (src+uintptr(dataOff))&7 != 0 {
		dataOff = 20
	}

	putInsn(ldX31(uint32(dataOff - 4)))
	putInsn(insnJumpX31)
	if dataOff == 20 {
		putInsn(insnNop)
	}

	binary.LittleEndian.PutUint64(t.code[off:], uint64(dst))
	t.len = off + 8

	return t
}

// installRedirects patches the source function of every entry in the
// redirect table with a trampoline to its target and flushes the
// instruction cache. A zero entry terminates the table.
func installRedirects(table layout.Region) *kernel.Error {
	if table.Size()%redirectEntrySize != 0 {
		return errBadRedirects
	}

	var installed int
	for entry := table.Start; entry < table.End; entry += redirectEntrySize {
		src := uintptr(*(*uint64)(unsafe.Pointer(entry)))
		dst := uintptr(*(*uint64)(unsafe.Pointer(entry + 8)))
		if src == 0 || dst == 0 {
			break
		}

		t := buildTrampoline(src, dst)
		for i := 0; i < t.len; i++ {
			*(*byte)(unsafe.Pointer(src + uintptr(i))) = t.code[i]
		}
		installed++
	}

	if installed != 0 {
		flushICacheFn()
	}

	return nil
}

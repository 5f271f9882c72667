// Package layout describes how the kernel image is laid out in physical
// memory and exposes the region boundaries exported by the linker script.
//
// The linker script symbols cannot be referenced from Go code directly.
// Instead, the rt0 code copies their addresses into bootSymbols before the
// first Go function runs. bootSymbols is statically initialized with a
// non-zero magic value which places it in .noptrdata, outside the bss range
// that gets cleared during runtime bring-up.
package layout

import "github.com/c20h30o2/rvos/kernel/mem"

// symbolTableMagic marks a symbol table laid out by this package. The rt0
// code does not touch it.
const symbolTableMagic = 0x7276_6f73_6c61_7930

// Symbol indices in the order written by the rt0 code. Each entry is one
// machine word; the rt0 code stores symbol i at offset 8*(i+1).
const (
	symSkernel = iota
	symStext
	symEtext
	symSrodata
	symErodata
	symSdata
	symEdata
	symSbssWithStack
	symBootStackLowerBound
	symBootStackTop
	symSbss
	symEbss
	symEkernel
	symRedirectTable
	symRedirectTableEnd

	symCount
)

// symbolNames lists the linker script names of the exported symbols indexed
// by the sym* constants.
var symbolNames = [symCount]string{
	"skernel",
	"stext",
	"etext",
	"srodata",
	"erodata",
	"sdata",
	"edata",
	"sbss_with_stack",
	"boot_stack_lower_bound",
	"boot_stack_top",
	"sbss",
	"ebss",
	"ekernel",
	"_rt0_redirect_table",
	"_rt0_redirect_table_end",
}

type symbolTable struct {
	magic uintptr
	addr  [symCount]uintptr
}

// bootSymbols is populated by the rt0 code.
var bootSymbols = symbolTable{magic: symbolTableMagic}

// Region describes a half-open [Start, End) physical address range.
type Region struct {
	Name  string
	Start uintptr
	End   uintptr
}

// Size returns the number of bytes spanned by the region.
func (r Region) Size() mem.Size {
	if r.End <= r.Start {
		return 0
	}
	return mem.Size(r.End - r.Start)
}

// Contains returns true if addr lies inside the region.
func (r Region) Contains(addr uintptr) bool {
	return addr >= r.Start && addr < r.End
}

// Overlaps returns true if r and other share at least one byte address.
func (r Region) Overlaps(other Region) bool {
	if r.Size() == 0 || other.Size() == 0 {
		return false
	}
	return r.Start < other.End && other.Start < r.End
}

// Lookup returns the address of the linker script symbol with the given name.
// It returns false if the name is not exported by the linker script or the
// symbol table has not been populated.
func Lookup(name string) (uintptr, bool) {
	if !Populated() {
		return 0, false
	}

	for i := 0; i < symCount; i++ {
		if symbolNames[i] == name {
			return bootSymbols.addr[i], true
		}
	}

	return 0, false
}

// Populated returns true if the rt0 code has filled in the symbol table.
func Populated() bool {
	return bootSymbols.magic == symbolTableMagic && bootSymbols.addr[symSkernel] != 0
}

// Kernel returns the region spanned by the whole loaded image.
func Kernel() Region {
	return region("kernel", symSkernel, symEkernel)
}

// Text returns the code region. The entry trampoline sits at its start.
func Text() Region {
	return region("text", symStext, symEtext)
}

// ROData returns the read-only data region.
func ROData() Region {
	return region("rodata", symSrodata, symErodata)
}

// Data returns the initialized data region, including the redirect table.
func Data() Region {
	return region("data", symSdata, symEdata)
}

// BootStack returns the statically reserved boot stack. It is placed at the
// start of the bss region and is never cleared.
func BootStack() Region {
	return region("stack", symBootStackLowerBound, symBootStackTop)
}

// BSS returns the zero-initialized region that is cleared during bring-up.
// It excludes the boot stack.
func BSS() Region {
	return region("bss", symSbss, symEbss)
}

// RedirectTable returns the region holding the (src, dst) address pairs that
// are filled in after linking by tools/redirects.
func RedirectTable() Region {
	return region("redirects", symRedirectTable, symRedirectTableEnd)
}

// Regions returns the image regions in load order.
func Regions() [5]Region {
	return [5]Region{Text(), ROData(), Data(), BootStack(), BSS()}
}

func region(name string, startSym, endSym int) Region {
	return Region{
		Name:  name,
		Start: bootSymbols.addr[startSym],
		End:   bootSymbols.addr[endSym],
	}
}

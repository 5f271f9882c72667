package layout

import (
	"github.com/c20h30o2/rvos/kernel"
	"github.com/c20h30o2/rvos/kernel/mem"
)

const (
	// DefaultBase is where RustSBI and OpenSBI (fw_jump) hand over control on
	// the QEMU virt machine; the firmware owns [0x80000000, 0x80200000).
	DefaultBase uintptr = 0x80200000

	// DefaultBootStackSize is the size of the statically reserved boot stack.
	DefaultBootStackSize = 64 * mem.Kb

	// EntrySection is the input section holding the entry trampoline. It is
	// placed ahead of all other code.
	EntrySection = ".text.entry"

	// StackSection is the input section reserving the boot stack.
	StackSection = ".bss.stack"

	// RedirectSection is the output section holding the redirect table.
	RedirectSection = ".goredirectstbl"
)

var (
	errBaseUnaligned  = &kernel.Error{Module: "layout", Message: "base address is not aligned to the region alignment"}
	errBadAlign       = &kernel.Error{Module: "layout", Message: "region alignment must be a power of two multiple of the page size"}
	errNoBootStack    = &kernel.Error{Module: "layout", Message: "boot stack size must not be zero"}
	errStackAlignment = &kernel.Error{Module: "layout", Message: "boot stack size must be a multiple of 16 bytes"}
)

// Descriptor is the build-time description of the kernel image layout. It is
// rendered into a GNU ld script by tools/genld.
type Descriptor struct {
	// Board names the target this layout was generated for.
	Board string

	// Base is the physical address of the first byte of the image.
	Base uintptr

	// Align is applied to the location counter before each region starts.
	Align mem.Size

	// BootStackSize is the number of bytes reserved for the boot stack.
	BootStackSize mem.Size
}

// DefaultDescriptor returns the layout used for the QEMU virt machine.
func DefaultDescriptor() Descriptor {
	return Descriptor{
		Board:         "qemu",
		Base:          DefaultBase,
		Align:         mem.PageSize,
		BootStackSize: DefaultBootStackSize,
	}
}

// Validate checks the descriptor for contract violations that would produce
// an unusable image.
func (d Descriptor) Validate() *kernel.Error {
	switch {
	case d.Align < mem.PageSize || d.Align&(d.Align-1) != 0:
		return errBadAlign
	case !mem.IsAligned(d.Base, d.Align):
		return errBaseUnaligned
	case d.BootStackSize == 0:
		return errNoBootStack
	case d.BootStackSize%16 != 0:
		return errStackAlignment
	}

	return nil
}

// Placement emits one output section, optionally surrounded by symbol
// definitions.
type Placement struct {
	// StartSymbol, if set, is defined at the location counter right before
	// the section.
	StartSymbol string

	// Section is the output section name.
	Section string

	// Inputs lists input section patterns in placement order. Each entry is
	// rendered as one *(...) statement so earlier entries are placed first.
	Inputs []string

	// Reserve is added to the location counter after the inputs have been
	// placed.
	Reserve mem.Size

	// EndSymbol, if set, is defined right after the section.
	EndSymbol string
}

// RegionLayout is an aligned region of the image bounded by a pair of
// exported symbols.
type RegionLayout struct {
	Name        string
	StartSymbol string
	EndSymbol   string
	Placements  []Placement
}

// RegionLayouts returns the image regions in placement order. The linker
// script aligns the location counter to d.Align before each of them.
func (d Descriptor) RegionLayouts() []RegionLayout {
	return []RegionLayout{
		{
			Name:        "text",
			StartSymbol: symbolNames[symStext],
			EndSymbol:   symbolNames[symEtext],
			Placements: []Placement{
				{Section: ".text", Inputs: []string{EntrySection, ".text .text.*"}},
			},
		},
		{
			Name:        "rodata",
			StartSymbol: symbolNames[symSrodata],
			EndSymbol:   symbolNames[symErodata],
			Placements: []Placement{
				{Section: ".rodata", Inputs: []string{".rodata .rodata.* .srodata .srodata.*"}},
				{Section: ".typelink", Inputs: []string{".typelink"}},
				{Section: ".itablink", Inputs: []string{".itablink"}},
				{Section: ".gosymtab", Inputs: []string{".gosymtab"}},
				{Section: ".gopclntab", Inputs: []string{".gopclntab"}},
			},
		},
		{
			Name:        "data",
			StartSymbol: symbolNames[symSdata],
			EndSymbol:   symbolNames[symEdata],
			Placements: []Placement{
				{Section: ".data", Inputs: []string{".data .data.* .sdata .sdata.*", ".noptrdata", ".go.buildinfo"}},
				{
					StartSymbol: symbolNames[symRedirectTable],
					Section:     RedirectSection,
					Inputs:      []string{RedirectSection},
					EndSymbol:   symbolNames[symRedirectTableEnd],
				},
			},
		},
		{
			Name:        "bss",
			StartSymbol: symbolNames[symSbssWithStack],
			EndSymbol:   symbolNames[symEbss],
			Placements: []Placement{
				{
					StartSymbol: symbolNames[symBootStackLowerBound],
					Section:     StackSection,
					Inputs:      []string{StackSection},
					Reserve:     d.BootStackSize,
					EndSymbol:   symbolNames[symBootStackTop],
				},
				{
					StartSymbol: symbolNames[symSbss],
					Section:     ".bss",
					Inputs:      []string{".bss .bss.* .sbss .sbss.*", ".noptrbss"},
				},
			},
		},
	}
}

// KernelSymbols returns the names of the symbols marking the first and last
// byte of the image.
func KernelSymbols() (start, end string) {
	return symbolNames[symSkernel], symbolNames[symEkernel]
}

// SymbolNames returns every symbol the linker script must export, in the
// order the rt0 code copies them into the boot symbol table.
func SymbolNames() []string {
	names := make([]string, symCount)
	copy(names, symbolNames[:])
	return names
}

// DiscardedSections lists the input sections stripped from the image. The
// kernel has no unwinder so the tables would only waste space.
func DiscardedSections() []string {
	return []string{".eh_frame", ".eh_frame_hdr", ".note.GNU-stack"}
}

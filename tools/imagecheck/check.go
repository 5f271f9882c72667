package main

import (
	"debug/elf"
	"fmt"

	"github.com/c20h30o2/rvos/kernel/layout"
	"github.com/c20h30o2/rvos/kernel/mem"
)

const entrySymbol = "_start"

// check runs every image check against img and returns the violations it
// found. Symbol related checks are skipped if a boundary symbol is missing.
func check(img *image, d layout.Descriptor) []error {
	var errs []error

	if img.class != elf.ELFCLASS64 || img.machine != elf.EM_RISCV {
		errs = append(errs, fmt.Errorf("expected a 64-bit RISC-V image; got %v %v", img.class, img.machine))
	}

	if img.entry != uint64(d.Base) {
		errs = append(errs, fmt.Errorf("entry point %#x does not match base address %#x", img.entry, d.Base))
	}

	for _, name := range layout.DiscardedSections() {
		if _, found := img.sections[name]; found {
			errs = append(errs, fmt.Errorf("section %s should have been discarded", name))
		}
	}

	var missing bool
	for _, name := range append([]string{entrySymbol}, layout.SymbolNames()...) {
		if _, found := img.symbols[name]; !found {
			errs = append(errs, fmt.Errorf("missing symbol %s", name))
			missing = true
		}
	}

	if missing {
		return errs
	}

	return append(errs, checkSymbols(img, d)...)
}

// checkSymbols validates the placement of the boundary symbols.
func checkSymbols(img *image, d layout.Descriptor) []error {
	var (
		errs []error
		sym  = func(name string) uint64 { return img.symbols[name] }
	)

	if got := sym(entrySymbol); got != uint64(d.Base) {
		errs = append(errs, fmt.Errorf("%s is at %#x; expected it at the base address %#x", entrySymbol, got, d.Base))
	}

	start, end := layout.KernelSymbols()
	if got := sym(start); got != uint64(d.Base) {
		errs = append(errs, fmt.Errorf("%s is at %#x; expected %#x", start, got, d.Base))
	}

	// Every region starts aligned and follows the previous one.
	prevEnd, prevName := sym(start), start
	for _, r := range d.RegionLayouts() {
		rStart, rEnd := sym(r.StartSymbol), sym(r.EndSymbol)

		if !mem.IsAligned(uintptr(rStart), d.Align) {
			errs = append(errs, fmt.Errorf("%s (%#x) is not aligned to %#x", r.StartSymbol, rStart, d.Align))
		}

		if rStart < prevEnd {
			errs = append(errs, fmt.Errorf("%s (%#x) starts before %s (%#x)", r.StartSymbol, rStart, prevName, prevEnd))
		}

		if rEnd < rStart {
			errs = append(errs, fmt.Errorf("%s (%#x) ends before %s (%#x)", r.EndSymbol, rEnd, r.StartSymbol, rStart))
		}

		prevEnd, prevName = rEnd, r.EndSymbol
	}

	if got := sym(end); got < prevEnd {
		errs = append(errs, fmt.Errorf("%s (%#x) is below %s (%#x)", end, got, prevName, prevEnd))
	}

	stack := layout.Region{
		Name:  "stack",
		Start: uintptr(sym("boot_stack_lower_bound")),
		End:   uintptr(sym("boot_stack_top")),
	}
	bss := layout.Region{
		Name:  "bss",
		Start: uintptr(sym("sbss")),
		End:   uintptr(sym("ebss")),
	}

	if stack.Size() < d.BootStackSize {
		errs = append(errs, fmt.Errorf("boot stack spans %d bytes; expected at least %d", stack.Size(), d.BootStackSize))
	}

	if stack.Overlaps(bss) {
		errs = append(errs, fmt.Errorf("boot stack [%#x, %#x) overlaps bss [%#x, %#x)", stack.Start, stack.End, bss.Start, bss.End))
	}

	if section, found := img.sections[layout.RedirectSection]; !found {
		errs = append(errs, fmt.Errorf("missing section %s", layout.RedirectSection))
	} else if tableStart := sym("_rt0_redirect_table"); section.Addr != tableStart {
		errs = append(errs, fmt.Errorf("section %s is at %#x; expected %#x", layout.RedirectSection, section.Addr, tableStart))
	}

	return errs
}

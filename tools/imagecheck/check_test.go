package main

import (
	"debug/elf"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/c20h30o2/rvos/kernel/layout"
)

// validImage returns an image that mirrors what the linker script produces
// for the default descriptor.
func validImage() *image {
	const (
		base  = 0x80200000
		page  = 0x1000
		stack = 0x10000 + 0x200
	)

	return &image{
		class:   elf.ELFCLASS64,
		machine: elf.EM_RISCV,
		entry:   base,
		symbols: map[string]uint64{
			"_start":                  base,
			"skernel":                 base,
			"stext":                   base,
			"etext":                   base + 3*page + 0x124,
			"srodata":                 base + 4*page,
			"erodata":                 base + 6*page + 0x10,
			"sdata":                   base + 7*page,
			"_rt0_redirect_table":     base + 7*page + 0x200,
			"_rt0_redirect_table_end": base + 7*page + 0x280,
			"edata":                   base + 7*page + 0x280,
			"sbss_with_stack":         base + 8*page,
			"boot_stack_lower_bound":  base + 8*page,
			"boot_stack_top":          base + 8*page + stack,
			"sbss":                    base + 8*page + stack,
			"ebss":                    base + 8*page + stack + 0x1238,
			"ekernel":                 base + 10*page + stack,
		},
		sections: map[string]elf.SectionHeader{
			".text":           {Name: ".text", Addr: base},
			".goredirectstbl": {Name: ".goredirectstbl", Addr: base + 7*page + 0x200},
		},
	}
}

func TestCheckValidImage(t *testing.T) {
	if errs := check(validImage(), layout.DefaultDescriptor()); len(errs) != 0 {
		t.Fatalf("expected no violations; got %v", errs)
	}
}

func TestCheckViolations(t *testing.T) {
	specs := []struct {
		descr   string
		mutate  func(img *image)
		expErrs []string
	}{
		{
			"wrong machine",
			func(img *image) { img.machine = elf.EM_X86_64 },
			[]string{"expected a 64-bit RISC-V image"},
		},
		{
			"entry not at base",
			func(img *image) { img.entry += 0x40 },
			[]string{"entry point 0x80200040 does not match base address 0x80200000"},
		},
		{
			"entry trampoline not first",
			func(img *image) { img.symbols["_start"] += 0x40 },
			[]string{"_start is at 0x80200040"},
		},
		{
			"unwind tables kept",
			func(img *image) { img.sections[".eh_frame"] = elf.SectionHeader{Name: ".eh_frame"} },
			[]string{"section .eh_frame should have been discarded"},
		},
		{
			"missing boundary",
			func(img *image) { delete(img.symbols, "ebss") },
			[]string{"missing symbol ebss"},
		},
		{
			"unaligned region",
			func(img *image) { img.symbols["srodata"] += 0x10 },
			[]string{"srodata (0x80204010) is not aligned to 0x1000"},
		},
		{
			"stack inside bss",
			func(img *image) { img.symbols["sbss"] = img.symbols["boot_stack_top"] - 0x100 },
			[]string{"boot stack [0x80208000, 0x80218200) overlaps bss"},
		},
		{
			"stack too small",
			func(img *image) { img.symbols["boot_stack_top"] = img.symbols["boot_stack_lower_bound"] + 0x1000 },
			[]string{"boot stack spans 4096 bytes; expected at least 65536"},
		},
		{
			"redirect table misplaced",
			func(img *image) { delete(img.sections, ".goredirectstbl") },
			[]string{"missing section .goredirectstbl"},
		},
	}

	for _, spec := range specs {
		t.Run(spec.descr, func(t *testing.T) {
			img := validImage()
			spec.mutate(img)

			var got []string
			for _, err := range check(img, layout.DefaultDescriptor()) {
				got = append(got, err.Error())
			}

			if len(got) != len(spec.expErrs) {
				t.Fatalf("expected %d violation(s); got %d:\n%s", len(spec.expErrs), len(got), strings.Join(got, "\n"))
			}

			for i, exp := range spec.expErrs {
				if !strings.Contains(got[i], exp) {
					t.Errorf("expected violation %d to contain %q; got %q", i, exp, got[i])
				}
			}
		})
	}
}

func TestLoadImageMissingFile(t *testing.T) {
	if _, err := loadImage("does-not-exist.elf"); err == nil {
		t.Fatal("expected an error for a missing file")
	}
}

func TestCheckReportsEveryMissingSymbol(t *testing.T) {
	img := validImage()
	img.symbols = map[string]uint64{"_start": 0x80200000}

	var got []string
	for _, err := range check(img, layout.DefaultDescriptor()) {
		got = append(got, err.Error())
	}

	var exp []string
	for _, name := range layout.SymbolNames() {
		exp = append(exp, "missing symbol "+name)
	}

	if diff := cmp.Diff(exp, got); diff != "" {
		t.Fatalf("unexpected violations (-want +got):\n%s", diff)
	}
}

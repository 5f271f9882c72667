// Command imagecheck verifies that a linked kernel ELF image honors the
// memory layout contract: the entry trampoline sits at the base address,
// every boundary symbol is exported, regions are page aligned and ordered
// and the boot stack lies outside the range cleared during bring-up.
//
// Usage:
//
//	imagecheck [-base 0x80200000] [-align 4096] [-stack 65536] kernel.elf
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"k8s.io/klog/v2"

	"github.com/c20h30o2/rvos/kernel/layout"
	"github.com/c20h30o2/rvos/kernel/mem"
)

func exit(err error) {
	klog.Errorf("[imagecheck] error: %v", err)
	klog.Flush()
	os.Exit(1)
}

func main() {
	var (
		d     = layout.DefaultDescriptor()
		base  = flag.Uint64("base", uint64(d.Base), "expected load address")
		align = flag.Uint64("align", uint64(d.Align), "expected region alignment")
		stack = flag.Uint64("stack", uint64(d.BootStackSize), "minimum boot stack size")
	)

	klog.InitFlags(nil)
	flag.Parse()
	defer klog.Flush()

	if flag.NArg() != 1 {
		exit(errors.New("expected the path to the kernel image as the only argument"))
	}

	d.Base, d.Align, d.BootStackSize = uintptr(*base), mem.Size(*align), mem.Size(*stack)
	if err := d.Validate(); err != nil {
		exit(err)
	}

	img, err := loadImage(flag.Arg(0))
	if err != nil {
		exit(err)
	}

	errs := check(img, d)
	for _, err := range errs {
		klog.Errorf("[imagecheck] %s: %v", flag.Arg(0), err)
	}

	if len(errs) != 0 {
		exit(fmt.Errorf("%s: %d layout violation(s)", flag.Arg(0), len(errs)))
	}

	klog.V(1).Infof("[imagecheck] %s: layout ok (entry %#x)", flag.Arg(0), img.entry)
}

// Package goruntime brings up the minimal runtime state Go code relies on
// after the rt0 code hands over control: a cleared bss region, the build
// time log level and the panic redirects.
package goruntime

import (
	"github.com/c20h30o2/rvos/kernel"
	"github.com/c20h30o2/rvos/kernel/cpu"
	"github.com/c20h30o2/rvos/kernel/kfmt"
	"github.com/c20h30o2/rvos/kernel/layout"
	"github.com/c20h30o2/rvos/kernel/mem"
)

var (
	layoutPopulatedFn = layout.Populated
	kernelRegionFn    = layout.Kernel
	bssRegionFn       = layout.BSS
	bootStackRegionFn = layout.BootStack
	redirectTableFn   = layout.RedirectTable
	memsetFn          = mem.Memset
	flushICacheFn     = cpu.FlushInstructionCache

	errNoLayout     = &kernel.Error{Module: "goruntime", Message: "linker symbol table not populated"}
	errStackInBSS   = &kernel.Error{Module: "goruntime", Message: "boot stack overlaps the bss region"}
	errBSSOutside   = &kernel.Error{Module: "goruntime", Message: "bss region lies outside the kernel image"}
	errBadRedirects = &kernel.Error{Module: "goruntime", Message: "malformed redirect table"}
)

// Init prepares the runtime environment. It must be the first thing that
// runs after the rt0 code transfers control to Go and it must be called
// exactly once.
//
// Init clears the bss region, resolves the log level selected at build time
// and installs the panic redirects. No allocation takes place.
func Init() *kernel.Error {
	if !layoutPopulatedFn() {
		return errNoLayout
	}

	bss := bssRegionFn()
	if bootStackRegionFn().Overlaps(bss) {
		return errStackInBSS
	}

	// A corrupt symbol table must not make us clear memory we do not own.
	if img := kernelRegionFn(); bss.Size() != 0 && (!img.Contains(bss.Start) || !img.Contains(bss.End-1)) {
		return errBSSOutside
	}

	// Package-level state that lives in bss is meaningless before this
	// point; that includes the kfmt output sink and level.
	ZeroRegion(bss)
	kfmt.InitLogLevel()

	return installRedirects(redirectTableFn())
}

// ZeroRegion sets every byte in r to zero.
//
//go:nosplit
func ZeroRegion(r layout.Region) {
	memsetFn(r.Start, 0, r.Size())
}

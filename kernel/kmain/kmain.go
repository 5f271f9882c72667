package kmain

import (
	"io"

	"github.com/c20h30o2/rvos/kernel"
	"github.com/c20h30o2/rvos/kernel/console"
	"github.com/c20h30o2/rvos/kernel/goruntime"
	"github.com/c20h30o2/rvos/kernel/kfmt"
	"github.com/c20h30o2/rvos/kernel/layout"
	"github.com/c20h30o2/rvos/kernel/sbi"
)

var (
	// The following are mocked by tests.
	runtimeInitFn           = goruntime.Init
	specVersionFn           = sbi.SpecVersion
	panicFn                 = kfmt.Panic
	consoleSink   io.Writer = &console.SBI
)

// Kmain is the only Go symbol that is visible (exported) from the rt0
// initialization code. This function is invoked by the rt0 assembly code
// after pointing the stack pointer at the boot stack and setting up a
// minimal g0 struct that allows Go code to run on it.
//
// Kmain is not expected to return. If it does, the rt0 code will park the
// hart.
//
//go:noinline
func Kmain() {
	if err := runtimeInitFn(); err != nil {
		bringUpFailed(err)
		return
	}

	kfmt.SetOutputSink(consoleSink)

	major, minor := specVersionFn()
	printBanner(major, minor)
	printLayout(layout.Regions())

	panic("Shutdown machine!")
}

// bringUpFailed reports a failed runtime bring-up. The bss region may not
// have been cleared, so the kfmt state is reset before the console is
// attached.
func bringUpFailed(err *kernel.Error) {
	kfmt.Reset()
	kfmt.SetOutputSink(consoleSink)
	panicFn(err)
}

// printBanner prints the boot banner followed by one record per log level.
func printBanner(major, minor uint32) {
	kfmt.Println("rvos: SBI specification v{}.{}, log level {}", major, minor, kfmt.LogLevel().String())
	kfmt.Println("this is a test")

	kfmt.Info("this is a info")
	kfmt.Warn("warn")
	kfmt.Trace("trace")
	kfmt.Error("error")
	kfmt.Debug("debug")
}

// printLayout logs the image regions. Each region is logged at a different
// level so the boot output shows which levels the build enabled.
func printLayout(regions [5]layout.Region) {
	for _, r := range regions {
		switch r.Name {
		case "text", "bss":
			kfmt.Info(".{} [{:#x}, {:#x})", r.Name, r.Start, r.End)
		case "rodata":
			kfmt.Debug(".{} [{:#x}, {:#x})", r.Name, r.Start, r.End)
		case "data":
			kfmt.Error(".{} [{:#x}, {:#x})", r.Name, r.Start, r.End)
		default:
			kfmt.Trace("{} [{:#x}, {:#x}) {} KiB, {} pages", r.Name, r.Start, r.End, uint64(r.Size()>>10), r.Size().Pages())
		}
	}
}

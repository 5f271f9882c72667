package kfmt

import (
	"runtime"

	"github.com/c20h30o2/rvos/kernel"
	"github.com/c20h30o2/rvos/kernel/cpu"
	"github.com/c20h30o2/rvos/kernel/sbi"
)

// Location identifies the source position that raised a fatal error.
type Location struct {
	File string
	Line int
}

var (
	// cpuHaltFn and shutdownFn are mocked by tests.
	cpuHaltFn  = cpu.Halt
	shutdownFn = sbi.Shutdown

	// pcLocationFn resolves a return address into a source location.
	pcLocationFn = pcLocation

	errRuntimePanic = &kernel.Error{Module: "rt", Message: "unknown cause"}

	// panicLocation is filled by locate; the allocator is not available so
	// the location cannot live on the heap.
	panicLocation Location
)

// Panic reports e as a fatal error, asks the firmware to power off with a
// failure status and idles the hart. Calls to Panic never return.
func Panic(e interface{}) {
	panicWithPC(e, 0)
}

// PanicAt prints
//
//	Panicked at FILE:LINE MESSAGE
//
// or, when loc is nil,
//
//	Panicked: MESSAGE
//
// followed by a line feed. It then requests a failure shutdown and halts the
// hart in case the firmware returns. PanicAt never returns.
//
// The message is printed as-is for strings and byte slices and as
// "[module] message" for *kernel.Error values. Anything else, including nil,
// prints as "unknown cause".
func PanicAt(loc *Location, e interface{}) {
	if loc != nil {
		Printf("Panicked at {}:{} ", loc.File, loc.Line)
	} else {
		Printf("Panicked: ")
	}

	switch t := e.(type) {
	case string:
		Println("{}", t)
	case []byte:
		Println("{}", t)
	case *kernel.Error:
		if t == nil {
			Println("{}", errRuntimePanic)
		} else if t.Module != "" {
			Println("[{}] {}", t.Module, t.Message)
		} else {
			Println("{}", t.Message)
		}
	default:
		Println("{}", errRuntimePanic)
	}

	shutdownFn(true)
	cpuHaltFn()
}

// panicWithPC is the redirect target for calls to panic() (resolved via
// runtime.gopanic). The redirect trampoline passes the return address of the
// redirected call as callerPC.
//
//go:redirect-from runtime.gopanic
//go:noinline
func panicWithPC(e interface{}, callerPC uintptr) {
	if msg, ok := e.(string); ok {
		panicString(msg, callerPC)
		return
	}

	PanicAt(locate(callerPC), e)
}

// panicString serves as a redirect target for runtime.throw
//
//go:redirect-from runtime.throw
//go:noinline
func panicString(msg string, callerPC uintptr) {
	PanicAt(locate(callerPC), msg)
}

// locate maps a return address to a source location. It returns nil if pc is
// zero or cannot be resolved.
func locate(pc uintptr) *Location {
	if pc == 0 || !pcLocationFn(pc, &panicLocation) {
		return nil
	}

	return &panicLocation
}

// pcLocation looks up the call instruction that precedes the return address
// pc in the program counter table.
func pcLocation(pc uintptr, loc *Location) bool {
	fn := runtime.FuncForPC(pc - 1)
	if fn == nil {
		return false
	}

	loc.File, loc.Line = fn.FileLine(pc - 1)
	return true
}

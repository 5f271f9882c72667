package main

import "github.com/c20h30o2/rvos/kernel/kmain"

// main is the only Go symbol that the rt0 code calls. It works as a
// trampoline for calling the actual kernel entrypoint (kmain.Kmain) and is
// intentionally defined to prevent the Go compiler from optimizing away the
// actual kernel code as it is not aware of the presence of the rt0 code.
//
// The rt0 code invokes main after pointing the stack pointer at the top of
// the boot stack and carving a g0 out of it.
//
// main is not expected to return. If it does, the rt0 code will park the
// hart.
func main() {
	kmain.Kmain()
}

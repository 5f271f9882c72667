//go:build !riscv64

package cpu

// Halt blocks the calling goroutine forever. Hosted builds only use it so
// that packages depending on cpu can be unit tested; tests replace it.
func Halt() {
	select {}
}

// FlushInstructionCache is a no-op on hosted builds.
func FlushInstructionCache() {}

//go:build !riscv64

package sbi

// ecall reports every extension as unsupported on hosted builds.
func ecall(_, _, _, _, _ uintptr) (errno, value uintptr) {
	notSupported := int64(ErrNotSupported)
	return uintptr(notSupported), 0
}

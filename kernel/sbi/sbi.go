// Package sbi implements the supervisor side of the RISC-V Supervisor Binary
// Interface. Every call is a single synchronous ECALL into the firmware
// (RustSBI, OpenSBI). Firmware responses are returned verbatim; no call is
// ever retried.
package sbi

// Extension identifiers (placed in a7).
const (
	ExtLegacyConsolePutchar uintptr = 0x01
	ExtLegacyShutdown       uintptr = 0x08
	ExtBase                 uintptr = 0x10
	ExtSystemReset          uintptr = 0x53525354 // "SRST"
)

// Function identifiers (placed in a6).
const (
	FuncBaseGetSpecVersion uintptr = 0
	FuncSystemReset        uintptr = 0
)

// System reset types and reasons accepted by the SRST extension.
const (
	ResetTypeShutdown   uintptr = 0
	ResetTypeColdReboot uintptr = 1
	ResetTypeWarmReboot uintptr = 2

	ResetReasonNone          uintptr = 0
	ResetReasonSystemFailure uintptr = 1
)

// Standard SBI error codes as returned in a0.
const (
	Success             = 0
	ErrFailed           = -1
	ErrNotSupported     = -2
	ErrInvalidParam     = -3
	ErrDenied           = -4
	ErrInvalidAddress   = -5
	ErrAlreadyAvailable = -6
)

// Ret holds the (a0, a1) register pair left by the firmware.
type Ret struct {
	Error int64
	Value uintptr
}

var (
	// ecallFn is mocked by tests and is automatically inlined by the compiler.
	ecallFn = ecall
)

// Call places ext in a7, fid in a6 and the arguments in a0..a2, executes
// ECALL and returns the firmware's answer.
//
//go:nosplit
func Call(ext, fid, arg0, arg1, arg2 uintptr) Ret {
	errno, value := ecallFn(ext, fid, arg0, arg1, arg2)
	return Ret{Error: int64(errno), Value: value}
}

// ConsolePutchar writes c to the firmware console. The firmware's return
// value is ignored; the console has no flow control to report back.
//
//go:nosplit
func ConsolePutchar(c byte) {
	Call(ExtLegacyConsolePutchar, 0, uintptr(c), 0, 0)
}

// SpecVersion returns the major and minor SBI specification version
// implemented by the firmware.
func SpecVersion() (major, minor uint32) {
	ret := Call(ExtBase, FuncBaseGetSpecVersion, 0, 0, 0)
	return uint32(ret.Value>>24) & 0x7f, uint32(ret.Value) & 0xffffff
}

// Shutdown asks the firmware to power off the machine. The reason reported
// to the firmware is ResetReasonSystemFailure when failure is set.
//
// On a conforming firmware Shutdown does not return. Should the SRST call
// come back, the legacy shutdown call is attempted once; if that returns as
// well Shutdown returns and the caller must park the hart itself.
func Shutdown(failure bool) {
	reason := ResetReasonNone
	if failure {
		reason = ResetReasonSystemFailure
	}

	Call(ExtSystemReset, FuncSystemReset, ResetTypeShutdown, reason, 0)
	Call(ExtLegacyShutdown, 0, 0, 0, 0)
}

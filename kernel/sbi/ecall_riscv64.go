package sbi

// ecall issues a single environment call. It returns the contents of a0 and
// a1 after the firmware hands control back.
func ecall(ext, fid, arg0, arg1, arg2 uintptr) (errno, value uintptr)

// Package console provides the kernel output sink backed by the firmware
// console.
package console

import (
	"io"

	"github.com/c20h30o2/rvos/kernel/sbi"
)

var (
	// putcharFn is mocked by tests.
	putcharFn = sbi.ConsolePutchar

	// SBI is the firmware console. It is a package-level value so that it
	// can be attached as an output sink before the allocator exists.
	SBI Device
)

// Device is a console that forwards every byte to the firmware. It
// implements io.Writer and io.ByteWriter.
type Device struct{}

// WriteByte sends a single byte to the firmware console. Errors reported by
// the firmware are ignored.
func (*Device) WriteByte(c byte) error {
	putcharFn(c)
	return nil
}

// Write sends p to the firmware console one byte at a time. It always
// reports len(p) bytes written.
func (d *Device) Write(p []byte) (int, error) {
	for _, c := range p {
		putcharFn(c)
	}
	return len(p), nil
}

var (
	_ io.Writer     = (*Device)(nil)
	_ io.ByteWriter = (*Device)(nil)
)

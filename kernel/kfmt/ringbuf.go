package kfmt

import "io"

// ringBufferSize defines size of the ring buffer that buffers early Printf
// output. Its default size is selected so it can buffer the contents of a
// full 80x25 text-mode console. The ring buffer size must always be a power
// of 2.
const ringBufferSize = 2048

// ringBuffer models a ring buffer of size ringBufferSize. This buffer is used
// for capturing the output of Printf before an output sink is attached. Once
// the buffer is full, new writes overwrite the oldest unread bytes.
type ringBuffer struct {
	buffer         [ringBufferSize]byte
	rIndex, wIndex int
}

// Write writes len(p) bytes from p to the ringBuffer.
func (rb *ringBuffer) Write(p []byte) (int, error) {
	for _, b := range p {
		rb.buffer[rb.wIndex] = b
		rb.wIndex = (rb.wIndex + 1) & (ringBufferSize - 1)
		if rb.rIndex == rb.wIndex {
			// Buffer full; drop the oldest byte.
			rb.rIndex = (rb.rIndex + 1) & (ringBufferSize - 1)
		}
	}

	return len(p), nil
}

// Read reads up to len(p) bytes into p. It returns the number of bytes read (0
// <= n <= len(p)) and any error encountered.
func (rb *ringBuffer) Read(p []byte) (n int, err error) {
	for ; n < len(p) && rb.rIndex != rb.wIndex; n++ {
		p[n] = rb.buffer[rb.rIndex]
		rb.rIndex = (rb.rIndex + 1) & (ringBufferSize - 1)
	}

	if n == 0 {
		return 0, io.EOF
	}

	return n, nil
}

// WriteTo drains the buffered data into w using at most two writes. It does
// not go through io.Copy as that would allocate a transfer buffer.
func (rb *ringBuffer) WriteTo(w io.Writer) (int64, error) {
	var n int64

	if rb.rIndex > rb.wIndex {
		written, err := w.Write(rb.buffer[rb.rIndex:])
		n += int64(written)
		if err != nil {
			return n, err
		}
		rb.rIndex = 0
	}

	if rb.rIndex < rb.wIndex {
		written, err := w.Write(rb.buffer[rb.rIndex:rb.wIndex])
		n += int64(written)
		if err != nil {
			return n, err
		}
	}

	rb.rIndex = rb.wIndex
	return n, nil
}

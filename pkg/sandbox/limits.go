package sandbox

import (
	"bytes"
)

// BoundedBuffer is an io.Writer that keeps at most capBytes bytes.
// Bytes past the cap are discarded and the buffer is marked truncated.
// Writes never fail, so a chatty child process is not broken by the cap.
type BoundedBuffer struct {
	buf       bytes.Buffer
	capBytes  int
	truncated bool
}

// NewBoundedBuffer creates a buffer holding at most capBytes bytes.
// A zero or negative cap defaults to DefaultMaxOutputBytes.
func NewBoundedBuffer(capBytes int) *BoundedBuffer {
	if capBytes <= 0 {
		capBytes = DefaultMaxOutputBytes
	}
	return &BoundedBuffer{capBytes: capBytes}
}

// Write appends p up to the remaining capacity and reports len(p) as written
func (b *BoundedBuffer) Write(p []byte) (int, error) {
	remaining := b.capBytes - b.buf.Len()
	if remaining <= 0 {
		if len(p) > 0 {
			b.truncated = true
		}
		return len(p), nil
	}
	if len(p) > remaining {
		b.buf.Write(p[:remaining])
		b.truncated = true
		return len(p), nil
	}
	b.buf.Write(p)
	return len(p), nil
}

// Bytes returns a copy of the retained contents
func (b *BoundedBuffer) Bytes() []byte {
	return append([]byte(nil), b.buf.Bytes()...)
}

// String returns the retained contents
func (b *BoundedBuffer) String() string { return b.buf.String() }

// Len returns the number of retained bytes
func (b *BoundedBuffer) Len() int { return b.buf.Len() }

// Truncated reports whether any bytes were discarded
func (b *BoundedBuffer) Truncated() bool { return b.truncated }

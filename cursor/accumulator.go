// Package cursor holds the bytes a decoder has received but not yet consumed.
package cursor

import "fmt"

// compactThreshold is the dead prefix size above which Consume shifts the
// live bytes to the front of the backing array.
const compactThreshold = 4096

// Accumulator is the unconsumed tail of every chunk appended so far.
//
// It grows only by Append and shrinks only by Consume of a prefix. Base
// reports the absolute stream offset of the first unconsumed byte.
type Accumulator struct {
	buf      []byte
	off      int
	base     int64
	readOnly bool
}

// New returns an empty accumulator.
func New() *Accumulator {
	return &Accumulator{}
}

// Wrap returns a read-only accumulator over buf at base 0. The bytes are not
// copied; Append panics.
func Wrap(buf []byte) *Accumulator {
	return &Accumulator{buf: buf, readOnly: true}
}

// Append copies chunk onto the end of the accumulator.
func (a *Accumulator) Append(chunk []byte) {
	if a.readOnly {
		panic("cursor: append to wrapped buffer")
	}
	if len(chunk) == 0 {
		return
	}
	a.buf = append(a.buf, chunk...)
}

// Consume drops the first n unconsumed bytes.
func (a *Accumulator) Consume(n int) {
	if n < 0 || n > a.Len() {
		panic(fmt.Sprintf("cursor: consume %d of %d bytes", n, a.Len()))
	}
	a.off += n
	a.base += int64(n)

	if a.readOnly {
		return
	}
	switch {
	case a.off == len(a.buf):
		a.buf = a.buf[:0]
		a.off = 0
	case a.off >= compactThreshold && a.off >= len(a.buf)/2:
		live := copy(a.buf, a.buf[a.off:])
		a.buf = a.buf[:live]
		a.off = 0
	}
}

// Bytes returns the unconsumed bytes. The slice is valid until the next
// Append, Consume or Reset and must not be modified.
func (a *Accumulator) Bytes() []byte {
	return a.buf[a.off:]
}

// Len returns the number of unconsumed bytes.
func (a *Accumulator) Len() int {
	return len(a.buf) - a.off
}

// Base returns the absolute offset of Bytes()[0] in the stream.
func (a *Accumulator) Base() int64 {
	return a.base
}

// End returns the absolute offset one past the last byte received.
func (a *Accumulator) End() int64 {
	return a.base + int64(a.Len())
}

// Reset discards every byte and rewinds the base offset to zero.
func (a *Accumulator) Reset() {
	if a.readOnly {
		a.buf = nil
	} else {
		a.buf = a.buf[:0]
	}
	a.off = 0
	a.base = 0
}

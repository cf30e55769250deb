// Package types defines core domain types for the hdrframe decoder.
//
//nolint:revive // types is a common Go package naming convention
package types

// Header is one header line matched inside a frame's header block.
type Header struct {
	// Kind is the configured name of the header kind that matched.
	Kind string `msgpack:"kind" json:"kind" yaml:"kind"`
	// Value is the numeric suffix, for kinds that carry one.
	Value string `msgpack:"value,omitempty" json:"value,omitempty" yaml:"value,omitempty"`
}

// Message is one decoded frame.
type Message struct {
	// Seq is the 1-based position of the frame within its stream.
	// Zero for single-shot decodes.
	Seq int64 `msgpack:"seq" json:"seq" yaml:"seq"`
	// Offset is the stream offset of the frame's first byte.
	Offset int64 `msgpack:"offset" json:"offset" yaml:"offset"`
	// Length is the number of bytes from Offset up to and including the
	// body terminator.
	Length int `msgpack:"length" json:"length" yaml:"length"`
	// Headers are the matched headers in wire order.
	Headers []Header `msgpack:"headers" json:"headers" yaml:"headers"`
	// Body is the payload between the header block and its terminator.
	Body []byte `msgpack:"body" json:"body" yaml:"body"`
}

// End returns the stream offset one past the frame's terminator.
func (m *Message) End() int64 {
	return m.Offset + int64(m.Length)
}

// HeaderValues returns the values of all headers of the given kind, in wire order.
func (m *Message) HeaderValues(kind string) []string {
	var out []string
	for _, h := range m.Headers {
		if h.Kind == kind {
			out = append(out, h.Value)
		}
	}
	return out
}

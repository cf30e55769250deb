package decode

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors, one per Kind. *Error unwraps to the sentinel of its kind.
var (
	ErrUnexpectedToken = errors.New("decode: unexpected token")
	ErrMissingHeader   = errors.New("decode: missing header")
	ErrBodyTooLarge    = errors.New("decode: body too large")
)

// Kind classifies a decode failure.
type Kind uint8

const (
	// KindUnexpectedToken: a byte matched none of the alternatives open at
	// its position.
	KindUnexpectedToken Kind = iota + 1
	// KindMissingHeader: the separator arrived before the minimum number of
	// headers.
	KindMissingHeader
	// KindBodyTooLarge: a digit run or body exceeded its configured limit.
	KindBodyTooLarge
)

// String returns the snake_case name of the kind.
func (k Kind) String() string {
	switch k {
	case KindUnexpectedToken:
		return "unexpected_token"
	case KindMissingHeader:
		return "missing_header"
	case KindBodyTooLarge:
		return "body_too_large"
	default:
		return "unknown"
	}
}

func (k Kind) sentinel() error {
	switch k {
	case KindUnexpectedToken:
		return ErrUnexpectedToken
	case KindMissingHeader:
		return ErrMissingHeader
	case KindBodyTooLarge:
		return ErrBodyTooLarge
	default:
		return nil
	}
}

// Error is an unrecoverable decode failure. All offsets are absolute stream
// offsets.
type Error struct {
	Kind Kind
	// Offset of the offending byte.
	Offset int64
	// Found is the printable rendering of the offending byte or token.
	Found string
	// Expected lists what the open alternatives would have accepted,
	// already rendered.
	Expected []string
	// Input is a copy of the uncommitted bytes examined up to and including
	// the failure, starting at InputOffset.
	Input       []byte
	InputOffset int64
}

// Error renders the failure followed by an excerpt of the input.
func (e *Error) Error() string {
	var b strings.Builder
	switch e.Kind {
	case KindMissingHeader:
		fmt.Fprintf(&b, "Missing header before %s at offset %d", e.Found, e.Offset)
	case KindBodyTooLarge:
		fmt.Fprintf(&b, "Too large: %s at offset %d exceeds limit", e.Found, e.Offset)
	default:
		fmt.Fprintf(&b, "Unexpected %s at offset %d", e.Found, e.Offset)
	}
	if len(e.Expected) > 0 {
		b.WriteString("; expected ")
		b.WriteString(joinAlternatives(e.Expected))
	}
	if len(e.Input) > 0 {
		b.WriteString("\nIn input: ")
		b.WriteString(e.Excerpt())
	}
	return b.String()
}

// Unwrap returns the sentinel for the error's kind.
func (e *Error) Unwrap() error {
	return e.Kind.sentinel()
}

// Excerpt renders up to excerptWidth bytes of Input around Offset.
func (e *Error) Excerpt() string {
	const excerptWidth = 64

	in := e.Input
	rel := int(e.Offset - e.InputOffset)
	prefix, suffix := "", ""
	if len(in) > excerptWidth {
		start := rel - excerptWidth/2
		if start < 0 {
			start = 0
		}
		if start > len(in)-excerptWidth {
			start = len(in) - excerptWidth
		}
		if start > 0 {
			prefix = "..."
		}
		if start+excerptWidth < len(in) {
			suffix = "..."
		}
		in = in[start : start+excerptWidth]
	}
	return prefix + quote(string(in)) + suffix
}

// IsKind reports whether err is a decode error of the given kind.
func IsKind(err error, kind Kind) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind == kind
	}
	return false
}

// AsError returns the decode error in err's chain, if any.
func AsError(err error) (*Error, bool) {
	var de *Error
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}

// quote renders s between backticks with control bytes escaped.
func quote(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('`')
	for i := 0; i < len(s); i++ {
		writePrintable(&b, s[i])
	}
	b.WriteByte('`')
	return b.String()
}

func quoteByte(c byte) string {
	return quote(string([]byte{c}))
}

func writePrintable(b *strings.Builder, c byte) {
	switch {
	case c == '\r':
		b.WriteString(`\r`)
	case c == '\n':
		b.WriteString(`\n`)
	case c == '\t':
		b.WriteString(`\t`)
	case c == '\\':
		b.WriteString(`\\`)
	case c >= 0x20 && c < 0x7f:
		b.WriteByte(c)
	default:
		fmt.Fprintf(b, `\x%02x`, c)
	}
}

// joinAlternatives renders "a", "a or b", "a, b or c".
func joinAlternatives(alts []string) string {
	switch len(alts) {
	case 0:
		return ""
	case 1:
		return alts[0]
	}
	return strings.Join(alts[:len(alts)-1], ", ") + " or " + alts[len(alts)-1]
}

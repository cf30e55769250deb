// Package grammar describes the header grammar a decoder recognizes.
//
// A frame is
//
//	HeaderBlock ::= Header{Min,Max} Terminator
//	Header      ::= Kind_1 | ... | Kind_n
//	Kind        ::= Tag [Digits] Terminator
//	Body        ::= <bytes up to Terminator> Terminator
//
// Kinds may appear in any order inside the block. The grammar is plain data
// so one decoder binary can serve several concrete protocols.
package grammar

import (
	"errors"
	"fmt"
	"strings"
)

// Defaults for limits left at zero.
const (
	DefaultTerminator = "\r\n"
	DefaultMaxDigits  = 19
	DefaultMaxBody    = 1 << 20
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("grammar: invalid")

// Kind is one header alternative.
type Kind struct {
	// Name identifies the kind in decoded messages.
	Name string `yaml:"name"`
	// Tag is the literal the header line starts with.
	Tag string `yaml:"tag"`
	// Digits requires a run of one or more decimal digits after Tag.
	Digits bool `yaml:"digits"`
}

// Limits bounds unterminated runs so a peer cannot grow the accumulator
// without end.
type Limits struct {
	// MaxDigits is the longest numeric suffix accepted.
	MaxDigits int `yaml:"max_digits"`
	// MaxBody is the longest body accepted, excluding the terminator.
	MaxBody int `yaml:"max_body"`
}

// Grammar is a complete frame grammar.
type Grammar struct {
	// Name labels the grammar in logs and records.
	Name string `yaml:"name"`
	// Kinds are tried in order; when several complete on the same byte the
	// earlier one wins.
	Kinds []Kind `yaml:"kinds"`
	// Min and Max bound the number of headers in a block.
	Min int `yaml:"min"`
	Max int `yaml:"max"`
	// Terminator ends header lines, the block and the body.
	Terminator string `yaml:"terminator"`
	Limits     Limits `yaml:"limits"`
}

// Reference returns the reference test grammar: one or two headers, in any
// order, of "foobar" <digits> CRLF or "foobaz" CRLF.
func Reference() Grammar {
	return Grammar{
		Name: "reference",
		Kinds: []Kind{
			{Name: "foobar", Tag: "foobar", Digits: true},
			{Name: "foobaz", Tag: "foobaz"},
		},
		Min:        1,
		Max:        2,
		Terminator: DefaultTerminator,
		Limits: Limits{
			MaxDigits: DefaultMaxDigits,
			MaxBody:   DefaultMaxBody,
		},
	}
}

// WithDefaults returns a copy with zero-valued terminator and limits filled in.
func (g Grammar) WithDefaults() Grammar {
	out := g
	out.Kinds = append([]Kind(nil), g.Kinds...)
	if out.Terminator == "" {
		out.Terminator = DefaultTerminator
	}
	if out.Limits.MaxDigits == 0 {
		out.Limits.MaxDigits = DefaultMaxDigits
	}
	if out.Limits.MaxBody == 0 {
		out.Limits.MaxBody = DefaultMaxBody
	}
	for i := range out.Kinds {
		if out.Kinds[i].Name == "" {
			out.Kinds[i].Name = out.Kinds[i].Tag
		}
	}
	return out
}

// Validate checks that the grammar can be recognized deterministically:
// every header line must end at the first terminator, and a header can never
// be confused with the blank separator line.
func (g Grammar) Validate() error {
	if g.Terminator == "" {
		return invalid("terminator is empty")
	}
	if isDigit(g.Terminator[0]) {
		return invalid("terminator %q starts with a digit", g.Terminator)
	}
	if len(g.Kinds) == 0 {
		return invalid("no header kinds")
	}
	if g.Min < 0 {
		return invalid("min %d < 0", g.Min)
	}
	if g.Max < 1 {
		return invalid("max %d < 1", g.Max)
	}
	if g.Min > g.Max {
		return invalid("min %d > max %d", g.Min, g.Max)
	}
	if g.Limits.MaxDigits < 1 {
		return invalid("limits.max_digits %d < 1", g.Limits.MaxDigits)
	}
	if g.Limits.MaxBody < 0 {
		return invalid("limits.max_body %d < 0", g.Limits.MaxBody)
	}

	seen := make(map[string]bool, len(g.Kinds))
	names := make(map[string]bool, len(g.Kinds))
	for i, k := range g.Kinds {
		if k.Tag == "" {
			return invalid("kind %d: tag is empty", i)
		}
		if k.Tag[0] == g.Terminator[0] {
			return invalid("kind %q: tag starts with the terminator's first byte", k.Name)
		}
		if strings.Contains(k.Tag, g.Terminator) {
			return invalid("kind %q: tag contains the terminator", k.Name)
		}
		key := fmt.Sprintf("%s/%t", k.Tag, k.Digits)
		if seen[key] {
			return invalid("kind %q duplicates an earlier kind", k.Name)
		}
		seen[key] = true
		if k.Name != "" {
			if names[k.Name] {
				return invalid("kind name %q is not unique", k.Name)
			}
			names[k.Name] = true
		}
	}
	return nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, args...))
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

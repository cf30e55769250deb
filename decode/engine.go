// Package decode implements a resumable decoder for header-delimited frames.
//
// Input arrives in arbitrary chunks. The decoder examines every byte exactly
// once, keeps partial progress across chunk boundaries and reports exactly
// how many bytes each frame used.
package decode

import (
	"fmt"

	"github.com/justapithecus/hdrframe/cursor"
	"github.com/justapithecus/hdrframe/grammar"
	"github.com/justapithecus/hdrframe/types"
)

// Status is the result kind of a decode run.
type Status uint8

const (
	// StatusSuspended: more input is needed.
	StatusSuspended Status = iota
	// StatusDone: a frame was decoded.
	StatusDone
	// StatusFailed: the input cannot be a frame. Terminal.
	StatusFailed
)

// String returns the name of the status.
func (s Status) String() string {
	switch s {
	case StatusSuspended:
		return "suspended"
	case StatusDone:
		return "done"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Outcome is the result of Engine.Run.
type Outcome struct {
	Status  Status
	Message *types.Message
	// Consumed is the number of leading bytes of the accumulator view that
	// are no longer needed. On Suspended it covers committed header lines,
	// on Done it ends one past the body terminator.
	Consumed int
	Err      error
}

// Engine decodes frames of one grammar. It is immutable and safe for
// concurrent use; each stream carries its own State.
type Engine struct {
	g grammar.Grammar
}

// New returns an engine for g after filling defaults and validating it.
func New(g grammar.Grammar) (*Engine, error) {
	g = g.WithDefaults()
	if err := g.Validate(); err != nil {
		return nil, err
	}
	return &Engine{g: g}, nil
}

// MustNew is like New but panics on an invalid grammar.
func MustNew(g grammar.Grammar) *Engine {
	e, err := New(g)
	if err != nil {
		panic(err)
	}
	return e
}

// Grammar returns the engine's grammar with defaults applied.
func (e *Engine) Grammar() grammar.Grammar {
	return e.g.WithDefaults()
}

// Run resumes st against the unconsumed bytes of acc.
//
// Bytes before the state's position are never examined again. The caller
// may drop Outcome.Consumed bytes from acc before the next run.
func (e *Engine) Run(acc *cursor.Accumulator, st *State) Outcome {
	base := acc.Base()

	switch st.phase {
	case PhaseFailed:
		return Outcome{Status: StatusFailed, Err: st.err}
	case PhaseComplete:
		consumed := st.pos - base
		if consumed < 0 {
			consumed = 0
		}
		return Outcome{Status: StatusDone, Message: st.msg, Consumed: int(consumed)}
	}

	if !st.started {
		st.started = true
		st.phase = PhaseScanning
		st.frameStart = base
		st.pos = base
		st.committed = base
		st.slot.reset(&e.g, base, true)
	}
	if st.committed < base {
		panic(fmt.Sprintf("decode: accumulator base %d is past committed offset %d", base, st.committed))
	}

	view := acc.Bytes()
	for i := int(st.pos - base); i < len(view); i++ {
		b := view[i]
		pos := st.pos
		st.pos++

		switch st.phase {
		case PhaseScanning:
			switch st.slot.feed(b, pos) {
			case slotHeader:
				hv := st.slot.kinds[st.slot.winner].header()
				st.headers = append(st.headers, types.Header{Kind: hv.kind, Value: hv.value})
				st.matched++
				st.committed = st.pos
				st.slot.reset(&e.g, st.pos, st.matched < e.g.Max)
			case slotSeparator:
				if st.matched < e.g.Min {
					return st.fail(acc, missingHeader(&e.g, st.slot.start, st.matched))
				}
				st.committed = st.pos
				st.phase = PhaseReadingBody
				st.body.reset(st.pos, e.g.Terminator, e.g.Limits.MaxBody)
			case slotRejected:
				return st.fail(acc, st.slot.rejection())
			}

		case PhaseReadingBody:
			v, err := st.body.feed(b, pos)
			if err != nil {
				return st.fail(acc, err)
			}
			if v == done {
				return st.complete(acc)
			}
		}
	}

	return Outcome{Status: StatusSuspended, Consumed: int(st.committed - base)}
}

func (s *State) complete(acc *cursor.Accumulator) Outcome {
	base := acc.Base()
	view := acc.Bytes()
	rel := int(s.body.start - base)

	body := make([]byte, s.body.length())
	copy(body, view[rel:rel+len(body)])

	s.msg = &types.Message{
		Offset:  s.frameStart,
		Length:  int(s.pos - s.frameStart),
		Headers: s.headers,
		Body:    body,
	}
	s.phase = PhaseComplete
	s.committed = s.pos
	return Outcome{Status: StatusDone, Message: s.msg, Consumed: int(s.pos - base)}
}

func (s *State) fail(acc *cursor.Accumulator, err *Error) Outcome {
	// Keep only the uncommitted bytes examined so far; the window is the
	// same however the input was chunked.
	base := acc.Base()
	view := acc.Bytes()
	start, end := int(s.committed-base), int(s.pos-base)
	if end > len(view) {
		end = len(view)
	}
	if start > end {
		start = end
	}
	err.Input = append([]byte(nil), view[start:end]...)
	err.InputOffset = s.committed
	s.phase = PhaseFailed
	s.err = err
	return Outcome{Status: StatusFailed, Err: err}
}

// DecodeOnce decodes the first frame of buf.
//
// It returns (nil, 0, nil) when buf holds an incomplete frame, (msg, n, nil)
// when the frame used the first n bytes, and (nil, 0, err) when buf cannot
// start with a frame.
func (e *Engine) DecodeOnce(buf []byte) (*types.Message, int, error) {
	var st State
	out := e.Run(cursor.Wrap(buf), &st)
	switch out.Status {
	case StatusDone:
		return out.Message, out.Consumed, nil
	case StatusFailed:
		return nil, 0, out.Err
	}
	return nil, 0, nil
}

// DecodeAll decodes consecutive frames from buf. It returns the frames
// decoded, the bytes they used, and the error that stopped decoding, if
// any. Trailing bytes of an incomplete frame are left unconsumed.
func (e *Engine) DecodeAll(buf []byte) ([]*types.Message, int, error) {
	var msgs []*types.Message
	n := 0
	for n < len(buf) {
		msg, used, err := e.DecodeOnce(buf[n:])
		if err != nil {
			if de, ok := AsError(err); ok {
				de.Offset += int64(n)
				de.InputOffset += int64(n)
			}
			return msgs, n, err
		}
		if msg == nil {
			break
		}
		msg.Offset += int64(n)
		msg.Seq = int64(len(msgs) + 1)
		msgs = append(msgs, msg)
		n += used
	}
	return msgs, n, nil
}

var reference = MustNew(grammar.Reference())

// Reference returns the engine for the reference grammar.
func Reference() *Engine {
	return reference
}

// DecodeOnce decodes the first frame of buf with the reference grammar.
func DecodeOnce(buf []byte) (*types.Message, int, error) {
	return reference.DecodeOnce(buf)
}

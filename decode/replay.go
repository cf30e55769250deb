package decode

import (
	"bytes"
	"fmt"
	"slices"

	"github.com/justapithecus/hdrframe/types"
)

// Replay is everything a stream produced from one sequence of chunks.
type Replay struct {
	Messages []*types.Message
	Err      error
	Consumed int64
	InFrame  bool
}

// Replay feeds chunks to a fresh stream, draining buffered frames after
// each one, and stops at the first failure.
func (e *Engine) Replay(chunks [][]byte) Replay {
	var r Replay
	s := e.NewStream()
	for _, chunk := range chunks {
		msg, err := s.Step(chunk)
		for msg != nil {
			r.Messages = append(r.Messages, msg)
			msg, err = s.Step(nil)
		}
		if err != nil {
			r.Err = err
			break
		}
	}
	r.Consumed = s.Consumed()
	r.InFrame = s.Err() == nil && s.InFrame()
	return r
}

// Diff describes the first difference between two replays, or returns ""
// when they agree. Decode errors are compared by kind, offset, offending
// token and expectations; their excerpts depend on chunking and are ignored.
func (r Replay) Diff(other Replay) string {
	for i := range min(len(r.Messages), len(other.Messages)) {
		if d := diffMessage(r.Messages[i], other.Messages[i]); d != "" {
			return fmt.Sprintf("message %d: %s", i+1, d)
		}
	}
	if len(r.Messages) != len(other.Messages) {
		return fmt.Sprintf("decoded %d messages, want %d", len(other.Messages), len(r.Messages))
	}
	if d := diffError(r.Err, other.Err); d != "" {
		return d
	}
	if r.Err != nil {
		return ""
	}
	if r.Consumed != other.Consumed {
		return fmt.Sprintf("consumed %d bytes, want %d", other.Consumed, r.Consumed)
	}
	if r.InFrame != other.InFrame {
		return fmt.Sprintf("in frame %t, want %t", other.InFrame, r.InFrame)
	}
	return ""
}

func diffMessage(want, got *types.Message) string {
	switch {
	case want.Seq != got.Seq:
		return fmt.Sprintf("seq %d, want %d", got.Seq, want.Seq)
	case want.Offset != got.Offset:
		return fmt.Sprintf("offset %d, want %d", got.Offset, want.Offset)
	case want.Length != got.Length:
		return fmt.Sprintf("length %d, want %d", got.Length, want.Length)
	case !slices.Equal(want.Headers, got.Headers):
		return fmt.Sprintf("headers %v, want %v", got.Headers, want.Headers)
	case !bytes.Equal(want.Body, got.Body):
		return fmt.Sprintf("body %q, want %q", got.Body, want.Body)
	}
	return ""
}

func diffError(want, got error) string {
	if want == nil && got == nil {
		return ""
	}
	if want == nil || got == nil {
		return fmt.Sprintf("error %v, want %v", got, want)
	}
	w, wok := AsError(want)
	g, gok := AsError(got)
	if !wok || !gok {
		if want.Error() != got.Error() {
			return fmt.Sprintf("error %q, want %q", got, want)
		}
		return ""
	}
	if w.Kind != g.Kind || w.Offset != g.Offset || w.Found != g.Found || !slices.Equal(w.Expected, g.Expected) {
		return fmt.Sprintf("error %s at %d (%s), want %s at %d (%s)",
			g.Kind, g.Offset, g.Found, w.Kind, w.Offset, w.Found)
	}
	return ""
}

// TraceStep records the stream after one call to Step.
type TraceStep struct {
	Step      int    `json:"step" yaml:"step"`
	Chunk     string `json:"chunk" yaml:"chunk"`
	Outcome   string `json:"outcome" yaml:"outcome"`
	Phase     Phase  `json:"phase" yaml:"phase"`
	Pos       int64  `json:"pos" yaml:"pos"`
	Committed int64  `json:"committed" yaml:"committed"`
	Matched   int    `json:"matched" yaml:"matched"`
	Consumed  int64  `json:"consumed" yaml:"consumed"`
	Buffered  int    `json:"buffered" yaml:"buffered"`
	Seq       int64  `json:"seq,omitempty" yaml:"seq,omitempty"`
	Body      string `json:"body,omitempty" yaml:"body,omitempty"`
	Error     string `json:"error,omitempty" yaml:"error,omitempty"`
}

// Trace outcomes.
const (
	TraceNeedMore = "need_more"
	TraceDone     = "done"
	TraceFailed   = "failed"
)

// Trace feeds chunks to a fresh stream and records every step, including
// the Step(nil) calls that drain buffered frames.
func (e *Engine) Trace(chunks [][]byte) []TraceStep {
	var steps []TraceStep
	s := e.NewStream()

	record := func(chunk []byte, msg *types.Message, err error) {
		snap := s.Snapshot()
		step := TraceStep{
			Step:      len(steps) + 1,
			Chunk:     fmt.Sprintf("%q", chunk),
			Outcome:   TraceNeedMore,
			Phase:     snap.Phase,
			Pos:       snap.Pos,
			Committed: snap.Committed,
			Matched:   snap.Matched,
			Consumed:  s.Consumed(),
			Buffered:  s.Buffered(),
		}
		switch {
		case err != nil:
			step.Outcome = TraceFailed
			step.Error = err.Error()
		case msg != nil:
			step.Outcome = TraceDone
			step.Seq = msg.Seq
			step.Body = string(msg.Body)
		}
		steps = append(steps, step)
	}

	for _, chunk := range chunks {
		msg, err := s.Step(chunk)
		record(chunk, msg, err)
		for msg != nil {
			msg, err = s.Step(nil)
			record(nil, msg, err)
		}
		if err != nil {
			break
		}
	}
	return steps
}

package decode

import (
	"github.com/justapithecus/hdrframe/types"
)

// Phase is the macro state of a frame decode.
type Phase uint8

const (
	PhaseScanning Phase = iota
	PhaseReadingBody
	PhaseComplete
	PhaseFailed
)

// String returns the snake_case name of the phase.
func (p Phase) String() string {
	switch p {
	case PhaseScanning:
		return "scanning"
	case PhaseReadingBody:
		return "reading_body"
	case PhaseComplete:
		return "complete"
	case PhaseFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// State is the resumable progress of one frame decode. The zero value is
// ready to decode a frame starting at the accumulator's base.
//
// State records absolute positions, so a run may be resumed against an
// accumulator that has dropped the prefix reported as consumed.
type State struct {
	started    bool
	phase      Phase
	frameStart int64
	// pos is the absolute offset of the next unexamined byte.
	pos int64
	// committed is the absolute offset up to which bytes are no longer
	// needed.
	committed int64
	matched   int
	headers   []types.Header
	slot      slot
	body      bodyScan
	msg       *types.Message
	err       *Error
}

// Phase returns the current macro state.
func (s *State) Phase() Phase {
	return s.phase
}

// Reset prepares the state for the next frame.
func (s *State) Reset() {
	s.started = false
	s.phase = PhaseScanning
	s.frameStart = 0
	s.pos = 0
	s.committed = 0
	s.matched = 0
	s.headers = nil
	s.msg = nil
	s.err = nil
}

// Snapshot is a point-in-time view of decode progress.
type Snapshot struct {
	Phase      Phase `json:"phase" yaml:"phase"`
	FrameStart int64 `json:"frame_start" yaml:"frame_start"`
	Pos        int64 `json:"pos" yaml:"pos"`
	Committed  int64 `json:"committed" yaml:"committed"`
	Matched    int   `json:"matched" yaml:"matched"`
	BodyLength int   `json:"body_length" yaml:"body_length"`
}

// Snapshot returns the state's progress.
func (s *State) Snapshot() Snapshot {
	snap := Snapshot{
		Phase:      s.phase,
		FrameStart: s.frameStart,
		Pos:        s.pos,
		Committed:  s.committed,
		Matched:    s.matched,
	}
	if s.phase == PhaseReadingBody || s.phase == PhaseComplete {
		snap.BodyLength = s.body.length()
	}
	return snap
}

func (s *State) inFrame() bool {
	return s.started && s.pos > s.frameStart
}

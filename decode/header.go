package decode

import (
	"fmt"

	"github.com/justapithecus/hdrframe/grammar"
)

type stage uint8

const (
	stageTag stage = iota
	stageDigits
	stageTerm
	stageDead
)

// kindMatcher tracks one header alternative through Tag [Digits] Terminator.
type kindMatcher struct {
	kind   *grammar.Kind
	stage  stage
	tag    literal
	digits digitRun
	term   literal
}

func (m *kindMatcher) reset(k *grammar.Kind, term string, maxDigits int) {
	m.kind = k
	m.stage = stageTag
	m.tag.reset(k.Tag)
	m.digits.reset(maxDigits)
	m.term.reset(term)
}

// feed advances the matcher by one byte. On fail or overflow it returns what
// it expected at that byte.
func (m *kindMatcher) feed(b byte) (verdict, []string) {
	switch m.stage {
	case stageTag:
		switch m.tag.feed(b) {
		case done:
			if m.kind.Digits {
				m.stage = stageDigits
			} else {
				m.stage = stageTerm
			}
			return more, nil
		case more:
			return more, nil
		default:
			m.stage = stageDead
			return fail, []string{quote(m.kind.Tag)}
		}

	case stageDigits:
		switch m.digits.feed(b) {
		case more:
			return more, nil
		case overflow:
			m.stage = stageDead
			return overflow, []string{fmt.Sprintf("at most %d digits", m.digits.max)}
		case fail:
			m.stage = stageDead
			return fail, []string{"digit"}
		}
		// end: the digit run closed on b, which now belongs to the terminator.
		m.stage = stageTerm
		v := m.term.feed(b)
		if v == fail {
			m.stage = stageDead
			return fail, []string{"digit", quote(m.term.tok)}
		}
		return v, nil

	case stageTerm:
		v := m.term.feed(b)
		if v == fail {
			m.stage = stageDead
			return fail, []string{quote(m.term.tok)}
		}
		return v, nil
	}
	return fail, nil
}

func (m *kindMatcher) alive() bool {
	return m.stage != stageDead
}

func (m *kindMatcher) header() headerValue {
	hv := headerValue{kind: m.kind.Name}
	if m.kind.Digits {
		hv.value = string(m.digits.val)
	}
	return hv
}

type headerValue struct {
	kind  string
	value string
}

// rejection records an alternative giving up on a byte.
type rejection struct {
	offset   int64
	found    byte
	expected []string
	overflow bool
}

// slotResult is the resolution of a header slot after one byte.
type slotResult uint8

const (
	slotPending slotResult = iota
	slotHeader
	slotSeparator
	slotRejected
)

// slot advances every open alternative for one header position in
// lock-step, so a byte is examined once and no alternative loses progress
// when input runs out.
type slot struct {
	start    int64
	kinds    []kindMatcher
	sep      literal
	sepAlive bool
	winner   int
	rejected []rejection
}

func (s *slot) reset(g *grammar.Grammar, start int64, allowHeaders bool) {
	s.start = start
	s.winner = -1
	s.rejected = s.rejected[:0]
	s.sep.reset(g.Terminator)
	s.sepAlive = true

	if cap(s.kinds) < len(g.Kinds) {
		s.kinds = make([]kindMatcher, len(g.Kinds))
	}
	s.kinds = s.kinds[:len(g.Kinds)]
	for i := range s.kinds {
		s.kinds[i].reset(&g.Kinds[i], g.Terminator, g.Limits.MaxDigits)
		if !allowHeaders {
			s.kinds[i].stage = stageDead
		}
	}
}

// feed examines byte b at absolute offset pos. When several header kinds
// complete on the same byte the first in grammar order wins.
func (s *slot) feed(b byte, pos int64) slotResult {
	alive := false
	for i := range s.kinds {
		m := &s.kinds[i]
		if !m.alive() {
			continue
		}
		v, expected := m.feed(b)
		switch v {
		case done:
			if s.winner < 0 {
				s.winner = i
			}
		case fail, overflow:
			s.rejected = append(s.rejected, rejection{
				offset:   pos,
				found:    b,
				expected: expected,
				overflow: v == overflow,
			})
			continue
		}
		alive = true
	}

	sepDone := false
	if s.sepAlive {
		switch s.sep.feed(b) {
		case done:
			sepDone = true
		case more:
			alive = true
		default:
			s.sepAlive = false
			s.rejected = append(s.rejected, rejection{
				offset:   pos,
				found:    b,
				expected: []string{quote(s.sep.tok)},
			})
		}
	}

	switch {
	case s.winner >= 0:
		return slotHeader
	case sepDone:
		return slotSeparator
	case !alive:
		return slotRejected
	}
	return slotPending
}

// rejection folds the furthest rejections into one error.
func (s *slot) rejection() *Error {
	furthest := int64(-1)
	for _, r := range s.rejected {
		if r.offset > furthest {
			furthest = r.offset
		}
	}

	e := &Error{Kind: KindUnexpectedToken, Offset: furthest}
	seen := make(map[string]bool)
	for _, r := range s.rejected {
		if r.offset != furthest {
			continue
		}
		e.Found = quoteByte(r.found)
		if r.overflow {
			e.Kind = KindBodyTooLarge
		}
		for _, x := range r.expected {
			if !seen[x] {
				seen[x] = true
				e.Expected = append(e.Expected, x)
			}
		}
	}
	return e
}

func missingHeader(g *grammar.Grammar, at int64, matched int) *Error {
	expected := make([]string, 0, len(g.Kinds))
	for _, k := range g.Kinds {
		expected = append(expected, quote(k.Tag))
	}
	e := &Error{
		Kind:   KindMissingHeader,
		Offset: at,
		Found:  quote(g.Terminator),
	}
	e.Expected = []string{fmt.Sprintf("%d more header(s) of %s", g.Min-matched, joinAlternatives(expected))}
	return e
}

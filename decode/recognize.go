package decode

// verdict is the result of feeding one byte to a matcher.
type verdict uint8

const (
	// more: byte accepted, token incomplete.
	more verdict = iota
	// done: byte accepted, token complete.
	done
	// end: token complete before this byte; the byte is not consumed.
	end
	// fail: byte rejected.
	fail
	// overflow: byte rejected because a length limit was exceeded.
	overflow
)

// literal matches an exact byte sequence.
type literal struct {
	tok string
	n   int
}

func (l *literal) reset(tok string) {
	l.tok = tok
	l.n = 0
}

func (l *literal) feed(b byte) verdict {
	if b != l.tok[l.n] {
		return fail
	}
	l.n++
	if l.n == len(l.tok) {
		return done
	}
	return more
}

// digitRun matches one or more ASCII digits. The run is closed only by a
// non-digit byte, which it reports as end without consuming.
type digitRun struct {
	val []byte
	max int
}

func (d *digitRun) reset(max int) {
	d.val = d.val[:0]
	d.max = max
}

func (d *digitRun) feed(b byte) verdict {
	if isDigit(b) {
		if len(d.val) == d.max {
			return overflow
		}
		d.val = append(d.val, b)
		return more
	}
	if len(d.val) == 0 {
		return fail
	}
	return end
}

// takeUntil matches every byte up to the first byte of the terminator and
// then the terminator itself. The body may not contain the terminator's
// first byte unless the rest of the terminator follows.
type takeUntil struct {
	n      int
	max    int
	inTerm bool
	term   literal
}

func (t *takeUntil) reset(term string, max int) {
	t.n = 0
	t.max = max
	t.inTerm = false
	t.term.reset(term)
}

func (t *takeUntil) feed(b byte) verdict {
	if t.inTerm {
		return t.term.feed(b)
	}
	if b == t.term.tok[0] {
		t.inTerm = true
		return t.term.feed(b)
	}
	if t.n == t.max {
		return overflow
	}
	t.n++
	return more
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

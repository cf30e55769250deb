package decode

import "fmt"

// bodyScan tracks the body of the frame being decoded.
type bodyScan struct {
	start int64
	scan  takeUntil
}

func (b *bodyScan) reset(start int64, term string, max int) {
	b.start = start
	b.scan.reset(term, max)
}

// length is the number of body bytes seen, excluding the terminator.
func (b *bodyScan) length() int {
	return b.scan.n
}

func (b *bodyScan) feed(c byte, pos int64) (verdict, *Error) {
	v := b.scan.feed(c)
	switch v {
	case fail:
		return v, &Error{
			Kind:     KindUnexpectedToken,
			Offset:   pos,
			Found:    quoteByte(c),
			Expected: []string{quote(b.scan.term.tok)},
		}
	case overflow:
		return v, &Error{
			Kind:     KindBodyTooLarge,
			Offset:   pos,
			Found:    quoteByte(c),
			Expected: []string{fmt.Sprintf("at most %d body bytes", b.scan.max)},
		}
	}
	return v, nil
}

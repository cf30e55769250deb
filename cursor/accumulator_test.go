package cursor

import (
	"bytes"
	"testing"
)

func TestAccumulator_AppendConsume(t *testing.T) {
	a := New()
	a.Append([]byte("foobar"))
	a.Append([]byte("12"))

	if got := string(a.Bytes()); got != "foobar12" {
		t.Fatalf("Bytes() = %q, want %q", got, "foobar12")
	}

	a.Consume(3)
	if got := string(a.Bytes()); got != "bar12" {
		t.Errorf("Bytes() = %q, want %q", got, "bar12")
	}
	if a.Base() != 3 {
		t.Errorf("Base() = %d, want 3", a.Base())
	}
	if a.End() != 8 {
		t.Errorf("End() = %d, want 8", a.End())
	}

	a.Consume(a.Len())
	if a.Len() != 0 {
		t.Errorf("Len() = %d, want 0", a.Len())
	}
	if a.Base() != 8 {
		t.Errorf("Base() = %d, want 8", a.Base())
	}
}

func TestAccumulator_AppendCopies(t *testing.T) {
	a := New()
	chunk := []byte("abc")
	a.Append(chunk)
	chunk[0] = 'x'

	if got := string(a.Bytes()); got != "abc" {
		t.Errorf("Bytes() = %q, accumulator aliased the chunk", got)
	}
}

func TestAccumulator_ConsumePanicsPastEnd(t *testing.T) {
	a := New()
	a.Append([]byte("ab"))

	defer func() {
		if recover() == nil {
			t.Fatal("expected panic")
		}
	}()
	a.Consume(3)
}

func TestAccumulator_Compaction(t *testing.T) {
	a := New()
	var want bytes.Buffer
	consumed := 0

	for i := 0; i < 200; i++ {
		chunk := bytes.Repeat([]byte{byte('a' + i%26)}, 100)
		a.Append(chunk)
		want.Write(chunk)

		n := 70
		a.Consume(n)
		consumed += n
	}

	if a.Base() != int64(consumed) {
		t.Errorf("Base() = %d, want %d", a.Base(), consumed)
	}
	if !bytes.Equal(a.Bytes(), want.Bytes()[consumed:]) {
		t.Error("live bytes diverged after compaction")
	}
}

func TestAccumulator_Reset(t *testing.T) {
	a := New()
	a.Append([]byte("abc"))
	a.Consume(1)
	a.Reset()

	if a.Len() != 0 || a.Base() != 0 {
		t.Errorf("after Reset: Len=%d Base=%d, want 0 0", a.Len(), a.Base())
	}
}

func TestWrap(t *testing.T) {
	buf := []byte("foobaz\r\n")
	a := Wrap(buf)

	if a.Len() != len(buf) {
		t.Fatalf("Len() = %d, want %d", a.Len(), len(buf))
	}
	a.Consume(6)
	if got := string(a.Bytes()); got != "\r\n" {
		t.Errorf("Bytes() = %q", got)
	}
	if string(buf) != "foobaz\r\n" {
		t.Error("Wrap modified caller buffer")
	}

	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on Append to wrapped buffer")
		}
	}()
	a.Append([]byte("x"))
}

package grammar

import (
	"errors"
	"testing"
)

func TestReference_Valid(t *testing.T) {
	if err := Reference().Validate(); err != nil {
		t.Fatalf("reference grammar invalid: %v", err)
	}
}

func TestWithDefaults(t *testing.T) {
	g := Grammar{
		Kinds: []Kind{{Tag: "len", Digits: true}},
		Max:   1,
	}.WithDefaults()

	if g.Terminator != DefaultTerminator {
		t.Errorf("Terminator = %q, want %q", g.Terminator, DefaultTerminator)
	}
	if g.Limits.MaxDigits != DefaultMaxDigits {
		t.Errorf("MaxDigits = %d, want %d", g.Limits.MaxDigits, DefaultMaxDigits)
	}
	if g.Limits.MaxBody != DefaultMaxBody {
		t.Errorf("MaxBody = %d, want %d", g.Limits.MaxBody, DefaultMaxBody)
	}
	if g.Kinds[0].Name != "len" {
		t.Errorf("Kinds[0].Name = %q, want tag as name", g.Kinds[0].Name)
	}
	if err := g.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestWithDefaults_DoesNotAliasKinds(t *testing.T) {
	orig := Grammar{Kinds: []Kind{{Tag: "a"}}, Max: 1}
	g := orig.WithDefaults()
	g.Kinds[0].Tag = "b"
	if orig.Kinds[0].Tag != "a" {
		t.Fatal("WithDefaults mutated the original kinds")
	}
}

func TestValidate_Rejects(t *testing.T) {
	base := func() Grammar { return Reference() }

	tests := []struct {
		name   string
		mutate func(*Grammar)
	}{
		{"empty terminator", func(g *Grammar) { g.Terminator = "" }},
		{"digit terminator", func(g *Grammar) { g.Terminator = "0\n" }},
		{"no kinds", func(g *Grammar) { g.Kinds = nil }},
		{"negative min", func(g *Grammar) { g.Min = -1 }},
		{"zero max", func(g *Grammar) { g.Min = 0; g.Max = 0 }},
		{"min above max", func(g *Grammar) { g.Min = 3 }},
		{"zero max digits", func(g *Grammar) { g.Limits.MaxDigits = 0 }},
		{"negative max body", func(g *Grammar) { g.Limits.MaxBody = -1 }},
		{"empty tag", func(g *Grammar) { g.Kinds[1].Tag = "" }},
		{"tag starts with terminator byte", func(g *Grammar) { g.Kinds[1].Tag = "\rx" }},
		{"tag contains terminator", func(g *Grammar) { g.Kinds[1].Tag = "ab\r\ncd" }},
		{"duplicate kind", func(g *Grammar) { g.Kinds[1] = g.Kinds[0]; g.Kinds[1].Name = "other" }},
		{"duplicate name", func(g *Grammar) { g.Kinds[1].Name = "foobar" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := base()
			tt.mutate(&g)
			err := g.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !errors.Is(err, ErrInvalid) {
				t.Errorf("error %v does not wrap ErrInvalid", err)
			}
		})
	}
}

func TestValidate_SameTagDifferentShape(t *testing.T) {
	g := Grammar{
		Kinds: []Kind{
			{Name: "n", Tag: "x", Digits: true},
			{Name: "plain", Tag: "x"},
		},
		Min:        0,
		Max:        4,
		Terminator: "\n",
		Limits:     Limits{MaxDigits: 4, MaxBody: 16},
	}
	if err := g.Validate(); err != nil {
		t.Fatalf("expected valid grammar, got %v", err)
	}
}

package render

import (
	"bytes"
	"flag"
	"strings"
	"testing"

	"github.com/urfave/cli/v2"

	"github.com/justapithecus/hdrframe/cli/reader"
	"github.com/justapithecus/hdrframe/decode"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Format
		wantErr bool
	}{
		{"json lowercase", "json", FormatJSON, false},
		{"json uppercase", "JSON", FormatJSON, false},
		{"table", "table", FormatTable, false},
		{"yaml", "yaml", FormatYAML, false},
		{"empty", "", "", false},
		{"invalid", "xml", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseFormat(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseFormat(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseFormat(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}

	if _, err := ParseFormat("csv"); err == nil || !strings.Contains(err.Error(), "json, table, or yaml") {
		t.Errorf("error should list valid formats, got %v", err)
	}
}

func newContext(t *testing.T, format string, out *bytes.Buffer) *cli.Context {
	t.Helper()
	set := flag.NewFlagSet("test", flag.ContinueOnError)
	set.String("format", "", "")
	if format != "" {
		if err := set.Set("format", format); err != nil {
			t.Fatal(err)
		}
	}
	return cli.NewContext(&cli.App{Writer: out}, set, nil)
}

func TestNewRenderer(t *testing.T) {
	var buf bytes.Buffer

	r, err := NewRenderer(newContext(t, "", &buf))
	if err != nil {
		t.Fatalf("NewRenderer: %v", err)
	}
	if r.Format() != FormatJSON {
		t.Errorf("non-TTY default = %s, want json", r.Format())
	}

	r, err = NewRenderer(newContext(t, "yaml", &buf))
	if err != nil || r.Format() != FormatYAML {
		t.Errorf("NewRenderer(yaml) = %v, %v", r, err)
	}

	if _, err := NewRenderer(newContext(t, "xml", &buf)); err == nil {
		t.Error("expected error for invalid format")
	}
}

func TestRenderer_JSONAndYAML(t *testing.T) {
	data := reader.MessageRow{Seq: 1, Length: 28, Headers: "foobar=1,foobaz", Body: "abcdefg"}

	var js bytes.Buffer
	if err := NewRendererWithWriter(FormatJSON, &js).Render(data); err != nil {
		t.Fatalf("Render json: %v", err)
	}
	if !strings.Contains(js.String(), `"headers": "foobar=1,foobaz"`) {
		t.Errorf("json output: %s", js.String())
	}

	var ym bytes.Buffer
	if err := NewRendererWithWriter(FormatYAML, &ym).Render(data); err != nil {
		t.Fatalf("Render yaml: %v", err)
	}
	if !strings.Contains(ym.String(), "body: abcdefg") {
		t.Errorf("yaml output: %s", ym.String())
	}
}

func TestRenderer_Table_Struct(t *testing.T) {
	var buf bytes.Buffer
	r := NewRendererWithWriter(FormatTable, &buf)

	data := &reader.StreamSummary{
		StreamID:     "s-1",
		Outcome:      "completed",
		Messages:     2,
		ErrorsByKind: map[string]int64{"unexpected_token": 1, "body_too_large": 2},
	}
	if err := r.Render(data); err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	got := buf.String()
	for _, want := range []string{"stream_id:", "s-1", "messages:", "body_too_large=2,unexpected_token=1"} {
		if !strings.Contains(got, want) {
			t.Errorf("table output missing %q:\n%s", want, got)
		}
	}
}

func TestRenderer_Table_Slice(t *testing.T) {
	var buf bytes.Buffer
	r := NewRendererWithWriter(FormatTable, &buf)

	steps := decode.Reference().Trace([][]byte{[]byte("foobaz\r\n"), []byte("\r\nxy\r\n")})
	if err := r.Render(steps); err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != len(steps)+1 {
		t.Fatalf("got %d lines, want header plus %d rows:\n%s", len(lines), len(steps), buf.String())
	}
	if !strings.HasPrefix(lines[0], "STEP") || !strings.Contains(lines[0], "PHASE") {
		t.Errorf("header row = %q", lines[0])
	}
	if !strings.Contains(lines[2], "done") || !strings.Contains(lines[1], "scanning") {
		t.Errorf("rows = %q / %q", lines[1], lines[2])
	}
}

func TestRenderer_Table_Empty(t *testing.T) {
	var buf bytes.Buffer
	r := NewRendererWithWriter(FormatTable, &buf)

	if err := r.Render([]reader.MessageRow{}); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if !strings.Contains(buf.String(), "(no results)") {
		t.Errorf("empty slice output = %q", buf.String())
	}
}

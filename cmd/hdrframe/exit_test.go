package main

import (
	"bytes"
	"errors"
	"testing"

	"github.com/urfave/cli/v2"
)

func TestExitErrHandler_NilError(t *testing.T) {
	// Should not panic or exit on nil error
	exitErrHandler(nil, nil)
}

func TestReportExit(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantOut  string
	}{
		{
			name:     "decode error without message",
			err:      cli.Exit("", 1),
			wantCode: 1,
			wantOut:  "",
		},
		{
			name:     "truncated without message",
			err:      cli.Exit("", 2),
			wantCode: 2,
			wantOut:  "",
		},
		{
			name:     "exit with message",
			err:      cli.Exit("--tui is not supported with --listen", 1),
			wantCode: 1,
			wantOut:  "--tui is not supported with --listen\n",
		},
		{
			name:     "wrapped exit coder",
			err:      errors.Join(errors.New("context"), cli.Exit("", 4)),
			wantCode: 4,
			wantOut:  "",
		},
		{
			name:     "regular error",
			err:      errors.New("open input: no such file"),
			wantCode: 1,
			wantOut:  "Error: open input: no such file\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if got := reportExit(&buf, tt.err); got != tt.wantCode {
				t.Errorf("code = %d, want %d", got, tt.wantCode)
			}
			if buf.String() != tt.wantOut {
				t.Errorf("output = %q, want %q", buf.String(), tt.wantOut)
			}
		})
	}
}

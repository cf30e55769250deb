package lode

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"syscall"
	"testing"

	"github.com/aws/smithy-go"
)

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"fs permission", &fs.PathError{Op: "open", Path: "/x", Err: syscall.EACCES}, ErrPermissionDenied},
		{"fs not exist", fmt.Errorf("stat root: %w", fs.ErrNotExist), ErrNotFound},
		{"fs disk full", &fs.PathError{Op: "write", Path: "/x", Err: syscall.ENOSPC}, ErrDiskFull},
		{"deadline", fmt.Errorf("put: %w", context.DeadlineExceeded), ErrTimeout},
		{"s3 access denied", &smithy.GenericAPIError{Code: "AccessDenied"}, ErrPermissionDenied},
		{"s3 no such key", fmt.Errorf("get: %w", &smithy.GenericAPIError{Code: "NoSuchKey"}), ErrNotFound},
		{"s3 slow down", &smithy.GenericAPIError{Code: "SlowDown"}, ErrThrottled},
		{"s3 expired token", &smithy.GenericAPIError{Code: "ExpiredToken"}, ErrAuth},
		{"s3 other code", &smithy.GenericAPIError{Code: "InternalError"}, ErrUnclassified},
		{"dial", &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}, ErrNetwork},
		{"dns timeout", &net.DNSError{Err: "lookup", Name: "s3.local", IsTimeout: true}, ErrTimeout},
		{"flattened errno", errors.New("write /data/x: no space left on device"), ErrDiskFull},
		{"flattened code", errors.New("SlowDown: please reduce your request rate"), ErrThrottled},
		{"no credentials", errors.New("failed to retrieve credentials: no providers"), ErrAuth},
		{"other", errors.New("something odd"), ErrUnclassified},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := classifyError(tt.err); got != tt.want {
				t.Errorf("classifyError(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestWrapErrors(t *testing.T) {
	if WrapWriteError(nil, "p") != nil || WrapReadError(nil, "p") != nil || WrapInitError(nil, "d") != nil {
		t.Fatal("wrapping nil should return nil")
	}

	base := &fs.PathError{Op: "write", Path: "/data", Err: syscall.ENOSPC}
	err := WrapWriteError(base, "hdrframe/source=x")

	if !errors.Is(err, ErrDiskFull) {
		t.Errorf("errors.Is(err, ErrDiskFull) = false")
	}
	if !errors.Is(err, base) {
		t.Errorf("underlying error lost from chain")
	}
	want := "write hdrframe/source=x: no space left on device: write /data: no space left on device"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}

	var se *StorageError
	if !errors.As(WrapReadError(base, ""), &se) || se.Op != "read" {
		t.Errorf("read wrap = %+v", se)
	}
	if !errors.As(WrapInitError(base, "ds"), &se) || se.Op != "init" || se.Path != "ds" {
		t.Errorf("init wrap = %+v", se)
	}
}

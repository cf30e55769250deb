package lode

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"strings"
	"syscall"

	"github.com/aws/smithy-go"
)

// ErrOutOfOrder is returned when a message batch would rewind a stream's
// sequence numbers.
var ErrOutOfOrder = errors.New("message out of order")

// Storage failure kinds. Use errors.Is(err, ErrXxx) on a *StorageError.
var (
	// ErrPermissionDenied covers EACCES on the fs store and AccessDenied on S3.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrNotFound covers a missing dataset root, bucket or key.
	ErrNotFound = errors.New("not found")

	// ErrDiskFull is ENOSPC on the fs store.
	ErrDiskFull = errors.New("no space left on device")

	ErrTimeout = errors.New("operation timed out")

	// ErrThrottled is S3 SlowDown.
	ErrThrottled = errors.New("rate limited")

	// ErrAuth covers missing, invalid or expired S3 credentials.
	ErrAuth = errors.New("authentication failed")

	// ErrNetwork covers dial and DNS failures reaching the S3 endpoint.
	ErrNetwork = errors.New("network error")

	// ErrUnclassified marks storage failures that match no other kind.
	ErrUnclassified = errors.New("storage error")
)

// StorageError wraps an underlying error with storage classification.
// It preserves the original error in the chain for inspection via errors.As.
type StorageError struct {
	// Kind is the sentinel error for classification (e.g., ErrPermissionDenied).
	Kind error
	// Op is the operation that failed (e.g., "write", "read", "list").
	Op string
	// Path is the storage path involved, if any.
	Path string
	// Err is the underlying error.
	Err error
}

func (e *StorageError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s %s: %v: %v", e.Op, e.Path, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %v: %v", e.Op, e.Kind, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As chain traversal.
func (e *StorageError) Unwrap() error {
	return e.Err
}

// Is reports whether the error matches the target sentinel.
func (e *StorageError) Is(target error) bool {
	return errors.Is(e.Kind, target)
}

// NewStorageError creates a classified storage error.
func NewStorageError(kind error, op, path string, err error) *StorageError {
	return &StorageError{
		Kind: kind,
		Op:   op,
		Path: path,
		Err:  err,
	}
}

// WrapWriteError classifies and wraps a write operation error.
// Returns nil if err is nil.
func WrapWriteError(err error, path string) error {
	if err == nil {
		return nil
	}
	kind := classifyError(err)
	return NewStorageError(kind, "write", path, err)
}

// WrapReadError classifies and wraps a read operation error.
// Returns nil if err is nil.
func WrapReadError(err error, path string) error {
	if err == nil {
		return nil
	}
	kind := classifyError(err)
	return NewStorageError(kind, "read", path, err)
}

// WrapInitError classifies and wraps a client initialization error.
// Returns nil if err is nil.
func WrapInitError(err error, dataset string) error {
	if err == nil {
		return nil
	}
	kind := classifyError(err)
	return NewStorageError(kind, "init", dataset, err)
}

// errorCodes maps S3 API error codes and the fs store's errno texts to
// failure kinds. The texts are matched when a store flattens the error chain.
var errorCodes = []struct {
	code string
	kind error
}{
	{"AccessDenied", ErrPermissionDenied},
	{"NoSuchBucket", ErrNotFound},
	{"NoSuchKey", ErrNotFound},
	{"SlowDown", ErrThrottled},
	{"RequestTimeout", ErrTimeout},
	{"ExpiredToken", ErrAuth},
	{"InvalidAccessKeyId", ErrAuth},
	{"SignatureDoesNotMatch", ErrAuth},
	{"failed to retrieve credentials", ErrAuth},
	{"permission denied", ErrPermissionDenied},
	{"no such file or directory", ErrNotFound},
	{"no space left on device", ErrDiskFull},
}

// classifyError maps a failure from lode's fs or S3 store to a kind.
func classifyError(err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return ErrTimeout
	case errors.Is(err, fs.ErrPermission):
		return ErrPermissionDenied
	case errors.Is(err, fs.ErrNotExist):
		return ErrNotFound
	case errors.Is(err, syscall.ENOSPC):
		return ErrDiskFull
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		code := apiErr.ErrorCode()
		for _, c := range errorCodes {
			if c.code == code {
				return c.kind
			}
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return ErrTimeout
		}
		return ErrNetwork
	}

	msg := err.Error()
	for _, c := range errorCodes {
		if strings.Contains(msg, c.code) {
			return c.kind
		}
	}
	return ErrUnclassified
}

package reader

import (
	"context"
	"errors"

	"github.com/justapithecus/lode/lode"

	hdrlode "github.com/justapithecus/hdrframe/lode"
)

// Reader reads persisted streams.
type Reader interface {
	Messages(ctx context.Context, streamID string) ([]MessageRow, error)
	Summary(ctx context.Context, streamID, source string) (*StreamSummary, error)
}

// LodeReader reads streams from a Lode dataset.
type LodeReader struct {
	ds lode.Dataset
}

// NewLodeReader returns a reader over ds.
func NewLodeReader(ds lode.Dataset) *LodeReader {
	return &LodeReader{ds: ds}
}

// Messages returns the stream's messages in sequence order.
func (r *LodeReader) Messages(ctx context.Context, streamID string) ([]MessageRow, error) {
	msgs, err := hdrlode.QueryMessages(ctx, r.ds, streamID)
	if err != nil {
		return nil, err
	}
	return MessageRows(msgs), nil
}

// Summary returns the latest summary for the stream. It returns
// hdrlode.ErrNoSummaryFound when the stream has none.
func (r *LodeReader) Summary(ctx context.Context, streamID, source string) (*StreamSummary, error) {
	record, err := hdrlode.QueryLatestSummary(ctx, r.ds, streamID, source)
	if err != nil {
		return nil, err
	}
	return ParseSummaryRecord(record)
}

// Show collects the show payload. A missing summary is not an error; a
// stream still being decoded has messages but no summary yet.
func Show(ctx context.Context, r Reader, streamID, source string) (*ShowResponse, error) {
	rows, err := r.Messages(ctx, streamID)
	if err != nil {
		return nil, err
	}
	summary, err := r.Summary(ctx, streamID, source)
	if err != nil && !errors.Is(err, hdrlode.ErrNoSummaryFound) {
		return nil, err
	}
	if rows == nil {
		rows = []MessageRow{}
	}
	return &ShowResponse{StreamID: streamID, Summary: summary, Messages: rows}, nil
}

var _ Reader = (*LodeReader)(nil)

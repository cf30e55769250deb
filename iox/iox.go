// Package iox provides I/O helpers for resource cleanup and chunked reads.
package iox

import "io"

// DiscardClose closes c and discards the error.
// Use in defer statements where close errors are unactionable:
//
//	defer iox.DiscardClose(f)
func DiscardClose(c io.Closer) { _ = c.Close() }

// CloseFunc returns a cleanup function that closes c.
// Designed for t.Cleanup and b.Cleanup registration:
//
//	t.Cleanup(iox.CloseFunc(client))
func CloseFunc(c io.Closer) func() {
	return func() { _ = c.Close() }
}

// DiscardErr calls fn and discards the returned error.
// Use for non-Close cleanup calls (e.g. Flush) where errors are unactionable:
//
//	defer iox.DiscardErr(w.Flush)
func DiscardErr(fn func() error) { _ = fn() }

// chunkReader caps every Read at max bytes.
type chunkReader struct {
	r   io.Reader
	max int
}

// ChunkReader returns a reader that returns at most max bytes per Read.
// A max below 1 returns r unchanged.
func ChunkReader(r io.Reader, max int) io.Reader {
	if max < 1 {
		return r
	}
	return &chunkReader{r: r, max: max}
}

func (c *chunkReader) Read(p []byte) (int, error) {
	if len(p) > c.max {
		p = p[:c.max]
	}
	return c.r.Read(p)
}

// chunksReader replays fixed chunks, one per Read.
type chunksReader struct {
	chunks [][]byte
	cur    []byte
}

// ChunksReader returns a reader whose Reads never cross a chunk boundary.
// Empty chunks are skipped.
func ChunksReader(chunks [][]byte) io.Reader {
	return &chunksReader{chunks: chunks}
}

func (c *chunksReader) Read(p []byte) (int, error) {
	for len(c.cur) == 0 {
		if len(c.chunks) == 0 {
			return 0, io.EOF
		}
		c.cur, c.chunks = c.chunks[0], c.chunks[1:]
	}
	n := copy(p, c.cur)
	c.cur = c.cur[n:]
	return n, nil
}

// SplitEvery cuts data into consecutive chunks of size bytes; the last
// chunk may be shorter. A size below 1 yields one chunk.
func SplitEvery(data []byte, size int) [][]byte {
	if size < 1 || len(data) <= size {
		return [][]byte{data}
	}
	out := make([][]byte, 0, (len(data)+size-1)/size)
	for len(data) > size {
		out = append(out, data[:size])
		data = data[size:]
	}
	return append(out, data)
}

// SplitAt cuts data at the given increasing offsets.
func SplitAt(data []byte, cuts ...int) [][]byte {
	out := make([][]byte, 0, len(cuts)+1)
	prev := 0
	for _, c := range cuts {
		out = append(out, data[prev:c])
		prev = c
	}
	return append(out, data[prev:])
}

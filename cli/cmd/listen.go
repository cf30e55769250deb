package cmd

import (
	"context"
	"errors"
	"net"
	"sync"

	"github.com/justapithecus/hdrframe/iox"
)

// serve decodes every accepted connection as its own stream until ctx is
// canceled or maxStreams connections have been accepted (0 = unbounded).
// onResult is called once per finished stream, never concurrently.
// In-flight streams are drained before serve returns.
func serve(ctx context.Context, ln net.Listener, p *streamPipeline, maxStreams int, onResult func(*DecodeResponse)) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Unblock Accept on cancellation.
	stop := context.AfterFunc(ctx, func() { iox.DiscardClose(ln) })
	defer stop()

	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)
	accepted := 0
	for maxStreams == 0 || accepted < maxStreams {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				break
			}
			iox.DiscardClose(ln)
			wg.Wait()
			return err
		}
		accepted++

		wg.Add(1)
		go func() {
			defer wg.Done()
			defer iox.DiscardClose(conn)
			// Unblock Read on cancellation.
			stopConn := context.AfterFunc(ctx, func() { iox.DiscardClose(conn) })
			defer stopConn()

			resp, err := p.run(ctx, conn, remoteSource(conn), "")
			if err != nil {
				p.logger.Error("stream setup failed", map[string]any{
					"remote": conn.RemoteAddr().String(),
					"error":  err.Error(),
				})
				return
			}
			mu.Lock()
			defer mu.Unlock()
			onResult(resp)
		}()
	}

	iox.DiscardClose(ln)
	wg.Wait()
	return nil
}

// remoteSource labels a connection by its remote address.
func remoteSource(conn net.Conn) string {
	if addr := conn.RemoteAddr(); addr != nil {
		return "tcp:" + addr.String()
	}
	return "tcp"
}

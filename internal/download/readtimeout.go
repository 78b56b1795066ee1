package download

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"
)

// errReadDone signals a clean end of stream to the caller of
// readWithContext, distinguishing it from a real (retriable) read error.
var errReadDone = errors.New("download: read done")

// readWithContext performs one Read on r, bounded by ctx. http.Response
// bodies don't accept a per-Read deadline directly, so the read runs on its
// own goroutine and the caller's ctx (already derived with a per-fragment
// timeout by the caller) governs how long we wait for it. If ctx expires
// first, the Read is abandoned in place (its goroutine leaks until the
// underlying connection is closed by the caller via resp.Body.Close(),
// which the task's retry loop always does) and a retriable error is
// reported so the chunk restarts from its last confirmed position.
func readWithContext(ctx context.Context, r io.Reader, buf []byte) (int, error) {
	type result struct {
		n   int
		err error
	}
	done := make(chan result, 1)

	go func() {
		n, err := r.Read(buf)
		done <- result{n, err}
	}()

	select {
	case res := <-done:
		if res.err == io.EOF {
			if res.n > 0 {
				return res.n, nil
			}
			return 0, errReadDone
		}
		return res.n, res.err
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}

// doWithTimeout bounds the send phase (connect, write the request, wait for
// response headers) by timeout, independent of req's own context: req keeps
// the caller's job-level ctx so a later Stop() still tears down an in-flight
// request, while a slow or stalled send times out on its own without being
// tied to how long the eventual body read takes. Like readWithContext, a
// timed-out send abandons its goroutine in place; it leaks until the
// underlying connection is closed by the caller's resp.Body.Close() or by
// ctx itself ending.
func doWithTimeout(ctx context.Context, client httpDoer, req *http.Request, timeout time.Duration) (*http.Response, error) {
	sendCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type result struct {
		resp *http.Response
		err  error
	}
	done := make(chan result, 1)

	go func() {
		resp, err := client.Do(req)
		done <- result{resp, err}
	}()

	select {
	case res := <-done:
		return res.resp, res.err
	case <-sendCtx.Done():
		return nil, sendCtx.Err()
	}
}

package download

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// runChunkTask drives one chunk's GET to completion, retrying on transport
// errors, per-fragment timeouts, and non-2xx responses up to
// cfg.RetryTimesOnFailure times.
func runChunkTask(ctx context.Context, cfg *Config, client httpDoer, limiter *RateLimiter, chunk *Chunk) error {
	if err := chunk.setup(); err != nil {
		return err
	}
	defer chunk.close()

	// A degenerate zero-length range (only possible for a zero-byte remote
	// object) never issues a GET at all, instead of sending the
	// historically ambiguous `bytes=0-0`.
	if chunk.rangeDownload && chunk.chunkRange.ChunkLength() == 0 {
		return chunk.flush()
	}
	if chunk.chunkRange.EOF() {
		// Already complete from a prior run (validate() resumed us here).
		return chunk.flush()
	}

	retryLimit := cfg.RetryTimesOnFailure
	bodyTimeout := time.Duration(cfg.chunkBodyTimeout()) * time.Second

	var retryCount uint8
	for {
		if ctx.Err() != nil {
			return nil // cancellation is not an error
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, cfg.URL, nil)
		if err != nil {
			return newErr(ErrRequest, err)
		}
		if chunk.rangeDownload {
			req.Header.Set("Range", fmt.Sprintf("bytes=%d-%d", chunk.chunkRange.Position, chunk.chunkRange.End))
		}

		resp, err := doWithTimeout(ctx, client, req, bodyTimeout)
		if ctx.Err() != nil {
			if resp != nil {
				resp.Body.Close()
			}
			return nil
		}
		if err != nil {
			if resp != nil {
				resp.Body.Close()
			}
			if retryCount >= retryLimit {
				return newErr(ErrRequest, err)
			}
			retryCount++
			continue
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			resp.Body.Close()
			if retryCount >= retryLimit {
				return newResponseErr(cfg.URL, resp.StatusCode)
			}
			retryCount++
			continue
		}

		ok, retriable, recvErr := receiveBody(ctx, resp, limiter, chunk, bodyTimeout)
		resp.Body.Close()
		if ok {
			return nil
		}
		if !retriable {
			return recvErr
		}
		if retryCount >= retryLimit {
			if flushErr := chunk.flush(); flushErr != nil {
				return flushErr
			}
			return newErr(ErrResponseChunk, recvErr)
		}
		retryCount++
	}
}

// receiveBody streams the response body into chunk, applying the rate
// limiter to every fragment. Returns (true, _, nil) on a clean EOF;
// (false, true, err) on a retriable body error (caller restarts the
// request); (false, false, err) on a non-retriable error (e.g. disk write
// failure, which is never retried).
func receiveBody(ctx context.Context, resp *http.Response, limiter *RateLimiter, chunk *Chunk, bodyTimeout time.Duration) (ok bool, retriable bool, err error) {
	buf := make([]byte, 32*1024)
	for {
		if ctx.Err() != nil {
			return true, false, nil // observing cancellation is success, not an error
		}

		readCtx, cancel := context.WithTimeout(ctx, bodyTimeout)
		n, readErr := readWithContext(readCtx, resp.Body, buf)
		cancel()

		if n > 0 {
			if err := limiter.Acquire(ctx, uint64(n)); err != nil {
				return true, false, nil
			}
			if err := chunk.receivedBytes(buf[:n]); err != nil {
				return false, false, err
			}
		}

		if readErr == errReadDone {
			if err := chunk.flush(); err != nil {
				return false, false, err
			}
			return true, false, nil
		}
		if readErr != nil {
			if ctx.Err() != nil {
				return true, false, nil // read abandoned by our own cancellation, not a transport failure
			}
			return false, true, readErr
		}
	}
}

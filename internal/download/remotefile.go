package download

import (
	"context"
	"net/http"
	"strconv"
	"time"
)

// RemoteFile is what a HEAD probe reveals about the object at a URL.
type RemoteFile struct {
	TotalLength         uint64
	SupportRangeDownload bool
	LastModifiedTime    int64 // unix seconds, 0 if absent/unparseable
}

func newRemoteFileFromHeader(h http.Header) RemoteFile {
	rf := RemoteFile{}

	if v := h.Get("Accept-Ranges"); v == "bytes" {
		rf.SupportRangeDownload = true
	}
	if v := h.Get("Content-Length"); v != "" {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			rf.TotalLength = n
		}
	}
	if v := h.Get("Last-Modified"); v != "" {
		// net/http already understands RFC 1123/850 and ANSI C asctime, the
		// superset of dates a compliant server sends for Last-Modified.
		if t, err := http.ParseTime(v); err == nil {
			rf.LastModifiedTime = t.Unix()
		}
	}
	return rf
}

// probeHead issues one HEAD request, retrying transport errors up to
// retryLimit times. A non-2xx status is never retried: it is reported
// immediately as Response(url, status). The send itself is bounded by
// sendTimeout, the same way a chunk GET's send is bounded by its configured
// timeout.
func probeHead(ctx context.Context, client httpDoer, url string, retryLimit uint8, sendTimeout time.Duration) (RemoteFile, error) {
	var lastErr error
	for attempt := uint8(0); ; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
		if err != nil {
			return RemoteFile{}, newErr(ErrHead, err)
		}

		resp, err := doWithTimeout(ctx, client, req, sendTimeout)
		if err != nil {
			if resp != nil {
				resp.Body.Close()
			}
			lastErr = err
			if attempt >= retryLimit {
				return RemoteFile{}, newErr(ErrHead, lastErr)
			}
			continue
		}
		resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return RemoteFile{}, newResponseErr(url, resp.StatusCode)
		}
		return newRemoteFileFromHeader(resp.Header), nil
	}
}

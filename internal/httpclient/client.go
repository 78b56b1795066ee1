// Package httpclient builds the retrying HTTP client fluxdl issues HEAD
// probes and ranged GETs through.
package httpclient

import (
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/rs/zerolog"
)

// Client is the net/http-shaped transport every download component depends
// on (download.httpDoer): a single Do(req) method backed by
// hashicorp/go-retryablehttp's exponential-backoff retry policy.
type Client struct {
	inner *http.Client
}

// Options configures New. Zero value selects the defaults below.
type Options struct {
	RetryMax     int           // default 5
	RetryWaitMin time.Duration // default 1s
	RetryWaitMax time.Duration // default 30s
	Timeout      time.Duration // default 0 (no client-wide deadline; per-request contexts govern timeouts)
}

// New builds a Client logging retry attempts through log at debug/warn
// level.
func New(log zerolog.Logger, opts Options) *Client {
	if opts.RetryMax == 0 {
		opts.RetryMax = 5
	}
	if opts.RetryWaitMin == 0 {
		opts.RetryWaitMin = time.Second
	}
	if opts.RetryWaitMax == 0 {
		opts.RetryWaitMax = 30 * time.Second
	}

	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = opts.RetryMax
	retryClient.RetryWaitMin = opts.RetryWaitMin
	retryClient.RetryWaitMax = opts.RetryWaitMax
	retryClient.Logger = &retryLogger{log: log}
	if opts.Timeout > 0 {
		retryClient.HTTPClient.Timeout = opts.Timeout
	}

	return &Client{inner: retryClient.StandardClient()}
}

// Do issues req, retrying transient failures per the configured policy.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	return c.inner.Do(req)
}

// retryLogger adapts zerolog to retryablehttp.LeveledLogger. A context
// canceled error is expected whenever a job is stopped mid-retry, so it is
// logged at debug rather than warn to avoid spamming a caller's console
// every time a user cancels a download.
type retryLogger struct {
	log zerolog.Logger
}

func (l *retryLogger) Error(msg string, kv ...interface{}) {
	l.event(l.log.Error(), msg, kv).Msg("retry error")
}

func (l *retryLogger) Info(msg string, kv ...interface{}) {
	l.event(l.log.Info(), msg, kv).Msg("retry info")
}

func (l *retryLogger) Debug(msg string, kv ...interface{}) {
	l.event(l.log.Debug(), msg, kv).Msg("retry debug")
}

func (l *retryLogger) Warn(msg string, kv ...interface{}) {
	l.event(l.log.Warn(), msg, kv).Msg("retry warn")
}

// event fills in evt's fields, downgrading to debug-only detail when kv
// carries a context-canceled cause: that happens on every job a caller
// stops mid-retry, and logging it at the caller's chosen level would spam
// the console for perfectly ordinary cancellation.
func (l *retryLogger) event(evt *zerolog.Event, msg string, kv []interface{}) *zerolog.Event {
	for _, v := range kv {
		if strings.Contains(toString(v), "context canceled") {
			return l.log.Debug().Str("detail", msg)
		}
	}
	return evt.Str("detail", msg).Interface("kv", kv)
}

func toString(v interface{}) string {
	if err, ok := v.(error); ok {
		return err.Error()
	}
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

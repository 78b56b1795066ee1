package download

import "net/http"

// httpDoer is the subset of *httpclient.Client (itself a thin wrapper over
// *retryablehttp.Client.StandardClient()) the engine needs: a single
// Do(req). Kept narrow so tests can fake the transport without a real
// network round trip.
type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

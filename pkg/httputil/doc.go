// Package httputil fetches chart documents over HTTP.
//
// [Client.Get] downloads a document with retries on transient failures
// (network errors, 429 and 5xx responses) and keeps the body in a
// [cache.Cache] for a configurable time, so rendering the same remote
// document repeatedly hits the network once:
//
//	client := httputil.NewClient(store, time.Hour)
//	data, err := client.Get(ctx, "https://example.com/sales.json")
//
// A 404 is reported as errors.ErrCodeFileNotFound, other 4xx responses as
// errors.ErrCodeInvalidInput.
package httputil

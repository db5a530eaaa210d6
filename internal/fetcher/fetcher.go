// Package fetcher retrieves listing and search pages over HTTP.
package fetcher

import (
	"context"

	"github.com/rotisserie/eris"
)

// Fetcher returns the body of a page.
type Fetcher interface {
	Fetch(ctx context.Context, url string, opts ...RequestOption) (string, error)
}

// ErrBlocked is returned when the server answered with a bot challenge
// instead of the requested page.
var ErrBlocked = eris.New("fetcher: blocked by bot protection")

type requestOptions struct {
	referer string
	query   map[string]string
}

// RequestOption adjusts a single fetch.
type RequestOption func(*requestOptions)

// WithReferer sets the Referer header.
func WithReferer(ref string) RequestOption {
	return func(o *requestOptions) { o.referer = ref }
}

// WithQuery adds a query parameter to the request URL.
func WithQuery(key, value string) RequestOption {
	return func(o *requestOptions) {
		if o.query == nil {
			o.query = make(map[string]string)
		}
		o.query[key] = value
	}
}

package trackapi

import (
	"net/http"
	"time"
)

// Options configures the catalog API factory.
//
// Defaults:
// - HTTPClient:     a plain http.Client shared by all per-request clients
// - RequestTimeout: 5s (used only if the incoming context has no deadline)
//
// BaseURL must be provided.
//
// All other options are safe to leave zero-valued to use defaults.

type Options struct {
	BaseURL    string
	HTTPClient *http.Client

	RequestTimeout time.Duration

	// ForwardHeaders lists incoming HTTP header names whose values are
	// attached to every outgoing fetch of the request's client.
	ForwardHeaders []string
}

// Option mutates Options
//
// Use WithX helpers below.

type Option func(*Options)

func defaultOptions() *Options {
	return &Options{
		HTTPClient:     &http.Client{},
		RequestTimeout: 5 * time.Second,
	}
}

func WithBaseURL(u string) Option          { return func(o *Options) { o.BaseURL = u } }
func WithHTTPClient(c *http.Client) Option { return func(o *Options) { o.HTTPClient = c } }
func WithRequestTimeout(d time.Duration) Option {
	return func(o *Options) { o.RequestTimeout = d }
}
func WithForwardHeaders(names ...string) Option {
	return func(o *Options) { o.ForwardHeaders = names }
}

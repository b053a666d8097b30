package trackapi

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	jsoniter "github.com/json-iterator/go"

	eventbus "github.com/dunatron/odyssey-lift-off-part2/internal/eventbus"
	events "github.com/dunatron/odyssey-lift-off-part2/internal/events"
	model "github.com/dunatron/odyssey-lift-off-part2/internal/model"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Factory builds per-request catalog clients. The factory is long-lived and
// safe for concurrent use; the clients it builds are not shared between
// requests, so each request starts with an empty fetch cache.
type Factory struct {
	opts *Options
}

func NewFactory(opts ...Option) *Factory {
	o := defaultOptions()
	for _, f := range opts {
		f(o)
	}
	o.BaseURL = strings.TrimRight(o.BaseURL, "/")
	return &Factory{opts: o}
}

// NewClient builds the client for one incoming request. Headers named in
// ForwardHeaders are copied from incoming and attached to every fetch.
func (f *Factory) NewClient(incoming http.Header) *Client {
	headers := make(http.Header)
	for _, name := range f.opts.ForwardHeaders {
		for _, v := range incoming.Values(name) {
			headers.Add(name, v)
		}
	}
	return &Client{
		base:    f.opts.BaseURL,
		http:    f.opts.HTTPClient,
		timeout: f.opts.RequestTimeout,
		headers: headers,
		cache:   make(map[string]*inflight),
	}
}

// Client reads the catalog REST API for a single GraphQL request. Identical
// GETs within the request are issued at most once: concurrent duplicates wait
// on the first flight, later duplicates replay its cached body. Failed and
// cancelled flights leave no cache entry.
type Client struct {
	base    string
	http    *http.Client
	timeout time.Duration
	headers http.Header

	mu    sync.Mutex
	cache map[string]*inflight
}

type inflight struct {
	done chan struct{}
	body []byte
	err  error
}

// TracksForHome fetches the homepage track list.
func (c *Client) TracksForHome(ctx context.Context) ([]*model.Record, error) {
	return c.getRecordList(ctx, "/tracks", "Track")
}

// Track fetches one track's detail record by id.
func (c *Client) Track(ctx context.Context, id string) (*model.Record, error) {
	return c.getRecord(ctx, "/track/"+url.PathEscape(id), "Track")
}

// TrackModules fetches the module records of one track.
func (c *Client) TrackModules(ctx context.Context, trackID string) ([]*model.Record, error) {
	return c.getRecordList(ctx, "/track/"+url.PathEscape(trackID)+"/modules", "Module")
}

// Author fetches one author record by id.
func (c *Client) Author(ctx context.Context, id string) (*model.Record, error) {
	return c.getRecord(ctx, "/author/"+url.PathEscape(id), "Author")
}

func (c *Client) getRecord(ctx context.Context, path, entity string) (*model.Record, error) {
	fullURL := c.base + path
	body, err := c.get(ctx, fullURL)
	if err != nil {
		return nil, err
	}
	var data map[string]any
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, &DecodeError{URL: fullURL, Err: err}
	}
	return model.NewRecord(entity, data), nil
}

func (c *Client) getRecordList(ctx context.Context, path, entity string) ([]*model.Record, error) {
	fullURL := c.base + path
	body, err := c.get(ctx, fullURL)
	if err != nil {
		return nil, err
	}
	var items []map[string]any
	if err := json.Unmarshal(body, &items); err != nil {
		return nil, &DecodeError{URL: fullURL, Err: err}
	}
	records := make([]*model.Record, len(items))
	for i, item := range items {
		records[i] = model.NewRecord(entity, item)
	}
	return records, nil
}

// get returns the response body for a GET, deduplicated within the request.
func (c *Client) get(ctx context.Context, fullURL string) ([]byte, error) {
	key := http.MethodGet + " " + fullURL

	c.mu.Lock()
	if f, ok := c.cache[key]; ok {
		c.mu.Unlock()
		select {
		case <-f.done:
			return f.body, f.err
		case <-ctx.Done():
			return nil, &TransportError{URL: fullURL, Err: ctx.Err()}
		}
	}
	f := &inflight{done: make(chan struct{})}
	c.cache[key] = f
	c.mu.Unlock()

	f.body, f.err = c.fetch(ctx, fullURL)
	if f.err != nil {
		c.mu.Lock()
		delete(c.cache, key)
		c.mu.Unlock()
	}
	close(f.done)
	return f.body, f.err
}

// fetch performs one network GET. No retries: any failure surfaces to the
// field that needed the data.
func (c *Client) fetch(ctx context.Context, fullURL string) ([]byte, error) {
	if _, ok := ctx.Deadline(); !ok && c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, &TransportError{URL: fullURL, Err: err}
	}
	for name, values := range c.headers {
		for _, v := range values {
			req.Header.Add(name, v)
		}
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	eventbus.Publish(ctx, events.FetchStart{Method: http.MethodGet, URL: fullURL})
	resp, err := c.http.Do(req)
	if err != nil {
		terr := &TransportError{URL: fullURL, Err: err}
		eventbus.Publish(ctx, events.FetchFinish{
			Method: http.MethodGet, URL: fullURL, Err: terr, Duration: time.Since(start),
		})
		return nil, terr
	}
	defer resp.Body.Close()

	body, readErr := io.ReadAll(resp.Body)

	var ferr error
	switch {
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		ferr = &RemoteError{URL: fullURL, Status: resp.StatusCode, Body: truncate(body, 512)}
	case readErr != nil:
		ferr = &TransportError{URL: fullURL, Err: readErr}
	}
	eventbus.Publish(ctx, events.FetchFinish{
		Method: http.MethodGet, URL: fullURL, Status: resp.StatusCode, Err: ferr, Duration: time.Since(start),
	})
	if ferr != nil {
		return nil, ferr
	}
	return body, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return fmt.Sprintf("%s... (%d bytes)", b[:n], len(b))
}

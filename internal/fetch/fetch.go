// Package fetch retrieves pages for the extractors.
//
// Client downloads a URL with resty, decodes EUC-JP and Shift_JIS bodies to
// UTF-8 and parses the result into a document.Node. Failures are returned
// as *Error, which matches racing.ErrFetch. Nothing is retried.
package fetch

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/xlatombet/abt/internal/document"
	"github.com/xlatombet/abt/internal/logger"
	"github.com/xlatombet/abt/internal/metrics"
	"github.com/xlatombet/abt/internal/racing"
	"golang.org/x/net/html/charset"
)

const (
	UserAgent = "abt/0.1 (+https://github.com/xlatombet/abt)"
	Timeout   = 30 * time.Second
)

// Fetcher turns a URL into a parsed page.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (document.Node, error)
}

// Error is a failed page retrieval.
type Error struct {
	URL        string
	StatusCode int // 0 when the request never got a response
	Err        error
}

func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetching %s: unexpected status code: %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetching %s: %v", e.URL, e.Err)
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{racing.ErrFetch}
	}
	return []error{racing.ErrFetch, e.Err}
}

// Client fetches pages over HTTP.
type Client struct {
	http    *resty.Client
	log     *logger.Logger
	metrics *metrics.Recorder
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout overrides the request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.SetTimeout(d) }
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.http.SetHeader("User-Agent", ua) }
}

// WithLogger sets the logger for request diagnostics.
func WithLogger(l *logger.Logger) Option {
	return func(c *Client) { c.log = l }
}

// WithMetrics records every fetch on r.
func WithMetrics(r *metrics.Recorder) Option {
	return func(c *Client) { c.metrics = r }
}

// New creates a Client.
func New(opts ...Option) *Client {
	c := &Client{
		http: resty.New().
			SetTimeout(Timeout).
			SetRetryCount(0).
			SetHeader("User-Agent", UserAgent),
		log: logger.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Fetch downloads and parses one page.
func (c *Client) Fetch(ctx context.Context, pageURL string) (document.Node, error) {
	start := time.Now()
	resp, err := c.http.R().SetContext(ctx).Get(pageURL)
	if err != nil {
		c.metrics.ObserveFetch(0, time.Since(start))
		c.log.Error("fetch failed", logger.Fields{"url": pageURL}, err)
		return nil, &Error{URL: pageURL, Err: err}
	}
	c.metrics.ObserveFetch(resp.StatusCode(), time.Since(start))

	if !resp.IsSuccess() {
		c.log.Warn("unexpected status", logger.Fields{"url": pageURL, "status": resp.StatusCode()})
		return nil, &Error{URL: pageURL, StatusCode: resp.StatusCode()}
	}

	c.log.Debug("fetched page", logger.Fields{
		"url":     pageURL,
		"status":  resp.StatusCode(),
		"bytes":   len(resp.Body()),
		"elapsed": time.Since(start).String(),
	})

	// An empty 2xx body is an empty page, not a failed fetch.
	var body io.Reader = bytes.NewReader(nil)
	if len(resp.Body()) > 0 {
		body, err = charset.NewReader(bytes.NewReader(resp.Body()), resp.Header().Get("Content-Type"))
		if err != nil {
			return nil, &Error{URL: pageURL, Err: fmt.Errorf("decoding body: %w", err)}
		}
	}
	doc, err := document.Parse(body)
	if err != nil {
		return nil, &Error{URL: pageURL, Err: err}
	}
	return doc, nil
}

// Resolve resolves href against base, as a browser would for a link.
func Resolve(base, href string) (string, error) {
	b, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("%w: %q", racing.ErrMalformedURL, base)
	}
	ref, err := url.Parse(href)
	if err != nil {
		return "", fmt.Errorf("%w: %q", racing.ErrMalformedURL, href)
	}
	return b.ResolveReference(ref).String(), nil
}

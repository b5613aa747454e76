// Copyright (c) 2022. Alvin Baena.
// SPDX-License-Identifier: MIT

package hibp

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"github.com/rs/zerolog/log"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	DefaultBaseURL   = "https://api.pwnedpasswords.com"
	DefaultTimeout   = 10 * time.Second
	DefaultUserAgent = "golang-pwd-fortress/1.0"
)

// ErrLookupFailed wraps every error produced during a lookup: network, status or parsing.
var ErrLookupFailed = errors.New("pwned passwords lookup failed")

// Result is the outcome of a leak lookup. A failed lookup is never the same as a zero count,
// zero is a confirmed "not found in any breach".
type Result struct {
	Count  int64 `json:"count" yaml:"count"`
	Failed bool  `json:"failed" yaml:"failed"`
}

// LookupFailed is the Result of a lookup whose leak status is unknown.
var LookupFailed = Result{Failed: true}

// Known reports whether the lookup completed, whatever the count.
func (r Result) Known() bool {
	return !r.Failed
}

// Pwned reports whether the lookup completed and found at least one occurrence.
func (r Result) Pwned() bool {
	return !r.Failed && r.Count > 0
}

// Doer executes HTTP requests. *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client queries the Pwned Passwords range API using k-anonymity: only the first 5 characters of
// the credential digest leave the process. It holds no per-lookup state, so it can be used from
// any number of goroutines.
type Client struct {
	baseURL   string
	userAgent string
	timeout   time.Duration
	padding   bool
	hasher    Hasher
	http      Doer
	cache     *RangeCache
	stat      *status
}

type Option func(c *Client)

func WithHasher(h Hasher) Option {
	return func(c *Client) {
		c.hasher = h
	}
}

func WithHTTPClient(d Doer) Option {
	return func(c *Client) {
		c.http = d
	}
}

// WithBaseURL points the client to another range API, e.g. a mirror or a test server.
func WithBaseURL(url string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(url, "/")
	}
}

// WithTimeout bounds every range request. Zero leaves only the caller's context in charge.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.timeout = timeout
	}
}

func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// WithPadding asks the API to pad responses with fake zero count records, so the response size does
// not give away the prefix.
func WithPadding(padding bool) Option {
	return func(c *Client) {
		c.padding = padding
	}
}

func WithRangeCache(cache *RangeCache) Option {
	return func(c *Client) {
		c.cache = cache
	}
}

func NewClient(opts ...Option) *Client {
	c := &Client{
		baseURL:   DefaultBaseURL,
		userAgent: DefaultUserAgent,
		timeout:   DefaultTimeout,
		hasher:    SHA1Hasher{},
		http:      http.DefaultClient,
		stat:      newStatus(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Lookup returns how many times the credential appears in the breach corpus. Any failure degrades to
// LookupFailed, the error is only logged at debug level.
func (c *Client) Lookup(ctx context.Context, credential string) Result {
	count, err := c.LookupErr(ctx, credential)
	if err != nil {
		log.Debug().Err(err).Msg("leak lookup failed")
		return LookupFailed
	}

	return Result{Count: count}
}

// LookupErr is Lookup with the failure reason, always wrapping ErrLookupFailed.
func (c *Client) LookupErr(ctx context.Context, credential string) (int64, error) {
	return c.LookupDigest(ctx, c.hasher.Digest(credential))
}

// LookupDigest runs the range query for an already computed hexadecimal digest.
func (c *Client) LookupDigest(ctx context.Context, digest string) (count int64, err error) {
	defer func() {
		if r := recover(); r != nil {
			count, err = 0, fmt.Errorf("%w: %v", ErrLookupFailed, r)
		}
	}()

	if len(digest) <= PrefixLen {
		return 0, fmt.Errorf("%w: digest is too short", ErrLookupFailed)
	}

	prefix, suffix := Split(strings.ToUpper(digest))
	body, err := c.rangeBody(ctx, prefix)
	if err != nil {
		return 0, fmt.Errorf("%w: range %s: %w", ErrLookupFailed, prefix, err)
	}

	count, err = ParseRange(bytes.NewReader(body), suffix)
	if err != nil {
		return 0, fmt.Errorf("%w: range %s: %w", ErrLookupFailed, prefix, err)
	}

	return count, nil
}

// Stats logs the request statistics gathered since the client was created.
func (c *Client) Stats() {
	c.stat.Log()
}

func (c *Client) rangeBody(ctx context.Context, prefix string) ([]byte, error) {
	if c.cache == nil {
		return c.downloadRange(ctx, prefix)
	}

	return c.cache.Fetch(ctx, prefix, func(ctx context.Context) ([]byte, error) {
		return c.downloadRange(ctx, prefix)
	})
}

func (c *Client) rangeHttpRequest(ctx context.Context, prefix string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/range/%s", c.baseURL, prefix), nil)
	if err != nil {
		return nil, err
	}

	req.Header.Set("User-Agent", c.userAgent)
	if c.padding {
		req.Header.Set("Add-Padding", "true")
	}
	return req, nil
}

func (c *Client) downloadRange(ctx context.Context, prefix string) ([]byte, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	timer := time.Now()
	req, err := c.rangeHttpRequest(ctx, prefix)
	if err != nil {
		return nil, err
	}

	res, err := c.http.Do(req)
	if err != nil {
		c.stat.RequestFailed()
		return nil, err
	}

	defer func(Body io.ReadCloser) {
		if err := Body.Close(); err != nil {
			log.Warn().Err(err).Msgf("error closing body for range %s", prefix)
		}
	}(res.Body)

	if res.StatusCode < 200 || res.StatusCode > 299 {
		c.stat.RequestFailed()
		return nil, fmt.Errorf("request for range [%s] failed with status [%d] %s", prefix, res.StatusCode, res.Status)
	}

	resBody, err := io.ReadAll(res.Body)
	if err != nil {
		c.stat.RequestFailed()
		return nil, err
	}

	c.stat.RequestComplete(res, time.Since(timer).Milliseconds())
	log.Debug().Msgf("range %s downloaded in %v", prefix, time.Since(timer))
	return resBody, nil
}

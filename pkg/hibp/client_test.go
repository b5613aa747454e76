// Copyright (c) 2022. Alvin Baena.
// SPDX-License-Identifier: MIT

package hibp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

const (
	passwordDigest = "5BAA61E4C9B93F3F0682250B6CF8331B7EE68FD2"
	passwordPrefix = "5BAA6"
	passwordSuffix = "1E4C9B93F3F0682250B6CF8331B7EE68FD2"
)

var passwordRange = strings.Join([]string{
	"1D2DA4053E34E76F6576ED1DA63134B5E2A:2",
	"1D72CD07550416C216D8AD296BF5C0AE8E0:10",
	"1E2AAA439972480CEC7F16C795BBB429372:1",
	"1E3687A61BFCE35F69B7408158101C8E414:1",
	passwordSuffix + ":3730471",
	"1E4E3E7F6D5D3C6F8A4B1C2D3E4F5A6B7C8:8",
}, "\r\n")

type requestLog struct {
	mu       sync.Mutex
	requests []*http.Request
}

func (l *requestLog) add(r *http.Request) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.requests = append(l.requests, r.Clone(context.Background()))
}

func (l *requestLog) all() []*http.Request {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]*http.Request(nil), l.requests...)
}

func rangeServer(t *testing.T, body string, status int, requests *requestLog) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if requests != nil {
			requests.add(r)
		}
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(status)
		_, _ = fmt.Fprint(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestSHA1Hasher(t *testing.T) {
	digest := SHA1Hasher{}.Digest("password")
	if digest != passwordDigest {
		t.Fatalf("Digest(password): %s, want: %s", digest, passwordDigest)
	}

	if again := (SHA1Hasher{}).Digest("password"); again != digest {
		t.Errorf("Digest should be deterministic, got %s and %s", digest, again)
	}

	prefix, suffix := Split(digest)
	if prefix != passwordPrefix {
		t.Errorf("prefix: %s, want: %s", prefix, passwordPrefix)
	}
	if suffix != passwordSuffix {
		t.Errorf("suffix: %s, want: %s", suffix, passwordSuffix)
	}
	if len(suffix) != SuffixLen {
		t.Errorf("suffix should have %d characters, has %d", SuffixLen, len(suffix))
	}
}

func TestIsSHA1Hex(t *testing.T) {
	cases := []struct {
		in   string
		want bool
	}{
		{passwordDigest, true},
		{strings.ToLower(passwordDigest), true},
		{passwordDigest[:39], false},
		{passwordDigest + "0", false},
		{"ZBAA61E4C9B93F3F0682250B6CF8331B7EE68FD2", false},
	}

	for _, tc := range cases {
		if got := IsSHA1Hex(tc.in); got != tc.want {
			t.Errorf("IsSHA1Hex(%s): %v, want: %v", tc.in, got, tc.want)
		}
	}
}

func TestClient_Lookup(t *testing.T) {
	requests := &requestLog{}
	srv := rangeServer(t, passwordRange, http.StatusOK, requests)

	client := NewClient(WithBaseURL(srv.URL))
	res := client.Lookup(context.Background(), "password")
	if res.Failed {
		t.Fatalf("Lookup should not fail")
	}
	if res.Count != 3730471 {
		t.Errorf("Lookup(password): %d, want: %d", res.Count, 3730471)
	}
	if !res.Pwned() {
		t.Errorf("password should be pwned")
	}

	sent := requests.all()
	if len(sent) != 1 {
		t.Fatalf("There should be exactly one request, have %d", len(sent))
	}
	path := sent[0].URL.Path
	if path != "/range/"+passwordPrefix {
		t.Errorf("request path: %s, want: /range/%s", path, passwordPrefix)
	}
	if strings.Contains(path, passwordSuffix) || strings.Contains(sent[0].URL.RawQuery, passwordSuffix) {
		t.Errorf("the digest suffix must never be sent")
	}
	if sent := strings.TrimPrefix(path, "/range/"); len(sent) != PrefixLen {
		t.Errorf("only %d digest characters should be sent, sent %d", PrefixLen, len(sent))
	}
}

func TestClient_LookupNotFound(t *testing.T) {
	srv := rangeServer(t, passwordRange, http.StatusOK, nil)

	// Same prefix as "password" but different suffix.
	client := NewClient(WithBaseURL(srv.URL), WithHasher(fixedHasher(passwordPrefix+strings.Repeat("0", SuffixLen))))
	res := client.Lookup(context.Background(), "anything")
	if res.Failed {
		t.Fatalf("Lookup should not fail")
	}
	if res.Count != 0 || res.Pwned() {
		t.Errorf("Lookup should find no leaks, found %d", res.Count)
	}
	if !res.Known() {
		t.Errorf("A zero count lookup is a known result")
	}
}

func TestClient_LookupFailures(t *testing.T) {
	cases := []struct {
		name   string
		body   string
		status int
	}{
		{"server error", "oops", http.StatusInternalServerError},
		{"rate limited", "slow down", http.StatusTooManyRequests},
		{"malformed body", "<html>not a range</html>", http.StatusOK},
		{"malformed count", passwordSuffix + ":many", http.StatusOK},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := rangeServer(t, tc.body, tc.status, nil)
			client := NewClient(WithBaseURL(srv.URL))

			res := client.Lookup(context.Background(), "password")
			if res != LookupFailed {
				t.Errorf("Lookup should fail, got %+v", res)
			}
			if res.Known() {
				t.Errorf("A failed lookup must not be a known result")
			}

			if _, err := client.LookupErr(context.Background(), "password"); !errors.Is(err, ErrLookupFailed) {
				t.Errorf("LookupErr should wrap ErrLookupFailed, got %v", err)
			}
		})
	}
}

func TestClient_LookupTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	res := NewClient(WithBaseURL(url)).Lookup(context.Background(), "password")
	if !res.Failed {
		t.Errorf("Lookup against a closed server should fail")
	}
	if res == (Result{Count: 0}) {
		t.Errorf("A failed lookup must be distinguishable from zero leaks")
	}
}

func TestClient_LookupTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	t.Cleanup(srv.Close)

	start := time.Now()
	res := NewClient(WithBaseURL(srv.URL), WithTimeout(50*time.Millisecond)).Lookup(context.Background(), "password")
	if !res.Failed {
		t.Errorf("Lookup should fail on timeout")
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("Lookup should give up after the timeout, took %v", elapsed)
	}
}

func TestClient_LookupCancelled(t *testing.T) {
	srv := rangeServer(t, passwordRange, http.StatusOK, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if res := NewClient(WithBaseURL(srv.URL)).Lookup(ctx, "password"); !res.Failed {
		t.Errorf("Lookup with a cancelled context should fail")
	}
}

func TestClient_Headers(t *testing.T) {
	requests := &requestLog{}
	srv := rangeServer(t, passwordRange, http.StatusOK, requests)

	client := NewClient(WithBaseURL(srv.URL+"/"), WithUserAgent("test-agent"), WithPadding(true))
	if res := client.Lookup(context.Background(), "password"); res.Count != 3730471 {
		t.Errorf("Lookup(password): %+v, want: %d", res, 3730471)
	}

	sent := requests.all()
	if len(sent) != 1 {
		t.Fatalf("There should be exactly one request, have %d", len(sent))
	}
	if ua := sent[0].Header.Get("User-Agent"); ua != "test-agent" {
		t.Errorf("User-Agent: %s, want: test-agent", ua)
	}
	if sent[0].Header.Get("Add-Padding") != "true" {
		t.Errorf("Add-Padding should be requested")
	}
}

func TestClient_RangeCache(t *testing.T) {
	var hits int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&hits, 1)
		_, _ = fmt.Fprint(w, passwordRange)
	}))
	t.Cleanup(srv.Close)

	cache, err := NewRangeCache(1<<20, time.Minute)
	if err != nil {
		t.Fatalf("Should not fail creating the cache: %s", err)
	}
	t.Cleanup(cache.Close)

	client := NewClient(WithBaseURL(srv.URL), WithRangeCache(cache))
	if res := client.Lookup(context.Background(), "password"); res.Count != 3730471 {
		t.Fatalf("Lookup(password): %+v, want: %d", res, 3730471)
	}
	cache.Wait()

	if res := client.Lookup(context.Background(), "password"); res.Count != 3730471 {
		t.Errorf("cached Lookup(password): %+v, want: %d", res, 3730471)
	}

	if n := atomic.LoadInt64(&hits); n != 1 {
		t.Errorf("range should be downloaded once, was downloaded %d times", n)
	}
}

func TestClient_RangeCacheSkipsFailures(t *testing.T) {
	var hits int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt64(&hits, 1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = fmt.Fprint(w, passwordRange)
	}))
	t.Cleanup(srv.Close)

	cache, err := NewRangeCache(1<<20, 0)
	if err != nil {
		t.Fatalf("Should not fail creating the cache: %s", err)
	}
	t.Cleanup(cache.Close)

	client := NewClient(WithBaseURL(srv.URL), WithRangeCache(cache))
	if res := client.Lookup(context.Background(), "password"); !res.Failed {
		t.Fatalf("first Lookup should fail")
	}
	cache.Wait()

	if res := client.Lookup(context.Background(), "password"); res.Count != 3730471 {
		t.Errorf("failures should not be cached, got %+v", res)
	}
}

// blockingRangeServer answers every range request with passwordRange once release is called.
func blockingRangeServer(t *testing.T, hits *int64) (srv *httptest.Server, started <-chan struct{}, release func()) {
	t.Helper()
	begin := make(chan struct{}, 64)
	gate := make(chan struct{})
	var once sync.Once
	release = func() { once.Do(func() { close(gate) }) }

	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(hits, 1)
		begin <- struct{}{}
		<-gate
		_, _ = fmt.Fprint(w, passwordRange)
	}))
	t.Cleanup(srv.Close)
	// Runs before srv.Close, a blocked handler would keep Close waiting.
	t.Cleanup(release)
	return srv, begin, release
}

func TestClient_ConcurrentLookups(t *testing.T) {
	var hits int64
	srv, started, release := blockingRangeServer(t, &hits)

	cache, err := NewRangeCache(1<<20, time.Minute)
	if err != nil {
		t.Fatalf("Should not fail creating the cache: %s", err)
	}
	t.Cleanup(cache.Close)

	client := NewClient(WithBaseURL(srv.URL), WithRangeCache(cache))

	const lookups = 16
	results := make([]Result, lookups)
	var ready, done sync.WaitGroup
	ready.Add(lookups)
	done.Add(lookups)
	for i := 0; i < lookups; i++ {
		go func(i int) {
			defer done.Done()
			ready.Done()
			results[i] = client.Lookup(context.Background(), "password")
		}(i)
	}

	ready.Wait()
	<-started
	// Give the remaining goroutines time to join the in-flight download.
	time.Sleep(100 * time.Millisecond)
	release()
	done.Wait()

	for i, res := range results {
		if res.Failed || res.Count != 3730471 {
			t.Errorf("Lookup %d: %+v, want: %d", i, res, 3730471)
		}
	}
	if n := atomic.LoadInt64(&hits); n != 1 {
		t.Errorf("concurrent lookups of one prefix should download it once, was downloaded %d times", n)
	}
}

func TestClient_CancelledLookupDoesNotFailOthers(t *testing.T) {
	var hits int64
	srv, started, release := blockingRangeServer(t, &hits)

	cache, err := NewRangeCache(1<<20, time.Minute)
	if err != nil {
		t.Fatalf("Should not fail creating the cache: %s", err)
	}
	t.Cleanup(cache.Close)

	client := NewClient(WithBaseURL(srv.URL), WithRangeCache(cache))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	first := make(chan Result, 1)
	go func() { first <- client.Lookup(ctx, "password") }()
	<-started

	second := make(chan Result, 1)
	go func() { second <- client.Lookup(context.Background(), "password") }()
	time.Sleep(50 * time.Millisecond)

	cancel()
	select {
	case res := <-first:
		if !res.Failed {
			t.Errorf("cancelled Lookup should fail, got %+v", res)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("cancelled Lookup should return without waiting for the download")
	}

	release()
	select {
	case res := <-second:
		if res.Failed || res.Count != 3730471 {
			t.Errorf("Lookup sharing the download: %+v, want: %d", res, 3730471)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("Lookup sharing the download never returned")
	}

	if n := atomic.LoadInt64(&hits); n != 1 {
		t.Errorf("range should be downloaded once, was downloaded %d times", n)
	}
}

func TestNewHTTPClient(t *testing.T) {
	var hits int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt64(&hits, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = fmt.Fprint(w, passwordRange)
	}))
	t.Cleanup(srv.Close)

	// No retries: the core makes a single request.
	single := NewClient(WithBaseURL(srv.URL), WithHTTPClient(NewHTTPClient(0)))
	if res := single.Lookup(context.Background(), "password"); !res.Failed {
		t.Errorf("Lookup without retries should fail on 503")
	}
	if n := atomic.LoadInt64(&hits); n != 1 {
		t.Errorf("there should be a single request, there were %d", n)
	}

	retrying := NewClient(WithBaseURL(srv.URL), WithHTTPClient(NewHTTPClient(3)))
	if res := retrying.Lookup(context.Background(), "password"); res.Count != 3730471 {
		t.Errorf("Lookup with retries should succeed, got %+v", res)
	}
}

type fixedHasher string

func (f fixedHasher) Digest(string) string {
	return string(f)
}

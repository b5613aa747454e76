// Copyright (c) 2022. Alvin Baena.
// SPDX-License-Identifier: MIT

package cli

import (
	"github.com/alvinbaena/pwd-fortress/pkg/hibp"
	"time"
)

type lookupSettings struct {
	url       string
	timeout   time.Duration
	retries   int
	padding   bool
	cacheSize int64
	cacheTTL  time.Duration
}

func cliLookupSettings() lookupSettings {
	return lookupSettings{
		url:     hibpURL,
		timeout: hibpTimeout,
		retries: hibpRetries,
		padding: hibpPadding,
	}
}

// newLookupClient builds the range API client. The returned cleanup releases the range cache, if any.
func newLookupClient(s lookupSettings) (*hibp.Client, func(), error) {
	opts := []hibp.Option{
		hibp.WithBaseURL(s.url),
		hibp.WithTimeout(s.timeout),
		hibp.WithPadding(s.padding),
		hibp.WithHTTPClient(hibp.NewHTTPClient(s.retries)),
	}

	cleanup := func() {}
	if s.cacheSize > 0 {
		cache, err := hibp.NewRangeCache(s.cacheSize, s.cacheTTL)
		if err != nil {
			return nil, nil, err
		}
		opts = append(opts, hibp.WithRangeCache(cache))
		cleanup = cache.Close
	}

	return hibp.NewClient(opts...), cleanup, nil
}

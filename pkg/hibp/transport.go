// Copyright (c) 2022. Alvin Baena.
// SPDX-License-Identifier: MIT

package hibp

import (
	"crypto/tls"
	"github.com/hashicorp/go-retryablehttp"
	"net"
	"net/http"
	"runtime"
	"time"
)

// NewHTTPClient builds the transport used against the range API. retries is the caller's retry
// policy, zero means a single best-effort request per lookup.
func NewHTTPClient(retries int) *http.Client {
	client := retryablehttp.NewClient()
	// Too much garbage in the logs.
	client.Logger = nil
	client.RetryMax = retries
	client.RetryWaitMin = 200 * time.Millisecond
	client.RetryWaitMax = 2 * time.Second
	// Hand the last response back instead of a generic "giving up" error, the status is more useful.
	client.ErrorHandler = retryablehttp.PassthroughErrorHandler

	client.HTTPClient = &http.Client{
		Transport: &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			TLSClientConfig: &tls.Config{
				MinVersion: tls.VersionTLS12,
			},
			DialContext: (&net.Dialer{
				Timeout:   30 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			MaxIdleConns:          100,
			IdleConnTimeout:       90 * time.Second,
			TLSHandshakeTimeout:   10 * time.Second,
			ExpectContinueTimeout: 1 * time.Second,
			ForceAttemptHTTP2:     true,
			MaxIdleConnsPerHost:   runtime.GOMAXPROCS(0) + 1,
		},
	}

	return client.StandardClient()
}

// Copyright (c) 2022. Alvin Baena.
// SPDX-License-Identifier: MIT

package hibp

import (
	"github.com/rs/zerolog/log"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"net/http"
	"sync/atomic"
	"time"
)

type status struct {
	requests         uint64
	failedRequests   uint64
	cloudflareHits   uint64
	cloudflareMisses uint64
	requestTimeTotal uint64
	start            time.Time
}

func newStatus() *status {
	return &status{start: time.Now()}
}

func (s *status) RequestComplete(res *http.Response, millis int64) {
	atomic.AddUint64(&s.requestTimeTotal, uint64(millis))
	atomic.AddUint64(&s.requests, 1)

	if cacheHit := res.Header.Get("CF-Cache-Status"); cacheHit == "HIT" {
		atomic.AddUint64(&s.cloudflareHits, 1)
	} else {
		atomic.AddUint64(&s.cloudflareMisses, 1)
	}
}

func (s *status) RequestFailed() {
	atomic.AddUint64(&s.failedRequests, 1)
}

func (s *status) Requests() uint64 {
	return atomic.LoadUint64(&s.requests)
}

func (s *status) Failed() uint64 {
	return atomic.LoadUint64(&s.failedRequests)
}

func (s *status) Log() {
	requests := atomic.LoadUint64(&s.requests)
	if requests == 0 {
		log.Debug().Msgf("no range requests completed in %v, %d failed", time.Since(s.start), s.Failed())
		return
	}

	hits := atomic.LoadUint64(&s.cloudflareHits)
	misses := atomic.LoadUint64(&s.cloudflareMisses)
	requestAverage := float64(atomic.LoadUint64(&s.requestTimeTotal)) / float64(requests)

	p := message.NewPrinter(language.English)
	log.Debug().Msgf("made %s range requests (%d failed) in %v. Average response time %.2f ms",
		p.Sprintf("%d", requests), s.Failed(), time.Since(s.start), requestAverage)
	log.Debug().Msgf("cloudflare cache hits: %s (%.2f%%), misses: %s (%.2f%%)",
		p.Sprintf("%d", hits), float64(hits*100)/float64(requests), p.Sprintf("%d", misses), float64(misses*100)/float64(requests))
}

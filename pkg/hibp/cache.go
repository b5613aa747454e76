// Copyright (c) 2022. Alvin Baena.
// SPDX-License-Identifier: MIT

package hibp

import (
	"context"
	"github.com/dgraph-io/ristretto"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
	"time"
)

// RangeCache keeps downloaded range bodies in memory, keyed by prefix. Every prefix is shared by
// hundreds of credentials so repeated audits rarely need the network. Concurrent misses for the same
// prefix result in a single download.
type RangeCache struct {
	cache *ristretto.Cache
	group singleflight.Group
	ttl   time.Duration
}

// NewRangeCache creates a cache bounded to maxBytes of range bodies. A range body is ~30KiB.
func NewRangeCache(maxBytes int64, ttl time.Duration) (*RangeCache, error) {
	cache, err := ristretto.NewCache(&ristretto.Config{
		// 10x the expected amount of entries, as ristretto recommends.
		NumCounters: 10 * (maxBytes/(30*1024) + 1),
		MaxCost:     maxBytes,
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}

	return &RangeCache{cache: cache, ttl: ttl}, nil
}

// Fetch returns the cached body for prefix or calls download to get it. Failed downloads are not cached.
//
// A download shared between concurrent callers runs detached from their cancellation, it is only
// bounded by the deadline download applies itself. A caller whose ctx is done stops waiting and gets
// ctx.Err(), the others still receive the body.
func (r *RangeCache) Fetch(ctx context.Context, prefix string, download func(ctx context.Context) ([]byte, error)) ([]byte, error) {
	if body, ok := r.cache.Get(prefix); ok {
		log.Debug().Msgf("range %s served from cache", prefix)
		return body.([]byte), nil
	}

	shared := context.WithoutCancel(ctx)
	ch := r.group.DoChan(prefix, func() (interface{}, error) {
		body, err := download(shared)
		if err != nil {
			return nil, err
		}

		if r.ttl > 0 {
			r.cache.SetWithTTL(prefix, body, int64(len(body)), r.ttl)
		} else {
			r.cache.Set(prefix, body, int64(len(body)))
		}
		return body, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		if res.Shared {
			log.Debug().Msgf("range %s download shared between concurrent lookups", prefix)
		}
		return res.Val.([]byte), nil
	}
}

// Wait blocks until pending writes are visible to Get. Sets in ristretto are buffered.
func (r *RangeCache) Wait() {
	r.cache.Wait()
}

func (r *RangeCache) Close() {
	r.cache.Close()
}

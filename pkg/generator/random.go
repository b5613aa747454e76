// Copyright (c) 2022. Alvin Baena.
// SPDX-License-Identifier: MIT

package generator

import (
	"crypto/rand"
	"math/big"
	mrand "math/rand"
	"sync"
	"time"
)

// RandomSource provides uniform draws in [0, n). Implementations must be safe for concurrent use.
type RandomSource interface {
	Intn(n int) int
}

type lockedSource struct {
	mu  sync.Mutex
	rnd *mrand.Rand
}

func (l *lockedSource) Intn(n int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.rnd.Intn(n)
}

// NewMathSource is a pseudorandom source seeded from the clock. Fine for human facing default
// passwords, not for key material.
func NewMathSource() RandomSource {
	return NewSeededSource(time.Now().UnixNano())
}

// NewSeededSource returns a deterministic source, mostly useful in tests.
func NewSeededSource(seed int64) RandomSource {
	return &lockedSource{rnd: mrand.New(mrand.NewSource(seed))}
}

type cryptoSource struct{}

// NewCryptoSource draws from crypto/rand.
func NewCryptoSource() RandomSource {
	return cryptoSource{}
}

func (cryptoSource) Intn(n int) int {
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		// The system CSPRNG is gone, nothing sensible to do but stop.
		panic(err)
	}
	return int(v.Int64())
}

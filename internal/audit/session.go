// Copyright (c) 2022. Alvin Baena.
// SPDX-License-Identifier: MIT

package audit

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrSuperseded is returned for a submission that a newer one replaced before it finished.
var ErrSuperseded = errors.New("audit superseded by a newer submission")

// Session audits a credential that keeps changing, like a password field while the user types. Only
// the most recent submission produces a report: every Submit takes a new generation token and cancels
// the audit that was in flight.
type Session struct {
	auditor  *Auditor
	debounce time.Duration

	mu         sync.Mutex
	generation uint64
	cancel     context.CancelFunc
}

type SessionOption func(s *Session)

// WithDebounce waits d before starting an audit, a newer submission during the wait skips it entirely.
func WithDebounce(d time.Duration) SessionOption {
	return func(s *Session) {
		s.debounce = d
	}
}

func NewSession(auditor *Auditor, opts ...SessionOption) *Session {
	s := &Session{auditor: auditor}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit audits credential unless a newer submission arrives first, in which case ErrSuperseded is
// returned. An error from ctx is returned as is.
func (s *Session) Submit(ctx context.Context, credential string) (Report, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	s.mu.Lock()
	s.generation++
	token := s.generation
	if s.cancel != nil {
		s.cancel()
	}
	s.cancel = cancel
	s.mu.Unlock()

	if s.debounce > 0 {
		timer := time.NewTimer(s.debounce)
		select {
		case <-ctx.Done():
			timer.Stop()
			return Report{}, s.abandoned(ctx, token)
		case <-timer.C:
		}
	}

	report := s.auditor.Audit(ctx, credential)
	if !s.current(token) {
		return Report{}, ErrSuperseded
	}
	if err := ctx.Err(); err != nil {
		return Report{}, err
	}

	return report, nil
}

// Generation is the token of the latest submission.
func (s *Session) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generation
}

func (s *Session) current(token uint64) bool {
	return s.Generation() == token
}

func (s *Session) abandoned(ctx context.Context, token uint64) error {
	if !s.current(token) {
		return ErrSuperseded
	}
	return ctx.Err()
}

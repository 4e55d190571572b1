// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package ratelimit implements the per-client abuse controls in front of the
// AI endpoint: a short cooldown between consecutive calls and a daily call
// quota. State lives in process memory only; a restart resets both limiters.
package ratelimit

import (
	"errors"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// ErrCooldown is returned when a client calls again inside the cooldown
// window.
var ErrCooldown = errors.New("requests too fast")

// ErrQuotaExceeded is returned once a client has used up its daily quota.
var ErrQuotaExceeded = errors.New("daily quota exceeded")

const (
	// DefaultCooldown is the minimum spacing between calls from one client.
	DefaultCooldown = 2500 * time.Millisecond
	// DefaultDailyMax is the per-client quota per UTC calendar day.
	DefaultDailyMax = 30
)

type dailyCount struct {
	count int
	date  string // UTC day key
}

// Limiter tracks per-client call spacing and daily counts.
type Limiter struct {
	mu       sync.Mutex
	cooldown time.Duration
	dailyMax int
	clock    clockwork.Clock

	lastCall map[string]time.Time
	daily    map[string]dailyCount
}

// Option configures a Limiter.
type Option func(*Limiter)

// WithClock injects the limiter's clock.
func WithClock(c clockwork.Clock) Option {
	return func(l *Limiter) { l.clock = c }
}

// WithCooldown overrides the cooldown window.
func WithCooldown(d time.Duration) Option {
	return func(l *Limiter) { l.cooldown = d }
}

// WithDailyMax overrides the daily quota.
func WithDailyMax(n int) Option {
	return func(l *Limiter) { l.dailyMax = n }
}

// New creates a limiter with the default cooldown and quota.
func New(opts ...Option) *Limiter {
	l := &Limiter{
		cooldown: DefaultCooldown,
		dailyMax: DefaultDailyMax,
		clock:    clockwork.NewRealClock(),
		lastCall: make(map[string]time.Time),
		daily:    make(map[string]dailyCount),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// DailyMax returns the configured daily quota.
func (l *Limiter) DailyMax() int { return l.dailyMax }

// CheckAndRecord admits or rejects a call from clientID. A call rejected on
// quota still refreshes the cooldown timestamp; a call rejected on cooldown
// records nothing. The quota window rolls over at UTC midnight.
func (l *Limiter) CheckAndRecord(clientID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock.Now()
	if last, ok := l.lastCall[clientID]; ok && now.Sub(last) < l.cooldown {
		return ErrCooldown
	}
	l.lastCall[clientID] = now

	today := now.UTC().Format("2006-01-02")
	rec, ok := l.daily[clientID]
	if !ok || rec.date != today {
		l.daily[clientID] = dailyCount{count: 1, date: today}
		return nil
	}
	if rec.count >= l.dailyMax {
		return ErrQuotaExceeded
	}
	rec.count++
	l.daily[clientID] = rec
	return nil
}

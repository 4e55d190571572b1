// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package ratelimit

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLimiter(t *testing.T) (*Limiter, clockwork.FakeClock) {
	t.Helper()
	clock := clockwork.NewFakeClockAt(time.Date(2025, 3, 15, 10, 0, 0, 0, time.UTC))
	return New(WithClock(clock)), clock
}

func TestCooldownBlocksRapidCalls(t *testing.T) {
	l, clock := testLimiter(t)

	require.NoError(t, l.CheckAndRecord("1.2.3.4"))

	clock.Advance(2 * time.Second)
	assert.ErrorIs(t, l.CheckAndRecord("1.2.3.4"), ErrCooldown)

	clock.Advance(500 * time.Millisecond)
	assert.NoError(t, l.CheckAndRecord("1.2.3.4"))
}

func TestCooldownIsPerClient(t *testing.T) {
	l, _ := testLimiter(t)

	require.NoError(t, l.CheckAndRecord("1.2.3.4"))
	assert.NoError(t, l.CheckAndRecord("5.6.7.8"))
}

func TestDailyQuota(t *testing.T) {
	l, clock := testLimiter(t)

	for i := 0; i < DefaultDailyMax; i++ {
		require.NoError(t, l.CheckAndRecord("1.2.3.4"), "call %d", i+1)
		clock.Advance(3 * time.Second)
	}
	assert.ErrorIs(t, l.CheckAndRecord("1.2.3.4"), ErrQuotaExceeded)

	// Other clients keep their own budget.
	assert.NoError(t, l.CheckAndRecord("5.6.7.8"))
}

func TestQuotaResetsAtUTCMidnight(t *testing.T) {
	l, clock := testLimiter(t)

	for i := 0; i < DefaultDailyMax; i++ {
		require.NoError(t, l.CheckAndRecord("1.2.3.4"))
		clock.Advance(3 * time.Second)
	}
	assert.ErrorIs(t, l.CheckAndRecord("1.2.3.4"), ErrQuotaExceeded)

	clock.Advance(24 * time.Hour)
	assert.NoError(t, l.CheckAndRecord("1.2.3.4"))
}

func TestConfigurableLimits(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2025, 3, 15, 10, 0, 0, 0, time.UTC))
	l := New(WithClock(clock), WithCooldown(time.Second), WithDailyMax(2))

	require.NoError(t, l.CheckAndRecord("a"))
	clock.Advance(time.Second)
	require.NoError(t, l.CheckAndRecord("a"))
	clock.Advance(time.Second)
	assert.ErrorIs(t, l.CheckAndRecord("a"), ErrQuotaExceeded)
}

// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package aicache

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"
)

func testCache(t *testing.T) *Cache {
	t.Helper()
	db, err := Connect(&Config{
		Type:       "sqlite",
		SQLitePath: filepath.Join(t.TempDir(), "cache.db"),
		LogLevel:   logger.Silent,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = Close(db) })
	return New(db)
}

func TestConnectRejectsUnknownType(t *testing.T) {
	_, err := Connect(&Config{Type: "mysql"})
	assert.ErrorContains(t, err, "unsupported database type")
}

func TestHashInputTrims(t *testing.T) {
	assert.Equal(t, HashInput("오늘의 기록"), HashInput("  오늘의 기록  \n"))
	assert.NotEqual(t, HashInput("오늘의 기록"), HashInput("어제의 기록"))
	assert.Len(t, HashInput("x"), 64)
}

func TestGetMissAndHit(t *testing.T) {
	c := testCache(t)
	hash := HashInput("회의에서 말을 잘 못했다")

	_, ok, err := c.Get("사고_명확성", hash, "1.0.0")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Put("사고_명확성", hash, "gpt-4o-mini", "1.0.0", `{"핵심_요약":"요약"}`))

	got, ok, err := c.Get("사고_명확성", hash, "1.0.0")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `{"핵심_요약":"요약"}`, got)

	// Same input under another guide is a different entry.
	_, ok, err = c.Get("감정_인식", hash, "1.0.0")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPromptVersionMismatchIsMiss(t *testing.T) {
	c := testCache(t)
	hash := HashInput("input")
	require.NoError(t, c.Put("감정_인식", hash, "gpt-4o-mini", "1.0.0", `{}`))

	_, ok, err := c.Get("감정_인식", hash, "2.0.0")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPutReplacesExisting(t *testing.T) {
	c := testCache(t)
	hash := HashInput("input")
	require.NoError(t, c.Put("관계_패턴", hash, "gpt-4o-mini", "1.0.0", `{"v":1}`))
	require.NoError(t, c.Put("관계_패턴", hash, "gpt-4o", "1.0.0", `{"v":2}`))

	got, ok, err := c.Get("관계_패턴", hash, "1.0.0")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, `{"v":2}`, got)

	n, err := c.Count()
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestPurge(t *testing.T) {
	c := testCache(t)
	require.NoError(t, c.Put("사고_명확성", HashInput("a"), "m", "1.0.0", `{}`))
	require.NoError(t, c.Put("사고_명확성", HashInput("b"), "m", "1.0.0", `{}`))

	require.NoError(t, c.Purge())
	n, err := c.Count()
	require.NoError(t, err)
	assert.EqualValues(t, 0, n)
}

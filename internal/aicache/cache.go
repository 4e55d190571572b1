// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package aicache

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AnalysisRecord is one cached analysis. A guide plus the hash of the
// trimmed input uniquely identifies a result.
type AnalysisRecord struct {
	ID            uint   `gorm:"primarykey"`
	GuideID       string `gorm:"size:64;not null;uniqueIndex:idx_guide_input"`
	InputHash     string `gorm:"size:64;not null;uniqueIndex:idx_guide_input"`
	Model         string `gorm:"size:128;not null"`
	PromptVersion string `gorm:"size:32;not null"`
	ResultJSON    string `gorm:"type:text;not null"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Cache wraps the database with lookup and store operations.
type Cache struct {
	db *gorm.DB
}

// New creates a cache over an open connection.
func New(db *gorm.DB) *Cache {
	return &Cache{db: db}
}

// HashInput derives the cache key component from journal text. Input is
// trimmed first so whitespace-only edits still hit the cache.
func HashInput(text string) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(text)))
	return hex.EncodeToString(sum[:])
}

// Get returns the cached result JSON for a guide and input hash, or ok=false
// on a miss. A cached result from an older prompt version is a miss, so
// prompt changes invalidate the cache naturally.
func (c *Cache) Get(guideID, inputHash, promptVersion string) (string, bool, error) {
	var rec AnalysisRecord
	err := c.db.Where("guide_id = ? AND input_hash = ?", guideID, inputHash).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to query analysis cache: %w", err)
	}
	if rec.PromptVersion != promptVersion {
		return "", false, nil
	}
	return rec.ResultJSON, true, nil
}

// Put stores a result, replacing any earlier result for the same guide and
// input.
func (c *Cache) Put(guideID, inputHash, model, promptVersion, resultJSON string) error {
	rec := AnalysisRecord{
		GuideID:       guideID,
		InputHash:     inputHash,
		Model:         model,
		PromptVersion: promptVersion,
		ResultJSON:    resultJSON,
	}
	err := c.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "guide_id"}, {Name: "input_hash"}},
		DoUpdates: clause.AssignmentColumns([]string{"model", "prompt_version", "result_json", "updated_at"}),
	}).Create(&rec).Error
	if err != nil {
		return fmt.Errorf("failed to store analysis in cache: %w", err)
	}
	return nil
}

// Purge removes every cached analysis.
func (c *Cache) Purge() error {
	if err := c.db.Where("1 = 1").Delete(&AnalysisRecord{}).Error; err != nil {
		return fmt.Errorf("failed to purge analysis cache: %w", err)
	}
	return nil
}

// Count returns the number of cached analyses.
func (c *Cache) Count() (int64, error) {
	var n int64
	if err := c.db.Model(&AnalysisRecord{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("failed to count analysis cache: %w", err)
	}
	return n, nil
}

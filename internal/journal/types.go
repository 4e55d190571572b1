// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package journal

import "time"

// Category is one of the three fixed analytical lenses applied to an entry.
type Category string

const (
	CategoryThinking     Category = "thinking"
	CategoryEmotion      Category = "emotion"
	CategoryRelationship Category = "relationship"
)

// ValidCategory reports whether c is one of the known categories.
func ValidCategory(c Category) bool {
	switch c {
	case CategoryThinking, CategoryEmotion, CategoryRelationship:
		return true
	}
	return false
}

// Analysis is the legacy inline analysis shape kept for backward
// compatibility with old store files.
type Analysis struct {
	InsightSummary   string `json:"insightSummary"`
	KeyQuestion      string `json:"keyQuestion"`
	SuggestedReframe string `json:"suggestedReframe,omitempty"`
}

// Reflection is one user-authored journal entry plus optional AI analysis.
// The JSON field names are the durable on-disk contract and must not change.
type Reflection struct {
	ID   string `json:"id"`
	Date string `json:"date"` // ISO 8601 creation timestamp

	// Content is the legacy input field; RawInput is authoritative. Both are
	// written on create so old readers keep working.
	Content  string `json:"content"`
	RawInput string `json:"rawInput"`

	PromptTemplateID   string   `json:"promptTemplateId,omitempty"`
	PromptVersion      string   `json:"promptVersion,omitempty"`
	GeneratedPrompt    string   `json:"generatedPrompt,omitempty"`
	AIOutput           string   `json:"aiOutput,omitempty"`
	AIAnalysisMarkdown string   `json:"aiAnalysisMarkdown,omitempty"`
	Category           Category `json:"category,omitempty"`
	Prompts            []string `json:"prompts,omitempty"`

	Analysis *Analysis `json:"analysis,omitempty"`

	UpdatedAt string `json:"updatedAt,omitempty"` // ISO 8601
}

// Text returns the entry's input text, preferring RawInput over the legacy
// Content field.
func (r *Reflection) Text() string {
	if r.RawInput != "" {
		return r.RawInput
	}
	return r.Content
}

// AnalysisText returns the cached AI analysis text used for search matching.
func (r *Reflection) AnalysisText() string {
	if r.AIAnalysisMarkdown != "" {
		return r.AIAnalysisMarkdown
	}
	return r.AIOutput
}

// DailyLog holds all reflections created on one calendar day.
type DailyLog struct {
	Date        string        `json:"date"` // YYYY-MM-DD
	Reflections []*Reflection `json:"reflections"`
}

// Store maps day keys (YYYY-MM-DD) to daily logs. This is the shape persisted
// on disk.
type Store map[string]*DailyLog

// TimeFormat matches the original store's ISO 8601 timestamps with millisecond
// precision. Timestamps in this format compare correctly as strings.
const TimeFormat = "2006-01-02T15:04:05.000Z07:00"

// DayKeyFormat is the Store key layout.
const DayKeyFormat = "2006-01-02"

// FormatTime renders t the way the store expects (UTC, milliseconds).
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeFormat)
}

// DayKey truncates t to the store's day granularity.
func DayKey(t time.Time) string {
	return t.UTC().Format(DayKeyFormat)
}

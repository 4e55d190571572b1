// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package analytics implements keyword search and the heuristic insight
// summaries over the reflection store. Everything here is a pure function of
// the store snapshot it is handed.
package analytics

import (
	"sort"
	"strings"

	"github.com/trailmind/trailmind/internal/journal"
)

// SearchOptions filters and scopes a search.
type SearchOptions struct {
	Query     string
	StartDate string // YYYY-MM-DD, inclusive
	EndDate   string // YYYY-MM-DD, inclusive
	Category  journal.Category
}

// SearchResult is one matching entry with its relevance score.
type SearchResult struct {
	Reflection *journal.Reflection `json:"reflection"`
	LogDate    string              `json:"logDate"`
	MatchScore int                 `json:"matchScore"`
}

// Search scans every reflection in the store and ranks matches by relevance.
// Entries scoring zero are excluded; ties keep encounter order.
func Search(logs journal.Store, opts SearchOptions) []SearchResult {
	query := strings.ToLower(strings.TrimSpace(opts.Query))
	if query == "" {
		return nil
	}

	// Walk days in sorted order so tie-breaking is deterministic.
	days := make([]string, 0, len(logs))
	for day := range logs {
		days = append(days, day)
	}
	sort.Strings(days)

	var results []SearchResult
	for _, day := range days {
		log := logs[day]
		if log == nil || !dateInRange(log.Date, opts.StartDate, opts.EndDate) {
			continue
		}
		for _, r := range log.Reflections {
			if r == nil {
				continue
			}
			if opts.Category != "" && r.Category != opts.Category {
				continue
			}
			score := matchScore(r, query)
			if score > 0 {
				results = append(results, SearchResult{Reflection: r, LogDate: log.Date, MatchScore: score})
			}
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].MatchScore > results[j].MatchScore
	})
	return results
}

// matchScore implements the relevance heuristic: 10 for the full query as a
// substring, +5 per matching query word, +3 when the query shows up in the
// first 100 characters; entries without a full-phrase match get a weaker 2
// per matching word.
func matchScore(r *journal.Reflection, query string) int {
	searchable := strings.ToLower(r.Text() + " " + r.AnalysisText())

	words := queryWords(query)
	if strings.Contains(searchable, query) {
		score := 10
		for _, w := range words {
			if strings.Contains(searchable, w) {
				score += 5
			}
		}
		if strings.Contains(firstRunes(searchable, 100), query) {
			score += 3
		}
		return score
	}

	score := 0
	for _, w := range words {
		if strings.Contains(searchable, w) {
			score += 2
		}
	}
	return score
}

// queryWords splits the query on whitespace, dropping one-character tokens.
func queryWords(query string) []string {
	var words []string
	for _, w := range strings.Fields(query) {
		if len([]rune(w)) > 1 {
			words = append(words, w)
		}
	}
	return words
}

func firstRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

// dateInRange checks a date (day key or full timestamp) against an inclusive
// YYYY-MM-DD range; empty bounds are open.
func dateInRange(date, start, end string) bool {
	if start == "" && end == "" {
		return true
	}
	day := date
	if i := strings.IndexByte(day, 'T'); i >= 0 {
		day = day[:i]
	}
	if start != "" && day < start {
		return false
	}
	if end != "" && day > end {
		return false
	}
	return true
}

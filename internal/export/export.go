// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package export serializes the reflection store to the interchange formats
// (JSON export packages, grouped Markdown, printable HTML) and parses
// packages back for import.
package export

import (
	"sort"
	"time"

	"github.com/trailmind/trailmind/internal/journal"
)

// Version is the export package version written by this build.
const Version = "1.1.0"

// Format selects an export rendering.
type Format string

const (
	FormatJSON            Format = "json"
	FormatMarkdownDaily   Format = "markdown-daily"
	FormatMarkdownWeekly  Format = "markdown-weekly"
	FormatMarkdownMonthly Format = "markdown-monthly"
	FormatHTML            Format = "html"
)

// ValidFormat reports whether f is a known export format.
func ValidFormat(f Format) bool {
	switch f {
	case FormatJSON, FormatMarkdownDaily, FormatMarkdownWeekly, FormatMarkdownMonthly, FormatHTML:
		return true
	}
	return false
}

// Options scope an export.
type Options struct {
	Format          Format
	StartDate       string // YYYY-MM-DD, inclusive
	EndDate         string // YYYY-MM-DD, inclusive
	IncludeMetadata bool
}

// DateRange is the metadata date span.
type DateRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// Metadata summarizes an export package.
type Metadata struct {
	TotalDays        int       `json:"totalDays"`
	TotalReflections int       `json:"totalReflections"`
	DateRange        DateRange `json:"dateRange"`
	ExportFormat     Format    `json:"exportFormat"`
}

// Package is the JSON export envelope. Field names are the interchange
// contract shared with the original web app.
type Package struct {
	Version    string        `json:"version"`
	ExportedAt string        `json:"exportedAt"`
	Logs       journal.Store `json:"logs"`
	Metadata   *Metadata     `json:"metadata,omitempty"`
}

// ToJSON builds a JSON export package, optionally date-filtered and
// annotated with summary metadata.
func ToJSON(logs journal.Store, opts Options, now time.Time) *Package {
	filtered := filterByDateRange(logs, opts.StartDate, opts.EndDate)

	pkg := &Package{
		Version:    Version,
		ExportedAt: journal.FormatTime(now),
		Logs:       filtered,
	}

	if opts.IncludeMetadata {
		days := sortedDays(filtered)
		total := 0
		for _, log := range filtered {
			if log != nil {
				total += len(log.Reflections)
			}
		}
		rng := DateRange{Start: opts.StartDate, End: opts.EndDate}
		if rng.Start == "" && len(days) > 0 {
			rng.Start = days[0]
		}
		if rng.End == "" && len(days) > 0 {
			rng.End = days[len(days)-1]
		}
		pkg.Metadata = &Metadata{
			TotalDays:        len(days),
			TotalReflections: total,
			DateRange:        rng,
			ExportFormat:     opts.Format,
		}
	}
	return pkg
}

func filterByDateRange(logs journal.Store, start, end string) journal.Store {
	if start == "" && end == "" {
		return logs
	}
	filtered := journal.Store{}
	for day, log := range logs {
		if start != "" && day < start {
			continue
		}
		if end != "" && day > end {
			continue
		}
		filtered[day] = log
	}
	return filtered
}

// sortedDays returns the store's day keys ascending.
func sortedDays(logs journal.Store) []string {
	days := make([]string, 0, len(logs))
	for day := range logs {
		days = append(days, day)
	}
	sort.Strings(days)
	return days
}

// sortedDaysDesc returns the store's day keys newest first.
func sortedDaysDesc(logs journal.Store) []string {
	days := sortedDays(logs)
	for i, j := 0, len(days)-1; i < j; i, j = i+1, j-1 {
		days[i], days[j] = days[j], days[i]
	}
	return days
}

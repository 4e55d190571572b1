// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package export

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trailmind/trailmind/internal/journal"
)

var exportedAt = time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC)

func sampleStore() journal.Store {
	return journal.Store{
		"2025-03-10": {
			Date: "2025-03-10",
			Reflections: []*journal.Reflection{
				{
					ID:        "r1",
					Date:      "2025-03-10T09:15:00.000Z",
					RawInput:  "아침 산책",
					Content:   "아침 산책",
					Category:  journal.CategoryThinking,
					UpdatedAt: "2025-03-10T09:15:00.000Z",
				},
			},
		},
		"2025-03-12": {
			Date: "2025-03-12",
			Reflections: []*journal.Reflection{
				{
					ID:                 "r2",
					Date:               "2025-03-12T20:40:00.000Z",
					RawInput:           "친구와 통화",
					Content:            "친구와 통화",
					Category:           journal.CategoryRelationship,
					AIAnalysisMarkdown: "## AI 분석 결과\n\n### 핵심 요약\n\n통화 내용 요약",
					UpdatedAt:          "2025-03-12T20:40:00.000Z",
				},
			},
		},
	}
}

func TestToJSON_Metadata(t *testing.T) {
	pkg := ToJSON(sampleStore(), Options{Format: FormatJSON, IncludeMetadata: true}, exportedAt)

	assert.Equal(t, Version, pkg.Version)
	assert.Equal(t, "2025-03-15T12:00:00.000Z", pkg.ExportedAt)
	require.NotNil(t, pkg.Metadata)
	assert.Equal(t, 2, pkg.Metadata.TotalDays)
	assert.Equal(t, 2, pkg.Metadata.TotalReflections)
	assert.Equal(t, "2025-03-10", pkg.Metadata.DateRange.Start)
	assert.Equal(t, "2025-03-12", pkg.Metadata.DateRange.End)
}

func TestToJSON_DateFilter(t *testing.T) {
	pkg := ToJSON(sampleStore(), Options{Format: FormatJSON, StartDate: "2025-03-11"}, exportedAt)
	assert.Len(t, pkg.Logs, 1)
	assert.Contains(t, pkg.Logs, "2025-03-12")
}

func TestRoundTrip(t *testing.T) {
	store := sampleStore()
	pkg := ToJSON(store, Options{Format: FormatJSON}, exportedAt)

	data, err := json.Marshal(pkg)
	require.NoError(t, err)

	parsed, err := ParseImport(data)
	require.NoError(t, err)
	assert.Equal(t, store, parsed.Logs)
}

func TestParseImport_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not json", "{oops"},
		{"missing version", `{"exportedAt":"2025-03-15T12:00:00.000Z","logs":{}}`},
		{"missing exportedAt", `{"version":"1.1.0","logs":{}}`},
		{"missing logs", `{"version":"1.1.0","exportedAt":"2025-03-15T12:00:00.000Z"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseImport([]byte(tt.data))
			assert.Error(t, err)
		})
	}
}

func TestToMarkdownDaily(t *testing.T) {
	md := ToMarkdownDaily(sampleStore(), Options{Format: FormatMarkdownDaily}, exportedAt)

	assert.True(t, strings.HasPrefix(md, "---\n"), "frontmatter first")
	assert.Contains(t, md, "title: TrailMind 일별 반성 로그")
	assert.Contains(t, md, "total_reflections: 2")
	assert.Contains(t, md, "# TrailMind 일별 반성 로그")

	// Newest day first.
	assert.Less(t, strings.Index(md, "2025년 3월 12일"), strings.Index(md, "2025년 3월 10일"))

	assert.Contains(t, md, "## 2025년 3월 12일 수요일")
	assert.Contains(t, md, "### 20:40")
	assert.Contains(t, md, "**카테고리**: 관계 패턴")
	assert.Contains(t, md, "**카테고리**: 사고 명확성")
	assert.Contains(t, md, "통화 내용 요약", "analysis markdown is included")
}

func TestToMarkdownWeekly_GroupsBySundayWeek(t *testing.T) {
	md := ToMarkdownWeekly(sampleStore(), Options{Format: FormatMarkdownWeekly}, exportedAt)

	// 2025-03-10 (Mon) and 2025-03-12 (Wed) share the week starting Sunday
	// 2025-03-09.
	assert.Contains(t, md, "## 2025년 3월 9일 ~ 3월 15일")
	assert.Equal(t, 1, strings.Count(md, " ~ 3월"), "single week section")
}

func TestToMarkdownMonthly_CountsEntries(t *testing.T) {
	md := ToMarkdownMonthly(sampleStore(), Options{Format: FormatMarkdownMonthly}, exportedAt)

	assert.Contains(t, md, "## 2025년 3월")
	assert.Contains(t, md, "**이번 달 총 반성 수**: 2개")
}

func TestToHTML(t *testing.T) {
	html := ToHTML(sampleStore(), Options{Format: FormatHTML}, exportedAt)

	assert.Contains(t, html, "<!DOCTYPE html>")
	assert.Contains(t, html, "<h1>TrailMind 일별 반성 로그</h1>")
	assert.Contains(t, html, "<h2>2025년 3월 12일 수요일</h2>")
	assert.NotContains(t, html, "exported_at:", "frontmatter stripped from HTML")
}

func TestMarkdownToHTML(t *testing.T) {
	html := markdownToHTML("# Title\n\n**bold** and *soft*\n\n---\n\nplain")
	assert.Contains(t, html, "<h1>Title</h1>")
	assert.Contains(t, html, "<strong>bold</strong>")
	assert.Contains(t, html, "<em>soft</em>")
	assert.Contains(t, html, "<hr>")
	assert.Contains(t, html, "<p>plain</p>")
}

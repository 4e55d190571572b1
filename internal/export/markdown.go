// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package export

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/trailmind/trailmind/internal/journal"
)

var categoryLabels = map[journal.Category]string{
	journal.CategoryThinking:     "사고 명확성",
	journal.CategoryEmotion:      "감정 인식",
	journal.CategoryRelationship: "관계 패턴",
}

var koreanWeekdays = map[time.Weekday]string{
	time.Sunday:    "일요일",
	time.Monday:    "월요일",
	time.Tuesday:   "화요일",
	time.Wednesday: "수요일",
	time.Thursday:  "목요일",
	time.Friday:    "금요일",
	time.Saturday:  "토요일",
}

// frontmatter is the YAML header block on markdown exports.
type frontmatter struct {
	Title            string `yaml:"title"`
	ExportedAt       string `yaml:"exported_at"`
	Start            string `yaml:"start,omitempty"`
	End              string `yaml:"end,omitempty"`
	TotalDays        int    `yaml:"total_days"`
	TotalReflections int    `yaml:"total_reflections"`
}

// ToMarkdownDaily renders the store as one section per day, newest first.
func ToMarkdownDaily(logs journal.Store, opts Options, now time.Time) string {
	filtered := filterByDateRange(logs, opts.StartDate, opts.EndDate)

	var b strings.Builder
	writeHeader(&b, "TrailMind 일별 반성 로그", filtered, opts, now)

	for _, day := range sortedDaysDesc(filtered) {
		log := filtered[day]
		if log == nil || len(log.Reflections) == 0 {
			continue
		}
		b.WriteString(fmt.Sprintf("## %s\n\n", koreanDate(day, true)))
		for _, r := range log.Reflections {
			b.WriteString(fmt.Sprintf("### %s\n\n", entryTime(r)))
			if label, ok := categoryLabels[r.Category]; ok {
				b.WriteString(fmt.Sprintf("**카테고리**: %s\n\n", label))
			}
			b.WriteString(r.Text())
			b.WriteString("\n\n")
			if r.AIAnalysisMarkdown != "" {
				b.WriteString("---\n\n")
				b.WriteString(r.AIAnalysisMarkdown)
				b.WriteString("\n\n")
			}
			b.WriteString("---\n\n")
		}
	}
	return b.String()
}

// ToMarkdownWeekly groups days into weeks starting Sunday, newest week first.
func ToMarkdownWeekly(logs journal.Store, opts Options, now time.Time) string {
	filtered := filterByDateRange(logs, opts.StartDate, opts.EndDate)

	weeks := make(map[string][]string)
	for _, day := range sortedDaysDesc(filtered) {
		t, err := time.Parse(journal.DayKeyFormat, day)
		if err != nil {
			continue
		}
		weekStart := t.AddDate(0, 0, -int(t.Weekday()))
		key := weekStart.Format(journal.DayKeyFormat)
		weeks[key] = append(weeks[key], day)
	}

	weekKeys := make([]string, 0, len(weeks))
	for k := range weeks {
		weekKeys = append(weekKeys, k)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(weekKeys)))

	var b strings.Builder
	writeHeader(&b, "TrailMind 주별 반성 로그", filtered, opts, now)

	for _, weekStart := range weekKeys {
		start, _ := time.Parse(journal.DayKeyFormat, weekStart)
		end := start.AddDate(0, 0, 6)
		b.WriteString(fmt.Sprintf("## %d년 %d월 %d일 ~ %d월 %d일\n\n",
			start.Year(), int(start.Month()), start.Day(), int(end.Month()), end.Day()))

		days := weeks[weekStart]
		sort.Sort(sort.Reverse(sort.StringSlice(days)))
		for _, day := range days {
			log := filtered[day]
			if log == nil || len(log.Reflections) == 0 {
				continue
			}
			b.WriteString(fmt.Sprintf("### %s\n\n", koreanDate(day, true)))
			writeEntriesCompact(&b, log.Reflections)
		}
	}
	return b.String()
}

// ToMarkdownMonthly groups by YYYY-MM, newest month first, with a per-month
// entry count footer.
func ToMarkdownMonthly(logs journal.Store, opts Options, now time.Time) string {
	filtered := filterByDateRange(logs, opts.StartDate, opts.EndDate)

	months := make(map[string][]string)
	for _, day := range sortedDaysDesc(filtered) {
		if len(day) < 7 {
			continue
		}
		months[day[:7]] = append(months[day[:7]], day)
	}

	monthKeys := make([]string, 0, len(months))
	for k := range months {
		monthKeys = append(monthKeys, k)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(monthKeys)))

	var b strings.Builder
	writeHeader(&b, "TrailMind 월별 반성 로그", filtered, opts, now)

	for _, month := range monthKeys {
		t, err := time.Parse("2006-01", month)
		if err != nil {
			continue
		}
		b.WriteString(fmt.Sprintf("## %d년 %d월\n\n", t.Year(), int(t.Month())))

		count := 0
		days := months[month]
		sort.Sort(sort.Reverse(sort.StringSlice(days)))
		for _, day := range days {
			log := filtered[day]
			if log == nil || len(log.Reflections) == 0 {
				continue
			}
			count += len(log.Reflections)
			b.WriteString(fmt.Sprintf("### %s\n\n", koreanDate(day, true)))
			writeEntriesCompact(&b, log.Reflections)
		}

		b.WriteString(fmt.Sprintf("\n**이번 달 총 반성 수**: %d개\n\n---\n\n", count))
	}
	return b.String()
}

// writeHeader writes the YAML frontmatter and the document title.
func writeHeader(b *strings.Builder, title string, filtered journal.Store, opts Options, now time.Time) {
	total := 0
	for _, log := range filtered {
		if log != nil {
			total += len(log.Reflections)
		}
	}
	fm := frontmatter{
		Title:            title,
		ExportedAt:       journal.FormatTime(now),
		Start:            opts.StartDate,
		End:              opts.EndDate,
		TotalDays:        len(filtered),
		TotalReflections: total,
	}

	b.WriteString("---\n")
	if data, err := yaml.Marshal(fm); err == nil {
		b.Write(data)
	}
	b.WriteString("---\n\n")

	b.WriteString(fmt.Sprintf("# %s\n\n", title))
	if opts.StartDate != "" || opts.EndDate != "" {
		start, end := opts.StartDate, opts.EndDate
		if start == "" {
			start = "시작"
		}
		if end == "" {
			end = "종료"
		}
		b.WriteString(fmt.Sprintf("**기간**: %s ~ %s\n\n", start, end))
	}
	b.WriteString("---\n\n")
}

func writeEntriesCompact(b *strings.Builder, reflections []*journal.Reflection) {
	for _, r := range reflections {
		b.WriteString(fmt.Sprintf("**%s**\n\n", entryTime(r)))
		b.WriteString(r.Text())
		b.WriteString("\n\n")
		if r.AIAnalysisMarkdown != "" {
			b.WriteString(r.AIAnalysisMarkdown)
			b.WriteString("\n\n")
		}
		b.WriteString("---\n\n")
	}
}

// koreanDate renders a day key as "2025년 3월 10일", optionally with the
// weekday appended.
func koreanDate(day string, withWeekday bool) string {
	t, err := time.Parse(journal.DayKeyFormat, day)
	if err != nil {
		return day
	}
	s := fmt.Sprintf("%d년 %d월 %d일", t.Year(), int(t.Month()), t.Day())
	if withWeekday {
		s += " " + koreanWeekdays[t.Weekday()]
	}
	return s
}

// entryTime renders an entry's creation time as HH:MM.
func entryTime(r *journal.Reflection) string {
	t, err := time.Parse(journal.TimeFormat, r.Date)
	if err != nil {
		return r.Date
	}
	return t.UTC().Format("15:04")
}

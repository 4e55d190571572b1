// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package analytics

import (
	"sort"
	"strings"
	"time"

	"github.com/trailmind/trailmind/internal/journal"
	"github.com/trailmind/trailmind/internal/lexicon"
)

// RepeatedTopic is a keyword seen in at least two entries inside the window.
type RepeatedTopic struct {
	Topic     string   `json:"topic"`
	Frequency int      `json:"frequency"`
	Examples  []string `json:"examples"`
}

// WeekdayPattern summarizes the entries written on one weekday.
type WeekdayPattern struct {
	Count      int            `json:"count"`
	AvgLength  int            `json:"avgLength"`
	Categories map[string]int `json:"categories"`
}

// EmotionPatterns counts entries by emotional tone.
type EmotionPatterns struct {
	Positive        int    `json:"positive"`
	Negative        int    `json:"negative"`
	Neutral         int    `json:"neutral"`
	DominantEmotion string `json:"dominantEmotion"`
}

// RelationshipPatterns summarizes relationship-keyword activity.
type RelationshipPatterns struct {
	Mentions     int      `json:"mentions"`
	Frequency    float64  `json:"frequency"`
	CommonThemes []string `json:"commonThemes"`
}

// MonthlyTrend is one month's entry count and average length.
type MonthlyTrend struct {
	Month     string `json:"month"` // YYYY-MM
	Count     int    `json:"count"`
	AvgLength int    `json:"avgLength"`
}

// PatternInsight is the full pattern-recognition report.
type PatternInsight struct {
	RepeatedTopics       []RepeatedTopic           `json:"repeatedTopics"`
	WeekdayPatterns      map[string]WeekdayPattern `json:"weekdayPatterns"`
	EmotionPatterns      EmotionPatterns           `json:"emotionPatterns"`
	RelationshipPatterns RelationshipPatterns      `json:"relationshipPatterns"`
	MonthlyTrends        []MonthlyTrend            `json:"monthlyTrends"`
}

var weekdayNames = map[time.Weekday]string{
	time.Sunday:    "일요일",
	time.Monday:    "월요일",
	time.Tuesday:   "화요일",
	time.Wednesday: "수요일",
	time.Thursday:  "목요일",
	time.Friday:    "금요일",
	time.Saturday:  "토요일",
}

// Patterns computes the pattern-recognition report over a trailing window of
// days (30/60/90). Monthly trends intentionally cover the whole store, not
// just the window, as do the relationship common themes.
func Patterns(logs journal.Store, days int, now time.Time, lex *lexicon.Lexicon) PatternInsight {
	if days <= 0 {
		days = 30
	}
	windowed := windowReflections(logs, days, now)

	return PatternInsight{
		RepeatedTopics:       repeatedTopics(windowed, lex),
		WeekdayPatterns:      weekdayPatterns(windowed),
		EmotionPatterns:      emotionPatterns(windowed, lex),
		RelationshipPatterns: relationshipPatterns(windowed, logs, lex),
		MonthlyTrends:        monthlyTrends(logs),
	}
}

// windowReflections collects entries from the trailing N calendar days,
// today included.
func windowReflections(logs journal.Store, days int, now time.Time) []*journal.Reflection {
	var out []*journal.Reflection
	for i := 0; i < days; i++ {
		day := journal.DayKey(now.AddDate(0, 0, -i))
		if log := logs[day]; log != nil {
			out = append(out, log.Reflections...)
		}
	}
	return out
}

func repeatedTopics(reflections []*journal.Reflection, lex *lexicon.Lexicon) []RepeatedTopic {
	all := lex.All()

	type topicData struct {
		count    int
		examples []string
	}
	counts := make(map[string]*topicData)
	var order []string

	for _, r := range reflections {
		text := strings.ToLower(r.Text())
		found := make(map[string]bool)
		for _, kw := range all {
			if strings.Contains(text, strings.ToLower(kw)) {
				found[kw] = true
			}
		}
		for _, kw := range all {
			if !found[kw] {
				continue
			}
			data, ok := counts[kw]
			if !ok {
				data = &topicData{}
				counts[kw] = data
				order = append(order, kw)
			}
			data.count++
			if len(data.examples) < 3 {
				if preview := firstRunes(r.Text(), 50); preview != "" {
					data.examples = append(data.examples, preview+"...")
				}
			}
		}
	}

	var topics []RepeatedTopic
	for _, kw := range order {
		if data := counts[kw]; data.count >= 2 {
			topics = append(topics, RepeatedTopic{Topic: kw, Frequency: data.count, Examples: data.examples})
		}
	}
	sort.SliceStable(topics, func(i, j int) bool { return topics[i].Frequency > topics[j].Frequency })
	if len(topics) > 10 {
		topics = topics[:10]
	}
	return topics
}

func weekdayPatterns(reflections []*journal.Reflection) map[string]WeekdayPattern {
	type acc struct {
		count, totalLen int
		categories      map[string]int
	}
	byDay := make(map[string]*acc)

	for _, r := range reflections {
		t, err := time.Parse(journal.TimeFormat, r.Date)
		if err != nil {
			continue
		}
		name := weekdayNames[t.UTC().Weekday()]
		a, ok := byDay[name]
		if !ok {
			a = &acc{categories: make(map[string]int)}
			byDay[name] = a
		}
		a.count++
		a.totalLen += len([]rune(r.Text()))
		if r.Category != "" {
			a.categories[string(r.Category)]++
		}
	}

	out := make(map[string]WeekdayPattern, len(byDay))
	for name, a := range byDay {
		avg := 0
		if a.count > 0 {
			avg = int(float64(a.totalLen)/float64(a.count) + 0.5)
		}
		out[name] = WeekdayPattern{Count: a.count, AvgLength: avg, Categories: a.categories}
	}
	return out
}

// emotionPatterns tags each entry positive, negative, or neutral. An entry is
// positive only when it has positive keywords and no negative ones; any
// negative keyword makes it negative. The dominant label requires a strict
// majority over both other counts.
func emotionPatterns(reflections []*journal.Reflection, lex *lexicon.Lexicon) EmotionPatterns {
	var positive, negative, neutral int

	for _, r := range reflections {
		text := strings.ToLower(r.Text())
		hasPositive := containsAny(text, lex.PositiveEmotion)
		hasNegative := containsAny(text, lex.NegativeEmotion)

		switch {
		case hasPositive && !hasNegative:
			positive++
		case hasNegative:
			negative++
		default:
			neutral++
		}
	}

	dominant := "중립"
	if positive > negative && positive > neutral {
		dominant = "긍정"
	} else if negative > positive && negative > neutral {
		dominant = "부정"
	}

	return EmotionPatterns{Positive: positive, Negative: negative, Neutral: neutral, DominantEmotion: dominant}
}

// relationshipPatterns counts windowed entries mentioning any relationship
// keyword; the common-theme top five is computed over the full store.
func relationshipPatterns(windowed []*journal.Reflection, logs journal.Store, lex *lexicon.Lexicon) RelationshipPatterns {
	mentions := 0
	for _, r := range windowed {
		if containsAny(strings.ToLower(r.Text()), lex.Relationship) {
			mentions++
		}
	}

	themeCounts := make(map[string]int)
	for _, log := range logs {
		if log == nil {
			continue
		}
		for _, r := range log.Reflections {
			text := strings.ToLower(r.Text())
			for _, kw := range lex.Relationship {
				if strings.Contains(text, strings.ToLower(kw)) {
					themeCounts[kw]++
				}
			}
		}
	}

	themes := make([]string, 0, len(themeCounts))
	for kw := range themeCounts {
		themes = append(themes, kw)
	}
	sort.Slice(themes, func(i, j int) bool {
		if themeCounts[themes[i]] != themeCounts[themes[j]] {
			return themeCounts[themes[i]] > themeCounts[themes[j]]
		}
		return themes[i] < themes[j]
	})
	if len(themes) > 5 {
		themes = themes[:5]
	}

	freq := 0.0
	if len(windowed) > 0 {
		freq = float64(mentions) / float64(len(windowed))
	}
	return RelationshipPatterns{Mentions: mentions, Frequency: freq, CommonThemes: themes}
}

// monthlyTrends reports the six most recent months present anywhere in the
// store, newest first.
func monthlyTrends(logs journal.Store) []MonthlyTrend {
	type acc struct{ count, totalLen int }
	byMonth := make(map[string]*acc)

	for day, log := range logs {
		if log == nil || len(day) < 7 {
			continue
		}
		month := day[:7]
		a, ok := byMonth[month]
		if !ok {
			a = &acc{}
			byMonth[month] = a
		}
		for _, r := range log.Reflections {
			a.count++
			a.totalLen += len([]rune(r.Text()))
		}
	}

	months := make([]string, 0, len(byMonth))
	for m := range byMonth {
		months = append(months, m)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(months)))
	if len(months) > 6 {
		months = months[:6]
	}

	trends := make([]MonthlyTrend, 0, len(months))
	for _, m := range months {
		a := byMonth[m]
		avg := 0
		if a.count > 0 {
			avg = int(float64(a.totalLen)/float64(a.count) + 0.5)
		}
		trends = append(trends, MonthlyTrend{Month: m, Count: a.count, AvgLength: avg})
	}
	return trends
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

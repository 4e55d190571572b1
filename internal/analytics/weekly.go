// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package analytics

import (
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/trailmind/trailmind/internal/journal"
	"github.com/trailmind/trailmind/internal/lexicon"
)

// WordCount is one entry in the weekly top-words list.
type WordCount struct {
	Word  string `json:"word"`
	Count int    `json:"count"`
}

// WeeklyInsights summarizes the trailing seven calendar days.
type WeeklyInsights struct {
	TotalEntries         int         `json:"totalEntries"`
	TopWords             []WordCount `json:"topWords"`
	RelationshipMentions int         `json:"relationshipMentions"`
	WeeklyQuestion       string      `json:"weeklyQuestion"`
}

const (
	weeklyQuestionRelationship = "이번 주 관계에서 어떤 패턴을 발견하셨나요? 그 패턴이 당신에게 무엇을 알려주고 있나요?"
	weeklyQuestionEmotion      = "이번 주 감정의 흐름을 돌아보면, 어떤 감정이 가장 자주 나타났나요? 그 감정의 근원은 무엇이라고 생각하시나요?"
	weeklyQuestionDefault      = "이번 주 가장 중요한 결정이나 생각은 무엇이었나요? 그 결정을 내리는 과정에서 무엇을 배웠나요?"
)

// Weekly computes insights over the trailing 7 calendar days (today
// included): the ten most frequent words, relationship and negative-emotion
// mentions (each counted at most once per entry), and a heuristic question of
// the week.
func Weekly(logs journal.Store, now time.Time, lex *lexicon.Lexicon) WeeklyInsights {
	reflections := windowReflections(logs, 7, now)
	total := len(reflections)

	counts := make(map[string]int)
	var order []string
	for _, r := range reflections {
		for _, w := range extractWords(r.Text(), lex) {
			if counts[w] == 0 {
				order = append(order, w)
			}
			counts[w]++
		}
	}
	sort.SliceStable(order, func(i, j int) bool { return counts[order[i]] > counts[order[j]] })
	if len(order) > 10 {
		order = order[:10]
	}
	topWords := make([]WordCount, 0, len(order))
	for _, w := range order {
		topWords = append(topWords, WordCount{Word: w, Count: counts[w]})
	}

	relMentions := countMentions(reflections, lex.RelationshipWeekly)
	negMentions := countMentions(reflections, lex.NegativeEmotionWeekly)

	return WeeklyInsights{
		TotalEntries:         total,
		TopWords:             topWords,
		RelationshipMentions: relMentions,
		WeeklyQuestion:       weeklyQuestion(relMentions, negMentions, total),
	}
}

// countMentions counts entries (not occurrences) containing any keyword.
func countMentions(reflections []*journal.Reflection, keywords []string) int {
	count := 0
	for _, r := range reflections {
		if containsAny(strings.ToLower(r.Text()), keywords) {
			count++
		}
	}
	return count
}

// weeklyQuestion picks the question of the week: relationship patterns when
// relationship mentions reach 30% of entries, emotion patterns when negative
// mentions do, otherwise a generic decision-reflection question.
func weeklyQuestion(relationshipMentions, negativeMentions, total int) string {
	if total > 0 {
		if float64(relationshipMentions)/float64(total) >= 0.3 {
			return weeklyQuestionRelationship
		}
		if float64(negativeMentions)/float64(total) >= 0.3 {
			return weeklyQuestionEmotion
		}
	}
	return weeklyQuestionDefault
}

// extractWords tokenizes on whitespace, lowercases, and drops tokens shorter
// than two runes, tokens without a letter, and stop words.
func extractWords(text string, lex *lexicon.Lexicon) []string {
	var words []string
	for _, tok := range strings.Fields(text) {
		w := strings.ToLower(strings.TrimSpace(tok))
		if len([]rune(w)) < 2 {
			continue
		}
		if !containsLetter(w) {
			continue
		}
		if lex.IsStopWord(w) {
			continue
		}
		words = append(words, w)
	}
	return words
}

func containsLetter(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}

// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package lexicon holds the shared keyword lists the analytics functions scan
// for. Keeping them in one place stops the lists drifting apart between
// consumers. Keywords are matched case-insensitively as substrings.
package lexicon

// Lexicon groups the named keyword categories.
type Lexicon struct {
	PositiveEmotion []string
	NegativeEmotion []string
	// Relationship is the list used by pattern recognition.
	Relationship []string
	// RelationshipWeekly is the slightly different list the weekly insights
	// historically scanned; kept separate so stored behavior doesn't shift.
	RelationshipWeekly []string
	// NegativeEmotionWeekly mirrors the weekly insight token list.
	NegativeEmotionWeekly []string
	ThinkingPattern       []string
	StopWords             []string
}

// Default returns the lexicon the original journal shipped with. The strings
// are part of observable behavior (topic names surface in insight output), so
// they are kept verbatim.
func Default() *Lexicon {
	return &Lexicon{
		PositiveEmotion: []string{
			"기쁨", "행복", "만족", "감사", "평화", "안정", "희망", "자신감", "성취", "뿌듯",
			"joy", "happy", "satisfied", "grateful", "peaceful", "stable", "hopeful", "confident", "achievement", "proud",
		},
		NegativeEmotion: []string{
			"스트레스", "불안", "걱정", "우울", "화", "분노", "실망", "후회", "아쉬움", "피로", "지침",
			"stress", "anxiety", "worry", "depression", "anger", "disappointment", "regret", "tired", "exhausted",
		},
		Relationship: []string{
			"상대", "관계", "연락", "답장", "서운", "오해", "소통", "대화", "이해", "갈등", "친구", "가족", "동료",
			"relationship", "reply", "message", "communication", "misunderstanding", "conflict", "friend", "family", "colleague",
		},
		RelationshipWeekly: []string{
			"상대", "관계", "연락", "답장", "서운", "오해", "소통", "대화", "이해", "갈등",
			"trust", "relationship", "reply", "message", "communication", "misunderstanding",
			"conflict", "connection", "interaction", "conversation",
		},
		NegativeEmotionWeekly: []string{
			"스트레스", "불안", "걱정", "우울", "화", "분노", "실망", "후회", "아쉬움",
			"stress", "anxiety", "worry", "depression", "anger", "disappointment", "regret",
		},
		ThinkingPattern: []string{
			"결정", "선택", "고민", "생각", "판단", "분석", "이해", "명확", "혼란", "확신",
			"decision", "choice", "consider", "think", "judge", "analyze", "understand", "clear", "confusion", "certain",
		},
		StopWords: []string{
			"the", "a", "an", "and", "or", "but", "in", "on", "at", "to", "for", "of", "with", "by",
			"이", "가", "을", "를", "은", "는", "에", "의", "와", "과", "도", "로", "으로",
		},
	}
}

// All returns every keyword across the pattern-recognition categories
// (relationship, positive, negative, thinking), in that order.
func (l *Lexicon) All() []string {
	out := make([]string, 0, len(l.Relationship)+len(l.PositiveEmotion)+len(l.NegativeEmotion)+len(l.ThinkingPattern))
	out = append(out, l.Relationship...)
	out = append(out, l.PositiveEmotion...)
	out = append(out, l.NegativeEmotion...)
	out = append(out, l.ThinkingPattern...)
	return out
}

// IsStopWord reports whether w (already lowercased) is a stop word.
func (l *Lexicon) IsStopWord(w string) bool {
	for _, s := range l.StopWords {
		if w == s {
			return true
		}
	}
	return false
}

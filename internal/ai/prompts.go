// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package ai turns raw journal input into a structured Korean reflection
// analysis by calling an OpenAI-compatible chat completions endpoint with a
// strict JSON schema, then validating and formatting the result.
package ai

import (
	"fmt"
	"strings"

	"github.com/trailmind/trailmind/internal/journal"
)

// PromptVersion is stamped on every generated analysis so stored entries can
// be traced back to the prompt revision that produced them.
const PromptVersion = "1.0.0"

// MaxInputLength caps the journal text sent for analysis, in characters.
const MaxInputLength = 3000

// GuideID selects one of the three analysis guides. The values double as the
// identifiers stored on reflections, so they stay in Korean.
type GuideID string

const (
	GuideThinking     GuideID = "사고_명확성"
	GuideEmotion      GuideID = "감정_인식"
	GuideRelationship GuideID = "관계_패턴"
)

// Valid reports whether g names a known guide.
func (g GuideID) Valid() bool {
	_, ok := guidePrompts[g]
	return ok
}

// Category maps a guide to its reflection category.
func (g GuideID) Category() journal.Category {
	switch g {
	case GuideEmotion:
		return journal.CategoryEmotion
	case GuideRelationship:
		return journal.CategoryRelationship
	default:
		return journal.CategoryThinking
	}
}

// GuideForCategory maps a reflection category to its guide. Unknown
// categories fall back to the thinking guide.
func GuideForCategory(c journal.Category) GuideID {
	switch c {
	case journal.CategoryEmotion:
		return GuideEmotion
	case journal.CategoryRelationship:
		return GuideRelationship
	default:
		return GuideThinking
	}
}

var guidePrompts = map[GuideID]string{
	GuideThinking: `당신은 사고의 명확성을 돕는 분석가입니다. 상담/위로/동기부여 톤 금지. 차분하고 분석적으로 작성하세요.

분석 원칙:
1. 사실과 해석을 엄격히 구분
2. 사고의 논리적 흐름 파악
3. 가정이나 편견 식별
4. 명확하지 않은 부분 지적

중요: "오늘의_질문"은 반드시 사고를 더 명확하게 하는 구체적이고 실용적인 질문이어야 합니다. 일반적이거나 추상적인 질문은 피하세요.`,
	GuideEmotion: `당신은 감정 패턴을 분석하는 관찰자입니다. 상담/위로/동기부여 톤 금지. 차분하고 분석적으로 작성하세요.

분석 원칙:
1. 명시적/암묵적 감정 신호 식별
2. 감정의 강도나 변화 추적
3. 감정을 유발한 상황 파악
4. 반복되는 감정 패턴 인식

중요: "오늘의_질문"은 반드시 감정을 더 깊이 이해하기 위한 구체적이고 실용적인 질문이어야 합니다. 일반적이거나 추상적인 질문은 피하세요.`,
	GuideRelationship: `당신은 관계 역학을 분석하는 관찰자입니다. 상담/위로/동기부여 톤 금지. 차분하고 분석적으로 작성하세요.

분석 원칙:
1. 관계 관련 언급 모두 식별
2. 상호작용 패턴 파악
3. 기대나 경계 인식
4. 관계에서의 역할이나 위치 파악

중요: "오늘의_질문"은 반드시 관계 패턴을 더 깊이 이해하기 위한 구체적이고 실용적인 질문이어야 합니다. 일반적이거나 추상적인 질문은 피하세요.`,
}

// SystemPrompt returns the analyst instructions for a guide.
func SystemPrompt(g GuideID) (string, error) {
	p, ok := guidePrompts[g]
	if !ok {
		return "", fmt.Errorf("unknown guide id: %q", g)
	}
	return strings.TrimSpace(p), nil
}

// Meta carries the optional context fields attached to a generation request.
type Meta struct {
	Date        string `json:"date,omitempty"`
	Activity    string `json:"activity,omitempty"`
	AloneOrWith string `json:"aloneOrWith,omitempty"`
}

func orUnspecified(s string) string {
	if s == "" {
		return "미기재"
	}
	return s
}

// UserMessage builds the user turn from the journal text and its metadata.
// Missing metadata fields render as "미기재".
func UserMessage(inputText string, meta Meta) string {
	var b strings.Builder
	b.WriteString("[메타]\n")
	fmt.Fprintf(&b, "- 날짜: %s\n", orUnspecified(meta.Date))
	fmt.Fprintf(&b, "- 활동: %s\n", orUnspecified(meta.Activity))
	fmt.Fprintf(&b, "- 혼자/함께: %s\n", orUnspecified(meta.AloneOrWith))
	b.WriteString("\n[사용자 입력]\n")
	b.WriteString(strings.TrimSpace(inputText))
	return b.String()
}

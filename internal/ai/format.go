// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package ai

import (
	"encoding/json"
	"fmt"
	"strings"
)

// FormatMarkdown renders an analysis as readable markdown. Empty fields are
// skipped so the document reads as a continuous flow.
func FormatMarkdown(a *Analysis) string {
	var b strings.Builder
	b.WriteString("## AI 분석 결과\n\n")

	if s := strings.TrimSpace(a.Summary); s != "" {
		fmt.Fprintf(&b, "### 핵심 요약\n\n%s\n\n", s)
	}

	facts := nonEmpty(a.FactsAndReading.Facts)
	readings := nonEmpty(a.FactsAndReading.Readings)
	if len(facts) > 0 || len(readings) > 0 {
		b.WriteString("### 사실과 해석\n\n")
		if len(facts) > 0 {
			b.WriteString("**사실:**\n")
			for _, f := range facts {
				fmt.Fprintf(&b, "- %s\n", f)
			}
			b.WriteString("\n")
		}
		if len(readings) > 0 {
			b.WriteString("**해석:**\n")
			for _, r := range readings {
				fmt.Fprintf(&b, "- %s\n", r)
			}
			b.WriteString("\n")
		}
	}

	if emotions := nonEmpty(a.EmotionSignals); len(emotions) > 0 {
		b.WriteString("### 감정 신호\n\n")
		for _, e := range emotions {
			fmt.Fprintf(&b, "- %s\n", e)
		}
		b.WriteString("\n")
	}

	if relations := nonEmpty(a.RelationSignals); len(relations) > 0 {
		b.WriteString("### 관계 신호\n\n")
		for _, r := range relations {
			fmt.Fprintf(&b, "- %s\n", r)
		}
		b.WriteString("\n")
	}

	if s := strings.TrimSpace(a.Reframing); s != "" {
		fmt.Fprintf(&b, "### 재해석\n\n%s\n\n", s)
	}

	if s := strings.TrimSpace(a.TodaysQuestion); s != "" {
		fmt.Fprintf(&b, "### 오늘의 질문\n\n> %s\n\n", s)
	}

	if s := strings.TrimSpace(a.TinyAction); s != "" {
		fmt.Fprintf(&b, "### 아주 작은 행동\n\n%s\n\n", s)
	}

	return strings.TrimSpace(b.String())
}

// FormatMarkdownJSON parses a stored analysis JSON string and renders it as
// markdown. Unparseable input falls back to a code block so nothing is lost.
func FormatMarkdownJSON(jsonText string) string {
	var a Analysis
	if err := json.Unmarshal([]byte(jsonText), &a); err != nil {
		return fmt.Sprintf("## AI 분석 결과\n\nJSON 파싱 오류가 발생했습니다.\n\n```json\n%s\n```", jsonText)
	}
	return FormatMarkdown(&a)
}

func nonEmpty(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if t := strings.TrimSpace(s); t != "" {
			out = append(out, t)
		}
	}
	return out
}

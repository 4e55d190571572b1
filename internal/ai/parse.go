// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package ai

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

var jsonFenceRe = regexp.MustCompile("```json\\s*")
var fenceRe = regexp.MustCompile("```\\s*")

// CleanJSONText strips markdown code fences and any prose surrounding the
// JSON object, leaving the text between the first "{" and the last "}".
func CleanJSONText(text string) string {
	s := jsonFenceRe.ReplaceAllString(text, "")
	s = fenceRe.ReplaceAllString(s, "")
	if i := strings.Index(s, "{"); i >= 0 {
		s = s[i:]
	} else {
		s = ""
	}
	if i := strings.LastIndex(s, "}"); i >= 0 {
		s = s[:i+1]
	} else {
		s = ""
	}
	return strings.TrimSpace(s)
}

var requiredFields = []string{
	"핵심_요약",
	"사실과_해석",
	"감정_신호",
	"관계_신호",
	"재해석",
	"오늘의_질문",
	"아주_작은_행동",
}

// ValidateRaw checks a decoded analysis object for the required fields and
// the structural rules the model must satisfy. The raw map carries field
// presence, which the typed struct cannot.
func ValidateRaw(raw map[string]json.RawMessage, a *Analysis) error {
	for _, field := range requiredFields {
		if _, ok := raw[field]; !ok {
			return fmt.Errorf("필수 필드 %q가 누락되었습니다.", field)
		}
	}
	if strings.TrimSpace(a.TodaysQuestion) == "" || len([]rune(strings.TrimSpace(a.TodaysQuestion))) < 5 {
		return fmt.Errorf(`"오늘의_질문"이 비어있거나 너무 짧습니다. 구체적이고 실용적인 질문이 필요합니다.`)
	}
	if a.FactsAndReading.Facts == nil || a.FactsAndReading.Readings == nil {
		return fmt.Errorf(`"사실과_해석" 구조가 올바르지 않습니다.`)
	}
	if a.EmotionSignals == nil || a.RelationSignals == nil {
		return fmt.Errorf("감정_신호 또는 관계_신호가 배열이 아닙니다.")
	}
	return nil
}

// ParseAnalysis cleans and decodes model output into an Analysis, enforcing
// the required fields. The cleaned JSON is returned alongside for storage.
func ParseAnalysis(text string) (*Analysis, string, error) {
	cleaned := CleanJSONText(text)

	var raw map[string]json.RawMessage
	if err := json.Unmarshal([]byte(cleaned), &raw); err != nil {
		return nil, "", &ParseError{Err: err}
	}
	var a Analysis
	if err := json.Unmarshal([]byte(cleaned), &a); err != nil {
		return nil, "", &ParseError{Err: err}
	}
	if err := ValidateRaw(raw, &a); err != nil {
		return nil, "", &ValidationError{Err: err}
	}
	return &a, cleaned, nil
}

// ParseError marks output that was not parseable JSON.
type ParseError struct{ Err error }

func (e *ParseError) Error() string { return fmt.Sprintf("JSON 파싱 실패: %v", e.Err) }
func (e *ParseError) Unwrap() error { return e.Err }

// ValidationError marks parseable output that broke the schema rules.
type ValidationError struct{ Err error }

func (e *ValidationError) Error() string { return e.Err.Error() }
func (e *ValidationError) Unwrap() error { return e.Err }

// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trailmind/trailmind/internal/ai"
	"github.com/trailmind/trailmind/internal/aicache"
	"github.com/trailmind/trailmind/internal/journal"
	"github.com/trailmind/trailmind/internal/ratelimit"
	"gorm.io/gorm/logger"
)

const fakeAnalysisJSON = `{
	"핵심_요약": "요약",
	"사실과_해석": {"사실": ["사실 하나"], "해석": ["해석 하나"]},
	"감정_신호": ["불안"],
	"관계_신호": [],
	"재해석": "다르게 볼 수 있다",
	"오늘의_질문": "내일은 무엇을 다르게 해볼까요?",
	"아주_작은_행동": "메모 한 줄 남기기"
}`

type fakeGenerator struct {
	err       error
	calls     int
	lastGuide ai.GuideID
	lastInput string
	lastMeta  ai.Meta
}

func (f *fakeGenerator) Generate(_ context.Context, guide ai.GuideID, inputText string, meta ai.Meta) (*ai.Result, error) {
	f.calls++
	f.lastGuide = guide
	f.lastInput = inputText
	f.lastMeta = meta
	if f.err != nil {
		return nil, f.err
	}
	var analysis ai.Analysis
	if err := json.Unmarshal([]byte(fakeAnalysisJSON), &analysis); err != nil {
		return nil, err
	}
	return &ai.Result{
		Model:         "gpt-4o-mini",
		CreatedAt:     time.Date(2025, 3, 15, 10, 0, 0, 0, time.UTC),
		PromptVersion: ai.PromptVersion,
		Analysis:      &analysis,
		RawJSON:       fakeAnalysisJSON,
	}, nil
}

func (f *fakeGenerator) Model() string { return "gpt-4o-mini" }

type fixture struct {
	server  *Server
	handler http.Handler
	gen     *fakeGenerator
	clock   clockwork.FakeClock
	journal *journal.Manager
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	clock := clockwork.NewFakeClockAt(time.Date(2025, 3, 15, 10, 0, 0, 0, time.UTC))
	return newFixtureAt(t, clock, opts...)
}

func newFixtureAt(t *testing.T, clock clockwork.FakeClock, opts ...Option) *fixture {
	t.Helper()
	m, err := journal.NewManager(filepath.Join(t.TempDir(), "log.json"), journal.WithClock(clock))
	require.NoError(t, err)

	gen := &fakeGenerator{}
	all := append([]Option{
		WithGenerator(gen),
		WithClock(clock),
		WithLimiter(ratelimit.New(ratelimit.WithClock(clock))),
		WithLogger(log.New(io.Discard, "", 0)),
	}, opts...)
	s := New(m, all...)

	return &fixture{server: s, handler: s.Routes(), gen: gen, clock: clock, journal: m}
}

func (f *fixture) do(t *testing.T, method, target string, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = bytes.NewReader([]byte(body))
	}
	req := httptest.NewRequest(method, target, reader)
	w := httptest.NewRecorder()
	f.handler.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var m map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &m))
	return m
}

func TestHealth(t *testing.T) {
	f := newFixture(t)
	w := f.do(t, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", decodeBody(t, w)["status"])
}

func TestCORSPreflight(t *testing.T) {
	f := newFixture(t)
	w := f.do(t, http.MethodOptions, "/api/reflections", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestCreateAndFetchReflection(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodPost, "/api/reflections",
		`{"content": "오늘 회의가 힘들었다", "category": "emotion", "prompts": ["무엇이 힘들었나요?"]}`)
	require.Equal(t, http.StatusCreated, w.Code)

	body := decodeBody(t, w)
	reflection := body["reflection"].(map[string]interface{})
	assert.Equal(t, "오늘 회의가 힘들었다", reflection["rawInput"])
	assert.Equal(t, "emotion", reflection["category"])
	id := reflection["id"].(string)
	assert.NotEmpty(t, id)

	// The entry lands under today's log.
	w = f.do(t, http.MethodGet, "/api/logs/2025-03-15", "")
	require.Equal(t, http.StatusOK, w.Code)
	day := decodeBody(t, w)
	assert.Equal(t, "2025-03-15", day["date"])
	assert.Len(t, day["reflections"], 1)

	// And in the full listing.
	w = f.do(t, http.MethodGet, "/api/reflections", "")
	require.Equal(t, http.StatusOK, w.Code)
	logs := decodeBody(t, w)["logs"].(map[string]interface{})
	assert.Contains(t, logs, "2025-03-15")
}

func TestCreateReflectionValidation(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodPost, "/api/reflections", `{"content": "   "}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(t, http.MethodPost, "/api/reflections", `{"content": "x", "category": "mood"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decodeBody(t, w)["message"], "category")
}

func TestLogByDateEmpty(t *testing.T) {
	f := newFixture(t)
	w := f.do(t, http.MethodGet, "/api/logs/2024-01-01", "")
	require.Equal(t, http.StatusOK, w.Code)
	day := decodeBody(t, w)
	assert.Equal(t, "2024-01-01", day["date"])
	assert.Empty(t, day["reflections"])
}

func TestUpdateReflection(t *testing.T) {
	f := newFixture(t)
	r, err := f.journal.AddReflection("원본", journal.CategoryThinking, nil, "")
	require.NoError(t, err)

	w := f.do(t, http.MethodPatch, "/api/reflections/"+r.ID,
		`{"aiAnalysisMarkdown": "## AI 분석 결과", "promptVersion": "1.0.0"}`)
	require.Equal(t, http.StatusOK, w.Code)

	updated := decodeBody(t, w)["reflection"].(map[string]interface{})
	assert.Equal(t, "## AI 분석 결과", updated["aiAnalysisMarkdown"])
	assert.Equal(t, "원본", updated["rawInput"])
}

func TestUpdateReflectionNotFound(t *testing.T) {
	f := newFixture(t)
	w := f.do(t, http.MethodPatch, "/api/reflections/nope", `{"rawInput": "x"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGenerate(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodPost, "/api/generate",
		`{"guideId": "감정_인식", "inputText": "오늘 회의에서 긴장했다", "meta": {"date": "2025-03-15"}}`)
	require.Equal(t, http.StatusOK, w.Code)

	body := decodeBody(t, w)
	assert.Equal(t, true, body["ok"])
	assert.Equal(t, "gpt-4o-mini", body["model"])
	assert.Equal(t, ai.PromptVersion, body["promptVersion"])
	result := body["result"].(map[string]interface{})
	assert.Equal(t, "내일은 무엇을 다르게 해볼까요?", result["오늘의_질문"])

	assert.Equal(t, ai.GuideEmotion, f.gen.lastGuide)
	assert.Equal(t, "오늘 회의에서 긴장했다", f.gen.lastInput)
	assert.Equal(t, "2025-03-15", f.gen.lastMeta.Date)
}

func TestGenerateAcceptsCategory(t *testing.T) {
	f := newFixture(t)
	w := f.do(t, http.MethodPost, "/api/generate",
		`{"category": "relationship", "inputText": "친구와 다퉜다"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, ai.GuideRelationship, f.gen.lastGuide)
}

func TestGenerateRejectsNonPost(t *testing.T) {
	f := newFixture(t)
	w := f.do(t, http.MethodGet, "/api/generate", "")

	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	body := decodeBody(t, w)
	assert.Equal(t, false, body["ok"])
	assert.Equal(t, "POST 요청만 지원합니다.", body["message"])
}

func TestGenerateWithoutAPIKey(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2025, 3, 15, 10, 0, 0, 0, time.UTC))
	m, err := journal.NewManager(filepath.Join(t.TempDir(), "log.json"), journal.WithClock(clock))
	require.NoError(t, err)
	s := New(m, WithLogger(log.New(io.Discard, "", 0)))

	req := httptest.NewRequest(http.MethodPost, "/api/generate",
		strings.NewReader(`{"guideId": "사고_명확성", "inputText": "x"}`))
	w := httptest.NewRecorder()
	s.Routes().ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, decodeBody(t, w)["message"], "OPENAI_API_KEY")
}

func TestGenerateCooldown(t *testing.T) {
	f := newFixture(t)
	body := `{"guideId": "사고_명확성", "inputText": "내용"}`

	w := f.do(t, http.MethodPost, "/api/generate", body)
	require.Equal(t, http.StatusOK, w.Code)

	w = f.do(t, http.MethodPost, "/api/generate", body)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Contains(t, decodeBody(t, w)["message"], "요청이 너무 빠릅니다")
}

func TestGenerateDailyQuota(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2025, 3, 15, 10, 0, 0, 0, time.UTC))
	limiter := ratelimit.New(ratelimit.WithClock(clock), ratelimit.WithDailyMax(1))
	f := newFixtureAt(t, clock, WithLimiter(limiter))
	body := `{"guideId": "사고_명확성", "inputText": "내용"}`

	w := f.do(t, http.MethodPost, "/api/generate", body)
	require.Equal(t, http.StatusOK, w.Code)

	f.clock.Advance(3 * time.Second)
	w = f.do(t, http.MethodPost, "/api/generate", body)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Contains(t, decodeBody(t, w)["message"], "하루 최대 1회")
}

func TestGenerateValidation(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantMsg string
	}{
		{"missing input", `{"guideId": "사고_명확성"}`, "guideId와 inputText는 필수입니다."},
		{"missing guide", `{"inputText": "내용"}`, "guideId와 inputText는 필수입니다."},
		{"unknown guide", `{"guideId": "사주_풀이", "inputText": "내용"}`, "알 수 없는 guideId"},
		{"unknown category", `{"category": "mood", "inputText": "내용"}`, "알 수 없는 category"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			w := f.do(t, http.MethodPost, "/api/generate", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, decodeBody(t, w)["message"], tt.wantMsg)
			assert.Zero(t, f.gen.calls)
		})
	}
}

func TestGenerateRejectsOverlongInput(t *testing.T) {
	f := newFixture(t)
	long := strings.Repeat("가", ai.MaxInputLength+1)
	payload, err := json.Marshal(map[string]string{"guideId": "사고_명확성", "inputText": long})
	require.NoError(t, err)

	w := f.do(t, http.MethodPost, "/api/generate", string(payload))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decodeBody(t, w)["message"], "현재 3001자입니다")
}

func TestGenerateUpstreamFailure(t *testing.T) {
	f := newFixture(t)
	f.gen.err = errors.New("AI 호출 실패 (503): upstream unavailable")

	w := f.do(t, http.MethodPost, "/api/generate", `{"guideId": "사고_명확성", "inputText": "내용"}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, decodeBody(t, w)["message"], "AI 호출 실패")
}

func TestGenerateUsesCache(t *testing.T) {
	db, err := aicache.Connect(&aicache.Config{
		Type:       "sqlite",
		SQLitePath: filepath.Join(t.TempDir(), "cache.db"),
		LogLevel:   logger.Silent,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = aicache.Close(db) })

	f := newFixture(t, WithCache(aicache.New(db)))
	body := `{"guideId": "사고_명확성", "inputText": "같은 입력"}`

	w := f.do(t, http.MethodPost, "/api/generate", body)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, f.gen.calls)
	assert.NotContains(t, decodeBody(t, w), "cached")

	f.clock.Advance(3 * time.Second)
	w = f.do(t, http.MethodPost, "/api/generate", body)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, f.gen.calls, "second call must be served from cache")
	cached := decodeBody(t, w)
	assert.Equal(t, true, cached["cached"])
	result := cached["result"].(map[string]interface{})
	assert.Equal(t, "내일은 무엇을 다르게 해볼까요?", result["오늘의_질문"])
}

func TestSearchEndpoint(t *testing.T) {
	f := newFixture(t)
	_, err := f.journal.AddReflection("프로젝트 마감 걱정", journal.CategoryThinking, nil, "")
	require.NoError(t, err)

	w := f.do(t, http.MethodGet, "/api/search?q="+url.QueryEscape("마감"), "")
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Len(t, body["results"], 1)

	w = f.do(t, http.MethodGet, "/api/search", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(t, http.MethodGet, "/api/search?q=x&category=mood", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestInsightEndpoints(t *testing.T) {
	f := newFixture(t)
	_, err := f.journal.AddReflection("친구와 대화했다", journal.CategoryRelationship, nil, "")
	require.NoError(t, err)

	w := f.do(t, http.MethodGet, "/api/insights/weekly", "")
	require.Equal(t, http.StatusOK, w.Code)
	weekly := decodeBody(t, w)
	assert.EqualValues(t, 1, weekly["totalEntries"])

	w = f.do(t, http.MethodGet, "/api/insights/patterns?days=60", "")
	require.Equal(t, http.StatusOK, w.Code)

	w = f.do(t, http.MethodGet, "/api/insights/patterns?days=zero", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestExportEndpoint(t *testing.T) {
	f := newFixture(t)
	_, err := f.journal.AddReflection("수출 테스트", journal.CategoryThinking, nil, "")
	require.NoError(t, err)

	w := f.do(t, http.MethodGet, "/api/export", "")
	require.Equal(t, http.StatusOK, w.Code)
	pkg := decodeBody(t, w)
	assert.Equal(t, "1.1.0", pkg["version"])
	assert.Contains(t, pkg, "metadata")

	w = f.do(t, http.MethodGet, "/api/export?format=markdown-daily", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/markdown")
	assert.Contains(t, w.Body.String(), "2025년 3월 15일")

	w = f.do(t, http.MethodGet, "/api/export?format=html", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")

	w = f.do(t, http.MethodGet, "/api/export?format=pdf", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestImportEndpoint(t *testing.T) {
	source := newFixture(t)
	_, err := source.journal.AddReflection("이전 기기의 기록", journal.CategoryEmotion, nil, "")
	require.NoError(t, err)

	exported := source.do(t, http.MethodGet, "/api/export", "")
	require.Equal(t, http.StatusOK, exported.Code)

	target := newFixture(t)
	w := target.do(t, http.MethodPost, "/api/import", exported.Body.String())
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, true, body["ok"])
	assert.EqualValues(t, 1, body["totalReflections"])

	day := target.journal.LogByDate("2025-03-15")
	require.NotNil(t, day)
	assert.Len(t, day.Reflections, 1)

	// Importing the same package again changes nothing.
	w = target.do(t, http.MethodPost, "/api/import", exported.Body.String())
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, target.journal.LogByDate("2025-03-15").Reflections, 1)
}

func TestImportRejectsInvalidPackage(t *testing.T) {
	f := newFixture(t)
	w := f.do(t, http.MethodPost, "/api/import", `{"logs": {}}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

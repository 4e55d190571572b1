// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/trailmind/trailmind/internal/ai"
	"github.com/trailmind/trailmind/internal/aicache"
	"github.com/trailmind/trailmind/internal/analytics"
	"github.com/trailmind/trailmind/internal/export"
	"github.com/trailmind/trailmind/internal/journal"
	"github.com/trailmind/trailmind/internal/ratelimit"
)

// GenerateRequest is the request body for AI analysis
type GenerateRequest struct {
	GuideID   ai.GuideID       `json:"guideId"`
	Category  journal.Category `json:"category"`
	InputText string           `json:"inputText"`
	Meta      ai.Meta          `json:"meta"`
}

// GenerateResponse is the success envelope for AI analysis
type GenerateResponse struct {
	OK            bool         `json:"ok"`
	Model         string       `json:"model"`
	CreatedAt     string       `json:"createdAt"`
	PromptVersion string       `json:"promptVersion"`
	Result        *ai.Analysis `json:"result"`
	Cached        bool         `json:"cached,omitempty"`
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "POST 요청만 지원합니다.")
		return
	}

	if !s.hasAPIKey {
		writeError(w, http.StatusInternalServerError, "서버에 OPENAI_API_KEY가 설정되지 않았습니다.")
		return
	}

	ip := clientIP(r)
	if err := s.limiter.CheckAndRecord(ip); err != nil {
		switch {
		case errors.Is(err, ratelimit.ErrCooldown):
			writeError(w, http.StatusTooManyRequests, "요청이 너무 빠릅니다. 잠시 후 다시 시도해주세요.")
		case errors.Is(err, ratelimit.ErrQuotaExceeded):
			writeError(w, http.StatusTooManyRequests,
				fmt.Sprintf("하루 최대 %d회까지 호출할 수 있습니다. 내일 다시 시도해주세요.", s.limiter.DailyMax()))
		default:
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	var req GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "요청 본문을 해석할 수 없습니다.")
		return
	}

	guide := req.GuideID
	if guide == "" && req.Category != "" {
		if !journal.ValidCategory(req.Category) {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("알 수 없는 category: %s", req.Category))
			return
		}
		guide = ai.GuideForCategory(req.Category)
	}

	inputText := strings.TrimSpace(req.InputText)
	if guide == "" || inputText == "" {
		writeError(w, http.StatusBadRequest, "guideId와 inputText는 필수입니다.")
		return
	}
	if !guide.Valid() {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("알 수 없는 guideId: %s", guide))
		return
	}
	if n := len([]rune(inputText)); n > ai.MaxInputLength {
		writeError(w, http.StatusBadRequest,
			fmt.Sprintf("입력 내용은 최대 %d자까지 가능합니다. 현재 %d자입니다.", ai.MaxInputLength, n))
		return
	}

	hash := aicache.HashInput(inputText)
	if s.cache != nil {
		if raw, ok, err := s.cache.Get(string(guide), hash, ai.PromptVersion); err != nil {
			s.logger.Printf("analysis cache lookup failed: %v", err)
		} else if ok {
			var analysis ai.Analysis
			if err := json.Unmarshal([]byte(raw), &analysis); err == nil {
				writeJSON(w, http.StatusOK, GenerateResponse{
					OK:            true,
					Model:         s.generator.Model(),
					CreatedAt:     journal.FormatTime(s.clock.Now()),
					PromptVersion: ai.PromptVersion,
					Result:        &analysis,
					Cached:        true,
				})
				return
			}
		}
	}

	res, err := s.generator.Generate(r.Context(), guide, inputText, req.Meta)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if s.cache != nil {
		if err := s.cache.Put(string(guide), hash, res.Model, res.PromptVersion, res.RawJSON); err != nil {
			s.logger.Printf("analysis cache store failed: %v", err)
		}
	}

	writeJSON(w, http.StatusOK, GenerateResponse{
		OK:            true,
		Model:         res.Model,
		CreatedAt:     journal.FormatTime(res.CreatedAt),
		PromptVersion: res.PromptVersion,
		Result:        res.Analysis,
	})
}

func (s *Server) handleListLogs(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"logs": s.journal.Snapshot(),
	})
}

// CreateReflectionRequest is the request body for a new entry
type CreateReflectionRequest struct {
	Content          string           `json:"content"`
	Category         journal.Category `json:"category"`
	Prompts          []string         `json:"prompts"`
	PromptTemplateID string           `json:"promptTemplateId"`
}

func (s *Server) handleCreateReflection(w http.ResponseWriter, r *http.Request) {
	var req CreateReflectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "요청 본문을 해석할 수 없습니다.")
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		writeError(w, http.StatusBadRequest, "content는 필수입니다.")
		return
	}
	if req.Category == "" {
		req.Category = journal.CategoryThinking
	}
	if !journal.ValidCategory(req.Category) {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("알 수 없는 category: %s", req.Category))
		return
	}

	reflection, err := s.journal.AddReflection(req.Content, req.Category, req.Prompts, req.PromptTemplateID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{"reflection": reflection})
}

// UpdateReflectionRequest carries partial field updates. Absent fields are
// left untouched.
type UpdateReflectionRequest struct {
	RawInput           *string           `json:"rawInput"`
	Category           *journal.Category `json:"category"`
	PromptTemplateID   *string           `json:"promptTemplateId"`
	PromptVersion      *string           `json:"promptVersion"`
	GeneratedPrompt    *string           `json:"generatedPrompt"`
	AIOutput           *string           `json:"aiOutput"`
	AIAnalysisMarkdown *string           `json:"aiAnalysisMarkdown"`
	Prompts            *[]string         `json:"prompts"`
}

func (s *Server) handleUpdateReflection(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var req UpdateReflectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "요청 본문을 해석할 수 없습니다.")
		return
	}
	if req.Category != nil && !journal.ValidCategory(*req.Category) {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("알 수 없는 category: %s", *req.Category))
		return
	}

	if s.journal.Get(id) == nil {
		writeError(w, http.StatusNotFound, "반성 기록을 찾을 수 없습니다.")
		return
	}

	err := s.journal.UpdateReflection(id, journal.Update{
		RawInput:           req.RawInput,
		Category:           req.Category,
		PromptTemplateID:   req.PromptTemplateID,
		PromptVersion:      req.PromptVersion,
		GeneratedPrompt:    req.GeneratedPrompt,
		AIOutput:           req.AIOutput,
		AIAnalysisMarkdown: req.AIAnalysisMarkdown,
		Prompts:            req.Prompts,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"reflection": s.journal.Get(id)})
}

func (s *Server) handleLogByDate(w http.ResponseWriter, r *http.Request) {
	date := r.PathValue("date")
	log := s.journal.LogByDate(date)
	if log == nil {
		log = &journal.DailyLog{Date: date, Reflections: []*journal.Reflection{}}
	}
	writeJSON(w, http.StatusOK, log)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := q.Get("q")
	if strings.TrimSpace(query) == "" {
		writeError(w, http.StatusBadRequest, "query parameter 'q' is required")
		return
	}

	category := journal.Category(q.Get("category"))
	if category != "" && !journal.ValidCategory(category) {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("알 수 없는 category: %s", category))
		return
	}

	results := analytics.Search(s.journal.Snapshot(), analytics.SearchOptions{
		Query:     query,
		StartDate: q.Get("start"),
		EndDate:   q.Get("end"),
		Category:  category,
	})
	if results == nil {
		results = []analytics.SearchResult{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"results": results,
		"query":   query,
	})
}

func (s *Server) handleWeeklyInsights(w http.ResponseWriter, r *http.Request) {
	insights := analytics.Weekly(s.journal.Snapshot(), s.clock.Now(), s.lex)
	writeJSON(w, http.StatusOK, insights)
}

func (s *Server) handlePatternInsights(w http.ResponseWriter, r *http.Request) {
	days := 30
	if d := r.URL.Query().Get("days"); d != "" {
		n, err := strconv.Atoi(d)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "query parameter 'days' must be a positive integer")
			return
		}
		days = n
	}

	insights := analytics.Patterns(s.journal.Snapshot(), days, s.clock.Now(), s.lex)
	writeJSON(w, http.StatusOK, insights)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	format := export.Format(q.Get("format"))
	if format == "" {
		format = export.FormatJSON
	}
	if !export.ValidFormat(format) {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unsupported export format: %s", format))
		return
	}

	opts := export.Options{
		Format:          format,
		StartDate:       q.Get("start"),
		EndDate:         q.Get("end"),
		IncludeMetadata: q.Get("metadata") != "false",
	}
	logs := s.journal.Snapshot()
	now := s.clock.Now()

	switch format {
	case export.FormatJSON:
		writeJSON(w, http.StatusOK, export.ToJSON(logs, opts, now))
	case export.FormatMarkdownDaily:
		writeText(w, "text/markdown; charset=utf-8", export.ToMarkdownDaily(logs, opts, now))
	case export.FormatMarkdownWeekly:
		writeText(w, "text/markdown; charset=utf-8", export.ToMarkdownWeekly(logs, opts, now))
	case export.FormatMarkdownMonthly:
		writeText(w, "text/markdown; charset=utf-8", export.ToMarkdownMonthly(logs, opts, now))
	case export.FormatHTML:
		writeText(w, "text/html; charset=utf-8", export.ToHTML(logs, opts, now))
	}
}

func writeText(w http.ResponseWriter, contentType, body string) {
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	io.WriteString(w, body)
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "요청 본문을 읽을 수 없습니다.")
		return
	}

	pkg, err := export.ParseImport(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	logs := journal.MigrateStore(pkg.Logs, s.clock.Now())
	if err := s.journal.ImportLogs(logs); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	total := 0
	for _, log := range logs {
		if log != nil {
			total += len(log.Reflections)
		}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"ok":               true,
		"totalReflections": total,
	})
}

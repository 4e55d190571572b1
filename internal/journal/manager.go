// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package journal

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

// Manager owns the reflection store: CRUD, merge-on-import, and synchronous
// persistence. Every mutating call rewrites the store file before returning.
type Manager struct {
	mu    sync.Mutex
	store Store
	file  *FileStore
	clock clockwork.Clock

	// afterSave, when set, runs after each successful persist (backup hook).
	// Failures are reported by the hook itself; they never fail the mutation.
	afterSave func(path string)
}

// Option configures a Manager.
type Option func(*Manager)

// WithClock injects the clock used for timestamps and IDs.
func WithClock(c clockwork.Clock) Option {
	return func(m *Manager) { m.clock = c }
}

// WithAfterSave registers a hook invoked with the store path after each
// successful persist.
func WithAfterSave(fn func(path string)) Option {
	return func(m *Manager) { m.afterSave = fn }
}

// NewManager loads (and migrates) the store at path.
func NewManager(path string, opts ...Option) (*Manager, error) {
	m := &Manager{
		file:  NewFileStore(path),
		clock: clockwork.NewRealClock(),
	}
	for _, opt := range opts {
		opt(m)
	}

	store, err := m.file.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load store: %w", err)
	}
	m.store = MigrateStore(store, m.clock.Now())
	return m, nil
}

// Path returns the store file path.
func (m *Manager) Path() string { return m.file.Path() }

// AddReflection creates a new entry under today's daily log and persists the
// store. It always succeeds unless persistence fails.
func (m *Manager) AddReflection(content string, category Category, prompts []string, promptTemplateID string) (*Reflection, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.clock.Now()
	ts := FormatTime(now)
	r := &Reflection{
		ID:               newID(now),
		Date:             ts,
		Content:          content,
		RawInput:         content,
		Category:         category,
		Prompts:          prompts,
		PromptTemplateID: promptTemplateID,
		UpdatedAt:        ts,
	}

	day := DayKey(now)
	log, ok := m.store[day]
	if !ok {
		log = &DailyLog{Date: day}
		m.store[day] = log
	}
	log.Reflections = append(log.Reflections, r)

	if err := m.persist(); err != nil {
		return nil, err
	}
	return r.clone(), nil
}

// Update carries partial field updates for UpdateReflection. Nil fields are
// left untouched.
type Update struct {
	RawInput           *string
	Category           *Category
	PromptTemplateID   *string
	PromptVersion      *string
	GeneratedPrompt    *string
	AIOutput           *string
	AIAnalysisMarkdown *string
	Prompts            *[]string
}

// UpdateReflection locates the entry by ID across all daily logs, merges the
// partial update, and refreshes updatedAt. Unknown IDs are a silent no-op.
func (m *Manager) UpdateReflection(id string, u Update) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	r := m.findLocked(id)
	if r == nil {
		return nil
	}

	if u.RawInput != nil {
		r.RawInput = *u.RawInput
		r.Content = *u.RawInput
	}
	if u.Category != nil {
		r.Category = *u.Category
	}
	if u.PromptTemplateID != nil {
		r.PromptTemplateID = *u.PromptTemplateID
	}
	if u.PromptVersion != nil {
		r.PromptVersion = *u.PromptVersion
	}
	if u.GeneratedPrompt != nil {
		r.GeneratedPrompt = *u.GeneratedPrompt
	}
	if u.AIOutput != nil {
		r.AIOutput = *u.AIOutput
	}
	if u.AIAnalysisMarkdown != nil {
		r.AIAnalysisMarkdown = *u.AIAnalysisMarkdown
	}
	if u.Prompts != nil {
		r.Prompts = append([]string(nil), (*u.Prompts)...)
	}
	r.UpdatedAt = FormatTime(m.clock.Now())

	return m.persist()
}

// ImportLogs merges an imported store into the current one. Entries sharing
// an ID keep whichever side has the lexicographically later updatedAt (date
// when updatedAt is absent); new entries are appended under the imported day
// key. Existing entries absent from the import are never deleted. Importing
// the same package twice is a no-op the second time.
func (m *Manager) ImportLogs(imported Store) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := FormatTime(m.clock.Now())

	// Index existing entries by ID across all days.
	existing := make(map[string]*Reflection)
	for _, log := range m.store {
		if log == nil {
			continue
		}
		for _, r := range log.Reflections {
			existing[r.ID] = r
		}
	}

	for day, log := range imported {
		if log == nil {
			continue
		}
		target, ok := m.store[day]
		if !ok {
			target = &DailyLog{Date: day}
			m.store[day] = target
		}
		for _, in := range log.Reflections {
			if in == nil || in.ID == "" {
				continue
			}
			cur, found := existing[in.ID]
			if !found {
				r := in.clone()
				migrateReflection(r, now)
				target.Reflections = append(target.Reflections, r)
				existing[r.ID] = r
				continue
			}
			if mergeStamp(in) > mergeStamp(cur) {
				replacement := in.clone()
				migrateReflection(replacement, now)
				*cur = *replacement
			}
		}
	}

	return m.persist()
}

// mergeStamp is the conflict-resolution key: updatedAt, falling back to the
// creation date. ISO 8601 strings compare correctly lexicographically.
func mergeStamp(r *Reflection) string {
	if r.UpdatedAt != "" {
		return r.UpdatedAt
	}
	return r.Date
}

// Snapshot returns a deep copy of the store, safe to read concurrently with
// mutations.
func (m *Manager) Snapshot() Store {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make(Store, len(m.store))
	for day, log := range m.store {
		if log == nil {
			continue
		}
		cp := &DailyLog{Date: log.Date, Reflections: make([]*Reflection, 0, len(log.Reflections))}
		for _, r := range log.Reflections {
			cp.Reflections = append(cp.Reflections, r.clone())
		}
		out[day] = cp
	}
	return out
}

// DailyLogs returns all logs sorted newest day first.
func (m *Manager) DailyLogs() []*DailyLog {
	snap := m.Snapshot()
	logs := make([]*DailyLog, 0, len(snap))
	for _, log := range snap {
		logs = append(logs, log)
	}
	sort.Slice(logs, func(i, j int) bool { return logs[i].Date > logs[j].Date })
	return logs
}

// LogByDate returns the daily log for a YYYY-MM-DD key, or nil.
func (m *Manager) LogByDate(date string) *DailyLog {
	return m.Snapshot()[date]
}

// TodayLog returns today's daily log, or nil when nothing was written today.
func (m *Manager) TodayLog() *DailyLog {
	return m.LogByDate(DayKey(m.clock.Now()))
}

// Get returns a copy of the entry with the given ID, or nil.
func (m *Manager) Get(id string) *Reflection {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r := m.findLocked(id); r != nil {
		return r.clone()
	}
	return nil
}

func (m *Manager) findLocked(id string) *Reflection {
	for _, log := range m.store {
		if log == nil {
			continue
		}
		for _, r := range log.Reflections {
			if r.ID == id {
				return r
			}
		}
	}
	return nil
}

func (m *Manager) persist() error {
	if err := m.file.Save(m.store); err != nil {
		return fmt.Errorf("failed to persist store: %w", err)
	}
	if m.afterSave != nil {
		m.afterSave(m.file.Path())
	}
	return nil
}

func (r *Reflection) clone() *Reflection {
	cp := *r
	cp.Prompts = append([]string(nil), r.Prompts...)
	if r.Analysis != nil {
		a := *r.Analysis
		cp.Analysis = &a
	}
	return &cp
}

// newID builds an entry ID from the creation time plus a random suffix.
func newID(now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:9]
	return fmt.Sprintf("%d-%s", now.UnixMilli(), suffix)
}

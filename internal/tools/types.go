// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package tools defines the MCP tools that let an AI assistant read and
// write the journal: trailmind_remember, trailmind_recall, and
// trailmind_insights.
package tools

import (
	"github.com/jonboulle/clockwork"

	"github.com/trailmind/trailmind/internal/journal"
	"github.com/trailmind/trailmind/internal/lexicon"
)

// ToolContext holds shared dependencies for all tools
type ToolContext struct {
	Journal *journal.Manager
	Lexicon *lexicon.Lexicon
	Clock   clockwork.Clock
}

// NewToolContext creates a tool context over the journal manager
func NewToolContext(m *journal.Manager) *ToolContext {
	return &ToolContext{
		Journal: m,
		Lexicon: lexicon.Default(),
		Clock:   clockwork.NewRealClock(),
	}
}

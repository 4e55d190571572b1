// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/trailmind/trailmind/internal/journal"
)

// NewRememberTool creates the trailmind_remember tool definition
func NewRememberTool() mcp.Tool {
	return mcp.NewTool("trailmind_remember",
		mcp.WithDescription("Save a journal reflection. Use this whenever the user shares something about their day worth keeping: an event, a feeling, a conversation. The entry is stored under today's date."),
		mcp.WithString("content",
			mcp.Required(),
			mcp.Description("The reflection text to store, in the user's own words."),
		),
		mcp.WithString("category",
			mcp.Description("One of 'thinking', 'emotion', 'relationship'. Defaults to 'thinking'."),
		),
		mcp.WithString("prompt",
			mcp.Description("The guiding question the user was answering, if any."),
		),
	)
}

// RememberHandler handles the trailmind_remember tool
func RememberHandler(ctx *ToolContext) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(c context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		content := strings.TrimSpace(request.GetString("content", ""))
		if content == "" {
			return mcp.NewToolResultError("'content' is required"), nil
		}

		category := journal.Category(request.GetString("category", string(journal.CategoryThinking)))
		if !journal.ValidCategory(category) {
			return mcp.NewToolResultError(fmt.Sprintf("unknown category: '%s' (use thinking, emotion, or relationship)", category)), nil
		}

		var prompts []string
		if p := strings.TrimSpace(request.GetString("prompt", "")); p != "" {
			prompts = []string{p}
		}

		r, err := ctx.Journal.AddReflection(content, category, prompts, "")
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to save reflection: %v", err)), nil
		}

		return mcp.NewToolResultText(fmt.Sprintf("Saved reflection %s under %s (category: %s).", r.ID, r.Date[:10], r.Category)), nil
	}
}

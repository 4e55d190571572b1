// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/trailmind/trailmind/internal/analytics"
	"github.com/trailmind/trailmind/internal/journal"
)

// NewRecallTool creates the trailmind_recall tool definition
func NewRecallTool() mcp.Tool {
	return mcp.NewTool("trailmind_recall",
		mcp.WithDescription("Find past journal reflections. Use this whenever you need to know what the user wrote before. Searches entry text and AI analyses, ranked by relevance."),
		mcp.WithString("query",
			mcp.Description("Keywords or a phrase to search for."),
		),
		mcp.WithString("date",
			mcp.Description("Fetch every entry of one day instead of searching. Format: YYYY-MM-DD."),
		),
		mcp.WithString("start",
			mcp.Description("Only search entries on or after this date. Format: YYYY-MM-DD."),
		),
		mcp.WithString("end",
			mcp.Description("Only search entries on or before this date. Format: YYYY-MM-DD."),
		),
		mcp.WithString("category",
			mcp.Description("Limit results to 'thinking', 'emotion', or 'relationship'."),
		),
		mcp.WithNumber("limit",
			mcp.Description("Max results. Default: 10"),
		),
	)
}

// RecallHandler handles the trailmind_recall tool
func RecallHandler(ctx *ToolContext) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(c context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		query := strings.TrimSpace(request.GetString("query", ""))
		date := strings.TrimSpace(request.GetString("date", ""))
		category := journal.Category(request.GetString("category", ""))
		limit := int(request.GetFloat("limit", 10.0))

		if category != "" && !journal.ValidCategory(category) {
			return mcp.NewToolResultError(fmt.Sprintf("unknown category: '%s'", category)), nil
		}

		if date != "" {
			return recallByDate(ctx, date, category), nil
		}
		if query == "" {
			return mcp.NewToolResultError("please provide 'query' or 'date'"), nil
		}

		results := analytics.Search(ctx.Journal.Snapshot(), analytics.SearchOptions{
			Query:     query,
			StartDate: strings.TrimSpace(request.GetString("start", "")),
			EndDate:   strings.TrimSpace(request.GetString("end", "")),
			Category:  category,
		})
		if len(results) > limit {
			results = results[:limit]
		}
		if len(results) == 0 {
			return mcp.NewToolResultText(fmt.Sprintf("No reflections found for: '%s'", query)), nil
		}

		var b strings.Builder
		fmt.Fprintf(&b, "Found %d reflection(s) for '%s':\n\n", len(results), query)
		for _, res := range results {
			writeEntry(&b, res.LogDate, res.Reflection)
		}
		return mcp.NewToolResultText(strings.TrimSpace(b.String())), nil
	}
}

func recallByDate(ctx *ToolContext, date string, category journal.Category) *mcp.CallToolResult {
	log := ctx.Journal.LogByDate(date)
	if log == nil || len(log.Reflections) == 0 {
		return mcp.NewToolResultText(fmt.Sprintf("No reflections on %s.", date))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Reflections on %s:\n\n", date)
	n := 0
	for _, r := range log.Reflections {
		if category != "" && r.Category != category {
			continue
		}
		writeEntry(&b, date, r)
		n++
	}
	if n == 0 {
		return mcp.NewToolResultText(fmt.Sprintf("No %s reflections on %s.", category, date))
	}
	return mcp.NewToolResultText(strings.TrimSpace(b.String()))
}

func writeEntry(b *strings.Builder, date string, r *journal.Reflection) {
	fmt.Fprintf(b, "[%s] %s (%s)\n%s\n", date, r.ID, r.Category, r.Text())
	if r.AIAnalysisMarkdown != "" {
		b.WriteString("(has AI analysis)\n")
	}
	b.WriteString("\n")
}

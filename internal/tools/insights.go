// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package tools

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/trailmind/trailmind/internal/analytics"
)

// NewInsightsTool creates the trailmind_insights tool definition
func NewInsightsTool() mcp.Tool {
	return mcp.NewTool("trailmind_insights",
		mcp.WithDescription("Summarize patterns in the journal. 'weekly' covers the last 7 days (top words, relationship mentions, a reflection question). 'patterns' covers a longer window (repeated topics, weekday habits, emotion balance, monthly trend)."),
		mcp.WithString("kind",
			mcp.Description("'weekly' or 'patterns'. Default: 'weekly'."),
		),
		mcp.WithNumber("days",
			mcp.Description("Window for 'patterns' in days. Default: 30"),
		),
	)
}

// InsightsHandler handles the trailmind_insights tool
func InsightsHandler(ctx *ToolContext) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(c context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		kind := request.GetString("kind", "weekly")
		days := int(request.GetFloat("days", 30.0))
		if days < 1 {
			return mcp.NewToolResultError("'days' must be a positive number"), nil
		}

		switch kind {
		case "weekly":
			return mcp.NewToolResultText(formatWeekly(ctx)), nil
		case "patterns":
			return mcp.NewToolResultText(formatPatterns(ctx, days)), nil
		default:
			return mcp.NewToolResultError(fmt.Sprintf("unknown kind: '%s' (use 'weekly' or 'patterns')", kind)), nil
		}
	}
}

func formatWeekly(ctx *ToolContext) string {
	w := analytics.Weekly(ctx.Journal.Snapshot(), ctx.Clock.Now(), ctx.Lexicon)

	var b strings.Builder
	fmt.Fprintf(&b, "Last 7 days: %d entries\n", w.TotalEntries)
	if len(w.TopWords) > 0 {
		words := make([]string, 0, len(w.TopWords))
		for _, wc := range w.TopWords {
			words = append(words, fmt.Sprintf("%s (%d)", wc.Word, wc.Count))
		}
		fmt.Fprintf(&b, "Top words: %s\n", strings.Join(words, ", "))
	}
	fmt.Fprintf(&b, "Relationship mentions: %d\n", w.RelationshipMentions)
	fmt.Fprintf(&b, "Question for the week: %s\n", w.WeeklyQuestion)
	return strings.TrimSpace(b.String())
}

func formatPatterns(ctx *ToolContext, days int) string {
	p := analytics.Patterns(ctx.Journal.Snapshot(), days, ctx.Clock.Now(), ctx.Lexicon)

	var b strings.Builder
	fmt.Fprintf(&b, "Patterns over the last %d days:\n\n", days)

	if len(p.RepeatedTopics) > 0 {
		b.WriteString("Repeated topics:\n")
		for _, topic := range p.RepeatedTopics {
			fmt.Fprintf(&b, "- %s (%d entries)\n", topic.Topic, topic.Frequency)
		}
		b.WriteString("\n")
	}

	if len(p.WeekdayPatterns) > 0 {
		days := make([]string, 0, len(p.WeekdayPatterns))
		for day := range p.WeekdayPatterns {
			days = append(days, day)
		}
		sort.Strings(days)
		b.WriteString("By weekday:\n")
		for _, day := range days {
			wp := p.WeekdayPatterns[day]
			fmt.Fprintf(&b, "- %s: %d entries\n", day, wp.Count)
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "Dominant emotion: %s\n", p.EmotionPatterns.DominantEmotion)

	if len(p.RelationshipPatterns.CommonThemes) > 0 {
		fmt.Fprintf(&b, "Relationship themes: %s\n", strings.Join(p.RelationshipPatterns.CommonThemes, ", "))
	}

	if len(p.MonthlyTrends) > 0 {
		trends := make([]string, 0, len(p.MonthlyTrends))
		for _, tr := range p.MonthlyTrends {
			trends = append(trends, fmt.Sprintf("%s: %d", tr.Month, tr.Count))
		}
		fmt.Fprintf(&b, "Monthly trend: %s\n", strings.Join(trends, ", "))
	}

	return strings.TrimSpace(b.String())
}

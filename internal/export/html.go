// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package export

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/trailmind/trailmind/internal/journal"
)

// ToHTML renders the daily markdown export as a minimal self-contained HTML
// page suitable for printing. This is the server-side counterpart of the
// original "PDF via print dialog" path.
func ToHTML(logs journal.Store, opts Options, now time.Time) string {
	markdown := ToMarkdownDaily(logs, opts, now)
	// The frontmatter block is for markdown consumers; drop it from HTML.
	markdown = stripFrontmatter(markdown)
	return fmt.Sprintf(printablePage, markdownToHTML(markdown))
}

const printablePage = `<!DOCTYPE html>
<html>
  <head>
    <meta charset="UTF-8">
    <title>TrailMind Export</title>
    <style>
      body {
        font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', 'Roboto', sans-serif;
        line-height: 1.6;
        max-width: 800px;
        margin: 0 auto;
        padding: 2rem;
        color: #1a1a1a;
      }
      h1 { font-size: 2rem; margin-top: 2rem; margin-bottom: 1rem; }
      h2 { font-size: 1.5rem; margin-top: 1.5rem; margin-bottom: 0.75rem; }
      h3 { font-size: 1.25rem; margin-top: 1rem; margin-bottom: 0.5rem; }
      p { margin: 0.5rem 0; }
      hr { margin: 1.5rem 0; border: none; border-top: 1px solid #e0e0e0; }
      @media print {
        body { padding: 1rem; }
        h1 { page-break-after: avoid; }
        h2 { page-break-after: avoid; }
      }
    </style>
  </head>
  <body>
%s
  </body>
</html>
`

var (
	h1Re     = regexp.MustCompile(`(?m)^# (.*)$`)
	h2Re     = regexp.MustCompile(`(?m)^## (.*)$`)
	h3Re     = regexp.MustCompile(`(?m)^### (.*)$`)
	boldRe   = regexp.MustCompile(`\*\*(.*?)\*\*`)
	italicRe = regexp.MustCompile(`\*(.*?)\*`)
	hrRe     = regexp.MustCompile(`(?m)^---$`)
)

// markdownToHTML is the original app's intentionally small converter:
// headings, bold/italic, horizontal rules, and paragraph breaks. It does not
// try to be a markdown engine.
func markdownToHTML(markdown string) string {
	var out []string
	for _, block := range strings.Split(markdown, "\n\n") {
		block = strings.TrimSpace(block)
		if block == "" {
			continue
		}
		switch {
		case h3Re.MatchString(block):
			out = append(out, h3Re.ReplaceAllString(block, "<h3>$1</h3>"))
		case h2Re.MatchString(block):
			out = append(out, h2Re.ReplaceAllString(block, "<h2>$1</h2>"))
		case h1Re.MatchString(block):
			out = append(out, h1Re.ReplaceAllString(block, "<h1>$1</h1>"))
		case hrRe.MatchString(block):
			out = append(out, hrRe.ReplaceAllString(block, "<hr>"))
		default:
			block = boldRe.ReplaceAllString(block, "<strong>$1</strong>")
			block = italicRe.ReplaceAllString(block, "<em>$1</em>")
			out = append(out, "<p>"+strings.ReplaceAll(block, "\n", "<br>")+"</p>")
		}
	}
	return strings.Join(out, "\n")
}

func stripFrontmatter(markdown string) string {
	if !strings.HasPrefix(markdown, "---\n") {
		return markdown
	}
	rest := markdown[len("---\n"):]
	end := strings.Index(rest, "---\n")
	if end < 0 {
		return markdown
	}
	return strings.TrimLeft(rest[end+len("---\n"):], "\n")
}

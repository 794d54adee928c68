package router

import (
	"fmt"
	"math"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/mathrouter/mathrouter/apimodels"
	"github.com/mathrouter/mathrouter/internal/knowledge"
)

const (
	maxContextSources  = 2
	contextExcerptLen  = 500
	templateExcerptLen = 400
)

func formatKnowledgeSolution(entry knowledge.Entry) string {
	var b strings.Builder
	fmt.Fprintf(&b, "**Understanding the Problem:**\n%s\n\n**Step-by-Step Solution:**\n", entry.Question)
	for i, step := range entry.Steps {
		fmt.Fprintf(&b, "Step %d: %s\n", i+1, step)
	}
	fmt.Fprintf(&b, "\n**Final Answer:**\n%s\n\n**Key Concepts:**\n", entry.Solution)
	fmt.Fprintf(&b, "- Topic: %s\n", capitalize(orDefault(entry.Topic, "Mathematics")))
	fmt.Fprintf(&b, "- Difficulty: %s\n", capitalize(orDefault(entry.Difficulty, "Medium")))
	fmt.Fprintf(&b, "\n**Source:** Knowledge Base (Confidence: %s%%)\n", formatPercent(entry.Score))
	return b.String()
}

func formatWebSearchSolution(query string, results []apimodels.SearchDocument) string {
	var b strings.Builder
	fmt.Fprintf(&b, "**Understanding the Problem:**\n%s\n\n**Information Retrieved via MCP (Model Context Protocol):**\n\n", query)
	for i, r := range firstN(results, maxContextSources) {
		fmt.Fprintf(&b, "**Source %d: %s**\n%s...\n\n🔗 Read more: %s\n\n",
			i+1, orDefault(r.Title, "Unknown Source"), truncate(r.Content, templateExcerptLen), r.URL)
	}
	b.WriteString("\n**Note:** This solution was retrieved using Model Context Protocol (MCP) for web search integration.\n")
	return b.String()
}

func formatFallbackSolution(query string) string {
	return fmt.Sprintf(`**Problem:** %s

**Status:** Not found in knowledge base. MCP search and LLM unavailable.

**Recommended Resources:**
1. **Khan Academy** - khanacademy.org
2. **Symbolab** - symbolab.com
3. **Wolfram Alpha** - wolframalpha.com
`, query)
}

// extractContext joins the top results as "Source: title\ncontent" blocks.
func extractContext(results []apimodels.SearchDocument) string {
	parts := make([]string, 0, maxContextSources)
	for _, r := range firstN(results, maxContextSources) {
		parts = append(parts, fmt.Sprintf("Source: %s\n%s", orDefault(r.Title, "Unknown"), truncate(r.Content, contextExcerptLen)))
	}
	return strings.Join(parts, "\n\n")
}

func firstN(results []apimodels.SearchDocument, n int) []apimodels.SearchDocument {
	if len(results) > n {
		return results[:n]
	}
	return results
}

// truncate cuts s to at most n runes.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

// capitalize upper-cases the first rune and lower-cases the rest.
func capitalize(s string) string {
	if s == "" {
		return s
	}
	r := []rune(strings.ToLower(s))
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// formatPercent renders a [0,1] score as a percentage with one decimal: 0.973 -> "97.3".
func formatPercent(score float64) string {
	return fmt.Sprintf("%.1f", math.Round(score*1000)/10)
}

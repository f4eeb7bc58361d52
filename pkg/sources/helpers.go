package sources

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

func responseSnippet(body []byte) string {
	const maxLen = 512
	s := strings.TrimSpace(string(body))
	if len(s) > maxLen {
		return s[:maxLen] + "..."
	}
	if s == "" {
		return "<empty>"
	}
	return s
}

// truncateRunes caps s at n runes without splitting multi-byte characters.
func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

var (
	markdownHeading    = regexp.MustCompile(`(?m)^#+\s*`)
	markdownCodeBlock  = regexp.MustCompile("(?s)```.*?```")
	markdownEmphasis   = regexp.MustCompile(`\*+([^*]+)\*+`)
	markdownInlineCode = regexp.MustCompile("`([^`]+)`")
	markdownImage      = regexp.MustCompile(`!\[[^\]]*\]\([^)]+\)`)
	markdownLink       = regexp.MustCompile(`\[([^\]]+)\]\([^)]+\)`)
	blankLines         = regexp.MustCompile(`\n{2,}`)
)

// stripMarkdown removes common markdown formatting, leaving plain text.
func stripMarkdown(text string) string {
	text = markdownCodeBlock.ReplaceAllString(text, "")
	text = markdownHeading.ReplaceAllString(text, "")
	text = markdownEmphasis.ReplaceAllString(text, "$1")
	text = markdownInlineCode.ReplaceAllString(text, "$1")
	text = markdownImage.ReplaceAllString(text, "")
	text = markdownLink.ReplaceAllString(text, "$1")
	text = blankLines.ReplaceAllString(text, "\n")
	return strings.TrimSpace(text)
}

// stripHTML flattens an HTML fragment to its text content with collapsed
// whitespace. Feed summaries routinely carry markup.
func stripHTML(fragment string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return strings.TrimSpace(fragment)
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}

package scrape

import (
	"html"
	"regexp"
	"strings"

	"github.com/kennygrant/sanitize"
)

var whitespaceRun = regexp.MustCompile(`\s+`)

// CleanText turns a markup fragment into plain text: tags and styling
// artifacts stripped, HTML entities decoded, whitespace collapsed.
func CleanText(fragment string) string {
	if strings.TrimSpace(fragment) == "" {
		return ""
	}
	text := sanitize.HTML(fragment)
	text = html.UnescapeString(text)
	return CollapseWhitespace(text)
}

// CollapseWhitespace trims the value and folds internal whitespace runs
// (including newlines from pretty-printed markup) into single spaces.
func CollapseWhitespace(value string) string {
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(value, " "))
}

package normalize

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/text/unicode/norm"
)

// CleanText strips markup some upstreams embed in synopses, collapses
// whitespace and normalizes to NFC.
func CleanText(raw string) string {
	value := strings.TrimSpace(raw)
	if value == "" {
		return ""
	}
	if strings.ContainsAny(value, "<&") {
		if doc, err := goquery.NewDocumentFromReader(strings.NewReader(value)); err == nil {
			value = doc.Text()
		}
	}
	value = strings.Join(strings.Fields(value), " ")
	return norm.NFC.String(value)
}

// Excerpt truncates on rune boundaries and marks the cut with "...".
func Excerpt(value string, limit int) string {
	if limit <= 0 {
		return value
	}
	runes := []rune(value)
	if len(runes) <= limit {
		return value
	}
	return strings.TrimSpace(string(runes[:limit])) + "..."
}

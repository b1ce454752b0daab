package utils

import (
	"html"
	"strings"
	"unicode"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var stripTags = bluemonday.StripTagsPolicy()

// SanitizeText strips HTML tags from user input and collapses whitespace.
func SanitizeText(s string) string {
	s = stripTags.Sanitize(s)
	// bluemonday escapes entities, we store plain text
	s = html.UnescapeString(s)
	return strings.Join(strings.Fields(s), " ")
}

// FoldAccents lowercases s and removes diacritics so "Đà Nẵng" matches "da nang".
func FoldAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	// đ/Đ carry no combining mark
	out = strings.NewReplacer("đ", "d", "Đ", "D").Replace(out)
	return strings.ToLower(out)
}

// NormalizeEmail trims and lowercases an email address for storage.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

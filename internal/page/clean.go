package page

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	reHTMLNewLine = regexp.MustCompile(`(?i)<dd>|<br\s*/?>`)
	reHTMLTags    = regexp.MustCompile(`(?i)</?\S+?[^>]*?>`)
	reMultiSpace  = regexp.MustCompile(`\s{2,}`)
)

// noisy reports runes trimmed off the edges of extracted fields: whitespace
// and the punctuation the site pads titles with.
func noisy(r rune) bool {
	return unicode.IsSpace(r) || strings.ContainsRune(",.:;@-", r)
}

// TrimNoisy strips noisy runes from both ends of an extracted field. Stored
// group names pass through it too so diff keys compare equal.
func TrimNoisy(s string) string {
	return strings.TrimFunc(s, noisy)
}

// cleanText flattens an HTML fragment to plain text: <dd> and <br> become
// newlines, remaining tags are elided, whitespace runs collapse to one
// space, and the em-dash entity becomes a plain hyphen.
func cleanText(s string) string {
	s = reHTMLNewLine.ReplaceAllString(s, "\n")
	s = reHTMLTags.ReplaceAllString(s, "")
	s = reMultiSpace.ReplaceAllString(s, " ")
	s = strings.Trim(s, " ")
	return strings.ReplaceAll(s, "&#8212;", "-")
}

package extract

import (
	"strings"
	"unicode/utf8"
)

// plainPages returns content as text split into pages at form feeds.
// Invalid UTF-8 sequences are replaced with the replacement character.
func plainPages(content []byte) []string {
	s := string(content)
	if !utf8.Valid(content) {
		s = strings.ToValidUTF8(s, "�")
	}
	return strings.Split(s, "\f")
}

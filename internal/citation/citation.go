// Package citation repairs and links the [n] references in generated answers.
//
// The prompt asks the model to cite context blocks as [1], [2], ... but models
// also emit page-style references. Normalize first rewrites those into the
// canonical [i] form, then turns each valid [i] into a link carrying the page
// of the i-th source.
package citation

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	// [Page 2], [page 2.], [p. 2], [p2], [pg 2]
	bracketPageRe = regexp.MustCompile(`(?i)\[\s*(?:page|pg\.?|p\.?)\s*(\d+)\s*[.,;:]?\s*\]`)
	// (Page 2), (p. 2)
	parenPageRe = regexp.MustCompile(`(?i)\(\s*(?:page|pg\.|p\.)\s*(\d+)\s*[.,;:]?\s*\)`)
	// [2.], [2,]
	strayPunctRe = regexp.MustCompile(`\[\s*(\d+)\s*[.,;:]\s*\]`)
	// Page 2
	barePageRe = regexp.MustCompile(`(?i)\bpage\s+(\d+)\b`)
	// [2]
	ordinalRe = regexp.MustCompile(`\[(\d+)\]`)
	// a citation, linked or not, ending right before a page label
	citedBeforeRe = regexp.MustCompile(`\[(\d+)\](?:\(#page=\d+\))?[ \t]*\(?[ \t]*$`)
)

// Normalize canonicalizes then links citations. pages[i] is the page of the
// source cited as [i+1].
func Normalize(text string, pages []int) string {
	return Link(Canonicalize(text, pages), pages)
}

// Canonicalize rewrites page-style references to [i]. In the bracketed forms a
// number within [1, len(pages)] is read as an ordinal, otherwise it is matched
// against the source pages. The parenthesized and bare forms ("(Page 5)",
// "Page 5") try the pages first. A page label that directly follows a citation
// [k] describes that citation: it is dropped when it names the page of source k
// and kept verbatim otherwise. References that resolve to nothing are left as
// written.
func Canonicalize(text string, pages []int) string {
	text = replaceResolved(bracketPageRe, text, pages)
	text = replaceLabels(parenPageRe, text, pages)
	text = replaceResolved(strayPunctRe, text, pages)
	return replaceLabels(barePageRe, text, pages)
}

func replaceResolved(re *regexp.Regexp, text string, pages []int) string {
	return re.ReplaceAllStringFunc(text, func(m string) string {
		sub := re.FindStringSubmatch(m)
		n, err := strconv.Atoi(sub[1])
		if err != nil {
			return m
		}
		if i := resolve(n, pages); i > 0 {
			return "[" + strconv.Itoa(i) + "]"
		}
		return m
	})
}

// replaceLabels rewrites page labels written in prose, where the number is more
// likely a page than a rank.
func replaceLabels(re *regexp.Regexp, text string, pages []int) string {
	matches := re.FindAllStringSubmatchIndex(text, -1)
	if len(matches) == 0 {
		return text
	}
	var b strings.Builder
	last := 0
	for _, m := range matches {
		start, end := m[0], m[1]
		n, err := strconv.Atoi(text[m[2]:m[3]])
		if err != nil {
			continue
		}
		if k, open, ok := citedBefore(text[:start], len(pages)); ok {
			if open || pages[k-1] != n {
				continue
			}
			b.WriteString(strings.TrimRight(text[last:start], " \t"))
			last = end
			continue
		}
		i := resolvePage(n, pages)
		if i == 0 {
			continue
		}
		b.WriteString(text[last:start])
		fmt.Fprintf(&b, "[%d]", i)
		last = end
	}
	b.WriteString(text[last:])
	return b.String()
}

// citedBefore reports the in-range citation k that prefix ends with, and whether
// an unclosed "(" sits between it and the label.
func citedBefore(prefix string, n int) (k int, open bool, ok bool) {
	m := citedBeforeRe.FindStringSubmatch(prefix)
	if m == nil {
		return 0, false, false
	}
	k, err := strconv.Atoi(m[1])
	if err != nil || k < 1 || k > n {
		return 0, false, false
	}
	return k, strings.HasSuffix(strings.TrimRight(prefix, " \t"), "("), true
}

// resolve maps a cited number to a 1-based rank, or 0 if it matches nothing.
func resolve(n int, pages []int) int {
	if n >= 1 && n <= len(pages) {
		return n
	}
	return pageRank(n, pages)
}

// resolvePage is resolve with the page match tried first.
func resolvePage(n int, pages []int) int {
	if i := pageRank(n, pages); i > 0 {
		return i
	}
	if n >= 1 && n <= len(pages) {
		return n
	}
	return 0
}

func pageRank(page int, pages []int) int {
	for i, p := range pages {
		if p == page {
			return i + 1
		}
	}
	return 0
}

// Link rewrites every [i] with 1 <= i <= len(pages) into [i](#page=P).
// Out-of-range numbers and references already followed by "(" are kept.
func Link(text string, pages []int) string {
	matches := ordinalRe.FindAllStringSubmatchIndex(text, -1)
	if len(matches) == 0 {
		return text
	}
	var b strings.Builder
	last := 0
	for _, m := range matches {
		start, end := m[0], m[1]
		n, err := strconv.Atoi(text[m[2]:m[3]])
		if err != nil || n < 1 || n > len(pages) || strings.HasPrefix(text[end:], "(") {
			continue
		}
		b.WriteString(text[last:start])
		fmt.Fprintf(&b, "[%d](#page=%d)", n, pages[n-1])
		last = end
	}
	b.WriteString(text[last:])
	return b.String()
}

// Ordinals returns the distinct in-range [i] ordinals in text, in order of first appearance.
func Ordinals(text string, n int) []int {
	var out []int
	seen := make(map[int]bool)
	for _, m := range ordinalRe.FindAllStringSubmatch(text, -1) {
		i, err := strconv.Atoi(m[1])
		if err != nil || i < 1 || i > n || seen[i] {
			continue
		}
		seen[i] = true
		out = append(out, i)
	}
	return out
}

package extract

import (
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
)

// DefaultOCRMinChars is the native-text length under which a PDF page is re-read with OCR.
const DefaultOCRMinChars = 50

// PageRecognizer reads text from rendered PDF pages. pages are 1-indexed; the
// result maps a page number to its recognized text.
type PageRecognizer interface {
	RecognizePages(content []byte, pages []int) (map[int]string, error)
}

// WithOCR re-reads PDF pages whose native text is shorter than minChars (or
// every page when force is set) through r.
func WithOCR(r PageRecognizer, minChars int, force bool) ExtractorOption {
	return func(e *Extractor) {
		if minChars <= 0 {
			minChars = DefaultOCRMinChars
		}
		e.ocr = r
		e.ocrMinChars = minChars
		e.forceOCR = force
	}
}

// ocrCandidates returns the 1-indexed pages that need OCR.
func ocrCandidates(pages []string, minChars int, force bool) []int {
	var out []int
	for i, text := range pages {
		if force || utf8.RuneCountInString(strings.TrimSpace(text)) < minChars {
			out = append(out, i+1)
		}
	}
	return out
}

// applyOCR replaces page text in place. Recognized text wins when forced and
// non-blank, otherwise only when it is longer than what the PDF reader found.
// A recognizer error keeps the native text.
func (e *Extractor) applyOCR(content []byte, pages []string) {
	if e.ocr == nil {
		return
	}
	needs := ocrCandidates(pages, e.ocrMinChars, e.forceOCR)
	if len(needs) == 0 {
		return
	}
	e.logger.Info("OCR required", zap.Int("pages", len(needs)), zap.Int("total", len(pages)))

	results, err := e.ocr.RecognizePages(content, needs)
	if err != nil {
		e.logger.Warn("OCR failed, keeping native text", zap.Error(err))
		return
	}
	for _, n := range needs {
		text, ok := results[n]
		if !ok {
			continue
		}
		got := utf8.RuneCountInString(strings.TrimSpace(text))
		native := utf8.RuneCountInString(strings.TrimSpace(pages[n-1]))
		if (e.forceOCR && got > 0) || got > native {
			pages[n-1] = text
			e.logger.Debug("OCR page", zap.Int("page", n), zap.Int("chars", got))
		}
	}
}

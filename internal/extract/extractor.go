// Package extract provides per-page text extraction from document formats.
package extract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hyperjump/astrali/pkg/utils"
	"go.uber.org/zap"
)

// Page is the raw text of one page (or slide, or sheet). Number is 1-indexed.
type Page struct {
	Number int
	Text   string
}

// Extractor extracts page text from document files.
type Extractor struct {
	logger *zap.Logger

	ocr         PageRecognizer
	ocrMinChars int
	forceOCR    bool
}

// ExtractorOption configures an Extractor.
type ExtractorOption func(*Extractor)

// WithLogger sets the logger used for per-page warnings.
func WithLogger(l *zap.Logger) ExtractorOption {
	return func(e *Extractor) {
		e.logger = l
	}
}

// NewExtractor returns a new Extractor.
func NewExtractor(opts ...ExtractorOption) *Extractor {
	e := &Extractor{}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = utils.OrNop(e.logger)
	return e
}

// SupportedExtensions lists the extensions ExtractPages understands, with leading dot.
var SupportedExtensions = []string{
	".pdf", ".docx", ".odt", ".rtf", ".xlsx", ".ods", ".pptx", ".odp", ".txt", ".md", ".rst",
}

// Supported reports whether ext (with leading dot, any case) is a known format.
func Supported(ext string) bool {
	ext = strings.ToLower(ext)
	for _, s := range SupportedExtensions {
		if s == ext {
			return true
		}
	}
	return false
}

// ExtractPages reads the file at path and returns its pages in ascending order.
// A page that cannot be decoded is returned with empty text rather than failing the document.
func (e *Extractor) ExtractPages(path string) ([]Page, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	ext := strings.ToLower(filepath.Ext(path))
	return e.PagesFromBytes(content, ext)
}

// PagesFromBytes extracts pages from content based on the given extension.
// ext should include the leading dot (e.g. ".pdf"). Unknown extensions are treated as plain text.
func (e *Extractor) PagesFromBytes(content []byte, ext string) ([]Page, error) {
	var texts []string
	var err error
	switch ext {
	case ".pdf":
		texts, err = e.pdfPages(content)
	case ".docx":
		texts, err = docxPages(content)
	case ".odt", ".rtf":
		texts, err = catPages(content)
	case ".xlsx":
		texts, err = excelPages(content)
	case ".ods":
		texts, err = odsPages(content)
	case ".pptx":
		texts, err = pptxPages(content)
	case ".odp":
		texts, err = odpPages(content)
	default:
		texts = plainPages(content)
	}
	if err != nil {
		return nil, err
	}
	return numbered(texts), nil
}

// TotalChars returns the number of non-whitespace-trimmed characters across pages.
func TotalChars(pages []Page) int {
	n := 0
	for _, p := range pages {
		n += len([]rune(strings.TrimSpace(p.Text)))
	}
	return n
}

func numbered(texts []string) []Page {
	pages := make([]Page, len(texts))
	for i, t := range texts {
		pages[i] = Page{Number: i + 1, Text: t}
	}
	return pages
}

package extract

import (
	"bytes"
	"fmt"

	"github.com/ledongthuc/pdf"
	"go.uber.org/zap"
)

// pdfPages returns one entry per PDF page. Null pages and pages whose content stream
// cannot be decoded yield empty text so page numbers stay aligned.
func (e *Extractor) pdfPages(content []byte) ([]string, error) {
	r, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("open PDF: %w", err)
	}
	numPages := r.NumPage()
	pages := make([]string, numPages)
	for i := 0; i < numPages; i++ {
		pages[i] = e.pdfPageText(r, i+1)
	}
	e.applyOCR(content, pages)
	return pages, nil
}

func (e *Extractor) pdfPageText(r *pdf.Reader, n int) (text string) {
	// The reader panics on some malformed content streams.
	defer func() {
		if rec := recover(); rec != nil {
			e.logger.Warn("pdf page panicked", zap.Int("page", n), zap.Any("panic", rec))
			text = ""
		}
	}()
	page := r.Page(n)
	if page.V.IsNull() {
		return ""
	}
	text, err := page.GetPlainText(nil)
	if err != nil {
		e.logger.Warn("pdf page extraction failed", zap.Int("page", n), zap.Error(err))
		return ""
	}
	return text
}

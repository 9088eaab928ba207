//go:build ocr
// +build ocr

package extract

import (
	"bytes"
	"fmt"
	"image/png"
	"strings"

	"github.com/gen2brain/go-fitz"
	"github.com/hyperjump/astrali/pkg/utils"
	"github.com/otiai10/gosseract/v2"
	"go.uber.org/zap"
)

// TesseractConfig configures page rendering and recognition.
type TesseractConfig struct {
	// Languages is a Tesseract language list such as "fra+eng".
	Languages string
	DPI       int
}

// Tesseract renders PDF pages with MuPDF and reads them with Tesseract.
type Tesseract struct {
	languages []string
	dpi       float64
	logger    *zap.Logger
}

// NewTesseract returns a recognizer. Requires the ocr build tag.
func NewTesseract(cfg TesseractConfig, logger *zap.Logger) (*Tesseract, error) {
	langs := strings.Split(cfg.Languages, "+")
	if cfg.Languages == "" {
		langs = []string{"eng"}
	}
	dpi := cfg.DPI
	if dpi <= 0 {
		dpi = 300
	}
	return &Tesseract{languages: langs, dpi: float64(dpi), logger: utils.OrNop(logger)}, nil
}

// RecognizePages implements PageRecognizer. Pages that fail to render or
// recognize are logged and left out of the result.
func (t *Tesseract) RecognizePages(content []byte, pages []int) (map[int]string, error) {
	doc, err := fitz.NewFromMemory(content)
	if err != nil {
		return nil, fmt.Errorf("open PDF for OCR: %w", err)
	}
	defer doc.Close()

	client := gosseract.NewClient()
	defer client.Close()
	if err := client.SetLanguage(t.languages...); err != nil {
		return nil, fmt.Errorf("tesseract languages %v: %w", t.languages, err)
	}
	_ = client.SetVariable("tessedit_pageseg_mode", "3")
	_ = client.SetVariable("preserve_interword_spaces", "1")

	out := make(map[int]string, len(pages))
	for _, n := range pages {
		if n < 1 || n > doc.NumPage() {
			continue
		}
		img, err := doc.ImageDPI(n-1, t.dpi)
		if err != nil {
			t.logger.Warn("render page failed", zap.Int("page", n), zap.Error(err))
			continue
		}
		var buf bytes.Buffer
		enc := png.Encoder{CompressionLevel: png.NoCompression}
		if err := enc.Encode(&buf, img); err != nil {
			t.logger.Warn("encode page image failed", zap.Int("page", n), zap.Error(err))
			continue
		}
		if err := client.SetImageFromBytes(buf.Bytes()); err != nil {
			t.logger.Warn("set OCR image failed", zap.Int("page", n), zap.Error(err))
			continue
		}
		text, err := client.Text()
		if err != nil {
			t.logger.Warn("OCR page failed", zap.Int("page", n), zap.Error(err))
			continue
		}
		out[n] = text
	}
	return out, nil
}

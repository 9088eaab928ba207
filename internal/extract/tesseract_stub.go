//go:build !ocr
// +build !ocr

package extract

import (
	"errors"

	"go.uber.org/zap"
)

var errNoOCR = errors.New("OCR requires building with -tags ocr (Tesseract and MuPDF)")

// TesseractConfig configures page rendering and recognition.
type TesseractConfig struct {
	Languages string
	DPI       int
}

// Tesseract is unavailable without the ocr build tag.
type Tesseract struct{}

// NewTesseract always fails without the ocr build tag.
func NewTesseract(TesseractConfig, *zap.Logger) (*Tesseract, error) {
	return nil, errNoOCR
}

// RecognizePages implements PageRecognizer.
func (*Tesseract) RecognizePages([]byte, []int) (map[int]string, error) {
	return nil, errNoOCR
}

//go:build !ocr
// +build !ocr

package extract

import (
	"errors"
	"testing"
)

func TestNewTesseract_RequiresBuildTag(t *testing.T) {
	if _, err := NewTesseract(TesseractConfig{Languages: "fra+eng"}, nil); !errors.Is(err, errNoOCR) {
		t.Errorf("err = %v, want errNoOCR", err)
	}
}

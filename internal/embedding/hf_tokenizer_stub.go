//go:build !cgo

package embedding

import "errors"

// HFTokenizer stub type when built without CGO (see hf_tokenizer.go).
type HFTokenizer struct{ SimpleTokenizer }

// NewHFTokenizer returns an error when built without CGO.
func NewHFTokenizer(_ string) (*HFTokenizer, error) {
	return nil, errors.New("HuggingFace tokenizer requires CGO; build with CGO_ENABLED=1")
}

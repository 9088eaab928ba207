//go:build !cgo

package rerank

import (
	"context"
	"errors"

	"github.com/hyperjump/astrali/internal/embedding"
)

var errNoCGO = errors.New("ONNX reranker requires CGO; build with CGO_ENABLED=1 and onnxruntime")

// ONNXReranker stub type when built without CGO (see onnx.go).
type ONNXReranker struct{}

// NewONNXReranker returns an error when built without CGO.
func NewONNXReranker(_ string, _ int, _ embedding.Tokenizer) (*ONNXReranker, error) {
	return nil, errNoCGO
}

func (r *ONNXReranker) Rerank(context.Context, string, []string, int) ([]Result, error) {
	return nil, errNoCGO
}

func (r *ONNXReranker) Close() error { return nil }

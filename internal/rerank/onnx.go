//go:build cgo

package rerank

import (
	"context"
	"fmt"
	"sync"

	"github.com/hyperjump/astrali/internal/embedding"
	"github.com/hyperjump/astrali/pkg/utils"
	ort "github.com/yalue/onnxruntime_go"
)

// ONNXReranker runs a cross-encoder exported to ONNX. The model reads a
// (query, passage) pair and emits a single relevance logit, mapped through a sigmoid.
type ONNXReranker struct {
	session   *ort.AdvancedSession
	maxTokens int
	tokenizer embedding.Tokenizer

	inputIDs      *ort.Tensor[int64]
	attentionMask *ort.Tensor[int64]
	tokenTypeIDs  *ort.Tensor[int64]
	logits        *ort.Tensor[float32]
	mu            sync.Mutex
}

// NewONNXReranker loads the model at modelPath.
func NewONNXReranker(modelPath string, maxTokens int, tokenizer embedding.Tokenizer) (*ONNXReranker, error) {
	if err := embedding.InitializeRuntime(); err != nil {
		return nil, fmt.Errorf("failed to initialize ONNX runtime: %w", err)
	}
	if tokenizer == nil {
		tokenizer = &embedding.SimpleTokenizer{}
	}
	shape := ort.NewShape(1, int64(maxTokens))
	ids, mask, types := tokenizer.TokenizePair("", "", maxTokens)

	r := &ONNXReranker{maxTokens: maxTokens, tokenizer: tokenizer}
	var err error
	if r.inputIDs, err = ort.NewTensor(shape, ids); err != nil {
		return nil, fmt.Errorf("failed to create input_ids tensor: %w", err)
	}
	if r.attentionMask, err = ort.NewTensor(shape, mask); err != nil {
		r.Close()
		return nil, fmt.Errorf("failed to create attention_mask tensor: %w", err)
	}
	if r.tokenTypeIDs, err = ort.NewTensor(shape, types); err != nil {
		r.Close()
		return nil, fmt.Errorf("failed to create token_type_ids tensor: %w", err)
	}
	if r.logits, err = ort.NewTensor(ort.NewShape(1, 1), make([]float32, 1)); err != nil {
		r.Close()
		return nil, fmt.Errorf("failed to create logits tensor: %w", err)
	}
	r.session, err = ort.NewAdvancedSession(
		modelPath,
		[]string{"input_ids", "attention_mask", "token_type_ids"},
		[]string{"logits"},
		[]ort.ArbitraryTensor{r.inputIDs, r.attentionMask, r.tokenTypeIDs},
		[]ort.ArbitraryTensor{r.logits},
		nil,
	)
	if err != nil {
		r.Close()
		return nil, fmt.Errorf("failed to create ONNX session: %w", err)
	}
	return r, nil
}

// Rerank scores every candidate against query.
func (r *ONNXReranker) Rerank(ctx context.Context, query string, candidates []string, topK int) ([]Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	scores := make([]float64, len(candidates))
	for i, c := range candidates {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		ids, mask, types := r.tokenizer.TokenizePair(query, c, r.maxTokens)
		copy(r.inputIDs.GetData(), ids)
		copy(r.attentionMask.GetData(), mask)
		copy(r.tokenTypeIDs.GetData(), types)
		if err := r.session.Run(); err != nil {
			return nil, fmt.Errorf("inference failed: %w", err)
		}
		scores[i] = utils.Sigmoid(float64(r.logits.GetData()[0]))
	}
	return topResults(scores, topK), nil
}

// Close destroys the session and tensors.
func (r *ONNXReranker) Close() error {
	var err error
	if r.session != nil {
		err = r.session.Destroy()
		r.session = nil
	}
	if r.inputIDs != nil {
		_ = r.inputIDs.Destroy()
		r.inputIDs = nil
	}
	if r.attentionMask != nil {
		_ = r.attentionMask.Destroy()
		r.attentionMask = nil
	}
	if r.tokenTypeIDs != nil {
		_ = r.tokenTypeIDs.Destroy()
		r.tokenTypeIDs = nil
	}
	if r.logits != nil {
		_ = r.logits.Destroy()
		r.logits = nil
	}
	if r.tokenizer != nil {
		_ = r.tokenizer.Close()
		r.tokenizer = nil
	}
	return err
}

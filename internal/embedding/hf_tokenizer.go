//go:build cgo

package embedding

import (
	"fmt"

	"github.com/daulet/tokenizers"
)

// HFTokenizer wraps a HuggingFace tokenizer.json through the Rust tokenizers bindings.
// Special token ids are taken from the tokenizer's own post-processor, so BERT
// ([CLS]/[SEP]) and XLM-R (<s>/</s>) vocabularies both work.
type HFTokenizer struct {
	tk  *tokenizers.Tokenizer
	cls int64
	sep int64
}

// NewHFTokenizer loads tokenizer.json from path.
func NewHFTokenizer(path string) (*HFTokenizer, error) {
	tk, err := tokenizers.FromFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load tokenizer from %s: %w", path, err)
	}
	cls, sep := int64(clsTokenID), int64(sepTokenID)
	if ids, _ := tk.Encode("", true); len(ids) >= 2 {
		cls, sep = int64(ids[0]), int64(ids[len(ids)-1])
	}
	return &HFTokenizer{tk: tk, cls: cls, sep: sep}, nil
}

// Tokenize encodes a single sequence.
func (t *HFTokenizer) Tokenize(text string, maxTokens int) (inputIDs, attentionMask, tokenTypeIDs []int64) {
	return packPair(t.encode(text), nil, false, t.cls, t.sep, maxTokens)
}

// TokenizePair encodes a (query, passage) pair for cross-encoders.
func (t *HFTokenizer) TokenizePair(first, second string, maxTokens int) (inputIDs, attentionMask, tokenTypeIDs []int64) {
	return packPair(t.encode(first), t.encode(second), true, t.cls, t.sep, maxTokens)
}

// Close frees the native tokenizer.
func (t *HFTokenizer) Close() error {
	return t.tk.Close()
}

func (t *HFTokenizer) encode(text string) []int64 {
	raw, _ := t.tk.Encode(text, false)
	ids := make([]int64, len(raw))
	for i, id := range raw {
		ids[i] = int64(id)
	}
	return ids
}

package embedding

import "strings"

// Tokenizer produces token IDs for BERT-style models (input_ids, attention_mask, token_type_ids).
// Outputs are padded to exactly maxTokens.
type Tokenizer interface {
	Tokenize(text string, maxTokens int) (inputIDs, attentionMask, tokenTypeIDs []int64)
	TokenizePair(first, second string, maxTokens int) (inputIDs, attentionMask, tokenTypeIDs []int64)
	Close() error
}

const (
	clsTokenID = 101
	sepTokenID = 102
	hashVocab  = 30000
)

// SimpleTokenizer is a word-split tokenizer with hash-based token IDs (for testing or fallback).
type SimpleTokenizer struct{}

// Tokenize splits text into words and produces padded token IDs up to maxTokens.
func (t *SimpleTokenizer) Tokenize(text string, maxTokens int) (inputIDs, attentionMask, tokenTypeIDs []int64) {
	return t.TokenizePair(text, "", maxTokens)
}

// TokenizePair encodes "[CLS] first [SEP] second [SEP]" with segment ids 0 and 1.
// When second is empty only the first segment is emitted.
func (t *SimpleTokenizer) TokenizePair(first, second string, maxTokens int) (inputIDs, attentionMask, tokenTypeIDs []int64) {
	return packPair(hashIDs(first), hashIDs(second), second != "", clsTokenID, sepTokenID, maxTokens)
}

// Close is a no-op for SimpleTokenizer.
func (t *SimpleTokenizer) Close() error { return nil }

func hashIDs(text string) []int64 {
	words := SplitWords(text)
	ids := make([]int64, len(words))
	for i, w := range words {
		ids[i] = int64(HashString(strings.ToLower(w)) % hashVocab)
	}
	return ids
}

// packPair lays out token ids BERT-style and pads to maxTokens. The first segment
// is truncated before the second when the pair does not fit.
func packPair(a, b []int64, pair bool, cls, sep int64, maxTokens int) (inputIDs, attentionMask, tokenTypeIDs []int64) {
	if maxTokens <= 0 {
		maxTokens = 256
	}
	inputIDs = make([]int64, maxTokens)
	attentionMask = make([]int64, maxTokens)
	tokenTypeIDs = make([]int64, maxTokens)

	specials := 2
	if pair {
		specials = 3
	}
	budget := maxTokens - specials
	if budget < 0 {
		budget = 0
	}
	if pair {
		// Keep the query (a) whole when possible; truncate the passage.
		if len(a) > budget {
			a = a[:budget]
		}
		if len(a)+len(b) > budget {
			b = b[:budget-len(a)]
		}
	} else if len(a) > budget {
		a = a[:budget]
	}

	pos := 0
	put := func(id int64, segment int64) {
		if pos >= maxTokens {
			return
		}
		inputIDs[pos] = id
		attentionMask[pos] = 1
		tokenTypeIDs[pos] = segment
		pos++
	}
	put(cls, 0)
	for _, id := range a {
		put(id, 0)
	}
	put(sep, 0)
	if pair {
		for _, id := range b {
			put(id, 1)
		}
		put(sep, 1)
	}
	return inputIDs, attentionMask, tokenTypeIDs
}

// SplitWords splits text on whitespace and returns non-empty words.
func SplitWords(text string) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}
	return words
}

// HashString returns a deterministic non-negative hash for use as a simple token ID.
func HashString(s string) int {
	var h uint32
	for _, c := range s {
		h = 31*h + uint32(c)
	}
	return int(h & 0x7fffffff)
}

package embedding

import "go.uber.org/zap"

// LoadTokenizer returns the HuggingFace tokenizer at path, or the built-in hash
// tokenizer when path is empty or cannot be loaded.
func LoadTokenizer(path string, logger *zap.Logger) Tokenizer {
	if path == "" {
		return &SimpleTokenizer{}
	}
	tk, err := NewHFTokenizer(path)
	if err != nil {
		if logger != nil {
			logger.Warn("falling back to simple tokenizer", zap.String("path", path), zap.Error(err))
		}
		return &SimpleTokenizer{}
	}
	return tk
}

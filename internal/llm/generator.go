// Package llm wraps the answer-generation services behind a single blocking call.
package llm

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/hyperjump/astrali/pkg/utils"
	"github.com/openai/openai-go"
	"go.uber.org/zap"
)

// Generator produces one complete response for a prompt. Implementations never stream.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// QuotaMessage is returned in place of a response when the provider reports exhausted quota.
const QuotaMessage = "Error: API quota exceeded. Check your provider billing or retry later."

const errorPrefix = "Error: "

// maxErrorChars bounds the provider error text surfaced to the user.
const maxErrorChars = 100

// SafeGenerate calls g once under timeout and turns any failure into response text.
// Callers always get something to show; the error detail goes to the log.
func SafeGenerate(ctx context.Context, g Generator, prompt string, timeout time.Duration, logger *zap.Logger) string {
	logger = utils.OrNop(logger)
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	start := time.Now()
	resp, err := g.Generate(ctx, prompt)
	if err != nil {
		logger.Warn("generation failed", zap.Error(err), zap.Duration("elapsed", time.Since(start)))
		return ErrorText(err)
	}
	logger.Debug("generation done", zap.Int("prompt_chars", len(prompt)), zap.Int("response_chars", len(resp)),
		zap.Duration("elapsed", time.Since(start)))
	return resp
}

// ErrorText renders a generation error as user-facing text.
func ErrorText(err error) string {
	if IsQuotaError(err) {
		return QuotaMessage
	}
	return errorPrefix + utils.Head(err.Error(), maxErrorChars)
}

// IsQuotaError reports whether err looks like a rate-limit or quota failure.
func IsQuotaError(err error) bool {
	if err == nil || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var apiErr *openai.Error
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusTooManyRequests {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "429") || strings.Contains(msg, "exceeded") || strings.Contains(msg, "quota")
}

// GeneratorFunc adapts a function to Generator.
type GeneratorFunc func(ctx context.Context, prompt string) (string, error)

// Generate calls f.
func (f GeneratorFunc) Generate(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

var errEmptyResponse = errors.New("empty response")

// Package cli provides output helpers for the astrali command.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/hyperjump/astrali/internal/models"
	"github.com/hyperjump/astrali/pkg/utils"
)

// OutputFormat is the format for command output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// ParseOutputFormat accepts "text", "json" or "" (text).
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch OutputFormat(strings.ToLower(strings.TrimSpace(s))) {
	case "", OutputText:
		return OutputText, nil
	case OutputJSON:
		return OutputJSON, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want text or json)", s)
	}
}

const sourcePreview = 160

// WriteAnswer writes an answer to w in the given format.
func WriteAnswer(w io.Writer, ans *models.QueryAnswer, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, ans)
	}
	fmt.Fprintf(w, "\n%s\n\n", strings.TrimSpace(ans.Response))
	if len(ans.Tickers) > 0 {
		fmt.Fprintf(w, "Tickers: %s\n", strings.Join(ans.Tickers, ", "))
	}
	if len(ans.Sources) == 0 {
		return nil
	}
	fmt.Fprintln(w, "Sources:")
	for i, s := range ans.Sources {
		fmt.Fprintf(w, "  [%d] %s (score %.4f, distance %.4f)\n", i+1, sourceLabel(s), s.RerankScore, s.Distance)
		fmt.Fprintf(w, "      %s\n", utils.Truncate(strings.Join(strings.Fields(s.Text), " "), sourcePreview))
	}
	return nil
}

func sourceLabel(s models.Source) string {
	switch s.Kind {
	case models.KindMarket:
		return fmt.Sprintf("%s %s %s", s.Ticker, s.Period, s.Label)
	default:
		return fmt.Sprintf("Page %d", s.Page)
	}
}

// WriteSessions writes session records to w in the given format.
func WriteSessions(w io.Writer, sessions []*models.Session, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, sessions)
	}
	if len(sessions) == 0 {
		fmt.Fprintln(w, "No sessions.")
		return nil
	}
	for _, s := range sessions {
		subject := s.Name
		if s.Kind == models.SessionMarket {
			subject = fmt.Sprintf("%s (%d months)", strings.Join(s.Tickers, ","), s.PeriodMonths)
		}
		fmt.Fprintf(w, "%s  %-8s  %-10s  %4d chunks  %s\n", s.ID, s.Kind, s.State, s.Chunks, subject)
		if s.Error != "" {
			fmt.Fprintf(w, "    error: %s\n", TruncateWords(s.Error, 24))
		}
	}
	return nil
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// TruncateWords returns up to maxWords from the space-separated string.
func TruncateWords(s string, maxWords int) string {
	words := strings.Fields(s)
	if len(words) <= maxWords {
		return s
	}
	return strings.Join(words[:maxWords], " ") + "..."
}

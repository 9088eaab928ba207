// Package storage defines the persistence interface for sessions and their question history.
package storage

import (
	"context"
	"errors"

	"github.com/hyperjump/astrali/internal/models"
)

// ErrNotFound is returned when a session does not exist.
var ErrNotFound = errors.New("not found")

// Storage defines session and history persistence operations.
type Storage interface {
	// Session operations
	SaveSession(ctx context.Context, s *models.Session) error
	GetSession(ctx context.Context, id string) (*models.Session, error)
	ListSessions(ctx context.Context, offset, limit int) ([]*models.Session, error)
	DeleteSession(ctx context.Context, id string) error

	// History operations
	AppendHistory(ctx context.Context, e *models.HistoryEntry) error
	ListHistory(ctx context.Context, sessionID string) ([]*models.HistoryEntry, error)

	// Stats
	CountSessions(ctx context.Context) (int64, error)
	CountHistory(ctx context.Context) (int64, error)

	Close() error
}

// Package session keeps the live pipelines behind the HTTP API and the inbox watcher,
// and mirrors their lifecycle and question history into storage.
package session

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hyperjump/astrali/internal/models"
	"github.com/hyperjump/astrali/internal/pipeline"
	"github.com/hyperjump/astrali/internal/storage"
	"github.com/hyperjump/astrali/pkg/utils"
	"go.uber.org/zap"
)

var (
	// ErrNotFound means no session has the ID, live or stored.
	ErrNotFound = errors.New("session not found")
	// ErrEvicted means the session is stored but its pipeline is no longer resident.
	ErrEvicted = errors.New("session evicted")
	// ErrWrongKind means a document operation was sent to a market session or vice versa.
	ErrWrongKind = errors.New("wrong session kind")
	// ErrTooManySessions means every slot is held by a session that is still working.
	ErrTooManySessions = errors.New("too many active sessions")
)

// Session is one live pipeline. Exactly one of Document or Market is set.
type Session struct {
	ID        string
	Kind      models.SessionKind
	CreatedAt time.Time
	Document  *pipeline.DocumentPipeline
	Market    *pipeline.MarketPipeline
}

// State returns the pipeline state.
func (s *Session) State() pipeline.State {
	if s.Document != nil {
		return s.Document.State()
	}
	return s.Market.State()
}

// Record snapshots the session for listing and storage.
func (s *Session) Record() *models.Session {
	rec := &models.Session{
		ID:        s.ID,
		Kind:      s.Kind,
		CreatedAt: s.CreatedAt,
	}
	var err error
	switch {
	case s.Document != nil:
		rec.Name = s.Document.Name()
		rec.SourceID = s.Document.SourceID()
		rec.Pages = s.Document.Pages()
		rec.Chunks = s.Document.ChunkCount()
		rec.State = string(s.Document.State())
		rec.UpdatedAt = s.Document.UpdatedAt()
		err = s.Document.Err()
	case s.Market != nil:
		rec.Tickers = s.Market.LoadedTickers()
		if len(rec.Tickers) == 0 {
			rec.Tickers = s.Market.Tickers()
		}
		rec.PeriodMonths = s.Market.PeriodMonths()
		rec.Chunks = s.Market.ChunkCount()
		rec.State = string(s.Market.State())
		rec.UpdatedAt = s.Market.UpdatedAt()
		err = s.Market.Err()
	}
	if err != nil {
		rec.Error = err.Error()
	}
	return rec
}

func (s *Session) evictable() bool {
	st := s.State()
	return st == pipeline.StateReady || st == pipeline.StateFailed
}

// Manager owns the live sessions. At capacity the oldest finished session is evicted;
// its stored record and history remain.
type Manager struct {
	svc         *pipeline.Services
	settings    pipeline.Settings
	store       storage.Storage
	maxSessions int
	logger      *zap.Logger

	mu       sync.RWMutex
	sessions map[string]*Session
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(m *Manager) { m.logger = l }
}

// WithMaxSessions bounds the number of resident pipelines. Zero means unbounded.
func WithMaxSessions(n int) Option {
	return func(m *Manager) { m.maxSessions = n }
}

// WithStorage persists session records and history in store.
func WithStorage(store storage.Storage) Option {
	return func(m *Manager) { m.store = store }
}

// NewManager creates a manager whose pipelines share svc.
func NewManager(svc *pipeline.Services, settings pipeline.Settings, opts ...Option) *Manager {
	m := &Manager{
		svc:      svc,
		settings: settings,
		sessions: make(map[string]*Session),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.logger = utils.OrNop(m.logger)
	return m
}

// CreateDocument starts a document session and ingests data into it. The session is
// returned even when ingestion fails; it is then Failed and the error is returned too.
func (m *Manager) CreateDocument(ctx context.Context, name string, data []byte) (*Session, error) {
	id := uuid.NewString()
	s := &Session{
		ID:        id,
		Kind:      models.SessionDocument,
		CreatedAt: time.Now(),
		Document:  pipeline.NewDocumentPipeline(id, m.svc, m.settings, pipeline.WithLogger(m.logger)),
	}
	if err := m.register(ctx, s); err != nil {
		return nil, err
	}
	err := s.Document.Ingest(ctx, name, data)
	m.persist(ctx, s)
	return s, err
}

// CreateMarket starts a market session and loads tickers into it. Like CreateDocument,
// the session is returned alongside any load error.
func (m *Manager) CreateMarket(ctx context.Context, tickers []string, periodMonths int) (*Session, error) {
	id := uuid.NewString()
	s := &Session{
		ID:        id,
		Kind:      models.SessionMarket,
		CreatedAt: time.Now(),
		Market:    pipeline.NewMarketPipeline(id, m.svc, m.settings, pipeline.WithLogger(m.logger)),
	}
	if err := m.register(ctx, s); err != nil {
		return nil, err
	}
	err := s.Market.Load(ctx, tickers, periodMonths)
	m.persist(ctx, s)
	return s, err
}

func (m *Manager) register(ctx context.Context, s *Session) error {
	m.mu.Lock()
	var evicted *Session
	if m.maxSessions > 0 && len(m.sessions) >= m.maxSessions {
		evicted = m.oldestFinishedLocked()
		if evicted == nil {
			m.mu.Unlock()
			return ErrTooManySessions
		}
		delete(m.sessions, evicted.ID)
	}
	m.sessions[s.ID] = s
	m.mu.Unlock()

	if evicted != nil {
		m.logger.Info("session evicted", zap.String("session", evicted.ID))
	}
	m.persist(ctx, s)
	return nil
}

func (m *Manager) oldestFinishedLocked() *Session {
	var oldest *Session
	for _, s := range m.sessions {
		if !s.evictable() {
			continue
		}
		if oldest == nil || s.CreatedAt.Before(oldest.CreatedAt) {
			oldest = s
		}
	}
	return oldest
}

func (m *Manager) persist(ctx context.Context, s *Session) {
	if m.store == nil {
		return
	}
	if err := m.store.SaveSession(ctx, s.Record()); err != nil {
		m.logger.Warn("failed to save session", zap.String("session", s.ID), zap.Error(err))
	}
}

// Get returns a live session.
func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	return s, ok
}

// Lookup returns the record of a live or stored session.
func (m *Manager) Lookup(ctx context.Context, id string) (*models.Session, error) {
	if s, ok := m.Get(id); ok {
		return s.Record(), nil
	}
	return m.stored(ctx, id)
}

func (m *Manager) stored(ctx context.Context, id string) (*models.Session, error) {
	if m.store == nil {
		return nil, ErrNotFound
	}
	rec, err := m.store.GetSession(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrNotFound
	}
	return rec, err
}

// FindBySource returns the newest live document session built from sourceID that did not fail.
func (m *Manager) FindBySource(sourceID string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var found *Session
	for _, s := range m.sessions {
		if s.Document == nil || s.Document.SourceID() != sourceID || s.State() == pipeline.StateFailed {
			continue
		}
		if found == nil || s.CreatedAt.After(found.CreatedAt) {
			found = s
		}
	}
	return found, found != nil
}

// List returns records of the live sessions, newest first.
func (m *Manager) List() []*models.Session {
	m.mu.RLock()
	out := make([]*models.Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		out = append(out, s.Record())
	}
	m.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Delete drops a session from memory and storage.
func (m *Manager) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	_, live := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()

	if m.store != nil {
		err := m.store.DeleteSession(ctx, id)
		if err != nil && !errors.Is(err, storage.ErrNotFound) {
			return err
		}
		if errors.Is(err, storage.ErrNotFound) && !live {
			return ErrNotFound
		}
		return nil
	}
	if !live {
		return ErrNotFound
	}
	return nil
}

// resolve returns the live session for id or the reason there is none.
func (m *Manager) resolve(ctx context.Context, id string, kind models.SessionKind) (*Session, error) {
	s, ok := m.Get(id)
	if !ok {
		if _, err := m.stored(ctx, id); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %s", ErrEvicted, id)
	}
	if s.Kind != kind {
		return nil, fmt.Errorf("%w: %s is a %s session", ErrWrongKind, id, s.Kind)
	}
	return s, nil
}

// AnswerDocument answers a question on a document session and records it in history.
func (m *Manager) AnswerDocument(ctx context.Context, id, question string, opts pipeline.AnswerOptions) (*models.QueryAnswer, error) {
	s, err := m.resolve(ctx, id, models.SessionDocument)
	if err != nil {
		return nil, err
	}
	ans, err := s.Document.Answer(ctx, question, opts)
	if err != nil {
		return nil, err
	}
	m.record(ctx, id, ans)
	return ans, nil
}

// AnswerMarket answers a question on a market session and records it in history.
func (m *Manager) AnswerMarket(ctx context.Context, id, question string, opts pipeline.MarketAnswerOptions) (*models.QueryAnswer, error) {
	s, err := m.resolve(ctx, id, models.SessionMarket)
	if err != nil {
		return nil, err
	}
	ans, err := s.Market.Answer(ctx, question, opts)
	if err != nil {
		return nil, err
	}
	m.record(ctx, id, ans)
	return ans, nil
}

func (m *Manager) record(ctx context.Context, id string, ans *models.QueryAnswer) {
	if m.store == nil {
		return
	}
	entry := &models.HistoryEntry{
		SessionID: id,
		Question:  ans.Question,
		Response:  ans.Response,
		Context:   ans.Context,
		Sources:   ans.Sources,
		Tickers:   ans.Tickers,
	}
	if err := m.store.AppendHistory(ctx, entry); err != nil {
		m.logger.Warn("failed to record history", zap.String("session", id), zap.Error(err))
	}
}

// History returns the answered questions of a live or stored session, oldest first.
func (m *Manager) History(ctx context.Context, id string) ([]*models.HistoryEntry, error) {
	if _, err := m.Lookup(ctx, id); err != nil {
		return nil, err
	}
	if m.store == nil {
		return []*models.HistoryEntry{}, nil
	}
	entries, err := m.store.ListHistory(ctx, id)
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []*models.HistoryEntry{}
	}
	return entries, nil
}

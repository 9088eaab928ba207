package storage

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/hyperjump/astrali/internal/models"
)

func openTestStore(t *testing.T) *SQLiteStorage {
	t.Helper()
	store, err := NewSQLiteStorage(filepath.Join(t.TempDir(), "nested", "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSQLiteStorage_Sessions(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	sess := &models.Session{
		ID:    "s1",
		Kind:  models.SessionDocument,
		Name:  "report.pdf",
		State: "processing",
	}
	if err := store.SaveSession(ctx, sess); err != nil {
		t.Fatal(err)
	}
	if sess.CreatedAt.IsZero() || sess.UpdatedAt.IsZero() {
		t.Error("timestamps should be set")
	}
	created := sess.CreatedAt

	sess.State = "ready"
	sess.Pages = 2
	sess.Chunks = 5
	sess.SourceID = "sha256:abc"
	if err := store.SaveSession(ctx, sess); err != nil {
		t.Fatal(err)
	}
	got, err := store.GetSession(ctx, "s1")
	if err != nil {
		t.Fatal(err)
	}
	if got.State != "ready" || got.Chunks != 5 || got.Pages != 2 || got.Kind != models.SessionDocument {
		t.Errorf("got %+v", got)
	}
	if !got.CreatedAt.Equal(created) {
		t.Errorf("CreatedAt changed: %v -> %v", created, got.CreatedAt)
	}

	mkt := &models.Session{ID: "s2", Kind: models.SessionMarket, Tickers: []string{"AAPL", "MSFT"}, PeriodMonths: 6, State: "ready"}
	if err := store.SaveSession(ctx, mkt); err != nil {
		t.Fatal(err)
	}
	got, err = store.GetSession(ctx, "s2")
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got.Tickers, []string{"AAPL", "MSFT"}) || got.PeriodMonths != 6 {
		t.Errorf("market session: %+v", got)
	}

	list, err := store.ListSessions(ctx, 0, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 {
		t.Errorf("expected 2 sessions, got %d", len(list))
	}
	if n, _ := store.CountSessions(ctx); n != 2 {
		t.Errorf("CountSessions = %d", n)
	}

	if err := store.DeleteSession(ctx, "s1"); err != nil {
		t.Fatal(err)
	}
	if _, err := store.GetSession(ctx, "s1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if err := store.DeleteSession(ctx, "s1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("second delete: %v", err)
	}
}

func TestSQLiteStorage_History(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	if err := store.SaveSession(ctx, &models.Session{ID: "s1", Kind: models.SessionDocument, State: "ready"}); err != nil {
		t.Fatal(err)
	}
	first := &models.HistoryEntry{
		SessionID: "s1",
		Question:  "What was revenue?",
		Response:  "It rose [1](#page=2).",
		Context:   "[1] (Page 2)\nRevenue rose.",
		Sources:   []models.Source{{ChunkID: 3, Page: 2, Text: "Revenue rose.", RerankScore: 0.9}},
	}
	if err := store.AppendHistory(ctx, first); err != nil {
		t.Fatal(err)
	}
	if first.ID == 0 {
		t.Error("ID should be assigned")
	}
	if err := store.AppendHistory(ctx, &models.HistoryEntry{SessionID: "s1", Question: "Debt?", Response: "Fell."}); err != nil {
		t.Fatal(err)
	}

	entries, err := store.ListHistory(ctx, "s1")
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Question != "What was revenue?" || len(entries[0].Sources) != 1 || entries[0].Sources[0].Page != 2 {
		t.Errorf("first entry: %+v", entries[0])
	}
	if entries[0].Context != "[1] (Page 2)\nRevenue rose." {
		t.Errorf("first entry context = %q", entries[0].Context)
	}
	if entries[1].Context != "" {
		t.Errorf("second entry context = %q, want empty", entries[1].Context)
	}
	if n, _ := store.CountHistory(ctx); n != 2 {
		t.Errorf("CountHistory = %d", n)
	}

	if err := store.DeleteSession(ctx, "s1"); err != nil {
		t.Fatal(err)
	}
	entries, err = store.ListHistory(ctx, "s1")
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("history should cascade on delete, got %d entries", len(entries))
	}
}

func TestSQLiteStorage_HistoryNeedsSession(t *testing.T) {
	store := openTestStore(t)
	err := store.AppendHistory(context.Background(), &models.HistoryEntry{SessionID: "ghost", Question: "q", Response: "r"})
	if err == nil {
		t.Error("expected foreign key error")
	}
}

func TestNewSQLiteStorage_AddsHistoryContextColumn(t *testing.T) {
	path := filepath.Join(t.TempDir(), "old.db")
	old, err := sql.Open("sqlite3", path)
	if err != nil {
		t.Fatal(err)
	}
	_, err = old.Exec(`
	CREATE TABLE sessions (id TEXT PRIMARY KEY, kind TEXT NOT NULL, name TEXT, source_id TEXT,
		tickers TEXT, period_months INTEGER, state TEXT NOT NULL, error TEXT, pages INTEGER,
		chunks INTEGER, created_at TIMESTAMP, updated_at TIMESTAMP);
	CREATE TABLE history (id INTEGER PRIMARY KEY AUTOINCREMENT, session_id TEXT NOT NULL,
		question TEXT NOT NULL, response TEXT NOT NULL, sources TEXT, tickers TEXT, created_at TIMESTAMP);
	INSERT INTO sessions (id, kind, state) VALUES ('s1', 'document', 'ready');
	INSERT INTO history (session_id, question, response, sources, tickers, created_at)
		VALUES ('s1', 'q0', 'r0', '[]', '[]', '2024-01-02 03:04:05');
	`)
	if err != nil {
		t.Fatal(err)
	}
	_ = old.Close()

	store, err := NewSQLiteStorage(path)
	if err != nil {
		t.Fatalf("reopen old database: %v", err)
	}
	defer store.Close()
	ctx := context.Background()
	if err := store.AppendHistory(ctx, &models.HistoryEntry{SessionID: "s1", Question: "q1", Response: "r1", Context: "ctx"}); err != nil {
		t.Fatal(err)
	}
	entries, err := store.ListHistory(ctx, "s1")
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 || entries[0].Context != "" || entries[1].Context != "ctx" {
		t.Errorf("entries = %+v", entries)
	}
}

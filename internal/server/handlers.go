package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hyperjump/astrali/internal/config"
	"github.com/hyperjump/astrali/internal/extract"
	"github.com/hyperjump/astrali/internal/models"
	"github.com/hyperjump/astrali/internal/pipeline"
	"github.com/hyperjump/astrali/internal/session"
	"github.com/hyperjump/astrali/internal/storage"
	"go.uber.org/zap"
)

type answerRequest struct {
	Question    string   `json:"question"`
	Tickers     []string `json:"tickers,omitempty"`
	TopRetrieve int      `json:"top_retrieve"`
	TopRerank   int      `json:"top_rerank"`
}

type answerResponse struct {
	SessionID string `json:"session_id"`
	*models.QueryAnswer
	ResponseHTML string `json:"response_html,omitempty"`
}

type marketRequest struct {
	Tickers      []string `json:"tickers"`
	PeriodMonths int      `json:"period_months"`
}

type failedSessionResponse struct {
	Error   string          `json:"error"`
	Session *models.Session `json:"session"`
}

func (s *Server) handleCreateDocument(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, int64(s.config.Server.MaxUploadMB)<<20)
	file, header, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.respondError(w, http.StatusRequestEntityTooLarge, "file too large")
			return
		}
		s.respondError(w, http.StatusBadRequest, "multipart field \"file\" is required")
		return
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !extract.Supported(ext) {
		s.respondError(w, http.StatusUnsupportedMediaType, "unsupported file type "+ext)
		return
	}
	data, err := io.ReadAll(file)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "failed to read upload")
		return
	}
	if len(data) == 0 {
		s.respondError(w, http.StatusBadRequest, "empty file")
		return
	}

	s.logger.Debug("create document session", zap.String("file", header.Filename), zap.Int("bytes", len(data)))
	sess, err := s.sessions.CreateDocument(r.Context(), header.Filename, data)
	s.respondCreated(w, sess, err)
}

func (s *Server) handleCreateMarket(w http.ResponseWriter, r *http.Request) {
	var req marketRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.respondError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}
	if len(req.Tickers) == 0 {
		req.Tickers = s.config.Market.Tickers
	}
	if req.PeriodMonths <= 0 {
		req.PeriodMonths = s.config.Market.PeriodMonths
	}

	s.logger.Debug("create market session", zap.Strings("tickers", req.Tickers), zap.Int("months", req.PeriodMonths))
	sess, err := s.sessions.CreateMarket(r.Context(), req.Tickers, req.PeriodMonths)
	s.respondCreated(w, sess, err)
}

// respondCreated answers a session creation: 201 when Ready, 422 with the Failed session
// when the build failed.
func (s *Server) respondCreated(w http.ResponseWriter, sess *session.Session, err error) {
	switch {
	case errors.Is(err, session.ErrTooManySessions):
		s.respondError(w, http.StatusServiceUnavailable, err.Error())
	case err != nil && sess != nil:
		s.logger.Warn("session build failed", zap.String("session", sess.ID), zap.Error(err))
		s.respondJSON(w, http.StatusUnprocessableEntity, failedSessionResponse{Error: err.Error(), Session: sess.Record()})
	case err != nil:
		s.logger.Error("session create failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
	default:
		s.respondJSON(w, http.StatusCreated, sess.Record())
	}
}

func (s *Server) decodeAnswer(w http.ResponseWriter, r *http.Request) (*answerRequest, bool) {
	var req answerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return nil, false
	}
	req.Question = strings.TrimSpace(req.Question)
	if req.Question == "" {
		s.respondError(w, http.StatusBadRequest, "question is required")
		return nil, false
	}
	if req.TopRetrieve <= 0 {
		req.TopRetrieve = s.config.Pipeline.TopRetrieve
	}
	if req.TopRerank <= 0 {
		req.TopRerank = s.config.Pipeline.TopRerank
	}
	return &req, true
}

func (s *Server) handleAnswerDocument(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	req, ok := s.decodeAnswer(w, r)
	if !ok {
		return
	}
	s.logger.Debug("document question", zap.String("session", id), zap.String("question", req.Question))
	ans, err := s.sessions.AnswerDocument(r.Context(), id, req.Question,
		pipeline.AnswerOptions{TopRetrieve: req.TopRetrieve, TopRerank: req.TopRerank})
	if err != nil {
		s.respondSessionError(w, id, err)
		return
	}
	s.respondAnswer(w, r, id, ans)
}

func (s *Server) handleAnswerMarket(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	req, ok := s.decodeAnswer(w, r)
	if !ok {
		return
	}
	s.logger.Debug("market question", zap.String("session", id), zap.String("question", req.Question),
		zap.Strings("tickers", req.Tickers))
	ans, err := s.sessions.AnswerMarket(r.Context(), id, req.Question,
		pipeline.MarketAnswerOptions{Tickers: req.Tickers, TopRetrieve: req.TopRetrieve, TopRerank: req.TopRerank})
	if err != nil {
		s.respondSessionError(w, id, err)
		return
	}
	s.respondAnswer(w, r, id, ans)
}

func (s *Server) respondAnswer(w http.ResponseWriter, r *http.Request, id string, ans *models.QueryAnswer) {
	resp := answerResponse{SessionID: id, QueryAnswer: ans}
	if r.URL.Query().Get("format") == "html" {
		var buf bytes.Buffer
		if err := s.markdown.Convert([]byte(ans.Response), &buf); err != nil {
			s.logger.Warn("markdown rendering failed", zap.Error(err))
		} else {
			resp.ResponseHTML = buf.String()
		}
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) respondSessionError(w http.ResponseWriter, id string, err error) {
	switch {
	case errors.Is(err, session.ErrNotFound):
		s.respondError(w, http.StatusNotFound, "session not found")
	case errors.Is(err, session.ErrEvicted):
		s.respondError(w, http.StatusGone, "session evicted")
	case errors.Is(err, session.ErrWrongKind):
		s.respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, pipeline.ErrNotReady):
		state := ""
		if sess, ok := s.sessions.Get(id); ok {
			state = string(sess.State())
		}
		s.respondJSON(w, http.StatusConflict, map[string]string{"error": "not ready", "state": state})
	default:
		s.logger.Error("answer failed", zap.String("session", id), zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
	}
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("stored") != "true" || s.storage == nil {
		s.respondJSON(w, http.StatusOK, map[string]interface{}{"sessions": s.sessions.List()})
		return
	}
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	list, err := s.storage.ListSessions(r.Context(), offset, limit)
	if err != nil {
		s.logger.Error("list sessions failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if list == nil {
		list = []*models.Session{}
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"sessions": list})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	rec, err := s.sessions.Lookup(r.Context(), id)
	if err != nil {
		s.respondSessionError(w, id, err)
		return
	}
	s.respondJSON(w, http.StatusOK, rec)
}

func (s *Server) handleSessionHistory(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	entries, err := s.sessions.History(r.Context(), id)
	if err != nil {
		s.respondSessionError(w, id, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"session_id": id, "history": entries})
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.logger.Debug("delete session request", zap.String("session", id))
	if err := s.sessions.Delete(r.Context(), id); err != nil {
		s.respondSessionError(w, id, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	resp := map[string]interface{}{
		"live_sessions":  s.sessions.Len(),
		"uptime_seconds": int64(time.Since(s.started).Seconds()),
	}
	if s.storage != nil {
		stored, err := s.storage.CountSessions(ctx)
		if err != nil {
			s.logger.Error("status: count sessions failed", zap.Error(err))
			s.respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
		questions, err := s.storage.CountHistory(ctx)
		if err != nil {
			s.logger.Error("status: count history failed", zap.Error(err))
			s.respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
		resp["stored_sessions"] = stored
		resp["questions_answered"] = questions
	}
	if s.embedding != nil {
		resp["embedding"] = map[string]interface{}{"model": s.embedding.Model(), "loaded": s.embedding.Loaded()}
	}

	cfg := s.config
	resp["config"] = map[string]interface{}{
		"embedding_provider":  cfg.Embedding.Provider,
		"reranker_provider":   cfg.Reranker.Provider,
		"generation_provider": cfg.Generation.Provider,
		"generation_model":    cfg.Generation.Model,
		"market_source":       cfg.Market.Source,
		"chunk_size":          cfg.Pipeline.ChunkSize,
		"chunk_overlap":       cfg.Pipeline.ChunkOverlap,
		"max_sessions":        cfg.Server.MaxSessions,
	}
	if usage, total, err := storage.DiskUsage(cfg.Storage.DatabasePath, cfg.Storage.EmbeddingCachePath); err == nil {
		resp["disk_usage"] = usage
		resp["disk_usage_bytes"] = total
	}
	if s.inbox != nil {
		resp["inbox_directories"] = s.inbox.Directories()
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleInboxList(w http.ResponseWriter, r *http.Request) {
	if s.inbox == nil {
		s.respondError(w, http.StatusNotImplemented, "inbox not enabled")
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"directories": s.inbox.Directories()})
}

type inboxAddRequest struct {
	Path string `json:"path"`
	Sync *bool  `json:"sync,omitempty"`
}

func (s *Server) handleInboxAdd(w http.ResponseWriter, r *http.Request) {
	if s.inbox == nil {
		s.respondError(w, http.StatusNotImplemented, "inbox not enabled")
		return
	}
	var req inboxAddRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Path == "" {
		s.respondError(w, http.StatusBadRequest, "path is required")
		return
	}
	abs, err := filepath.Abs(req.Path)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid path")
		return
	}
	info, err := os.Stat(abs)
	if err != nil {
		if os.IsNotExist(err) {
			s.respondError(w, http.StatusNotFound, "directory not found")
			return
		}
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !info.IsDir() {
		s.respondError(w, http.StatusBadRequest, "path is not a directory")
		return
	}
	syncExisting := req.Sync == nil || *req.Sync
	if err := s.inbox.AddDirectory(abs, syncExisting); err != nil {
		s.logger.Error("inbox add directory failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.persistInbox()
	s.respondJSON(w, http.StatusCreated, map[string]string{"path": abs, "status": "added"})
}

func (s *Server) handleInboxRemove(w http.ResponseWriter, r *http.Request) {
	if s.inbox == nil {
		s.respondError(w, http.StatusNotImplemented, "inbox not enabled")
		return
	}
	path := r.URL.Query().Get("path")
	if path == "" {
		var body struct {
			Path string `json:"path"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err == nil {
			path = body.Path
		}
	}
	if path == "" {
		s.respondError(w, http.StatusBadRequest, "path is required (query or body)")
		return
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid path")
		return
	}
	if err := s.inbox.RemoveDirectory(abs); err != nil {
		s.logger.Error("inbox remove directory failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.persistInbox()
	s.respondJSON(w, http.StatusOK, map[string]string{"path": abs, "status": "removed"})
}

// persistInbox writes the current inbox roots back to the config file.
func (s *Server) persistInbox() {
	if s.configPath == "" {
		return
	}
	s.configMu.Lock()
	defer s.configMu.Unlock()
	s.config.Watch.Directories = s.inbox.Directories()
	if err := config.Save(s.configPath, s.config); err != nil {
		s.logger.Warn("failed to persist inbox config", zap.Error(err))
	}
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}

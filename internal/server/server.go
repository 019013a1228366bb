// Package server implements the docdesk capability gateway: text extraction,
// translation, and question answering over HTTP, plus the translation history API.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/raphaelgruber/docdesk/internal/history"
	"github.com/raphaelgruber/docdesk/internal/llm"
	"github.com/raphaelgruber/docdesk/internal/metrics"
	"github.com/raphaelgruber/docdesk/internal/models"
	"github.com/raphaelgruber/docdesk/internal/parser"
	"golang.org/x/sync/errgroup"
)

const (
	maxBodyBytes    = 25 << 20
	shutdownTimeout = 10 * time.Second

	defaultSourceLanguage = "English"
	defaultTargetLanguage = "Hindi"
)

// Extractor turns an uploaded data URL into plain text.
type Extractor interface {
	Extract(ctx context.Context, payload string) (string, error)
}

// Translator translates text between languages given by display name.
type Translator interface {
	Translate(ctx context.Context, text, sourceLanguage, targetLanguage string) (string, error)
}

// Answerer answers a question against a document's text.
type Answerer interface {
	AnswerQuestion(ctx context.Context, question, documentText string) (string, error)
}

// Deps are the capability backends and stores the gateway serves.
type Deps struct {
	Extractor  Extractor
	Translator Translator
	Answerer   Answerer
	History    history.Store
	Metrics    *metrics.Collector
	Logger     *slog.Logger
}

// Server is the capability gateway.
type Server struct {
	deps    Deps
	hub     *Hub
	handler http.Handler
	logger  *slog.Logger
}

// New creates the gateway and registers its routes.
func New(deps Deps) *Server {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Metrics == nil {
		deps.Metrics = metrics.NewCollector()
	}

	s := &Server{
		deps:   deps,
		hub:    NewHub(deps.Logger),
		logger: deps.Logger,
	}

	mux := http.NewServeMux()
	for _, path := range []string{"/ocr", "/extract-text"} {
		mux.HandleFunc("POST "+path, s.handleExtract)
	}
	for _, path := range []string{"/translate", "/translate-text"} {
		mux.HandleFunc("POST "+path, s.handleTranslate)
	}
	for _, path := range []string{"/rag-qa", "/answer-question"} {
		mux.HandleFunc("POST "+path, s.handleAnswer)
	}
	mux.HandleFunc("GET /history", s.handleHistoryList)
	mux.HandleFunc("POST /history", s.handleHistoryAppend)
	mux.HandleFunc("DELETE /history/{id}", s.handleHistoryDelete)
	mux.Handle("GET /history/events", s.hub)
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "ok")
	})
	mux.HandleFunc("GET /stats", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, s.deps.Metrics.Snapshot())
	})

	s.handler = CORSMiddleware(LoggingMiddleware(s.logger, mux))
	return s
}

// Handler returns the gateway's HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Hub returns the history event hub.
func (s *Server) Hub() *Hub {
	return s.hub
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      s.handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 3 * time.Minute, // Long for LLM responses
		IdleTimeout:  120 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Info("gateway listening", "addr", addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		return s.hub.Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		s.logger.Info("shutting down gateway")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// =============================================================================
// CAPABILITIES
// =============================================================================

func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	var req models.ExtractRequest
	if !s.decode(w, r, &req) {
		return
	}
	payload := req.Payload()
	if payload == "" {
		writeError(w, http.StatusBadRequest, "No image or document provided")
		return
	}

	var text string
	err := s.deps.Metrics.Time(metrics.OpExtract, func() error {
		var err error
		text, err = s.deps.Extractor.Extract(r.Context(), payload)
		return err
	})
	if err != nil {
		s.fail(w, "extract", err)
		return
	}
	writeJSON(w, http.StatusOK, models.ExtractResponse{Text: text})
}

func (s *Server) handleTranslate(w http.ResponseWriter, r *http.Request) {
	var req models.TranslateRequest
	if !s.decode(w, r, &req) {
		return
	}
	if models.IsBlank(req.Text) {
		writeError(w, http.StatusBadRequest, "Text is required")
		return
	}
	source := orDefault(req.SourceLanguage, defaultSourceLanguage)
	target := orDefault(req.TargetLanguage, defaultTargetLanguage)

	var translated string
	err := s.deps.Metrics.Time(metrics.OpTranslate, func() error {
		var err error
		translated, err = s.deps.Translator.Translate(r.Context(), req.Text, source, target)
		return err
	})
	if err != nil {
		s.fail(w, "translate", err)
		return
	}
	writeJSON(w, http.StatusOK, models.TranslateResponse{TranslatedText: translated})
}

func (s *Server) handleAnswer(w http.ResponseWriter, r *http.Request) {
	var req models.AnswerRequest
	if !s.decode(w, r, &req) {
		return
	}
	if models.IsBlank(req.Question) {
		writeError(w, http.StatusBadRequest, "Question is required")
		return
	}
	if models.IsBlank(req.DocumentText) {
		writeError(w, http.StatusBadRequest, "Document text is required")
		return
	}

	var answer string
	err := s.deps.Metrics.Time(metrics.OpAnswer, func() error {
		var err error
		answer, err = s.deps.Answerer.AnswerQuestion(r.Context(), req.Question, req.DocumentText)
		return err
	})
	if err != nil {
		s.fail(w, "answer", err)
		return
	}
	writeJSON(w, http.StatusOK, models.AnswerResponse{Answer: answer})
}

// =============================================================================
// HISTORY
// =============================================================================

func (s *Server) handleHistoryList(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "limit must be an integer")
			return
		}
		limit = n
	}

	var records []models.TranslationRecord
	err := s.deps.Metrics.Time(metrics.OpHistory, func() error {
		var err error
		records, err = s.deps.History.List(r.Context(), limit)
		return err
	})
	if err != nil {
		s.fail(w, "history list", err)
		return
	}
	writeJSON(w, http.StatusOK, models.HistoryListResponse{Records: records})
}

func (s *Server) handleHistoryAppend(w http.ResponseWriter, r *http.Request) {
	var rec models.TranslationRecord
	if !s.decode(w, r, &rec) {
		return
	}
	if models.IsBlank(rec.SourceText) || models.IsBlank(rec.TranslatedText) {
		writeError(w, http.StatusBadRequest, "source_text and translated_text are required")
		return
	}

	var saved models.TranslationRecord
	err := s.deps.Metrics.Time(metrics.OpHistory, func() error {
		var err error
		saved, err = s.deps.History.Append(r.Context(), rec)
		return err
	})
	if err != nil {
		s.fail(w, "history append", err)
		return
	}

	s.hub.Publish(models.HistoryEventAppended, saved)
	writeJSON(w, http.StatusCreated, saved)
}

func (s *Server) handleHistoryDelete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	err := s.deps.Metrics.Time(metrics.OpHistory, func() error {
		return s.deps.History.Delete(r.Context(), id)
	})
	if err != nil {
		s.fail(w, "history delete", err)
		return
	}

	s.hub.Publish(models.HistoryEventDeleted, models.TranslationRecord{ID: id})
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// HELPERS
// =============================================================================

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(v); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, http.StatusRequestEntityTooLarge, "Request body too large")
			return false
		}
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return false
	}
	return true
}

// fail maps a capability or store error to a status and writes it.
func (s *Server) fail(w http.ResponseWriter, op string, err error) {
	status, msg := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error(op+" failed", "error", err)
	} else {
		s.logger.Info(op+" rejected", "status", status, "error", err)
	}
	writeError(w, status, msg)
}

func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, parser.ErrInvalidPayload), errors.Is(err, parser.ErrUnsupportedType):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, parser.ErrNoVision):
		return http.StatusNotImplemented, err.Error()
	case errors.Is(err, parser.ErrUnreadablePDF):
		return http.StatusUnprocessableEntity, err.Error()
	case errors.Is(err, history.ErrNotFound):
		return http.StatusNotFound, "Translation not found"
	case errors.Is(err, history.ErrDuplicateID):
		return http.StatusConflict, "Translation already exists"
	case errors.Is(err, llm.ErrFatalAPI):
		return http.StatusBadGateway, "Model provider rejected the request"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "Model provider timed out"
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, models.ErrorResponse{Error: msg})
}

func orDefault(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}

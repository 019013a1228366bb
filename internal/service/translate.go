package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/raphaelgruber/docdesk/internal/history"
	"github.com/raphaelgruber/docdesk/internal/models"
)

// historyAppendTimeout bounds the background history write.
const historyAppendTimeout = 30 * time.Second

// Translator translates text between languages given by display name.
type Translator interface {
	Translate(ctx context.Context, text, sourceLanguage, targetLanguage string) (string, error)
}

// TranslationService runs single-shot translations and records them in history.
type TranslationService struct {
	translator Translator
	history    history.Store
	logger     *slog.Logger
	wg         sync.WaitGroup
}

// NewTranslationService creates a translation engine. store may be nil to skip history.
func NewTranslationService(translator Translator, store history.Store, logger *slog.Logger) *TranslationService {
	if logger == nil {
		logger = slog.Default()
	}
	return &TranslationService{translator: translator, history: store, logger: logger}
}

// Translate translates req and stores the result as the session's last translation.
//
// A successful translation is appended to history in the background; a history failure
// is logged and never turns the translation into a failure. A failed translation leaves
// the previous result and history untouched.
func (s *TranslationService) Translate(ctx context.Context, session *TranslationSession, req models.TranslationRequest) (string, error) {
	if models.IsBlank(req.SourceText) {
		return "", &ValidationError{Field: "source_text", Message: "Please enter some text first"}
	}

	sourceName := SourceLanguageName(req.SourceLanguageCode)
	targetName := TargetLanguageName(req.TargetLanguageCode)

	translated, err := s.translator.Translate(ctx, req.SourceText, sourceName, targetName)
	if err != nil {
		s.logger.Warn("translation failed", "source", req.SourceLanguageCode, "target", req.TargetLanguageCode, "error", err)
		return "", err
	}

	if session != nil {
		session.setLast(translated)
	}
	s.record(ctx, models.NewTranslationRecord(req, translated))
	return translated, nil
}

// record appends rec to history without blocking the caller.
func (s *TranslationService) record(ctx context.Context, rec models.TranslationRecord) {
	if s.history == nil {
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		appendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), historyAppendTimeout)
		defer cancel()

		saved, err := s.history.Append(appendCtx, rec)
		if err != nil {
			s.logger.Warn("history append failed",
				"source", rec.SourceLanguageCode, "target", rec.TargetLanguageCode, "error", err)
			return
		}
		s.logger.Debug("translation recorded", "id", saved.ID)
	}()
}

// Wait blocks until all pending history appends have finished.
func (s *TranslationService) Wait() {
	s.wg.Wait()
}

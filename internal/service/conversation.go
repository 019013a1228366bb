package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/raphaelgruber/docdesk/internal/models"
)

// Answerer answers a question against a document's full text.
type Answerer interface {
	AnswerQuestion(ctx context.Context, question, documentText string) (string, error)
}

// ConversationService runs question answering over an ingested document.
type ConversationService struct {
	answerer Answerer
	logger   *slog.Logger
}

// NewConversationService creates a conversation engine using answerer.
func NewConversationService(answerer Answerer, logger *slog.Logger) *ConversationService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ConversationService{answerer: answerer, logger: logger}
}

// Ask submits question about the session's document.
//
// The question is appended to the transcript before the gateway is called and the
// pending input is cleared. On success the answer is appended after it. On failure the
// question is removed again and the error is returned. Blank questions and documents
// without extracted text are rejected before anything is sent.
func (s *ConversationService) Ask(ctx context.Context, session *Session, question string) (string, error) {
	session.mu.Lock()
	doc := session.doc
	transcript := session.transcript
	gen := session.generation
	if !doc.Ready() {
		session.mu.Unlock()
		return "", &ValidationError{Field: "document", Message: "Please upload a document first"}
	}
	if models.IsBlank(question) {
		session.mu.Unlock()
		return "", &ValidationError{Field: "question", Message: "Please enter a question"}
	}

	tag, err := transcript.begin()
	if err != nil {
		session.mu.Unlock()
		return "", err
	}
	transcript.append(tag, models.Turn{Role: models.RoleUser, Content: question})
	session.pendingQuestion = ""
	documentText := doc.Text()
	session.mu.Unlock()

	defer transcript.finish()

	start := time.Now()
	answer, err := s.answerer.AnswerQuestion(ctx, question, documentText)
	duration := time.Since(start)

	if err != nil {
		transcript.rollback(tag)
		s.logger.Warn("question failed", "filename", doc.Filename, "duration_ms", duration.Milliseconds(), "error", err)
		return "", err
	}

	session.mu.Lock()
	stale := session.generation != gen
	session.mu.Unlock()
	if stale {
		s.logger.Info("discarding answer for replaced document", "filename", doc.Filename)
		return "", ErrStaleDocument
	}

	transcript.append(tag, models.Turn{Role: models.RoleAssistant, Content: answer})
	s.logger.Debug("question answered", "filename", doc.Filename, "answer_len", len(answer), "duration_ms", duration.Milliseconds())
	return answer, nil
}

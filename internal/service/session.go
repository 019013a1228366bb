// Package service orchestrates document ingestion, question answering, and translation
// against the capability gateway.
package service

import (
	"sync"

	"github.com/raphaelgruber/docdesk/internal/models"
)

// Session holds the state of one document conversation: the current document and its
// transcript. Selecting a new file replaces both.
type Session struct {
	mu              sync.Mutex
	doc             *models.Document
	transcript      *Transcript
	generation      uint64
	ingesting       bool
	pendingQuestion string
}

// NewSession creates a session with no document.
func NewSession() *Session {
	return &Session{transcript: NewTranscript()}
}

// SelectFile makes a new, not-yet-ingested document current.
// The previous document and its transcript are discarded, and any ingestion or question
// still pending for them will be ignored when it completes.
func (s *Session) SelectFile(filename string, data []byte) *models.Document {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.doc = models.NewDocument(filename, data)
	s.transcript = NewTranscript()
	s.generation++
	s.ingesting = false
	s.pendingQuestion = ""
	return s.doc
}

// Document returns the current document, or nil.
func (s *Session) Document() *models.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc
}

// Transcript returns the current transcript.
func (s *Session) Transcript() *Transcript {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.transcript
}

// Ingesting reports whether the current document is being processed.
func (s *Session) Ingesting() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ingesting
}

// SetPendingQuestion stores the question being typed.
func (s *Session) SetPendingQuestion(q string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pendingQuestion = q
}

// PendingQuestion returns the question being typed.
func (s *Session) PendingQuestion() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pendingQuestion
}

// TranslationSession holds the last successful translation shown to the user.
type TranslationSession struct {
	mu   sync.Mutex
	last string
}

// NewTranslationSession creates an empty translation session.
func NewTranslationSession() *TranslationSession {
	return &TranslationSession{}
}

// LastResult returns the last successful translation, or "".
func (t *TranslationSession) LastResult() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.last
}

func (t *TranslationSession) setLast(text string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.last = text
}

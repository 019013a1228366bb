package service

import (
	"context"
	"log/slog"
	"time"
)

// Extractor turns an uploaded file into plain text.
type Extractor interface {
	ExtractText(ctx context.Context, filename string, data []byte) (string, error)
}

// IngestService runs the document ingestion stage.
type IngestService struct {
	extractor Extractor
	logger    *slog.Logger
}

// NewIngestService creates an ingestion stage using extractor.
func NewIngestService(extractor Extractor, logger *slog.Logger) *IngestService {
	if logger == nil {
		logger = slog.Default()
	}
	return &IngestService{extractor: extractor, logger: logger}
}

// Ingest extracts the text of the session's current document with exactly one gateway call.
//
// On success the text is stored on the document, which becomes ready for questions.
// On failure the document stays not ready and an *IngestionError wraps the cause.
// If another file was selected while the call was pending, the result is dropped and
// ErrStaleDocument is returned.
func (s *IngestService) Ingest(ctx context.Context, session *Session) (string, error) {
	session.mu.Lock()
	doc := session.doc
	switch {
	case doc == nil:
		session.mu.Unlock()
		return "", &ValidationError{Field: "file", Message: "Please select a file first"}
	case len(doc.RawFile) == 0:
		session.mu.Unlock()
		return "", &ValidationError{Field: "file", Message: "The selected file is empty"}
	case doc.Ready():
		session.mu.Unlock()
		return "", &ValidationError{Field: "file", Message: "Document is already processed; select it again to reprocess"}
	case session.ingesting:
		session.mu.Unlock()
		return "", ErrIngestInFlight
	}
	session.ingesting = true
	gen := session.generation
	session.mu.Unlock()

	s.logger.Debug("extracting document text", "filename", doc.Filename, "bytes", len(doc.RawFile))
	start := time.Now()
	text, err := s.extractor.ExtractText(ctx, doc.Filename, doc.RawFile)
	duration := time.Since(start)

	session.mu.Lock()
	defer session.mu.Unlock()

	if session.generation != gen {
		s.logger.Info("discarding stale extraction", "filename", doc.Filename, "duration_ms", duration.Milliseconds())
		return "", ErrStaleDocument
	}
	session.ingesting = false

	if err != nil {
		s.logger.Warn("document extraction failed", "filename", doc.Filename, "duration_ms", duration.Milliseconds(), "error", err)
		return "", &IngestionError{Filename: doc.Filename, Err: err}
	}

	doc.ExtractedText = &text
	s.logger.Info("document ready", "filename", doc.Filename, "text_len", len(text), "duration_ms", duration.Milliseconds())
	return text, nil
}

package service

import (
	"errors"
	"fmt"

	"github.com/raphaelgruber/docdesk/internal/client"
	"github.com/raphaelgruber/docdesk/internal/history"
)

var (
	// ErrAskInFlight rejects a question while another is awaiting its answer on the same transcript.
	ErrAskInFlight = errors.New("a question is already awaiting an answer")

	// ErrIngestInFlight rejects a second ingestion of the same document while one is pending.
	ErrIngestInFlight = errors.New("document is already being processed")

	// ErrStaleDocument means a different document was selected while the call was pending;
	// its result was discarded.
	ErrStaleDocument = errors.New("document changed while the request was pending")
)

// ValidationError is a local precondition failure. It never reaches the network.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IngestionError reports a failed extraction for Filename.
// Err is a *client.TransportError or *client.RemoteRejection.
type IngestionError struct {
	Filename string
	Err      error
}

func (e *IngestionError) Error() string {
	return fmt.Sprintf("ingest %s: %v", e.Filename, e.Err)
}

func (e *IngestionError) Unwrap() error {
	return e.Err
}

// User-facing actions, used to pick notification titles.
const (
	ActionIngest        = "ingest"
	ActionAsk           = "ask"
	ActionTranslate     = "translate"
	ActionHistoryList   = "history-list"
	ActionHistoryDelete = "history-delete"
)

var failureTitles = map[string]string{
	ActionIngest:        "Processing failed",
	ActionAsk:           "Failed to get answer",
	ActionTranslate:     "Translation failed",
	ActionHistoryList:   "Failed to load history",
	ActionHistoryDelete: "Delete failed",
}

var validationTitles = map[string]string{
	"document":    "No document uploaded",
	"question":    "No question entered",
	"source_text": "No text to translate",
	"file":        "No file selected",
}

// FailureTitle returns the notification title for a failed action.
func FailureTitle(action string, err error) string {
	var ve *ValidationError
	if errors.As(err, &ve) {
		if title, ok := validationTitles[ve.Field]; ok {
			return title
		}
	}
	if title, ok := failureTitles[action]; ok {
		return title
	}
	return "Something went wrong"
}

// UserMessage renders err as the single end-user notification text.
// Transport failures and remote rejections read the same way; the rejection's reason is
// used when the gateway supplied one.
func UserMessage(err error) string {
	var (
		ve *ValidationError
		ie *IngestionError
		rr *client.RemoteRejection
		te *client.TransportError
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &ve):
		return ve.Message
	case errors.As(err, &ie):
		return client.GenericMessage(client.OpExtract)
	case errors.As(err, &rr):
		return rr.Reason
	case errors.As(err, &te):
		return client.GenericMessage(te.Op)
	case errors.Is(err, ErrAskInFlight):
		return "Please wait for the current answer"
	case errors.Is(err, ErrIngestInFlight):
		return "Processing document..."
	case errors.Is(err, ErrStaleDocument):
		return "A different document was selected"
	case errors.Is(err, history.ErrNotFound):
		return "Translation is no longer in history"
	default:
		return "Something went wrong"
	}
}

package client

import (
	"errors"
	"fmt"
)

// Capability operation names, used in errors and logs.
const (
	OpExtract   = "extract-text"
	OpTranslate = "translate-text"
	OpAnswer    = "answer-question"
	OpHistory   = "history"
	OpStats     = "stats"
)

// genericMessages are shown when a failed response carries no error field.
var genericMessages = map[string]string{
	OpExtract:   "Failed to process document",
	OpTranslate: "Translation failed",
	OpAnswer:    "Failed to get answer",
	OpHistory:   "History request failed",
	OpStats:     "Failed to load server stats",
}

// GenericMessage returns the fallback failure text for op.
func GenericMessage(op string) string {
	if msg, ok := genericMessages[op]; ok {
		return msg
	}
	return "Something went wrong"
}

// TransportError means the request never produced a response:
// network unreachable, timeout, or an unreadable body.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: transport: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// RemoteRejection means the gateway answered with a non-success status.
// Reason is the body's error field, or the generic message for Op when absent.
type RemoteRejection struct {
	Op     string
	Status int
	Reason string
}

func (e *RemoteRejection) Error() string {
	return fmt.Sprintf("%s: rejected (%d): %s", e.Op, e.Status, e.Reason)
}

// IsTransport reports whether err is a TransportError.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// IsRejection reports whether err is a RemoteRejection.
func IsRejection(err error) bool {
	var rr *RemoteRejection
	return errors.As(err, &rr)
}

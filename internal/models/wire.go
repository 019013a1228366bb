package models

// Wire payloads exchanged with the capability gateway.

// ExtractRequest carries an encoded file for text extraction.
// ImageBase64 is a data URL ("data:<mime>;base64,<payload>"); ImageOrDocument is accepted as an alias.
type ExtractRequest struct {
	ImageBase64     string `json:"imageBase64,omitempty"`
	ImageOrDocument string `json:"imageOrDocument,omitempty"`
}

// Payload returns whichever encoded field was set.
func (r ExtractRequest) Payload() string {
	if r.ImageBase64 != "" {
		return r.ImageBase64
	}
	return r.ImageOrDocument
}

type ExtractResponse struct {
	Text string `json:"text"`
}

// TranslateRequest uses display language names, not codes.
type TranslateRequest struct {
	Text           string  `json:"text"`
	SourceLanguage string  `json:"sourceLanguage"`
	TargetLanguage string  `json:"targetLanguage"`
	UserID         *string `json:"userId"`
}

type TranslateResponse struct {
	TranslatedText string `json:"translatedText"`
}

// AnswerRequest always carries the full document text; prior turns are never sent.
type AnswerRequest struct {
	Question     string `json:"question"`
	DocumentText string `json:"documentText"`
}

type AnswerResponse struct {
	Answer string `json:"answer"`
}

// ErrorResponse is the failure body of every gateway endpoint.
type ErrorResponse struct {
	Error string `json:"error,omitempty"`
}

// HistoryListResponse is returned by GET /history.
type HistoryListResponse struct {
	Records []TranslationRecord `json:"records"`
}

// History event types published on the history stream.
const (
	HistoryEventAppended = "com.docdesk.history.appended"
	HistoryEventDeleted  = "com.docdesk.history.deleted"
)

// HistoryEvent is a decoded change notification from the history stream.
type HistoryEvent struct {
	ID     string
	Type   string
	Record TranslationRecord
}

// Package models defines the data structures shared by the docdesk client, services, and stores.
package models

import "strings"

// Role identifies the author of a conversation turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Document is a user-selected file and, once ingestion succeeds, its extracted text.
type Document struct {
	Filename      string
	RawFile       []byte
	ExtractedText *string
}

// NewDocument creates a document that has not been ingested yet.
func NewDocument(filename string, raw []byte) *Document {
	return &Document{Filename: filename, RawFile: raw}
}

// Ready reports whether text extraction has completed for this document.
func (d *Document) Ready() bool {
	return d != nil && d.ExtractedText != nil
}

// Text returns the extracted text, or "" if the document is not ready.
func (d *Document) Text() string {
	if !d.Ready() {
		return ""
	}
	return *d.ExtractedText
}

// Turn is a single question or answer in a transcript.
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// IsBlank reports whether s has no non-whitespace characters.
func IsBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}

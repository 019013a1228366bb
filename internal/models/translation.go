package models

import "time"

// TranslationRequest is a single translate call. It is never persisted itself.
type TranslationRequest struct {
	SourceText         string
	SourceLanguageCode string
	TargetLanguageCode string
}

// TranslationRecord is a completed translation kept in history.
// Records are immutable once stored; only deletion changes the store.
type TranslationRecord struct {
	ID                 string    `json:"id"`
	SourceText         string    `json:"source_text"`
	TranslatedText     string    `json:"translated_text"`
	SourceLanguageCode string    `json:"source_language"`
	TargetLanguageCode string    `json:"target_language"`
	CreatedAt          time.Time `json:"created_at"`
}

// NewTranslationRecord builds an unsaved record from a request and its result.
// The store assigns ID and CreatedAt on append.
func NewTranslationRecord(req TranslationRequest, translated string) TranslationRecord {
	return TranslationRecord{
		SourceText:         req.SourceText,
		TranslatedText:     translated,
		SourceLanguageCode: req.SourceLanguageCode,
		TargetLanguageCode: req.TargetLanguageCode,
	}
}

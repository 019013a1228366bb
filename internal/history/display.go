package history

import (
	"time"
	"unicode/utf8"

	"github.com/raphaelgruber/docdesk/internal/models"
)

const (
	// DisplayLimit is the number of characters shown before a field is cut.
	DisplayLimit = 150
	// Ellipsis marks a truncated field.
	Ellipsis = "..."
	// DateLayout renders record timestamps, e.g. "Mar 4, 2025, 02:07 PM".
	DateLayout = "Jan 2, 2006, 03:04 PM"
)

// DisplayRecord is a TranslationRecord prepared for presentation.
// The stored record is never modified.
type DisplayRecord struct {
	ID             string
	SourceText     string
	TranslatedText string
	SourceLanguage string
	TargetLanguage string
	Date           string
}

// Truncate returns s cut to DisplayLimit characters plus Ellipsis when it is longer.
// Characters are counted as runes so non-Latin scripts are not split mid-character.
func Truncate(s string) string {
	if utf8.RuneCountInString(s) <= DisplayLimit {
		return s
	}
	runes := []rune(s)
	return string(runes[:DisplayLimit]) + Ellipsis
}

// FormatDate renders t in the local zone using DateLayout.
func FormatDate(t time.Time) string {
	return t.Local().Format(DateLayout)
}

// Display prepares rec for presentation.
func Display(rec models.TranslationRecord) DisplayRecord {
	return DisplayRecord{
		ID:             rec.ID,
		SourceText:     Truncate(rec.SourceText),
		TranslatedText: Truncate(rec.TranslatedText),
		SourceLanguage: rec.SourceLanguageCode,
		TargetLanguage: rec.TargetLanguageCode,
		Date:           FormatDate(rec.CreatedAt),
	}
}

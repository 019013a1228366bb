package history

import (
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/raphaelgruber/docdesk/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestTruncate(t *testing.T) {
	tests := []struct {
		name      string
		in        string
		wantRunes int
		wantCut   bool
	}{
		{"empty", "", 0, false},
		{"short", "Hello", 5, false},
		{"exactly limit", strings.Repeat("x", 150), 150, false},
		{"one over", strings.Repeat("x", 151), 150 + len(Ellipsis), true},
		{"long", strings.Repeat("x", 200), 150 + len(Ellipsis), true},
		{"devanagari", strings.Repeat("न", 160), 150 + len(Ellipsis), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Truncate(tt.in)
			assert.Equal(t, tt.wantRunes, utf8.RuneCountInString(got))
			assert.Equal(t, tt.wantCut, strings.HasSuffix(got, Ellipsis) && got != tt.in)
			assert.True(t, utf8.ValidString(got))
		})
	}
}

func TestDisplayLeavesRecordIntact(t *testing.T) {
	source := strings.Repeat("s", 200)
	rec := models.TranslationRecord{
		ID:                 "rec-1",
		SourceText:         source,
		TranslatedText:     "short",
		SourceLanguageCode: "en",
		TargetLanguageCode: "hi",
		CreatedAt:          time.Date(2025, 3, 4, 14, 7, 0, 0, time.Local),
	}

	d := Display(rec)

	assert.Equal(t, strings.Repeat("s", 150)+Ellipsis, d.SourceText)
	assert.Equal(t, "short", d.TranslatedText)
	assert.Equal(t, "Mar 4, 2025, 02:07 PM", d.Date)
	assert.Len(t, rec.SourceText, 200, "stored value must stay untruncated")
}

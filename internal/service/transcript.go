package service

import (
	"slices"
	"sync"

	"github.com/raphaelgruber/docdesk/internal/models"
)

// Transcript is the ordered question/answer log for one document.
//
// Turns appended on behalf of a pending question carry that question's tag. When the
// question fails, exactly the turns with its tag are removed, so the transcript reads as
// if the question had never been asked. Only one question may be pending at a time.
type Transcript struct {
	mu      sync.Mutex
	entries []transcriptEntry
	nextTag uint64
	pending bool
}

type transcriptEntry struct {
	turn models.Turn
	tag  uint64
}

// NewTranscript creates an empty transcript.
func NewTranscript() *Transcript {
	return &Transcript{}
}

// Turns returns a copy of the transcript in order.
func (t *Transcript) Turns() []models.Turn {
	t.mu.Lock()
	defer t.mu.Unlock()

	turns := make([]models.Turn, len(t.entries))
	for i, e := range t.entries {
		turns[i] = e.turn
	}
	return turns
}

// Len returns the number of turns.
func (t *Transcript) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}

// Pending reports whether a question is awaiting its answer.
func (t *Transcript) Pending() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.pending
}

// begin reserves the transcript for one question and returns its tag.
func (t *Transcript) begin() (uint64, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.pending {
		return 0, ErrAskInFlight
	}
	t.pending = true
	t.nextTag++
	return t.nextTag, nil
}

func (t *Transcript) append(tag uint64, turn models.Turn) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries = append(t.entries, transcriptEntry{turn: turn, tag: tag})
}

// rollback removes every turn appended under tag.
func (t *Transcript) rollback(tag uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries = slices.DeleteFunc(t.entries, func(e transcriptEntry) bool {
		return e.tag == tag
	})
}

// finish releases the reservation taken by begin.
func (t *Transcript) finish() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.pending = false
}

// Package history persists completed translations and renders them for display.
package history

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/raphaelgruber/docdesk/internal/models"
)

// DefaultListLimit caps List when the caller does not provide a limit.
const DefaultListLimit = 50

var (
	// ErrNotFound indicates the record id is not in the store.
	ErrNotFound = errors.New("translation record not found")

	// ErrDuplicateID indicates an append carried an id the store already holds.
	ErrDuplicateID = errors.New("translation record id already exists")
)

// Store is an append-only log of translations with list and delete.
// List returns records ordered by CreatedAt descending.
type Store interface {
	Append(ctx context.Context, rec models.TranslationRecord) (models.TranslationRecord, error)
	List(ctx context.Context, limit int) ([]models.TranslationRecord, error)
	Delete(ctx context.Context, id string) error
}

// EffectiveLimit returns limit, or DefaultListLimit when limit is not positive.
func EffectiveLimit(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}
	return limit
}

// Prepare assigns an id and creation time to rec if it does not carry them.
func Prepare(rec models.TranslationRecord) models.TranslationRecord {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	return rec
}

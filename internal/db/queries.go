package db

import (
	"context"
	"fmt"
	"time"

	"github.com/raphaelgruber/docdesk/internal/history"
	"github.com/raphaelgruber/docdesk/internal/models"
	"github.com/surrealdb/surrealdb.go"
	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"
)

// translationRow is the stored shape of a TranslationRecord.
type translationRow struct {
	ID                 surrealmodels.RecordID `json:"id"`
	SourceText         string                 `json:"source_text"`
	TranslatedText     string                 `json:"translated_text"`
	SourceLanguageCode string                 `json:"source_language"`
	TargetLanguageCode string                 `json:"target_language"`
	CreatedAt          time.Time              `json:"created_at"`
}

func (r translationRow) record() (models.TranslationRecord, error) {
	id, err := recordKey(r.ID)
	if err != nil {
		return models.TranslationRecord{}, err
	}
	return models.TranslationRecord{
		ID:                 id,
		SourceText:         r.SourceText,
		TranslatedText:     r.TranslatedText,
		SourceLanguageCode: r.SourceLanguageCode,
		TargetLanguageCode: r.TargetLanguageCode,
		CreatedAt:          r.CreatedAt.UTC(),
	}, nil
}

// Append creates the record. CREATE fails on an existing id, which surfaces as
// history.ErrDuplicateID.
func (c *Client) Append(ctx context.Context, rec models.TranslationRecord) (models.TranslationRecord, error) {
	rec = history.Prepare(rec)

	results, err := surrealdb.Query[[]translationRow](ctx, c.db, `
		CREATE type::record("translation", $id) SET
			source_text = $source_text,
			translated_text = $translated_text,
			source_language = $source_language,
			target_language = $target_language,
			created_at = <datetime>$created_at
	`, map[string]any{
		"id":              rec.ID,
		"source_text":     rec.SourceText,
		"translated_text": rec.TranslatedText,
		"source_language": rec.SourceLanguageCode,
		"target_language": rec.TargetLanguageCode,
		"created_at":      rec.CreatedAt.Format(time.RFC3339Nano),
	})
	if err != nil {
		return models.TranslationRecord{}, fmt.Errorf("append translation: %w", wrapQueryError(err))
	}

	if results == nil || len(*results) == 0 || len((*results)[0].Result) == 0 {
		return rec, nil
	}
	return (*results)[0].Result[0].record()
}

// List returns up to limit records, newest first.
func (c *Client) List(ctx context.Context, limit int) ([]models.TranslationRecord, error) {
	results, err := surrealdb.Query[[]translationRow](ctx, c.db, `
		SELECT * FROM translation ORDER BY created_at DESC LIMIT $limit
	`, map[string]any{"limit": history.EffectiveLimit(limit)})
	if err != nil {
		return nil, fmt.Errorf("list translations: %w", wrapQueryError(err))
	}

	records := []models.TranslationRecord{}
	if results == nil || len(*results) == 0 {
		return records, nil
	}
	for _, row := range (*results)[0].Result {
		rec, err := row.record()
		if err != nil {
			return nil, fmt.Errorf("list translations: %w", err)
		}
		records = append(records, rec)
	}
	return records, nil
}

// Delete removes the record with id. Unknown ids return history.ErrNotFound.
func (c *Client) Delete(ctx context.Context, id string) error {
	// RETURN BEFORE yields the deleted rows, so an empty result means nothing matched
	results, err := surrealdb.Query[[]translationRow](ctx, c.db, `
		DELETE type::record("translation", $id) RETURN BEFORE
	`, map[string]any{"id": id})
	if err != nil {
		return fmt.Errorf("delete translation: %w", wrapQueryError(err))
	}

	if results == nil || len(*results) == 0 || len((*results)[0].Result) == 0 {
		return fmt.Errorf("%w: %s", history.ErrNotFound, id)
	}
	return nil
}

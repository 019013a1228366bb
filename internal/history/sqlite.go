package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"
	"github.com/raphaelgruber/docdesk/internal/models"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS translation_history (
	id TEXT PRIMARY KEY,
	source_text TEXT NOT NULL,
	translated_text TEXT NOT NULL,
	source_language TEXT NOT NULL,
	target_language TEXT NOT NULL,
	created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_translation_history_created ON translation_history(created_at DESC)`

// SQLiteStore persists history in a local SQLite database.
type SQLiteStore struct {
	conn *sql.DB
}

// OpenSQLite opens (or creates) the database at path and runs migrations.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	conn, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// SQLite works best with a single connection
	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)

	s := &SQLiteStore{conn: conn}
	if err := s.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	for _, stmt := range strings.Split(sqliteSchema, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := s.conn.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.conn.Close()
}

func (s *SQLiteStore) Append(ctx context.Context, rec models.TranslationRecord) (models.TranslationRecord, error) {
	rec = Prepare(rec)

	_, err := s.conn.ExecContext(ctx, `
		INSERT INTO translation_history
			(id, source_text, translated_text, source_language, target_language, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.SourceText, rec.TranslatedText,
		rec.SourceLanguageCode, rec.TargetLanguageCode, rec.CreatedAt.UnixNano(),
	)
	if err != nil {
		if isUniqueConstraintErr(err) {
			return models.TranslationRecord{}, ErrDuplicateID
		}
		return models.TranslationRecord{}, fmt.Errorf("insert translation: %w", err)
	}
	return rec, nil
}

func (s *SQLiteStore) List(ctx context.Context, limit int) ([]models.TranslationRecord, error) {
	rows, err := s.conn.QueryContext(ctx, `
		SELECT id, source_text, translated_text, source_language, target_language, created_at
		FROM translation_history
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?`, EffectiveLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("list translations: %w", err)
	}
	defer rows.Close()

	records := []models.TranslationRecord{}
	for rows.Next() {
		var rec models.TranslationRecord
		var created int64
		if err := rows.Scan(&rec.ID, &rec.SourceText, &rec.TranslatedText,
			&rec.SourceLanguageCode, &rec.TargetLanguageCode, &created); err != nil {
			return nil, fmt.Errorf("scan translation: %w", err)
		}
		rec.CreatedAt = time.Unix(0, created).UTC()
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate translations: %w", err)
	}
	return records, nil
}

func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	res, err := s.conn.ExecContext(ctx, `DELETE FROM translation_history WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete translation: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete translation: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// isUniqueConstraintErr reports whether err is a primary key or unique index
// violation. NOT NULL and CHECK failures are not duplicates.
func isUniqueConstraintErr(err error) bool {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	return sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey ||
		sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
}

package index

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"

	"github.com/starford/docsync/internal/apperr"
)

// Upsert inserts a document or updates the mutable fields of the existing
// row with the same key. The internal id is assigned once, on insert.
// has_summary can be raised by an upsert but never cleared.
func (db *DB) Upsert(ctx context.Context, doc Document) (bool, error) {
	now := time.Now().UTC()
	id := doc.ID
	if id == "" {
		id = uuid.NewString()
	}

	var got string
	err := db.conn.QueryRowContext(ctx, `
		INSERT INTO documents (id, key, title, category, subcategory, content, has_summary, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			title       = excluded.title,
			category    = excluded.category,
			subcategory = excluded.subcategory,
			content     = excluded.content,
			has_summary = has_summary OR excluded.has_summary,
			updated_at  = excluded.updated_at
		RETURNING id
	`, id, doc.Key, doc.Title, doc.Category, doc.Subcategory, doc.Content, doc.HasSummary, now, now).Scan(&got)
	if err != nil {
		return false, fmt.Errorf("index: upsert %s: %w", doc.Key, wrapSQLErr(err))
	}
	return got == id, nil
}

// Delete removes the document with the given key. Deleting a missing key is
// not an error.
func (db *DB) Delete(ctx context.Context, key string) error {
	if _, err := db.conn.ExecContext(ctx, `DELETE FROM documents WHERE key = ?`, key); err != nil {
		return fmt.Errorf("index: delete %s: %w", key, wrapSQLErr(err))
	}
	return nil
}

// Keys returns every stored key in ascending order.
func (db *DB) Keys(ctx context.Context) ([]string, error) {
	rows, err := db.conn.QueryContext(ctx, `SELECT key FROM documents ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("index: keys: %w", wrapSQLErr(err))
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		out = append(out, k)
	}
	return out, rows.Err()
}

// Get returns the document stored under key or apperr.ErrNotFound.
func (db *DB) Get(ctx context.Context, key string) (*Document, error) {
	var d Document
	err := db.conn.QueryRowContext(ctx, `
		SELECT id, key, title, category, subcategory, content, has_summary, created_at, updated_at
		FROM documents WHERE key = ?
	`, key).Scan(&d.ID, &d.Key, &d.Title, &d.Category, &d.Subcategory, &d.Content, &d.HasSummary, &d.CreatedAt, &d.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("index: get %s: %w", key, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("index: get %s: %w", key, wrapSQLErr(err))
	}
	return &d, nil
}

// SetHasSummary updates the summary flag of an existing document.
func (db *DB) SetHasSummary(ctx context.Context, key string, hasSummary bool) error {
	res, err := db.conn.ExecContext(ctx, `UPDATE documents SET has_summary = ? WHERE key = ?`, hasSummary, key)
	if err != nil {
		return fmt.Errorf("index: set has_summary %s: %w", key, wrapSQLErr(err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("index: set has_summary %s: %w", key, err)
	}
	if n == 0 {
		return fmt.Errorf("index: set has_summary %s: %w", key, apperr.ErrNotFound)
	}
	return nil
}

// wrapSQLErr marks errors that mean the database itself is gone.
func wrapSQLErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) ||
		strings.Contains(err.Error(), "sql: database is closed") {
		return fmt.Errorf("%w: %w", apperr.ErrStoreUnavailable, err)
	}
	var se sqlite3.Error
	if errors.As(err, &se) {
		switch se.Code {
		case sqlite3.ErrCantOpen, sqlite3.ErrIoErr, sqlite3.ErrCorrupt, sqlite3.ErrNotADB:
			return fmt.Errorf("%w: %w", apperr.ErrStoreUnavailable, err)
		}
	}
	return err
}

/*
Package sqlite provides a SQLite-backed implementation of the document
store port.

PURPOSE:
  Persists partition documents in a single table: one row per
  (collection, document, field), where a field is a record id and its
  value is the record's JSON payload. SetMerge and DeleteField map to
  row upsert and row delete, so merging fields never clobbers siblings.

SCHEMA:
  documents(collection, doc_id, field_id, value, updated_at)
  PRIMARY KEY (collection, doc_id, field_id)

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) for better concurrency:
  - Multiple readers don't block
  - Single writer at a time
  - Better crash recovery

ERRORS:
  All driver failures surface wrapped as storage errors; a missing
  document is generic.ErrNotFound. No retries happen here.

USAGE:
  docs, err := sqlite.New("./data/venue.db")
  if err != nil {
      log.Fatal(err)
  }
  defer docs.Close()

  store := generic.NewRecordStore(docs)

SEE ALSO:
  - generic/store.go: Port definition and record mapping
  - generic/store/memory.go: In-memory implementation for testing
  - store/pebble: Embedded key-value alternative
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/warp/venue-ledger/generic"
)

// Store implements generic.DocumentStore on SQLite.
type Store struct {
	db *sql.DB
}

// New opens (or creates) the database at dbPath. Use ":memory:" for an
// in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	-- One row per (collection, partition document, record id)
	CREATE TABLE IF NOT EXISTS documents (
		collection TEXT NOT NULL,
		doc_id     TEXT NOT NULL,
		field_id   TEXT NOT NULL,
		value      TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		PRIMARY KEY (collection, doc_id, field_id)
	);

	-- Partition enumeration (hot path for cumulative scans)
	CREATE INDEX IF NOT EXISTS idx_documents_collection_doc
		ON documents(collection, doc_id);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Get returns every field of a document, or generic.ErrNotFound when no
// row exists for it.
func (s *Store) Get(ctx context.Context, collection, docID string) (map[string]json.RawMessage, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT field_id, value FROM documents WHERE collection = ? AND doc_id = ?`,
		collection, docID)
	if err != nil {
		return nil, &generic.StorageError{Op: "get", Cause: err}
	}
	defer rows.Close()

	fields := map[string]json.RawMessage{}
	for rows.Next() {
		var fieldID, value string
		if err := rows.Scan(&fieldID, &value); err != nil {
			return nil, &generic.StorageError{Op: "get", Cause: err}
		}
		fields[fieldID] = json.RawMessage(value)
	}
	if err := rows.Err(); err != nil {
		return nil, &generic.StorageError{Op: "get", Cause: err}
	}
	if len(fields) == 0 {
		return nil, generic.ErrNotFound
	}
	return fields, nil
}

// SetMerge upserts the named fields, leaving sibling fields untouched.
// All fields of one call are written in a single transaction.
func (s *Store) SetMerge(ctx context.Context, collection, docID string, fields map[string]json.RawMessage) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return &generic.StorageError{Op: "setMerge", Cause: err}
	}
	defer tx.Rollback()

	now := time.Now().UTC().Format(time.RFC3339Nano)
	for fieldID, value := range fields {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO documents (collection, doc_id, field_id, value, updated_at)
			 VALUES (?, ?, ?, ?, ?)
			 ON CONFLICT(collection, doc_id, field_id)
			 DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
			collection, docID, fieldID, string(value), now)
		if err != nil {
			return &generic.StorageError{Op: "setMerge", Cause: err}
		}
	}
	if err := tx.Commit(); err != nil {
		return &generic.StorageError{Op: "setMerge", Cause: err}
	}
	return nil
}

// DeleteField removes one field. Absent rows are a no-op.
func (s *Store) DeleteField(ctx context.Context, collection, docID, field string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM documents WHERE collection = ? AND doc_id = ? AND field_id = ?`,
		collection, docID, field)
	if err != nil {
		return &generic.StorageError{Op: "deleteField", Cause: err}
	}
	return nil
}

// ListDocuments enumerates document ids in a collection.
func (s *Store) ListDocuments(ctx context.Context, collection string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT doc_id FROM documents WHERE collection = ? ORDER BY doc_id`,
		collection)
	if err != nil {
		return nil, &generic.StorageError{Op: "listDocuments", Cause: err}
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, &generic.StorageError{Op: "listDocuments", Cause: err}
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, &generic.StorageError{Op: "listDocuments", Cause: err}
	}
	return ids, nil
}

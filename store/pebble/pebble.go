/*
Package pebble provides an embedded key-value implementation of the
document store port on cockroachdb/pebble.

KEY LAYOUT:
  One key per (collection, document, field):

      <collection> 0x00 <docID> 0x00 <fieldID>  ->  JSON value

  Prefix iteration over "<collection>0x00<docID>0x00" yields a whole
  partition document; iteration over "<collection>0x00" enumerates the
  collection's documents.

  NUL is the separator because collection names, partition keys and
  record ids are all printable identifiers.
*/
package pebble

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"

	"github.com/cockroachdb/pebble"

	"github.com/warp/venue-ledger/generic"
)

const sep = byte(0)

// Store implements generic.DocumentStore on a Pebble database.
type Store struct {
	db *pebble.DB
}

// Open creates or opens a Pebble database in dataDir.
func Open(dataDir string) (*Store, error) {
	if dataDir == "" {
		return nil, errors.New("pebble: data directory is required")
	}
	db, err := pebble.Open(dataDir, &pebble.Options{})
	if err != nil {
		return nil, &generic.StorageError{Op: "open", Cause: err}
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func fieldKey(collection, docID, fieldID string) []byte {
	k := make([]byte, 0, len(collection)+len(docID)+len(fieldID)+2)
	k = append(k, collection...)
	k = append(k, sep)
	k = append(k, docID...)
	k = append(k, sep)
	k = append(k, fieldID...)
	return k
}

func docPrefix(collection, docID string) []byte {
	k := make([]byte, 0, len(collection)+len(docID)+2)
	k = append(k, collection...)
	k = append(k, sep)
	k = append(k, docID...)
	k = append(k, sep)
	return k
}

func collectionPrefix(collection string) []byte {
	k := make([]byte, 0, len(collection)+1)
	k = append(k, collection...)
	k = append(k, sep)
	return k
}

// prefixEnd returns the smallest key greater than every key with the prefix.
func prefixEnd(prefix []byte) []byte {
	end := append([]byte(nil), prefix...)
	for i := len(end) - 1; i >= 0; i-- {
		if end[i] < 0xff {
			end[i]++
			return end[:i+1]
		}
	}
	return nil // prefix is all 0xff: iterate to the end
}

// Get returns every field of a document, or generic.ErrNotFound.
func (s *Store) Get(ctx context.Context, collection, docID string) (map[string]json.RawMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	prefix := docPrefix(collection, docID)
	iter, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: prefix,
		UpperBound: prefixEnd(prefix),
	})
	if err != nil {
		return nil, &generic.StorageError{Op: "get", Cause: err}
	}
	defer iter.Close()

	fields := map[string]json.RawMessage{}
	for iter.First(); iter.Valid(); iter.Next() {
		fieldID := string(iter.Key()[len(prefix):])
		fields[fieldID] = append(json.RawMessage(nil), iter.Value()...)
	}
	if err := iter.Error(); err != nil {
		return nil, &generic.StorageError{Op: "get", Cause: err}
	}
	if len(fields) == 0 {
		return nil, generic.ErrNotFound
	}
	return fields, nil
}

// SetMerge writes the named fields in one batch, leaving siblings alone.
func (s *Store) SetMerge(ctx context.Context, collection, docID string, fields map[string]json.RawMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	batch := s.db.NewBatch()
	defer batch.Close()
	for fieldID, value := range fields {
		if err := batch.Set(fieldKey(collection, docID, fieldID), value, nil); err != nil {
			return &generic.StorageError{Op: "setMerge", Cause: err}
		}
	}
	if err := batch.Commit(pebble.Sync); err != nil {
		return &generic.StorageError{Op: "setMerge", Cause: err}
	}
	return nil
}

// DeleteField removes one field; deleting an absent key is a no-op in
// Pebble already.
func (s *Store) DeleteField(ctx context.Context, collection, docID, field string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.db.Delete(fieldKey(collection, docID, field), pebble.Sync); err != nil {
		return &generic.StorageError{Op: "deleteField", Cause: err}
	}
	return nil
}

// ListDocuments enumerates document ids by walking the collection prefix
// and skipping from one document's range to the next.
func (s *Store) ListDocuments(ctx context.Context, collection string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	prefix := collectionPrefix(collection)
	iter, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: prefix,
		UpperBound: prefixEnd(prefix),
	})
	if err != nil {
		return nil, &generic.StorageError{Op: "listDocuments", Cause: err}
	}
	defer iter.Close()

	var ids []string
	for valid := iter.First(); valid; {
		rest := iter.Key()[len(prefix):]
		i := bytes.IndexByte(rest, sep)
		if i < 0 {
			valid = iter.Next()
			continue
		}
		docID := string(rest[:i])
		ids = append(ids, docID)
		// Jump past this document's remaining fields.
		valid = iter.SeekGE(prefixEnd(docPrefix(collection, docID)))
	}
	if err := iter.Error(); err != nil {
		return nil, &generic.StorageError{Op: "listDocuments", Cause: err}
	}
	return ids, nil
}

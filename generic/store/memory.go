// Package store provides DocumentStore implementations.
package store

import (
	"context"
	"encoding/json"
	"sort"
	"sync"

	"github.com/warp/venue-ledger/generic"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu   sync.RWMutex
	docs map[docKey]map[string]json.RawMessage
}

type docKey struct {
	Collection string
	DocID      string
}

func NewMemory() *Memory {
	return &Memory{docs: make(map[docKey]map[string]json.RawMessage)}
}

func (m *Memory) Get(_ context.Context, collection, docID string) (map[string]json.RawMessage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	doc, ok := m.docs[docKey{Collection: collection, DocID: docID}]
	if !ok {
		return nil, generic.ErrNotFound
	}
	// Copy so callers can't mutate live state.
	out := make(map[string]json.RawMessage, len(doc))
	for k, v := range doc {
		out[k] = v
	}
	return out, nil
}

func (m *Memory) SetMerge(_ context.Context, collection, docID string, fields map[string]json.RawMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	k := docKey{Collection: collection, DocID: docID}
	doc, ok := m.docs[k]
	if !ok {
		doc = make(map[string]json.RawMessage, len(fields))
		m.docs[k] = doc
	}
	for name, blob := range fields {
		doc[name] = append(json.RawMessage(nil), blob...)
	}
	return nil
}

func (m *Memory) DeleteField(_ context.Context, collection, docID, field string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if doc, ok := m.docs[docKey{Collection: collection, DocID: docID}]; ok {
		delete(doc, field)
	}
	return nil
}

func (m *Memory) ListDocuments(_ context.Context, collection string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var ids []string
	for k := range m.docs {
		if k.Collection == collection {
			ids = append(ids, k.DocID)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

// =============================================================================
// FLAKY STORE - Wraps another store and fails selected operations; used to
// exercise partial-migration and transport-failure paths in tests.
// =============================================================================

type Flaky struct {
	generic.DocumentStore

	mu         sync.Mutex
	FailDelete error
	FailGet    error
}

func NewFlaky(inner generic.DocumentStore) *Flaky {
	return &Flaky{DocumentStore: inner}
}

func (f *Flaky) SetFailures(failGet, failDelete error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.FailGet = failGet
	f.FailDelete = failDelete
}

func (f *Flaky) Get(ctx context.Context, collection, docID string) (map[string]json.RawMessage, error) {
	f.mu.Lock()
	err := f.FailGet
	f.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return f.DocumentStore.Get(ctx, collection, docID)
}

func (f *Flaky) DeleteField(ctx context.Context, collection, docID, field string) error {
	f.mu.Lock()
	err := f.FailDelete
	f.mu.Unlock()
	if err != nil {
		return err
	}
	return f.DocumentStore.DeleteField(ctx, collection, docID, field)
}

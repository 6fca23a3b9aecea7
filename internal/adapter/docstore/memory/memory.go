// Package memory provides an in-memory document store for development and testing.
package memory

import (
	"context"
	"iter"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"user-rest-service/internal/adapter/docstore"
)

// Store is an in-memory implementation of docstore.Store.
// Documents are enumerated in id order.
type Store struct {
	mu          sync.RWMutex
	collections map[string]map[string]docstore.Document

	now   func() time.Time
	newID func() string
}

// New creates a new in-memory store.
func New() *Store {
	return &Store{
		collections: make(map[string]map[string]docstore.Document),
		now:         func() time.Time { return time.Now().UTC() },
		newID:       uuid.NewString,
	}
}

// Get returns a copy of the document stored at id.
func (s *Store) Get(ctx context.Context, collection, id string) (docstore.Document, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.collections[collection][id]
	if !ok {
		return nil, false, nil
	}
	return maps.Clone(doc), true, nil
}

// GetAll enumerates the documents present when ranging starts.
// Documents deleted while ranging are skipped.
func (s *Store) GetAll(ctx context.Context, collection string) iter.Seq2[docstore.Snapshot, error] {
	return docstore.SingleUse(func(yield func(docstore.Snapshot, error) bool) {
		s.mu.RLock()
		ids := slices.Sorted(maps.Keys(s.collections[collection]))
		s.mu.RUnlock()

		for _, id := range ids {
			if err := ctx.Err(); err != nil {
				yield(docstore.Snapshot{}, err)
				return
			}
			doc, ok, _ := s.Get(ctx, collection, id)
			if !ok {
				continue
			}
			if !yield(docstore.Snapshot{ID: id, Data: doc}, nil) {
				return
			}
		}
	})
}

// Create writes a fresh document at id, generating one when id is empty.
func (s *Store) Create(ctx context.Context, collection string, data docstore.Document, id string) (string, error) {
	if id == "" {
		id = s.newID()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.collection(collection)[id] = docstore.NewEntry(data, s.now())
	return id, nil
}

// Update merges data into the document at id, creating it if needed.
func (s *Store) Update(ctx context.Context, collection, id string, data docstore.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	docs := s.collection(collection)
	docs[id] = docstore.Merge(docs[id], docstore.MergeEntry(data, s.now()))
	return nil
}

// Delete removes the document at id.
func (s *Store) Delete(ctx context.Context, collection, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.collections[collection], id)
	return nil
}

// collection returns the documents of name, creating the map. Callers hold mu.
func (s *Store) collection(name string) map[string]docstore.Document {
	docs, ok := s.collections[name]
	if !ok {
		docs = make(map[string]docstore.Document)
		s.collections[name] = docs
	}
	return docs
}

// Package firestore provides the Cloud Firestore document store used in production.
package firestore

import (
	"context"
	"errors"
	"fmt"
	"iter"

	"cloud.google.com/go/firestore"
	"go.uber.org/zap"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"user-rest-service/internal/adapter/docstore"
)

// ErrInvalidPath is returned when a collection name or document id cannot
// address a Firestore document (for example because it contains a slash).
var ErrInvalidPath = errors.New("firestore: invalid document path")

// Store implements docstore.Store on a Firestore client.
// Timestamps are assigned by the Firestore server.
type Store struct {
	client *firestore.Client
	log    *zap.Logger
}

// New creates a new Firestore document store.
func New(client *firestore.Client, log *zap.Logger) *Store {
	return &Store{client: client, log: log}
}

func (s *Store) doc(collection, id string) (*firestore.DocumentRef, error) {
	coll := s.client.Collection(collection)
	if coll == nil {
		return nil, fmt.Errorf("%w: collection %q", ErrInvalidPath, collection)
	}
	ref := coll.Doc(id)
	if ref == nil {
		return nil, fmt.Errorf("%w: document %q", ErrInvalidPath, id)
	}
	return ref, nil
}

// Get retrieves a document snapshot and returns its fields.
func (s *Store) Get(ctx context.Context, collection, id string) (docstore.Document, bool, error) {
	ref, err := s.doc(collection, id)
	if err != nil {
		return nil, false, err
	}

	snap, err := ref.Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, false, nil
	}
	if err != nil {
		s.log.Error("failed to get document from firestore", zap.String("path", ref.Path), zap.Error(err))
		return nil, false, fmt.Errorf("failed to get document: %w", err)
	}
	if !snap.Exists() {
		return nil, false, nil
	}
	return snap.Data(), true, nil
}

// GetAll streams the collection's documents.
func (s *Store) GetAll(ctx context.Context, collection string) iter.Seq2[docstore.Snapshot, error] {
	return docstore.SingleUse(func(yield func(docstore.Snapshot, error) bool) {
		coll := s.client.Collection(collection)
		if coll == nil {
			yield(docstore.Snapshot{}, fmt.Errorf("%w: collection %q", ErrInvalidPath, collection))
			return
		}

		docs := coll.Documents(ctx)
		defer docs.Stop()

		for {
			snap, err := docs.Next()
			if errors.Is(err, iterator.Done) {
				return
			}
			if err != nil {
				s.log.Error("failed to stream collection", zap.String("collection", collection), zap.Error(err))
				yield(docstore.Snapshot{}, fmt.Errorf("failed to stream documents: %w", err))
				return
			}
			if !yield(docstore.Snapshot{ID: snap.Ref.ID, Data: snap.Data()}, nil) {
				return
			}
		}
	})
}

// Create sets a new document, letting Firestore pick the id when id is empty.
func (s *Store) Create(ctx context.Context, collection string, data docstore.Document, id string) (string, error) {
	coll := s.client.Collection(collection)
	if coll == nil {
		return "", fmt.Errorf("%w: collection %q", ErrInvalidPath, collection)
	}

	var ref *firestore.DocumentRef
	if id == "" {
		ref = coll.NewDoc()
	} else if ref = coll.Doc(id); ref == nil {
		return "", fmt.Errorf("%w: document %q", ErrInvalidPath, id)
	}

	entry := docstore.NewEntry(data, firestore.ServerTimestamp)
	if _, err := ref.Set(ctx, map[string]any(entry)); err != nil {
		s.log.Error("failed to create document in firestore", zap.String("path", ref.Path), zap.Error(err))
		return "", fmt.Errorf("failed to create document: %w", err)
	}

	s.log.Debug("document created in firestore", zap.String("path", ref.Path))
	return ref.ID, nil
}

// Update sets data with MergeAll, which creates the document when it is missing.
func (s *Store) Update(ctx context.Context, collection, id string, data docstore.Document) error {
	ref, err := s.doc(collection, id)
	if err != nil {
		return err
	}

	entry := docstore.MergeEntry(data, firestore.ServerTimestamp)
	if _, err := ref.Set(ctx, map[string]any(entry), firestore.MergeAll); err != nil {
		s.log.Error("failed to update document in firestore", zap.String("path", ref.Path), zap.Error(err))
		return fmt.Errorf("failed to update document: %w", err)
	}
	return nil
}

// Delete removes the document. Firestore does not fail on missing documents.
func (s *Store) Delete(ctx context.Context, collection, id string) error {
	ref, err := s.doc(collection, id)
	if err != nil {
		return err
	}

	if _, err := ref.Delete(ctx); err != nil {
		s.log.Error("failed to delete document in firestore", zap.String("path", ref.Path), zap.Error(err))
		return fmt.Errorf("failed to delete document: %w", err)
	}
	return nil
}

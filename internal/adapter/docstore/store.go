// Package docstore defines the document store client used by the repositories.
// A document store addresses schemaless field maps by collection name and document id.
// Backends live in subpackages (firestore, redis, postgres, memory).
package docstore

import (
	"context"
	"errors"
	"iter"
	"maps"
	"sync/atomic"
)

// Reserved keys stamped by the store on every write.
const (
	CreatedAtKey = "created_at"
	UpdatedAtKey = "updated_at"
)

// ErrSequenceConsumed is yielded when a GetAll sequence is ranged over a second time.
var ErrSequenceConsumed = errors.New("docstore: sequence already consumed")

// Document is the field map stored at a document id.
type Document map[string]any

// Snapshot pairs a document with its id.
type Snapshot struct {
	ID   string
	Data Document
}

// Store is the document store client.
//
// Every write touches exactly one document. There is no batching and no
// transaction spanning several documents.
type Store interface {
	// Get returns the document stored at id. The boolean is false when
	// no document exists there; that is not an error.
	Get(ctx context.Context, collection, id string) (Document, bool, error)

	// GetAll lazily enumerates every document of the collection in the
	// backend's native order. The sequence is finite and single-use.
	GetAll(ctx context.Context, collection string) iter.Seq2[Snapshot, error]

	// Create writes data at id, overwriting any existing document, or at a
	// freshly generated id when id is empty. Both timestamps are set.
	// It returns the id used.
	Create(ctx context.Context, collection string, data Document, id string) (string, error)

	// Update merges data into the document at id and refreshes updated_at.
	// Keys absent from data are left untouched. A missing document is
	// created from data.
	Update(ctx context.Context, collection, id string, data Document) error

	// Delete removes the document at id. Deleting a missing document is not an error.
	Delete(ctx context.Context, collection, id string) error
}

// NewEntry builds the document written by Create: the caller's fields plus
// both timestamps set to ts. Reserved keys supplied by the caller are dropped.
func NewEntry(data Document, ts any) Document {
	entry := Strip(data)
	entry[CreatedAtKey] = ts
	entry[UpdatedAtKey] = ts
	return entry
}

// MergeEntry builds the patch written by Update: the caller's fields plus
// updated_at set to ts.
func MergeEntry(data Document, ts any) Document {
	entry := Strip(data)
	entry[UpdatedAtKey] = ts
	return entry
}

// Strip returns a copy of data without the reserved keys. It never returns nil.
func Strip(data Document) Document {
	out := make(Document, len(data)+2)
	for k, v := range data {
		if k == CreatedAtKey || k == UpdatedAtKey {
			continue
		}
		out[k] = v
	}
	return out
}

// Merge returns a copy of existing with every key of patch written over it.
func Merge(existing, patch Document) Document {
	out := make(Document, len(existing)+len(patch))
	maps.Copy(out, existing)
	maps.Copy(out, patch)
	return out
}

// SingleUse wraps seq so that only its first range runs the underlying
// enumeration. Later ranges yield ErrSequenceConsumed once.
func SingleUse(seq iter.Seq2[Snapshot, error]) iter.Seq2[Snapshot, error] {
	var used atomic.Bool
	return func(yield func(Snapshot, error) bool) {
		if used.Swap(true) {
			yield(Snapshot{}, ErrSequenceConsumed)
			return
		}
		seq(yield)
	}
}

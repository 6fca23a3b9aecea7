// Package redis provides a Redis-backed document store.
//
// Each collection is one hash; every field of the hash is a document id whose
// value is the JSON-encoded document.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"user-rest-service/internal/adapter/docstore"
)

const (
	keyPrefix        = "docstore:"
	defaultScanCount = 100
	defaultTxRetries = 10
)

// Store implements docstore.Store using Redis hashes.
type Store struct {
	client    redis.UniversalClient
	log       *zap.Logger
	scanCount int64
	txRetries int
	now       func() time.Time
}

// New creates a new Redis document store on an existing client.
func New(client redis.UniversalClient, log *zap.Logger) *Store {
	return &Store{
		client:    client,
		log:       log,
		scanCount: defaultScanCount,
		txRetries: defaultTxRetries,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (s *Store) key(collection string) string {
	return keyPrefix + collection
}

// Get retrieves a document from its collection hash.
func (s *Store) Get(ctx context.Context, collection, id string) (docstore.Document, bool, error) {
	raw, err := s.client.HGet(ctx, s.key(collection), id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		s.log.Error("failed to get document from redis", zap.String("collection", collection), zap.String("id", id), zap.Error(err))
		return nil, false, fmt.Errorf("failed to get document: %w", err)
	}

	doc, err := decode(raw)
	if err != nil {
		return nil, false, fmt.Errorf("failed to decode document %s: %w", id, err)
	}
	return doc, true, nil
}

// GetAll walks the collection hash with HSCAN, one page at a time.
func (s *Store) GetAll(ctx context.Context, collection string) iter.Seq2[docstore.Snapshot, error] {
	return docstore.SingleUse(func(yield func(docstore.Snapshot, error) bool) {
		key := s.key(collection)
		// HSCAN may return a field more than once while the hash is rehashed
		seen := make(map[string]struct{})

		var cursor uint64
		for {
			kvs, next, err := s.client.HScan(ctx, key, cursor, "", s.scanCount).Result()
			if err != nil {
				s.log.Error("failed to scan collection", zap.String("collection", collection), zap.Error(err))
				yield(docstore.Snapshot{}, fmt.Errorf("failed to scan collection: %w", err))
				return
			}

			for i := 0; i+1 < len(kvs); i += 2 {
				id := kvs[i]
				if _, dup := seen[id]; dup {
					continue
				}
				seen[id] = struct{}{}

				doc, err := decode([]byte(kvs[i+1]))
				if err != nil {
					yield(docstore.Snapshot{}, fmt.Errorf("failed to decode document %s: %w", id, err))
					return
				}
				if !yield(docstore.Snapshot{ID: id, Data: doc}, nil) {
					return
				}
			}

			if next == 0 {
				return
			}
			cursor = next
		}
	})
}

// Create writes a fresh document, generating a UUID when id is empty.
func (s *Store) Create(ctx context.Context, collection string, data docstore.Document, id string) (string, error) {
	if id == "" {
		id = uuid.NewString()
	}

	payload, err := encode(docstore.NewEntry(data, s.now()))
	if err != nil {
		return "", fmt.Errorf("failed to encode document: %w", err)
	}

	if err := s.client.HSet(ctx, s.key(collection), id, payload).Err(); err != nil {
		s.log.Error("failed to create document in redis", zap.String("collection", collection), zap.String("id", id), zap.Error(err))
		return "", fmt.Errorf("failed to create document: %w", err)
	}

	s.log.Debug("document created in redis", zap.String("collection", collection), zap.String("id", id))
	return id, nil
}

// Update merges data into the stored document inside a WATCH/MULTI
// transaction, retrying when a concurrent writer touched the collection.
func (s *Store) Update(ctx context.Context, collection, id string, data docstore.Document) error {
	key := s.key(collection)
	patch := docstore.MergeEntry(data, s.now())

	txf := func(tx *redis.Tx) error {
		existing := docstore.Document{}
		raw, err := tx.HGet(ctx, key, id).Bytes()
		switch {
		case errors.Is(err, redis.Nil):
		case err != nil:
			return err
		default:
			if existing, err = decode(raw); err != nil {
				return fmt.Errorf("failed to decode document %s: %w", id, err)
			}
		}

		payload, err := encode(docstore.Merge(existing, patch))
		if err != nil {
			return fmt.Errorf("failed to encode document: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, key, id, payload)
			return nil
		})
		return err
	}

	for attempt := 0; attempt < s.txRetries; attempt++ {
		err := s.client.Watch(ctx, txf, key)
		if err == nil {
			return nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			s.log.Debug("document update conflicted, retrying", zap.String("id", id), zap.Int("attempt", attempt+1))
			continue
		}
		s.log.Error("failed to update document in redis", zap.String("collection", collection), zap.String("id", id), zap.Error(err))
		return fmt.Errorf("failed to update document: %w", err)
	}

	return fmt.Errorf("failed to update document after %d attempts: %w", s.txRetries, redis.TxFailedErr)
}

// Delete removes the document from its collection hash.
func (s *Store) Delete(ctx context.Context, collection, id string) error {
	if err := s.client.HDel(ctx, s.key(collection), id).Err(); err != nil {
		s.log.Error("failed to delete document in redis", zap.String("collection", collection), zap.String("id", id), zap.Error(err))
		return fmt.Errorf("failed to delete document: %w", err)
	}
	return nil
}

func encode(doc docstore.Document) ([]byte, error) {
	return json.Marshal(doc)
}

// decode restores a document, turning the RFC 3339 timestamps back into time.Time.
func decode(raw []byte) (docstore.Document, error) {
	var doc docstore.Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	if doc == nil {
		doc = docstore.Document{}
	}

	for _, key := range []string{docstore.CreatedAtKey, docstore.UpdatedAtKey} {
		v, ok := doc[key].(string)
		if !ok {
			continue
		}
		ts, err := time.Parse(time.RFC3339Nano, v)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", key, err)
		}
		doc[key] = ts
	}
	return doc, nil
}

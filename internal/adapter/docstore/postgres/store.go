// Package postgres stores documents as JSON rows of a single GORM-managed table.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"user-rest-service/internal/adapter/docstore"
)

// Store implements docstore.Store on a single SQL table using GORM.
type Store struct {
	db  *gorm.DB    // GORM database connection
	log *zap.Logger // Structured logger for database operations
	now func() time.Time
}

// New creates a new instance of Store.
func New(db *gorm.DB, log *zap.Logger) *Store {
	return &Store{
		db:  db,
		log: log,
		now: func() time.Time { return time.Now().UTC() },
	}
}

// DocumentSchema represents the database schema for the documents table.
// Timestamps live in their own columns; Data holds the caller's fields only.
type DocumentSchema struct {
	Collection string         `gorm:"primaryKey;size:255"`                    // Collection name
	ID         string         `gorm:"primaryKey;size:1500"`                   // Document id within the collection
	Data       map[string]any `gorm:"serializer:json;type:text;not null"`     // Caller-supplied fields
	CreatedAt  *time.Time     `gorm:"column:created_at;autoCreateTime:false"` // Unset for documents created by Update
	UpdatedAt  time.Time      `gorm:"column:updated_at;autoUpdateTime:false"`
}

// TableName specifies the table name for the DocumentSchema model.
func (DocumentSchema) TableName() string {
	return "documents"
}

// Migrate creates the documents table if it does not exist.
func (s *Store) Migrate(ctx context.Context) error {
	if err := s.db.WithContext(ctx).AutoMigrate(&DocumentSchema{}); err != nil {
		return fmt.Errorf("failed to migrate documents table: %w", err)
	}
	return nil
}

// Get retrieves a document by collection and id.
func (s *Store) Get(ctx context.Context, collection, id string) (docstore.Document, bool, error) {
	var model DocumentSchema
	err := s.db.WithContext(ctx).
		Where("collection = ? AND id = ?", collection, id).
		Take(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		s.log.Error("failed to get document from db", zap.Error(err), zap.String("collection", collection), zap.String("id", id))
		return nil, false, fmt.Errorf("failed to get document: %w", err)
	}
	return toDocument(model), true, nil
}

// GetAll streams the collection row by row, ordered by id.
func (s *Store) GetAll(ctx context.Context, collection string) iter.Seq2[docstore.Snapshot, error] {
	return docstore.SingleUse(func(yield func(docstore.Snapshot, error) bool) {
		db := s.db.WithContext(ctx)
		rows, err := db.Model(&DocumentSchema{}).
			Where("collection = ?", collection).
			Order("id").
			Rows()
		if err != nil {
			s.log.Error("failed to list documents from db", zap.Error(err), zap.String("collection", collection))
			yield(docstore.Snapshot{}, fmt.Errorf("failed to list documents: %w", err))
			return
		}
		defer func() { _ = rows.Close() }()

		for rows.Next() {
			var model DocumentSchema
			if err := db.ScanRows(rows, &model); err != nil {
				yield(docstore.Snapshot{}, fmt.Errorf("failed to scan document: %w", err))
				return
			}
			if !yield(docstore.Snapshot{ID: model.ID, Data: toDocument(model)}, nil) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield(docstore.Snapshot{}, fmt.Errorf("failed to list documents: %w", err))
		}
	})
}

// Create inserts a document, replacing any row already stored at the id.
func (s *Store) Create(ctx context.Context, collection string, data docstore.Document, id string) (string, error) {
	if id == "" {
		id = uuid.NewString()
	}

	now := s.now()
	model := DocumentSchema{
		Collection: collection,
		ID:         id,
		Data:       docstore.Strip(data),
		CreatedAt:  &now,
		UpdatedAt:  now,
	}

	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "collection"}, {Name: "id"}},
			UpdateAll: true,
		}).
		Create(&model).Error
	if err != nil {
		s.log.Error("failed to create document in db", zap.Error(err), zap.String("collection", collection), zap.String("id", id))
		return "", fmt.Errorf("failed to create document: %w", err)
	}

	s.log.Debug("document created in db", zap.String("collection", collection), zap.String("id", id))
	return id, nil
}

// Update merges data into the stored row inside a transaction, inserting
// the row when it does not exist.
func (s *Store) Update(ctx context.Context, collection, id string, data docstore.Document) error {
	patch := docstore.Strip(data)
	now := s.now()

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		model, err := lockRow(tx, collection, id)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&DocumentSchema{
				Collection: collection,
				ID:         id,
				Data:       patch,
				UpdatedAt:  now,
			})
			if res.Error != nil || res.RowsAffected == 1 {
				return res.Error
			}
			// a concurrent writer inserted the row first; merge into theirs
			model, err = lockRow(tx, collection, id)
		}
		if err != nil {
			return err
		}

		model.Data = docstore.Merge(model.Data, patch)
		model.UpdatedAt = now
		return tx.Save(&model).Error
	})
	if err != nil {
		s.log.Error("failed to update document in db", zap.Error(err), zap.String("collection", collection), zap.String("id", id))
		return fmt.Errorf("failed to update document: %w", err)
	}
	return nil
}

func lockRow(tx *gorm.DB, collection, id string) (DocumentSchema, error) {
	var model DocumentSchema
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("collection = ? AND id = ?", collection, id).
		Take(&model).Error
	return model, err
}

// Delete removes a document by collection and id.
func (s *Store) Delete(ctx context.Context, collection, id string) error {
	err := s.db.WithContext(ctx).
		Where("collection = ? AND id = ?", collection, id).
		Delete(&DocumentSchema{}).Error
	if err != nil {
		s.log.Error("failed to delete document in db", zap.Error(err), zap.String("collection", collection), zap.String("id", id))
		return fmt.Errorf("failed to delete document: %w", err)
	}
	return nil
}

func toDocument(model DocumentSchema) docstore.Document {
	doc := docstore.Strip(model.Data)
	if model.CreatedAt != nil {
		doc[docstore.CreatedAtKey] = *model.CreatedAt
	}
	doc[docstore.UpdatedAtKey] = model.UpdatedAt
	return doc
}

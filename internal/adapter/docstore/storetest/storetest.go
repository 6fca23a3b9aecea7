// Package storetest provides a conformance suite run against every docstore backend.
package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"user-rest-service/internal/adapter/docstore"
)

// Factory returns an empty store for one subtest.
type Factory func(t *testing.T) docstore.Store

const collection = "users"

func jane() docstore.Document {
	return docstore.Document{"first_name": "Jane", "last_name": "Doe", "email": "jane.doe@mail.com"}
}

// Run exercises the docstore.Store contract.
func Run(t *testing.T, newStore Factory) {
	t.Run("GetMissing", func(t *testing.T) {
		s := newStore(t)
		doc, ok, err := s.Get(context.Background(), collection, "missing")
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Nil(t, doc)
	})

	t.Run("CreateWithID", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		id, err := s.Create(ctx, collection, jane(), "uid123")
		require.NoError(t, err)
		assert.Equal(t, "uid123", id)

		doc, ok, err := s.Get(ctx, collection, id)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, "Jane", doc["first_name"])
		assert.Equal(t, "Doe", doc["last_name"])
		assert.Equal(t, "jane.doe@mail.com", doc["email"])
		assert.IsType(t, time.Time{}, doc[docstore.CreatedAtKey])
		assert.IsType(t, time.Time{}, doc[docstore.UpdatedAtKey])
	})

	t.Run("CreateGeneratesID", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		first, err := s.Create(ctx, collection, jane(), "")
		require.NoError(t, err)
		second, err := s.Create(ctx, collection, jane(), "")
		require.NoError(t, err)

		assert.NotEmpty(t, first)
		assert.NotEmpty(t, second)
		assert.NotEqual(t, first, second)

		_, ok, err := s.Get(ctx, collection, first)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("CreateOverwrites", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		_, err := s.Create(ctx, collection, docstore.Document{"first_name": "Jane", "nickname": "JD"}, "uid123")
		require.NoError(t, err)
		_, err = s.Create(ctx, collection, docstore.Document{"first_name": "John"}, "uid123")
		require.NoError(t, err)

		doc, ok, err := s.Get(ctx, collection, "uid123")
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, "John", doc["first_name"])
		assert.NotContains(t, doc, "nickname")
	})

	t.Run("CreateIgnoresCallerTimestamps", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		data := jane()
		data[docstore.CreatedAtKey] = "yesterday"
		_, err := s.Create(ctx, collection, data, "uid123")
		require.NoError(t, err)

		doc, _, err := s.Get(ctx, collection, "uid123")
		require.NoError(t, err)
		assert.IsType(t, time.Time{}, doc[docstore.CreatedAtKey])
	})

	t.Run("UpdateMerges", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		data := jane()
		data["nickname"] = "JD"
		_, err := s.Create(ctx, collection, data, "uid123")
		require.NoError(t, err)
		before, _, err := s.Get(ctx, collection, "uid123")
		require.NoError(t, err)

		err = s.Update(ctx, collection, "uid123", docstore.Document{"last_name": "Roe"})
		require.NoError(t, err)

		doc, ok, err := s.Get(ctx, collection, "uid123")
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, "Jane", doc["first_name"])
		assert.Equal(t, "Roe", doc["last_name"])
		assert.Equal(t, "JD", doc["nickname"])

		createdBefore := before[docstore.CreatedAtKey].(time.Time)
		createdAfter := doc[docstore.CreatedAtKey].(time.Time)
		assert.True(t, createdBefore.Equal(createdAfter), "created_at must not change")

		updatedBefore := before[docstore.UpdatedAtKey].(time.Time)
		updatedAfter := doc[docstore.UpdatedAtKey].(time.Time)
		assert.False(t, updatedAfter.Before(updatedBefore), "updated_at must be refreshed")
	})

	t.Run("UpdateMissingUpserts", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		err := s.Update(ctx, collection, "uid123", jane())
		require.NoError(t, err)

		doc, ok, err := s.Get(ctx, collection, "uid123")
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, "Jane", doc["first_name"])
		assert.IsType(t, time.Time{}, doc[docstore.UpdatedAtKey])
	})

	t.Run("Delete", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		_, err := s.Create(ctx, collection, jane(), "uid123")
		require.NoError(t, err)

		require.NoError(t, s.Delete(ctx, collection, "uid123"))
		_, ok, err := s.Get(ctx, collection, "uid123")
		require.NoError(t, err)
		assert.False(t, ok)

		// deleting again is silent
		require.NoError(t, s.Delete(ctx, collection, "uid123"))
	})

	t.Run("GetAllEmpty", func(t *testing.T) {
		s := newStore(t)

		count := 0
		for _, err := range s.GetAll(context.Background(), collection) {
			require.NoError(t, err)
			count++
		}
		assert.Zero(t, count)
	})

	t.Run("GetAll", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		want := []string{"uid1", "uid2", "uid3"}
		for _, id := range want {
			_, err := s.Create(ctx, collection, jane(), id)
			require.NoError(t, err)
		}
		_, err := s.Create(ctx, "other", jane(), "elsewhere")
		require.NoError(t, err)

		seq := s.GetAll(ctx, collection)
		var got []string
		for snap, err := range seq {
			require.NoError(t, err)
			assert.Equal(t, "Jane", snap.Data["first_name"])
			got = append(got, snap.ID)
		}
		assert.ElementsMatch(t, want, got)

		for _, err := range seq {
			assert.ErrorIs(t, err, docstore.ErrSequenceConsumed)
		}
	})

	t.Run("GetAllStopsEarly", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		for _, id := range []string{"uid1", "uid2", "uid3"} {
			_, err := s.Create(ctx, collection, jane(), id)
			require.NoError(t, err)
		}

		count := 0
		for _, err := range s.GetAll(ctx, collection) {
			require.NoError(t, err)
			count++
			break
		}
		assert.Equal(t, 1, count)
	})
}

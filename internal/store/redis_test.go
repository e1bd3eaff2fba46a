package store

import (
	"context"
	"testing"

	"hoteldesk/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedisStore(t *testing.T) *RedisStore {
	t.Helper()

	s, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(s.Close)

	client := redis.NewClient(&redis.Options{Addr: s.Addr()})
	t.Cleanup(func() { client.Close() })

	return NewRedisStore(client, nil)
}

func TestRedisStore(t *testing.T) {
	s := newTestRedisStore(t)
	ctx := context.Background()

	t.Run("CreateAndList", func(t *testing.T) {
		id, err := s.Create(ctx, "bookings", models.Booking{Name: "K. Rao", CheckInDate: "2024-01-01"})
		require.NoError(t, err)
		require.NotEmpty(t, id)

		docs, err := s.List(ctx, "bookings")
		require.NoError(t, err)
		require.Len(t, docs, 1)

		var got models.Booking
		require.NoError(t, docs[0].Decode(&got))
		assert.Equal(t, "K. Rao", got.Name)
	})

	t.Run("QueryByKey", func(t *testing.T) {
		_, err := s.Create(ctx, "bookings", models.Booking{Name: "Patel", CheckInDate: "2024-01-01"})
		require.NoError(t, err)

		docs, err := s.Query(ctx, "bookings", Predicates{"name": "Patel", "checkInDate": "2024-01-01"})
		require.NoError(t, err)
		assert.Len(t, docs, 1)
	})

	t.Run("UpdateExisting", func(t *testing.T) {
		id, err := s.Create(ctx, "bookings", models.Booking{Name: "Old"})
		require.NoError(t, err)

		require.NoError(t, s.Update(ctx, "bookings", id, models.Booking{Name: "New"}))

		docs, err := s.Query(ctx, "bookings", Predicates{"name": "New"})
		require.NoError(t, err)
		assert.Len(t, docs, 1)
	})

	t.Run("UpdateMissing", func(t *testing.T) {
		err := s.Update(ctx, "bookings", "missing", models.Booking{})
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("DeleteMissing", func(t *testing.T) {
		assert.ErrorIs(t, s.Delete(ctx, "bookings", "missing"), ErrNotFound)
	})

	t.Run("CollectionsAreIsolated", func(t *testing.T) {
		_, err := s.Create(ctx, "archive", models.Booking{Name: "Archived"})
		require.NoError(t, err)

		docs, err := s.Query(ctx, "bookings", Predicates{"name": "Archived"})
		require.NoError(t, err)
		assert.Empty(t, docs)
	})
}

func TestRedisStoreSubscribe(t *testing.T) {
	s := newTestRedisStore(t)
	ctx := context.Background()

	var snapshots int
	var lastLen int
	cancel, err := s.Subscribe(ctx, "bookings", nil, func(docs []Document) {
		snapshots++
		lastLen = len(docs)
	})
	require.NoError(t, err)
	defer cancel()

	assert.Equal(t, 1, snapshots)

	_, err = s.Create(ctx, "bookings", models.Booking{Name: "A"})
	require.NoError(t, err)
	assert.Equal(t, 2, snapshots)
	assert.Equal(t, 1, lastLen)
}

package gormstore

import (
	"context"
	"testing"
	"time"

	"ripple/internal/store"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// TestRedisFanOutAcrossInstances simulates two server instances sharing one
// database and one Redis: a write through the first instance must wake a
// subscription held by the second.
func TestRedisFanOutAcrossInstances(t *testing.T) {
	mr := miniredis.RunT(t)

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, Migrate(db))

	writer := New(db, redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	reader := New(db, redis.NewClient(&redis.Options{Addr: mr.Addr()}))

	snapshots := make(chan []store.Doc, 16)
	unsubscribe, err := reader.Subscribe(context.Background(),
		store.NewQuery("posts").Order("createdAt", true),
		func(docs []store.Doc) { snapshots <- docs })
	require.NoError(t, err)
	defer unsubscribe()

	// Drain the initial empty snapshot.
	waitSnapshot(t, snapshots, func([]store.Doc) bool { return true })

	_, err = writer.Add(context.Background(), "posts", store.WireDoc{
		"text":      "over the wire",
		"authorId":  "alice",
		"createdAt": store.ServerTimestamp,
	})
	require.NoError(t, err)

	docs := waitSnapshot(t, snapshots, func(docs []store.Doc) bool { return len(docs) == 1 })
	assert.Equal(t, "over the wire", docs[0].Data["text"])
}

// TestNotifyWithoutRedisStaysLocal covers the degraded single-instance mode.
func TestNotifyWithoutRedisStaysLocal(t *testing.T) {
	s := setupTestStore(t)

	snapshots := make(chan []store.Doc, 16)
	unsubscribe, err := s.Subscribe(context.Background(), store.NewQuery("posts"),
		func(docs []store.Doc) { snapshots <- docs })
	require.NoError(t, err)
	defer unsubscribe()

	waitSnapshot(t, snapshots, func([]store.Doc) bool { return true })

	_, err = s.Add(context.Background(), "posts", store.WireDoc{"text": "local", "authorId": "a"})
	require.NoError(t, err)

	docs := waitSnapshot(t, snapshots, func(docs []store.Doc) bool { return len(docs) == 1 })
	assert.Equal(t, "local", docs[0].Data["text"])

	// No stray goroutine keeps delivering after an idle period.
	select {
	case docs := <-snapshots:
		assert.Len(t, docs, 1)
	case <-time.After(100 * time.Millisecond):
	}
}

package gormstore

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"ripple/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// setupTestStore creates a Store over an in-memory SQLite database with a
// deterministic, strictly increasing clock.
func setupTestStore(t *testing.T) *Store {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	// Subscriptions re-query from their own goroutine; a single connection
	// keeps every caller on the same in-memory database.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, Migrate(db))

	s := New(db, nil)

	var mu sync.Mutex
	tick := 0
	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	s.clock = func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	}
	return s
}

func TestAddAssignsIDAndServerTimestamp(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	id, err := s.Add(ctx, "posts", store.WireDoc{
		"text":      "hello",
		"authorId":  "alice",
		"createdAt": store.ServerTimestamp,
		"updatedAt": nil,
	})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	docs, err := s.Get(ctx, store.NewQuery("posts"))
	require.NoError(t, err)
	require.Len(t, docs, 1)

	assert.Equal(t, id, docs[0].ID)
	assert.Equal(t, "hello", docs[0].Data["text"])
	assert.Nil(t, docs[0].Data["updatedAt"])

	// The sentinel must have been replaced with a concrete write time.
	created, ok := docs[0].Data["createdAt"].(string)
	require.True(t, ok)
	_, err = time.Parse(store.TimeFormat, created)
	assert.NoError(t, err)
}

func TestGetFilterAndOrder(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		author := "alice"
		if i%2 == 1 {
			author = "bob"
		}
		_, err := s.Add(ctx, "posts", store.WireDoc{
			"text":      fmt.Sprintf("post %d", i),
			"authorId":  author,
			"createdAt": store.ServerTimestamp,
		})
		require.NoError(t, err)
	}

	byAuthor, err := s.Get(ctx, store.NewQuery("posts").Where("authorId", store.OpEqual, "bob"))
	require.NoError(t, err)
	assert.Len(t, byAuthor, 2)
	for _, d := range byAuthor {
		assert.Equal(t, "bob", d.Data["authorId"])
	}

	newestFirst, err := s.Get(ctx, store.NewQuery("posts").Order("createdAt", true))
	require.NoError(t, err)
	require.Len(t, newestFirst, 5)
	assert.Equal(t, "post 4", newestFirst[0].Data["text"])
	assert.Equal(t, "post 0", newestFirst[4].Data["text"])
}

func TestGetHonorsLimit(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	for i := 0; i < 60; i++ {
		_, err := s.Add(ctx, "posts", store.WireDoc{
			"text":      fmt.Sprintf("post %d", i),
			"authorId":  "alice",
			"createdAt": store.ServerTimestamp,
		})
		require.NoError(t, err)
	}

	docs, err := s.Get(ctx, store.NewQuery("posts").Order("createdAt", true).WithLimit(50))
	require.NoError(t, err)
	require.Len(t, docs, 50)

	// Newest first; the ten oldest fell outside the window.
	assert.Equal(t, "post 59", docs[0].Data["text"])
	assert.Equal(t, "post 10", docs[49].Data["text"])
}

func TestUpdateMergesPatch(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	id, err := s.Add(ctx, "posts", store.WireDoc{
		"text":      "original",
		"authorId":  "alice",
		"createdAt": store.ServerTimestamp,
		"updatedAt": nil,
	})
	require.NoError(t, err)

	require.NoError(t, s.Update(ctx, "posts", id, store.WireDoc{
		"text":      "edited",
		"updatedAt": store.ServerTimestamp,
	}))

	docs, err := s.Get(ctx, store.NewQuery("posts"))
	require.NoError(t, err)
	require.Len(t, docs, 1)

	assert.Equal(t, "edited", docs[0].Data["text"])
	assert.Equal(t, "alice", docs[0].Data["authorId"], "untouched fields survive the merge")
	assert.NotNil(t, docs[0].Data["updatedAt"])
}

func TestUpdateMissingDocumentFails(t *testing.T) {
	s := setupTestStore(t)

	err := s.Update(context.Background(), "posts", "no-such-id", store.WireDoc{"text": "x"})
	require.Error(t, err)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestDeleteIsIdempotent(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	id, err := s.Add(ctx, "posts", store.WireDoc{"text": "x", "authorId": "a"})
	require.NoError(t, err)

	require.NoError(t, s.Delete(ctx, "posts", id))
	require.NoError(t, s.Delete(ctx, "posts", id))

	docs, err := s.Get(ctx, store.NewQuery("posts"))
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestInvalidFieldNameRejected(t *testing.T) {
	s := setupTestStore(t)

	_, err := s.Get(context.Background(), store.NewQuery("posts").Where("x'); DROP TABLE documents; --", store.OpEqual, "v"))
	require.Error(t, err)
}

func TestBatchCommitAllOrNothing(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	ids := make([]string, 0, 3)
	for i := 0; i < 3; i++ {
		id, err := s.Add(ctx, "posts", store.WireDoc{"text": fmt.Sprintf("p%d", i), "authorId": "alice"})
		require.NoError(t, err)
		ids = append(ids, id)
	}

	// A batch containing one missing document rolls back entirely.
	failing := s.Batch()
	failing.Delete("posts", ids[0])
	failing.Delete("posts", "no-such-id")
	failing.Delete("posts", ids[1])
	require.Error(t, failing.Commit(ctx))

	docs, err := s.Get(ctx, store.NewQuery("posts"))
	require.NoError(t, err)
	assert.Len(t, docs, 3, "no partial deletion is observable")

	// The same batch without the bogus ref commits in full.
	ok := s.Batch()
	for _, id := range ids {
		ok.Delete("posts", id)
	}
	require.NoError(t, ok.Commit(ctx))

	docs, err = s.Get(ctx, store.NewQuery("posts"))
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestEmptyBatchCommits(t *testing.T) {
	s := setupTestStore(t)
	assert.NoError(t, s.Batch().Commit(context.Background()))
}

func TestSubscribeDeliversFullSnapshots(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	snapshots := make(chan []store.Doc, 16)
	unsubscribe, err := s.Subscribe(ctx,
		store.NewQuery("posts").Order("createdAt", true).WithLimit(50),
		func(docs []store.Doc) { snapshots <- docs })
	require.NoError(t, err)
	defer unsubscribe()

	// Initial snapshot of the empty collection.
	assert.Empty(t, waitSnapshot(t, snapshots, func(docs []store.Doc) bool { return true }))

	_, err = s.Add(ctx, "posts", store.WireDoc{"text": "first", "authorId": "a", "createdAt": store.ServerTimestamp})
	require.NoError(t, err)
	_, err = s.Add(ctx, "posts", store.WireDoc{"text": "second", "authorId": "a", "createdAt": store.ServerTimestamp})
	require.NoError(t, err)

	final := waitSnapshot(t, snapshots, func(docs []store.Doc) bool { return len(docs) == 2 })
	assert.Equal(t, "second", final[0].Data["text"], "snapshots arrive newest first")
	assert.Equal(t, "first", final[1].Data["text"])
}

func TestSubscribeIgnoresOtherCollections(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	snapshots := make(chan []store.Doc, 16)
	unsubscribe, err := s.Subscribe(ctx, store.NewQuery("posts"), func(docs []store.Doc) { snapshots <- docs })
	require.NoError(t, err)
	defer unsubscribe()

	waitSnapshot(t, snapshots, func([]store.Doc) bool { return true })

	_, err = s.Add(ctx, "users", store.WireDoc{"email": "a@example.com"})
	require.NoError(t, err)

	select {
	case docs := <-snapshots:
		// A coalesced re-delivery is acceptable but must not contain the
		// other collection's document.
		assert.Empty(t, docs)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestUnsubscribeIsIdempotent(t *testing.T) {
	s := setupTestStore(t)

	unsubscribe, err := s.Subscribe(context.Background(), store.NewQuery("posts"), func([]store.Doc) {})
	require.NoError(t, err)

	assert.NotPanics(t, func() {
		unsubscribe()
		unsubscribe()
		unsubscribe()
	})
}

func TestSubscribeRejectsMalformedQuery(t *testing.T) {
	s := setupTestStore(t)

	_, err := s.Subscribe(context.Background(),
		store.NewQuery("posts").Order("bad field!", true),
		func([]store.Doc) {})
	require.Error(t, err)
}

// waitSnapshot drains deliveries until one satisfies the predicate.
func waitSnapshot(t *testing.T, ch <-chan []store.Doc, ok func([]store.Doc) bool) []store.Doc {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case docs := <-ch:
			if ok(docs) {
				return docs
			}
		case <-deadline:
			t.Fatal("timed out waiting for snapshot")
			return nil
		}
	}
}

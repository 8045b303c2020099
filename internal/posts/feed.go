package posts

import (
	"context"

	"ripple/internal/store"
)

// DefaultWindow is how many of the most recent posts the live view covers.
const DefaultWindow = 50

// Feed is a standing, ordered, bounded read over the post collection. It is
// purely observational; it never mutates store state.
type Feed struct {
	store      store.Store
	collection string
	window     int
}

// NewFeed returns a feed over st. Empty collection and non-positive window
// fall back to the defaults.
func NewFeed(st store.Store, collection string, window int) *Feed {
	if collection == "" {
		collection = Collection
	}
	if window <= 0 {
		window = DefaultWindow
	}
	return &Feed{store: st, collection: collection, window: window}
}

// Query is the windowed read descriptor: newest first, capped at the window.
// Posts sharing an identical createdAt order store-defined between them.
func (f *Feed) Query() store.Query {
	return store.NewQuery(f.collection).Order("createdAt", true).WithLimit(f.window)
}

// Subscribe establishes the standing query. Every change affecting the
// windowed result delivers a complete, freshly decoded, correctly ordered
// slice of posts - never a diff. Deliveries are serialized. The returned
// Unsubscribe stops delivery and releases the watch; it is safe to call more
// than once.
func (f *Feed) Subscribe(ctx context.Context, fn func([]Post)) (store.Unsubscribe, error) {
	return f.store.Subscribe(ctx, f.Query(), func(docs []store.Doc) {
		snapshot := make([]Post, 0, len(docs))
		for _, d := range docs {
			snapshot = append(snapshot, Decode(d))
		}
		fn(snapshot)
	})
}

package posts

import (
	"context"
	"sync"

	"ripple/internal/store"
)

// View holds the latest feed snapshot. It is driven purely by subscription
// callbacks: each delivery replaces the slice wholesale, never merged or
// patched, so there is no local/remote reconciliation to get wrong.
type View struct {
	mu    sync.RWMutex
	posts []Post
}

// NewView returns an empty view.
func NewView() *View {
	return &View{}
}

// Apply replaces the view's contents with the snapshot.
func (v *View) Apply(snapshot []Post) {
	copied := make([]Post, len(snapshot))
	copy(copied, snapshot)
	v.mu.Lock()
	v.posts = copied
	v.mu.Unlock()
}

// Posts returns a copy of the current snapshot.
func (v *View) Posts() []Post {
	v.mu.RLock()
	defer v.mu.RUnlock()
	out := make([]Post, len(v.posts))
	copy(out, v.posts)
	return out
}

// Len returns the number of posts currently visible.
func (v *View) Len() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return len(v.posts)
}

// Follow subscribes the view to f for its lifetime. The caller owns the
// returned Unsubscribe and must invoke it on teardown.
func (v *View) Follow(ctx context.Context, f *Feed) (store.Unsubscribe, error) {
	return f.Subscribe(ctx, v.Apply)
}

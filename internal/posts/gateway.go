package posts

import (
	"context"
	"fmt"
	"strings"

	"ripple/internal/auth"
	"ripple/internal/store"
)

// Gateway performs single-document mutations. Every operation requires a
// present identity and silently becomes a no-op without one: unauthenticated
// writes fail closed rather than loud. Store failures surface as one generic
// error; the gateway does not retry and does not distinguish causes.
type Gateway struct {
	store      store.Store
	identity   auth.Identity
	collection string
}

// NewGateway returns a gateway writing to collection (default Collection)
// on behalf of whatever identity reports at call time.
func NewGateway(st store.Store, identity auth.Identity, collection string) *Gateway {
	if collection == "" {
		collection = Collection
	}
	return &Gateway{store: st, identity: identity, collection: collection}
}

// Create persists a new post authored by the current identity. Blank text is
// absorbed as a no-op, as is a missing identity.
func (g *Gateway) Create(ctx context.Context, text string) error {
	p, ok := g.identity.Current(ctx)
	if !ok {
		return nil
	}
	if strings.TrimSpace(text) == "" {
		return nil
	}

	_, err := g.store.Add(ctx, g.collection, store.WireDoc{
		"text":      text,
		"authorId":  p.UID,
		"createdAt": store.ServerTimestamp,
		"updatedAt": nil,
	})
	if err != nil {
		return fmt.Errorf("create post: %w", err)
	}
	return nil
}

// Update rewrites a post's text and stamps updatedAt with the store's write
// time. Callers gate the offer of this action with CanModify; the store is
// the final authority on a write that slips past that gate.
func (g *Gateway) Update(ctx context.Context, id, newText string) error {
	if _, ok := g.identity.Current(ctx); !ok {
		return nil
	}

	err := g.store.Update(ctx, g.collection, id, store.WireDoc{
		"text":      newText,
		"updatedAt": store.ServerTimestamp,
	})
	if err != nil {
		return fmt.Errorf("update post: %w", err)
	}
	return nil
}

// Delete removes a post. Same ownership precondition as Update, gated by the
// caller.
func (g *Gateway) Delete(ctx context.Context, id string) error {
	if _, ok := g.identity.Current(ctx); !ok {
		return nil
	}

	if err := g.store.Delete(ctx, g.collection, id); err != nil {
		return fmt.Errorf("delete post: %w", err)
	}
	return nil
}

// Package posts is the real-time document synchronization core: the Post
// record and its wire conversion, the live windowed feed, the authorized
// mutation gateway, the atomic bulk purge, and the snapshot-driven view.
package posts

import (
	"time"

	"ripple/internal/auth"
	"ripple/internal/store"
)

// Collection is the default document collection posts live in.
const Collection = "posts"

// Post is the sole domain entity. ID is empty for a record not yet
// persisted; the store assigns it on creation and it never changes.
// AuthorID is set once at creation. CreatedAt is server-assigned.
// UpdatedAt is nil until the first edit.
type Post struct {
	ID        string
	Text      string
	AuthorID  string
	CreatedAt *time.Time
	UpdatedAt *time.Time
}

// Encode maps a Post to its wire representation. The identifier is dropped
// (the store keeps it separate) and a missing CreatedAt becomes the store's
// write-time marker.
func Encode(p Post) store.WireDoc {
	doc := store.WireDoc{
		"text":     p.Text,
		"authorId": p.AuthorID,
	}
	if p.CreatedAt == nil {
		doc["createdAt"] = store.ServerTimestamp
	} else {
		doc["createdAt"] = *p.CreatedAt
	}
	if p.UpdatedAt == nil {
		doc["updatedAt"] = nil
	} else {
		doc["updatedAt"] = *p.UpdatedAt
	}
	return doc
}

// Decode maps a wire document back to a Post, reattaching the store-assigned
// identifier. Missing or malformed timestamps decode to nil.
func Decode(d store.Doc) Post {
	text, _ := d.Data["text"].(string)
	authorID, _ := d.Data["authorId"].(string)
	return Post{
		ID:        d.ID,
		Text:      text,
		AuthorID:  authorID,
		CreatedAt: parseTime(d.Data["createdAt"]),
		UpdatedAt: parseTime(d.Data["updatedAt"]),
	}
}

// parseTime accepts the store's fixed-width encoding, plain RFC3339, or an
// in-memory time.Time. Anything else is treated as absent.
func parseTime(v any) *time.Time {
	switch t := v.(type) {
	case time.Time:
		u := t.UTC()
		return &u
	case *time.Time:
		if t == nil {
			return nil
		}
		u := t.UTC()
		return &u
	case string:
		if parsed, err := time.Parse(store.TimeFormat, t); err == nil {
			return &parsed
		}
		if parsed, err := time.Parse(time.RFC3339Nano, t); err == nil {
			parsed = parsed.UTC()
			return &parsed
		}
		return nil
	default:
		return nil
	}
}

// CanModify reports whether pr owns p. This is the presentation-layer gate
// for offering edit/delete actions; the store remains the final authority on
// the write itself.
func CanModify(p Post, pr auth.Principal) bool {
	return pr.UID != "" && p.AuthorID == pr.UID
}

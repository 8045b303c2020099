// Package store defines the document store contract the application is written
// against: schemaless records in named collections, composable queries, live
// subscriptions with full-snapshot delivery, and atomic batched writes.
package store

import "context"

// WireDoc is the store's native, untyped record representation.
type WireDoc map[string]any

// Doc pairs a stored document with its store-assigned identifier. The
// identifier never appears inside Data.
type Doc struct {
	ID   string
	Data WireDoc
}

// serverTimestamp is the unexported type behind ServerTimestamp so no other
// value can compare equal to the sentinel.
type serverTimestamp struct{}

// ServerTimestamp is a sentinel field value. The store replaces it with its
// own write time at commit, so clients never supply wall-clock values for
// server-owned timestamps.
var ServerTimestamp any = serverTimestamp{}

// IsServerTimestamp reports whether v is the ServerTimestamp sentinel.
func IsServerTimestamp(v any) bool {
	_, ok := v.(serverTimestamp)
	return ok
}

// TimeFormat is the fixed-width UTC encoding for timestamps inside documents.
// Fixed width keeps lexicographic order identical to chronological order, so
// the store can sort on extracted JSON text.
const TimeFormat = "2006-01-02T15:04:05.000000000Z"

// Unsubscribe releases a live subscription. Implementations must make it safe
// to call any number of times.
type Unsubscribe func()

// SnapshotFunc receives the complete, ordered result set of a subscribed
// query every time the store reports a change affecting it. It is never
// handed a diff.
type SnapshotFunc func(docs []Doc)

// Store is the external document-store collaborator. Implementations must
// guarantee per-document atomicity for single-document writes and
// all-or-nothing semantics for batches.
type Store interface {
	// Add creates a document and returns the store-assigned identifier.
	Add(ctx context.Context, collection string, doc WireDoc) (string, error)

	// Update applies a partial document to an existing record.
	Update(ctx context.Context, collection, id string, patch WireDoc) error

	// Delete removes a single document.
	Delete(ctx context.Context, collection, id string) error

	// Get runs a one-shot read of the query.
	Get(ctx context.Context, q Query) ([]Doc, error)

	// Subscribe establishes a standing read over the query. The callback
	// receives a full snapshot immediately and again after every relevant
	// change, one delivery at a time.
	Subscribe(ctx context.Context, q Query, fn SnapshotFunc) (Unsubscribe, error)

	// Batch starts a multi-document write committed as one unit.
	Batch() Batch
}

// Batch accumulates writes and commits them atomically. A failed commit
// leaves the store untouched.
type Batch interface {
	Delete(collection, id string)
	Commit(ctx context.Context) error
}

package posts

import (
	"context"
	"fmt"

	"ripple/internal/observability"
	"ripple/internal/store"
)

// PurgeState is a step in the bulk purge state machine.
type PurgeState int

// Idle -> Confirming -> Executing -> {Committed | Aborted}.
const (
	PurgeIdle PurgeState = iota
	PurgeConfirming
	PurgeExecuting
	PurgeCommitted
	PurgeAborted
)

// String returns the lowercase state name.
func (s PurgeState) String() string {
	switch s {
	case PurgeIdle:
		return "idle"
	case PurgeConfirming:
		return "confirming"
	case PurgeExecuting:
		return "executing"
	case PurgeCommitted:
		return "committed"
	case PurgeAborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// PurgeOutcome reports how a purge run ended. Matched is how many posts the
// ownership query found; Deleted is nonzero only on commit, and always equals
// Matched then - a partial count is never observable.
type PurgeOutcome struct {
	State   PurgeState
	Matched int
	Deleted int
}

// ConfirmFunc is the explicit confirmation gate. It receives the count of
// affected posts; returning false aborts with no side effect.
type ConfirmFunc func(count int) bool

// PurgeMine deletes every post authored by the current identity, regardless
// of the feed window, as one atomic batch. Without an identity it aborts
// immediately as a no-op. With nothing to delete the confirmation gate is
// never consulted. Any batch failure rolls the whole purge back.
func (g *Gateway) PurgeMine(ctx context.Context, confirm ConfirmFunc) (PurgeOutcome, error) {
	p, ok := g.identity.Current(ctx)
	if !ok {
		return PurgeOutcome{State: PurgeAborted}, nil
	}

	docs, err := g.store.Get(ctx, store.NewQuery(g.collection).Where("authorId", store.OpEqual, p.UID))
	if err != nil {
		observability.PurgeOutcomesTotal.WithLabelValues(PurgeAborted.String()).Inc()
		return PurgeOutcome{State: PurgeAborted}, fmt.Errorf("purge posts: %w", err)
	}
	if len(docs) == 0 {
		observability.PurgeOutcomesTotal.WithLabelValues(PurgeAborted.String()).Inc()
		return PurgeOutcome{State: PurgeAborted}, nil
	}

	if confirm == nil || !confirm(len(docs)) {
		observability.PurgeOutcomesTotal.WithLabelValues(PurgeAborted.String()).Inc()
		return PurgeOutcome{State: PurgeAborted, Matched: len(docs)}, nil
	}

	batch := g.store.Batch()
	for _, d := range docs {
		batch.Delete(g.collection, d.ID)
	}
	if err := batch.Commit(ctx); err != nil {
		observability.PurgeOutcomesTotal.WithLabelValues(PurgeAborted.String()).Inc()
		return PurgeOutcome{State: PurgeAborted, Matched: len(docs)}, fmt.Errorf("purge posts: %w", err)
	}

	observability.PurgeOutcomesTotal.WithLabelValues(PurgeCommitted.String()).Inc()
	return PurgeOutcome{State: PurgeCommitted, Matched: len(docs), Deleted: len(docs)}, nil
}

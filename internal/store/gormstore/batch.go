package gormstore

import (
	"context"
	"fmt"

	"ripple/internal/observability"
	"ripple/internal/store"

	"gorm.io/gorm"
)

type docRef struct {
	collection string
	id         string
}

// batch accumulates deletes and commits them in one transaction.
type batch struct {
	store   *Store
	deletes []docRef
}

// Batch starts a multi-document write committed as one unit.
func (s *Store) Batch() store.Batch {
	return &batch{store: s}
}

func (b *batch) Delete(collection, id string) {
	b.deletes = append(b.deletes, docRef{collection: collection, id: id})
}

// Commit applies every queued delete inside a single transaction. A delete
// that matches no row fails the whole batch, so a partial purge is never
// observable.
func (b *batch) Commit(ctx context.Context) error {
	if len(b.deletes) == 0 {
		return nil
	}

	defer b.store.metrics.TrackOperation("batch", b.deletes[0].collection)()
	ctx, span := observability.TraceStoreOperation(ctx, "batch", b.deletes[0].collection)
	defer span.End()

	err := b.store.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, ref := range b.deletes {
			res := tx.Where("collection = ? AND id = ?", ref.collection, ref.id).Delete(&document{})
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return fmt.Errorf("delete %s/%s: document missing", ref.collection, ref.id)
			}
		}
		return nil
	})
	if err != nil {
		b.store.metrics.RecordError("batch")
		observability.RecordErrorInContext(ctx, err)
		return fmt.Errorf("store batch: %w", err)
	}

	seen := make(map[string]struct{}, 1)
	for _, ref := range b.deletes {
		if _, ok := seen[ref.collection]; ok {
			continue
		}
		seen[ref.collection] = struct{}{}
		b.store.notify(ctx, ref.collection)
	}
	return nil
}

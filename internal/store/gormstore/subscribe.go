package gormstore

import (
	"context"
	"strings"
	"sync"

	"ripple/internal/observability"
	"ripple/internal/store"
)

const changedChannelPrefix = "store:changed:"

// subscription is one standing query. A buffered dirty flag coalesces bursts
// of change notices; the run goroutine serializes snapshot deliveries.
type subscription struct {
	store  *Store
	query  store.Query
	fn     store.SnapshotFunc
	dirty  chan struct{}
	done   chan struct{}
	once   sync.Once
	logger *observability.StoreLogger
}

// Subscribe establishes a standing read over q. The callback receives a full
// snapshot shortly after registration and again after every committed change
// to the collection. The returned Unsubscribe is idempotent.
func (s *Store) Subscribe(ctx context.Context, q store.Query, fn store.SnapshotFunc) (store.Unsubscribe, error) {
	// Reject malformed queries up front rather than on first delivery.
	for _, f := range q.Filters {
		if _, err := s.fieldExpr(f.Field); err != nil {
			return nil, err
		}
	}
	if q.OrderBy != nil {
		if _, err := s.fieldExpr(q.OrderBy.Field); err != nil {
			return nil, err
		}
	}

	sub := &subscription{
		store:  s,
		query:  q,
		fn:     fn,
		dirty:  make(chan struct{}, 1),
		done:   make(chan struct{}),
		logger: observability.NewStoreLogger(q.Collection),
	}

	s.mu.Lock()
	s.subs[sub] = struct{}{}
	s.mu.Unlock()
	observability.LiveSubscriptions.WithLabelValues(q.Collection).Inc()

	// Seed the flag so the subscriber gets its initial snapshot.
	sub.dirty <- struct{}{}
	go sub.run()

	unsubscribe := func() {
		sub.once.Do(func() {
			close(sub.done)
			s.mu.Lock()
			delete(s.subs, sub)
			s.mu.Unlock()
			observability.LiveSubscriptions.WithLabelValues(q.Collection).Dec()
		})
	}
	return unsubscribe, nil
}

func (sub *subscription) run() {
	for {
		select {
		case <-sub.done:
			return
		case <-sub.dirty:
			docs, err := sub.store.Get(context.Background(), sub.query)
			if err != nil {
				// The next change notice retries; the subscriber keeps its
				// previous snapshot in the meantime.
				sub.logger.LogError(err, "snapshot")
				continue
			}
			select {
			case <-sub.done:
				return
			default:
			}
			sub.fn(docs)
			sub.logger.LogSnapshot(len(docs))
			observability.SnapshotsDeliveredTotal.WithLabelValues(sub.query.Collection).Inc()
		}
	}
}

// notify wakes local subscribers of the collection and, when Redis is wired,
// announces the change to other instances.
func (s *Store) notify(ctx context.Context, collection string) {
	s.fanOut(collection)
	if s.rdb != nil {
		if err := s.rdb.Publish(ctx, changedChannelPrefix+collection, "1").Err(); err != nil {
			observability.NewStoreLogger(collection).LogError(err, "publish")
		}
	}
}

func (s *Store) fanOut(collection string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for sub := range s.subs {
		if sub.query.Collection != collection {
			continue
		}
		select {
		case sub.dirty <- struct{}{}:
		default:
			// Already dirty; the pending re-query covers this change too.
		}
	}
}

// startRemoteNotify re-runs local subscriptions when another instance commits
// a write. Local writes echo back through Redis as well; the dirty flag
// coalesces the duplicate.
func (s *Store) startRemoteNotify(ctx context.Context) {
	sub := s.rdb.PSubscribe(ctx, changedChannelPrefix+"*")
	ch := sub.Channel()
	go func() {
		for msg := range ch {
			s.fanOut(strings.TrimPrefix(msg.Channel, changedChannelPrefix))
		}
	}()
}

// Package gormstore implements the document store contract on a relational
// database through GORM. Documents are schemaless JSON rows; queries push
// filter and order clauses down to SQL JSON extraction; change fan-out runs
// through an in-process watcher registry with optional Redis pub/sub so
// subscriptions fire across instances.
package gormstore

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"sync"
	"time"

	"ripple/internal/observability"
	"ripple/internal/store"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// document is the relational shape of a stored wire document. Data must
// migrate to a JSON-valued column (jsonb on postgres) so field extraction
// works without a cast.
type document struct {
	ID         string         `gorm:"primaryKey;size:36"`
	Collection string         `gorm:"index;not null;size:64"`
	Data       datatypes.JSON `gorm:"not null"`
	WriteTime  time.Time      `gorm:"index"`
}

// TableName overrides the GORM default.
func (document) TableName() string { return "documents" }

// Migrate creates or updates the documents table.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&document{})
}

// Store is a document store backed by GORM. It satisfies store.Store.
type Store struct {
	db      *gorm.DB
	rdb     *redis.Client
	metrics *observability.StoreMetrics

	mu   sync.RWMutex
	subs map[*subscription]struct{}

	clock func() time.Time
}

var _ store.Store = (*Store)(nil)

// New returns a Store over db. rdb may be nil; when present, committed writes
// are announced on Redis so subscriptions held by other instances re-run.
func New(db *gorm.DB, rdb *redis.Client) *Store {
	s := &Store{
		db:      db,
		rdb:     rdb,
		metrics: observability.NewStoreMetrics(),
		subs:    make(map[*subscription]struct{}),
		clock:   time.Now,
	}
	if rdb != nil {
		s.startRemoteNotify(context.Background())
	}
	return s
}

var fieldNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// fieldExpr returns the SQL expression extracting a document field as text.
// Field names are restricted to identifier characters; they are interpolated
// into SQL because JSON paths cannot be bound as placeholders portably.
func (s *Store) fieldExpr(field string) (string, error) {
	if !fieldNamePattern.MatchString(field) {
		return "", fmt.Errorf("invalid document field name %q", field)
	}
	if s.db.Dialector.Name() == "postgres" {
		return fmt.Sprintf("data->>'%s'", field), nil
	}
	return fmt.Sprintf("json_extract(data, '$.%s')", field), nil
}

// normalizeValue rewrites timestamp values into the store's fixed-width UTC
// wire encoding and resolves the server timestamp sentinel to writeTime.
func normalizeValue(v any, writeTime time.Time) any {
	switch t := v.(type) {
	case nil:
		return nil
	case time.Time:
		return t.UTC().Format(store.TimeFormat)
	case *time.Time:
		if t == nil {
			return nil
		}
		return t.UTC().Format(store.TimeFormat)
	default:
		if store.IsServerTimestamp(v) {
			return writeTime.UTC().Format(store.TimeFormat)
		}
		return t
	}
}

func marshalDoc(doc store.WireDoc, writeTime time.Time) ([]byte, error) {
	out := make(map[string]any, len(doc))
	for k, v := range doc {
		out[k] = normalizeValue(v, writeTime)
	}
	return json.Marshal(out)
}

// Add creates a document and returns its store-assigned identifier.
func (s *Store) Add(ctx context.Context, collection string, doc store.WireDoc) (string, error) {
	defer s.metrics.TrackOperation("add", collection)()
	ctx, span := observability.TraceStoreOperation(ctx, "add", collection)
	defer span.End()

	writeTime := s.clock()
	raw, err := marshalDoc(doc, writeTime)
	if err != nil {
		s.metrics.RecordError("add")
		return "", fmt.Errorf("store add: %w", err)
	}

	row := document{
		ID:         uuid.NewString(),
		Collection: collection,
		Data:       datatypes.JSON(raw),
		WriteTime:  writeTime,
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		s.metrics.RecordError("add")
		observability.RecordErrorInContext(ctx, err)
		return "", fmt.Errorf("store add: %w", err)
	}

	observability.NewStoreLogger(collection).LogWrite("add", row.ID)
	s.notify(ctx, collection)
	return row.ID, nil
}

// Update merges a partial document into an existing record. The read-merge-
// write runs inside a transaction so concurrent patches are not lost.
func (s *Store) Update(ctx context.Context, collection, id string, patch store.WireDoc) error {
	defer s.metrics.TrackOperation("update", collection)()
	ctx, span := observability.TraceStoreOperation(ctx, "update", collection)
	defer span.End()

	writeTime := s.clock()
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row document
		if err := tx.Where("collection = ? AND id = ?", collection, id).First(&row).Error; err != nil {
			return err
		}

		var data map[string]any
		if err := json.Unmarshal(row.Data, &data); err != nil {
			return err
		}
		for k, v := range patch {
			data[k] = normalizeValue(v, writeTime)
		}
		raw, err := json.Marshal(data)
		if err != nil {
			return err
		}

		return tx.Model(&document{}).
			Where("collection = ? AND id = ?", collection, id).
			Updates(map[string]any{"data": datatypes.JSON(raw), "write_time": writeTime}).Error
	})
	if err != nil {
		s.metrics.RecordError("update")
		observability.RecordErrorInContext(ctx, err)
		return fmt.Errorf("store update: %w", err)
	}

	observability.NewStoreLogger(collection).LogWrite("update", id)
	s.notify(ctx, collection)
	return nil
}

// Delete removes a single document. Deleting an absent document is not an
// error, matching the usual document-store contract.
func (s *Store) Delete(ctx context.Context, collection, id string) error {
	defer s.metrics.TrackOperation("delete", collection)()
	ctx, span := observability.TraceStoreOperation(ctx, "delete", collection)
	defer span.End()

	res := s.db.WithContext(ctx).
		Where("collection = ? AND id = ?", collection, id).
		Delete(&document{})
	if res.Error != nil {
		s.metrics.RecordError("delete")
		observability.RecordErrorInContext(ctx, res.Error)
		return fmt.Errorf("store delete: %w", res.Error)
	}

	if res.RowsAffected > 0 {
		observability.NewStoreLogger(collection).LogWrite("delete", id)
		s.notify(ctx, collection)
	}
	return nil
}

// Get runs a one-shot read of the query.
func (s *Store) Get(ctx context.Context, q store.Query) ([]store.Doc, error) {
	defer s.metrics.TrackOperation("get", q.Collection)()
	ctx, span := observability.TraceStoreOperation(ctx, "get", q.Collection)
	defer span.End()

	tx := s.db.WithContext(ctx).Model(&document{}).Where("collection = ?", q.Collection)
	for _, f := range q.Filters {
		expr, err := s.fieldExpr(f.Field)
		if err != nil {
			return nil, err
		}
		if f.Op != store.OpEqual {
			return nil, fmt.Errorf("unsupported filter operator %q", f.Op)
		}
		tx = tx.Where(expr+" = ?", fmt.Sprint(normalizeValue(f.Value, s.clock())))
	}
	if q.OrderBy != nil {
		expr, err := s.fieldExpr(q.OrderBy.Field)
		if err != nil {
			return nil, err
		}
		dir := "ASC"
		if q.OrderBy.Desc {
			dir = "DESC"
		}
		tx = tx.Order(expr + " " + dir)
	}
	if q.Limit > 0 {
		tx = tx.Limit(q.Limit)
	}

	var rows []document
	if err := tx.Find(&rows).Error; err != nil {
		s.metrics.RecordError("get")
		observability.RecordErrorInContext(ctx, err)
		return nil, fmt.Errorf("store get: %w", err)
	}

	docs := make([]store.Doc, 0, len(rows))
	for _, row := range rows {
		var data store.WireDoc
		if err := json.Unmarshal(row.Data, &data); err != nil {
			return nil, fmt.Errorf("store get: decode %s/%s: %w", row.Collection, row.ID, err)
		}
		docs = append(docs, store.Doc{ID: row.ID, Data: data})
	}
	return docs, nil
}


// Package article is the index gateway: it stores article documents as hashes
// and runs filtered KNN searches against the index of the active provider.
package article

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kailas-cloud/scifinder/internal/db"
	"github.com/kailas-cloud/scifinder/internal/domain"
	domart "github.com/kailas-cloud/scifinder/internal/domain/article"
	"github.com/kailas-cloud/scifinder/internal/domain/batch"
	"github.com/kailas-cloud/scifinder/internal/domain/search/filter"
	"github.com/kailas-cloud/scifinder/internal/domain/search/knn"
	"github.com/kailas-cloud/scifinder/internal/domain/search/result"
)

// store is the consumer interface for the gateway (ISP).
type store interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HSetMulti(ctx context.Context, items []db.HashSetItem) []error
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	DropIndex(ctx context.Context, name string, deleteDocs bool) error
	IndexExists(ctx context.Context, name string) (bool, error)
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
}

// identity is the part of the embedding provider that selects the physical index.
type identity interface {
	Name() string
	Dimension() int
}

// Repo implements the index gateway.
type Repo struct {
	store     store
	id        identity
	keyPrefix string
	opTimeout time.Duration
	mapping   *Mapping
}

// New creates an index gateway. The mapping is the schema used by Recreate and
// EnsureIndex. opTimeout bounds every store call; 0 disables it.
func New(s store, id identity, m *Mapping, keyPrefix string, opTimeout time.Duration) *Repo {
	return &Repo{store: s, id: id, mapping: m, keyPrefix: keyPrefix, opTimeout: opTimeout}
}

// IndexName resolves the index of the active provider.
func (r *Repo) IndexName() string {
	return fmt.Sprintf("%s%s:idx", r.keyPrefix, r.id.Name())
}

// DocPrefix resolves the document key prefix of the active provider.
func (r *Repo) DocPrefix() string {
	return fmt.Sprintf("%s%s:doc:", r.keyPrefix, r.id.Name())
}

func (r *Repo) docKey(id string) string {
	return r.DocPrefix() + id
}

// Upsert writes one document; the last write for an id wins.
func (r *Repo) Upsert(ctx context.Context, doc domart.Document) error {
	if err := domain.CheckDimension(doc.Vector(), r.id.Dimension()); err != nil {
		return fmt.Errorf("upsert %s: %w", doc.ID(), err)
	}

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	key := r.docKey(doc.ID())
	if err := r.store.HSet(ctx, key, toHash(&doc)); err != nil {
		return r.storeError(ctx, "hset "+key, err)
	}
	return nil
}

// BulkUpsert writes all documents in one pipelined round trip. Every document
// gets its own outcome; a failure never affects the other items.
func (r *Repo) BulkUpsert(ctx context.Context, docs []domart.Document) []batch.Result {
	results := make([]batch.Result, len(docs))
	items := make([]db.HashSetItem, 0, len(docs))
	slots := make([]int, 0, len(docs)) // items[i] belongs to results[slots[i]]

	dim := r.id.Dimension()
	for i := range docs {
		if err := domain.CheckDimension(docs[i].Vector(), dim); err != nil {
			results[i] = batch.NewError(docs[i].ID(), err)
			continue
		}
		items = append(items, db.HashSetItem{Key: r.docKey(docs[i].ID()), Fields: toHash(&docs[i])})
		slots = append(slots, i)
	}
	if len(items) == 0 {
		return results
	}

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	errs := r.store.HSetMulti(ctx, items)
	for j, i := range slots {
		var err error
		if j < len(errs) {
			err = errs[j]
		}
		if err != nil {
			results[i] = batch.NewError(docs[i].ID(), r.storeError(ctx, "hset "+items[j].Key, err))
			continue
		}
		results[i] = batch.NewOK(docs[i].ID())
	}
	return results
}

// Search runs a KNN search restricted to documents matching all filters, in store order.
func (r *Repo) Search(ctx context.Context, q knn.Query) ([]result.Hit, error) {
	if err := domain.CheckDimension(q.Vector, r.id.Dimension()); err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	if q.K <= 0 {
		return nil, fmt.Errorf("%w: k must be positive", domain.ErrInvalidRequest)
	}
	if q.NumCandidates > 0 && q.K > q.NumCandidates {
		return nil, fmt.Errorf("%w: k (%d) exceeds num_candidates (%d)", domain.ErrInvalidRequest, q.K, q.NumCandidates)
	}

	filters, err := toStoreFilters(q.Filters)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidRequest, err)
	}

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	idx := r.IndexName()
	res, err := r.store.SearchKNN(ctx, &db.KNNQuery{
		IndexName:    idx,
		VectorField:  fieldVector,
		Filters:      filters,
		Vector:       q.Vector,
		K:            q.K,
		VectorAlgo:   r.mapping.algorithm(),
		EFRuntime:    q.NumCandidates,
		ReturnFields: returnFields,
	})
	if err != nil {
		return nil, r.storeError(ctx, "search "+idx, err)
	}
	if res == nil {
		return nil, nil
	}

	prefix := r.DocPrefix()
	hits := make([]result.Hit, 0, len(res.Entries))
	for _, e := range res.Entries {
		hits = append(hits, result.Hit{
			ID:     strings.TrimPrefix(e.Key, prefix),
			Score:  e.Score,
			Fields: e.Fields,
		})
	}
	return hits, nil
}

// Recreate drops the active index together with its documents, then creates it from the mapping.
func (r *Repo) Recreate(ctx context.Context) error {
	def, err := r.indexDefinition()
	if err != nil {
		return err
	}

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	if err := r.store.DropIndex(ctx, def.Name, true); err != nil && !errors.Is(err, db.ErrIndexNotFound) {
		return r.storeError(ctx, "drop "+def.Name, err)
	}
	if err := r.store.CreateIndex(ctx, def); err != nil {
		return r.storeError(ctx, "create "+def.Name, err)
	}
	return nil
}

// IndexExists reports whether the index of the active provider is present.
func (r *Repo) IndexExists(ctx context.Context) (bool, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	name := r.IndexName()
	exists, err := r.store.IndexExists(ctx, name)
	if err != nil {
		return false, r.storeError(ctx, "info "+name, err)
	}
	return exists, nil
}

// EnsureIndex creates the active index when it does not exist yet. Returns true if created.
func (r *Repo) EnsureIndex(ctx context.Context) (bool, error) {
	def, err := r.indexDefinition()
	if err != nil {
		return false, err
	}

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	exists, err := r.store.IndexExists(ctx, def.Name)
	if err != nil {
		return false, r.storeError(ctx, "info "+def.Name, err)
	}
	if exists {
		return false, nil
	}
	if err := r.store.CreateIndex(ctx, def); err != nil {
		if errors.Is(err, db.ErrIndexExists) {
			return false, nil
		}
		return false, r.storeError(ctx, "create "+def.Name, err)
	}
	return true, nil
}

func (r *Repo) indexDefinition() (*db.IndexDefinition, error) {
	if r.mapping == nil {
		return nil, fmt.Errorf("%w: no mapping configured", domain.ErrInvalidMapping)
	}
	return r.mapping.BuildIndex(r.IndexName(), r.DocPrefix(), r.id.Dimension())
}

func (r *Repo) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.opTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, r.opTimeout)
}

// storeError maps store failures onto domain sentinels.
func (r *Repo) storeError(ctx context.Context, op string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w: %w", op, domain.ErrTimeout, err)
	}
	return fmt.Errorf("%s: %w: %w", op, domain.ErrIndexUnavailable, err)
}

// toStoreFilters renames domain fields to indexed hash fields.
func toStoreFilters(expr filter.Expression) (filter.Expression, error) {
	if expr.IsEmpty() {
		return expr, nil
	}
	conds := make([]filter.Condition, 0, len(expr.All()))
	for _, c := range expr.All() {
		var (
			out filter.Condition
			err error
		)
		field := storeField(c.Field())
		switch c.Kind() {
		case filter.KindWildcard:
			out, err = filter.NewWildcard(field, c.Value())
		case filter.KindTerm:
			out, err = filter.NewTerm(field, c.Value())
		case filter.KindRange:
			if c.Range() == nil {
				return filter.Expression{}, fmt.Errorf("range filter on %q has no bounds", c.Field())
			}
			out, err = filter.NewRange(field, *c.Range())
		default:
			return filter.Expression{}, fmt.Errorf("unsupported filter kind %s", c.Kind())
		}
		if err != nil {
			return filter.Expression{}, err
		}
		conds = append(conds, out)
	}
	return filter.NewExpression(conds...)
}

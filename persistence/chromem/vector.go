// Package chromem backs the vector storage boundary with chromem-go.
//
// chromem ranks by cosine similarity and keeps its own lookup structures, so
// this backend only accepts the cosine metric and reports both column indices
// as already existing: there is nothing to build, and reporting them present
// keeps callers from asking again.
package chromem

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/philippgille/chromem-go"

	"github.com/flarexio/semsearch/vector"
)

func NewChromemVectorDB(cfg vector.Config) (vector.DB, error) {
	if cfg.Metric != vector.MetricCosine {
		return nil, fmt.Errorf("%w: chromem backend supports the cosine metric only", vector.ErrStorage)
	}

	var db *chromem.DB
	if cfg.Path == "" {
		db = chromem.NewDB()
	} else {
		d, err := chromem.NewPersistentDB(cfg.Path, false)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", vector.ErrStorage, err)
		}

		db = d
	}

	return &chromemVectorDB{db}, nil
}

type chromemVectorDB struct {
	db *chromem.DB
}

func (c *chromemVectorDB) Table(name string) (vector.Table, error) {
	collection, err := c.db.GetOrCreateCollection(name, nil, rejectEmbedding)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", vector.ErrStorage, err)
	}

	return &table{
		db:         c.db,
		collection: collection,
		name:       name,
	}, nil
}

func (c *chromemVectorDB) Close() error {
	return nil
}

// rejectEmbedding guards against chromem computing embeddings on its own.
// Every document handed to this backend already carries its vector.
func rejectEmbedding(ctx context.Context, text string) ([]float32, error) {
	return nil, errors.New("embeddings are computed upstream")
}

type table struct {
	db         *chromem.DB
	collection *chromem.Collection
	name       string
}

func (t *table) Name() string {
	return t.name
}

func (t *table) Count(ctx context.Context) (int, error) {
	return t.collection.Count(), nil
}

func (t *table) Insert(ctx context.Context, rows []vector.Row) error {
	for _, row := range rows {
		doc := chromem.Document{
			ID:        strconv.FormatInt(int64(row.ID), 10),
			Content:   row.Text,
			Embedding: row.Vector,
		}

		if err := t.collection.AddDocument(ctx, doc); err != nil {
			return fmt.Errorf("%w: %v", vector.ErrStorage, err)
		}
	}

	return nil
}

func (t *table) GetByIDs(ctx context.Context, ids []int32) ([]vector.Row, error) {
	var rows []vector.Row

	for _, id := range ids {
		doc, err := t.collection.GetByID(ctx, strconv.FormatInt(int64(id), 10))
		if err != nil {
			// chromem reports absence as an error; absent ids are simply
			// left out of the result.
			continue
		}

		rows = append(rows, vector.Row{
			ID:     id,
			Text:   doc.Content,
			Vector: doc.Embedding,
		})
	}

	return rows, nil
}

func (t *table) Update(ctx context.Context, id int32, text string, vec []float32) error {
	key := strconv.FormatInt(int64(id), 10)

	if _, err := t.collection.GetByID(ctx, key); err != nil {
		return nil // absent id matches zero rows
	}

	if err := t.collection.Delete(ctx, nil, nil, key); err != nil {
		return fmt.Errorf("%w: %v", vector.ErrStorage, err)
	}

	doc := chromem.Document{
		ID:        key,
		Content:   text,
		Embedding: vec,
	}

	if err := t.collection.AddDocument(ctx, doc); err != nil {
		return fmt.Errorf("%w: %v", vector.ErrStorage, err)
	}

	return nil
}

func (t *table) Delete(ctx context.Context, id int32) error {
	key := strconv.FormatInt(int64(id), 10)

	if _, err := t.collection.GetByID(ctx, key); err != nil {
		return nil
	}

	if err := t.collection.Delete(ctx, nil, nil, key); err != nil {
		return fmt.Errorf("%w: %v", vector.ErrStorage, err)
	}

	return nil
}

func (t *table) ListIndices(ctx context.Context) ([]vector.Index, error) {
	return []vector.Index{
		{Column: "id", Kind: vector.IndexKindScalar},
		{Column: "vector", Kind: vector.IndexKindVector},
	}, nil
}

func (t *table) CreateScalarIndex(ctx context.Context, column string) error {
	return nil
}

func (t *table) CreateVectorIndex(ctx context.Context, column string, metric vector.Metric) error {
	return nil
}

func (t *table) Search(ctx context.Context, vec []float32, limit int) ([]vector.Match, error) {
	count := t.collection.Count()
	if count == 0 || limit <= 0 {
		return []vector.Match{}, nil
	}

	if limit > count {
		limit = count
	}

	results, err := t.collection.QueryEmbedding(ctx, vec, limit, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", vector.ErrStorage, err)
	}

	matches := make([]vector.Match, 0, len(results))
	for _, result := range results {
		id, err := strconv.ParseInt(result.ID, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", vector.ErrStorage, err)
		}

		matches = append(matches, vector.Match{
			ID:       int32(id),
			Text:     result.Content,
			Distance: 1 - result.Similarity,
		})
	}

	// chromem leaves equal-similarity order unspecified; re-rank by
	// (distance, id) so page windows stay stable.
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Distance != matches[j].Distance {
			return matches[i].Distance < matches[j].Distance
		}

		return matches[i].ID < matches[j].ID
	})

	return matches, nil
}

func (t *table) Optimize(ctx context.Context) error {
	return nil
}

func (t *table) Drop(ctx context.Context) error {
	if err := t.db.DeleteCollection(t.name); err != nil {
		return fmt.Errorf("%w: %v", vector.ErrStorage, err)
	}

	return nil
}

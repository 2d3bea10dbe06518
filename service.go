package semsearch

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/flarexio/semsearch/embedding"
	"github.com/flarexio/semsearch/vector"
)

const (
	// minVectorIndexRows is the smallest corpus the approximate vector index
	// is built for. Below it, search stays an exhaustive scan.
	minVectorIndexRows = 256

	defaultSearchLimit = 10
)

// Service defines the core logic of the semantic search store.
type Service interface {

	// Close releases the vector storage connection.
	Close() error

	// AddDocuments stores a batch of documents, embedding their texts in
	// document mode. An id duplicated within the batch fails the whole batch
	// with ErrDuplicateInput. An id already stored fails the whole batch
	// with ErrAlreadyExists unless updateIfExists is true, in which case
	// that document takes the update path instead. Returns the number of
	// documents committed.
	AddDocuments(ctx context.Context, docs []Document, updateIfExists ...bool) (int, error)

	// UpdateDocument re-embeds text and writes text and vector together to
	// the row matching id. An absent id matches zero rows and is a no-op.
	UpdateDocument(ctx context.Context, id int32, text string) error

	// GetDocument returns the document with the given id, or nil when no
	// such document exists. Absence is not an error.
	GetDocument(ctx context.Context, id int32) (*Document, error)

	// DeleteDocument removes the document with the given id. Deleting an
	// absent id is a no-op.
	DeleteDocument(ctx context.Context, id int32) error

	// SearchDocuments embeds query in query mode and returns up to limit
	// documents ranked by ascending distance. An optional page selects a
	// window of the same ranking; pages past the end are empty.
	SearchDocuments(ctx context.Context, query string, limit int, page ...int) ([]Document, error)

	// Optimize ensures the index structures exist and triggers storage
	// compaction. Idempotent and safe to call repeatedly; expected to be
	// long-running on large corpora.
	Optimize(ctx context.Context) error
}

type ServiceMiddleware func(Service) Service

func NewService(cfg Config, db vector.DB, embedder embedding.Embedder) (Service, error) {
	log := zap.L().With(
		zap.String("service", "semsearch"),
	)

	table, err := db.Table(cfg.Vector.Collection)
	if err != nil {
		return nil, err
	}

	return &service{
		cfg:      cfg,
		log:      log,
		db:       db,
		table:    table,
		embedder: embedder,
	}, nil
}

type service struct {
	cfg      Config
	log      *zap.Logger
	db       vector.DB
	table    vector.Table
	embedder embedding.Embedder
}

func (svc *service) Close() error {
	return svc.db.Close()
}

// AddDocuments checks its invariants before issuing any mutation: a batch
// that fails validation leaves the store untouched. Once mutations are in
// flight there is no rollback; a provider or storage failure mid-batch can
// leave the batch partially applied. Two concurrent calls racing on the same
// id are not serialized; the last writer wins.
func (svc *service) AddDocuments(ctx context.Context, docs []Document, updateIfExists ...bool) (int, error) {
	upsert := false
	if len(updateIfExists) > 0 {
		upsert = updateIfExists[0]
	}

	if len(docs) == 0 {
		return 0, nil
	}

	seen := make(map[int32]struct{}, len(docs))
	ids := make([]int32, 0, len(docs))

	for _, doc := range docs {
		if _, ok := seen[doc.ID]; ok {
			return 0, fmt.Errorf("%w: %d", ErrDuplicateInput, doc.ID)
		}

		seen[doc.ID] = struct{}{}
		ids = append(ids, doc.ID)
	}

	rows, err := svc.table.GetByIDs(ctx, ids)
	if err != nil {
		return 0, err
	}

	existing := make(map[int32]struct{}, len(rows))
	for _, row := range rows {
		existing[row.ID] = struct{}{}
	}

	if !upsert {
		for _, doc := range docs {
			if _, ok := existing[doc.ID]; ok {
				return 0, fmt.Errorf("%w: %d", ErrAlreadyExists, doc.ID)
			}
		}
	}

	var fresh, stale []Document
	for _, doc := range docs {
		if _, ok := existing[doc.ID]; ok {
			stale = append(stale, doc)
		} else {
			fresh = append(fresh, doc)
		}
	}

	g, ctx := errgroup.WithContext(ctx)

	// Updates target distinct ids and are independent of the bulk insert.
	for _, doc := range stale {
		g.Go(func() error {
			return svc.UpdateDocument(ctx, doc.ID, doc.Text)
		})
	}

	if len(fresh) > 0 {
		g.Go(func() error {
			texts := make([]string, len(fresh))
			for i, doc := range fresh {
				texts[i] = doc.Text
			}

			vectors, err := svc.embedder.EmbedDocuments(ctx, texts)
			if err != nil {
				return err
			}

			rows := make([]vector.Row, len(fresh))
			for i, doc := range fresh {
				rows[i] = vector.Row{
					ID:     doc.ID,
					Text:   doc.Text,
					Vector: vectors[i],
				}
			}

			return svc.table.Insert(ctx, rows)
		})
	}

	if err := g.Wait(); err != nil {
		return 0, err
	}

	return len(docs), nil
}

func (svc *service) UpdateDocument(ctx context.Context, id int32, text string) error {
	vectors, err := svc.embedder.EmbedDocuments(ctx, []string{text})
	if err != nil {
		return err
	}

	return svc.table.Update(ctx, id, text, vectors[0])
}

func (svc *service) GetDocument(ctx context.Context, id int32) (*Document, error) {
	rows, err := svc.table.GetByIDs(ctx, []int32{id})
	if err != nil {
		return nil, err
	}

	if len(rows) == 0 {
		return nil, nil
	}

	return &Document{
		ID:     rows[0].ID,
		Text:   rows[0].Text,
		Vector: rows[0].Vector,
	}, nil
}

func (svc *service) DeleteDocument(ctx context.Context, id int32) error {
	return svc.table.Delete(ctx, id)
}

func (svc *service) SearchDocuments(ctx context.Context, query string, limit int, page ...int) ([]Document, error) {
	p := 0
	if len(page) > 0 && page[0] > 0 {
		p = page[0]
	}

	if limit <= 0 {
		limit = defaultSearchLimit
	}

	vectors, err := svc.embedder.EmbedQueries(ctx, []string{query})
	if err != nil {
		return nil, err
	}

	// Over-fetch through the requested page and slice the window out, so
	// consecutive pages are disjoint prefixes of one stable ranking.
	matches, err := svc.table.Search(ctx, vectors[0], limit*(p+1))
	if err != nil {
		return nil, err
	}

	start := limit * p
	if start >= len(matches) {
		return []Document{}, nil
	}

	matches = matches[start:min(start+limit, len(matches))]

	docs := make([]Document, len(matches))
	for i, match := range matches {
		docs[i] = Document{
			ID:   match.ID,
			Text: match.Text,
		}
	}

	return docs, nil
}

func (svc *service) Optimize(ctx context.Context) error {
	if err := svc.ensureIndices(ctx); err != nil {
		return err
	}

	return svc.table.Optimize(ctx)
}

// ensureIndices creates the scalar id index when missing and, once the table
// holds enough rows, the approximate vector index with the active metric.
// Existing indices are never recreated.
func (svc *service) ensureIndices(ctx context.Context) error {
	log := svc.log.With(
		zap.String("action", "ensure_indices"),
		zap.String("table", svc.table.Name()),
	)

	indices, err := svc.table.ListIndices(ctx)
	if err != nil {
		return err
	}

	var hasScalar, hasVector bool
	for _, index := range indices {
		switch {
		case index.Column == "id" && index.Kind == vector.IndexKindScalar:
			hasScalar = true
		case index.Column == "vector" && index.Kind == vector.IndexKindVector:
			hasVector = true
		}
	}

	if !hasScalar {
		if err := svc.table.CreateScalarIndex(ctx, "id"); err != nil {
			return err
		}

		log.Info("scalar index created", zap.String("column", "id"))
	}

	if !hasVector {
		count, err := svc.table.Count(ctx)
		if err != nil {
			return err
		}

		if count >= minVectorIndexRows {
			metric := svc.cfg.Vector.Metric
			if err := svc.table.CreateVectorIndex(ctx, "vector", metric); err != nil {
				return err
			}

			log.Info("vector index created",
				zap.String("column", "vector"),
				zap.String("metric", string(metric)),
				zap.Int("rows", count),
			)
		}
	}

	return nil
}

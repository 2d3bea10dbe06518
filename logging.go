package semsearch

import (
	"context"

	"go.uber.org/zap"
)

func LoggingMiddleware(log *zap.Logger) ServiceMiddleware {
	log = log.With(
		zap.String("service", "semsearch"),
	)

	return func(next Service) Service {
		log.Info("service initialized")

		return &loggingMiddleware{
			log:  log,
			next: next,
		}
	}
}

type loggingMiddleware struct {
	log  *zap.Logger
	next Service
}

func (mw *loggingMiddleware) Close() error {
	log := mw.log.With(
		zap.String("action", "close"),
	)

	err := mw.next.Close()
	if err != nil {
		log.Error(err.Error())
		return err
	}

	log.Info("service closed")
	return nil
}

func (mw *loggingMiddleware) AddDocuments(ctx context.Context, docs []Document, updateIfExists ...bool) (int, error) {
	upsert := false
	if len(updateIfExists) > 0 {
		upsert = updateIfExists[0]
	}

	log := mw.log.With(
		zap.String("action", "add_documents"),
		zap.Int("batch_size", len(docs)),
		zap.Bool("update_if_exists", upsert),
	)

	committed, err := mw.next.AddDocuments(ctx, docs, updateIfExists...)
	if err != nil {
		log.Error(err.Error())
		return 0, err
	}

	log.Info("documents added", zap.Int("committed", committed))
	return committed, nil
}

func (mw *loggingMiddleware) UpdateDocument(ctx context.Context, id int32, text string) error {
	log := mw.log.With(
		zap.String("action", "update_document"),
		zap.Int32("id", id),
	)

	err := mw.next.UpdateDocument(ctx, id, text)
	if err != nil {
		log.Error(err.Error())
		return err
	}

	log.Info("document updated")
	return nil
}

func (mw *loggingMiddleware) GetDocument(ctx context.Context, id int32) (*Document, error) {
	log := mw.log.With(
		zap.String("action", "get_document"),
		zap.Int32("id", id),
	)

	doc, err := mw.next.GetDocument(ctx, id)
	if err != nil {
		log.Error(err.Error())
		return nil, err
	}

	log.Info("document fetched", zap.Bool("found", doc != nil))
	return doc, nil
}

func (mw *loggingMiddleware) DeleteDocument(ctx context.Context, id int32) error {
	log := mw.log.With(
		zap.String("action", "delete_document"),
		zap.Int32("id", id),
	)

	err := mw.next.DeleteDocument(ctx, id)
	if err != nil {
		log.Error(err.Error())
		return err
	}

	log.Info("document deleted")
	return nil
}

func (mw *loggingMiddleware) SearchDocuments(ctx context.Context, query string, limit int, page ...int) ([]Document, error) {
	log := mw.log.With(
		zap.String("action", "search_documents"),
		zap.String("query", query),
	)

	if limit > 0 {
		log = log.With(
			zap.Int("limit", limit),
		)
	}

	docs, err := mw.next.SearchDocuments(ctx, query, limit, page...)
	if err != nil {
		log.Error(err.Error())
		return nil, err
	}

	log.Info("documents searched", zap.Int("count", len(docs)))
	return docs, nil
}

func (mw *loggingMiddleware) Optimize(ctx context.Context) error {
	log := mw.log.With(
		zap.String("action", "optimize"),
	)

	err := mw.next.Optimize(ctx)
	if err != nil {
		log.Error(err.Error())
		return err
	}

	log.Info("table optimized")
	return nil
}

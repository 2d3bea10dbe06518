package semsearch

import (
	"context"
	"errors"
)

func ProxyMiddleware(endpoints *EndpointSet) ServiceMiddleware {
	return func(next Service) Service {
		return &proxyMiddleware{
			endpoints: endpoints,
		}
	}
}

type proxyMiddleware struct {
	endpoints *EndpointSet
}

func (mw *proxyMiddleware) Close() error {
	return errors.New("method not implemented")
}

func (mw *proxyMiddleware) AddDocuments(ctx context.Context, docs []Document, updateIfExists ...bool) (int, error) {
	upsert := false
	if len(updateIfExists) > 0 {
		upsert = updateIfExists[0]
	}

	req := AddDocumentsRequest{
		Documents:      docs,
		UpdateIfExists: upsert,
	}

	resp, err := mw.endpoints.AddDocuments(ctx, req)
	if err != nil {
		return 0, err
	}

	result, ok := resp.(AddDocumentsResponse)
	if !ok {
		return 0, errors.New("invalid response type")
	}

	return result.Committed, nil
}

func (mw *proxyMiddleware) UpdateDocument(ctx context.Context, id int32, text string) error {
	req := UpdateDocumentRequest{
		ID:   id,
		Text: text,
	}

	_, err := mw.endpoints.UpdateDocument(ctx, req)
	return err
}

func (mw *proxyMiddleware) GetDocument(ctx context.Context, id int32) (*Document, error) {
	resp, err := mw.endpoints.GetDocument(ctx, id)
	if err != nil {
		return nil, err
	}

	if resp == nil {
		return nil, nil
	}

	doc, ok := resp.(*Document)
	if !ok {
		return nil, errors.New("invalid response type")
	}

	return doc, nil
}

func (mw *proxyMiddleware) DeleteDocument(ctx context.Context, id int32) error {
	_, err := mw.endpoints.DeleteDocument(ctx, id)
	return err
}

func (mw *proxyMiddleware) SearchDocuments(ctx context.Context, query string, limit int, page ...int) ([]Document, error) {
	p := 0
	if len(page) > 0 {
		p = page[0]
	}

	req := SearchDocumentsRequest{
		Query: query,
		Limit: limit,
		Page:  p,
	}

	resp, err := mw.endpoints.SearchDocuments(ctx, req)
	if err != nil {
		return nil, err
	}

	docs, ok := resp.([]Document)
	if !ok {
		return nil, errors.New("invalid response type")
	}

	return docs, nil
}

func (mw *proxyMiddleware) Optimize(ctx context.Context) error {
	_, err := mw.endpoints.Optimize(ctx, nil)
	return err
}

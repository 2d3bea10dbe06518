package semsearch

import (
	"context"
	"errors"

	"github.com/go-kit/kit/endpoint"
)

type EndpointSet struct {
	AddDocuments    endpoint.Endpoint
	UpdateDocument  endpoint.Endpoint
	GetDocument     endpoint.Endpoint
	DeleteDocument  endpoint.Endpoint
	SearchDocuments endpoint.Endpoint
	Optimize        endpoint.Endpoint
}

type AddDocumentsRequest struct {
	Documents      []Document `json:"documents"`
	UpdateIfExists bool       `json:"update_if_exists,omitempty"`
}

type AddDocumentsResponse struct {
	Committed int `json:"committed"`
}

func AddDocumentsEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(AddDocumentsRequest)
		if !ok {
			return nil, errors.New("invalid request type")
		}

		committed, err := svc.AddDocuments(ctx, req.Documents, req.UpdateIfExists)
		if err != nil {
			return nil, err
		}

		return AddDocumentsResponse{Committed: committed}, nil
	}
}

type UpdateDocumentRequest struct {
	ID   int32  `json:"id"`
	Text string `json:"text"`
}

func UpdateDocumentEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(UpdateDocumentRequest)
		if !ok {
			return nil, errors.New("invalid request type")
		}

		err := svc.UpdateDocument(ctx, req.ID, req.Text)
		return nil, err
	}
}

func GetDocumentEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		id, ok := request.(int32)
		if !ok {
			return nil, errors.New("invalid request type")
		}

		return svc.GetDocument(ctx, id)
	}
}

func DeleteDocumentEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		id, ok := request.(int32)
		if !ok {
			return nil, errors.New("invalid request type")
		}

		err := svc.DeleteDocument(ctx, id)
		return nil, err
	}
}

type SearchDocumentsRequest struct {
	Query string `json:"query" form:"q"`
	Limit int    `json:"limit,omitempty" form:"limit"`
	Page  int    `json:"page,omitempty" form:"page"`
}

func SearchDocumentsEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(SearchDocumentsRequest)
		if !ok {
			return nil, errors.New("invalid request type")
		}

		return svc.SearchDocuments(ctx, req.Query, req.Limit, req.Page)
	}
}

func OptimizeEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		err := svc.Optimize(ctx)
		return nil, err
	}
}

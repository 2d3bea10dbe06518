package nats

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"

	"github.com/go-kit/kit/endpoint"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/micro"

	"github.com/flarexio/semsearch"
)

func MakeEndpoints(nc *nats.Conn, prefix string) *semsearch.EndpointSet {
	return &semsearch.EndpointSet{
		AddDocuments:    AddDocumentsEndpoint(nc, prefix+".add_documents"),
		UpdateDocument:  UpdateDocumentEndpoint(nc, prefix+".update_document"),
		GetDocument:     GetDocumentEndpoint(nc, prefix+".get_document"),
		DeleteDocument:  DeleteDocumentEndpoint(nc, prefix+".delete_document"),
		SearchDocuments: SearchDocumentsEndpoint(nc, prefix+".search_documents"),
		Optimize:        OptimizeEndpoint(nc, prefix+".optimize"),
	}
}

func AddDocumentsEndpoint(nc *nats.Conn, topic string) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(semsearch.AddDocumentsRequest)
		if !ok {
			return nil, errors.New("invalid request")
		}

		data, err := json.Marshal(&req)
		if err != nil {
			return nil, err
		}

		msg, err := nc.Request(topic, data, nats.DefaultTimeout)
		if err != nil {
			return nil, err
		}

		if err := Error(msg); err != nil {
			return nil, err
		}

		var resp semsearch.AddDocumentsResponse
		if err := json.Unmarshal(msg.Data, &resp); err != nil {
			return nil, err
		}

		return resp, nil
	}
}

func UpdateDocumentEndpoint(nc *nats.Conn, topic string) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(semsearch.UpdateDocumentRequest)
		if !ok {
			return nil, errors.New("invalid request")
		}

		data, err := json.Marshal(&req)
		if err != nil {
			return nil, err
		}

		msg, err := nc.Request(topic, data, nats.DefaultTimeout)
		if err != nil {
			return nil, err
		}

		if err := Error(msg); err != nil {
			return nil, err
		}

		return string(msg.Data), nil
	}
}

func GetDocumentEndpoint(nc *nats.Conn, topic string) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		id, ok := request.(int32)
		if !ok {
			return nil, errors.New("invalid request")
		}

		data := strconv.FormatInt(int64(id), 10)

		msg, err := nc.Request(topic, []byte(data), nats.DefaultTimeout)
		if err != nil {
			return nil, err
		}

		if msg.Header.Get(micro.ErrorCodeHeader) == "404" {
			var doc *semsearch.Document
			return doc, nil
		}

		if err := Error(msg); err != nil {
			return nil, err
		}

		var doc *semsearch.Document
		if err := json.Unmarshal(msg.Data, &doc); err != nil {
			return nil, err
		}

		return doc, nil
	}
}

func DeleteDocumentEndpoint(nc *nats.Conn, topic string) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		id, ok := request.(int32)
		if !ok {
			return nil, errors.New("invalid request")
		}

		data := strconv.FormatInt(int64(id), 10)

		msg, err := nc.Request(topic, []byte(data), nats.DefaultTimeout)
		if err != nil {
			return nil, err
		}

		if err := Error(msg); err != nil {
			return nil, err
		}

		return string(msg.Data), nil
	}
}

func SearchDocumentsEndpoint(nc *nats.Conn, topic string) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(semsearch.SearchDocumentsRequest)
		if !ok {
			return nil, errors.New("invalid request")
		}

		data, err := json.Marshal(&req)
		if err != nil {
			return nil, err
		}

		msg, err := nc.Request(topic, data, nats.DefaultTimeout)
		if err != nil {
			return nil, err
		}

		if err := Error(msg); err != nil {
			return nil, err
		}

		var docs []semsearch.Document
		if err := json.Unmarshal(msg.Data, &docs); err != nil {
			return nil, err
		}

		return docs, nil
	}
}

func OptimizeEndpoint(nc *nats.Conn, topic string) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		msg, err := nc.Request(topic, nil, nats.DefaultTimeout)
		if err != nil {
			return nil, err
		}

		if err := Error(msg); err != nil {
			return nil, err
		}

		return string(msg.Data), nil
	}
}

func Error(msg *nats.Msg) error {
	if msg == nil {
		return errors.New("nil message")
	}

	code := msg.Header.Get(micro.ErrorCodeHeader)
	if code == "" {
		return nil
	}

	description := msg.Header.Get(micro.ErrorHeader)
	if description == "" {
		description = "unknown error"
	}

	return errors.New(code + ":" + description)
}

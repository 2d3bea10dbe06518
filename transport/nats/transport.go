package nats

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/go-kit/kit/endpoint"
	"github.com/nats-io/nats.go/micro"

	"github.com/flarexio/semsearch"
)

func AddDocumentsHandler(endpoint endpoint.Endpoint) micro.HandlerFunc {
	return func(r micro.Request) {
		var req semsearch.AddDocumentsRequest
		if err := json.Unmarshal(r.Data(), &req); err != nil {
			r.Error("400", err.Error(), nil)
			return
		}

		ctx := context.Background()
		resp, err := endpoint(ctx, req)
		if err != nil {
			r.Error(strconv.Itoa(semsearch.ErrorStatusCode(err)), err.Error(), nil)
			return
		}

		bs, err := json.Marshal(&resp)
		if err != nil {
			r.Error("500", err.Error(), nil)
			return
		}

		r.Respond(bs)
	}
}

func UpdateDocumentHandler(endpoint endpoint.Endpoint) micro.HandlerFunc {
	return func(r micro.Request) {
		var req semsearch.UpdateDocumentRequest
		if err := json.Unmarshal(r.Data(), &req); err != nil {
			r.Error("400", err.Error(), nil)
			return
		}

		ctx := context.Background()
		if _, err := endpoint(ctx, req); err != nil {
			r.Error(strconv.Itoa(semsearch.ErrorStatusCode(err)), err.Error(), nil)
			return
		}

		r.Respond([]byte("OK"))
	}
}

func GetDocumentHandler(endpoint endpoint.Endpoint) micro.HandlerFunc {
	return func(r micro.Request) {
		id, err := documentID(r.Data())
		if err != nil {
			r.Error("400", err.Error(), nil)
			return
		}

		ctx := context.Background()
		resp, err := endpoint(ctx, id)
		if err != nil {
			r.Error(strconv.Itoa(semsearch.ErrorStatusCode(err)), err.Error(), nil)
			return
		}

		doc, ok := resp.(*semsearch.Document)
		if !ok || doc == nil {
			r.Error("404", "document not found", nil)
			return
		}

		bs, err := json.Marshal(doc)
		if err != nil {
			r.Error("500", err.Error(), nil)
			return
		}

		r.Respond(bs)
	}
}

func DeleteDocumentHandler(endpoint endpoint.Endpoint) micro.HandlerFunc {
	return func(r micro.Request) {
		id, err := documentID(r.Data())
		if err != nil {
			r.Error("400", err.Error(), nil)
			return
		}

		ctx := context.Background()
		if _, err := endpoint(ctx, id); err != nil {
			r.Error(strconv.Itoa(semsearch.ErrorStatusCode(err)), err.Error(), nil)
			return
		}

		r.Respond([]byte("OK"))
	}
}

func SearchDocumentsHandler(endpoint endpoint.Endpoint) micro.HandlerFunc {
	return func(r micro.Request) {
		var req semsearch.SearchDocumentsRequest
		if err := json.Unmarshal(r.Data(), &req); err != nil {
			r.Error("400", err.Error(), nil)
			return
		}

		ctx := context.Background()
		resp, err := endpoint(ctx, req)
		if err != nil {
			r.Error(strconv.Itoa(semsearch.ErrorStatusCode(err)), err.Error(), nil)
			return
		}

		docs, ok := resp.([]semsearch.Document)
		if !ok {
			r.Error("500", "invalid response type", nil)
			return
		}

		bs, err := json.Marshal(docs)
		if err != nil {
			r.Error("500", err.Error(), nil)
			return
		}

		r.Respond(bs)
	}
}

func OptimizeHandler(endpoint endpoint.Endpoint) micro.HandlerFunc {
	return func(r micro.Request) {
		ctx := context.Background()
		if _, err := endpoint(ctx, nil); err != nil {
			r.Error(strconv.Itoa(semsearch.ErrorStatusCode(err)), err.Error(), nil)
			return
		}

		r.Respond([]byte("OK"))
	}
}

func documentID(data []byte) (int32, error) {
	id, err := strconv.ParseInt(string(data), 10, 32)
	if err != nil {
		return 0, err
	}

	return int32(id), nil
}

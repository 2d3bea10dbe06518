package nats

import (
	"github.com/nats-io/nats.go/micro"

	"github.com/flarexio/semsearch"
)

func AddEndpoints(group micro.Group, endpoints semsearch.EndpointSet) {
	group.AddEndpoint("add_documents", AddDocumentsHandler(endpoints.AddDocuments))
	group.AddEndpoint("update_document", UpdateDocumentHandler(endpoints.UpdateDocument))
	group.AddEndpoint("get_document", GetDocumentHandler(endpoints.GetDocument))
	group.AddEndpoint("delete_document", DeleteDocumentHandler(endpoints.DeleteDocument))
	group.AddEndpoint("search_documents", SearchDocumentsHandler(endpoints.SearchDocuments))
	group.AddEndpoint("optimize", OptimizeHandler(endpoints.Optimize))
}

package http

import (
	"github.com/gin-gonic/gin"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/flarexio/semsearch"

	mcpE "github.com/flarexio/semsearch/mcp"
)

func AddRouters(r *gin.Engine, endpoints semsearch.EndpointSet) {
	// RESTful API routes
	api := r.Group("/api")
	{
		api.POST("/documents", AddDocumentsHandler(endpoints.AddDocuments))
		api.PUT("/documents/:id", UpdateDocumentHandler(endpoints.UpdateDocument))
		api.GET("/documents/:id", GetDocumentHandler(endpoints.GetDocument))
		api.DELETE("/documents/:id", DeleteDocumentHandler(endpoints.DeleteDocument))
		api.GET("/search", SearchDocumentsHandler(endpoints.SearchDocuments))
		api.POST("/optimize", OptimizeHandler(endpoints.Optimize))
	}
}

func AddStreamableRouters(r *gin.Engine, endpoints map[mcp.MCPMethod]mcpE.MCPEndpoint) {
	mcp := r.Group("/mcp")
	{
		mcp.POST("/", MCPStreamableHandler(endpoints))
	}
}

package mcp

import (
	"context"
	"encoding/json"
	"slices"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/flarexio/semsearch"
)

type JSONRPCRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      mcp.RequestId   `json:"id"`
	Method  mcp.MCPMethod   `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// ErrorResponse builds a JSON-RPC error message for the given request id.
func ErrorResponse(id any, code int, message string) mcp.JSONRPCError {
	return mcp.JSONRPCError{
		JSONRPC: mcp.JSONRPC_VERSION,
		ID:      mcp.NewRequestId(id),
		Error: struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
			Data    any    `json:"data,omitempty"`
		}{
			Code:    code,
			Message: message,
		},
	}
}

type MCPEndpoint func(ctx context.Context, req JSONRPCRequest) mcp.JSONRPCMessage

const MCPSERVER_INSTRUCTIONS string = `Semsearch stores short text documents and retrieves them by meaning:

1. **Semantic Search**: Find documents with natural language queries
2. **Document Storage**: Store documents under caller-assigned ids
3. **Multilingual**: Documents and queries may be in different languages

Available tools:
- search_documents: Rank stored documents against a query
- add_document: Store a document, optionally replacing an existing one

Results are ranked by ascending vector distance.`

func documentTools() []mcp.Tool {
	search := mcp.NewTool("search_documents",
		mcp.WithDescription("Search stored documents by meaning"),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Natural language query"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of results, defaults to 10"),
		),
		mcp.WithNumber("page",
			mcp.Description("Zero-based result page"),
		),
	)

	add := mcp.NewTool("add_document",
		mcp.WithDescription("Store a document under a caller-assigned id"),
		mcp.WithNumber("id",
			mcp.Required(),
			mcp.Description("Unique document id"),
		),
		mcp.WithString("text",
			mcp.Required(),
			mcp.Description("Document text"),
		),
		mcp.WithBoolean("update_if_exists",
			mcp.Description("Replace the document if the id is already stored"),
		),
	)

	return []mcp.Tool{search, add}
}

func InitializeEndpoint(svc semsearch.Service) MCPEndpoint {
	return func(ctx context.Context, req JSONRPCRequest) mcp.JSONRPCMessage {
		var params mcp.InitializeParams
		if err := json.Unmarshal(req.Params, &params); err != nil {
			return ErrorResponse(req.ID, mcp.INVALID_PARAMS, err.Error())
		}

		protocolVersion := mcp.LATEST_PROTOCOL_VERSION
		if clientVersion := params.ProtocolVersion; clientVersion != "" {
			if slices.Contains(mcp.ValidProtocolVersions, clientVersion) {
				protocolVersion = clientVersion
			}
		}

		result := &mcp.InitializeResult{
			ProtocolVersion: protocolVersion,
			Capabilities: mcp.ServerCapabilities{
				Tools: &struct {
					ListChanged bool `json:"listChanged,omitempty"`
				}{},
			},
			ServerInfo: mcp.Implementation{
				Name:    "semsearch",
				Version: "1.0.0",
			},
			Instructions: MCPSERVER_INSTRUCTIONS,
		}

		return mcp.JSONRPCResponse{
			JSONRPC: mcp.JSONRPC_VERSION,
			ID:      req.ID,
			Result:  result,
		}
	}
}

func PingEndpoint(svc semsearch.Service) MCPEndpoint {
	return func(ctx context.Context, req JSONRPCRequest) mcp.JSONRPCMessage {
		return mcp.JSONRPCResponse{
			JSONRPC: mcp.JSONRPC_VERSION,
			ID:      req.ID,
			Result:  struct{}{}, // empty response
		}
	}
}

func ListToolsEndpoint(svc semsearch.Service) MCPEndpoint {
	return func(ctx context.Context, req JSONRPCRequest) mcp.JSONRPCMessage {
		result := &mcp.ListToolsResult{
			Tools: documentTools(),
		}

		return mcp.JSONRPCResponse{
			JSONRPC: mcp.JSONRPC_VERSION,
			ID:      req.ID,
			Result:  result,
		}
	}
}

func CallToolEndpoint(svc semsearch.Service) MCPEndpoint {
	return func(ctx context.Context, req JSONRPCRequest) mcp.JSONRPCMessage {
		var params mcp.CallToolParams
		if err := json.Unmarshal(req.Params, &params); err != nil {
			return ErrorResponse(req.ID, mcp.INVALID_PARAMS, err.Error())
		}

		args, _ := params.Arguments.(map[string]any)

		var result *mcp.CallToolResult

		switch params.Name {
		case "search_documents":
			query, ok := args["query"].(string)
			if !ok {
				return ErrorResponse(req.ID, mcp.INVALID_PARAMS, "query is required")
			}

			limit := 0
			if v, ok := args["limit"].(float64); ok {
				limit = int(v)
			}

			page := 0
			if v, ok := args["page"].(float64); ok {
				page = int(v)
			}

			docs, err := svc.SearchDocuments(ctx, query, limit, page)
			if err != nil {
				return ErrorResponse(req.ID, mcp.INTERNAL_ERROR, err.Error())
			}

			bs, err := json.Marshal(docs)
			if err != nil {
				return ErrorResponse(req.ID, mcp.INTERNAL_ERROR, err.Error())
			}

			result = mcp.NewToolResultText(string(bs))

		case "add_document":
			id, ok := args["id"].(float64)
			if !ok {
				return ErrorResponse(req.ID, mcp.INVALID_PARAMS, "id is required")
			}

			text, ok := args["text"].(string)
			if !ok {
				return ErrorResponse(req.ID, mcp.INVALID_PARAMS, "text is required")
			}

			upsert, _ := args["update_if_exists"].(bool)

			docs := []semsearch.Document{
				{ID: int32(id), Text: text},
			}

			if _, err := svc.AddDocuments(ctx, docs, upsert); err != nil {
				result = mcp.NewToolResultError(err.Error())
				break
			}

			result = mcp.NewToolResultText("OK")

		default:
			return ErrorResponse(req.ID, mcp.METHOD_NOT_FOUND, "unknown tool: "+params.Name)
		}

		return mcp.JSONRPCResponse{
			JSONRPC: mcp.JSONRPC_VERSION,
			ID:      req.ID,
			Result:  result,
		}
	}
}

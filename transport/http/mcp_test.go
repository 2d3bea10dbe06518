package http

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	mcpE "github.com/flarexio/semsearch/mcp"
)

func TestMCPStreamableHandlerUnknownMethod(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	AddStreamableRouters(r, make(map[mcp.MCPMethod]mcpE.MCPEndpoint))

	body := `{"jsonrpc":"2.0","id":1,"method":"tools/list"}`

	req := httptest.NewRequest(http.MethodPost, "/mcp/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "method not found")
}

func TestMCPStreamableHandlerDispatch(t *testing.T) {
	gin.SetMode(gin.TestMode)

	endpoints := make(map[mcp.MCPMethod]mcpE.MCPEndpoint)
	endpoints[mcp.MethodPing] = mcpE.PingEndpoint(nil)

	r := gin.New()
	AddStreamableRouters(r, endpoints)

	body := `{"jsonrpc":"2.0","id":1,"method":"ping"}`

	req := httptest.NewRequest(http.MethodPost, "/mcp/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"jsonrpc":"2.0"`)
}

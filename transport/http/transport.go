package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/go-kit/kit/endpoint"

	"github.com/flarexio/semsearch"
)

func AddDocumentsHandler(endpoint endpoint.Endpoint) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req semsearch.AddDocumentsRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.String(http.StatusBadRequest, err.Error())
			c.Error(err)
			c.Abort()
			return
		}

		ctx := c.Request.Context()
		resp, err := endpoint(ctx, req)
		if err != nil {
			c.String(semsearch.ErrorStatusCode(err), err.Error())
			c.Error(err)
			c.Abort()
			return
		}

		c.JSON(http.StatusOK, &resp)
	}
}

func UpdateDocumentHandler(endpoint endpoint.Endpoint) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := documentID(c)
		if err != nil {
			c.String(http.StatusBadRequest, err.Error())
			c.Error(err)
			c.Abort()
			return
		}

		var body struct {
			Text string `json:"text"`
		}

		if err := c.ShouldBindJSON(&body); err != nil {
			c.String(http.StatusBadRequest, err.Error())
			c.Error(err)
			c.Abort()
			return
		}

		req := semsearch.UpdateDocumentRequest{
			ID:   id,
			Text: body.Text,
		}

		ctx := c.Request.Context()
		if _, err := endpoint(ctx, req); err != nil {
			c.String(semsearch.ErrorStatusCode(err), err.Error())
			c.Error(err)
			c.Abort()
			return
		}

		c.String(http.StatusOK, "OK")
	}
}

func GetDocumentHandler(endpoint endpoint.Endpoint) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := documentID(c)
		if err != nil {
			c.String(http.StatusBadRequest, err.Error())
			c.Error(err)
			c.Abort()
			return
		}

		ctx := c.Request.Context()
		resp, err := endpoint(ctx, id)
		if err != nil {
			c.String(semsearch.ErrorStatusCode(err), err.Error())
			c.Error(err)
			c.Abort()
			return
		}

		doc, ok := resp.(*semsearch.Document)
		if !ok || doc == nil {
			c.String(http.StatusNotFound, "document not found")
			c.Abort()
			return
		}

		c.JSON(http.StatusOK, doc)
	}
}

func DeleteDocumentHandler(endpoint endpoint.Endpoint) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := documentID(c)
		if err != nil {
			c.String(http.StatusBadRequest, err.Error())
			c.Error(err)
			c.Abort()
			return
		}

		ctx := c.Request.Context()
		if _, err := endpoint(ctx, id); err != nil {
			c.String(semsearch.ErrorStatusCode(err), err.Error())
			c.Error(err)
			c.Abort()
			return
		}

		c.String(http.StatusOK, "OK")
	}
}

func SearchDocumentsHandler(endpoint endpoint.Endpoint) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req semsearch.SearchDocumentsRequest
		if err := c.ShouldBindQuery(&req); err != nil {
			c.String(http.StatusBadRequest, err.Error())
			c.Error(err)
			c.Abort()
			return
		}

		ctx := c.Request.Context()
		resp, err := endpoint(ctx, req)
		if err != nil {
			c.String(semsearch.ErrorStatusCode(err), err.Error())
			c.Error(err)
			c.Abort()
			return
		}

		c.JSON(http.StatusOK, &resp)
	}
}

func OptimizeHandler(endpoint endpoint.Endpoint) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		if _, err := endpoint(ctx, nil); err != nil {
			c.String(semsearch.ErrorStatusCode(err), err.Error())
			c.Error(err)
			c.Abort()
			return
		}

		c.String(http.StatusOK, "OK")
	}
}

func documentID(c *gin.Context) (int32, error) {
	param := c.Param("id")
	if param == "" {
		return 0, errors.New("document id is required")
	}

	id, err := strconv.ParseInt(param, 10, 32)
	if err != nil {
		return 0, err
	}

	return int32(id), nil
}

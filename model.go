package semsearch

import (
	"errors"
	"net/http"

	"github.com/flarexio/semsearch/embedding"
	"github.com/flarexio/semsearch/vector"
)

var (
	// ErrDuplicateInput means the same id appeared twice within one batch.
	ErrDuplicateInput = errors.New("duplicate document id in batch")

	// ErrAlreadyExists means an incoming id is already stored and
	// update-on-exists was not requested.
	ErrAlreadyExists = errors.New("document id already exists")
)

// ErrorStatusCode maps an error to the status surfaced by the transports,
// so clients can tell bad input from a backend failure.
func ErrorStatusCode(err error) int {
	switch {
	case errors.Is(err, ErrDuplicateInput):
		return http.StatusBadRequest
	case errors.Is(err, ErrAlreadyExists):
		return http.StatusConflict
	case errors.Is(err, embedding.ErrProvider), errors.Is(err, vector.ErrStorage):
		return http.StatusBadGateway
	default:
		return http.StatusExpectationFailed
	}
}

type Config struct {
	Vector    vector.Config    `yaml:"vector"`
	Embedding embedding.Config `yaml:"embedding"`
}

// Document is an (id, text, vector) triple. The vector is always the
// document-mode embedding of the text; the two are written together so they
// never disagree. Search results omit the vector.
type Document struct {
	ID     int32     `json:"id"`
	Text   string    `json:"text"`
	Vector []float32 `json:"vector,omitempty"`
}

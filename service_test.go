package semsearch

import (
	"context"
	"fmt"
	"hash/fnv"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/flarexio/semsearch/persistence/sqlite"
	"github.com/flarexio/semsearch/vector"
)

// fakeEmbedder maps the test corpus to hand-placed 4-dim vectors so rankings
// are known. Unknown texts get a deterministic hash-derived vector.
type fakeEmbedder struct {
	vectors map[string][]float32
}

func newFakeEmbedder() *fakeEmbedder {
	f := &fakeEmbedder{
		vectors: make(map[string][]float32),
	}

	f.vectors["The nucleus of an atom has which two particles?"] = []float32{1, 0, 0, 0}
	f.vectors["¿El núcleo de un átomo tiene cuáles dos partículas?"] = []float32{0.9, 0.1, 0, 0}
	f.vectors["What particle is found in a cloud around the nucleus of an atom?"] = []float32{0.1, 1, 0, 0}
	f.vectors["¿Qué partícula se encuentra en una nube alrededor del núcleo de un átomo?"] = []float32{0.1, 0.9, 0, 0}
	f.vectors["What kingdom do humans belong to?"] = []float32{0, 0, 1, 0}
	f.vectors["¿A qué reino pertenecen los humanos?"] = []float32{0, 0, 0.9, 0.1}

	f.vectors["Protons and neutrons"] = []float32{0.95, 0.05, 0, 0}
	f.vectors["Taxonomic ranks"] = []float32{0, 0, 0.95, 0.1}
	f.vectors["What is the capital of France?"] = []float32{0, 0, 0, 1}

	return f
}

func (f *fakeEmbedder) embed(texts []string) [][]float32 {
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		if vec, ok := f.vectors[text]; ok {
			vectors[i] = vec
			continue
		}

		h := fnv.New32a()
		h.Write([]byte(text))
		sum := h.Sum32()

		vec := make([]float32, 4)
		for j := range vec {
			vec[j] = float32((sum>>(8*j))&0xff) / 255
		}

		vectors[i] = vec
	}

	return vectors
}

func (f *fakeEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	return f.embed(texts), nil
}

func (f *fakeEmbedder) EmbedQueries(ctx context.Context, texts []string) ([][]float32, error) {
	return f.embed(texts), nil
}

func (f *fakeEmbedder) Dimensions() int {
	return 4
}

type semsearchTestSuite struct {
	suite.Suite
	ctx   context.Context
	svc   Service
	table vector.Table
}

func (suite *semsearchTestSuite) SetupTest() {
	ctx := context.Background()

	cfg := Config{
		Vector: vector.Config{
			Backend:    vector.BackendSQLite,
			Path:       filepath.Join(suite.T().TempDir(), "vectors.db"),
			Collection: "problems",
			Metric:     vector.MetricL2,
		},
	}

	db, err := sqlite.NewSQLiteVectorDB(cfg.Vector)
	if err != nil {
		suite.FailNow(err.Error())
		return
	}

	table, err := db.Table(cfg.Vector.Collection)
	if err != nil {
		suite.FailNow(err.Error())
		return
	}

	svc, err := NewService(cfg, db, newFakeEmbedder())
	if err != nil {
		suite.FailNow(err.Error())
		return
	}

	// Every other document is the same question as the prior one, in Spanish.
	seed := []Document{
		{ID: 0, Text: "The nucleus of an atom has which two particles?"},
		{ID: 1, Text: "¿El núcleo de un átomo tiene cuáles dos partículas?"},
		{ID: 2, Text: "What particle is found in a cloud around the nucleus of an atom?"},
		{ID: 3, Text: "¿Qué partícula se encuentra en una nube alrededor del núcleo de un átomo?"},
		{ID: 4, Text: "What kingdom do humans belong to?"},
		{ID: 5, Text: "¿A qué reino pertenecen los humanos?"},
	}

	committed, err := svc.AddDocuments(ctx, seed)
	if err != nil {
		suite.FailNow(err.Error())
		return
	}

	suite.Equal(6, committed)

	suite.ctx = ctx
	suite.svc = svc
	suite.table = table
}

func (suite *semsearchTestSuite) TearDownTest() {
	if suite.svc != nil {
		suite.svc.Close()
	}

	suite.svc = nil
	suite.table = nil
}

func (suite *semsearchTestSuite) TestGetDocument() {
	doc, err := suite.svc.GetDocument(suite.ctx, 0)
	if err != nil {
		suite.Fail(err.Error())
		return
	}

	suite.NotNil(doc)
	suite.Equal(int32(0), doc.ID)
	suite.Equal("The nucleus of an atom has which two particles?", doc.Text)
	suite.Len(doc.Vector, 4, "stored vector should come back with the row")
}

func (suite *semsearchTestSuite) TestGetAbsentDocument() {
	doc, err := suite.svc.GetDocument(suite.ctx, 42)
	suite.NoError(err)
	suite.Nil(doc)
}

func (suite *semsearchTestSuite) TestAddNewDocument() {
	// Note the lack of ID #6 - gaps are allowed.
	_, err := suite.svc.AddDocuments(suite.ctx, []Document{
		{ID: 7, Text: "What is the capital of France?"},
	})
	if err != nil {
		suite.Fail(err.Error())
		return
	}

	doc, err := suite.svc.GetDocument(suite.ctx, 7)
	if err != nil {
		suite.Fail(err.Error())
		return
	}

	suite.NotNil(doc)
	suite.Equal("What is the capital of France?", doc.Text)

	_, err = suite.svc.AddDocuments(suite.ctx, []Document{{ID: 7, Text: ""}})
	suite.ErrorIs(err, ErrAlreadyExists)
}

func (suite *semsearchTestSuite) TestAddExistingDocumentRejected() {
	_, err := suite.svc.AddDocuments(suite.ctx, []Document{
		{ID: 0, Text: "replacement text"},
	})
	suite.ErrorIs(err, ErrAlreadyExists)

	// The rejected batch must leave the stored row untouched.
	doc, err := suite.svc.GetDocument(suite.ctx, 0)
	suite.NoError(err)
	suite.Equal("The nucleus of an atom has which two particles?", doc.Text)
}

func (suite *semsearchTestSuite) TestAddExistingDocumentUpserted() {
	committed, err := suite.svc.AddDocuments(suite.ctx, []Document{
		{ID: 7, Text: "x"},
	})
	suite.NoError(err)
	suite.Equal(1, committed)

	committed, err = suite.svc.AddDocuments(suite.ctx, []Document{
		{ID: 7, Text: "y"},
	}, true)
	suite.NoError(err)
	suite.Equal(1, committed)

	doc, err := suite.svc.GetDocument(suite.ctx, 7)
	suite.NoError(err)
	suite.Equal("y", doc.Text)
}

func (suite *semsearchTestSuite) TestAddDuplicateInBatch() {
	for _, upsert := range []bool{false, true} {
		_, err := suite.svc.AddDocuments(suite.ctx, []Document{
			{ID: 8, Text: "x"},
			{ID: 8, Text: "y"},
		}, upsert)
		suite.ErrorIs(err, ErrDuplicateInput)
	}

	doc, err := suite.svc.GetDocument(suite.ctx, 8)
	suite.NoError(err)
	suite.Nil(doc, "a rejected batch must not write any row")
}

func (suite *semsearchTestSuite) TestAddMixedBatchUpserted() {
	committed, err := suite.svc.AddDocuments(suite.ctx, []Document{
		{ID: 4, Text: "What is the capital of France?"},
		{ID: 9, Text: "brand new"},
	}, true)
	suite.NoError(err)
	suite.Equal(2, committed)

	updated, err := suite.svc.GetDocument(suite.ctx, 4)
	suite.NoError(err)
	suite.Equal("What is the capital of France?", updated.Text)

	added, err := suite.svc.GetDocument(suite.ctx, 9)
	suite.NoError(err)
	suite.NotNil(added)
}

func (suite *semsearchTestSuite) TestUpdateDocument() {
	err := suite.svc.UpdateDocument(suite.ctx, 4, "What is the capital of France?")
	if err != nil {
		suite.Fail(err.Error())
		return
	}

	doc, err := suite.svc.GetDocument(suite.ctx, 4)
	suite.NoError(err)
	suite.Equal("What is the capital of France?", doc.Text)

	// The vector was recomputed with the text: the document no longer ranks
	// first for its old meaning.
	results, err := suite.svc.SearchDocuments(suite.ctx, "Taxonomic ranks", 0)
	if err != nil {
		suite.Fail(err.Error())
		return
	}

	suite.NotEmpty(results)
	suite.NotEqual(int32(4), results[0].ID)
	suite.Equal(int32(5), results[0].ID)
}

func (suite *semsearchTestSuite) TestUpdateAbsentDocument() {
	// The filtered update matches zero rows; no error, no row appears.
	err := suite.svc.UpdateDocument(suite.ctx, 42, "nothing")
	suite.NoError(err)

	doc, err := suite.svc.GetDocument(suite.ctx, 42)
	suite.NoError(err)
	suite.Nil(doc)
}

func (suite *semsearchTestSuite) TestDeleteDocument() {
	err := suite.svc.DeleteDocument(suite.ctx, 4)
	suite.NoError(err)

	doc, err := suite.svc.GetDocument(suite.ctx, 4)
	suite.NoError(err)
	suite.Nil(doc)

	// Deleting an absent id is a no-op, not an error.
	suite.NoError(suite.svc.DeleteDocument(suite.ctx, 4))
}

func (suite *semsearchTestSuite) TestSearchDocuments() {
	results, err := suite.svc.SearchDocuments(suite.ctx, "Protons and neutrons", 2)
	if err != nil {
		suite.Fail(err.Error())
		return
	}

	suite.Len(results, 2)
	suite.Contains([]int32{0, 1}, results[0].ID)
	suite.Contains([]int32{0, 1}, results[1].ID)

	limited, err := suite.svc.SearchDocuments(suite.ctx, "Protons and neutrons", 5)
	suite.NoError(err)
	suite.Len(limited, 5)

	// A limit above the row count returns everything, no padding, no error.
	all, err := suite.svc.SearchDocuments(suite.ctx, "Protons and neutrons", 100)
	suite.NoError(err)
	suite.Len(all, 6)
}

func (suite *semsearchTestSuite) TestSearchPagination() {
	full, err := suite.svc.SearchDocuments(suite.ctx, "Protons and neutrons", 6)
	if err != nil {
		suite.Fail(err.Error())
		return
	}

	suite.Len(full, 6)

	var paged []Document
	for page := 0; page < 3; page++ {
		window, err := suite.svc.SearchDocuments(suite.ctx, "Protons and neutrons", 2, page)
		suite.NoError(err)
		suite.Len(window, 2)

		paged = append(paged, window...)
	}

	// Concatenated pages must be exactly the unlimited ranking: no id
	// repeated, none skipped.
	suite.Equal(full, paged)

	empty, err := suite.svc.SearchDocuments(suite.ctx, "Protons and neutrons", 2, 3)
	suite.NoError(err)
	suite.Empty(empty)
}

func (suite *semsearchTestSuite) TestOptimizeIdempotent() {
	if err := suite.svc.Optimize(suite.ctx); err != nil {
		suite.Fail(err.Error())
		return
	}

	indices, err := suite.table.ListIndices(suite.ctx)
	suite.NoError(err)
	suite.Len(indices, 1, "only the scalar id index below the row threshold")
	suite.Equal(vector.IndexKindScalar, indices[0].Kind)

	suite.NoError(suite.svc.Optimize(suite.ctx))

	indices, err = suite.table.ListIndices(suite.ctx)
	suite.NoError(err)
	suite.Len(indices, 1)
}

func (suite *semsearchTestSuite) TestVectorIndexThreshold() {
	filler := make([]Document, minVectorIndexRows)
	for i := range filler {
		filler[i] = Document{
			ID:   int32(100 + i),
			Text: fmt.Sprintf("filler document %d", i),
		}
	}

	if _, err := suite.svc.AddDocuments(suite.ctx, filler); err != nil {
		suite.Fail(err.Error())
		return
	}

	if err := suite.svc.Optimize(suite.ctx); err != nil {
		suite.Fail(err.Error())
		return
	}

	indices, err := suite.table.ListIndices(suite.ctx)
	suite.NoError(err)
	suite.Len(indices, 2)
	suite.Contains(indices, vector.Index{Column: "vector", Kind: vector.IndexKindVector})
}

func TestSemsearchTestSuite(t *testing.T) {
	suite.Run(t, new(semsearchTestSuite))
}

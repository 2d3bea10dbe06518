package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flarexio/semsearch/vector"
)

func openTestTable(t *testing.T) vector.Table {
	t.Helper()

	cfg := vector.Config{
		Path:   filepath.Join(t.TempDir(), "vectors.db"),
		Metric: vector.MetricL2,
	}

	db, err := NewSQLiteVectorDB(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	table, err := db.Table("problems")
	require.NoError(t, err)

	return table
}

func seedRows(t *testing.T, table vector.Table) {
	t.Helper()

	rows := []vector.Row{
		{ID: 0, Text: "zero", Vector: []float32{0, 0}},
		{ID: 1, Text: "one", Vector: []float32{1, 0}},
		{ID: 2, Text: "two", Vector: []float32{2, 0}},
		{ID: 3, Text: "three", Vector: []float32{3, 0}},
	}

	require.NoError(t, table.Insert(context.Background(), rows))
}

func TestInsertAndGetByIDs(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	table := openTestTable(t)
	seedRows(t, table)

	count, err := table.Count(ctx)
	require.NoError(t, err)
	assert.Equal(4, count)

	rows, err := table.GetByIDs(ctx, []int32{1, 3, 99})
	require.NoError(t, err)
	require.Len(t, rows, 2)

	byID := make(map[int32]vector.Row, len(rows))
	for _, row := range rows {
		byID[row.ID] = row
	}

	assert.Equal("one", byID[1].Text)
	assert.Equal([]float32{1, 0}, byID[1].Vector)
	assert.Equal("three", byID[3].Text)
}

func TestUpdateWritesTextAndVectorTogether(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	table := openTestTable(t)
	seedRows(t, table)

	err := table.Update(ctx, 2, "deux", []float32{9, 9})
	require.NoError(t, err)

	rows, err := table.GetByIDs(ctx, []int32{2})
	require.NoError(t, err)
	require.Len(t, rows, 1)

	assert.Equal("deux", rows[0].Text)
	assert.Equal([]float32{9, 9}, rows[0].Vector)

	// Updating an absent id matches zero rows and is not an error.
	assert.NoError(table.Update(ctx, 42, "none", []float32{0, 0}))
}

func TestDelete(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	table := openTestTable(t)
	seedRows(t, table)

	require.NoError(t, table.Delete(ctx, 1))

	rows, err := table.GetByIDs(ctx, []int32{1})
	require.NoError(t, err)
	assert.Empty(rows)

	// Deleting an absent id is a no-op.
	assert.NoError(table.Delete(ctx, 1))
}

func TestSearchRankingAndLimit(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	table := openTestTable(t)
	seedRows(t, table)

	matches, err := table.Search(ctx, []float32{1.1, 0}, 2)
	require.NoError(t, err)
	require.Len(t, matches, 2)

	assert.Equal(int32(1), matches[0].ID)
	assert.Equal(int32(2), matches[1].ID)
	assert.Less(matches[0].Distance, matches[1].Distance)

	// A limit above the row count returns every row without error.
	all, err := table.Search(ctx, []float32{1.1, 0}, 100)
	require.NoError(t, err)
	assert.Len(all, 4)
}

func TestSearchStableOrderOnTies(t *testing.T) {
	ctx := context.Background()

	table := openTestTable(t)

	rows := []vector.Row{
		{ID: 7, Text: "a", Vector: []float32{1, 0}},
		{ID: 5, Text: "b", Vector: []float32{0, 1}},
		{ID: 6, Text: "c", Vector: []float32{-1, 0}},
	}
	require.NoError(t, table.Insert(ctx, rows))

	// All three rows are equidistant from the origin: ties break by id.
	matches, err := table.Search(ctx, []float32{0, 0}, 3)
	require.NoError(t, err)
	require.Len(t, matches, 3)

	assert.Equal(t, int32(5), matches[0].ID)
	assert.Equal(t, int32(6), matches[1].ID)
	assert.Equal(t, int32(7), matches[2].ID)
}

func TestIndexLifecycle(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	table := openTestTable(t)

	indices, err := table.ListIndices(ctx)
	require.NoError(t, err)
	assert.Empty(indices)

	require.NoError(t, table.CreateScalarIndex(ctx, "id"))
	require.NoError(t, table.CreateVectorIndex(ctx, "vector", vector.MetricL2))

	indices, err = table.ListIndices(ctx)
	require.NoError(t, err)
	assert.Len(indices, 2)

	assert.Contains(indices, vector.Index{Column: "id", Kind: vector.IndexKindScalar})
	assert.Contains(indices, vector.Index{Column: "vector", Kind: vector.IndexKindVector})

	// Creating the same indices again must not fail or duplicate them.
	require.NoError(t, table.CreateScalarIndex(ctx, "id"))
	require.NoError(t, table.CreateVectorIndex(ctx, "vector", vector.MetricL2))

	indices, err = table.ListIndices(ctx)
	require.NoError(t, err)
	assert.Len(indices, 2)
}

func TestOptimizeAndDrop(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	table := openTestTable(t)
	seedRows(t, table)

	require.NoError(t, table.CreateScalarIndex(ctx, "id"))
	assert.NoError(table.Optimize(ctx))

	require.NoError(t, table.Drop(ctx))

	indices, err := table.ListIndices(ctx)
	require.NoError(t, err)
	assert.Empty(indices)
}

func TestStorageErrorClassification(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	table := openTestTable(t)
	seedRows(t, table)

	require.NoError(t, table.Drop(ctx))

	// Driver failures surface as the storage error kind.
	_, err := table.Count(ctx)
	require.Error(t, err)
	assert.ErrorIs(err, vector.ErrStorage)

	err = table.Insert(ctx, []vector.Row{{ID: 9, Text: "nine", Vector: []float32{1}}})
	require.Error(t, err)
	assert.ErrorIs(err, vector.ErrStorage)

	_, err = table.Search(ctx, []float32{0}, 1)
	require.Error(t, err)
	assert.ErrorIs(err, vector.ErrStorage)
}

func TestVectorCodecRoundTrip(t *testing.T) {
	vec := []float32{0.1, -2.5, 3.25, 0}

	assert.Equal(t, vec, decodeVector(encodeVector(vec)))
	assert.Empty(t, decodeVector(encodeVector(nil)))
}

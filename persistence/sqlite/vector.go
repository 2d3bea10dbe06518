// Package sqlite backs the vector storage boundary with a SQLite database.
//
// Vectors are stored as little-endian float32 blobs. Similarity search is an
// exhaustive scan ranked by (distance, id), which keeps the order stable for
// a fixed query and table state. The vector index is a registered fact in a
// registry table: the engine itself has no ANN structure, so registering the
// index only tells callers not to ask for it again.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/flarexio/semsearch/vector"
)

const registrySchema = `
CREATE TABLE IF NOT EXISTS vector_index_registry (
    table_name  TEXT NOT NULL,
    column_name TEXT NOT NULL,
    metric      TEXT NOT NULL,
    PRIMARY KEY (table_name, column_name)
);
`

var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

func NewSQLiteVectorDB(cfg vector.Config) (vector.DB, error) {
	dsn := cfg.Path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, storageErr(err)
	}

	if _, err := db.Exec(registrySchema); err != nil {
		db.Close()
		return nil, storageErr(err)
	}

	metric := cfg.Metric
	if metric == "" {
		metric = vector.MetricL2
	}

	return &sqliteVectorDB{
		db:     db,
		metric: metric,
	}, nil
}

type sqliteVectorDB struct {
	db     *sql.DB
	metric vector.Metric
}

func (s *sqliteVectorDB) Table(name string) (vector.Table, error) {
	if !identPattern.MatchString(name) {
		return nil, fmt.Errorf("%w: invalid table name %q", vector.ErrStorage, name)
	}

	schema := fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
    id     INTEGER NOT NULL,
    text   TEXT NOT NULL,
    vector BLOB NOT NULL
);`, name)

	if _, err := s.db.Exec(schema); err != nil {
		return nil, storageErr(err)
	}

	return &table{
		db:     s.db,
		name:   name,
		metric: s.metric,
	}, nil
}

func (s *sqliteVectorDB) Close() error {
	return s.db.Close()
}

type table struct {
	db     *sql.DB
	name   string
	metric vector.Metric
}

func (t *table) Name() string {
	return t.name
}

func (t *table) Count(ctx context.Context) (int, error) {
	var count int

	query := fmt.Sprintf("SELECT COUNT(*) FROM %s", t.name)
	if err := t.db.QueryRowContext(ctx, query).Scan(&count); err != nil {
		return 0, storageErr(err)
	}

	return count, nil
}

func (t *table) Insert(ctx context.Context, rows []vector.Row) error {
	if len(rows) == 0 {
		return nil
	}

	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return storageErr(err)
	}
	defer tx.Rollback()

	query := fmt.Sprintf("INSERT INTO %s (id, text, vector) VALUES (?, ?, ?)", t.name)

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return storageErr(err)
	}
	defer stmt.Close()

	for _, row := range rows {
		if _, err := stmt.ExecContext(ctx, row.ID, row.Text, encodeVector(row.Vector)); err != nil {
			return storageErr(err)
		}
	}

	return storageErr(tx.Commit())
}

func (t *table) GetByIDs(ctx context.Context, ids []int32) ([]vector.Row, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	query := fmt.Sprintf("SELECT id, text, vector FROM %s WHERE id IN (%s)", t.name, placeholders)

	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	result, err := t.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storageErr(err)
	}
	defer result.Close()

	var rows []vector.Row
	for result.Next() {
		var (
			row  vector.Row
			blob []byte
		)

		if err := result.Scan(&row.ID, &row.Text, &blob); err != nil {
			return nil, storageErr(err)
		}

		row.Vector = decodeVector(blob)
		rows = append(rows, row)
	}

	return rows, storageErr(result.Err())
}

func (t *table) Update(ctx context.Context, id int32, text string, vec []float32) error {
	query := fmt.Sprintf("UPDATE %s SET text = ?, vector = ? WHERE id = ?", t.name)

	_, err := t.db.ExecContext(ctx, query, text, encodeVector(vec), id)
	return storageErr(err)
}

func (t *table) Delete(ctx context.Context, id int32) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE id = ?", t.name)

	_, err := t.db.ExecContext(ctx, query, id)
	return storageErr(err)
}

func (t *table) ListIndices(ctx context.Context) ([]vector.Index, error) {
	var indices []vector.Index

	query := "SELECT name FROM sqlite_master WHERE type = 'index' AND tbl_name = ?"

	result, err := t.db.QueryContext(ctx, query, t.name)
	if err != nil {
		return nil, storageErr(err)
	}
	defer result.Close()

	prefix := "idx_" + t.name + "_"

	for result.Next() {
		var name string
		if err := result.Scan(&name); err != nil {
			return nil, storageErr(err)
		}

		column, ok := strings.CutPrefix(name, prefix)
		if !ok {
			continue
		}

		indices = append(indices, vector.Index{
			Column: column,
			Kind:   vector.IndexKindScalar,
		})
	}

	if err := result.Err(); err != nil {
		return nil, storageErr(err)
	}

	registered, err := t.db.QueryContext(ctx,
		"SELECT column_name FROM vector_index_registry WHERE table_name = ?", t.name)
	if err != nil {
		return nil, storageErr(err)
	}
	defer registered.Close()

	for registered.Next() {
		var column string
		if err := registered.Scan(&column); err != nil {
			return nil, storageErr(err)
		}

		indices = append(indices, vector.Index{
			Column: column,
			Kind:   vector.IndexKindVector,
		})
	}

	return indices, storageErr(registered.Err())
}

func (t *table) CreateScalarIndex(ctx context.Context, column string) error {
	if !identPattern.MatchString(column) {
		return fmt.Errorf("%w: invalid column name %q", vector.ErrStorage, column)
	}

	query := fmt.Sprintf("CREATE INDEX IF NOT EXISTS idx_%s_%s ON %s (%s)",
		t.name, column, t.name, column)

	_, err := t.db.ExecContext(ctx, query)
	return storageErr(err)
}

func (t *table) CreateVectorIndex(ctx context.Context, column string, metric vector.Metric) error {
	if !identPattern.MatchString(column) {
		return fmt.Errorf("%w: invalid column name %q", vector.ErrStorage, column)
	}

	query := "INSERT OR IGNORE INTO vector_index_registry (table_name, column_name, metric) VALUES (?, ?, ?)"

	_, err := t.db.ExecContext(ctx, query, t.name, column, string(metric))
	return storageErr(err)
}

func (t *table) Search(ctx context.Context, vec []float32, limit int) ([]vector.Match, error) {
	if limit <= 0 {
		return []vector.Match{}, nil
	}

	query := fmt.Sprintf("SELECT id, text, vector FROM %s", t.name)

	result, err := t.db.QueryContext(ctx, query)
	if err != nil {
		return nil, storageErr(err)
	}
	defer result.Close()

	var matches []vector.Match
	for result.Next() {
		var (
			id   int32
			text string
			blob []byte
		)

		if err := result.Scan(&id, &text, &blob); err != nil {
			return nil, storageErr(err)
		}

		matches = append(matches, vector.Match{
			ID:       id,
			Text:     text,
			Distance: t.metric.Distance(vec, decodeVector(blob)),
		})
	}

	if err := result.Err(); err != nil {
		return nil, storageErr(err)
	}

	// Rank by distance, then id, so equal-distance rows keep a stable order
	// across repeated queries and page windows.
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Distance != matches[j].Distance {
			return matches[i].Distance < matches[j].Distance
		}

		return matches[i].ID < matches[j].ID
	})

	if len(matches) > limit {
		matches = matches[:limit]
	}

	return matches, nil
}

func (t *table) Optimize(ctx context.Context) error {
	if _, err := t.db.ExecContext(ctx, fmt.Sprintf("ANALYZE %s", t.name)); err != nil {
		return storageErr(err)
	}

	_, err := t.db.ExecContext(ctx, "PRAGMA optimize")
	return storageErr(err)
}

func (t *table) Drop(ctx context.Context) error {
	if _, err := t.db.ExecContext(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %s", t.name)); err != nil {
		return storageErr(err)
	}

	_, err := t.db.ExecContext(ctx,
		"DELETE FROM vector_index_registry WHERE table_name = ?", t.name)
	return storageErr(err)
}

// storageErr marks a driver failure as a storage error so callers can
// classify it with errors.Is. A nil error passes through untouched.
func storageErr(err error) error {
	if err == nil {
		return nil
	}

	return fmt.Errorf("%w: %v", vector.ErrStorage, err)
}

func encodeVector(vec []float32) []byte {
	buf := make([]byte, 4*len(vec))
	for i, v := range vec {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}

	return buf
}

func decodeVector(buf []byte) []float32 {
	vec := make([]float32, len(buf)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
	}

	return vec
}

package vector

import (
	"context"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

// ErrStorage marks failures raised by the vector storage engine. Callers can
// classify backend errors with errors.Is without depending on a concrete
// backend.
var ErrStorage = errors.New("vector storage error")

type Backend string

const (
	BackendSQLite  Backend = "sqlite"
	BackendChromem Backend = "chromem"
)

type Config struct {
	Backend    Backend `yaml:"backend"`
	Path       string  `yaml:"path"`
	Collection string  `yaml:"collection"`
	Metric     Metric  `yaml:"metric"`
}

// Metric selects the distance function used to rank nearest neighbors.
type Metric string

const (
	// MetricL2 is squared Euclidean distance.
	MetricL2     Metric = "l2"
	MetricCosine Metric = "cosine"
	MetricDot    Metric = "dot"
)

func ParseMetric(s string) (Metric, error) {
	switch Metric(s) {
	case MetricL2, MetricCosine, MetricDot:
		return Metric(s), nil
	default:
		return "", fmt.Errorf("unknown distance metric: %q", s)
	}
}

func (m *Metric) UnmarshalYAML(value *yaml.Node) error {
	var str string
	if err := value.Decode(&str); err != nil {
		return err
	}

	if str == "" {
		*m = MetricL2
		return nil
	}

	metric, err := ParseMetric(str)
	if err != nil {
		return err
	}

	*m = metric
	return nil
}

type IndexKind string

const (
	IndexKindScalar IndexKind = "scalar"
	IndexKindVector IndexKind = "vector"
)

// Index is an "index exists" fact for a single table column, discoverable
// through Table.ListIndices.
type Index struct {
	Column string
	Kind   IndexKind
}

// Row is a stored document as the storage engine sees it: a caller-assigned
// identifier, the source text and the embedding computed from that text.
type Row struct {
	ID     int32
	Text   string
	Vector []float32
}

// Match is one similarity search result. The vector column is not projected;
// only id, text and the computed distance come back.
type Match struct {
	ID       int32
	Text     string
	Distance float32
}

// DB is a connection to a vector storage engine.
type DB interface {
	// Table opens the named table, creating it if absent.
	Table(name string) (Table, error)

	Close() error
}

// Table is a named collection of rows with scan, mutation, index and
// similarity search operations. Implementations must keep serving reads
// while Optimize runs.
type Table interface {
	Name() string

	Count(ctx context.Context) (int, error)

	// Insert appends rows in one bulk operation.
	Insert(ctx context.Context, rows []Row) error

	// GetByIDs returns the rows whose id is in ids. Missing ids are simply
	// not part of the result.
	GetByIDs(ctx context.Context, ids []int32) ([]Row, error)

	// Update writes text and vector together to the row matching id.
	// Matching zero rows is not an error.
	Update(ctx context.Context, id int32, text string, vec []float32) error

	// Delete removes the row matching id. Matching zero rows is not an error.
	Delete(ctx context.Context, id int32) error

	ListIndices(ctx context.Context) ([]Index, error)

	CreateScalarIndex(ctx context.Context, column string) error

	CreateVectorIndex(ctx context.Context, column string, metric Metric) error

	// Search returns up to limit rows ranked by ascending distance to vec.
	// The order must be deterministic for a fixed vec and table state.
	Search(ctx context.Context, vec []float32, limit int) ([]Match, error)

	// Optimize triggers background compaction. Long-running; callers set
	// their own timeouts.
	Optimize(ctx context.Context) error

	Drop(ctx context.Context) error
}

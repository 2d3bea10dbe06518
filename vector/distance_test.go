package vector

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMetricDistance(t *testing.T) {
	assert := assert.New(t)

	a := []float32{1, 0, 2}
	b := []float32{0, 1, 2}

	assert.InDelta(2.0, MetricL2.Distance(a, b), 1e-6)
	assert.InDelta(-4.0, MetricDot.Distance(a, b), 1e-6)

	// cos = 4 / (sqrt(5)*sqrt(5)) = 0.8
	assert.InDelta(0.2, MetricCosine.Distance(a, b), 1e-6)
}

func TestMetricDistanceIdentical(t *testing.T) {
	assert := assert.New(t)

	v := []float32{0.3, 0.4, 0.5}

	assert.InDelta(0.0, MetricL2.Distance(v, v), 1e-6)
	assert.InDelta(0.0, MetricCosine.Distance(v, v), 1e-6)
}

func TestMetricCosineZeroVector(t *testing.T) {
	zero := []float32{0, 0}
	v := []float32{1, 1}

	assert.InDelta(t, 1.0, MetricCosine.Distance(zero, v), 1e-6)
}

func TestParseMetric(t *testing.T) {
	assert := assert.New(t)

	for _, s := range []string{"l2", "cosine", "dot"} {
		m, err := ParseMetric(s)
		assert.NoError(err)
		assert.Equal(Metric(s), m)
	}

	_, err := ParseMetric("manhattan")
	assert.Error(err)
}

package vector

import "math"

// Distance computes the metric's distance between two equal-length vectors.
// Smaller always means closer; dot product is negated so ascending order
// still ranks the most similar vector first.
func (m Metric) Distance(a, b []float32) float32 {
	switch m {
	case MetricCosine:
		return cosineDistance(a, b)
	case MetricDot:
		return -dot(a, b)
	default:
		return squaredL2(a, b)
	}
}

func squaredL2(a, b []float32) float32 {
	var sum float32
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}

	return sum
}

func dot(a, b []float32) float32 {
	var sum float32
	for i := range a {
		sum += a[i] * b[i]
	}

	return sum
}

func cosineDistance(a, b []float32) float32 {
	var dotAB, normA, normB float64
	for i := range a {
		dotAB += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 1
	}

	return float32(1 - dotAB/math.Sqrt(normA*normB))
}

// Package stats provides roster statistics and workload analysis.
package stats

import (
	"math"
	"sort"
)

// WorkloadMetrics describes how evenly hours are spread over the driver pool.
type WorkloadMetrics struct {
	Gini     float64 `json:"gini"` // 0 = perfectly even, 1 = maximally skewed
	Variance float64 `json:"variance"`
	StdDev   float64 `json:"std_dev"`
	Mean     float64 `json:"mean"`
	Max      float64 `json:"max"`
	Min      float64 `json:"min"`
	Range    float64 `json:"range"`
}

// AnalyzeWorkload computes distribution metrics over per-driver hours.
func AnalyzeWorkload(hours []float64) WorkloadMetrics {
	if len(hours) == 0 {
		return WorkloadMetrics{}
	}
	mean := Mean(hours)
	variance := Variance(hours, mean)
	max, min := rangeOf(hours)
	return WorkloadMetrics{
		Gini:     Gini(hours),
		Variance: variance,
		StdDev:   math.Sqrt(variance),
		Mean:     mean,
		Max:      max,
		Min:      min,
		Range:    max - min,
	}
}

// Mean returns the arithmetic mean.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// Variance returns the population variance around a known mean.
func Variance(values []float64, mean float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		d := v - mean
		sum += d * d
	}
	return sum / float64(len(values))
}

// Gini computes the Gini coefficient of a non-negative distribution.
func Gini(values []float64) float64 {
	n := len(values)
	if n == 0 {
		return 0
	}
	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	var cumulative, total float64
	for i, v := range sorted {
		cumulative += v * float64(i+1)
		total += v
	}
	if total == 0 {
		return 0
	}
	return (2*cumulative)/(float64(n)*total) - float64(n+1)/float64(n)
}

func rangeOf(values []float64) (max, min float64) {
	max, min = values[0], values[0]
	for _, v := range values[1:] {
		if v > max {
			max = v
		}
		if v < min {
			min = v
		}
	}
	return max, min
}

package stats

import (
	"math"
	"sort"
)

func values(data []Measurement, metric Metric) []float64 {
	out := make([]float64, len(data))
	for i, m := range data {
		out[i] = metric.Of(m)
	}
	return out
}

// Median returns the middle value of the metric, averaging the two middle
// values for an even count. An empty input yields 0. The input is not
// reordered.
func Median(data []Measurement, metric Metric) float64 {
	if len(data) == 0 {
		return 0
	}
	sorted := values(data, metric)
	sort.Float64s(sorted)
	half := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[half-1] + sorted[half]) / 2
	}
	return sorted[half]
}

// Mean returns the arithmetic mean, summing in input order. NaN when empty.
func Mean(data []Measurement, metric Metric) float64 {
	if len(data) == 0 {
		return math.NaN()
	}
	var sum float64
	for _, m := range data {
		sum += metric.Of(m)
	}
	return sum / float64(len(data))
}

// Min returns the smallest value of the metric. NaN when empty.
func Min(data []Measurement, metric Metric) float64 {
	if len(data) == 0 {
		return math.NaN()
	}
	lowest := metric.Of(data[0])
	for _, m := range data[1:] {
		if v := metric.Of(m); v < lowest {
			lowest = v
		}
	}
	return lowest
}

// Max returns the largest value of the metric. NaN when empty.
func Max(data []Measurement, metric Metric) float64 {
	if len(data) == 0 {
		return math.NaN()
	}
	highest := metric.Of(data[0])
	for _, m := range data[1:] {
		if v := metric.Of(m); v > highest {
			highest = v
		}
	}
	return highest
}

// Summarize computes all four statistics for one metric.
func Summarize(data []Measurement, metric Metric) Summary {
	return Summary{
		Median: Median(data, metric),
		Mean:   Mean(data, metric),
		Min:    Min(data, metric),
		Max:    Max(data, metric),
	}
}

package stats

import (
	"math"
	"slices"
)

// Summary describes one output sequence of a simulation run.
type Summary struct {
	Trials int     `json:"trials"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
	Min    int     `json:"min"`
	Max    int     `json:"max"`
	Median float64 `json:"median"`
	P10    int     `json:"p10"`
	P90    int     `json:"p90"`
}

// Summarize computes the population mean and standard deviation, extremes,
// median and the 10th/90th percentiles (nearest rank).
func Summarize(xs []int) Summary {
	s := Summary{Trials: len(xs)}
	if len(xs) == 0 {
		return s
	}
	sorted := slices.Clone(xs)
	slices.Sort(sorted)
	s.Min, s.Max = sorted[0], sorted[len(sorted)-1]

	var sum float64
	for _, x := range xs {
		sum += float64(x)
	}
	s.Mean = sum / float64(len(xs))
	var sq float64
	for _, x := range xs {
		d := float64(x) - s.Mean
		sq += d * d
	}
	s.StdDev = math.Sqrt(sq / float64(len(xs)))

	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		s.Median = float64(sorted[mid])
	} else {
		s.Median = float64(sorted[mid-1]+sorted[mid]) / 2
	}
	s.P10 = percentile(sorted, 10)
	s.P90 = percentile(sorted, 90)
	return s
}

func percentile(sorted []int, p int) int {
	rank := int(math.Ceil(float64(p) / 100 * float64(len(sorted))))
	return sorted[max(0, rank-1)]
}

// AtLeast returns, for every n from 0 to the maximum, the fraction of
// trials whose value was n or more. out[0] is always 1.
func AtLeast(xs []int) []float64 {
	if len(xs) == 0 {
		return nil
	}
	hist := Histogram(xs)
	out := make([]float64, len(hist))
	running := 0
	for n := len(hist) - 1; n >= 0; n-- {
		running += hist[n]
		out[n] = float64(running) / float64(len(xs))
	}
	return out
}

// Histogram counts trials per value. Negative values are counted as 0.
func Histogram(xs []int) []int {
	top := 0
	for _, x := range xs {
		top = max(top, x)
	}
	hist := make([]int, top+1)
	for _, x := range xs {
		hist[max(0, x)]++
	}
	return hist
}

// Package stats reduces numeric samples to order statistics and moments.
package stats

import (
	"math"
	"slices"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Number is any integer or floating-point element type.
type Number interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 |
		~float32 | ~float64
}

// Summary is the fixed reduction of one sample. Min, Max and the deciles
// keep the element type; everything else is floating point.
type Summary[T Number] struct {
	Count  int
	Median float64
	Min    T
	Max    T
	Mean   float64

	// Raw moments: mean of v^k.
	Raw2, Raw3, Raw4 float64
	// Central moments: mean of (v-Mean)^k.
	Central2, Central3, Central4 float64

	// P10 and P90 are sorted[n/10] and sorted[n-n/10].
	P10, P90 T
}

// Summarize reduces sample. It reports false and does nothing else for an
// empty sample. The input is not reordered.
func Summarize[T Number](sample []T) (Summary[T], bool) {
	n := len(sample)
	if n == 0 {
		return Summary[T]{}, false
	}

	sorted := slices.Clone(sample)
	slices.Sort(sorted)

	xs := toFloats(sample)
	mean := stat.Mean(xs, nil)

	return Summary[T]{
		Count:    n,
		Median:   medianSorted(sorted),
		Min:      sorted[0],
		Max:      sorted[n-1],
		Mean:     mean,
		Raw2:     stat.MomentAbout(2, xs, 0, nil),
		Raw3:     stat.MomentAbout(3, xs, 0, nil),
		Raw4:     stat.MomentAbout(4, xs, 0, nil),
		Central2: stat.MomentAbout(2, xs, mean, nil),
		Central3: stat.MomentAbout(3, xs, mean, nil),
		Central4: stat.MomentAbout(4, xs, mean, nil),
		P10:      sorted[n/10],
		P90:      sorted[min(n-n/10, n-1)],
	}, true
}

// Median returns the middle value of the sample, or the mean of the two
// middle values when the size is even. It returns NaN for an empty sample.
func Median[T Number](values []T) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	sorted := slices.Clone(values)
	slices.Sort(sorted)
	return medianSorted(sorted)
}

func medianSorted[T Number](sorted []T) float64 {
	n := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return float64(sorted[n])
	}
	return 0.5 * (float64(sorted[n-1]) + float64(sorted[n]))
}

// Normalize takes log10 of every positive value and scales the logs by the
// inverse of their mean, so a sample of power-law sizes collapses onto a
// mean of one. Non-positive values have no logarithm and are dropped. When
// the mean log is zero the logs are returned unscaled.
func Normalize[T Number](raw []T) []float64 {
	logs := make([]float64, 0, len(raw))
	for _, v := range raw {
		if v <= 0 {
			continue
		}
		logs = append(logs, math.Log10(float64(v)))
	}
	if len(logs) == 0 {
		return logs
	}
	if mean := stat.Mean(logs, nil); mean != 0 {
		floats.Scale(1/mean, logs)
	}
	return logs
}

// Bin is one histogram bucket. Upper is the bucket's upper edge.
type Bin struct {
	Upper float64
	Count int
}

// Histogram buckets data into bins of width frame and returns, in ascending
// order, the bins holding at least threshold values.
func Histogram(data []float64, frame float64, threshold int) []Bin {
	if frame <= 0 || len(data) == 0 {
		return nil
	}
	counts := make(map[int]int)
	for _, v := range data {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		counts[int(math.Floor(v/frame))]++
	}

	keys := make([]int, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Ints(keys)

	var bins []Bin
	for _, k := range keys {
		if c := counts[k]; c >= threshold {
			bins = append(bins, Bin{Upper: float64(k+1) * frame, Count: c})
		}
	}
	return bins
}

func toFloats[T Number](sample []T) []float64 {
	xs := make([]float64, len(sample))
	for i, v := range sample {
		xs[i] = float64(v)
	}
	return xs
}

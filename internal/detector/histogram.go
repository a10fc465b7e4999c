package detector

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

const DefaultHistogramBins = 20

// Histogram is the frequency distribution of message lengths over the
// full annotated corpus, for the presentation layer's chart.
type Histogram struct {
	Edges  []float64 `json:"edges"` // len(Counts)+1 bin boundaries
	Counts []int     `json:"counts"`
}

func LengthHistogram(records []Annotated, bins int) Histogram {
	if bins <= 0 {
		bins = DefaultHistogramBins
	}
	if len(records) == 0 {
		return Histogram{Edges: []float64{}, Counts: []int{}}
	}

	xs := make([]float64, len(records))
	for i, r := range records {
		xs[i] = float64(r.Length)
	}
	sort.Float64s(xs)

	lo, hi := xs[0], xs[len(xs)-1]
	if lo == hi {
		hi = lo + 1
	}
	edges := make([]float64, bins+1)
	width := (hi - lo) / float64(bins)
	for i := range edges {
		edges[i] = lo + width*float64(i)
	}
	// gonum requires max(x) < last divider
	edges[bins] = math.Nextafter(hi, math.Inf(1))

	counts := stat.Histogram(nil, edges, xs, nil)
	out := Histogram{Edges: edges, Counts: make([]int, len(counts))}
	for i, c := range counts {
		out.Counts[i] = int(c)
	}
	return out
}

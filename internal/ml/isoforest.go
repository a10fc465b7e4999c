package ml

import (
	"errors"
	"math"
	"math/rand"
)

// Isolation forest over a single scalar feature (Liu, Ting, Zhou 2008).
// The forest is rebuilt from scratch on every Fit; a fixed Seed makes
// Fit+Score deterministic for a fixed input.

type ForestConfig struct {
	Trees      int
	SampleSize int
	Seed       int64
}

func DefaultForestConfig() ForestConfig {
	return ForestConfig{Trees: 100, SampleSize: 256, Seed: 42}
}

var (
	ErrEmptyFit   = errors.New("ml: fit on empty sample")
	ErrBadFeature = errors.New("ml: feature is NaN or infinite")
)

type node struct {
	split       float64
	left, right *node
	size        int // population of external nodes
}

func (n *node) leaf() bool { return n.left == nil }

type IsolationForest struct {
	cfg   ForestConfig
	roots []*node
	cPsi  float64 // normalizer c(sampleSize)
}

func NewIsolationForest(cfg ForestConfig) *IsolationForest {
	if cfg.Trees <= 0 {
		cfg.Trees = 100
	}
	if cfg.SampleSize <= 0 {
		cfg.SampleSize = 256
	}
	return &IsolationForest{cfg: cfg}
}

// Fit builds the ensemble on xs. Trees are grown sequentially from one
// seeded source so the forest is reproducible.
func (f *IsolationForest) Fit(xs []float64) error {
	if len(xs) == 0 {
		return ErrEmptyFit
	}
	for _, x := range xs {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return ErrBadFeature
		}
	}
	rng := rand.New(rand.NewSource(f.cfg.Seed))

	psi := f.cfg.SampleSize
	if psi > len(xs) {
		psi = len(xs)
	}
	maxDepth := int(math.Ceil(math.Log2(float64(psi)))) + 1

	f.roots = make([]*node, f.cfg.Trees)
	for i := range f.roots {
		sample := subsample(rng, xs, psi)
		f.roots[i] = grow(rng, sample, 0, maxDepth)
	}
	f.cPsi = avgPathLen(psi)
	return nil
}

// Score returns the anomaly score of x in [0, 1]; values near 1 isolate
// quickly and are anomalous, values near 0.5 and below are ordinary.
func (f *IsolationForest) Score(x float64) (float64, error) {
	if f.roots == nil {
		return 0, errors.New("ml: score before fit")
	}
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return 0, ErrBadFeature
	}
	var sum float64
	for _, root := range f.roots {
		sum += pathLen(root, x, 0)
	}
	avg := sum / float64(len(f.roots))
	if f.cPsi == 0 {
		return 0.5, nil
	}
	return math.Pow(2, -avg/f.cPsi), nil
}

func (f *IsolationForest) Scores(xs []float64) ([]float64, error) {
	out := make([]float64, len(xs))
	for i, x := range xs {
		s, err := f.Score(x)
		if err != nil {
			return nil, err
		}
		out[i] = s
	}
	return out, nil
}

func subsample(rng *rand.Rand, xs []float64, psi int) []float64 {
	if psi >= len(xs) {
		out := make([]float64, len(xs))
		copy(out, xs)
		return out
	}
	idx := rng.Perm(len(xs))[:psi]
	out := make([]float64, psi)
	for i, j := range idx {
		out[i] = xs[j]
	}
	return out
}

func grow(rng *rand.Rand, xs []float64, depth, maxDepth int) *node {
	if len(xs) <= 1 || depth >= maxDepth {
		return &node{size: len(xs)}
	}
	lo, hi := xs[0], xs[0]
	for _, x := range xs[1:] {
		if x < lo {
			lo = x
		}
		if x > hi {
			hi = x
		}
	}
	if lo == hi {
		return &node{size: len(xs)}
	}
	split := lo + rng.Float64()*(hi-lo)
	var left, right []float64
	for _, x := range xs {
		if x < split {
			left = append(left, x)
		} else {
			right = append(right, x)
		}
	}
	return &node{
		split: split,
		left:  grow(rng, left, depth+1, maxDepth),
		right: grow(rng, right, depth+1, maxDepth),
	}
}

func pathLen(n *node, x float64, depth int) float64 {
	if n.leaf() {
		return float64(depth) + avgPathLen(n.size)
	}
	if x < n.split {
		return pathLen(n.left, x, depth+1)
	}
	return pathLen(n.right, x, depth+1)
}

const eulerMascheroni = 0.5772156649

// avgPathLen is c(n), the expected path length of an unsuccessful BST
// search over n points.
func avgPathLen(n int) float64 {
	switch {
	case n <= 1:
		return 0
	case n == 2:
		return 1
	default:
		fn := float64(n)
		return 2*(math.Log(fn-1)+eulerMascheroni) - 2*(fn-1)/fn
	}
}

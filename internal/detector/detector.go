package detector

import (
	"fmt"
	"sort"
	"unicode/utf8"

	"gonum.org/v1/gonum/stat"

	"github.com/ManasPatni/log-aggregator/internal/ml"
	"github.com/ManasPatni/log-aggregator/internal/store"
)

// Anomaly labels, sklearn convention: -1 outlier, +1 normal.
const (
	LabelOutlier = -1
	LabelNormal  = 1
)

type Config struct {
	Contamination float64 // expected outlier fraction of the corpus
	MinSamples    int     // below this, detection is skipped outright
	Seed          int64
	Trees         int
	SampleSize    int
}

func DefaultConfig() Config {
	return Config{Contamination: 0.1, MinSamples: 10, Seed: 42, Trees: 100, SampleSize: 256}
}

// Annotated is a per-call copy of a stored record with the derived fields.
// The store itself is never written with these.
type Annotated struct {
	store.StoredRecord
	Length  int `json:"length"`
	Anomaly int `json:"anomaly,omitempty"`
}

type Result struct {
	Records  []Annotated `json:"records"`
	Outliers []Annotated `json:"outliers"`
	// Skipped reports the corpus was below MinSamples; a defined state,
	// distinct from "ran and found nothing".
	Skipped bool `json:"skipped"`
}

type Detector struct {
	cfg Config
}

func New(cfg Config) *Detector {
	if cfg.Contamination <= 0 || cfg.Contamination >= 1 {
		cfg.Contamination = 0.1
	}
	if cfg.MinSamples <= 0 {
		cfg.MinSamples = 10
	}
	return &Detector{cfg: cfg}
}

// Detect refits an isolation forest on the message-length feature of the
// whole corpus and labels every record. Pure: same records and seed give
// the same outlier membership, and no state survives between calls.
func (d *Detector) Detect(records []store.StoredRecord) (Result, error) {
	annotated := make([]Annotated, len(records))
	for i, r := range records {
		annotated[i] = Annotated{StoredRecord: r, Length: utf8.RuneCountInString(r.Message)}
	}
	if len(records) < d.cfg.MinSamples {
		return Result{Records: annotated, Outliers: []Annotated{}, Skipped: true}, nil
	}

	feats := make([]float64, len(annotated))
	for i, a := range annotated {
		feats[i] = float64(a.Length)
	}

	forest := ml.NewIsolationForest(ml.ForestConfig{
		Trees:      d.cfg.Trees,
		SampleSize: d.cfg.SampleSize,
		Seed:       d.cfg.Seed,
	})
	if err := forest.Fit(feats); err != nil {
		return Result{}, fmt.Errorf("detector: fit: %w", err)
	}
	scores, err := forest.Scores(feats)
	if err != nil {
		return Result{}, fmt.Errorf("detector: score: %w", err)
	}

	// Cut at the (1 - contamination) score quantile: roughly that
	// fraction of the corpus lands above it.
	sorted := make([]float64, len(scores))
	copy(sorted, scores)
	sort.Float64s(sorted)
	threshold := stat.Quantile(1-d.cfg.Contamination, stat.Empirical, sorted, nil)

	outliers := []Annotated{}
	for i := range annotated {
		if scores[i] > threshold {
			annotated[i].Anomaly = LabelOutlier
			outliers = append(outliers, annotated[i])
		} else {
			annotated[i].Anomaly = LabelNormal
		}
	}
	return Result{Records: annotated, Outliers: outliers}, nil
}

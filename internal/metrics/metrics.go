package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	Uploads = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "logwise_uploads_total", Help: "Uploads by outcome"},
		[]string{"outcome"},
	)
	RecordsIngested = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "logwise_records_ingested_total", Help: "Parsed records stored"},
	)
	LinesSkipped = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "logwise_lines_skipped_total", Help: "Input lines dropped by the parser"},
		[]string{"reason"},
	)
	DetectionRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "logwise_detection_runs_total", Help: "Detection passes by outcome"},
		[]string{"outcome"},
	)
	OutliersFlagged = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "logwise_outliers_flagged_total", Help: "Records labeled as outliers"},
	)
	DetectDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "logwise_detect_duration_seconds",
			Help:    "Model fit and predict latency per pass",
			Buckets: prometheus.DefBuckets,
		},
	)
)

func MustRegister() {
	prometheus.MustRegister(Uploads, RecordsIngested, LinesSkipped, DetectionRuns, OutliersFlagged, DetectDuration)
}
func Handler() http.Handler { return promhttp.Handler() }

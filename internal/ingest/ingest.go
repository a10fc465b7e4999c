package ingest

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/ManasPatni/log-aggregator/internal/detector"
	"github.com/ManasPatni/log-aggregator/internal/logger"
	"github.com/ManasPatni/log-aggregator/internal/logparse"
	"github.com/ManasPatni/log-aggregator/internal/metrics"
	"github.com/ManasPatni/log-aggregator/internal/notify"
	"github.com/ManasPatni/log-aggregator/internal/store"
)

type Status string

const (
	StatusStored Status = "stored"
	StatusEmpty  Status = "no_valid_entries"
)

type DetectionState string

const (
	DetectionRan     DetectionState = "ran"
	DetectionSkipped DetectionState = "skipped_small_corpus"
	DetectionFailed  DetectionState = "failed"
	DetectionNotRun  DetectionState = "not_run"
)

// Report is everything one upload produced, in the shape the presentation
// layer renders: outcome, the full annotated corpus, the outlier subset
// and the length distribution.
type Report struct {
	UploadID  string                 `json:"upload_id"`
	Status    Status                 `json:"status,omitempty"`
	Stored    int                    `json:"stored"`
	Skipped   []logparse.SkippedLine `json:"skipped,omitempty"`
	Corpus    int                    `json:"corpus"`
	Detection DetectionState         `json:"detection"`
	Records   []detector.Annotated   `json:"records,omitempty"`
	Outliers  []detector.Annotated   `json:"outliers,omitempty"`
	Histogram *detector.Histogram    `json:"histogram,omitempty"`
}

type Ingest struct {
	log   *logger.Logger
	db    store.Store
	det   *detector.Detector
	slack *notify.Slack
}

func New(log *logger.Logger, db store.Store, det *detector.Detector, slack *notify.Slack) *Ingest {
	return &Ingest{log: log, db: db, det: det, slack: slack}
}

// Upload runs the whole pipeline synchronously:
// parse -> append -> fetch all -> detect. A detection failure does not
// fail the upload; the report just carries no anomaly section.
func (i *Ingest) Upload(ctx context.Context, raw []byte) (Report, error) {
	rep := Report{UploadID: uuid.NewString(), Detection: DetectionNotRun}

	parsed, err := logparse.Parse(raw)
	if err != nil {
		metrics.Uploads.WithLabelValues("rejected").Inc()
		return rep, err
	}
	rep.Skipped = parsed.Skipped
	for _, s := range parsed.Skipped {
		metrics.LinesSkipped.WithLabelValues(string(s.Reason)).Inc()
	}

	if len(parsed.Records) == 0 {
		rep.Status = StatusEmpty
		metrics.Uploads.WithLabelValues("empty").Inc()
		i.bookkeep(ctx, rep.UploadID, "No valid log entries found in the file.", false)
		return rep, nil
	}

	if err := i.db.Append(ctx, parsed.Records); err != nil {
		metrics.Uploads.WithLabelValues("store_error").Inc()
		return rep, err
	}
	rep.Status = StatusStored
	rep.Stored = len(parsed.Records)
	metrics.Uploads.WithLabelValues("stored").Inc()
	metrics.RecordsIngested.Add(float64(len(parsed.Records)))
	i.bookkeep(ctx, rep.UploadID, "Logs successfully stored in the local database.", true)

	i.analyze(ctx, &rep)
	return rep, nil
}

// Note stores a singleton free-text record and runs the same pipeline.
func (i *Ingest) Note(ctx context.Context, text string) (Report, error) {
	rep := Report{UploadID: uuid.NewString(), Detection: DetectionNotRun}
	if err := i.db.Append(ctx, []logparse.Record{logparse.Note(text)}); err != nil {
		metrics.Uploads.WithLabelValues("store_error").Inc()
		return rep, err
	}
	rep.Status = StatusStored
	rep.Stored = 1
	metrics.Uploads.WithLabelValues("stored").Inc()
	metrics.RecordsIngested.Inc()

	i.analyze(ctx, &rep)
	return rep, nil
}

// Analyze rescans the full corpus without ingesting anything; the report
// carries no ingestion status, only the detection outcome.
func (i *Ingest) Analyze(ctx context.Context) (Report, error) {
	rep := Report{UploadID: uuid.NewString(), Detection: DetectionNotRun}
	if err := ctx.Err(); err != nil {
		return rep, err
	}
	i.analyze(ctx, &rep)
	return rep, nil
}

func (i *Ingest) analyze(ctx context.Context, rep *Report) {
	all, err := i.db.FetchAll(ctx)
	if err != nil {
		i.log.Error().Err(err).Str("upload", rep.UploadID).Msg("fetch corpus")
		rep.Detection = DetectionFailed
		metrics.DetectionRuns.WithLabelValues("failed").Inc()
		return
	}
	rep.Corpus = len(all)

	start := time.Now()
	res, err := i.det.Detect(all)
	metrics.DetectDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		i.log.Error().Err(err).Str("upload", rep.UploadID).Msg("detection failed")
		rep.Detection = DetectionFailed
		metrics.DetectionRuns.WithLabelValues("failed").Inc()
		return
	}

	rep.Records = res.Records
	hist := detector.LengthHistogram(res.Records, detector.DefaultHistogramBins)
	rep.Histogram = &hist

	if res.Skipped {
		rep.Detection = DetectionSkipped
		metrics.DetectionRuns.WithLabelValues("skipped").Inc()
		return
	}
	rep.Detection = DetectionRan
	rep.Outliers = res.Outliers
	metrics.DetectionRuns.WithLabelValues("ran").Inc()

	if n := len(res.Outliers); n > 0 {
		metrics.OutliersFlagged.Add(float64(n))
		if err := i.slack.Send(notify.Format(rep.UploadID, n, len(all), res.Outliers[0].Message)); err != nil {
			i.log.Warn().Err(err).Msg("slack notify")
		}
		i.log.Warn().Str("upload", rep.UploadID).Int("outliers", n).Int("corpus", len(all)).Msg("outliers flagged")
	}
}

// bookkeep mirrors each ingestion outcome into the chat history and, on
// success, the project list. Best effort: failures are logged only.
func (i *Ingest) bookkeep(ctx context.Context, uploadID, message string, success bool) {
	if _, err := i.db.AppendChat(ctx, "assistant", message); err != nil {
		i.log.Warn().Err(err).Str("upload", uploadID).Msg("chat bookkeeping")
	}
	if success {
		if _, err := i.db.AddProject(ctx, "Logging Aggregator"); err != nil {
			i.log.Warn().Err(err).Str("upload", uploadID).Msg("project bookkeeping")
		}
	}
}

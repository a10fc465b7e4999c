package detector

import (
	"strings"
	"testing"

	"github.com/ManasPatni/log-aggregator/internal/logparse"
	"github.com/ManasPatni/log-aggregator/internal/store"
)

func corpus(messages ...string) []store.StoredRecord {
	out := make([]store.StoredRecord, len(messages))
	for i, m := range messages {
		out[i] = store.StoredRecord{
			ID:     int64(i + 1),
			Record: logparse.Record{Timestamp: "t", Level: "INFO", Message: m},
		}
	}
	return out
}

func TestDetectBelowThresholdSkips(t *testing.T) {
	recs := corpus("a", "bb", "ccc", "dddd", "eeeee", "f", "gg", "hhh", "iiii")
	d := New(DefaultConfig())

	res, err := d.Detect(recs)
	if err != nil {
		t.Fatalf("detect: %v", err)
	}
	if !res.Skipped {
		t.Fatal("want Skipped=true on 9 records")
	}
	if len(res.Outliers) != 0 {
		t.Fatalf("want no outliers, got %d", len(res.Outliers))
	}
	if len(res.Records) != len(recs) {
		t.Fatalf("records dropped: %d != %d", len(res.Records), len(recs))
	}
	for i, a := range res.Records {
		if a.Record != recs[i].Record || a.Anomaly != 0 {
			t.Fatalf("record %d altered: %+v", i, a)
		}
	}
}

func TestDetectFlagsLongMessage(t *testing.T) {
	msgs := make([]string, 0, 11)
	for i := 0; i < 10; i++ {
		msgs = append(msgs, strings.Repeat("x", 20+i%3))
	}
	msgs = append(msgs, strings.Repeat("y", 500))
	d := New(DefaultConfig())

	res, err := d.Detect(corpus(msgs...))
	if err != nil {
		t.Fatalf("detect: %v", err)
	}
	if res.Skipped {
		t.Fatal("should not skip on 11 records")
	}
	found := false
	for _, o := range res.Outliers {
		if o.Length == 500 {
			found = true
		}
	}
	if !found {
		t.Fatalf("length-500 record not flagged; outliers: %+v", res.Outliers)
	}
}

func TestDetectDeterministic(t *testing.T) {
	msgs := []string{"short", "also short", "tiny", "small one", "short msg",
		"five char", "brief", "minimal", "compact", "terse",
		strings.Repeat("long anomaly ", 30)}
	d := New(DefaultConfig())

	ids := func(res Result) []int64 {
		out := []int64{}
		for _, o := range res.Outliers {
			out = append(out, o.ID)
		}
		return out
	}

	a, err := d.Detect(corpus(msgs...))
	if err != nil {
		t.Fatalf("detect: %v", err)
	}
	b, err := d.Detect(corpus(msgs...))
	if err != nil {
		t.Fatalf("detect: %v", err)
	}
	ia, ib := ids(a), ids(b)
	if len(ia) != len(ib) {
		t.Fatalf("outlier count differs: %v vs %v", ia, ib)
	}
	for i := range ia {
		if ia[i] != ib[i] {
			t.Fatalf("outlier membership differs: %v vs %v", ia, ib)
		}
	}
}

func TestDetectPreservesSizeAndLabels(t *testing.T) {
	msgs := make([]string, 30)
	for i := range msgs {
		msgs[i] = strings.Repeat("m", 10+i*7)
	}
	d := New(DefaultConfig())

	res, err := d.Detect(corpus(msgs...))
	if err != nil {
		t.Fatalf("detect: %v", err)
	}
	if len(res.Records) != 30 {
		t.Fatalf("annotated size %d != input size 30", len(res.Records))
	}
	outlierIDs := map[int64]bool{}
	for _, o := range res.Outliers {
		if o.Anomaly != LabelOutlier {
			t.Fatalf("outlier with wrong label: %+v", o)
		}
		outlierIDs[o.ID] = true
	}
	for _, a := range res.Records {
		if a.Anomaly != LabelOutlier && a.Anomaly != LabelNormal {
			t.Fatalf("unlabeled record: %+v", a)
		}
		if (a.Anomaly == LabelOutlier) != outlierIDs[a.ID] {
			t.Fatalf("outlier subset inconsistent with labels: %+v", a)
		}
	}
}

func TestDetectIdenticalLengths(t *testing.T) {
	msgs := make([]string, 15)
	for i := range msgs {
		msgs[i] = "same length!"
	}
	d := New(DefaultConfig())

	res, err := d.Detect(corpus(msgs...))
	if err != nil {
		t.Fatalf("degenerate corpus should not error: %v", err)
	}
	if len(res.Outliers) != 0 {
		t.Fatalf("identical corpus should have no outliers, got %d", len(res.Outliers))
	}
}

func TestDetectEmptyCorpus(t *testing.T) {
	d := New(DefaultConfig())
	res, err := d.Detect(nil)
	if err != nil {
		t.Fatalf("detect: %v", err)
	}
	if !res.Skipped || len(res.Records) != 0 || len(res.Outliers) != 0 {
		t.Fatalf("empty corpus should skip cleanly: %+v", res)
	}
}

func TestLengthMeasuresRunes(t *testing.T) {
	d := New(DefaultConfig())
	res, err := d.Detect(corpus("héllo wörld"))
	if err != nil {
		t.Fatalf("detect: %v", err)
	}
	if res.Records[0].Length != 11 {
		t.Fatalf("length should count runes, got %d", res.Records[0].Length)
	}
}

package tracing

import (
	"context"
	"testing"
	"time"
)

func TestInitDisabled(t *testing.T) {
	closer, err := Init(context.Background(), Config{Enabled: false})
	if err != nil {
		t.Fatalf("disabled init should not error: %v", err)
	}
	if closer == nil {
		t.Fatal("closer must never be nil")
	}
	if err := closer(context.Background()); err != nil {
		t.Fatalf("noop closer errored: %v", err)
	}
}

func TestInitAlwaysReturnsCallableCloser(t *testing.T) {
	// Cancelled context forces the blocking exporter dial to give up
	// immediately; even then the closer must be safe to defer and call.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	closer, _ := Init(ctx, Config{
		Enabled:      true,
		ServiceName:  "test",
		OTLPEndpoint: "localhost:1",
		SampleRatio:  1.0,
	})
	if closer == nil {
		t.Fatal("closer must never be nil, even when init fails")
	}
	sctx, scancel := context.WithTimeout(context.Background(), time.Second)
	defer scancel()
	_ = closer(sctx)
}

package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/ManasPatni/log-aggregator/internal/logparse"
)

func openTestStore(t *testing.T) *Bolt {
	t.Helper()
	s, err := OpenBolt(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestAppendFetchRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	seed := []logparse.Record{
		{Timestamp: "t0", Level: "INFO", Message: "already here"},
	}
	if err := s.Append(ctx, seed); err != nil {
		t.Fatalf("append seed: %v", err)
	}

	recs := []logparse.Record{
		{Timestamp: "t1", Level: "INFO", Message: "service started"},
		{Timestamp: "t2", Level: "ERROR", Message: "disk full - retry aborted"},
	}
	if err := s.Append(ctx, recs); err != nil {
		t.Fatalf("append: %v", err)
	}

	got, err := s.FetchAll(ctx)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("want 3 records, got %d", len(got))
	}
	for _, want := range recs {
		found := false
		for _, g := range got {
			if g.Record == want {
				found = true
				break
			}
		}
		if !found {
			t.Fatalf("record %+v not found after round trip", want)
		}
	}
	for i, g := range got {
		if g.ID != int64(i+1) {
			t.Fatalf("identity not auto-incrementing: %+v", got)
		}
	}
}

func TestAppendEmptyBatch(t *testing.T) {
	s := openTestStore(t)
	if err := s.Append(context.Background(), nil); err != nil {
		t.Fatalf("empty append should be a no-op: %v", err)
	}
}

func TestReset(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	_ = s.Append(ctx, []logparse.Record{{Timestamp: "t1", Level: "INFO", Message: "m"}})
	if _, err := s.AddProject(ctx, "p"); err != nil {
		t.Fatalf("add project: %v", err)
	}
	if err := s.Reset(ctx); err != nil {
		t.Fatalf("reset: %v", err)
	}

	got, err := s.FetchAll(ctx)
	if err != nil {
		t.Fatalf("fetch after reset: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("want empty store after reset, got %d", len(got))
	}
	ps, _ := s.Projects(ctx)
	if len(ps) != 0 {
		t.Fatalf("want no projects after reset, got %d", len(ps))
	}

	// identity restarts as well
	_ = s.Append(ctx, []logparse.Record{{Timestamp: "t2", Level: "INFO", Message: "m2"}})
	got, _ = s.FetchAll(ctx)
	if len(got) != 1 || got[0].ID != 1 {
		t.Fatalf("sequence should restart after reset: %+v", got)
	}
}

func TestProjects(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	id1, err := s.AddProject(ctx, "first")
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	id2, _ := s.AddProject(ctx, "second")

	ps, err := s.Projects(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(ps) != 2 || ps[0].ID != id2 || ps[1].ID != id1 {
		t.Fatalf("want newest first, got %+v", ps)
	}

	if err := s.RenameProject(ctx, id1, "renamed"); err != nil {
		t.Fatalf("rename: %v", err)
	}
	ps, _ = s.Projects(ctx)
	if ps[1].Title != "renamed" {
		t.Fatalf("rename not applied: %+v", ps)
	}

	if err := s.DeleteProject(ctx, id2); err != nil {
		t.Fatalf("delete: %v", err)
	}
	ps, _ = s.Projects(ctx)
	if len(ps) != 1 {
		t.Fatalf("want 1 project after delete, got %d", len(ps))
	}

	if err := s.RenameProject(ctx, 999, "x"); err != ErrNotFound {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
	if err := s.DeleteProject(ctx, 999); err != ErrNotFound {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestChatTail(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	for i := 0; i < 25; i++ {
		if _, err := s.AppendChat(ctx, "assistant", "msg"); err != nil {
			t.Fatalf("append chat: %v", err)
		}
	}
	tail, err := s.ChatTail(ctx, 20)
	if err != nil {
		t.Fatalf("tail: %v", err)
	}
	if len(tail) != 20 {
		t.Fatalf("want 20 entries, got %d", len(tail))
	}
	// chronological order: oldest of the tail first
	if tail[0].ID != 6 || tail[19].ID != 25 {
		t.Fatalf("tail not chronological: first=%d last=%d", tail[0].ID, tail[19].ID)
	}

	all, err := s.ChatTail(ctx, 0)
	if err != nil {
		t.Fatalf("tail without limit: %v", err)
	}
	if len(all) != 25 {
		t.Fatalf("limit <= 0 should return the whole history, got %d", len(all))
	}

	if err := s.RenameChat(ctx, 25, "edited"); err != nil {
		t.Fatalf("rename: %v", err)
	}
	tail, _ = s.ChatTail(ctx, 1)
	if tail[0].Message != "edited" {
		t.Fatalf("rename not applied: %+v", tail)
	}

	if err := s.DeleteChat(ctx, 25); err != nil {
		t.Fatalf("delete: %v", err)
	}
	tail, _ = s.ChatTail(ctx, 1)
	if tail[0].ID == 25 {
		t.Fatal("entry still present after delete")
	}
}

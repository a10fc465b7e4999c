package store

import (
	"context"
	"time"

	"github.com/ManasPatni/log-aggregator/internal/logparse"
)

// StoredRecord is a persisted log record with its auto-increment identity.
type StoredRecord struct {
	ID int64 `json:"id"`
	logparse.Record
}

// Project and ChatEntry are auxiliary bookkeeping rows kept next to the
// logs; they are never part of the detection corpus.
type Project struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
}

type ChatEntry struct {
	ID      int64  `json:"id"`
	Role    string `json:"role"`
	Message string `json:"message"`
}

// Store is the durable record collection. Append is atomic per batch;
// FetchAll returns every record ever appended; Reset drops and recreates
// everything and is only ever an explicit call.
type Store interface {
	Append(ctx context.Context, recs []logparse.Record) error
	FetchAll(ctx context.Context) ([]StoredRecord, error)
	Reset(ctx context.Context) error
	Close() error

	AddProject(ctx context.Context, title string) (int64, error)
	Projects(ctx context.Context) ([]Project, error)
	RenameProject(ctx context.Context, id int64, title string) error
	DeleteProject(ctx context.Context, id int64) error

	AppendChat(ctx context.Context, role, message string) (int64, error)
	// ChatTail returns the most recent limit entries in chronological
	// order; limit <= 0 means the whole history.
	ChatTail(ctx context.Context, limit int) ([]ChatEntry, error)
	RenameChat(ctx context.Context, id int64, message string) error
	DeleteChat(ctx context.Context, id int64) error
}

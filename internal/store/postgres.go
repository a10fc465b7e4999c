package store

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"

	"github.com/ManasPatni/log-aggregator/internal/logparse"
)

// Postgres is the relational backend; schema matches the embedded one:
// logs(id, timestamp, level, message) plus the bookkeeping tables.
type Postgres struct{ db *sql.DB }

const pgSchema = `
CREATE TABLE IF NOT EXISTS logs (
	id        SERIAL PRIMARY KEY,
	timestamp TEXT,
	level     TEXT,
	message   TEXT
);
CREATE TABLE IF NOT EXISTS projects (
	id         SERIAL PRIMARY KEY,
	title      TEXT,
	created_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP
);
CREATE TABLE IF NOT EXISTS chat_history (
	id      SERIAL PRIMARY KEY,
	role    TEXT,
	message TEXT
);`

func OpenPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: ping postgres: %w", err)
	}
	if _, err := db.ExecContext(ctx, pgSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: init schema: %w", err)
	}
	return &Postgres{db: db}, nil
}

func (s *Postgres) Close() error { return s.db.Close() }

func (s *Postgres) Append(ctx context.Context, recs []logparse.Record) error {
	if len(recs) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO logs (timestamp, level, message) VALUES ($1, $2, $3)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, r := range recs {
		if _, err := stmt.ExecContext(ctx, r.Timestamp, r.Level, r.Message); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *Postgres) FetchAll(ctx context.Context) ([]StoredRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, timestamp, level, message FROM logs ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []StoredRecord{}
	for rows.Next() {
		var r StoredRecord
		if err := rows.Scan(&r.ID, &r.Timestamp, &r.Level, &r.Message); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Postgres) Reset(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	for _, t := range []string{"logs", "projects", "chat_history"} {
		if _, err := tx.ExecContext(ctx, `DROP TABLE IF EXISTS `+t); err != nil {
			return err
		}
	}
	if _, err := tx.ExecContext(ctx, pgSchema); err != nil {
		return err
	}
	return tx.Commit()
}

// -------- bookkeeping --------

func (s *Postgres) AddProject(ctx context.Context, title string) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO projects (title) VALUES ($1) RETURNING id`, title).Scan(&id)
	return id, err
}

func (s *Postgres) Projects(ctx context.Context) ([]Project, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, created_at FROM projects ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Project{}
	for rows.Next() {
		var p Project
		if err := rows.Scan(&p.ID, &p.Title, &p.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *Postgres) RenameProject(ctx context.Context, id int64, title string) error {
	return s.execOne(ctx, `UPDATE projects SET title = $1 WHERE id = $2`, title, id)
}

func (s *Postgres) DeleteProject(ctx context.Context, id int64) error {
	return s.execOne(ctx, `DELETE FROM projects WHERE id = $1`, id)
}

func (s *Postgres) AppendChat(ctx context.Context, role, message string) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO chat_history (role, message) VALUES ($1, $2) RETURNING id`, role, message).Scan(&id)
	return id, err
}

func (s *Postgres) ChatTail(ctx context.Context, limit int) ([]ChatEntry, error) {
	q := `SELECT id, role, message FROM chat_history ORDER BY id DESC`
	args := []any{}
	if limit > 0 {
		q += ` LIMIT $1`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []ChatEntry{}
	for rows.Next() {
		var e ChatEntry
		if err := rows.Scan(&e.ID, &e.Role, &e.Message); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

func (s *Postgres) RenameChat(ctx context.Context, id int64, message string) error {
	return s.execOne(ctx, `UPDATE chat_history SET message = $1 WHERE id = $2`, message, id)
}

func (s *Postgres) DeleteChat(ctx context.Context, id int64) error {
	return s.execOne(ctx, `DELETE FROM chat_history WHERE id = $1`, id)
}

func (s *Postgres) execOne(ctx context.Context, q string, args ...any) error {
	res, err := s.db.ExecContext(ctx, q, args...)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

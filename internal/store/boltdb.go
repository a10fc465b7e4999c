package store

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/ManasPatni/log-aggregator/internal/logparse"
)

var (
	bLogs     = []byte("logs")
	bProjects = []byte("projects")
	bChat     = []byte("chat_history")

	buckets = [][]byte{bLogs, bProjects, bChat}
)

var ErrNotFound = errors.New("store: not found")

// Bolt is the embedded default backend.
type Bolt struct{ db *bolt.DB }

func OpenBolt(path string) (*Bolt, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, err
	}
	err = db.Update(func(tx *bolt.Tx) error {
		for _, b := range buckets {
			if _, e := tx.CreateBucketIfNotExists(b); e != nil {
				return e
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return &Bolt{db: db}, nil
}

func (s *Bolt) Close() error { return s.db.Close() }

func seqKey(id uint64) []byte {
	k := make([]byte, 8)
	binary.BigEndian.PutUint64(k, id)
	return k
}

// Append writes the whole batch in one transaction: all or nothing.
func (s *Bolt) Append(_ context.Context, recs []logparse.Record) error {
	if len(recs) == 0 {
		return nil
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bLogs)
		for _, r := range recs {
			id, err := b.NextSequence()
			if err != nil {
				return err
			}
			j, err := json.Marshal(StoredRecord{ID: int64(id), Record: r})
			if err != nil {
				return err
			}
			if err := b.Put(seqKey(id), j); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Bolt) FetchAll(_ context.Context) ([]StoredRecord, error) {
	out := []StoredRecord{}
	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(bLogs).Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			var r StoredRecord
			if json.Unmarshal(v, &r) != nil {
				continue
			}
			out = append(out, r)
		}
		return nil
	})
	return out, err
}

// Reset drops and recreates every bucket, sequence included.
func (s *Bolt) Reset(_ context.Context) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		for _, b := range buckets {
			if err := tx.DeleteBucket(b); err != nil {
				return err
			}
			if _, err := tx.CreateBucket(b); err != nil {
				return err
			}
		}
		return nil
	})
}

// -------- bookkeeping --------

func (s *Bolt) AddProject(_ context.Context, title string) (int64, error) {
	var id uint64
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bProjects)
		var err error
		if id, err = b.NextSequence(); err != nil {
			return err
		}
		j, err := json.Marshal(Project{ID: int64(id), Title: title, CreatedAt: time.Now().UTC()})
		if err != nil {
			return err
		}
		return b.Put(seqKey(id), j)
	})
	return int64(id), err
}

// Projects lists newest first.
func (s *Bolt) Projects(_ context.Context) ([]Project, error) {
	out := []Project{}
	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(bProjects).Cursor()
		for k, v := c.Last(); k != nil; k, v = c.Prev() {
			var p Project
			if json.Unmarshal(v, &p) != nil {
				continue
			}
			out = append(out, p)
		}
		return nil
	})
	return out, err
}

func (s *Bolt) RenameProject(_ context.Context, id int64, title string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bProjects)
		v := b.Get(seqKey(uint64(id)))
		if v == nil {
			return ErrNotFound
		}
		var p Project
		if err := json.Unmarshal(v, &p); err != nil {
			return err
		}
		p.Title = title
		j, err := json.Marshal(p)
		if err != nil {
			return err
		}
		return b.Put(seqKey(uint64(id)), j)
	})
}

func (s *Bolt) DeleteProject(_ context.Context, id int64) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bProjects)
		if b.Get(seqKey(uint64(id))) == nil {
			return ErrNotFound
		}
		return b.Delete(seqKey(uint64(id)))
	})
}

func (s *Bolt) AppendChat(_ context.Context, role, message string) (int64, error) {
	var id uint64
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bChat)
		var err error
		if id, err = b.NextSequence(); err != nil {
			return err
		}
		j, err := json.Marshal(ChatEntry{ID: int64(id), Role: role, Message: message})
		if err != nil {
			return err
		}
		return b.Put(seqKey(id), j)
	})
	return int64(id), err
}

// ChatTail returns the most recent entries in chronological order.
func (s *Bolt) ChatTail(_ context.Context, limit int) ([]ChatEntry, error) {
	out := []ChatEntry{}
	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(bChat).Cursor()
		for k, v := c.Last(); k != nil; k, v = c.Prev() {
			var e ChatEntry
			if json.Unmarshal(v, &e) != nil {
				continue
			}
			out = append(out, e)
			if limit > 0 && len(out) >= limit {
				break
			}
		}
		return nil
	})
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, err
}

func (s *Bolt) RenameChat(_ context.Context, id int64, message string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bChat)
		v := b.Get(seqKey(uint64(id)))
		if v == nil {
			return ErrNotFound
		}
		var e ChatEntry
		if err := json.Unmarshal(v, &e); err != nil {
			return err
		}
		e.Message = message
		j, err := json.Marshal(e)
		if err != nil {
			return err
		}
		return b.Put(seqKey(uint64(id)), j)
	})
}

func (s *Bolt) DeleteChat(_ context.Context, id int64) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bChat)
		if b.Get(seqKey(uint64(id))) == nil {
			return ErrNotFound
		}
		return b.Delete(seqKey(uint64(id)))
	})
}

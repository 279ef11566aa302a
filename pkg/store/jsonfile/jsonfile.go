// Package jsonfile keeps the todo table in a single JSON document on disk. Each mutation re-reads
// the file under a cross-process lock so several processes can share one file safely.
package jsonfile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/gofrs/flock"

	"github.com/astromechza/ordered-todos/pkg/store"
	"github.com/astromechza/ordered-todos/pkg/todo"
)

const (
	lockTimeout    = 3 * time.Second
	lockRetryDelay = 50 * time.Millisecond
)

type document struct {
	Partition string         `json:"partition"`
	Rows      map[string]row `json:"rows"`
	UpdatedAt time.Time      `json:"updated_at"`
}

type row struct {
	Title     string    `json:"title"`
	Completed bool      `json:"completed"`
	Order     int64     `json:"order"`
	Version   string    `json:"version"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Store struct {
	path      string
	partition string
	mu        sync.Mutex
	fileLock  *flock.Flock
}

var _ store.Store = (*Store)(nil)

func Open(path, partition string) (*Store, error) {
	if partition == "" {
		partition = store.DefaultPartition
	}
	s := &Store{
		path:      path,
		partition: partition,
		// a separate lock file survives the rename in save
		fileLock: flock.New(path + ".lock"),
	}
	if err := s.withLock(context.Background(), func(doc *document) (bool, error) {
		if doc.Partition != "" && doc.Partition != partition {
			return false, fmt.Errorf("file %s holds partition %q, not %q", path, doc.Partition, partition)
		}
		return false, nil
	}); err != nil {
		return nil, err
	}
	return s, nil
}

// withLock loads the document under both locks, runs fn and persists the document if fn reports
// a change.
func (s *Store) withLock(ctx context.Context, fn func(doc *document) (bool, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	lockCtx, cancel := context.WithTimeout(ctx, lockTimeout)
	defer cancel()
	locked, err := s.fileLock.TryLockContext(lockCtx, lockRetryDelay)
	if err != nil {
		return fmt.Errorf("failed to acquire lock: %w: %w", todo.ErrStoreUnavailable, err)
	} else if !locked {
		return fmt.Errorf("failed to acquire lock: %w", todo.ErrStoreUnavailable)
	}
	defer func() { _ = s.fileLock.Unlock() }()

	doc, err := s.load()
	if err != nil {
		return err
	}
	changed, err := fn(doc)
	if err != nil || !changed {
		return err
	}
	return s.save(doc)
}

func (s *Store) load() (*document, error) {
	doc := &document{Partition: s.partition, Rows: make(map[string]row)}
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return doc, nil
	} else if err != nil {
		return nil, fmt.Errorf("failed to read file: %w: %w", todo.ErrStoreUnavailable, err)
	}
	if len(data) == 0 {
		return doc, nil
	}
	if err := json.Unmarshal(data, doc); err != nil {
		return nil, fmt.Errorf("failed to parse file: %w: %w", todo.ErrStoreUnavailable, err)
	}
	if doc.Rows == nil {
		doc.Rows = make(map[string]row)
	}
	return doc, nil
}

func (s *Store) save(doc *document) error {
	doc.Partition = s.partition
	doc.UpdatedAt = time.Now().UTC()
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal file: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write temp file: %w: %w", todo.ErrStoreUnavailable, err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to rename file: %w: %w", todo.ErrStoreUnavailable, err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, id string) (todo.Item, error) {
	var out todo.Item
	err := s.withLock(ctx, func(doc *document) (bool, error) {
		r, ok := doc.Rows[id]
		if !ok {
			return false, todo.ErrNotFound
		}
		out = r.item(id)
		return false, nil
	})
	return out, err
}

func (s *Store) Put(ctx context.Context, item todo.Item, expectedVersion string) (string, error) {
	version := store.NewVersion()
	err := s.withLock(ctx, func(doc *document) (bool, error) {
		r, ok := doc.Rows[item.ID]
		if !ok {
			return false, todo.ErrNotFound
		}
		if r.Version != expectedVersion {
			return false, todo.ErrVersionMismatch
		}
		doc.Rows[item.ID] = newRow(item, version)
		return true, nil
	})
	if err != nil {
		return "", err
	}
	return version, nil
}

func (s *Store) Insert(ctx context.Context, item todo.Item) (string, error) {
	version := store.NewVersion()
	err := s.withLock(ctx, func(doc *document) (bool, error) {
		if _, ok := doc.Rows[item.ID]; ok {
			return false, fmt.Errorf("item %s already exists", item.ID)
		}
		doc.Rows[item.ID] = newRow(item, version)
		return true, nil
	})
	if err != nil {
		return "", err
	}
	return version, nil
}

func (s *Store) Delete(ctx context.Context, id string, expectedVersion string) error {
	return s.withLock(ctx, func(doc *document) (bool, error) {
		r, ok := doc.Rows[id]
		if !ok {
			return false, todo.ErrNotFound
		}
		if expectedVersion != "" && r.Version != expectedVersion {
			return false, todo.ErrVersionMismatch
		}
		delete(doc.Rows, id)
		return true, nil
	})
}

func (s *Store) Scan(ctx context.Context) ([]todo.Item, error) {
	var out []todo.Item
	err := s.withLock(ctx, func(doc *document) (bool, error) {
		out = make([]todo.Item, 0, len(doc.Rows))
		for id, r := range doc.Rows {
			out = append(out, r.item(id))
		}
		return false, nil
	})
	// map iteration order is random; keep the file backend deterministic for debugging
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, err
}

func (s *Store) Close() error {
	return s.fileLock.Close()
}

func newRow(item todo.Item, version string) row {
	return row{
		Title:     item.Title,
		Completed: item.Completed,
		Order:     item.Order,
		Version:   version,
		UpdatedAt: time.Now().UTC(),
	}
}

func (r row) item(id string) todo.Item {
	return todo.Item{ID: id, Title: r.Title, Completed: r.Completed, Order: r.Order, Version: r.Version}
}

// Package sqlite stores todo items as rows of a single sqlite table keyed by partition and row key.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/astromechza/ordered-todos/pkg/store"
	"github.com/astromechza/ordered-todos/pkg/todo"
)

var tableNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

type Store struct {
	database  *sql.DB
	table     string
	partition string
}

var _ store.Store = (*Store)(nil)

// Open opens (creating if needed) the database at path and ensures the table exists.
func Open(ctx context.Context, path, table, partition string) (*Store, error) {
	if !tableNamePattern.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	if partition == "" {
		partition = store.DefaultPartition
	}
	db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?_busy_timeout=5000", path))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// sqlite serialises writers anyway; a single connection avoids SQLITE_BUSY between our own
	// goroutines and keeps ":memory:" databases shared.
	db.SetMaxOpenConns(1)

	s := &Store{database: db, table: table, partition: partition}
	if err := s.init(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) init(ctx context.Context) error {
	if _, err := s.database.ExecContext(ctx, fmt.Sprintf(
		`CREATE TABLE IF NOT EXISTS %s (
		partition_key text not null,
		row_key text not null,
		title text not null,
		completed integer not null default 0,
		ord integer not null,
		version text not null,
		updated_at text not null,
		PRIMARY KEY (partition_key, row_key)
		)`, s.table,
	)); err != nil {
		return unavailable("create table", err)
	}
	slog.Debug("ensured table exists", "table", s.table)
	return nil
}

func (s *Store) Get(ctx context.Context, id string) (todo.Item, error) {
	item := todo.Item{ID: id}
	if err := s.database.QueryRowContext(
		ctx,
		fmt.Sprintf(`SELECT title, completed, ord, version FROM %s WHERE partition_key = ? AND row_key = ?`, s.table),
		s.partition, id,
	).Scan(&item.Title, &item.Completed, &item.Order, &item.Version); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return todo.Item{}, todo.ErrNotFound
		}
		return todo.Item{}, unavailable("query item", err)
	}
	return item, nil
}

func (s *Store) Put(ctx context.Context, item todo.Item, expectedVersion string) (string, error) {
	tx, err := s.database.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return "", unavailable("start tx", err)
	}
	defer func() {
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			slog.Error("failed to rollback", "err", err)
		}
	}()

	newVersion := store.NewVersion()
	res, err := tx.ExecContext(
		ctx,
		fmt.Sprintf(`UPDATE %s SET title = ?, completed = ?, ord = ?, version = ?, updated_at = ?
		WHERE partition_key = ? AND row_key = ? AND version = ?`, s.table),
		item.Title, item.Completed, item.Order, newVersion, now(),
		s.partition, item.ID, expectedVersion,
	)
	if err != nil {
		return "", unavailable("update item", err)
	}
	if r, err := res.RowsAffected(); err != nil {
		return "", unavailable("count rows affected by update", err)
	} else if r == 0 {
		var current string
		if err := tx.QueryRowContext(
			ctx,
			fmt.Sprintf(`SELECT version FROM %s WHERE partition_key = ? AND row_key = ?`, s.table),
			s.partition, item.ID,
		).Scan(&current); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return "", todo.ErrNotFound
			}
			return "", unavailable("query version", err)
		}
		return "", todo.ErrVersionMismatch
	}

	if err := tx.Commit(); err != nil {
		return "", unavailable("commit", err)
	}
	return newVersion, nil
}

func (s *Store) Insert(ctx context.Context, item todo.Item) (string, error) {
	version := store.NewVersion()
	if _, err := s.database.ExecContext(
		ctx,
		fmt.Sprintf(`INSERT INTO %s (partition_key, row_key, title, completed, ord, version, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`, s.table),
		s.partition, item.ID, item.Title, item.Completed, item.Order, version, now(),
	); err != nil {
		var se sqlite3.Error
		if errors.As(err, &se) && se.Code == sqlite3.ErrConstraint {
			return "", fmt.Errorf("item %s already exists", item.ID)
		}
		return "", unavailable("insert item", err)
	}
	return version, nil
}

func (s *Store) Delete(ctx context.Context, id string, expectedVersion string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE partition_key = ? AND row_key = ?`, s.table)
	args := []any{s.partition, id}
	if expectedVersion != "" {
		query += ` AND version = ?`
		args = append(args, expectedVersion)
	}
	res, err := s.database.ExecContext(ctx, query, args...)
	if err != nil {
		return unavailable("delete item", err)
	}
	if r, err := res.RowsAffected(); err != nil {
		return unavailable("count rows affected by delete", err)
	} else if r > 0 {
		return nil
	}
	if expectedVersion == "" {
		return todo.ErrNotFound
	}
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	return todo.ErrVersionMismatch
}

func (s *Store) Scan(ctx context.Context) ([]todo.Item, error) {
	rows, err := s.database.QueryContext(
		ctx,
		fmt.Sprintf(`SELECT row_key, title, completed, ord, version FROM %s WHERE partition_key = ?`, s.table),
		s.partition,
	)
	if err != nil {
		return nil, unavailable("query items", err)
	}
	defer func(rows *sql.Rows) {
		if err := rows.Close(); err != nil {
			slog.Error("failed to close rows", "err", err)
		}
	}(rows)

	out := make([]todo.Item, 0)
	for rows.Next() {
		var item todo.Item
		if err := rows.Scan(&item.ID, &item.Title, &item.Completed, &item.Order, &item.Version); err != nil {
			return nil, unavailable("scan item", err)
		}
		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("iterate items", err)
	}
	return out, nil
}

func (s *Store) Close() error {
	return s.database.Close()
}

func unavailable(op string, err error) error {
	return fmt.Errorf("failed to %s: %w: %w", op, todo.ErrStoreUnavailable, err)
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

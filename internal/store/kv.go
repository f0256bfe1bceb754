package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
)

// ErrNotFound is returned by Get when a key has no value.
var ErrNotFound = errors.New("not found")

// KeyValueStore is a string-keyed, string-valued store.
type KeyValueStore interface {
	// Get returns the value for key or ErrNotFound.
	Get(ctx context.Context, key string) (string, error)

	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key, value string) error
}

// Entry is one stored key-value pair.
type Entry struct {
	Key       string
	Value     string
	UpdatedAt time.Time
}

// Lister is implemented by stores that can enumerate keys.
type Lister interface {
	// List returns entries whose key starts with prefix, most recently
	// updated first. A limit of zero means no limit.
	List(ctx context.Context, prefix string, limit int) ([]Entry, error)
}

// SQLKV is a KeyValueStore on a SQL table.
type SQLKV struct {
	db      *sql.DB
	dialect string
	now     func() time.Time
}

func (s *SQLKV) clock() time.Time {
	if s.now != nil {
		return s.now()
	}
	return time.Now()
}

func (s *SQLKV) Get(ctx context.Context, key string) (string, error) {
	b := entsql.Dialect(s.dialect)
	query, args := b.Select("value").
		From(b.Table(kvTable)).
		Where(entsql.EQ("key", key)).
		Query()

	var value string
	err := s.db.QueryRowContext(ctx, query, args...).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("get %q: %w", key, err)
	}
	return value, nil
}

func (s *SQLKV) Set(ctx context.Context, key, value string) error {
	query, args := entsql.Dialect(s.dialect).
		Insert(kvTable).
		Columns("key", "value", "updated_at").
		Values(key, value, s.clock().UnixNano()).
		OnConflict(
			entsql.ConflictColumns("key"),
			entsql.ResolveWithNewValues(),
		).
		Query()

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("set %q: %w", key, err)
	}
	return nil
}

func (s *SQLKV) List(ctx context.Context, prefix string, limit int) ([]Entry, error) {
	b := entsql.Dialect(s.dialect)
	sel := b.Select("key", "value", "updated_at").
		From(b.Table(kvTable)).
		Where(entsql.HasPrefix("key", prefix)).
		OrderBy(entsql.Desc("updated_at"), entsql.Asc("key"))
	if limit > 0 {
		sel.Limit(limit)
	}
	query, args := sel.Query()

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list %q: %w", prefix, err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var (
			e  Entry
			ts int64
		)
		if err := rows.Scan(&e.Key, &e.Value, &ts); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		e.UpdatedAt = time.Unix(0, ts).UTC()
		out = append(out, e)
	}
	return out, rows.Err()
}

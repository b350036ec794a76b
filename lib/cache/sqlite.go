package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	devenv "spotifier-core/dev/env"
	"spotifier-core/lib/timezone"

	_ "github.com/tursodatabase/libsql-client-go/libsql"
	_ "modernc.org/sqlite"
)

const sqliteSchema = `
create table if not exists cache_entry (
	key text primary key,
	data text not null,
	expires_at integer not null
);
`

// SqliteCache keeps entries in a cache_entry table, expires_at holds unix
// milliseconds.
type SqliteCache struct {
	db  *sql.DB
	now func() time.Time
}

func isRemote(url string) bool {
	for _, scheme := range []string{"libsql://", "https://", "http://", "wss://", "ws://"} {
		if strings.HasPrefix(url, scheme) {
			return true
		}
	}
	return false
}

// OpenSqlite opens a local sqlite file (or ":memory:") or, for libsql://
// urls, a remote libsql database.
func OpenSqlite(ctx context.Context, url string) (*SqliteCache, error) {
	var db *sql.DB
	var err error

	if isRemote(url) {
		db, err = sql.Open("libsql", url)
		if err != nil {
			return nil, err
		}
	} else {
		var path string
		path, err = devenv.ResolvePath(url)
		if err != nil {
			return nil, err
		}
		db, err = sql.Open("sqlite", path)
		if err != nil {
			return nil, err
		}
		// see https://stackoverflow.com/questions/35804884/sqlite-concurrent-writing-performance
		db.SetMaxOpenConns(1)
		if path != ":memory:" {
			_, err = db.ExecContext(ctx, "PRAGMA journal_mode=WAL")
			if err != nil {
				db.Close()
				return nil, err
			}
		}
	}

	cache, err := NewSqliteCache(ctx, db)
	if err != nil {
		db.Close()
		return nil, err
	}
	return cache, nil
}

// NewSqliteCache creates the cache table on db if it does not exist.
func NewSqliteCache(ctx context.Context, db *sql.DB) (*SqliteCache, error) {
	_, err := db.ExecContext(ctx, sqliteSchema)
	if err != nil {
		return nil, fmt.Errorf("create cache schema: %w", err)
	}
	return &SqliteCache{db: db, now: timezone.Now}, nil
}

func (c *SqliteCache) Close() error {
	return c.db.Close()
}

func (c *SqliteCache) Get(ctx context.Context, key string) (string, bool) {
	ctx, span := startSpan(ctx, "cache:get", "sqlite", key)
	defer span.End()

	var data string
	var expiresAt int64
	err := c.db.QueryRowContext(
		ctx,
		"select data, expires_at from cache_entry where key = ?",
		key,
	).Scan(&data, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		recordHit(span, false)
		return "", false
	}
	if err != nil {
		recordError(span, err, "failed to query entry")
		return "", false
	}

	if c.now().UnixMilli() > expiresAt {
		span.AddEvent("delete expired cache entry")
		_, err = c.db.ExecContext(
			ctx,
			"delete from cache_entry where key = ? and expires_at = ?",
			key, expiresAt,
		)
		if err != nil {
			recordError(span, err, "failed to delete expired entry")
		}
		recordHit(span, false)
		return "", false
	}

	recordHit(span, true)
	return data, true
}

func (c *SqliteCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	ctx, span := startSpan(ctx, "cache:set", "sqlite", key)
	defer span.End()

	err := checkTTL(span, ttl)
	if err != nil {
		return err
	}
	_, err = c.db.ExecContext(
		ctx,
		`insert into cache_entry(key, data, expires_at) values (?, ?, ?)
		on conflict(key) do update set data = excluded.data, expires_at = excluded.expires_at`,
		key, value, c.now().Add(ttl).UnixMilli(),
	)
	if err != nil {
		recordError(span, err, "failed to upsert entry")
		return err
	}
	return nil
}

func (c *SqliteCache) Delete(ctx context.Context, key string) error {
	ctx, span := startSpan(ctx, "cache:delete", "sqlite", key)
	defer span.End()

	_, err := c.db.ExecContext(ctx, "delete from cache_entry where key = ?", key)
	if err != nil {
		recordError(span, err, "failed to delete entry")
		return err
	}
	return nil
}

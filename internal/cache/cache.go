// Package cache remembers reports by source content so unchanged files are
// not checked again. An LRU sits in front of an optional SQLite table.
package cache

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"

	_ "modernc.org/sqlite"

	"github.com/funvibe/regionck/internal/config"
	"github.com/funvibe/regionck/internal/report"
)

const schema = `CREATE TABLE IF NOT EXISTS reports (
	key TEXT PRIMARY KEY,
	run_id TEXT NOT NULL,
	payload TEXT NOT NULL,
	created_at INTEGER NOT NULL
)`

// Cache is safe for concurrent use.
type Cache struct {
	mem    *lru.Cache[string, *report.Report]
	db     *sql.DB
	Logger *slog.Logger
}

// Open creates a cache holding up to size reports in memory. When path is
// non-empty reports are also persisted in the SQLite database at path.
func Open(ctx context.Context, path string, size int) (*Cache, error) {
	mem, err := lru.New[string, *report.Report](size)
	if err != nil {
		return nil, fmt.Errorf("creating report cache: %w", err)
	}
	c := &Cache{mem: mem, Logger: slog.Default()}
	if path == "" {
		return c, nil
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening cache %s: %w", path, err)
	}
	// SQLite serializes writers anyway.
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating cache schema: %w", err)
	}
	c.db = db
	return c, nil
}

// Key identifies the report of one file under one set of report options,
// as produced by this version of regionck.
func Key(path, source string, opts report.Options) string {
	h := sha256.New()
	for _, part := range []string{
		config.Version,
		path,
		source,
		strconv.FormatBool(opts.Verbose),
		strconv.FormatBool(opts.AnnotatedOnly),
	} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Get returns a cached report. Storage errors are logged and treated as a
// miss.
func (c *Cache) Get(ctx context.Context, key string) (*report.Report, bool) {
	if r, ok := c.mem.Get(key); ok {
		return r, true
	}
	if c.db == nil {
		return nil, false
	}

	var payload string
	err := c.db.QueryRowContext(ctx, `SELECT payload FROM reports WHERE key = ?`, key).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false
	}
	if err != nil {
		c.Logger.Warn("cache lookup failed", "key", key, "err", err)
		return nil, false
	}

	reports, err := report.UnmarshalYAML([]byte(payload))
	if err != nil || len(reports) != 1 {
		c.Logger.Warn("discarding unreadable cache entry", "key", key, "err", err)
		return nil, false
	}
	c.mem.Add(key, reports[0])
	return reports[0], true
}

// Put stores r under key, tagged with the run that produced it.
func (c *Cache) Put(ctx context.Context, key string, runID uuid.UUID, r *report.Report) error {
	c.mem.Add(key, r)
	if c.db == nil {
		return nil
	}

	payload, err := report.MarshalYAML([]*report.Report{r})
	if err != nil {
		return err
	}
	_, err = c.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO reports (key, run_id, payload, created_at) VALUES (?, ?, ?, ?)`,
		key, runID.String(), string(payload), time.Now().Unix())
	if err != nil {
		return fmt.Errorf("storing cache entry: %w", err)
	}
	return nil
}

// Prune deletes persisted entries older than maxAge and returns how many
// were removed.
func (c *Cache) Prune(ctx context.Context, maxAge time.Duration) (int64, error) {
	if c.db == nil {
		return 0, nil
	}
	res, err := c.db.ExecContext(ctx, `DELETE FROM reports WHERE created_at < ?`, time.Now().Add(-maxAge).Unix())
	if err != nil {
		return 0, fmt.Errorf("pruning cache: %w", err)
	}
	return res.RowsAffected()
}

// Len is the number of reports held in memory.
func (c *Cache) Len() int {
	return c.mem.Len()
}

func (c *Cache) Close() error {
	if c.db == nil {
		return nil
	}
	return c.db.Close()
}

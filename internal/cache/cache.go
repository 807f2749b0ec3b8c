// Package cache implements a disk-backed, content-hash-keyed store
// for rendered text. pkg/script and pkg/pipescript do not use it (they
// keep their own in-memory render caches); its caller in this module
// is the cmd/pizza3 demo, which stores the rendered deck in an
// in-memory instance and prints its Stat summary.
//
// Built on modernc.org/sqlite; no component of this system needs a
// relational query surface, only a durable key->text map, so the
// schema here is a single table.
package cache

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	_ "modernc.org/sqlite"
)

func timeFromUnix(sec int64) time.Time {
	return time.Unix(sec, 0)
}

// Cache is a sqlite-backed key→rendered-text store.
type Cache struct {
	db *sql.DB
}

// Open creates or attaches to a cache database at path (use ":memory:"
// for a process-local, non-persistent cache).
func Open(path string) (*Cache, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("cache: open: %w", err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS render_cache (
 key TEXT PRIMARY KEY,
 text TEXT NOT NULL,
 created_at INTEGER NOT NULL DEFAULT (strftime('%s','now'))
	)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("cache: init schema: %w", err)
	}
	return &Cache{db: db}, nil
}

// Key derives a stable cache key from the pieces that determine a
// render's output — typically a fragment's TEMPLATE text followed by
// its resolved Container's serialized form.
func Key(parts ...string) string {
	h := sha256.New()
	for _, p := range parts {
		h.Write([]byte(p))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Get returns the cached text for key, or found=false if absent.
func (c *Cache) Get(key string) (text string, found bool, err error) {
	row := c.db.QueryRow(`SELECT text FROM render_cache WHERE key = ?`, key)
	if err := row.Scan(&text); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, err
	}
	return text, true, nil
}

// Put stores (or replaces) the cached text for key.
func (c *Cache) Put(key, text string) error {
	_, err := c.db.Exec(
		`INSERT INTO render_cache(key, text) VALUES (?, ?)
 ON CONFLICT(key) DO UPDATE SET text = excluded.text, created_at = strftime('%s','now')`,
		key, text,
	)
	return err
}

// Invalidate removes a single key, the narrow counterpart to Clear()
// for a pipescript stage mutated at a known index.
func (c *Cache) Invalidate(key string) error {
	_, err := c.db.Exec(`DELETE FROM render_cache WHERE key = ?`, key)
	return err
}

// Clear drops every cached entry.
func (c *Cache) Clear() error {
	_, err := c.db.Exec(`DELETE FROM render_cache`)
	return err
}

// Close releases the underlying database handle.
func (c *Cache) Close() error {
	return c.db.Close()
}

// Stat summarizes the cache's contents in the human-readable form a
// CLI prints after a render: entry count, total stored bytes, and the
// age of the oldest row still held.
func (c *Cache) Stat() (summary string, err error) {
	var count int
	var totalBytes int64
	var oldest sql.NullInt64
	row := c.db.QueryRow(`SELECT COUNT(*), COALESCE(SUM(LENGTH(text)), 0), MIN(created_at) FROM render_cache`)
	if err := row.Scan(&count, &totalBytes, &oldest); err != nil {
		return "", fmt.Errorf("cache: stat: %w", err)
	}
	if count == 0 {
		return "cache empty", nil
	}
	age := "unknown age"
	if oldest.Valid {
		age = humanize.Time(timeFromUnix(oldest.Int64))
	}
	return fmt.Sprintf("%s entries, %s, oldest %s", humanize.Comma(int64(count)), humanize.Bytes(uint64(totalBytes)), age), nil
}

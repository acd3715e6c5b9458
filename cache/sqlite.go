package cache

import (
	"context"
	"database/sql"
	"time"

	"github.com/ZaguanLabs/tlguard"
	_ "github.com/mattn/go-sqlite3"
)

// SQLiteCache keeps translations in a local database so they survive
// between runs of the batch tool.
type SQLiteCache struct {
	db  *sql.DB
	ttl time.Duration
	now func() time.Time
}

// NewSQLiteCache opens (or creates) the database at path. ttlSeconds <= 0
// keeps entries forever.
func NewSQLiteCache(path string, ttlSeconds int) (*SQLiteCache, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, &tlguard.CacheError{Message: "opening sqlite database", Cause: err}
	}
	c := &SQLiteCache{db: db, now: time.Now}
	if ttlSeconds > 0 {
		c.ttl = time.Duration(ttlSeconds) * time.Second
	}
	if err := c.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return c, nil
}

func (c *SQLiteCache) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS translations (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		created_at INTEGER NOT NULL
	);
	`
	if _, err := c.db.Exec(schema); err != nil {
		return &tlguard.CacheError{Message: "migrating sqlite schema", Cause: err}
	}
	return nil
}

// cutoff returns the oldest created_at still valid, or 0 without a TTL.
func (c *SQLiteCache) cutoff() int64 {
	if c.ttl <= 0 {
		return 0
	}
	return c.now().Add(-c.ttl).Unix()
}

// Get returns the cached value if present and not expired.
func (c *SQLiteCache) Get(ctx context.Context, key string) (string, bool) {
	var val string
	err := c.db.QueryRowContext(ctx,
		"SELECT value FROM translations WHERE key = ? AND created_at >= ?",
		key, c.cutoff(),
	).Scan(&val)
	if err != nil {
		return "", false
	}
	return val, true
}

// Set upserts a value.
func (c *SQLiteCache) Set(ctx context.Context, key string, value string) error {
	_, err := c.db.ExecContext(ctx, `
		INSERT INTO translations (key, value, created_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, created_at = excluded.created_at`,
		key, value, c.now().Unix(),
	)
	if err != nil {
		return &tlguard.CacheError{Message: "sqlite set", Cause: err}
	}
	return nil
}

// Entries returns every non-expired entry.
func (c *SQLiteCache) Entries(ctx context.Context) (map[string]string, error) {
	rows, err := c.db.QueryContext(ctx,
		"SELECT key, value FROM translations WHERE created_at >= ?", c.cutoff())
	if err != nil {
		return nil, &tlguard.CacheError{Message: "sqlite list", Cause: err}
	}
	defer rows.Close()

	result := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, &tlguard.CacheError{Message: "sqlite scan", Cause: err}
		}
		result[k] = v
	}
	if err := rows.Err(); err != nil {
		return nil, &tlguard.CacheError{Message: "sqlite list", Cause: err}
	}
	return result, nil
}

// Purge deletes expired entries and returns how many were removed.
func (c *SQLiteCache) Purge(ctx context.Context) (int64, error) {
	if c.ttl <= 0 {
		return 0, nil
	}
	res, err := c.db.ExecContext(ctx, "DELETE FROM translations WHERE created_at < ?", c.cutoff())
	if err != nil {
		return 0, &tlguard.CacheError{Message: "sqlite purge", Cause: err}
	}
	return res.RowsAffected()
}

// Close closes the database.
func (c *SQLiteCache) Close() error {
	return c.db.Close()
}

var _ Lister = (*SQLiteCache)(nil)

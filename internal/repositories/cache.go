package repositories

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/desertthunder/cratedig/internal/shared"
)

// CacheRepository is a key/value store with per-key TTL backed by the
// cache_entries table.
//
// Keys are namespaced by user and/or playlist id so concurrent requests never
// need a lock; identical requests may race to repopulate the same key, which
// is accepted (last writer wins, values are idempotent).
type CacheRepository struct {
	db *sql.DB
}

// NewCacheRepository creates a new CacheRepository with the given database connection
func NewCacheRepository(db *sql.DB) *CacheRepository {
	return &CacheRepository{db: db}
}

// Get retrieves the value stored under key and unmarshals it into dest.
// Returns [shared.ErrCacheMiss] when the key is absent or its TTL has elapsed.
func (r *CacheRepository) Get(key string, dest any) error {
	var (
		value     string
		expiresAt time.Time
	)

	err := r.db.QueryRow("SELECT value, expires_at FROM cache_entries WHERE key = ?", key).Scan(&value, &expiresAt)
	if err == sql.ErrNoRows {
		return fmt.Errorf("%w: %s", shared.ErrCacheMiss, key)
	}
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrCacheUnavailable, err)
	}

	if time.Now().After(expiresAt) {
		return fmt.Errorf("%w: %s", shared.ErrCacheMiss, key)
	}

	if err := json.Unmarshal([]byte(value), dest); err != nil {
		// A corrupt entry degrades to a miss so callers refetch and overwrite.
		return fmt.Errorf("%w: corrupt entry for %s", shared.ErrCacheMiss, key)
	}

	return nil
}

// Set stores value under key with the given TTL, replacing any previous entry.
func (r *CacheRepository) Set(key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal cache value: %w", err)
	}

	query := `
		INSERT INTO cache_entries (key, value, expires_at, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, expires_at = excluded.expires_at, updated_at = excluded.updated_at
	`

	now := time.Now()
	if _, err := r.db.Exec(query, key, string(data), now.Add(ttl), now); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrCacheUnavailable, err)
	}

	return nil
}

// Exists reports whether key resolves to a live (unexpired) entry.
func (r *CacheRepository) Exists(key string) bool {
	var expiresAt time.Time
	err := r.db.QueryRow("SELECT expires_at FROM cache_entries WHERE key = ?", key).Scan(&expiresAt)
	return err == nil && time.Now().Before(expiresAt)
}

// PurgeExpired removes entries whose TTL has elapsed and returns the count.
func (r *CacheRepository) PurgeExpired() (int64, error) {
	result, err := r.db.Exec("DELETE FROM cache_entries WHERE expires_at <= ?", time.Now())
	if err != nil {
		return 0, fmt.Errorf("%w: %v", shared.ErrCacheUnavailable, err)
	}
	return result.RowsAffected()
}

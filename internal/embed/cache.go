package embed

import (
	"crypto/sha256"
	"database/sql"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Cache is the on-disk embedding cache. Entries are content-addressed by
// (model version, text hash) and never change once written: writes are
// idempotent upserts, so concurrent dataset runs can share one cache file
// safely. Invalidation happens only via Clear or by changing the model
// version, which addresses a fresh namespace.
type Cache struct {
	db   *sql.DB
	path string
}

// CacheStats describes the cache contents.
type CacheStats struct {
	Entries     int
	Models      []string
	SizeBytes   int64
	LastUpdated time.Time
}

// OpenCache opens (creating if needed) the embedding cache in dataDir.
// An unwritable cache is a fatal condition for the caller.
func OpenCache(dataDir string) (*Cache, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "embeddings.db")
	db, err := sql.Open("sqlite3", dbPath+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open embedding cache: %w", err)
	}

	schema := `
	CREATE TABLE IF NOT EXISTS embeddings (
		model  TEXT NOT NULL,
		hash   TEXT NOT NULL,
		vector BLOB NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (model, hash)
	);`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize embedding cache: %w", err)
	}

	return &Cache{db: db, path: dbPath}, nil
}

// Close closes the underlying database.
func (c *Cache) Close() error {
	return c.db.Close()
}

// HashText returns the content hash used as a cache key.
func HashText(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// Get returns the cached vector for (model, hash), or found=false on miss.
func (c *Cache) Get(model, hash string) (vec []float64, found bool, err error) {
	row := c.db.QueryRow(`SELECT vector FROM embeddings WHERE model = ? AND hash = ?`, model, hash)

	var blob []byte
	switch err := row.Scan(&blob); err {
	case nil:
		return decodeVector(blob), true, nil
	case sql.ErrNoRows:
		return nil, false, nil
	default:
		return nil, false, fmt.Errorf("failed to read cache entry: %w", err)
	}
}

// Put stores a vector for (model, hash). Existing entries win: the first
// writer's vector is kept, so a concurrent duplicate computation is
// wasted work but never a conflict.
func (c *Cache) Put(model, hash string, vec []float64) error {
	_, err := c.db.Exec(
		`INSERT OR IGNORE INTO embeddings (model, hash, vector) VALUES (?, ?, ?)`,
		model, hash, encodeVector(vec),
	)
	if err != nil {
		return fmt.Errorf("failed to write cache entry: %w", err)
	}
	return nil
}

// Stats returns cache statistics.
func (c *Cache) Stats() (*CacheStats, error) {
	stats := &CacheStats{}

	if err := c.db.QueryRow(`SELECT COUNT(*) FROM embeddings`).Scan(&stats.Entries); err != nil {
		return nil, fmt.Errorf("failed to count cache entries: %w", err)
	}

	rows, err := c.db.Query(`SELECT DISTINCT model FROM embeddings ORDER BY model`)
	if err != nil {
		return nil, fmt.Errorf("failed to list cached models: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var model string
		if err := rows.Scan(&model); err != nil {
			return nil, fmt.Errorf("failed to scan model: %w", err)
		}
		stats.Models = append(stats.Models, model)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list cached models: %w", err)
	}

	if info, err := os.Stat(c.path); err == nil {
		stats.SizeBytes = info.Size()
		stats.LastUpdated = info.ModTime()
	}
	return stats, nil
}

// Clear removes every cached entry. This is the only invalidation path.
func (c *Cache) Clear() error {
	if _, err := c.db.Exec(`DELETE FROM embeddings`); err != nil {
		return fmt.Errorf("failed to clear cache: %w", err)
	}
	if _, err := c.db.Exec(`VACUUM`); err != nil {
		return fmt.Errorf("failed to vacuum cache: %w", err)
	}
	return nil
}

func encodeVector(vec []float64) []byte {
	buf := make([]byte, 8*len(vec))
	for i, v := range vec {
		binary.LittleEndian.PutUint64(buf[i*8:], math.Float64bits(v))
	}
	return buf
}

func decodeVector(blob []byte) []float64 {
	vec := make([]float64, len(blob)/8)
	for i := range vec {
		vec[i] = math.Float64frombits(binary.LittleEndian.Uint64(blob[i*8:]))
	}
	return vec
}

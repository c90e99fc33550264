package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/glebarez/go-sqlite"
)

const favoritesKey = "fav_coins_data"

// MetaStore persists small key-value state in SQLite: the favorites
// map, the selected quote currency, and cached upstream snapshots.
type MetaStore struct {
	db *sql.DB
}

// NewMetaStore opens (or creates) the SQLite file with WAL mode enabled.
func NewMetaStore(dbPath string) (*MetaStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA cache_size=-2000;", // 2MB cache
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return nil, fmt.Errorf("failed to set pragma %s: %w", pragma, err)
		}
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS metadata (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at INTEGER NOT NULL
		);
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to create metadata table: %w", err)
	}

	return &MetaStore{db: db}, nil
}

// Upsert saves a key-value pair to the metadata table.
func (s *MetaStore) Upsert(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO metadata (key, value, updated_at) VALUES (?, ?, ?) ON CONFLICT(key) DO UPDATE SET value=excluded.value, updated_at=excluded.updated_at",
		key, value, time.Now().Unix(),
	)
	return err
}

// Get retrieves a value from the metadata table. A missing key returns
// an empty string and no error.
func (s *MetaStore) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM metadata WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return value, err
}

// Favorites loads the saved favorites set, keyed by uniq slug.
// Corrupt or absent data yields an empty set.
func (s *MetaStore) Favorites(ctx context.Context) map[string]bool {
	favs := make(map[string]bool)

	raw, err := s.Get(ctx, favoritesKey)
	if err != nil || raw == "" {
		return favs
	}
	if err := json.Unmarshal([]byte(raw), &favs); err != nil {
		return make(map[string]bool)
	}
	return favs
}

// SaveFavorite flips one slug in the favorites set and persists it.
func (s *MetaStore) SaveFavorite(ctx context.Context, uniq string, fav bool) error {
	favs := s.Favorites(ctx)
	if fav {
		favs[uniq] = true
	} else {
		delete(favs, uniq)
	}

	raw, err := json.Marshal(favs)
	if err != nil {
		return fmt.Errorf("failed to marshal favorites: %w", err)
	}
	return s.Upsert(ctx, favoritesKey, string(raw))
}

// Close closes the database connection.
func (s *MetaStore) Close() error {
	return s.db.Close()
}

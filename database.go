package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/lib/pq"
)

// Database wraps the catalog cache. The last successfully fetched base
// catalog is stored so the service can come up with data even when the
// upstream source is unreachable, mirroring the offline fallback the
// web client keeps in browser storage.
type Database struct {
	conn *sql.DB
}

// NewDatabase creates a new database connection
func NewDatabase(cfg DatabaseConfig) (*Database, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode,
	)

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	slog.Info("database connected successfully")

	return &Database{conn: db}, nil
}

// Close closes the database connection
func (d *Database) Close() error {
	return d.conn.Close()
}

// EnsureSchema creates the catalog cache table when missing.
func (d *Database) EnsureSchema(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS "CatalogCache" (
			id         TEXT PRIMARY KEY,
			payload    BYTEA NOT NULL,
			"fetchedAt" TIMESTAMPTZ NOT NULL
		)
	`
	if _, err := d.conn.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to ensure catalog cache schema: %w", err)
	}
	return nil
}

// SaveCatalog stores the raw catalog bytes as the current cache entry.
func (d *Database) SaveCatalog(ctx context.Context, raw []byte) error {
	query := `
		INSERT INTO "CatalogCache" (id, payload, "fetchedAt")
		VALUES ('base', $1, NOW())
		ON CONFLICT (id)
		DO UPDATE SET payload = EXCLUDED.payload, "fetchedAt" = NOW()
	`

	if _, err := d.conn.ExecContext(ctx, query, raw); err != nil {
		return fmt.Errorf("failed to save catalog cache: %w", err)
	}
	return nil
}

// LoadCatalog returns the cached catalog bytes, if any.
func (d *Database) LoadCatalog(ctx context.Context) ([]byte, error) {
	query := `SELECT payload FROM "CatalogCache" WHERE id = 'base'`

	var raw []byte
	err := d.conn.QueryRowContext(ctx, query).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("catalog cache is empty")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog cache: %w", err)
	}

	return raw, nil
}

// CatalogCacheAge returns how long ago the cache entry was written.
func (d *Database) CatalogCacheAge(ctx context.Context) (time.Duration, error) {
	query := `SELECT "fetchedAt" FROM "CatalogCache" WHERE id = 'base'`

	var fetchedAt time.Time
	err := d.conn.QueryRowContext(ctx, query).Scan(&fetchedAt)
	if err == sql.ErrNoRows {
		return 0, fmt.Errorf("catalog cache is empty")
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read catalog cache age: %w", err)
	}

	return time.Since(fetchedAt), nil
}

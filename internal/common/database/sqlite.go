// internal/common/database/sqlite.go
package database

import (
	"context"
	"database/sql"
	"fmt"

	"resource-scheduling/internal/common/config"

	_ "modernc.org/sqlite"
)

// SQLiteClient wraps a modernc.org/sqlite connection. It is used for local
// sessions and tests.
type SQLiteClient struct {
	DB *sql.DB
}

func NewSQLite(cfg config.SQLiteConfig) (*SQLiteClient, error) {
	db, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite %s: %w", cfg.Path, err)
	}

	// an in-memory database exists per connection
	db.SetMaxOpenConns(1)

	return &SQLiteClient{DB: db}, nil
}

func (c *SQLiteClient) Ping(ctx context.Context) error {
	return c.DB.PingContext(ctx)
}

func (c *SQLiteClient) Close() error {
	if c.DB != nil {
		return c.DB.Close()
	}
	return nil
}

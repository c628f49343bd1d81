// internal/store/store.go
package store

import (
	"context"
	"errors"
	"fmt"
	"io"

	"resource-scheduling/internal/assistant/querybuilder"
	"resource-scheduling/internal/common/config"
	"resource-scheduling/internal/common/database"
	"resource-scheduling/internal/common/logger"
	"resource-scheduling/internal/models"
)

var (
	ErrInvalidTable     = errors.New("invalid table name")
	ErrUnsupportedField = errors.New("unsupported field")
	ErrIndexNotFound    = errors.New("INDEX_NOT_FOUND")
)

// MeetingStore executes compiled meeting queries.
type MeetingStore interface {
	FetchMeetings(ctx context.Context, spec querybuilder.QuerySpec) ([]models.MeetingRecord, error)
}

// Pinger is implemented by stores that can check their backend.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Backend is a store plus the connections it owns.
type Backend struct {
	Store   MeetingStore
	Name    string
	closers []io.Closer
	pingers []Pinger
}

func (b *Backend) Ping(ctx context.Context) error {
	for _, p := range b.pingers {
		if err := p.Ping(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (b *Backend) Close() error {
	var errs []error
	for i := len(b.closers) - 1; i >= 0; i-- {
		if err := b.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// FromConfig opens the configured backend and, when enabled, wraps it with
// the Redis result cache.
func FromConfig(cfg config.Config, log logger.Logger) (*Backend, error) {
	queryTimeout := config.GetDuration(cfg.Database.QueryTimeout)
	b := &Backend{Name: cfg.Database.Backend}

	switch cfg.Database.Backend {
	case config.BackendPostgres:
		pg, err := database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return nil, err
		}
		s, err := NewSQLStore(pg.DB, PostgresDialect, cfg.Assistant.Table, log, WithQueryTimeout(queryTimeout))
		if err != nil {
			pg.Close()
			return nil, err
		}
		b.Store = s
		b.closers = append(b.closers, pg)
		b.pingers = append(b.pingers, pg)

	case config.BackendSQLite:
		lite, err := database.NewSQLite(cfg.Database.SQLite)
		if err != nil {
			return nil, err
		}
		s, err := NewSQLStore(lite.DB, SQLiteDialect, cfg.Assistant.Table, log, WithQueryTimeout(queryTimeout))
		if err != nil {
			lite.Close()
			return nil, err
		}
		b.Store = s
		b.closers = append(b.closers, lite)
		b.pingers = append(b.pingers, lite)

	case config.BackendElasticsearch:
		es, err := database.NewElasticsearch(cfg.Database.Elasticsearch)
		if err != nil {
			return nil, err
		}
		b.Store = NewElasticStore(es.Client, cfg.Database.Elasticsearch.Index, log)
		b.closers = append(b.closers, es)
		b.pingers = append(b.pingers, es)

	default:
		return nil, fmt.Errorf("unsupported store backend %q", cfg.Database.Backend)
	}

	if cfg.Cache.Enabled {
		rdb, err := database.NewRedis(cfg.Database.Redis)
		if err != nil {
			b.Close()
			return nil, err
		}
		b.Store = NewCachedStore(b.Store, rdb.Client, CacheOptions{
			TTL:       config.GetDuration(cfg.Cache.TTL * 1000),
			KeyPrefix: cfg.Cache.KeyPrefix,
		}, log)
		b.closers = append(b.closers, rdb)
		b.pingers = append(b.pingers, rdb)
	}

	return b, nil
}

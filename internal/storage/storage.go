// Package storage opens the configured persistence backend.
package storage

import (
	"fmt"

	"github.com/rpggio/racekeeper/internal/config"
	"github.com/rpggio/racekeeper/internal/kvstore"
	"github.com/rpggio/racekeeper/internal/repository"
	"github.com/rpggio/racekeeper/internal/sqlite"
)

// Backend bundles the repositories of one storage driver.
type Backend struct {
	Driver      string
	Definitions repository.DefinitionRepository
	Stats       repository.StatsRepository
	Activity    repository.ActivityRepository
	APIKeys     repository.APIKeyRepository

	close func() error
}

// Open opens the backend named by cfg.Driver. Migrations run for sqlite.
// The path ":memory:" selects an in-memory store for either driver.
func Open(cfg config.DBConfig) (*Backend, error) {
	switch cfg.Driver {
	case config.DriverSQLite, "":
		db, err := sqlite.New(cfg.Path)
		if err != nil {
			return nil, err
		}
		if err := db.RunMigrations(); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		return &Backend{
			Driver:      config.DriverSQLite,
			Definitions: sqlite.NewDefinitionRepository(db),
			Stats:       sqlite.NewStatsRepository(db),
			Activity:    sqlite.NewActivityRepository(db),
			APIKeys:     sqlite.NewAPIKeyRepository(db),
			close:       db.Close,
		}, nil
	case config.DriverBadger:
		path := cfg.Path
		if path == ":memory:" {
			path = ""
		}
		store, err := kvstore.Open(path)
		if err != nil {
			return nil, err
		}
		return &Backend{
			Driver:      config.DriverBadger,
			Definitions: kvstore.NewDefinitionRepository(store),
			Stats:       kvstore.NewStatsRepository(store),
			Activity:    kvstore.NewActivityRepository(store),
			APIKeys:     kvstore.NewAPIKeyRepository(store),
			close:       store.Close,
		}, nil
	default:
		return nil, fmt.Errorf("unknown db driver %q", cfg.Driver)
	}
}

// Close releases the underlying database.
func (b *Backend) Close() error {
	if b.close == nil {
		return nil
	}
	return b.close()
}

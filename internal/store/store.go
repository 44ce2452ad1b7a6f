// Package store defines the authoritative document store used by the cache
// layer together with its GORM and MongoDB adapters.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/yinuo2001/CS6650-Final-Project-CQRS/internal/database"
	"github.com/yinuo2001/CS6650-Final-Project-CQRS/internal/models"
)

// ErrNotFound is returned by AtomicIncrement when no document matches the id.
var ErrNotFound = errors.New("store: document not found")

// Store is the primary, authoritative persistence layer.
type Store interface {
	// FindByID returns the document for id. A missing document is reported
	// as found == false with a nil error.
	FindByID(ctx context.Context, kind *models.Kind, id string) (models.Document, bool, error)
	// FindByField returns every document whose field equals value, ordered by the kind's sort field.
	FindByField(ctx context.Context, kind *models.Kind, field string, value any) ([]models.Document, error)
	// Insert persists a new entity.
	Insert(ctx context.Context, kind *models.Kind, entity models.Entity) error
	// AtomicIncrement adds delta to a counter field in a single server-side
	// operation. Returns ErrNotFound when the document does not exist.
	AtomicIncrement(ctx context.Context, kind *models.Kind, id, field string, delta int64) error

	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

// Config selects and configures a store adapter.
type Config struct {
	Driver string
	SQL    database.Config
	Mongo  MongoConfig
}

// MongoConfig configures the MongoDB adapter.
type MongoConfig struct {
	URI      string
	Database string
}

// Open connects the adapter selected by cfg.Driver. SQL backends are
// migrated before they are returned.
func Open(ctx context.Context, cfg Config) (Store, error) {
	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))
	if driver == "mongodb" || driver == "mongo" {
		mongoStore, err := OpenMongo(ctx, cfg.Mongo)
		if err != nil {
			return nil, err
		}
		return mongoStore, nil
	}

	sqlCfg := cfg.SQL
	sqlCfg.Driver = driver
	db, err := database.Open(sqlCfg)
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", database.NormaliseDriver(driver), err)
	}
	if err := database.Migrate(db); err != nil {
		_ = database.Close(db)
		return nil, fmt.Errorf("store: migrate: %w", err)
	}
	gormStore, err := NewGormStore(db)
	if err != nil {
		return nil, err
	}
	return gormStore, nil
}

package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yinuo2001/CS6650-Final-Project-CQRS/internal/models"
)

// GormStore persists documents in a relational database through GORM.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore wraps an opened and migrated database handle.
func NewGormStore(db *gorm.DB) (*GormStore, error) {
	if db == nil {
		return nil, errors.New("gorm store: db is required")
	}
	return &GormStore{db: db}, nil
}

// DB exposes the underlying handle for components sharing the connection pool.
func (s *GormStore) DB() *gorm.DB {
	return s.db
}

func (s *GormStore) FindByID(ctx context.Context, kind *models.Kind, id string) (models.Document, bool, error) {
	entity := kind.New()
	err := s.db.WithContext(ctx).Take(entity, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("gorm store: find %s %s: %w", kind.Name, id, err)
	}
	return entity.Document(), true, nil
}

func (s *GormStore) FindByField(ctx context.Context, kind *models.Kind, field string, value any) ([]models.Document, error) {
	column, ok := kind.Column(field)
	if !ok {
		return nil, fmt.Errorf("gorm store: unknown field %q on %s", field, kind.Name)
	}

	query := s.db.WithContext(ctx).Model(kind.New()).
		Where(clause.Eq{Column: clause.Column{Name: column}, Value: value})
	if sortColumn, ok := kind.Column(kind.SortField); ok {
		query = query.Order(clause.OrderByColumn{Column: clause.Column{Name: sortColumn}})
	}

	rows, err := query.Rows()
	if err != nil {
		return nil, fmt.Errorf("gorm store: list %s by %s: %w", kind.Name, field, err)
	}
	defer rows.Close()

	var docs []models.Document
	for rows.Next() {
		entity := kind.New()
		if err := s.db.ScanRows(rows, entity); err != nil {
			return nil, fmt.Errorf("gorm store: scan %s: %w", kind.Name, err)
		}
		docs = append(docs, entity.Document())
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("gorm store: list %s by %s: %w", kind.Name, field, err)
	}
	return docs, nil
}

func (s *GormStore) Insert(ctx context.Context, kind *models.Kind, entity models.Entity) error {
	if err := s.db.WithContext(ctx).Create(entity).Error; err != nil {
		return fmt.Errorf("gorm store: insert %s: %w", kind.Name, err)
	}
	return nil
}

func (s *GormStore) AtomicIncrement(ctx context.Context, kind *models.Kind, id, field string, delta int64) error {
	column, ok := kind.Column(field)
	if !ok {
		return fmt.Errorf("gorm store: unknown field %q on %s", field, kind.Name)
	}

	result := s.db.WithContext(ctx).
		Model(kind.New()).
		Where("id = ?", id).
		UpdateColumn(column, gorm.Expr("? + ?", clause.Column{Name: column}, delta))
	if result.Error != nil {
		return fmt.Errorf("gorm store: increment %s.%s: %w", kind.Name, field, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *GormStore) Close(context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

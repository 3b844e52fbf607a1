package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/typegrove/curricula-backend/internal/domain"
	"github.com/typegrove/curricula-backend/internal/platform/logger"
)

type ConceptRepo interface {
	Create(ctx context.Context, tx *gorm.DB, rows []*domain.Concept) ([]*domain.Concept, error)
	GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*domain.Concept, error)
	GetByKeys(ctx context.Context, tx *gorm.DB, keys []string) ([]*domain.Concept, error)
	List(ctx context.Context, tx *gorm.DB) ([]*domain.Concept, error)
	// UpsertByKey inserts or refreshes a concept on its stable key.
	UpsertByKey(ctx context.Context, tx *gorm.DB, row *domain.Concept) error
	UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error
}

type conceptRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewConceptRepo(db *gorm.DB, baseLog *logger.Logger) ConceptRepo {
	return &conceptRepo{db: db, log: baseLog.With("repo", "ConceptRepo")}
}

func (r *conceptRepo) Create(ctx context.Context, tx *gorm.DB, rows []*domain.Concept) ([]*domain.Concept, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if len(rows) == 0 {
		return []*domain.Concept{}, nil
	}
	if err := t.WithContext(ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *conceptRepo) GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*domain.Concept, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []*domain.Concept
	if len(ids) == 0 {
		return out, nil
	}
	if err := t.WithContext(ctx).Where("id IN ?", ids).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *conceptRepo) GetByKeys(ctx context.Context, tx *gorm.DB, keys []string) ([]*domain.Concept, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []*domain.Concept
	if len(keys) == 0 {
		return out, nil
	}
	if err := t.WithContext(ctx).Where("key IN ?", keys).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *conceptRepo) List(ctx context.Context, tx *gorm.DB) ([]*domain.Concept, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []*domain.Concept
	if err := t.WithContext(ctx).Order("key ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *conceptRepo) UpsertByKey(ctx context.Context, tx *gorm.DB, row *domain.Concept) error {
	t := tx
	if t == nil {
		t = r.db
	}
	if row == nil {
		return nil
	}
	return t.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "category", "summary", "vector_id", "updated_at"}),
	}).Create(row).Error
}

func (r *conceptRepo) UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error {
	t := tx
	if t == nil {
		t = r.db
	}
	if id == uuid.Nil || len(updates) == 0 {
		return nil
	}
	return t.WithContext(ctx).Model(&domain.Concept{}).Where("id = ?", id).Updates(updates).Error
}

package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/typegrove/curricula-backend/internal/domain"
	"github.com/typegrove/curricula-backend/internal/platform/logger"
)

type AICallLogRepo interface {
	Create(ctx context.Context, tx *gorm.DB, row *domain.AICallLog) error
	GetByContextID(ctx context.Context, tx *gorm.DB, contextID uuid.UUID) ([]*domain.AICallLog, error)
}

type aiCallLogRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAICallLogRepo(db *gorm.DB, baseLog *logger.Logger) AICallLogRepo {
	return &aiCallLogRepo{db: db, log: baseLog.With("repo", "AICallLogRepo")}
}

func (r *aiCallLogRepo) Create(ctx context.Context, tx *gorm.DB, row *domain.AICallLog) error {
	t := tx
	if t == nil {
		t = r.db
	}
	if row == nil {
		return nil
	}
	return t.WithContext(ctx).Create(row).Error
}

func (r *aiCallLogRepo) GetByContextID(ctx context.Context, tx *gorm.DB, contextID uuid.UUID) ([]*domain.AICallLog, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []*domain.AICallLog
	if contextID == uuid.Nil {
		return out, nil
	}
	if err := t.WithContext(ctx).
		Where("context_id = ?", contextID).
		Order("created_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

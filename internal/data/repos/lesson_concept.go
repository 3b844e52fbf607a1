package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/typegrove/curricula-backend/internal/domain"
	"github.com/typegrove/curricula-backend/internal/platform/logger"
)

type LessonConceptRepo interface {
	// ReplaceForLesson deletes every assignment row for the lesson and
	// inserts the new set. Callers are expected to run it inside a
	// transaction so the lesson never exposes a partial set.
	ReplaceForLesson(ctx context.Context, tx *gorm.DB, lessonID uuid.UUID, rows []*domain.LessonConcept) (int, error)
	GetByLessonID(ctx context.Context, tx *gorm.DB, lessonID uuid.UUID) ([]*domain.LessonConcept, error)
	DeleteByLessonID(ctx context.Context, tx *gorm.DB, lessonID uuid.UUID) error
}

type lessonConceptRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewLessonConceptRepo(db *gorm.DB, baseLog *logger.Logger) LessonConceptRepo {
	return &lessonConceptRepo{db: db, log: baseLog.With("repo", "LessonConceptRepo")}
}

func (r *lessonConceptRepo) ReplaceForLesson(ctx context.Context, tx *gorm.DB, lessonID uuid.UUID, rows []*domain.LessonConcept) (int, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if lessonID == uuid.Nil {
		return 0, nil
	}
	if err := t.WithContext(ctx).
		Where("lesson_id = ?", lessonID).
		Delete(&domain.LessonConcept{}).Error; err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}
	for _, row := range rows {
		row.LessonID = lessonID
	}
	if err := t.WithContext(ctx).Create(&rows).Error; err != nil {
		return 0, err
	}
	return len(rows), nil
}

func (r *lessonConceptRepo) GetByLessonID(ctx context.Context, tx *gorm.DB, lessonID uuid.UUID) ([]*domain.LessonConcept, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []*domain.LessonConcept
	if lessonID == uuid.Nil {
		return out, nil
	}
	if err := t.WithContext(ctx).
		Where("lesson_id = ?", lessonID).
		Order("assignment_rank ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *lessonConceptRepo) DeleteByLessonID(ctx context.Context, tx *gorm.DB, lessonID uuid.UUID) error {
	t := tx
	if t == nil {
		t = r.db
	}
	if lessonID == uuid.Nil {
		return nil
	}
	return t.WithContext(ctx).
		Where("lesson_id = ?", lessonID).
		Delete(&domain.LessonConcept{}).Error
}

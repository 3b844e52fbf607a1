package assign

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/typegrove/curricula-backend/internal/data/repos"
	"github.com/typegrove/curricula-backend/internal/domain"
	"github.com/typegrove/curricula-backend/internal/platform/logger"
)

// AssignmentStore persists a lesson's assignment set with wholesale-replace
// semantics: after a successful call the lesson has exactly the given rows,
// after a failed call it keeps its previous rows.
type AssignmentStore interface {
	Replace(ctx context.Context, lessonID uuid.UUID, rows []*domain.LessonConcept) (int, error)
}

type gormAssignmentStore struct {
	db   *gorm.DB
	repo repos.LessonConceptRepo
	log  *logger.Logger
}

func NewAssignmentStore(db *gorm.DB, repo repos.LessonConceptRepo, baseLog *logger.Logger) AssignmentStore {
	return &gormAssignmentStore{
		db:   db,
		repo: repo,
		log:  baseLog.With("service", "AssignmentStore"),
	}
}

func (s *gormAssignmentStore) Replace(ctx context.Context, lessonID uuid.UUID, rows []*domain.LessonConcept) (int, error) {
	var count int
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		n, err := s.repo.ReplaceForLesson(ctx, tx, lessonID, rows)
		if err != nil {
			return err
		}
		count = n
		return nil
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}

package testutil

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/typegrove/curricula-backend/internal/domain"
)

func SeedCourse(tb testing.TB, ctx context.Context, tx *gorm.DB, title string) *domain.Course {
	tb.Helper()
	c := &domain.Course{
		ID:       uuid.New(),
		Title:    title,
		Metadata: datatypes.JSON([]byte("{}")),
	}
	if err := tx.WithContext(ctx).Create(c).Error; err != nil {
		tb.Fatalf("seed course: %v", err)
	}
	return c
}

func SeedLesson(tb testing.TB, ctx context.Context, tx *gorm.DB, courseID uuid.UUID, orderIndex int, title string) *domain.Lesson {
	tb.Helper()
	l := &domain.Lesson{
		ID:          uuid.New(),
		CourseID:    courseID,
		OrderIndex:  orderIndex,
		Title:       title,
		Description: "desc",
		Metadata:    datatypes.JSON([]byte("{}")),
	}
	if err := tx.WithContext(ctx).Create(l).Error; err != nil {
		tb.Fatalf("seed lesson: %v", err)
	}
	return l
}

func SeedConcept(tb testing.TB, ctx context.Context, tx *gorm.DB, key, name string) *domain.Concept {
	tb.Helper()
	c := &domain.Concept{
		ID:   uuid.New(),
		Key:  key,
		Name: name,
	}
	if err := tx.WithContext(ctx).Create(c).Error; err != nil {
		tb.Fatalf("seed concept: %v", err)
	}
	return c
}

package repos_test

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/typegrove/curricula-backend/internal/data/repos"
	"github.com/typegrove/curricula-backend/internal/data/repos/testutil"
	"github.com/typegrove/curricula-backend/internal/domain"
)

func assignmentRow(lessonID, conceptID uuid.UUID, confidence string, similarity float64, rank int) *domain.LessonConcept {
	return &domain.LessonConcept{
		LessonID:             lessonID,
		ConceptID:            conceptID,
		Confidence:           confidence,
		SimilarityScore:      similarity,
		MetadataOverlapScore: 0.5,
		AssignmentRank:       rank,
	}
}

func TestLessonConceptRepoReplaceForLesson(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	log := testutil.Logger(t)
	ctx := context.Background()

	repo := repos.NewLessonConceptRepo(db, log)

	course := testutil.SeedCourse(t, ctx, tx, "Linear Algebra")
	lesson := testutil.SeedLesson(t, ctx, tx, course.ID, 0, "Eigenvalues")
	c1 := testutil.SeedConcept(t, ctx, tx, "eigenvalue", "Eigenvalue")
	c2 := testutil.SeedConcept(t, ctx, tx, "eigenvector", "Eigenvector")
	c3 := testutil.SeedConcept(t, ctx, tx, "determinant", "Determinant")

	first := []*domain.LessonConcept{
		assignmentRow(lesson.ID, c1.ID, domain.ConfidenceHigh, 0.91, 1),
		assignmentRow(lesson.ID, c2.ID, domain.ConfidenceMedium, 0.52, 2),
	}
	n, err := repo.ReplaceForLesson(ctx, tx, lesson.ID, first)
	if err != nil {
		t.Fatalf("first replace: %v", err)
	}
	if n != 2 {
		t.Fatalf("first replace count = %d, want 2", n)
	}

	// Second run replaces wholesale: no duplicate (lesson, concept) rows,
	// no leftovers from the first run.
	second := []*domain.LessonConcept{
		assignmentRow(lesson.ID, c1.ID, domain.ConfidenceHigh, 0.93, 1),
		assignmentRow(lesson.ID, c3.ID, domain.ConfidenceLow, 0.34, 2),
	}
	n, err = repo.ReplaceForLesson(ctx, tx, lesson.ID, second)
	if err != nil {
		t.Fatalf("second replace: %v", err)
	}
	if n != 2 {
		t.Fatalf("second replace count = %d, want 2", n)
	}

	rows, err := repo.GetByLessonID(ctx, tx, lesson.ID)
	if err != nil {
		t.Fatalf("get by lesson: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows after second replace, want 2", len(rows))
	}
	seen := map[uuid.UUID]*domain.LessonConcept{}
	for _, r := range rows {
		if r.LessonID != lesson.ID {
			t.Fatalf("row has lesson id %s, want %s", r.LessonID, lesson.ID)
		}
		if _, dup := seen[r.ConceptID]; dup {
			t.Fatalf("duplicate concept %s in assignment set", r.ConceptID)
		}
		seen[r.ConceptID] = r
	}
	if _, ok := seen[c2.ID]; ok {
		t.Fatalf("stale concept %s survived replace", c2.ID)
	}
	if got := seen[c1.ID].SimilarityScore; got != 0.93 {
		t.Fatalf("concept %s similarity = %v, want 0.93", c1.ID, got)
	}

	// Rows come back ordered by assignment rank.
	if rows[0].AssignmentRank != 1 || rows[1].AssignmentRank != 2 {
		t.Fatalf("rows not ordered by rank: %d, %d", rows[0].AssignmentRank, rows[1].AssignmentRank)
	}
}

func TestLessonConceptRepoReplaceWithEmptySet(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	log := testutil.Logger(t)
	ctx := context.Background()

	repo := repos.NewLessonConceptRepo(db, log)

	course := testutil.SeedCourse(t, ctx, tx, "Chemistry")
	lesson := testutil.SeedLesson(t, ctx, tx, course.ID, 0, "Stoichiometry")
	c1 := testutil.SeedConcept(t, ctx, tx, "mole", "Mole")

	if _, err := repo.ReplaceForLesson(ctx, tx, lesson.ID, []*domain.LessonConcept{
		assignmentRow(lesson.ID, c1.ID, domain.ConfidenceHigh, 0.88, 1),
	}); err != nil {
		t.Fatalf("seed replace: %v", err)
	}

	// An empty retrieval result clears the lesson's assignments.
	n, err := repo.ReplaceForLesson(ctx, tx, lesson.ID, nil)
	if err != nil {
		t.Fatalf("empty replace: %v", err)
	}
	if n != 0 {
		t.Fatalf("empty replace count = %d, want 0", n)
	}
	rows, err := repo.GetByLessonID(ctx, tx, lesson.ID)
	if err != nil {
		t.Fatalf("get by lesson: %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("got %d rows after empty replace, want 0", len(rows))
	}
}

package assign

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/typegrove/curricula-backend/internal/clients/pinecone"
	"github.com/typegrove/curricula-backend/internal/domain"
	"github.com/typegrove/curricula-backend/internal/platform/logger"
)

// -------------------- fakes --------------------

type fakeAI struct {
	dims     int
	embedErr error
	calls    int
}

func (f *fakeAI) Embed(ctx context.Context, inputs []string) ([][]float32, error) {
	f.calls++
	if f.embedErr != nil {
		return nil, f.embedErr
	}
	out := make([][]float32, len(inputs))
	for i := range inputs {
		out[i] = make([]float32, f.dims)
	}
	return out, nil
}

func (f *fakeAI) GenerateText(ctx context.Context, system, user string) (string, error) {
	return "", errors.New("not implemented")
}

func (f *fakeAI) EmbedDimensions() int { return f.dims }

func (f *fakeAI) EmbedModel() string { return "text-embedding-3-small" }

type fakeCallLog struct {
	rows []*domain.AICallLog
}

func (f *fakeCallLog) Create(ctx context.Context, tx *gorm.DB, row *domain.AICallLog) error {
	f.rows = append(f.rows, row)
	return nil
}

func (f *fakeCallLog) GetByContextID(ctx context.Context, tx *gorm.DB, contextID uuid.UUID) ([]*domain.AICallLog, error) {
	return f.rows, nil
}

type fakeVectorStore struct {
	matches  []pinecone.VectorMatch
	queryErr error
	dims     int
}

func (f *fakeVectorStore) Upsert(ctx context.Context, ns string, vectors []pinecone.Vector) error {
	return nil
}

func (f *fakeVectorStore) QueryMatches(ctx context.Context, ns string, q []float32, topK int, filter map[string]any) ([]pinecone.VectorMatch, error) {
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	if filter["type"] != "concept" {
		return nil, fmt.Errorf("unexpected filter: %v", filter)
	}
	if topK < len(f.matches) {
		return f.matches[:topK], nil
	}
	return f.matches, nil
}

func (f *fakeVectorStore) DeleteIDs(ctx context.Context, ns string, ids []string) error { return nil }

func (f *fakeVectorStore) Dimension() int { return f.dims }

type fakeLessonRepo struct {
	byCourse map[uuid.UUID][]*domain.Lesson
}

func (f *fakeLessonRepo) Create(ctx context.Context, tx *gorm.DB, rows []*domain.Lesson) ([]*domain.Lesson, error) {
	return rows, nil
}

func (f *fakeLessonRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*domain.Lesson, error) {
	for _, lessons := range f.byCourse {
		for _, l := range lessons {
			if l.ID == id {
				return l, nil
			}
		}
	}
	return nil, nil
}

func (f *fakeLessonRepo) GetByCourseID(ctx context.Context, tx *gorm.DB, courseID uuid.UUID) ([]*domain.Lesson, error) {
	return f.byCourse[courseID], nil
}

type fakeStore struct {
	rows     map[uuid.UUID][]*domain.LessonConcept
	failFor  map[uuid.UUID]bool
	replaces int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		rows:    map[uuid.UUID][]*domain.LessonConcept{},
		failFor: map[uuid.UUID]bool{},
	}
}

func (f *fakeStore) Replace(ctx context.Context, lessonID uuid.UUID, rows []*domain.LessonConcept) (int, error) {
	f.replaces++
	if f.failFor[lessonID] {
		return 0, errors.New("tx rollback")
	}
	f.rows[lessonID] = rows
	return len(rows), nil
}

// -------------------- helpers --------------------

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return log
}

func conceptMatch(id uuid.UUID, name string, score float64) pinecone.VectorMatch {
	return pinecone.VectorMatch{
		ID:    "concept:" + id.String(),
		Score: score,
		Metadata: map[string]any{
			"type":       "concept",
			"concept_id": id.String(),
			"name":       name,
		},
	}
}

func newTestService(t *testing.T, ai *fakeAI, vec *fakeVectorStore, lessons *fakeLessonRepo, store *fakeStore) *Service {
	t.Helper()
	svc, err := NewService(testLogger(t), ai, vec, lessons, store, nil, DefaultConfig())
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

// -------------------- tests --------------------

func TestAssignForLessonHappyPath(t *testing.T) {
	a, b, c := uuid.New(), uuid.New(), uuid.New()
	vec := &fakeVectorStore{matches: []pinecone.VectorMatch{
		conceptMatch(a, "growth mindset", 0.92),
		conceptMatch(b, "spaced repetition", 0.81),
		conceptMatch(c, "metacognition", 0.73),
	}}
	store := newFakeStore()
	svc := newTestService(t, &fakeAI{dims: 8}, vec, &fakeLessonRepo{}, store)

	lesson := &domain.Lesson{ID: uuid.New(), Title: "Growth Mindset", Description: "Why beliefs about ability matter."}
	res := svc.AssignForLesson(context.Background(), lesson)

	if !res.Success || res.Err != nil {
		t.Fatalf("expected success, got err=%v", res.Err)
	}
	if res.Count != 3 {
		t.Fatalf("count = %d, want 3", res.Count)
	}
	if res.CostUSD <= 0 {
		t.Fatalf("cost = %v, want > 0", res.CostUSD)
	}

	rows := store.rows[lesson.ID]
	for i, row := range rows {
		if row.AssignmentRank != i+1 {
			t.Fatalf("rank at %d = %d, want %d", i, row.AssignmentRank, i+1)
		}
	}
	if rows[0].ConceptID != a {
		t.Fatalf("best concept should be the title match")
	}
}

func TestAssignForLessonZeroMatches(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(t, &fakeAI{dims: 8}, &fakeVectorStore{}, &fakeLessonRepo{}, store)

	lesson := &domain.Lesson{ID: uuid.New(), Title: "Orphan Topic"}
	res := svc.AssignForLesson(context.Background(), lesson)

	if !res.Success || res.Err != nil {
		t.Fatalf("zero matches should not error, got %v", res.Err)
	}
	if res.Count != 0 {
		t.Fatalf("count = %d, want 0", res.Count)
	}
	if store.replaces != 1 {
		t.Fatalf("replace should still run to clear stale rows, replaces=%d", store.replaces)
	}
}

func TestAssignForLessonIdempotent(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	vec := &fakeVectorStore{matches: []pinecone.VectorMatch{
		conceptMatch(a, "alpha", 0.90),
		conceptMatch(b, "beta", 0.80),
	}}
	store := newFakeStore()
	svc := newTestService(t, &fakeAI{dims: 8}, vec, &fakeLessonRepo{}, store)

	lesson := &domain.Lesson{ID: uuid.New(), Title: "Alpha and beta"}
	first := svc.AssignForLesson(context.Background(), lesson)
	firstRows := store.rows[lesson.ID]
	second := svc.AssignForLesson(context.Background(), lesson)
	secondRows := store.rows[lesson.ID]

	if first.Count != second.Count {
		t.Fatalf("counts differ across runs: %d vs %d", first.Count, second.Count)
	}
	if len(firstRows) != len(secondRows) {
		t.Fatalf("row counts differ: %d vs %d", len(firstRows), len(secondRows))
	}
	for i := range firstRows {
		f, s := firstRows[i], secondRows[i]
		if f.ConceptID != s.ConceptID || f.AssignmentRank != s.AssignmentRank ||
			f.Confidence != s.Confidence || f.SimilarityScore != s.SimilarityScore {
			t.Fatalf("row %d differs across identical runs", i)
		}
	}
	seen := map[uuid.UUID]bool{}
	for _, row := range secondRows {
		if seen[row.ConceptID] {
			t.Fatalf("duplicate concept %s after rerun", row.ConceptID)
		}
		seen[row.ConceptID] = true
	}
}

func TestAssignForLessonEmbeddingFailure(t *testing.T) {
	svc := newTestService(t, &fakeAI{dims: 8, embedErr: errors.New("boom")}, &fakeVectorStore{}, &fakeLessonRepo{}, newFakeStore())

	res := svc.AssignForLesson(context.Background(), &domain.Lesson{ID: uuid.New(), Title: "T"})
	var ef *EmbeddingFailure
	if !errors.As(res.Err, &ef) {
		t.Fatalf("expected EmbeddingFailure, got %v", res.Err)
	}
}

func TestAssignForLessonRetrievalFailure(t *testing.T) {
	vec := &fakeVectorStore{queryErr: errors.New("query down")}
	svc := newTestService(t, &fakeAI{dims: 8}, vec, &fakeLessonRepo{}, newFakeStore())

	res := svc.AssignForLesson(context.Background(), &domain.Lesson{ID: uuid.New(), Title: "T"})
	var rf *RetrievalFailure
	if !errors.As(res.Err, &rf) {
		t.Fatalf("expected RetrievalFailure, got %v", res.Err)
	}
}

func TestAssignForLessonNilLesson(t *testing.T) {
	svc := newTestService(t, &fakeAI{dims: 8}, &fakeVectorStore{}, &fakeLessonRepo{}, newFakeStore())

	res := svc.AssignForLesson(context.Background(), nil)
	if res.Err == nil {
		t.Fatal("expected error for nil lesson")
	}
	if res.Success {
		t.Fatal("nil lesson reported success")
	}
}

func TestAssignForLessonRecordsEmbedModel(t *testing.T) {
	a := uuid.New()
	vec := &fakeVectorStore{matches: []pinecone.VectorMatch{
		conceptMatch(a, "growth mindset", 0.92),
	}}
	callLog := &fakeCallLog{}
	ai := &fakeAI{dims: 8}
	svc, err := NewService(testLogger(t), ai, vec, &fakeLessonRepo{}, newFakeStore(), callLog, DefaultConfig())
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	lesson := &domain.Lesson{ID: uuid.New(), Title: "Growth Mindset"}
	if res := svc.AssignForLesson(context.Background(), lesson); res.Err != nil {
		t.Fatalf("AssignForLesson: %v", res.Err)
	}

	if len(callLog.rows) != 1 {
		t.Fatalf("got %d call log rows, want 1", len(callLog.rows))
	}
	if got, want := callLog.rows[0].Model, ai.EmbedModel(); got != want {
		t.Fatalf("logged model = %q, want %q", got, want)
	}
	if callLog.rows[0].CallType != "lesson_concept_embedding" {
		t.Fatalf("logged call type = %q", callLog.rows[0].CallType)
	}
}

func TestAssignForCourseContinuesPastFailure(t *testing.T) {
	courseID := uuid.New()
	lessonA := &domain.Lesson{ID: uuid.New(), CourseID: courseID, OrderIndex: 1, Title: "A"}
	lessonB := &domain.Lesson{ID: uuid.New(), CourseID: courseID, OrderIndex: 2, Title: "B"}
	lessonC := &domain.Lesson{ID: uuid.New(), CourseID: courseID, OrderIndex: 3, Title: "C"}

	vec := &fakeVectorStore{matches: []pinecone.VectorMatch{
		conceptMatch(uuid.New(), "alpha", 0.90),
	}}
	lessons := &fakeLessonRepo{byCourse: map[uuid.UUID][]*domain.Lesson{
		courseID: {lessonA, lessonB, lessonC},
	}}
	store := newFakeStore()
	store.failFor[lessonB.ID] = true
	svc := newTestService(t, &fakeAI{dims: 8}, vec, lessons, store)

	summary, err := svc.AssignForCourse(context.Background(), courseID)
	if err != nil {
		t.Fatalf("AssignForCourse: %v", err)
	}
	if summary.LessonsProcessed != 3 {
		t.Fatalf("processed = %d, want 3", summary.LessonsProcessed)
	}
	if summary.LessonsFailed != 1 {
		t.Fatalf("failed = %d, want 1", summary.LessonsFailed)
	}
	if len(store.rows[lessonC.ID]) == 0 {
		t.Fatalf("lesson C should have been processed after B failed")
	}
	if len(summary.Failures) != 1 || summary.Failures[0].LessonID != lessonB.ID {
		t.Fatalf("failure should name lesson B, got %+v", summary.Failures)
	}
	if summary.TotalCostUSD <= 0 {
		t.Fatalf("cost should aggregate across lessons, got %v", summary.TotalCostUSD)
	}
}

func TestAssignForCourseHonorsCancellation(t *testing.T) {
	courseID := uuid.New()
	lessons := &fakeLessonRepo{byCourse: map[uuid.UUID][]*domain.Lesson{
		courseID: {
			{ID: uuid.New(), CourseID: courseID, Title: "A"},
			{ID: uuid.New(), CourseID: courseID, Title: "B"},
		},
	}}
	store := newFakeStore()
	svc := newTestService(t, &fakeAI{dims: 8}, &fakeVectorStore{}, lessons, store)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	summary, err := svc.AssignForCourse(ctx, courseID)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if summary.LessonsProcessed != 0 {
		t.Fatalf("no lesson should start after cancellation, processed=%d", summary.LessonsProcessed)
	}
	if store.replaces != 0 {
		t.Fatalf("no writes expected after cancellation, replaces=%d", store.replaces)
	}
}

func TestBuildSearchText(t *testing.T) {
	lesson := &domain.Lesson{Title: "T", Description: "D", Objectives: "O"}
	if got := BuildSearchText(lesson); got != "T\n\nD\n\nO" {
		t.Fatalf("search text = %q", got)
	}
	lesson = &domain.Lesson{Title: "T"}
	if got := BuildSearchText(lesson); got != "T" {
		t.Fatalf("search text = %q", got)
	}
}

func TestEstimateTokens(t *testing.T) {
	if got := estimateTokens(""); got != 0 {
		t.Fatalf("tokens for empty = %d", got)
	}
	if got := estimateTokens("one two three"); got != 4 {
		t.Fatalf("tokens for 3 words = %d, want 4", got)
	}
}

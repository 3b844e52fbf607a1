package assign

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/typegrove/curricula-backend/internal/clients/openai"
	"github.com/typegrove/curricula-backend/internal/clients/pinecone"
	"github.com/typegrove/curricula-backend/internal/data/repos"
	"github.com/typegrove/curricula-backend/internal/domain"
	"github.com/typegrove/curricula-backend/internal/platform/logger"
)

// ConceptNamespace is the similarity-index namespace holding knowledge-graph
// concept vectors.
const ConceptNamespace = "concepts"

// LessonResult is the outcome of assigning concepts to one lesson.
type LessonResult struct {
	LessonID uuid.UUID
	Success  bool
	Count    int
	CostUSD  float64
	Err      error
}

type LessonFailure struct {
	LessonID uuid.UUID
	Reason   string
}

// CourseSummary aggregates per-lesson results for a batch run.
type CourseSummary struct {
	CourseID         uuid.UUID
	LessonsProcessed int
	LessonsFailed    int
	ConceptsAssigned int
	TotalCostUSD     float64
	Failures         []LessonFailure
}

type Service struct {
	log     *logger.Logger
	ai      openai.Client
	vec     pinecone.VectorStore
	lessons repos.LessonRepo
	store   AssignmentStore
	calls   repos.AICallLogRepo
	cfg     Config
}

// NewService wires the concept-assignment orchestrator. Clients arrive
// already constructed so tests can substitute fakes. calls may be nil to
// disable cost logging.
func NewService(
	log *logger.Logger,
	ai openai.Client,
	vec pinecone.VectorStore,
	lessons repos.LessonRepo,
	store AssignmentStore,
	calls repos.AICallLogRepo,
	cfg Config,
) (*Service, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if ai == nil {
		return nil, fmt.Errorf("openai client required")
	}
	if vec == nil {
		return nil, fmt.Errorf("vector store required")
	}
	if lessons == nil {
		return nil, fmt.Errorf("lesson repo required")
	}
	if store == nil {
		return nil, fmt.Errorf("assignment store required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Service{
		log:     log.With("service", "ConceptAssignService"),
		ai:      ai,
		vec:     vec,
		lessons: lessons,
		store:   store,
		calls:   calls,
		cfg:     cfg,
	}, nil
}

// AssignForLesson runs embed -> retrieve -> score -> persist for one lesson.
// Zero candidates yields an empty (but successfully replaced) assignment set.
func (s *Service) AssignForLesson(ctx context.Context, lesson *domain.Lesson) LessonResult {
	if lesson == nil {
		return LessonResult{Err: fmt.Errorf("lesson is nil")}
	}
	res := LessonResult{LessonID: lesson.ID}

	text := BuildSearchText(lesson)
	if strings.TrimSpace(text) == "" {
		res.Err = &EmbeddingFailure{LessonID: lesson.ID, Err: fmt.Errorf("lesson has no text to embed")}
		return res
	}

	callTimeout := time.Duration(s.cfg.CallTimeoutSeconds) * time.Second

	ectx, cancel := context.WithTimeout(ctx, callTimeout)
	vecs, err := s.ai.Embed(ectx, []string{text})
	cancel()
	if err != nil {
		res.Err = &EmbeddingFailure{LessonID: lesson.ID, Err: err}
		s.recordCall(ctx, lesson.ID, "lesson_concept_embedding", false, err, 0, 0)
		return res
	}
	tokens := estimateTokens(text)
	res.CostUSD = float64(tokens) / 1000.0 * s.cfg.EmbedPricePer1K
	s.recordCall(ctx, lesson.ID, "lesson_concept_embedding", true, nil, tokens, res.CostUSD)

	qctx, cancel := context.WithTimeout(ctx, callTimeout)
	matches, err := s.vec.QueryMatches(qctx, ConceptNamespace, vecs[0], s.cfg.TopK, map[string]any{"type": "concept"})
	cancel()
	if err != nil {
		res.Err = &RetrievalFailure{LessonID: lesson.ID, Err: err}
		return res
	}

	candidates := candidatesFromMatches(matches)
	scored := ScoreCandidates(LessonText{
		Title:       lesson.Title,
		Description: lesson.Description,
		Objectives:  lesson.Objectives,
		Tags:        lessonTags(lesson),
	}, candidates, s.cfg)

	rows := make([]*domain.LessonConcept, 0, len(scored))
	for _, a := range scored {
		rows = append(rows, &domain.LessonConcept{
			LessonID:             lesson.ID,
			ConceptID:            a.ConceptID,
			Confidence:           a.Confidence,
			SimilarityScore:      a.Similarity,
			MetadataOverlapScore: a.Prominence,
			AssignmentRank:       a.Rank,
		})
	}

	count, err := s.store.Replace(ctx, lesson.ID, rows)
	if err != nil {
		res.Err = &PersistenceFailure{LessonID: lesson.ID, Err: err}
		return res
	}

	res.Success = true
	res.Count = count
	if count == 0 {
		s.log.Info("no matching concepts for lesson", "lesson_id", lesson.ID)
	} else {
		s.log.Info("assigned concepts to lesson",
			"lesson_id", lesson.ID,
			"count", count,
			"candidates", len(candidates),
		)
	}
	return res
}

// AssignForCourse processes the course's lessons strictly in order. A lesson
// failure is recorded and the batch continues; cancellation stops cleanly
// between lessons.
func (s *Service) AssignForCourse(ctx context.Context, courseID uuid.UUID) (CourseSummary, error) {
	summary := CourseSummary{CourseID: courseID}

	lessons, err := s.lessons.GetByCourseID(ctx, nil, courseID)
	if err != nil {
		return summary, fmt.Errorf("load lessons for course %s: %w", courseID, err)
	}

	for _, lesson := range lessons {
		if ctx.Err() != nil {
			s.log.Warn("course assignment stopped early",
				"course_id", courseID,
				"processed", summary.LessonsProcessed,
				"remaining", len(lessons)-summary.LessonsProcessed,
			)
			return summary, ctx.Err()
		}

		res := s.AssignForLesson(ctx, lesson)
		summary.LessonsProcessed++
		summary.TotalCostUSD += res.CostUSD
		if res.Err != nil {
			summary.LessonsFailed++
			summary.Failures = append(summary.Failures, LessonFailure{
				LessonID: lesson.ID,
				Reason:   res.Err.Error(),
			})
			s.log.Error("lesson assignment failed; continuing batch",
				"lesson_id", lesson.ID,
				"error", res.Err,
			)
			continue
		}
		summary.ConceptsAssigned += res.Count
	}

	s.log.Info("course assignment complete",
		"course_id", courseID,
		"lessons_processed", summary.LessonsProcessed,
		"lessons_failed", summary.LessonsFailed,
		"concepts_assigned", summary.ConceptsAssigned,
		"total_cost_usd", summary.TotalCostUSD,
	)
	return summary, nil
}

// BuildSearchText concatenates the lesson's title, description and
// objectives with blank-line separators.
func BuildSearchText(lesson *domain.Lesson) string {
	parts := make([]string, 0, 3)
	for _, p := range []string{lesson.Title, lesson.Description, lesson.Objectives} {
		if s := strings.TrimSpace(p); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, "\n\n")
}

func candidatesFromMatches(matches []pinecone.VectorMatch) []Candidate {
	out := make([]Candidate, 0, len(matches))
	for _, m := range matches {
		id := conceptIDFromMatch(m)
		if id == uuid.Nil {
			continue
		}
		name, _ := m.Metadata["name"].(string)
		category, _ := m.Metadata["category"].(string)
		out = append(out, Candidate{
			ConceptID:  id,
			Name:       name,
			Category:   category,
			Similarity: m.Score,
		})
	}
	return out
}

func conceptIDFromMatch(m pinecone.VectorMatch) uuid.UUID {
	if raw, ok := m.Metadata["concept_id"].(string); ok {
		if id, err := uuid.Parse(strings.TrimSpace(raw)); err == nil {
			return id
		}
	}
	idStr := strings.TrimSpace(strings.TrimPrefix(m.ID, "concept:"))
	if id, err := uuid.Parse(idStr); err == nil {
		return id
	}
	return uuid.Nil
}

func lessonTags(lesson *domain.Lesson) []string {
	if len(lesson.Metadata) == 0 {
		return nil
	}
	var meta struct {
		Tags []string `json:"tags"`
	}
	if err := json.Unmarshal(lesson.Metadata, &meta); err != nil {
		return nil
	}
	out := make([]string, 0, len(meta.Tags))
	for _, t := range meta.Tags {
		if s := strings.TrimSpace(t); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// estimateTokens approximates token count from word count (~4 tokens per 3
// words).
func estimateTokens(text string) int {
	words := len(strings.Fields(text))
	if words == 0 {
		return 0
	}
	return (words*4 + 2) / 3
}

func (s *Service) recordCall(ctx context.Context, lessonID uuid.UUID, callType string, success bool, callErr error, tokens int, costUSD float64) {
	if s.calls == nil {
		return
	}
	usage, _ := json.Marshal(map[string]any{
		"estimated_tokens":   tokens,
		"estimated_cost_usd": costUSD,
	})
	row := &domain.AICallLog{
		ContextID: &lessonID,
		CallType:  callType,
		Model:     s.ai.EmbedModel(),
		Success:   success,
		Usage:     datatypes.JSON(usage),
	}
	if callErr != nil {
		row.Error = callErr.Error()
	}
	if err := s.calls.Create(ctx, nil, row); err != nil {
		s.log.Warn("failed to record ai call log", "lesson_id", lessonID, "error", err)
	}
}

package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/typegrove/curricula-backend/internal/data/repos"
	"github.com/typegrove/curricula-backend/internal/http/response"
	"github.com/typegrove/curricula-backend/internal/pkg/apperr"
	"github.com/typegrove/curricula-backend/internal/platform/logger"
	"github.com/typegrove/curricula-backend/internal/services/assign"
)

type AssignmentHandler struct {
	log            *logger.Logger
	assigner       *assign.Service
	courseRepo     repos.CourseRepo
	lessonRepo     repos.LessonRepo
	lessonConcepts repos.LessonConceptRepo
	conceptRepo    repos.ConceptRepo
}

func NewAssignmentHandler(
	baseLog *logger.Logger,
	assigner *assign.Service,
	courseRepo repos.CourseRepo,
	lessonRepo repos.LessonRepo,
	lessonConcepts repos.LessonConceptRepo,
	conceptRepo repos.ConceptRepo,
) *AssignmentHandler {
	return &AssignmentHandler{
		log:            baseLog.With("handler", "AssignmentHandler"),
		assigner:       assigner,
		courseRepo:     courseRepo,
		lessonRepo:     lessonRepo,
		lessonConcepts: lessonConcepts,
		conceptRepo:    conceptRepo,
	}
}

type lessonAssignResponse struct {
	LessonID string  `json:"lesson_id"`
	Assigned int     `json:"assigned"`
	CostUSD  float64 `json:"cost_usd"`
}

// POST /api/lessons/:id/concepts/assign
func (h *AssignmentHandler) AssignLesson(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "INVALID_LESSON_ID", err)
		return
	}
	lesson, err := h.lessonRepo.GetByID(c.Request.Context(), nil, id)
	if err != nil {
		h.log.Error("failed to load lesson", "lesson_id", id, "error", err)
		response.RespondError(c, http.StatusInternalServerError, "LESSON_LOOKUP_FAILED", err)
		return
	}
	if lesson == nil {
		response.RespondError(c, http.StatusNotFound, "LESSON_NOT_FOUND", apperr.ErrNotFound)
		return
	}
	res := h.assigner.AssignForLesson(c.Request.Context(), lesson)
	if res.Err != nil {
		h.log.Error("lesson assignment failed", "lesson_id", id, "error", res.Err)
		response.RespondError(c, http.StatusBadGateway, "ASSIGNMENT_FAILED", res.Err)
		return
	}
	response.RespondOK(c, lessonAssignResponse{
		LessonID: res.LessonID.String(),
		Assigned: res.Count,
		CostUSD:  res.CostUSD,
	})
}

type courseAssignFailure struct {
	LessonID string `json:"lesson_id"`
	Reason   string `json:"reason"`
}

type courseAssignResponse struct {
	CourseID         string                `json:"course_id"`
	LessonsProcessed int                   `json:"lessons_processed"`
	LessonsFailed    int                   `json:"lessons_failed"`
	ConceptsAssigned int                   `json:"concepts_assigned"`
	TotalCostUSD     float64               `json:"total_cost_usd"`
	Failures         []courseAssignFailure `json:"failures"`
}

// POST /api/courses/:id/concepts/assign
func (h *AssignmentHandler) AssignCourse(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "INVALID_COURSE_ID", err)
		return
	}
	course, err := h.courseRepo.GetByID(c.Request.Context(), nil, id)
	if err != nil {
		h.log.Error("failed to load course", "course_id", id, "error", err)
		response.RespondError(c, http.StatusInternalServerError, "COURSE_LOOKUP_FAILED", err)
		return
	}
	if course == nil {
		response.RespondError(c, http.StatusNotFound, "COURSE_NOT_FOUND", apperr.ErrNotFound)
		return
	}
	summary, err := h.assigner.AssignForCourse(c.Request.Context(), id)
	if err != nil {
		h.log.Error("course assignment aborted", "course_id", id, "error", err)
		response.RespondError(c, http.StatusInternalServerError, "COURSE_ASSIGNMENT_FAILED", err)
		return
	}
	out := courseAssignResponse{
		CourseID:         summary.CourseID.String(),
		LessonsProcessed: summary.LessonsProcessed,
		LessonsFailed:    summary.LessonsFailed,
		ConceptsAssigned: summary.ConceptsAssigned,
		TotalCostUSD:     summary.TotalCostUSD,
		Failures:         make([]courseAssignFailure, 0, len(summary.Failures)),
	}
	for _, f := range summary.Failures {
		out.Failures = append(out.Failures, courseAssignFailure{
			LessonID: f.LessonID.String(),
			Reason:   f.Reason,
		})
	}
	response.RespondOK(c, out)
}

type lessonConceptRow struct {
	ConceptID      string  `json:"concept_id"`
	Name           string  `json:"name"`
	Category       string  `json:"category"`
	Confidence     string  `json:"confidence"`
	Similarity     float64 `json:"similarity_score"`
	Prominence     float64 `json:"metadata_overlap_score"`
	AssignmentRank int     `json:"assignment_rank"`
}

// GET /api/lessons/:id/concepts
func (h *AssignmentHandler) ListLessonConcepts(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "INVALID_LESSON_ID", err)
		return
	}
	rows, err := h.lessonConcepts.GetByLessonID(c.Request.Context(), nil, id)
	if err != nil {
		h.log.Error("failed to list lesson concepts", "lesson_id", id, "error", err)
		response.RespondError(c, http.StatusInternalServerError, "LESSON_CONCEPTS_LOOKUP_FAILED", err)
		return
	}

	ids := make([]uuid.UUID, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.ConceptID)
	}
	concepts, err := h.conceptRepo.GetByIDs(c.Request.Context(), nil, ids)
	if err != nil {
		h.log.Error("failed to load concepts", "lesson_id", id, "error", err)
		response.RespondError(c, http.StatusInternalServerError, "CONCEPT_LOOKUP_FAILED", err)
		return
	}
	byID := make(map[uuid.UUID]string, len(concepts))
	catByID := make(map[uuid.UUID]string, len(concepts))
	for _, cn := range concepts {
		byID[cn.ID] = cn.Name
		catByID[cn.ID] = cn.Category
	}

	out := make([]lessonConceptRow, 0, len(rows))
	for _, r := range rows {
		out = append(out, lessonConceptRow{
			ConceptID:      r.ConceptID.String(),
			Name:           byID[r.ConceptID],
			Category:       catByID[r.ConceptID],
			Confidence:     r.Confidence,
			Similarity:     r.SimilarityScore,
			Prominence:     r.MetadataOverlapScore,
			AssignmentRank: r.AssignmentRank,
		})
	}
	response.RespondOK(c, gin.H{"lesson_id": id.String(), "concepts": out})
}

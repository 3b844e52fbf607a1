package domain

import (
	"time"

	"github.com/google/uuid"
)

// Confidence tiers stored on lesson_concept rows, ordered high > medium > low.
const (
	ConfidenceHigh   = "high"
	ConfidenceMedium = "medium"
	ConfidenceLow    = "low"
)

// LessonConcept is one ranked concept assignment for a lesson. The whole set
// for a lesson is replaced atomically on each assignment run; rows are never
// patched field by field.
type LessonConcept struct {
	ID uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`

	LessonID uuid.UUID `gorm:"type:uuid;not null;index:idx_lesson_concept,unique,priority:1" json:"lesson_id"`
	Lesson   *Lesson   `gorm:"constraint:OnDelete:CASCADE;foreignKey:LessonID;references:ID" json:"lesson,omitempty"`

	ConceptID uuid.UUID `gorm:"type:uuid;not null;index:idx_lesson_concept,unique,priority:2" json:"concept_id"`
	Concept   *Concept  `gorm:"constraint:OnDelete:CASCADE;foreignKey:ConceptID;references:ID" json:"concept,omitempty"`

	Confidence string `gorm:"column:confidence;not null" json:"confidence"`

	SimilarityScore      float64 `gorm:"column:similarity_score;not null" json:"similarity_score"`
	MetadataOverlapScore float64 `gorm:"column:metadata_overlap_score;not null;default:0" json:"metadata_overlap_score"`

	// AssignmentRank is the 1-based position within the lesson's set; ranks
	// form a dense sequence starting at 1.
	AssignmentRank int `gorm:"column:assignment_rank;not null" json:"assignment_rank"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (LessonConcept) TableName() string { return "lesson_concept" }

package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Concept mirrors a knowledge-graph node eligible for assignment to lessons.
// Rows are embedded once and loaded into the similarity index with a
// type marker of "concept"; the pipeline reads them, it never edits them.
type Concept struct {
	ID uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`

	// Key is a stable slug identifier, stable across runs.
	Key string `gorm:"column:key;not null;index:idx_concept_key,unique" json:"key"`

	Name     string `gorm:"column:name;not null" json:"name"`
	Category string `gorm:"column:category" json:"category"`
	Summary  string `gorm:"column:summary" json:"summary"`

	// VectorID is the id of this concept's vector in the similarity index.
	VectorID string `gorm:"column:vector_id;index" json:"vector_id"`

	CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Concept) TableName() string { return "concept" }

package assign

import (
	"fmt"

	"github.com/google/uuid"
)

// EmbeddingFailure means the embedding call for a lesson could not complete.
// Fatal for that lesson, never for the batch.
type EmbeddingFailure struct {
	LessonID uuid.UUID
	Err      error
}

func (e *EmbeddingFailure) Error() string {
	return fmt.Sprintf("embedding failed for lesson %s: %v", e.LessonID, e.Err)
}

func (e *EmbeddingFailure) Unwrap() error { return e.Err }

// RetrievalFailure means the similarity query for a lesson failed.
type RetrievalFailure struct {
	LessonID uuid.UUID
	Err      error
}

func (e *RetrievalFailure) Error() string {
	return fmt.Sprintf("concept retrieval failed for lesson %s: %v", e.LessonID, e.Err)
}

func (e *RetrievalFailure) Unwrap() error { return e.Err }

// PersistenceFailure means the assignment transaction could not commit. The
// transaction rolls back, so the lesson keeps its previous assignment set.
type PersistenceFailure struct {
	LessonID uuid.UUID
	Err      error
}

func (e *PersistenceFailure) Error() string {
	return fmt.Sprintf("assignment persistence failed for lesson %s: %v", e.LessonID, e.Err)
}

func (e *PersistenceFailure) Unwrap() error { return e.Err }

// ConfigurationError is fatal at startup; nothing should be processed once
// one is detected.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return "configuration error: " + e.Reason
}

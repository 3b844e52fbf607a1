package conceptindex

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/typegrove/curricula-backend/internal/clients/openai"
	"github.com/typegrove/curricula-backend/internal/clients/pinecone"
	"github.com/typegrove/curricula-backend/internal/data/repos"
	"github.com/typegrove/curricula-backend/internal/domain"
	"github.com/typegrove/curricula-backend/internal/platform/logger"
	"github.com/typegrove/curricula-backend/internal/services/assign"
)

const embedBatchSize = 64

// Service loads knowledge-graph concepts into the similarity index so the
// assignment pipeline can query them. Vectors carry the concept id, display
// name, category and the "concept" type marker as metadata.
type Service struct {
	log      *logger.Logger
	ai       openai.Client
	vec      pinecone.VectorStore
	concepts repos.ConceptRepo
}

func NewService(log *logger.Logger, ai openai.Client, vec pinecone.VectorStore, concepts repos.ConceptRepo) (*Service, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if ai == nil {
		return nil, fmt.Errorf("openai client required")
	}
	if vec == nil {
		return nil, fmt.Errorf("vector store required")
	}
	if concepts == nil {
		return nil, fmt.Errorf("concept repo required")
	}
	return &Service{
		log:      log.With("service", "ConceptIndexService"),
		ai:       ai,
		vec:      vec,
		concepts: concepts,
	}, nil
}

type IndexSummary struct {
	Concepts int
	Upserted int
}

// IndexAll embeds every concept and upserts the vectors in batches. Vector
// ids are written back to the concept rows so retrieval results can be
// resolved without metadata.
func (s *Service) IndexAll(ctx context.Context, tx *gorm.DB) (IndexSummary, error) {
	summary := IndexSummary{}

	rows, err := s.concepts.List(ctx, tx)
	if err != nil {
		return summary, fmt.Errorf("list concepts: %w", err)
	}
	summary.Concepts = len(rows)
	if len(rows) == 0 {
		s.log.Warn("no concepts to index")
		return summary, nil
	}

	for start := 0; start < len(rows); start += embedBatchSize {
		end := start + embedBatchSize
		if end > len(rows) {
			end = len(rows)
		}
		batch := rows[start:end]

		inputs := make([]string, 0, len(batch))
		for _, c := range batch {
			inputs = append(inputs, embeddingText(c))
		}

		embs, err := s.ai.Embed(ctx, inputs)
		if err != nil {
			return summary, fmt.Errorf("embed concepts [%d:%d]: %w", start, end, err)
		}

		vectors := make([]pinecone.Vector, 0, len(batch))
		for i, c := range batch {
			vectorID := "concept:" + c.ID.String()
			vectors = append(vectors, pinecone.Vector{
				ID:     vectorID,
				Values: embs[i],
				Metadata: map[string]any{
					"type":       "concept",
					"concept_id": c.ID.String(),
					"name":       c.Name,
					"category":   c.Category,
				},
			})
		}

		if err := s.vec.Upsert(ctx, assign.ConceptNamespace, vectors); err != nil {
			return summary, fmt.Errorf("upsert concept vectors [%d:%d]: %w", start, end, err)
		}
		summary.Upserted += len(vectors)

		// Write vector ids back only once the batch is actually loaded, so a
		// failed upsert never leaves rows pointing at missing vectors.
		for _, c := range batch {
			vectorID := "concept:" + c.ID.String()
			if c.VectorID == vectorID {
				continue
			}
			if err := s.concepts.UpdateFields(ctx, tx, c.ID, map[string]interface{}{"vector_id": vectorID}); err != nil {
				return summary, fmt.Errorf("record vector id for concept %s: %w", c.ID, err)
			}
		}
	}

	s.log.Info("concept index refreshed",
		"concepts", summary.Concepts,
		"upserted", summary.Upserted,
	)
	return summary, nil
}

func embeddingText(c *domain.Concept) string {
	parts := make([]string, 0, 3)
	for _, p := range []string{c.Name, c.Category, c.Summary} {
		if s := strings.TrimSpace(p); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, "\n")
}

package synthesis

import (
	"context"
	"fmt"
	"strings"

	"github.com/typegrove/curricula-backend/internal/clients/openai"
	"github.com/typegrove/curricula-backend/internal/clients/pinecone"
	"github.com/typegrove/curricula-backend/internal/domain"
	"github.com/typegrove/curricula-backend/internal/platform/envutil"
	"github.com/typegrove/curricula-backend/internal/platform/logger"
	"github.com/typegrove/curricula-backend/internal/services/assign"
)

// ChunkNamespace is the similarity-index namespace holding transcript chunk
// vectors, loaded by the ingestion collaborator.
const ChunkNamespace = "chunks"

const systemPrompt = "You are a curriculum writer. Write clear lesson prose in markdown, " +
	"grounded strictly in the provided transcript excerpts. Do not invent sources."

// Service synthesizes lesson prose from transcript excerpts retrieved out of
// the similarity index.
type Service struct {
	log  *logger.Logger
	ai   openai.Client
	vec  pinecone.VectorStore
	topK int
}

func NewService(log *logger.Logger, ai openai.Client, vec pinecone.VectorStore) (*Service, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if ai == nil {
		return nil, fmt.Errorf("openai client required")
	}
	if vec == nil {
		return nil, fmt.Errorf("vector store required")
	}
	return &Service{
		log:  log.With("service", "LessonSynthesisService"),
		ai:   ai,
		vec:  vec,
		topK: envutil.Int("SYNTHESIS_TOP_K", 8),
	}, nil
}

// SynthesizeLesson retrieves the most relevant transcript excerpts for the
// lesson and asks the model for grounded prose. An empty excerpt set is an
// error; prose with no grounding is worse than no prose.
func (s *Service) SynthesizeLesson(ctx context.Context, lesson *domain.Lesson) (string, error) {
	if lesson == nil {
		return "", fmt.Errorf("lesson is nil")
	}
	text := assign.BuildSearchText(lesson)
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("lesson %s has no text to search with", lesson.ID)
	}

	vecs, err := s.ai.Embed(ctx, []string{text})
	if err != nil {
		return "", fmt.Errorf("embed lesson %s: %w", lesson.ID, err)
	}

	matches, err := s.vec.QueryMatches(ctx, ChunkNamespace, vecs[0], s.topK, map[string]any{"type": "chunk"})
	if err != nil {
		return "", fmt.Errorf("retrieve excerpts for lesson %s: %w", lesson.ID, err)
	}

	excerpts := make([]string, 0, len(matches))
	for _, m := range matches {
		if body, ok := m.Metadata["text"].(string); ok && strings.TrimSpace(body) != "" {
			excerpts = append(excerpts, strings.TrimSpace(body))
		}
	}
	if len(excerpts) == 0 {
		return "", fmt.Errorf("no transcript excerpts available for lesson %s", lesson.ID)
	}

	var prompt strings.Builder
	prompt.WriteString("Lesson title: ")
	prompt.WriteString(lesson.Title)
	prompt.WriteString("\n\n")
	if strings.TrimSpace(lesson.Description) != "" {
		prompt.WriteString("Lesson description: ")
		prompt.WriteString(lesson.Description)
		prompt.WriteString("\n\n")
	}
	prompt.WriteString("Transcript excerpts:\n")
	for i, e := range excerpts {
		prompt.WriteString(fmt.Sprintf("\n[%d] %s\n", i+1, e))
	}
	prompt.WriteString("\nWrite the lesson prose.")

	prose, err := s.ai.GenerateText(ctx, systemPrompt, prompt.String())
	if err != nil {
		return "", fmt.Errorf("generate prose for lesson %s: %w", lesson.ID, err)
	}

	s.log.Info("synthesized lesson prose",
		"lesson_id", lesson.ID,
		"excerpts", len(excerpts),
		"chars", len(prose),
	)
	return prose, nil
}

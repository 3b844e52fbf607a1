package assign

import (
	"fmt"

	"github.com/typegrove/curricula-backend/internal/clients/openai"
	"github.com/typegrove/curricula-backend/internal/clients/pinecone"
	"github.com/typegrove/curricula-backend/internal/platform/envutil"
)

// Weights is a named composite-score weighting scheme. The three components
// must sum to 1 for the composite to stay in [0,1].
type Weights struct {
	Vector          float64
	Prominence      float64
	MetadataOverlap float64
}

// DefaultWeights is the two-factor scheme used when a lesson carries no tag
// metadata.
var DefaultWeights = Weights{Vector: 0.70, Prominence: 0.30, MetadataOverlap: 0}

// MetadataAwareWeights is the three-factor scheme used when lesson tags are
// available to compute a metadata-overlap component.
var MetadataAwareWeights = Weights{Vector: 0.50, Prominence: 0.15, MetadataOverlap: 0.35}

// Composite-score cut points for confidence tiers.
const (
	tierHighThreshold   = 0.60
	tierMediumThreshold = 0.45
	tierLowThreshold    = 0.30
)

type Config struct {
	// MinConcepts is the floor the result set is padded toward when enough
	// raw candidates exist; padded entries are forced to low confidence.
	MinConcepts int
	// MaxConcepts bounds the result set.
	MaxConcepts int
	// MinSimilarity is the vector-similarity floor below which candidates
	// are discarded (unless needed to reach MinConcepts).
	MinSimilarity float64
	// TopK is how many candidates to pull from the similarity index.
	TopK int

	Weights Weights

	// IndependentTiers switches tier computation from the composite score to
	// independent thresholds on similarity and prominence, taking the more
	// generous of the two.
	IndependentTiers bool

	// CallTimeoutSeconds bounds each external call made per lesson.
	CallTimeoutSeconds int

	// EmbedPricePer1K prices estimated embedding tokens for cost telemetry.
	EmbedPricePer1K float64
}

func DefaultConfig() Config {
	return Config{
		MinConcepts:        3,
		MaxConcepts:        10,
		MinSimilarity:      0.65,
		TopK:               30,
		Weights:            DefaultWeights,
		IndependentTiers:   false,
		CallTimeoutSeconds: 30,
		EmbedPricePer1K:    0.00002,
	}
}

func ConfigFromEnv() Config {
	cfg := DefaultConfig()
	cfg.MinConcepts = envutil.Int("ASSIGN_MIN_CONCEPTS", cfg.MinConcepts)
	cfg.MaxConcepts = envutil.Int("ASSIGN_MAX_CONCEPTS", cfg.MaxConcepts)
	cfg.MinSimilarity = envutil.Float("ASSIGN_MIN_SIMILARITY", cfg.MinSimilarity)
	cfg.TopK = envutil.Int("ASSIGN_TOP_K", cfg.TopK)
	cfg.IndependentTiers = envutil.Bool("ASSIGN_INDEPENDENT_TIERS", cfg.IndependentTiers)
	cfg.CallTimeoutSeconds = envutil.Int("ASSIGN_CALL_TIMEOUT_SECONDS", cfg.CallTimeoutSeconds)
	cfg.EmbedPricePer1K = envutil.Float("ASSIGN_EMBED_PRICE_PER_1K", cfg.EmbedPricePer1K)
	return cfg
}

func (c Config) Validate() error {
	if c.MinConcepts < 0 {
		return &ConfigurationError{Reason: "ASSIGN_MIN_CONCEPTS must be >= 0"}
	}
	if c.MaxConcepts < 1 {
		return &ConfigurationError{Reason: "ASSIGN_MAX_CONCEPTS must be >= 1"}
	}
	if c.MinConcepts > c.MaxConcepts {
		return &ConfigurationError{Reason: "ASSIGN_MIN_CONCEPTS cannot exceed ASSIGN_MAX_CONCEPTS"}
	}
	if c.MinSimilarity < 0 || c.MinSimilarity > 1 {
		return &ConfigurationError{Reason: "ASSIGN_MIN_SIMILARITY must be in [0,1]"}
	}
	if c.TopK < c.MaxConcepts {
		return &ConfigurationError{Reason: "ASSIGN_TOP_K must be >= ASSIGN_MAX_CONCEPTS"}
	}
	return nil
}

// ValidateDimensions confirms the embedding configuration matches the
// similarity index. A mismatch is fatal at startup, never per lesson.
func ValidateDimensions(ai openai.Client, vec pinecone.VectorStore) error {
	want := vec.Dimension()
	got := ai.EmbedDimensions()
	if want > 0 && got != want {
		return &ConfigurationError{
			Reason: fmt.Sprintf("embedding dimension %d does not match index dimension %d", got, want),
		}
	}
	return nil
}

package assign

import (
	"sort"

	"github.com/google/uuid"

	"github.com/typegrove/curricula-backend/internal/domain"
)

// Candidate is one raw similarity match, best first as returned by the index.
type Candidate struct {
	ConceptID  uuid.UUID
	Name       string
	Category   string
	Similarity float64
}

// ScoredAssignment is one ranked assignment ready to persist.
type ScoredAssignment struct {
	ConceptID       uuid.UUID
	Name            string
	Composite       float64
	Similarity      float64
	Prominence      float64
	MetadataOverlap float64
	Confidence      string
	Rank            int
}

// LessonText carries the lexical inputs the scorer matches concept names
// against. Tags come from lesson metadata and enable the three-factor
// weighting when present.
type LessonText struct {
	Title       string
	Description string
	Objectives  string
	Tags        []string
}

// ScoreCandidates turns raw candidates into a deterministic, ranked, bounded
// assignment set:
//
//  1. duplicates collapse to the highest-similarity occurrence
//  2. candidates below the similarity floor (or below the lowest composite
//     tier) are excluded, then pulled back in forced to low confidence if
//     fewer than MinConcepts survive and raw candidates remain
//  3. composite = weighted sum of similarity, prominence and (when tags are
//     present) metadata overlap
//  4. stable sort by composite descending, truncate to MaxConcepts, dense
//     1-based ranks
func ScoreCandidates(text LessonText, candidates []Candidate, cfg Config) []ScoredAssignment {
	if len(candidates) == 0 {
		return []ScoredAssignment{}
	}

	w := cfg.Weights
	if len(text.Tags) > 0 {
		w = MetadataAwareWeights
	}

	// Collapse duplicate concept ids; the index returns best similarity
	// first, so the first occurrence wins.
	seen := make(map[uuid.UUID]bool, len(candidates))
	unique := make([]Candidate, 0, len(candidates))
	for _, c := range candidates {
		if c.ConceptID == uuid.Nil || seen[c.ConceptID] {
			continue
		}
		seen[c.ConceptID] = true
		unique = append(unique, c)
	}

	scored := make([]ScoredAssignment, 0, len(unique))
	for _, c := range unique {
		p := prominenceScore(c.Name, text.Title, text.Description)
		m := metadataOverlapScore(text.Tags, c.Name, c.Category)
		composite := w.Vector*c.Similarity + w.Prominence*p + w.MetadataOverlap*m
		composite = clamp01(composite)

		tier := tierForComposite(composite)
		if cfg.IndependentTiers {
			tier = moreGenerousTier(tierForComposite(c.Similarity), tierForComposite(p))
		}

		scored = append(scored, ScoredAssignment{
			ConceptID:       c.ConceptID,
			Name:            c.Name,
			Composite:       composite,
			Similarity:      c.Similarity,
			Prominence:      p,
			MetadataOverlap: m,
			Confidence:      tier,
		})
	}

	eligible := make([]ScoredAssignment, 0, len(scored))
	rest := make([]ScoredAssignment, 0)
	for _, s := range scored {
		if s.Similarity >= cfg.MinSimilarity && s.Confidence != "" {
			eligible = append(eligible, s)
		} else {
			rest = append(rest, s)
		}
	}

	sort.SliceStable(eligible, func(i, j int) bool {
		return eligible[i].Composite > eligible[j].Composite
	})
	if len(eligible) > cfg.MaxConcepts {
		eligible = eligible[:cfg.MaxConcepts]
	}

	// Relax the floor only as far as needed to reach the minimum; retained
	// candidates are forced to low confidence. Best raw similarity first.
	if len(eligible) < cfg.MinConcepts && len(rest) > 0 {
		sort.SliceStable(rest, func(i, j int) bool {
			return rest[i].Similarity > rest[j].Similarity
		})
		for _, s := range rest {
			if len(eligible) >= cfg.MinConcepts {
				break
			}
			s.Confidence = domain.ConfidenceLow
			eligible = append(eligible, s)
		}
	}

	for i := range eligible {
		eligible[i].Rank = i + 1
	}
	return eligible
}

func tierForComposite(score float64) string {
	switch {
	case score >= tierHighThreshold:
		return domain.ConfidenceHigh
	case score >= tierMediumThreshold:
		return domain.ConfidenceMedium
	case score >= tierLowThreshold:
		return domain.ConfidenceLow
	default:
		return ""
	}
}

func moreGenerousTier(a, b string) string {
	rank := func(t string) int {
		switch t {
		case domain.ConfidenceHigh:
			return 3
		case domain.ConfidenceMedium:
			return 2
		case domain.ConfidenceLow:
			return 1
		default:
			return 0
		}
	}
	if rank(a) >= rank(b) {
		return a
	}
	return b
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

package assign

import (
	"math"
	"testing"

	"github.com/google/uuid"

	"github.com/typegrove/curricula-backend/internal/domain"
)

func testConfig() Config {
	cfg := DefaultConfig()
	return cfg
}

func mkCandidates(sims ...float64) []Candidate {
	out := make([]Candidate, 0, len(sims))
	for i, s := range sims {
		out = append(out, Candidate{
			ConceptID:  uuid.New(),
			Name:       "concept " + string(rune('a'+i)),
			Similarity: s,
		})
	}
	return out
}

func TestScoreCandidatesEmptyInput(t *testing.T) {
	got := ScoreCandidates(LessonText{Title: "t"}, nil, testConfig())
	if len(got) != 0 {
		t.Fatalf("expected empty result for zero candidates, got %d", len(got))
	}
}

func TestCompositeFormulaAndTiers(t *testing.T) {
	// v=0.9, p=0.5 -> 0.70*0.9 + 0.30*0.5 = 0.78 -> high
	comp := DefaultWeights.Vector*0.9 + DefaultWeights.Prominence*0.5
	if math.Abs(comp-0.78) > 1e-9 {
		t.Fatalf("composite = %v, want 0.78", comp)
	}
	if tier := tierForComposite(comp); tier != domain.ConfidenceHigh {
		t.Fatalf("tier for %v = %q, want high", comp, tier)
	}

	// v=0.50, p=0.0 -> 0.35 -> low (>= 0.30, < 0.45)
	comp = DefaultWeights.Vector * 0.50
	if tier := tierForComposite(comp); tier != domain.ConfidenceLow {
		t.Fatalf("tier for %v = %q, want low", comp, tier)
	}

	if tier := tierForComposite(0.29); tier != "" {
		t.Fatalf("tier for 0.29 = %q, want excluded", tier)
	}
}

func TestRanksDenseAndBounded(t *testing.T) {
	cfg := testConfig()
	candidates := mkCandidates(0.95, 0.92, 0.90, 0.88, 0.85, 0.82, 0.80, 0.78, 0.76, 0.74, 0.72, 0.70)

	got := ScoreCandidates(LessonText{Title: "unrelated"}, candidates, cfg)

	if len(got) > cfg.MaxConcepts {
		t.Fatalf("result size %d exceeds max %d", len(got), cfg.MaxConcepts)
	}
	if len(got) < cfg.MinConcepts {
		t.Fatalf("result size %d below min %d with %d candidates", len(got), cfg.MinConcepts, len(candidates))
	}
	for i, a := range got {
		if a.Rank != i+1 {
			t.Fatalf("rank at position %d is %d, want %d", i, a.Rank, i+1)
		}
	}
}

func TestNoDuplicateConcepts(t *testing.T) {
	cfg := testConfig()
	dup := uuid.New()
	candidates := []Candidate{
		{ConceptID: dup, Name: "shared", Similarity: 0.95},
		{ConceptID: uuid.New(), Name: "other", Similarity: 0.90},
		{ConceptID: dup, Name: "shared", Similarity: 0.88},
	}

	got := ScoreCandidates(LessonText{Title: "shared"}, candidates, cfg)

	seen := map[uuid.UUID]bool{}
	for _, a := range got {
		if seen[a.ConceptID] {
			t.Fatalf("concept %s appears twice", a.ConceptID)
		}
		seen[a.ConceptID] = true
	}
	for _, a := range got {
		if a.ConceptID == dup && a.Similarity != 0.95 {
			t.Fatalf("duplicate kept similarity %v, want the higher 0.95", a.Similarity)
		}
	}
}

func TestMinimumCountRelaxesFloor(t *testing.T) {
	cfg := testConfig()
	// Only 2 of 30 clear the 0.65 floor; the third-best raw candidate must
	// be pulled back in, forced to low confidence.
	sims := []float64{0.90, 0.85}
	for i := 0; i < 28; i++ {
		sims = append(sims, 0.60-float64(i)*0.01)
	}
	candidates := mkCandidates(sims...)

	got := ScoreCandidates(LessonText{Title: "nothing in common"}, candidates, cfg)

	if len(got) != cfg.MinConcepts {
		t.Fatalf("result size %d, want min %d", len(got), cfg.MinConcepts)
	}
	forced := got[len(got)-1]
	if forced.Similarity >= cfg.MinSimilarity {
		t.Fatalf("forced candidate similarity %v should be below the floor", forced.Similarity)
	}
	if math.Abs(forced.Similarity-0.60) > 1e-9 {
		t.Fatalf("forced candidate similarity %v, want the third-best raw 0.60", forced.Similarity)
	}
	if forced.Confidence != domain.ConfidenceLow {
		t.Fatalf("forced candidate confidence %q, want low", forced.Confidence)
	}
}

func TestFewerCandidatesThanMinimum(t *testing.T) {
	cfg := testConfig()
	candidates := mkCandidates(0.40, 0.35)

	got := ScoreCandidates(LessonText{Title: "x"}, candidates, cfg)

	if len(got) != 2 {
		t.Fatalf("result size %d, want everything available (2), no padding", len(got))
	}
	for _, a := range got {
		if a.Confidence != domain.ConfidenceLow {
			t.Fatalf("below-floor retained candidate has confidence %q, want low", a.Confidence)
		}
	}
}

func TestDeterministicOrderOnEqualScores(t *testing.T) {
	cfg := testConfig()
	candidates := mkCandidates(0.80, 0.80, 0.80, 0.80)

	first := ScoreCandidates(LessonText{Title: "zzz"}, candidates, cfg)
	second := ScoreCandidates(LessonText{Title: "zzz"}, candidates, cfg)

	if len(first) != len(second) {
		t.Fatalf("run sizes differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].ConceptID != second[i].ConceptID || first[i].Rank != second[i].Rank {
			t.Fatalf("order not deterministic at position %d", i)
		}
	}
	// Stable sort keeps input order for ties.
	for i := range first {
		if first[i].ConceptID != candidates[i].ConceptID {
			t.Fatalf("tie order diverged from input order at position %d", i)
		}
	}
}

func TestTitleMatchBoostsProminence(t *testing.T) {
	cfg := testConfig()
	inTitle := Candidate{ConceptID: uuid.New(), Name: "feedback loops", Similarity: 0.70}
	unrelated := Candidate{ConceptID: uuid.New(), Name: "quaternions", Similarity: 0.70}

	got := ScoreCandidates(LessonText{
		Title:       "Understanding Feedback Loops",
		Description: "How systems self-correct.",
	}, []Candidate{unrelated, inTitle}, cfg)

	if len(got) < 2 {
		t.Fatalf("expected both candidates, got %d", len(got))
	}
	if got[0].ConceptID != inTitle.ConceptID {
		t.Fatalf("title-matched concept should rank first")
	}
	if got[0].Prominence != 1.0 {
		t.Fatalf("title substring prominence = %v, want 1.0", got[0].Prominence)
	}
}

func TestMetadataAwareWeightsSelectedByTags(t *testing.T) {
	cfg := testConfig()
	c := Candidate{ConceptID: uuid.New(), Name: "introversion", Category: "cognitive style", Similarity: 0.80}

	tagged := ScoreCandidates(LessonText{Title: "zzz", Tags: []string{"introversion"}}, []Candidate{c}, cfg)
	untagged := ScoreCandidates(LessonText{Title: "zzz"}, []Candidate{c}, cfg)

	if len(tagged) != 1 || len(untagged) != 1 {
		t.Fatalf("expected single results")
	}
	if tagged[0].MetadataOverlap != 1.0 {
		t.Fatalf("metadata overlap = %v, want 1.0", tagged[0].MetadataOverlap)
	}
	if untagged[0].MetadataOverlap != 0 {
		t.Fatalf("untagged overlap = %v, want 0", untagged[0].MetadataOverlap)
	}
	wantTagged := clamp01(MetadataAwareWeights.Vector*0.80 + MetadataAwareWeights.Prominence*tagged[0].Prominence + MetadataAwareWeights.MetadataOverlap*1.0)
	if math.Abs(tagged[0].Composite-wantTagged) > 1e-9 {
		t.Fatalf("tagged composite = %v, want %v", tagged[0].Composite, wantTagged)
	}
}

func TestIndependentTiersTakeMoreGenerous(t *testing.T) {
	cfg := testConfig()
	cfg.IndependentTiers = true
	// Similarity 0.66 -> high tier on its own even though prominence is 0.
	c := Candidate{ConceptID: uuid.New(), Name: "quasars", Similarity: 0.66}

	got := ScoreCandidates(LessonText{Title: "zzz"}, []Candidate{c}, cfg)
	if len(got) != 1 {
		t.Fatalf("expected one result, got %d", len(got))
	}
	if got[0].Confidence != domain.ConfidenceHigh {
		t.Fatalf("independent tier = %q, want high", got[0].Confidence)
	}
}

package assign

import (
	"math"
	"testing"
)

func TestProminenceTitleSubstring(t *testing.T) {
	if got := prominenceScore("Cognitive Functions", "Intro to cognitive functions", ""); got != 1.0 {
		t.Fatalf("title substring prominence = %v, want 1.0", got)
	}
}

func TestProminenceDescriptionSubstring(t *testing.T) {
	got := prominenceScore("shadow functions", "Week 3", "We cover shadow functions in depth.")
	if got != 0.7 {
		t.Fatalf("description substring prominence = %v, want 0.7", got)
	}
}

func TestProminenceFuzzyFallbackScaled(t *testing.T) {
	got := prominenceScore("introversion", "introverted tendencies", "")
	if got <= 0 || got > 0.5 {
		t.Fatalf("fuzzy fallback prominence = %v, want in (0, 0.5]", got)
	}
}

func TestProminenceEmptyName(t *testing.T) {
	if got := prominenceScore("  ", "title", "desc"); got != 0 {
		t.Fatalf("empty name prominence = %v, want 0", got)
	}
}

func TestSimilarityRatio(t *testing.T) {
	if got := similarityRatio("abc", "abc"); got != 1.0 {
		t.Fatalf("identical ratio = %v, want 1.0", got)
	}
	if got := similarityRatio("", "abc"); got != 0 {
		t.Fatalf("empty ratio = %v, want 0", got)
	}
	// One edit over four runes.
	if got := similarityRatio("abcd", "abce"); math.Abs(got-0.75) > 1e-9 {
		t.Fatalf("ratio = %v, want 0.75", got)
	}
}

func TestMetadataOverlapScore(t *testing.T) {
	if got := metadataOverlapScore(nil, "a", "b"); got != 0 {
		t.Fatalf("no tags overlap = %v, want 0", got)
	}
	got := metadataOverlapScore([]string{"intuition", "sensing"}, "Extraverted Intuition", "cognitive function")
	if math.Abs(got-0.5) > 1e-9 {
		t.Fatalf("overlap = %v, want 0.5", got)
	}
}

package assign

import (
	"strings"

	"github.com/agnivade/levenshtein"
)

// prominenceScore measures how directly a concept's name appears in a
// lesson's title or description: exact substring in the title is 1.0, in the
// description 0.7, otherwise half the best fuzzy token ratio.
func prominenceScore(conceptName, title, description string) float64 {
	name := strings.ToLower(strings.TrimSpace(conceptName))
	if name == "" {
		return 0
	}
	title = strings.ToLower(strings.TrimSpace(title))
	description = strings.ToLower(strings.TrimSpace(description))

	if title != "" && strings.Contains(title, name) {
		return 1.0
	}
	if description != "" && strings.Contains(description, name) {
		return 0.7
	}

	best := fuzzyTokenRatio(name, title)
	if r := fuzzyTokenRatio(name, description); r > best {
		best = r
	}
	return 0.5 * best
}

// fuzzyTokenRatio averages, over the name's tokens, the best edit-distance
// similarity against any token of the text. Returns a value in [0,1].
func fuzzyTokenRatio(name, text string) float64 {
	nameTokens := strings.Fields(name)
	textTokens := strings.Fields(text)
	if len(nameTokens) == 0 || len(textTokens) == 0 {
		return 0
	}
	var sum float64
	for _, nt := range nameTokens {
		var best float64
		for _, tt := range textTokens {
			if r := similarityRatio(nt, tt); r > best {
				best = r
			}
			if best == 1.0 {
				break
			}
		}
		sum += best
	}
	return sum / float64(len(nameTokens))
}

func similarityRatio(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 1.0
	}
	dist := levenshtein.ComputeDistance(a, b)
	longest := len([]rune(a))
	if l := len([]rune(b)); l > longest {
		longest = l
	}
	if longest == 0 {
		return 0
	}
	r := 1.0 - float64(dist)/float64(longest)
	if r < 0 {
		return 0
	}
	return r
}

// metadataOverlapScore is the fraction of lesson tags found in the concept's
// name or category. Zero tags means the component is unavailable.
func metadataOverlapScore(tags []string, conceptName, conceptCategory string) float64 {
	if len(tags) == 0 {
		return 0
	}
	haystack := strings.ToLower(conceptName + " " + conceptCategory)
	matched := 0
	for _, tag := range tags {
		t := strings.ToLower(strings.TrimSpace(tag))
		if t == "" {
			continue
		}
		if strings.Contains(haystack, t) {
			matched++
		}
	}
	return float64(matched) / float64(len(tags))
}

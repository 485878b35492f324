package deckforge

import "strings"

// FrameworkCategory is one required category of an analytical
// framework together with the keyword family that marks it covered.
type FrameworkCategory struct {
	Name     string
	Keywords []string
}

// Framework is a data-driven category schema (3C, 4P, SWOT, ...).
// New frameworks are additive table entries, not code changes.
type Framework struct {
	ID         string
	Categories []FrameworkCategory
}

// Match reports which categories of the framework are covered by the
// text and which are missing. Keyword matching is case-insensitive
// substring matching, so keyword families may hold stems.
func (f Framework) Match(text string) (hit, missing []string) {
	lowered := strings.ToLower(text)
	for _, cat := range f.Categories {
		if containsAny(lowered, cat.Keywords) {
			hit = append(hit, cat.Name)
		} else {
			missing = append(missing, cat.Name)
		}
	}
	return hit, missing
}

// minFrameworkHits is how many categories must be covered before a
// framework counts as the deck's active schema.
const minFrameworkHits = 2

// DetectFramework picks the framework whose categories the text covers
// best. A framework needs at least minFrameworkHits covered categories
// to qualify; ties keep the earlier table entry. ok is false when no
// framework qualifies, in which case exhaustiveness cannot be judged.
func DetectFramework(frameworks []Framework, text string) (Framework, bool) {
	var best Framework
	bestHits := 0
	for _, f := range frameworks {
		hit, _ := f.Match(text)
		if len(hit) >= minFrameworkHits && len(hit) > bestHits {
			best = f
			bestHits = len(hit)
		}
	}
	return best, bestHits > 0
}

// containsAny reports whether the already-lowercased text contains any
// of the keywords. Keywords are stored lowercased.
func containsAny(lowered string, keys []string) bool {
	for _, k := range keys {
		if k != "" && strings.Contains(lowered, k) {
			return true
		}
	}
	return false
}

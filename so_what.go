package deckforge

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// So-what criterion weights. Each missing criterion subtracts its
// weight from a starting score of 1.0.
const (
	soWhatVerbWeight        = 0.30
	soWhatFigureWeight      = 0.30
	soWhatImplicationWeight = 0.30
	soWhatLengthWeight      = 0.10
)

// Headline length window in runes. Shorter headlines carry no message;
// longer ones stop being headlines.
const (
	minHeadlineRunes = 20
	maxHeadlineRunes = 60
)

// defaultSoWhatThreshold is the minimum score for a passing headline.
const defaultSoWhatThreshold = 0.7

// HeadlineResult is the outcome of the so-what test for one headline.
type HeadlineResult struct {
	Score  float64
	Passed bool
	Issues []string
}

// HeadlineQualityTester scores headlines on whether they state a
// consequence rather than a topic: an action verb, a quantified
// figure, an explicit implication, and a reasonable length. Testing
// is a pure function of the headline and the lexicon.
type HeadlineQualityTester struct {
	lex       *Lexicon
	threshold float64
}

// NewHeadlineQualityTester creates a tester using the lexicon for the
// given locale.
func NewHeadlineQualityTester(locale string) *HeadlineQualityTester {
	return &HeadlineQualityTester{
		lex:       LexiconFor(locale),
		threshold: defaultSoWhatThreshold,
	}
}

// SetPassThreshold overrides the passing score. Values outside (0,1]
// are ignored.
func (t *HeadlineQualityTester) SetPassThreshold(v float64) {
	if v > 0 && v <= 1 {
		t.threshold = v
	}
}

// Test scores one headline.
func (t *HeadlineQualityTester) Test(headline string) HeadlineResult {
	headline = strings.TrimSpace(headline)
	lowered := strings.ToLower(headline)

	score := 1.0
	var issues []string

	if !containsAny(lowered, t.lex.ActionVerbs) {
		score -= soWhatVerbWeight
		issues = append(issues, "no action verb")
	}
	if !strings.ContainsFunc(headline, unicode.IsDigit) {
		score -= soWhatFigureWeight
		issues = append(issues, "no quantified figure")
	}
	if !containsAny(lowered, t.lex.ImplicationMarkers) {
		score -= soWhatImplicationWeight
		issues = append(issues, "no strategic implication")
	}
	if n := utf8.RuneCountInString(headline); n < minHeadlineRunes || n > maxHeadlineRunes {
		score -= soWhatLengthWeight
		issues = append(issues, fmt.Sprintf("length %d outside %d-%d characters", n, minHeadlineRunes, maxHeadlineRunes))
	}

	score = clamp01(score)
	return HeadlineResult{
		Score:  score,
		Passed: score >= t.threshold,
		Issues: issues,
	}
}

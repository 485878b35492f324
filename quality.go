package deckforge

import (
	"fmt"
	"math"
	"strings"
	"unicode"

	"go.uber.org/zap"
)

// Quality dimension names, used as weight keys in ScoringPolicy.
const (
	DimClarity       = "clarity"
	DimInsight       = "insight"
	DimStructure     = "structure"
	DimVisual        = "visual"
	DimActionability = "actionability"
)

// defaultTargetScore is the total score a deck must reach to pass.
const defaultTargetScore = 0.85

// ScoringPolicy fixes the dimension weights and the acceptance bar
// for a run. Policies are versioned so a stored score can be traced
// back to the weights that produced it.
type ScoringPolicy struct {
	Version string
	Weights map[string]float64
	Target  float64
}

// DefaultScoringPolicy returns the v1 policy.
func DefaultScoringPolicy() ScoringPolicy {
	return ScoringPolicy{
		Version: "v1",
		Weights: map[string]float64{
			DimClarity:       0.20,
			DimInsight:       0.25,
			DimStructure:     0.20,
			DimVisual:        0.15,
			DimActionability: 0.20,
		},
		Target: defaultTargetScore,
	}
}

// Validate checks that the weights sum to 1 and the target is usable.
func (p ScoringPolicy) Validate() error {
	var sum float64
	for dim, w := range p.Weights {
		if w < 0 {
			return fmt.Errorf("scoring policy: weight for %q is negative", dim)
		}
		sum += w
	}
	if math.Abs(sum-1.0) > 1e-6 {
		return fmt.Errorf("scoring policy: weights sum to %.4f, want 1.0", sum)
	}
	if p.Target <= 0 || p.Target > 1 {
		return fmt.Errorf("scoring policy: target %.2f outside (0,1]", p.Target)
	}
	return nil
}

// QualityScore is the scored outcome of one deck iteration.
type QualityScore struct {
	Clarity       float64 `json:"clarity"`
	Insight       float64 `json:"insight"`
	Structure     float64 `json:"structure"`
	Visual        float64 `json:"visual"`
	Actionability float64 `json:"actionability"`
	Total         float64 `json:"total"`
	Passed        bool    `json:"passed"`
}

// Dimension returns the named dimension value, 0 for unknown names.
func (s QualityScore) Dimension(name string) float64 {
	switch name {
	case DimClarity:
		return s.Clarity
	case DimInsight:
		return s.Insight
	case DimStructure:
		return s.Structure
	case DimVisual:
		return s.Visual
	case DimActionability:
		return s.Actionability
	}
	return 0
}

// ScoreRecord pins a score to the iteration that produced it.
type ScoreRecord struct {
	Iteration int
	Score     QualityScore
}

// ScoreHistory is the append-only score log of a run.
type ScoreHistory []ScoreRecord

// Best returns the record with the highest total. Earlier iterations
// win ties so reruns stay deterministic.
func (h ScoreHistory) Best() (ScoreRecord, bool) {
	if len(h) == 0 {
		return ScoreRecord{}, false
	}
	best := h[0]
	for _, rec := range h[1:] {
		if rec.Score.Total > best.Score.Total {
			best = rec
		}
	}
	return best, true
}

// Last returns the most recent record.
func (h ScoreHistory) Last() (ScoreRecord, bool) {
	if len(h) == 0 {
		return ScoreRecord{}, false
	}
	return h[len(h)-1], true
}

// QualityScorer turns a validated presentation into one QualityScore.
// Scoring is deterministic: identical input and policy always produce
// the identical score.
type QualityScorer struct {
	policy    ScoringPolicy
	structure *StructureEvaluator
	headline  *HeadlineQualityTester
	lex       *Lexicon
	log       *zap.Logger
}

// NewQualityScorer creates a scorer for the locale under the policy.
func NewQualityScorer(locale string, policy ScoringPolicy) *QualityScorer {
	return &QualityScorer{
		policy:    policy,
		structure: NewStructureEvaluator(locale),
		headline:  NewHeadlineQualityTester(locale),
		lex:       LexiconFor(locale),
		log:       zap.NewNop(),
	}
}

// SetLogger replaces the scorer's logger. A nil logger is ignored.
func (q *QualityScorer) SetLogger(l *zap.Logger) {
	if l != nil {
		q.log = l
		q.structure.SetLogger(l)
	}
}

// SetSimilarityThreshold forwards to the structure evaluator.
func (q *QualityScorer) SetSimilarityThreshold(t float64) {
	q.structure.SetSimilarityThreshold(t)
}

// SetPassThreshold forwards to the headline tester.
func (q *QualityScorer) SetPassThreshold(v float64) {
	q.headline.SetPassThreshold(v)
}

// StructureReport exposes the underlying structural analysis so
// callers can surface its suggestions alongside the score.
func (q *QualityScorer) StructureReport(specs []SlideSpec) StructureReport {
	return q.structure.Evaluate(specs)
}

// Evaluate scores the deck. Headlines are read from the presentation
// (post-fix state), content density from the slide specs, and the
// visual dimension from the validation history of this iteration.
func (q *QualityScorer) Evaluate(p *Presentation, specs []SlideSpec, history []ValidationResult) QualityScore {
	score := QualityScore{
		Clarity:       q.clarity(p),
		Insight:       q.insight(specs),
		Structure:     q.structure.Evaluate(specs).Score,
		Visual:        visualScore(history),
		Actionability: q.actionability(specs),
	}

	var total float64
	for dim, w := range q.policy.Weights {
		total += w * score.Dimension(dim)
	}
	score.Total = clamp01(total)
	score.Passed = score.Total >= q.policy.Target

	q.log.Debug("deck scored",
		zap.Float64("clarity", score.Clarity),
		zap.Float64("insight", score.Insight),
		zap.Float64("structure", score.Structure),
		zap.Float64("visual", score.Visual),
		zap.Float64("actionability", score.Actionability),
		zap.Float64("total", score.Total),
		zap.Bool("passed", score.Passed))
	return score
}

// clarity is the mean so-what score across slide headlines.
func (q *QualityScorer) clarity(p *Presentation) float64 {
	headlines := p.Headlines()
	if len(headlines) == 0 {
		return 0
	}
	var sum float64
	for _, h := range headlines {
		sum += q.headline.Test(h).Score
	}
	return sum / float64(len(headlines))
}

// insight is the fraction of content items carrying a quantified
// statement.
func (q *QualityScorer) insight(specs []SlideSpec) float64 {
	total, quantified := 0, 0
	for _, s := range specs {
		for _, b := range s.Bullets {
			total++
			if strings.ContainsFunc(b, unicode.IsDigit) {
				quantified++
			}
		}
	}
	if total == 0 {
		return 0
	}
	return float64(quantified) / float64(total)
}

// actionability is the fraction of content items where an action
// verb, a quantified figure, and a priority keyword co-occur.
func (q *QualityScorer) actionability(specs []SlideSpec) float64 {
	total, actionable := 0, 0
	for _, s := range specs {
		for _, b := range s.Bullets {
			total++
			lowered := strings.ToLower(b)
			if containsAny(lowered, q.lex.ActionVerbs) &&
				strings.ContainsFunc(b, unicode.IsDigit) &&
				containsAny(lowered, q.lex.PriorityKeywords) {
				actionable++
			}
		}
	}
	if total == 0 {
		return 0
	}
	return float64(actionable) / float64(total)
}

// visualScore is 1 minus the style and font warning rate over all
// validation checks performed this iteration.
func visualScore(history []ValidationResult) float64 {
	checks, warnings := 0, 0
	for _, res := range history {
		checks += checksPerSlide * len(res.Metrics)
		for _, iss := range res.Issues {
			if iss.Severity != SeverityWarning {
				continue
			}
			if iss.Code == IssueStyleViolation || iss.Code == IssueFontViolation {
				warnings++
			}
		}
	}
	if checks == 0 {
		return 1
	}
	return clamp01(1 - float64(warnings)/float64(checks))
}

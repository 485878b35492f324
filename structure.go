package deckforge

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// defaultSimilarityThreshold is the keyword-Jaccard similarity above
// which two slides count as overlapping content.
const defaultSimilarityThreshold = 0.75

// Structure composite weights.
const (
	meceWeight       = 0.40
	transitionWeight = 0.35
	pyramidWeight    = 0.25
)

// FlowLabel is the narrative role assigned to a slide.
type FlowLabel int

const (
	FlowUnlabeled FlowLabel = iota
	FlowSituation
	FlowComplication
	FlowResolution
)

func (l FlowLabel) String() string {
	switch l {
	case FlowSituation:
		return "situation"
	case FlowComplication:
		return "complication"
	case FlowResolution:
		return "resolution"
	default:
		return "unlabeled"
	}
}

// Overlap records two slides whose keyword sets are too similar.
// Overlaps are symmetric; each pair is recorded once with I < J.
type Overlap struct {
	I, J       int
	Similarity float64
}

// CoverageGap records a category the detected framework requires that
// no slide covers.
type CoverageGap struct {
	Framework string
	Category  string
}

// MECEResult is the mutual-exclusivity / collective-exhaustiveness
// analysis of a deck.
type MECEResult struct {
	Score float64
	// Framework is the detected schema ID, or "" when no framework
	// qualified. With no framework the exhaustiveness side degenerates
	// to an empty requirement list and passes by default.
	Framework string
	Overlaps  []Overlap
	Gaps      []CoverageGap
}

// FlowResult is the situation-complication-resolution analysis.
type FlowResult struct {
	Score             float64
	TransitionQuality float64
	OrderValid        bool
	Labels            []FlowLabel
	Gaps              []string
}

// PyramidResult checks conclusion-first structure with support below.
type PyramidResult struct {
	Score         float64
	HasConclusion bool
	HasSupport    bool
}

// StructureReport is the combined structural analysis of a deck.
type StructureReport struct {
	Score       float64
	MECE        MECEResult
	Flow        FlowResult
	Pyramid     PyramidResult
	Suggestions []string
}

// StructureEvaluator composes the MECE, narrative-flow, and pyramid
// analyses over an ordered list of slide specs. Evaluation is pure;
// the same input always yields the same report.
type StructureEvaluator struct {
	lex       *Lexicon
	threshold float64
	log       *zap.Logger
}

// NewStructureEvaluator creates an evaluator using the lexicon for the
// given locale.
func NewStructureEvaluator(locale string) *StructureEvaluator {
	return &StructureEvaluator{
		lex:       LexiconFor(locale),
		threshold: defaultSimilarityThreshold,
		log:       zap.NewNop(),
	}
}

// SetSimilarityThreshold overrides the overlap threshold. Values
// outside (0,1] are ignored.
func (e *StructureEvaluator) SetSimilarityThreshold(t float64) {
	if t > 0 && t <= 1 {
		e.threshold = t
	}
}

// SetLogger replaces the evaluator's logger. A nil logger is ignored.
func (e *StructureEvaluator) SetLogger(l *zap.Logger) {
	if l != nil {
		e.log = l
	}
}

// Evaluate runs all three analyses and merges their suggestions.
func (e *StructureEvaluator) Evaluate(specs []SlideSpec) StructureReport {
	sets := make([]KeywordSet, len(specs))
	for i, s := range specs {
		sets[i] = e.lex.Keywords(s.Text(), defaultKeywordCap)
	}

	mece := e.checkMECE(specs, sets)
	flow := e.checkFlow(specs, sets)
	pyramid := e.checkPyramid(specs)

	score := meceWeight*mece.Score + transitionWeight*flow.TransitionQuality + pyramidWeight*pyramid.Score
	report := StructureReport{
		Score:       clamp01(score),
		MECE:        mece,
		Flow:        flow,
		Pyramid:     pyramid,
		Suggestions: e.suggestions(mece, flow, pyramid),
	}
	e.log.Debug("structure evaluated",
		zap.Int("slides", len(specs)),
		zap.Float64("score", report.Score),
		zap.Int("overlaps", len(mece.Overlaps)),
		zap.Int("gaps", len(mece.Gaps)))
	return report
}

func (e *StructureEvaluator) checkMECE(specs []SlideSpec, sets []KeywordSet) MECEResult {
	var res MECEResult
	for i := 0; i < len(sets); i++ {
		for j := i + 1; j < len(sets); j++ {
			sim := sets[i].Jaccard(sets[j])
			if sim > e.threshold {
				res.Overlaps = append(res.Overlaps, Overlap{I: i, J: j, Similarity: sim})
			}
		}
	}

	var deck strings.Builder
	for _, s := range specs {
		deck.WriteString(s.Text())
		deck.WriteByte('\n')
	}
	if fw, ok := DetectFramework(e.lex.Frameworks, deck.String()); ok {
		res.Framework = fw.ID
		_, missing := fw.Match(deck.String())
		for _, cat := range missing {
			res.Gaps = append(res.Gaps, CoverageGap{Framework: fw.ID, Category: cat})
		}
	}

	res.Score = clamp01(1.0 - 0.1*float64(len(res.Overlaps)) - 0.08*float64(len(res.Gaps)))
	return res
}

func (e *StructureEvaluator) checkFlow(specs []SlideSpec, sets []KeywordSet) FlowResult {
	res := FlowResult{Labels: make([]FlowLabel, len(specs))}

	firstS, firstC, firstR := -1, -1, -1
	var countS, countC, countR int
	for i, s := range specs {
		label := e.labelFlow(s.Text())
		res.Labels[i] = label
		switch label {
		case FlowSituation:
			countS++
			if firstS < 0 {
				firstS = i
			}
		case FlowComplication:
			countC++
			if firstC < 0 {
				firstC = i
			}
		case FlowResolution:
			countR++
			if firstR < 0 {
				firstR = i
			}
		}
	}

	res.OrderValid = firstS >= 0 && firstC >= 0 && firstR >= 0 &&
		firstS < firstC && firstC < firstR

	base := 0.4
	if res.OrderValid {
		base = 0.7
	}
	score := base + 0.1*float64(countS) + 0.1*float64(countC) + 0.1*float64(countR)
	if score > 1.0 {
		score = 1.0
	}
	res.Score = score

	res.TransitionQuality = transitionQuality(sets)

	if countR == 0 {
		res.Gaps = append(res.Gaps, "missing resolution section")
	}
	return res
}

// labelFlow assigns the narrative family with the most keyword hits.
// Ties resolve in narrative order: situation, complication, resolution.
func (e *StructureEvaluator) labelFlow(text string) FlowLabel {
	lowered := strings.ToLower(text)
	best := FlowUnlabeled
	bestHits := 0
	for _, fam := range []struct {
		label FlowLabel
		keys  []string
	}{
		{FlowSituation, e.lex.Situation},
		{FlowComplication, e.lex.Complication},
		{FlowResolution, e.lex.Resolution},
	} {
		hits := 0
		for _, k := range fam.keys {
			if k != "" && strings.Contains(lowered, k) {
				hits++
			}
		}
		if hits > bestHits {
			best = fam.label
			bestHits = hits
		}
	}
	return best
}

// transitionQuality is the mean keyword similarity of consecutive
// slide pairs. A pair with an empty keyword set on either side
// contributes the neutral value 0.5, as does a deck with no pairs.
func transitionQuality(sets []KeywordSet) float64 {
	if len(sets) < 2 {
		return 0.5
	}
	var sum float64
	for i := 1; i < len(sets); i++ {
		if len(sets[i-1]) == 0 || len(sets[i]) == 0 {
			sum += 0.5
			continue
		}
		sum += sets[i-1].Jaccard(sets[i])
	}
	return sum / float64(len(sets)-1)
}

func (e *StructureEvaluator) checkPyramid(specs []SlideSpec) PyramidResult {
	var res PyramidResult
	if len(specs) > 0 {
		res.HasConclusion = e.lex.HasAny(specs[0].Headline, e.lex.ConclusionMarkers)
		for _, s := range specs[1:] {
			if len(s.Bullets) >= 2 {
				res.HasSupport = true
				break
			}
		}
	}
	if res.HasConclusion {
		res.Score += 0.6
	}
	if res.HasSupport {
		res.Score += 0.4
	}
	return res
}

func (e *StructureEvaluator) suggestions(mece MECEResult, flow FlowResult, pyramid PyramidResult) []string {
	var out []string
	for _, ov := range mece.Overlaps {
		out = append(out, fmt.Sprintf(
			"slides %d and %d cover overlapping content (similarity %.2f); merge them or sharpen their scopes",
			ov.I+1, ov.J+1, ov.Similarity))
	}
	for _, gap := range mece.Gaps {
		out = append(out, fmt.Sprintf(
			"the %s framework is missing its %q category; add a slide covering it",
			gap.Framework, gap.Category))
	}
	for _, g := range flow.Gaps {
		out = append(out, g+": add a slide with concrete next steps")
	}
	if !flow.OrderValid && hasAllFlowLabels(flow.Labels) {
		out = append(out, "reorder slides into situation, complication, resolution")
	}
	if !pyramid.HasConclusion {
		out = append(out, "open with a conclusion or summary slide stating the main message")
	}
	if !pyramid.HasSupport {
		out = append(out, "add supporting detail: at least one body slide needs two or more content items")
	}
	return out
}

func hasAllFlowLabels(labels []FlowLabel) bool {
	var s, c, r bool
	for _, l := range labels {
		switch l {
		case FlowSituation:
			s = true
		case FlowComplication:
			c = true
		case FlowResolution:
			r = true
		}
	}
	return s && c && r
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

package deckforge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStructureOverlapDetection(t *testing.T) {
	e := NewStructureEvaluator("en")
	specs := []SlideSpec{
		{Headline: "Revenue growth outlook"},
		{Headline: "Revenue growth outlook"},
	}

	rep := e.Evaluate(specs)

	require.Len(t, rep.MECE.Overlaps, 1)
	ov := rep.MECE.Overlaps[0]
	assert.Equal(t, 0, ov.I)
	assert.Equal(t, 1, ov.J)
	assert.InDelta(t, 1.0, ov.Similarity, 1e-9)
	assert.InDelta(t, 0.9, rep.MECE.Score, 1e-9)
	assert.Empty(t, rep.MECE.Gaps)
	assert.Equal(t, "", rep.MECE.Framework)
	assert.Contains(t, rep.Suggestions,
		"slides 1 and 2 cover overlapping content (similarity 1.00); merge them or sharpen their scopes")
}

func TestStructureSimilarityThreshold(t *testing.T) {
	e := NewStructureEvaluator("en")
	specs := []SlideSpec{
		{Headline: "Alpha beta gamma"},
		{Headline: "Beta gamma delta"},
	}

	rep := e.Evaluate(specs)
	assert.Empty(t, rep.MECE.Overlaps, "similarity 0.5 is below the default threshold")

	e.SetSimilarityThreshold(0.4)
	rep = e.Evaluate(specs)
	require.Len(t, rep.MECE.Overlaps, 1)
	assert.InDelta(t, 0.5, rep.MECE.Overlaps[0].Similarity, 1e-9)

	e.SetSimilarityThreshold(0)
	e.SetSimilarityThreshold(1.5)
	rep = e.Evaluate(specs)
	assert.Len(t, rep.MECE.Overlaps, 1, "out-of-range thresholds must be ignored")
}

func TestStructureFlowOrdering(t *testing.T) {
	e := NewStructureEvaluator("en")
	specs := []SlideSpec{
		{Headline: "Current market overview"},
		{Headline: "However, churn risk is a growing problem"},
		{Headline: "Recommended action plan and next steps"},
	}

	rep := e.Evaluate(specs)

	want := []FlowLabel{FlowSituation, FlowComplication, FlowResolution}
	assert.Equal(t, want, rep.Flow.Labels)
	assert.True(t, rep.Flow.OrderValid)
	assert.InDelta(t, 1.0, rep.Flow.Score, 1e-9)
	assert.Empty(t, rep.Flow.Gaps)
}

func TestStructureFlowOutOfOrder(t *testing.T) {
	e := NewStructureEvaluator("en")
	specs := []SlideSpec{
		{Headline: "Recommended action plan and next steps"},
		{Headline: "Current market overview"},
		{Headline: "However, churn risk is a growing problem"},
	}

	rep := e.Evaluate(specs)

	assert.False(t, rep.Flow.OrderValid)
	assert.InDelta(t, 0.7, rep.Flow.Score, 1e-9)
	assert.Contains(t, rep.Suggestions,
		"reorder slides into situation, complication, resolution")
}

func TestStructureMissingResolution(t *testing.T) {
	e := NewStructureEvaluator("en")
	specs := []SlideSpec{
		{Headline: "Current market overview"},
		{Headline: "However, churn risk is a growing problem"},
	}

	rep := e.Evaluate(specs)

	assert.False(t, rep.Flow.OrderValid)
	assert.Contains(t, rep.Flow.Gaps, "missing resolution section")
	assert.Contains(t, rep.Suggestions,
		"missing resolution section: add a slide with concrete next steps")
}

func TestStructureFrameworkGaps(t *testing.T) {
	e := NewStructureEvaluator("en")
	specs := []SlideSpec{
		{Headline: "Our company capabilities are strong"},
		{Headline: "Customer demand is rising"},
	}

	rep := e.Evaluate(specs)

	assert.Equal(t, "3c", rep.MECE.Framework)
	require.Len(t, rep.MECE.Gaps, 1)
	assert.Equal(t, CoverageGap{Framework: "3c", Category: "competitor"}, rep.MECE.Gaps[0])
	assert.InDelta(t, 0.92, rep.MECE.Score, 1e-9)
	assert.Contains(t, rep.Suggestions,
		`the 3c framework is missing its "competitor" category; add a slide covering it`)
}

func TestStructureNoFramework(t *testing.T) {
	e := NewStructureEvaluator("en")
	specs := []SlideSpec{{Headline: "Customer demand is rising"}}

	rep := e.Evaluate(specs)

	assert.Equal(t, "", rep.MECE.Framework, "one covered category must not qualify a framework")
	assert.Empty(t, rep.MECE.Gaps)
	assert.Equal(t, 1.0, rep.MECE.Score)
}

func TestStructurePyramid(t *testing.T) {
	e := NewStructureEvaluator("en")

	good := []SlideSpec{
		{Headline: "Executive summary: profits double by 2027"},
		{Headline: "Drivers", Bullets: []string{"Volume up", "Mix improves"}},
	}
	rep := e.Evaluate(good)
	assert.True(t, rep.Pyramid.HasConclusion)
	assert.True(t, rep.Pyramid.HasSupport)
	assert.InDelta(t, 1.0, rep.Pyramid.Score, 1e-9)

	bad := []SlideSpec{
		{Headline: "Quarterly agenda"},
		{Headline: "Open discussion"},
	}
	rep = e.Evaluate(bad)
	assert.False(t, rep.Pyramid.HasConclusion)
	assert.False(t, rep.Pyramid.HasSupport)
	assert.Equal(t, 0.0, rep.Pyramid.Score)
	assert.Contains(t, rep.Suggestions,
		"open with a conclusion or summary slide stating the main message")
	assert.Contains(t, rep.Suggestions,
		"add supporting detail: at least one body slide needs two or more content items")
}

func TestStructureTransitionQuality(t *testing.T) {
	e := NewStructureEvaluator("en")

	rep := e.Evaluate([]SlideSpec{{Headline: "Revenue accelerates"}})
	assert.Equal(t, 0.5, rep.Flow.TransitionQuality, "single slide is neutral")

	rep = e.Evaluate([]SlideSpec{
		{Headline: "Revenue accelerates"},
		{Headline: "Of the"},
	})
	assert.Equal(t, 0.5, rep.Flow.TransitionQuality, "empty keyword set is neutral")

	rep = e.Evaluate([]SlideSpec{
		{Headline: "Alpha beta gamma"},
		{Headline: "Beta gamma delta"},
	})
	assert.InDelta(t, 0.5, rep.Flow.TransitionQuality, 1e-9)
}

func TestStructureCompositeScore(t *testing.T) {
	e := NewStructureEvaluator("en")
	specs := []SlideSpec{
		{Headline: "Current market overview"},
		{Headline: "However, churn risk is a growing problem"},
		{Headline: "Recommended action plan and next steps"},
	}

	rep := e.Evaluate(specs)

	want := 0.40*rep.MECE.Score + 0.35*rep.Flow.TransitionQuality + 0.25*rep.Pyramid.Score
	assert.InDelta(t, want, rep.Score, 1e-9)
	assert.GreaterOrEqual(t, rep.Score, 0.0)
	assert.LessOrEqual(t, rep.Score, 1.0)
}

func TestStructureDeterminism(t *testing.T) {
	e := NewStructureEvaluator("en")
	specs := []SlideSpec{
		{Headline: "Executive summary: grow revenue 20%"},
		{Headline: "Current market overview"},
		{Headline: "However, churn risk is a growing problem"},
		{Headline: "Recommended action plan and next steps", Bullets: []string{"Hire", "Build", "Ship"}},
	}

	first := e.Evaluate(specs)
	second := e.Evaluate(specs)
	assert.Equal(t, first, second)
}

func TestFlowLabelString(t *testing.T) {
	tests := []struct {
		label FlowLabel
		want  string
	}{
		{FlowSituation, "situation"},
		{FlowComplication, "complication"},
		{FlowResolution, "resolution"},
		{FlowUnlabeled, "unlabeled"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.label.String())
	}
}

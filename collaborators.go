package deckforge

import "context"

// SpecGenerator supplies and refines deck content plans. The pipeline
// never calls a remote model itself; generation happens behind this
// interface.
type SpecGenerator interface {
	// GenerateSpec produces the initial content plan for the request.
	GenerateSpec(ctx context.Context, req GenerationRequest) (DeckSpec, error)
	// AdjustSpec refines a previous plan using the scored feedback from
	// the last iteration. Returning the previous plan unchanged is a
	// valid answer; the orchestrator keeps the best-scoring iteration
	// regardless.
	AdjustSpec(ctx context.Context, prev DeckSpec, fb AdjustmentFeedback) (DeckSpec, error)
}

// AdjustmentFeedback carries what the last iteration learned to the
// generator.
type AdjustmentFeedback struct {
	Iteration   int
	Score       QualityScore
	Suggestions []string
	Unresolved  []Issue
}

// Designer supplies the style rules applied to a deck before
// validation.
type Designer interface {
	DesignRules(ctx context.Context, spec DeckSpec) (StyleRules, error)
}

// Artifact identifies a durably written deck.
type Artifact struct {
	Handle string
	Size   int64
}

// Persister durably writes a finalized deck and reports where it
// landed. An Artifact with Size <= 0 counts as a failed write.
type Persister interface {
	Persist(ctx context.Context, p *Presentation, score QualityScore) (Artifact, error)
}

// FixedSpecGenerator serves a pre-built content plan, for offline runs
// where the plan already exists. AdjustSpec returns the plan unchanged.
type FixedSpecGenerator struct {
	Spec DeckSpec
}

func (g FixedSpecGenerator) GenerateSpec(ctx context.Context, req GenerationRequest) (DeckSpec, error) {
	return g.Spec, nil
}

func (g FixedSpecGenerator) AdjustSpec(ctx context.Context, prev DeckSpec, fb AdjustmentFeedback) (DeckSpec, error) {
	return prev, nil
}

// StaticDesigner serves fixed style rules.
type StaticDesigner struct {
	Rules StyleRules
}

func (d StaticDesigner) DesignRules(ctx context.Context, spec DeckSpec) (StyleRules, error) {
	return d.Rules, nil
}

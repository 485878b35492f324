package deckforge

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// State names the orchestrator's position in the pipeline.
type State int

const (
	StateInit State = iota
	StateGenerate
	StateDesign
	StateValidate
	StateFix
	StateScore
	StateAdjust
	StateFinalize
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "INIT"
	case StateGenerate:
		return "GENERATE"
	case StateDesign:
		return "DESIGN"
	case StateValidate:
		return "VALIDATE"
	case StateFix:
		return "FIX"
	case StateScore:
		return "SCORE"
	case StateAdjust:
		return "GENERATE_ADJUST"
	case StateFinalize:
		return "FINALIZE"
	case StateDone:
		return "DONE"
	case StateFailed:
		return "FAILED"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// RunResult is everything a run produced. Even a failed run carries
// the last computed score and the unresolved critical issues, so a
// caller can accept a below-target deck instead of receiving nothing.
type RunResult struct {
	RunID string
	State State
	// Deck is the best-scored deck the run produced.
	Deck *Presentation
	// Spec is the content plan behind Deck.
	Spec DeckSpec
	// Score is Deck's quality score.
	Score QualityScore
	// History records every iteration's score in order.
	History ScoreHistory
	// Validation is the last validation of Deck.
	Validation ValidationResult
	// Unresolved lists critical issues still present at finalize.
	Unresolved []Issue
	// Suggestions is the structural advice from the best iteration.
	Suggestions []string
	// Artifact is where the persister wrote the deck.
	Artifact Artifact
	// Fallback is true when only the minimal fallback artifact landed.
	Fallback bool
	// Iterations is how many full iterations ran.
	Iterations int
	// Degraded lists slide indices replaced by placeholders.
	Degraded []int
}

// Orchestrator drives a deck through generate, design, validate, fix,
// and score until the quality target is reached or the iteration
// budget runs out. State transitions are sequential; only the
// per-slide work inside the validate and fix phases runs on a bounded
// worker pool.
type Orchestrator struct {
	cfg       Config
	generator SpecGenerator
	designer  Designer
	persister Persister
	measurer  Measurer
	log       *zap.Logger
}

// NewOrchestrator wires the pipeline. All three collaborators are
// required; text measurement defaults to the table measurer.
func NewOrchestrator(cfg Config, gen SpecGenerator, des Designer, per Persister) (*Orchestrator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if gen == nil || des == nil || per == nil {
		return nil, errors.New("orchestrator: generator, designer, and persister are required")
	}
	return &Orchestrator{
		cfg:       cfg,
		generator: gen,
		designer:  des,
		persister: per,
		measurer:  NewTableMeasurer(),
		log:       zap.NewNop(),
	}, nil
}

// SetMeasurer replaces the text measurer, e.g. with a FaceMeasurer
// backed by real font metrics. A nil measurer is ignored.
func (o *Orchestrator) SetMeasurer(m Measurer) {
	if m != nil {
		o.measurer = m
	}
}

// SetLogger replaces the orchestrator's logger. A nil logger is
// ignored.
func (o *Orchestrator) SetLogger(l *zap.Logger) {
	if l != nil {
		o.log = l
	}
}

// iterationOutcome is what one full design/validate/fix iteration
// produced.
type iterationOutcome struct {
	Deck       *Presentation
	Validation ValidationResult
	History    []ValidationResult
	FixRounds  int
	Degraded   []int
}

// Run executes one deck build. The context bounds the whole run; each
// iteration additionally gets the configured wall-clock budget. On
// timeout or cancellation the run finalizes the best-scored iteration
// recorded so far instead of discarding progress.
func (o *Orchestrator) Run(ctx context.Context, req GenerationRequest) (RunResult, error) {
	result := RunResult{RunID: uuid.NewString(), State: StateInit}
	log := o.log.With(zap.String("run_id", result.RunID))

	if err := req.Validate(); err != nil {
		return result, err
	}
	locale := req.Locale
	if locale == "" {
		locale = o.cfg.Locale
	}

	scorer := NewQualityScorer(locale, o.cfg.ScoringPolicy())
	scorer.SetLogger(log)
	scorer.SetSimilarityThreshold(o.cfg.MECESimilarityThreshold)
	scorer.SetPassThreshold(o.cfg.SoWhatPassThreshold)

	engine := NewLayoutEngine(o.cfg.SafeMarginEMU())
	validator := NewLayoutValidator(o.measurer)
	validator.SetSafeMargin(o.cfg.SafeMarginEMU())
	validator.SetLogger(log)

	result.State = StateGenerate
	log.Info("generating deck spec", zap.String("topic", req.Topic))
	spec, err := o.generator.GenerateSpec(ctx, req)
	if err != nil {
		return result, &CollaboratorError{Stage: StageGenerate, Slide: -1, Err: err}
	}
	if len(spec.Slides) == 0 {
		return result, ErrEmptyDeck
	}

	var best *iterationOutcome
	var bestScore QualityScore
	var bestSpec DeckSpec
	var bestSuggestions []string

	for iter := 1; iter <= o.cfg.MaxIterations; iter++ {
		if ctx.Err() != nil {
			log.Warn("run cancelled before iteration", zap.Int("iteration", iter))
			break
		}
		result.Iterations = iter
		itLog := log.With(zap.Int("iteration", iter))
		itCtx, cancel := context.WithTimeout(ctx, o.cfg.IterationTimeout)
		out, err := o.runIteration(itCtx, itLog, &result, engine, validator, spec)
		cancel()
		if err != nil {
			itLog.Warn("iteration aborted", zap.Error(err))
			break
		}

		result.State = StateScore
		score := scorer.Evaluate(out.Deck, spec.Slides, out.History)
		result.History = append(result.History, ScoreRecord{Iteration: iter, Score: score})
		report := scorer.StructureReport(spec.Slides)

		if best == nil || score.Total > bestScore.Total {
			best = out
			bestScore = score
			bestSpec = spec
			bestSuggestions = report.Suggestions
		}
		if score.Passed {
			itLog.Info("quality target reached", zap.Float64("total", score.Total))
			break
		}
		if iter == o.cfg.MaxIterations {
			break
		}

		result.State = StateAdjust
		fb := AdjustmentFeedback{
			Iteration:   iter,
			Score:       score,
			Suggestions: report.Suggestions,
			Unresolved:  out.Validation.Criticals(),
		}
		next, err := o.generator.AdjustSpec(ctx, spec, fb)
		if err != nil {
			itLog.Warn("spec adjustment failed, keeping best iteration",
				zap.Error(&CollaboratorError{Stage: StageGenerate, Slide: -1, Err: err}))
			break
		}
		if len(next.Slides) == 0 {
			itLog.Warn("spec adjustment returned an empty deck, keeping best iteration")
			break
		}
		spec = next
	}

	if best == nil {
		// Nothing completed before cancellation or timeout; finalize a
		// minimal deck so the caller still receives an artifact.
		log.Warn("no iteration completed, finalizing minimal deck")
		best = &iterationOutcome{Deck: o.minimalDeck(spec)}
		bestSpec = spec
	}

	result.Deck = best.Deck
	result.Spec = bestSpec
	result.Score = bestScore
	result.Validation = best.Validation
	result.Unresolved = best.Validation.Criticals()
	result.Suggestions = bestSuggestions
	result.Degraded = best.Degraded

	result.State = StateFinalize
	if err := o.finalize(ctx, log, &result); err != nil {
		result.State = StateFailed
		log.Error("run failed", zap.Error(err))
		return result, err
	}
	result.State = StateDone
	log.Info("run complete",
		zap.Float64("score", result.Score.Total),
		zap.Bool("passed", result.Score.Passed),
		zap.Int("iterations", result.Iterations),
		zap.String("artifact", result.Artifact.Handle))
	return result, nil
}

// runIteration performs DESIGN, VALIDATE, and the bounded FIX cycles
// for one content plan.
func (o *Orchestrator) runIteration(ctx context.Context, log *zap.Logger, result *RunResult, engine *LayoutEngine, validator *LayoutValidator, spec DeckSpec) (*iterationOutcome, error) {
	out := &iterationOutcome{}

	result.State = StateDesign
	rules, err := o.designer.DesignRules(ctx, spec)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		log.Warn("design collaborator failed, using default style rules",
			zap.Error(&CollaboratorError{Stage: StageDesign, Slide: -1, Err: err}))
		rules = DefaultStyleRules()
	}
	deck, degraded, err := o.buildDeck(ctx, log, engine, spec, rules)
	if err != nil {
		return nil, err
	}
	out.Deck = deck
	out.Degraded = degraded

	result.State = StateValidate
	res, err := o.validateDeck(ctx, validator, deck)
	if err != nil {
		return nil, err
	}
	out.Validation = res
	out.History = append(out.History, res)

	fixer := NewSlideFixer(NewTextFitter(o.measurer, DefaultFitterOptions()), deck.Canvas(), rules)
	fixer.SetSafeMargin(o.cfg.SafeMarginEMU())
	fixer.SetLogger(log)

	for round := 1; round <= o.cfg.MaxFixIterations; round++ {
		if res.Passed() {
			break
		}
		result.State = StateFix
		aggressive := round > 1
		if err := o.fixDeck(ctx, log, fixer, deck, res, aggressive); err != nil {
			return nil, err
		}
		out.FixRounds = round

		result.State = StateValidate
		res, err = o.validateDeck(ctx, validator, deck)
		if err != nil {
			return nil, err
		}
		out.Validation = res
		out.History = append(out.History, res)
		log.Debug("fix cycle complete",
			zap.Int("round", round),
			zap.Bool("aggressive", aggressive),
			zap.Int("criticals", len(res.Criticals())))
	}
	return out, nil
}

// buildDeck lays every spec slide onto a fresh presentation. A slide
// whose spec is unusable or whose layout panics becomes a placeholder
// instead of aborting the run.
func (o *Orchestrator) buildDeck(ctx context.Context, log *zap.Logger, engine *LayoutEngine, spec DeckSpec, rules StyleRules) (*Presentation, []int, error) {
	deck := New()
	deck.SetStyleRules(rules)
	deck.GetDocumentProperties().Title = spec.Title

	var degraded []int
	for i, s := range spec.Slides {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		if strings.TrimSpace(s.Headline) == "" {
			engine.PlaceholderSlide(deck, i, "no headline in content plan")
			degraded = append(degraded, i)
			continue
		}
		if err := buildSlideSafe(engine, deck, s, i); err != nil {
			// Drop whatever the failed build left behind.
			for deck.GetSlideCount() > i {
				_ = deck.RemoveSlideByIndex(deck.GetSlideCount() - 1)
			}
			engine.PlaceholderSlide(deck, i, "slide design failed")
			degraded = append(degraded, i)
			log.Warn("slide design failed, keeping placeholder",
				zap.Int("slide", i),
				zap.Error(&CollaboratorError{Stage: StageDesign, Slide: i, Err: err}))
		}
	}
	return deck, degraded, nil
}

func buildSlideSafe(engine *LayoutEngine, p *Presentation, s SlideSpec, index int) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("layout panic: %v", r)
		}
	}()
	engine.BuildSlide(p, s, index)
	return nil
}

// validateDeck checks every slide on a bounded worker pool and merges
// the results back in slide order.
func (o *Orchestrator) validateDeck(ctx context.Context, validator *LayoutValidator, deck *Presentation) (ValidationResult, error) {
	canvas := deck.Canvas()
	rules := deck.GetStyleRules()
	slides := deck.GetAllSlides()

	perSlide := make([][]Issue, len(slides))
	metrics := make([]SlideMetrics, len(slides))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.cfg.WorkerCount)
	for i, s := range slides {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			perSlide[i], metrics[i] = validateSlideSafe(validator, s, canvas, rules, i)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return ValidationResult{}, err
	}

	result := ValidationResult{Metrics: metrics}
	for _, issues := range perSlide {
		result.Issues = append(result.Issues, issues...)
	}
	return result, nil
}

func validateSlideSafe(v *LayoutValidator, s *Slide, canvas Box, rules StyleRules, index int) (issues []Issue, metrics SlideMetrics) {
	defer func() {
		if r := recover(); r != nil {
			issues = []Issue{{
				Code:       IssueOutOfBounds,
				Severity:   SeverityCritical,
				SlideIndex: index,
				ShapeIndex: -1,
				OtherIndex: -1,
				Message:    fmt.Sprintf("validation panicked: %v", r),
			}}
		}
	}()
	return v.ValidateSlide(s, canvas, rules, index)
}

// fixDeck repairs every slide that validation flagged, on a bounded
// worker pool. Slides are fixed on private copies and swapped in only
// after the pool drains, keeping the phases barrier-separated.
func (o *Orchestrator) fixDeck(ctx context.Context, log *zap.Logger, fixer *SlideFixer, deck *Presentation, res ValidationResult, aggressive bool) error {
	slides := deck.GetAllSlides()
	fixed := make([]*Slide, len(slides))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.cfg.WorkerCount)
	for i, s := range slides {
		if len(res.SlideIssues(i)) == 0 {
			continue
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			repaired, fr := fixer.FixSlide(s, res.SlideIssues(i), aggressive)
			fixed[i] = repaired
			log.Debug("slide fixed",
				zap.Int("slide", i),
				zap.Strings("applied", fr.FixesApplied),
				zap.Strings("failed", fr.FixesFailed))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	for i, s := range fixed {
		if s != nil {
			_ = deck.ReplaceSlide(i, s)
		}
	}
	return nil
}

// finalize persists the deck, falling back to a minimal single-slide
// artifact when the primary write fails its size check. Only a failed
// fallback makes the run FAILED.
func (o *Orchestrator) finalize(ctx context.Context, log *zap.Logger, result *RunResult) error {
	finCtx := ctx
	if ctx.Err() != nil {
		// The run was cancelled; give persistence its own bounded budget
		// so progress still lands somewhere.
		var cancel context.CancelFunc
		finCtx, cancel = context.WithTimeout(context.WithoutCancel(ctx), o.cfg.IterationTimeout)
		defer cancel()
	}

	o.stampProvenance(result.Deck, result)
	artifact, err := o.persister.Persist(finCtx, result.Deck, result.Score)
	if err == nil && artifact.Size <= 0 {
		err = fmt.Errorf("artifact %q failed the size check: %d bytes", artifact.Handle, artifact.Size)
	}
	if err == nil {
		result.Artifact = artifact
		return nil
	}
	primary := &CollaboratorError{Stage: StagePersist, Slide: -1, Err: err}
	log.Error("primary persist failed, writing fallback artifact", zap.Error(primary))

	fallback := o.minimalDeck(result.Spec)
	o.stampProvenance(fallback, result)
	artifact, err2 := o.persister.Persist(finCtx, fallback, result.Score)
	if err2 == nil && artifact.Size <= 0 {
		err2 = fmt.Errorf("fallback artifact %q failed the size check: %d bytes", artifact.Handle, artifact.Size)
	}
	if err2 != nil {
		return &PersistError{Primary: primary, Fallback: err2}
	}
	result.Artifact = artifact
	result.Fallback = true
	return nil
}

// stampProvenance records the run on the deck's document properties
// so the artifact identifies the run that produced it without a
// sidecar file.
func (o *Orchestrator) stampProvenance(deck *Presentation, result *RunResult) {
	if deck == nil {
		return
	}
	props := deck.GetDocumentProperties()
	props.Revision = Version
	props.SetCustomProperty("run_id", result.RunID, PropertyTypeString)
	props.SetCustomProperty("quality_score", result.Score.Total, PropertyTypeFloat)
	props.SetCustomProperty("quality_passed", result.Score.Passed, PropertyTypeBoolean)
	props.SetCustomProperty("iterations", result.Iterations, PropertyTypeInteger)
}

// minimalDeck is the single-slide fallback: the deck title and nothing
// else, guaranteed to lay out without issues.
func (o *Orchestrator) minimalDeck(spec DeckSpec) *Presentation {
	engine := NewLayoutEngine(o.cfg.SafeMarginEMU())
	title := strings.TrimSpace(spec.Title)
	if title == "" {
		title = "Untitled deck"
	}
	return engine.BuildPresentation(DeckSpec{
		Title:  title,
		Locale: spec.Locale,
		Slides: []SlideSpec{{Headline: title}},
	}, DefaultStyleRules())
}

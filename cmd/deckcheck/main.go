package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"github.com/VantageDataChat/deckforge"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

func main() {
	var (
		deckPath    = flag.String("deck", "", "YAML content plan to check; empty runs the built-in demo deck")
		configPath  = flag.String("config", "", "pipeline config YAML")
		outPath     = flag.String("out", "deckcheck-report.json", "where to write the report artifact")
		glyphs      = flag.Bool("glyph-metrics", false, "measure text with installed fonts instead of the built-in width table")
		fontDir     = flag.String("fontdir", "", "extra font directory for -glyph-metrics")
		verbose     = flag.Bool("v", false, "debug logging")
		showVersion = flag.Bool("version", false, "print the library version and exit")
	)
	flag.Parse()

	if *showVersion {
		fmt.Println("deckcheck " + deckforge.Version)
		return
	}

	logger, err := buildLogger(*verbose)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	cfg := deckforge.DefaultConfig()
	if *configPath != "" {
		cfg, err = deckforge.LoadConfig(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "config: %v\n", err)
			os.Exit(1)
		}
	}

	spec := demoSpec()
	if *deckPath != "" {
		spec, err = loadDeckSpec(*deckPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "deck: %v\n", err)
			os.Exit(1)
		}
	}

	orch, err := deckforge.NewOrchestrator(cfg,
		deckforge.FixedSpecGenerator{Spec: spec},
		deckforge.StaticDesigner{Rules: deckforge.DefaultStyleRules()},
		&reportPersister{path: *outPath},
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "orchestrator: %v\n", err)
		os.Exit(1)
	}
	orch.SetLogger(logger)
	if *glyphs {
		var dirs []string
		if *fontDir != "" {
			dirs = append(dirs, *fontDir)
		}
		orch.SetMeasurer(deckforge.NewFaceMeasurer(deckforge.NewFontCache(dirs...)))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	result, runErr := orch.Run(ctx, deckforge.GenerationRequest{
		Topic:  spec.Title,
		Locale: spec.Locale,
	})

	fmt.Printf("Deck %q: score %.2f (target %.2f), %d iteration(s), state %s\n",
		spec.Title, result.Score.Total, cfg.TargetQualityScore, result.Iterations, result.State)
	for _, rec := range result.History {
		fmt.Printf("  iteration %d: total %.2f clarity %.2f insight %.2f structure %.2f visual %.2f actionability %.2f\n",
			rec.Iteration, rec.Score.Total, rec.Score.Clarity, rec.Score.Insight,
			rec.Score.Structure, rec.Score.Visual, rec.Score.Actionability)
	}
	if len(result.Unresolved) > 0 {
		fmt.Printf("Unresolved critical issues (%d):\n", len(result.Unresolved))
		for _, iss := range result.Unresolved {
			fmt.Println("  " + iss.String())
		}
	}
	if len(result.Suggestions) > 0 {
		fmt.Println("Suggestions:")
		for _, s := range result.Suggestions {
			fmt.Println("  - " + s)
		}
	}
	if runErr != nil {
		fmt.Fprintf(os.Stderr, "run: %v\n", runErr)
		os.Exit(1)
	}
	fmt.Printf("Report written to %s (%d bytes)\n", result.Artifact.Handle, result.Artifact.Size)
}

func buildLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func loadDeckSpec(path string) (deckforge.DeckSpec, error) {
	var spec deckforge.DeckSpec
	data, err := os.ReadFile(path)
	if err != nil {
		return spec, err
	}
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return spec, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := spec.Validate(); err != nil {
		return spec, err
	}
	return spec, nil
}

// demoSpec is the built-in deck used when no plan file is given.
func demoSpec() deckforge.DeckSpec {
	return deckforge.DeckSpec{
		Title:  "FY27 European expansion recommendation",
		Locale: "en",
		Slides: []deckforge.SlideSpec{
			{
				Headline: "Summary: entering 3 EU markets grows revenue 25% enabling category leadership",
				Bullets: []string{
					"Recommendation: launch in Germany, France, and the Netherlands in FY27",
					"Investment of 12M EUR returns payback within 30 months",
					"First-mover window closes as competitors scale in 2 of 3 markets",
				},
				Notes: "Open with the decision we are asking for.",
			},
			{
				Headline: "Current market share sits at 4% with growth stalled since Q3",
				Bullets: []string{
					"Domestic revenue growth slowed from 18% to 3% year over year",
					"Customer acquisition cost rose 40% in the home market",
					"Background: 85% of the addressable market now lies outside the home region",
				},
			},
			{
				Headline: "However, competitor entry threatens 20% of our pipeline",
				Bullets: []string{
					"Two rivals raised 150M EUR combined for European rollout",
					"Problem: our churn risk doubles where competitors bundle pricing",
					"Regulatory pressure adds a 6 month compliance gap to any late entry",
				},
				Chart: &deckforge.ChartSpec{
					Kind:  deckforge.ChartBar,
					Title: "Pipeline at risk by region",
					Series: []*deckforge.ChartSeries{
						deckforge.NewChartSeries("At risk (%)",
							[]string{"DACH", "France", "Benelux"},
							[]float64{24, 18, 12}),
					},
				},
			},
			{
				Headline: "Proposed plan: phased 3-market entry cuts risk 50% while driving scale",
				Bullets: []string{
					"First priority: launch Germany in Q1 with the proven direct sales motion",
					"Solution: localized pricing increases conversion 15% in pilot tests",
					"Strategy: partner-led entry in France reduces upfront cost 8M EUR",
				},
			},
		},
	}
}

// reportPersister writes the finalized deck and its score as a JSON
// report, then reopens the file to verify the write landed.
type reportPersister struct {
	path string
}

type slideReport struct {
	Name     string   `json:"name"`
	Headline string   `json:"headline"`
	Shapes   int      `json:"shapes"`
	Body     []string `json:"body,omitempty"`
	Notes    string   `json:"notes,omitempty"`
}

type deckReport struct {
	Title      string                 `json:"title"`
	Score      deckforge.QualityScore `json:"score"`
	Properties map[string]any         `json:"properties,omitempty"`
	Slides     []slideReport          `json:"slides"`
}

func (rp *reportPersister) Persist(ctx context.Context, p *deckforge.Presentation, score deckforge.QualityScore) (deckforge.Artifact, error) {
	if err := ctx.Err(); err != nil {
		return deckforge.Artifact{}, err
	}
	props := p.GetDocumentProperties()
	rep := deckReport{
		Title: props.Title,
		Score: score,
	}
	for _, name := range props.GetCustomProperties() {
		if rep.Properties == nil {
			rep.Properties = make(map[string]any)
		}
		rep.Properties[name] = props.GetCustomPropertyValue(name)
	}
	for _, s := range p.GetAllSlides() {
		sr := slideReport{
			Name:     s.GetName(),
			Headline: s.Headline(),
			Shapes:   s.GetShapeCount(),
			Notes:    s.GetNotes(),
		}
		for _, sh := range s.BodyShapes() {
			if txt := sh.PlainText(); txt != "" {
				sr.Body = append(sr.Body, txt)
			}
		}
		rep.Slides = append(rep.Slides, sr)
	}

	data, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return deckforge.Artifact{}, err
	}
	if err := os.WriteFile(rp.path, data, 0o644); err != nil {
		return deckforge.Artifact{}, err
	}
	info, err := os.Stat(rp.path)
	if err != nil {
		return deckforge.Artifact{}, err
	}
	return deckforge.Artifact{Handle: rp.path, Size: info.Size()}, nil
}

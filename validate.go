package deckforge

import (
	"fmt"

	"go.uber.org/zap"
)

// Severity ranks how bad a layout issue is.
type Severity int

const (
	// SeveritySuggestion is advisory only.
	SeveritySuggestion Severity = iota
	// SeverityWarning should be fixed but does not block finalization.
	SeverityWarning
	// SeverityCritical blocks finalization until fixed.
	SeverityCritical
)

// String returns the severity name used in logs and issue listings.
func (s Severity) String() string {
	switch s {
	case SeverityCritical:
		return "critical"
	case SeverityWarning:
		return "warning"
	default:
		return "suggestion"
	}
}

// IssueCode identifies the kind of layout defect found.
type IssueCode string

const (
	// IssueTextOverflow: text does not fit its shape bounds.
	IssueTextOverflow IssueCode = "text_overflow"
	// IssueOutOfBounds: shape extends beyond the canvas or has a
	// degenerate size.
	IssueOutOfBounds IssueCode = "out_of_bounds"
	// IssueOverlap: two visual shapes intersect.
	IssueOverlap IssueCode = "overlap"
	// IssueFontViolation: a run breaks the font rules (size or family).
	IssueFontViolation IssueCode = "font_violation"
	// IssueStyleViolation: a color is off palette or contrast is too low.
	IssueStyleViolation IssueCode = "style_violation"
	// IssueMissingTitle: the slide has no usable title shape.
	IssueMissingTitle IssueCode = "missing_title"
)

// checksPerSlide is how many validation checks run against each slide.
const checksPerSlide = 6

// defaultSafeMargin keeps shapes 0.125 inch off the canvas edge.
const defaultSafeMargin = int64(114300)

// edgeAlignTolerance is how far apart two left edges may sit and still
// count as aligned.
var edgeAlignTolerance = Point(2)

// Issue is a single defect found by validation.
type Issue struct {
	Code       IssueCode
	Severity   Severity
	SlideIndex int
	// ShapeIndex is -1 for slide-level issues. For overlaps it names
	// the first shape and OtherIndex the second.
	ShapeIndex int
	OtherIndex int
	ShapeName  string
	Message    string
}

// String renders the issue for logs and CLI output.
func (i Issue) String() string {
	loc := fmt.Sprintf("slide %d", i.SlideIndex+1)
	if i.ShapeIndex >= 0 {
		loc += fmt.Sprintf(" shape %d", i.ShapeIndex+1)
		if i.ShapeName != "" {
			loc += " (" + i.ShapeName + ")"
		}
	}
	return fmt.Sprintf("[%s] %s: %s: %s", i.Severity, loc, i.Code, i.Message)
}

// SlideMetrics are the measured visual properties of one slide that
// feed the visual balance score.
type SlideMetrics struct {
	// OccupiedRatio is the shape area over canvas area, capped at 1.
	OccupiedRatio float64
	// WhitespaceRatio is 1 - OccupiedRatio.
	WhitespaceRatio float64
	// EdgeAlignment is the fraction of shapes whose left edge lines up
	// with another shape's left edge.
	EdgeAlignment float64
	// Balance is 1 when the area-weighted centroid sits on the canvas
	// center, falling toward 0 as it drifts to an edge.
	Balance float64
	// ShapeCount is the number of shapes on the slide.
	ShapeCount int
	// OverflowCount is the number of shapes whose text overflows.
	OverflowCount int
}

// ValidationResult is the outcome of validating a presentation.
type ValidationResult struct {
	Issues  []Issue
	Metrics []SlideMetrics
}

// Passed reports whether no critical issues were found.
func (r ValidationResult) Passed() bool {
	for _, iss := range r.Issues {
		if iss.Severity == SeverityCritical {
			return false
		}
	}
	return true
}

// Criticals returns only the critical issues.
func (r ValidationResult) Criticals() []Issue {
	var out []Issue
	for _, iss := range r.Issues {
		if iss.Severity == SeverityCritical {
			out = append(out, iss)
		}
	}
	return out
}

// CountBySeverity returns how many issues carry the given severity.
func (r ValidationResult) CountBySeverity(s Severity) int {
	n := 0
	for _, iss := range r.Issues {
		if iss.Severity == s {
			n++
		}
	}
	return n
}

// SlideIssues returns the issues recorded against one slide.
func (r ValidationResult) SlideIssues(slideIndex int) []Issue {
	var out []Issue
	for _, iss := range r.Issues {
		if iss.SlideIndex == slideIndex {
			out = append(out, iss)
		}
	}
	return out
}

// LayoutValidator checks slide geometry, text fit, and style
// compliance. Checks run in a fixed order and walk slides and shapes
// in deck order, so results are deterministic for a given deck.
// Validation never mutates the deck.
type LayoutValidator struct {
	fitter     *TextFitter
	safeMargin int64
	log        *zap.Logger
}

// NewLayoutValidator creates a validator that measures text with m.
func NewLayoutValidator(m Measurer) *LayoutValidator {
	return &LayoutValidator{
		fitter:     NewTextFitter(m, DefaultFitterOptions()),
		safeMargin: defaultSafeMargin,
		log:        zap.NewNop(),
	}
}

// SetSafeMargin sets the canvas edge margin in EMU that shapes must
// stay inside. Negative values are treated as zero.
func (v *LayoutValidator) SetSafeMargin(margin int64) {
	if margin < 0 {
		margin = 0
	}
	v.safeMargin = margin
}

// SafeMargin returns the canvas edge margin in EMU.
func (v *LayoutValidator) SafeMargin() int64 { return v.safeMargin }

// SetLogger replaces the validator's logger. A nil logger is ignored.
func (v *LayoutValidator) SetLogger(l *zap.Logger) {
	if l != nil {
		v.log = l
	}
}

// Validate checks every slide against the presentation's canvas and
// style rules.
func (v *LayoutValidator) Validate(p *Presentation) ValidationResult {
	canvas := p.Canvas()
	rules := p.GetStyleRules()
	result := ValidationResult{
		Metrics: make([]SlideMetrics, p.GetSlideCount()),
	}
	for i, slide := range p.GetAllSlides() {
		issues, metrics := v.ValidateSlide(slide, canvas, rules, i)
		result.Issues = append(result.Issues, issues...)
		result.Metrics[i] = metrics
	}
	v.log.Debug("validation complete",
		zap.Int("slides", p.GetSlideCount()),
		zap.Int("issues", len(result.Issues)),
		zap.Int("critical", result.CountBySeverity(SeverityCritical)))
	return result
}

// ValidateSlide runs all checks against a single slide.
func (v *LayoutValidator) ValidateSlide(s *Slide, canvas Box, rules StyleRules, slideIndex int) ([]Issue, SlideMetrics) {
	var issues []Issue
	metrics := v.measureSlide(s, canvas)

	issues = append(issues, v.checkTextOverflow(s, slideIndex, &metrics)...)
	issues = append(issues, v.checkBounds(s, canvas, slideIndex)...)
	issues = append(issues, v.checkOverlap(s, slideIndex)...)
	issues = append(issues, v.checkFonts(s, rules, slideIndex)...)
	issues = append(issues, v.checkStyle(s, rules, slideIndex)...)
	issues = append(issues, v.checkTitle(s, slideIndex)...)

	return issues, metrics
}

func (v *LayoutValidator) checkTextOverflow(s *Slide, slideIndex int, metrics *SlideMetrics) []Issue {
	var issues []Issue
	for i, sh := range s.GetShapes() {
		if sh.Text() == nil || sh.PlainText() == "" {
			continue
		}
		availW, availH := availableBox(sh)
		if availW <= 0 || availH <= 0 {
			// Reported by the bounds check.
			continue
		}
		m := v.fitter.measureBody(sh.Text(), 1.0, availW, availH)
		if m.fits {
			continue
		}
		metrics.OverflowCount++
		issues = append(issues, Issue{
			Code:       IssueTextOverflow,
			Severity:   SeverityCritical,
			SlideIndex: slideIndex,
			ShapeIndex: i,
			OtherIndex: -1,
			ShapeName:  sh.GetName(),
			Message: fmt.Sprintf("text needs %d x %d EMU but only %d x %d is available",
				m.widest, m.height, availW, availH),
		})
	}
	return issues
}

func (v *LayoutValidator) checkBounds(s *Slide, canvas Box, slideIndex int) []Issue {
	var issues []Issue
	safe := canvas.Inset(v.safeMargin)
	for i, sh := range s.GetShapes() {
		b := sh.Bounds()
		if b.Width <= 0 || b.Height <= 0 {
			issues = append(issues, Issue{
				Code:       IssueOutOfBounds,
				Severity:   SeverityCritical,
				SlideIndex: slideIndex,
				ShapeIndex: i,
				OtherIndex: -1,
				ShapeName:  sh.GetName(),
				Message:    fmt.Sprintf("degenerate size %dx%d EMU", b.Width, b.Height),
			})
			continue
		}
		if !b.ContainedIn(safe) {
			issues = append(issues, Issue{
				Code:       IssueOutOfBounds,
				Severity:   SeverityCritical,
				SlideIndex: slideIndex,
				ShapeIndex: i,
				OtherIndex: -1,
				ShapeName:  sh.GetName(),
				Message: fmt.Sprintf("shape (%d,%d %dx%d) exceeds canvas %dx%d minus %d margin",
					b.X, b.Y, b.Width, b.Height, canvas.Width, canvas.Height, v.safeMargin),
			})
		}
	}
	return issues
}

func (v *LayoutValidator) checkOverlap(s *Slide, slideIndex int) []Issue {
	var issues []Issue
	shapes := s.GetShapes()
	for i := 0; i < len(shapes); i++ {
		a := shapes[i].Bounds()
		if a.Empty() {
			continue
		}
		for j := i + 1; j < len(shapes); j++ {
			b := shapes[j].Bounds()
			if !a.Intersects(b) {
				continue
			}
			ratio := a.OverlapRatio(b)
			issues = append(issues, Issue{
				Code:       IssueOverlap,
				Severity:   SeverityWarning,
				SlideIndex: slideIndex,
				ShapeIndex: i,
				OtherIndex: j,
				ShapeName:  shapes[i].GetName(),
				Message:    fmt.Sprintf("overlaps shape %d by %.0f%%", j+1, ratio*100),
			})
		}
	}
	return issues
}

func (v *LayoutValidator) checkFonts(s *Slide, rules StyleRules, slideIndex int) []Issue {
	var issues []Issue
	type pair struct {
		family string
		size   float64
	}
	seen := make(map[pair]bool)
	var order []pair
	for i, sh := range s.GetShapes() {
		if sh.Text() == nil {
			continue
		}
		for _, para := range sh.Text().GetParagraphs() {
			for _, run := range para.GetRuns() {
				f := run.GetFont()
				if f == nil || run.GetText() == "" {
					continue
				}
				p := pair{family: f.Name, size: f.Size}
				if !seen[p] {
					seen[p] = true
					order = append(order, p)
				}
				if rules.MinFontSize > 0 && f.Size < rules.MinFontSize {
					issues = append(issues, Issue{
						Code:       IssueFontViolation,
						Severity:   SeverityWarning,
						SlideIndex: slideIndex,
						ShapeIndex: i,
						OtherIndex: -1,
						ShapeName:  sh.GetName(),
						Message:    fmt.Sprintf("font size %.1fpt below minimum %.1fpt", f.Size, rules.MinFontSize),
					})
				}
				if rules.MaxFontSize > 0 && f.Size > rules.MaxFontSize {
					issues = append(issues, Issue{
						Code:       IssueFontViolation,
						Severity:   SeverityWarning,
						SlideIndex: slideIndex,
						ShapeIndex: i,
						OtherIndex: -1,
						ShapeName:  sh.GetName(),
						Message:    fmt.Sprintf("font size %.1fpt above maximum %.1fpt", f.Size, rules.MaxFontSize),
					})
				}
			}
		}
	}
	if rules.MaxFontVariants > 0 && len(order) > rules.MaxFontVariants {
		issues = append(issues, Issue{
			Code:       IssueFontViolation,
			Severity:   SeverityWarning,
			SlideIndex: slideIndex,
			ShapeIndex: -1,
			OtherIndex: -1,
			Message: fmt.Sprintf("%d distinct (family, size) pairs in use, template allows %d",
				len(order), rules.MaxFontVariants),
		})
	}
	return issues
}

func (v *LayoutValidator) checkStyle(s *Slide, rules StyleRules, slideIndex int) []Issue {
	var issues []Issue
	for i, sh := range s.GetShapes() {
		fill := sh.fill
		if fill != nil && fill.Type == FillSolid && !rules.ColorAllowed(fill.Color) {
			issues = append(issues, Issue{
				Code:       IssueStyleViolation,
				Severity:   SeverityWarning,
				SlideIndex: slideIndex,
				ShapeIndex: i,
				OtherIndex: -1,
				ShapeName:  sh.GetName(),
				Message:    fmt.Sprintf("fill color %s is off palette", fill.Color.ARGB),
			})
		}
		if sh.Text() == nil {
			continue
		}
		for _, para := range sh.Text().GetParagraphs() {
			for _, run := range para.GetRuns() {
				f := run.GetFont()
				if f == nil || run.GetText() == "" {
					continue
				}
				if !rules.FontAllowed(f.Name) {
					issues = append(issues, Issue{
						Code:       IssueStyleViolation,
						Severity:   SeverityWarning,
						SlideIndex: slideIndex,
						ShapeIndex: i,
						OtherIndex: -1,
						ShapeName:  sh.GetName(),
						Message:    fmt.Sprintf("font %q is not in the template whitelist", f.Name),
					})
				}
				if !rules.ColorAllowed(f.Color) {
					issues = append(issues, Issue{
						Code:       IssueStyleViolation,
						Severity:   SeverityWarning,
						SlideIndex: slideIndex,
						ShapeIndex: i,
						OtherIndex: -1,
						ShapeName:  sh.GetName(),
						Message:    fmt.Sprintf("text color %s is off palette", f.Color.ARGB),
					})
				}
				if rules.MinContrast > 0 && fill != nil && fill.Type == FillSolid {
					if c := ContrastRatio(f.Color, fill.Color); c < rules.MinContrast {
						issues = append(issues, Issue{
							Code:       IssueStyleViolation,
							Severity:   SeverityCritical,
							SlideIndex: slideIndex,
							ShapeIndex: i,
							OtherIndex: -1,
							ShapeName:  sh.GetName(),
							Message:    fmt.Sprintf("contrast %.2f between text %s and fill %s below %.2f", c, f.Color.ARGB, fill.Color.ARGB, rules.MinContrast),
						})
					}
				}
			}
		}
	}
	return issues
}

func (v *LayoutValidator) checkTitle(s *Slide, slideIndex int) []Issue {
	var issues []Issue
	titles := 0
	for _, sh := range s.GetShapes() {
		if sh.GetRole() == RoleTitle && sh.PlainText() != "" {
			titles++
		}
	}
	switch {
	case titles == 0:
		issues = append(issues, Issue{
			Code:       IssueMissingTitle,
			Severity:   SeverityWarning,
			SlideIndex: slideIndex,
			ShapeIndex: -1,
			OtherIndex: -1,
			Message:    "slide has no title shape with text",
		})
	case titles > 1:
		issues = append(issues, Issue{
			Code:       IssueMissingTitle,
			Severity:   SeverityWarning,
			SlideIndex: slideIndex,
			ShapeIndex: -1,
			OtherIndex: -1,
			Message:    fmt.Sprintf("slide has %d title shapes, expected one", titles),
		})
	}
	return issues
}

// measureSlide computes the visual metrics of one slide.
func (v *LayoutValidator) measureSlide(s *Slide, canvas Box) SlideMetrics {
	m := SlideMetrics{
		ShapeCount:    s.GetShapeCount(),
		EdgeAlignment: 1,
		Balance:       1,
	}
	canvasArea := canvas.Area()
	if canvasArea == 0 {
		return m
	}

	var occupied int64
	var weightedX, weightedY, totalArea float64
	var lefts []int64
	for _, sh := range s.GetShapes() {
		b := sh.Bounds().Intersection(canvas)
		if b.Empty() {
			continue
		}
		area := b.Area()
		occupied += area
		weightedX += float64(b.X+b.Width/2) * float64(area)
		weightedY += float64(b.Y+b.Height/2) * float64(area)
		totalArea += float64(area)
		lefts = append(lefts, b.X)
	}

	m.OccupiedRatio = float64(occupied) / float64(canvasArea)
	if m.OccupiedRatio > 1 {
		m.OccupiedRatio = 1
	}
	m.WhitespaceRatio = 1 - m.OccupiedRatio

	if totalArea > 0 {
		cx := weightedX / totalArea
		cy := weightedY / totalArea
		dx := (cx - float64(canvas.Width)/2) / (float64(canvas.Width) / 2)
		dy := (cy - float64(canvas.Height)/2) / (float64(canvas.Height) / 2)
		m.Balance = 1 - 0.5*(abs(dx)+abs(dy))
		if m.Balance < 0 {
			m.Balance = 0
		}
	}

	if len(lefts) >= 2 {
		aligned := 0
		for i, a := range lefts {
			for j, b := range lefts {
				if i != j && absInt64(a-b) <= edgeAlignTolerance {
					aligned++
					break
				}
			}
		}
		m.EdgeAlignment = float64(aligned) / float64(len(lefts))
	}
	return m
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

func absInt64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}

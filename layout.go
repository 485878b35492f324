package deckforge

import "fmt"

// Default type sizes in points for laid-out slides.
const (
	titleFontSize = 28
	bodyFontSize  = 18
)

// layoutGap separates the headline zone from the content zone and the
// content columns from each other.
var layoutGap = Point(10)

// headlineZoneHeight is the height reserved for the headline shape.
var headlineZoneHeight = Inch(1.0)

// LayoutEngine places deck-spec content onto slides. Placement is
// deterministic: the same spec and rules always produce the same
// geometry, so validation results are reproducible.
type LayoutEngine struct {
	margin int64
}

// NewLayoutEngine creates an engine that keeps shapes margin EMU off
// the canvas edge.
func NewLayoutEngine(margin int64) *LayoutEngine {
	if margin < 0 {
		margin = 0
	}
	return &LayoutEngine{margin: margin}
}

// BuildPresentation lays the whole deck spec onto a new presentation
// under the given style rules.
func (le *LayoutEngine) BuildPresentation(spec DeckSpec, rules StyleRules) *Presentation {
	p := New()
	p.SetStyleRules(rules)
	p.GetDocumentProperties().Title = spec.Title
	for i, s := range spec.Slides {
		le.BuildSlide(p, s, i)
	}
	return p
}

// BuildSlide appends one slide laid out from the spec. The headline
// spans the top zone; bullets fill the left or full width below it;
// a chart or image takes the right column when present.
func (le *LayoutEngine) BuildSlide(p *Presentation, s SlideSpec, index int) *Slide {
	canvas := p.Canvas()
	rules := p.GetStyleRules()
	slide := p.CreateSlide()
	slide.SetName(fmt.Sprintf("Slide %d", index+1))
	if s.Notes != "" {
		slide.SetNotes(s.Notes)
	}

	m := le.margin
	contentWidth := canvas.Width - 2*m

	title := slide.CreateTextShape(RoleTitle)
	title.SetName("Title")
	title.SetPosition(m, m)
	title.SetSize(contentWidth, headlineZoneHeight)
	title.EnsureText().SetText(s.Headline, le.titleFont(rules))
	title.EnsureText().SetAnchor(VerticalMiddle)

	bodyTop := m + headlineZoneHeight + layoutGap
	bodyHeight := canvas.Height - bodyTop - m
	if bodyHeight <= 0 {
		bodyHeight = minShapeSize
	}
	bodyWidth := contentWidth

	hasSide := s.Chart != nil || s.ImageRef != ""
	if hasSide {
		bodyWidth = (contentWidth - layoutGap) / 2
	}

	if len(s.Bullets) > 0 {
		body := slide.CreateTextShape(RoleBody)
		body.SetName("Body")
		body.SetPosition(m, bodyTop)
		body.SetSize(bodyWidth, bodyHeight)
		tb := body.EnsureText()
		font := le.bodyFont(rules)
		for i, b := range s.Bullets {
			para := tb.GetActiveParagraph()
			if i > 0 {
				para = tb.CreateParagraph()
			}
			para.SetBullet(true)
			para.CreateTextRun(b).SetFont(font.Clone())
		}
	}

	if hasSide {
		sideX := m + bodyWidth + layoutGap
		sideWidth := contentWidth - bodyWidth - layoutGap
		sideHeight := bodyHeight
		if s.Chart != nil && s.ImageRef != "" {
			sideHeight = (bodyHeight - layoutGap) / 2
		}
		if s.Chart != nil {
			chart := slide.CreateChartShape(s.Chart.Clone())
			chart.SetName("Chart")
			chart.SetPosition(sideX, bodyTop)
			chart.SetSize(sideWidth, sideHeight)
		}
		if s.ImageRef != "" {
			imageTop := bodyTop
			if s.Chart != nil {
				imageTop = bodyTop + sideHeight + layoutGap
			}
			img := slide.CreateImageShape(s.ImageRef)
			img.SetName("Image")
			img.SetPosition(sideX, imageTop)
			img.SetSize(sideWidth, sideHeight)
		}
	}

	return slide
}

// PlaceholderSlide appends a degraded stand-in for a slide whose
// content could not be produced. It keeps the deck length and slide
// order intact.
func (le *LayoutEngine) PlaceholderSlide(p *Presentation, index int, reason string) *Slide {
	return le.BuildSlide(p, SlideSpec{
		Headline: fmt.Sprintf("Slide %d (placeholder)", index+1),
		Bullets:  []string{"Content unavailable: " + reason},
	}, index)
}

func (le *LayoutEngine) titleFont(rules StyleRules) *Font {
	return NewFont().
		SetName(rules.DefaultFont()).
		SetSize(clampFontSize(titleFontSize, rules)).
		SetBold(true).
		SetColor(rules.TitleColor)
}

func (le *LayoutEngine) bodyFont(rules StyleRules) *Font {
	return NewFont().
		SetName(rules.DefaultFont()).
		SetSize(clampFontSize(bodyFontSize, rules)).
		SetColor(rules.BodyColor)
}

func clampFontSize(size float64, rules StyleRules) float64 {
	if rules.MinFontSize > 0 && size < rules.MinFontSize {
		return rules.MinFontSize
	}
	if rules.MaxFontSize > 0 && size > rules.MaxFontSize {
		return rules.MaxFontSize
	}
	return size
}

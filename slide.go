package deckforge

import "strings"

// Slide represents a single slide in a presentation.
type Slide struct {
	name       string
	notes      string
	visible    bool
	background *Fill
	shapes     []*Shape
}

// newSlide creates a new blank slide.
func newSlide() *Slide {
	return &Slide{
		visible: true,
		shapes:  make([]*Shape, 0),
	}
}

// GetName returns the slide name.
func (s *Slide) GetName() string { return s.name }

// SetName sets the slide name.
func (s *Slide) SetName(name string) *Slide {
	s.name = name
	return s
}

// GetNotes returns the speaker notes.
func (s *Slide) GetNotes() string { return s.notes }

// SetNotes sets the speaker notes.
func (s *Slide) SetNotes(notes string) *Slide {
	s.notes = notes
	return s
}

// IsVisible returns whether the slide is visible in the deck.
func (s *Slide) IsVisible() bool { return s.visible }

// SetVisible sets slide visibility.
func (s *Slide) SetVisible(v bool) *Slide {
	s.visible = v
	return s
}

// GetBackground returns the slide background fill, creating a default
// no-fill background on first access.
func (s *Slide) GetBackground() *Fill {
	if s.background == nil {
		s.background = NewFill()
	}
	return s.background
}

// SetBackground sets the slide background fill.
func (s *Slide) SetBackground(f *Fill) { s.background = f }

// GetShapes returns all shapes in z-order.
func (s *Slide) GetShapes() []*Shape { return s.shapes }

// GetShapeCount returns the number of shapes.
func (s *Slide) GetShapeCount() int { return len(s.shapes) }

// AddShape appends a shape to the slide.
func (s *Slide) AddShape(sh *Shape) *Shape {
	s.shapes = append(s.shapes, sh)
	return sh
}

// CreateTextShape creates an empty text shape with the given role and
// appends it to the slide.
func (s *Slide) CreateTextShape(role ShapeRole) *Shape {
	sh := NewShape(role)
	sh.text = NewTextBody()
	s.shapes = append(s.shapes, sh)
	return sh
}

// CreateChartShape creates a chart shape carrying the given spec.
func (s *Slide) CreateChartShape(spec *ChartSpec) *Shape {
	sh := NewShape(RoleChart)
	sh.chart = spec
	s.shapes = append(s.shapes, sh)
	return sh
}

// CreateImageShape creates an image shape referencing external content.
func (s *Slide) CreateImageShape(ref string) *Shape {
	sh := NewShape(RoleImage)
	sh.imageRef = ref
	s.shapes = append(s.shapes, sh)
	return sh
}

// RemoveShapeByPointer removes the given shape from the slide.
// Returns true if the shape was found and removed.
func (s *Slide) RemoveShapeByPointer(target *Shape) bool {
	for i, sh := range s.shapes {
		if sh == target {
			s.shapes = append(s.shapes[:i], s.shapes[i+1:]...)
			return true
		}
	}
	return false
}

// TitleShape returns the first shape with RoleTitle, or nil.
func (s *Slide) TitleShape() *Shape {
	for _, sh := range s.shapes {
		if sh.role == RoleTitle {
			return sh
		}
	}
	return nil
}

// BodyShapes returns all shapes with RoleBody in z-order.
func (s *Slide) BodyShapes() []*Shape {
	var out []*Shape
	for _, sh := range s.shapes {
		if sh.role == RoleBody {
			out = append(out, sh)
		}
	}
	return out
}

// Headline returns the title shape's plain text, or "" when the slide
// has no title shape.
func (s *Slide) Headline() string {
	if t := s.TitleShape(); t != nil {
		return t.PlainText()
	}
	return ""
}

// ExtractText returns all text on the slide, title first, paragraphs
// separated by newlines.
func (s *Slide) ExtractText() string {
	var b strings.Builder
	for _, sh := range s.shapes {
		if sh.text == nil {
			continue
		}
		for _, para := range sh.text.GetParagraphs() {
			line := para.PlainText()
			if line == "" {
				continue
			}
			if b.Len() > 0 {
				b.WriteByte('\n')
			}
			b.WriteString(line)
		}
	}
	return b.String()
}

// Clone returns a deep copy of the slide.
func (s *Slide) Clone() *Slide {
	cp := &Slide{
		name:    s.name,
		notes:   s.notes,
		visible: s.visible,
		shapes:  make([]*Shape, len(s.shapes)),
	}
	if s.background != nil {
		bg := *s.background
		cp.background = &bg
	}
	for i, sh := range s.shapes {
		cp.shapes[i] = sh.Clone()
	}
	return cp
}

// ShapeRole classifies what a shape is for on the slide.
type ShapeRole int

const (
	RoleOther ShapeRole = iota
	RoleTitle
	RoleBody
	RoleChart
	RoleImage
)

// String returns the role name used in issue messages and logs.
func (r ShapeRole) String() string {
	switch r {
	case RoleTitle:
		return "title"
	case RoleBody:
		return "body"
	case RoleChart:
		return "chart"
	case RoleImage:
		return "image"
	default:
		return "other"
	}
}

// Shape is a rectangular element placed on a slide.
type Shape struct {
	name     string
	role     ShapeRole
	box      Box
	rotation int // in degrees
	fill     *Fill
	text     *TextBody  // nil for non-text shapes
	chart    *ChartSpec // non-nil only for RoleChart
	imageRef string     // external reference for RoleImage
}

// NewShape creates a shape with the given role and zero bounds.
func NewShape(role ShapeRole) *Shape {
	return &Shape{role: role}
}

// GetName returns the shape name.
func (sh *Shape) GetName() string { return sh.name }

// SetName sets the shape name.
func (sh *Shape) SetName(name string) *Shape {
	sh.name = name
	return sh
}

// GetRole returns the shape role.
func (sh *Shape) GetRole() ShapeRole { return sh.role }

// SetRole sets the shape role.
func (sh *Shape) SetRole(role ShapeRole) *Shape {
	sh.role = role
	return sh
}

// Bounds returns the shape bounding box in EMU.
func (sh *Shape) Bounds() Box { return sh.box }

// SetBounds sets the shape bounding box.
func (sh *Shape) SetBounds(b Box) *Shape {
	sh.box = b
	return sh
}

// SetPosition sets the shape origin in EMU.
func (sh *Shape) SetPosition(x, y int64) *Shape {
	sh.box.X = x
	sh.box.Y = y
	return sh
}

// SetSize sets the shape width and height in EMU.
func (sh *Shape) SetSize(w, h int64) *Shape {
	sh.box.Width = w
	sh.box.Height = h
	return sh
}

// GetRotation returns the rotation in degrees.
func (sh *Shape) GetRotation() int { return sh.rotation }

// SetRotation sets the rotation in degrees (normalized to 0–359).
func (sh *Shape) SetRotation(r int) *Shape {
	sh.rotation = ((r % 360) + 360) % 360
	return sh
}

// GetFill returns the shape fill, creating a default no-fill on first
// access.
func (sh *Shape) GetFill() *Fill {
	if sh.fill == nil {
		sh.fill = NewFill()
	}
	return sh.fill
}

// SetFill sets the shape fill.
func (sh *Shape) SetFill(f *Fill) { sh.fill = f }

// Text returns the shape's text body, or nil for non-text shapes.
func (sh *Shape) Text() *TextBody { return sh.text }

// EnsureText returns the shape's text body, creating an empty one if
// the shape has none.
func (sh *Shape) EnsureText() *TextBody {
	if sh.text == nil {
		sh.text = NewTextBody()
	}
	return sh.text
}

// HasText reports whether the shape carries a text body with content.
func (sh *Shape) HasText() bool {
	return sh.text != nil && sh.text.PlainText() != ""
}

// Chart returns the chart spec, or nil for non-chart shapes.
func (sh *Shape) Chart() *ChartSpec { return sh.chart }

// SetChart sets the chart spec.
func (sh *Shape) SetChart(spec *ChartSpec) *Shape {
	sh.chart = spec
	return sh
}

// GetImageRef returns the external image reference.
func (sh *Shape) GetImageRef() string { return sh.imageRef }

// SetImageRef sets the external image reference.
func (sh *Shape) SetImageRef(ref string) *Shape {
	sh.imageRef = ref
	return sh
}

// PlainText returns the concatenated text of all paragraphs, separated
// by newlines. Empty for non-text shapes.
func (sh *Shape) PlainText() string {
	if sh.text == nil {
		return ""
	}
	return sh.text.PlainText()
}

// Clone returns a deep copy of the shape.
func (sh *Shape) Clone() *Shape {
	cp := &Shape{
		name:     sh.name,
		role:     sh.role,
		box:      sh.box,
		rotation: sh.rotation,
		imageRef: sh.imageRef,
	}
	if sh.fill != nil {
		f := *sh.fill
		cp.fill = &f
	}
	if sh.text != nil {
		cp.text = sh.text.Clone()
	}
	if sh.chart != nil {
		cp.chart = sh.chart.Clone()
	}
	return cp
}

// Default text insets in EMU (matching OOXML defaults).
const (
	defaultInsetLeftRight = 91440 // 0.1 inch
	defaultInsetTopBottom = 45720 // 0.05 inch
)

// defaultLineSpacing is the line height as a multiple of font size.
const defaultLineSpacing = 1.2

// TextBody holds the paragraphs of a text shape.
type TextBody struct {
	paragraphs      []*Paragraph
	activeParagraph int
	wordWrap        bool
	anchor          VerticalAlignment
	lineSpacing     float64 // multiple of font size
	// Text insets (padding) in EMU.
	insetLeft   int64
	insetRight  int64
	insetTop    int64
	insetBottom int64
}

// NewTextBody creates a text body with one empty paragraph.
func NewTextBody() *TextBody {
	return &TextBody{
		paragraphs:  []*Paragraph{NewParagraph()},
		wordWrap:    true,
		anchor:      VerticalTop,
		lineSpacing: defaultLineSpacing,
		insetLeft:   defaultInsetLeftRight,
		insetRight:  defaultInsetLeftRight,
		insetTop:    defaultInsetTopBottom,
		insetBottom: defaultInsetTopBottom,
	}
}

// GetActiveParagraph returns the active paragraph.
func (tb *TextBody) GetActiveParagraph() *Paragraph {
	if len(tb.paragraphs) == 0 {
		tb.paragraphs = append(tb.paragraphs, NewParagraph())
		tb.activeParagraph = 0
	}
	return tb.paragraphs[tb.activeParagraph]
}

// CreateParagraph creates a new paragraph and makes it active.
func (tb *TextBody) CreateParagraph() *Paragraph {
	p := NewParagraph()
	tb.paragraphs = append(tb.paragraphs, p)
	tb.activeParagraph = len(tb.paragraphs) - 1
	return p
}

// GetParagraphs returns all paragraphs.
func (tb *TextBody) GetParagraphs() []*Paragraph { return tb.paragraphs }

// CreateTextRun creates a text run in the active paragraph.
func (tb *TextBody) CreateTextRun(text string) *TextRun {
	return tb.GetActiveParagraph().CreateTextRun(text)
}

// SetText replaces all content with a single paragraph holding one run
// in the given font. A nil font keeps the default.
func (tb *TextBody) SetText(text string, font *Font) *TextBody {
	p := NewParagraph()
	run := p.CreateTextRun(text)
	if font != nil {
		run.SetFont(font)
	}
	tb.paragraphs = []*Paragraph{p}
	tb.activeParagraph = 0
	return tb
}

// GetWordWrap returns the word wrap setting.
func (tb *TextBody) GetWordWrap() bool { return tb.wordWrap }

// SetWordWrap sets word wrap.
func (tb *TextBody) SetWordWrap(wrap bool) *TextBody {
	tb.wordWrap = wrap
	return tb
}

// GetAnchor returns the vertical anchoring of text within the shape.
func (tb *TextBody) GetAnchor() VerticalAlignment { return tb.anchor }

// SetAnchor sets the vertical anchoring.
func (tb *TextBody) SetAnchor(a VerticalAlignment) *TextBody {
	tb.anchor = a
	return tb
}

// GetLineSpacing returns the line height multiple.
func (tb *TextBody) GetLineSpacing() float64 { return tb.lineSpacing }

// SetLineSpacing sets the line height multiple (clamped to >= 0.5).
func (tb *TextBody) SetLineSpacing(v float64) *TextBody {
	if v < 0.5 {
		v = 0.5
	}
	tb.lineSpacing = v
	return tb
}

// Insets returns the text padding in EMU (left, right, top, bottom).
func (tb *TextBody) Insets() (left, right, top, bottom int64) {
	return tb.insetLeft, tb.insetRight, tb.insetTop, tb.insetBottom
}

// SetInsets sets the text padding in EMU.
func (tb *TextBody) SetInsets(left, right, top, bottom int64) *TextBody {
	tb.insetLeft = left
	tb.insetRight = right
	tb.insetTop = top
	tb.insetBottom = bottom
	return tb
}

// PlainText returns all paragraph text joined by newlines, skipping
// empty paragraphs.
func (tb *TextBody) PlainText() string {
	var b strings.Builder
	for _, p := range tb.paragraphs {
		line := p.PlainText()
		if line == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)
	}
	return b.String()
}

// MaxFontSize returns the largest run font size in points, or 0 when
// the body has no runs.
func (tb *TextBody) MaxFontSize() float64 {
	var maxSize float64
	for _, p := range tb.paragraphs {
		for _, r := range p.runs {
			if r.font != nil && r.font.Size > maxSize {
				maxSize = r.font.Size
			}
		}
	}
	return maxSize
}

// ScaleFontSizes multiplies every run font size by factor, clamping to
// minSize. No-op for factor >= 1.
func (tb *TextBody) ScaleFontSizes(factor, minSize float64) {
	if factor >= 1 {
		return
	}
	for _, p := range tb.paragraphs {
		for _, r := range p.runs {
			if r.font == nil {
				continue
			}
			size := r.font.Size * factor
			if size < minSize {
				size = minSize
			}
			r.font.Size = size
		}
	}
}

// Clone returns a deep copy of the text body.
func (tb *TextBody) Clone() *TextBody {
	cp := *tb
	cp.paragraphs = make([]*Paragraph, len(tb.paragraphs))
	for i, p := range tb.paragraphs {
		cp.paragraphs[i] = p.Clone()
	}
	return &cp
}

// Paragraph represents a text paragraph.
type Paragraph struct {
	runs      []*TextRun
	alignment *Alignment
	bullet    bool
	level     int
}

// NewParagraph creates a new empty paragraph.
func NewParagraph() *Paragraph {
	return &Paragraph{
		runs:      make([]*TextRun, 0),
		alignment: NewAlignment(),
	}
}

// GetAlignment returns the paragraph alignment.
func (p *Paragraph) GetAlignment() *Alignment { return p.alignment }

// SetAlignment sets the paragraph alignment.
func (p *Paragraph) SetAlignment(a *Alignment) { p.alignment = a }

// HasBullet returns whether the paragraph renders a bullet.
func (p *Paragraph) HasBullet() bool { return p.bullet }

// SetBullet sets whether the paragraph renders a bullet.
func (p *Paragraph) SetBullet(b bool) *Paragraph {
	p.bullet = b
	return p
}

// GetLevel returns the indent level.
func (p *Paragraph) GetLevel() int { return p.level }

// SetLevel sets the indent level (clamped to 0–8).
func (p *Paragraph) SetLevel(level int) *Paragraph {
	if level < 0 {
		level = 0
	}
	if level > 8 {
		level = 8
	}
	p.level = level
	return p
}

// GetRuns returns all text runs.
func (p *Paragraph) GetRuns() []*TextRun { return p.runs }

// CreateTextRun creates a new text run with the default font.
func (p *Paragraph) CreateTextRun(text string) *TextRun {
	tr := &TextRun{
		text: text,
		font: NewFont(),
	}
	p.runs = append(p.runs, tr)
	return tr
}

// PlainText returns the concatenated run text.
func (p *Paragraph) PlainText() string {
	var b strings.Builder
	for _, r := range p.runs {
		b.WriteString(r.text)
	}
	return b.String()
}

// Clone returns a deep copy of the paragraph.
func (p *Paragraph) Clone() *Paragraph {
	cp := &Paragraph{
		runs:   make([]*TextRun, len(p.runs)),
		bullet: p.bullet,
		level:  p.level,
	}
	if p.alignment != nil {
		a := *p.alignment
		cp.alignment = &a
	}
	for i, r := range p.runs {
		cp.runs[i] = r.Clone()
	}
	return cp
}

// TextRun represents a run of text with uniform formatting.
type TextRun struct {
	text string
	font *Font
}

// GetText returns the text content.
func (tr *TextRun) GetText() string { return tr.text }

// SetText sets the text content.
func (tr *TextRun) SetText(text string) { tr.text = text }

// GetFont returns the font properties.
func (tr *TextRun) GetFont() *Font { return tr.font }

// SetFont sets the font properties.
func (tr *TextRun) SetFont(f *Font) { tr.font = f }

// Clone returns a deep copy of the run.
func (tr *TextRun) Clone() *TextRun {
	cp := &TextRun{text: tr.text}
	if tr.font != nil {
		f := *tr.font
		cp.font = &f
	}
	return cp
}

// ChartKind identifies the chart family.
type ChartKind string

const (
	ChartBar     ChartKind = "bar"
	ChartLine    ChartKind = "line"
	ChartPie     ChartKind = "pie"
	ChartArea    ChartKind = "area"
	ChartScatter ChartKind = "scatter"
)

// ChartSpec carries chart content through the pipeline. The pipeline
// validates chart placement but never renders series data; rendering
// belongs to the output backend.
type ChartSpec struct {
	Kind   ChartKind
	Title  string
	Series []*ChartSeries
}

// ChartSeries represents a data series in a chart.
type ChartSeries struct {
	Title      string
	Categories []string
	Values     []float64
}

// NewChartSeries creates a series with ordered categories.
// If len(values) < len(categories), missing values default to 0.
// Extra values beyond len(categories) are ignored.
func NewChartSeries(title string, categories []string, values []float64) *ChartSeries {
	vals := make([]float64, len(categories))
	copy(vals, values)
	return &ChartSeries{
		Title:      title,
		Categories: append([]string(nil), categories...),
		Values:     vals,
	}
}

// Clone returns a deep copy of the chart spec.
func (cs *ChartSpec) Clone() *ChartSpec {
	cp := &ChartSpec{
		Kind:   cs.Kind,
		Title:  cs.Title,
		Series: make([]*ChartSeries, len(cs.Series)),
	}
	for i, s := range cs.Series {
		ns := &ChartSeries{
			Title:      s.Title,
			Categories: append([]string(nil), s.Categories...),
			Values:     append([]float64(nil), s.Values...),
		}
		cp.Series[i] = ns
	}
	return cp
}

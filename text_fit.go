package deckforge

import (
	"errors"
	"math"
	"strings"
	"unicode"

	"golang.org/x/image/font"
)

// Fit errors.
var (
	// ErrNoText is returned when fitting a shape without a text body.
	ErrNoText = errors.New("shape has no text body")
	// ErrBoxTooSmall is returned when not even a truncation marker fits
	// the shape bounds at the minimum font size.
	ErrBoxTooSmall = errors.New("shape bounds cannot hold any text")
)

// ellipsis is appended when fitting truncates content.
const ellipsis = "…"

// Measurer measures the rendered width of a single line of text.
// Implementations must be safe for concurrent use.
type Measurer interface {
	// TextWidth returns the width of text in EMU when rendered in f.
	TextWidth(text string, f *Font) int64
}

// TableMeasurer measures text with fixed per-class advance ratios
// instead of real font metrics. It is deterministic across machines
// and needs no font files.
type TableMeasurer struct {
	// Advance ratios as a fraction of the font size.
	Narrow    float64
	Wide      float64
	Ambiguous float64
	// BoldFactor widens bold runs.
	BoldFactor float64
}

// NewTableMeasurer returns a TableMeasurer with ratios tuned against
// common proportional Latin fonts and em-square CJK glyphs.
func NewTableMeasurer() *TableMeasurer {
	return &TableMeasurer{
		Narrow:     0.52,
		Wide:       1.0,
		Ambiguous:  0.7,
		BoldFactor: 1.02,
	}
}

// TextWidth implements Measurer.
func (m *TableMeasurer) TextWidth(text string, f *Font) int64 {
	if text == "" || f == nil {
		return 0
	}
	var units float64
	for _, r := range text {
		switch ClassifyRune(r) {
		case WidthWide:
			units += m.Wide
		case WidthAmbiguous:
			units += m.Ambiguous
		default:
			units += m.Narrow
		}
	}
	if f.Bold {
		units *= m.BoldFactor
	}
	return Point(units * f.Size)
}

// FaceMeasurer measures text with real glyph metrics resolved through
// a FontCache. Fonts that cannot be resolved fall back to a
// TableMeasurer so measurement never fails outright.
type FaceMeasurer struct {
	cache    *FontCache
	fallback Measurer
}

// NewFaceMeasurer creates a FaceMeasurer backed by the given cache.
func NewFaceMeasurer(cache *FontCache) *FaceMeasurer {
	return &FaceMeasurer{
		cache:    cache,
		fallback: NewTableMeasurer(),
	}
}

// TextWidth implements Measurer. Face advances at 72 DPI are in
// points, converted to EMU.
func (m *FaceMeasurer) TextWidth(text string, f *Font) int64 {
	if text == "" || f == nil {
		return 0
	}
	face := m.cache.GetMeasureFace(f.Name, f.Size, f.Bold, f.Italic)
	if face == nil {
		return m.fallback.TextWidth(text, f)
	}
	adv := font.MeasureString(face, text)
	return Point(float64(adv) / 64.0)
}

// lineHeightEMU returns the vertical advance of one line in EMU.
func lineHeightEMU(sizePt, spacing float64) int64 {
	return Point(sizePt * spacing)
}

// FitterOptions configures a TextFitter.
type FitterOptions struct {
	// MinFontSize is the smallest size fitting may shrink to, in points.
	MinFontSize float64
	// SizeStep is the search granularity in points.
	SizeStep float64
}

// DefaultFitterOptions returns the standard fitting parameters.
func DefaultFitterOptions() FitterOptions {
	return FitterOptions{
		MinFontSize: 10,
		SizeStep:    0.5,
	}
}

// FitResult reports what fitting did to a shape.
type FitResult struct {
	// FontSize is the largest run size in points after fitting.
	FontSize float64
	// Lines is the wrapped line count after fitting.
	Lines int
	// Shrunk is true when any run size was reduced.
	Shrunk bool
	// Truncated is true when content was dropped.
	Truncated bool
	// UsedHeight is the vertical extent of the fitted text in EMU.
	UsedHeight int64
}

// TextFitter shrinks and, as a last resort, truncates shape text until
// it fits the shape bounds. A TextFitter is stateless and safe for
// concurrent use.
type TextFitter struct {
	measurer Measurer
	opts     FitterOptions
}

// NewTextFitter creates a TextFitter using the given measurer.
func NewTextFitter(m Measurer, opts FitterOptions) *TextFitter {
	if opts.MinFontSize <= 0 {
		opts.MinFontSize = DefaultFitterOptions().MinFontSize
	}
	if opts.SizeStep <= 0 {
		opts.SizeStep = DefaultFitterOptions().SizeStep
	}
	return &TextFitter{measurer: m, opts: opts}
}

// FitShape fits the shape's text into its bounds. It first shrinks all
// run sizes proportionally, searching for the largest scale on the
// SizeStep grid that fits. If the text still overflows at MinFontSize
// it truncates trailing sentences, then words, then runes, appending
// an ellipsis. FitShape mutates the shape's text body and is
// idempotent: fitting an already-fitted shape changes nothing.
func (tf *TextFitter) FitShape(sh *Shape) (FitResult, error) {
	if sh == nil || sh.Text() == nil {
		return FitResult{}, ErrNoText
	}
	tb := sh.Text()
	availW, availH := availableBox(sh)
	if availW <= 0 || availH <= 0 {
		return FitResult{}, ErrBoxTooSmall
	}
	if tb.PlainText() == "" {
		return FitResult{FontSize: tb.MaxFontSize()}, nil
	}

	origSize := tb.MaxFontSize()
	if origSize <= 0 {
		origSize = NewFont().Size
	}

	// Largest candidate first: the text may already fit as-is.
	if m := tf.measureBody(tb, 1.0, availW, availH); m.fits {
		return FitResult{FontSize: origSize, Lines: m.lines, UsedHeight: m.height}, nil
	}

	// Binary search the size grid for the largest fitting scale.
	minSize := math.Min(tf.opts.MinFontSize, origSize)
	steps := int((origSize - minSize) / tf.opts.SizeStep)
	lo, hi := 0, steps // index i means size = origSize - i*step
	found := -1
	for lo <= hi {
		mid := (lo + hi) / 2
		scale := (origSize - float64(mid)*tf.opts.SizeStep) / origSize
		if m := tf.measureBody(tb, scale, availW, availH); m.fits {
			found = mid
			hi = mid - 1
		} else {
			lo = mid + 1
		}
	}

	if found >= 0 {
		size := origSize - float64(found)*tf.opts.SizeStep
		tb.ScaleFontSizes(size/origSize, tf.opts.MinFontSize)
		// Clamping small runs up to MinFontSize can reintroduce an
		// overflow the scaled measurement did not see.
		if m := tf.measureBody(tb, 1.0, availW, availH); m.fits {
			return FitResult{
				FontSize:   tb.MaxFontSize(),
				Lines:      m.lines,
				Shrunk:     tb.MaxFontSize() < origSize,
				UsedHeight: m.height,
			}, nil
		}
		if err := tf.truncateBody(tb, availW, availH); err != nil {
			return FitResult{}, err
		}
		m := tf.measureBody(tb, 1.0, availW, availH)
		return FitResult{
			FontSize:   tb.MaxFontSize(),
			Lines:      m.lines,
			Shrunk:     tb.MaxFontSize() < origSize,
			Truncated:  true,
			UsedHeight: m.height,
		}, nil
	}

	// Nothing on the grid fits. When origSize is not a step multiple
	// the grid's smallest candidate sits above minSize, so measure the
	// floor itself before dropping content.
	tb.ScaleFontSizes(minSize/origSize, tf.opts.MinFontSize)
	if m := tf.measureBody(tb, 1.0, availW, availH); m.fits {
		return FitResult{
			FontSize:   tb.MaxFontSize(),
			Lines:      m.lines,
			Shrunk:     tb.MaxFontSize() < origSize,
			UsedHeight: m.height,
		}, nil
	}
	if err := tf.truncateBody(tb, availW, availH); err != nil {
		return FitResult{}, err
	}
	m := tf.measureBody(tb, 1.0, availW, availH)
	return FitResult{
		FontSize:   tb.MaxFontSize(),
		Lines:      m.lines,
		Shrunk:     tb.MaxFontSize() < origSize,
		Truncated:  true,
		UsedHeight: m.height,
	}, nil
}

// FitSlide fits every text shape on the slide, collecting per-shape
// results indexed like the slide's shapes. Non-text shapes yield a
// zero FitResult. The first hard error aborts.
func (tf *TextFitter) FitSlide(s *Slide) ([]FitResult, error) {
	results := make([]FitResult, len(s.GetShapes()))
	for i, sh := range s.GetShapes() {
		if sh.Text() == nil {
			continue
		}
		res, err := tf.FitShape(sh)
		if err != nil {
			return results, err
		}
		results[i] = res
	}
	return results, nil
}

// availableBox returns the writable area inside the shape after insets.
func availableBox(sh *Shape) (w, h int64) {
	b := sh.Bounds()
	l, r, t, bt := sh.Text().Insets()
	return b.Width - l - r, b.Height - t - bt
}

// bodyMetrics is the outcome of measuring a text body at some scale.
type bodyMetrics struct {
	lines  int
	widest int64
	height int64
	fits   bool
}

// measureBody wraps the body's paragraphs at the given scale and
// reports whether everything fits in availW x availH.
func (tf *TextFitter) measureBody(tb *TextBody, scale float64, availW, availH int64) bodyMetrics {
	var m bodyMetrics
	m.fits = true
	for _, para := range tb.GetParagraphs() {
		if para.PlainText() == "" {
			continue
		}
		lines, widest, ok := tf.wrapParagraph(para, scale, availW, tb.GetWordWrap())
		m.lines += len(lines)
		if widest > m.widest {
			m.widest = widest
		}
		if !ok {
			m.fits = false
		}
		for _, ln := range lines {
			m.height += lineHeightEMU(ln.maxSize*scale, tb.GetLineSpacing())
		}
	}
	if m.widest > availW {
		m.fits = false
	}
	if m.height > availH {
		m.fits = false
	}
	return m
}

// wrappedLine is one display line produced by wrapping.
type wrappedLine struct {
	width   int64
	maxSize float64 // largest unscaled run size on the line, in points
}

// styledToken is an unbreakable chunk of text with its formatting.
type styledToken struct {
	text string
	font *Font
}

// wrapParagraph greedily fills lines with unbreakable tokens. ok is
// false when some single token is wider than the available width, or
// when wrapping is disabled and the whole paragraph exceeds it.
func (tf *TextFitter) wrapParagraph(para *Paragraph, scale float64, availW int64, wrap bool) (lines []wrappedLine, widest int64, ok bool) {
	tokens := tokenizeParagraph(para)
	if len(tokens) == 0 {
		return nil, 0, true
	}
	ok = true

	if !wrap {
		var width int64
		var maxSize float64
		for _, t := range tokens {
			width += tf.tokenWidth(t, scale)
			if t.font.Size > maxSize {
				maxSize = t.font.Size
			}
		}
		if width > availW {
			ok = false
		}
		return []wrappedLine{{width: width, maxSize: maxSize}}, width, ok
	}

	var cur wrappedLine
	flush := func() {
		if cur.maxSize > 0 {
			lines = append(lines, cur)
			if cur.width > widest {
				widest = cur.width
			}
		}
		cur = wrappedLine{}
	}

	for _, tok := range tokens {
		tw := tf.tokenWidth(tok, scale)
		if cur.width+tw > availW && cur.width > 0 {
			flush()
			// Drop leading whitespace on the wrapped line.
			tok.text = strings.TrimLeft(tok.text, " \t")
			if tok.text == "" {
				continue
			}
			tw = tf.tokenWidth(tok, scale)
		}
		if tw > availW {
			ok = false
		}
		cur.width += tw
		if tok.font.Size > cur.maxSize {
			cur.maxSize = tok.font.Size
		}
	}
	flush()
	return lines, widest, ok
}

// tokenWidth measures a token at the given scale.
func (tf *TextFitter) tokenWidth(tok styledToken, scale float64) int64 {
	f := tok.font
	if scale != 1.0 {
		scaled := *tok.font
		scaled.Size = tok.font.Size * scale
		f = &scaled
	}
	return tf.measurer.TextWidth(tok.text, f)
}

// tokenizeParagraph splits runs into unbreakable tokens. Latin words
// keep their leading space attached; CJK text breaks between runes
// wherever the kinsoku rules allow.
func tokenizeParagraph(para *Paragraph) []styledToken {
	var tokens []styledToken
	for _, run := range para.GetRuns() {
		f := run.GetFont()
		if f == nil {
			f = NewFont()
		}
		runes := []rune(run.GetText())
		start := 0
		for i := 1; i <= len(runes); i++ {
			if i == len(runes) {
				break
			}
			prev, next := runes[i-1], runes[i]
			// Keep whitespace attached to the token it precedes, so a
			// break point sits before the space+word chunk.
			boundary := false
			if unicode.IsSpace(next) && !unicode.IsSpace(prev) {
				boundary = true
			} else if !unicode.IsSpace(next) && canBreakBetween(prev, next) && !unicode.IsSpace(prev) {
				boundary = true
			}
			if boundary {
				tokens = append(tokens, styledToken{text: string(runes[start:i]), font: f})
				start = i
			}
		}
		if start < len(runes) {
			tokens = append(tokens, styledToken{text: string(runes[start:]), font: f})
		}
	}
	return tokens
}

// truncateBody removes content from the end of the body until it fits,
// appending an ellipsis to the last surviving paragraph. Sentences go
// first, then words, then runes.
func (tf *TextFitter) truncateBody(tb *TextBody, availW, availH int64) error {
	paras := tb.GetParagraphs()
	for last := len(paras) - 1; last >= 0; last-- {
		para := paras[last]
		text := para.PlainText()
		if text == "" {
			continue
		}
		f := paragraphFont(para)

		// Sentence-level cuts.
		sentences := SplitSentences(text)
		for len(sentences) > 1 {
			sentences = sentences[:len(sentences)-1]
			candidate := strings.Join(sentences, " ") + ellipsis
			if tf.candidateFits(tb, paras[:last], candidate, f, availW, availH) {
				setParagraphText(para, candidate, f)
				tb.paragraphs = paras[:last+1]
				return nil
			}
		}

		// Word-level cuts.
		words := strings.Fields(text)
		for len(words) > 1 {
			words = words[:len(words)-1]
			candidate := strings.Join(words, " ") + ellipsis
			if tf.candidateFits(tb, paras[:last], candidate, f, availW, availH) {
				setParagraphText(para, candidate, f)
				tb.paragraphs = paras[:last+1]
				return nil
			}
		}

		// Rune-level cuts.
		runes := []rune(text)
		for len(runes) > 0 {
			runes = runes[:len(runes)-1]
			candidate := strings.TrimRight(string(runes), " \t") + ellipsis
			if tf.candidateFits(tb, paras[:last], candidate, f, availW, availH) {
				setParagraphText(para, candidate, f)
				tb.paragraphs = paras[:last+1]
				return nil
			}
		}
		// This whole paragraph is gone; try the one above.
	}
	return ErrBoxTooSmall
}

// candidateFits measures the kept paragraphs plus a truncated tail
// candidate without mutating the body.
func (tf *TextFitter) candidateFits(tb *TextBody, kept []*Paragraph, tail string, f *Font, availW, availH int64) bool {
	trial := &TextBody{
		paragraphs:  make([]*Paragraph, 0, len(kept)+1),
		wordWrap:    tb.wordWrap,
		anchor:      tb.anchor,
		lineSpacing: tb.lineSpacing,
		insetLeft:   tb.insetLeft,
		insetRight:  tb.insetRight,
		insetTop:    tb.insetTop,
		insetBottom: tb.insetBottom,
	}
	trial.paragraphs = append(trial.paragraphs, kept...)
	tailPara := NewParagraph()
	tailPara.CreateTextRun(tail).SetFont(f)
	trial.paragraphs = append(trial.paragraphs, tailPara)
	return tf.measureBody(trial, 1.0, availW, availH).fits
}

// paragraphFont returns the first run's font, falling back to defaults.
func paragraphFont(para *Paragraph) *Font {
	for _, r := range para.GetRuns() {
		if r.GetFont() != nil {
			f := *r.GetFont()
			return &f
		}
	}
	return NewFont()
}

// setParagraphText collapses the paragraph to a single run.
func setParagraphText(para *Paragraph, text string, f *Font) {
	para.runs = para.runs[:0]
	para.CreateTextRun(text).SetFont(f)
}

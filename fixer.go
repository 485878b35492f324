package deckforge

import (
	"fmt"

	"go.uber.org/zap"
)

// Fix pass labels reported in FixResult.
const (
	PassMarginClamp    = "margin_clamp"
	PassTextDensity    = "text_density"
	PassOverflowShrink = "overflow_shrink"
	PassOverlapShift   = "overlap_shift"
	PassFontNormalize  = "font_normalize"
	PassStyleReapply   = "style_reapply"
)

// minShapeSize replaces degenerate shape dimensions, 0.25 inch.
const minShapeSize = int64(228600)

// overlapGap is the vertical gap left between separated shapes.
var overlapGap = Point(4)

// Density limits. Aggressive mode halves both.
const (
	maxBodyParagraphs = 7
	maxRunChars       = 300
)

// FixResult lists which passes changed the slide and which failed.
// Fixing never returns an error; a FixResult is always produced.
type FixResult struct {
	FixesApplied []string
	FixesFailed  []string
}

// SlideFixer applies ordered, best-effort corrective passes to slides.
// Each pass is idempotent and independently recovered: a panic inside
// one pass is recorded under FixesFailed and later passes still run.
type SlideFixer struct {
	fitter *TextFitter
	canvas Box
	rules  StyleRules
	margin int64
	log    *zap.Logger
}

// NewSlideFixer creates a fixer for the given canvas and style rules.
func NewSlideFixer(fitter *TextFitter, canvas Box, rules StyleRules) *SlideFixer {
	return &SlideFixer{
		fitter: fitter,
		canvas: canvas,
		rules:  rules,
		margin: defaultSafeMargin,
		log:    zap.NewNop(),
	}
}

// SetSafeMargin sets the canvas edge margin in EMU used by the clamp
// pass. Negative values are treated as zero.
func (fx *SlideFixer) SetSafeMargin(margin int64) {
	if margin < 0 {
		margin = 0
	}
	fx.margin = margin
}

// SetLogger replaces the fixer's logger. A nil logger is ignored.
func (fx *SlideFixer) SetLogger(l *zap.Logger) {
	if l != nil {
		fx.log = l
	}
}

// FixSlide returns a corrected copy of the slide; the input slide is
// never mutated. issues are the validation findings recorded against
// the slide; every pass re-derives defect geometry from the slide
// itself, so the list feeds logging only and may be nil. Passes run
// in a fixed order:
//
//  1. margin_clamp: move/resize shapes inside canvas minus margin.
//  2. text_density: cap paragraph count and run length.
//  3. overflow_shrink: fit text via the TextFitter.
//  4. overlap_shift: shift the later shape below the earlier one.
//  5. font_normalize: replace non-whitelisted fonts with the default.
//  6. style_reapply: recolor off-palette runs and fills.
//
// Aggressive mode halves the density limits and lets overlap_shift
// shrink shapes that cannot move far enough.
func (fx *SlideFixer) FixSlide(s *Slide, issues []Issue, aggressive bool) (*Slide, FixResult) {
	fixed := s.Clone()
	var result FixResult
	if len(issues) > 0 {
		fx.log.Debug("fixing slide",
			zap.Int("reported_issues", len(issues)),
			zap.Bool("aggressive", aggressive))
	}

	fx.runPass(PassMarginClamp, &result, func() (bool, error) {
		return fx.clampToMargin(fixed)
	})
	fx.runPass(PassTextDensity, &result, func() (bool, error) {
		return fx.reduceDensity(fixed, aggressive)
	})
	fx.runPass(PassOverflowShrink, &result, func() (bool, error) {
		return fx.shrinkOverflow(fixed)
	})
	fx.runPass(PassOverlapShift, &result, func() (bool, error) {
		return fx.shiftOverlaps(fixed, aggressive)
	})
	fx.runPass(PassFontNormalize, &result, func() (bool, error) {
		return fx.normalizeFonts(fixed)
	})
	fx.runPass(PassStyleReapply, &result, func() (bool, error) {
		return fx.reapplyStyle(fixed)
	})

	return fixed, result
}

// runPass executes one pass, recovering panics so later passes run.
func (fx *SlideFixer) runPass(label string, result *FixResult, fn func() (bool, error)) {
	defer func() {
		if r := recover(); r != nil {
			result.FixesFailed = append(result.FixesFailed, label)
			fx.log.Warn("fix pass panicked",
				zap.String("pass", label),
				zap.Any("panic", r))
		}
	}()
	changed, err := fn()
	if err != nil {
		result.FixesFailed = append(result.FixesFailed, label)
		fx.log.Debug("fix pass failed",
			zap.String("pass", label),
			zap.Error(err))
		return
	}
	if changed {
		result.FixesApplied = append(result.FixesApplied, label)
	}
}

// clampToMargin moves and resizes shapes back inside canvas minus the
// safe margin. Degenerate dimensions get a minimum visible size.
func (fx *SlideFixer) clampToMargin(s *Slide) (bool, error) {
	safe := fx.canvas.Inset(fx.margin)
	if safe.Empty() {
		return false, fmt.Errorf("safe area is empty: margin %d on canvas %dx%d", fx.margin, fx.canvas.Width, fx.canvas.Height)
	}
	changed := false
	for _, sh := range s.GetShapes() {
		b := sh.Bounds()
		orig := b
		if b.Width <= 0 {
			b.Width = minShapeSize
		}
		if b.Height <= 0 {
			b.Height = minShapeSize
		}
		if b.Width > safe.Width {
			b.Width = safe.Width
		}
		if b.Height > safe.Height {
			b.Height = safe.Height
		}
		if b.X < safe.X {
			b.X = safe.X
		}
		if b.Y < safe.Y {
			b.Y = safe.Y
		}
		if b.Right() > safe.Right() {
			b.X = safe.Right() - b.Width
		}
		if b.Bottom() > safe.Bottom() {
			b.Y = safe.Bottom() - b.Height
		}
		if b != orig {
			sh.SetBounds(b)
			changed = true
		}
	}
	return changed, nil
}

// reduceDensity caps the paragraph count per text body and truncates
// any single run beyond the character ceiling.
func (fx *SlideFixer) reduceDensity(s *Slide, aggressive bool) (bool, error) {
	maxParas := maxBodyParagraphs
	maxChars := maxRunChars
	if aggressive {
		maxParas /= 2
		maxChars /= 2
	}
	changed := false
	for _, sh := range s.GetShapes() {
		tb := sh.Text()
		if tb == nil {
			continue
		}
		var kept []*Paragraph
		content := 0
		for _, p := range tb.GetParagraphs() {
			if p.PlainText() == "" {
				kept = append(kept, p)
				continue
			}
			if content >= maxParas {
				changed = true
				continue
			}
			content++
			kept = append(kept, p)
		}
		if len(kept) != len(tb.paragraphs) {
			tb.paragraphs = kept
			if tb.activeParagraph >= len(kept) {
				tb.activeParagraph = 0
			}
		}
		for _, p := range tb.GetParagraphs() {
			for _, run := range p.GetRuns() {
				runes := []rune(run.GetText())
				if len(runes) > maxChars {
					run.SetText(string(runes[:maxChars-1]) + ellipsis)
					changed = true
				}
			}
		}
	}
	return changed, nil
}

// shrinkOverflow refits every text shape. The fitter no-ops on shapes
// that already fit, keeping the pass idempotent.
func (fx *SlideFixer) shrinkOverflow(s *Slide) (bool, error) {
	changed := false
	var firstErr error
	for _, sh := range s.GetShapes() {
		if sh.Text() == nil || sh.PlainText() == "" {
			continue
		}
		res, err := fx.fitter.FitShape(sh)
		if err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("shape %q: %w", sh.GetName(), err)
			}
			continue
		}
		if res.Shrunk || res.Truncated {
			changed = true
		}
	}
	return changed, firstErr
}

// shiftOverlaps pushes the later shape of each overlapping pair
// downward by the overlap height plus a gap. In aggressive mode a
// shape that would leave the safe area is shrunk instead.
func (fx *SlideFixer) shiftOverlaps(s *Slide, aggressive bool) (bool, error) {
	safe := fx.canvas.Inset(fx.margin)
	shapes := s.GetShapes()
	changed := false
	for i := 0; i < len(shapes); i++ {
		for j := i + 1; j < len(shapes); j++ {
			a, b := shapes[i].Bounds(), shapes[j].Bounds()
			inter := a.Intersection(b)
			if inter.Empty() {
				continue
			}
			shift := inter.Height + overlapGap
			nb := b
			nb.Y += shift
			if nb.Bottom() > safe.Bottom() {
				if !aggressive {
					// Cannot move without leaving the safe area;
					// leave the overlap for reporting.
					continue
				}
				nb.Y = b.Y + shift
				nb.Height = safe.Bottom() - nb.Y
				if nb.Height < minShapeSize {
					nb.Y = safe.Bottom() - minShapeSize
					nb.Height = minShapeSize
				}
			}
			shapes[j].SetBounds(nb)
			changed = true
		}
	}
	return changed, nil
}

// normalizeFonts replaces missing or non-whitelisted font families
// with the template default.
func (fx *SlideFixer) normalizeFonts(s *Slide) (bool, error) {
	def := fx.rules.DefaultFont()
	changed := false
	for _, sh := range s.GetShapes() {
		if sh.Text() == nil {
			continue
		}
		for _, p := range sh.Text().GetParagraphs() {
			for _, run := range p.GetRuns() {
				f := run.GetFont()
				if f == nil {
					run.SetFont(NewFont().SetName(def))
					changed = true
					continue
				}
				if f.Name == "" || !fx.rules.FontAllowed(f.Name) {
					f.SetName(def)
					changed = true
				}
			}
		}
	}
	return changed, nil
}

// reapplyStyle recolors off-palette runs with the canonical role color
// and snaps off-palette solid fills to the nearest palette entry.
func (fx *SlideFixer) reapplyStyle(s *Slide) (bool, error) {
	changed := false
	for _, sh := range s.GetShapes() {
		if sh.fill != nil && sh.fill.Type == FillSolid && !fx.rules.ColorAllowed(sh.fill.Color) {
			sh.fill.Color = fx.rules.NearestPaletteColor(sh.fill.Color)
			changed = true
		}
		if sh.Text() == nil {
			continue
		}
		want := fx.rules.BodyColor
		if sh.GetRole() == RoleTitle {
			want = fx.rules.TitleColor
		}
		for _, p := range sh.Text().GetParagraphs() {
			for _, run := range p.GetRuns() {
				f := run.GetFont()
				if f == nil {
					continue
				}
				if !fx.rules.ColorAllowed(f.Color) {
					f.SetColor(want)
					changed = true
				}
			}
		}
	}
	return changed, nil
}

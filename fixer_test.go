package deckforge

import (
	"reflect"
	"strings"
	"testing"
	"unicode/utf8"
)

func newTestFixer() *SlideFixer {
	return NewSlideFixer(newTestFitter(), NewBox(0, 0, 12192000, 6858000), DefaultStyleRules())
}

func containsPass(passes []string, label string) bool {
	for _, p := range passes {
		if p == label {
			return true
		}
	}
	return false
}

func TestFixClampsToSafeArea(t *testing.T) {
	fx := newTestFixer()
	s := newSlide()

	off := s.CreateTextShape(RoleBody)
	off.SetPosition(-Inch(1), Inch(1)).SetSize(Inch(2), Inch(1))
	wide := s.CreateTextShape(RoleBody)
	wide.SetPosition(Inch(1), Inch(2)).SetSize(Inch(20), Inch(1))
	degenerate := s.CreateTextShape(RoleBody)
	degenerate.SetPosition(Inch(5), Inch(5)).SetSize(0, 0)

	fixed, res := fx.FixSlide(s, nil, false)
	if !containsPass(res.FixesApplied, PassMarginClamp) {
		t.Fatalf("margin clamp not applied: %+v", res)
	}
	if len(res.FixesFailed) != 0 {
		t.Fatalf("unexpected failures: %v", res.FixesFailed)
	}

	safe := NewBox(0, 0, 12192000, 6858000).Inset(defaultSafeMargin)
	for i, sh := range fixed.GetShapes() {
		if !sh.Bounds().ContainedIn(safe) {
			t.Errorf("shape %d still outside safe area: %+v", i, sh.Bounds())
		}
	}
	if got := fixed.GetShapes()[2].Bounds(); got.Width != minShapeSize || got.Height != minShapeSize {
		t.Errorf("degenerate shape resized to %dx%d, want %dx%d", got.Width, got.Height, minShapeSize, minShapeSize)
	}

	// The input slide is untouched.
	if off.Bounds().X != -Inch(1) {
		t.Error("FixSlide mutated its input")
	}
}

func TestFixReducesDensity(t *testing.T) {
	fx := newTestFixer()
	s := newSlide()
	sh := s.CreateTextShape(RoleBody)
	sh.SetPosition(Inch(1), Inch(1)).SetSize(Inch(8), Inch(4))
	tb := sh.EnsureText()
	for i := 0; i < 10; i++ {
		para := tb.GetActiveParagraph()
		if i > 0 {
			para = tb.CreateParagraph()
		}
		para.CreateTextRun("point").SetFont(NewFont().SetSize(18))
	}

	fixed, res := fx.FixSlide(s, nil, false)
	if !containsPass(res.FixesApplied, PassTextDensity) {
		t.Fatalf("density pass not applied: %+v", res)
	}
	got := fixed.GetShapes()[0].Text().GetParagraphs()
	if len(got) != maxBodyParagraphs {
		t.Errorf("paragraphs after fix %d, want %d", len(got), maxBodyParagraphs)
	}
	if len(s.GetShapes()[0].Text().GetParagraphs()) != 10 {
		t.Error("FixSlide mutated the input paragraphs")
	}
}

func TestFixTruncatesLongRuns(t *testing.T) {
	fx := newTestFixer()
	s := newSlide()
	sh := s.CreateTextShape(RoleBody)
	sh.SetPosition(Inch(1), Inch(1)).SetSize(Inch(10), Inch(5))
	sh.EnsureText().SetText(strings.Repeat("a", 400), NewFont().SetSize(12))

	fixed, _ := fx.FixSlide(s, nil, false)
	text := fixed.GetShapes()[0].Text().GetParagraphs()[0].GetRuns()[0].GetText()
	if utf8.RuneCountInString(text) != maxRunChars {
		t.Errorf("run length %d runes, want %d", utf8.RuneCountInString(text), maxRunChars)
	}
	if !strings.HasSuffix(text, ellipsis) {
		t.Error("capped run should end with an ellipsis")
	}

	// Aggressive mode halves the ceiling.
	fixed, _ = fx.FixSlide(s, nil, true)
	text = fixed.GetShapes()[0].Text().GetParagraphs()[0].GetRuns()[0].GetText()
	if utf8.RuneCountInString(text) != maxRunChars/2 {
		t.Errorf("aggressive run length %d runes, want %d", utf8.RuneCountInString(text), maxRunChars/2)
	}
}

func TestFixAggressiveParagraphCap(t *testing.T) {
	fx := newTestFixer()
	s := newSlide()
	sh := s.CreateTextShape(RoleBody)
	sh.SetPosition(Inch(1), Inch(1)).SetSize(Inch(8), Inch(4))
	tb := sh.EnsureText()
	for i := 0; i < 6; i++ {
		para := tb.GetActiveParagraph()
		if i > 0 {
			para = tb.CreateParagraph()
		}
		para.CreateTextRun("line").SetFont(NewFont().SetSize(18))
	}

	fixed, _ := fx.FixSlide(s, nil, true)
	got := fixed.GetShapes()[0].Text().GetParagraphs()
	if len(got) != maxBodyParagraphs/2 {
		t.Errorf("aggressive paragraphs %d, want %d", len(got), maxBodyParagraphs/2)
	}
}

func TestFixShrinksOverflowingText(t *testing.T) {
	fx := newTestFixer()
	v := newTestValidator()
	canvas := NewBox(0, 0, 12192000, 6858000)
	rules := DefaultStyleRules()

	s := newSlide()
	title := s.CreateTextShape(RoleTitle)
	title.SetPosition(Inch(0.5), Inch(0.5)).SetSize(Inch(9), Inch(1))
	title.EnsureText().SetText("Quarterly revenue up 18%",
		NewFont().SetName("Calibri").SetSize(28).SetColor(rules.TitleColor))
	crowded := s.CreateTextShape(RoleBody)
	crowded.SetPosition(Inch(0.5), Inch(2)).SetSize(Inch(1), Inch(1))
	crowded.EnsureText().SetText(strings.Repeat("growth ", 70),
		NewFont().SetName("Calibri").SetSize(18).SetColor(rules.BodyColor))

	before, _ := v.ValidateSlide(s, canvas, rules, 0)
	if len(issuesWithCode(before, IssueTextOverflow)) == 0 {
		t.Fatal("setup should overflow")
	}

	fixed, res := fx.FixSlide(s, nil, false)
	if !containsPass(res.FixesApplied, PassOverflowShrink) {
		t.Fatalf("shrink pass not applied: %+v", res)
	}

	after, _ := v.ValidateSlide(fixed, canvas, rules, 0)
	if got := issuesWithCode(after, IssueTextOverflow); len(got) != 0 {
		t.Errorf("overflow issues remain after fix: %+v", got)
	}
}

func TestFixShiftsOverlaps(t *testing.T) {
	fx := newTestFixer()
	s := newSlide()
	a := s.CreateTextShape(RoleOther)
	a.SetPosition(Inch(1), Inch(1)).SetSize(Inch(2), Inch(2))
	b := s.CreateTextShape(RoleOther)
	b.SetPosition(Inch(1), Inch(2)).SetSize(Inch(2), Inch(2))

	fixed, res := fx.FixSlide(s, nil, false)
	if !reflect.DeepEqual(res.FixesApplied, []string{PassOverlapShift}) {
		t.Fatalf("applied passes %v, want only overlap_shift", res.FixesApplied)
	}

	na := fixed.GetShapes()[0].Bounds()
	nb := fixed.GetShapes()[1].Bounds()
	if na.Intersects(nb) {
		t.Fatalf("shapes still overlap: %+v vs %+v", na, nb)
	}
	// The later shape moves below the earlier one, leaving the gap.
	if nb.Y != na.Bottom()+overlapGap {
		t.Errorf("shifted Y %d, want %d", nb.Y, na.Bottom()+overlapGap)
	}
	if na != a.Bounds() {
		t.Error("earlier shape should not move")
	}
}

func TestFixOverlapNearBottom(t *testing.T) {
	buildSlide := func() *Slide {
		s := newSlide()
		s.CreateTextShape(RoleOther).SetPosition(Inch(1), Inch(5.5)).SetSize(Inch(2), Inch(1))
		s.CreateTextShape(RoleOther).SetPosition(Inch(1), Inch(6)).SetSize(Inch(2), Inch(1))
		return s
	}
	fx := newTestFixer()
	safe := NewBox(0, 0, 12192000, 6858000).Inset(defaultSafeMargin)

	// Conservative mode cannot move the shape without leaving the safe
	// area, so the overlap survives for reporting.
	fixed, res := fx.FixSlide(buildSlide(), nil, false)
	if containsPass(res.FixesApplied, PassOverlapShift) {
		t.Error("conservative mode should leave the unresolvable overlap")
	}
	if !fixed.GetShapes()[0].Bounds().Intersects(fixed.GetShapes()[1].Bounds()) {
		t.Error("overlap should remain in conservative mode")
	}

	// Aggressive mode shrinks the shape to fit below.
	fixed, res = fx.FixSlide(buildSlide(), nil, true)
	if !containsPass(res.FixesApplied, PassOverlapShift) {
		t.Fatalf("aggressive shift not applied: %+v", res)
	}
	na := fixed.GetShapes()[0].Bounds()
	nb := fixed.GetShapes()[1].Bounds()
	if na.Intersects(nb) {
		t.Errorf("aggressive mode left an overlap: %+v vs %+v", na, nb)
	}
	if nb.Bottom() > safe.Bottom() {
		t.Errorf("shrunk shape bottom %d beyond safe %d", nb.Bottom(), safe.Bottom())
	}
	if nb.Height < minShapeSize {
		t.Errorf("shrunk height %d below minimum %d", nb.Height, minShapeSize)
	}
}

func TestFixNormalizesFonts(t *testing.T) {
	fx := newTestFixer()
	s := newSlide()
	sh := s.CreateTextShape(RoleBody)
	sh.SetPosition(Inch(1), Inch(1)).SetSize(Inch(6), Inch(2))
	tb := sh.EnsureText()
	para := tb.GetActiveParagraph()
	para.CreateTextRun("rogue").SetFont(NewFont().SetName("Papyrus").SetSize(18))
	para.CreateTextRun("unnamed").SetFont(&Font{Size: 18, Color: ColorBlack})
	bare := para.CreateTextRun("bare")
	bare.SetFont(nil)

	fixed, res := fx.FixSlide(s, nil, false)
	if !containsPass(res.FixesApplied, PassFontNormalize) {
		t.Fatalf("font pass not applied: %+v", res)
	}
	runs := fixed.GetShapes()[0].Text().GetParagraphs()[0].GetRuns()
	for i, run := range runs {
		f := run.GetFont()
		if f == nil || f.Name != "Calibri" {
			t.Errorf("run %d font %+v, want Calibri", i, f)
		}
	}
}

func TestFixReappliesStyle(t *testing.T) {
	fx := newTestFixer()
	rules := DefaultStyleRules()
	s := newSlide()

	title := s.CreateTextShape(RoleTitle)
	title.SetPosition(Inch(1), Inch(0.5)).SetSize(Inch(8), Inch(1))
	title.EnsureText().SetText("Loud headline", NewFont().SetName("Calibri").SetSize(28).SetColor(ColorGreen))

	body := s.CreateTextShape(RoleBody)
	body.SetPosition(Inch(1), Inch(2)).SetSize(Inch(8), Inch(2))
	body.SetFill(NewFill().SetSolid(ColorGreen))
	body.EnsureText().SetText("loud body", NewFont().SetName("Calibri").SetSize(18).SetColor(ColorBlue))

	fixed, res := fx.FixSlide(s, nil, false)
	if !containsPass(res.FixesApplied, PassStyleReapply) {
		t.Fatalf("style pass not applied: %+v", res)
	}

	titleFont := fixed.GetShapes()[0].Text().GetParagraphs()[0].GetRuns()[0].GetFont()
	if titleFont.Color != rules.TitleColor {
		t.Errorf("title recolored to %s, want %s", titleFont.Color.ARGB, rules.TitleColor.ARGB)
	}
	bodyFont := fixed.GetShapes()[1].Text().GetParagraphs()[0].GetRuns()[0].GetFont()
	if bodyFont.Color != rules.BodyColor {
		t.Errorf("body recolored to %s, want %s", bodyFont.Color.ARGB, rules.BodyColor.ARGB)
	}
	// Pure green sits closest to the body gray in the default palette.
	fill := fixed.GetShapes()[1].GetFill()
	if fill.Color != NewColor("595959") {
		t.Errorf("fill snapped to %s, want 595959", fill.Color.ARGB)
	}
}

func TestFixIsIdempotent(t *testing.T) {
	fx := newTestFixer()
	s := newSlide()
	crowded := s.CreateTextShape(RoleBody)
	crowded.SetPosition(-Inch(0.5), Inch(2)).SetSize(Inch(1), Inch(1))
	crowded.EnsureText().SetText(strings.Repeat("busy ", 60),
		NewFont().SetName("Papyrus").SetSize(18).SetColor(ColorGreen))
	neighbor := s.CreateTextShape(RoleOther)
	neighbor.SetPosition(Inch(1), Inch(2.5)).SetSize(Inch(2), Inch(1))

	fixed, first := fx.FixSlide(s, nil, false)
	if len(first.FixesApplied) == 0 {
		t.Fatal("first fix should change the slide")
	}
	if len(first.FixesFailed) != 0 {
		t.Fatalf("first fix failed passes: %v", first.FixesFailed)
	}

	again, second := fx.FixSlide(fixed, nil, false)
	if len(second.FixesApplied) != 0 {
		t.Errorf("second fix applied passes %v, want none", second.FixesApplied)
	}
	if fixed.ExtractText() != again.ExtractText() {
		t.Error("second fix changed text")
	}
	for i := range fixed.GetShapes() {
		if fixed.GetShapes()[i].Bounds() != again.GetShapes()[i].Bounds() {
			t.Errorf("second fix moved shape %d", i)
		}
	}
}

func TestFixWithReportedIssues(t *testing.T) {
	// The issue list steers logging only; repairs re-derive defects
	// from the slide, so fixing with and without it must agree.
	build := func() *Slide {
		s := newSlide()
		off := s.CreateTextShape(RoleBody)
		off.SetPosition(-Inch(1), Inch(1)).SetSize(Inch(2), Inch(1))
		off.EnsureText().SetText("Escapes the canvas", NewFont().SetSize(18))
		return s
	}

	fx := newTestFixer()
	canvas := NewBox(0, 0, 12192000, 6858000)
	issues, _ := newTestValidator().ValidateSlide(build(), canvas, DefaultStyleRules(), 0)
	if len(issues) == 0 {
		t.Fatal("expected the off-canvas shape to be flagged")
	}

	withIssues, resA := fx.FixSlide(build(), issues, false)
	without, resB := fx.FixSlide(build(), nil, false)

	if !reflect.DeepEqual(resA, resB) {
		t.Errorf("results differ: %+v vs %+v", resA, resB)
	}
	for i := range withIssues.GetShapes() {
		if withIssues.GetShapes()[i].Bounds() != without.GetShapes()[i].Bounds() {
			t.Errorf("shape %d geometry differs with reported issues", i)
		}
	}
	if withIssues.ExtractText() != without.ExtractText() {
		t.Error("text differs with reported issues")
	}
}

func TestFixReportsFailedPasses(t *testing.T) {
	fx := newTestFixer()
	s := newSlide()
	tiny := s.CreateTextShape(RoleBody)
	tiny.SetPosition(Inch(1), Inch(1)).SetSize(minShapeSize, minShapeSize)
	tiny.EnsureText().SetText("hello world", NewFont().SetName("Calibri").SetSize(18).SetColor(ColorBlack))

	fixed, res := fx.FixSlide(s, nil, false)
	if !reflect.DeepEqual(res.FixesFailed, []string{PassOverflowShrink}) {
		t.Fatalf("failed passes %v, want [overflow_shrink]", res.FixesFailed)
	}
	if containsPass(res.FixesApplied, PassOverflowShrink) {
		t.Error("a failed pass must not also count as applied")
	}
	// The text survives untouched for the next, more aggressive round.
	if fixed.GetShapes()[0].PlainText() != "hello world" {
		t.Errorf("failed shrink mutated text: %q", fixed.GetShapes()[0].PlainText())
	}
}

func TestFixFullCycleClearsCriticals(t *testing.T) {
	canvas := NewBox(0, 0, 12192000, 6858000)
	rules := DefaultStyleRules()
	fx := newTestFixer()
	v := newTestValidator()

	s := newSlide()
	title := s.CreateTextShape(RoleTitle)
	title.SetPosition(Inch(0.5), Inch(0.5)).SetSize(Inch(9), Inch(1))
	title.EnsureText().SetText("Quarterly revenue up 18%",
		NewFont().SetName("Calibri").SetSize(28).SetColor(rules.TitleColor))

	crowded := s.CreateTextShape(RoleBody)
	crowded.SetPosition(Inch(0.5), Inch(2)).SetSize(Inch(1), Inch(1))
	crowded.EnsureText().SetText(strings.Repeat("growth ", 70),
		NewFont().SetName("Calibri").SetSize(18).SetColor(rules.BodyColor))

	c := s.CreateTextShape(RoleOther)
	c.SetPosition(Inch(10), Inch(2)).SetSize(Inch(2), Inch(1))
	d := s.CreateTextShape(RoleOther)
	d.SetPosition(Inch(10), Inch(2.5)).SetSize(Inch(2), Inch(1))

	rogue := s.CreateTextShape(RoleBody)
	rogue.SetPosition(Inch(4), Inch(4)).SetSize(Inch(3), Inch(1))
	rogue.EnsureText().SetText("act now", NewFont().SetName("Papyrus").SetSize(18).SetColor(ColorGreen))

	before, _ := v.ValidateSlide(s, canvas, rules, 0)
	hasCritical := false
	for _, iss := range before {
		if iss.Severity == SeverityCritical {
			hasCritical = true
		}
	}
	if !hasCritical {
		t.Fatal("setup should produce critical issues")
	}

	fixed, res := fx.FixSlide(s, nil, false)
	if len(res.FixesFailed) != 0 {
		t.Fatalf("fix failures: %v", res.FixesFailed)
	}

	after, _ := v.ValidateSlide(fixed, canvas, rules, 0)
	if len(after) != 0 {
		for _, iss := range after {
			t.Logf("remaining: %s", iss)
		}
		t.Errorf("%d issues remain after one fix round", len(after))
	}
}

package deckforge

import (
	"errors"
	"strings"
	"testing"
)

func newTestFitter() *TextFitter {
	return NewTextFitter(NewTableMeasurer(), DefaultFitterOptions())
}

// ============================================================
// Measurement
// ============================================================

func TestTableMeasurerWidths(t *testing.T) {
	m := NewTableMeasurer()
	f := NewFont().SetSize(10)

	if got := m.TextWidth("", f); got != 0 {
		t.Errorf("empty string width %d, want 0", got)
	}
	if got := m.TextWidth("abc", nil); got != 0 {
		t.Errorf("nil font width %d, want 0", got)
	}

	narrow := m.TextWidth("a", f)
	wide := m.TextWidth("漢", f)
	ambiguous := m.TextWidth("…", f)
	if !(narrow < ambiguous && ambiguous < wide) {
		t.Errorf("width ordering narrow=%d ambiguous=%d wide=%d", narrow, ambiguous, wide)
	}
	if wide != Point(10) {
		t.Errorf("wide rune at 10pt: got %d, want %d", wide, Point(10))
	}

	// Width is additive over runes.
	if got, want := m.TextWidth("aa", f), 2*narrow; absInt64(got-want) > 1 {
		t.Errorf("two narrow runes: got %d, want %d", got, want)
	}

	// Bold widens and larger sizes widen.
	bold := m.TextWidth("word", NewFont().SetSize(10).SetBold(true))
	plain := m.TextWidth("word", NewFont().SetSize(10))
	if bold <= plain {
		t.Errorf("bold width %d not above plain %d", bold, plain)
	}
	big := m.TextWidth("word", NewFont().SetSize(20))
	if big <= plain {
		t.Errorf("20pt width %d not above 10pt %d", big, plain)
	}
}

// ============================================================
// Tokenizing and Wrapping
// ============================================================

func tokenTexts(toks []styledToken) []string {
	out := make([]string, len(toks))
	for i, tk := range toks {
		out[i] = tk.text
	}
	return out
}

func TestTokenizeParagraph(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{"latin words keep leading space", "hello wide world", []string{"hello", " wide", " world"}},
		{"single word", "alone", []string{"alone"}},
		{"cjk splits per rune with kinsoku", "日本語です。", []string{"日", "本", "語", "で", "す。"}},
		{"mixed latin and cjk", "Goは速い", []string{"Go", "は", "速", "い"}},
	}
	for _, tt := range tests {
		p := NewParagraph()
		p.CreateTextRun(tt.text)
		got := tokenTexts(tokenizeParagraph(p))
		if strings.Join(got, "|") != strings.Join(tt.want, "|") {
			t.Errorf("%s: got %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestWrapParagraphGreedy(t *testing.T) {
	tf := newTestFitter()
	p := NewParagraph()
	p.CreateTextRun("aaaa bbbb cccc").SetFont(NewFont().SetSize(10))

	// Room for roughly one token per line: "aaaa" is ~20.8pt wide.
	availW := Point(25)
	lines, widest, ok := tf.wrapParagraph(p, 1.0, availW, true)
	if !ok {
		t.Fatal("tokens should individually fit")
	}
	if len(lines) != 3 {
		t.Fatalf("line count %d, want 3", len(lines))
	}
	if widest > availW {
		t.Errorf("widest line %d exceeds available %d", widest, availW)
	}

	// Wide room keeps everything on one line.
	lines, _, ok = tf.wrapParagraph(p, 1.0, Inch(5), true)
	if !ok || len(lines) != 1 {
		t.Errorf("wide wrap: ok=%v lines=%d, want 1 line", ok, len(lines))
	}

	// A single token wider than the box reports failure.
	long := NewParagraph()
	long.CreateTextRun("unbreakabletoken").SetFont(NewFont().SetSize(10))
	_, _, ok = tf.wrapParagraph(long, 1.0, Point(10), true)
	if ok {
		t.Error("oversized token should report ok=false")
	}
}

func TestWrapParagraphNoWrap(t *testing.T) {
	tf := newTestFitter()
	p := NewParagraph()
	p.CreateTextRun("short words here").SetFont(NewFont().SetSize(10))

	lines, _, ok := tf.wrapParagraph(p, 1.0, Point(20), false)
	if len(lines) != 1 {
		t.Fatalf("no-wrap produced %d lines", len(lines))
	}
	if ok {
		t.Error("overflow with wrapping off should report ok=false")
	}
}

// ============================================================
// Shape Fitting
// ============================================================

func TestFitShapeAlreadyFits(t *testing.T) {
	tf := newTestFitter()
	sh := NewShape(RoleBody)
	sh.SetPosition(Inch(1), Inch(1)).SetSize(Inch(8), Inch(2))
	sh.EnsureText().SetText("Fits without help", NewFont().SetSize(18))

	res, err := tf.FitShape(sh)
	if err != nil {
		t.Fatalf("FitShape: %v", err)
	}
	if res.Shrunk || res.Truncated {
		t.Errorf("no-op fit reported shrunk=%v truncated=%v", res.Shrunk, res.Truncated)
	}
	if res.FontSize != 18 {
		t.Errorf("font size changed to %v", res.FontSize)
	}
	if res.Lines != 1 {
		t.Errorf("lines %d, want 1", res.Lines)
	}
	if sh.PlainText() != "Fits without help" {
		t.Errorf("text mutated: %q", sh.PlainText())
	}
}

func TestFitShapeShrinks(t *testing.T) {
	tf := newTestFitter()
	sh := NewShape(RoleBody)
	sh.SetPosition(0, 0).SetSize(Inch(4), Inch(0.8))
	sh.EnsureText().SetText(
		"Expansion plan covering five European markets with phased rollout",
		NewFont().SetSize(18),
	)

	res, err := tf.FitShape(sh)
	if err != nil {
		t.Fatalf("FitShape: %v", err)
	}
	if !res.Shrunk {
		t.Error("expected the text to shrink")
	}
	if res.Truncated {
		t.Error("shrinking should have been enough, content was dropped")
	}
	if res.FontSize >= 18 || res.FontSize < 10-1e-9 {
		t.Errorf("fitted size %v outside [10, 18)", res.FontSize)
	}
	if !strings.Contains(sh.PlainText(), "rollout") {
		t.Errorf("content lost: %q", sh.PlainText())
	}

	_, availH := availableBox(sh)
	if res.UsedHeight > availH {
		t.Errorf("used height %d exceeds available %d", res.UsedHeight, availH)
	}
}

func TestFitShapeOffGridMinimum(t *testing.T) {
	// 28.3pt is not a 0.5pt multiple, so the search grid bottoms out at
	// 10.3pt. The box height is chosen to hold fifty 10pt lines but not
	// fifty 10.3pt lines; the text must land on the 10pt floor intact
	// instead of being truncated.
	tf := newTestFitter()
	sh := NewShape(RoleBody)
	sh.SetPosition(0, 0).SetSize(Point(50), Point(605))
	tb := sh.EnsureText()
	tb.SetInsets(0, 0, 0, 0)
	font := NewFont().SetSize(28.3)
	for i := 0; i < 50; i++ {
		para := tb.GetActiveParagraph()
		if i > 0 {
			para = tb.CreateParagraph()
		}
		para.CreateTextRun("x").SetFont(font.Clone())
	}

	res, err := tf.FitShape(sh)
	if err != nil {
		t.Fatalf("FitShape: %v", err)
	}
	if res.Truncated {
		t.Fatal("content dropped even though it fits at the minimum size")
	}
	if !res.Shrunk {
		t.Error("expected the text to shrink")
	}
	if res.FontSize != 10 {
		t.Errorf("fitted size %v, want the 10pt floor", res.FontSize)
	}
	if got := len(tb.GetParagraphs()); got != 50 {
		t.Errorf("paragraphs after fit %d, want 50", got)
	}
	_, availH := availableBox(sh)
	if res.UsedHeight > availH {
		t.Errorf("used height %d exceeds available %d", res.UsedHeight, availH)
	}
}

func TestFitShapeTruncates(t *testing.T) {
	tf := newTestFitter()
	sh := NewShape(RoleBody)
	sh.SetPosition(0, 0).SetSize(Inch(1), Inch(1))
	sh.EnsureText().SetText(strings.Repeat("growth ", 70), NewFont().SetSize(18))

	res, err := tf.FitShape(sh)
	if err != nil {
		t.Fatalf("FitShape: %v", err)
	}
	if !res.Truncated {
		t.Fatal("500 characters in a one-inch box must truncate")
	}
	if res.FontSize < 10-1e-9 || res.FontSize > 18 {
		t.Errorf("fitted size %v outside [10, 18]", res.FontSize)
	}
	if !strings.HasSuffix(sh.PlainText(), ellipsis) {
		t.Errorf("truncated text lacks ellipsis: %q", sh.PlainText())
	}
	_, availH := availableBox(sh)
	if res.UsedHeight > availH {
		t.Errorf("used height %d exceeds available %d", res.UsedHeight, availH)
	}
}

func TestFitShapeIdempotent(t *testing.T) {
	tf := newTestFitter()
	sh := NewShape(RoleBody)
	sh.SetPosition(0, 0).SetSize(Inch(1), Inch(1))
	sh.EnsureText().SetText(strings.Repeat("steady ", 50), NewFont().SetSize(18))

	if _, err := tf.FitShape(sh); err != nil {
		t.Fatalf("first FitShape: %v", err)
	}
	before := sh.PlainText()
	sizeBefore := sh.Text().MaxFontSize()

	res, err := tf.FitShape(sh)
	if err != nil {
		t.Fatalf("second FitShape: %v", err)
	}
	if res.Shrunk || res.Truncated {
		t.Errorf("second fit changed the shape: shrunk=%v truncated=%v", res.Shrunk, res.Truncated)
	}
	if sh.PlainText() != before {
		t.Errorf("second fit mutated text: %q -> %q", before, sh.PlainText())
	}
	if sh.Text().MaxFontSize() != sizeBefore {
		t.Errorf("second fit mutated size: %v -> %v", sizeBefore, sh.Text().MaxFontSize())
	}
}

func TestFitShapeCJKTruncation(t *testing.T) {
	tf := newTestFitter()
	sh := NewShape(RoleBody)
	sh.SetPosition(0, 0).SetSize(Inch(1.2), Inch(0.8))
	sh.EnsureText().SetText(strings.Repeat("市場拡大戦略", 30), NewFont().SetSize(18))

	res, err := tf.FitShape(sh)
	if err != nil {
		t.Fatalf("FitShape: %v", err)
	}
	if !res.Truncated {
		t.Fatal("long CJK text in a small box must truncate")
	}
	if !strings.HasSuffix(sh.PlainText(), ellipsis) {
		t.Errorf("missing ellipsis: %q", sh.PlainText())
	}
}

func TestFitShapeErrors(t *testing.T) {
	tf := newTestFitter()

	bare := NewShape(RoleBody)
	bare.SetSize(Inch(2), Inch(2))
	if _, err := tf.FitShape(bare); !errors.Is(err, ErrNoText) {
		t.Errorf("shape without text: err = %v, want ErrNoText", err)
	}

	zero := NewShape(RoleBody)
	zero.EnsureText().SetText("text", nil)
	if _, err := tf.FitShape(zero); !errors.Is(err, ErrBoxTooSmall) {
		t.Errorf("zero-size shape: err = %v, want ErrBoxTooSmall", err)
	}

	// Insets eat nearly the whole quarter-inch box; not even the
	// truncation marker fits on a line.
	tiny := NewShape(RoleBody)
	tiny.SetPosition(Inch(1), Inch(1)).SetSize(228600, 228600)
	tiny.EnsureText().SetText("hello world", NewFont().SetSize(18))
	if _, err := tf.FitShape(tiny); !errors.Is(err, ErrBoxTooSmall) {
		t.Errorf("tiny box: err = %v, want ErrBoxTooSmall", err)
	}
}

func TestFitShapeEmptyText(t *testing.T) {
	tf := newTestFitter()
	sh := NewShape(RoleBody)
	sh.SetSize(Inch(2), Inch(1))
	sh.EnsureText()

	res, err := tf.FitShape(sh)
	if err != nil {
		t.Fatalf("FitShape on empty body: %v", err)
	}
	if res.Shrunk || res.Truncated || res.Lines != 0 {
		t.Errorf("empty body result %+v", res)
	}
}

func TestFitSlide(t *testing.T) {
	tf := newTestFitter()
	s := newSlide()

	fine := s.CreateTextShape(RoleTitle)
	fine.SetPosition(0, 0).SetSize(Inch(8), Inch(1))
	fine.EnsureText().SetText("Short headline", NewFont().SetSize(20))

	crowded := s.CreateTextShape(RoleBody)
	crowded.SetPosition(0, Inch(1)).SetSize(Inch(1), Inch(1))
	crowded.EnsureText().SetText(strings.Repeat("dense ", 80), NewFont().SetSize(18))

	s.CreateChartShape(&ChartSpec{Kind: ChartPie}).SetSize(Inch(3), Inch(3))

	results, err := tf.FitSlide(s)
	if err != nil {
		t.Fatalf("FitSlide: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("results length %d, want 3", len(results))
	}
	if results[0].Shrunk || results[0].Truncated {
		t.Error("headline should fit untouched")
	}
	if !results[1].Truncated {
		t.Error("crowded body should truncate")
	}
	if results[2] != (FitResult{}) {
		t.Errorf("chart shape result %+v, want zero", results[2])
	}
}

func TestTruncateKeepsSentenceBoundary(t *testing.T) {
	tf := newTestFitter()
	sh := NewShape(RoleBody)
	sh.SetPosition(0, 0).SetSize(Inch(2), Inch(0.5))
	sh.EnsureText().SetText(
		"Alpha beta gamma delta. Epsilon zeta eta theta. Iota kappa lambda mu nu xi.",
		NewFont().SetSize(18),
	)

	res, err := tf.FitShape(sh)
	if err != nil {
		t.Fatalf("FitShape: %v", err)
	}
	if !res.Truncated {
		t.Fatal("expected truncation")
	}
	got := sh.PlainText()
	if !strings.HasSuffix(got, ellipsis) {
		t.Fatalf("missing ellipsis: %q", got)
	}
	if !strings.HasPrefix(got, "Alpha beta gamma delta.") {
		t.Errorf("leading sentence lost: %q", got)
	}
}

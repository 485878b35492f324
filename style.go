package deckforge

import (
	"math"
	"strings"
)

// Color represents an ARGB color.
type Color struct {
	ARGB string // 8-character hex string, e.g., "FF000000" for black
}

// Predefined colors.
var (
	ColorBlack  = Color{ARGB: "FF000000"}
	ColorWhite  = Color{ARGB: "FFFFFFFF"}
	ColorRed    = Color{ARGB: "FFFF0000"}
	ColorGreen  = Color{ARGB: "FF00FF00"}
	ColorBlue   = Color{ARGB: "FF0000FF"}
	ColorYellow = Color{ARGB: "FFFFFF00"}
)

// NewColor creates a new Color from an ARGB hex string.
// Accepts 6-char RGB (e.g. "FF0000") or 8-char ARGB (e.g. "FFFF0000").
// A leading "#" is stripped automatically.
func NewColor(argb string) Color {
	argb = strings.TrimPrefix(argb, "#")
	if len(argb) == 6 {
		argb = "FF" + argb
	}
	argb = strings.ToUpper(argb)
	if !isValidARGB(argb) {
		return Color{ARGB: "FF000000"} // fallback to black
	}
	return Color{ARGB: argb}
}

// isValidARGB checks that s is exactly 8 hex characters.
func isValidARGB(s string) bool {
	if len(s) != 8 {
		return false
	}
	for _, c := range s {
		if !((c >= '0' && c <= '9') || (c >= 'A' && c <= 'F')) {
			return false
		}
	}
	return true
}

// GetRed returns the red component (0-255).
func (c Color) GetRed() uint8 {
	return parseHexByte(c.ARGB, 2)
}

// GetGreen returns the green component (0-255).
func (c Color) GetGreen() uint8 {
	return parseHexByte(c.ARGB, 4)
}

// GetBlue returns the blue component (0-255).
func (c Color) GetBlue() uint8 {
	return parseHexByte(c.ARGB, 6)
}

// GetAlpha returns the alpha component (0-255).
func (c Color) GetAlpha() uint8 {
	return parseHexByte(c.ARGB, 0)
}

// Luminance returns the relative luminance of the color in [0, 1]
// per ITU-R BT.709 coefficients.
func (c Color) Luminance() float64 {
	r := float64(c.GetRed()) / 255
	g := float64(c.GetGreen()) / 255
	b := float64(c.GetBlue()) / 255
	return 0.2126*r + 0.7152*g + 0.0722*b
}

// ContrastRatio returns the luminance contrast between two colors,
// always >= 1. Identical colors yield 1.
func ContrastRatio(a, b Color) float64 {
	la := a.Luminance() + 0.05
	lb := b.Luminance() + 0.05
	return math.Max(la, lb) / math.Min(la, lb)
}

// parseHexByte parses two hex characters at offset into a uint8.
// Returns 0 on any error (out of range, invalid chars).
func parseHexByte(s string, offset int) uint8 {
	if offset+2 > len(s) {
		return 0
	}
	h := hexVal(s[offset])
	l := hexVal(s[offset+1])
	if h < 0 || l < 0 {
		return 0
	}
	return uint8(h<<4 | l)
}

func hexVal(c byte) int {
	switch {
	case c >= '0' && c <= '9':
		return int(c - '0')
	case c >= 'A' && c <= 'F':
		return int(c-'A') + 10
	case c >= 'a' && c <= 'f':
		return int(c-'a') + 10
	default:
		return -1
	}
}

// Font represents text font properties. Size is in points; fractional
// sizes are meaningful because fitting shrinks in half-point steps.
type Font struct {
	Name   string
	Size   float64 // in points
	Bold   bool
	Italic bool
	Color  Color
}

// NewFont creates a new Font with defaults.
func NewFont() *Font {
	return &Font{
		Name:  "Calibri",
		Size:  18,
		Color: ColorBlack,
	}
}

// SetBold sets the bold property and returns the font for chaining.
func (f *Font) SetBold(bold bool) *Font {
	f.Bold = bold
	return f
}

// SetItalic sets the italic property.
func (f *Font) SetItalic(italic bool) *Font {
	f.Italic = italic
	return f
}

// SetSize sets the font size in points (clamped to 1–4000).
func (f *Font) SetSize(size float64) *Font {
	if size < 1 {
		size = 1
	}
	if size > 4000 {
		size = 4000
	}
	f.Size = size
	return f
}

// SetColor sets the font color.
func (f *Font) SetColor(color Color) *Font {
	f.Color = color
	return f
}

// SetName sets the font name.
func (f *Font) SetName(name string) *Font {
	f.Name = name
	return f
}

// Clone returns a copy of the font.
func (f *Font) Clone() *Font {
	cp := *f
	return &cp
}

// Alignment represents text alignment within a shape.
type Alignment struct {
	Horizontal   HorizontalAlignment
	Vertical     VerticalAlignment
	MarginLeft   int64 // in EMU
	MarginRight  int64
	MarginTop    int64
	MarginBottom int64
}

// HorizontalAlignment represents horizontal text alignment.
type HorizontalAlignment string

const (
	HorizontalLeft    HorizontalAlignment = "l"
	HorizontalCenter  HorizontalAlignment = "ctr"
	HorizontalRight   HorizontalAlignment = "r"
	HorizontalJustify HorizontalAlignment = "just"
)

// VerticalAlignment represents vertical text alignment.
type VerticalAlignment string

const (
	VerticalTop    VerticalAlignment = "t"
	VerticalMiddle VerticalAlignment = "ctr"
	VerticalBottom VerticalAlignment = "b"
)

// NewAlignment creates a new Alignment with defaults.
func NewAlignment() *Alignment {
	return &Alignment{
		Horizontal: HorizontalLeft,
		Vertical:   VerticalTop,
	}
}

// SetHorizontal sets horizontal alignment.
func (a *Alignment) SetHorizontal(h HorizontalAlignment) *Alignment {
	a.Horizontal = h
	return a
}

// SetVertical sets vertical alignment.
func (a *Alignment) SetVertical(v VerticalAlignment) *Alignment {
	a.Vertical = v
	return a
}

// Fill represents a shape fill.
type Fill struct {
	Type     FillType
	Color    Color
	EndColor Color // for gradient fills
	Rotation int   // gradient rotation in degrees
}

// FillType represents the type of fill.
type FillType int

const (
	FillNone FillType = iota
	FillSolid
	FillGradientLinear
)

// NewFill creates a new Fill with no fill.
func NewFill() *Fill {
	return &Fill{Type: FillNone}
}

// SetSolid sets a solid fill.
func (f *Fill) SetSolid(color Color) *Fill {
	f.Type = FillSolid
	f.Color = color
	return f
}

// SetGradientLinear sets a linear gradient fill. Rotation is normalized to 0–359.
func (f *Fill) SetGradientLinear(startColor, endColor Color, rotation int) *Fill {
	f.Type = FillGradientLinear
	f.Color = startColor
	f.EndColor = endColor
	f.Rotation = ((rotation % 360) + 360) % 360
	return f
}

// StyleRules is the deck-wide style guide that validation enforces.
// Empty slices disable the corresponding check.
type StyleRules struct {
	// AllowedFonts lists permitted font family names. The first entry
	// is the template default used when normalizing rogue fonts.
	AllowedFonts []string
	// Palette lists permitted text and fill colors.
	Palette []Color
	// TitleColor and BodyColor are the canonical run colors reapplied
	// by style fixes.
	TitleColor Color
	BodyColor  Color
	// MinFontSize is the smallest legible size in points. Fitting
	// never shrinks below it and validation flags anything smaller.
	MinFontSize float64
	// MaxFontSize caps display sizes in points.
	MaxFontSize float64
	// MaxFontVariants caps the distinct (family, size) pairs allowed
	// on one slide. Zero disables the check.
	MaxFontVariants int
	// MinContrast is the minimum luminance contrast between text and
	// the fill behind it. Zero disables the check.
	MinContrast float64
}

// DefaultStyleRules returns the style guide used when a deck does not
// carry its own.
func DefaultStyleRules() StyleRules {
	return StyleRules{
		AllowedFonts: []string{"Calibri", "Arial", "Yu Gothic", "Meiryo"},
		Palette: []Color{
			ColorBlack,
			ColorWhite,
			NewColor("1F4E79"), // corporate blue
			NewColor("C00000"), // accent red
			NewColor("595959"), // body gray
		},
		TitleColor:      NewColor("1F4E79"),
		BodyColor:       NewColor("595959"),
		MinFontSize:     10,
		MaxFontSize:     54,
		MaxFontVariants: 4,
		MinContrast:     1.5,
	}
}

// DefaultFont returns the template default font family.
func (r StyleRules) DefaultFont() string {
	if len(r.AllowedFonts) > 0 {
		return r.AllowedFonts[0]
	}
	return "Calibri"
}

// FontAllowed reports whether the font family is in the allowed list.
// An empty list allows everything.
func (r StyleRules) FontAllowed(name string) bool {
	if len(r.AllowedFonts) == 0 {
		return true
	}
	for _, f := range r.AllowedFonts {
		if strings.EqualFold(f, name) {
			return true
		}
	}
	return false
}

// ColorAllowed reports whether the color is in the palette.
// An empty palette allows everything.
func (r StyleRules) ColorAllowed(c Color) bool {
	if len(r.Palette) == 0 {
		return true
	}
	for _, p := range r.Palette {
		if p.ARGB == c.ARGB {
			return true
		}
	}
	return false
}

// NearestPaletteColor returns the palette entry closest to c by RGB
// distance. Returns c unchanged when the palette is empty.
func (r StyleRules) NearestPaletteColor(c Color) Color {
	if len(r.Palette) == 0 {
		return c
	}
	best := r.Palette[0]
	bestDist := colorDistance(c, best)
	for _, p := range r.Palette[1:] {
		if d := colorDistance(c, p); d < bestDist {
			best, bestDist = p, d
		}
	}
	return best
}

func colorDistance(a, b Color) int {
	dr := int(a.GetRed()) - int(b.GetRed())
	dg := int(a.GetGreen()) - int(b.GetGreen())
	db := int(a.GetBlue()) - int(b.GetBlue())
	return dr*dr + dg*dg + db*db
}

package deckforge

import "math"

// EMU (English Metric Units) conversion helpers.
// 1 inch = 914400 EMU, 1 point = 12700 EMU, 1 cm = 360000 EMU.

const (
	emuPerInch       = 914400
	emuPerPoint      = 12700
	emuPerCentimeter = 360000
	emuPerMillimeter = 36000
	// maxEMU is the maximum safe EMU value to prevent overflow.
	maxEMU = math.MaxInt64 / 2
)

// Inch converts inches to EMU. Clamps to safe range.
func Inch(n float64) int64 {
	return clampEMU(n * emuPerInch)
}

// Point converts points to EMU.
func Point(n float64) int64 {
	return clampEMU(n * emuPerPoint)
}

// Centimeter converts centimeters to EMU.
func Centimeter(n float64) int64 {
	return clampEMU(n * emuPerCentimeter)
}

// Millimeter converts millimeters to EMU.
func Millimeter(n float64) int64 {
	return clampEMU(n * emuPerMillimeter)
}

// EMUToInch converts EMU to inches.
func EMUToInch(emu int64) float64 {
	return float64(emu) / emuPerInch
}

// EMUToPoint converts EMU to points.
func EMUToPoint(emu int64) float64 {
	return float64(emu) / emuPerPoint
}

// EMUToCentimeter converts EMU to centimeters.
func EMUToCentimeter(emu int64) float64 {
	return float64(emu) / emuPerCentimeter
}

// EMUToMillimeter converts EMU to millimeters.
func EMUToMillimeter(emu int64) float64 {
	return float64(emu) / emuPerMillimeter
}

// clampEMU converts a float64 to int64, clamping to prevent overflow.
func clampEMU(v float64) int64 {
	if v > float64(maxEMU) {
		return maxEMU
	}
	if v < -float64(maxEMU) {
		return -maxEMU
	}
	return int64(v)
}

// Box is an axis-aligned rectangle in EMU. Geometry checks treat a box
// with non-positive width or height as empty.
type Box struct {
	X      int64
	Y      int64
	Width  int64
	Height int64
}

// NewBox returns a Box with the given origin and size in EMU.
func NewBox(x, y, width, height int64) Box {
	return Box{X: x, Y: y, Width: width, Height: height}
}

// Right returns the X coordinate of the right edge.
func (b Box) Right() int64 { return b.X + b.Width }

// Bottom returns the Y coordinate of the bottom edge.
func (b Box) Bottom() int64 { return b.Y + b.Height }

// Empty reports whether the box has no area.
func (b Box) Empty() bool { return b.Width <= 0 || b.Height <= 0 }

// Area returns the box area in square EMU.
func (b Box) Area() int64 {
	if b.Empty() {
		return 0
	}
	return b.Width * b.Height
}

// Intersects reports whether b and other share any interior area.
// Edge-touching boxes do not intersect.
func (b Box) Intersects(other Box) bool {
	if b.Empty() || other.Empty() {
		return false
	}
	return b.X < other.Right() && other.X < b.Right() &&
		b.Y < other.Bottom() && other.Y < b.Bottom()
}

// Intersection returns the overlapping region of b and other.
// Returns the zero Box when they do not intersect.
func (b Box) Intersection(other Box) Box {
	if !b.Intersects(other) {
		return Box{}
	}
	x := max64(b.X, other.X)
	y := max64(b.Y, other.Y)
	return Box{
		X:      x,
		Y:      y,
		Width:  min64(b.Right(), other.Right()) - x,
		Height: min64(b.Bottom(), other.Bottom()) - y,
	}
}

// OverlapRatio returns the intersection area divided by the smaller
// box's area, in [0, 1]. Symmetric in its arguments.
func (b Box) OverlapRatio(other Box) float64 {
	inter := b.Intersection(other).Area()
	if inter == 0 {
		return 0
	}
	smaller := min64(b.Area(), other.Area())
	if smaller == 0 {
		return 0
	}
	return float64(inter) / float64(smaller)
}

// ContainedIn reports whether b lies entirely within outer.
func (b Box) ContainedIn(outer Box) bool {
	return b.X >= outer.X && b.Y >= outer.Y &&
		b.Right() <= outer.Right() && b.Bottom() <= outer.Bottom()
}

// Inset returns the box shrunk by margin on all four sides. The result
// may be empty when the margin exceeds half the box size.
func (b Box) Inset(margin int64) Box {
	return Box{
		X:      b.X + margin,
		Y:      b.Y + margin,
		Width:  b.Width - 2*margin,
		Height: b.Height - 2*margin,
	}
}

func min64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}

func max64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}

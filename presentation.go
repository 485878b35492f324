// Package deckforge builds and refines slide decks through an iterative
// generate, validate, fix, and score loop.
//
// A deck is modeled as a Presentation of Slides holding rectangular
// Shapes in EMU coordinates. The pipeline fits text into shape bounds,
// validates layout geometry and style compliance, repairs what it can,
// evaluates the structural quality of the storyline (MECE, narrative
// flow, pyramid principle), and iterates until the composite quality
// score reaches its target or the iteration budget runs out.
//
// See the Version variable for the current library version.
package deckforge

import (
	"errors"
	"time"
)

// Presentation represents an in-memory slide deck.
type Presentation struct {
	properties *DocumentProperties
	slides     []*Slide
	layout     *DocumentLayout
	styleRules StyleRules
}

// New creates a new empty Presentation with a 16:9 layout and the
// default style rules.
func New() *Presentation {
	return &Presentation{
		properties: NewDocumentProperties(),
		slides:     make([]*Slide, 0),
		layout:     NewDocumentLayout(),
		styleRules: DefaultStyleRules(),
	}
}

// GetDocumentProperties returns the document properties.
func (p *Presentation) GetDocumentProperties() *DocumentProperties {
	return p.properties
}

// SetDocumentProperties sets the document properties.
func (p *Presentation) SetDocumentProperties(props *DocumentProperties) {
	p.properties = props
}

// GetLayout returns the document layout.
func (p *Presentation) GetLayout() *DocumentLayout {
	return p.layout
}

// SetLayout sets the document layout.
func (p *Presentation) SetLayout(layout *DocumentLayout) {
	p.layout = layout
}

// Canvas returns the slide canvas as a Box anchored at the origin.
func (p *Presentation) Canvas() Box {
	return Box{X: 0, Y: 0, Width: p.layout.CX, Height: p.layout.CY}
}

// GetStyleRules returns the deck style guide.
func (p *Presentation) GetStyleRules() StyleRules {
	return p.styleRules
}

// SetStyleRules sets the deck style guide.
func (p *Presentation) SetStyleRules(rules StyleRules) {
	p.styleRules = rules
}

// CreateSlide creates a new slide and appends it to the presentation.
func (p *Presentation) CreateSlide() *Slide {
	slide := newSlide()
	p.slides = append(p.slides, slide)
	return slide
}

// AddSlide adds an existing slide to the presentation.
func (p *Presentation) AddSlide(slide *Slide) *Slide {
	p.slides = append(p.slides, slide)
	return slide
}

// GetSlide returns a slide by index.
func (p *Presentation) GetSlide(index int) (*Slide, error) {
	if index < 0 || index >= len(p.slides) {
		return nil, errors.New("slide index out of range")
	}
	return p.slides[index], nil
}

// GetAllSlides returns all slides in deck order.
func (p *Presentation) GetAllSlides() []*Slide {
	return p.slides
}

// GetSlideCount returns the number of slides.
func (p *Presentation) GetSlideCount() int {
	return len(p.slides)
}

// RemoveSlideByIndex removes a slide by index.
func (p *Presentation) RemoveSlideByIndex(index int) error {
	if index < 0 || index >= len(p.slides) {
		return errors.New("slide index out of range")
	}
	p.slides = append(p.slides[:index], p.slides[index+1:]...)
	return nil
}

// ReplaceSlide swaps the slide at index for the given one.
func (p *Presentation) ReplaceSlide(index int, slide *Slide) error {
	if slide == nil {
		return errors.New("slide must not be nil")
	}
	if index < 0 || index >= len(p.slides) {
		return errors.New("slide index out of range")
	}
	p.slides[index] = slide
	return nil
}

// Headlines returns the title text of every slide in deck order. Slides
// without a title shape contribute an empty string.
func (p *Presentation) Headlines() []string {
	out := make([]string, len(p.slides))
	for i, s := range p.slides {
		out[i] = s.Headline()
	}
	return out
}

// Clone returns a deep copy of the presentation. Mutating the copy
// never touches the original.
func (p *Presentation) Clone() *Presentation {
	cp := &Presentation{
		properties: p.properties.clone(),
		slides:     make([]*Slide, len(p.slides)),
		layout:     &DocumentLayout{CX: p.layout.CX, CY: p.layout.CY, Name: p.layout.Name},
		styleRules: p.styleRules.clone(),
	}
	for i, s := range p.slides {
		cp.slides[i] = s.Clone()
	}
	return cp
}

func (r StyleRules) clone() StyleRules {
	cp := r
	cp.AllowedFonts = append([]string(nil), r.AllowedFonts...)
	cp.Palette = append([]Color(nil), r.Palette...)
	return cp
}

// DocumentProperties holds standard and custom document properties.
type DocumentProperties struct {
	Creator        string
	LastModifiedBy string
	Created        time.Time
	Modified       time.Time
	Title          string
	Description    string
	Subject        string
	Keywords       string
	Company        string
	Status         string
	Revision       string
	customProps    map[string]*CustomProperty
}

// CustomProperty represents a custom document property.
type CustomProperty struct {
	Name  string
	Value interface{}
	Type  PropertyType
}

// PropertyType represents the type of a custom property.
type PropertyType int

const (
	PropertyTypeString PropertyType = iota
	PropertyTypeBoolean
	PropertyTypeInteger
	PropertyTypeFloat
	PropertyTypeDate
	PropertyTypeUnknown
)

// NewDocumentProperties creates new document properties with defaults.
func NewDocumentProperties() *DocumentProperties {
	now := time.Now()
	return &DocumentProperties{
		Creator:        "deckforge",
		LastModifiedBy: "deckforge",
		Created:        now,
		Modified:       now,
		customProps:    make(map[string]*CustomProperty),
	}
}

func (dp *DocumentProperties) clone() *DocumentProperties {
	cp := *dp
	cp.customProps = make(map[string]*CustomProperty, len(dp.customProps))
	for k, v := range dp.customProps {
		prop := *v
		cp.customProps[k] = &prop
	}
	return &cp
}

// SetCustomProperty sets a custom property.
func (dp *DocumentProperties) SetCustomProperty(name string, value interface{}, propType PropertyType) {
	dp.customProps[name] = &CustomProperty{
		Name:  name,
		Value: value,
		Type:  propType,
	}
}

// IsCustomPropertySet checks if a custom property exists.
func (dp *DocumentProperties) IsCustomPropertySet(name string) bool {
	_, ok := dp.customProps[name]
	return ok
}

// GetCustomProperties returns all custom property names.
func (dp *DocumentProperties) GetCustomProperties() []string {
	names := make([]string, 0, len(dp.customProps))
	for name := range dp.customProps {
		names = append(names, name)
	}
	return names
}

// GetCustomPropertyValue returns the value of a custom property.
func (dp *DocumentProperties) GetCustomPropertyValue(name string) interface{} {
	if prop, ok := dp.customProps[name]; ok {
		return prop.Value
	}
	return nil
}

// GetCustomPropertyType returns the type of a custom property.
func (dp *DocumentProperties) GetCustomPropertyType(name string) PropertyType {
	if prop, ok := dp.customProps[name]; ok {
		return prop.Type
	}
	return PropertyTypeUnknown
}

// DocumentLayout represents the slide dimensions.
type DocumentLayout struct {
	CX   int64 // width in EMU (English Metric Units)
	CY   int64 // height in EMU
	Name string
}

// Standard layout constants (in EMU: 1 inch = 914400 EMU).
const (
	LayoutScreen4x3   = "screen4x3"
	LayoutScreen16x9  = "screen16x9"
	LayoutScreen16x10 = "screen16x10"
	LayoutA4          = "A4"
	LayoutCustom      = "custom"
)

// NewDocumentLayout creates a default 16:9 layout.
func NewDocumentLayout() *DocumentLayout {
	return &DocumentLayout{
		CX:   12192000, // 13.33 inches
		CY:   6858000,  // 7.5 inches
		Name: LayoutScreen16x9,
	}
}

// SetLayout sets a predefined layout.
func (dl *DocumentLayout) SetLayout(name string) {
	dl.Name = name
	switch name {
	case LayoutScreen4x3:
		dl.CX = 9144000
		dl.CY = 6858000
	case LayoutScreen16x9:
		dl.CX = 12192000
		dl.CY = 6858000
	case LayoutScreen16x10:
		dl.CX = 10972800
		dl.CY = 6858000
	case LayoutA4:
		dl.CX = 9906000
		dl.CY = 6858000
	}
}

// SetCustomLayout sets custom dimensions in EMU. Both values must be positive.
func (dl *DocumentLayout) SetCustomLayout(cx, cy int64) {
	if cx <= 0 {
		cx = 12192000
	}
	if cy <= 0 {
		cy = 6858000
	}
	dl.CX = cx
	dl.CY = cy
	dl.Name = LayoutCustom
}

package deckforge

import (
	"errors"
	"fmt"
	"strings"
)

// GenerationRequest describes the deck a caller wants built.
type GenerationRequest struct {
	// Topic is the subject of the deck. Required.
	Topic string `yaml:"topic"`
	// Audience describes who the deck is for, e.g. "executive board".
	Audience string `yaml:"audience"`
	// Locale is a BCP 47 tag selecting the analysis lexicon ("en", "ja").
	// Empty means "en".
	Locale string `yaml:"locale"`
	// SlideCount hints how many content slides to produce. Zero lets
	// the generator decide.
	SlideCount int `yaml:"slide_count"`
}

// Validate checks the request for usability.
func (r GenerationRequest) Validate() error {
	if strings.TrimSpace(r.Topic) == "" {
		return errors.New("generation request: topic is required")
	}
	if r.SlideCount < 0 {
		return errors.New("generation request: slide count must not be negative")
	}
	return nil
}

// DeckSpec is the content plan for a whole deck before any layout.
type DeckSpec struct {
	// Title becomes the deck title and the title slide headline.
	Title string `yaml:"title"`
	// Locale is the BCP 47 tag the content is written in.
	Locale string `yaml:"locale"`
	// Slides holds the per-slide content plans in deck order.
	Slides []SlideSpec `yaml:"slides"`
}

// SlideSpec is the content plan for one slide.
type SlideSpec struct {
	// Headline is the slide's message line.
	Headline string `yaml:"headline"`
	// Bullets are the supporting statements, one paragraph each.
	Bullets []string `yaml:"bullets"`
	// Notes are speaker notes attached verbatim to the slide.
	Notes string `yaml:"notes"`
	// Chart, when non-nil, places a chart on the slide.
	Chart *ChartSpec `yaml:"chart"`
	// ImageRef, when non-empty, places an image placeholder that the
	// output backend resolves.
	ImageRef string `yaml:"image_ref"`
}

// Text returns the headline and bullets as one newline-joined block,
// the form the analytical checks tokenize.
func (s SlideSpec) Text() string {
	if len(s.Bullets) == 0 {
		return s.Headline
	}
	return s.Headline + "\n" + strings.Join(s.Bullets, "\n")
}

// Validate checks the deck spec for shape problems that would make
// layout meaningless.
func (d DeckSpec) Validate() error {
	if strings.TrimSpace(d.Title) == "" {
		return errors.New("deck spec: title is required")
	}
	if len(d.Slides) == 0 {
		return errors.New("deck spec: at least one slide is required")
	}
	for i, s := range d.Slides {
		if strings.TrimSpace(s.Headline) == "" {
			return &SlideSpecError{Index: i, Reason: "headline is required"}
		}
	}
	return nil
}

// SlideSpecError reports a defect in one slide of a DeckSpec.
type SlideSpecError struct {
	Index  int
	Reason string
}

func (e *SlideSpecError) Error() string {
	return fmt.Sprintf("slide spec %d: %s", e.Index, e.Reason)
}

package domain

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// SlideType enumerates the layout role of a slide within a deck.
type SlideType string

const (
	SlideTypeCover   SlideType = "cover"
	SlideTypeContent SlideType = "content"
	SlideTypeEnding  SlideType = "ending"
)

// DefaultAspectRatio is used when a request omits the aspect ratio.
const DefaultAspectRatio = "16:9"

var aspectRatioPattern = regexp.MustCompile(`^\d{1,2}:\d{1,2}$`)

// Slide describes one slide image to render. It is treated as immutable once a
// batch has been submitted.
type Slide struct {
	ID          string    `json:"id"`
	PageNum     int       `json:"page_num"`
	Type        SlideType `json:"type"`
	Title       string    `json:"title"`
	ContentText string    `json:"content_text"`
	VisualDesc  string    `json:"visual_desc"`
}

// Validate checks the slide fields that the renderer relies on.
func (s Slide) Validate() error {
	if strings.TrimSpace(s.ID) == "" {
		return fmt.Errorf("slide id is required: %w", ErrInvalidArgument)
	}
	if s.PageNum < 1 {
		return fmt.Errorf("slide %s: page_num must be >= 1: %w", s.ID, ErrInvalidArgument)
	}
	switch s.Type {
	case "", SlideTypeCover, SlideTypeContent, SlideTypeEnding:
	default:
		return fmt.Errorf("slide %s: unknown type %q: %w", s.ID, s.Type, ErrInvalidArgument)
	}
	return nil
}

// ValidateAspectRatio reports whether aspect is a W:H pair of one or two digit
// positive integers.
func ValidateAspectRatio(aspect string) error {
	if !aspectRatioPattern.MatchString(aspect) {
		return fmt.Errorf("aspect ratio %q must look like W:H: %w", aspect, ErrInvalidArgument)
	}
	w, h, _ := strings.Cut(aspect, ":")
	wv, _ := strconv.Atoi(w)
	hv, _ := strconv.Atoi(h)
	if wv <= 0 || hv <= 0 {
		return fmt.Errorf("aspect ratio %q must be positive: %w", aspect, ErrInvalidArgument)
	}
	return nil
}

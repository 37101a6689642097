package models

import (
	"fmt"
	"strings"
)

// FramePreset names a target aspect ratio for the canvas viewport.
type FramePreset string

const (
	FrameOriginal FramePreset = "original"
	FrameSquare   FramePreset = "square"
	FrameStory    FramePreset = "story"
	FramePost     FramePreset = "post"
	FrameTwitter  FramePreset = "twitter"
)

// FramePresets lists every preset in display order.
var FramePresets = []FramePreset{FrameOriginal, FrameSquare, FrameStory, FramePost, FrameTwitter}

// Size is a pixel dimension pair.
type Size struct {
	Width  int
	Height int
}

func (s Size) String() string {
	return fmt.Sprintf("%dx%d", s.Width, s.Height)
}

var frameSizes = map[FramePreset]Size{
	FrameSquare:  {Width: 1080, Height: 1080},
	FrameStory:   {Width: 1080, Height: 1920},
	FramePost:    {Width: 1080, Height: 1350},
	FrameTwitter: {Width: 1200, Height: 675},
}

// Dimensions returns the fixed pixel size of the preset. FrameOriginal, and
// any preset without a fixed size, resolves to original.
func (p FramePreset) Dimensions(original Size) Size {
	if size, ok := frameSizes[p]; ok {
		return size
	}
	return original
}

func (p FramePreset) Valid() bool {
	if p == FrameOriginal {
		return true
	}
	_, ok := frameSizes[p]
	return ok
}

func (p FramePreset) String() string { return string(p) }

// ParseFramePreset accepts a preset name in any letter case.
func ParseFramePreset(s string) (FramePreset, error) {
	p := FramePreset(strings.ToLower(strings.TrimSpace(s)))
	if !p.Valid() {
		return "", fmt.Errorf("unknown frame preset %q", s)
	}
	return p, nil
}

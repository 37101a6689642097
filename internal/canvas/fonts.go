package canvas

import (
	"fmt"
	"sync"

	"github.com/gogpu/gg/text"
	"golang.org/x/image/font/gofont/gobold"
)

var (
	defaultFontOnce   sync.Once
	defaultFontSource *text.FontSource
	defaultFontErr    error
)

// DefaultFontSource returns the shared Go Bold font source.
func DefaultFontSource() (*text.FontSource, error) {
	defaultFontOnce.Do(func() {
		defaultFontSource, defaultFontErr = text.NewFontSource(gobold.TTF)
		if defaultFontErr != nil {
			defaultFontErr = fmt.Errorf("failed to load default font: %w", defaultFontErr)
		}
	})
	return defaultFontSource, defaultFontErr
}

// faceCache hands out one Face per pixel size.
type faceCache struct {
	mu     sync.Mutex
	source *text.FontSource
	faces  map[float64]text.Face
}

func newFaceCache(source *text.FontSource) *faceCache {
	return &faceCache{source: source, faces: make(map[float64]text.Face)}
}

func (fc *faceCache) face(size float64) text.Face {
	if fc == nil || fc.source == nil || size <= 0 {
		return nil
	}
	fc.mu.Lock()
	defer fc.mu.Unlock()
	if f, ok := fc.faces[size]; ok {
		return f
	}
	f := fc.source.Face(size)
	fc.faces[size] = f
	return f
}

package editor

import (
	"bytes"
	"context"
	"sync"
	"time"

	"meme-maker/internal/canvas"
	"meme-maker/internal/logger"
	"meme-maker/internal/models"
	"meme-maker/internal/services"

	"github.com/gogpu/gg/text"
)

const (
	// DefaultText replaces an empty caption.
	DefaultText = "Your Text"

	textBoxWidth = 200
	textBoxTop   = 20
)

// FilterBackend builds the four pixel filters a session can chain.
type FilterBackend interface {
	Brightness(v float64) canvas.Filter
	Contrast(v float64) canvas.Filter
	Grayscale() canvas.Filter
	Blur(v float64) canvas.Filter
}

// ImageLoader resolves an image URI to a decoded bitmap.
type ImageLoader interface {
	LoadImage(ctx context.Context, uri string) (*models.ImageData, error)
}

type Option func(*Session)

func WithLogger(l logger.Logger) Option {
	return func(s *Session) { s.log = logger.ForComponent(l, "EditorSession") }
}

// WithInitialSize sets the canvas size used by Initialize and the original
// frame preset.
func WithInitialSize(size models.Size) Option {
	return func(s *Session) { s.initial = size }
}

func WithImageLoader(l ImageLoader) Option {
	return func(s *Session) { s.loader = l }
}

func WithFontSource(src *text.FontSource) Option {
	return func(s *Session) { s.fonts = src }
}

// WithOnReady registers fn to run each time Initialize creates a canvas.
func WithOnReady(fn func()) Option {
	return func(s *Session) { s.onReady = append(s.onReady, fn) }
}

// Session mediates between UI intent and the canvas scene graph. It owns
// one canvas and tracks at most one loaded image node. All methods are safe
// for concurrent use.
type Session struct {
	mu sync.Mutex

	canvas    *canvas.Canvas
	image     *canvas.ImageNode
	imageData *models.ImageData
	frame     models.FramePreset
	filter    models.FilterPreset

	initial models.Size
	backend FilterBackend
	loader  ImageLoader
	fonts   *text.FontSource
	onReady []func()
	log     logger.Logger
}

func NewSession(backend FilterBackend, opts ...Option) *Session {
	s := &Session{
		frame:   models.FrameOriginal,
		initial: models.Size{Width: 1080, Height: 1350},
		backend: backend,
		log:     logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.loader == nil {
		s.loader = services.NewImageService(nil, services.WithLogger(s.log))
	}
	if s.initial.Width <= 0 || s.initial.Height <= 0 {
		s.initial = models.Size{Width: 1080, Height: 1350}
	}
	return s
}

// Initialize creates the canvas bound to surface. A nil surface yields a
// headless session. Calling it again while initialized does nothing.
func (s *Session) Initialize(surface canvas.Surface) error {
	s.mu.Lock()
	if s.canvas != nil {
		s.mu.Unlock()
		return nil
	}

	opts := []canvas.Option{
		canvas.WithPreserveObjectStacking(true),
		canvas.WithSelection(true),
	}
	if surface != nil {
		opts = append(opts, canvas.WithSurface(surface))
	}
	if s.fonts != nil {
		opts = append(opts, canvas.WithFontSource(s.fonts))
	}
	c, err := canvas.New(s.initial.Width, s.initial.Height, opts...)
	if err != nil {
		s.mu.Unlock()
		s.log.Error("canvas creation failed", err, nil)
		return err
	}
	c.CalcOffset()
	s.canvas = c
	s.frame = models.FrameOriginal
	callbacks := append([]func(){}, s.onReady...)
	s.mu.Unlock()

	s.log.Info("canvas initialized", map[string]interface{}{
		"width":    s.initial.Width,
		"height":   s.initial.Height,
		"headless": surface == nil,
	})
	for _, fn := range callbacks {
		fn()
	}
	return nil
}

func (s *Session) IsReady() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.canvas != nil
}

// Canvas returns the live canvas, or nil before Initialize.
func (s *Session) Canvas() *canvas.Canvas {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.canvas
}

func (s *Session) Frame() models.FramePreset {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frame
}

func (s *Session) Filter() models.FilterPreset {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filter.Clone()
}

func (s *Session) HasImage() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.image != nil
}

// ImageInfo describes the loaded image, or returns nil.
func (s *Session) ImageInfo() *models.ImageData {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.imageData
}

func (s *Session) notReady(op string) {
	s.log.Debug("operation ignored", map[string]interface{}{
		"operation": op,
		"reason":    ErrNotInitialized.Error(),
	})
}

// LoadImage decodes source and replaces the whole scene with it, fitted and
// centred, with no filters. Text nodes are removed as well. On failure the scene is left as
// it was and an *ImageLoadError is returned.
func (s *Session) LoadImage(ctx context.Context, source string) error {
	s.mu.Lock()
	c := s.canvas
	s.mu.Unlock()
	if c == nil {
		s.notReady("LoadImage")
		return nil
	}

	start := time.Now()
	data, err := s.loader.LoadImage(ctx, source)
	if err != nil {
		loadErr := &ImageLoadError{Source: source, Err: err}
		s.log.Error("image load failed", loadErr, map[string]interface{}{
			"source_kind": models.ClassifySource(source).String(),
		})
		return loadErr
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.canvas != c {
		s.log.Warning("canvas replaced during load, result dropped", nil)
		return nil
	}

	node := canvas.NewImageNode(data.Image)
	c.Clear()
	c.AddFitted(node)
	c.SetActiveObject(node)
	s.image = node
	s.imageData = data
	s.filter = models.FilterPreset{}
	c.RequestRenderAll()

	s.log.Info("image loaded", map[string]interface{}{
		"width":       data.Width,
		"height":      data.Height,
		"format":      data.Format,
		"scale":       node.Scale(),
		"duration_ms": time.Since(start).Milliseconds(),
	})
	return nil
}

// LoadImageAsync runs LoadImage on its own goroutine. The channel receives
// exactly one value and is then closed.
func (s *Session) LoadImageAsync(ctx context.Context, source string) <-chan error {
	result := make(chan error, 1)
	go func() {
		defer close(result)
		result <- s.LoadImage(ctx, source)
	}()
	return result
}

// AddText places a caption box horizontally centred near the top, selects
// it and brings it to the front.
func (s *Session) AddText(content string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.canvas == nil {
		s.notReady("AddText")
		return
	}
	if content == "" {
		content = DefaultText
	}

	c := s.canvas
	left := float64(c.Width())/2 - textBoxWidth/2
	node := canvas.NewTextNode(content, left, textBoxTop, textBoxWidth, canvas.DefaultTextStyle())
	c.Add(node)
	c.SetActiveObject(node)
	c.BringToFront(node)
	c.RequestRenderAll()

	s.log.Debug("text added", map[string]interface{}{"text": content, "left": left})
}

// UpdateText replaces the caption of node, which must belong to the current
// canvas.
func (s *Session) UpdateText(node *canvas.TextNode, content string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.canvas == nil {
		s.notReady("UpdateText")
		return
	}
	if node == nil || !node.Editable() {
		return
	}
	s.canvas.SetText(node, content)
	s.canvas.RequestRenderAll()
	s.log.Debug("text updated", map[string]interface{}{"id": node.ID(), "text": content})
}

// SetActiveFilter replaces the loaded image's filter chain with preset.
// Without an image nothing is recorded. Values are passed to the backend as
// given.
func (s *Session) SetActiveFilter(preset models.FilterPreset) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.canvas == nil {
		s.notReady("SetActiveFilter")
		return nil
	}
	if s.image == nil {
		s.log.Debug("filter ignored, no image loaded", nil)
		return nil
	}

	prev := s.filter
	s.filter = preset.Clone()
	if err := s.applyFilterLocked(); err != nil {
		s.filter = prev
		s.log.Error("filter application failed", err, map[string]interface{}{"preset": preset.String()})
		return err
	}
	s.canvas.RequestRenderAll()
	return nil
}

// buildFilters orders the chain brightness, contrast, grayscale, blur.
func (s *Session) buildFilters(p models.FilterPreset) []canvas.Filter {
	var chain []canvas.Filter
	if s.backend == nil {
		return chain
	}
	if p.Brightness != nil {
		chain = append(chain, s.backend.Brightness(*p.Brightness))
	}
	if p.Contrast != nil {
		chain = append(chain, s.backend.Contrast(*p.Contrast))
	}
	if p.Grayscale {
		chain = append(chain, s.backend.Grayscale())
	}
	if p.Blur != nil && *p.Blur > 0 {
		chain = append(chain, s.backend.Blur(*p.Blur))
	}
	return chain
}

func (s *Session) applyFilterLocked() error {
	chain := s.buildFilters(s.filter)
	start := time.Now()
	if err := s.canvas.ApplyFilters(context.Background(), s.image, chain); err != nil {
		return err
	}
	s.log.Debug("filters applied", map[string]interface{}{
		"chain":       canvas.ChainName(chain),
		"duration_ms": time.Since(start).Milliseconds(),
	})
	return nil
}

// SetFrame resizes the viewport to preset. Nodes are neither moved nor
// scaled.
func (s *Session) SetFrame(preset models.FramePreset) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.canvas == nil {
		s.notReady("SetFrame")
		return
	}
	if !preset.Valid() {
		s.log.Warning("unknown frame preset ignored", map[string]interface{}{"preset": string(preset)})
		return
	}

	size := preset.Dimensions(s.initial)
	s.canvas.SetDimensions(size.Width, size.Height)
	s.canvas.CalcOffset()
	s.canvas.RequestRenderAll()
	s.frame = preset

	s.log.Debug("frame changed", map[string]interface{}{"preset": string(preset), "size": size.String()})
}

// ExportDataURL snapshots the canvas as a PNG data URI at multiplier times
// the viewport size. It returns false without a canvas.
func (s *Session) ExportDataURL(multiplier float64) (string, bool) {
	s.mu.Lock()
	c := s.canvas
	s.mu.Unlock()
	if c == nil {
		s.notReady("ExportDataURL")
		return "", false
	}

	uri, err := c.ToDataURL(canvas.ExportOptions{Format: "png", Multiplier: multiplier})
	if err != nil {
		s.log.Error("export failed", err, nil)
		return "", false
	}
	s.log.Debug("exported data URL", map[string]interface{}{"bytes": len(uri), "multiplier": multiplier})
	return uri, true
}

// ExportPNG returns the raw PNG bytes of the snapshot.
func (s *Session) ExportPNG(multiplier float64) ([]byte, error) {
	s.mu.Lock()
	c := s.canvas
	s.mu.Unlock()
	if c == nil {
		return nil, ErrExportUnavailable
	}

	var buf bytes.Buffer
	if err := c.EncodePNG(&buf, multiplier); err != nil {
		s.log.Error("export failed", err, nil)
		return nil, err
	}
	return buf.Bytes(), nil
}

// Clear removes every node and forgets the loaded image.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.canvas == nil {
		s.notReady("Clear")
		return
	}
	s.canvas.Clear()
	s.image = nil
	s.imageData = nil
	s.filter = models.FilterPreset{}
	s.canvas.RequestRenderAll()
	s.log.Debug("canvas cleared", nil)
}

// Dispose releases the canvas and returns the session to the uninitialized
// state.
func (s *Session) Dispose() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.canvas == nil {
		return
	}
	s.canvas.Dispose()
	s.canvas = nil
	s.image = nil
	s.imageData = nil
	s.filter = models.FilterPreset{}
	s.log.Info("canvas disposed", nil)
}

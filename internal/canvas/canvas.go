package canvas

import (
	"context"
	"errors"
	"fmt"
	"image"
	"math"
	"sync"
	"sync/atomic"

	"github.com/gogpu/gg"
	"github.com/gogpu/gg/text"
)

var ErrDisposed = errors.New("canvas disposed")

var (
	ErrInvalidMultiplier = errors.New("export multiplier must be finite")
	ErrExportTooLarge    = errors.New("export exceeds the maximum size")
)

// Limits on a rendered snapshot.
const (
	MaxExportDimension = 32768
	MaxExportPixels    = 8192 * 8192
)

// exportSize scales width x height by multiplier, rejecting results beyond
// the export limits before any pixel buffer is allocated.
func exportSize(width, height int, multiplier float64) (int, int, error) {
	fw := math.Round(float64(width) * multiplier)
	fh := math.Round(float64(height) * multiplier)
	if fw > MaxExportDimension || fh > MaxExportDimension || fw*fh > MaxExportPixels {
		return 0, 0, fmt.Errorf("%w: %.0fx%.0f", ErrExportTooLarge, fw, fh)
	}
	return max(int(fw), 1), max(int(fh), 1), nil
}

// Surface is the on-screen element a Canvas paints into.
type Surface interface {
	// Invalidate schedules a repaint.
	Invalidate()
	// Viewport reports where canvas pixel (0,0) sits on screen and how many
	// screen units one canvas pixel covers.
	Viewport() Viewport
}

type Viewport struct {
	OffsetX, OffsetY float64
	Scale            float64
}

type Option func(*Canvas)

func WithSurface(s Surface) Option {
	return func(c *Canvas) { c.surface = s }
}

// WithPreserveObjectStacking keeps z-order unchanged when a node is selected.
func WithPreserveObjectStacking(b bool) Option {
	return func(c *Canvas) { c.preserveObjectStacking = b }
}

func WithSelection(b bool) Option {
	return func(c *Canvas) { c.selection = b }
}

func WithFontSource(src *text.FontSource) Option {
	return func(c *Canvas) { c.faces = newFaceCache(src) }
}

func WithBackground(col gg.RGBA) Option {
	return func(c *Canvas) { c.background = &col }
}

// Canvas is a retained-mode scene graph rasterised through gogpu/gg.
type Canvas struct {
	mu sync.RWMutex

	width, height int
	nodes         []Node
	active        Node

	surface                Surface
	viewport               Viewport
	preserveObjectStacking bool
	selection              bool
	background             *gg.RGBA
	faces                  *faceCache

	generation atomic.Uint64
	disposed   bool
}

// New creates a canvas of the given size. Non-positive sides become 1.
// Without WithFontSource the built-in Go Bold face is used.
func New(width, height int, opts ...Option) (*Canvas, error) {
	c := &Canvas{
		width:     max(width, 1),
		height:    max(height, 1),
		selection: true,
		viewport:  Viewport{Scale: 1},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.faces == nil {
		src, err := DefaultFontSource()
		if err != nil {
			return nil, err
		}
		c.faces = newFaceCache(src)
	}
	return c, nil
}

func (c *Canvas) Width() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.width
}

func (c *Canvas) Height() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.height
}

// SetDimensions resizes the viewport. Nodes keep their position and scale.
func (c *Canvas) SetDimensions(width, height int) {
	c.mu.Lock()
	c.width = max(width, 1)
	c.height = max(height, 1)
	c.mu.Unlock()
}

// CalcOffset caches the surface's current on-screen origin and scale.
func (c *Canvas) CalcOffset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.surface == nil {
		c.viewport = Viewport{Scale: 1}
		return
	}
	vp := c.surface.Viewport()
	if vp.Scale <= 0 {
		vp.Scale = 1
	}
	c.viewport = vp
}

func (c *Canvas) Viewport() Viewport {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.viewport
}

// PointerToCanvas maps a surface position to canvas coordinates using the
// offsets cached by CalcOffset.
func (c *Canvas) PointerToCanvas(px, py float64) (float64, float64) {
	vp := c.Viewport()
	return (px - vp.OffsetX) / vp.Scale, (py - vp.OffsetY) / vp.Scale
}

func (c *Canvas) Add(nodes ...Node) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, n := range nodes {
		c.addLocked(n)
	}
}

// AddFitted adds an image node scaled to fit and centred in the current
// viewport.
func (c *Canvas) AddFitted(n *ImageNode) {
	c.mu.Lock()
	defer c.mu.Unlock()
	n.fit(c.width, c.height)
	c.addLocked(n)
}

func (c *Canvas) addLocked(n Node) {
	if n == nil || c.indexOf(n) >= 0 {
		return
	}
	if t, ok := n.(*TextNode); ok {
		t.bindFaces(c.faces)
	}
	c.nodes = append(c.nodes, n)
}

func (c *Canvas) Remove(n Node) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	i := c.indexOf(n)
	if i < 0 {
		return false
	}
	c.nodes = append(c.nodes[:i], c.nodes[i+1:]...)
	if c.active == n {
		c.active = nil
	}
	return true
}

// Clear removes every node and the selection.
func (c *Canvas) Clear() {
	c.mu.Lock()
	c.nodes = nil
	c.active = nil
	c.mu.Unlock()
}

// Objects returns the nodes in stacking order, bottom first.
func (c *Canvas) Objects() []Node {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Node, len(c.nodes))
	copy(out, c.nodes)
	return out
}

func (c *Canvas) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.nodes)
}

func (c *Canvas) indexOf(n Node) int {
	for i, existing := range c.nodes {
		if existing == n {
			return i
		}
	}
	return -1
}

// SetActiveObject selects n. It is ignored when selection is disabled, the
// node is not on the canvas, or it is not selectable.
func (c *Canvas) SetActiveObject(n Node) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.selection || n == nil || !n.Selectable() {
		return false
	}
	i := c.indexOf(n)
	if i < 0 {
		return false
	}
	c.active = n
	if !c.preserveObjectStacking {
		c.bringToFrontLocked(i)
	}
	return true
}

func (c *Canvas) ActiveObject() Node {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.active
}

func (c *Canvas) DiscardActiveObject() {
	c.mu.Lock()
	c.active = nil
	c.mu.Unlock()
}

func (c *Canvas) BringToFront(n Node) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if i := c.indexOf(n); i >= 0 {
		c.bringToFrontLocked(i)
	}
}

func (c *Canvas) bringToFrontLocked(i int) {
	n := c.nodes[i]
	copy(c.nodes[i:], c.nodes[i+1:])
	c.nodes[len(c.nodes)-1] = n
}

// FindTarget returns the topmost selectable node containing the point.
func (c *Canvas) FindTarget(x, y float64) Node {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := len(c.nodes) - 1; i >= 0; i-- {
		n := c.nodes[i]
		if n.Selectable() && n.Bounds().Contains(x, y) {
			return n
		}
	}
	return nil
}

// MoveObject sets n's top-left corner.
func (c *Canvas) MoveObject(n Node, left, top float64) {
	c.mu.Lock()
	if c.indexOf(n) >= 0 {
		n.setPosition(left, top)
	}
	c.mu.Unlock()
}

// SetText replaces the content of a text node and re-wraps it.
func (c *Canvas) SetText(n *TextNode, s string) {
	c.mu.Lock()
	n.setText(s)
	c.mu.Unlock()
}

// ApplyFilters runs filters over the node's original bitmap and swaps the
// result in. On error the previous bitmap stays.
func (c *Canvas) ApplyFilters(ctx context.Context, n *ImageNode, filters []Filter) error {
	out, err := ApplyChain(ctx, n.Source(), filters)
	if err != nil {
		return err
	}
	chain := make([]Filter, len(filters))
	copy(chain, filters)

	c.mu.Lock()
	n.setFiltered(chain, out)
	c.mu.Unlock()
	return nil
}

// RequestRenderAll marks the scene dirty and asks the surface to repaint.
func (c *Canvas) RequestRenderAll() {
	c.generation.Add(1)
	c.mu.RLock()
	s := c.surface
	c.mu.RUnlock()
	if s != nil {
		s.Invalidate()
	}
}

// Generation counts render requests.
func (c *Canvas) Generation() uint64 {
	return c.generation.Load()
}

// Dispose drops all nodes and the surface. Safe to call more than once.
func (c *Canvas) Dispose() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nodes = nil
	c.active = nil
	c.surface = nil
	c.disposed = true
}

func (c *Canvas) Disposed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.disposed
}

type renderer struct {
	dc    *gg.Context
	scale float64
}

// Render rasterises the scene at multiplier times the viewport size.
func (c *Canvas) Render(multiplier float64) (image.Image, error) {
	dc, err := c.rasterize(multiplier)
	if err != nil {
		return nil, err
	}
	defer dc.Close()
	return dc.Image(), nil
}

func (c *Canvas) rasterize(multiplier float64) (*gg.Context, error) {
	if math.IsNaN(multiplier) || math.IsInf(multiplier, 0) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMultiplier, multiplier)
	}
	if multiplier <= 0 {
		multiplier = 1
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.disposed {
		return nil, ErrDisposed
	}

	w, h, err := exportSize(c.width, c.height, multiplier)
	if err != nil {
		return nil, err
	}
	dc := gg.NewContext(w, h)
	if c.background != nil {
		dc.ClearWithColor(*c.background)
	}

	r := &renderer{dc: dc, scale: multiplier}
	for _, n := range c.nodes {
		if err := n.draw(r); err != nil {
			_ = dc.Close()
			return nil, fmt.Errorf("failed to draw %s node: %w", n.Kind(), err)
		}
	}
	if err := dc.FlushGPU(); err != nil {
		_ = dc.Close()
		return nil, fmt.Errorf("failed to flush render: %w", err)
	}
	return dc, nil
}

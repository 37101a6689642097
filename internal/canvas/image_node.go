package canvas

import (
	"image"
	"math"

	"github.com/gogpu/gg"
)

// ImageNode draws a bitmap at a uniform scale.
type ImageNode struct {
	baseNode
	source   image.Image
	filtered image.Image
	filters  []Filter
	scale    float64
	buf      *gg.ImageBuf
}

func NewImageNode(img image.Image) *ImageNode {
	return &ImageNode{
		baseNode: newBaseNode(),
		source:   img,
		filtered: img,
		scale:    1,
	}
}

func (n *ImageNode) Kind() NodeKind { return KindImage }

// SourceSize returns the bitmap dimensions with zero sides treated as 1.
func (n *ImageNode) SourceSize() (int, int) {
	if n.source == nil {
		return 1, 1
	}
	b := n.source.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= 0 {
		w = 1
	}
	if h <= 0 {
		h = 1
	}
	return w, h
}

func (n *ImageNode) Scale() float64 { return n.scale }

func (n *ImageNode) Bounds() Rect {
	w, h := n.SourceSize()
	return Rect{Left: n.left, Top: n.top, Width: float64(w) * n.scale, Height: float64(h) * n.scale}
}

// Source returns the unfiltered bitmap.
func (n *ImageNode) Source() image.Image { return n.source }

// Filtered returns the bitmap with the current filter chain applied.
func (n *ImageNode) Filtered() image.Image { return n.filtered }

func (n *ImageNode) Filters() []Filter {
	out := make([]Filter, len(n.filters))
	copy(out, n.filters)
	return out
}

// FitScale returns the largest uniform scale that fits a w x h bitmap in
// cw x ch.
func FitScale(w, h, cw, ch int) float64 {
	if w <= 0 {
		w = 1
	}
	if h <= 0 {
		h = 1
	}
	return math.Min(float64(cw)/float64(w), float64(ch)/float64(h))
}

// fit scales the node to the viewport and centres it.
func (n *ImageNode) fit(cw, ch int) {
	w, h := n.SourceSize()
	n.scale = FitScale(w, h, cw, ch)
	n.left = (float64(cw) - float64(w)*n.scale) / 2
	n.top = (float64(ch) - float64(h)*n.scale) / 2
}

func (n *ImageNode) setFiltered(filters []Filter, img image.Image) {
	n.filters = filters
	n.filtered = img
	n.buf = nil
}

func (n *ImageNode) draw(r *renderer) error {
	if n.filtered == nil {
		return nil
	}
	if n.buf == nil {
		n.buf = gg.ImageBufFromImage(n.filtered)
	}
	b := n.Bounds()
	r.dc.DrawImageEx(n.buf, gg.DrawImageOptions{
		X:             b.Left * r.scale,
		Y:             b.Top * r.scale,
		DstWidth:      b.Width * r.scale,
		DstHeight:     b.Height * r.scale,
		Interpolation: gg.InterpBilinear,
		Opacity:       1,
		BlendMode:     gg.BlendNormal,
	})
	return nil
}

package canvas

import (
	"fmt"

	"github.com/google/uuid"
)

type NodeKind int

const (
	KindImage NodeKind = iota
	KindText
)

func (k NodeKind) String() string {
	switch k {
	case KindImage:
		return "image"
	case KindText:
		return "text"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Rect is an axis-aligned box in canvas coordinates.
type Rect struct {
	Left, Top, Width, Height float64
}

func (r Rect) Contains(x, y float64) bool {
	return x >= r.Left && x <= r.Left+r.Width && y >= r.Top && y <= r.Top+r.Height
}

func (r Rect) Right() float64  { return r.Left + r.Width }
func (r Rect) Bottom() float64 { return r.Top + r.Height }

// Node is an element of the scene graph. Implementations live in this
// package; node state must only be changed through the owning Canvas while
// it may be rendering on another goroutine.
type Node interface {
	ID() string
	Kind() NodeKind
	Position() (left, top float64)
	Bounds() Rect
	Selectable() bool
	HasControls() bool

	setPosition(left, top float64)
	draw(r *renderer) error
}

type baseNode struct {
	id          string
	left, top   float64
	selectable  bool
	hasControls bool
}

func newBaseNode() baseNode {
	return baseNode{id: uuid.NewString(), selectable: true, hasControls: true}
}

func (b *baseNode) ID() string                    { return b.id }
func (b *baseNode) Position() (float64, float64)  { return b.left, b.top }
func (b *baseNode) Selectable() bool              { return b.selectable }
func (b *baseNode) HasControls() bool             { return b.hasControls }
func (b *baseNode) setPosition(left, top float64) { b.left, b.top = left, top }

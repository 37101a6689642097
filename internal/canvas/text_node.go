package canvas

import (
	"math"
	"strings"
	"sync"

	"github.com/gogpu/gg/text"
)

type TextAlign int

const (
	AlignLeft TextAlign = iota
	AlignCenter
	AlignRight
)

type TextStyle struct {
	FontSize    float64
	Fill        string
	Stroke      string
	StrokeWidth float64
	Align       TextAlign
	LineHeight  float64
}

// DefaultTextStyle is the classic caption look: white bold text with a black
// outline, centred.
func DefaultTextStyle() TextStyle {
	return TextStyle{
		FontSize:    36,
		Fill:        "#ffffff",
		Stroke:      "#000000",
		StrokeWidth: 2,
		Align:       AlignCenter,
		LineHeight:  1.16,
	}
}

// TextNode is a word-wrapping text box. Its width grows to fit the widest
// single word.
type TextNode struct {
	baseNode
	text     string
	width    float64
	style    TextStyle
	editable bool

	// mu guards text, faces and the layout cache. A built layout is never
	// mutated, so callers may read it after unlocking.
	mu     sync.Mutex
	faces  *faceCache
	layout *textLayout
}

type textLayout struct {
	lines      []string
	lineWidths []float64
	boxWidth   float64
	ascent     float64
}

func NewTextNode(s string, left, top, width float64, style TextStyle) *TextNode {
	n := &TextNode{
		baseNode: newBaseNode(),
		text:     s,
		width:    width,
		style:    style,
		editable: true,
	}
	n.left, n.top = left, top
	return n
}

func (n *TextNode) Kind() NodeKind     { return KindText }
func (n *TextNode) Style() TextStyle   { return n.style }
func (n *TextNode) Editable() bool     { return n.editable }
func (n *TextNode) SetEditable(b bool) { n.editable = b }

func (n *TextNode) Text() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.text
}

// Width returns the laid-out box width.
func (n *TextNode) Width() float64 {
	return n.ensureLayout().boxWidth
}

// Lines returns the wrapped lines.
func (n *TextNode) Lines() []string {
	l := n.ensureLayout()
	out := make([]string, len(l.lines))
	copy(out, l.lines)
	return out
}

func (n *TextNode) lineHeight() float64 {
	lh := n.style.LineHeight
	if lh <= 0 {
		lh = 1
	}
	return n.style.FontSize * lh
}

func (n *TextNode) Bounds() Rect {
	l := n.ensureLayout()
	return Rect{
		Left:   n.left,
		Top:    n.top,
		Width:  l.boxWidth,
		Height: float64(len(l.lines)) * n.lineHeight(),
	}
}

func (n *TextNode) setText(s string) {
	n.mu.Lock()
	n.text = s
	n.layout = nil
	n.mu.Unlock()
}

func (n *TextNode) bindFaces(fc *faceCache) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.faces == nil {
		n.faces = fc
		n.layout = nil
	}
}

func (n *TextNode) face(size float64) text.Face {
	n.mu.Lock()
	fc := n.faces
	n.mu.Unlock()
	return fc.face(size)
}

func (n *TextNode) ensureLayout() *textLayout {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.layout == nil {
		n.layout = layoutText(n.text, n.width, n.faces.face(n.style.FontSize))
		if n.layout.ascent == 0 {
			n.layout.ascent = n.style.FontSize * 0.8
		}
	}
	return n.layout
}

// layoutText wraps s at word boundaries to width. A word wider than width
// overflows and widens the box. Without a face every paragraph stays on one
// line.
func layoutText(s string, width float64, face text.Face) *textLayout {
	l := &textLayout{boxWidth: width}
	if face == nil {
		l.lines = strings.Split(s, "\n")
		l.lineWidths = make([]float64, len(l.lines))
		return l
	}
	l.ascent = face.Metrics().Ascent

	for _, r := range text.WrapText(s, face, width, text.WrapWord) {
		line := strings.TrimRight(r.Text, " \t")
		w := text.MeasureText(line, face)
		l.lines = append(l.lines, line)
		l.lineWidths = append(l.lineWidths, w)
		l.boxWidth = math.Max(l.boxWidth, w)
	}
	return l
}

var outlineDirections = func() [][2]float64 {
	const steps = 16
	dirs := make([][2]float64, steps)
	for i := range dirs {
		a := 2 * math.Pi * float64(i) / steps
		dirs[i] = [2]float64{math.Cos(a), math.Sin(a)}
	}
	return dirs
}()

func (n *TextNode) draw(r *renderer) error {
	l := n.ensureLayout()
	face := n.face(n.style.FontSize * r.scale)
	if face == nil {
		return nil
	}
	r.dc.SetFont(face)

	lh := n.lineHeight()
	radius := n.style.StrokeWidth / 2 * r.scale
	for i, line := range l.lines {
		if line == "" {
			continue
		}
		x := n.left
		switch n.style.Align {
		case AlignCenter:
			x += (l.boxWidth - l.lineWidths[i]) / 2
		case AlignRight:
			x += l.boxWidth - l.lineWidths[i]
		}
		x *= r.scale
		y := (n.top + float64(i)*lh + l.ascent) * r.scale

		if radius > 0 && n.style.Stroke != "" {
			r.dc.SetHexColor(n.style.Stroke)
			for _, d := range outlineDirections {
				r.dc.DrawString(line, x+d[0]*radius, y+d[1]*radius)
			}
		}
		r.dc.SetHexColor(n.style.Fill)
		r.dc.DrawString(line, x, y)
	}
	return nil
}

package components

import (
	"image"
	"image/color"
	"math"
	"sync"

	editorcanvas "meme-maker/internal/canvas"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
)

const (
	DisplayMinWidth  = 360
	DisplayMinHeight = 450
)

// CanvasDisplay shows the rendered editor canvas scaled to fit and turns
// pointer input into selection, drag and edit actions. It implements
// editorcanvas.Surface.
type CanvasDisplay struct {
	widget.BaseWidget

	mu       sync.Mutex
	scene    *editorcanvas.Canvas
	rendered image.Image
	sceneW   int
	sceneH   int
	size     fyne.Size

	dragging editorcanvas.Node

	editHandler   func(*editorcanvas.TextNode)
	selectHandler func(editorcanvas.Node)
}

func NewCanvasDisplay() *CanvasDisplay {
	d := &CanvasDisplay{}
	d.ExtendBaseWidget(d)
	return d
}

// Bind attaches the display to scene. Passing nil shows the placeholder.
func (d *CanvasDisplay) Bind(scene *editorcanvas.Canvas) {
	d.mu.Lock()
	d.scene = scene
	d.rendered = nil
	d.dragging = nil
	d.mu.Unlock()
	d.Invalidate()
}

// SetEditTextHandler sets the handler invoked on a double tap over an
// editable text node.
func (d *CanvasDisplay) SetEditTextHandler(handler func(*editorcanvas.TextNode)) {
	d.editHandler = handler
}

// SetSelectionHandler sets the handler invoked after a tap changes the
// selection. The node is nil when the selection was cleared.
func (d *CanvasDisplay) SetSelectionHandler(handler func(editorcanvas.Node)) {
	d.selectHandler = handler
}

// Invalidate schedules a repaint of the scene.
func (d *CanvasDisplay) Invalidate() {
	fyne.Do(d.repaint)
}

// Viewport reports the placement computed from the last layout. It only
// reads cached values so it can be called while the scene is locked.
func (d *CanvasDisplay) Viewport() editorcanvas.Viewport {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.viewportLocked()
}

func (d *CanvasDisplay) viewportLocked() editorcanvas.Viewport {
	if d.sceneW <= 0 || d.sceneH <= 0 || d.size.Width <= 0 || d.size.Height <= 0 {
		return editorcanvas.Viewport{Scale: 1}
	}
	w, h := float64(d.size.Width), float64(d.size.Height)
	scale := math.Min(w/float64(d.sceneW), h/float64(d.sceneH))
	return editorcanvas.Viewport{
		OffsetX: (w - float64(d.sceneW)*scale) / 2,
		OffsetY: (h - float64(d.sceneH)*scale) / 2,
		Scale:   scale,
	}
}

// Rendered returns the last bitmap shown, or nil.
func (d *CanvasDisplay) Rendered() image.Image {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.rendered
}

// repaint renders the scene at display resolution. It runs on the UI
// goroutine and holds no display lock while touching the scene.
func (d *CanvasDisplay) repaint() {
	d.mu.Lock()
	scene := d.scene
	d.mu.Unlock()

	if scene == nil || scene.Disposed() {
		d.mu.Lock()
		d.rendered = nil
		d.sceneW, d.sceneH = 0, 0
		d.mu.Unlock()
		d.Refresh()
		return
	}

	w, h := scene.Width(), scene.Height()
	d.mu.Lock()
	resized := w != d.sceneW || h != d.sceneH
	d.sceneW, d.sceneH = w, h
	vp := d.viewportLocked()
	d.mu.Unlock()
	if resized {
		scene.CalcOffset()
	}

	img, err := scene.Render(renderMultiplier(vp.Scale))
	if err != nil {
		return
	}
	d.mu.Lock()
	d.rendered = img
	d.mu.Unlock()
	d.Refresh()
}

// renderMultiplier renders at display scale, capped at full resolution.
func renderMultiplier(scale float64) float64 {
	if scale <= 0 || scale > 1 {
		return 1
	}
	return scale
}

func (d *CanvasDisplay) Resize(size fyne.Size) {
	d.mu.Lock()
	changed := size != d.size
	d.size = size
	scene := d.scene
	d.mu.Unlock()
	d.BaseWidget.Resize(size)
	if changed && scene != nil {
		scene.CalcOffset()
		d.Invalidate()
	}
}

func (d *CanvasDisplay) sceneAt(pos fyne.Position) (*editorcanvas.Canvas, float64, float64) {
	d.mu.Lock()
	scene := d.scene
	d.mu.Unlock()
	if scene == nil {
		return nil, 0, 0
	}
	x, y := scene.PointerToCanvas(float64(pos.X), float64(pos.Y))
	return scene, x, y
}

// Tapped selects the topmost node under the pointer.
func (d *CanvasDisplay) Tapped(ev *fyne.PointEvent) {
	scene, x, y := d.sceneAt(ev.Position)
	if scene == nil {
		return
	}
	target := scene.FindTarget(x, y)
	if target == nil {
		scene.DiscardActiveObject()
	} else {
		scene.SetActiveObject(target)
	}
	scene.RequestRenderAll()
	if d.selectHandler != nil {
		d.selectHandler(target)
	}
}

// DoubleTapped opens the editor for the text node under the pointer.
func (d *CanvasDisplay) DoubleTapped(ev *fyne.PointEvent) {
	scene, x, y := d.sceneAt(ev.Position)
	if scene == nil {
		return
	}
	node, ok := scene.FindTarget(x, y).(*editorcanvas.TextNode)
	if !ok || !node.Editable() {
		return
	}
	scene.SetActiveObject(node)
	if d.editHandler != nil {
		d.editHandler(node)
	}
}

// Dragged moves the node picked up at the drag origin.
func (d *CanvasDisplay) Dragged(ev *fyne.DragEvent) {
	scene, _, _ := d.sceneAt(ev.Position)
	if scene == nil {
		return
	}

	d.mu.Lock()
	node := d.dragging
	d.mu.Unlock()
	if node == nil {
		origin := ev.Position.Subtract(ev.Dragged)
		_, x, y := d.sceneAt(origin)
		if node = scene.FindTarget(x, y); node == nil {
			return
		}
		scene.SetActiveObject(node)
		d.mu.Lock()
		d.dragging = node
		d.mu.Unlock()
	}

	scale := scene.Viewport().Scale
	if scale <= 0 {
		scale = 1
	}
	left, top := node.Position()
	scene.MoveObject(node, left+float64(ev.Dragged.DX)/scale, top+float64(ev.Dragged.DY)/scale)
	scene.RequestRenderAll()
}

func (d *CanvasDisplay) DragEnd() {
	d.mu.Lock()
	d.dragging = nil
	d.mu.Unlock()
}

func (d *CanvasDisplay) CreateRenderer() fyne.WidgetRenderer {
	background := canvas.NewRectangle(theme.Color(theme.ColorNameInputBackground))
	img := canvas.NewImageFromImage(nil)
	img.FillMode = canvas.ImageFillStretch
	img.ScaleMode = canvas.ImageScaleSmooth
	placeholder := canvas.NewText("Pick an image to start", color.Gray{Y: 140})
	placeholder.Alignment = fyne.TextAlignCenter

	return &canvasDisplayRenderer{
		display:     d,
		background:  background,
		image:       img,
		placeholder: placeholder,
		objects:     []fyne.CanvasObject{background, img, placeholder},
	}
}

type canvasDisplayRenderer struct {
	display     *CanvasDisplay
	background  *canvas.Rectangle
	image       *canvas.Image
	placeholder *canvas.Text
	objects     []fyne.CanvasObject
}

func (r *canvasDisplayRenderer) Layout(size fyne.Size) {
	r.background.Resize(size)
	r.background.Move(fyne.NewPos(0, 0))

	r.display.mu.Lock()
	vp := r.display.viewportLocked()
	w, h := r.display.sceneW, r.display.sceneH
	r.display.mu.Unlock()

	r.image.Move(fyne.NewPos(float32(vp.OffsetX), float32(vp.OffsetY)))
	r.image.Resize(fyne.NewSize(float32(float64(w)*vp.Scale), float32(float64(h)*vp.Scale)))

	ps := r.placeholder.MinSize()
	r.placeholder.Move(fyne.NewPos((size.Width-ps.Width)/2, (size.Height-ps.Height)/2))
	r.placeholder.Resize(ps)
}

func (r *canvasDisplayRenderer) MinSize() fyne.Size {
	return fyne.NewSize(DisplayMinWidth, DisplayMinHeight)
}

func (r *canvasDisplayRenderer) Refresh() {
	img := r.display.Rendered()
	r.image.Image = img
	if img == nil {
		r.image.Hide()
		r.placeholder.Show()
	} else {
		r.image.Show()
		r.placeholder.Hide()
	}
	r.background.FillColor = theme.Color(theme.ColorNameInputBackground)
	r.Layout(r.display.Size())
	canvas.Refresh(r.image)
	canvas.Refresh(r.background)
}

func (r *canvasDisplayRenderer) Objects() []fyne.CanvasObject { return r.objects }

func (r *canvasDisplayRenderer) Destroy() {}

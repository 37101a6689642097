package canvas

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"image"
	"image/color"
	"image/png"
	"math"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSurface struct {
	invalidations int
	viewport      Viewport
}

func (s *fakeSurface) Invalidate()        { s.invalidations++ }
func (s *fakeSurface) Viewport() Viewport { return s.viewport }

type invertFilter struct{ calls int }

func (f *invertFilter) Name() string { return "invert" }

func (f *invertFilter) Apply(_ context.Context, img image.Image) (image.Image, error) {
	f.calls++
	b := img.Bounds()
	out := image.NewNRGBA(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			out.SetNRGBA(x, y, color.NRGBA{R: 255 - c.R, G: 255 - c.G, B: 255 - c.B, A: c.A})
		}
	}
	return out, nil
}

type failingFilter struct{}

func (failingFilter) Name() string { return "broken" }
func (failingFilter) Apply(context.Context, image.Image) (image.Image, error) {
	return nil, errors.New("boom")
}

func solid(w, h int, c color.Color) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func newTestCanvas(t *testing.T, w, h int, opts ...Option) *Canvas {
	t.Helper()
	c, err := New(w, h, opts...)
	require.NoError(t, err)
	return c
}

func TestNewClampsDimensions(t *testing.T) {
	c := newTestCanvas(t, 0, -5)
	assert.Equal(t, 1, c.Width())
	assert.Equal(t, 1, c.Height())
}

func TestAddFittedCentresImage(t *testing.T) {
	c := newTestCanvas(t, 1080, 1350)
	n := NewImageNode(solid(200, 100, color.White))
	c.AddFitted(n)

	assert.InDelta(t, 5.4, n.Scale(), 1e-9)
	b := n.Bounds()
	assert.InDelta(t, 0, b.Left, 1e-9)
	assert.InDelta(t, 405, b.Top, 1e-9)
	assert.InDelta(t, 1080, b.Width, 1e-9)
	assert.InDelta(t, 540, b.Height, 1e-9)
}

func TestFitScaleTreatsZeroAsOne(t *testing.T) {
	assert.Equal(t, 10.0, FitScale(0, 0, 10, 20))
	n := NewImageNode(image.NewNRGBA(image.Rect(0, 0, 0, 0)))
	w, h := n.SourceSize()
	assert.Equal(t, 1, w)
	assert.Equal(t, 1, h)
}

func TestSelectionAndStacking(t *testing.T) {
	c := newTestCanvas(t, 100, 100, WithPreserveObjectStacking(true))
	a := NewImageNode(solid(10, 10, color.White))
	b := NewTextNode("hi", 0, 0, 50, DefaultTextStyle())
	c.Add(a, b)

	require.True(t, c.SetActiveObject(a))
	assert.Equal(t, Node(a), c.ActiveObject())
	assert.Equal(t, []Node{a, b}, c.Objects(), "stacking preserved on select")

	c.BringToFront(a)
	assert.Equal(t, []Node{b, a}, c.Objects())

	c.DiscardActiveObject()
	assert.Nil(t, c.ActiveObject())
}

func TestSelectBringsToFrontWithoutPreserve(t *testing.T) {
	c := newTestCanvas(t, 100, 100)
	a := NewImageNode(solid(10, 10, color.White))
	b := NewImageNode(solid(10, 10, color.Black))
	c.Add(a, b)

	require.True(t, c.SetActiveObject(a))
	assert.Equal(t, []Node{b, a}, c.Objects())
}

func TestSelectionDisabled(t *testing.T) {
	c := newTestCanvas(t, 100, 100, WithSelection(false))
	a := NewImageNode(solid(10, 10, color.White))
	c.Add(a)
	assert.False(t, c.SetActiveObject(a))
	assert.Nil(t, c.ActiveObject())
}

func TestFindTargetReturnsTopmost(t *testing.T) {
	c := newTestCanvas(t, 100, 100)
	bottom := NewImageNode(solid(100, 100, color.White))
	c.AddFitted(bottom)
	top := NewTextNode("caption", 10, 10, 60, DefaultTextStyle())
	c.Add(top)

	assert.Equal(t, Node(top), c.FindTarget(20, 20))
	assert.Equal(t, Node(bottom), c.FindTarget(90, 95))
	assert.Nil(t, c.FindTarget(150, 150))
}

func TestRemoveAndClear(t *testing.T) {
	c := newTestCanvas(t, 100, 100)
	a := NewImageNode(solid(10, 10, color.White))
	c.Add(a, a)
	assert.Equal(t, 1, c.Len(), "duplicate adds are ignored")
	c.SetActiveObject(a)

	assert.True(t, c.Remove(a))
	assert.False(t, c.Remove(a))
	assert.Nil(t, c.ActiveObject())

	c.Add(a)
	c.Clear()
	assert.Zero(t, c.Len())
}

func TestSetDimensionsKeepsNodes(t *testing.T) {
	c := newTestCanvas(t, 1080, 1350)
	n := NewImageNode(solid(100, 100, color.White))
	c.AddFitted(n)
	before := n.Bounds()

	c.SetDimensions(1200, 675)
	assert.Equal(t, 1200, c.Width())
	assert.Equal(t, 675, c.Height())
	assert.Equal(t, before, n.Bounds())
}

func TestCalcOffsetAndPointerToCanvas(t *testing.T) {
	s := &fakeSurface{viewport: Viewport{OffsetX: 10, OffsetY: 20, Scale: 0.5}}
	c := newTestCanvas(t, 100, 100, WithSurface(s))

	x, y := c.PointerToCanvas(10, 20)
	assert.Equal(t, 10.0, x, "uses identity until offsets are calculated")
	assert.Equal(t, 20.0, y)

	c.CalcOffset()
	x, y = c.PointerToCanvas(30, 70)
	assert.Equal(t, 40.0, x)
	assert.Equal(t, 100.0, y)
}

func TestRequestRenderAll(t *testing.T) {
	s := &fakeSurface{}
	c := newTestCanvas(t, 10, 10, WithSurface(s))
	c.RequestRenderAll()
	c.RequestRenderAll()
	assert.Equal(t, uint64(2), c.Generation())
	assert.Equal(t, 2, s.invalidations)
}

func TestRenderEmptyIsTransparent(t *testing.T) {
	c := newTestCanvas(t, 8, 6)
	img, err := c.Render(1)
	require.NoError(t, err)
	require.Equal(t, image.Rect(0, 0, 8, 6), img.Bounds())
	for y := 0; y < 6; y++ {
		for x := 0; x < 8; x++ {
			_, _, _, a := img.At(x, y).RGBA()
			require.Zero(t, a)
		}
	}
}

func TestRenderMultiplier(t *testing.T) {
	c := newTestCanvas(t, 20, 10)
	img, err := c.Render(2)
	require.NoError(t, err)
	assert.Equal(t, 40, img.Bounds().Dx())
	assert.Equal(t, 20, img.Bounds().Dy())

	img, err = c.Render(0)
	require.NoError(t, err)
	assert.Equal(t, 20, img.Bounds().Dx(), "non-positive multiplier means 1")
}

func TestExportRejectsUnusableMultipliers(t *testing.T) {
	c := newTestCanvas(t, 1080, 1350)
	tests := []struct {
		name       string
		multiplier float64
		want       error
	}{
		{"nan", math.NaN(), ErrInvalidMultiplier},
		{"positive infinity", math.Inf(1), ErrInvalidMultiplier},
		{"negative infinity", math.Inf(-1), ErrInvalidMultiplier},
		{"huge", 1e7, ErrExportTooLarge},
		{"overflowing", 1e30, ErrExportTooLarge},
		{"over pixel budget", 7, ErrExportTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.Render(tt.multiplier)
			assert.ErrorIs(t, err, tt.want)

			var buf bytes.Buffer
			assert.ErrorIs(t, c.EncodePNG(&buf, tt.multiplier), tt.want)
			assert.Zero(t, buf.Len())

			_, err = c.ToDataURL(ExportOptions{Multiplier: tt.multiplier})
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestExportAtDimensionLimit(t *testing.T) {
	w, h, err := exportSize(1080, 1350, 6)
	require.NoError(t, err)
	assert.Equal(t, 6480, w)
	assert.Equal(t, 8100, h)

	_, _, err = exportSize(100, 1, MaxExportDimension/100+1)
	assert.ErrorIs(t, err, ErrExportTooLarge)
}

func TestRenderDrawsImage(t *testing.T) {
	c := newTestCanvas(t, 16, 16)
	c.AddFitted(NewImageNode(solid(4, 4, color.NRGBA{R: 255, A: 255})))

	img, err := c.Render(1)
	require.NoError(t, err)
	r, g, b, a := img.At(8, 8).RGBA()
	assert.InDelta(t, 0xffff, r, 0x400)
	assert.InDelta(t, 0, g, 0x400)
	assert.InDelta(t, 0, b, 0x400)
	assert.InDelta(t, 0xffff, a, 0x400)
}

func TestRenderDrawsText(t *testing.T) {
	c := newTestCanvas(t, 200, 80)
	c.Add(NewTextNode("MEME", 0, 10, 200, DefaultTextStyle()))

	img, err := c.Render(1)
	require.NoError(t, err)
	painted := 0
	for y := 0; y < 80; y++ {
		for x := 0; x < 200; x++ {
			if _, _, _, a := img.At(x, y).RGBA(); a > 0 {
				painted++
			}
		}
	}
	assert.Positive(t, painted)
}

func TestTextWrapsOnWordBoundaries(t *testing.T) {
	c := newTestCanvas(t, 1080, 1350)
	n := NewTextNode("one two three four five six seven eight", 0, 0, 200, DefaultTextStyle())
	c.Add(n)

	lines := n.Lines()
	require.Greater(t, len(lines), 1)
	assert.Equal(t, "one two three four five six seven eight", strings.Join(lines, " "))
	assert.InDelta(t, 200, n.Width(), 1e-9)
	assert.InDelta(t, float64(len(lines))*36*1.16, n.Bounds().Height, 1e-9)
}

func TestTextGrowsToWidestWord(t *testing.T) {
	c := newTestCanvas(t, 1080, 1350)
	n := NewTextNode("SUPERCALIFRAGILISTIC", 0, 0, 200, DefaultTextStyle())
	c.Add(n)

	assert.Len(t, n.Lines(), 1)
	assert.Greater(t, n.Width(), 200.0)
}

func TestSetTextRewraps(t *testing.T) {
	c := newTestCanvas(t, 1080, 1350)
	n := NewTextNode("a", 0, 0, 200, DefaultTextStyle())
	c.Add(n)
	require.Len(t, n.Lines(), 1)

	c.SetText(n, "first\nsecond")
	assert.Equal(t, []string{"first", "second"}, n.Lines())
}

func TestTextLayoutConcurrentWithRender(t *testing.T) {
	c := newTestCanvas(t, 400, 200)
	n := NewTextNode("ONE DOES NOT SIMPLY", 0, 0, 200, DefaultTextStyle())
	c.Add(n)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(3)
		go func() { defer wg.Done(); _ = n.Width(); _ = n.Lines() }()
		go func() { defer wg.Done(); _, _ = c.Render(1) }()
		go func() { defer wg.Done(); c.SetText(n, "WALK INTO MORDOR") }()
	}
	wg.Wait()
	assert.Equal(t, "WALK INTO MORDOR", strings.Join(n.Lines(), " "))
}

func TestTextLayoutWithoutFace(t *testing.T) {
	l := layoutText("top\nbottom", 200, nil)
	assert.Equal(t, []string{"top", "bottom"}, l.lines)
	assert.InDelta(t, 200, l.boxWidth, 1e-9)
}

func TestApplyFiltersIsIdempotent(t *testing.T) {
	c := newTestCanvas(t, 4, 4)
	n := NewImageNode(solid(4, 4, color.NRGBA{R: 10, G: 20, B: 30, A: 255}))
	c.AddFitted(n)
	f := &invertFilter{}

	require.NoError(t, c.ApplyFilters(context.Background(), n, []Filter{f}))
	first, err := c.Render(1)
	require.NoError(t, err)
	require.NoError(t, c.ApplyFilters(context.Background(), n, []Filter{f}))
	second, err := c.Render(1)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, color.NRGBA{R: 245, G: 235, B: 225, A: 255}, n.Filtered().At(0, 0))
	assert.Equal(t, "invert", ChainName(n.Filters()))
}

func TestApplyFiltersKeepsPreviousOnError(t *testing.T) {
	c := newTestCanvas(t, 4, 4)
	n := NewImageNode(solid(4, 4, color.White))
	c.AddFitted(n)
	require.NoError(t, c.ApplyFilters(context.Background(), n, []Filter{&invertFilter{}}))
	before := n.Filtered()

	err := c.ApplyFilters(context.Background(), n, []Filter{failingFilter{}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken")
	assert.Same(t, before, n.Filtered())
	assert.Equal(t, "invert", ChainName(n.Filters()))
}

func TestToDataURL(t *testing.T) {
	c := newTestCanvas(t, 30, 20)
	uri, err := c.ToDataURL(ExportOptions{Format: "png", Multiplier: 2})
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(uri, "data:image/png;base64,"))

	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(uri, "data:image/png;base64,"))
	require.NoError(t, err)
	cfg, err := png.DecodeConfig(bytes.NewReader(raw))
	require.NoError(t, err)
	assert.Equal(t, 60, cfg.Width)
	assert.Equal(t, 40, cfg.Height)

	_, err = c.ToDataURL(ExportOptions{Format: "gif"})
	assert.Error(t, err)
}

func TestDispose(t *testing.T) {
	s := &fakeSurface{}
	c := newTestCanvas(t, 10, 10, WithSurface(s))
	c.Add(NewImageNode(solid(2, 2, color.White)))
	c.Dispose()
	c.Dispose()

	assert.True(t, c.Disposed())
	assert.Zero(t, c.Len())
	_, err := c.Render(1)
	assert.ErrorIs(t, err, ErrDisposed)

	c.RequestRenderAll()
	assert.Zero(t, s.invalidations)
}

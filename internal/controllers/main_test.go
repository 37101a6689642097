package controllers

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"meme-maker/internal/canvas"
	"meme-maker/internal/editor"
	"meme-maker/internal/logger"
	"meme-maker/internal/models"
	"meme-maker/internal/platform"
	"meme-maker/internal/services"
	"meme-maker/internal/views"

	"fyne.io/fyne/v2/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const waitFor = 2 * time.Second

type identityFilter struct{ name string }

func (f identityFilter) Name() string { return f.name }

func (f identityFilter) Apply(_ context.Context, img image.Image) (image.Image, error) {
	return img, nil
}

type identityBackend struct{}

func (identityBackend) Brightness(float64) canvas.Filter { return identityFilter{"brightness"} }
func (identityBackend) Contrast(float64) canvas.Filter   { return identityFilter{"contrast"} }
func (identityBackend) Grayscale() canvas.Filter         { return identityFilter{"grayscale"} }
func (identityBackend) Blur(float64) canvas.Filter       { return identityFilter{"blur"} }

type fakeBridge struct {
	mu       sync.Mutex
	pickURI  string
	pickErr  error
	pickGate chan struct{}
	picks    int
	saved    []string
	saveErr  error
	shared   []string
	shareErr error
}

func (b *fakeBridge) Name() platform.Kind { return platform.KindWeb }

func (b *fakeBridge) PickImage(ctx context.Context) (string, error) {
	b.mu.Lock()
	b.picks++
	gate := b.pickGate
	b.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return b.pickURI, b.pickErr
}

func (b *fakeBridge) Save(_ context.Context, dataURL string) (platform.SaveResult, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.saveErr != nil {
		return platform.SaveResult{}, b.saveErr
	}
	b.saved = append(b.saved, dataURL)
	return platform.SaveResult{FileName: "meme_1.png", Path: "/tmp/meme_1.png"}, nil
}

func (b *fakeBridge) Share(_ context.Context, dataURL string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.shared = append(b.shared, dataURL)
	return b.shareErr
}

func (b *fakeBridge) counts() (picks, saves, shares int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.picks, len(b.saved), len(b.shared)
}

func pngDataURI(t *testing.T, w, h int) string {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.NRGBA{R: 200, G: 40, B: 40, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return services.EncodeDataURI("image/png", buf.Bytes())
}

// countingView records filter resets on top of the real view.
type countingView struct {
	*views.MainView
	resets atomic.Int32
}

func (v *countingView) ResetFilters() {
	v.resets.Add(1)
	v.MainView.ResetFilters()
}

type fixture struct {
	controller *MainController
	session    *editor.Session
	view       *countingView
	bridge     *fakeBridge
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	a := test.NewApp()
	t.Cleanup(a.Quit)
	w := test.NewWindow(nil)
	t.Cleanup(w.Close)

	view := &countingView{MainView: views.NewMainView(w)}
	w.Resize(view.GetContainer().MinSize())
	bridge := &fakeBridge{pickURI: pngDataURI(t, 4, 4)}
	session := editor.NewSession(identityBackend{})
	t.Cleanup(session.Dispose)

	mc := NewMainController(session, bridge, nil, Settings{
		InitialSize:  models.Size{Width: 1080, Height: 1350},
		DefaultFrame: models.FramePost,
	}, logger.Nop())
	mc.SetMainView(view)
	require.NoError(t, mc.Start())
	t.Cleanup(mc.Shutdown)

	return &fixture{controller: mc, session: session, view: view, bridge: bridge}
}

func (f *fixture) status() string {
	return f.view.GetStatusBar().GetStatus()
}

func (f *fixture) idle() bool {
	return !f.controller.IsBusy()
}

func TestStartAppliesDefaultFrame(t *testing.T) {
	f := newFixture(t)

	assert.True(t, f.session.IsReady())
	assert.Equal(t, models.FramePost, f.session.Frame())
	assert.Equal(t, 1080, f.session.Canvas().Width())
	assert.Equal(t, 1350, f.session.Canvas().Height())
	assert.Equal(t, "Ready", f.status())
	assert.Equal(t, "Frame: post 1080x1350", f.view.GetStatusBar().GetFrameInfo())
}

func TestPickImageLoadsIntoSession(t *testing.T) {
	f := newFixture(t)
	loaded := make(chan *models.ImageData, 1)
	f.controller.AddEventListener(EventImageLoaded, func(data interface{}) error {
		loaded <- data.(*models.ImageData)
		return nil
	})

	f.controller.PickImage()

	select {
	case info := <-loaded:
		assert.Equal(t, 4, info.Width)
	case <-time.After(waitFor):
		t.Fatal("image was not loaded")
	}
	require.Eventually(t, f.idle, waitFor, 10*time.Millisecond)
	assert.True(t, f.session.HasImage())
	assert.Equal(t, "Image loaded", f.status())
	assert.True(t, strings.HasPrefix(f.view.GetStatusBar().GetImageInfo(), "Image: 4x4"))
	assert.False(t, f.controller.LastImageLoad().IsZero())
}

func TestPickCancelledIsQuiet(t *testing.T) {
	f := newFixture(t)
	f.bridge.pickErr = platform.ErrCancelled

	f.controller.PickImage()
	require.Eventually(t, func() bool {
		picks, _, _ := f.bridge.counts()
		return picks == 1 && f.idle()
	}, waitFor, 10*time.Millisecond)

	assert.False(t, f.session.HasImage())
	assert.Equal(t, "Ready", f.status())
}

func TestPickInvalidImageKeepsScene(t *testing.T) {
	f := newFixture(t)
	f.bridge.pickURI = "data:image/png;base64,AAAA"

	f.controller.PickImage()
	require.Eventually(t, func() bool {
		picks, _, _ := f.bridge.counts()
		return picks == 1 && f.idle()
	}, waitFor, 10*time.Millisecond)
	assert.False(t, f.session.HasImage())
}

func TestOverlappingPickIgnored(t *testing.T) {
	f := newFixture(t)
	gate := make(chan struct{})
	f.bridge.pickGate = gate

	f.controller.PickImage()
	require.Eventually(t, func() bool {
		picks, _, _ := f.bridge.counts()
		return picks == 1
	}, waitFor, 10*time.Millisecond)

	f.controller.PickImage()
	assert.True(t, f.controller.IsBusy())

	close(gate)
	require.Eventually(t, f.idle, waitFor, 10*time.Millisecond)
	picks, _, _ := f.bridge.counts()
	assert.Equal(t, 1, picks)
}

func TestSaveDeliversPNGDataURL(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.controller.LoadURI(pngDataURI(t, 8, 8)))

	f.controller.Save()
	require.Eventually(t, func() bool {
		_, saves, _ := f.bridge.counts()
		return saves == 1 && f.idle()
	}, waitFor, 10*time.Millisecond)

	f.bridge.mu.Lock()
	saved := f.bridge.saved[0]
	f.bridge.mu.Unlock()
	uri, err := services.ParseDataURI(saved)
	require.NoError(t, err)
	assert.Equal(t, "image/png", uri.MediaType)
	cfg, err := png.DecodeConfig(bytes.NewReader(uri.Data))
	require.NoError(t, err)
	assert.Equal(t, 1080, cfg.Width)
	assert.Equal(t, 1350, cfg.Height)
	assert.Equal(t, "Saved: meme_1.png", f.status())
}

func TestSaveErrorReported(t *testing.T) {
	f := newFixture(t)
	f.bridge.saveErr = errors.New("disk full")

	f.controller.Save()
	require.Eventually(t, func() bool {
		return f.idle() && f.status() == "Save failed"
	}, waitFor, 10*time.Millisecond)
}

func TestShareErrorReported(t *testing.T) {
	f := newFixture(t)
	f.bridge.shareErr = errors.New("no share target")

	f.controller.Share()
	require.Eventually(t, func() bool {
		return f.idle() && f.status() == "Share failed"
	}, waitFor, 10*time.Millisecond)
	_, _, shares := f.bridge.counts()
	assert.Equal(t, 1, shares)
}

func TestShareSucceeds(t *testing.T) {
	f := newFixture(t)
	f.controller.Share()
	require.Eventually(t, func() bool {
		return f.idle() && f.status() == "Shared"
	}, waitFor, 10*time.Millisecond)
}

func TestApplyFilterReachesSession(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.controller.LoadURI(pngDataURI(t, 4, 4)))

	p := models.FilterPreset{}.WithBrightness(0.2).WithGrayscale(true)
	f.controller.ApplyFilter(p)
	require.Eventually(t, func() bool {
		return f.session.Filter().Equal(p)
	}, waitFor, 10*time.Millisecond)
}

func TestFrameChange(t *testing.T) {
	f := newFixture(t)
	var got models.FramePreset
	f.controller.AddEventListener(EventFrameChanged, func(data interface{}) error {
		got = data.(models.FramePreset)
		return nil
	})

	f.controller.SetFrame(models.FrameTwitter)
	assert.Equal(t, models.FrameTwitter, got)
	assert.Equal(t, 1200, f.session.Canvas().Width())
	assert.Equal(t, 675, f.session.Canvas().Height())
	assert.Equal(t, models.FrameTwitter, f.view.GetToolbar().GetFrame())

	f.controller.SetFrame("panorama")
	assert.Equal(t, models.FrameTwitter, f.session.Frame())
}

func TestClearResetsImageInfo(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.controller.LoadURI(pngDataURI(t, 4, 4)))
	f.controller.AddText("TOP TEXT")

	f.controller.Clear()
	assert.False(t, f.session.HasImage())
	assert.Zero(t, f.session.Canvas().Len())
	assert.Equal(t, "No image loaded", f.view.GetStatusBar().GetImageInfo())
	assert.Equal(t, "Canvas cleared", f.status())
}

func TestEditTextUpdatesNode(t *testing.T) {
	f := newFixture(t)
	f.controller.AddText("TOP TEXT")
	node := f.session.Canvas().ActiveObject().(*canvas.TextNode)

	f.controller.EditText(node, "WHEN THE BUILD PASSES")
	assert.Equal(t, "WHEN THE BUILD PASSES", node.Text())
}

func TestLoadResetsFilters(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.controller.LoadURI(pngDataURI(t, 4, 4)))
	p := models.FilterPreset{}.WithGrayscale(true)
	f.controller.ApplyFilter(p)
	require.Eventually(t, func() bool {
		return f.session.Filter().Equal(p)
	}, waitFor, 10*time.Millisecond)
	resets := f.view.resets.Load()

	require.NoError(t, f.controller.LoadURI(pngDataURI(t, 6, 6)))
	assert.True(t, f.session.Filter().IsEmpty())
	assert.Equal(t, resets+1, f.view.resets.Load())
	assert.True(t, f.view.GetFilterPanel().Preset().IsEmpty())
	node := f.session.Canvas().Objects()[0].(*canvas.ImageNode)
	assert.Empty(t, node.Filters())
}

func TestClearResetsFilters(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.controller.LoadURI(pngDataURI(t, 4, 4)))
	resets := f.view.resets.Load()

	f.controller.Clear()
	assert.Equal(t, resets+1, f.view.resets.Load())
	assert.True(t, f.session.Filter().IsEmpty())
}

func TestApplyFilterClampsToSliderRange(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.controller.LoadURI(pngDataURI(t, 4, 4)))

	f.controller.ApplyFilter(models.FilterPreset{}.WithBrightness(0.9).WithBlur(3))
	want := models.FilterPreset{}.WithBrightness(models.MaxBrightness).WithBlur(models.MaxBlur)
	require.Eventually(t, func() bool {
		return f.session.Filter().Equal(want)
	}, waitFor, 10*time.Millisecond)
}

func TestExportFailureReported(t *testing.T) {
	f := newFixture(t)
	f.session.Canvas().Dispose()

	f.controller.Save()
	assert.Equal(t, "Save failed", f.status())
	f.controller.Share()
	assert.Equal(t, "Share failed", f.status())

	_, saves, shares := f.bridge.counts()
	assert.Zero(t, saves)
	assert.Zero(t, shares)
	assert.False(t, f.controller.IsBusy())
}

func TestSaveEmitsExportedEvent(t *testing.T) {
	f := newFixture(t)
	events := make(chan interface{}, 1)
	f.controller.AddEventListener("exported", func(data interface{}) error {
		events <- data
		return nil
	})

	f.controller.Save()
	select {
	case data := <-events:
		assert.Equal(t, "meme_1.png", data.(platform.SaveResult).FileName)
	case <-time.After(waitFor):
		t.Fatal("no exported event")
	}
}

func TestNoWorkStartsAfterShutdown(t *testing.T) {
	f := newFixture(t)
	f.controller.Shutdown()

	f.controller.PickImage()
	f.controller.Save()
	assert.False(t, f.controller.IsBusy())
	picks, saves, _ := f.bridge.counts()
	assert.Zero(t, picks)
	assert.Zero(t, saves)
}

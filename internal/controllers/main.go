package controllers

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"meme-maker/internal/canvas"
	"meme-maker/internal/editor"
	"meme-maker/internal/logger"
	"meme-maker/internal/models"
	"meme-maker/internal/platform"
	"meme-maker/internal/views"
)

// ErrExportFailed reports that the canvas could not be snapshotted.
var ErrExportFailed = errors.New("could not export the canvas")

// Event names emitted by the controller.
const (
	EventImageLoaded  = "image_loaded"
	EventFrameChanged = "frame_changed"
	EventExported     = "exported"
)

// View is the part of the main view the controller drives.
type View interface {
	SetPickImageHandler(func())
	SetAddTextHandler(func(string))
	SetSaveHandler(func())
	SetShareHandler(func())
	SetClearHandler(func())
	SetFrameChangeHandler(func(models.FramePreset))
	SetFilterChangeHandler(func(models.FilterPreset))
	SetTextEditHandler(func(*canvas.TextNode, string))

	Surface() canvas.Surface
	BindCanvas(*canvas.Canvas)
	SetReady(bool)
	SetLoading(bool)
	SetFiltering(bool)
	SetBusy(bool)
	UpdateStatus(string)
	SetImageInfo(*models.ImageData)
	SetFrame(models.FramePreset, models.Size)
	ResetFilters()
	ShowError(title string, err error)
	ShowInfo(title, message string)
}

var _ View = (*views.MainView)(nil)

// EventHandler represents a function that handles application events
type EventHandler func(data interface{}) error

// MainController wires the editor session, the platform bridge and the
// view together. View callbacks arrive on the UI goroutine. Work that can
// block runs on its own goroutine and reports back through the view.
type MainController struct {
	session  *editor.Session
	bridge   platform.Bridge
	activity *models.ActivityRepository
	view     View

	initial      models.Size
	defaultFrame models.FramePreset
	log          logger.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu            sync.Mutex
	closed        bool
	pendingFilter *models.FilterPreset
	filterSignal  chan struct{}
	lastImageLoad time.Time

	eventHandlers map[string][]EventHandler
	eventMu       sync.RWMutex
}

type Settings struct {
	InitialSize  models.Size
	DefaultFrame models.FramePreset
}

func NewMainController(session *editor.Session, bridge platform.Bridge, activity *models.ActivityRepository, settings Settings, log logger.Logger) *MainController {
	ctx, cancel := context.WithCancel(context.Background())
	if activity == nil {
		activity = models.NewActivityRepository()
	}
	if !settings.DefaultFrame.Valid() {
		settings.DefaultFrame = models.FramePost
	}
	if settings.InitialSize.Width <= 0 || settings.InitialSize.Height <= 0 {
		settings.InitialSize = models.Size{Width: 1080, Height: 1350}
	}
	return &MainController{
		session:       session,
		bridge:        bridge,
		activity:      activity,
		initial:       settings.InitialSize,
		defaultFrame:  settings.DefaultFrame,
		log:           logger.ForComponent(log, "MainController"),
		ctx:           ctx,
		cancel:        cancel,
		filterSignal:  make(chan struct{}, 1),
		eventHandlers: make(map[string][]EventHandler),
	}
}

// SetMainView associates the main view with this controller
func (mc *MainController) SetMainView(view View) {
	mc.view = view
	view.SetPickImageHandler(mc.PickImage)
	view.SetAddTextHandler(mc.AddText)
	view.SetSaveHandler(mc.Save)
	view.SetShareHandler(mc.Share)
	view.SetClearHandler(mc.Clear)
	view.SetFrameChangeHandler(mc.SetFrame)
	view.SetFilterChangeHandler(mc.ApplyFilter)
	view.SetTextEditHandler(mc.EditText)
}

// Start creates the canvas, applies the default frame and enables the
// controls.
func (mc *MainController) Start() error {
	if err := mc.session.Initialize(mc.view.Surface()); err != nil {
		mc.view.UpdateStatus("Canvas unavailable")
		mc.view.ShowError("Canvas unavailable", err)
		return fmt.Errorf("failed to initialize editor: %w", err)
	}
	mc.view.BindCanvas(mc.session.Canvas())

	if !mc.spawn(mc.filterLoop) {
		return fmt.Errorf("controller already shut down")
	}

	mc.SetFrame(mc.defaultFrame)
	mc.view.SetReady(true)
	mc.view.UpdateStatus("Ready")
	mc.log.Info("editor ready", map[string]interface{}{
		"bridge": string(mc.bridge.Name()),
		"frame":  string(mc.defaultFrame),
	})
	return nil
}

// PickImage asks the bridge for an image and loads it. Requests made while
// another operation is running are ignored.
func (mc *MainController) PickImage() {
	if !mc.session.IsReady() {
		return
	}
	if !mc.activity.TryStart(models.ActivityLoading) {
		mc.log.Debug("pick ignored, operation in progress", nil)
		return
	}
	mc.view.SetLoading(true)
	mc.view.UpdateStatus("Picking image...")

	started := mc.spawn(func() {
		defer mc.finishActivity(func() { mc.view.SetLoading(false) })

		uri, err := mc.bridge.PickImage(mc.ctx)
		if err != nil {
			if errors.Is(err, platform.ErrCancelled) || errors.Is(err, context.Canceled) {
				mc.view.UpdateStatus("Ready")
				return
			}
			mc.handleError("Image pick failed", err)
			return
		}

		mc.view.UpdateStatus("Loading image...")
		if err := <-mc.session.LoadImageAsync(mc.ctx, uri); err != nil {
			mc.handleError("Image load failed", err)
			return
		}

		mc.imageLoaded()
	})
	if !started {
		mc.finishActivity(func() { mc.view.SetLoading(false) })
	}
}

// LoadURI loads uri directly, bypassing the picker.
func (mc *MainController) LoadURI(uri string) error {
	if err := mc.session.LoadImage(mc.ctx, uri); err != nil {
		mc.handleError("Image load failed", err)
		return err
	}
	mc.imageLoaded()
	return nil
}

// imageLoaded resets the filter controls, since a new image starts
// unfiltered, and reports the load.
func (mc *MainController) imageLoaded() {
	info := mc.session.ImageInfo()
	mc.mu.Lock()
	mc.lastImageLoad = time.Now()
	mc.pendingFilter = nil
	mc.mu.Unlock()

	mc.view.ResetFilters()
	mc.view.SetImageInfo(info)
	mc.view.UpdateStatus("Image loaded")
	mc.emitEvent(EventImageLoaded, info)
}

func (mc *MainController) AddText(content string) {
	mc.session.AddText(content)
}

func (mc *MainController) EditText(node *canvas.TextNode, content string) {
	mc.session.UpdateText(node, content)
}

func (mc *MainController) SetFrame(preset models.FramePreset) {
	if !preset.Valid() {
		mc.log.Warning("unknown frame ignored", map[string]interface{}{"preset": string(preset)})
		return
	}
	mc.session.SetFrame(preset)
	size := preset.Dimensions(mc.initial)
	mc.view.SetFrame(preset, size)
	mc.emitEvent(EventFrameChanged, preset)
}

// ApplyFilter queues preset, clipped to the slider ranges, for the filter
// worker. Only the latest preset queued before the worker wakes is applied.
func (mc *MainController) ApplyFilter(preset models.FilterPreset) {
	p := preset.Clamp()
	mc.mu.Lock()
	mc.pendingFilter = &p
	mc.mu.Unlock()

	select {
	case mc.filterSignal <- struct{}{}:
	default:
	}
}

func (mc *MainController) filterLoop() {
	for {
		select {
		case <-mc.ctx.Done():
			return
		case <-mc.filterSignal:
		}

		mc.mu.Lock()
		p := mc.pendingFilter
		mc.pendingFilter = nil
		mc.mu.Unlock()
		if p == nil {
			continue
		}

		mc.view.SetFiltering(true)
		err := mc.session.SetActiveFilter(*p)
		mc.view.SetFiltering(false)
		if err != nil {
			mc.handleError("Filter failed", err)
		}
	}
}

// Save exports the canvas and hands it to the bridge.
func (mc *MainController) Save() {
	mc.export(models.ActivitySaving, "Saving...", func(dataURL string) error {
		res, err := mc.bridge.Save(mc.ctx, dataURL)
		if err != nil {
			return err
		}
		mc.view.UpdateStatus(res.Message())
		if !res.Downloaded {
			mc.view.ShowInfo("Saved", res.Message())
		}
		mc.emitEvent(EventExported, res)
		return nil
	})
}

func (mc *MainController) Share() {
	mc.export(models.ActivitySharing, "Sharing...", func(dataURL string) error {
		if err := mc.bridge.Share(mc.ctx, dataURL); err != nil {
			return err
		}
		mc.view.UpdateStatus("Shared")
		mc.emitEvent(EventExported, nil)
		return nil
	})
}

func (mc *MainController) export(a models.Activity, status string, deliver func(string) error) {
	if !mc.session.IsReady() {
		return
	}
	title := "Save failed"
	if a == models.ActivitySharing {
		title = "Share failed"
	}
	dataURL, ok := mc.session.ExportDataURL(1)
	if !ok {
		mc.view.UpdateStatus(title)
		mc.handleError(title, ErrExportFailed)
		return
	}
	if !mc.activity.TryStart(a) {
		mc.log.Debug("export ignored, operation in progress", map[string]interface{}{"activity": string(a)})
		return
	}
	mc.view.SetBusy(true)
	mc.view.UpdateStatus(status)

	started := mc.spawn(func() {
		defer mc.finishActivity(func() { mc.view.SetBusy(false) })

		if err := deliver(dataURL); err != nil {
			if errors.Is(err, platform.ErrCancelled) || errors.Is(err, context.Canceled) {
				mc.view.UpdateStatus("Ready")
				return
			}
			mc.view.UpdateStatus(title)
			mc.handleError(title, err)
		}
	})
	if !started {
		mc.finishActivity(func() { mc.view.SetBusy(false) })
	}
}

// Clear empties the canvas and resets the filters. The frame is kept.
func (mc *MainController) Clear() {
	mc.session.Clear()
	mc.mu.Lock()
	mc.pendingFilter = nil
	mc.mu.Unlock()
	mc.view.ResetFilters()
	mc.view.SetImageInfo(nil)
	mc.view.UpdateStatus("Canvas cleared")
}

// spawn runs fn on a tracked goroutine unless Shutdown has begun.
func (mc *MainController) spawn(fn func()) bool {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	if mc.closed {
		return false
	}
	mc.wg.Add(1)
	go func() {
		defer mc.wg.Done()
		fn()
	}()
	return true
}

func (mc *MainController) finishActivity(reset func()) {
	state := mc.activity.Complete()
	reset()
	mc.log.Debug("activity finished", map[string]interface{}{
		"activity":    string(state.Activity),
		"duration_ms": time.Since(state.StartTime).Milliseconds(),
	})
}

// IsBusy reports whether a pick, save or share is in flight.
func (mc *MainController) IsBusy() bool {
	return mc.activity.IsActive(models.ActivityIdle)
}

func (mc *MainController) LastImageLoad() time.Time {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	return mc.lastImageLoad
}

// Event system methods

// AddEventListener adds an event handler for a specific event type
func (mc *MainController) AddEventListener(eventType string, handler EventHandler) {
	mc.eventMu.Lock()
	defer mc.eventMu.Unlock()
	mc.eventHandlers[eventType] = append(mc.eventHandlers[eventType], handler)
}

// emitEvent triggers all handlers for a specific event type
func (mc *MainController) emitEvent(eventType string, data interface{}) {
	mc.eventMu.RLock()
	handlers := mc.eventHandlers[eventType]
	mc.eventMu.RUnlock()

	for _, handler := range handlers {
		if err := handler(data); err != nil {
			mc.log.Warning("event handler failed", map[string]interface{}{
				"event": eventType,
				"error": err.Error(),
			})
		}
	}
}

// handleError logs err and shows it to the user.
func (mc *MainController) handleError(title string, err error) {
	mc.log.Error(title, err, nil)
	mc.view.ShowError(title, err)
}

// Shutdown cancels pending work and waits for background goroutines. A
// decode already running finishes first.
func (mc *MainController) Shutdown() {
	mc.mu.Lock()
	mc.closed = true
	mc.mu.Unlock()
	mc.cancel()
	mc.wg.Wait()
	mc.log.Info("controller stopped", nil)
}

package main

import (
	"context"
	"log"
	"runtime"
	"time"

	"meme-maker/internal/config"
	"meme-maker/internal/controllers"
	"meme-maker/internal/debug/timing"
	"meme-maker/internal/editor"
	"meme-maker/internal/logger"
	"meme-maker/internal/models"
	"meme-maker/internal/opencv/memory"
	"meme-maker/internal/platform"
	"meme-maker/internal/processing/filters"
	"meme-maker/internal/services"
	"meme-maker/internal/shutdown"
	"meme-maker/internal/views"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
)

const (
	AppName    = "Meme Maker"
	AppID      = "com.mememaker.app"
	AppVersion = "1.0.0"

	statsInterval = 30 * time.Second
)

// Application holds the wired components of the editor.
type Application struct {
	fyneApp fyne.App
	window  fyne.Window
	logger  logger.Logger
	cfg     config.Config

	controller *controllers.MainController
	view       *views.MainView
	session    *editor.Session

	imageService  *services.ImageService
	memoryManager *memory.Manager
	filterTiming  *timing.Tracker
	shutdown      *shutdown.Manager
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Configuration invalid: %v", err)
	}

	application, err := NewApplication(cfg)
	if err != nil {
		log.Fatalf("Application initialization failed: %v", err)
	}

	if err := application.Run(); err != nil {
		log.Fatalf("Application execution failed: %v", err)
	}
}

func newLogger(cfg config.Config) logger.Logger {
	if cfg.LogFormat == "json" {
		return logger.NewJSONLogger(cfg.LogLevel)
	}
	return logger.NewConsoleLogger(cfg.LogLevel)
}

// NewApplication creates and wires every component.
func NewApplication(cfg config.Config) (*Application, error) {
	appLogger := newLogger(cfg)

	fyneApp := app.NewWithID(AppID)
	fyneApp.SetMetadata(&fyne.AppMetadata{
		ID:      AppID,
		Name:    AppName,
		Version: AppVersion,
	})

	window := fyneApp.NewWindow(AppName)
	window.Resize(fyne.NewSize(1100, 860))
	window.CenterOnScreen()

	memManager := memory.NewManager(appLogger)
	filterTiming := timing.NewTracker(0)
	backend := filters.NewOpenCVBackend(memManager, appLogger, filters.WithTimingTracker(filterTiming))

	objects := services.NewObjectURLStore()
	imageService := services.NewImageService(objects,
		services.WithFetchTimeout(cfg.FetchTimeout),
		services.WithLogger(appLogger),
	)

	session := editor.NewSession(backend,
		editor.WithLogger(appLogger),
		editor.WithInitialSize(cfg.InitialSize()),
		editor.WithImageLoader(imageService),
	)

	bridge := newBridge(cfg, fyneApp, window, objects, appLogger)

	mainView := views.NewMainView(window)
	mainController := controllers.NewMainController(
		session, bridge, models.NewActivityRepository(),
		controllers.Settings{InitialSize: cfg.InitialSize(), DefaultFrame: cfg.DefaultFrame},
		appLogger,
	)
	mainController.SetMainView(mainView)
	mainController.AddEventListener(controllers.EventImageLoaded, func(interface{}) error {
		memManager.LogStats()
		return nil
	})

	application := &Application{
		fyneApp:       fyneApp,
		window:        window,
		logger:        appLogger,
		cfg:           cfg,
		controller:    mainController,
		view:          mainView,
		session:       session,
		imageService:  imageService,
		memoryManager: memManager,
		filterTiming:  filterTiming,
		shutdown:      shutdown.NewManager(appLogger),
	}
	application.registerShutdown()
	application.setupWindowEvents()

	appLogger.Info("application initialized", map[string]interface{}{
		"version":    AppVersion,
		"bridge":     string(bridge.Name()),
		"canvas":     cfg.InitialSize().String(),
		"frame":      string(cfg.DefaultFrame),
		"go_version": runtime.Version(),
		"log_level":  cfg.LogLevel.String(),
	})
	return application, nil
}

func newBridge(cfg config.Config, a fyne.App, w fyne.Window, objects *services.ObjectURLStore, log logger.Logger) platform.Bridge {
	dialogs := platform.NewFyneDialogs(a, w)
	mobile := fyne.CurrentDevice().IsMobile()

	switch platform.Detect(cfg.Platform, mobile) {
	case platform.KindNative:
		return platform.NewNative(dialogs, dialogs, cfg.DocumentsDir, platform.WithNativeLogger(log))
	default:
		return platform.NewWeb(dialogs, objects, dialogs,
			platform.WithWebSharer(dialogs.Clipboard()),
			platform.WithWebLogger(log),
		)
	}
}

// registerShutdown orders teardown: stop the controller, release the
// canvas, then the image caches and native memory bookkeeping.
func (a *Application) registerShutdown() {
	a.shutdown.Register("memory manager", a.memoryManager.Cleanup)
	a.shutdown.Register("image service", a.imageService.Cleanup)
	a.shutdown.Register("session", a.session.Dispose)
	a.shutdown.Register("controller", a.controller.Shutdown)
}

// Run starts the editor and blocks until the window closes.
func (a *Application) Run() error {
	a.shutdown.Listen(func() {
		fyne.Do(a.fyneApp.Quit)
	})

	a.window.Show()
	if err := a.controller.Start(); err != nil {
		return err
	}
	go a.monitorMemory(a.shutdown.Context())

	a.fyneApp.Run()
	a.shutdown.Shutdown()
	return nil
}

func (a *Application) setupWindowEvents() {
	a.window.SetCloseIntercept(func() {
		if !a.controller.IsBusy() {
			a.window.Close()
			return
		}
		a.view.ShowConfirm("Exit", "An operation is still running. Exit anyway?", func(confirmed bool) {
			if confirmed {
				a.window.Close()
			}
		})
	})
	a.window.SetOnClosed(func() {
		a.logger.Info("window closed", nil)
		go a.shutdown.Shutdown()
	})
}

// monitorMemory logs native and Go memory figures until ctx ends.
func (a *Application) monitorMemory(ctx context.Context) {
	ticker := time.NewTicker(statsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			var memStats runtime.MemStats
			runtime.ReadMemStats(&memStats)
			a.memoryManager.LogStats()
			for _, leak := range a.memoryManager.Leaks(5 * time.Minute) {
				a.logger.Warning("long-lived Mat", map[string]interface{}{
					"tag":  leak.Tag,
					"size": leak.Size,
					"age":  time.Since(leak.CreatedAt).String(),
				})
			}
			if summary := a.filterTiming.Summary(); len(summary) > 0 {
				a.logger.Debug("filter timings", summary)
			}
			a.logger.Debug("runtime stats", map[string]interface{}{
				"go_memory_mb":    memStats.Alloc / 1024 / 1024,
				"gc_runs":         memStats.NumGC,
				"goroutine_count": runtime.NumGoroutine(),
			})
		case <-ctx.Done():
			return
		}
	}
}

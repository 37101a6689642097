package platform

import (
	"context"
	"errors"
	"fmt"
	"time"

	"meme-maker/internal/logger"
	"meme-maker/internal/services"
)

// Web registers picked files as object URLs and saves by download. Sharing
// goes through an optional WebSharer and falls back to a download.
type Web struct {
	picker     FilePicker
	objects    *services.ObjectURLStore
	downloader Downloader
	sharer     WebSharer
	now        Clock
	log        logger.Logger
}

type WebOption func(*Web)

// WithWebSharer installs a share capability. Without one Share downloads.
func WithWebSharer(s WebSharer) WebOption {
	return func(w *Web) { w.sharer = s }
}

func WithWebClock(c Clock) WebOption {
	return func(w *Web) { w.now = c }
}

func WithWebLogger(l logger.Logger) WebOption {
	return func(w *Web) { w.log = logger.ForComponent(l, "WebBridge") }
}

func NewWeb(picker FilePicker, objects *services.ObjectURLStore, downloader Downloader, opts ...WebOption) *Web {
	w := &Web{
		picker:     picker,
		objects:    objects,
		downloader: downloader,
		now:        time.Now,
		log:        logger.Nop(),
	}
	if w.objects == nil {
		w.objects = services.NewObjectURLStore()
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

func (w *Web) Name() Kind { return KindWeb }

// PickImage stores the chosen file and returns its blob: URI.
func (w *Web) PickImage(ctx context.Context) (string, error) {
	file, err := w.picker.PickFile(ctx)
	if err != nil {
		if !errors.Is(err, ErrCancelled) {
			w.log.Error("file pick failed", err, nil)
		}
		return "", err
	}
	if file == nil {
		return "", ErrCancelled
	}

	uri := w.objects.Create(file.Data, file.ContentType)
	w.log.Debug("file registered", map[string]interface{}{
		"name":  file.Name,
		"bytes": len(file.Data),
		"uri":   uri,
	})
	return uri, nil
}

func (w *Web) Save(ctx context.Context, dataURL string) (SaveResult, error) {
	name := FileName(w.now())
	if err := w.download(ctx, name, dataURL); err != nil {
		return SaveResult{}, err
	}
	return SaveResult{FileName: name, Downloaded: true}, nil
}

// Share errors from the web-share capability are logged, not returned.
// A dismissed sheet is logged at info level, anything else as an error.
func (w *Web) Share(ctx context.Context, dataURL string) error {
	if w.sharer != nil && w.sharer.CanShare() {
		if err := w.sharer.Share(ctx, newShareRequest(dataURL)); err != nil {
			if errors.Is(err, ErrCancelled) || errors.Is(err, context.Canceled) {
				w.log.Info("web share dismissed", map[string]interface{}{"error": err.Error()})
			} else {
				w.log.Error("web share failed", err, nil)
			}
		}
		return nil
	}
	return w.download(ctx, FileName(w.now()), dataURL)
}

func (w *Web) download(ctx context.Context, name, dataURL string) error {
	data, err := decodePayload(dataURL)
	if err != nil {
		return err
	}
	if err := w.downloader.Download(ctx, name, data); err != nil {
		if errors.Is(err, ErrCancelled) {
			return err
		}
		return fmt.Errorf("download of %s failed: %w", name, err)
	}
	w.log.Info("meme downloaded", map[string]interface{}{"name": name, "bytes": len(data)})
	return nil
}

package platform

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"meme-maker/internal/logger"
)

// Native saves into a documents directory and shares through the device
// share sheet.
type Native struct {
	picker       PhotoPicker
	sheet        ShareSheet
	documentsDir string
	now          Clock
	log          logger.Logger
}

type NativeOption func(*Native)

func WithNativeClock(c Clock) NativeOption {
	return func(n *Native) { n.now = c }
}

func WithNativeLogger(l logger.Logger) NativeOption {
	return func(n *Native) { n.log = logger.ForComponent(l, "NativeBridge") }
}

func NewNative(picker PhotoPicker, sheet ShareSheet, documentsDir string, opts ...NativeOption) *Native {
	n := &Native{
		picker:       picker,
		sheet:        sheet,
		documentsDir: documentsDir,
		now:          time.Now,
		log:          logger.Nop(),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

func (n *Native) Name() Kind { return KindNative }

// PickImage returns the picked photo's location. An empty location is
// treated as a cancel.
func (n *Native) PickImage(ctx context.Context) (string, error) {
	uri, err := n.picker.PickPhoto(ctx)
	if err != nil {
		if !errors.Is(err, ErrCancelled) {
			n.log.Error("photo pick failed", err, nil)
		}
		return "", err
	}
	if uri == "" {
		return "", ErrCancelled
	}
	n.log.Debug("photo picked", map[string]interface{}{"uri": uri})
	return uri, nil
}

func (n *Native) Save(ctx context.Context, dataURL string) (SaveResult, error) {
	name := FileName(n.now())
	if err := ctx.Err(); err != nil {
		return SaveResult{}, err
	}
	data, err := decodePayload(dataURL)
	if err != nil {
		return SaveResult{}, err
	}

	if err := os.MkdirAll(n.documentsDir, 0o755); err != nil {
		return SaveResult{}, fmt.Errorf("failed to create documents directory: %w", err)
	}
	path := filepath.Join(n.documentsDir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return SaveResult{}, fmt.Errorf("failed to write %s: %w", name, err)
	}

	n.log.Info("meme saved", map[string]interface{}{"path": path, "bytes": len(data)})
	return SaveResult{FileName: name, Path: path}, nil
}

func (n *Native) Share(ctx context.Context, dataURL string) error {
	if err := n.sheet.Share(ctx, newShareRequest(dataURL)); err != nil {
		return fmt.Errorf("share failed: %w", err)
	}
	n.log.Debug("share sheet completed", nil)
	return nil
}

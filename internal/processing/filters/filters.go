package filters

import (
	"context"
	"fmt"
	"image"
	"strings"

	"meme-maker/internal/canvas"
	"meme-maker/internal/debug/timing"
	"meme-maker/internal/logger"
	"meme-maker/internal/opencv/conversion"
	"meme-maker/internal/opencv/memory"
	"meme-maker/internal/opencv/safe"
)

// MatFilter is a single OpenCV operation over an 8-bit BGRA Mat. It must
// return a new Mat and leave input untouched.
type MatFilter interface {
	Name() string
	Apply(ctx context.Context, input *safe.Mat) (*safe.Mat, error)
}

// OpenCVBackend builds canvas filters that run through gocv.
type OpenCVBackend struct {
	memory *memory.Manager
	timing *timing.Tracker
	log    logger.Logger
}

type BackendOption func(*OpenCVBackend)

// WithTimingTracker records the duration of every filter run by kind.
func WithTimingTracker(t *timing.Tracker) BackendOption {
	return func(b *OpenCVBackend) { b.timing = t }
}

func NewOpenCVBackend(mem *memory.Manager, log logger.Logger, opts ...BackendOption) *OpenCVBackend {
	b := &OpenCVBackend{
		memory: mem,
		timing: timing.NewTracker(0),
		log:    logger.ForComponent(log, "OpenCVBackend"),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Timing returns the tracker holding per-kind filter durations.
func (b *OpenCVBackend) Timing() *timing.Tracker {
	return b.timing
}

func (b *OpenCVBackend) Brightness(v float64) canvas.Filter {
	return b.wrap(NewBrightnessFilter(v))
}

func (b *OpenCVBackend) Contrast(v float64) canvas.Filter {
	return b.wrap(NewContrastFilter(v))
}

func (b *OpenCVBackend) Grayscale() canvas.Filter {
	return b.wrap(NewGrayscaleFilter())
}

func (b *OpenCVBackend) Blur(v float64) canvas.Filter {
	return b.wrap(NewBlurFilter(v))
}

func (b *OpenCVBackend) wrap(f MatFilter) canvas.Filter {
	return &imageFilter{filter: f, backend: b}
}

func (b *OpenCVBackend) tracker() safe.MemoryTracker {
	if b.memory == nil {
		return nil
	}
	return b.memory
}

// imageFilter adapts a MatFilter to canvas.Filter by converting through BGRA.
type imageFilter struct {
	filter  MatFilter
	backend *OpenCVBackend
}

func (f *imageFilter) Name() string {
	return f.filter.Name()
}

// Apply times every run that gets past the input checks, failed ones
// included.
func (f *imageFilter) Apply(ctx context.Context, img image.Image) (out image.Image, err error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	if img == nil {
		return nil, fmt.Errorf("input image is nil")
	}

	ctx = f.backend.timing.StartTiming(ctx, filterKind(f.filter.Name()))
	defer func() {
		elapsed := f.backend.timing.EndTiming(ctx)
		if err != nil {
			f.backend.log.Debug("filter failed", map[string]interface{}{
				"filter":      f.filter.Name(),
				"error":       err.Error(),
				"duration_ms": elapsed.Milliseconds(),
			})
			return
		}
		f.backend.log.Debug("filter applied", map[string]interface{}{
			"filter":      f.filter.Name(),
			"width":       out.Bounds().Dx(),
			"height":      out.Bounds().Dy(),
			"duration_ms": elapsed.Milliseconds(),
		})
	}()

	if f.backend.memory != nil {
		b := img.Bounds()
		// Input, output and a few BGR/alpha intermediates.
		if err := f.backend.memory.Reserve(int64(b.Dx()) * int64(b.Dy()) * 4 * 4); err != nil {
			return nil, err
		}
	}

	src, err := conversion.ImageToBGRA(img, f.backend.tracker())
	if err != nil {
		return nil, fmt.Errorf("image conversion failed: %w", err)
	}
	defer src.Close()

	dst, err := f.filter.Apply(ctx, src)
	if err != nil {
		return nil, err
	}
	defer dst.Close()

	out, err = conversion.BGRAToImage(dst)
	if err != nil {
		return nil, fmt.Errorf("result conversion failed: %w", err)
	}
	return out, nil
}

// filterKind strips the parameter list from a filter name.
func filterKind(name string) string {
	kind, _, _ := strings.Cut(name, "(")
	return kind
}

// colorOnly runs op on the BGR channels and reattaches the original alpha.
func colorOnly(src *safe.Mat, op func(bgr *safe.Mat) (*safe.Mat, error)) (*safe.Mat, error) {
	bgr, alpha, err := conversion.SplitAlpha(src)
	if err != nil {
		return nil, err
	}
	defer bgr.Close()
	defer alpha.Close()

	result, err := op(bgr)
	if err != nil {
		return nil, err
	}
	defer result.Close()

	return conversion.MergeAlpha(result, alpha)
}

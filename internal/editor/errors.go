package editor

import (
	"errors"
	"fmt"
)

var (
	// ErrImageLoad matches every *ImageLoadError.
	ErrImageLoad = errors.New("image load failed")
	// ErrNotInitialized is logged when an operation runs before Initialize.
	ErrNotInitialized = errors.New("editor canvas not initialized")
	// ErrExportUnavailable is returned by ExportPNG without a canvas.
	ErrExportUnavailable = errors.New("export unavailable: no canvas")
)

// ImageLoadError reports a source that could not be fetched or decoded.
type ImageLoadError struct {
	Source string
	Err    error
}

func (e *ImageLoadError) Error() string {
	return fmt.Sprintf("failed to load image %s: %v", describeSource(e.Source), e.Err)
}

func (e *ImageLoadError) Unwrap() error { return e.Err }

func (e *ImageLoadError) Is(target error) bool {
	return target == ErrImageLoad
}

// describeSource shortens data: URIs and other long sources for messages.
func describeSource(src string) string {
	const limit = 64
	if len(src) <= limit {
		return fmt.Sprintf("%q", src)
	}
	return fmt.Sprintf("%q...(%d bytes)", src[:limit], len(src))
}

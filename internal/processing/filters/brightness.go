package filters

import (
	"context"
	"fmt"
	"math"

	"meme-maker/internal/opencv/conversion"
	"meme-maker/internal/opencv/safe"
)

// BrightnessFilter adds round(v*255) to each colour channel.
type BrightnessFilter struct {
	value float64
}

func NewBrightnessFilter(v float64) *BrightnessFilter {
	return &BrightnessFilter{value: v}
}

func (b *BrightnessFilter) Name() string {
	return fmt.Sprintf("brightness(%.2f)", b.value)
}

func (b *BrightnessFilter) Apply(ctx context.Context, input *safe.Mat) (*safe.Mat, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	shift := math.Round(b.value * 255)
	if shift == 0 {
		return input.Clone("brightness_noop")
	}
	return colorOnly(input, func(bgr *safe.Mat) (*safe.Mat, error) {
		return conversion.ScaleShift(bgr, 1, shift)
	})
}

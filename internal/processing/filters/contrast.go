package filters

import (
	"context"
	"fmt"
	"math"

	"meme-maker/internal/opencv/conversion"
	"meme-maker/internal/opencv/safe"
)

// ContrastFilter stretches colour channels around mid-grey.
type ContrastFilter struct {
	value float64
}

func NewContrastFilter(v float64) *ContrastFilter {
	return &ContrastFilter{value: v}
}

func (c *ContrastFilter) Name() string {
	return fmt.Sprintf("contrast(%.2f)", c.value)
}

// Factor returns the multiplier applied around 128:
// 259*(c+255) / (255*(259-c)) with c = floor(v*255).
func (c *ContrastFilter) Factor() float64 {
	v := math.Floor(c.value * 255)
	return 259 * (v + 255) / (255 * (259 - v))
}

func (c *ContrastFilter) Apply(ctx context.Context, input *safe.Mat) (*safe.Mat, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	f := c.Factor()
	if f == 1 {
		return input.Clone("contrast_noop")
	}
	return colorOnly(input, func(bgr *safe.Mat) (*safe.Mat, error) {
		return conversion.ScaleShift(bgr, f, 128*(1-f))
	})
}

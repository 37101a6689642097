package filters

import (
	"context"
	"fmt"
	"math"

	"meme-maker/internal/opencv/conversion"
	"meme-maker/internal/opencv/safe"
)

// BlurFilter applies a Gaussian blur whose radius scales with the image.
type BlurFilter struct {
	value float64
}

func NewBlurFilter(v float64) *BlurFilter {
	return &BlurFilter{value: v}
}

func (b *BlurFilter) Name() string {
	return fmt.Sprintf("blur(%.2f)", b.value)
}

// Kernel returns sigma = v*min(w,h)/20 and an odd kernel of at least 3.
func (b *BlurFilter) Kernel(width, height int) (int, float64) {
	sigma := b.value * float64(min(width, height)) / 20
	if sigma <= 0 {
		return 0, 0
	}
	kernelSize := 2*int(math.Ceil(3*sigma)) + 1
	kernelSize = max(3, kernelSize)
	return kernelSize, sigma
}

func (b *BlurFilter) Apply(ctx context.Context, input *safe.Mat) (*safe.Mat, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	kernelSize, sigma := b.Kernel(input.Cols(), input.Rows())
	if kernelSize == 0 {
		return input.Clone("blur_noop")
	}
	return conversion.GaussianBlur(input, kernelSize, sigma)
}

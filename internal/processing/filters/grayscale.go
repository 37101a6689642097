package filters

import (
	"context"

	"meme-maker/internal/opencv/conversion"
	"meme-maker/internal/opencv/safe"
)

// GrayscaleFilter sets each colour channel to the mean of R, G and B.
type GrayscaleFilter struct{}

func NewGrayscaleFilter() *GrayscaleFilter {
	return &GrayscaleFilter{}
}

func (g *GrayscaleFilter) Name() string {
	return "grayscale"
}

func (g *GrayscaleFilter) Apply(ctx context.Context, input *safe.Mat) (*safe.Mat, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	return colorOnly(input, conversion.AverageGray)
}

package canvas

import (
	"context"
	"fmt"
	"image"
	"strings"
)

// Filter transforms a bitmap. Implementations must not modify their input.
type Filter interface {
	Name() string
	Apply(ctx context.Context, img image.Image) (image.Image, error)
}

// ApplyChain runs filters in order over src.
func ApplyChain(ctx context.Context, src image.Image, filters []Filter) (image.Image, error) {
	out := src
	for _, f := range filters {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		next, err := f.Apply(ctx, out)
		if err != nil {
			return nil, fmt.Errorf("filter %s failed: %w", f.Name(), err)
		}
		out = next
	}
	return out, nil
}

// ChainName joins filter names with '+', or returns "none".
func ChainName(filters []Filter) string {
	if len(filters) == 0 {
		return "none"
	}
	names := make([]string, len(filters))
	for i, f := range filters {
		names[i] = f.Name()
	}
	return strings.Join(names, "+")
}

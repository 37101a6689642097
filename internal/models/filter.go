package models

import "fmt"

const (
	MinBrightness = -0.5
	MaxBrightness = 0.5
	MinContrast   = -0.5
	MaxContrast   = 0.5
	MinBlur       = 0.0
	MaxBlur       = 1.0
)

// FilterPreset bundles pixel adjustments for the loaded image. A nil field
// means the filter is not applied.
type FilterPreset struct {
	Brightness *float64
	Contrast   *float64
	Grayscale  bool
	Blur       *float64
}

// Float returns a pointer to v, for building presets inline.
func Float(v float64) *float64 { return &v }

// WithBrightness returns a copy of p with brightness set.
func (p FilterPreset) WithBrightness(v float64) FilterPreset {
	p.Brightness = Float(v)
	return p
}

func (p FilterPreset) WithContrast(v float64) FilterPreset {
	p.Contrast = Float(v)
	return p
}

func (p FilterPreset) WithGrayscale(on bool) FilterPreset {
	p.Grayscale = on
	return p
}

func (p FilterPreset) WithBlur(v float64) FilterPreset {
	p.Blur = Float(v)
	return p
}

// Clone returns a deep copy of p.
func (p FilterPreset) Clone() FilterPreset {
	out := FilterPreset{Grayscale: p.Grayscale}
	if p.Brightness != nil {
		out.Brightness = Float(*p.Brightness)
	}
	if p.Contrast != nil {
		out.Contrast = Float(*p.Contrast)
	}
	if p.Blur != nil {
		out.Blur = Float(*p.Blur)
	}
	return out
}

// Clamp returns a copy of p with every present field clipped to its range.
func (p FilterPreset) Clamp() FilterPreset {
	out := FilterPreset{Grayscale: p.Grayscale}
	if p.Brightness != nil {
		out.Brightness = Float(clamp(*p.Brightness, MinBrightness, MaxBrightness))
	}
	if p.Contrast != nil {
		out.Contrast = Float(clamp(*p.Contrast, MinContrast, MaxContrast))
	}
	if p.Blur != nil {
		out.Blur = Float(clamp(*p.Blur, MinBlur, MaxBlur))
	}
	return out
}

// IsEmpty reports whether applying p would leave the bitmap untouched.
func (p FilterPreset) IsEmpty() bool {
	return p.Brightness == nil && p.Contrast == nil && !p.Grayscale && (p.Blur == nil || *p.Blur <= 0)
}

// Equal compares field values, not pointers.
func (p FilterPreset) Equal(o FilterPreset) bool {
	return floatPtrEqual(p.Brightness, o.Brightness) &&
		floatPtrEqual(p.Contrast, o.Contrast) &&
		p.Grayscale == o.Grayscale &&
		floatPtrEqual(p.Blur, o.Blur)
}

func (p FilterPreset) String() string {
	return fmt.Sprintf("brightness=%s contrast=%s grayscale=%t blur=%s",
		formatFloatPtr(p.Brightness), formatFloatPtr(p.Contrast), p.Grayscale, formatFloatPtr(p.Blur))
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func floatPtrEqual(a, b *float64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func formatFloatPtr(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.2f", *v)
}

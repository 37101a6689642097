package models

import (
	"fmt"
	"image"
	"strings"
	"time"
)

// SourceKind classifies where an image URI points.
type SourceKind int

const (
	SourceUnknown SourceKind = iota
	SourceBlob
	SourceData
	SourceFile
	SourceRemote
)

func (k SourceKind) String() string {
	switch k {
	case SourceBlob:
		return "blob"
	case SourceData:
		return "data"
	case SourceFile:
		return "file"
	case SourceRemote:
		return "remote"
	default:
		return "unknown"
	}
}

// IsLocal reports whether the source needs no cross-origin handling.
func (k SourceKind) IsLocal() bool {
	return k == SourceBlob || k == SourceData
}

// ClassifySource inspects the scheme of uri.
func ClassifySource(uri string) SourceKind {
	lower := strings.ToLower(strings.TrimSpace(uri))
	switch {
	case lower == "":
		return SourceUnknown
	case strings.HasPrefix(lower, "blob:"):
		return SourceBlob
	case strings.HasPrefix(lower, "data:"):
		return SourceData
	case strings.HasPrefix(lower, "http://"), strings.HasPrefix(lower, "https://"):
		return SourceRemote
	default:
		return SourceFile
	}
}

// ImageData represents a decoded bitmap with its metadata
type ImageData struct {
	Image      image.Image
	Width      int
	Height     int
	Format     string
	SourceURI  string
	SourceKind SourceKind
	LoadTime   time.Time
	DecodeTime time.Duration
	Metadata   ImageMetadata
}

// ImageMetadata contains additional information about the image
type ImageMetadata struct {
	FileSize    int64
	ContentType string
}

// NewImageData wraps a decoded image.
func NewImageData(img image.Image, format, uri string, size int64) *ImageData {
	bounds := img.Bounds()
	return &ImageData{
		Image:      img,
		Width:      bounds.Dx(),
		Height:     bounds.Dy(),
		Format:     format,
		SourceURI:  uri,
		SourceKind: ClassifySource(uri),
		LoadTime:   time.Now(),
		Metadata: ImageMetadata{
			FileSize:    size,
			ContentType: "image/" + format,
		},
	}
}

// Summary returns a short human readable description for status displays.
func (d *ImageData) Summary() string {
	if d == nil {
		return "No image loaded"
	}
	return fmt.Sprintf("Image: %dx%d, %s, %s", d.Width, d.Height, d.Format, d.SourceKind)
}

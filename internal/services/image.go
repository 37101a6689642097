package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"meme-maker/internal/logger"
	"meme-maker/internal/models"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

const (
	maxImageBytes = 64 << 20

	// MaxDecodeDimension and MaxDecodePixels bound the header-declared size
	// of an image before any pixel buffer is allocated.
	MaxDecodeDimension = 32768
	MaxDecodePixels    = 8192 * 8192

	defaultFetchTimeout = 30 * time.Second
)

var (
	ErrUnknownObjectURL = errors.New("unknown object URL")
	ErrEmptySource      = errors.New("empty image source")
	ErrImageTooLarge    = errors.New("image dimensions exceed limit")
)

// ImageService handles image acquisition and decoding
type ImageService struct {
	objects      *ObjectURLStore
	httpClient   *http.Client
	fetchTimeout time.Duration
	logger       logger.Logger
}

type ImageServiceOption func(*ImageService)

// WithHTTPClient replaces the client used for remote sources. The client's
// cookie jar is ignored so that requests stay credential-free. A nil client
// is ignored.
func WithHTTPClient(c *http.Client) ImageServiceOption {
	return func(is *ImageService) {
		if c == nil {
			return
		}
		clone := *c
		clone.Jar = nil
		is.httpClient = &clone
	}
}

// WithFetchTimeout bounds each remote request. It applies to whichever client
// ends up in use, regardless of option order. Non-positive values are ignored.
func WithFetchTimeout(d time.Duration) ImageServiceOption {
	return func(is *ImageService) {
		if d > 0 {
			is.fetchTimeout = d
		}
	}
}

func WithLogger(l logger.Logger) ImageServiceOption {
	return func(is *ImageService) {
		is.logger = logger.ForComponent(l, "ImageService")
	}
}

// NewImageService creates a new image service
func NewImageService(objects *ObjectURLStore, opts ...ImageServiceOption) *ImageService {
	if objects == nil {
		objects = NewObjectURLStore()
	}
	is := &ImageService{
		objects:    objects,
		httpClient: &http.Client{Timeout: defaultFetchTimeout},
		logger:     logger.Nop(),
	}
	for _, opt := range opts {
		opt(is)
	}
	if is.fetchTimeout > 0 {
		is.httpClient.Timeout = is.fetchTimeout
	}
	return is
}

// Objects returns the store that backs blob: URIs.
func (is *ImageService) Objects() *ObjectURLStore {
	return is.objects
}

// LoadImage resolves uri to bytes and decodes them. The context bounds remote
// fetches only; decoding always runs to completion.
func (is *ImageService) LoadImage(ctx context.Context, uri string) (*models.ImageData, error) {
	startTime := time.Now()
	data, err := is.Fetch(ctx, uri)
	if err != nil {
		return nil, err
	}

	imageData, err := is.Decode(data, uri)
	if err != nil {
		return nil, err
	}
	imageData.DecodeTime = time.Since(startTime)

	is.logger.Debug("image decoded", map[string]interface{}{
		"source_kind": imageData.SourceKind.String(),
		"format":      imageData.Format,
		"width":       imageData.Width,
		"height":      imageData.Height,
		"bytes":       imageData.Metadata.FileSize,
		"duration_ms": imageData.DecodeTime.Milliseconds(),
	})
	return imageData, nil
}

// Fetch returns the raw bytes behind uri.
func (is *ImageService) Fetch(ctx context.Context, uri string) ([]byte, error) {
	switch models.ClassifySource(uri) {
	case models.SourceUnknown:
		return nil, ErrEmptySource
	case models.SourceBlob:
		data, _, ok := is.objects.Resolve(uri)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownObjectURL, uri)
		}
		return data, nil
	case models.SourceData:
		parsed, err := ParseDataURI(uri)
		if err != nil {
			return nil, err
		}
		return parsed.Data, nil
	case models.SourceRemote:
		return is.fetchRemote(ctx, uri)
	default:
		return is.readFile(uri)
	}
}

// Decode decodes an image from its encoded bytes. The header is checked
// against MaxDecodeDimension and MaxDecodePixels first.
func (is *ImageService) Decode(data []byte, uri string) (*models.ImageData, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("failed to decode image: no data")
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	if err := checkDecodeSize(cfg.Width, cfg.Height); err != nil {
		is.logger.Warning("image rejected", map[string]interface{}{
			"width":  cfg.Width,
			"height": cfg.Height,
		})
		return nil, err
	}
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	bounds := img.Bounds()
	if bounds.Dx() <= 0 || bounds.Dy() <= 0 {
		return nil, fmt.Errorf("failed to decode image: empty bounds %v", bounds)
	}
	return models.NewImageData(img, format, uri, int64(len(data))), nil
}

// fetchRemote requests uri anonymously: no cookies, no userinfo and no
// Authorization header.
func (is *ImageService) fetchRemote(ctx context.Context, uri string) ([]byte, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return nil, fmt.Errorf("invalid image URL: %w", err)
	}
	u.User = nil

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build image request: %w", err)
	}
	req.Header.Set("Accept", "image/*")

	resp, err := is.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("image request returned status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read image data: %w", err)
	}
	if len(data) > maxImageBytes {
		return nil, fmt.Errorf("image exceeds %d bytes", maxImageBytes)
	}
	return data, nil
}

func (is *ImageService) readFile(uri string) ([]byte, error) {
	path := uri
	if strings.HasPrefix(strings.ToLower(uri), "file://") {
		u, err := url.Parse(uri)
		if err != nil {
			return nil, fmt.Errorf("invalid file URI: %w", err)
		}
		path = u.Path
	}

	// #nosec G304 -- path comes from the user's own picker
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("failed to read image data: %w", err)
	}
	return data, nil
}

func checkDecodeSize(width, height int) error {
	if width > MaxDecodeDimension || height > MaxDecodeDimension ||
		int64(width)*int64(height) > MaxDecodePixels {
		return fmt.Errorf("%w: %dx%d", ErrImageTooLarge, width, height)
	}
	return nil
}

package platform

import (
	"context"
	"errors"
	"fmt"

	"meme-maker/internal/config"
	"meme-maker/internal/services"
)

// ErrCancelled is returned when the user dismisses a picker.
var ErrCancelled = errors.New("cancelled by user")

const (
	ShareTitle       = "My Meme"
	ShareText        = "Check this meme"
	ShareDialogTitle = "Share Meme"
)

// Kind names a bridge variant.
type Kind string

const (
	KindNative Kind = "native"
	KindWeb    Kind = "web"
)

// Bridge abstracts the host capabilities the editor shell needs: picking an
// image, persisting the exported meme and handing it to a share target.
type Bridge interface {
	Name() Kind
	PickImage(ctx context.Context) (string, error)
	Save(ctx context.Context, dataURL string) (SaveResult, error)
	Share(ctx context.Context, dataURL string) error
}

// SaveResult describes where an export ended up.
type SaveResult struct {
	FileName   string
	Path       string
	Downloaded bool
}

// Message is the text shown to the user after a save.
func (r SaveResult) Message() string {
	if r.Downloaded {
		return fmt.Sprintf("Downloaded: %s", r.FileName)
	}
	return fmt.Sprintf("Saved: %s", r.FileName)
}

// ShareRequest is the payload handed to a share target.
type ShareRequest struct {
	Title       string
	Text        string
	URL         string
	DialogTitle string
}

func newShareRequest(dataURL string) ShareRequest {
	return ShareRequest{
		Title:       ShareTitle,
		Text:        ShareText,
		URL:         dataURL,
		DialogTitle: ShareDialogTitle,
	}
}

// PhotoPicker returns the location of a photo chosen by the user.
type PhotoPicker interface {
	PickPhoto(ctx context.Context) (string, error)
}

// PickedFile is the content of a file chosen in an open dialog.
type PickedFile struct {
	Name        string
	ContentType string
	Data        []byte
}

type FilePicker interface {
	PickFile(ctx context.Context) (*PickedFile, error)
}

// Downloader offers bytes to the user under a suggested file name.
type Downloader interface {
	Download(ctx context.Context, name string, data []byte) error
}

type ShareSheet interface {
	Share(ctx context.Context, req ShareRequest) error
}

// WebSharer is an optional share capability. CanShare reports whether it is
// usable in the current environment.
type WebSharer interface {
	CanShare() bool
	Share(ctx context.Context, req ShareRequest) error
}

// Detect picks the bridge variant for the platform setting. Auto selects
// native on mobile devices.
func Detect(p config.Platform, mobile bool) Kind {
	switch p {
	case config.PlatformNative:
		return KindNative
	case config.PlatformWeb:
		return KindWeb
	}
	if mobile {
		return KindNative
	}
	return KindWeb
}

// decodePayload extracts the image bytes from an exported data URL.
func decodePayload(dataURL string) ([]byte, error) {
	uri, err := services.ParseDataURI(dataURL)
	if err != nil {
		return nil, fmt.Errorf("invalid export payload: %w", err)
	}
	if len(uri.Data) == 0 {
		return nil, fmt.Errorf("invalid export payload: empty image")
	}
	return uri.Data, nil
}

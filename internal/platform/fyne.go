package platform

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
)

var imageExtensions = []string{".png", ".jpg", ".jpeg", ".gif", ".webp", ".bmp", ".tif", ".tiff"}

// FyneDialogs implements the picker, download, share-sheet and web-share
// capabilities with Fyne dialogs. Its methods block until the dialog closes
// and must not be called from the Fyne event goroutine.
type FyneDialogs struct {
	app    fyne.App
	window fyne.Window
	tmpDir string
}

func NewFyneDialogs(app fyne.App, window fyne.Window) *FyneDialogs {
	return &FyneDialogs{app: app, window: window, tmpDir: os.TempDir()}
}

type pickResult struct {
	reader fyne.URIReadCloser
	err    error
}

func (d *FyneDialogs) openDialog(ctx context.Context) (fyne.URIReadCloser, error) {
	done := make(chan pickResult, 1)
	fyne.Do(func() {
		fd := dialog.NewFileOpen(func(r fyne.URIReadCloser, err error) {
			done <- pickResult{reader: r, err: err}
		}, d.window)
		fd.SetFilter(storage.NewExtensionFileFilter(imageExtensions))
		fd.Show()
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-done:
		if res.err != nil {
			return nil, res.err
		}
		if res.reader == nil {
			return nil, ErrCancelled
		}
		return res.reader, nil
	}
}

// PickPhoto returns the URI of the chosen image.
func (d *FyneDialogs) PickPhoto(ctx context.Context) (string, error) {
	r, err := d.openDialog(ctx)
	if err != nil {
		return "", err
	}
	defer r.Close()
	return r.URI().String(), nil
}

// PickFile reads the chosen image into memory.
func (d *FyneDialogs) PickFile(ctx context.Context) (*PickedFile, error) {
	r, err := d.openDialog(ctx)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", r.URI().Name(), err)
	}
	return &PickedFile{Name: r.URI().Name(), ContentType: r.URI().MimeType(), Data: data}, nil
}

type saveResult struct {
	writer fyne.URIWriteCloser
	err    error
}

// Download asks where to store data, suggesting name.
func (d *FyneDialogs) Download(ctx context.Context, name string, data []byte) error {
	done := make(chan saveResult, 1)
	fyne.Do(func() {
		fd := dialog.NewFileSave(func(w fyne.URIWriteCloser, err error) {
			done <- saveResult{writer: w, err: err}
		}, d.window)
		fd.SetFileName(name)
		fd.Show()
	})

	var res saveResult
	select {
	case <-ctx.Done():
		return ctx.Err()
	case res = <-done:
	}
	if res.err != nil {
		return res.err
	}
	if res.writer == nil {
		return ErrCancelled
	}
	defer res.writer.Close()

	if _, err := res.writer.Write(data); err != nil {
		return fmt.Errorf("failed to write %s: %w", res.writer.URI().Name(), err)
	}
	return nil
}

// Share writes the image to a temporary file and opens it with the system
// handler, which offers the platform's share actions.
func (d *FyneDialogs) Share(ctx context.Context, req ShareRequest) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := decodePayload(req.URL)
	if err != nil {
		return err
	}

	path := filepath.Join(d.tmpDir, FileName(time.Now()))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to stage share file: %w", err)
	}
	target := &url.URL{Scheme: "file", Path: filepath.ToSlash(path)}
	if !strings.HasPrefix(target.Path, "/") {
		target.Path = "/" + target.Path
	}
	if err := d.app.OpenURL(target); err != nil {
		return fmt.Errorf("failed to open share target: %w", err)
	}

	fyne.Do(func() {
		dialog.ShowInformation(req.DialogTitle, fmt.Sprintf("%s\n%s", req.Title, req.Text), d.window)
	})
	return nil
}

// Clipboard shares by copying the data URL to the clipboard.
func (d *FyneDialogs) Clipboard() WebSharer {
	return clipboardSharer{d: d}
}

type clipboardSharer struct {
	d *FyneDialogs
}

func (c clipboardSharer) CanShare() bool {
	return c.d.window != nil && c.d.window.Clipboard() != nil
}

func (c clipboardSharer) Share(ctx context.Context, req ShareRequest) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	fyne.Do(func() {
		c.d.window.Clipboard().SetContent(req.URL)
		dialog.ShowInformation(req.DialogTitle, "Copied to clipboard: "+req.Title, c.d.window)
	})
	return nil
}

package components

import (
	"fmt"
	"sync"

	"meme-maker/internal/models"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
)

// StatusBar displays the status message, image and frame details and a
// busy indicator.
type StatusBar struct {
	container   *fyne.Container
	statusLabel *widget.Label
	imageInfo   *widget.Label
	frameInfo   *widget.Label
	busy        *widget.ProgressBarInfinite

	mu        sync.Mutex
	busyTasks map[string]bool
}

// Work that shows the busy indicator. Each is tracked on its own so one
// finishing does not hide the indicator while another runs.
const (
	TaskLoading   = "loading"
	TaskFiltering = "filtering"
	TaskExporting = "exporting"
)

func NewStatusBar() *StatusBar {
	sb := &StatusBar{busyTasks: make(map[string]bool)}
	sb.createComponents()
	sb.buildLayout()
	return sb
}

func (sb *StatusBar) createComponents() {
	sb.statusLabel = widget.NewLabel("Starting")
	sb.imageInfo = widget.NewLabel("No image loaded")
	sb.frameInfo = widget.NewLabel("Frame: --")
	sb.busy = widget.NewProgressBarInfinite()
	sb.busy.Stop()
	sb.busy.Hide()
}

func (sb *StatusBar) buildLayout() {
	sb.container = container.NewHBox(
		sb.statusLabel,
		widget.NewSeparator(),
		sb.imageInfo,
		widget.NewSeparator(),
		sb.frameInfo,
		sb.busy,
	)
}

func (sb *StatusBar) SetStatus(status string) {
	fyne.Do(func() {
		sb.statusLabel.SetText(status)
	})
}

func (sb *StatusBar) GetStatus() string {
	return sb.statusLabel.Text
}

// SetImageInfo shows a summary of info, or the empty message for nil.
func (sb *StatusBar) SetImageInfo(info *models.ImageData) {
	fyne.Do(func() {
		sb.imageInfo.SetText(info.Summary())
	})
}

func (sb *StatusBar) GetImageInfo() string {
	return sb.imageInfo.Text
}

func (sb *StatusBar) SetFrameInfo(preset models.FramePreset, size models.Size) {
	fyne.Do(func() {
		sb.frameInfo.SetText(fmt.Sprintf("Frame: %s %s", preset, size))
	})
}

func (sb *StatusBar) GetFrameInfo() string {
	return sb.frameInfo.Text
}

// SetBusy marks task as running or finished. The indicator shows while
// any task runs.
func (sb *StatusBar) SetBusy(task string, busy bool) {
	sb.mu.Lock()
	if busy {
		sb.busyTasks[task] = true
	} else {
		delete(sb.busyTasks, task)
	}
	show := len(sb.busyTasks) > 0
	sb.mu.Unlock()

	fyne.Do(func() {
		if show {
			sb.busy.Show()
			sb.busy.Start()
		} else {
			sb.busy.Stop()
			sb.busy.Hide()
		}
	})
}

func (sb *StatusBar) IsBusy() bool {
	sb.mu.Lock()
	defer sb.mu.Unlock()
	return len(sb.busyTasks) > 0
}

func (sb *StatusBar) GetContainer() *fyne.Container {
	return sb.container
}

package components

import (
	"meme-maker/internal/models"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
)

const (
	TopText    = "TOP TEXT"
	BottomText = "BOTTOM TEXT"
)

// Toolbar holds the editor actions and the frame selector.
type Toolbar struct {
	container        *fyne.Container
	pickButton       *widget.Button
	topTextButton    *widget.Button
	bottomTextButton *widget.Button
	saveButton       *widget.Button
	shareButton      *widget.Button
	clearButton      *widget.Button
	frameSelect      *widget.RadioGroup

	// Event handlers
	pickHandler        func()
	addTextHandler     func(string)
	saveHandler        func()
	shareHandler       func()
	clearHandler       func()
	frameChangeHandler func(models.FramePreset)

	// State
	ready   bool
	loading bool
	frame   models.FramePreset
}

func NewToolbar() *Toolbar {
	toolbar := &Toolbar{frame: models.FramePost}
	toolbar.createComponents()
	toolbar.buildLayout()
	toolbar.setupEventHandlers()
	toolbar.applyState()
	return toolbar
}

func (t *Toolbar) createComponents() {
	t.pickButton = widget.NewButton("Pick Image", nil)
	t.pickButton.Importance = widget.HighImportance

	t.topTextButton = widget.NewButton("Add Top Text", nil)
	t.bottomTextButton = widget.NewButton("Add Bottom Text", nil)

	t.saveButton = widget.NewButton("Save", nil)
	t.saveButton.Importance = widget.HighImportance
	t.shareButton = widget.NewButton("Share", nil)
	t.clearButton = widget.NewButton("Clear", nil)
	t.clearButton.Importance = widget.DangerImportance

	options := make([]string, len(models.FramePresets))
	for i, p := range models.FramePresets {
		options[i] = string(p)
	}
	t.frameSelect = widget.NewRadioGroup(options, nil)
	t.frameSelect.Horizontal = true
	t.frameSelect.Required = true
	t.frameSelect.SetSelected(string(t.frame))
}

func (t *Toolbar) buildLayout() {
	actionSection := container.NewHBox(
		t.pickButton,
		widget.NewSeparator(),
		t.topTextButton,
		t.bottomTextButton,
		widget.NewSeparator(),
		t.saveButton,
		t.shareButton,
		t.clearButton,
	)

	frameSection := container.NewHBox(
		widget.NewLabel("Frame"),
		t.frameSelect,
	)

	t.container = container.NewVBox(actionSection, frameSection)
}

func (t *Toolbar) setupEventHandlers() {
	t.pickButton.OnTapped = func() {
		if t.pickHandler != nil {
			t.pickHandler()
		}
	}
	t.topTextButton.OnTapped = func() {
		if t.addTextHandler != nil {
			t.addTextHandler(TopText)
		}
	}
	t.bottomTextButton.OnTapped = func() {
		if t.addTextHandler != nil {
			t.addTextHandler(BottomText)
		}
	}
	t.saveButton.OnTapped = func() {
		if t.saveHandler != nil {
			t.saveHandler()
		}
	}
	t.shareButton.OnTapped = func() {
		if t.shareHandler != nil {
			t.shareHandler()
		}
	}
	t.clearButton.OnTapped = func() {
		if t.clearHandler != nil {
			t.clearHandler()
		}
	}
	t.frameSelect.OnChanged = func(selected string) {
		preset := models.FramePreset(selected)
		if !preset.Valid() || preset == t.frame {
			return
		}
		t.frame = preset
		if t.frameChangeHandler != nil {
			t.frameChangeHandler(preset)
		}
	}
}

func (t *Toolbar) SetPickHandler(handler func()) {
	t.pickHandler = handler
}

// SetAddTextHandler sets the handler receiving the default caption of the
// pressed text button.
func (t *Toolbar) SetAddTextHandler(handler func(string)) {
	t.addTextHandler = handler
}

func (t *Toolbar) SetSaveHandler(handler func()) {
	t.saveHandler = handler
}

func (t *Toolbar) SetShareHandler(handler func()) {
	t.shareHandler = handler
}

func (t *Toolbar) SetClearHandler(handler func()) {
	t.clearHandler = handler
}

func (t *Toolbar) SetFrameChangeHandler(handler func(models.FramePreset)) {
	t.frameChangeHandler = handler
}

// SetReady enables the toolbar once the canvas exists.
func (t *Toolbar) SetReady(ready bool) {
	fyne.Do(func() {
		t.ready = ready
		t.applyState()
	})
}

// SetLoading disables picking while an image is being loaded.
func (t *Toolbar) SetLoading(loading bool) {
	fyne.Do(func() {
		t.loading = loading
		t.applyState()
	})
}

// SetFrame selects preset without notifying the frame handler.
func (t *Toolbar) SetFrame(preset models.FramePreset) {
	fyne.Do(func() {
		t.frame = preset
		t.frameSelect.SetSelected(string(preset))
	})
}

func (t *Toolbar) GetFrame() models.FramePreset {
	return t.frame
}

func (t *Toolbar) applyState() {
	setEnabled(t.pickButton, t.ready && !t.loading)
	for _, b := range []*widget.Button{t.topTextButton, t.bottomTextButton, t.saveButton, t.shareButton, t.clearButton} {
		setEnabled(b, t.ready)
	}
	if t.ready {
		t.frameSelect.Enable()
	} else {
		t.frameSelect.Disable()
	}
}

func setEnabled(b *widget.Button, enabled bool) {
	if enabled {
		b.Enable()
	} else {
		b.Disable()
	}
}

func (t *Toolbar) GetContainer() *fyne.Container {
	return t.container
}

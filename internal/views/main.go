package views

import (
	editorcanvas "meme-maker/internal/canvas"
	"meme-maker/internal/models"
	"meme-maker/internal/views/components"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"
)

// MainView lays out the editor window: toolbar on top, the canvas with the
// filter panel beside it, and the status bar below.
type MainView struct {
	window        fyne.Window
	mainContainer *fyne.Container
	toolbar       *components.Toolbar
	display       *components.CanvasDisplay
	filterPanel   *components.FilterPanel
	statusBar     *components.StatusBar

	textEditHandler func(*editorcanvas.TextNode, string)
}

func NewMainView(window fyne.Window) *MainView {
	view := &MainView{
		window: window,
	}

	view.initializeComponents()
	view.buildLayout()
	view.setupEventHandlers()

	return view
}

func (mv *MainView) initializeComponents() {
	mv.toolbar = components.NewToolbar()
	mv.display = components.NewCanvasDisplay()
	mv.filterPanel = components.NewFilterPanel()
	mv.statusBar = components.NewStatusBar()
}

func (mv *MainView) buildLayout() {
	content := container.NewHSplit(
		mv.display,
		container.NewVScroll(mv.filterPanel.GetContainer()),
	)
	content.SetOffset(0.75)

	mv.mainContainer = container.NewBorder(
		mv.toolbar.GetContainer(),
		mv.statusBar.GetContainer(),
		nil,
		nil,
		content,
	)

	mv.window.SetContent(mv.mainContainer)
}

func (mv *MainView) setupEventHandlers() {
	mv.display.SetEditTextHandler(mv.showTextEditor)
}

// showTextEditor asks for a new caption for node.
func (mv *MainView) showTextEditor(node *editorcanvas.TextNode) {
	entry := widget.NewMultiLineEntry()
	entry.SetText(node.Text())
	entry.SetMinRowsVisible(3)

	form := dialog.NewForm("Edit Text", "Apply", "Cancel",
		[]*widget.FormItem{widget.NewFormItem("Text", entry)},
		func(confirmed bool) {
			if confirmed && mv.textEditHandler != nil {
				mv.textEditHandler(node, entry.Text)
			}
		}, mv.window)
	form.Resize(fyne.NewSize(360, 200))
	form.Show()
}

// Event handler setters - called by controller

func (mv *MainView) SetPickImageHandler(handler func()) {
	mv.toolbar.SetPickHandler(handler)
}

func (mv *MainView) SetAddTextHandler(handler func(string)) {
	mv.toolbar.SetAddTextHandler(handler)
}

func (mv *MainView) SetSaveHandler(handler func()) {
	mv.toolbar.SetSaveHandler(handler)
}

func (mv *MainView) SetShareHandler(handler func()) {
	mv.toolbar.SetShareHandler(handler)
}

func (mv *MainView) SetClearHandler(handler func()) {
	mv.toolbar.SetClearHandler(handler)
}

func (mv *MainView) SetFrameChangeHandler(handler func(models.FramePreset)) {
	mv.toolbar.SetFrameChangeHandler(handler)
}

func (mv *MainView) SetFilterChangeHandler(handler func(models.FilterPreset)) {
	mv.filterPanel.SetChangeHandler(handler)
}

// SetTextEditHandler sets the handler receiving confirmed caption edits.
func (mv *MainView) SetTextEditHandler(handler func(*editorcanvas.TextNode, string)) {
	mv.textEditHandler = handler
}

// UI update methods - called by controller

// Surface is the display the editor canvas paints into.
func (mv *MainView) Surface() editorcanvas.Surface {
	return mv.display
}

// BindCanvas connects the display to the session's canvas.
func (mv *MainView) BindCanvas(c *editorcanvas.Canvas) {
	mv.display.Bind(c)
}

func (mv *MainView) SetReady(ready bool) {
	mv.toolbar.SetReady(ready)
	mv.filterPanel.SetEnabled(ready)
}

// SetLoading reflects an image load in progress.
func (mv *MainView) SetLoading(loading bool) {
	mv.toolbar.SetLoading(loading)
	mv.statusBar.SetBusy(components.TaskLoading, loading)
}

// SetFiltering reflects a filter application in progress.
func (mv *MainView) SetFiltering(filtering bool) {
	mv.statusBar.SetBusy(components.TaskFiltering, filtering)
}

// SetBusy reflects a save or share in progress.
func (mv *MainView) SetBusy(busy bool) {
	mv.statusBar.SetBusy(components.TaskExporting, busy)
}

func (mv *MainView) UpdateStatus(status string) {
	mv.statusBar.SetStatus(status)
}

func (mv *MainView) SetImageInfo(info *models.ImageData) {
	mv.statusBar.SetImageInfo(info)
}

func (mv *MainView) SetFrame(preset models.FramePreset, size models.Size) {
	mv.toolbar.SetFrame(preset)
	mv.statusBar.SetFrameInfo(preset, size)
}

// ResetFilters returns the filter controls to neutral without reporting a
// change.
func (mv *MainView) ResetFilters() {
	mv.filterPanel.Reset()
}

func (mv *MainView) ShowError(title string, err error) {
	fyne.Do(func() {
		d := dialog.NewError(err, mv.window)
		d.Show()
	})
}

func (mv *MainView) ShowInfo(title, message string) {
	fyne.Do(func() {
		dialog.ShowInformation(title, message, mv.window)
	})
}

func (mv *MainView) ShowConfirm(title, message string, callback func(bool)) {
	fyne.Do(func() {
		dialog.ShowConfirm(title, message, callback, mv.window)
	})
}

func (mv *MainView) GetWindow() fyne.Window {
	return mv.window
}

func (mv *MainView) GetContainer() *fyne.Container {
	return mv.mainContainer
}

func (mv *MainView) GetToolbar() *components.Toolbar {
	return mv.toolbar
}

func (mv *MainView) GetDisplay() *components.CanvasDisplay {
	return mv.display
}

func (mv *MainView) GetFilterPanel() *components.FilterPanel {
	return mv.filterPanel
}

func (mv *MainView) GetStatusBar() *components.StatusBar {
	return mv.statusBar
}

func (mv *MainView) Show() {
	fyne.Do(func() {
		mv.window.Show()
	})
}

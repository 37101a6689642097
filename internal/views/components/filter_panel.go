package components

import (
	"fmt"
	"math"

	"meme-maker/internal/models"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
)

const sliderStep = 0.05

// FilterPanel edits a FilterPreset. Every control change is merged into the
// current preset and reported to the change handler.
type FilterPanel struct {
	container *fyne.Container

	brightnessSlider *widget.Slider
	contrastSlider   *widget.Slider
	blurSlider       *widget.Slider
	grayscaleCheck   *widget.Check

	brightnessLabel *widget.Label
	contrastLabel   *widget.Label
	blurLabel       *widget.Label

	preset        models.FilterPreset
	changeHandler func(models.FilterPreset)
}

func NewFilterPanel() *FilterPanel {
	fp := &FilterPanel{}
	fp.createComponents()
	fp.buildLayout()
	fp.setupEventHandlers()
	return fp
}

func (fp *FilterPanel) createComponents() {
	fp.brightnessSlider = newStepSlider(models.MinBrightness, models.MaxBrightness)
	fp.contrastSlider = newStepSlider(models.MinContrast, models.MaxContrast)
	fp.blurSlider = newStepSlider(models.MinBlur, models.MaxBlur)
	fp.grayscaleCheck = widget.NewCheck("Grayscale", nil)

	fp.brightnessLabel = widget.NewLabel(sliderLabel("Brightness", 0))
	fp.contrastLabel = widget.NewLabel(sliderLabel("Contrast", 0))
	fp.blurLabel = widget.NewLabel(sliderLabel("Blur", 0))
}

func newStepSlider(lo, hi float64) *widget.Slider {
	s := widget.NewSlider(lo, hi)
	s.Step = sliderStep
	s.Value = 0
	return s
}

func (fp *FilterPanel) buildLayout() {
	fp.container = container.NewVBox(
		widget.NewRichTextFromMarkdown("**Filters**"),
		fp.brightnessLabel, fp.brightnessSlider,
		fp.contrastLabel, fp.contrastSlider,
		fp.grayscaleCheck,
		fp.blurLabel, fp.blurSlider,
	)
}

func (fp *FilterPanel) setupEventHandlers() {
	fp.brightnessSlider.OnChanged = func(v float64) {
		v = snap(v)
		fp.brightnessLabel.SetText(sliderLabel("Brightness", v))
		fp.update(fp.preset.WithBrightness(v))
	}
	fp.contrastSlider.OnChanged = func(v float64) {
		v = snap(v)
		fp.contrastLabel.SetText(sliderLabel("Contrast", v))
		fp.update(fp.preset.WithContrast(v))
	}
	fp.grayscaleCheck.OnChanged = func(on bool) {
		fp.update(fp.preset.WithGrayscale(on))
	}
	fp.blurSlider.OnChanged = func(v float64) {
		v = snap(v)
		fp.blurLabel.SetText(sliderLabel("Blur", v))
		fp.update(fp.preset.WithBlur(v))
	}
}

func (fp *FilterPanel) update(p models.FilterPreset) {
	if p.Equal(fp.preset) {
		return
	}
	fp.preset = p
	if fp.changeHandler != nil {
		fp.changeHandler(p.Clone())
	}
}

// snap rounds to hundredths to drop the drift slider steps accumulate.
func snap(v float64) float64 {
	return math.Round(v*100) / 100
}

func sliderLabel(name string, v float64) string {
	return fmt.Sprintf("%s: %.2f", name, v)
}

func (fp *FilterPanel) SetChangeHandler(handler func(models.FilterPreset)) {
	fp.changeHandler = handler
}

// Preset returns the preset built from the controls.
func (fp *FilterPanel) Preset() models.FilterPreset {
	return fp.preset.Clone()
}

// Reset returns every control to neutral without notifying the handler.
func (fp *FilterPanel) Reset() {
	fyne.Do(func() {
		handler := fp.changeHandler
		fp.changeHandler = nil
		fp.brightnessSlider.SetValue(0)
		fp.contrastSlider.SetValue(0)
		fp.blurSlider.SetValue(0)
		fp.grayscaleCheck.SetChecked(false)
		fp.preset = models.FilterPreset{}
		fp.changeHandler = handler
	})
}

func (fp *FilterPanel) SetEnabled(enabled bool) {
	fyne.Do(func() {
		for _, s := range []*widget.Slider{fp.brightnessSlider, fp.contrastSlider, fp.blurSlider} {
			if enabled {
				s.Enable()
			} else {
				s.Disable()
			}
		}
		if enabled {
			fp.grayscaleCheck.Enable()
		} else {
			fp.grayscaleCheck.Disable()
		}
	})
}

func (fp *FilterPanel) GetContainer() *fyne.Container {
	return fp.container
}

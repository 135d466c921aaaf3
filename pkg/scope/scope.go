// Package scope provides a fyne widget plotting measured and target pressure.
package scope

import (
	"image/color"
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/widget"
	"github.com/itohio/gopcr/pkg/trace"
)

// ScopeWidget is a custom Fyne widget that displays pressure traces oscilloscope style.
type ScopeWidget struct {
	widget.BaseWidget

	window float32

	// Data (protected by mu)
	mu      sync.RWMutex
	samples []trace.Sample
	scale   Scale

	maxDisplayPoints int
}

// Scale is the visible plot range.
type Scale struct {
	YMin, YMax float32 // psi
	XMin, XMax float32 // seconds
}

// New creates a new ScopeWidget showing at least window seconds.
func New(window float32) *ScopeWidget {
	if window <= 0 {
		window = trace.DefaultWindow
	}
	s := &ScopeWidget{
		window:           window,
		samples:          make([]trace.Sample, 0, 1000),
		maxDisplayPoints: 1000,
	}
	s.scale = AutoScale(nil, window)
	s.ExtendBaseWidget(s)
	s.Refresh()
	return s
}

// UpdateData replaces the plotted samples.
// This should be called from the trace callback using fyne.Do().
func (s *ScopeWidget) UpdateData(samples []trace.Sample) {
	s.mu.Lock()
	s.samples = trace.Downsample(s.samples, samples, s.maxDisplayPoints)
	s.scale = AutoScale(s.samples, s.window)
	s.mu.Unlock()

	s.Refresh()
}

// AutoScale fits the Y range to both traces with a 10% margin. Zero gauge is
// always visible and the X range spans at least window seconds.
func AutoScale(samples []trace.Sample, window float32) Scale {
	if len(samples) == 0 {
		return Scale{YMin: 0, YMax: 1, XMin: 0, XMax: window}
	}

	sc := Scale{YMin: 0, YMax: samples[0].Current}
	for _, p := range samples {
		sc.YMin = min(sc.YMin, p.Current, p.Target)
		sc.YMax = max(sc.YMax, p.Current, p.Target)
	}

	span := sc.YMax - sc.YMin
	if span == 0 {
		span = 1
	}
	sc.YMax += span * 0.1
	if sc.YMin < 0 {
		sc.YMin -= span * 0.1
	}

	sc.XMin = samples[0].Elapsed
	sc.XMax = samples[len(samples)-1].Elapsed
	if sc.XMax-sc.XMin < window {
		sc.XMax = sc.XMin + window
	}
	return sc
}

// CreateRenderer creates the widget renderer.
func (s *ScopeWidget) CreateRenderer() fyne.WidgetRenderer {
	grid := canvas.NewRectangle(color.RGBA{R: 20, G: 20, B: 20, A: 255})
	return &scopeRenderer{
		scope:   s,
		grid:    grid,
		objects: []fyne.CanvasObject{grid},
	}
}

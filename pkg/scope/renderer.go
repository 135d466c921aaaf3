package scope

import (
	"fmt"
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"github.com/itohio/gopcr/pkg/rig"
	"github.com/itohio/gopcr/pkg/trace"
)

var (
	gridColor    = color.RGBA{R: 40, G: 40, B: 40, A: 255}
	labelColor   = color.RGBA{R: 150, G: 150, B: 150, A: 255}
	currentColor = color.RGBA{R: 255, G: 165, B: 0, A: 255}  // Orange
	targetColor  = color.RGBA{R: 100, G: 200, B: 255, A: 255} // Light blue
	raiseColor   = color.RGBA{R: 0, G: 180, B: 0, A: 255}
	lowerColor   = color.RGBA{R: 200, G: 0, B: 0, A: 255}
)

// scopeRenderer renders the scope widget.
type scopeRenderer struct {
	scope *ScopeWidget

	grid    *canvas.Rectangle
	objects []fyne.CanvasObject

	lastSize fyne.Size
}

// plot is the drawing area inside the axis margins.
type plot struct {
	x, y, w, h float32
	sc         Scale
}

func (p plot) pos(t, v float32) fyne.Position {
	x := p.x + (t-p.sc.XMin)/(p.sc.XMax-p.sc.XMin)*p.w
	y := p.y + p.h - (v-p.sc.YMin)/(p.sc.YMax-p.sc.YMin)*p.h
	return fyne.NewPos(x, y)
}

// MinSize returns the minimum size of the widget.
func (r *scopeRenderer) MinSize() fyne.Size {
	return fyne.NewSize(400, 240)
}

// Layout arranges the widget components.
func (r *scopeRenderer) Layout(size fyne.Size) {
	r.grid.Resize(size)

	if r.lastSize != size {
		r.lastSize = size
		r.scope.BaseWidget.Refresh()
	}
}

// Refresh redraws the traces.
func (r *scopeRenderer) Refresh() {
	r.scope.mu.RLock()
	samples := make([]trace.Sample, len(r.scope.samples))
	copy(samples, r.scope.samples)
	sc := r.scope.scale
	r.scope.mu.RUnlock()

	size := r.scope.Size()
	if size.Width == 0 || size.Height == 0 {
		return
	}

	r.objects = []fyne.CanvasObject{r.grid}

	const (
		marginLeft   = 60
		marginRight  = 20
		marginTop    = 20
		marginBottom = 40
	)
	p := plot{
		x:  marginLeft,
		y:  marginTop,
		w:  size.Width - marginLeft - marginRight,
		h:  size.Height - marginTop - marginBottom,
		sc: sc,
	}

	r.drawGrid(p)
	r.drawChannels(p, samples)
	r.drawTrace(p, samples, targetColor, 2.5, func(s trace.Sample) float32 { return s.Target })
	r.drawTrace(p, samples, currentColor, 1.5, func(s trace.Sample) float32 { return s.Current })
}

// drawGrid draws the grid with psi and seconds labels.
func (r *scopeRenderer) drawGrid(p plot) {
	const numHLines = 8
	for i := range numHLines + 1 {
		y := p.y + float32(i)*p.h/numHLines
		r.line(fyne.NewPos(p.x, y), fyne.NewPos(p.x+p.w, y), gridColor, 1)

		value := p.sc.YMax - float32(i)*(p.sc.YMax-p.sc.YMin)/numHLines
		r.text(fmt.Sprintf("%.1f psi", value), fyne.NewPos(p.x-5, y-6), fyne.TextAlignTrailing)
	}

	const numVLines = 10
	for i := range numVLines + 1 {
		x := p.x + float32(i)*p.w/numVLines
		r.line(fyne.NewPos(x, p.y), fyne.NewPos(x, p.y+p.h), gridColor, 1)

		t := p.sc.XMin + float32(i)*(p.sc.XMax-p.sc.XMin)/numVLines
		r.text(fmt.Sprintf("%.1fs", t), fyne.NewPos(x-20, p.y+p.h+5), fyne.TextAlignCenter)
	}
}

// drawChannels marks energized ticks along the bottom edge: green while
// raising, red while lowering.
func (r *scopeRenderer) drawChannels(p plot, samples []trace.Sample) {
	for i := range len(samples) - 1 {
		var c color.Color
		switch samples[i].Channel {
		case rig.Raise:
			c = raiseColor
		case rig.Lower:
			c = lowerColor
		default:
			continue
		}
		a := p.pos(samples[i].Elapsed, p.sc.YMin)
		b := p.pos(samples[i+1].Elapsed, p.sc.YMin)
		r.line(fyne.NewPos(a.X, a.Y-2), fyne.NewPos(b.X, b.Y-2), c, 4)
	}
}

func (r *scopeRenderer) drawTrace(p plot, samples []trace.Sample, c color.Color, width float32, value func(trace.Sample) float32) {
	if len(samples) < 2 {
		return
	}
	prev := p.pos(samples[0].Elapsed, value(samples[0]))
	for _, s := range samples[1:] {
		next := p.pos(s.Elapsed, value(s))
		r.line(prev, next, c, width)
		prev = next
	}
}

func (r *scopeRenderer) line(a, b fyne.Position, c color.Color, width float32) {
	l := canvas.NewLine(c)
	l.Position1 = a
	l.Position2 = b
	l.StrokeWidth = width
	r.objects = append(r.objects, l)
}

func (r *scopeRenderer) text(s string, at fyne.Position, align fyne.TextAlign) {
	t := canvas.NewText(s, labelColor)
	t.TextSize = 10
	t.Alignment = align
	t.Move(at)
	r.objects = append(r.objects, t)
}

// Objects returns all canvas objects for rendering.
func (r *scopeRenderer) Objects() []fyne.CanvasObject {
	return r.objects
}

// Destroy cleans up resources.
func (r *scopeRenderer) Destroy() {}

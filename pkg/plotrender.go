package browser

import (
	"fmt"
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// PlotRenderer draws onto a gonum/plot figure. Vertical and horizontal
// markers span the data range seen so far, so waveform lines should be
// drawn before markers (the binding layer's sorted order does this for
// the usual wf_* naming).
type PlotRenderer struct {
	plot *plot.Plot

	hasData                bool
	minX, maxX, minY, maxY float64
}

func NewPlotRenderer(title, xLabel, yLabel string) *PlotRenderer {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = xLabel
	p.Y.Label.Text = yLabel
	return &PlotRenderer{plot: p}
}

var colorTable = map[string]color.RGBA{
	"":       {B: 255, A: 255},
	"blue":   {B: 255, A: 255},
	"red":    {R: 255, A: 255},
	"green":  {G: 160, A: 255},
	"black":  {A: 255},
	"orange": {R: 255, G: 165, A: 255},
	"gray":   {R: 128, G: 128, B: 128, A: 255},
}

func (r *PlotRenderer) styleLine(line *plotter.Line, style LineSpec) {
	rgba, ok := colorTable[style.Color]
	if !ok {
		rgba = colorTable[""]
	}
	line.Color = rgba
	width := style.Width
	if width <= 0 {
		width = 1
	}
	line.Width = vg.Points(width)
	if style.Dashed {
		line.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}
	}
}

func (r *PlotRenderer) DrawLine(x, y []float64, style LineSpec) (Artifact, error) {
	if len(x) != len(y) {
		return nil, fmt.Errorf("line has %d x values and %d y values", len(x), len(y))
	}
	points := make(plotter.XYs, len(x))
	for i := range x {
		points[i].X = x[i]
		points[i].Y = y[i]
		r.track(x[i], y[i])
	}
	line, err := plotter.NewLine(points)
	if err != nil {
		return nil, err
	}
	r.styleLine(line, style)
	r.plot.Add(line)
	return line, nil
}

func (r *PlotRenderer) DrawVLine(x float64, style LineSpec) (Artifact, error) {
	minY, maxY := r.minY, r.maxY
	if !r.hasData {
		minY, maxY = 0, 1
	}
	return r.DrawLine([]float64{x, x}, []float64{minY, maxY}, style)
}

func (r *PlotRenderer) DrawHLine(y float64, style LineSpec) (Artifact, error) {
	minX, maxX := r.minX, r.maxX
	if !r.hasData {
		minX, maxX = 0, 1
	}
	return r.DrawLine([]float64{minX, maxX}, []float64{y, y}, style)
}

func (r *PlotRenderer) AddLegend(text string, artifact Artifact) {
	if line, ok := artifact.(*plotter.Line); ok {
		r.plot.Legend.Add(text, line)
		return
	}
	r.plot.Legend.Add(text)
}

func (r *PlotRenderer) track(x, y float64) {
	if !r.hasData {
		r.minX, r.maxX, r.minY, r.maxY = x, x, y, y
		r.hasData = true
		return
	}
	if x < r.minX {
		r.minX = x
	}
	if x > r.maxX {
		r.maxX = x
	}
	if y < r.minY {
		r.minY = y
	}
	if y > r.maxY {
		r.maxY = y
	}
}

// Save writes the figure; the format follows the file extension
// (png, pdf, svg).
func (r *PlotRenderer) Save(filename string) error {
	return r.plot.Save(8*vg.Inch, 5*vg.Inch, filename)
}

package export

import (
	"fmt"
	"image/color"
	"io"
	"os"

	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/san-kum/mbsim/internal/analysis"
	"github.com/san-kum/mbsim/internal/dynamo"
	"github.com/san-kum/mbsim/internal/physics"
)

const (
	DefaultFigureWidth  = 12 * vg.Inch
	DefaultFigureHeight = 5 * vg.Inch
)

var (
	particleColor  = color.RGBA{R: 0x1f, G: 0x77, B: 0xb4, A: 0xff}
	histogramColor = color.RGBA{R: 0x1f, G: 0x77, B: 0xb4, A: 0x99}
	theoryColor    = color.RGBA{R: 0xd6, G: 0x27, B: 0x28, A: 0xff}
	speedColors    = [3]color.Color{
		color.RGBA{R: 0x2c, G: 0xa0, B: 0x2c, A: 0xff},
		color.RGBA{R: 0xff, G: 0x7f, B: 0x0e, A: 0xff},
		color.RGBA{R: 0x94, G: 0x67, B: 0xbd, A: 0xff},
	}
)

// FigureData is one ensemble snapshot to draw.
type FigureData struct {
	Positions  []r2.Vec
	Speeds     []float64
	DomainSize float64
	Mode       dynamo.Mode
	Param      float64
	Bins       int
}

// FigureFromGas captures the current state of g.
func FigureFromGas(g *physics.Gas, bins int) FigureData {
	return FigureData{
		Positions:  g.Positions(),
		Speeds:     g.Speeds(),
		DomainSize: g.DomainSize(),
		Mode:       g.Mode(),
		Param:      g.Param(),
		Bins:       bins,
	}
}

// ParticlePlot is the left panel: particle positions inside the box.
func ParticlePlot(d FigureData) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = "Particle positions"
	p.X.Label.Text = "x"
	p.Y.Label.Text = "y"
	p.X.Min, p.X.Max = 0, d.DomainSize
	p.Y.Min, p.Y.Max = 0, d.DomainSize

	xys := make(plotter.XYs, 0, len(d.Positions))
	for _, pos := range d.Positions {
		if pos.X < 0 || pos.X > d.DomainSize || pos.Y < 0 || pos.Y > d.DomainSize {
			continue
		}
		xys = append(xys, plotter.XY{X: pos.X, Y: pos.Y})
	}
	if len(xys) == 0 {
		return p, nil
	}
	sc, err := plotter.NewScatter(xys)
	if err != nil {
		return nil, err
	}
	sc.GlyphStyle.Color = particleColor
	sc.GlyphStyle.Radius = vg.Points(0.6)
	p.Add(sc)
	return p, nil
}

// DistributionPlot is the right panel: normalized speed histogram, the
// theoretical density and dashed markers at v_p, v_mean and v_rms.
func DistributionPlot(d FigureData) (*plot.Plot, error) {
	scale, err := dynamo.Scale(d.Mode, d.Param)
	if err != nil {
		return nil, err
	}
	maxwell := physics.Maxwell{Scale: scale}
	upper := analysis.PlotRange(d.Mode, d.Param)

	h, err := analysis.NewHistogram(d.Speeds, d.Bins, upper)
	if err != nil {
		return nil, err
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Speed distribution (%s=%g)", d.Mode.ParamName(), d.Param)
	p.X.Label.Text = "speed"
	p.Y.Label.Text = "probability density"
	p.X.Min, p.X.Max = 0, upper

	bars := &plotter.Histogram{
		Bins:      make([]plotter.HistogramBin, h.Bins()),
		Width:     upper / float64(h.Bins()),
		FillColor: histogramColor,
		LineStyle: plotter.DefaultLineStyle,
	}
	for i := range bars.Bins {
		bars.Bins[i] = plotter.HistogramBin{Min: h.Edges[i], Max: h.Edges[i+1], Weight: h.Density[i]}
	}
	bars.LineStyle.Width = vg.Points(0.3)
	p.Add(bars)
	p.Legend.Add("simulation", bars)

	curve := plotter.NewFunction(maxwell.PDF)
	curve.XMin, curve.XMax = 0, upper
	curve.Samples = analysis.TheorySamples
	curve.Color = theoryColor
	curve.Width = vg.Points(1.5)
	p.Add(curve)
	p.Legend.Add("Maxwell-Boltzmann", curve)

	top := maxwell.PDF(maxwell.MostProbable())
	for _, v := range h.Density {
		top = max(top, v)
	}
	speeds := maxwell.Speeds()
	markers := []struct {
		name string
		v    float64
	}{
		{"v_p", speeds.MostProbable},
		{"v_mean", speeds.Mean},
		{"v_rms", speeds.RMS},
	}
	for i, mk := range markers {
		line, err := plotter.NewLine(plotter.XYs{{X: mk.v, Y: 0}, {X: mk.v, Y: top}})
		if err != nil {
			return nil, err
		}
		line.Color = speedColors[i]
		line.Dashes = []vg.Length{vg.Points(4), vg.Points(3)}
		p.Add(line)
		p.Legend.Add(fmt.Sprintf("%s = %.3f", mk.name, mk.v), line)
	}
	p.Legend.Top = true
	return p, nil
}

// WriteFigure renders both panels side by side as PNG.
func WriteFigure(w io.Writer, d FigureData, width, height vg.Length) error {
	left, err := ParticlePlot(d)
	if err != nil {
		return err
	}
	right, err := DistributionPlot(d)
	if err != nil {
		return err
	}

	img := vgimg.New(width, height)
	dc := draw.New(img)
	tiles := draw.Tiles{
		Rows: 1, Cols: 2,
		PadX: vg.Millimeter * 4,
		PadTop: vg.Millimeter * 2, PadBottom: vg.Millimeter * 2,
		PadLeft: vg.Millimeter * 2, PadRight: vg.Millimeter * 2,
	}
	plots := [][]*plot.Plot{{left, right}}
	canvases := plot.Align(plots, tiles, dc)
	for j, p := range plots[0] {
		p.Draw(canvases[0][j])
	}

	_, err = vgimg.PngCanvas{Canvas: img}.WriteTo(w)
	return err
}

// SaveFigure writes the PNG figure to path.
func SaveFigure(path string, d FigureData) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteFigure(f, d, DefaultFigureWidth, DefaultFigureHeight); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

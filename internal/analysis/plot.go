package analysis

import (
	"fmt"
	"image/color"
	"io"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/powerlog/internal/protocol"
)

// Plot size used for saved images.
const (
	plotWidth  = 14 * vg.Inch
	plotHeight = 6 * vg.Inch
)

// NewPowerPlot draws power over time with the input level overlaid, scaled
// to the peak power so both share one axis.
func NewPowerPlot(ms []protocol.Measurement, title string) (*plot.Plot, error) {
	if len(ms) == 0 {
		return nil, ErrEmptyCapture
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Time (s)"
	p.Y.Label.Text = "Power (mW)"

	powerPts := make(plotter.XYs, len(ms))
	peak := 0.0
	for i, m := range ms {
		powerPts[i] = plotter.XY{X: float64(m.Time), Y: float64(m.Value)}
		if powerPts[i].Y > peak {
			peak = powerPts[i].Y
		}
	}
	inputPts := make(plotter.XYs, len(ms))
	for i, m := range ms {
		y := 0.0
		if m.DigitalInput {
			y = peak
		}
		inputPts[i] = plotter.XY{X: float64(m.Time), Y: y}
	}

	powerLine, err := plotter.NewLine(powerPts)
	if err != nil {
		return nil, fmt.Errorf("power line: %w", err)
	}
	powerLine.Color = color.RGBA{R: 31, G: 119, B: 180, A: 255}
	powerLine.Width = vg.Points(1)

	inputLine, err := plotter.NewLine(inputPts)
	if err != nil {
		return nil, fmt.Errorf("input line: %w", err)
	}
	inputLine.Color = color.RGBA{R: 214, G: 39, B: 40, A: 255}
	inputLine.Width = vg.Points(1)
	inputLine.StepStyle = plotter.PreStep

	p.Add(plotter.NewGrid(), powerLine, inputLine)
	p.Legend.Add("power_mw", powerLine)
	p.Legend.Add("input_pin", inputLine)
	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10

	return p, nil
}

// SavePowerPlot renders the power plot to path; the extension picks the
// image format.
func SavePowerPlot(ms []protocol.Measurement, title, path string) error {
	p, err := NewPowerPlot(ms, title)
	if err != nil {
		return err
	}
	if err := p.Save(plotWidth, plotHeight, path); err != nil {
		return fmt.Errorf("save plot: %w", err)
	}
	return nil
}

// WritePowerPlotPNG renders the power plot as PNG to w.
func WritePowerPlotPNG(w io.Writer, ms []protocol.Measurement, title string) error {
	p, err := NewPowerPlot(ms, title)
	if err != nil {
		return err
	}
	wt, err := p.WriterTo(plotWidth, plotHeight, "png")
	if err != nil {
		return err
	}
	_, err = wt.WriteTo(w)
	return err
}

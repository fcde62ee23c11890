// Package plot renders plot descriptions into image files. Descriptions
// are plain values handed in by the caller; the renderer keeps no figure
// state between calls.
package plot

import (
	"context"
	"image/color"
	"os"
	"time"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/Skryldev/bark-lab/domain/model"
	pkgerrors "github.com/Skryldev/bark-lab/pkg/errors"
)

var threshold = color.RGBA{R: 0xd0, G: 0x20, B: 0x20, A: 0xff}

// Renderer implements ports.PlotRenderer with gonum/plot
type Renderer struct{}

// NewRenderer creates a plot renderer
func NewRenderer() *Renderer {
	return &Renderer{}
}

// RenderWaveform writes the per-file volume plot: the amplitude trace with
// the cutoff drawn as a dashed threshold line, time formatted as a clock
// offset.
func (r *Renderer) RenderWaveform(ctx context.Context, desc model.WaveformPlot, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(desc.Times) == 0 {
		return pkgerrors.NewEmptySignalError()
	}

	p := plot.New()
	p.Title.Text = desc.Title
	p.X.Label.Text = "Time"
	p.Y.Label.Text = "Volume"
	p.X.Tick.Marker = clockTicks()

	trace := make(plotter.XYs, len(desc.Times))
	for i := range desc.Times {
		trace[i].X = desc.Times[i]
		trace[i].Y = desc.Amplitudes[i]
	}
	line, err := plotter.NewLine(trace)
	if err != nil {
		return err
	}
	p.Add(line)

	cut := plotter.XYs{
		{X: desc.Times[0], Y: desc.Cutoff},
		{X: desc.Times[len(desc.Times)-1], Y: desc.Cutoff},
	}
	cutLine, err := plotter.NewLine(cut)
	if err != nil {
		return err
	}
	cutLine.Color = threshold
	cutLine.Dashes = []vg.Length{vg.Points(4), vg.Points(3)}
	p.Add(cutLine)

	return p.Save(15*vg.Inch, 6*vg.Inch, path)
}

// RenderSummary writes the aggregate period plot: bark percentage, mean
// bark time and mean total time per day, tiled into one image.
func (r *Renderer) RenderSummary(ctx context.Context, desc model.SummaryPlot, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(desc.Days) == 0 {
		return pkgerrors.NewValidationError("days", 0, "nothing to summarize")
	}

	percent := plot.New()
	percent.Title.Text = desc.Title
	percent.Y.Label.Text = "Bark percentage"
	if err := addTrend(percent, desc.Days, func(d model.DaySummary) float64 {
		return d.BarkPercent
	}); err != nil {
		return err
	}

	bark := plot.New()
	bark.Title.Text = "Bark time"
	bark.Y.Tick.Marker = clockTicks()
	if err := addTrend(bark, desc.Days, func(d model.DaySummary) float64 {
		return d.MeanBark
	}); err != nil {
		return err
	}

	total := plot.New()
	total.Title.Text = "Total time"
	total.Y.Tick.Marker = clockTicks()
	if err := addTrend(total, desc.Days, func(d model.DaySummary) float64 {
		return d.MeanTotal
	}); err != nil {
		return err
	}

	img := vgimg.New(10*vg.Inch, 10*vg.Inch)
	dc := draw.New(img)
	tiles := draw.Tiles{
		Rows: 2, Cols: 2,
		PadX: vg.Millimeter * 4, PadY: vg.Millimeter * 4,
	}

	grid := [][]*plot.Plot{
		{percent, bark},
		{total, nil},
	}
	canvases := plot.Align(grid, tiles, dc)
	for i := range grid {
		for j := range grid[i] {
			if grid[i][j] != nil {
				grid[i][j].Draw(canvases[i][j])
			}
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return pkgerrors.NewIOError(path, "failed to create plot file", err)
	}
	defer f.Close()

	png := vgimg.PngCanvas{Canvas: img}
	if _, err := png.WriteTo(f); err != nil {
		return pkgerrors.NewIOError(path, "failed to write plot image", err)
	}
	return nil
}

func addTrend(p *plot.Plot, days []model.DaySummary, value func(model.DaySummary) float64) error {
	p.X.Tick.Marker = plot.TimeTicks{
		Format: "02-01-06",
		Time:   plot.UnixTimeIn(time.UTC),
	}

	xys := make(plotter.XYs, len(days))
	for i, d := range days {
		xys[i].X = float64(d.Day.Unix())
		xys[i].Y = value(d)
	}

	line, points, err := plotter.NewLinePoints(xys)
	if err != nil {
		return err
	}
	line.Color = threshold
	line.Dashes = []vg.Length{vg.Points(4), vg.Points(3)}
	points.Shape = draw.CrossGlyph{}
	points.Color = threshold
	p.Add(line, points)
	return nil
}

// clockTicks formats an axis of plain seconds as HH:MM:SS offsets.
func clockTicks() plot.TimeTicks {
	return plot.TimeTicks{
		Format: "15:04:05",
		Time:   plot.UnixTimeIn(time.UTC),
	}
}

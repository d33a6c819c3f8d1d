package main

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/Noofbiz/rnnwindow/datasets"
)

var palette = []color.RGBA{
	{R: 20, G: 80, B: 200, A: 255},
	{R: 40, G: 120, B: 40, A: 255},
	{R: 200, G: 120, B: 20, A: 255},
	{R: 120, G: 40, B: 160, A: 255},
	{R: 120, G: 120, B: 120, A: 255},
}

// plotBatch writes a PNG of the first example of b: one line per feature
// over the window steps and, when present, the targets as red points placed
// lookback steps after the window end.
func plotBatch(path string, b *datasets.Batch, features, targets []string, lookback int) error {
	if b.BatchSize == 0 {
		return fmt.Errorf("empty batch")
	}
	p := plot.New()
	p.Title.Text = fmt.Sprintf("Window for target row %d", b.Rows[0])
	p.X.Label.Text = "step"
	p.Y.Label.Text = "value"

	for f := range b.NumFeatures {
		xys := make(plotter.XYs, b.Timesteps)
		for s := range b.Timesteps {
			xys[s] = plotter.XY{X: float64(s), Y: float64(b.Feature(0, s, f))}
		}
		line, err := plotter.NewLine(xys)
		if err != nil {
			return err
		}
		line.Color = palette[f%len(palette)]
		line.Width = vg.Points(1)
		p.Add(line)
		if f < len(features) {
			p.Legend.Add(features[f], line)
		}
	}

	if b.HasTargets() {
		xys := make(plotter.XYs, b.NumTargets)
		for k := range b.NumTargets {
			xys[k] = plotter.XY{X: float64(b.Timesteps - 1 + lookback), Y: float64(b.Target(0, k))}
		}
		sc, err := plotter.NewScatter(xys)
		if err != nil {
			return err
		}
		sc.GlyphStyle.Color = color.RGBA{R: 200, G: 30, B: 30, A: 255}
		sc.GlyphStyle.Radius = vg.Points(3)
		p.Add(sc)
		label := "target"
		if len(targets) > 0 {
			label = targets[0]
		}
		p.Legend.Add(label, sc)
	}
	p.Add(plotter.NewGrid())

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return p.Save(8*vg.Inch, 5*vg.Inch, path)
}

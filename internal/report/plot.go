// Package report renders step responses as PNG plots and assembles
// tuning reports as PDF documents.
package report

import (
	"bytes"
	"fmt"
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/san-kum/pidlab/internal/sim"
)

var seriesColors = []color.Color{
	color.RGBA{B: 255, A: 255},
	color.RGBA{R: 255, A: 255},
	color.RGBA{G: 160, A: 255},
	color.RGBA{R: 255, G: 165, A: 255},
	color.RGBA{R: 128, B: 128, A: 255},
}

// Series names one trajectory entered into a plot.
type Series struct {
	Name       string
	Trajectory *sim.Trajectory
}

// ResponsePNG renders one or more output traces against a shared
// reference line. A nonzero tolerance adds a dashed band around the
// reference.
func ResponsePNG(title string, reference, tolerance float64, series []Series) ([]byte, error) {
	if len(series) == 0 {
		return nil, fmt.Errorf("report: nothing to plot")
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Time (s)"
	p.Y.Label.Text = "Output"
	p.Add(plotter.NewGrid())

	tEnd := series[0].Trajectory.Time[len(series[0].Trajectory.Time)-1]

	refLine, err := plotter.NewLine(plotter.XYs{{X: 0, Y: reference}, {X: tEnd, Y: reference}})
	if err != nil {
		return nil, fmt.Errorf("report: reference line: %w", err)
	}
	refLine.Color = color.Gray{Y: 100}
	refLine.LineStyle.Dashes = []vg.Length{vg.Points(4), vg.Points(4)}
	p.Add(refLine)
	p.Legend.Add("reference", refLine)

	if tolerance > 0 {
		band := tolerance * abs(reference)
		for _, y := range []float64{reference + band, reference - band} {
			line, err := plotter.NewLine(plotter.XYs{{X: 0, Y: y}, {X: tEnd, Y: y}})
			if err != nil {
				return nil, fmt.Errorf("report: tolerance line: %w", err)
			}
			line.Color = color.Gray{Y: 180}
			line.LineStyle.Dashes = []vg.Length{vg.Points(2), vg.Points(2)}
			p.Add(line)
		}
	}

	for i, s := range series {
		pts := make(plotter.XYs, len(s.Trajectory.Time))
		for j := range s.Trajectory.Time {
			pts[j] = plotter.XY{X: s.Trajectory.Time[j], Y: s.Trajectory.Output[j]}
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return nil, fmt.Errorf("report: series %s: %w", s.Name, err)
		}
		line.Color = seriesColors[i%len(seriesColors)]
		line.LineStyle.Width = vg.Points(1.5)
		p.Add(line)
		p.Legend.Add(s.Name, line)
	}

	p.Legend.Top = true
	return renderPNG(p)
}

// ControlPNG renders the control trace of a closed-loop run.
func ControlPNG(title string, traj *sim.Trajectory) ([]byte, error) {
	if traj.Control == nil {
		return nil, fmt.Errorf("report: trajectory has no control trace")
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Time (s)"
	p.Y.Label.Text = "Control"
	p.Add(plotter.NewGrid())

	pts := make(plotter.XYs, len(traj.Time))
	for i := range traj.Time {
		pts[i] = plotter.XY{X: traj.Time[i], Y: traj.Control[i]}
	}
	line, err := plotter.NewLine(pts)
	if err != nil {
		return nil, fmt.Errorf("report: control line: %w", err)
	}
	line.Color = seriesColors[1]
	line.LineStyle.Width = vg.Points(1.5)
	p.Add(line)

	return renderPNG(p)
}

func renderPNG(p *plot.Plot) ([]byte, error) {
	writer, err := p.WriterTo(vg.Points(640), vg.Points(360), "png")
	if err != nil {
		return nil, fmt.Errorf("report: render: %w", err)
	}
	buf := new(bytes.Buffer)
	if _, err := writer.WriteTo(buf); err != nil {
		return nil, fmt.Errorf("report: render: %w", err)
	}
	return buf.Bytes(), nil
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

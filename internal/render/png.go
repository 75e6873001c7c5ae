package render

import (
	"fmt"
	"io"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/RMahshie/ephyspipe/pkg/models"
)

// WriteBandPowerPNG draws one line per band power series against the
// spectrogram time axis.
func WriteBandPowerPNG(title string, times []float64, powers []models.ChannelPower, w io.Writer) error {
	if len(powers) == 0 {
		return &EmptyChannelSetError{Group: title}
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Time (s)"
	p.Y.Label.Text = "Mean power"
	p.Legend.Top = true
	p.Add(plotter.NewGrid())

	for i, pw := range powers {
		if len(pw.Power) != len(times) {
			return fmt.Errorf("%s power has %d points for %d time bins", pw.BandName, len(pw.Power), len(times))
		}
		pts := make(plotter.XYs, len(times))
		for j := range times {
			pts[j].X = times[j]
			pts[j].Y = pw.Power[j]
		}

		line, err := plotter.NewLine(pts)
		if err != nil {
			return fmt.Errorf("failed to plot %s: %w", pw.BandName, err)
		}
		line.Color = plotutil.Color(i)
		line.Width = vg.Points(1)
		p.Add(line)
		p.Legend.Add(fmt.Sprintf("%s (%g-%g Hz)", pw.BandName, pw.LowerFreq, pw.UpperFreq), line)
	}

	wt, err := p.WriterTo(10*vg.Inch, 4*vg.Inch, "png")
	if err != nil {
		return fmt.Errorf("failed to render png: %w", err)
	}
	_, err = wt.WriteTo(w)
	return err
}

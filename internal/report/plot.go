package report

import (
	"image/color"
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// ScatterPlot writes a predicted-vs-actual scatter with a y=x reference
// line. The format follows the file extension (png, svg, pdf).
func ScatterPlot(path, title string, predictions, actuals []float64) error {
	if len(predictions) != len(actuals) {
		return errors.Errorf("report: %d predictions, %d actuals", len(predictions), len(actuals))
	}
	if len(predictions) == 0 {
		return errors.New("report: nothing to plot")
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "actual"
	p.Y.Label.Text = "predicted"

	pts := make(plotter.XYs, len(predictions))
	lo, hi := math.Inf(1), math.Inf(-1)
	for i := range predictions {
		pts[i].X = actuals[i]
		pts[i].Y = predictions[i]
		lo = math.Min(lo, math.Min(actuals[i], predictions[i]))
		hi = math.Max(hi, math.Max(actuals[i], predictions[i]))
	}

	sc, err := plotter.NewScatter(pts)
	if err != nil {
		return err
	}
	sc.GlyphStyle.Color = color.RGBA{R: 20, G: 80, B: 200, A: 200}
	sc.GlyphStyle.Radius = vg.Points(2)
	p.Add(sc)
	p.Legend.Add("examples", sc)

	ref, err := plotter.NewLine(plotter.XYs{{X: lo, Y: lo}, {X: hi, Y: hi}})
	if err != nil {
		return err
	}
	ref.Color = color.RGBA{R: 200, G: 30, B: 30, A: 180}
	ref.Dashes = []vg.Length{vg.Points(4), vg.Points(4)}
	p.Add(ref)
	p.Legend.Add("y = x", ref)
	p.Add(plotter.NewGrid())

	if err := p.Save(6*vg.Inch, 6*vg.Inch, path); err != nil {
		return errors.Wrap(err, "save plot")
	}
	return nil
}

package visualize

import (
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/ezoic/nutritrack/pkg/errors"
)

// Bar is one bar of a probability chart.
type Bar struct {
	Label string
	// Class is the class index, used for the bar color.
	Class int
	Value float64
}

// ProbabilityPlot draws one bar per class in the given order. Values must lie
// in [0, 1].
func ProbabilityPlot(bars []Bar) (*plot.Plot, error) {
	if len(bars) == 0 {
		return nil, errors.NewValueError("ProbabilityPlot", "no bars")
	}

	p := plot.New()
	p.Title.Text = "Probabilitas Prediksi"
	p.Y.Label.Text = "Probabilitas"
	p.Y.Min, p.Y.Max = 0, 1

	names := make([]string, len(bars))
	for i, b := range bars {
		if b.Value < 0 || b.Value > 1 {
			return nil, errors.NewValueErrorf("ProbabilityPlot", "probability %v of %q outside [0, 1]", b.Value, b.Label)
		}
		bc, err := plotter.NewBarChart(plotter.Values{b.Value}, vg.Points(40))
		if err != nil {
			return nil, errors.Wrap(err, "bar chart")
		}
		bc.XMin = float64(i)
		bc.Color = ClassColor(b.Class)
		bc.LineStyle.Width = vg.Length(0)
		p.Add(bc)
		names[i] = b.Label
	}
	p.NominalX(names...)
	return p, nil
}

// ProbabilityPNG renders ProbabilityPlot at the default chart size.
func ProbabilityPNG(bars []Bar) ([]byte, error) {
	p, err := ProbabilityPlot(bars)
	if err != nil {
		return nil, err
	}
	return RenderPNG(p, ChartWidth, ChartHeight)
}

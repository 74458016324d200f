package report

import (
	"fmt"
	"image/color"
	"math"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/text"
	"gonum.org/v1/plot/vg"

	"telcochurn/internal/data"
	"telcochurn/internal/features"
	"telcochurn/internal/profile"
)

// Series is a named set of values drawn as a single box.
type Series struct {
	Name   string
	Values []float64
}

// ChartData is everything the Visualizer draws. Nil or empty parts are
// skipped.
type ChartData struct {
	Distributions []Series
	Exploration   *profile.Exploration
	NumericCorr   *features.Matrix
	FullCorr      *features.Matrix
}

// Visualizer writes PNG charts into Dir.
type Visualizer struct {
	Dir    string
	logger *zap.Logger
}

var groupColors = []color.Color{
	color.RGBA{R: 161, G: 201, B: 244, A: 255},
	color.RGBA{R: 255, G: 180, B: 130, A: 255},
	color.RGBA{R: 141, G: 229, B: 161, A: 255},
	color.RGBA{R: 255, G: 159, B: 155, A: 255},
}

func NewVisualizer(dir string, logger *zap.Logger) *Visualizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Visualizer{Dir: dir, logger: logger}
}

// Render draws every chart d has data for and returns the written paths.
func (v *Visualizer) Render(d ChartData) ([]string, error) {
	if err := os.MkdirAll(v.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: %w", data.ErrIO, err)
	}

	var written []string
	save := func(p *plot.Plot, name string, w, h vg.Length) error {
		path := filepath.Join(v.Dir, name)
		if err := p.Save(w, h, path); err != nil {
			return fmt.Errorf("%w: saving %s: %w", data.ErrIO, name, err)
		}
		written = append(written, path)
		v.logger.Debug("chart written", zap.String("path", path))
		return nil
	}

	for _, s := range d.Distributions {
		p, err := boxPlots("Boxplot of "+s.Name, "", []Series{{Name: s.Name, Values: s.Values}})
		if err != nil {
			return written, err
		}
		if err := save(p, "boxplot_"+fileName(s.Name)+".png", 3*vg.Inch, 4*vg.Inch); err != nil {
			return written, err
		}
	}

	if e := d.Exploration; e != nil {
		if len(e.TargetCounts) > 0 {
			p, err := countBars(e.Target+" Distribution", e.TargetCounts)
			if err != nil {
				return written, err
			}
			if err := save(p, fileName(e.Target)+"_distribution.png", 4*vg.Inch, 3*vg.Inch); err != nil {
				return written, err
			}
		}

		for _, ct := range e.Crosstabs {
			p, err := groupedBars(ct, e.Target)
			if err != nil {
				return written, err
			}
			if err := save(p, fileName(ct.Feature)+"_vs_"+fileName(e.Target)+".png", 5*vg.Inch, 4*vg.Inch); err != nil {
				return written, err
			}
		}

		for _, g := range e.Grouped {
			series := make([]Series, len(g.Targets))
			for i, t := range g.Targets {
				series[i] = Series{Name: t, Values: g.Values[i]}
			}
			p, err := boxPlots(g.Column+" vs "+e.Target, e.Target, series)
			if err != nil {
				return written, err
			}
			p.Y.Label.Text = g.Column
			if err := save(p, fileName(g.Column)+"_by_"+fileName(e.Target)+".png", 4*vg.Inch, 4*vg.Inch); err != nil {
				return written, err
			}
		}
	}

	if d.NumericCorr != nil {
		p, err := heatMap("Correlation Matrix", d.NumericCorr, moreland.SmoothBlueTan())
		if err != nil {
			return written, err
		}
		if err := save(p, "correlation_numeric.png", 5*vg.Inch, 4*vg.Inch); err != nil {
			return written, err
		}
	}

	if d.FullCorr != nil {
		p, err := heatMap("Correlation Heatmap of All Features", d.FullCorr, moreland.SmoothBlueRed())
		if err != nil {
			return written, err
		}
		if err := save(p, "correlation_full.png", 14*vg.Inch, 10*vg.Inch); err != nil {
			return written, err
		}
	}

	v.logger.Info("charts rendered", zap.String("dir", v.Dir), zap.Int("count", len(written)))
	return written, nil
}

func fileName(name string) string {
	return strings.ToLower(strings.ReplaceAll(name, " ", "_"))
}

func boxPlots(title, xLabel string, series []Series) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = xLabel

	names := make([]string, len(series))
	for i, s := range series {
		names[i] = s.Name
		if len(s.Values) == 0 {
			continue
		}
		box, err := plotter.NewBoxPlot(vg.Points(40), float64(i), plotter.Values(s.Values))
		if err != nil {
			return nil, fmt.Errorf("boxplot %s: %w", s.Name, err)
		}
		box.FillColor = groupColors[i%len(groupColors)]
		p.Add(box)
	}
	p.NominalX(names...)
	return p, nil
}

func countBars(title string, counts []profile.ValueCount) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = title
	p.Y.Label.Text = "count"

	values := make(plotter.Values, len(counts))
	names := make([]string, len(counts))
	for i, vc := range counts {
		values[i] = float64(vc.Count)
		names[i] = vc.Value
	}

	bars, err := plotter.NewBarChart(values, vg.Points(40))
	if err != nil {
		return nil, fmt.Errorf("bar chart %s: %w", title, err)
	}
	bars.Color = groupColors[0]
	bars.LineStyle.Width = vg.Length(0)
	p.Add(bars)
	p.NominalX(names...)
	return p, nil
}

// groupedBars draws one bar per feature value for each target value, side
// by side.
func groupedBars(ct profile.Crosstab, target string) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = ct.Feature + " vs " + target
	p.Y.Label.Text = "count"
	p.Legend.Top = true

	width := vg.Points(16)
	for j, value := range ct.Targets {
		values := make(plotter.Values, len(ct.Values))
		for i := range ct.Values {
			values[i] = float64(ct.Counts[i][j])
		}
		bars, err := plotter.NewBarChart(values, width)
		if err != nil {
			return nil, fmt.Errorf("bar chart %s: %w", ct.Feature, err)
		}
		bars.Color = groupColors[j%len(groupColors)]
		bars.LineStyle.Width = vg.Length(0)
		bars.Offset = vg.Length(float64(j)-float64(len(ct.Targets)-1)/2) * width
		p.Add(bars)
		p.Legend.Add(value, bars)
	}
	p.NominalX(ct.Values...)
	return p, nil
}

// corrGrid lays a correlation matrix out with the first name at the top.
type corrGrid struct {
	m *features.Matrix
}

func (g corrGrid) Dims() (c, r int) {
	n := len(g.m.Names)
	return n, n
}

func (g corrGrid) Z(c, r int) float64 {
	n := len(g.m.Names)
	return g.m.Corr.At(n-1-r, c)
}

func (g corrGrid) X(c int) float64 { return float64(c) }
func (g corrGrid) Y(r int) float64 { return float64(r) }

func heatMap(title string, m *features.Matrix, cm palette.ColorMap) (*plot.Plot, error) {
	n := len(m.Names)
	if n == 0 {
		return nil, fmt.Errorf("%w: empty correlation matrix", data.ErrValue)
	}

	cm.SetMin(-1)
	cm.SetMax(1)

	grid := corrGrid{m: m}
	hm := plotter.NewHeatMap(grid, cm.Palette(255))
	hm.Min, hm.Max = -1, 1
	hm.NaN = color.Gray{Y: 200}

	p := plot.New()
	p.Title.Text = title
	p.Add(hm)

	xys := make(plotter.XYs, 0, n*n)
	labels := make([]string, 0, n*n)
	for r := 0; r < n; r++ {
		for c := 0; c < n; c++ {
			z := grid.Z(c, r)
			xys = append(xys, plotter.XY{X: float64(c), Y: float64(r)})
			if math.IsNaN(z) {
				labels = append(labels, "nan")
			} else {
				labels = append(labels, fmt.Sprintf("%.2f", z))
			}
		}
	}
	annotations, err := plotter.NewLabels(plotter.XYLabels{XYs: xys, Labels: labels})
	if err != nil {
		return nil, fmt.Errorf("heatmap labels: %w", err)
	}
	for i := range annotations.TextStyle {
		annotations.TextStyle[i].XAlign = text.XCenter
		annotations.TextStyle[i].YAlign = text.YCenter
	}
	p.Add(annotations)

	reversed := make([]string, n)
	for i, name := range m.Names {
		reversed[n-1-i] = name
	}
	p.NominalX(m.Names...)
	p.NominalY(reversed...)
	p.X.Tick.Label.Rotation = math.Pi / 4
	p.X.Tick.Label.XAlign = text.XRight
	return p, nil
}

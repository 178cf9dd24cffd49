package dashboard

import (
	"bytes"
	"errors"
	"fmt"
	"image/color"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/David-Botos/form-ingress/pkg/report"
)

var errNoData = errors.New("no data to plot")

var (
	barColor  = color.RGBA{R: 70, G: 130, B: 180, A: 255}
	lineColor = color.RGBA{R: 220, G: 90, B: 60, A: 255}
)

type chartSpec struct {
	title  string
	xLabel string
	line   bool
	series func(report.Summary) ([]string, []float64)
}

var charts = map[string]chartSpec{
	"packs":       {"Répartition des packs", "Pack", false, fromCounts(func(s report.Summary) []report.Count { return s.Packs })},
	"prices":      {"Prix des packs", "Prix (FCFA)", false, fromCounts(func(s report.Summary) []report.Count { return s.Prices })},
	"countries":   {"Participants par pays", "Pays", false, fromCounts(func(s report.Summary) []report.Count { return s.Countries })},
	"ages":        {"Tranches d'âge", "Âge", false, fromCounts(func(s report.Summary) []report.Count { return s.AgeBrackets })},
	"generations": {"Générations", "Génération", false, fromCounts(func(s report.Summary) []report.Count { return s.Generations })},
	"payments":    {"Méthodes de paiement", "Méthode", false, fromCounts(func(s report.Summary) []report.Count { return s.Payments })},
	"emails":      {"Types d'email", "Fournisseur", false, fromCounts(func(s report.Summary) []report.Count { return s.EmailTypes })},
	"daily":       {"Inscriptions par jour", "Date", true, fromBuckets(func(s report.Summary) []report.Bucket { return s.PerDay })},
	"hourly":      {"Inscriptions par heure", "Heure", false, fromBuckets(func(s report.Summary) []report.Bucket { return s.PerHour })},
	"weekday":     {"Inscriptions par jour de la semaine", "Jour", false, fromBuckets(func(s report.Summary) []report.Bucket { return s.PerWeekday })},
}

func isChart(name string) bool {
	_, ok := charts[name]
	return ok
}

func fromCounts(get func(report.Summary) []report.Count) func(report.Summary) ([]string, []float64) {
	return func(s report.Summary) ([]string, []float64) {
		counts := get(s)
		labels := make([]string, len(counts))
		values := make([]float64, len(counts))
		for i, c := range counts {
			labels[i] = c.Label
			values[i] = float64(c.Count)
		}
		return labels, values
	}
}

func fromBuckets(get func(report.Summary) []report.Bucket) func(report.Summary) ([]string, []float64) {
	return func(s report.Summary) ([]string, []float64) {
		buckets := get(s)
		labels := make([]string, len(buckets))
		values := make([]float64, len(buckets))
		for i, b := range buckets {
			labels[i] = b.Label
			values[i] = float64(b.Count)
		}
		return labels, values
	}
}

// renderChart draws one named chart of the summary as PNG
func renderChart(name string, s report.Summary) ([]byte, error) {
	spec, ok := charts[name]
	if !ok {
		return nil, fmt.Errorf("unknown chart %q", name)
	}
	labels, values := spec.series(s)
	total := 0.0
	for _, v := range values {
		total += v
	}
	if total == 0 {
		return nil, fmt.Errorf("%w: %s", errNoData, name)
	}

	p := plot.New()
	p.Title.Text = spec.title
	p.Title.TextStyle.Font.Size = vg.Points(14)
	p.X.Label.Text = spec.xLabel
	p.Y.Label.Text = "Réponses"
	p.Y.Min = 0

	if spec.line {
		points := make(plotter.XYs, len(values))
		for i, v := range values {
			points[i].X = float64(i)
			points[i].Y = v
		}
		line, err := plotter.NewLine(points)
		if err != nil {
			return nil, fmt.Errorf("failed to draw %s: %w", name, err)
		}
		line.Color = lineColor
		line.Width = vg.Points(2)
		p.Add(line)
	} else {
		bars, err := plotter.NewBarChart(plotter.Values(values), vg.Points(18))
		if err != nil {
			return nil, fmt.Errorf("failed to draw %s: %w", name, err)
		}
		bars.Color = barColor
		bars.LineStyle.Width = vg.Length(0)
		p.Add(bars)
	}
	p.Add(plotter.NewGrid())

	p.NominalX(labels...)
	if len(labels) > 6 {
		p.X.Tick.Label.Rotation = math.Pi / 4
		p.X.Tick.Label.XAlign = draw.XRight
		p.X.Tick.Label.YAlign = draw.YCenter
	}

	wt, err := p.WriterTo(9*vg.Inch, 5*vg.Inch, "png")
	if err != nil {
		return nil, fmt.Errorf("failed to render %s: %w", name, err)
	}
	var buf bytes.Buffer
	if _, err := wt.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to encode %s: %w", name, err)
	}
	return buf.Bytes(), nil
}

// Package report renders distribution charts for LAS files: HTML
// pages via go-echarts and PNG plots via gonum/plot.
package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/pointpack/internal/las"
	"github.com/banshee-data/pointpack/internal/las/lasio"
	"github.com/banshee-data/pointpack/internal/las/packing"
	"github.com/banshee-data/pointpack/internal/las/stats"
)

// elevationProbs are the quantile probabilities of the elevation
// profile chart.
var elevationProbs = []float64{0, 0.05, 0.1, 0.25, 0.5, 0.75, 0.9, 0.95, 1}

// WriteHTML renders the classification and return-number histograms
// plus an elevation quantile profile as one HTML page.
func WriteHTML(w io.Writer, f *lasio.File) error {
	pf, err := f.Format()
	if err != nil {
		return err
	}
	expanded, err := packing.UnpackRecords(f.Points, pf)
	if err != nil {
		return fmt.Errorf("failed to unpack records: %w", err)
	}
	subtitle := fmt.Sprintf("%d points, point format %d", f.Points.Len(), pf.ID())

	page := components.NewPage()
	page.PageTitle = "LAS report"

	for _, chart := range []struct {
		column string
		title  string
	}{
		{"classification", "Classification histogram"},
		{"return_number", "Return number histogram"},
	} {
		col, ok := expanded.Column(chart.column)
		if !ok {
			continue
		}
		bar, err := histogramBar(col, chart.title, subtitle)
		if err != nil {
			return err
		}
		page.AddCharts(bar)
	}

	if z, ok := f.Points.Column("Z"); ok && z.Len() > 0 {
		line, err := elevationLine(z, f.Header.Scale[2], f.Header.Offset[2], subtitle)
		if err != nil {
			return err
		}
		page.AddCharts(line)
	}

	if err := page.Render(w); err != nil {
		return fmt.Errorf("render error: %v", err)
	}
	return nil
}

// histogramBar builds a bar chart of the values in use in a
// single-byte column.
func histogramBar(col *las.Column, title, subtitle string) (*charts.Bar, error) {
	counts, err := stats.ValueCounts(col)
	if err != nil {
		return nil, err
	}
	var x []string
	var y []opts.BarData
	for v, n := range counts {
		if n == 0 {
			continue
		}
		x = append(x, strconv.Itoa(v))
		y = append(y, opts.BarData{Value: n})
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "100%", Height: "480px"}),
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: subtitle}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	bar.SetXAxis(x).
		AddSeries(col.Name, y,
			charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "top"}),
		)
	return bar, nil
}

// elevationLine builds a quantile profile of the scaled Z column.
func elevationLine(z *las.Column, scale, offset float64, subtitle string) (*charts.Line, error) {
	quantiles, err := stats.Quantiles(z, elevationProbs)
	if err != nil {
		return nil, err
	}
	var x []string
	var y []opts.LineData
	for i, p := range elevationProbs {
		x = append(x, fmt.Sprintf("p%02.0f", p*100))
		y = append(y, opts.LineData{Value: quantiles[i]*scale + offset})
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "100%", Height: "480px"}),
		charts.WithTitleOpts(opts.Title{Title: "Elevation quantiles", Subtitle: subtitle}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithYAxisOpts(opts.YAxis{Name: "elevation"}),
	)
	line.SetXAxis(x).AddSeries("Z", y)
	return line, nil
}

// SaveElevationPNG writes a histogram of scaled elevations to path.
func SaveElevationPNG(path string, f *lasio.File) error {
	z, ok := f.Points.Column("Z")
	if !ok {
		return fmt.Errorf("batch has no Z column")
	}
	if z.Len() == 0 {
		return fmt.Errorf("no points to plot")
	}
	values := stats.Scaled(z, f.Header.Scale[2], f.Header.Offset[2])

	p := plot.New()
	p.Title.Text = "Elevation distribution"
	p.X.Label.Text = "elevation"
	p.Y.Label.Text = "points"

	h, err := plotter.NewHist(plotter.Values(values), 40)
	if err != nil {
		return fmt.Errorf("failed to build histogram: %w", err)
	}
	p.Add(h)

	if err := p.Save(10*vg.Inch, 6*vg.Inch, path); err != nil {
		return fmt.Errorf("failed to save plot: %w", err)
	}
	return nil
}

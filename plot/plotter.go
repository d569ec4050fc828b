// Package plot renders a trained model's centroids and cluster sizes as
// standalone HTML charts, grounded on the teacher's go-echarts based
// reporting.
package plot

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/AvraamMavridis/randomcolor"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"kmscale/model"
)

// Reporter renders a trained model.Output to HTML charts on disk.
type Reporter struct {
	// ScatterPath and BarPath override the default output file names when
	// non-empty.
	ScatterPath string
	BarPath     string
}

// GenerateScatterPlot renders one 2-D point per cluster centroid (the
// centroid's columns reshaped down to 2 dimensions, matching the teacher's
// reshape bucket-averaging approach), each cluster as its own series with a
// random color and its row count in the series name. There is no separate
// centroids series, and markers are not sized by cluster. Unlike the teacher's source data, which had
// per-point coordinates to scatter individually, a model.Output only
// carries centroids and per-cluster counts, so each cluster contributes
// exactly one marker here rather than one per member row.
func (r *Reporter) GenerateScatterPlot(m *model.Output) error {
	es := charts.NewScatter()
	es.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Clustering - Scatter Plot"}),
		charts.WithLegendOpts(opts.Legend{Show: true, Top: "5%"}),
		charts.WithToolboxOpts(opts.Toolbox{
			Show: true,
			Feature: &opts.ToolBoxFeature{
				SaveAsImage: &opts.ToolBoxFeatureSaveAsImage{Show: true, Type: "png", Title: "k-means_scatter"},
			},
		}),
		charts.WithDataZoomOpts(
			opts.DataZoom{Type: "slider", XAxisIndex: 0},
			opts.DataZoom{Type: "slider", YAxisIndex: 0},
			opts.DataZoom{Type: "inside", XAxisIndex: 0},
			opts.DataZoom{Type: "inside", YAxisIndex: 0},
		),
		charts.WithTooltipOpts(opts.Tooltip{Show: true, Formatter: "{a}: {b}"}),
	)

	color := ""
	for i, centroid := range m.Clusters {
		point := reshape(centroid, 2)
		name := fmt.Sprintf("Cluster %d (n=%d)", i, rowsAt(m, i))
		color = getNewColor(color)
		es.AddSeries(name, []opts.ScatterData{{Value: point}}, charts.WithItemStyleOpts(opts.ItemStyle{Color: color}))
	}

	path := r.ScatterPath
	if path == "" {
		path = "k-means_scatter.html"
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("plot: creating %s: %w", path, err)
	}
	defer f.Close()
	return es.Render(io.MultiWriter(f))
}

// GenerateBarChart renders a bar per cluster sized by its row count.
func (r *Reporter) GenerateBarChart(m *model.Output) error {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Clustering - Bar Chart"}),
		charts.WithToolboxOpts(opts.Toolbox{
			Show:  true,
			Right: "20%",
			Feature: &opts.ToolBoxFeature{
				SaveAsImage: &opts.ToolBoxFeatureSaveAsImage{Show: true, Type: "png", Title: "k-means_bar"},
				DataView:    &opts.ToolBoxFeatureDataView{Show: true, Title: "Data", Lang: []string{"View", "Close", "Refresh"}},
			},
		}),
	)

	var items []opts.BarData
	var xAxis []string
	for i, n := range m.Rows {
		xAxis = append(xAxis, strconv.Itoa(i))
		items = append(items, opts.BarData{Name: strconv.Itoa(i), Value: n})
	}
	bar.SetXAxis(xAxis).AddSeries("", items).SetSeriesOptions(
		charts.WithLabelOpts(opts.Label{Show: true, Position: "top"}),
	)

	path := r.BarPath
	if path == "" {
		path = "k-means_bar.html"
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("plot: creating %s: %w", path, err)
	}
	defer f.Close()
	return bar.Render(f)
}

func rowsAt(m *model.Output, i int) int64 {
	if i < len(m.Rows) {
		return m.Rows[i]
	}
	return 0
}

func getNewColor(prev string) string {
	res := randomcolor.GetRandomColorInHex()
	for prev != "" && res == prev {
		res = randomcolor.GetRandomColorInHex()
	}
	return res
}

// reshape buckets tensor's components into dim groups of nearly-equal size
// and averages each bucket, projecting an F-dimensional centroid down to a
// plottable dim-dimensional point.
func reshape(tensor []float64, dim int) []float64 {
	tensorDim := len(tensor)
	res := make([]float64, dim)
	p1 := 0
	for i := 0; i < dim; i++ {
		p2 := ((1 + i) * tensorDim) / dim
		split := p2 - p1
		if split == 0 {
			res[i] = 0
			continue
		}
		var sum float64
		for j := 0; j < split; j++ {
			sum += tensor[p1+j]
		}
		res[i] = sum / float64(split)
		p1 = p2
	}
	return res
}

package chart

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultRendererURL = "https://quickchart.io/chart"

// Renderer produces image bytes for a chart spec.
type Renderer interface {
	Render(ctx context.Context, spec *Spec) ([]byte, error)
}

// QuickChart renders specs to PNG through a QuickChart-compatible HTTP
// service. The spec is translated to a chart.js configuration and POSTed
// to the service.
type QuickChart struct {
	url        string
	httpClient *http.Client
}

// QuickChartOpts holds parameters for creating a QuickChart renderer.
type QuickChartOpts struct {
	URL     string // defaults to the public quickchart.io endpoint
	Timeout time.Duration
}

// NewQuickChart creates a QuickChart renderer.
func NewQuickChart(opts QuickChartOpts) *QuickChart {
	url := opts.URL
	if url == "" {
		url = defaultRendererURL
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &QuickChart{
		url: url,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// seriesColors cycle through dataset styling, first series first.
var seriesColors = []string{"#2196f3", "#90caf9"}

// Render POSTs the chart.js translation of spec and returns the PNG bytes.
func (q *QuickChart) Render(ctx context.Context, spec *Spec) ([]byte, error) {
	if spec == nil || len(spec.Series) == 0 {
		return nil, ErrNoData
	}

	body, err := json.Marshal(map[string]any{
		"chart":           buildChartJS(spec),
		"format":          "png",
		"width":           800,
		"height":          450,
		"backgroundColor": "white",
	})
	if err != nil {
		return nil, fmt.Errorf("chart: encode render request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", q.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("chart: create render request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := q.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("chart: render: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("chart: renderer returned status %d", resp.StatusCode)
	}

	img, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("chart: read rendered image: %w", err)
	}
	return img, nil
}

// buildChartJS translates a Spec into a chart.js configuration object.
func buildChartJS(spec *Spec) map[string]any {
	chartType := "line"
	if spec.Mode == ModeStackedBar {
		chartType = "bar"
	}

	labels := make([]string, 0)
	if len(spec.Series) > 0 {
		for _, p := range spec.Series[0].Points {
			labels = append(labels, p.X)
		}
	}

	datasets := make([]map[string]any, 0, len(spec.Series))
	for i, s := range spec.Series {
		values := make([]float64, len(s.Points))
		for j, p := range s.Points {
			values[j] = p.Y
		}
		ds := map[string]any{
			"label":       s.Name,
			"data":        values,
			"borderColor": seriesColors[i%len(seriesColors)],
		}
		if spec.Mode == ModeStackedBar {
			ds["backgroundColor"] = seriesColors[i%len(seriesColors)]
		} else {
			ds["fill"] = false
		}
		datasets = append(datasets, ds)
	}

	yAxis := map[string]any{
		"scaleLabel": map[string]any{"display": true, "labelString": spec.YLabel},
		"stacked":    spec.Mode == ModeStackedBar,
	}
	if len(spec.TickValues) > 0 {
		// Remap numeric ticks to their labels (e.g. 0/1 → "No"/"Yes").
		yAxis["ticks"] = map[string]any{
			"min":      spec.TickValues[0],
			"max":      spec.TickValues[len(spec.TickValues)-1] + 0.1,
			"stepSize": 1,
		}
	}

	return map[string]any{
		"type": chartType,
		"data": map[string]any{
			"labels":   labels,
			"datasets": datasets,
		},
		"options": map[string]any{
			"title": map[string]any{"display": true, "text": spec.Title},
			"scales": map[string]any{
				"xAxes": []map[string]any{{
					"scaleLabel": map[string]any{"display": true, "labelString": spec.XLabel},
					"stacked":    spec.Mode == ModeStackedBar,
				}},
				"yAxes": []map[string]any{yAxis},
			},
		},
	}
}

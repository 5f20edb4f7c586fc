package handlers

import (
	"sort"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"testons-go/server/internal/metrics"
	"testons-go/server/internal/models"
)

// buildCharts renders the report as ECharts option objects, keyed by chart.
func buildCharts(r metrics.Report) map[string]interface{} {
	return map[string]interface{}{
		"successByTask":     generateSuccessChart(r.TaskStats).JSON(),
		"easeByTask":        generateEaseChart(r.TaskStats).JSON(),
		"emotionalReaction": generateDistributionChart("emotionalReaction", r.CategoricalStats).JSON(),
		"searchMethod":      generateDistributionChart("searchMethod", r.CategoricalStats).JSON(),
		"autonomy":          generateDistributionChart("autonomy", r.CategoricalStats).JSON(),
	}
}

func generateSuccessChart(tasks []metrics.TaskStat) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Taux de réussite par tâche"}),
		charts.WithYAxisOpts(opts.YAxis{Type: "value", Min: 0, Max: 100}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
	)

	var titles []string
	items := make([]opts.BarData, 0)
	for _, ts := range tasks {
		if ts.Category != models.Standard || ts.SuccessRate == nil {
			continue
		}
		titles = append(titles, ts.Title)
		items = append(items, opts.BarData{Value: *ts.SuccessRate})
	}
	bar.SetXAxis(titles).AddSeries(metrics.Label("success"), items)
	return bar
}

func generateEaseChart(tasks []metrics.TaskStat) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: metrics.Label("ease"), Subtitle: "Moyenne sur 10"}),
		charts.WithYAxisOpts(opts.YAxis{Type: "value", Min: 0, Max: 10}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
	)

	var titles []string
	items := make([]opts.BarData, 0)
	for _, ts := range tasks {
		avg := ts.NumericalMetrics["ease"].Average()
		if !avg.Calculated {
			continue
		}
		titles = append(titles, ts.Title)
		items = append(items, opts.BarData{Value: avg.Value})
	}
	bar.SetXAxis(titles).AddSeries(metrics.Label("ease"), items)
	return bar
}

func generateDistributionChart(key string, stats map[string]map[string]int) *charts.Pie {
	pie := charts.NewPie()
	pie.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: metrics.Label(key)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "item"}),
	)

	items := make([]opts.PieData, 0)
	for _, value := range orderedValues(key, stats[key]) {
		items = append(items, opts.PieData{Name: metrics.Label(value), Value: stats[key][value]})
	}
	pie.AddSeries(metrics.Label(key), items)
	return pie
}

// orderedValues lists the known values first, in their canonical order, then
// any other value present in the counts.
func orderedValues(key string, counts map[string]int) []string {
	var out []string
	seen := map[string]bool{}
	for _, v := range metrics.KnownValues[key] {
		if counts[v] > 0 {
			out = append(out, v)
			seen[v] = true
		}
	}
	var rest []string
	for v := range counts {
		if !seen[v] {
			rest = append(rest, v)
		}
	}
	sort.Strings(rest)
	return append(out, rest...)
}

package backtest

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/wcharczuk/go-chart/v2"

	"github.com/triadlabs/triad/internal/contracts"
)

// RenderChart writes a PNG comparing the cumulative return of the BUY
// portfolio against the benchmark. It silently skips either series that
// has no data points.
func RenderChart(path string, result *contracts.BacktestResult) error {
	var series []chart.Series

	if s := cumulativeSeries("BUY portfolio", result.BuyDailyReturns); s != nil {
		series = append(series, s)
	}
	if s := cumulativeSeries("Benchmark", result.BenchmarkDailyReturns); s != nil {
		series = append(series, s)
	}
	if len(series) == 0 {
		return fmt.Errorf("chart: no return series to plot")
	}

	graph := chart.Chart{
		Title: fmt.Sprintf("Forward returns from %s", result.AsOf.Format("2006-01-02")),
		XAxis: chart.XAxis{
			ValueFormatter: chart.TimeDateValueFormatter,
		},
		YAxis: chart.YAxis{
			ValueFormatter: chart.PercentValueFormatter,
		},
		Series: series,
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("chart: create output dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("chart: create %s: %w", path, err)
	}
	defer f.Close()

	if err := graph.Render(chart.PNG, f); err != nil {
		return fmt.Errorf("chart: render: %w", err)
	}
	return nil
}

func cumulativeSeries(name string, daily []contracts.DailyReturn) chart.Series {
	if len(daily) == 0 {
		return nil
	}

	ts := chart.TimeSeries{Name: name}
	for _, d := range contracts.CumulativeReturns(daily) {
		ts.XValues = append(ts.XValues, d.Date)
		ts.YValues = append(ts.YValues, d.Return)
	}
	return ts
}

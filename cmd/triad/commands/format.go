package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/triadlabs/triad/internal/pipeline"
)

// printReport renders one finished run as a console table.
func printReport(w io.Writer, report *pipeline.Report, tickers []string) {
	run := report.Run

	fmt.Fprintf(w, "\n=== Consensus (as of %s) ===\n", run.AsOf.Format("2006-01-02"))
	for _, ticker := range tickers {
		decision, _ := run.Consensus.DecisionFor(ticker)
		justification, _ := run.Consensus.JustificationFor(ticker)
		fmt.Fprintf(w, "%-6s %-4s  %s\n", ticker, decision, justification)
	}

	fmt.Fprintf(w, "\nAnalyst votes:\n")
	for _, ticker := range tickers {
		votes := make([]string, 0, len(run.Opinions))
		for _, op := range run.Opinions {
			decision, _ := op.Recommendation.DecisionFor(ticker)
			votes = append(votes, fmt.Sprintf("%s=%s", op.Analyst, decision))
		}
		fmt.Fprintf(w, "%-6s %s\n", ticker, strings.Join(votes, " "))
	}

	if report.BacktestErr != "" {
		fmt.Fprintf(w, "\nBacktest unavailable: %s\n", report.BacktestErr)
		return
	}

	bt := report.Backtest
	fmt.Fprintf(w, "\n=== Forward test (%s to %s) ===\n",
		bt.AsOf.Format("2006-01-02"), bt.WindowEnd.Format("2006-01-02"))
	if len(bt.BuyTickers) == 0 {
		fmt.Fprintf(w, "No BUY consensus, benchmark only\n")
	} else {
		fmt.Fprintf(w, "BUY portfolio: %s\n", strings.Join(bt.BuyTickers, ", "))
		fmt.Fprintf(w, "BUY return:    %+.2f%%  (sharpe %.2f)\n", bt.BuyForwardReturn*100, bt.BuySharpe)
	}
	fmt.Fprintf(w, "Benchmark:     %+.2f%%  (sharpe %.2f)\n", bt.BenchmarkForwardReturn*100, bt.BenchmarkSharpe)

	if report.ChartPath != "" {
		fmt.Fprintf(w, "Chart:         %s\n", report.ChartPath)
	}
	if report.RunID != 0 {
		fmt.Fprintf(w, "Saved as run:  %d\n", report.RunID)
	}
}

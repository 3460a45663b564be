package commands

import (
	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "triad",
	Short: "Triad - three-analyst consensus stock recommendations",
	Long: `Triad Unified CLI

Runs three independent analysts (valuation, news sentiment, fundamentals)
over a ticker universe, merges their votes into one consensus per ticker,
and forward-tests the result against the prices that actually followed.

Usage:
  go run ./cmd/triad [command]

Examples:
  go run ./cmd/triad run --as-of 2024-05-01
  go run ./cmd/triad run --as-of 2024-05-01 --tickers AAPL,NVDA
  go run ./cmd/triad serve
  go run ./cmd/triad schedule`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

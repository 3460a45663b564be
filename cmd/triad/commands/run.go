package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/triadlabs/triad/internal/contracts"
	"github.com/triadlabs/triad/pkg/config"
	"github.com/triadlabs/triad/pkg/logger"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one consensus recommendation with forward test",
	Long: `Runs the three analysts for a past as-of date, resolves their votes
into one consensus per ticker, and measures how the BUY portfolio performed
over the following months.

The as-of date must lie far enough in the past for the forward window to
have real price history behind it.

Example:
  go run ./cmd/triad run --as-of 2024-05-01
  go run ./cmd/triad run --as-of 2024-05-01 --tickers AAPL,NVDA`,
	RunE: runPipeline,
}

var (
	runAsOf    string
	runTickers []string
)

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVar(&runAsOf, "as-of", "", "analysis date (YYYY-MM-DD, required)")
	runCmd.Flags().StringSliceVar(&runTickers, "tickers", defaultTickers, "ticker universe")
	runCmd.MarkFlagRequired("as-of")
}

func runPipeline(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log := logger.New(cfg)

	asOf, err := time.Parse("2006-01-02", runAsOf)
	if err != nil {
		return fmt.Errorf("%w: --as-of must be an ISO date (YYYY-MM-DD)", contracts.ErrInvalidInput)
	}

	rt, err := buildRuntime(cfg, log)
	if err != nil {
		return err
	}
	defer rt.close()

	report, err := rt.service.Execute(cmd.Context(), runTickers, asOf)
	if err != nil {
		log.WithError(err).Error("run failed")
		return err
	}

	printReport(cmd.OutOrStdout(), report, runTickers)
	return nil
}

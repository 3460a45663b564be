package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/triadlabs/triad/pkg/config"
	"github.com/triadlabs/triad/pkg/logger"
)

// scheduleCmd represents the schedule command
var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run the pipeline on a cron schedule",
	Long: `Starts a daemon that executes a consensus run on a cron schedule.

Each tick analyzes a rolling as-of date just old enough for a full forward
window, so every scheduled run can be backtested immediately.

Example:
  go run ./cmd/triad schedule
  go run ./cmd/triad schedule --cron "0 18 * * 1-5"`,
	RunE: runScheduler,
}

var scheduleSpec string

func init() {
	rootCmd.AddCommand(scheduleCmd)

	scheduleCmd.Flags().StringVar(&scheduleSpec, "cron", "0 18 * * 1-5", "cron expression (minute hour dom month dow)")
}

func runScheduler(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log := logger.New(cfg)

	rt, err := buildRuntime(cfg, log)
	if err != nil {
		return err
	}
	defer rt.close()

	c := cron.New()
	_, err = c.AddFunc(scheduleSpec, func() {
		// one day past the minimum keeps the run valid across timezones
		asOf := time.Now().AddDate(0, 0, -(cfg.Pipeline.MinBacktestAgeDays + 1))

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()

		log.WithField("as_of", asOf.Format("2006-01-02")).Info("scheduled run starting")
		report, err := rt.service.Execute(ctx, defaultTickers, asOf)
		if err != nil {
			log.WithError(err).Error("scheduled run failed")
			return
		}
		printReport(os.Stdout, report, defaultTickers)
	})
	if err != nil {
		return fmt.Errorf("invalid cron expression %q: %w", scheduleSpec, err)
	}

	log.WithField("cron", scheduleSpec).Info("scheduler started")
	c.Start()
	defer c.Stop()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	log.WithField("signal", sig.String()).Info("Shutdown signal received")

	return nil
}

package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/triadlabs/triad/internal/analyst"
	"github.com/triadlabs/triad/internal/backtest"
	"github.com/triadlabs/triad/internal/consensus"
	"github.com/triadlabs/triad/internal/external/fds"
	"github.com/triadlabs/triad/internal/llm"
	"github.com/triadlabs/triad/internal/pipeline"
	"github.com/triadlabs/triad/internal/store"
	"github.com/triadlabs/triad/pkg/config"
	"github.com/triadlabs/triad/pkg/database"
	"github.com/triadlabs/triad/pkg/httputil"
	"github.com/triadlabs/triad/pkg/logger"
	"github.com/triadlabs/triad/pkg/redis"
)

// defaultTickers is the universe used when --tickers is not given.
var defaultTickers = []string{"AAPL", "MSFT", "NVDA", "TSLA"}

// runtime holds everything a command needs after wiring.
type runtime struct {
	service *pipeline.Service
	store   *store.Store
	closers []func()
}

func (r *runtime) close() {
	for i := len(r.closers) - 1; i >= 0; i-- {
		r.closers[i]()
	}
}

// buildRuntime wires the full pipeline from configuration: data client,
// generator, analysts, coordinator, backtest, and optional persistence.
func buildRuntime(cfg *config.Config, log *logger.Logger) (*runtime, error) {
	rt := &runtime{}

	httpClient := httputil.New(log).WithRateLimit(cfg.FDS.RateLimit, 1)

	redisClient, err := redis.New(cfg, log)
	if err != nil {
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	rt.closers = append(rt.closers, func() { redisClient.Close() })
	cache := redis.NewCache(redisClient, "triad")

	dataClient := fds.NewClient(cfg, httpClient, cache, log)

	gen, err := llm.NewClaudeGenerator(cfg, log)
	if err != nil {
		rt.close()
		return nil, fmt.Errorf("create generator: %w", err)
	}

	analysts := []analyst.Analyst{
		analyst.NewValuationAnalyst(dataClient, gen, cfg.Pipeline.RSIPeriod, cfg.Pipeline.LookbackDays, log),
		analyst.NewSentimentAnalyst(dataClient, gen, cfg.OutputDir, log),
		analyst.NewFundamentalAnalyst(dataClient, gen, cfg.Pipeline.ReportingLagDays, log),
	}

	coordinator := consensus.NewCoordinator(gen, log)
	orchestrator := pipeline.NewOrchestrator(analysts, coordinator, log)
	evaluator := backtest.NewEvaluator(dataClient, cfg.Pipeline.ForwardMonths, cfg.Pipeline.RiskFreeRate, log)

	var persister pipeline.Persister
	if cfg.Database.URL != "" {
		db, err := database.New(cfg)
		if err != nil {
			rt.close()
			return nil, fmt.Errorf("connect database: %w", err)
		}
		rt.closers = append(rt.closers, db.Close)

		rt.store = store.New(db, log)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := rt.store.EnsureSchema(ctx); err != nil {
			rt.close()
			return nil, err
		}
		persister = rt.store
	} else {
		log.Info("DATABASE_URL not set, persistence disabled")
	}

	rt.service = pipeline.NewService(
		orchestrator, evaluator, backtest.RenderChart, persister,
		cfg.OutputDir, cfg.Pipeline.MinBacktestAgeDays, log,
	)
	return rt, nil
}

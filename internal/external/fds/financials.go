package fds

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/triadlabs/triad/internal/contracts"
	"github.com/triadlabs/triad/pkg/redis"
)

// financialsResponse mirrors the /financial-metrics endpoint payload.
// Rows are kept raw so every numeric metric survives into the record
// regardless of which metric table the scorecard later applies.
type financialsResponse struct {
	FinancialMetrics []json.RawMessage `json:"financial_metrics"`
}

// FetchFinancials fetches the most recent fundamental metrics per ticker
// with report periods inside [gte, lte]. Callers are responsible for
// shifting lte back by the reporting-lag buffer; this client applies no
// date arithmetic of its own. Falls back to the disk snapshot on failure.
func (c *Client) FetchFinancials(ctx context.Context, tickers []string, gte, lte time.Time, period string, limit int) ([]contracts.FinancialRecord, error) {
	gteStr := gte.Format("2006-01-02")
	lteStr := lte.Format("2006-01-02")
	snapshotName := fmt.Sprintf("%s_%s_financial_metrics.json", gteStr, lteStr)

	records, err := c.fetchFinancialsLive(ctx, tickers, gteStr, lteStr, period, limit)
	if err != nil {
		c.logger.WithError(err).Warn("Financials fetch failed, trying snapshot")

		var cached []contracts.FinancialRecord
		if snapErr := c.snapshots.Load(snapshotName, &cached); snapErr != nil {
			return nil, fmt.Errorf("%w: financials fetch failed (%v) and no snapshot: %v",
				contracts.ErrDataUnavailable, err, snapErr)
		}

		c.logger.WithField("records", len(cached)).Info("Proceeding with snapshotted financials")
		return cached, nil
	}

	if err := c.snapshots.Save(snapshotName, records); err != nil {
		c.logger.WithError(err).Warn("Failed to snapshot financials")
	}

	return records, nil
}

func (c *Client) fetchFinancialsLive(ctx context.Context, tickers []string, gteStr, lteStr, period string, limit int) ([]contracts.FinancialRecord, error) {
	var records []contracts.FinancialRecord

	for i, ticker := range tickers {
		c.logger.WithFields(map[string]interface{}{
			"ticker":   ticker,
			"progress": fmt.Sprintf("%d/%d", i+1, len(tickers)),
		}).Debug("Fetching financial metrics")

		cacheKey := redis.FinancialsKey(ticker, lteStr)
		var tickerRecords []contracts.FinancialRecord
		if found, _ := c.cache.Get(ctx, cacheKey, &tickerRecords); found {
			records = append(records, tickerRecords...)
			continue
		}

		fullURL := fmt.Sprintf(
			"%s/financial-metrics?ticker=%s&period=%s&report_period_gte=%s&report_period_lte=%s&limit=%d",
			c.baseURL, url.QueryEscape(ticker), period, gteStr, lteStr, limit,
		)

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
		if err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}

		var resp financialsResponse
		if err := c.getJSON(req, &resp); err != nil {
			return nil, fmt.Errorf("fetch financials for %s: %w", ticker, err)
		}

		tickerRecords = tickerRecords[:0]
		for _, raw := range resp.FinancialMetrics {
			record, err := parseFinancialRow(raw, ticker)
			if err != nil {
				c.logger.WithError(err).WithField("ticker", ticker).Warn("Skipping malformed financial row")
				continue
			}
			tickerRecords = append(tickerRecords, record)
		}

		if err := c.cache.Set(ctx, cacheKey, tickerRecords, redis.TTLWeekly); err != nil {
			c.logger.WithError(err).Debug("Financials cache write failed")
		}

		records = append(records, tickerRecords...)
	}

	return records, nil
}

// parseFinancialRow splits a raw metrics row into identity fields and the
// numeric metric map. Non-numeric fields other than the identity ones are
// ignored; absent metrics simply stay absent (nil in the map).
func parseFinancialRow(raw json.RawMessage, fallbackTicker string) (contracts.FinancialRecord, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return contracts.FinancialRecord{}, fmt.Errorf("unmarshal row: %w", err)
	}

	record := contracts.FinancialRecord{
		Ticker:  fallbackTicker,
		Metrics: make(map[string]*float64),
	}

	for key, value := range fields {
		switch key {
		case "ticker":
			var s string
			if err := json.Unmarshal(value, &s); err == nil && s != "" {
				record.Ticker = s
			}
		case "fiscal_period":
			_ = json.Unmarshal(value, &record.FiscalPeriod)
		case "period":
			_ = json.Unmarshal(value, &record.Period)
		case "report_period":
			var s string
			if err := json.Unmarshal(value, &s); err == nil {
				if ts, err := parseTime(s); err == nil {
					record.ReportPeriod = ts
				}
			}
		default:
			var f float64
			if err := json.Unmarshal(value, &f); err == nil {
				v := f
				record.Metrics[key] = &v
			}
		}
	}

	return record, nil
}

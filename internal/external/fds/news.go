package fds

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/triadlabs/triad/internal/contracts"
	"github.com/triadlabs/triad/pkg/redis"
)

// newsResponse mirrors the /news endpoint payload.
type newsResponse struct {
	News []newsRow `json:"news"`
}

type newsRow struct {
	Title    string `json:"title"`
	Headline string `json:"headline"`
	Summary  string `json:"summary"`
	Snippet  string `json:"snippet"`
	Date     string `json:"date"`
}

// FetchNews fetches headlines per ticker over [start, end]. Falls back to
// the disk snapshot on failure, like the other fetches.
func (c *Client) FetchNews(ctx context.Context, tickers []string, start, end time.Time) (map[string][]contracts.NewsItem, error) {
	startStr := start.Format("2006-01-02")
	endStr := end.Format("2006-01-02")
	snapshotName := fmt.Sprintf("%s_%s_stock_news.json", startStr, endStr)

	news, err := c.fetchNewsLive(ctx, tickers, startStr, endStr)
	if err != nil {
		c.logger.WithError(err).Warn("News fetch failed, trying snapshot")

		cached := make(map[string][]contracts.NewsItem)
		if snapErr := c.snapshots.Load(snapshotName, &cached); snapErr != nil {
			return nil, fmt.Errorf("%w: news fetch failed (%v) and no snapshot: %v",
				contracts.ErrDataUnavailable, err, snapErr)
		}

		c.logger.WithField("tickers", len(cached)).Info("Proceeding with snapshotted news")
		return cached, nil
	}

	if err := c.snapshots.Save(snapshotName, news); err != nil {
		c.logger.WithError(err).Warn("Failed to snapshot news")
	}

	return news, nil
}

func (c *Client) fetchNewsLive(ctx context.Context, tickers []string, startStr, endStr string) (map[string][]contracts.NewsItem, error) {
	news := make(map[string][]contracts.NewsItem, len(tickers))

	for i, ticker := range tickers {
		c.logger.WithFields(map[string]interface{}{
			"ticker":   ticker,
			"progress": fmt.Sprintf("%d/%d", i+1, len(tickers)),
		}).Debug("Fetching news")

		cacheKey := redis.NewsKey(ticker, startStr, endStr)
		var items []contracts.NewsItem
		if found, _ := c.cache.Get(ctx, cacheKey, &items); found {
			news[ticker] = items
			continue
		}

		fullURL := fmt.Sprintf(
			"%s/news/?ticker=%s&start_date=%s&end_date=%s",
			c.baseURL, url.QueryEscape(ticker), startStr, endStr,
		)

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
		if err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}

		var resp newsResponse
		if err := c.getJSON(req, &resp); err != nil {
			return nil, fmt.Errorf("fetch news for %s: %w", ticker, err)
		}

		items = items[:0]
		for _, row := range resp.News {
			item := contracts.NewsItem{
				Headline: row.Headline,
				Snippet:  row.Snippet,
			}
			if item.Headline == "" {
				item.Headline = row.Title
			}
			if item.Snippet == "" {
				item.Snippet = row.Summary
			}
			if ts, err := parseTime(row.Date); err == nil {
				item.PublishedAt = ts
			}
			items = append(items, item)
		}

		if err := c.cache.Set(ctx, cacheKey, items, redis.TTLDaily); err != nil {
			c.logger.WithError(err).Debug("News cache write failed")
		}

		news[ticker] = items
	}

	return news, nil
}

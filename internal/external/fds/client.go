package fds

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/triadlabs/triad/pkg/config"
	"github.com/triadlabs/triad/pkg/httputil"
	"github.com/triadlabs/triad/pkg/logger"
	"github.com/triadlabs/triad/pkg/redis"
)

// Client handles communication with the financialdatasets.ai API.
// Every fetch is cached in Redis (when enabled) and snapshotted to disk,
// so a later run can proceed on identical-shape data when the API is
// unreachable.
type Client struct {
	httpClient *httputil.Client
	cache      *redis.Cache
	snapshots  *SnapshotStore
	logger     *logger.Logger
	apiKey     string
	baseURL    string
}

// NewClient creates a new financialdatasets.ai API client.
func NewClient(cfg *config.Config, httpClient *httputil.Client, cache *redis.Cache, log *logger.Logger) *Client {
	return &Client{
		httpClient: httpClient,
		cache:      cache,
		snapshots:  NewSnapshotStore(cfg.FDS.SnapshotDir),
		logger:     log,
		apiKey:     cfg.FDS.APIKey,
		baseURL:    cfg.FDS.BaseURL,
	}
}

// getJSON performs an authenticated GET and decodes the response body
// into dest.
func (c *Client) getJSON(req *http.Request, dest interface{}) error {
	req.Header.Set("X-API-KEY", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	return nil
}

// Package kalshi fetches open markets from the Kalshi trade API.
package kalshi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/predictarb/predictarb/internal/domain"
)

const (
	defaultPageSize = 1000
	maxPages        = 20
)

// Client is the REST client for the Kalshi trade API. Market discovery is
// unauthenticated; the optional API key raises the rate limit tier.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// New creates a Kalshi client.
//
// baseURL is the API root, e.g. "https://api.elections.kalshi.com/trade-api/v2".
func New(baseURL, apiKey string, requestsPerSecond float64) *Client {
	var limiter *rate.Limiter
	if requestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), 5)
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		limiter: limiter,
	}
}

// Name returns the venue this feed serves.
func (c *Client) Name() domain.Venue { return domain.VenueKalshi }

// FetchOpen pages through every open market using the API's cursor and maps
// each to a domain record. Markets without a usable quote are skipped.
func (c *Client) FetchOpen(ctx context.Context) ([]domain.MarketRecord, error) {
	var records []domain.MarketRecord
	cursor := ""

	for page := 0; page < maxPages; page++ {
		markets, next, err := c.getMarkets(ctx, cursor)
		if err != nil {
			return nil, err
		}
		now := time.Now().UTC()
		for i := range markets {
			rec, ok := markets[i].ToRecord(now)
			if !ok {
				continue
			}
			records = append(records, rec)
		}
		if next == "" {
			break
		}
		cursor = next
	}
	return records, nil
}

func (c *Client) getMarkets(ctx context.Context, cursor string) ([]apiMarket, string, error) {
	params := url.Values{}
	params.Set("status", "open")
	params.Set("limit", strconv.Itoa(defaultPageSize))
	if cursor != "" {
		params.Set("cursor", cursor)
	}

	body, err := c.doGet(ctx, "/markets?"+params.Encode())
	if err != nil {
		return nil, "", fmt.Errorf("kalshi: get markets: %w", err)
	}

	var resp struct {
		Markets []apiMarket `json:"markets"`
		Cursor  string      `json:"cursor"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, "", fmt.Errorf("kalshi: decode markets: %w", err)
	}
	return resp.Markets, resp.Cursor, nil
}

func (c *Client) doGet(ctx context.Context, path string) ([]byte, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit wait: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return body, nil
}

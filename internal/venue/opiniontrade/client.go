// Package opiniontrade fetches open markets from the OpinionTrade API.
package opiniontrade

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
	defaultPageSize = 200
	maxPages        = 20
)

// Client is the REST client for the OpinionTrade API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// New creates an OpinionTrade client. The API key is required by the venue
// for all read endpoints.
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
func (c *Client) Name() domain.Venue { return domain.VenueOpinionTrade }

// FetchOpen returns every open market as a domain record.
func (c *Client) FetchOpen(ctx context.Context) ([]domain.MarketRecord, error) {
	var records []domain.MarketRecord

	for page := 0; page < maxPages; page++ {
		markets, err := c.getMarkets(ctx, defaultPageSize, page*defaultPageSize)
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
		if len(markets) < defaultPageSize {
			break
		}
	}
	return records, nil
}

func (c *Client) getMarkets(ctx context.Context, limit, offset int) ([]apiMarket, error) {
	params := url.Values{}
	params.Set("status", "open")
	params.Set("limit", strconv.Itoa(limit))
	params.Set("offset", strconv.Itoa(offset))

	body, err := c.doGet(ctx, "/v1/markets?"+params.Encode())
	if err != nil {
		return nil, fmt.Errorf("opiniontrade: get markets: %w", err)
	}

	var resp struct {
		Markets []apiMarket `json:"markets"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("opiniontrade: decode markets: %w", err)
	}
	return resp.Markets, nil
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
		req.Header.Set("X-API-Key", c.apiKey)
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

// Package polymarket fetches open markets from the Polymarket Gamma API.
package polymarket

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
	// defaultPageSize is the Gamma API page size per request.
	defaultPageSize = 500
	// maxPages bounds a single scan so a misbehaving API cannot stall a
	// recompute cycle indefinitely.
	maxPages = 20
)

// Client is the REST client for the Polymarket Gamma API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// New creates a Gamma API client.
//
// baseURL is the API root, e.g. "https://gamma-api.polymarket.com".
// requestsPerSecond throttles outbound calls; <=0 disables throttling.
func New(baseURL string, requestsPerSecond float64) *Client {
	var limiter *rate.Limiter
	if requestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), 5)
	}
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		limiter: limiter,
	}
}

// Name returns the venue this feed serves.
func (c *Client) Name() domain.Venue { return domain.VenuePolymarket }

// FetchOpen returns every active, open market as a domain record. Entries
// that cannot be mapped (no parseable YES price) are skipped.
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
	params.Set("active", "true")
	params.Set("closed", "false")
	params.Set("limit", strconv.Itoa(limit))
	params.Set("offset", strconv.Itoa(offset))

	body, err := c.doGet(ctx, "/markets?"+params.Encode())
	if err != nil {
		return nil, fmt.Errorf("polymarket: get markets: %w", err)
	}

	var markets []apiMarket
	if err := json.Unmarshal(body, &markets); err != nil {
		return nil, fmt.Errorf("polymarket: decode markets: %w", err)
	}
	return markets, nil
}

// doGet sends an unauthenticated GET request to the Gamma API.
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
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, truncate(body, 200))
	}
	return body, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}

// Package limitless fetches open markets from the Limitless Exchange API.
package limitless

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
	defaultPageSize = 250
	maxPages        = 20
)

// Client is the REST client for the Limitless Exchange API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// New creates a Limitless client.
//
// baseURL is the API root, e.g. "https://api.limitless.exchange".
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
func (c *Client) Name() domain.Venue { return domain.VenueLimitless }

// FetchOpen returns every active market as a domain record.
func (c *Client) FetchOpen(ctx context.Context) ([]domain.MarketRecord, error) {
	var records []domain.MarketRecord

	for page := 1; page <= maxPages; page++ {
		markets, total, err := c.getMarkets(ctx, page)
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
		if page*defaultPageSize >= total || len(markets) == 0 {
			break
		}
	}
	return records, nil
}

func (c *Client) getMarkets(ctx context.Context, page int) ([]apiMarket, int, error) {
	params := url.Values{}
	params.Set("page", strconv.Itoa(page))
	params.Set("limit", strconv.Itoa(defaultPageSize))

	body, err := c.doGet(ctx, "/markets/active?"+params.Encode())
	if err != nil {
		return nil, 0, fmt.Errorf("limitless: get markets: %w", err)
	}

	var resp struct {
		Markets []apiMarket `json:"data"`
		Total   int         `json:"totalMarketsCount"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, 0, fmt.Errorf("limitless: decode markets: %w", err)
	}
	return resp.Markets, resp.Total, nil
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

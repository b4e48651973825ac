package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const braveEndpoint = "https://api.search.brave.com/res/v1/web/search"

// Brave uses the Brave Search API. An API key is required via
// X-Subscription-Token. All queries from one Brave share a limiter, so
// concurrent dispatch stays within the per-second quota.
type Brave struct {
	APIKey     string
	MaxResults int

	endpoint string
	client   *http.Client
	limiter  *rate.Limiter
}

// NewBrave constructs a Brave provider. perSecond <= 0 defaults to the free
// tier's 1 request per second.
func NewBrave(apiKey string, maxResults int, perSecond float64, client *http.Client) *Brave {
	if perSecond <= 0 {
		perSecond = 1
	}
	if maxResults <= 0 {
		maxResults = defaultMaxResults
	}
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &Brave{
		APIKey:     apiKey,
		MaxResults: maxResults,
		endpoint:   braveEndpoint,
		client:     client,
		limiter:    newLimiter(perSecond),
	}
}

// Search executes a Brave query, retrying on 429 after the advertised reset.
func (b *Brave) Search(ctx context.Context, query string) ([]Snippet, error) {
	if strings.TrimSpace(b.APIKey) == "" {
		return nil, errors.New("brave: API key is missing")
	}
	endpoint := fmt.Sprintf("%s?q=%s&count=%d", b.endpoint, url.QueryEscape(query), b.MaxResults)

	var resp *http.Response
	for {
		if err := b.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("X-Subscription-Token", b.APIKey)

		resp, err = b.client.Do(req)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode != http.StatusTooManyRequests {
			break
		}
		wait := braveRetryDelay(resp.Header)
		resp.Body.Close()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("brave http %d", resp.StatusCode)
	}

	var payload struct {
		Web struct {
			Results []struct {
				URL         string `json:"url"`
				Description string `json:"description"`
			} `json:"results"`
		} `json:"web"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("brave: decode response: %w", err)
	}

	out := make([]Snippet, 0, len(payload.Web.Results))
	for _, r := range payload.Web.Results {
		out = append(out, Snippet{URL: r.URL, Content: r.Description})
	}
	return out, nil
}

// braveRetryDelay reads X-RateLimit-Reset ("1, 1419704": seconds until each
// window resets) and uses the smallest value, defaulting to one second.
func braveRetryDelay(h http.Header) time.Duration {
	minReset := -1
	for _, part := range strings.Split(h.Get("X-RateLimit-Reset"), ",") {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || n < 0 {
			continue
		}
		if minReset < 0 || n < minReset {
			minReset = n
		}
	}
	if minReset <= 0 {
		return time.Second
	}
	return time.Duration(minReset) * time.Second
}

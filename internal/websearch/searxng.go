package websearch

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// SearXNGProvider queries a self-hosted SearXNG instance through its JSON
// output format. The instance must have "json" enabled in search.formats.
type SearXNGProvider struct {
	endpoint  *url.URL
	userAgent string
	client    *http.Client
}

func NewSearXNGProvider(baseURL, userAgent string, timeout time.Duration) (*SearXNGProvider, error) {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = "http://localhost:8080"
	}
	if strings.TrimSpace(userAgent) == "" {
		userAgent = "Researcher/0.1"
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	endpoint, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil {
		return nil, errors.Wrap(err, "invalid searxng base url")
	}
	endpoint.Path = strings.TrimRight(endpoint.Path, "/") + "/search"

	return &SearXNGProvider{
		endpoint:  endpoint,
		userAgent: userAgent,
		client:    &http.Client{Timeout: timeout},
	}, nil
}

func (p *SearXNGProvider) Name() string {
	return "searxng"
}

type searxngResponse struct {
	Results []struct {
		Title   string `json:"title"`
		URL     string `json:"url"`
		Content string `json:"content"`
	} `json:"results"`
}

func (p *SearXNGProvider) Search(ctx context.Context, query string, limit int) (Response, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return Response{}, errors.New("query cannot be empty")
	}
	if limit <= 0 || limit > MaxResults {
		limit = MaxResults
	}

	endpoint := *p.endpoint
	params := url.Values{}
	params.Set("q", query)
	params.Set("format", "json")
	params.Set("categories", "general")
	params.Set("safesearch", "1")
	params.Set("count", strconv.Itoa(limit))
	endpoint.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return Response{}, errors.Wrap(err, "failed to create request")
	}
	req.Header.Set("User-Agent", p.userAgent)
	req.Header.Set("Accept", "application/json")

	slog.DebugContext(ctx, "searching", slog.String("provider", p.Name()), slog.Int("limit", limit))

	res, err := p.client.Do(req)
	if err != nil {
		return Response{}, errors.Wrap(err, "search request failed")
	}
	defer res.Body.Close()

	if res.StatusCode < http.StatusOK || res.StatusCode >= http.StatusMultipleChoices {
		return Response{}, errors.Errorf("search request failed with status %d", res.StatusCode)
	}

	var payload searxngResponse
	if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
		return Response{}, errors.Wrap(err, "failed to decode response")
	}

	results := make([]Result, 0, limit)
	for _, r := range payload.Results {
		if len(results) >= limit {
			break
		}
		if strings.TrimSpace(r.URL) == "" {
			continue
		}
		results = append(results, Result{
			Title:   strings.TrimSpace(r.Title),
			URL:     strings.TrimSpace(r.URL),
			Snippet: strings.TrimSpace(r.Content),
		})
	}

	return Response{
		Query:    query,
		Provider: p.Name(),
		Results:  results,
	}, nil
}

var _ Provider = &SearXNGProvider{}

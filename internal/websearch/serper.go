package websearch

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// SerperProvider queries the Serper Google search API.
type SerperProvider struct {
	baseURL   string
	apiKey    string
	userAgent string
	client    *http.Client
}

func NewSerperProvider(baseURL, apiKey, userAgent string, timeout time.Duration) *SerperProvider {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = "https://google.serper.dev"
	}
	if strings.TrimSpace(userAgent) == "" {
		userAgent = "Researcher/0.1"
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &SerperProvider{
		baseURL:   strings.TrimRight(baseURL, "/"),
		apiKey:    apiKey,
		userAgent: userAgent,
		client:    &http.Client{Timeout: timeout},
	}
}

func (p *SerperProvider) Name() string {
	return "serper"
}

type serperRequest struct {
	Query string `json:"q"`
	Num   int    `json:"num"`
}

type serperOrganic struct {
	Title   string `json:"title"`
	Link    string `json:"link"`
	Snippet string `json:"snippet"`
}

type serperResponse struct {
	Organic []serperOrganic `json:"organic"`
}

func (p *SerperProvider) Search(ctx context.Context, query string, limit int) (Response, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return Response{}, errors.New("query cannot be empty")
	}
	if limit <= 0 || limit > MaxResults {
		limit = MaxResults
	}

	body, err := json.Marshal(serperRequest{Query: query, Num: limit})
	if err != nil {
		return Response{}, errors.Wrap(err, "failed to encode request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/search", bytes.NewReader(body))
	if err != nil {
		return Response{}, errors.Wrap(err, "failed to create request")
	}
	req.Header.Set("X-API-KEY", p.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", p.userAgent)

	slog.DebugContext(ctx, "executing serper search", slog.String("query", query), slog.Int("limit", limit))

	resp, err := p.client.Do(req)
	if err != nil {
		return Response{}, errors.Wrap(err, "search request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Response{}, errors.Errorf("search request failed with status %d", resp.StatusCode)
	}

	var payload serperResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return Response{}, errors.Wrap(err, "failed to decode response")
	}

	results := make([]Result, 0, limit)
	for _, item := range payload.Organic {
		if len(results) >= limit {
			break
		}
		results = append(results, Result{
			Title:   strings.TrimSpace(item.Title),
			URL:     strings.TrimSpace(item.Link),
			Snippet: strings.TrimSpace(item.Snippet),
		})
	}

	return Response{
		Query:    query,
		Provider: p.Name(),
		Results:  results,
	}, nil
}

var _ Provider = &SerperProvider{}

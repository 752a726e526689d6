package websearch

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
)

// ManualSearchURL is the base of the link offered when no provider result is
// available.
const ManualSearchURL = "https://www.google.com/search?q="

// Service wraps a Provider so that a search always yields at least one entry.
type Service struct {
	provider Provider
	limit    int
}

// NewService caps limit at MaxResults.
func NewService(provider Provider, limit int) *Service {
	if limit <= 0 || limit > MaxResults {
		limit = MaxResults
	}
	return &Service{provider: provider, limit: limit}
}

// Search never fails: provider errors and empty result sets are replaced by a
// single fallback entry pointing to a manual search URL.
func (s *Service) Search(ctx context.Context, query string) Response {
	resp, err := s.provider.Search(ctx, query, s.limit)
	if err != nil {
		slog.WarnContext(ctx, "search failed, using fallback result",
			slog.String("provider", s.provider.Name()),
			slog.String("query", query),
			slog.Any("error", err),
		)
		return Response{
			Query:    query,
			Provider: s.provider.Name(),
			Results: []Result{{
				Title:   fmt.Sprintf("Search for: %s", query),
				URL:     ManualURL(query),
				Snippet: fmt.Sprintf("Error accessing search API: %v. You can search manually at the provided URL.", err),
			}},
		}
	}

	if len(resp.Results) > s.limit {
		resp.Results = resp.Results[:s.limit]
	}

	if len(resp.Results) == 0 {
		slog.InfoContext(ctx, "search returned no results, using fallback result",
			slog.String("provider", s.provider.Name()),
			slog.String("query", query),
		)
		resp.Query = query
		resp.Results = []Result{{
			Title:   fmt.Sprintf("Search results for: %s", query),
			URL:     ManualURL(query),
			Snippet: fmt.Sprintf("No results found for '%s'. You can search manually on Google.", query),
		}}
	}

	return resp
}

// ManualURL builds the manual search link; spaces are encoded as '+'.
func ManualURL(query string) string {
	return ManualSearchURL + url.QueryEscape(strings.TrimSpace(query))
}

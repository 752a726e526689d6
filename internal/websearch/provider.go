package websearch

import (
	"context"
)

// MaxResults caps every result set returned to the model.
const MaxResults = 5

// Result is a single search result entry.
type Result struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
}

// Response is a normalized search response. Results keep the provider's
// relevance order.
type Response struct {
	Query    string   `json:"query"`
	Provider string   `json:"provider,omitempty"`
	Results  []Result `json:"web_results"`
}

// Provider performs web searches.
type Provider interface {
	Name() string
	Search(ctx context.Context, query string, limit int) (Response, error)
}

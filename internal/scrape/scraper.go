package scrape

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
)

// ErrInvalidJSON is returned by backends whose API answered with a body that
// could not be decoded.
var ErrInvalidJSON = errors.New("invalid JSON response")

// PageContent is the normalized result of a scrape. Content holds markdown,
// or a human-readable error message when the scrape failed.
type PageContent struct {
	URL     string `json:"url"`
	Content string `json:"content"`
}

// Scraper extracts the readable content of a webpage.
type Scraper interface {
	// Name is used in user-facing error messages.
	Name() string
	Scrape(ctx context.Context, url string) (string, error)
}

// StatusError reports a non-success HTTP status from a backend.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status code %d", e.StatusCode)
}

package scrape

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/pkg/errors"
)

// Service wraps a Scraper so that a fetch never fails: every failure becomes
// a readable message in PageContent.Content.
type Service struct {
	scraper Scraper
}

func NewService(scraper Scraper) *Service {
	return &Service{scraper: scraper}
}

// Fetch returns the page content or an embedded error description.
func (s *Service) Fetch(ctx context.Context, url string) PageContent {
	url = strings.TrimSpace(url)
	if url == "" {
		return PageContent{URL: url, Content: "Error: url cannot be empty"}
	}

	content, err := s.scraper.Scrape(ctx, url)
	if err != nil {
		slog.WarnContext(ctx, "scrape failed",
			slog.String("scraper", s.scraper.Name()),
			slog.String("url", url),
			slog.Any("error", err),
		)
		return PageContent{URL: url, Content: s.describe(err)}
	}

	return PageContent{URL: url, Content: content}
}

func (s *Service) describe(err error) string {
	var statusErr *StatusError
	switch {
	case errors.As(err, &statusErr):
		return fmt.Sprintf("Error: %s returned status code %d", s.scraper.Name(), statusErr.StatusCode)
	case errors.Is(err, ErrInvalidJSON):
		return fmt.Sprintf("Error: Invalid JSON response from %s", s.scraper.Name())
	default:
		return fmt.Sprintf("Error accessing %s: %v", s.scraper.Name(), err)
	}
}

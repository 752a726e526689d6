package scrape

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"github.com/PuerkitoBio/goquery"
	"github.com/pkg/errors"
)

const defaultMaxBytes = int64(4e6)

// DirectScraper fetches the page itself and converts its body to markdown.
// It needs no API key.
type DirectScraper struct {
	userAgent string
	maxBytes  int64
	client    *http.Client
	converter *converter.Converter
}

func NewDirectScraper(userAgent string, maxBytes int64, timeout time.Duration) *DirectScraper {
	if strings.TrimSpace(userAgent) == "" {
		userAgent = "Researcher/0.1"
	}
	if maxBytes <= 0 {
		maxBytes = defaultMaxBytes
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &DirectScraper{
		userAgent: userAgent,
		maxBytes:  maxBytes,
		client:    &http.Client{Timeout: timeout},
		converter: converter.NewConverter(
			converter.WithPlugins(
				base.NewBasePlugin(),
				commonmark.NewCommonmarkPlugin(),
				table.NewTablePlugin(),
			),
		),
	}
}

// Name implements Scraper.
func (s *DirectScraper) Name() string {
	return "webpage"
}

// Scrape implements Scraper.
func (s *DirectScraper) Scrape(ctx context.Context, rawURL string) (string, error) {
	parsed, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || parsed.Host == "" {
		return "", errors.Errorf("invalid url: %s", rawURL)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", errors.Errorf("unsupported url scheme: %s", parsed.Scheme)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, parsed.String(), nil)
	if err != nil {
		return "", errors.WithStack(err)
	}
	req.Header.Set("User-Agent", s.userAgent)

	slog.DebugContext(ctx, "scraping page", slog.String("url", parsed.String()))

	res, err := s.client.Do(req)
	if err != nil {
		return "", errors.WithStack(err)
	}
	defer res.Body.Close()

	if res.StatusCode < http.StatusOK || res.StatusCode >= http.StatusMultipleChoices {
		return "", errors.WithStack(&StatusError{StatusCode: res.StatusCode})
	}

	doc, err := goquery.NewDocumentFromReader(io.LimitReader(res.Body, s.maxBytes))
	if err != nil {
		return "", errors.WithStack(err)
	}

	doc.Find("script, style, noscript, iframe, svg").Remove()

	html, err := doc.Find("body").Html()
	if err != nil {
		return "", errors.WithStack(err)
	}

	markdown, err := s.converter.ConvertString(html)
	if err != nil {
		return "", errors.WithStack(err)
	}

	return strings.TrimSpace(markdown), nil
}

var _ Scraper = &DirectScraper{}

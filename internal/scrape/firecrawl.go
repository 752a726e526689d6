package scrape

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// FirecrawlScraper delegates scraping to the Firecrawl API, which returns
// cleaned markdown.
type FirecrawlScraper struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewFirecrawlScraper(baseURL, apiKey string, timeout time.Duration) *FirecrawlScraper {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = "https://api.firecrawl.dev"
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &FirecrawlScraper{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
	}
}

// Name implements Scraper.
func (s *FirecrawlScraper) Name() string {
	return "FireCrawl API"
}

type firecrawlPage struct {
	Markdown    string `json:"markdown"`
	PageContent string `json:"page_content"`
}

func (p *firecrawlPage) content() string {
	if p == nil {
		return ""
	}
	if p.Markdown != "" {
		return p.Markdown
	}
	return p.PageContent
}

type firecrawlResponse struct {
	firecrawlPage
	Data *firecrawlPage `json:"data"`
}

// Scrape implements Scraper.
func (s *FirecrawlScraper) Scrape(ctx context.Context, url string) (string, error) {
	body, err := json.Marshal(map[string]string{"url": url})
	if err != nil {
		return "", errors.WithStack(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/scrape", bytes.NewReader(body))
	if err != nil {
		return "", errors.WithStack(err)
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	slog.DebugContext(ctx, "scraping page with firecrawl", slog.String("url", url))

	res, err := s.client.Do(req)
	if err != nil {
		return "", errors.WithStack(err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(res.Body, 64*1024))
		return "", errors.WithStack(&StatusError{StatusCode: res.StatusCode})
	}

	var payload firecrawlResponse
	if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
		return "", errors.Wrap(ErrInvalidJSON, err.Error())
	}

	if content := payload.firecrawlPage.content(); content != "" {
		return content, nil
	}

	return payload.Data.content(), nil
}

var _ Scraper = &FirecrawlScraper{}

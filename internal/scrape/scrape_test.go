package scrape

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFirecrawlServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/scrape", r.URL.Path)
		assert.Equal(t, "Bearer fc-key", r.Header.Get("Authorization"))
		handler(w, r)
	}))
	t.Cleanup(server.Close)
	return server
}

func TestFirecrawlScraper_Markdown(t *testing.T) {
	server := newFirecrawlServer(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "https://go.dev", body["url"])
		w.Write([]byte(`{"markdown": "# Go", "page_content": "ignored"}`))
	})

	content, err := NewFirecrawlScraper(server.URL, "fc-key", time.Second).Scrape(context.Background(), "https://go.dev")
	require.NoError(t, err)
	assert.Equal(t, "# Go", content)
}

func TestFirecrawlScraper_ContentFallbacks(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{name: "page content", body: `{"page_content": "plain text"}`, want: "plain text"},
		{name: "data envelope", body: `{"success": true, "data": {"markdown": "# Wrapped"}}`, want: "# Wrapped"},
		{name: "nothing", body: `{"success": true}`, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := newFirecrawlServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tt.body))
			})

			content, err := NewFirecrawlScraper(server.URL, "fc-key", time.Second).Scrape(context.Background(), "https://example.com")
			require.NoError(t, err)
			assert.Equal(t, tt.want, content)
		})
	}
}

func TestFirecrawlScraper_Errors(t *testing.T) {
	server := newFirecrawlServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
	})

	_, err := NewFirecrawlScraper(server.URL, "fc-key", time.Second).Scrape(context.Background(), "https://example.com")
	require.Error(t, err)

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusPaymentRequired, statusErr.StatusCode)

	server = newFirecrawlServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not json`))
	})

	_, err = NewFirecrawlScraper(server.URL, "fc-key", time.Second).Scrape(context.Background(), "https://example.com")
	assert.True(t, errors.Is(err, ErrInvalidJSON))
}

func TestService_Fetch(t *testing.T) {
	server := newFirecrawlServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"markdown": "hello"}`))
	})

	page := NewService(NewFirecrawlScraper(server.URL, "fc-key", time.Second)).Fetch(context.Background(), " https://example.com ")
	assert.Equal(t, PageContent{URL: "https://example.com", Content: "hello"}, page)
}

func TestService_FetchErrorMessages(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		want    string
	}{
		{
			name: "status",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
			want: "Error: FireCrawl API returned status code 500",
		},
		{
			name: "not found",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusNotFound)
				w.Write([]byte(`{"error": "page not found"}`))
			},
			want: "Error: FireCrawl API returned status code 404",
		},
		{
			name: "invalid json",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"markdown":`))
			},
			want: "Error: Invalid JSON response from FireCrawl API",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := newFirecrawlServer(t, tt.handler)
			page := NewService(NewFirecrawlScraper(server.URL, "fc-key", time.Second)).Fetch(context.Background(), "https://example.com")
			assert.Equal(t, "https://example.com", page.URL)
			assert.Equal(t, tt.want, page.Content)
		})
	}
}

func TestService_FetchUnreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	page := NewService(NewFirecrawlScraper(url, "fc-key", time.Second)).Fetch(context.Background(), "https://example.com")
	assert.Contains(t, page.Content, "Error accessing FireCrawl API: ")
}

func TestService_FetchEmptyURL(t *testing.T) {
	page := NewService(NewFirecrawlScraper("http://127.0.0.1:0", "fc-key", time.Second)).Fetch(context.Background(), "  ")
	assert.Equal(t, "Error: url cannot be empty", page.Content)
}

func TestDirectScraper_Scrape(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-agent", r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<html><head><title>t</title><style>body{}</style></head>
<body>
<script>alert("x")</script>
<h1>Paris</h1>
<p>Paris is the <strong>capital</strong> of France.</p>
</body></html>`))
	}))
	defer server.Close()

	content, err := NewDirectScraper("test-agent", 0, time.Second).Scrape(context.Background(), server.URL)
	require.NoError(t, err)

	assert.Contains(t, content, "# Paris")
	assert.Contains(t, content, "**capital**")
	assert.NotContains(t, content, "alert")
	assert.NotContains(t, content, "body{}")
}

func TestDirectScraper_Errors(t *testing.T) {
	scraper := NewDirectScraper("", 0, time.Second)

	_, err := scraper.Scrape(context.Background(), "ftp://example.com/file")
	assert.Error(t, err)

	_, err = scraper.Scrape(context.Background(), "not a url")
	assert.Error(t, err)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	page := NewService(scraper).Fetch(context.Background(), server.URL)
	assert.Equal(t, "Error: webpage returned status code 404", page.Content)
}

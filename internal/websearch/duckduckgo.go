package websearch

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// DuckDuckGoProvider uses the keyless DuckDuckGo instant answer API. The API
// has no organic results; it answers with a redirect, an instant answer, an
// abstract and related topics. Queries it has nothing for come back empty
// and the search service falls back to a manual search link.
type DuckDuckGoProvider struct {
	endpoint  string
	userAgent string
	client    *http.Client
}

func NewDuckDuckGoProvider(baseURL, userAgent string, timeout time.Duration) *DuckDuckGoProvider {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = "https://api.duckduckgo.com"
	}
	if strings.TrimSpace(userAgent) == "" {
		userAgent = "Researcher/0.1"
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &DuckDuckGoProvider{
		endpoint:  strings.TrimRight(strings.TrimSpace(baseURL), "/") + "/",
		userAgent: userAgent,
		client:    &http.Client{Timeout: timeout},
	}
}

func (p *DuckDuckGoProvider) Name() string {
	return "duckduckgo"
}

func (p *DuckDuckGoProvider) Search(ctx context.Context, query string, limit int) (Response, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return Response{}, errors.New("query cannot be empty")
	}
	if limit <= 0 || limit > MaxResults {
		limit = MaxResults
	}

	answer, err := p.instantAnswer(ctx, query)
	if err != nil {
		return Response{}, err
	}

	results := answer.results(query, limit)
	slog.DebugContext(ctx, "duckduckgo answered",
		slog.String("type", answer.Type),
		slog.Int("results", len(results)),
	)

	return Response{
		Query:    query,
		Provider: p.Name(),
		Results:  results,
	}, nil
}

func (p *DuckDuckGoProvider) instantAnswer(ctx context.Context, query string) (*ddgAnswer, error) {
	params := url.Values{
		"q":             {query},
		"format":        {"json"},
		"no_html":       {"1"},
		"no_redirect":   {"1"},
		"skip_disambig": {"1"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create request")
	}
	req.Header.Set("User-Agent", p.userAgent)
	req.Header.Set("Accept", "application/json")

	res, err := p.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "instant answer request failed")
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, errors.Errorf("instant answer request failed with status %d", res.StatusCode)
	}

	answer := &ddgAnswer{}
	if err := json.NewDecoder(res.Body).Decode(answer); err != nil {
		return nil, errors.Wrap(err, "failed to decode instant answer")
	}
	return answer, nil
}

// ddgAnswer is the subset of the instant answer payload that maps to results.
// Type is A (article), D (disambiguation), C (category), N (name) or E
// (exclusive, e.g. a !bang redirect).
type ddgAnswer struct {
	Type           string     `json:"Type"`
	Redirect       string     `json:"Redirect"`
	Answer         string     `json:"Answer"`
	Heading        string     `json:"Heading"`
	AbstractText   string     `json:"AbstractText"`
	AbstractURL    string     `json:"AbstractURL"`
	AbstractSource string     `json:"AbstractSource"`
	Definition     string     `json:"Definition"`
	DefinitionURL  string     `json:"DefinitionURL"`
	Results        []ddgTopic `json:"Results"`
	RelatedTopics  []ddgTopic `json:"RelatedTopics"`
}

// ddgTopic is either a leaf topic or a named group of topics.
type ddgTopic struct {
	Text     string     `json:"Text"`
	FirstURL string     `json:"FirstURL"`
	Name     string     `json:"Name"`
	Topics   []ddgTopic `json:"Topics"`
}

// results orders entries by how directly they answer the query: redirect,
// instant answer, abstract, definition, official results, related topics.
// Entries pointing at an already listed URL are skipped.
func (a *ddgAnswer) results(query string, limit int) []Result {
	list := resultList{limit: limit, seen: make(map[string]struct{})}

	list.add(Result{Title: "Redirect for " + query, URL: a.Redirect, Snippet: a.Redirect})
	if answer := strings.TrimSpace(a.Answer); answer != "" {
		list.add(Result{Title: a.headingOr(query), URL: firstNonEmpty(a.AbstractURL, "https://duckduckgo.com/?q="+url.QueryEscape(query)), Snippet: answer})
	}
	if a.AbstractText != "" {
		list.add(Result{Title: a.abstractTitle(), URL: a.AbstractURL, Snippet: a.AbstractText})
	}
	if a.Definition != "" {
		list.add(Result{Title: "Definition of " + a.headingOr(query), URL: a.DefinitionURL, Snippet: a.Definition})
	}

	for _, topic := range flattenTopics(a.Results) {
		list.add(topic.result())
	}
	for _, topic := range flattenTopics(a.RelatedTopics) {
		list.add(topic.result())
	}

	return list.items
}

func (a *ddgAnswer) headingOr(fallback string) string {
	return firstNonEmpty(a.Heading, fallback)
}

func (a *ddgAnswer) abstractTitle() string {
	if a.Heading != "" && a.AbstractSource != "" {
		return a.Heading + " - " + a.AbstractSource
	}
	return firstNonEmpty(a.Heading, a.AbstractSource, a.AbstractText)
}

// result splits "Title - description" topic text. Topics without a separator
// take their title from the last path segment of FirstURL.
func (t ddgTopic) result() Result {
	text := strings.TrimSpace(t.Text)
	if title, snippet, ok := strings.Cut(text, " - "); ok && title != "" {
		return Result{Title: title, URL: t.FirstURL, Snippet: snippet}
	}

	title := text
	if u, err := url.Parse(t.FirstURL); err == nil && u.Path != "" && u.Path != "/" {
		if name, err := url.PathUnescape(path.Base(u.Path)); err == nil {
			title = strings.ReplaceAll(name, "_", " ")
		}
	}
	return Result{Title: title, URL: t.FirstURL, Snippet: text}
}

// flattenTopics expands topic groups depth first, keeping document order.
func flattenTopics(topics []ddgTopic) []ddgTopic {
	var flat []ddgTopic
	for _, topic := range topics {
		if len(topic.Topics) > 0 {
			flat = append(flat, flattenTopics(topic.Topics)...)
			continue
		}
		flat = append(flat, topic)
	}
	return flat
}

type resultList struct {
	limit int
	seen  map[string]struct{}
	items []Result
}

func (l *resultList) add(r Result) {
	r.URL = strings.TrimSpace(r.URL)
	if r.URL == "" || len(l.items) >= l.limit {
		return
	}
	if _, dup := l.seen[r.URL]; dup {
		return
	}
	l.seen[r.URL] = struct{}{}

	r.Title = strings.TrimSpace(r.Title)
	r.Snippet = strings.TrimSpace(r.Snippet)
	l.items = append(l.items, r)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

var _ Provider = &DuckDuckGoProvider{}

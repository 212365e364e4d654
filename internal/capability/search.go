package capability

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-shiori/go-readability"
	"github.com/gocolly/colly/v2"

	"github.com/victoruno/victoruno/internal/log"
)

// Result is one web search hit.
type Result struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
}

// SearchConfig holds the web search adapter configuration.
type SearchConfig struct {
	// BaseURL is the SearXNG instance URL. Empty marks the capability unavailable.
	BaseURL string

	// MaxResults bounds the returned result list (default 5).
	MaxResults int

	// Timeout is the per-query timeout.
	Timeout time.Duration

	// Fetch settings for scraping a result page.
	FetchParallelism int
	FetchDelay       time.Duration
	FetchTimeout     time.Duration
}

// retryBackoff is the pause before the single retry of a failed search.
const retryBackoff = 500 * time.Millisecond

// maxFetchBodySize bounds scraped page bodies (2 MB).
const maxFetchBodySize = 2 * 1024 * 1024

// Search performs web searches against a SearXNG instance and scrapes
// result pages for research context.
type Search struct {
	baseURL    string
	maxResults int
	timeout    time.Duration
	client     *http.Client
	logger     log.Logger

	fetchParallelism int
	fetchDelay       time.Duration
	fetchTimeout     time.Duration
}

// NewSearch creates the web search adapter. An empty base URL is not an
// error at construction: it makes the adapter report unavailable.
func NewSearch(cfg SearchConfig, logger log.Logger) *Search {
	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 5
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	fetchTimeout := cfg.FetchTimeout
	if fetchTimeout <= 0 {
		fetchTimeout = 30 * time.Second
	}
	parallelism := cfg.FetchParallelism
	if parallelism <= 0 {
		parallelism = 2
	}
	if logger == nil {
		logger = log.NewNop()
	}
	return &Search{
		baseURL:          strings.TrimRight(cfg.BaseURL, "/"),
		maxResults:       maxResults,
		timeout:          timeout,
		client:           &http.Client{Timeout: timeout},
		logger:           logger,
		fetchParallelism: parallelism,
		fetchDelay:       cfg.FetchDelay,
		fetchTimeout:     fetchTimeout,
	}
}

// Name implements Capability.
func (s *Search) Name() string { return SearchName }

// Available reports whether a SearXNG base URL is configured. No network call.
func (s *Search) Available() bool { return s.baseURL != "" }

// searxngResponse mirrors the subset of the SearXNG JSON payload we use.
type searxngResponse struct {
	Results []struct {
		Title   string `json:"title"`
		URL     string `json:"url"`
		Content string `json:"content"`
	} `json:"results"`
}

// Search runs a query and returns a bounded, ordered result list.
// Network failures are retried exactly once with a short backoff before
// surfacing to the router.
func (s *Search) Search(ctx context.Context, query string) ([]Result, error) {
	if !s.Available() {
		return nil, &Error{Capability: SearchName, Kind: KindUnavailable,
			Err: errors.New("no search endpoint configured")}
	}

	results, err := s.searchOnce(ctx, query)
	if err == nil {
		return results, nil
	}
	if !IsKind(err, KindNetwork) {
		return nil, err
	}

	s.logger.Debug("search failed, retrying once", "query", query, "error", err)
	select {
	case <-ctx.Done():
		return nil, &Error{Capability: SearchName, Kind: KindTimeout, Err: ctx.Err()}
	case <-time.After(retryBackoff):
	}
	return s.searchOnce(ctx, query)
}

func (s *Search) searchOnce(ctx context.Context, query string) ([]Result, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	q := url.Values{}
	q.Set("q", query)
	q.Set("format", "json")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/search?"+q.Encode(), nil)
	if err != nil {
		return nil, &Error{Capability: SearchName, Kind: KindNetwork, Err: err}
	}

	resp, err := s.client.Do(req)
	if err != nil {
		kind := KindNetwork
		if errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
			kind = KindTimeout
		}
		return nil, &Error{Capability: SearchName, Kind: kind, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, &Error{Capability: SearchName, Kind: KindNetwork,
			Err: fmt.Errorf("unexpected status %d", resp.StatusCode)}
	}

	var payload searxngResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, &Error{Capability: SearchName, Kind: KindCorrupt,
			Err: fmt.Errorf("decoding response: %w", err)}
	}

	if len(payload.Results) == 0 {
		return nil, &Error{Capability: SearchName, Kind: KindEmpty,
			Err: fmt.Errorf("no results for %q", query)}
	}

	n := min(len(payload.Results), s.maxResults)
	results := make([]Result, 0, n)
	for _, r := range payload.Results[:n] {
		results = append(results, Result{Title: r.Title, URL: r.URL, Snippet: r.Content})
	}
	s.logger.Debug("search succeeded", "query", query, "results", len(results))
	return results, nil
}

// Fetch scrapes a result page and returns its readable article text.
// Best-effort companion to Search: the router treats a Fetch failure as
// missing context, not as a capability failure.
func (s *Search) Fetch(ctx context.Context, pageURL string) (string, error) {
	parsed, err := url.Parse(pageURL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return "", &Error{Capability: SearchName, Kind: KindUnsupported,
			Err: fmt.Errorf("not a fetchable URL: %q", pageURL)}
	}

	c := colly.NewCollector(
		colly.MaxBodySize(maxFetchBodySize),
		colly.StdlibContext(ctx),
	)
	c.SetRequestTimeout(s.fetchTimeout)
	if err := c.Limit(&colly.LimitRule{
		DomainGlob:  "*",
		Parallelism: s.fetchParallelism,
		Delay:       s.fetchDelay,
	}); err != nil {
		return "", &Error{Capability: SearchName, Kind: KindNetwork, Err: err}
	}

	var body []byte
	c.OnResponse(func(r *colly.Response) {
		body = r.Body
	})

	if err := c.Visit(pageURL); err != nil {
		kind := KindNetwork
		if errors.Is(err, context.DeadlineExceeded) {
			kind = KindTimeout
		}
		return "", &Error{Capability: SearchName, Kind: kind, Err: err}
	}
	c.Wait()

	if len(body) == 0 {
		return "", &Error{Capability: SearchName, Kind: KindEmpty,
			Err: fmt.Errorf("empty body from %q", pageURL)}
	}

	article, err := readability.FromReader(bytes.NewReader(body), parsed)
	if err != nil {
		return "", &Error{Capability: SearchName, Kind: KindCorrupt,
			Err: fmt.Errorf("extracting article: %w", err)}
	}

	text := strings.TrimSpace(article.TextContent)
	if text == "" {
		return "", &Error{Capability: SearchName, Kind: KindEmpty,
			Err: fmt.Errorf("no readable text at %q", pageURL)}
	}
	return text, nil
}

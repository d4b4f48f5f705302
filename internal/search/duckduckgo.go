package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/nbdavies/ant/internal/httpkit"
)

// DefaultDuckDuckGoURL is the Instant Answer API endpoint.
const DefaultDuckDuckGoURL = "https://api.duckduckgo.com"

// DuckDuckGo implements the Provider interface against the DuckDuckGo
// Instant Answer API. It needs no API key, which keeps the assistant
// useful out of the box; answers are abstracts and related topics
// rather than full web results.
type DuckDuckGo struct {
	baseURL    string
	httpClient *http.Client
}

// NewDuckDuckGo creates a DuckDuckGo provider. An empty baseURL uses
// the public API.
func NewDuckDuckGo(baseURL string) *DuckDuckGo {
	if baseURL == "" {
		baseURL = DefaultDuckDuckGoURL
	}
	return &DuckDuckGo{
		baseURL: baseURL,
		httpClient: httpkit.NewClient(
			httpkit.WithTimeout(10 * time.Second),
		),
	}
}

func (d *DuckDuckGo) Name() string { return "duckduckgo" }

// ddgResponse is the Instant Answer API response, reduced to the
// fields used here.
type ddgResponse struct {
	Heading     string     `json:"Heading"`
	Abstract    string     `json:"Abstract"`
	AbstractURL string     `json:"AbstractURL"`
	Answer      string     `json:"Answer"`
	Definition  string     `json:"Definition"`
	Results     []ddgTopic `json:"Results"`
	Related     []ddgTopic `json:"RelatedTopics"`
}

type ddgTopic struct {
	Text     string `json:"Text"`
	FirstURL string `json:"FirstURL"`
}

func (d *DuckDuckGo) Search(ctx context.Context, query string, opts Options) ([]Result, error) {
	params := url.Values{
		"q":             {query},
		"format":        {"json"},
		"no_html":       {"1"},
		"skip_disambig": {"1"},
	}

	count := opts.Count
	if count <= 0 {
		count = 5
	}

	reqURL := fmt.Sprintf("%s/?%s", d.baseURL, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("duckduckgo: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("duckduckgo: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body := httpkit.ReadErrorBody(resp.Body, 512)
		return nil, fmt.Errorf("duckduckgo: HTTP %d: %s", resp.StatusCode, body)
	}

	var dr ddgResponse
	if err := json.NewDecoder(resp.Body).Decode(&dr); err != nil {
		return nil, fmt.Errorf("duckduckgo: decode response: %w", err)
	}

	return dr.toResults(count), nil
}

// toResults flattens the instant-answer fields into the common Result
// shape: direct answer first, then abstract, then linked topics.
func (r *ddgResponse) toResults(count int) []Result {
	var results []Result

	if r.Answer != "" {
		results = append(results, Result{Title: "Answer", Snippet: r.Answer})
	}
	if r.Abstract != "" {
		title := r.Heading
		if title == "" {
			title = "Summary"
		}
		results = append(results, Result{
			Title:   title,
			URL:     r.AbstractURL,
			Snippet: r.Abstract,
		})
	}
	if r.Definition != "" {
		results = append(results, Result{Title: "Definition", Snippet: r.Definition})
	}

	for _, t := range append(r.Results, r.Related...) {
		if len(results) >= count {
			break
		}
		if t.Text == "" {
			continue
		}
		results = append(results, Result{Title: t.Text, URL: t.FirstURL})
	}

	if len(results) > count {
		results = results[:count]
	}
	return results
}

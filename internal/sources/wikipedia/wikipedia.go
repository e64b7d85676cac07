// Package wikipedia looks entities up in Wikipedia through the MediaWiki
// action API and renders the best matching pages as plain text.
package wikipedia

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/emetrics/populate/internal/transport"
	"github.com/emetrics/populate/pkg/constants"
	"github.com/emetrics/populate/pkg/entities"
)

// Name identifies the source in logs and metrics.
const Name = "wikipedia"

// NoResult is returned when the search finds no page with text.
const NoResult = "No good Wikipedia Search Result was found"

// Client queries the MediaWiki action API.
type Client struct {
	transport *transport.Client
	baseURL   string
	topK      int
	maxChars  int
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the API endpoint.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.baseURL = u
		}
	}
}

// WithTopK sets how many pages are summarized per lookup.
func WithTopK(k int) Option {
	return func(c *Client) {
		if k > 0 {
			c.topK = k
		}
	}
}

// WithMaxChars caps the rendered text.
func WithMaxChars(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxChars = n
		}
	}
}

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.transport = transport.New(Name, transport.WithHTTPClient(hc))
	}
}

// New creates a Wikipedia client.
func New(opts ...Option) *Client {
	c := &Client{
		transport: transport.New(Name),
		baseURL:   constants.WikipediaAPIURL,
		topK:      constants.WikipediaTopK,
		maxChars:  constants.SourceMaxChars,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Name implements sources.Source.
func (c *Client) Name() string {
	return Name
}

type searchResponse struct {
	Query struct {
		Search []struct {
			Title string `json:"title"`
		} `json:"search"`
	} `json:"query"`
}

type extractResponse struct {
	Query struct {
		Pages []struct {
			Title   string `json:"title"`
			Extract string `json:"extract"`
			Missing bool   `json:"missing"`
		} `json:"pages"`
	} `json:"query"`
}

// Lookup searches for the query and returns "Page: <title>\nSummary: <intro>"
// blocks for the top pages, separated by blank lines.
func (c *Client) Lookup(ctx context.Context, query string) (string, error) {
	titles, err := c.search(ctx, query)
	if err != nil {
		return "", err
	}
	if len(titles) == 0 {
		return NoResult, nil
	}

	extracts, err := c.extracts(ctx, titles)
	if err != nil {
		return "", err
	}

	blocks := make([]string, 0, len(titles))
	for _, title := range titles {
		summary, ok := extracts[title]
		if !ok || strings.TrimSpace(summary) == "" {
			continue
		}
		blocks = append(blocks, "Page: "+title+"\nSummary: "+strings.TrimSpace(summary))
	}
	if len(blocks) == 0 {
		return NoResult, nil
	}

	text, _ := entities.Truncate(strings.Join(blocks, "\n\n"), c.maxChars)
	return text, nil
}

func (c *Client) search(ctx context.Context, query string) ([]string, error) {
	params := url.Values{
		"action":        {"query"},
		"list":          {"search"},
		"srsearch":      {query},
		"srlimit":       {strconv.Itoa(c.topK)},
		"format":        {"json"},
		"formatversion": {"2"},
	}

	var resp searchResponse
	if err := c.transport.GetJSON(ctx, c.baseURL+"?"+params.Encode(), &resp); err != nil {
		return nil, err
	}

	titles := make([]string, 0, len(resp.Query.Search))
	for _, hit := range resp.Query.Search {
		titles = append(titles, hit.Title)
	}
	return titles, nil
}

func (c *Client) extracts(ctx context.Context, titles []string) (map[string]string, error) {
	params := url.Values{
		"action":        {"query"},
		"prop":          {"extracts"},
		"exintro":       {"1"},
		"explaintext":   {"1"},
		"exlimit":       {strconv.Itoa(len(titles))},
		"titles":        {strings.Join(titles, "|")},
		"format":        {"json"},
		"formatversion": {"2"},
	}

	var resp extractResponse
	if err := c.transport.GetJSON(ctx, c.baseURL+"?"+params.Encode(), &resp); err != nil {
		return nil, err
	}

	out := make(map[string]string, len(resp.Query.Pages))
	for _, page := range resp.Query.Pages {
		if page.Missing {
			continue
		}
		out[page.Title] = page.Extract
	}
	return out, nil
}

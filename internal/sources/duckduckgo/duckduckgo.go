// Package duckduckgo is the web-search source. It uses the DuckDuckGo Instant
// Answer API, which needs no key and returns JSON.
package duckduckgo

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/emetrics/populate/internal/transport"
	"github.com/emetrics/populate/pkg/constants"
	"github.com/emetrics/populate/pkg/entities"
	"github.com/emetrics/populate/pkg/errors"
)

// Name identifies the source in logs and metrics.
const Name = "duckduckgo"

// NoResult is returned when the search has nothing to say.
const NoResult = "No good DuckDuckGo Search Result was found"

// Client queries the Instant Answer API.
type Client struct {
	transport  *transport.Client
	baseURL    string
	maxResults int
	maxChars   int
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

// WithMaxResults sets how many related topics are kept.
func WithMaxResults(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxResults = n
		}
	}
}

// WithMaxChars caps the returned text.
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

// New creates a DuckDuckGo client.
func New(opts ...Option) *Client {
	c := &Client{
		transport:  transport.New(Name),
		baseURL:    constants.DuckDuckGoAPIURL,
		maxResults: constants.SearchMaxResults,
		maxChars:   constants.SourceMaxChars,
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

type topic struct {
	Text   string  `json:"Text"`
	Name   string  `json:"Name"`
	Topics []topic `json:"Topics"`
}

type instantAnswer struct {
	Heading       string  `json:"Heading"`
	AbstractText  string  `json:"AbstractText"`
	Answer        string  `json:"Answer"`
	Definition    string  `json:"Definition"`
	RelatedTopics []topic `json:"RelatedTopics"`
}

// Lookup returns the abstract plus the first related topic snippets joined
// by spaces.
func (c *Client) Lookup(ctx context.Context, query string) (string, error) {
	params := url.Values{
		"q":             {query},
		"format":        {"json"},
		"no_html":       {"1"},
		"no_redirect":   {"1"},
		"skip_disambig": {"1"},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return "", errors.WrapResource("create", "request", "GET "+c.baseURL, err)
	}

	resp, err := c.transport.Do(ctx, req)
	if err != nil {
		return "", err
	}
	// The API answers 202 with an empty body when it throttles a client.
	if resp.StatusCode == http.StatusAccepted {
		_ = resp.Body.Close()
		return "", &errors.APIError{
			Provider:   Name,
			StatusCode: http.StatusTooManyRequests,
			Message:    "throttled (status 202)",
		}
	}

	var answer instantAnswer
	if err := c.transport.DecodeResponse(ctx, resp, &answer); err != nil {
		return "", err
	}

	snippets := make([]string, 0, c.maxResults+2)
	for _, s := range []string{answer.AbstractText, answer.Answer, answer.Definition} {
		if s = strings.TrimSpace(s); s != "" {
			snippets = append(snippets, s)
		}
	}
	for _, text := range flatten(answer.RelatedTopics) {
		if len(snippets) >= c.maxResults {
			break
		}
		snippets = append(snippets, text)
	}
	if len(snippets) == 0 {
		return NoResult, nil
	}

	text, _ := entities.Truncate(strings.Join(snippets, " "), c.maxChars)
	return text, nil
}

// flatten walks grouped topics depth first.
func flatten(topics []topic) []string {
	var out []string
	for _, t := range topics {
		if s := strings.TrimSpace(t.Text); s != "" {
			out = append(out, s)
		}
		out = append(out, flatten(t.Topics)...)
	}
	return out
}

// Package mistral implements llm.Model on the Mistral chat completions API.
package mistral

import (
	"context"
	"net/http"
	"strings"

	"github.com/emetrics/populate/internal/transport"
	"github.com/emetrics/populate/pkg/constants"
	"github.com/emetrics/populate/pkg/errors"
)

// Provider is the provider name used in errors and logs.
const Provider = "mistral"

// DefaultBaseURL is the public Mistral API.
const DefaultBaseURL = "https://api.mistral.ai/v1"

// Config holds the explicit credentials and sampling settings.
type Config struct {
	APIKey      string
	Model       string
	Temperature *float32 // nil selects the default
	BaseURL     string
	HTTPClient  *http.Client
}

// Client is a Mistral-backed llm.Model.
type Client struct {
	cfg       Config
	transport *transport.Client
}

// New creates a client.
func New(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.NewAuthenticationError(Provider, "bearer", "MISTRAL_API_KEY is required", errors.ErrAPIKeyRequired)
	}
	if cfg.Model == "" {
		cfg.Model = constants.DefaultMistralModel
	}
	if cfg.Temperature == nil {
		t := float32(constants.DefaultTemperature)
		cfg.Temperature = &t
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	return &Client{
		cfg: cfg,
		transport: transport.New(Provider,
			transport.WithAuth(&transport.BearerAuth{}, cfg.APIKey),
			transport.WithHTTPClient(cfg.HTTPClient),
			transport.WithTimeout(constants.ModelTimeout),
		),
	}, nil
}

// Name implements llm.Model.
func (c *Client) Name() string {
	return Provider + "/" + c.cfg.Model
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []message `json:"messages"`
	Temperature float32   `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message message `json:"message"`
	} `json:"choices"`
}

// Generate implements llm.Model. The prompt is sent as a single user message.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	req := chatRequest{
		Model:       c.cfg.Model,
		Messages:    []message{{Role: "user", Content: prompt}},
		Temperature: *c.cfg.Temperature,
	}

	var resp chatResponse
	if err := c.transport.PostJSON(ctx, c.cfg.BaseURL+"/chat/completions", req, &resp); err != nil {
		if errors.IsAPIKeyError(err) {
			return "", errors.NewAuthenticationError(Provider, "bearer", "unauthorized, check MISTRAL_API_KEY", err)
		}
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("mistral: response has no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

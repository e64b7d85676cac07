// Package gemini implements llm.Model on Google's GenAI SDK, against either
// the Gemini API (API key) or Vertex AI (Application Default Credentials).
package gemini

import (
	"context"
	stderrors "errors"
	"net/http"
	"sync"

	"cloud.google.com/go/auth/credentials"
	"google.golang.org/genai"

	"github.com/emetrics/populate/pkg/constants"
	"github.com/emetrics/populate/pkg/errors"
)

// Provider is the provider name used in errors and logs.
const Provider = "gemini"

// Config holds the explicit credentials and sampling settings.
type Config struct {
	APIKey      string
	Model       string
	Temperature *float32 // nil selects the default

	// Project and Location select the Vertex AI backend when Project is set.
	Project  string
	Location string
}

type generateFunc func(ctx context.Context, prompt string) (string, error)

// Client is a Gemini-backed llm.Model.
type Client struct {
	cfg Config

	mu       sync.Mutex
	genai    *genai.Client
	generate generateFunc
}

// New creates a client. The SDK client is created lazily on the first call.
func New(cfg Config) (*Client, error) {
	if cfg.Model == "" {
		cfg.Model = constants.DefaultGeminiModel
	}
	if cfg.Temperature == nil {
		cfg.Temperature = genai.Ptr(float32(constants.DefaultTemperature))
	}
	if cfg.Project == "" && cfg.APIKey == "" {
		return nil, errors.NewAuthenticationError(Provider, "api_key", "GEMINI_API_KEY or GOOGLE_API_KEY is required", errors.ErrAPIKeyRequired)
	}
	if cfg.Project != "" && cfg.Location == "" {
		cfg.Location = "us-central1"
	}
	c := &Client{cfg: cfg}
	c.generate = c.generateContent
	return c, nil
}

// Name implements llm.Model.
func (c *Client) Name() string {
	return Provider + "/" + c.cfg.Model
}

// Generate implements llm.Model.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	text, err := c.generate(ctx, prompt)
	if err != nil {
		return "", mapError(err)
	}
	return text, nil
}

func (c *Client) generateContent(ctx context.Context, prompt string) (string, error) {
	client, err := c.client(ctx)
	if err != nil {
		return "", err
	}

	resp, err := client.Models.GenerateContent(ctx, c.cfg.Model, genai.Text(prompt), &genai.GenerateContentConfig{
		Temperature: genai.Ptr(*c.cfg.Temperature),
	})
	if err != nil {
		return "", err
	}
	return resp.Text(), nil
}

func (c *Client) client(ctx context.Context) (*genai.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.genai != nil {
		return c.genai, nil
	}

	config := &genai.ClientConfig{
		Backend: genai.BackendGeminiAPI,
		APIKey:  c.cfg.APIKey,
	}
	if c.cfg.Project != "" {
		config = &genai.ClientConfig{
			Backend:  genai.BackendVertexAI,
			Project:  c.cfg.Project,
			Location: c.cfg.Location,
		}
		creds, err := credentials.DetectDefault(&credentials.DetectOptions{
			Scopes: []string{"https://www.googleapis.com/auth/cloud-platform"},
		})
		if err != nil {
			return nil, errors.NewAuthenticationError(Provider, "adc",
				"no Application Default Credentials, run 'gcloud auth application-default login'", errors.ErrAPIKeyRequired)
		}
		config.Credentials = creds
	}

	client, err := genai.NewClient(ctx, config)
	if err != nil {
		return nil, errors.NewConfigError(Provider, "failed to create GenAI client", err)
	}
	c.genai = client
	return client, nil
}

// mapError converts SDK errors into the typed errors llm.Classify understands.
func mapError(err error) error {
	code, message, ok := apiErrorCode(err)
	if !ok {
		return err
	}
	if code == http.StatusUnauthorized || code == http.StatusForbidden {
		return errors.NewAuthenticationError(Provider, "api_key", message, err)
	}
	return &errors.APIError{
		Provider:   Provider,
		StatusCode: code,
		Message:    message,
		Err:        err,
	}
}

func apiErrorCode(err error) (int, string, bool) {
	var apiErr genai.APIError
	if stderrors.As(err, &apiErr) {
		return apiErr.Code, apiErr.Message, true
	}
	var apiErrPtr *genai.APIError
	if stderrors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return apiErrPtr.Code, apiErrPtr.Message, true
	}
	return 0, "", false
}

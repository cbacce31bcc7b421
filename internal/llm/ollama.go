package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/ollama/ollama/api"
)

// ErrProviderUnavailable wraps transport failures talking to the provider.
var ErrProviderUnavailable = errors.New("llm provider is not reachable")

// OllamaClient implements Client for an Ollama server
type OllamaClient struct {
	client *api.Client
	config *Config
}

// NewOllamaClient creates a client for config.Host. An empty host uses
// OLLAMA_HOST, falling back to http://localhost:11434.
func NewOllamaClient(config *Config) (*OllamaClient, error) {
	if config == nil {
		config = DefaultOllamaConfig()
	}

	var client *api.Client
	if config.Host != "" {
		parsedURL, err := url.Parse(config.Host)
		if err != nil || parsedURL.Scheme == "" || parsedURL.Host == "" {
			return nil, fmt.Errorf("invalid ollama host %q", config.Host)
		}
		client = api.NewClient(parsedURL, http.DefaultClient)
	} else {
		c, err := api.ClientFromEnvironment()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
		}
		client = c
	}

	return &OllamaClient{client: client, config: config}, nil
}

// Generate runs a single non-streaming completion
func (c *OllamaClient) Generate(ctx context.Context, instruction string, params GenerationParams) (string, error) {
	modelName := c.config.GetModel(params.Tier)
	if modelName == "" {
		return "", fmt.Errorf("no model configured for tier %s", params.Tier)
	}

	options := map[string]any{
		"temperature": params.Temperature,
	}
	if params.TopK > 0 {
		options["top_k"] = params.TopK
	}
	if params.TopP > 0 {
		options["top_p"] = params.TopP
	}
	if params.MaxOutputTokens > 0 {
		options["num_predict"] = params.MaxOutputTokens
	}

	req := &api.GenerateRequest{
		Model:   modelName,
		Prompt:  instruction,
		Options: options,
		Stream:  new(bool), // false - we want the complete response
	}

	var text string
	err := c.client.Generate(ctx, req, func(resp api.GenerateResponse) error {
		text += resp.Response
		return nil
	})
	if err != nil {
		if ctx.Err() != nil {
			return "", fmt.Errorf("ollama generate: %w", ctx.Err())
		}
		return "", fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}
	if text == "" {
		return "", fmt.Errorf("no text in response")
	}

	return CleanCandidate(text), nil
}

// Provider reports ProviderOllama
func (c *OllamaClient) Provider() Provider {
	return ProviderOllama
}

// GetModel returns the model name for a tier
func (c *OllamaClient) GetModel(tier ModelTier) string {
	return c.config.GetModel(tier)
}

// Close is a no-op; the HTTP client holds no dedicated resources.
func (c *OllamaClient) Close() error {
	return nil
}

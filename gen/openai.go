package gen

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"

	"github.com/masonry-io/mason/metrics"
)

// ClientConfig configures the chat-completions backend.
//
// BaseURL makes the backend endpoint-agnostic: any server speaking the
// chat-completions protocol works, including local ollama
// (http://localhost:11434/v1) where no real API key is required.
type ClientConfig struct {
	// APIKey authenticates against the endpoint. May be a placeholder for
	// local endpoints that ignore it.
	APIKey string
	// BaseURL overrides the default API endpoint when non-empty.
	BaseURL string
	// Model is the model identifier to request.
	Model string
	// Metrics receives call counters. May be nil.
	Metrics *metrics.Collector
}

// Client is a Generator backed by a chat-completions endpoint.
type Client struct {
	client  *openai.Client
	model   string
	metrics *metrics.Collector
}

var _ Generator = (*Client)(nil)

// NewClient creates a chat-completions Generator.
func NewClient(cfg ClientConfig) (*Client, error) {
	if cfg.Model == "" {
		return nil, fmt.Errorf("generator model must be set")
	}
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	return &Client{
		client:  openai.NewClientWithConfig(clientCfg),
		model:   cfg.Model,
		metrics: cfg.Metrics,
	}, nil
}

// Generate produces a first candidate for the request.
func (c *Client) Generate(ctx context.Context, request string) (string, error) {
	return c.complete(ctx, generatePrompt(request))
}

// Repair produces a corrected candidate from failure evidence.
func (c *Client) Repair(ctx context.Context, req RepairRequest) (string, error) {
	return c.complete(ctx, repairPrompt(req))
}

func (c *Client) complete(ctx context.Context, userPrompt string) (string, error) {
	c.metrics.IncGeneratorCall()

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt},
		},
	})
	if err != nil {
		c.metrics.IncGeneratorFailure()
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		c.metrics.IncGeneratorFailure()
		return "", fmt.Errorf("chat completion returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

package adapter

import (
	"context"
	"encoding/base64"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/m-mizutani/goerr/v2"
)

const defaultClaudeModel = "claude-sonnet-4-5"

// ClaudeClient sends analyses to the Anthropic Messages API. It has no
// structured output mode, so the schema is only described in the prompt.
type ClaudeClient struct {
	client    anthropic.Client
	model     string
	maxTokens int64
}

type claudeConfig struct {
	model     string
	baseURL   string
	maxTokens int64
}

type ClaudeOption func(*claudeConfig)

func WithClaudeModel(model string) ClaudeOption {
	return func(c *claudeConfig) {
		c.model = model
	}
}

func WithClaudeBaseURL(url string) ClaudeOption {
	return func(c *claudeConfig) {
		c.baseURL = url
	}
}

func NewClaude(apiKey string, opts ...ClaudeOption) (*ClaudeClient, error) {
	if apiKey == "" {
		return nil, goerr.New("anthropic api key is required")
	}

	cfg := &claudeConfig{
		model:     defaultClaudeModel,
		maxTokens: MaxOutputTokens,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	clientOpts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if cfg.baseURL != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(cfg.baseURL))
	}

	return &ClaudeClient{
		client:    anthropic.NewClient(clientOpts...),
		model:     cfg.model,
		maxTokens: cfg.maxTokens,
	}, nil
}

func (c *ClaudeClient) Generate(ctx context.Context, req *InferenceRequest) (string, error) {
	// images first, then the instruction
	var blocks []anthropic.ContentBlockParamUnion
	for _, img := range req.Images {
		blocks = append(blocks, anthropic.NewImageBlockBase64(img.MIMEType, base64.StdEncoding.EncodeToString(img.Data)))
	}
	blocks = append(blocks, anthropic.NewTextBlock(req.Prompt))

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: c.maxTokens,
		Messages:  []anthropic.MessageParam{anthropic.NewUserMessage(blocks...)},
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}

	msg, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return "", goerr.Wrap(err, "failed to create message", goerr.V("model", c.model))
	}

	var text strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	if text.Len() == 0 {
		return "", goerr.Wrap(ErrEmptyResponse, "no text block in message", goerr.V("model", c.model))
	}
	return text.String(), nil
}

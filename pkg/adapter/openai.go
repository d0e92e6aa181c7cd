package adapter

import (
	"context"
	"encoding/base64"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/sashabaranov/go-openai"
)

type OpenAIClient struct {
	client    *openai.Client
	model     string
	maxTokens int
	detail    openai.ImageURLDetail
}

type OpenAIOption func(*openAIConfig)

type openAIConfig struct {
	baseURL   string
	model     string
	maxTokens int
	detail    openai.ImageURLDetail
}

func WithOpenAIModel(model string) OpenAIOption {
	return func(c *openAIConfig) {
		c.model = model
	}
}

// WithOpenAIBaseURL points the client at an OpenAI compatible endpoint.
func WithOpenAIBaseURL(url string) OpenAIOption {
	return func(c *openAIConfig) {
		c.baseURL = url
	}
}

func WithOpenAIMaxTokens(n int) OpenAIOption {
	return func(c *openAIConfig) {
		c.maxTokens = n
	}
}

func WithOpenAIImageDetail(detail openai.ImageURLDetail) OpenAIOption {
	return func(c *openAIConfig) {
		c.detail = detail
	}
}

func NewOpenAI(apiKey string, opts ...OpenAIOption) (*OpenAIClient, error) {
	if apiKey == "" {
		return nil, goerr.New("openai api key is required")
	}

	cfg := &openAIConfig{
		model:     openai.GPT4o,
		maxTokens: MaxOutputTokens,
		detail:    openai.ImageURLDetailAuto,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	clientConfig := openai.DefaultConfig(apiKey)
	if cfg.baseURL != "" {
		clientConfig.BaseURL = cfg.baseURL
	}

	return &OpenAIClient{
		client:    openai.NewClientWithConfig(clientConfig),
		model:     cfg.model,
		maxTokens: cfg.maxTokens,
		detail:    cfg.detail,
	}, nil
}

func (c *OpenAIClient) Generate(ctx context.Context, req *InferenceRequest) (string, error) {
	parts := []openai.ChatMessagePart{
		{Type: openai.ChatMessagePartTypeText, Text: req.Prompt},
	}
	for _, img := range req.Images {
		parts = append(parts, openai.ChatMessagePart{
			Type: openai.ChatMessagePartTypeImageURL,
			ImageURL: &openai.ChatMessageImageURL{
				URL:    "data:" + img.MIMEType + ";base64," + base64.StdEncoding.EncodeToString(img.Data),
				Detail: c.detail,
			},
		})
	}

	var messages []openai.ChatCompletionMessage
	if req.System != "" {
		messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: req.System})
	}
	messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, MultiContent: parts})

	completion := openai.ChatCompletionRequest{
		Model:    c.model,
		Messages: messages,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	}
	// reasoning models reject max_tokens
	if isReasoningModel(c.model) {
		completion.MaxCompletionTokens = c.maxTokens
	} else {
		completion.MaxTokens = c.maxTokens
	}

	resp, err := c.client.CreateChatCompletion(ctx, completion)
	if err != nil {
		return "", goerr.Wrap(err, "failed to create chat completion", goerr.V("model", c.model))
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", goerr.Wrap(ErrEmptyResponse, "no choice in chat completion", goerr.V("model", c.model))
	}
	return resp.Choices[0].Message.Content, nil
}

func isReasoningModel(model string) bool {
	for _, prefix := range []string{"o1", "o3", "o4", "gpt-5"} {
		if strings.HasPrefix(model, prefix) {
			return true
		}
	}
	return false
}

package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/bigshabei/dogdiary/internal/config"
)

// Client is the single-turn completion boundary. Every diary concern
// (generation, summarization, emotion scoring) goes through Chat.
type Client interface {
	Chat(prompt string) (string, error)
}

type openaiClient struct {
	client    openai.Client
	model     string
	maxTokens int
}

func NewClient(cfg *config.Config) (Client, error) {
	if strings.TrimSpace(cfg.Provider.APIKey) == "" {
		return nil, fmt.Errorf("missing provider api key")
	}
	if cfg.Provider.Model == "" {
		return nil, fmt.Errorf("missing provider model")
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.Provider.APIKey),
		option.WithHTTPClient(&http.Client{Timeout: 60 * time.Second}),
	}
	if baseURL := strings.TrimRight(strings.TrimSpace(cfg.Provider.BaseURL), "/"); baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}

	return &openaiClient{
		client:    openai.NewClient(opts...),
		model:     cfg.Provider.Model,
		maxTokens: cfg.Provider.MaxTokens,
	}, nil
}

func (c *openaiClient) Chat(prompt string) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
	}
	if c.maxTokens > 0 {
		params.MaxTokens = openai.Int(int64(c.maxTokens))
	}

	resp, err := c.client.Chat.Completions.New(context.Background(), params)
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty choices in response")
	}
	msg := resp.Choices[0].Message
	if string(msg.Role) != "assistant" {
		return "", fmt.Errorf("unexpected reply role %q", msg.Role)
	}
	content := strings.TrimSpace(msg.Content)
	if content == "" {
		return "", fmt.Errorf("empty content in response")
	}
	return content, nil
}

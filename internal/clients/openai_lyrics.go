package clients

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"songstory-server/internal/config"
	"songstory-server/internal/metrics"
	"songstory-server/shared/logger"
)

// OpenAILyricsClient генерирует текст песни через chat completion OpenAI.
type OpenAILyricsClient struct {
	client    *openai.Client
	model     string
	maxTokens int
	tokens    TokenCounter
	logger    *zap.Logger
}

// NewOpenAIClient создает клиент go-openai по общей конфигурации. Используется и для картинок.
func NewOpenAIClient(cfg config.OpenAIConfig, timeout time.Duration) *openai.Client {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")
	}
	clientCfg.HTTPClient = &http.Client{Timeout: timeout}
	return openai.NewClientWithConfig(clientCfg)
}

// NewOpenAILyricsClient создает клиент. tokens может быть nil, тогда токены без usage не оцениваются.
func NewOpenAILyricsClient(client *openai.Client, cfg config.LyricsConfig, tokens TokenCounter, log *zap.Logger) *OpenAILyricsClient {
	return &OpenAILyricsClient{
		client:    client,
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
		tokens:    tokens,
		logger:    logger.Named(log, "OpenAILyricsClient"),
	}
}

func (c *OpenAILyricsClient) GenerateLyrics(ctx context.Context, prompt string) Result[string] {
	start := time.Now()
	log := c.logger.With(zap.String("model", c.model), zap.Int("prompt_len", len(prompt)))
	log.Info("Requesting lyrics completion")

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: LyricsSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		MaxTokens: c.maxTokens,
	})
	if err != nil {
		return finish(log, metrics.ServiceLyrics, start, classify[string](ctx, err))
	}

	if len(resp.Choices) == 0 {
		return finish(log, metrics.ServiceLyrics, start, Permanent[string](fmt.Errorf("%w: no choices", ErrEmptyCompletion)))
	}
	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return finish(log, metrics.ServiceLyrics, start, Permanent[string](fmt.Errorf("%w: blank content", ErrEmptyCompletion)))
	}

	u := observeUsage(c.tokens, usage{
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
	}, prompt, text)
	log.Info("Lyrics generated",
		zap.Int("lyrics_len", len(text)),
		zap.Int("prompt_tokens", u.PromptTokens),
		zap.Int("completion_tokens", u.CompletionTokens),
		zap.String("finish_reason", string(resp.Choices[0].FinishReason)),
	)
	return finish(log, metrics.ServiceLyrics, start, OK(text))
}

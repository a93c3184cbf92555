package clients

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ollama/ollama/api"
	"go.uber.org/zap"

	"songstory-server/internal/config"
	"songstory-server/internal/metrics"
	"songstory-server/shared/logger"
)

// OllamaLyricsClient генерирует текст песни локальной моделью через Ollama.
type OllamaLyricsClient struct {
	client    *api.Client
	model     string
	maxTokens int
	tokens    TokenCounter
	logger    *zap.Logger
}

// NewOllamaLyricsClient создает клиент. api.NewClient ждет URL без суффикса /v1.
func NewOllamaLyricsClient(cfg config.LyricsConfig, tokens TokenCounter, log *zap.Logger) (*OllamaLyricsClient, error) {
	baseURL := strings.TrimSuffix(strings.TrimSuffix(cfg.OllamaURL, "/"), "/v1")
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid OLLAMA_BASE_URL %q: %w", cfg.OllamaURL, err)
	}

	return &OllamaLyricsClient{
		client:    api.NewClient(parsed, &http.Client{Timeout: cfg.Timeout}),
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
		tokens:    tokens,
		logger:    logger.Named(log, "OllamaLyricsClient"),
	}, nil
}

func (c *OllamaLyricsClient) GenerateLyrics(ctx context.Context, prompt string) Result[string] {
	start := time.Now()
	log := c.logger.With(zap.String("model", c.model), zap.Int("prompt_len", len(prompt)))
	log.Info("Requesting lyrics completion")

	stream := false
	req := &api.ChatRequest{
		Model: c.model,
		Messages: []api.Message{
			{Role: "system", Content: LyricsSystemPrompt},
			{Role: "user", Content: prompt},
		},
		Stream: &stream,
		Options: map[string]any{
			"num_predict": c.maxTokens,
		},
	}

	var resp api.ChatResponse
	err := c.client.Chat(ctx, req, func(r api.ChatResponse) error {
		resp = r
		return nil
	})
	if err != nil {
		return finish(log, metrics.ServiceLyrics, start, classify[string](ctx, err))
	}

	text := strings.TrimSpace(resp.Message.Content)
	if text == "" {
		return finish(log, metrics.ServiceLyrics, start, Permanent[string](fmt.Errorf("%w: blank content", ErrEmptyCompletion)))
	}

	u := observeUsage(c.tokens, usage{
		PromptTokens:     resp.PromptEvalCount,
		CompletionTokens: resp.EvalCount,
	}, prompt, text)
	log.Info("Lyrics generated",
		zap.Int("lyrics_len", len(text)),
		zap.Int("prompt_tokens", u.PromptTokens),
		zap.Int("completion_tokens", u.CompletionTokens),
	)
	return finish(log, metrics.ServiceLyrics, start, OK(text))
}

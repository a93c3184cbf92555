package clients

import (
	"context"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"songstory-server/internal/config"
	"songstory-server/internal/metrics"
	"songstory-server/shared/logger"
)

// ImageClient генерирует обложку по тексту.
type ImageClient interface {
	// GenerateImage возвращает URL одной картинки.
	GenerateImage(ctx context.Context, prompt string) Result[string]
}

// OpenAIImageClient вызывает images/generations (DALL-E).
type OpenAIImageClient struct {
	client *openai.Client
	size   string
	logger *zap.Logger
}

func NewOpenAIImageClient(client *openai.Client, cfg config.ImageConfig, log *zap.Logger) *OpenAIImageClient {
	size := cfg.Size
	if size == "" {
		size = openai.CreateImageSize512x512
	}
	return &OpenAIImageClient{
		client: client,
		size:   size,
		logger: logger.Named(log, "OpenAIImageClient"),
	}
}

func (c *OpenAIImageClient) GenerateImage(ctx context.Context, prompt string) Result[string] {
	start := time.Now()
	log := c.logger.With(zap.String("size", c.size), zap.Int("prompt_len", len(prompt)))
	log.Info("Requesting image generation")

	resp, err := c.client.CreateImage(ctx, openai.ImageRequest{
		Prompt:         prompt,
		N:              1,
		Size:           c.size,
		ResponseFormat: openai.CreateImageResponseFormatURL,
	})
	if err != nil {
		return finish(log, metrics.ServiceImage, start, classify[string](ctx, err))
	}

	if len(resp.Data) == 0 {
		return finish(log, metrics.ServiceImage, start, Permanent[string](fmt.Errorf("%w: no data", ErrEmptyImage)))
	}
	if resp.Data[0].URL == "" {
		return finish(log, metrics.ServiceImage, start, Permanent[string](fmt.Errorf("%w: blank url", ErrEmptyImage)))
	}

	log.Info("Image generated")
	return finish(log, metrics.ServiceImage, start, OK(resp.Data[0].URL))
}

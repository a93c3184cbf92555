package clients

import (
	"sync"

	"github.com/pkoukk/tiktoken-go"
	"go.uber.org/zap"

	"songstory-server/shared/logger"
)

// fallbackEncoding используется для моделей, которых tiktoken не знает (например, модели Ollama).
const fallbackEncoding = "cl100k_base"

// TokenCounter оценивает число токенов, когда API не прислал usage.
type TokenCounter interface {
	Count(texts ...string) int
}

// tiktokenCounter лениво загружает кодировку: первый вызов tiktoken скачивает BPE-словарь.
type tiktokenCounter struct {
	model  string
	logger *zap.Logger

	once sync.Once
	enc  *tiktoken.Tiktoken
}

// NewTokenCounter создает счетчик токенов для модели.
func NewTokenCounter(model string, log *zap.Logger) TokenCounter {
	return &tiktokenCounter{model: model, logger: logger.Named(log, "TokenCounter")}
}

func (c *tiktokenCounter) load() {
	enc, err := tiktoken.EncodingForModel(c.model)
	if err != nil {
		c.logger.Debug("No tokenizer for model, falling back", zap.String("model", c.model), zap.Error(err))
		enc, err = tiktoken.GetEncoding(fallbackEncoding)
	}
	if err != nil {
		c.logger.Warn("Could not load tokenizer, token estimates disabled", zap.Error(err))
		return
	}
	c.enc = enc
}

// Count возвращает 0, если кодировка недоступна.
func (c *tiktokenCounter) Count(texts ...string) int {
	c.once.Do(c.load)
	if c.enc == nil {
		return 0
	}
	total := 0
	for _, t := range texts {
		total += len(c.enc.Encode(t, nil, nil))
	}
	return total
}

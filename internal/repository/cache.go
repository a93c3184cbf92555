package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"songstory-server/internal/model"
	"songstory-server/shared/logger"
)

// HistoryCacheKey - ключ Redis со всем списком истории.
const HistoryCacheKey = "songstory:history"

var _ RecordStore = (*CachedRecordStore)(nil)

// CachedRecordStore кэширует список истории в Redis поверх другого хранилища.
// Ошибки Redis никогда не ломают чтение: запрос уходит в исходное хранилище.
type CachedRecordStore struct {
	next   RecordStore
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

func NewCachedRecordStore(next RecordStore, client *redis.Client, ttl time.Duration, log *zap.Logger) *CachedRecordStore {
	return &CachedRecordStore{
		next:   next,
		client: client,
		ttl:    ttl,
		logger: logger.Named(log, "CachedRecordStore"),
	}
}

// CreateRecord пишет в исходное хранилище и сбрасывает кэш списка.
func (c *CachedRecordStore) CreateRecord(ctx context.Context, record model.HistoryRecord) error {
	if err := c.next.CreateRecord(ctx, record); err != nil {
		return err
	}
	if err := c.client.Del(ctx, HistoryCacheKey).Err(); err != nil {
		c.logger.Warn("Failed to invalidate history cache", zap.Error(err))
	}
	return nil
}

func (c *CachedRecordStore) ListRecords(ctx context.Context) ([]model.HistoryRecord, error) {
	cached, err := c.client.Get(ctx, HistoryCacheKey).Bytes()
	switch {
	case err == nil:
		var records []model.HistoryRecord
		jsonErr := json.Unmarshal(cached, &records)
		if jsonErr == nil {
			c.logger.Debug("History cache hit", zap.Int("records", len(records)))
			return records, nil
		}
		c.logger.Warn("Corrupted history cache entry, ignoring", zap.Error(jsonErr))
	case errors.Is(err, redis.Nil):
		c.logger.Debug("History cache miss")
	default:
		c.logger.Warn("History cache unavailable", zap.Error(err))
	}

	records, err := c.next.ListRecords(ctx)
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(records)
	if err != nil {
		c.logger.Warn("Failed to encode history for cache", zap.Error(err))
		return records, nil
	}
	if err := c.client.Set(ctx, HistoryCacheKey, data, c.ttl).Err(); err != nil {
		c.logger.Warn("Failed to populate history cache", zap.Error(err))
	}
	return records, nil
}

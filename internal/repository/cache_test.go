package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"songstory-server/internal/model"
)

// memoryStore - хранилище в памяти для тестов декоратора.
type memoryStore struct {
	records   []model.HistoryRecord
	listCalls int
	listErr   error
}

func (m *memoryStore) CreateRecord(_ context.Context, r model.HistoryRecord) error {
	m.records = append(m.records, r)
	return nil
}

func (m *memoryStore) ListRecords(_ context.Context) ([]model.HistoryRecord, error) {
	m.listCalls++
	if m.listErr != nil {
		return nil, m.listErr
	}
	return append([]model.HistoryRecord(nil), m.records...), nil
}

// unreachableRedis - клиент, который сразу падает на соединении.
func unreachableRedis(t *testing.T) *redis.Client {
	t.Helper()
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { client.Close() })
	return client
}

func TestCachedRecordStore_FallsThroughWhenRedisIsDown(t *testing.T) {
	next := &memoryStore{}
	store := NewCachedRecordStore(next, unreachableRedis(t), time.Minute, nil)
	ctx := context.Background()

	require.NoError(t, store.CreateRecord(ctx, model.HistoryRecord{ID: "a"}))
	require.NoError(t, store.CreateRecord(ctx, model.HistoryRecord{ID: "b"}))

	records, err := store.ListRecords(ctx)
	require.NoError(t, err)
	assert.Equal(t, []model.HistoryRecord{{ID: "a"}, {ID: "b"}}, records)
	assert.Equal(t, 1, next.listCalls)
}

func TestCachedRecordStore_PropagatesStoreError(t *testing.T) {
	next := &memoryStore{listErr: errors.New("sheet gone")}
	store := NewCachedRecordStore(next, unreachableRedis(t), time.Minute, nil)

	records, err := store.ListRecords(context.Background())

	assert.Error(t, err)
	assert.Nil(t, records)
}

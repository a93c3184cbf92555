package repository

import (
	"context"
	"errors"

	"songstory-server/internal/model"
)

// ErrRecordStore - любая ошибка хранилища истории.
var ErrRecordStore = errors.New("record store error")

// RecordStore - хранилище истории генераций (append + list).
type RecordStore interface {
	// CreateRecord добавляет одну запись.
	CreateRecord(ctx context.Context, record model.HistoryRecord) error
	// ListRecords возвращает все записи в порядке хранилища.
	ListRecords(ctx context.Context) ([]model.HistoryRecord, error)
}

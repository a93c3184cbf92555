package service

import (
	"context"

	"go.uber.org/zap"

	"songstory-server/internal/model"
	"songstory-server/internal/repository"
	"songstory-server/shared/logger"
)

// HistoryService отдает список сохраненных историй.
type HistoryService struct {
	store  repository.RecordStore
	logger *zap.Logger
}

func NewHistoryService(store repository.RecordStore, log *zap.Logger) *HistoryService {
	return &HistoryService{store: store, logger: logger.Named(log, "HistoryService")}
}

// List возвращает записи в порядке хранилища. При ошибке - пустой (не nil) список.
func (h *HistoryService) List(ctx context.Context) []model.HistoryRecord {
	records, err := h.store.ListRecords(ctx)
	if err != nil {
		h.logger.Error("Failed to fetch history, showing empty list", zap.Error(err))
		return []model.HistoryRecord{}
	}
	if records == nil {
		return []model.HistoryRecord{}
	}
	return records
}

package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"songstory-server/internal/metrics"
	"songstory-server/internal/model"
	"songstory-server/shared/logger"
)

var _ RecordStore = (*SheetDBStore)(nil)

// sheetDBCreateRequest - формат тела POST в SheetDB.
type sheetDBCreateRequest struct {
	Data []model.HistoryRecord `json:"data"`
}

// SheetDBStore хранит историю в таблице через REST API SheetDB.
type SheetDBStore struct {
	apiURL     string
	httpClient *http.Client
	logger     *zap.Logger
}

func NewSheetDBStore(apiURL string, timeout time.Duration, log *zap.Logger) *SheetDBStore {
	return &SheetDBStore{
		apiURL:     apiURL,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger.Named(log, "SheetDBStore"),
	}
}

func (s *SheetDBStore) CreateRecord(ctx context.Context, record model.HistoryRecord) (err error) {
	start := time.Now()
	defer func() { observe(start, err) }()

	body, err := json.Marshal(sheetDBCreateRequest{Data: []model.HistoryRecord{record}})
	if err != nil {
		return fmt.Errorf("%w: marshal record: %v", ErrRecordStore, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.apiURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: build request: %v", ErrRecordStore, err)
	}
	req.Header.Set("Content-Type", "application/json")

	respBody, err := s.do(req)
	if err != nil {
		return err
	}

	s.logger.Info("Record saved", zap.String("record_id", record.ID), zap.ByteString("response_body", respBody))
	return nil
}

func (s *SheetDBStore) ListRecords(ctx context.Context) (records []model.HistoryRecord, err error) {
	start := time.Now()
	defer func() { observe(start, err) }()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.apiURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", ErrRecordStore, err)
	}

	respBody, err := s.do(req)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(respBody, &records); err != nil {
		s.logger.Error("Failed to decode SheetDB rows", zap.Error(err))
		return nil, fmt.Errorf("%w: decode rows: %v", ErrRecordStore, err)
	}
	return records, nil
}

// do выполняет запрос и возвращает тело 2xx ответа.
func (s *SheetDBStore) do(req *http.Request) ([]byte, error) {
	resp, err := s.httpClient.Do(req)
	if err != nil {
		s.logger.Error("SheetDB request failed", zap.String("method", req.Method), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrRecordStore, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		s.logger.Error("SheetDB returned non-OK status",
			zap.String("method", req.Method),
			zap.Int("status_code", resp.StatusCode),
			zap.ByteString("response_body", body),
		)
		return nil, fmt.Errorf("%w: status %d", ErrRecordStore, resp.StatusCode)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrRecordStore, err)
	}
	return body, nil
}

func observe(start time.Time, err error) {
	outcome := metrics.OutcomeOK
	if err != nil {
		outcome = metrics.OutcomePermanent
	}
	metrics.ObserveExternalCall(metrics.ServiceRecordStore, outcome, time.Since(start))
}

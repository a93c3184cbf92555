package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"songstory-server/internal/model"
	"songstory-server/shared/logger"
)

var _ RecordStore = (*PostgresStore)(nil)

const (
	insertRecordQuery = `
        INSERT INTO story_records (id, keyword, lyrics, image, music, days)
        VALUES ($1, $2, $3, $4, $5, $6)`

	// seq сохраняет порядок вставки, как строки в таблице
	listRecordsQuery = `
        SELECT id, keyword, lyrics, image, music, days
        FROM story_records
        ORDER BY seq`
)

// PostgresStore хранит историю в таблице story_records.
type PostgresStore struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewPostgresStore(db *pgxpool.Pool, log *zap.Logger) *PostgresStore {
	return &PostgresStore{db: db, logger: logger.Named(log, "PostgresStore")}
}

func (r *PostgresStore) CreateRecord(ctx context.Context, record model.HistoryRecord) (err error) {
	start := time.Now()
	defer func() { observe(start, err) }()

	_, err = r.db.Exec(ctx, insertRecordQuery,
		record.ID,
		record.Keyword,
		record.Lyrics,
		record.Image,
		record.Music,
		record.Days,
	)
	if err != nil {
		r.logger.Error("Failed to insert story record", zap.String("record_id", record.ID), zap.Error(err))
		return fmt.Errorf("%w: insert record %s: %v", ErrRecordStore, record.ID, err)
	}

	r.logger.Info("Record saved", zap.String("record_id", record.ID))
	return nil
}

func (r *PostgresStore) ListRecords(ctx context.Context) (records []model.HistoryRecord, err error) {
	start := time.Now()
	defer func() { observe(start, err) }()

	records = make([]model.HistoryRecord, 0)
	if err = pgxscan.Select(ctx, r.db, &records, listRecordsQuery); err != nil {
		r.logger.Error("Failed to list story records", zap.Error(err))
		return nil, fmt.Errorf("%w: list records: %v", ErrRecordStore, err)
	}
	return records, nil
}

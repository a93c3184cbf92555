package service

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"songstory-server/internal/clients"
	"songstory-server/internal/config"
	"songstory-server/internal/messaging"
	"songstory-server/internal/metrics"
	"songstory-server/internal/model"
	"songstory-server/internal/repository"
	"songstory-server/shared/logger"
)

// Значения для метки result метрики songstory_stories_total.
const (
	storyResultSuccess  = "success"
	storyResultDegraded = "degraded"
)

// StoryResult - то, что показывается на странице результата.
type StoryResult struct {
	UserInput string
	Genre     string
	Lyrics    string
	ImageURL  string
	MusicURL  string // пусто, если музыка не получена
	Record    model.HistoryRecord
	Persisted bool
	Poll      PollResult
}

// StoryService проводит один запрос через все этапы: текст, картинка, музыка, сохранение.
type StoryService struct {
	lyrics   clients.LyricsClient
	images   clients.ImageClient
	music    clients.MusicClient
	store    repository.RecordStore
	notifier messaging.Notifier
	poller   *AudioPoller

	maxLyricsChars int
	maxAttempts    int
	retryCfg       config.PollConfig
	persistTimeout time.Duration
	newID          func() string
	logger         *zap.Logger
}

func NewStoryService(
	lyrics clients.LyricsClient,
	images clients.ImageClient,
	music clients.MusicClient,
	store repository.RecordStore,
	notifier messaging.Notifier,
	cfg *config.Config,
	log *zap.Logger,
) *StoryService {
	if notifier == nil {
		notifier = messaging.NewNopNotifier()
	}
	persistTimeout := cfg.RecordStore.Timeout
	if persistTimeout <= 0 {
		persistTimeout = 15 * time.Second
	}
	return &StoryService{
		lyrics:         lyrics,
		images:         images,
		music:          music,
		store:          store,
		notifier:       notifier,
		poller:         NewAudioPoller(music, cfg.Poll, log),
		maxLyricsChars: cfg.Lyrics.MaxChars,
		maxAttempts:    cfg.GenerationMaxAttempts,
		retryCfg:       cfg.Poll,
		persistTimeout: persistTimeout,
		newID:          uuid.NewString,
		logger:         logger.Named(log, "StoryService"),
	}
}

// GenerateStory выполняет этапы по очереди. Жанр никуда не передается, только возвращается в результате.
// Ошибка всегда *StageError; частичный успех (без музыки) ошибкой не считается.
func (s *StoryService) GenerateStory(ctx context.Context, req model.GenerationRequest) (*StoryResult, error) {
	log := s.logger.With(zap.String("genre", req.Genre), zap.Int("user_input_len", len(req.UserInput)))
	log.Info("Story generation started")

	// 1. Текст песни
	lyricsRes := withRetry(ctx, log, StageLyrics, s.maxAttempts, s.backOff(), func(ctx context.Context) clients.Result[string] {
		return s.lyrics.GenerateLyrics(ctx, req.UserInput)
	})
	if !lyricsRes.IsOK() {
		return nil, s.stageFailed(log, StageLyrics, lyricsRes.Err)
	}
	lyrics := model.NewLyricsResult(lyricsRes.Value, s.maxLyricsChars)
	if lyrics.Truncated() {
		log.Info("Lyrics truncated", zap.Int("original_len", lyrics.OriginalLen), zap.Int("truncated_len", len(lyrics.Text)))
	}

	// 2. Обложка
	imageRes := withRetry(ctx, log, StageImage, s.maxAttempts, s.backOff(), func(ctx context.Context) clients.Result[string] {
		return s.images.GenerateImage(ctx, lyrics.Text)
	})
	if !imageRes.IsOK() {
		return nil, s.stageFailed(log, StageImage, imageRes.Err)
	}
	image := model.ImageResult{URL: imageRes.Value}

	// 3. Постановка задачи на музыку
	submitRes := withRetry(ctx, log, StageAudio, s.maxAttempts, s.backOff(), func(ctx context.Context) clients.Result[string] {
		return s.music.SubmitAudioJob(ctx, clients.AudioJobPayload{Prompt: lyrics.Text})
	})
	var jobID string
	switch {
	case submitRes.IsOK():
		jobID = submitRes.Value
	case submitRes.IsPermanent() && !errors.Is(submitRes.Err, clients.ErrEmptyJobList):
		return nil, s.stageFailed(log, StageAudio, submitRes.Err)
	default:
		log.Warn("Audio job not submitted, continuing without music", zap.Error(submitRes.Err))
	}

	// 4. Опрос
	poll := s.poller.Poll(ctx, jobID)

	// 5. Сохранение
	record := model.HistoryRecord{
		ID:      jobID,
		Keyword: req.UserInput,
		Lyrics:  lyrics.Text,
		Image:   image.URL,
	}
	if record.ID == "" {
		record.ID = s.newID()
	}
	if poll.Outcome == PollComplete {
		record.Music = poll.Job.AudioURL
		record.Days = poll.Job.CreatedAt
	}

	result := &StoryResult{
		UserInput: req.UserInput,
		Genre:     req.Genre,
		Lyrics:    lyrics.Text,
		ImageURL:  image.URL,
		MusicURL:  record.Music,
		Record:    record,
		Poll:      poll,
	}
	result.Persisted = s.persist(ctx, log, req, result)

	storyResult := storyResultSuccess
	if result.MusicURL == "" {
		storyResult = storyResultDegraded
	}
	metrics.IncStories(storyResult)
	log.Info("Story generation finished",
		zap.String("record_id", record.ID),
		zap.String("result", storyResult),
		zap.String("poll_outcome", string(poll.Outcome)),
		zap.Bool("persisted", result.Persisted),
	)
	return result, nil
}

// persist сохраняет запись и публикует событие. Отмена запроса сюда не доходит:
// история сохраняется, даже если клиент уже ушел. Ошибки только логируются.
func (s *StoryService) persist(ctx context.Context, log *zap.Logger, req model.GenerationRequest, result *StoryResult) bool {
	persistCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.persistTimeout)
	defer cancel()

	persisted := true
	if err := s.store.CreateRecord(persistCtx, result.Record); err != nil {
		persisted = false
		log.Error("Failed to save story record", zap.String("record_id", result.Record.ID), zap.Error(err))
	}

	event := model.StoryGeneratedEvent{
		RecordID:    result.Record.ID,
		Keyword:     req.UserInput,
		ImageURL:    result.ImageURL,
		MusicURL:    result.MusicURL,
		PollOutcome: string(result.Poll.Outcome),
		Persisted:   persisted,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.notifier.NotifyStoryGenerated(persistCtx, event); err != nil {
		log.Warn("Failed to publish story event", zap.String("record_id", event.RecordID), zap.Error(err))
	}
	return persisted
}

func (s *StoryService) stageFailed(log *zap.Logger, stage Stage, err error) error {
	metrics.IncStories(string(stage) + "_failed")
	log.Error("Story generation failed", zap.String("stage", string(stage)), zap.Error(err))
	return &StageError{Stage: stage, Err: err}
}

func (s *StoryService) backOff() backoff.BackOff {
	return newBackOff(s.retryCfg)
}

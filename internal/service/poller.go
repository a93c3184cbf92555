package service

import (
	"context"

	"go.uber.org/zap"

	"songstory-server/internal/clients"
	"songstory-server/internal/config"
	"songstory-server/internal/metrics"
	"songstory-server/internal/model"
	"songstory-server/shared/logger"
)

// PollState - состояние опроса задачи генерации музыки.
type PollState string

const (
	PollSubmitted PollState = "submitted"
	PollPolling   PollState = "polling"
	PollTerminal  PollState = "terminal"
)

// PollOutcome - чем закончился опрос.
type PollOutcome string

const (
	// PollComplete - задача в статусе complete или streaming, есть audio_url.
	PollComplete PollOutcome = "complete"
	// PollExhausted - попытки кончились, терминального статуса не было.
	PollExhausted PollOutcome = "exhausted"
	// PollFailed - сервис отказал в доступе (401/403), дальше опрашивать бесполезно.
	PollFailed PollOutcome = "failed"
	// PollCancelled - ctx отменен: клиент ушел или сервер останавливается.
	PollCancelled PollOutcome = "cancelled"
	// PollSkipped - опрашивать нечего: id задачи не получен.
	PollSkipped PollOutcome = "skipped"
)

// PollResult - итог опроса. Job заполнен только при PollComplete.
type PollResult struct {
	Outcome  PollOutcome
	Job      model.AudioJob
	Attempts int
	Err      error
}

// AudioPoller опрашивает сервис музыки, пока задача не станет терминальной.
type AudioPoller struct {
	music  clients.MusicClient
	cfg    config.PollConfig
	logger *zap.Logger
}

func NewAudioPoller(music clients.MusicClient, cfg config.PollConfig, log *zap.Logger) *AudioPoller {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	return &AudioPoller{music: music, cfg: cfg, logger: logger.Named(log, "AudioPoller")}
}

// Poll делает не больше MaxAttempts запросов статуса, ожидая между ними по расписанию backoff.
// Ошибки опроса, кроме отказа в доступе, значат "еще не готово": опрос продолжается.
// Ожидание прерывается отменой ctx.
func (p *AudioPoller) Poll(ctx context.Context, jobID string) PollResult {
	log := p.logger.With(zap.String("audio_id", jobID))
	b := newBackOff(p.cfg)
	result := PollResult{}

	state := PollSubmitted
	for state != PollTerminal {
		switch state {
		case PollSubmitted:
			if jobID == "" {
				result.Outcome = PollSkipped
				state = PollTerminal
				continue
			}
			state = PollPolling

		case PollPolling:
			result.Attempts++
			if p.handle(ctx, log, p.music.PollAudioJob(ctx, jobID), &result) {
				state = PollTerminal
				continue
			}
			if result.Attempts >= p.cfg.MaxAttempts {
				result.Outcome = PollExhausted
				state = PollTerminal
				continue
			}
			if err := sleepContext(ctx, b.NextBackOff()); err != nil {
				result.Outcome = PollCancelled
				result.Err = err
				state = PollTerminal
			}
		}
	}

	if result.Outcome == PollSkipped {
		return result
	}
	metrics.ObserveAudioPollAttempts(result.Attempts)
	log.Info("Audio job polling finished",
		zap.String("outcome", string(result.Outcome)),
		zap.Int("attempts", result.Attempts),
		zap.String("audio_url", result.Job.AudioURL),
		zap.Error(result.Err),
	)
	return result
}

// handle разбирает ответ одной попытки. Возвращает true, если опрос закончен.
func (p *AudioPoller) handle(ctx context.Context, log *zap.Logger, res clients.Result[model.AudioJob], result *PollResult) bool {
	switch {
	case res.IsOK() && res.Value.Status.IsTerminal():
		result.Outcome = PollComplete
		result.Job = res.Value
		return true
	case res.IsOK():
		log.Debug("Audio job not ready", zap.Int("attempt", result.Attempts), zap.String("status", res.Value.RawStatus))
		return false
	case ctx.Err() != nil:
		result.Outcome = PollCancelled
		result.Err = res.Err
		return true
	case clients.IsAuthFailure(res.Err):
		result.Outcome = PollFailed
		result.Err = res.Err
		return true
	default:
		log.Debug("Audio job poll failed, treating as not ready",
			zap.Int("attempt", result.Attempts),
			zap.String("kind", res.Kind.String()),
			zap.Error(res.Err),
		)
		return false
	}
}

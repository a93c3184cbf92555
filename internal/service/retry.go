package service

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"songstory-server/internal/clients"
	"songstory-server/internal/config"
)

// newBackOff строит расписание задержек: Interval, затем умножение на Multiplier до MaxInterval.
// Без джиттера и без ограничения общего времени: число попыток ограничивает вызывающий.
func newBackOff(cfg config.PollConfig) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = cfg.Interval
	b.Multiplier = cfg.Multiplier
	if b.Multiplier < 1 {
		b.Multiplier = 1
	}
	b.MaxInterval = cfg.MaxInterval
	if b.MaxInterval < cfg.Interval {
		b.MaxInterval = cfg.Interval
	}
	b.RandomizationFactor = 0
	b.MaxElapsedTime = 0
	b.Reset()
	return b
}

// sleepContext ждет d или отмены ctx.
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// withRetry повторяет вызов, пока он возвращает Transient, не больше maxAttempts раз.
// OK и Permanent возвращаются сразу.
func withRetry[T any](ctx context.Context, log *zap.Logger, stage Stage, maxAttempts int, b backoff.BackOff, call func(context.Context) clients.Result[T]) clients.Result[T] {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	b.Reset()

	var res clients.Result[T]
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		res = call(ctx)
		if !res.IsTransient() || attempt == maxAttempts {
			return res
		}

		delay := b.NextBackOff()
		log.Warn("Transient failure, retrying",
			zap.String("stage", string(stage)),
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", maxAttempts),
			zap.Duration("delay", delay),
			zap.Error(res.Err),
		)
		if err := sleepContext(ctx, delay); err != nil {
			return clients.Permanent[T](err)
		}
	}
	return res
}

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Сервисы для метки service.
const (
	ServiceLyrics      = "lyrics"
	ServiceImage       = "image"
	ServiceMusicSubmit = "music_submit"
	ServiceMusicPoll   = "music_poll"
	ServiceRecordStore = "record_store"
)

// Исходы для метки outcome, совпадают с вариантами клиентского результата.
const (
	OutcomeOK        = "ok"
	OutcomeTransient = "transient"
	OutcomePermanent = "permanent"
)

var (
	externalRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "songstory_external_requests_total",
			Help: "Total number of calls to external services, partitioned by outcome.",
		},
		[]string{"service", "outcome"},
	)
	externalRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "songstory_external_request_duration_seconds",
			Help:    "Histogram of external service call durations.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"service"},
	)
	lyricsTokens = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "songstory_lyrics_tokens",
			Help:    "Histogram of token counts for lyrics generation.",
			Buckets: prometheus.LinearBuckets(25, 25, 12), // 25, 50, ..., 300
		},
		[]string{"kind"}, // prompt, completion, total
	)
	audioPollAttempts = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "songstory_audio_poll_attempts",
			Help:    "Number of poll attempts until the music job reached a terminal state.",
			Buckets: []float64{1, 2, 3, 5, 10, 20, 30, 45, 60},
		},
	)
	storiesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "songstory_stories_total",
			Help: "Total number of story generation requests, partitioned by result.",
		},
		[]string{"result"},
	)
)

// ObserveExternalCall учитывает один вызов внешнего сервиса.
func ObserveExternalCall(service, outcome string, duration time.Duration) {
	externalRequests.WithLabelValues(service, outcome).Inc()
	externalRequestDuration.WithLabelValues(service).Observe(duration.Seconds())
}

// ObserveLyricsTokens пишет использование токенов. Нулевые значения пропускаются.
func ObserveLyricsTokens(prompt, completion int) {
	if prompt > 0 {
		lyricsTokens.WithLabelValues("prompt").Observe(float64(prompt))
	}
	if completion > 0 {
		lyricsTokens.WithLabelValues("completion").Observe(float64(completion))
	}
	if total := prompt + completion; total > 0 {
		lyricsTokens.WithLabelValues("total").Observe(float64(total))
	}
}

func ObserveAudioPollAttempts(attempts int) {
	audioPollAttempts.Observe(float64(attempts))
}

// IncStories учитывает завершенный запрос генерации (success, degraded, lyrics_failed, ...).
func IncStories(result string) {
	storiesTotal.WithLabelValues(result).Inc()
}

package clients

import (
	"context"

	"songstory-server/internal/metrics"
)

// LyricsSystemPrompt - системная инструкция для генерации текста песни.
const LyricsSystemPrompt = "Create song lyrics without using phrases like 'Verse' or 'Chorus'. Make sure the lyrics are complete and within the max tokens limit."

// LyricsClient генерирует текст песни по запросу пользователя.
type LyricsClient interface {
	// GenerateLyrics возвращает обрезанный по краям текст ответа модели.
	GenerateLyrics(ctx context.Context, prompt string) Result[string]
}

// usage - токены одного запроса. Нули означают, что API их не прислал.
type usage struct {
	PromptTokens     int
	CompletionTokens int
}

// observeUsage пишет токены в метрики; при отсутствии usage оценивает их счетчиком.
func observeUsage(counter TokenCounter, u usage, prompt, completion string) usage {
	if u.PromptTokens == 0 && u.CompletionTokens == 0 && counter != nil {
		u.PromptTokens = counter.Count(LyricsSystemPrompt, prompt)
		u.CompletionTokens = counter.Count(completion)
	}
	metrics.ObserveLyricsTokens(u.PromptTokens, u.CompletionTokens)
	return u
}

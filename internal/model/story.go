package model

import (
	"strings"
	"time"
)

// DefaultMaxLyricsChars - предел длины текста песни в символах.
const DefaultMaxLyricsChars = 1000

// GenerationRequest - то, что пользователь отправил формой. После создания не меняется.
type GenerationRequest struct {
	UserInput string `form:"user_input"`
	Genre     string `form:"genre"`
}

// Normalized возвращает копию запроса с обрезанными пробелами.
func (r GenerationRequest) Normalized() GenerationRequest {
	return GenerationRequest{
		UserInput: strings.TrimSpace(r.UserInput),
		Genre:     strings.TrimSpace(r.Genre),
	}
}

// LyricsResult - текст песни после усечения.
type LyricsResult struct {
	Text string
	// Исходная длина в байтах, до усечения
	OriginalLen int
}

// NewLyricsResult усекает ответ модели до maxChars рун.
func NewLyricsResult(raw string, maxChars int) LyricsResult {
	return LyricsResult{Text: TruncateLyrics(raw, maxChars), OriginalLen: len(raw)}
}

func (l LyricsResult) Truncated() bool {
	return len(l.Text) != l.OriginalLen
}

// ImageResult - ссылка на обложку.
type ImageResult struct {
	URL string
}

// TruncateLyrics обрезает текст до maxChars символов (рун), без учета границ слов.
func TruncateLyrics(text string, maxChars int) string {
	if maxChars <= 0 {
		maxChars = DefaultMaxLyricsChars
	}
	if len(text) <= maxChars {
		// байтов не больше, значит и рун не больше
		return text
	}
	runes := []rune(text)
	if len(runes) <= maxChars {
		return text
	}
	return string(runes[:maxChars])
}

// AudioStatus - статус задачи в сервисе генерации музыки.
type AudioStatus string

const (
	AudioStatusSubmitted AudioStatus = "submitted"
	AudioStatusStreaming AudioStatus = "streaming"
	AudioStatusComplete  AudioStatus = "complete"
	AudioStatusOther     AudioStatus = "other"
)

// ParseAudioStatus переводит строку сервиса в AudioStatus. Неизвестные значения становятся AudioStatusOther.
func ParseAudioStatus(raw string) AudioStatus {
	switch AudioStatus(strings.ToLower(strings.TrimSpace(raw))) {
	case AudioStatusSubmitted:
		return AudioStatusSubmitted
	case AudioStatusStreaming:
		return AudioStatusStreaming
	case AudioStatusComplete:
		return AudioStatusComplete
	default:
		return AudioStatusOther
	}
}

// IsTerminal: только такой снимок задачи может попасть в запись истории.
func (s AudioStatus) IsTerminal() bool {
	return s == AudioStatusComplete || s == AudioStatusStreaming
}

// AudioJob - снимок удаленного состояния задачи. Сервис только читает его, никогда не пишет.
type AudioJob struct {
	ID        string
	Status    AudioStatus
	RawStatus string // как прислал сервис, для логов
	AudioURL  string
	CreatedAt string
}

// HistoryRecord - строка хранилища истории. Пишется один раз, читается как есть.
type HistoryRecord struct {
	ID      string `json:"id" db:"id"`
	Keyword string `json:"keyword" db:"keyword"`
	Lyrics  string `json:"lyrics" db:"lyrics"`
	Image   string `json:"image" db:"image"`
	Music   string `json:"music" db:"music"`
	Days    string `json:"days" db:"days"`
}

// StoryGeneratedEvent публикуется в очередь после сохранения истории. Жанра в нем нет:
// он не уходит ни в один внешний сервис.
type StoryGeneratedEvent struct {
	RecordID    string    `json:"record_id"`
	Keyword     string    `json:"keyword"`
	ImageURL    string    `json:"image_url"`
	MusicURL    string    `json:"music_url,omitempty"`
	PollOutcome string    `json:"poll_outcome"`
	Persisted   bool      `json:"persisted"`
	CreatedAt   time.Time `json:"created_at"`
}

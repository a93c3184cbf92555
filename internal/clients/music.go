package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"songstory-server/internal/config"
	"songstory-server/internal/metrics"
	"songstory-server/internal/model"
	"songstory-server/shared/logger"
)

// AudioJobPayload - тело запроса на генерацию музыки.
type AudioJobPayload struct {
	Prompt           string `json:"prompt"`
	MakeInstrumental bool   `json:"make_instrumental"`
	WaitAudio        bool   `json:"wait_audio"`
}

// MusicClient - сервис генерации музыки: постановка задачи и опрос ее статуса.
type MusicClient interface {
	// SubmitAudioJob возвращает id первой созданной задачи.
	// Пустой список (или не список) - Permanent с ErrEmptyJobList.
	SubmitAudioJob(ctx context.Context, payload AudioJobPayload) Result[string]
	// PollAudioJob возвращает текущий снимок задачи. Пустой список или не список - Transient:
	// задача еще не видна.
	PollAudioJob(ctx context.Context, id string) Result[model.AudioJob]
}

// sunoJob - элемент списка, который возвращают /api/generate и /api/get.
type sunoJob struct {
	ID        string `json:"id"`
	Status    string `json:"status"`
	AudioURL  string `json:"audio_url"`
	CreatedAt string `json:"created_at"`
}

// SunoClient ходит в suno-api совместимый сервис.
type SunoClient struct {
	baseURL    string
	cookie     string
	httpClient *http.Client
	logger     *zap.Logger
}

func NewSunoClient(cfg config.MusicConfig, log *zap.Logger) *SunoClient {
	return &SunoClient{
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		cookie:     cfg.Cookie,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger.Named(log, "SunoClient"),
	}
}

func (c *SunoClient) SubmitAudioJob(ctx context.Context, payload AudioJobPayload) Result[string] {
	start := time.Now()
	endpointURL := c.baseURL + "/api/generate"
	log := c.logger.With(zap.String("url", endpointURL), zap.Int("prompt_len", len(payload.Prompt)))

	body, err := json.Marshal(payload)
	if err != nil {
		return finish(log, metrics.ServiceMusicSubmit, start, Permanent[string](fmt.Errorf("%w: marshal payload: %v", ErrDecode, err)))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpointURL, bytes.NewReader(body))
	if err != nil {
		return finish(log, metrics.ServiceMusicSubmit, start, Permanent[string](fmt.Errorf("%w: build request: %v", ErrTransport, err)))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Cookie", c.cookie)

	log.Info("Submitting audio job")
	raw, res := doJSON[string](ctx, c.httpClient, req)
	if !res.IsOK() {
		return finish(log, metrics.ServiceMusicSubmit, start, res)
	}

	var jobs []sunoJob
	if err := json.Unmarshal(raw, &jobs); err != nil || len(jobs) == 0 || jobs[0].ID == "" {
		log.Warn("Music service returned no jobs", zap.ByteString("response_body", truncateBody(raw)))
		return finish(log, metrics.ServiceMusicSubmit, start, Permanent[string](ErrEmptyJobList))
	}

	log.Info("Audio job submitted", zap.String("audio_id", jobs[0].ID), zap.Int("jobs", len(jobs)))
	return finish(log, metrics.ServiceMusicSubmit, start, OK(jobs[0].ID))
}

func (c *SunoClient) PollAudioJob(ctx context.Context, id string) Result[model.AudioJob] {
	start := time.Now()
	endpointURL := c.baseURL + "/api/get?ids=" + url.QueryEscape(id)
	log := c.logger.With(zap.String("audio_id", id))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpointURL, nil)
	if err != nil {
		return finish(log, metrics.ServiceMusicPoll, start, Permanent[model.AudioJob](fmt.Errorf("%w: build request: %v", ErrTransport, err)))
	}

	raw, res := doJSON[model.AudioJob](ctx, c.httpClient, req)
	if !res.IsOK() {
		return finish(log, metrics.ServiceMusicPoll, start, res)
	}

	// Не список (например, {"detail":...}) бывает, пока задача создается; следующий опрос может вернуть ее.
	var jobs []sunoJob
	if err := json.Unmarshal(raw, &jobs); err != nil {
		return finish(log, metrics.ServiceMusicPoll, start, Transient[model.AudioJob](fmt.Errorf("%w: %v", ErrDecode, err)))
	}
	if len(jobs) == 0 {
		return finish(log, metrics.ServiceMusicPoll, start, Transient[model.AudioJob](fmt.Errorf("%w: job %s not visible yet", ErrEmptyJobList, id)))
	}

	job := model.AudioJob{
		ID:        jobs[0].ID,
		Status:    model.ParseAudioStatus(jobs[0].Status),
		RawStatus: jobs[0].Status,
		AudioURL:  jobs[0].AudioURL,
		CreatedAt: jobs[0].CreatedAt,
	}
	if job.ID == "" {
		job.ID = id
	}
	log.Debug("Audio job status", zap.String("status", job.RawStatus))
	return finish(log, metrics.ServiceMusicPoll, start, OK(job))
}

// doJSON выполняет запрос и возвращает тело 2xx ответа, если это валидный JSON.
// Результат типа T несет только ошибку; значение разбирает вызывающий.
func doJSON[T any](ctx context.Context, client *http.Client, req *http.Request) ([]byte, Result[T]) {
	resp, err := client.Do(req)
	if err != nil {
		return nil, classify[T](ctx, err)
	}
	defer resp.Body.Close()

	body, readErr := io.ReadAll(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, statusResult[T](resp.StatusCode, body)
	}
	if readErr != nil {
		return nil, classify[T](ctx, readErr)
	}
	if !json.Valid(body) {
		return nil, Permanent[T](fmt.Errorf("%w: invalid JSON body", ErrDecode))
	}
	return body, OK(*new(T))
}

func truncateBody(b []byte) []byte {
	if len(b) > maxErrorBody {
		return b[:maxErrorBody]
	}
	return b
}

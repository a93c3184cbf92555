package clients

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/ollama/ollama/api"
	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"songstory-server/internal/metrics"
)

var (
	// ErrTransport - сеть: таймаут, отказ в соединении, DNS.
	ErrTransport = errors.New("transport error")
	// ErrHTTPStatus - сервис ответил не 2xx.
	ErrHTTPStatus = errors.New("http status error")
	// ErrDecode - тело ответа не разбирается или не той формы.
	ErrDecode = errors.New("decode error")
	// ErrEmptyJobList - сервис музыки вернул пустой список задач (или не список).
	ErrEmptyJobList = errors.New("music service returned no jobs")
	// ErrEmptyCompletion - модель вернула пустой текст.
	ErrEmptyCompletion = errors.New("empty completion")
	// ErrEmptyImage - в ответе нет ни одной картинки.
	ErrEmptyImage = errors.New("empty image response")
)

// Kind - вариант результата вызова внешнего сервиса.
type Kind int

const (
	KindOK Kind = iota
	KindTransient
	KindPermanent
)

func (k Kind) String() string {
	switch k {
	case KindOK:
		return metrics.OutcomeOK
	case KindTransient:
		return metrics.OutcomeTransient
	default:
		return metrics.OutcomePermanent
	}
}

// Result - итог вызова клиента: значение, временная или постоянная ошибка.
// Клиенты никогда не паникуют и не возвращают голую ошибку.
type Result[T any] struct {
	Value T
	Kind  Kind
	Err   error
}

func OK[T any](v T) Result[T] {
	return Result[T]{Value: v, Kind: KindOK}
}

func Transient[T any](err error) Result[T] {
	return Result[T]{Kind: KindTransient, Err: err}
}

func Permanent[T any](err error) Result[T] {
	return Result[T]{Kind: KindPermanent, Err: err}
}

func (r Result[T]) IsOK() bool        { return r.Kind == KindOK }
func (r Result[T]) IsTransient() bool { return r.Kind == KindTransient }
func (r Result[T]) IsPermanent() bool { return r.Kind == KindPermanent }

// HTTPStatusError хранит код и начало тела ответа.
type HTTPStatusError struct {
	StatusCode int
	Body       string
}

func (e *HTTPStatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s: status %d", ErrHTTPStatus, e.StatusCode)
	}
	return fmt.Sprintf("%s: status %d: %s", ErrHTTPStatus, e.StatusCode, e.Body)
}

func (e *HTTPStatusError) Unwrap() error { return ErrHTTPStatus }

// IsAuthFailure сообщает, что сервис отказал в доступе (401/403): повтор с теми же
// учетными данными не поможет.
func IsAuthFailure(err error) bool {
	var statusErr *HTTPStatusError
	if !errors.As(err, &statusErr) {
		return false
	}
	return statusErr.StatusCode == http.StatusUnauthorized || statusErr.StatusCode == http.StatusForbidden
}

// maxErrorBody - сколько байт тела ответа сохраняется в ошибке.
const maxErrorBody = 512

func newHTTPStatusError(code int, body []byte) *HTTPStatusError {
	if len(body) > maxErrorBody {
		body = body[:maxErrorBody]
	}
	return &HTTPStatusError{StatusCode: code, Body: string(body)}
}

// isRetryableStatus: 429 и 5xx считаются временными.
func isRetryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || (code >= 500 && code < 600)
}

// statusResult классифицирует ответ с не-2xx кодом.
func statusResult[T any](code int, body []byte) Result[T] {
	err := newHTTPStatusError(code, body)
	if isRetryableStatus(code) {
		return Transient[T](err)
	}
	return Permanent[T](err)
}

// classify переводит ошибку вызова (транспорт, SDK) в вариант Result.
// Отмена контекста вызывающей стороны всегда постоянная: повторять бессмысленно.
func classify[T any](ctx context.Context, err error) Result[T] {
	if ctx.Err() != nil {
		return Permanent[T](fmt.Errorf("%w: %w", ErrTransport, err))
	}

	if code, ok := statusCodeOf(err); ok {
		statusErr := &HTTPStatusError{StatusCode: code, Body: err.Error()}
		if isRetryableStatus(code) {
			return Transient[T](statusErr)
		}
		return Permanent[T](statusErr)
	}

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
		return Permanent[T](fmt.Errorf("%w: %v", ErrDecode, err))
	}

	var netErr net.Error
	if errors.As(err, &netErr) || errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
		return Transient[T](fmt.Errorf("%w: %w", ErrTransport, err))
	}

	return Permanent[T](fmt.Errorf("%w: %w", ErrTransport, err))
}

// statusCodeOf достает HTTP-код из ошибок go-openai и ollama.
func statusCodeOf(err error) (int, bool) {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode != 0 {
		return apiErr.HTTPStatusCode, true
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode != 0 {
		return reqErr.HTTPStatusCode, true
	}
	var ollamaErr api.StatusError
	if errors.As(err, &ollamaErr) && ollamaErr.StatusCode != 0 {
		return ollamaErr.StatusCode, true
	}
	return 0, false
}

// finish пишет метрики и лог по итогу вызова и возвращает результат без изменений.
func finish[T any](log *zap.Logger, service string, start time.Time, res Result[T]) Result[T] {
	duration := time.Since(start)
	metrics.ObserveExternalCall(service, res.Kind.String(), duration)

	if res.IsOK() {
		log.Debug("External call succeeded", zap.String("external_service", service), zap.Duration("duration", duration))
		return res
	}

	fields := []zap.Field{
		zap.String("external_service", service),
		zap.String("outcome", res.Kind.String()),
		zap.Duration("duration", duration),
		zap.Error(res.Err),
	}
	switch {
	case errors.Is(res.Err, ErrHTTPStatus):
		var statusErr *HTTPStatusError
		if errors.As(res.Err, &statusErr) {
			fields = append(fields, zap.Int("status_code", statusErr.StatusCode))
		}
		log.Error("http status error", fields...)
	case errors.Is(res.Err, ErrDecode):
		log.Error("decode error", fields...)
	case errors.Is(res.Err, ErrTransport):
		log.Error("transport error", fields...)
	default:
		log.Warn("unexpected response", fields...)
	}
	return res
}

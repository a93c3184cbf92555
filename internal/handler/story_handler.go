package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"songstory-server/internal/config"
	"songstory-server/internal/model"
	"songstory-server/internal/service"
	"songstory-server/shared/logger"
	"songstory-server/shared/middleware"
)

const (
	msgEmptyInput   = "Please describe what the song should be about"
	msgUnknownGenre = "Please choose a genre from the list"
	msgUnexpected   = "An unexpected error occurred, please try again"
)

// StoryGenerator - то, что нужно обработчику от сервиса генерации.
type StoryGenerator interface {
	GenerateStory(ctx context.Context, req model.GenerationRequest) (*service.StoryResult, error)
}

// HistoryProvider отдает сохраненные записи.
type HistoryProvider interface {
	List(ctx context.Context) []model.HistoryRecord
}

type StoryHandler struct {
	stories StoryGenerator
	history HistoryProvider
	cfg     *config.Config
	logger  *zap.Logger
}

func NewStoryHandler(stories StoryGenerator, history HistoryProvider, cfg *config.Config, log *zap.Logger) *StoryHandler {
	return &StoryHandler{
		stories: stories,
		history: history,
		cfg:     cfg,
		logger:  logger.Named(log, "StoryHandler"),
	}
}

// RegisterRoutes регистрирует страницы. generateMiddleware (например, RateLimit) ставится только на генерацию.
func (h *StoryHandler) RegisterRoutes(router *gin.Engine, generateMiddleware ...gin.HandlerFunc) {
	router.GET("/", h.index)
	router.POST("/generate_story", append(generateMiddleware, h.generateStory)...)
	router.GET("/history", h.getHistory)
	router.GET("/health", h.health)
}

func (h *StoryHandler) index(c *gin.Context) {
	c.HTML(http.StatusOK, "index.html", h.formData(model.GenerationRequest{}, ""))
}

func (h *StoryHandler) generateStory(c *gin.Context) {
	log := h.logger.With(zap.String("request_id", middleware.GetRequestID(c)))

	var req model.GenerationRequest
	if err := c.ShouldBind(&req); err != nil {
		log.Warn("Failed to bind generation form", zap.Error(err))
		c.HTML(http.StatusBadRequest, "index.html", h.formData(req, msgEmptyInput))
		return
	}
	req = req.Normalized()

	if req.UserInput == "" {
		c.HTML(http.StatusBadRequest, "index.html", h.formData(req, msgEmptyInput))
		return
	}
	if !h.cfg.IsGenre(req.Genre) {
		log.Warn("Unknown genre in request", zap.String("genre", req.Genre))
		c.HTML(http.StatusBadRequest, "index.html", h.formData(req, msgUnknownGenre))
		return
	}

	result, err := h.stories.GenerateStory(c.Request.Context(), req)
	if err != nil {
		h.handleServiceError(c, log, req, err)
		return
	}

	c.HTML(http.StatusOK, "generate_story.html", gin.H{
		"user_input":          result.UserInput,
		"genre":               result.Genre,
		"generated_story":     result.Lyrics,
		"generated_image_url": result.ImageURL,
		"generated_music_url": result.MusicURL,
	})
}

func (h *StoryHandler) getHistory(c *gin.Context) {
	c.HTML(http.StatusOK, "history.html", gin.H{
		"history_data": h.history.List(c.Request.Context()),
	})
}

func (h *StoryHandler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// handleServiceError показывает форму заново с сообщением об ошибке.
func (h *StoryHandler) handleServiceError(c *gin.Context, log *zap.Logger, req model.GenerationRequest, err error) {
	var stageErr *service.StageError
	if errors.As(err, &stageErr) {
		log.Warn("Story generation failed", zap.String("stage", string(stageErr.Stage)), zap.Error(err))
		c.HTML(http.StatusBadGateway, "index.html", h.formData(req, stageErr.UserMessage()))
		return
	}
	log.Error("Unhandled error in story generation", zap.Error(err))
	c.HTML(http.StatusInternalServerError, "index.html", h.formData(req, msgUnexpected))
}

// formRequest читает форму без проверок, только чтобы показать ее заново.
func formRequest(c *gin.Context) model.GenerationRequest {
	var req model.GenerationRequest
	_ = c.ShouldBind(&req)
	return req.Normalized()
}

func (h *StoryHandler) formData(req model.GenerationRequest, errMsg string) gin.H {
	data := gin.H{
		"genres":     h.cfg.Genres,
		"user_input": req.UserInput,
		"genre":      req.Genre,
	}
	if errMsg != "" {
		data["error"] = errMsg
	}
	return data
}

package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	goredis "github.com/go-redis/redis/v8"

	"neowatch/internal/clients"
	"neowatch/internal/models"
	"neowatch/internal/repository"
	"neowatch/internal/service"
	"neowatch/pkg/redis"
)

type SyncHandler struct {
	service       service.SyncService
	repo          repository.AsteroidRepository
	redisClient   *goredis.Client
	baseCtx       context.Context
	backfillStart time.Time
	backfilling   atomic.Bool
	wg            sync.WaitGroup
}

// NewSyncHandler: ctx живет дольше запроса и отменяет ручные backfill при остановке сервера.
// redisClient может быть nil.
func NewSyncHandler(
	ctx context.Context,
	service service.SyncService,
	repo repository.AsteroidRepository,
	redisClient *goredis.Client,
	backfillStart time.Time,
) *SyncHandler {
	return &SyncHandler{
		service:       service,
		repo:          repo,
		redisClient:   redisClient,
		baseCtx:       ctx,
		backfillStart: backfillStart,
	}
}

// RegisterRoutes вешает эндпоинты на /api/v1. Ручные запуски синхронизации
// доступны только в debug-режиме.
func (h *SyncHandler) RegisterRoutes(api *gin.RouterGroup, debug bool, limit ...gin.HandlerFunc) {
	api.GET("/health", h.Health)
	api.GET("/sync/status", h.GetStatus)
	api.GET("/system/stats", h.GetStats)

	if debug {
		manual := api.Group("/sync", limit...)
		manual.POST("/range", h.SyncRange)
		manual.POST("/backfill", h.Backfill)
	}
}

func (h *SyncHandler) Health(c *gin.Context) {
	ctx := c.Request.Context()

	services := gin.H{"database": "connected", "redis": "disabled"}
	status := http.StatusOK

	if _, err := h.repo.CountAsteroids(ctx); err != nil {
		services["database"] = "unavailable"
		status = http.StatusServiceUnavailable
	}
	if h.redisClient != nil {
		services["redis"] = "connected"
		if err := h.redisClient.Ping(ctx).Err(); err != nil {
			// кэш статусов не обязателен
			services["redis"] = "unavailable"
		}
	}

	state := "ok"
	if status != http.StatusOK {
		state = "degraded"
	}

	c.JSON(status, gin.H{
		"status":    state,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"services":  services,
	})
}

// GetStatus godoc
// @Summary Результаты последних запусков синхронизации
// @Tags Sync
// @Produce json
// @Success 200 {object} models.SyncStatus
// @Router /sync/status [get]
func (h *SyncHandler) GetStatus(c *gin.Context) {
	status, err := h.service.Status(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "failed to read sync status",
			"message": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, status)
}

func (h *SyncHandler) GetStats(c *gin.Context) {
	ctx := c.Request.Context()

	asteroids, err := h.repo.CountAsteroids(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to count asteroids", "message": err.Error()})
		return
	}
	approaches, err := h.repo.CountApproaches(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to count approaches", "message": err.Error()})
		return
	}

	response := gin.H{
		"database": gin.H{
			"asteroids":        asteroids,
			"close_approaches": approaches,
		},
	}

	if h.redisClient != nil {
		redisStats, err := redis.GetStats(ctx, h.redisClient)
		if err != nil {
			log.Printf("Failed to get redis stats: %v", err)
		} else {
			response["redis"] = redisStats
		}
	}

	c.JSON(http.StatusOK, response)
}

// SyncRange godoc
// @Summary Синхронизировать одно окно фида
// @Tags Sync
// @Param start query string true "YYYY-MM-DD"
// @Param end query string false "YYYY-MM-DD, по умолчанию start"
// @Success 200 {object} models.IncrementalReport
// @Failure 400,500,502,503 {object} map[string]string
// @Router /sync/range [post]
func (h *SyncHandler) SyncRange(c *gin.Context) {
	start, err := models.ParseDate(c.Query("start"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid start date", "message": err.Error()})
		return
	}

	end := start
	if endStr := c.Query("end"); endStr != "" {
		if end, err = models.ParseDate(endStr); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid end date", "message": err.Error()})
			return
		}
	}

	report, err := h.service.SyncRange(c.Request.Context(), start, end)
	if err != nil {
		c.JSON(statusForError(err), gin.H{"error": "sync failed", "message": err.Error()})
		return
	}

	c.JSON(http.StatusOK, report)
}

// Backfill запускает историческую загрузку в фоне и сразу отвечает 202.
func (h *SyncHandler) Backfill(c *gin.Context) {
	start := h.backfillStart
	if startStr := c.Query("start"); startStr != "" {
		parsed, err := models.ParseDate(startStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid start date", "message": err.Error()})
			return
		}
		start = parsed
	}

	if !h.backfilling.CompareAndSwap(false, true) {
		c.JSON(http.StatusConflict, gin.H{"error": "backfill already running"})
		return
	}

	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		defer h.backfilling.Store(false)
		if _, err := h.service.Backfill(h.baseCtx, start); err != nil {
			log.Printf("Manual backfill from %s stopped: %v", models.FormatDate(start), err)
		}
	}()

	c.JSON(http.StatusAccepted, gin.H{
		"message": "backfill started",
		"start":   models.FormatDate(start),
	})
}

// Wait ждет завершения ручного backfill (после отмены baseCtx он
// останавливается между окнами и записывает итоговый статус).
// Возвращает ctx.Err(), если не дождался.
func (h *SyncHandler) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func statusForError(err error) int {
	var fetchErr *clients.FetchError

	switch {
	case errors.Is(err, service.ErrInvalidRange):
		return http.StatusBadRequest
	case errors.As(err, &fetchErr):
		if fetchErr.IsRateLimited() {
			return http.StatusServiceUnavailable
		}
		return http.StatusBadGateway
	default:
		// PersistError и все остальное
		return http.StatusInternalServerError
	}
}

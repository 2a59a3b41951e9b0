package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/google/uuid"

	"neowatch/internal/clients"
	"neowatch/internal/metrics"
	"neowatch/internal/models"
	"neowatch/internal/repository"
	"neowatch/internal/utils"
)

//go:generate mockgen -source=sync_service.go -destination=mocks/sync_service_mock.go -package=mocks

var ErrInvalidRange = errors.New("invalid date range")

const (
	DefaultChunkDays = 7

	lastBackfillKey    = "neo:sync:last_backfill"
	lastIncrementalKey = "neo:sync:last_incremental"
	statusTTL          = 30 * 24 * time.Hour
)

// SyncService прогоняет окна фида через клиент и репозиторий.
// Каждый вызов независим, общее состояние между вызовами - только БД.
type SyncService interface {
	// Backfill загружает [start, вчера] окнами по ChunkDays. Упавшее окно
	// логируется и пропускается; ошибка возвращается только при отмене ctx.
	Backfill(ctx context.Context, start time.Time) (*models.BackfillReport, error)
	// SyncRange загружает одно окно без планировщика и паузы.
	SyncRange(ctx context.Context, from, to time.Time) (*models.IncrementalReport, error)
	Status(ctx context.Context) (*models.SyncStatus, error)
}

type SyncConfig struct {
	ChunkDays int
	Now       func() time.Time
}

type syncService struct {
	repo      repository.AsteroidRepository
	cacheRepo repository.CacheRepository
	client    clients.NEOClient
	pacer     Pacer
	chunkDays int
	now       func() time.Time
	logger    *log.Logger
}

// NewSyncService создает оркестратор. cacheRepo может быть nil, тогда
// результаты запусков не сохраняются.
func NewSyncService(
	repo repository.AsteroidRepository,
	cacheRepo repository.CacheRepository,
	client clients.NEOClient,
	pacer Pacer,
	config SyncConfig,
	logger *log.Logger,
) SyncService {
	if logger == nil {
		logger = log.New(os.Stderr, "[neo-sync] ", log.LstdFlags)
	}
	if pacer == nil {
		pacer = NewPacer(DefaultPacerDelay)
	}

	chunkDays := config.ChunkDays
	if chunkDays < 1 {
		chunkDays = DefaultChunkDays
	}

	now := config.Now
	if now == nil {
		now = time.Now
	}

	return &syncService{
		repo:      repo,
		cacheRepo: cacheRepo,
		client:    client,
		pacer:     pacer,
		chunkDays: chunkDays,
		now:       now,
		logger:    logger,
	}
}

func (s *syncService) Backfill(ctx context.Context, start time.Time) (*models.BackfillReport, error) {
	start = models.TruncateDay(start)
	end := utils.Yesterday(s.now())

	report := &models.BackfillReport{
		RunID:     uuid.NewString(),
		From:      start,
		To:        end,
		Failures:  []models.ChunkFailure{},
		StartedAt: s.now().UTC(),
	}

	windows := utils.PlanWindows(start, end, s.chunkDays)
	report.Chunks = len(windows)

	if len(windows) == 0 {
		s.logger.Printf("[%s] Nothing to backfill: %s is after %s",
			report.RunID, models.FormatDate(start), models.FormatDate(end))
		s.finishBackfill(ctx, report)
		return report, nil
	}

	s.logger.Printf("[%s] Starting historical sync %s..%s in %d chunks",
		report.RunID, models.FormatDate(start), models.FormatDate(end), len(windows))

	for i, window := range windows {
		// Отмена проверяется только между окнами
		if err := ctx.Err(); err != nil {
			report.Cancelled = true
			s.logger.Printf("[%s] Backfill cancelled before chunk %d/%d (%s)",
				report.RunID, i+1, len(windows), window)
			s.finishBackfill(ctx, report)
			return report, err
		}

		s.logger.Printf("[%s] Fetching chunk %d/%d: %s", report.RunID, i+1, len(windows), window)

		stats, stage, err := s.processChunk(ctx, window)
		if err != nil {
			report.Failures = append(report.Failures, models.ChunkFailure{
				Window: window,
				Stage:  stage,
				Error:  err.Error(),
			})
			metrics.ChunksTotal.WithLabelValues(metrics.ModeBackfill, outcomeFor(stage)).Inc()
			s.logger.Printf("[%s] Chunk %s failed at %s, skipping: %v", report.RunID, window, stage, err)
		} else {
			report.Succeeded++
			report.Stats.Add(*stats)
			metrics.ChunksTotal.WithLabelValues(metrics.ModeBackfill, metrics.OutcomeOK).Inc()
			s.logger.Printf("[%s] Saved chunk %s: %d new asteroids, %d new approaches",
				report.RunID, window, stats.AsteroidsInserted, stats.ApproachesInserted)
		}

		// пауза только между окнами; отмена во время паузы обработается
		// в начале следующей итерации
		if i < len(windows)-1 {
			_ = s.pacer.Wait(ctx)
		}
	}

	s.finishBackfill(ctx, report)
	s.logger.Printf("[%s] Historical sync completed: %d/%d chunks ok, %d asteroids and %d approaches inserted",
		report.RunID, report.Succeeded, report.Chunks, report.Stats.AsteroidsInserted, report.Stats.ApproachesInserted)

	return report, nil
}

func (s *syncService) SyncRange(ctx context.Context, from, to time.Time) (*models.IncrementalReport, error) {
	window := models.NewDateWindow(from, to)
	if window.Start.After(window.End) {
		return nil, fmt.Errorf("%w: %s is after %s", ErrInvalidRange,
			models.FormatDate(window.Start), models.FormatDate(window.End))
	}

	report := &models.IncrementalReport{
		RunID:  uuid.NewString(),
		Window: window,
	}

	s.logger.Printf("[%s] Incremental sync %s", report.RunID, window)

	stats, stage, err := s.processChunk(ctx, window)
	report.FinishedAt = s.now().UTC()

	if err != nil {
		report.Error = err.Error()
		metrics.ChunksTotal.WithLabelValues(metrics.ModeIncremental, outcomeFor(stage)).Inc()
		s.recordStatus(ctx, lastIncrementalKey, report)
		return nil, fmt.Errorf("incremental sync %s failed at %s: %w", window, stage, err)
	}

	report.Stats = *stats
	metrics.ChunksTotal.WithLabelValues(metrics.ModeIncremental, metrics.OutcomeOK).Inc()
	metrics.LastSuccessTimestamp.WithLabelValues(metrics.ModeIncremental).Set(float64(report.FinishedAt.Unix()))
	s.recordStatus(ctx, lastIncrementalKey, report)

	s.logger.Printf("[%s] Incremental sync %s done: %d new asteroids, %d new approaches",
		report.RunID, window, stats.AsteroidsInserted, stats.ApproachesInserted)

	return report, nil
}

func (s *syncService) Status(ctx context.Context) (*models.SyncStatus, error) {
	status := &models.SyncStatus{}
	if s.cacheRepo == nil {
		return status, nil
	}

	var backfill models.BackfillReport
	found, err := s.cacheRepo.GetJSON(ctx, lastBackfillKey, &backfill)
	if err != nil {
		return nil, fmt.Errorf("failed to read backfill status: %w", err)
	}
	if found {
		status.LastBackfill = &backfill
	}

	var incremental models.IncrementalReport
	found, err = s.cacheRepo.GetJSON(ctx, lastIncrementalKey, &incremental)
	if err != nil {
		return nil, fmt.Errorf("failed to read incremental status: %w", err)
	}
	if found {
		status.LastIncremental = &incremental
	}

	return status, nil
}

// processChunk: Fetch -> Persist для одного окна. stage указывает шаг, на котором произошла ошибка.
func (s *syncService) processChunk(ctx context.Context, window models.DateWindow) (*models.PersistStats, string, error) {
	started := time.Now()
	batch, err := s.client.FetchFeed(ctx, window)
	metrics.FetchDuration.Observe(time.Since(started).Seconds())
	if err != nil {
		return nil, models.StageFetch, err
	}

	stats, err := s.repo.PersistBatch(ctx, batch)
	if err != nil {
		return nil, models.StagePersist, err
	}

	metrics.RowsInsertedTotal.WithLabelValues("asteroid").Add(float64(stats.AsteroidsInserted))
	metrics.RowsInsertedTotal.WithLabelValues("close_approach").Add(float64(stats.ApproachesInserted))

	return stats, "", nil
}

func (s *syncService) finishBackfill(ctx context.Context, report *models.BackfillReport) {
	report.FinishedAt = s.now().UTC()
	if !report.Cancelled && len(report.Failures) == 0 {
		metrics.LastSuccessTimestamp.WithLabelValues(metrics.ModeBackfill).Set(float64(report.FinishedAt.Unix()))
	}
	s.recordStatus(ctx, lastBackfillKey, report)
}

// recordStatus пишет результат в кэш. Ошибки кэша на синхронизацию не влияют.
func (s *syncService) recordStatus(ctx context.Context, key string, value interface{}) {
	if s.cacheRepo == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 3*time.Second)
	defer cancel()

	if err := s.cacheRepo.SetJSON(ctx, key, value, statusTTL); err != nil {
		s.logger.Printf("Failed to cache sync status %s: %v", key, err)
	}
}

func outcomeFor(stage string) string {
	if stage == models.StagePersist {
		return metrics.OutcomePersistFailed
	}
	return metrics.OutcomeFetchFailed
}

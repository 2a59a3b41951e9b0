package worker

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"neowatch/internal/repository"
	"neowatch/internal/service"
)

// BackfillWorker запускает историческую загрузку, если таблица астероидов пуста.
type BackfillWorker struct {
	repo    repository.AsteroidRepository
	service service.SyncService
	start   time.Time
	cancel  context.CancelFunc
	done    chan struct{}
	mu      sync.Mutex
}

func NewBackfillWorker(repo repository.AsteroidRepository, service service.SyncService, start time.Time) *BackfillWorker {
	return &BackfillWorker{
		repo:    repo,
		service: service,
		start:   start,
	}
}

func (w *BackfillWorker) Name() string {
	return "backfill"
}

func (w *BackfillWorker) Start() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	w.cancel = cancel
	w.done = make(chan struct{})

	go w.run(ctx)
}

// Stop отменяет загрузку между окнами и ждет ее завершения.
func (w *BackfillWorker) Stop() {
	w.mu.Lock()
	cancel, done := w.cancel, w.done
	w.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (w *BackfillWorker) run(ctx context.Context) {
	defer close(w.done)

	count, err := w.repo.CountAsteroids(ctx)
	if err != nil {
		log.Printf("Backfill Worker: failed to count asteroids: %v", err)
		return
	}
	if count > 0 {
		log.Printf("Backfill Worker: %d asteroids already stored, skipping historical sync", count)
		return
	}

	log.Println("Backfill Worker: database is empty, starting historical sync")

	report, err := w.service.Backfill(ctx, w.start)
	if errors.Is(err, context.Canceled) && report != nil {
		log.Printf("Backfill Worker: cancelled after %d/%d chunks", report.Succeeded+len(report.Failures), report.Chunks)
		return
	}
	if err != nil {
		log.Printf("Backfill Worker error: %v", err)
		return
	}
	if len(report.Failures) > 0 {
		log.Printf("Backfill Worker: finished with %d failed chunks", len(report.Failures))
	}
}

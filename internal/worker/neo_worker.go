package worker

import (
	"context"
	"log"
	"sync"
	"time"

	"neowatch/internal/service"
	"neowatch/internal/utils"
)

const (
	defaultNEOAt      = "00:01"
	neoSyncTimeout    = 2 * time.Minute
	neoWorkerTimeZone = "UTC"
)

// NEOWorker раз в сутки догружает вчерашний день фида.
type NEOWorker struct {
	service  service.SyncService
	interval time.Duration
	at       time.Duration // смещение от полуночи UTC
	now      func() time.Time
	stopChan chan struct{}
	done     chan struct{}
	running  bool
	mu       sync.Mutex
}

// NewNEOWorker: первый запуск в ближайшее at (HH:MM, UTC), дальше каждые interval.
func NewNEOWorker(service service.SyncService, interval time.Duration, at string) *NEOWorker {
	offset, err := parseClock(at)
	if err != nil {
		log.Printf("NEO Worker: invalid start time %q, using %s: %v", at, defaultNEOAt, err)
		offset, _ = parseClock(defaultNEOAt)
	}
	if interval <= 0 {
		interval = 24 * time.Hour
	}

	return &NEOWorker{
		service:  service,
		interval: interval,
		at:       offset,
		now:      time.Now,
		stopChan: make(chan struct{}),
		done:     make(chan struct{}),
	}
}

func (w *NEOWorker) Name() string {
	return "neo"
}

func (w *NEOWorker) Start() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return
	}
	w.running = true

	first := nextRun(w.now(), w.at)
	log.Printf("NEO Worker started: first run at %s %s, then every %v",
		first.Format(time.DateTime), neoWorkerTimeZone, w.interval)

	go w.run(first.Sub(w.now()))
}

func (w *NEOWorker) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	close(w.stopChan)
	w.mu.Unlock()

	<-w.done
	log.Println("NEO Worker stopped")
}

func (w *NEOWorker) run(delay time.Duration) {
	defer close(w.done)

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-timer.C:
		w.syncYesterday()
	case <-w.stopChan:
		return
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.syncYesterday()
		case <-w.stopChan:
			return
		}
	}
}

func (w *NEOWorker) syncYesterday() {
	ctx, cancel := context.WithTimeout(context.Background(), neoSyncTimeout)
	defer cancel()

	// Stop прерывает текущий запрос к фиду
	go func() {
		select {
		case <-w.stopChan:
			cancel()
		case <-ctx.Done():
		}
	}()

	day := utils.Yesterday(w.now())
	if _, err := w.service.SyncRange(ctx, day, day); err != nil {
		// следующий запуск повторит попытку
		log.Printf("NEO Worker error: %v", err)
		return
	}
	log.Println("NEO Worker: daily sync completed")
}

func parseClock(at string) (time.Duration, error) {
	t, err := time.Parse("15:04", at)
	if err != nil {
		return 0, err
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute, nil
}

// nextRun возвращает ближайший момент полночь+offset (UTC) строго после now.
func nextRun(now time.Time, offset time.Duration) time.Time {
	now = now.UTC()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	next := midnight.Add(offset)
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

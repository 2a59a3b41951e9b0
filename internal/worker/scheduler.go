package worker

import (
	"log"
	"sync"
	"time"
)

const defaultStopTimeout = 15 * time.Second

// Worker - фоновая задача. Start не блокирует, Stop ждет завершения текущей работы.
type Worker interface {
	Name() string
	Start()
	Stop()
}

type Scheduler struct {
	workers     []Worker
	stopTimeout time.Duration
	started     bool
	stopped     bool
	mu          sync.RWMutex
}

func NewScheduler() *Scheduler {
	return &Scheduler{
		workers:     make([]Worker, 0),
		stopTimeout: defaultStopTimeout,
	}
}

func (s *Scheduler) AddWorker(worker Worker) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.workers = append(s.workers, worker)
}

func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started || s.stopped {
		return
	}
	s.started = true

	log.Println("Starting scheduler with", len(s.workers), "workers")

	for _, worker := range s.workers {
		worker.Start()
		log.Printf("Worker %s started", worker.Name())
	}
}

// Stop останавливает воркеров параллельно и ждет не дольше stopTimeout.
func (s *Scheduler) Stop() bool {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return true
	}
	s.stopped = true
	workers := append([]Worker(nil), s.workers...)
	s.mu.Unlock()

	log.Println("Stopping scheduler...")

	var wg sync.WaitGroup
	for _, worker := range workers {
		wg.Add(1)
		go func(w Worker) {
			defer wg.Done()
			w.Stop()
		}(worker)
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		log.Println("Scheduler stopped gracefully")
		return true
	case <-time.After(s.stopTimeout):
		log.Println("Scheduler stop timeout")
		return false
	}
}

func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.started && !s.stopped
}

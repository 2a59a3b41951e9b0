package service

import (
	"context"
	"time"
)

const DefaultPacerDelay = time.Second

// Pacer выдерживает паузу между последовательными запросами к фиду.
type Pacer interface {
	Wait(ctx context.Context) error
}

type delayPacer struct {
	delay time.Duration
}

func NewPacer(delay time.Duration) Pacer {
	return &delayPacer{delay: delay}
}

func (p *delayPacer) Wait(ctx context.Context) error {
	if p.delay <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(p.delay)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

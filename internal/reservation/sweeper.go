package reservation

import (
	"context"
	"log"
	"time"
)

// Sweeper periodically marks elapsed reservations as Completed.
type Sweeper struct {
	svc      Service
	interval time.Duration
}

func NewSweeper(svc Service, interval time.Duration) *Sweeper {
	return &Sweeper{svc: svc, interval: interval}
}

// Run sweeps once immediately and then on every tick until ctx is done.
// A non-positive interval disables the sweeper.
func (s *Sweeper) Run(ctx context.Context) {
	if s.interval <= 0 {
		return
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.sweep(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	n, err := s.svc.CompleteElapsed(ctx)
	if err != nil {
		if ctx.Err() == nil {
			log.Printf("completion sweep failed: %v", err)
		}
		return
	}
	if n > 0 {
		log.Printf("completion sweep: %d reservation(s) marked %s", n, StatusCompleted)
	}
}

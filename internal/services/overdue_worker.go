package services

import (
	"context"
	"log"
	"time"
)

// OverdueMarker flags open tasks whose due date has passed.
// *repository.TaskRepository implements it.
type OverdueMarker interface {
	MarkOverdue(ctx context.Context, now time.Time) (int64, error)
}

// StartOverdueWorker starts a background goroutine that periodically flags
// tasks past their due date. It sweeps once immediately, then on every tick.
// The worker stops when ctx is done; the returned channel closes on exit.
func StartOverdueWorker(ctx context.Context, interval time.Duration, repo OverdueMarker) <-chan struct{} {
	done := make(chan struct{})
	ticker := time.NewTicker(interval)
	go func() {
		defer close(done)
		defer ticker.Stop()
		sweepOverdue(ctx, repo)
		for {
			select {
			case <-ctx.Done():
				log.Println("overdue worker: shutting down")
				return
			case <-ticker.C:
				sweepOverdue(ctx, repo)
			}
		}
	}()
	return done
}

func sweepOverdue(ctx context.Context, repo OverdueMarker) {
	n, err := repo.MarkOverdue(ctx, time.Now())
	if err != nil {
		if ctx.Err() == nil {
			log.Println("overdue worker: error marking tasks:", err)
		}
		return
	}
	if n > 0 {
		log.Printf("overdue worker: flagged %d task(s)", n)
	}
}

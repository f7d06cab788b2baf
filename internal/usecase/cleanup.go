package usecase

import (
	"context"
	"log"
	"time"

	"github.com/nik-ti/image-finder/internal/domain/repository"
)

// Janitor ages out stored images outside the request path.
type Janitor struct {
	storage  repository.ImageStore
	maxAge   time.Duration
	interval time.Duration
}

func NewJanitor(storage repository.ImageStore, maxAge, interval time.Duration) *Janitor {
	return &Janitor{storage: storage, maxAge: maxAge, interval: interval}
}

// Run sweeps immediately and then on every tick until the context is done.
func (j *Janitor) Run(ctx context.Context) {
	j.sweep(ctx)
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			j.sweep(ctx)
		}
	}
}

func (j *Janitor) sweep(ctx context.Context) {
	deleted, err := j.storage.DeleteOlderThan(ctx, j.maxAge)
	if err != nil {
		log.Printf("[JANITOR] sweep failed: %v", err)
		return
	}
	if deleted > 0 {
		log.Printf("[JANITOR] deleted %d images older than %s", deleted, j.maxAge)
	}
}

package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/user/site-mirror/internal/repository"
	"github.com/user/site-mirror/pkg/metrics"
)

// Frontier is the crawl frontier: a visited set plus a FIFO queue of
// discovered but unvisited URLs. It is owned by one traversal loop.
type Frontier struct {
	visitedRepo repository.VisitedRepository
	queueRepo   repository.QueueRepository
}

// NewFrontier creates a new Frontier over the given repositories.
func NewFrontier(visitedRepo repository.VisitedRepository, queueRepo repository.QueueRepository) *Frontier {
	return &Frontier{visitedRepo: visitedRepo, queueRepo: queueRepo}
}

// Offer enqueues url unless it was visited or is already queued.
func (f *Frontier) Offer(ctx context.Context, url string) (bool, error) {
	isVisited, err := f.visitedRepo.IsVisited(ctx, url)
	if err != nil {
		return false, err
	}
	if isVisited {
		return false, nil
	}
	added, err := f.queueRepo.Push(ctx, url)
	if err != nil {
		return false, err
	}
	f.updateGauge(ctx)
	return added, nil
}

// Next pops the head of the queue. ok is false when the queue is empty.
func (f *Frontier) Next(ctx context.Context) (string, bool, error) {
	url, err := f.queueRepo.Pop(ctx)
	if errors.Is(err, repository.ErrQueueEmpty) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	f.updateGauge(ctx)
	return url, true, nil
}

// Visit marks url as visited. It returns false if it already was.
func (f *Frontier) Visit(ctx context.Context, url string) (bool, error) {
	return f.visitedRepo.MarkVisited(ctx, url)
}

// Requeue clears the visited flag of url and puts it back at the head of the
// queue, so it is crawled again next.
func (f *Frontier) Requeue(ctx context.Context, url string) error {
	if err := f.visitedRepo.RemoveVisited(ctx, url); err != nil {
		return err
	}
	if err := f.queueRepo.PushFront(ctx, url); err != nil {
		return err
	}
	f.updateGauge(ctx)
	return nil
}

// VisitedCount returns the number of visited URLs.
func (f *Frontier) VisitedCount(ctx context.Context) (int64, error) {
	return f.visitedRepo.Count(ctx)
}

func (f *Frontier) updateGauge(ctx context.Context) {
	size, err := f.queueRepo.Size(ctx)
	if err != nil {
		slog.Warn("Failed to read queue size", "error", err)
		return
	}
	metrics.URLsInQueue.Set(float64(size))
}

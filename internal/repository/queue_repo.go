package repository

import "context"

// QueueRepository is the FIFO work queue of the crawl frontier.
type QueueRepository interface {
	// Push appends a URL unless it is already queued. It reports whether the
	// URL was added.
	Push(ctx context.Context, url string) (bool, error)
	// PushFront puts a URL at the head of the queue.
	PushFront(ctx context.Context, url string) error
	// Pop removes and returns the head of the queue, or ErrQueueEmpty.
	Pop(ctx context.Context) (string, error)
	// Size returns the current number of items in the queue.
	Size(ctx context.Context) (int64, error)
}

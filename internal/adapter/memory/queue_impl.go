package memory

import (
	"context"
	"sync"

	"github.com/user/site-mirror/internal/repository"
)

// QueueRepoImpl is an in-process FIFO queue that refuses duplicates while an
// item is pending.
type QueueRepoImpl struct {
	mu     sync.Mutex
	items  []string
	queued map[string]struct{}
}

// NewQueueRepo creates an empty queue.
func NewQueueRepo() *QueueRepoImpl {
	return &QueueRepoImpl{queued: make(map[string]struct{})}
}

func (r *QueueRepoImpl) Push(_ context.Context, url string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.queued[url]; ok {
		return false, nil
	}
	r.queued[url] = struct{}{}
	r.items = append(r.items, url)
	return true, nil
}

func (r *QueueRepoImpl) PushFront(_ context.Context, url string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.queued[url]; ok {
		r.removeLocked(url)
	}
	r.queued[url] = struct{}{}
	r.items = append([]string{url}, r.items...)
	return nil
}

func (r *QueueRepoImpl) Pop(_ context.Context) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.items) == 0 {
		return "", repository.ErrQueueEmpty
	}
	url := r.items[0]
	r.items = r.items[1:]
	delete(r.queued, url)
	return url, nil
}

func (r *QueueRepoImpl) Size(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.items)), nil
}

func (r *QueueRepoImpl) removeLocked(url string) {
	for i, item := range r.items {
		if item == url {
			r.items = append(r.items[:i], r.items[i+1:]...)
			return
		}
	}
}

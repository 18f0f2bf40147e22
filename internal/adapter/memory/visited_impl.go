package memory

import (
	"context"
	"sync"
)

// VisitedRepoImpl is an in-process visited set.
type VisitedRepoImpl struct {
	mu  sync.Mutex
	set map[string]struct{}
}

// NewVisitedRepo creates an empty visited set.
func NewVisitedRepo() *VisitedRepoImpl {
	return &VisitedRepoImpl{set: make(map[string]struct{})}
}

func (r *VisitedRepoImpl) MarkVisited(_ context.Context, url string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.set[url]; ok {
		return false, nil
	}
	r.set[url] = struct{}{}
	return true, nil
}

func (r *VisitedRepoImpl) IsVisited(_ context.Context, url string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.set[url]
	return ok, nil
}

func (r *VisitedRepoImpl) RemoveVisited(_ context.Context, url string) error {
	r.mu.Lock()
	delete(r.set, url)
	r.mu.Unlock()
	return nil
}

func (r *VisitedRepoImpl) Count(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.set)), nil
}

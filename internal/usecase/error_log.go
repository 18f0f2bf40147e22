package usecase

import (
	"sync"

	"github.com/user/site-mirror/internal/entity"
)

// ErrorLog collects recoverable failures of a run in the order they happen.
type ErrorLog struct {
	mu      sync.Mutex
	entries []entity.CrawlError
}

func (l *ErrorLog) Record(errType, url, msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, entity.CrawlError{Type: errType, URL: url, Error: msg})
}

// Entries returns a copy of the log.
func (l *ErrorLog) Entries() []entity.CrawlError {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]entity.CrawlError, len(l.entries))
	copy(out, l.entries)
	return out
}

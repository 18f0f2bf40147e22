package repository

import "context"

// VisitedRepository is the visited half of the crawl frontier.
type VisitedRepository interface {
	// MarkVisited marks a URL as visited. It returns false if the URL was
	// already marked; test and insert are one atomic step.
	MarkVisited(ctx context.Context, url string) (bool, error)
	// IsVisited checks if a URL has been visited in this run.
	IsVisited(ctx context.Context, url string) (bool, error)
	// RemoveVisited clears the visited flag, used when retrying the root URL.
	RemoveVisited(ctx context.Context, url string) error
	// Count returns the number of visited URLs.
	Count(ctx context.Context) (int64, error)
}

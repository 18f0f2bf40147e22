package redis

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// VisitedRepoImpl provides a concrete implementation for the VisitedRepository interface using a Redis set.
type VisitedRepoImpl struct {
	client *redis.Client
	key    string
}

// NewVisitedRepo creates a new instance of VisitedRepoImpl.
func NewVisitedRepo(client *redis.Client, keys Keys) *VisitedRepoImpl {
	return &VisitedRepoImpl{client: client, key: keys.Visited}
}

// MarkVisited adds the URL to the set. SADD is atomic and returns 1 only for a new member.
func (r *VisitedRepoImpl) MarkVisited(ctx context.Context, url string) (bool, error) {
	n, err := r.client.SAdd(ctx, r.key, url).Result()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// IsVisited checks set membership.
func (r *VisitedRepoImpl) IsVisited(ctx context.Context, url string) (bool, error) {
	return r.client.SIsMember(ctx, r.key, url).Result()
}

// RemoveVisited removes a URL from the visited set, used for root retries.
func (r *VisitedRepoImpl) RemoveVisited(ctx context.Context, url string) error {
	return r.client.SRem(ctx, r.key, url).Err()
}

// Count returns the cardinality of the visited set.
func (r *VisitedRepoImpl) Count(ctx context.Context) (int64, error) {
	return r.client.SCard(ctx, r.key).Result()
}

// Reset drops the visited set so a new run starts empty.
func (r *VisitedRepoImpl) Reset(ctx context.Context) error {
	return r.client.Del(ctx, r.key).Err()
}

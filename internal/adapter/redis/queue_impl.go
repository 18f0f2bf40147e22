package redis

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"

	"github.com/user/site-mirror/internal/repository"
)

// QueueRepoImpl provides a concrete implementation for the QueueRepository interface using a Redis list,
// with a companion set that tracks pending members.
type QueueRepoImpl struct {
	client *redis.Client
	list   string
	set    string
}

// NewQueueRepo creates a new instance of QueueRepoImpl.
func NewQueueRepo(client *redis.Client, keys Keys) *QueueRepoImpl {
	return &QueueRepoImpl{client: client, list: keys.Queue, set: keys.Queued}
}

// Push appends the URL to the right side of the list unless it is already pending.
func (r *QueueRepoImpl) Push(ctx context.Context, url string) (bool, error) {
	n, err := r.client.SAdd(ctx, r.set, url).Result()
	if err != nil {
		return false, err
	}
	if n == 0 {
		return false, nil
	}
	if err := r.client.RPush(ctx, r.list, url).Err(); err != nil {
		return false, err
	}
	return true, nil
}

// PushFront moves the URL to the left side of the list.
func (r *QueueRepoImpl) PushFront(ctx context.Context, url string) error {
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.LRem(ctx, r.list, 0, url)
		pipe.LPush(ctx, r.list, url)
		pipe.SAdd(ctx, r.set, url)
		return nil
	})
	return err
}

// Pop removes and returns a URL from the left side of the list.
func (r *QueueRepoImpl) Pop(ctx context.Context) (string, error) {
	url, err := r.client.LPop(ctx, r.list).Result()
	if errors.Is(err, redis.Nil) {
		return "", repository.ErrQueueEmpty
	}
	if err != nil {
		return "", err
	}
	if err := r.client.SRem(ctx, r.set, url).Err(); err != nil {
		return "", err
	}
	return url, nil
}

// Size returns the current number of items in the queue.
func (r *QueueRepoImpl) Size(ctx context.Context) (int64, error) {
	return r.client.LLen(ctx, r.list).Result()
}

// Reset drops the queue so a new run starts empty.
func (r *QueueRepoImpl) Reset(ctx context.Context) error {
	return r.client.Del(ctx, r.list, r.set).Err()
}

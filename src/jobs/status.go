package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"sitbook/src/models"

	"github.com/redis/go-redis/v9"
)

const StatusKey = "reconciler:status"

// StatusRecorder keeps the outcome of the most recent run.
type StatusRecorder interface {
	Record(ctx context.Context, status models.RunStatus) error
	// Last returns nil when no run has been recorded yet.
	Last(ctx context.Context) (*models.RunStatus, error)
}

type RedisStatusRecorder struct {
	rdb *redis.Client
}

func NewRedisStatusRecorder(rdb *redis.Client) *RedisStatusRecorder {
	return &RedisStatusRecorder{rdb: rdb}
}

func (r *RedisStatusRecorder) Record(ctx context.Context, status models.RunStatus) error {
	b, err := json.Marshal(status)
	if err != nil {
		return err
	}
	return r.rdb.Set(ctx, StatusKey, string(b), 0).Err()
}

func (r *RedisStatusRecorder) Last(ctx context.Context) (*models.RunStatus, error) {
	val, err := r.rdb.Get(ctx, StatusKey).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var status models.RunStatus
	if err := json.Unmarshal([]byte(val), &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// NopStatusRecorder discards every record. Used when redis is not configured.
type NopStatusRecorder struct{}

func (NopStatusRecorder) Record(ctx context.Context, status models.RunStatus) error {
	return nil
}

func (NopStatusRecorder) Last(ctx context.Context) (*models.RunStatus, error) {
	return nil, nil
}

package queue

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	redisListKey    = "scribe:queue"
	redisMetaPrefix = "scribe:job:"
)

// RedisStore keeps the queue in a Redis list plus one hash per job, shared by
// every worker process that can reach the server.
type RedisStore struct {
	client *redis.Client
}

// OpenRedis connects to the Redis server described by url.
func OpenRedis(url string) (*RedisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &RedisStore{client: client}, nil
}

// NewRedisStore wraps an existing client, used by tests.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Close() error {
	if s == nil || s.client == nil {
		return nil
	}
	return s.client.Close()
}

func (s *RedisStore) Append(ctx context.Context, jobID string) (int, error) {
	length, err := s.client.RPush(ensureContext(ctx), redisListKey, jobID).Result()
	if err != nil {
		return 0, fmt.Errorf("append queue entry: %w", err)
	}
	return int(length), nil
}

func (s *RedisStore) RemoveEntry(ctx context.Context, jobID string) error {
	if err := s.client.LRem(ensureContext(ctx), redisListKey, 1, jobID).Err(); err != nil {
		return fmt.Errorf("remove queue entry: %w", err)
	}
	return nil
}

func (s *RedisStore) IndexOf(ctx context.Context, jobID string) (int, bool, error) {
	pos, err := s.client.LPos(ensureContext(ctx), redisListKey, jobID, redis.LPosArgs{}).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("index of queue entry: %w", err)
	}
	return int(pos), true, nil
}

func (s *RedisStore) EntryAt(ctx context.Context, index int) (string, bool, error) {
	jobID, err := s.client.LIndex(ensureContext(ctx), redisListKey, int64(index)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("read queue entry: %w", err)
	}
	return jobID, true, nil
}

func (s *RedisStore) Entries(ctx context.Context) ([]string, error) {
	ids, err := s.client.LRange(ensureContext(ctx), redisListKey, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("list queue entries: %w", err)
	}
	return ids, nil
}

func (s *RedisStore) PutMetadata(ctx context.Context, jobID string, meta Metadata) error {
	err := s.client.HSet(ensureContext(ctx), redisMetaPrefix+jobID, map[string]any{
		"submitter_id": meta.SubmitterID,
		"file_id":      meta.FileID,
		"filename":     meta.Filename,
		"enqueued_at":  meta.EnqueuedAt.UTC().Format(time.RFC3339Nano),
	}).Err()
	if err != nil {
		return fmt.Errorf("put job metadata: %w", err)
	}
	return nil
}

func (s *RedisStore) Metadata(ctx context.Context, jobID string) (Metadata, bool, error) {
	values, err := s.client.HGetAll(ensureContext(ctx), redisMetaPrefix+jobID).Result()
	if err != nil {
		return Metadata{}, false, fmt.Errorf("read job metadata: %w", err)
	}
	if len(values) == 0 {
		return Metadata{}, false, nil
	}
	meta := Metadata{
		FileID:   values["file_id"],
		Filename: values["filename"],
	}
	if submitter, err := strconv.ParseInt(values["submitter_id"], 10, 64); err == nil {
		meta.SubmitterID = submitter
	}
	if enqueued, err := time.Parse(time.RFC3339Nano, values["enqueued_at"]); err == nil {
		meta.EnqueuedAt = enqueued
	}
	return meta, true, nil
}

func (s *RedisStore) DeleteMetadata(ctx context.Context, jobID string) error {
	if err := s.client.Del(ensureContext(ctx), redisMetaPrefix+jobID).Err(); err != nil {
		return fmt.Errorf("delete job metadata: %w", err)
	}
	return nil
}

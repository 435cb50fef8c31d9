package taskqueue

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
)

// Backend 任务存储。Pop 超时返回 (nil, nil)
type Backend interface {
	Push(ctx context.Context, raw []byte) error
	Pop(ctx context.Context, timeout time.Duration) ([]byte, error)
	Ack(ctx context.Context, raw []byte) error
	Requeue(ctx context.Context, olderThan time.Duration) (int, error)
}

// MemoryBackend 未配置 Redis 时使用，进程退出后任务丢失
type MemoryBackend struct {
	ch chan []byte
}

func NewMemoryBackend(size int) *MemoryBackend {
	if size <= 0 {
		size = 256
	}
	return &MemoryBackend{ch: make(chan []byte, size)}
}

func (b *MemoryBackend) Push(ctx context.Context, raw []byte) error {
	select {
	case b.ch <- raw:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (b *MemoryBackend) Pop(ctx context.Context, timeout time.Duration) ([]byte, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case raw := <-b.ch:
		return raw, nil
	case <-timer.C:
		return nil, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (b *MemoryBackend) Ack(ctx context.Context, raw []byte) error { return nil }

func (b *MemoryBackend) Requeue(ctx context.Context, olderThan time.Duration) (int, error) {
	return 0, nil
}

// RedisBackend 使用 BRPOPLPUSH 将任务移入处理中列表，确认后删除；
// 超过可见性超时仍未确认的任务由 Requeue 放回队列
type RedisBackend struct {
	rdb        *redis.Client
	queue      string
	processing string
	claims     string
}

func NewRedisBackend(rdb *redis.Client, name string) *RedisBackend {
	return &RedisBackend{
		rdb:        rdb,
		queue:      name,
		processing: name + ":processing",
		claims:     name + ":claims",
	}
}

func (b *RedisBackend) Push(ctx context.Context, raw []byte) error {
	return b.rdb.LPush(ctx, b.queue, raw).Err()
}

func (b *RedisBackend) Pop(ctx context.Context, timeout time.Duration) ([]byte, error) {
	raw, err := b.rdb.BRPopLPush(ctx, b.queue, b.processing, timeout).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if err := b.rdb.HSet(ctx, b.claims, raw, time.Now().Unix()).Err(); err != nil {
		return nil, err
	}
	return []byte(raw), nil
}

func (b *RedisBackend) Ack(ctx context.Context, raw []byte) error {
	pipe := b.rdb.TxPipeline()
	pipe.LRem(ctx, b.processing, 1, raw)
	pipe.HDel(ctx, b.claims, string(raw))
	_, err := pipe.Exec(ctx)
	return err
}

func (b *RedisBackend) Requeue(ctx context.Context, olderThan time.Duration) (int, error) {
	items, err := b.rdb.LRange(ctx, b.processing, 0, -1).Result()
	if err != nil {
		return 0, err
	}

	cutoff := time.Now().Add(-olderThan).Unix()
	moved := 0
	for _, raw := range items {
		claimed, err := b.rdb.HGet(ctx, b.claims, raw).Result()
		if errors.Is(err, redis.Nil) {
			// 刚被取出还未登记认领时间
			b.rdb.HSetNX(ctx, b.claims, raw, time.Now().Unix())
			continue
		}
		if err != nil {
			return moved, err
		}
		at, _ := strconv.ParseInt(claimed, 10, 64)
		if at > cutoff {
			continue
		}

		pipe := b.rdb.TxPipeline()
		pipe.LRem(ctx, b.processing, 1, raw)
		pipe.HDel(ctx, b.claims, raw)
		pipe.LPush(ctx, b.queue, raw)
		if _, err := pipe.Exec(ctx); err != nil {
			return moved, err
		}
		moved++
	}
	return moved, nil
}

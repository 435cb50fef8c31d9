package taskqueue

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"testria_backend/pkg/logger"
	"testria_backend/pkg/monitoring"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Task 队列中的任务信封
type Task struct {
	ID         string          `json:"id"`
	Type       string          `json:"type"`
	Payload    json.RawMessage `json:"payload"`
	Attempts   int             `json:"attempts"`
	EnqueuedAt time.Time       `json:"enqueuedAt"`
}

type Handler func(ctx context.Context, payload json.RawMessage) error

type Options struct {
	Workers     int
	MaxAttempts int
	PollTimeout time.Duration
}

// Queue 后台任务队列：投递即返回，不向调用方反馈执行结果
type Queue struct {
	backend  Backend
	opts     Options
	mu       sync.RWMutex
	handlers map[string]Handler
	wg       sync.WaitGroup
	cancel   context.CancelFunc
}

func New(backend Backend, opts Options) *Queue {
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 1
	}
	if opts.PollTimeout <= 0 {
		opts.PollTimeout = 2 * time.Second
	}
	return &Queue{
		backend:  backend,
		opts:     opts,
		handlers: make(map[string]Handler),
	}
}

func (q *Queue) Register(taskType string, h Handler) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.handlers[taskType] = h
}

func (q *Queue) handler(taskType string) (Handler, bool) {
	q.mu.RLock()
	defer q.mu.RUnlock()
	h, ok := q.handlers[taskType]
	return h, ok
}

func (q *Queue) Enqueue(ctx context.Context, taskType string, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(Task{
		ID:         uuid.NewString(),
		Type:       taskType,
		Payload:    body,
		EnqueuedAt: time.Now(),
	})
	if err != nil {
		return err
	}
	return q.backend.Push(ctx, raw)
}

func (q *Queue) Start(ctx context.Context) {
	ctx, q.cancel = context.WithCancel(ctx)
	for i := 0; i < q.opts.Workers; i++ {
		q.wg.Add(1)
		go q.work(ctx, i)
	}
	logger.Log.Info("Task queue started", zap.Int("workers", q.opts.Workers))
}

func (q *Queue) Stop() {
	if q.cancel != nil {
		q.cancel()
	}
	q.wg.Wait()
}

// RequeueStale 将超过可见性超时仍未确认的任务放回队列
func (q *Queue) RequeueStale(ctx context.Context, olderThan time.Duration) (int, error) {
	return q.backend.Requeue(ctx, olderThan)
}

func (q *Queue) work(ctx context.Context, id int) {
	defer q.wg.Done()
	for {
		if ctx.Err() != nil {
			return
		}
		raw, err := q.backend.Pop(ctx, q.opts.PollTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.Log.Error("Task queue pop failed", zap.Int("worker", id), zap.Error(err))
			time.Sleep(time.Second)
			continue
		}
		if raw == nil {
			continue
		}
		q.process(ctx, raw)
	}
}

func (q *Queue) process(ctx context.Context, raw []byte) {
	defer func() {
		if err := q.backend.Ack(context.Background(), raw); err != nil {
			logger.Log.Error("Task ack failed", zap.Error(err))
		}
	}()

	var task Task
	if err := json.Unmarshal(raw, &task); err != nil {
		logger.Log.Error("Dropping malformed task", zap.Error(err))
		return
	}

	h, ok := q.handler(task.Type)
	if !ok {
		logger.Log.Warn("No handler registered for task", zap.String("type", task.Type), zap.String("id", task.ID))
		monitoring.Tasks.WithLabelValues(task.Type, "unhandled").Inc()
		return
	}

	err := run(ctx, h, task.Payload)
	if err == nil {
		monitoring.Tasks.WithLabelValues(task.Type, "success").Inc()
		return
	}

	task.Attempts++
	if task.Attempts >= q.opts.MaxAttempts {
		logger.Log.Error("Task failed permanently",
			zap.String("type", task.Type),
			zap.String("id", task.ID),
			zap.Int("attempts", task.Attempts),
			zap.Error(err))
		monitoring.Tasks.WithLabelValues(task.Type, "failed").Inc()
		return
	}

	logger.Log.Warn("Task failed, retrying",
		zap.String("type", task.Type),
		zap.String("id", task.ID),
		zap.Int("attempts", task.Attempts),
		zap.Error(err))
	monitoring.Tasks.WithLabelValues(task.Type, "retry").Inc()

	retry, mErr := json.Marshal(task)
	if mErr != nil {
		return
	}
	if pErr := q.backend.Push(context.Background(), retry); pErr != nil {
		logger.Log.Error("Task retry enqueue failed", zap.String("id", task.ID), zap.Error(pErr))
	}
}

func run(ctx context.Context, h Handler, payload json.RawMessage) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("task panic: %v", r)
		}
	}()
	return h(ctx, payload)
}

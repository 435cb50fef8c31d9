package taskqueue

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

type greeting struct {
	Name string `json:"name"`
}

func startQueue(t *testing.T, maxAttempts int) *Queue {
	t.Helper()
	q := New(NewMemoryBackend(16), Options{Workers: 2, MaxAttempts: maxAttempts, PollTimeout: 20 * time.Millisecond})
	t.Cleanup(q.Stop)
	return q
}

func TestQueueDeliversPayload(t *testing.T) {
	q := startQueue(t, 1)
	got := make(chan string, 1)
	q.Register("greet", func(ctx context.Context, payload json.RawMessage) error {
		var g greeting
		if err := json.Unmarshal(payload, &g); err != nil {
			return err
		}
		got <- g.Name
		return nil
	})
	q.Start(context.Background())

	if err := q.Enqueue(context.Background(), "greet", greeting{Name: "ada"}); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	select {
	case name := <-got:
		if name != "ada" {
			t.Fatalf("expected ada, got %q", name)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("task was not processed")
	}
}

func TestQueueRetriesUntilSuccess(t *testing.T) {
	q := startQueue(t, 3)
	var calls atomic.Int32
	done := make(chan struct{})
	q.Register("flaky", func(ctx context.Context, payload json.RawMessage) error {
		if calls.Add(1) < 3 {
			return errors.New("smtp unavailable")
		}
		close(done)
		return nil
	})
	q.Start(context.Background())
	_ = q.Enqueue(context.Background(), "flaky", nil)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("expected success on third attempt, calls=%d", calls.Load())
	}
}

func TestQueueGivesUpAfterMaxAttempts(t *testing.T) {
	q := startQueue(t, 2)
	var calls atomic.Int32
	q.Register("broken", func(ctx context.Context, payload json.RawMessage) error {
		calls.Add(1)
		panic("boom")
	})
	q.Start(context.Background())
	_ = q.Enqueue(context.Background(), "broken", nil)

	time.Sleep(300 * time.Millisecond)
	if got := calls.Load(); got != 2 {
		t.Fatalf("expected exactly 2 attempts, got %d", got)
	}
}

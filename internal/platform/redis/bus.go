package redis

import (
	"context"
	"sync"
)

// JobEvent is published when a job is enqueued or changes state. Workers treat any event
// as a wake-up; the payload is informational.
type JobEvent struct {
	JobID    string  `json:"job_id"`
	JobType  string  `json:"job_type"`
	Status   string  `json:"status"`
	Stage    string  `json:"stage,omitempty"`
	Progress float64 `json:"progress,omitempty"`
}

type JobBus interface {
	Publish(ctx context.Context, ev JobEvent) error
	Subscribe(ctx context.Context, onEvent func(JobEvent)) error
	Ping(ctx context.Context) error
	Close() error
}

// LocalBus fans events out in-process. Used when REDIS_ADDR is unset and in tests.
type LocalBus struct {
	mu   sync.RWMutex
	subs []func(JobEvent)
}

func NewLocalBus() *LocalBus { return &LocalBus{} }

func (b *LocalBus) Publish(_ context.Context, ev JobEvent) error {
	b.mu.RLock()
	subs := append([]func(JobEvent){}, b.subs...)
	b.mu.RUnlock()
	for _, fn := range subs {
		fn(ev)
	}
	return nil
}

func (b *LocalBus) Subscribe(ctx context.Context, onEvent func(JobEvent)) error {
	b.mu.Lock()
	b.subs = append(b.subs, onEvent)
	idx := len(b.subs) - 1
	b.mu.Unlock()
	go func() {
		<-ctx.Done()
		b.mu.Lock()
		b.subs[idx] = func(JobEvent) {}
		b.mu.Unlock()
	}()
	return nil
}

func (b *LocalBus) Ping(context.Context) error { return nil }
func (b *LocalBus) Close() error               { return nil }

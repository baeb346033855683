// Package queue runs background jobs pushed through a Driver (in-process
// channel or a Redis list). Jobs are JSON-encoded with their type name so
// any process sharing the Redis list can execute them.
//
//	q := queue.New(queue.NewMemoryDriver(100))
//	q.Register(func() queue.Job { return &ReceiptJob{sender: s} })
//	go q.Run(ctx, 4)
//	err := q.Dispatch(ctx, &ReceiptJob{OrderID: 7})
package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"

	"github.com/shashiranjanraj/wellness360/pkg/logger"
	"github.com/shashiranjanraj/wellness360/pkg/metrics"
	"github.com/shashiranjanraj/wellness360/pkg/workerpool"
)

// Job is a unit of background work. Its exported fields are the payload.
type Job interface {
	Handle(ctx context.Context) error
}

// Driver stores encoded jobs. Pop returns nil, nil when it timed out
// without a job.
type Driver interface {
	Push(ctx context.Context, payload []byte) error
	Pop(ctx context.Context) ([]byte, error)
}

var (
	jobsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "wellness",
		Subsystem: "queue",
		Name:      "jobs_total",
		Help:      "Jobs finished, by type and result.",
	}, []string{"type", "result"})
	registerOnce sync.Once
)

type envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Manager dispatches and executes jobs.
type Manager struct {
	MaxAttempts int
	Backoff     time.Duration

	driver   Driver
	mu       sync.RWMutex
	registry map[string]func() Job
	db       *gorm.DB
	failed   []FailedJob
}

func New(d Driver) *Manager {
	registerOnce.Do(func() { metrics.MustRegister(jobsTotal) })
	return &Manager{
		MaxAttempts: 3,
		Backoff:     time.Second,
		driver:      d,
		registry:    map[string]func() Job{},
	}
}

func typeName(j Job) string { return fmt.Sprintf("%T", j) }

// Register makes the job type returned by factory executable. The
// factory is also where dependencies get injected.
func (m *Manager) Register(factory func() Job) {
	name := typeName(factory())
	m.mu.Lock()
	m.registry[name] = factory
	m.mu.Unlock()
}

// Dispatch encodes job and pushes it to the driver.
func (m *Manager) Dispatch(ctx context.Context, job Job) error {
	name := typeName(job)
	m.mu.RLock()
	_, ok := m.registry[name]
	m.mu.RUnlock()
	if !ok {
		return fmt.Errorf("queue: job type %s is not registered", name)
	}
	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("queue: encode %s: %w", name, err)
	}
	raw, err := json.Marshal(envelope{Type: name, Payload: payload})
	if err != nil {
		return fmt.Errorf("queue: encode envelope: %w", err)
	}
	return m.driver.Push(ctx, raw)
}

// Run pops jobs and executes them on a pool of n workers until ctx is
// done, then waits for running jobs.
func (m *Manager) Run(ctx context.Context, n int) {
	pool := workerpool.New(n)
	defer pool.Shutdown()
	logger.Info("queue: workers started", "count", n)

	for ctx.Err() == nil {
		raw, err := m.driver.Pop(ctx)
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			logger.Warn("queue: pop failed", "error", err)
			sleep(ctx, 500*time.Millisecond)
			continue
		}
		if raw == nil {
			continue
		}
		if err := pool.SubmitWait(ctx, func() { m.process(ctx, raw) }); err != nil {
			logger.Warn("queue: job dropped at shutdown", "error", err)
		}
	}
	logger.Info("queue: workers stopped")
}

func (m *Manager) process(ctx context.Context, raw []byte) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		logger.Error("queue: bad envelope", "error", err)
		return
	}
	m.mu.RLock()
	factory, ok := m.registry[env.Type]
	m.mu.RUnlock()
	if !ok {
		logger.Warn("queue: unregistered job type", "type", env.Type)
		return
	}
	job := factory()
	if err := json.Unmarshal(env.Payload, job); err != nil {
		logger.Error("queue: decode payload", "type", env.Type, "error", err)
		return
	}

	var err error
	for attempt := 1; attempt <= m.MaxAttempts; attempt++ {
		if err = job.Handle(ctx); err == nil {
			jobsTotal.WithLabelValues(env.Type, "ok").Inc()
			logger.Debug("queue: job processed", "type", env.Type, "attempt", attempt)
			return
		}
		logger.Warn("queue: job failed", "type", env.Type, "attempt", attempt, "error", err)
		if attempt < m.MaxAttempts && !sleep(ctx, time.Duration(attempt)*m.Backoff) {
			break
		}
	}
	jobsTotal.WithLabelValues(env.Type, "failed").Inc()
	m.recordFailure(ctx, env, err)
}

// sleep waits d or until ctx is done. It reports whether d elapsed.
func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

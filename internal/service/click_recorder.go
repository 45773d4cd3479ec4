package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/atomic"
	"go.uber.org/zap"

	apperrors "github.com/Kosench/shortlink/internal/errors"
	"github.com/Kosench/shortlink/internal/model"
)

// ClickWriter applies one click event to the store.
type ClickWriter interface {
	IncrementClicks(ctx context.Context, event *model.ClickEvent) (int64, error)
}

type RecorderConfig struct {
	Workers   int
	QueueSize int
	Timeout   time.Duration
}

type RecorderStats struct {
	Enqueued int64 `json:"enqueued"`
	Recorded int64 `json:"recorded"`
	Failed   int64 `json:"failed"`
	Overflow int64 `json:"overflow"`
	Pending  int   `json:"pending"`
}

// ClickRecorder applies click increments off the redirect path. Record never
// waits for the queue: when it is full the event is applied on its own goroutine.
type ClickRecorder struct {
	writer  ClickWriter
	timeout time.Duration
	logger  *zap.Logger

	queue    chan *model.ClickEvent
	mu       sync.RWMutex
	closed   bool
	workers  sync.WaitGroup
	detached sync.WaitGroup

	enqueued *atomic.Int64
	recorded *atomic.Int64
	failed   *atomic.Int64
	overflow *atomic.Int64
}

func NewClickRecorder(writer ClickWriter, cfg RecorderConfig, logger *zap.Logger) *ClickRecorder {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 1
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}

	r := &ClickRecorder{
		writer:   writer,
		timeout:  cfg.Timeout,
		logger:   logger,
		queue:    make(chan *model.ClickEvent, cfg.QueueSize),
		enqueued: atomic.NewInt64(0),
		recorded: atomic.NewInt64(0),
		failed:   atomic.NewInt64(0),
		overflow: atomic.NewInt64(0),
	}

	for i := 0; i < cfg.Workers; i++ {
		r.workers.Add(1)
		go r.work()
	}

	return r
}

// Record schedules exactly one increment for event. After Shutdown the
// event is applied on the caller's goroutine.
func (r *ClickRecorder) Record(event *model.ClickEvent) {
	r.enqueued.Inc()

	r.mu.RLock()
	if r.closed {
		r.mu.RUnlock()
		r.apply(event)
		return
	}

	select {
	case r.queue <- event:
		r.mu.RUnlock()
		return
	default:
	}

	// Add happens under the read lock, so Shutdown cannot be waiting yet.
	r.overflow.Inc()
	r.detached.Add(1)
	r.mu.RUnlock()

	go func() {
		defer r.detached.Done()
		r.apply(event)
	}()
}

func (r *ClickRecorder) work() {
	defer r.workers.Done()
	for event := range r.queue {
		r.apply(event)
	}
}

func (r *ClickRecorder) apply(event *model.ClickEvent) {
	// Не зависит от контекста запроса: клиент мог уже уйти.
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	count, err := r.writer.IncrementClicks(ctx, event)
	if err == nil {
		r.recorded.Inc()
		r.logger.Debug("click recorded",
			zap.Int64("link_id", event.LinkID),
			zap.String("event_id", event.EventID),
			zap.Int64("click_count", count),
		)
		return
	}

	r.failed.Inc()
	if apperrors.IsNotFound(err) {
		r.logger.Warn("click dropped, link deleted",
			zap.Int64("link_id", event.LinkID),
			zap.String("event_id", event.EventID),
		)
		return
	}

	r.logger.Error("failed to record click",
		zap.Int64("link_id", event.LinkID),
		zap.String("event_id", event.EventID),
		zap.Error(err),
	)
}

// Shutdown stops intake and waits for queued and detached events.
func (r *ClickRecorder) Shutdown(ctx context.Context) error {
	r.mu.Lock()
	if !r.closed {
		r.closed = true
		close(r.queue)
	}
	r.mu.Unlock()

	done := make(chan struct{})
	go func() {
		r.workers.Wait()
		r.detached.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		r.logger.Warn("click recorder shutdown timed out", zap.Int("pending", len(r.queue)))
		return ctx.Err()
	}
}

func (r *ClickRecorder) Stats() RecorderStats {
	return RecorderStats{
		Enqueued: r.enqueued.Load(),
		Recorded: r.recorded.Load(),
		Failed:   r.failed.Load(),
		Overflow: r.overflow.Load(),
		Pending:  len(r.queue),
	}
}

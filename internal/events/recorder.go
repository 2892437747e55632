package events

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/alecgard/socialsync/internal/social"
)

// Sink appends one analytics event upstream. *apiclient.Client satisfies it.
type Sink interface {
	AddAnalytics(ctx context.Context, ev social.AnalyticsEvent) error
}

// Observer receives buffer and flush measurements.
type Observer interface {
	EventRecorded(buffered int)
	EventsFlushed(err error, buffered int)
}

// Recorder buffers analytics events in memory and flushes them to the sink
// when the buffer reaches batchSize or every flushInterval. Events that the
// sink rejects are logged and dropped. It is safe for concurrent use.
type Recorder struct {
	sink          Sink
	buffer        []social.AnalyticsEvent
	mu            sync.Mutex
	batchSize     int
	flushInterval time.Duration

	observer Observer
	logger   *slog.Logger
	now      func() time.Time

	done     chan struct{}
	exited   chan struct{}
	started  atomic.Bool
	stopOnce sync.Once
}

// NewRecorder creates a Recorder that flushes to sink.
func NewRecorder(sink Sink, batchSize int, flushInterval time.Duration) *Recorder {
	if batchSize < 1 {
		batchSize = 1
	}
	return &Recorder{
		sink:          sink,
		buffer:        make([]social.AnalyticsEvent, 0, batchSize),
		batchSize:     batchSize,
		flushInterval: flushInterval,
		logger:        slog.Default(),
		now:           time.Now,
		done:          make(chan struct{}),
		exited:        make(chan struct{}),
	}
}

// SetObserver attaches instrumentation.
func (r *Recorder) SetObserver(o Observer) {
	r.observer = o
}

// SetLogger replaces the recorder's logger.
func (r *Recorder) SetLogger(l *slog.Logger) {
	r.logger = l
}

// Start flushes buffered events on a timer. It blocks until Stop is called
// or ctx is cancelled, and flushes once more before returning.
func (r *Recorder) Start(ctx context.Context) {
	r.started.Store(true)
	defer close(r.exited)

	ticker := time.NewTicker(r.flushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.flush()
		case <-ctx.Done():
			r.flush()
			return
		case <-r.done:
			r.flush()
			return
		}
	}
}

// Record buffers ev, stamping it with the current time if unset. A full
// buffer is flushed immediately.
func (r *Recorder) Record(ev social.AnalyticsEvent) {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = r.now().UTC()
	}

	r.mu.Lock()
	r.buffer = append(r.buffer, ev)
	n := len(r.buffer)
	shouldFlush := n >= r.batchSize
	r.mu.Unlock()

	if r.observer != nil {
		r.observer.EventRecorded(n)
	}
	if shouldFlush {
		r.flush()
	}
}

// Flush sends everything buffered now.
func (r *Recorder) Flush() {
	r.flush()
}

// Buffered returns the number of events waiting to be sent.
func (r *Recorder) Buffered() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.buffer)
}

func (r *Recorder) flush() {
	r.mu.Lock()
	if len(r.buffer) == 0 {
		r.mu.Unlock()
		return
	}
	batch := r.buffer
	r.buffer = make([]social.AnalyticsEvent, 0, r.batchSize)
	r.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var firstErr error
	failed := 0
	for _, ev := range batch {
		if err := r.sink.AddAnalytics(ctx, ev); err != nil {
			failed++
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	if firstErr != nil {
		r.logger.Error("failed to flush analytics events", "count", len(batch), "failed", failed, "error", firstErr)
	}
	if r.observer != nil {
		r.observer.EventsFlushed(firstErr, r.Buffered())
	}
}

// Stop ends the Start loop, waiting for its final flush. Without a running
// Start loop it flushes directly.
func (r *Recorder) Stop() {
	r.stopOnce.Do(func() {
		close(r.done)
		if r.started.Load() {
			<-r.exited
			return
		}
		r.flush()
	})
}

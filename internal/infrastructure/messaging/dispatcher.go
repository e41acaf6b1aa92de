// Package messaging moves domain events: the in-process Dispatcher that runs
// reactions, and the buses that fan events out to other processes.
package messaging

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/valoron/valoron/internal/application/eventhandler"
	"github.com/valoron/valoron/internal/domain/shared"
	"github.com/valoron/valoron/pkg/logger"
)

// ErrMaxDepthExceeded is reported when a reaction chain grows deeper than
// the configured limit. The offending events are dropped.
var ErrMaxDepthExceeded = errors.New("event propagation depth exceeded")

// ══════════════════════════════════════════════════════════════════════════════
// DISPATCHER
// ══════════════════════════════════════════════════════════════════════════════

// Dispatcher is the in-process EventPublisher. Published events are processed
// first-in first-out; every reaction registered for an event runs in
// registration order, its aggregate is committed, and the events it produced
// are queued behind the ones already waiting. Processing is best effort: a
// failing reaction does not stop the others, and all failures are returned
// joined.
type Dispatcher struct {
	registry    *eventhandler.Registry
	middlewares []Middleware
	sink        shared.EventPublisher
	maxDepth    int
	logger      *logger.Logger
	metrics     *DispatcherMetrics

	// Publish is single-writer: one propagation chain at a time.
	mu sync.Mutex
}

// DispatcherConfig contains configuration for the Dispatcher.
type DispatcherConfig struct {
	// Registry maps event types to reactions.
	Registry *eventhandler.Registry

	// MaxDepth bounds the reaction chain. Events at depth 0 are the ones
	// handed to Publish.
	MaxDepth int

	// Sink, if set, receives every processed event (e.g. a Redis fan-out).
	Sink shared.EventPublisher

	// Logger for structured logging.
	Logger *logger.Logger
}

// DefaultMaxDepth bounds chains well above the progression reactions, whose
// deepest path is progress logged -> book finished -> level up.
const DefaultMaxDepth = 4

// NewDispatcher creates a new dispatcher with recovery, logging and metrics
// middleware installed.
func NewDispatcher(config DispatcherConfig) *Dispatcher {
	if config.Registry == nil {
		config.Registry = eventhandler.NewRegistry()
	}
	if config.MaxDepth <= 0 {
		config.MaxDepth = DefaultMaxDepth
	}
	if config.Logger == nil {
		config.Logger = logger.Nop()
	}

	log := config.Logger.With(logger.Component("dispatcher"))
	d := &Dispatcher{
		registry: config.Registry,
		sink:     config.Sink,
		maxDepth: config.MaxDepth,
		logger:   log,
		metrics:  NewDispatcherMetrics(),
	}
	d.middlewares = []Middleware{
		RecoveryMiddleware(log),
		LoggingMiddleware(log),
		MetricsMiddleware(d.metrics),
	}
	return d
}

// ══════════════════════════════════════════════════════════════════════════════
// MIDDLEWARE
// ══════════════════════════════════════════════════════════════════════════════

// HandlerFunc runs one reaction for one event.
type HandlerFunc func(ctx context.Context, event shared.Event) (eventhandler.Outcome, error)

// Middleware wraps reaction execution. name is the reaction name.
type Middleware func(name string, next HandlerFunc) HandlerFunc

// Use adds middleware to the dispatcher. Middleware added later runs closer
// to the reaction.
func (d *Dispatcher) Use(middleware Middleware) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.middlewares = append(d.middlewares, middleware)
}

// RecoveryMiddleware turns a panicking reaction into an error.
func RecoveryMiddleware(log *logger.Logger) Middleware {
	return func(name string, next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, event shared.Event) (out eventhandler.Outcome, err error) {
			defer func() {
				if r := recover(); r != nil {
					log.Error("reaction panic recovered",
						logger.String("reaction", name),
						logger.EventType(string(event.EventType())),
						logger.Any("panic", r),
						logger.String("stack", string(debug.Stack())),
					)
					out = eventhandler.Outcome{}
					err = fmt.Errorf("reaction %s panicked: %v", name, r)
				}
			}()
			return next(ctx, event)
		}
	}
}

// LoggingMiddleware logs reaction execution.
func LoggingMiddleware(log *logger.Logger) Middleware {
	return func(name string, next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, event shared.Event) (eventhandler.Outcome, error) {
			start := time.Now()
			out, err := next(ctx, event)
			fields := []logger.Field{
				logger.String("reaction", name),
				logger.EventType(string(event.EventType())),
				logger.String("aggregate_id", event.AggregateID()),
				logger.Latency(time.Since(start)),
			}
			if err != nil {
				log.Error("reaction failed", append(fields, logger.Err(err))...)
			} else {
				log.Debug("reaction completed", append(fields, logger.Int("emitted", len(out.Events)))...)
			}
			return out, err
		}
	}
}

// MetricsMiddleware collects reaction metrics.
func MetricsMiddleware(metrics *DispatcherMetrics) Middleware {
	return func(name string, next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, event shared.Event) (eventhandler.Outcome, error) {
			start := time.Now()
			out, err := next(ctx, event)
			metrics.RecordExecution(event.EventType(), time.Since(start), err == nil)
			return out, err
		}
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// EVENT DISPATCHING
// ══════════════════════════════════════════════════════════════════════════════

type queued struct {
	event shared.Event
	depth int
}

// Publish implements shared.EventPublisher.
func (d *Dispatcher) Publish(ctx context.Context, events ...shared.Event) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	queue := make([]queued, 0, len(events))
	for _, e := range events {
		if e != nil {
			queue = append(queue, queued{event: e})
		}
	}

	var errs []error
	for len(queue) > 0 {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		item := queue[0]
		queue = queue[1:]
		d.metrics.RecordDispatch(item.event.EventType())
		d.forward(ctx, item.event)

		for _, reaction := range d.registry.For(item.event.EventType()) {
			produced, err := d.run(ctx, reaction, item.event)
			if err != nil {
				errs = append(errs, err)
				continue
			}
			for _, e := range produced {
				if item.depth+1 > d.maxDepth {
					d.metrics.RecordDropped()
					d.logger.Error("event dropped",
						logger.EventType(string(e.EventType())),
						logger.Int("depth", item.depth+1),
					)
					errs = append(errs, fmt.Errorf("%w: %s at depth %d", ErrMaxDepthExceeded, e.EventType(), item.depth+1))
					continue
				}
				queue = append(queue, queued{event: e, depth: item.depth + 1})
			}
		}
	}

	return errors.Join(errs...)
}

// run executes one reaction and commits its aggregate.
func (d *Dispatcher) run(ctx context.Context, reaction eventhandler.Reaction, event shared.Event) ([]shared.Event, error) {
	handler := HandlerFunc(reaction.React)
	for i := len(d.middlewares) - 1; i >= 0; i-- {
		handler = d.middlewares[i](reaction.Name(), handler)
	}

	out, err := handler(ctx, event)
	if err != nil {
		return nil, err
	}
	if out.Commit != nil {
		if err := out.Commit(ctx); err != nil {
			d.metrics.RecordCommitFailure()
			d.logger.Error("reaction commit failed",
				logger.String("reaction", reaction.Name()),
				logger.Err(err),
			)
			return nil, fmt.Errorf("%s: commit: %w", reaction.Name(), err)
		}
	}
	return out.Events, nil
}

// forward hands the event to the sink. Fan-out failures are logged only.
func (d *Dispatcher) forward(ctx context.Context, event shared.Event) {
	if d.sink == nil {
		return
	}
	if err := d.sink.Publish(ctx, event); err != nil {
		d.metrics.RecordSinkFailure()
		d.logger.Warn("event fan-out failed",
			logger.EventType(string(event.EventType())),
			logger.Err(err),
		)
	}
}

// Metrics returns dispatcher metrics.
func (d *Dispatcher) Metrics() *DispatcherMetrics {
	return d.metrics
}

// ══════════════════════════════════════════════════════════════════════════════
// DISPATCHER METRICS
// ══════════════════════════════════════════════════════════════════════════════

// DispatcherMetrics tracks dispatcher activity.
type DispatcherMetrics struct {
	mu sync.RWMutex

	DispatchedTotal  map[shared.EventType]int64
	ExecutionsTotal  int64
	SuccessTotal     int64
	FailuresTotal    int64
	CommitFailures   int64
	SinkFailures     int64
	DroppedTotal     int64
	TotalDuration    time.Duration
	ExecutionsByType map[shared.EventType]int64
}

// NewDispatcherMetrics creates new dispatcher metrics.
func NewDispatcherMetrics() *DispatcherMetrics {
	return &DispatcherMetrics{
		DispatchedTotal:  make(map[shared.EventType]int64),
		ExecutionsByType: make(map[shared.EventType]int64),
	}
}

// RecordDispatch records an event taken off the queue.
func (m *DispatcherMetrics) RecordDispatch(eventType shared.EventType) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DispatchedTotal[eventType]++
}

// RecordExecution records a reaction execution.
func (m *DispatcherMetrics) RecordExecution(eventType shared.EventType, duration time.Duration, success bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.ExecutionsTotal++
	m.TotalDuration += duration
	m.ExecutionsByType[eventType]++
	if success {
		m.SuccessTotal++
	} else {
		m.FailuresTotal++
	}
}

// RecordCommitFailure records a failed save after a successful reaction.
func (m *DispatcherMetrics) RecordCommitFailure() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CommitFailures++
}

// RecordSinkFailure records a failed fan-out.
func (m *DispatcherMetrics) RecordSinkFailure() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SinkFailures++
}

// RecordDropped records an event dropped by the depth guard.
func (m *DispatcherMetrics) RecordDropped() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DroppedTotal++
}

// Snapshot returns a point-in-time snapshot.
func (m *DispatcherMetrics) Snapshot() DispatcherMetricsSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	avgDuration := time.Duration(0)
	if m.ExecutionsTotal > 0 {
		avgDuration = m.TotalDuration / time.Duration(m.ExecutionsTotal)
	}
	successRate := 1.0
	if m.ExecutionsTotal > 0 {
		successRate = float64(m.SuccessTotal) / float64(m.ExecutionsTotal)
	}
	var dispatched int64
	byType := make(map[shared.EventType]int64, len(m.DispatchedTotal))
	for t, v := range m.DispatchedTotal {
		dispatched += v
		byType[t] = v
	}

	return DispatcherMetricsSnapshot{
		TotalDispatched:  dispatched,
		DispatchedByType: byType,
		TotalExecutions:  m.ExecutionsTotal,
		TotalFailures:    m.FailuresTotal,
		CommitFailures:   m.CommitFailures,
		SinkFailures:     m.SinkFailures,
		Dropped:          m.DroppedTotal,
		SuccessRate:      successRate,
		AverageDuration:  avgDuration,
	}
}

// DispatcherMetricsSnapshot is a point-in-time snapshot.
type DispatcherMetricsSnapshot struct {
	TotalDispatched  int64
	DispatchedByType map[shared.EventType]int64
	TotalExecutions  int64
	TotalFailures    int64
	CommitFailures   int64
	SinkFailures     int64
	Dropped          int64
	SuccessRate      float64
	AverageDuration  time.Duration
}

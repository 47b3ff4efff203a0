package core

import (
	"context"
	"encoding/json"
	"expvar"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"
)

var expvarSeq uint64

// OperationCounters aggregates the outcomes of one service operation.
type OperationCounters struct {
	Success int64   `json:"success"`
	Error   int64   `json:"error"`
	TotalMS float64 `json:"total_duration_ms"`
}

// ExpvarMetricsRecorder publishes per-operation counters via expvar, for
// deployments that want process-local metrics without a scrape target.
type ExpvarMetricsRecorder struct {
	name string
	mu   sync.Mutex
	ops  map[string]OperationCounters
}

// NewExpvarMetricsRecorder constructs a recorder and publishes it under the
// supplied expvar name. An empty name gets a generated unique one.
func NewExpvarMetricsRecorder(name string) *ExpvarMetricsRecorder {
	if name == "" {
		name = fmt.Sprintf("atlas_service_metrics_%d", atomic.AddUint64(&expvarSeq, 1))
	}
	rec := &ExpvarMetricsRecorder{name: name, ops: make(map[string]OperationCounters)}
	expvar.Publish(name, expvar.Func(func() any { return rec.Snapshot() }))
	return rec
}

// Name returns the expvar export name.
func (r *ExpvarMetricsRecorder) Name() string { return r.name }

// Observe implements MetricsRecorder. Unnamed operations are dropped.
func (r *ExpvarMetricsRecorder) Observe(_ context.Context, operation string, success bool, duration time.Duration) {
	if operation == "" {
		return
	}
	r.mu.Lock()
	counters := r.ops[operation]
	if success {
		counters.Success++
	} else {
		counters.Error++
	}
	counters.TotalMS += float64(duration) / float64(time.Millisecond)
	r.ops[operation] = counters
	r.mu.Unlock()
}

// Snapshot returns a copy of the counters keyed by operation name.
func (r *ExpvarMetricsRecorder) Snapshot() map[string]OperationCounters {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]OperationCounters, len(r.ops))
	for op, counters := range r.ops {
		out[op] = counters
	}
	return out
}

// TraceEvent is one completed span as emitted by the JSON tracer.
type TraceEvent struct {
	Op       string    `json:"op"`
	Outcome  string    `json:"outcome"`
	Millis   float64   `json:"duration_ms"`
	Err      string    `json:"error,omitempty"`
	Started  time.Time `json:"started_at"`
	Finished time.Time `json:"finished_at"`
}

// JSONTraceTracer writes completed spans as JSON lines and retains them for
// inspection. A nil writer retains only.
type JSONTraceTracer struct {
	mu     sync.Mutex
	events []TraceEvent
	enc    *json.Encoder
}

// NewJSONTracer constructs a tracer writing spans to w as JSON lines.
func NewJSONTracer(w io.Writer) *JSONTraceTracer {
	t := &JSONTraceTracer{}
	if w != nil {
		t.enc = json.NewEncoder(w)
	}
	return t
}

// Events returns a copy of all recorded spans in completion order.
func (t *JSONTraceTracer) Events() []TraceEvent {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]TraceEvent, len(t.events))
	copy(out, t.events)
	return out
}

// Start implements Tracer.
func (t *JSONTraceTracer) Start(ctx context.Context, operation string) (context.Context, TraceSpan) {
	return ctx, &jsonTraceSpan{tracer: t, op: operation, started: time.Now().UTC()}
}

type jsonTraceSpan struct {
	tracer  *JSONTraceTracer
	op      string
	started time.Time
}

func (s *jsonTraceSpan) End(err error) {
	finished := time.Now().UTC()
	event := TraceEvent{
		Op:       s.op,
		Outcome:  "success",
		Millis:   float64(finished.Sub(s.started)) / float64(time.Millisecond),
		Started:  s.started,
		Finished: finished,
	}
	if err != nil {
		event.Outcome = "error"
		event.Err = err.Error()
	}
	s.tracer.mu.Lock()
	s.tracer.events = append(s.tracer.events, event)
	if s.tracer.enc != nil {
		_ = s.tracer.enc.Encode(event)
	}
	s.tracer.mu.Unlock()
}

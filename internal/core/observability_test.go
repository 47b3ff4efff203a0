package core

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"
)

func TestExpvarMetricsRecorderAggregates(t *testing.T) {
	rec := NewExpvarMetricsRecorder("")
	ctx := context.Background()

	rec.Observe(ctx, "preview_identifier", true, 4*time.Millisecond)
	rec.Observe(ctx, "preview_identifier", true, 6*time.Millisecond)
	rec.Observe(ctx, "preview_identifier", false, time.Millisecond)
	rec.Observe(ctx, "", true, time.Millisecond)

	snap := rec.Snapshot()
	counters := snap["preview_identifier"]
	if counters.Success != 2 || counters.Error != 1 {
		t.Fatalf("counters %+v", counters)
	}
	if counters.TotalMS != 11 {
		t.Fatalf("total duration %v", counters.TotalMS)
	}
	if len(snap) != 1 {
		t.Fatalf("unnamed operations must be dropped: %+v", snap)
	}
}

func TestExpvarMetricsRecorderSnapshotIsACopy(t *testing.T) {
	rec := NewExpvarMetricsRecorder("")
	rec.Observe(context.Background(), "submit_record", true, time.Millisecond)

	snap := rec.Snapshot()
	snap["submit_record"] = OperationCounters{Success: 99}
	delete(snap, "submit_record")

	again := rec.Snapshot()
	if again["submit_record"].Success != 1 {
		t.Fatalf("snapshot mutation leaked into recorder: %+v", again)
	}
}

func TestJSONTracerEncodesSpans(t *testing.T) {
	var buf bytes.Buffer
	tracer := NewJSONTracer(&buf)

	ctx, span := tracer.Start(context.Background(), "submit_record")
	if ctx == nil {
		t.Fatal("nil context")
	}
	span.End(nil)

	var event TraceEvent
	if err := json.Unmarshal(buf.Bytes(), &event); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if event.Op != "submit_record" || event.Outcome != "success" {
		t.Fatalf("event %+v", event)
	}
	if event.Finished.Before(event.Started) {
		t.Fatalf("span finished before it started: %+v", event)
	}
}

type countingRecorder struct{ calls int }

func (c *countingRecorder) Observe(context.Context, string, bool, time.Duration) { c.calls++ }

func TestMultiMetricsRecorderFansOut(t *testing.T) {
	a := &countingRecorder{}
	b := &countingRecorder{}
	multi := MultiMetricsRecorder{a, nil, b}

	multi.Observe(context.Background(), "submit_record", true, time.Millisecond)
	if a.calls != 1 || b.calls != 1 {
		t.Fatalf("calls a=%d b=%d", a.calls, b.calls)
	}
}

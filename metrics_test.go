package sluice

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestNoOpMetricsProvider_DoesNotPanic(_ *testing.T) {
	var m MetricsProvider = NoOpMetricsProvider{}

	m.OnStateChange(StateLoading, StateHealthy)
	m.OnLoadSuccess(1, 100*time.Millisecond)
	m.OnLoadFailure(StageLoad, 50*time.Millisecond)
	m.OnPoll(10*time.Millisecond, errors.New("refused"))
	m.OnChangeDetected()
}

// stageRecorder overrides only the callbacks it cares about.
type stageRecorder struct {
	NoOpMetricsProvider
	successes int
	failures  []Stage
}

func (r *stageRecorder) OnLoadSuccess(_ int, _ time.Duration) { r.successes++ }

func (r *stageRecorder) OnLoadFailure(stage Stage, _ time.Duration) {
	r.failures = append(r.failures, stage)
}

type staticConn struct{ rows RowSet }

func (c staticConn) Query(context.Context, string, ...any) (RowSet, error) { return c.rows, nil }
func (staticConn) Close(context.Context) error                             { return nil }

func TestMetricsProvider_LifecycleCallbacks(t *testing.T) {
	dialer := DialerFunc(func(context.Context, string) (Conn, error) {
		return staticConn{rows: RowSet{{"a": 1}}}, nil
	})
	rec := &stageRecorder{}

	if _, _, err := New(dialer, Config{URL: "fake://", Query: "q"}).Metrics(rec).Load(context.Background(), nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, _, err := New(dialer, Config{}).Metrics(rec).Load(context.Background(), nil); err == nil {
		t.Fatal("expected validation error")
	}

	if rec.successes != 1 {
		t.Errorf("expected 1 success, got %d", rec.successes)
	}
	if len(rec.failures) != 1 || rec.failures[0] != StageValidate {
		t.Errorf("expected one validate failure, got %v", rec.failures)
	}
}

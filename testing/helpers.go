// Package testing provides test utilities and helpers for sluice adapters.
package testing

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/zoobzio/sluice"
)

// ErrConnectionRefused is a stand-in for a refused database connection.
var ErrConnectionRefused = errors.New("connect: connection refused")

// FakeDialer is an in-memory sluice.Dialer. Each query text maps to the rows
// it currently returns, which tests change to simulate remote updates. It
// counts dials, closes and executions so tests can assert connection hygiene.
type FakeDialer struct {
	mu       sync.Mutex
	rows     map[string]sluice.RowSet
	errs     map[string]error
	gates    map[string]chan struct{}
	dialErr  error
	attempts int
	dials    int
	closes   int
	calls    map[string]int
	params   map[string][]any
}

// NewFakeDialer creates a FakeDialer with no queries registered.
// Unregistered queries return zero rows.
func NewFakeDialer() *FakeDialer {
	return &FakeDialer{
		rows:   make(map[string]sluice.RowSet),
		errs:   make(map[string]error),
		gates:  make(map[string]chan struct{}),
		calls:  make(map[string]int),
		params: make(map[string][]any),
	}
}

// Set makes query return rows from now on and clears any failure for it.
func (d *FakeDialer) Set(query string, rows sluice.RowSet) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.rows[query] = rows
	delete(d.errs, query)
}

// Fail makes query fail with err from now on.
func (d *FakeDialer) Fail(query string, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.errs[query] = err
}

// FailDial makes every Dial fail with err. Pass nil to restore.
func (d *FakeDialer) FailDial(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.dialErr = err
}

// Block makes query wait until the returned release func is called or the
// query context ends. Calls already waiting are released too.
func (d *FakeDialer) Block(query string) (release func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	gate := make(chan struct{})
	d.gates[query] = gate
	var once sync.Once
	return func() {
		once.Do(func() {
			d.mu.Lock()
			if d.gates[query] == gate {
				delete(d.gates, query)
			}
			d.mu.Unlock()
			close(gate)
		})
	}
}

// Attempts returns the number of Dial calls, including failed ones.
func (d *FakeDialer) Attempts() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.attempts
}

// Dials returns the number of successful Dial calls.
func (d *FakeDialer) Dials() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dials
}

// Closes returns the number of connections closed.
func (d *FakeDialer) Closes() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closes
}

// Open returns the number of connections dialed but not yet closed.
func (d *FakeDialer) Open() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dials - d.closes
}

// Calls returns how many times query was executed, including failures.
func (d *FakeDialer) Calls(query string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.calls[query]
}

// LastParams returns the params of the most recent execution of query.
func (d *FakeDialer) LastParams(query string) []any {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.params[query]
}

// Dial implements sluice.Dialer.
func (d *FakeDialer) Dial(ctx context.Context, _ string) (sluice.Conn, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.attempts++
	if d.dialErr != nil {
		return nil, d.dialErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	d.dials++
	return &fakeConn{dialer: d}, nil
}

type fakeConn struct {
	dialer *FakeDialer
	closed bool
}

func (c *fakeConn) Query(ctx context.Context, text string, params ...any) (sluice.RowSet, error) {
	d := c.dialer
	d.mu.Lock()
	d.calls[text]++
	d.params[text] = params
	gate := d.gates[text]
	d.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.errs[text]; err != nil {
		return nil, err
	}
	rows := d.rows[text]
	out := make(sluice.RowSet, len(rows))
	copy(out, rows)
	return out, nil
}

func (c *fakeConn) Close(_ context.Context) error {
	d := c.dialer
	d.mu.Lock()
	defer d.mu.Unlock()
	if !c.closed {
		c.closed = true
		d.closes++
	}
	return nil
}

// Recorder collects the events and outcome of an adapter run.
type Recorder struct {
	mu      sync.Mutex
	changes int
	errs    []error
	done    chan struct{}
	value   any
	err     error
	calls   int
}

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{done: make(chan struct{})}
}

// Change is a change listener.
func (r *Recorder) Change() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.changes++
}

// Error is an error listener.
func (r *Recorder) Error(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errs = append(r.errs, err)
}

// Complete is a completion callback. It counts calls so tests can assert
// completion happens exactly once.
func (r *Recorder) Complete(v any, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	r.value, r.err = v, err
	if r.calls == 1 {
		close(r.done)
	}
}

// Changes returns the number of change events seen.
func (r *Recorder) Changes() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.changes
}

// Errors returns the watch errors seen.
func (r *Recorder) Errors() []error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]error(nil), r.errs...)
}

// Completions returns how many times Complete was called.
func (r *Recorder) Completions() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

// Outcome waits up to timeout for completion and returns its arguments.
func (r *Recorder) Outcome(t *testing.T, timeout time.Duration) (any, error) {
	t.Helper()
	select {
	case <-r.done:
	case <-time.After(timeout):
		t.Fatal("timeout waiting for completion")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.value, r.err
}

// WaitFor polls a condition until it returns true or timeout is reached.
// Returns true if the condition was met, false if timeout occurred.
func WaitFor(t *testing.T, timeout time.Duration, condition func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if condition() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return false
}

// RequireState fails the test immediately if the handle is not in the expected state.
func RequireState(t *testing.T, h *sluice.Handle, expected sluice.State) {
	t.Helper()
	if got := h.State(); got != expected {
		t.Fatalf("expected state %s, got %s", expected, got)
	}
}

// RequireDone fails the test if the handle's watch loop has not exited
// within timeout.
func RequireDone(t *testing.T, h *sluice.Handle, timeout time.Duration) {
	t.Helper()
	select {
	case <-h.Done():
	case <-time.After(timeout):
		t.Fatal("timeout waiting for watch loop to stop")
	}
}

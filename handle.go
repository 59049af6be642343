package sluice

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/zoobzio/capitan"
	"github.com/zoobzio/clockz"
)

// Handle is returned by Adapter.Run. It delivers change and watch-error
// events for the run and stops delivering them once the run is cancelled.
//
// Cancellation is checked before every listener call. A listener already
// running when the host starts reloading finishes; listeners not yet reached
// are skipped. No listener is called after Done is closed.
type Handle struct {
	mu       sync.RWMutex
	onChange []func()
	onError  []func(error)

	reloading <-chan struct{}
	stop      chan struct{}
	stopOnce  sync.Once
	done      chan struct{}

	state     atomic.Int32
	lastError atomic.Pointer[error]
	failures  *failureRing
	clock     clockz.Clock
	metrics   MetricsProvider
}

func newHandle(host Host, clock clockz.Clock, metrics MetricsProvider, historySize int) *Handle {
	h := &Handle{
		reloading: host.Reloading(),
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
		failures:  newFailureRing(historySize),
		clock:     clock,
		metrics:   metrics,
	}
	h.state.Store(int32(StateLoading))
	return h
}

// OnChange registers fn to be called for every detected remote change.
// Listeners registered on the Adapter are attached before the run starts;
// listeners added here only see events raised after registration.
func (h *Handle) OnChange(fn func()) *Handle {
	h.mu.Lock()
	h.onChange = append(h.onChange, fn)
	h.mu.Unlock()
	return h
}

// OnError registers fn to be called for every failed watch poll.
func (h *Handle) OnError(fn func(error)) *Handle {
	h.mu.Lock()
	h.onError = append(h.onError, fn)
	h.mu.Unlock()
	return h
}

// State returns the current state of the run.
func (h *Handle) State() State {
	return State(h.state.Load())
}

// LastError returns the most recent watch poll error, or nil if the most
// recent poll succeeded.
func (h *Handle) LastError() error {
	ptr := h.lastError.Load()
	if ptr == nil {
		return nil
	}
	return *ptr
}

// ErrorHistory returns recent watch failures, oldest first.
// Returns nil unless Adapter.ErrorHistorySize was set.
func (h *Handle) ErrorHistory() []Failure {
	return h.failures.all()
}

// Done returns a channel that is closed once no further events can be
// delivered: the watch loop has exited, or the run never started one.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Stop ends the watch loop without waiting for the host to reload.
func (h *Handle) Stop() {
	h.stopOnce.Do(func() { close(h.stop) })
}

// cancelled reports whether the host is reloading or Stop was called.
func (h *Handle) cancelled() bool {
	select {
	case <-h.reloading:
		return true
	case <-h.stop:
		return true
	default:
		return false
	}
}

// emitChange notifies change listeners unless the run was cancelled.
func (h *Handle) emitChange(ctx context.Context) {
	if h.cancelled() || ctx.Err() != nil {
		return
	}
	capitan.Emit(ctx, ChangeDetected)
	if h.metrics != nil {
		h.metrics.OnChangeDetected()
	}

	h.mu.RLock()
	listeners := append([]func(){}, h.onChange...)
	h.mu.RUnlock()
	for _, fn := range listeners {
		if h.cancelled() {
			return
		}
		fn()
	}
}

// emitError records a poll failure and notifies error listeners unless the
// run was cancelled.
func (h *Handle) emitError(ctx context.Context, err error) {
	if h.cancelled() || ctx.Err() != nil {
		return
	}
	e := err
	h.lastError.Store(&e)
	h.failures.push(Failure{Time: h.clock.Now(), Err: err})
	// While still loading, the lifecycle picks the error up when it settles.
	h.transition(ctx, StateHealthy, StateDegraded)
	capitan.Emit(ctx, WatchPollFailed,
		KeyError.Field(err.Error()),
	)

	h.mu.RLock()
	listeners := append([]func(error){}, h.onError...)
	h.mu.RUnlock()
	for _, fn := range listeners {
		if h.cancelled() {
			return
		}
		fn(err)
	}
}

// settle moves a successfully loaded run to healthy, or to degraded if a
// watch poll failed while the load was still running.
func (h *Handle) settle(ctx context.Context) {
	h.transition(ctx, StateLoading, StateHealthy)
	if h.LastError() != nil {
		h.transition(ctx, StateHealthy, StateDegraded)
	}
}

// recovered clears the last poll error after a successful poll.
func (h *Handle) recovered(ctx context.Context) {
	h.lastError.Store(nil)
	h.transition(ctx, StateDegraded, StateHealthy)
}

// transition moves the run from one state to another. It does nothing if
// the run is not currently in from.
func (h *Handle) transition(ctx context.Context, from, to State) bool {
	if from == to || !h.state.CompareAndSwap(int32(from), int32(to)) {
		return false
	}
	capitan.Emit(ctx, AdapterStateChanged,
		KeyOldState.Field(from.String()),
		KeyNewState.Field(to.String()),
	)
	if h.metrics != nil {
		h.metrics.OnStateChange(from, to)
	}
	return true
}

// since reports the elapsed time from start on the handle's clock.
func (h *Handle) since(start time.Time) time.Duration {
	return h.clock.Since(start)
}

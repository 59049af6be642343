package sluice

import (
	"context"
	"time"

	"github.com/zoobzio/capitan"
)

// watchLoop polls the watch query on a fixed interval and reports changes
// to its handle. The fingerprint is owned by the loop goroutine.
type watchLoop struct {
	session  session
	url      string
	query    string
	params   []any
	interval time.Duration
	last     Fingerprint
	handle   *Handle
}

// run polls until ctx is done, the host starts reloading, or the handle is
// stopped. It closes the handle's done channel on exit.
func (w *watchLoop) run(ctx context.Context) {
	h := w.handle
	ticker := h.clock.NewTicker(w.interval)
	defer func() {
		ticker.Stop()
		capitan.Emit(ctx, WatchStopped,
			KeyQuery.Field(w.query),
			KeyState.Field(h.State().String()),
		)
		close(h.done)
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-h.reloading:
			return
		case <-h.stop:
			return
		case <-ticker.C():
			if h.cancelled() {
				return
			}
			w.poll(ctx)
		}
	}
}

// poll runs one watch query and compares its result with the previous one.
// Results that arrive after cancellation are dropped.
func (w *watchLoop) poll(ctx context.Context) {
	h := w.handle
	start := h.clock.Now()

	rows, err := w.session.query(ctx, w.url, w.query, w.params)
	if h.metrics != nil {
		h.metrics.OnPoll(h.since(start), err)
	}
	if h.cancelled() || ctx.Err() != nil {
		return
	}
	if err != nil {
		h.emitError(ctx, err)
		return
	}
	h.recovered(ctx)

	next := fingerprintOf(rows)
	changed := !next.Equal(w.last)
	w.last = next
	if changed {
		h.emitChange(ctx)
	}
}

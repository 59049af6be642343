package sluice

import (
	"testing"

	"github.com/zoobzio/capitan"
)

func TestSignalNames(t *testing.T) {
	tests := []struct {
		signal capitan.Signal
		want   string
	}{
		{AdapterStarted, "sluice.adapter.started"},
		{AdapterCompleted, "sluice.adapter.completed"},
		{AdapterStateChanged, "sluice.adapter.state.changed"},
		{ValidationFailed, "sluice.validation.failed"},
		{BaselinePrimed, "sluice.baseline.primed"},
		{LoadSucceeded, "sluice.load.succeeded"},
		{LoadFailed, "sluice.load.failed"},
		{ChainFailed, "sluice.chain.failed"},
		{WatchStarted, "sluice.watch.started"},
		{WatchStopped, "sluice.watch.stopped"},
		{WatchPollFailed, "sluice.watch.poll.failed"},
		{ChangeDetected, "sluice.watch.change.detected"},
		{SessionCloseFailed, "sluice.session.close.failed"},
	}
	for _, tt := range tests {
		if tt.signal.Name() != tt.want {
			t.Errorf("expected name %q, got %q", tt.want, tt.signal.Name())
		}
	}
}

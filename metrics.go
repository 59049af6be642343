package sluice

import "time"

// MetricsProvider allows integration with metrics systems like Prometheus, StatsD, etc.
// Implement this interface to receive callbacks on key adapter events.
// See pkg/prometheus for a ready-made implementation.
type MetricsProvider interface {
	// OnStateChange is called when an adapter run transitions between states.
	OnStateChange(from, to State)

	// OnLoadSuccess is called when the lifecycle delivers a value.
	// Duration covers validation through post-processing.
	OnLoadSuccess(rows int, duration time.Duration)

	// OnLoadFailure is called when the lifecycle fails.
	// Stage indicates where: "validate", "prime", "load" or "process".
	OnLoadFailure(stage Stage, duration time.Duration)

	// OnPoll is called after every watch poll, successful or not.
	OnPoll(duration time.Duration, err error)

	// OnChangeDetected is called when a poll detects a remote change.
	OnChangeDetected()
}

// NoOpMetricsProvider is a no-op implementation of MetricsProvider.
// Use this as an embedded type to implement only the methods you need.
type NoOpMetricsProvider struct{}

func (NoOpMetricsProvider) OnStateChange(_, _ State)               {}
func (NoOpMetricsProvider) OnLoadSuccess(_ int, _ time.Duration)   {}
func (NoOpMetricsProvider) OnLoadFailure(_ Stage, _ time.Duration) {}
func (NoOpMetricsProvider) OnPoll(_ time.Duration, _ error)        {}
func (NoOpMetricsProvider) OnChangeDetected()                      {}

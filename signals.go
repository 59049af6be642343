package sluice

import "github.com/zoobzio/capitan"

// Lifecycle signals.
var (
	// AdapterStarted is emitted when an adapter lifecycle begins.
	AdapterStarted = capitan.NewSignal(
		"sluice.adapter.started",
		"Adapter lifecycle started",
	)

	// AdapterCompleted is emitted once the lifecycle outcome is delivered.
	AdapterCompleted = capitan.NewSignal(
		"sluice.adapter.completed",
		"Adapter lifecycle completed",
	)

	// AdapterStateChanged is emitted when an adapter transitions between states.
	AdapterStateChanged = capitan.NewSignal(
		"sluice.adapter.state.changed",
		"Adapter state transition",
	)

	// ValidationFailed is emitted when the adapter configuration is rejected.
	ValidationFailed = capitan.NewSignal(
		"sluice.validation.failed",
		"Configuration validation failed",
	)

	// BaselinePrimed is emitted when the initial watch fingerprint is stored.
	BaselinePrimed = capitan.NewSignal(
		"sluice.baseline.primed",
		"Watch baseline fingerprint primed",
	)

	// LoadSucceeded is emitted when the load query returns rows.
	LoadSucceeded = capitan.NewSignal(
		"sluice.load.succeeded",
		"Load query succeeded",
	)

	// LoadFailed is emitted when baseline priming or the load query fails.
	LoadFailed = capitan.NewSignal(
		"sluice.load.failed",
		"Load query failed",
	)

	// ChainFailed is emitted when a post-processing transform fails.
	ChainFailed = capitan.NewSignal(
		"sluice.chain.failed",
		"Post-processing transform failed",
	)
)

// Watch signals.
var (
	// WatchStarted is emitted when the watch loop begins polling.
	WatchStarted = capitan.NewSignal(
		"sluice.watch.started",
		"Watch loop started",
	)

	// WatchStopped is emitted when the watch loop exits.
	WatchStopped = capitan.NewSignal(
		"sluice.watch.stopped",
		"Watch loop stopped",
	)

	// WatchPollFailed is emitted when a watch poll cannot connect or query.
	WatchPollFailed = capitan.NewSignal(
		"sluice.watch.poll.failed",
		"Watch poll failed",
	)

	// ChangeDetected is emitted when a poll result differs from the previous one.
	ChangeDetected = capitan.NewSignal(
		"sluice.watch.change.detected",
		"Remote change detected",
	)

	// SessionCloseFailed is emitted when a connection fails to close cleanly.
	SessionCloseFailed = capitan.NewSignal(
		"sluice.session.close.failed",
		"Connection close failed",
	)
)

package sluice

import "github.com/zoobzio/capitan"

// Field keys for adapter events.
var (
	// KeyState is the current state of the adapter.
	KeyState = capitan.NewStringKey("state")

	// KeyOldState is the previous state before a transition.
	KeyOldState = capitan.NewStringKey("old_state")

	// KeyNewState is the new state after a transition.
	KeyNewState = capitan.NewStringKey("new_state")

	// KeyError is the error message when an operation fails.
	KeyError = capitan.NewStringKey("error")

	// KeyStage is the lifecycle stage an event belongs to.
	KeyStage = capitan.NewStringKey("stage")

	// KeyQuery is the SQL text being executed.
	KeyQuery = capitan.NewStringKey("query")

	// KeyInterval is the configured watch interval.
	KeyInterval = capitan.NewDurationKey("interval")

	// KeyDuration is the time an operation took.
	KeyDuration = capitan.NewDurationKey("duration")

	// KeyRows is the number of rows a query returned.
	KeyRows = capitan.NewIntKey("rows")
)

package sluice

import "sync"

// Host is the orchestrator an adapter runs under. The adapter subscribes to
// Reloading once per run and stops watching when it is closed.
type Host interface {
	// Reloading returns a channel that is closed when the host begins
	// reloading configuration.
	Reloading() <-chan struct{}
}

// Session is a one-shot Host. Create a new Session for every reload cycle.
type Session struct {
	once sync.Once
	ch   chan struct{}
}

// NewSession creates a Session that has not started reloading.
func NewSession() *Session {
	return &Session{ch: make(chan struct{})}
}

// Reloading implements Host.
func (s *Session) Reloading() <-chan struct{} {
	return s.ch
}

// Reload signals that reloading is starting. Only the first call has an
// effect.
func (s *Session) Reload() {
	s.once.Do(func() { close(s.ch) })
}

package sluice

import "testing"

func TestState_String(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{StateLoading, "loading"},
		{StateHealthy, "healthy"},
		{StateDegraded, "degraded"},
		{StateFailed, "failed"},
		{State(999), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("State(%d).String() = %q, want %q", tt.state, got, tt.want)
		}
	}
}

func TestState_Values(t *testing.T) {
	// Verify iota ordering
	if StateLoading != 0 {
		t.Errorf("expected StateLoading=0, got %d", StateLoading)
	}
	if StateHealthy != 1 {
		t.Errorf("expected StateHealthy=1, got %d", StateHealthy)
	}
	if StateDegraded != 2 {
		t.Errorf("expected StateDegraded=2, got %d", StateDegraded)
	}
	if StateFailed != 3 {
		t.Errorf("expected StateFailed=3, got %d", StateFailed)
	}
}

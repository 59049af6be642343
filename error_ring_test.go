package sluice

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestFailureRing_NilSafe(t *testing.T) {
	var r *failureRing

	// All operations should be safe on nil
	r.push(Failure{Err: errors.New("test")})

	if r.all() != nil {
		t.Error("expected nil from nil ring")
	}
}

func TestFailureRing_DisabledForNonPositiveSize(t *testing.T) {
	if newFailureRing(0) != nil {
		t.Error("expected nil ring for size 0")
	}
	if newFailureRing(-1) != nil {
		t.Error("expected nil ring for negative size")
	}
}

func TestFailureRing_KeepsNewestOldestFirst(t *testing.T) {
	r := newFailureRing(3)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	for i := 1; i <= 5; i++ {
		r.push(Failure{
			Time: base.Add(time.Duration(i) * time.Second),
			Err:  fmt.Errorf("error%d", i),
		})
	}

	got := r.all()
	if len(got) != 3 {
		t.Fatalf("expected 3 failures, got %d", len(got))
	}
	for i, want := range []string{"error3", "error4", "error5"} {
		if got[i].Err.Error() != want {
			t.Errorf("failure[%d] = %q, want %q", i, got[i].Err, want)
		}
	}
	if !got[0].Time.Before(got[2].Time) {
		t.Error("expected failures ordered by time")
	}
}

func TestFailureRing_ReturnsCopy(t *testing.T) {
	r := newFailureRing(2)
	r.push(Failure{Err: errors.New("first")})

	got := r.all()
	got[0].Err = errors.New("mutated")

	if r.all()[0].Err.Error() != "first" {
		t.Error("expected all() to return a copy")
	}
}

package resilience

import (
	"errors"
	"testing"
	"time"
)

var errDial = errors.New("dial failed")

func TestBreakerTripsAfterThreshold(t *testing.T) {
	b := New("relay", Settings{FailureThreshold: 3, Cooldown: time.Minute})

	for i := 0; i < 3; i++ {
		if err := b.Execute(func() error { return errDial }); !errors.Is(err, errDial) {
			t.Fatalf("call %d: expected dial error, got %v", i, err)
		}
	}

	if b.State() != StateOpen {
		t.Fatalf("expected open after threshold, got %s", b.State())
	}

	if err := b.Execute(func() error { return nil }); !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("expected ErrCircuitOpen while open, got %v", err)
	}
}

func TestBreakerRecoversAfterCooldown(t *testing.T) {
	b := New("relay", Settings{FailureThreshold: 1, Cooldown: 10 * time.Millisecond})

	b.Execute(func() error { return errDial })
	if b.State() != StateOpen {
		t.Fatal("expected open")
	}

	time.Sleep(20 * time.Millisecond)
	if b.State() != StateHalfOpen {
		t.Fatalf("expected half-open after cooldown, got %s", b.State())
	}

	if err := b.Execute(func() error { return nil }); err != nil {
		t.Fatalf("probe call failed: %v", err)
	}
	if b.State() != StateClosed {
		t.Errorf("expected closed after successful probe, got %s", b.State())
	}
}

func TestBreakerReopensOnHalfOpenFailure(t *testing.T) {
	b := New("relay", Settings{FailureThreshold: 1, Cooldown: 10 * time.Millisecond})

	b.Execute(func() error { return errDial })
	time.Sleep(20 * time.Millisecond)

	b.Execute(func() error { return errDial })
	if b.State() != StateOpen {
		t.Errorf("expected open after half-open failure, got %s", b.State())
	}
}

func TestBreakerStateChangeCallback(t *testing.T) {
	var transitions []string
	b := New("relay", Settings{
		FailureThreshold: 1,
		Cooldown:         time.Minute,
		OnStateChange: func(name string, from, to State) {
			transitions = append(transitions, from.String()+"->"+to.String())
		},
	})

	b.Execute(func() error { return errDial })

	if len(transitions) != 1 || transitions[0] != "closed->open" {
		t.Errorf("unexpected transitions: %v", transitions)
	}
}

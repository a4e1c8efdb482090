package retry

import (
	"errors"
	"strings"
	"sync"
	"testing"
)

var errLost = errors.New("echo lost")

func TestCircuitBreaker_Runs(t *testing.T) {
	tests := []struct {
		name         string
		max          int
		results      []error // nil = success
		wantOpen     bool
		wantFailures int
	}{
		{"all answered", 3, []error{nil, nil, nil}, false, 0},
		{"short run", 3, []error{errLost, errLost}, false, 2},
		{"run reaches max", 3, []error{errLost, errLost, errLost}, true, 3},
		{"success breaks the run", 3, []error{errLost, errLost, nil, errLost, errLost}, false, 2},
		{"alternating never trips", 2, []error{errLost, nil, errLost, nil, errLost, nil}, false, 0},
		{"single loss trips max 1", 1, []error{nil, errLost}, true, 1},
		{"zero clamps to one", 0, []error{errLost}, true, 1},
		{"results after opening ignored", 2, []error{errLost, errLost, nil, nil}, true, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cb := NewCircuitBreaker(tt.max)
			for _, err := range tt.results {
				cb.Record(err)
			}
			if cb.Open() != tt.wantOpen {
				t.Errorf("Open() = %v, want %v", cb.Open(), tt.wantOpen)
			}
			if cb.Failures() != tt.wantFailures {
				t.Errorf("Failures() = %d, want %d", cb.Failures(), tt.wantFailures)
			}
			if err := cb.Allow(); (err != nil) != tt.wantOpen {
				t.Errorf("Allow() = %v, open = %v", err, tt.wantOpen)
			}
		})
	}
}

func TestCircuitBreaker_AllowError(t *testing.T) {
	cb := NewCircuitBreaker(2)
	cb.Record(errLost)
	cb.Record(errors.New("read: no route to host"))

	err := cb.Allow()
	if !errors.Is(err, ErrOpen) {
		t.Fatalf("Allow() = %v, want ErrOpen", err)
	}
	for _, want := range []string{"2 consecutive failures", "no route to host"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q should mention %q", err, want)
		}
	}
}

func TestCircuitBreaker_Reset(t *testing.T) {
	cb := NewCircuitBreaker(1)
	cb.Record(errLost)
	if !cb.Open() {
		t.Fatal("breaker should be open")
	}

	cb.Reset()
	if cb.Open() || cb.Failures() != 0 || cb.Allow() != nil {
		t.Errorf("after Reset: open=%v failures=%d", cb.Open(), cb.Failures())
	}
	cb.Record(errLost)
	if !cb.Open() {
		t.Error("breaker should trip again after Reset")
	}
}

func TestCircuitBreaker_Concurrent(t *testing.T) {
	cb := NewCircuitBreaker(1000)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				cb.Allow() //nolint:errcheck
				cb.Record(errLost)
			}
		}()
	}
	wg.Wait()

	if cb.Failures() != 800 || cb.Open() {
		t.Errorf("failures=%d open=%v, want 800 and closed", cb.Failures(), cb.Open())
	}
}

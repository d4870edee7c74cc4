package exam

import (
	"testing"
	"time"
)

func TestCountdownWarningsFireOnce(t *testing.T) {
	cd := NewCountdown(602*time.Second, 600, 300)

	var warnings []int
	for i := 0; i < 602; i++ {
		tick := cd.Tick()
		warnings = append(warnings, tick.Warnings...)
	}

	if len(warnings) != 2 {
		t.Fatalf("Expected exactly 2 warnings, got %d: %v", len(warnings), warnings)
	}
	if warnings[0] != 600 || warnings[1] != 300 {
		t.Errorf("Expected warnings [600 300], got %v", warnings)
	}
}

func TestCountdownExpiresExactlyOnce(t *testing.T) {
	cd := NewCountdown(3*time.Second, 600, 300)

	expirations := 0
	for i := 0; i < 10; i++ {
		tick := cd.Tick()
		if tick.Expired {
			expirations++
		}
		if tick.Remaining < 0 {
			t.Fatalf("Remaining went negative: %d", tick.Remaining)
		}
	}

	if expirations != 1 {
		t.Errorf("Expected exactly 1 expiration, got %d", expirations)
	}
	if cd.Remaining() != 0 {
		t.Errorf("Expected remaining 0 after expiry, got %d", cd.Remaining())
	}
	if !cd.Expired() {
		t.Error("Expected countdown to report expired")
	}
}

// A 75-minute exam expires on the 4500th tick, not before.
func TestCountdownFullExamLength(t *testing.T) {
	cd := NewCountdown(75*time.Minute, 600, 300)

	for i := 0; i < 4499; i++ {
		if tick := cd.Tick(); tick.Expired {
			t.Fatalf("Expired early at tick %d", i+1)
		}
	}
	if tick := cd.Tick(); !tick.Expired {
		t.Fatal("Expected expiry on tick 4500")
	}
}

func TestCountdownShortLimitSkipsStaleWarnings(t *testing.T) {
	// A 4-minute limit starts below both marks; each still fires once, on
	// the first tick, rather than repeating.
	cd := NewCountdown(4*time.Minute, 600, 300)

	first := cd.Tick()
	if len(first.Warnings) != 2 {
		t.Fatalf("Expected both marks on first tick, got %v", first.Warnings)
	}
	for i := 0; i < 5; i++ {
		if tick := cd.Tick(); len(tick.Warnings) != 0 {
			t.Fatalf("Warning repeated: %v", tick.Warnings)
		}
	}
}

func TestRegistryCountdownLifecycle(t *testing.T) {
	r := NewRegistry()

	r.StartCountdown("s1", 10*time.Minute, []int{600, 300}, Hooks{})
	if remaining, ok := r.Remaining("s1"); !ok || remaining != 600 {
		t.Errorf("Expected 600 seconds remaining, got %d (ok=%v)", remaining, ok)
	}

	r.Stop("s1")
	if _, ok := r.Remaining("s1"); ok {
		t.Error("Expected no timer after Stop")
	}

	// Stopping twice is harmless.
	r.Stop("s1")
}

func TestRegistryExpiryHook(t *testing.T) {
	r := NewRegistry()

	expired := make(chan string, 1)
	r.StartCountdown("s2", 1*time.Second, nil, Hooks{
		OnExpired: func(id string) { expired <- id },
	})

	select {
	case id := <-expired:
		if id != "s2" {
			t.Errorf("Expected expiry for s2, got %s", id)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("Timed out waiting for expiry hook")
	}

	if _, ok := r.Remaining("s2"); ok {
		t.Error("Expected timer to be removed after expiry")
	}
}

func TestRegistryLockSerializes(t *testing.T) {
	r := NewRegistry()

	unlock := r.Lock("s3")
	acquired := make(chan struct{})
	go func() {
		u := r.Lock("s3")
		close(acquired)
		u()
	}()

	select {
	case <-acquired:
		t.Fatal("Second lock acquired while first held")
	case <-time.After(50 * time.Millisecond):
	}

	unlock()
	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("Second lock never acquired after release")
	}
}

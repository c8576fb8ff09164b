// internal/status/tracker_test.go
package status

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/tamzrod/clivet-modbus/internal/poller"
)

func TestTracker_StartsUnknownAndDoesNotTick(t *testing.T) {
	tr := NewTracker()

	if tr.Snapshot().Health != HealthUnknown {
		t.Fatalf("expected unknown on start")
	}
	if tr.Tick() {
		t.Fatalf("unknown state must not accumulate error seconds")
	}
}

func TestTracker_ErrorThenRecovery(t *testing.T) {
	tr := NewTracker()
	now := time.Unix(1700000000, 0)

	failure := fmt.Errorf("cycle: %w", poller.ErrCommunication)

	if !tr.Observe(failure, now) {
		t.Fatalf("first error must change the snapshot")
	}
	if s := tr.Snapshot(); s.Health != HealthError || s.LastErrorCode != poller.CodeCommunication {
		t.Fatalf("snapshot: %+v", s)
	}

	// same failure again: no change until the ticker runs
	if tr.Observe(failure, now) {
		t.Fatalf("repeated identical failure must not change the snapshot")
	}

	for i := 0; i < 3; i++ {
		if !tr.Tick() {
			t.Fatalf("tick %d must change the snapshot", i)
		}
	}
	if tr.Snapshot().SecondsInError != 3 {
		t.Fatalf("seconds_in_error=%d", tr.Snapshot().SecondsInError)
	}

	if !tr.Observe(nil, now.Add(time.Minute)) {
		t.Fatalf("recovery must change the snapshot")
	}
	s := tr.Snapshot()
	if s.Health != HealthOK || s.LastErrorCode != 0 || s.SecondsInError != 0 {
		t.Fatalf("not reset on recovery: %+v", s)
	}
	if !s.LastSuccess.Equal(now.Add(time.Minute)) {
		t.Fatalf("last success: %v", s.LastSuccess)
	}

	if tr.Observe(nil, now.Add(2*time.Minute)) {
		t.Fatalf("steady OK must not report a change")
	}
	if tr.Tick() {
		t.Fatalf("OK must not tick")
	}
}

func TestTracker_OfflineIsDistinct(t *testing.T) {
	tr := NewTracker()

	tr.Observe(fmt.Errorf("poll: %w", poller.ErrOffline), time.Now())
	if s := tr.Snapshot(); s.Health != HealthOffline || s.LastErrorCode != poller.CodeOffline {
		t.Fatalf("snapshot: %+v", s)
	}

	if !tr.Observe(errors.New("unclassified"), time.Now()) {
		t.Fatalf("kind change must be reported")
	}
	if s := tr.Snapshot(); s.Health != HealthError || s.LastErrorCode != poller.CodeGeneric {
		t.Fatalf("snapshot: %+v", s)
	}
}

func TestTracker_SecondsSaturate(t *testing.T) {
	tr := NewTracker()
	tr.Observe(poller.ErrCommunication, time.Now())
	tr.snap.SecondsInError = MaxSecondsInError - 1

	if !tr.Tick() {
		t.Fatalf("last increment must apply")
	}
	if tr.Tick() {
		t.Fatalf("must not wrap past %d", MaxSecondsInError)
	}
	if tr.Snapshot().SecondsInError != MaxSecondsInError {
		t.Fatalf("seconds_in_error=%d", tr.Snapshot().SecondsInError)
	}
}

func TestHealthName(t *testing.T) {
	if HealthName(HealthOffline) != "offline" || HealthName(99) != "unknown" {
		t.Fatalf("unexpected names")
	}
}

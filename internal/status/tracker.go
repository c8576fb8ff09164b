// internal/status/tracker.go
package status

import (
	"errors"
	"time"

	"github.com/tamzrod/clivet-modbus/internal/poller"
)

// Tracker folds cycle outcomes into a Snapshot. It is owned by a single
// goroutine (the orchestrator) and is not safe for concurrent use.
type Tracker struct {
	snap Snapshot
}

// NewTracker starts in HealthUnknown.
func NewTracker() *Tracker {
	return &Tracker{snap: Snapshot{Health: HealthUnknown}}
}

// Snapshot returns the current state.
func (t *Tracker) Snapshot() Snapshot { return t.snap }

// Observe records one cycle outcome and reports whether the snapshot changed.
// Success resets the error code and the error duration. Failure sets the
// health and code only; SecondsInError advances on Tick.
func (t *Tracker) Observe(err error, at time.Time) bool {
	prev := t.snap

	if err == nil {
		t.snap.Health = HealthOK
		t.snap.LastErrorCode = 0
		t.snap.SecondsInError = 0
		t.snap.LastSuccess = at
		// LastSuccess alone does not count as a change
		return prev.Health != t.snap.Health ||
			prev.LastErrorCode != 0 ||
			prev.SecondsInError != 0
	}

	if errors.Is(err, poller.ErrOffline) {
		t.snap.Health = HealthOffline
	} else {
		t.snap.Health = HealthError
	}
	t.snap.LastErrorCode = poller.ErrorCode(err)

	return prev.Health != t.snap.Health || prev.LastErrorCode != t.snap.LastErrorCode
}

// Tick is called once per second. It advances SecondsInError while the
// device is not OK and reports whether the snapshot changed.
func (t *Tracker) Tick() bool {
	if t.snap.Health == HealthOK || t.snap.Health == HealthUnknown {
		return false
	}
	if t.snap.SecondsInError >= MaxSecondsInError {
		return false
	}
	t.snap.SecondsInError++
	return true
}

// internal/status/snapshot.go
package status

import "time"

// Snapshot represents exactly what the publisher is allowed to deliver.
// It contains no logic and no memory of the past beyond current state.
type Snapshot struct {
	Health         uint16
	LastErrorCode  uint16
	SecondsInError uint16

	// LastSuccess is zero until the first successful cycle.
	LastSuccess time.Time
}

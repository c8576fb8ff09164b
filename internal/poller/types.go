// internal/poller/types.go
package poller

import (
	"time"

	"github.com/tamzrod/clivet-modbus/internal/registers"
)

// UpdateKind tells observers what completed.
type UpdateKind uint8

const (
	UpdateCycle UpdateKind = iota + 1
	UpdateAddress
)

func (k UpdateKind) String() string {
	switch k {
	case UpdateCycle:
		return "cycle"
	case UpdateAddress:
		return "address"
	default:
		return "unknown"
	}
}

// Update is delivered to observers once per completed refresh cycle
// and once per completed single-address refresh.
type Update struct {
	Kind    UpdateKind
	Address registers.Address // UpdateAddress only
	At      time.Time

	// Err is non-nil when the cycle aborted. Cache values are then stale
	// but still the last known.
	Err error
}

// request is one job for the worker goroutine.
type request struct {
	fn    func() error
	reply chan error
}

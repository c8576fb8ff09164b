// internal/status/constants.go
package status

// ---- HEALTH CODES ----

// HealthUnknown represents the boot state, before the first cycle completes.
const HealthUnknown uint16 = 0

// HealthOK represents a device whose last cycle succeeded.
const HealthOK uint16 = 1

// HealthError represents a communication failure on an established link.
const HealthError uint16 = 2

// HealthOffline represents a device that could not be connected.
const HealthOffline uint16 = 3

// ---- LIMITS ----

// MaxSecondsInError is where SecondsInError saturates. It never wraps.
const MaxSecondsInError uint16 = 65535

// HealthName returns the label used on the status topic.
func HealthName(h uint16) string {
	switch h {
	case HealthOK:
		return "ok"
	case HealthError:
		return "error"
	case HealthOffline:
		return "offline"
	default:
		return "unknown"
	}
}

// internal/codec/status.go
package codec

// Status is one entry of a status map: a code, its label and an optional
// classification tag (for example "problem" or "running").
type Status struct {
	Code  uint16
	Label string
	Class string
}

// StatusMap is an ordered code -> label mapping.
type StatusMap []Status

// Lookup returns the first entry for code.
func (m StatusMap) Lookup(code uint16) (Status, bool) {
	for _, s := range m {
		if s.Code == code {
			return s, true
		}
	}
	return Status{}, false
}

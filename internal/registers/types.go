// internal/registers/types.go
package registers

// Address identifies one word in the device's holding-register space.
// Addresses are not validated against a schema.
type Address uint16

// Range describes one batched read: Count consecutive registers from Start.
// Geometry only: no semantics.
type Range struct {
	Start Address
	Count uint16
}

// End returns the last address covered by the range (inclusive).
func (r Range) End() Address {
	if r.Count == 0 {
		return r.Start
	}
	return r.Start + Address(r.Count-1)
}

// Value is a raw register word as last seen by the cache.
// The zero value is Unknown: never read, or never read successfully.
type Value struct {
	Word  uint16
	Known bool
}

// Unknown is the absence state.
var Unknown = Value{}

// Known wraps a word read from the device.
func Known(w uint16) Value {
	return Value{Word: w, Known: true}
}

// Getter is anything that can answer "what is the last known value at addr".
type Getter interface {
	Get(addr Address) Value
}

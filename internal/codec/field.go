// internal/codec/field.go
package codec

import (
	"errors"
	"fmt"

	"github.com/tamzrod/clivet-modbus/internal/registers"
)

// Kind tags a Field variant.
type Kind uint8

const (
	KindNumeric Kind = iota + 1
	KindBoolean
	KindBooleanSplit
	KindStatus
)

func (k Kind) String() string {
	switch k {
	case KindNumeric:
		return "numeric"
	case KindBoolean:
		return "boolean"
	case KindBooleanSplit:
		return "boolean_split"
	case KindStatus:
		return "status"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// ParseKind is the inverse of Kind.String.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "numeric":
		return KindNumeric, nil
	case "boolean":
		return KindBoolean, nil
	case "boolean_split":
		return KindBooleanSplit, nil
	case "status":
		return KindStatus, nil
	default:
		return 0, fmt.Errorf("codec: unknown field kind %q", s)
	}
}

var (
	// ErrNotWritable is returned when encoding a read-only field.
	ErrNotWritable = errors.New("codec: field is not writable")

	// ErrWrongKind is returned when an encoder does not apply to the field variant.
	ErrWrongKind = errors.New("codec: operation does not apply to this field kind")
)

// Field describes how one register (optionally one bit of it) maps onto
// a typed value. Only the parameters of its Kind are meaningful.
type Field struct {
	Name    string
	Device  string
	Kind    Kind
	Address registers.Address

	// Bit is NoBit for whole-word fields.
	Bit int

	// numeric
	Scale  float64
	Signed bool
	Unit   string
	Min    float64
	Max    float64

	// boolean, boolean_split
	Invert   bool
	BitValue bool

	// status
	States StatusMap

	// Class is an optional presentation hint (device class).
	Class    string
	Writable bool
}

// Reading is one decoded field.
type Reading struct {
	Field   string
	Device  string
	Kind    Kind
	Address registers.Address
	Known   bool

	Number float64
	Bool   bool
	Status Status
}

// Value returns the reading in its natural Go type, or nil when unknown.
func (r Reading) Value() any {
	if !r.Known {
		return nil
	}
	switch r.Kind {
	case KindNumeric:
		return r.Number
	case KindBoolean, KindBooleanSplit:
		return r.Bool
	case KindStatus:
		return r.Status.Label
	default:
		return nil
	}
}

// Decode dispatches on the field kind.
func (f Field) Decode(v registers.Value) Reading {
	r := Reading{
		Field:   f.Name,
		Device:  f.Device,
		Kind:    f.Kind,
		Address: f.Address,
	}

	switch f.Kind {
	case KindNumeric:
		r.Number, r.Known = DecodeNumeric(v, f.scale(), f.Signed)
	case KindBoolean:
		r.Bool, r.Known = DecodeBool(v, f.Bit, f.Invert)
	case KindBooleanSplit:
		r.Bool, r.Known = DecodeBoolAtValue(v, f.Bit, f.Invert, f.BitValue)
	case KindStatus:
		r.Status, r.Known = DecodeStatus(v, f.Bit, f.States)
	}
	return r
}

// EncodeNumber converts x into the raw word for a writable numeric field.
func (f Field) EncodeNumber(x float64) (uint16, error) {
	if f.Kind != KindNumeric {
		return 0, ErrWrongKind
	}
	if !f.Writable {
		return 0, ErrNotWritable
	}
	if f.Min != f.Max && (x < f.Min || x > f.Max) {
		return 0, fmt.Errorf("codec: %s: %v outside [%v, %v]: %w", f.Name, x, f.Min, f.Max, ErrOutOfRange)
	}
	return EncodeNumeric(x, f.scale(), f.Signed)
}

// BitFor returns the bit and the value to store so the field reads as on.
// Inverted fields store the opposite value.
func (f Field) BitFor(on bool) (uint, bool, error) {
	if f.Kind != KindBoolean {
		return 0, false, ErrWrongKind
	}
	if !f.Writable {
		return 0, false, ErrNotWritable
	}
	if f.Bit == NoBit {
		return 0, false, fmt.Errorf("codec: %s: whole-word boolean has no bit: %w", f.Name, ErrWrongKind)
	}
	return uint(f.Bit), on != f.Invert, nil
}

func (f Field) scale() float64 {
	if f.Scale == 0 {
		return 1
	}
	return f.Scale
}

// DecodeAll decodes every field against src.
func DecodeAll(fields []Field, src registers.Getter) []Reading {
	out := make([]Reading, 0, len(fields))
	for _, f := range fields {
		out = append(out, f.Decode(src.Get(f.Address)))
	}
	return out
}

// Find returns the field with the given name.
func Find(fields []Field, name string) (Field, bool) {
	for _, f := range fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

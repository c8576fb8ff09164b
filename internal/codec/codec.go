// internal/codec/codec.go
package codec

import (
	"errors"
	"math"

	"github.com/tamzrod/clivet-modbus/internal/registers"
)

// Sentinel is the raw word the device reports for "not available".
const Sentinel uint16 = 0x7FFE

// NoBit selects whole-word semantics in the bool/status decoders.
const NoBit = -1

var (
	// ErrOutOfRange means the encoded integer does not fit one 16-bit register.
	ErrOutOfRange = errors.New("codec: value out of 16-bit range")

	// ErrInvalidScale means a non-positive scale factor was supplied.
	ErrInvalidScale = errors.New("codec: scale must be > 0")
)

// DecodeNumeric converts a raw word into a physical value.
// ok is false for unknown words and for the sentinel.
func DecodeNumeric(v registers.Value, scale float64, signed bool) (float64, bool) {
	if !v.Known || v.Word == Sentinel {
		return 0, false
	}

	n := int32(v.Word)
	if signed && v.Word >= 0x8000 {
		n -= 0x10000
	}

	// Unscaled channels pass through as exact integers.
	if scale == 1 {
		return float64(n), true
	}
	return float64(n) * scale, true
}

// EncodeNumeric converts a physical value into a raw word: round(x/scale),
// two's complement for negative signed values.
// Results outside the representable range are rejected, never wrapped.
func EncodeNumeric(x, scale float64, signed bool) (uint16, error) {
	if scale <= 0 || math.IsNaN(scale) {
		return 0, ErrInvalidScale
	}
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return 0, ErrOutOfRange
	}

	n := math.Round(x / scale)

	if signed {
		if n < math.MinInt16 || n > math.MaxInt16 {
			return 0, ErrOutOfRange
		}
		i := int32(n)
		if i < 0 {
			i += 0x10000
		}
		return uint16(i), nil
	}

	if n < 0 || n > math.MaxUint16 {
		return 0, ErrOutOfRange
	}
	return uint16(n), nil
}

// DecodeBool tests one bit (or the whole word when bit is NoBit) and XORs invert.
func DecodeBool(v registers.Value, bit int, invert bool) (bool, bool) {
	if !v.Known {
		return false, false
	}

	var on bool
	if bit == NoBit {
		on = v.Word != 0
	} else {
		on = v.Word&(1<<uint(bit)) != 0
	}
	return on != invert, true
}

// DecodeBoolAtValue is DecodeBool compared against an expected bit value.
// It splits one status bit into two mutually exclusive facets.
func DecodeBoolAtValue(v registers.Value, bit int, invert, expected bool) (bool, bool) {
	b, ok := DecodeBool(v, bit, invert)
	if !ok {
		return false, false
	}
	return b == expected, true
}

// DecodeStatus looks the code up in states. The code is the value of bit
// (0 or 1) when a bit is given, the whole word otherwise.
// Codes missing from the map decode to unknown; that is not an error.
func DecodeStatus(v registers.Value, bit int, states StatusMap) (Status, bool) {
	if !v.Known {
		return Status{}, false
	}

	code := v.Word
	if bit != NoBit {
		code = (v.Word >> uint(bit)) & 1
	}
	return states.Lookup(code)
}

// SetBit returns word with bit set or cleared. Other bits are untouched.
func SetBit(word uint16, bit uint, value bool) uint16 {
	if value {
		return word | (1 << bit)
	}
	return word &^ (1 << bit)
}

// SetBits applies every bit assignment to word.
func SetBits(word uint16, bits map[uint]bool) uint16 {
	for bit, value := range bits {
		word = SetBit(word, bit, value)
	}
	return word
}

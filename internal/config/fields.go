// internal/config/fields.go
package config

import (
	"errors"
	"fmt"
	"sort"

	"github.com/tamzrod/clivet-modbus/internal/codec"
	"github.com/tamzrod/clivet-modbus/internal/registers"
)

// Field converts a custom field declaration into a descriptor.
func (fc FieldConfig) Field() (codec.Field, error) {
	if fc.Name == "" {
		return codec.Field{}, errors.New("name required")
	}

	kind, err := codec.ParseKind(fc.Kind)
	if err != nil {
		return codec.Field{}, err
	}

	bit := codec.NoBit
	if fc.Bit != nil {
		if *fc.Bit < 0 || *fc.Bit > 15 {
			return codec.Field{}, fmt.Errorf("%s: bit %d out of range 0..15", fc.Name, *fc.Bit)
		}
		bit = *fc.Bit
	}

	f := codec.Field{
		Name:     fc.Name,
		Device:   fc.Device,
		Kind:     kind,
		Address:  registers.Address(fc.Address),
		Bit:      bit,
		Scale:    fc.Scale,
		Signed:   fc.Signed,
		Unit:     fc.Unit,
		Min:      fc.Min,
		Max:      fc.Max,
		Invert:   fc.Invert,
		BitValue: fc.BitValue,
		Class:    fc.Class,
		Writable: fc.Writable,
	}

	switch kind {
	case codec.KindNumeric:
		if fc.Scale < 0 {
			return codec.Field{}, fmt.Errorf("%s: scale must be > 0", fc.Name)
		}
		if fc.Min > fc.Max {
			return codec.Field{}, fmt.Errorf("%s: min > max", fc.Name)
		}
	case codec.KindBooleanSplit:
		if bit == codec.NoBit {
			return codec.Field{}, fmt.Errorf("%s: boolean_split needs a bit", fc.Name)
		}
	case codec.KindStatus:
		if len(fc.States) == 0 {
			return codec.Field{}, fmt.Errorf("%s: status field needs states", fc.Name)
		}
		codes := make([]int, 0, len(fc.States))
		for code := range fc.States {
			codes = append(codes, int(code))
		}
		sort.Ints(codes)
		for _, code := range codes {
			f.States = append(f.States, codec.Status{Code: uint16(code), Label: fc.States[uint16(code)]})
		}
	}

	if fc.Writable && kind != codec.KindNumeric && !(kind == codec.KindBoolean && bit != codec.NoBit) {
		return codec.Field{}, fmt.Errorf("%s: only numeric and single-bit boolean fields can be writable", fc.Name)
	}

	return f, nil
}

// CustomFields converts every custom declaration. Call after Validate.
func CustomFields(cfg *Config) []codec.Field {
	out := make([]codec.Field, 0, len(cfg.Fields))
	for _, fc := range cfg.Fields {
		f, err := fc.Field()
		if err != nil {
			continue
		}
		out = append(out, f)
	}
	return out
}

// Ranges returns the configured read plan in order.
func Ranges(cfg *Config) []registers.Range {
	out := make([]registers.Range, 0, len(cfg.Reads))
	for _, r := range cfg.Reads {
		out = append(out, registers.Range{Start: registers.Address(r.Address), Count: r.Count})
	}
	return out
}

// internal/config/validate.go
package config

import (
	"fmt"
	"strings"

	"github.com/tamzrod/clivet-modbus/internal/heatpump"
)

// maxReadCount is the Modbus limit for one holding-register read.
const maxReadCount = 125

// Validate checks configuration correctness.
// It performs declarative validation only; zero values mean "use the default".
// It MUST NOT mutate configuration.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config: nil config")
	}

	if err := validateConnection(cfg.Device); err != nil {
		return err
	}

	if cfg.Poll.IntervalMs < 0 {
		return fmt.Errorf("config: poll.interval_ms must be > 0")
	}

	// ------------------------------------------------------------
	// READ GEOMETRY
	// ------------------------------------------------------------

	for i, r := range cfg.Reads {
		if err := checkRead(r); err != nil {
			return fmt.Errorf("config: reads[%d]: %w", i, err)
		}
	}

	// ------------------------------------------------------------
	// CUSTOM FIELDS
	// ------------------------------------------------------------

	names := make(map[string]bool)
	for _, f := range heatpump.Catalogue() {
		names[f.Name] = true
	}
	for _, n := range heatpump.ReservedNames() {
		names[n] = true
	}

	for i, fc := range cfg.Fields {
		if _, err := fc.Field(); err != nil {
			return fmt.Errorf("config: fields[%d]: %w", i, err)
		}
		if names[fc.Name] {
			return fmt.Errorf("config: fields[%d]: duplicate field name %q", i, fc.Name)
		}
		names[fc.Name] = true
	}

	return nil
}

// ValidateRead checks one read range on its own, for callers that build
// ranges outside a config document.
func ValidateRead(r ReadConfig) error {
	if err := checkRead(r); err != nil {
		return fmt.Errorf("config: read %d+%d: %w", r.Address, r.Count, err)
	}
	return nil
}

func checkRead(r ReadConfig) error {
	if r.Count == 0 || r.Count > maxReadCount {
		return fmt.Errorf("count must be 1..%d", maxReadCount)
	}
	if uint32(r.Address)+uint32(r.Count)-1 > 0xFFFF {
		return fmt.Errorf("range overflows the address space")
	}
	return nil
}

func validateConnection(c Connection) error {
	switch strings.ToLower(c.Protocol) {
	case "", "tcp", "udp":
	default:
		return fmt.Errorf("config: device.protocol %q: must be tcp or udp", c.Protocol)
	}

	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("config: device.port %d out of range", c.Port)
	}

	switch c.Baudrate {
	case 0, 4800, 9600, 19200:
	default:
		return fmt.Errorf("config: device.baudrate %d: must be 4800, 9600 or 19200", c.Baudrate)
	}

	switch strings.ToUpper(c.Parity) {
	case "", "N", "E", "O":
	default:
		return fmt.Errorf("config: device.parity %q: must be N, E or O", c.Parity)
	}

	if c.TimeoutMs < 0 {
		return fmt.Errorf("config: device.timeout_ms must be > 0")
	}

	// device name ends up in topic paths and metric labels
	for i := 0; i < len(c.Name); i++ {
		if c.Name[i] > 0x7F {
			return fmt.Errorf("config: device.name must contain ASCII characters only")
		}
	}

	return nil
}

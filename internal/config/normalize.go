// internal/config/normalize.go
package config

import (
	"strings"
	"time"

	"github.com/tamzrod/clivet-modbus/internal/heatpump"
)

// Defaults.
const (
	DefaultPort        = 502
	DefaultDeviceID    = 2
	DefaultBaudrate    = 9600
	DefaultParity      = "N"
	DefaultTimeoutMs   = 10_000
	DefaultIntervalMs  = 10_000
	DefaultTopicPrefix = "clivet"
	DefaultClientID    = "clivet-modbus"
)

// Normalize applies post-validation normalization.
// It is allowed to mutate configuration.
// It MUST be called only after Validate().
func Normalize(cfg *Config) {
	if cfg == nil {
		return
	}

	NormalizeConnection(&cfg.Device)

	if cfg.Poll.IntervalMs == 0 {
		cfg.Poll.IntervalMs = DefaultIntervalMs
	}

	// ------------------------------------------------------------
	// READ PLAN
	// ------------------------------------------------------------

	if len(cfg.Reads) == 0 {
		for _, r := range heatpump.DefaultRanges {
			cfg.Reads = append(cfg.Reads, ReadConfig{Address: uint16(r.Start), Count: r.Count})
		}
	}

	if cfg.MQTT.Broker != "" {
		if cfg.MQTT.TopicPrefix == "" {
			cfg.MQTT.TopicPrefix = DefaultTopicPrefix
		}
		cfg.MQTT.TopicPrefix = strings.TrimSuffix(cfg.MQTT.TopicPrefix, "/")
		if cfg.MQTT.ClientID == "" {
			cfg.MQTT.ClientID = DefaultClientID
		}
	}
}

// NormalizeConnection fills connection defaults. Serial defaults apply
// only when a serial port is named.
func NormalizeConnection(c *Connection) {
	c.Protocol = strings.ToLower(c.Protocol)
	c.Parity = strings.ToUpper(c.Parity)

	if c.Host != "" {
		if c.Protocol == "" {
			c.Protocol = "tcp"
		}
		if c.Port == 0 {
			c.Port = DefaultPort
		}
	}

	if c.SerialPort != "" {
		if c.Baudrate == 0 {
			c.Baudrate = DefaultBaudrate
		}
		if c.Parity == "" {
			c.Parity = DefaultParity
		}
	}

	if c.DeviceID == 0 {
		c.DeviceID = DefaultDeviceID
	}
	if c.TimeoutMs == 0 {
		c.TimeoutMs = DefaultTimeoutMs
	}
}

// Timeout returns the connect/response timeout.
func (c Connection) Timeout() time.Duration {
	return time.Duration(c.TimeoutMs) * time.Millisecond
}

// Interval returns the poll cadence.
func (p PollConfig) Interval() time.Duration {
	return time.Duration(p.IntervalMs) * time.Millisecond
}

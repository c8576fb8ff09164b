// internal/poller/identity.go
package poller

import (
	"strconv"
	"strings"

	"github.com/tamzrod/clivet-modbus/internal/config"
)

// UniqueID derives the device identity from the connection parameters:
// host_port_deviceid for network links, serialport_deviceid for serial
// links. Empty parts are skipped.
func UniqueID(c config.Connection) string {
	var parts []string

	if c.Host != "" {
		parts = append(parts, c.Host)
		if c.Port != 0 {
			parts = append(parts, strconv.Itoa(c.Port))
		}
	} else if c.SerialPort != "" {
		parts = append(parts, c.SerialPort)
	}

	if c.DeviceID != 0 {
		parts = append(parts, strconv.Itoa(int(c.DeviceID)))
	}

	return strings.Join(parts, "_")
}

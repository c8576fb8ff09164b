// internal/poller/modbus/errors.go
package modbus

import (
	"errors"
	"fmt"

	gmodbus "github.com/goburrow/modbus"
)

// ExceptionError is a well-formed exception reply from the device.
// The link itself is healthy when this is returned.
type ExceptionError struct {
	Function  byte
	Exception byte
}

func (e *ExceptionError) Error() string {
	return fmt.Sprintf("modbus exception: fc=%d code=%d", e.Function, e.Exception)
}

// ExceptionCode exposes the device exception code.
func (e *ExceptionError) ExceptionCode() byte { return e.Exception }

// ConfigurationError means the connection parameters select no usable
// transport. It is only returned at construction time.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return "modbus configuration: " + e.Reason
}

// translate maps library exception replies onto ExceptionError and leaves
// everything else untouched.
func translate(err error) error {
	if err == nil {
		return nil
	}
	var me *gmodbus.ModbusError
	if errors.As(err, &me) {
		return &ExceptionError{Function: me.FunctionCode, Exception: me.ExceptionCode}
	}
	return err
}

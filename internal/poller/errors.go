// internal/poller/errors.go
package poller

import (
	"errors"
	"fmt"

	"github.com/tamzrod/clivet-modbus/internal/registers"
)

var (
	// ErrOffline means there was no connection and connecting failed.
	ErrOffline = errors.New("poller: device offline")

	// ErrCommunication means an I/O operation failed on an established link.
	ErrCommunication = errors.New("poller: communication failure")
)

// OpError records which operation failed and why.
// errors.Is matches Kind; errors.As reaches the transport cause.
type OpError struct {
	Op      string // "poll", "read", "write", "write_bit"
	Address registers.Address
	Kind    error // ErrOffline or ErrCommunication
	Err     error
}

func (e *OpError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%v: %s %d", e.Kind, e.Op, e.Address)
	}
	return fmt.Sprintf("%v: %s %d: %v", e.Kind, e.Op, e.Address, e.Err)
}

func (e *OpError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func offline(op string, addr registers.Address, err error) error {
	return &OpError{Op: op, Address: addr, Kind: ErrOffline, Err: err}
}

func communication(op string, addr registers.Address, err error) error {
	return &OpError{Op: op, Address: addr, Kind: ErrCommunication, Err: err}
}

// exceptionCoder is implemented by transport errors that carry a device
// exception reply.
type exceptionCoder interface {
	ExceptionCode() byte
}

// IsException reports whether err is a device exception reply.
func IsException(err error) bool {
	var ec exceptionCoder
	return errors.As(err, &ec)
}

// Compact status codes for errors without a device exception code.
const (
	CodeGeneric       uint16 = 1
	CodeOffline       uint16 = 0x0100
	CodeCommunication uint16 = 0x0200
)

// ErrorCode extracts a best-effort uint16 code from an error.
// Exception replies yield CodeCommunication | exception code.
func ErrorCode(err error) uint16 {
	if err == nil {
		return 0
	}

	var ec exceptionCoder
	if errors.As(err, &ec) {
		return CodeCommunication | uint16(ec.ExceptionCode())
	}

	switch {
	case errors.Is(err, ErrOffline):
		return CodeOffline
	case errors.Is(err, ErrCommunication):
		return CodeCommunication
	}
	return CodeGeneric
}

// internal/writer/status_writer.go
package writer

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/tamzrod/clivet-modbus/internal/status"
)

// StatusWriter is the delivery-only contract for device status.
// It receives a snapshot and publishes it verbatim.
type StatusWriter interface {
	WriteStatus(s status.Snapshot) error
}

// Retained status attributes under <prefix>/<unique_id>/status/.
const (
	attrHealth         = "health"
	attrHealthCode     = "health_code"
	attrLastErrorCode  = "last_error_code"
	attrSecondsInError = "seconds_in_error"
	attrLastSuccess    = "last_success"
	attrName           = "name"
)

type deviceStatusWriter struct {
	broker Broker
	topics Topics
	name   func() string

	needFull bool
	last     status.Snapshot
}

// NewStatusWriter builds the retained status publisher. name is read on
// every full re-assert, so a model name that becomes known later is
// picked up after the next failure.
func NewStatusWriter(broker Broker, topics Topics, name func() string) StatusWriter {
	return &deviceStatusWriter{
		broker:   broker,
		topics:   topics,
		name:     name,
		needFull: true, // full re-assert on first successful publish
		last:     status.Snapshot{Health: status.HealthUnknown},
	}
}

// WriteStatus publishes the snapshot. The first call, and the first call
// after any failure, re-asserts every attribute; otherwise only changed
// attributes are published.
func (sw *deviceStatusWriter) WriteStatus(s status.Snapshot) error {
	if sw == nil || sw.broker == nil {
		return errors.New("status writer: disabled")
	}

	if sw.needFull {
		if err := sw.publishFull(s); err != nil {
			sw.needFull = true
			return fmt.Errorf("status writer: full re-assert failed: %w", err)
		}
		sw.needFull = false
		sw.last = s
		return nil
	}

	var errs []string

	if sw.last.Health != s.Health {
		err := sw.publish(attrHealth, status.HealthName(s.Health))
		if err == nil {
			err = sw.publish(attrHealthCode, strconv.Itoa(int(s.Health)))
		}
		if err != nil {
			errs = append(errs, fmt.Sprintf("health: %v", err))
		} else {
			sw.last.Health = s.Health
		}
	}

	if sw.last.LastErrorCode != s.LastErrorCode {
		if err := sw.publish(attrLastErrorCode, strconv.Itoa(int(s.LastErrorCode))); err != nil {
			errs = append(errs, fmt.Sprintf("last_error_code: %v", err))
		} else {
			sw.last.LastErrorCode = s.LastErrorCode
		}
	}

	if sw.last.SecondsInError != s.SecondsInError {
		if err := sw.publish(attrSecondsInError, strconv.Itoa(int(s.SecondsInError))); err != nil {
			errs = append(errs, fmt.Sprintf("seconds_in_error: %v", err))
		} else {
			sw.last.SecondsInError = s.SecondsInError
		}
	}

	if !s.LastSuccess.Equal(sw.last.LastSuccess) && !s.LastSuccess.IsZero() {
		if err := sw.publish(attrLastSuccess, s.LastSuccess.UTC().Format(time.RFC3339)); err != nil {
			errs = append(errs, fmt.Sprintf("last_success: %v", err))
		} else {
			sw.last.LastSuccess = s.LastSuccess
		}
	}

	if len(errs) > 0 {
		// any partial failure leaves retained state in doubt
		sw.needFull = true
		return errors.New("status writer: " + strings.Join(errs, " | "))
	}
	return nil
}

func (sw *deviceStatusWriter) publishFull(s status.Snapshot) error {
	attrs := [][2]string{
		{attrHealth, status.HealthName(s.Health)},
		{attrHealthCode, strconv.Itoa(int(s.Health))},
		{attrLastErrorCode, strconv.Itoa(int(s.LastErrorCode))},
		{attrSecondsInError, strconv.Itoa(int(s.SecondsInError))},
	}
	if !s.LastSuccess.IsZero() {
		attrs = append(attrs, [2]string{attrLastSuccess, s.LastSuccess.UTC().Format(time.RFC3339)})
	}
	if sw.name != nil {
		if n := sw.name(); n != "" {
			attrs = append(attrs, [2]string{attrName, n})
		}
	}

	for _, a := range attrs {
		if err := sw.publish(a[0], a[1]); err != nil {
			return fmt.Errorf("%s: %w", a[0], err)
		}
	}
	return nil
}

func (sw *deviceStatusWriter) publish(attr, value string) error {
	return sw.broker.Publish(sw.topics.StatusAttr(attr), true, []byte(value))
}

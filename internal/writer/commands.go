// internal/writer/commands.go
package writer

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/tamzrod/clivet-modbus/internal/codec"
	"github.com/tamzrod/clivet-modbus/internal/heatpump"
)

// Water-heater command names.
const (
	CommandDHWMode        = heatpump.CommandMode
	CommandDHWTemperature = heatpump.CommandTemperature
	CommandDHWPower       = heatpump.CommandPower
)

var (
	ErrUnknownField = errors.New("writer: unknown command field")
	ErrBadPayload   = errors.New("writer: malformed command payload")
)

// Commander routes command payloads to register writes.
type Commander struct {
	dev     Device
	fields  []codec.Field
	log     zerolog.Logger
	timeout time.Duration
}

// NewCommander builds a Commander. timeout bounds each command,
// including the wait for the poller worker.
func NewCommander(dev Device, fields []codec.Field, log zerolog.Logger, timeout time.Duration) *Commander {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Commander{dev: dev, fields: fields, log: log, timeout: timeout}
}

// Listen subscribes to every command topic. Failures are logged; the
// device state topic shows the outcome.
func (c *Commander) Listen(broker Broker, topics Topics) error {
	return broker.Subscribe(topics.CommandFilter(), func(topic string, payload []byte) {
		name, ok := topics.CommandField(topic)
		if !ok {
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
		defer cancel()

		if err := c.Apply(ctx, name, payload); err != nil {
			c.log.Error().Err(err).Str("field", name).Str("payload", string(payload)).Msg("command failed")
			return
		}
		c.log.Info().Str("field", name).Str("payload", string(payload)).Msg("command applied")
	})
}

// Apply executes one command.
func (c *Commander) Apply(ctx context.Context, name string, payload []byte) error {
	p := strings.TrimSpace(string(payload))

	switch name {
	case CommandDHWMode:
		mode, err := heatpump.ParseMode(strings.ToLower(p))
		if err != nil {
			return fmt.Errorf("%w: %v", ErrBadPayload, err)
		}
		return c.applyMode(ctx, mode)

	case CommandDHWPower:
		on, err := parseSwitch(p)
		if err != nil {
			return err
		}
		bw := heatpump.OnOffPlan(on)
		return c.dev.WriteBit(ctx, bw.Address, bw.Bit, bw.Value)

	case CommandDHWTemperature:
		x, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return fmt.Errorf("%w: %q", ErrBadPayload, p)
		}
		return c.applyTemperature(ctx, x)
	}

	f, ok := codec.Find(c.fields, name)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownField, name)
	}

	switch f.Kind {
	case codec.KindBoolean:
		on, err := parseSwitch(p)
		if err != nil {
			return err
		}
		bit, value, err := f.BitFor(on)
		if err != nil {
			return err
		}
		return c.dev.WriteBit(ctx, f.Address, bit, value)

	case codec.KindNumeric:
		x, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return fmt.Errorf("%w: %q", ErrBadPayload, p)
		}
		w, err := f.EncodeNumber(x)
		if err != nil {
			return err
		}
		return c.dev.WriteRegister(ctx, f.Address, w)
	}

	return fmt.Errorf("writer: %s: %w", name, codec.ErrNotWritable)
}

// applyMode reads each word from the device at write time, so bits
// changed since the last poll are kept and unchanged words are not written.
func (c *Commander) applyMode(ctx context.Context, mode heatpump.Mode) error {
	plan, err := heatpump.ModePlan(mode)
	if err != nil {
		return err
	}
	for _, w := range plan {
		if err := c.dev.WriteBits(ctx, w.Address, w.Bits); err != nil {
			return err
		}
	}
	return nil
}

func (c *Commander) applyTemperature(ctx context.Context, x float64) error {
	wh := heatpump.DeriveWaterHeater(c.dev)
	if x < wh.MinTemp || x > wh.MaxTemp {
		return fmt.Errorf("writer: temperature %v outside [%v, %v]: %w", x, wh.MinTemp, wh.MaxTemp, codec.ErrOutOfRange)
	}
	w, err := heatpump.EncodeTemperature(x)
	if err != nil {
		return err
	}
	return c.dev.WriteRegister(ctx, heatpump.TemperatureAddress(c.dev), w)
}

func parseSwitch(p string) (bool, error) {
	switch strings.ToUpper(p) {
	case "ON", "1", "TRUE":
		return true, nil
	case "OFF", "0", "FALSE":
		return false, nil
	}
	return false, fmt.Errorf("%w: %q", ErrBadPayload, p)
}

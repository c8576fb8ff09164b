// internal/poller/builder.go
package poller

import (
	"github.com/rs/zerolog"

	cfg "github.com/tamzrod/clivet-modbus/internal/config"
	pmodbus "github.com/tamzrod/clivet-modbus/internal/poller/modbus"
)

// Build constructs a Poller over the goburrow transport selected by the
// connection config. The link is not opened here: the first cycle (or
// job) connects, and a failure there is Offline, not fatal.
// The only construction error is a *pmodbus.ConfigurationError.
func Build(c *cfg.Config, logger zerolog.Logger, opts ...Option) (*Poller, error) {
	client, err := pmodbus.New(c.Device, pmodbus.WithLogger(logger))
	if err != nil {
		return nil, err
	}

	logger.Debug().
		Str("endpoint", client.Endpoint()).
		Uint8("device_id", c.Device.DeviceID).
		Msg("modbus transport ready")

	opts = append([]Option{WithLogger(logger)}, opts...)

	return New(
		Config{
			UniqueID: UniqueID(c.Device),
			DeviceID: c.Device.DeviceID,
			Interval: c.Poll.Interval(),
			Ranges:   cfg.Ranges(c),
		},
		client,
		opts...,
	)
}

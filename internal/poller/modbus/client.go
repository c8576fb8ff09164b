// internal/poller/modbus/client.go
package modbus

import (
	"errors"
	"fmt"
	"log"
	"net"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	gmodbus "github.com/goburrow/modbus"
	"github.com/goburrow/serial"
	"github.com/rs/zerolog"

	"github.com/tamzrod/clivet-modbus/internal/config"
)

const (
	defaultTimeout = 10 * time.Second
	defaultPort    = 502
)

// link is the lifecycle half of a goburrow handler.
type link interface {
	Connect() error
	Close() error
}

// Client implements poller.Client on goburrow/modbus (TCP, UDP or RTU).
// It serializes requests because it mutates the slave id per request.
// Any failure other than an exception reply drops the link so the next
// operation reconnects.
type Client struct {
	mu        sync.Mutex
	link      link
	setSlave  func(id byte)
	mb        gmodbus.Client
	connected atomic.Bool

	endpoint string
}

// Option tweaks transport construction.
type Option func(*options)

type options struct {
	logger zerolog.Logger
}

// WithLogger routes goburrow frame tracing into logger when it is at trace level.
func WithLogger(l zerolog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// New builds an unconnected client. A ConfigurationError means neither
// the network nor the serial parameters are usable.
func New(cfg config.Connection, opts ...Option) (*Client, error) {
	o := options{logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(&o)
	}

	var trace *log.Logger
	if o.logger.GetLevel() <= zerolog.TraceLevel {
		trace = log.New(o.logger.With().Str("component", "modbus").Logger(), "", 0)
	}

	timeout := cfg.Timeout()
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	c := &Client{}

	switch {
	case cfg.IsNetwork():
		port := cfg.Port
		if port == 0 {
			port = defaultPort
		}
		addr := net.JoinHostPort(cfg.Host, strconv.Itoa(port))
		c.endpoint = addr

		h := gmodbus.NewTCPClientHandler(addr)
		h.Timeout = timeout
		h.Logger = trace
		c.setSlave = func(id byte) { h.SlaveId = id }

		switch strings.ToLower(cfg.Protocol) {
		case "", "tcp":
			c.link = h
			c.mb = gmodbus.NewClient(h)
		case "udp":
			// MBAP framing from the TCP handler, datagrams from our own transporter
			u := &udpTransporter{Address: addr, Timeout: timeout}
			c.link = u
			c.mb = gmodbus.NewClient2(h, u)
		default:
			return nil, &ConfigurationError{Reason: fmt.Sprintf("unsupported protocol %q", cfg.Protocol)}
		}

	case cfg.IsSerial():
		parity := strings.ToUpper(cfg.Parity)
		if parity == "" {
			parity = "N"
		}
		c.endpoint = cfg.SerialPort

		h := gmodbus.NewRTUClientHandler(cfg.SerialPort)
		h.Config = serial.Config{
			Address:  cfg.SerialPort,
			BaudRate: cfg.Baudrate,
			DataBits: 8,
			StopBits: 1,
			Parity:   parity,
			Timeout:  timeout,
		}
		h.Logger = trace
		c.setSlave = func(id byte) { h.SlaveId = id }
		c.link = h
		c.mb = gmodbus.NewClient(h)

	default:
		return nil, &ConfigurationError{
			Reason: "neither network (protocol, host) nor serial (serial_port, baudrate) parameters are set",
		}
	}

	return c, nil
}

// Endpoint returns host:port or the serial device path.
func (c *Client) Endpoint() string { return c.endpoint }

// ---- lifecycle ----

func (c *Client) Connect() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.link.Connect(); err != nil {
		c.connected.Store(false)
		return err
	}
	c.connected.Store(true)
	return nil
}

func (c *Client) Connected() bool {
	return c.connected.Load()
}

func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.connected.Store(false)
	return c.link.Close()
}

// ---- poller.Client interface ----

func (c *Client) ReadHoldingRegisters(addr, qty uint16, deviceID uint8) ([]uint16, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.setSlave(deviceID)

	raw, err := c.mb.ReadHoldingRegisters(addr, qty)
	if err != nil {
		return nil, c.fail(err)
	}
	if len(raw) != 2*int(qty) {
		return nil, c.fail(fmt.Errorf("modbus: read %d registers, got %d bytes", qty, len(raw)))
	}
	return unpackRegisters(raw), nil
}

func (c *Client) WriteRegister(addr, value uint16, deviceID uint8) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.setSlave(deviceID)

	if _, err := c.mb.WriteSingleRegister(addr, value); err != nil {
		return c.fail(err)
	}
	return nil
}

// fail classifies err. Exception replies keep the link; anything else
// drops it. Called with mu held.
func (c *Client) fail(err error) error {
	err = translate(err)

	var ex *ExceptionError
	if errors.As(err, &ex) {
		return err
	}

	c.connected.Store(false)
	_ = c.link.Close()
	return err
}

// ---- helpers (pure geometry) ----

func unpackRegisters(data []byte) []uint16 {
	n := len(data) / 2
	out := make([]uint16, n)
	for i := 0; i < n; i++ {
		out[i] = uint16(data[2*i])<<8 | uint16(data[2*i+1])
	}
	return out
}

// internal/poller/modbus/client_test.go
package modbus

import (
	"encoding/binary"
	"errors"
	"net"
	"strconv"
	"testing"

	"github.com/tbrandon/mbserver"

	"github.com/tamzrod/clivet-modbus/internal/config"
)

// freePort reserves and releases an ephemeral port.
func freePort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port
}

// startServer runs an in-process Modbus TCP server whose holding-register
// reads at 4200 answer with an illegal data address exception.
func startServer(t *testing.T) (*mbserver.Server, int) {
	t.Helper()

	port := freePort(t)
	srv := mbserver.NewServer()

	srv.RegisterFunctionHandler(3, func(s *mbserver.Server, frame mbserver.Framer) ([]byte, *mbserver.Exception) {
		data := frame.GetData()
		if len(data) < 4 {
			return []byte{}, &mbserver.IllegalDataValue
		}
		start := binary.BigEndian.Uint16(data[0:2])
		qty := binary.BigEndian.Uint16(data[2:4])
		if start == 4200 {
			return []byte{}, &mbserver.IllegalDataAddress
		}

		out := make([]byte, 1, 1+2*int(qty))
		out[0] = byte(2 * qty)
		for i := uint16(0); i < qty; i++ {
			out = binary.BigEndian.AppendUint16(out, s.HoldingRegisters[int(start)+int(i)])
		}
		return out, &mbserver.Success
	})

	if err := srv.ListenTCP("127.0.0.1:" + strconv.Itoa(port)); err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(srv.Close)
	return srv, port
}

func TestNew_ConfigurationError(t *testing.T) {
	_, err := New(config.Connection{DeviceID: 2})

	var ce *ConfigurationError
	if !errors.As(err, &ce) {
		t.Fatalf("expected ConfigurationError, got %v", err)
	}
}

func TestNew_UnsupportedProtocol(t *testing.T) {
	_, err := New(config.Connection{Protocol: "rtu-over-tcp", Host: "127.0.0.1"})

	var ce *ConfigurationError
	if !errors.As(err, &ce) {
		t.Fatalf("expected ConfigurationError, got %v", err)
	}
}

func TestNew_SelectsTransport(t *testing.T) {
	c, err := New(config.Connection{Protocol: "udp", Host: "10.0.0.9", Port: 1502})
	if err != nil {
		t.Fatalf("udp: %v", err)
	}
	if _, ok := c.link.(*udpTransporter); !ok || c.Endpoint() != "10.0.0.9:1502" {
		t.Fatalf("udp link: %T %s", c.link, c.Endpoint())
	}

	c, err = New(config.Connection{SerialPort: "/dev/ttyUSB0", Baudrate: 9600})
	if err != nil {
		t.Fatalf("serial: %v", err)
	}
	if c.Endpoint() != "/dev/ttyUSB0" || c.Connected() {
		t.Fatalf("serial client: %s connected=%v", c.Endpoint(), c.Connected())
	}
}

func TestClient_ReadWriteTCP(t *testing.T) {
	srv, port := startServer(t)
	srv.HoldingRegisters[2600] = 5
	srv.HoldingRegisters[2601] = 0

	c, err := New(config.Connection{Host: "127.0.0.1", Port: port, TimeoutMs: 2000})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer c.Close()

	if err := c.Connect(); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if !c.Connected() {
		t.Fatalf("expected connected")
	}

	regs, err := c.ReadHoldingRegisters(2600, 2, 2)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(regs) != 2 || regs[0] != 5 || regs[1] != 0 {
		t.Fatalf("unexpected registers: %v", regs)
	}

	if err := c.WriteRegister(2701, 600, 2); err != nil {
		t.Fatalf("write: %v", err)
	}
	regs, err = c.ReadHoldingRegisters(2701, 1, 2)
	if err != nil || regs[0] != 600 {
		t.Fatalf("read back: %v %v", regs, err)
	}
}

func TestClient_ExceptionKeepsLink(t *testing.T) {
	_, port := startServer(t)

	c, err := New(config.Connection{Host: "127.0.0.1", Port: port, TimeoutMs: 2000})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer c.Close()

	if err := c.Connect(); err != nil {
		t.Fatalf("Connect: %v", err)
	}

	_, err = c.ReadHoldingRegisters(4200, 1, 2)

	var ex *ExceptionError
	if !errors.As(err, &ex) {
		t.Fatalf("expected ExceptionError, got %v", err)
	}
	if ex.ExceptionCode() != 2 {
		t.Fatalf("expected illegal data address, got %d", ex.ExceptionCode())
	}
	if !c.Connected() {
		t.Fatalf("exception reply must not drop the link")
	}
}

func TestClient_ConnectFailure(t *testing.T) {
	port := freePort(t)

	c, err := New(config.Connection{Host: "127.0.0.1", Port: port, TimeoutMs: 500})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if err := c.Connect(); err == nil {
		t.Fatalf("expected connect error")
	}
	if c.Connected() {
		t.Fatalf("must not be connected")
	}
}

func TestUnpackRegisters(t *testing.T) {
	got := unpackRegisters([]byte{0x00, 0x05, 0x80, 0x00})
	if len(got) != 2 || got[0] != 5 || got[1] != 0x8000 {
		t.Fatalf("got %v", got)
	}
}

// internal/poller/modbus/udp.go
package modbus

import (
	"errors"
	"net"
	"sync"
	"time"
)

// maxADU is the largest Modbus TCP/UDP frame.
const maxADU = 260

// udpTransporter carries MBAP frames over one connected UDP socket.
// One request, one datagram back.
type udpTransporter struct {
	Address string
	Timeout time.Duration

	mu   sync.Mutex
	conn net.Conn
}

func (t *udpTransporter) Connect() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.connect()
}

func (t *udpTransporter) connect() error {
	if t.conn != nil {
		return nil
	}
	conn, err := net.DialTimeout("udp", t.Address, t.Timeout)
	if err != nil {
		return err
	}
	t.conn = conn
	return nil
}

func (t *udpTransporter) Send(adu []byte) ([]byte, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.connect(); err != nil {
		return nil, err
	}

	if t.Timeout > 0 {
		if err := t.conn.SetDeadline(time.Now().Add(t.Timeout)); err != nil {
			return nil, err
		}
	}

	if _, err := t.conn.Write(adu); err != nil {
		return nil, err
	}

	buf := make([]byte, maxADU)
	n, err := t.conn.Read(buf)
	if err != nil {
		return nil, err
	}
	if n < 8 {
		return nil, errors.New("modbus udp: short response datagram")
	}
	return buf[:n], nil
}

func (t *udpTransporter) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.conn == nil {
		return nil
	}
	err := t.conn.Close()
	t.conn = nil
	return err
}

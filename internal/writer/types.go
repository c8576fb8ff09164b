// internal/writer/types.go
package writer

import (
	"context"
	"strings"

	"github.com/tamzrod/clivet-modbus/internal/poller"
	"github.com/tamzrod/clivet-modbus/internal/registers"
)

// Broker is the exact MQTT contract the writer uses.
// *mqttBroker implements it over paho; tests use a fake.
type Broker interface {
	Publish(topic string, retained bool, payload []byte) error
	Subscribe(topic string, handler func(topic string, payload []byte)) error
	Close()
}

// Device is the poller surface commands and state need.
type Device interface {
	registers.Getter
	WriteRegister(ctx context.Context, addr registers.Address, value uint16) error
	WriteBit(ctx context.Context, addr registers.Address, bit uint, value bool) error
	WriteBits(ctx context.Context, addr registers.Address, bits map[uint]bool) error
}

// Writer delivers poller updates.
type Writer interface {
	Write(u poller.Update) error
}

// Topics is the topic layout for one device: <prefix>/<unique_id>/...
type Topics struct {
	Prefix   string
	UniqueID string
}

func (t Topics) base() string {
	if t.Prefix == "" {
		return t.UniqueID
	}
	return t.Prefix + "/" + t.UniqueID
}

// State carries the decoded readings.
func (t Topics) State() string { return t.base() + "/state" }

// Status is the root of the retained status attributes.
func (t Topics) Status() string { return t.base() + "/status" }

// StatusAttr is one retained status attribute.
func (t Topics) StatusAttr(name string) string { return t.Status() + "/" + name }

// Command is the command topic for one field.
func (t Topics) Command(field string) string { return t.base() + "/set/" + field }

// CommandFilter matches every command topic.
func (t Topics) CommandFilter() string { return t.base() + "/set/+" }

// CommandField extracts the field name from a command topic.
func (t Topics) CommandField(topic string) (string, bool) {
	prefix := t.base() + "/set/"
	if !strings.HasPrefix(topic, prefix) {
		return "", false
	}
	name := strings.TrimPrefix(topic, prefix)
	if name == "" || strings.Contains(name, "/") {
		return "", false
	}
	return name, true
}

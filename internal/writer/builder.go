// internal/writer/builder.go
package writer

import (
	"strings"

	"github.com/rs/zerolog"

	cfg "github.com/tamzrod/clivet-modbus/internal/config"
	"github.com/tamzrod/clivet-modbus/internal/status"
)

// topicUnsafe replaces characters a topic level must not contain. Serial
// identities carry the device path.
var topicUnsafe = strings.NewReplacer("/", "_", "+", "_", "#", "_")

// BuildTopics derives the topic layout for one device.
// Assumes config has already been normalized.
func BuildTopics(m cfg.MQTTConfig, uniqueID string) Topics {
	return Topics{
		Prefix:   m.TopicPrefix,
		UniqueID: strings.Trim(topicUnsafe.Replace(uniqueID), "_"),
	}
}

// BuildBroker dials the configured broker. The last will marks the
// device offline if this process disappears.
func BuildBroker(m cfg.MQTTConfig, topics Topics, log zerolog.Logger) (Broker, error) {
	return Dial(BrokerOptions{
		Broker:      m.Broker,
		ClientID:    m.ClientID,
		Username:    m.Username,
		Password:    m.Password,
		WillTopic:   topics.StatusAttr(attrHealth),
		WillPayload: status.HealthName(status.HealthOffline),
	}, log)
}

// internal/writer/writer.go
package writer

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/tamzrod/clivet-modbus/internal/codec"
	"github.com/tamzrod/clivet-modbus/internal/heatpump"
	"github.com/tamzrod/clivet-modbus/internal/poller"
	"github.com/tamzrod/clivet-modbus/internal/registers"
)

// StateMessage is the payload of the state topic.
// Fields holds nil for values that were never read.
type StateMessage struct {
	UniqueID    string               `json:"unique_id"`
	Model       string               `json:"model"`
	At          time.Time            `json:"at"`
	Update      string               `json:"update"`
	Error       string               `json:"error,omitempty"`
	Fields      map[string]any       `json:"fields"`
	WaterHeater heatpump.WaterHeater `json:"water_heater"`
}

type stateWriter struct {
	broker Broker
	topics Topics
	fields []codec.Field
	src    registers.Getter
}

// New returns a Writer that publishes the decoded state on every update.
func New(broker Broker, topics Topics, fields []codec.Field, src registers.Getter) Writer {
	return &stateWriter{
		broker: broker,
		topics: topics,
		fields: fields,
		src:    src,
	}
}

func (w *stateWriter) Write(u poller.Update) error {
	msg := BuildState(w.topics.UniqueID, w.fields, w.src, u)

	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("writer: encode state: %w", err)
	}
	if err := w.broker.Publish(w.topics.State(), false, payload); err != nil {
		return fmt.Errorf("writer: publish %s: %w", w.topics.State(), err)
	}
	return nil
}

// BuildState decodes every field against src.
func BuildState(uid string, fields []codec.Field, src registers.Getter, u poller.Update) StateMessage {
	msg := StateMessage{
		UniqueID:    uid,
		Model:       heatpump.ModelName(src),
		At:          u.At,
		Update:      u.Kind.String(),
		Fields:      make(map[string]any, len(fields)),
		WaterHeater: heatpump.DeriveWaterHeater(src),
	}
	if u.Err != nil {
		msg.Error = u.Err.Error()
	}
	for _, r := range codec.DecodeAll(fields, src) {
		msg.Fields[r.Field] = r.Value()
	}
	return msg
}

// internal/config/config.go
package config

type Config struct {
	Device  Connection    `yaml:"device"`
	Poll    PollConfig    `yaml:"poll"`
	Reads   []ReadConfig  `yaml:"reads"`
	Fields  []FieldConfig `yaml:"fields"`
	Metrics MetricsConfig `yaml:"metrics"`
	MQTT    MQTTConfig    `yaml:"mqtt"`
}

// ---- CONNECTION ----

// Connection selects either a network link (protocol + host) or a
// serial link (serial_port + baudrate).
type Connection struct {
	Name string `yaml:"name"`

	// network
	Protocol string `yaml:"protocol"` // tcp | udp
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`

	// serial
	SerialPort string `yaml:"serial_port"`
	Baudrate   int    `yaml:"baudrate"`
	Parity     string `yaml:"parity"` // N | E | O

	DeviceID  uint8 `yaml:"device_id"`
	TimeoutMs int   `yaml:"timeout_ms"`
}

// IsNetwork reports whether the network fields are present.
func (c Connection) IsNetwork() bool {
	return c.Host != ""
}

// IsSerial reports whether the serial fields are present.
func (c Connection) IsSerial() bool {
	return c.SerialPort != "" && c.Baudrate != 0
}

// ---- READ GEOMETRY ----

type ReadConfig struct {
	Address uint16 `yaml:"address"`
	Count   uint16 `yaml:"count"`
}

// ---- CUSTOM FIELDS ----

// FieldConfig declares an extra field on top of the built-in catalogue.
type FieldConfig struct {
	Name     string            `yaml:"name"`
	Device   string            `yaml:"device"`
	Kind     string            `yaml:"kind"` // numeric | boolean | boolean_split | status
	Address  uint16            `yaml:"address"`
	Bit      *int              `yaml:"bit"`
	Scale    float64           `yaml:"scale"`
	Signed   bool              `yaml:"signed"`
	Unit     string            `yaml:"unit"`
	Min      float64           `yaml:"min"`
	Max      float64           `yaml:"max"`
	Invert   bool              `yaml:"invert"`
	BitValue bool              `yaml:"bit_value"`
	States   map[uint16]string `yaml:"states"`
	Class    string            `yaml:"class"`
	Writable bool              `yaml:"writable"`
}

// ---- POLL ----

type PollConfig struct {
	IntervalMs int `yaml:"interval_ms"`
}

// ---- OUTPUTS ----

type MetricsConfig struct {
	Listen string `yaml:"listen"` // empty disables the exporter
}

type MQTTConfig struct {
	Broker      string `yaml:"broker"` // empty disables publishing
	ClientID    string `yaml:"client_id"`
	Username    string `yaml:"username"`
	Password    string `yaml:"password"`
	TopicPrefix string `yaml:"topic_prefix"`
}

// cmd/clivet/root.go
package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tamzrod/clivet-modbus/internal/config"
)

var (
	cfgFile string
	verbose bool

	logger zerolog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "clivet",
	Short: "Modbus polling and control for Clivet Sphera-T heat pumps",
	Long: `clivet reads a Clivet Sphera-T heat pump over Modbus (TCP, UDP or RTU),
decodes its registers and publishes the result to MQTT and Prometheus.

Connection flags and CLIVET_* environment variables override the
device section of the config file.

Examples:
  # Run the poller daemon
  clivet run /etc/clivet.yaml

  # Decode every known field once
  clivet fields --host 192.168.1.40

  # Switch the water heater to heat pump mode
  clivet dhw mode heat_pump --host 192.168.1.40`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := zerolog.InfoLevel
		if verbose {
			level = zerolog.DebugLevel
		}
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
			Level(level).
			With().Timestamp().Logger()
	},
}

func init() {
	cobra.OnInitialize(initEnv)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (YAML)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	// Connection flags
	rootCmd.PersistentFlags().StringP("host", "H", "", "device host (network link)")
	rootCmd.PersistentFlags().IntP("port", "p", config.DefaultPort, "device port")
	rootCmd.PersistentFlags().String("protocol", "tcp", "network protocol: tcp, udp")
	rootCmd.PersistentFlags().String("serial-port", "", "serial device path (RTU link)")
	rootCmd.PersistentFlags().Int("baudrate", config.DefaultBaudrate, "serial baud rate: 4800, 9600, 19200")
	rootCmd.PersistentFlags().String("parity", config.DefaultParity, "serial parity: N, E, O")
	rootCmd.PersistentFlags().Uint8P("device-id", "u", config.DefaultDeviceID, "Modbus device id")
	rootCmd.PersistentFlags().Duration("timeout", config.DefaultTimeoutMs*time.Millisecond, "response timeout")

	for _, name := range connectionFlags {
		_ = viper.BindPFlag(name, rootCmd.PersistentFlags().Lookup(name))
	}

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(readCmd)
	rootCmd.AddCommand(writeCmd)
	rootCmd.AddCommand(setBitCmd)
	rootCmd.AddCommand(fieldsCmd)
	rootCmd.AddCommand(dhwCmd)
}

var connectionFlags = []string{
	"host", "port", "protocol", "serial-port", "baudrate", "parity", "device-id", "timeout",
}

func initEnv() {
	viper.SetEnvPrefix("CLIVET")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

// loadConfig reads the config file (when given), applies flag and
// environment overrides, then validates and normalizes.
func loadConfig(path string) (*config.Config, error) {
	cfg := &config.Config{}
	if path != "" {
		var err error
		if cfg, err = config.Load(path); err != nil {
			return nil, fmt.Errorf("config load failed: %w", err)
		}
	}

	applyOverrides(&cfg.Device)

	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	config.Normalize(cfg)

	if !cfg.Device.IsNetwork() && !cfg.Device.IsSerial() {
		return nil, fmt.Errorf("no device: set --host or --serial-port (or device in the config file)")
	}
	return cfg, nil
}

// applyOverrides copies only the flags and variables that were actually set.
func applyOverrides(c *config.Connection) {
	if viper.IsSet("host") {
		c.Host = viper.GetString("host")
	}
	if viper.IsSet("port") {
		c.Port = viper.GetInt("port")
	}
	if viper.IsSet("protocol") {
		c.Protocol = viper.GetString("protocol")
	}
	if viper.IsSet("serial-port") {
		c.SerialPort = viper.GetString("serial-port")
	}
	if viper.IsSet("baudrate") {
		c.Baudrate = viper.GetInt("baudrate")
	}
	if viper.IsSet("parity") {
		c.Parity = viper.GetString("parity")
	}
	if viper.IsSet("device-id") {
		c.DeviceID = uint8(viper.GetUint("device-id"))
	}
	if viper.IsSet("timeout") {
		c.TimeoutMs = int(viper.GetDuration("timeout").Milliseconds())
	}
}

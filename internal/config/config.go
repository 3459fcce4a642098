// Package config loads usbtool settings from defaults, an optional YAML
// file, USBTOOL_ environment variables and command line flags, in increasing
// order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/allbin/usbtool/internal/serialport"
)

// EnvPrefix is prepended to environment variable names, so probe.baud_rate
// is read from USBTOOL_PROBE_BAUD_RATE.
const EnvPrefix = "USBTOOL"

// Config represents the application configuration
type Config struct {
	Probe     ProbeConfig     `mapstructure:"probe"`
	Discovery DiscoveryConfig `mapstructure:"discovery"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// ProbeConfig holds the serial line settings used for probe exchanges
type ProbeConfig struct {
	BaudRate      int           `mapstructure:"baud_rate"`
	Timeout       time.Duration `mapstructure:"timeout"`
	DataBits      int           `mapstructure:"data_bits"`
	StopBits      int           `mapstructure:"stop_bits"`
	Parity        string        `mapstructure:"parity"`
	FlowControl   string        `mapstructure:"flow_control"`
	LogSerialData bool          `mapstructure:"log_serial_data"`
}

// DiscoveryConfig locates candidate devices and the external tools that
// describe them
type DiscoveryConfig struct {
	USBSerialDir   string        `mapstructure:"usb_serial_dir"`
	DevDir         string        `mapstructure:"dev_dir"`
	ACMPrefix      string        `mapstructure:"acm_prefix"`
	CommandTimeout time.Duration `mapstructure:"command_timeout"`
	Udevadm        string        `mapstructure:"udevadm"`
	Lsusb          string        `mapstructure:"lsusb"`
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	Output     string `mapstructure:"output"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
	Compress   bool   `mapstructure:"compress"`
}

// flagKeys maps command line flag names onto configuration keys.
var flagKeys = map[string]string{
	"baud-rate":       "probe.baud_rate",
	"timeout":         "probe.timeout",
	"data-bits":       "probe.data_bits",
	"stop-bits":       "probe.stop_bits",
	"parity":          "probe.parity",
	"flow-control":    "probe.flow_control",
	"log-serial-data": "probe.log_serial_data",
	"log-level":       "logging.level",
	"log-format":      "logging.format",
	"log-file":        "logging.output",
}

// New returns a viper instance with defaults and environment lookup set up.
func New() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	return v
}

// BindFlags binds every known flag present in fs to its configuration key.
// A flag only takes precedence when it was set on the command line.
func BindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	for name, key := range flagKeys {
		flag := fs.Lookup(name)
		if flag == nil {
			continue
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return fmt.Errorf("failed to bind flag --%s: %w", name, err)
		}
	}
	return nil
}

// Load reads configuration into a Config. An explicit configFile must exist;
// otherwise config.yaml is searched for in the user and system config
// directories and its absence is not an error.
func Load(v *viper.Viper, configFile string) (*Config, error) {
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		if dir, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(filepath.Join(dir, "usbtool"))
		}
		v.AddConfigPath("/etc/usbtool")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config, viper.DecodeHook(decodeHook)); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Probe defaults
	v.SetDefault("probe.baud_rate", 9600)
	v.SetDefault("probe.timeout", "1s")
	v.SetDefault("probe.data_bits", 8)
	v.SetDefault("probe.stop_bits", 1)
	v.SetDefault("probe.parity", "none")
	v.SetDefault("probe.flow_control", "none")
	v.SetDefault("probe.log_serial_data", false)

	// Discovery defaults
	v.SetDefault("discovery.usb_serial_dir", "/sys/bus/usb-serial/devices")
	v.SetDefault("discovery.dev_dir", "/dev")
	v.SetDefault("discovery.acm_prefix", "ttyACM")
	v.SetDefault("discovery.command_timeout", "10s")
	v.SetDefault("discovery.udevadm", "udevadm")
	v.SetDefault("discovery.lsusb", "lsusb")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.output", "stderr")
	v.SetDefault("logging.max_size", 10)
	v.SetDefault("logging.max_backups", 3)
	v.SetDefault("logging.max_age", 28)
	v.SetDefault("logging.compress", true)
}

// validate validates the configuration
func validate(config *Config) error {
	if err := serialport.ValidateBaudRate(config.Probe.BaudRate); err != nil {
		return fmt.Errorf("probe.baud_rate %d: %w", config.Probe.BaudRate, err)
	}
	if config.Probe.DataBits < 5 || config.Probe.DataBits > 8 {
		return fmt.Errorf("probe.data_bits must be between 5 and 8, got %d", config.Probe.DataBits)
	}
	if config.Probe.StopBits != 1 && config.Probe.StopBits != 2 {
		return fmt.Errorf("probe.stop_bits must be 1 or 2, got %d", config.Probe.StopBits)
	}
	if _, err := serialport.ParseParity(config.Probe.Parity); err != nil {
		return fmt.Errorf("probe.parity: %w", err)
	}
	if _, err := serialport.ParseFlowControl(config.Probe.FlowControl); err != nil {
		return fmt.Errorf("probe.flow_control: %w", err)
	}
	if config.Probe.Timeout < 0 {
		return fmt.Errorf("probe.timeout must not be negative, got %v", config.Probe.Timeout)
	}
	if config.Discovery.CommandTimeout < 0 {
		return fmt.Errorf("discovery.command_timeout must not be negative, got %v", config.Discovery.CommandTimeout)
	}
	if config.Discovery.DevDir == "" {
		return fmt.Errorf("discovery.dev_dir is required")
	}

	validLevels := []string{"debug", "info", "warn", "error"}
	if !slices.Contains(validLevels, config.Logging.Level) {
		return fmt.Errorf("logging.level must be one of: %v", validLevels)
	}

	validFormats := []string{"console", "json"}
	if !slices.Contains(validFormats, config.Logging.Format) {
		return fmt.Errorf("logging.format must be one of: %v", validFormats)
	}

	return nil
}

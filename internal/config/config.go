package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"
)

type Config struct {
	DSC           DSCConfig           `yaml:"dsc"`
	MQTT          MQTTConfig          `yaml:"mqtt"`
	HomeAssistant HomeAssistantConfig `yaml:"homeassistant"`
	HTTP          HTTPConfig          `yaml:"http"`
	Partitions    []PartitionConfig   `yaml:"partitions"`
	Zones         []ZoneConfig        `yaml:"zones"`
	Log           LogConfig           `yaml:"log"`
	Cache         CacheConfig         `yaml:"cache"`
}

type DSCConfig struct {
	Dialect    string `yaml:"dialect"`
	Host       string `yaml:"host"`
	Port       int    `yaml:"port"`
	SerialPort string `yaml:"serial_port"`
	BaudRate   int    `yaml:"baud_rate"`
	Password   string `yaml:"password"`
	UserCode   string `yaml:"user_code"`
	// PollPeriod is in minutes.
	PollPeriod               int           `yaml:"poll_period"`
	PollInterval             time.Duration `yaml:"poll_interval"`
	ConnectTimeout           time.Duration `yaml:"connect_timeout"`
	SuppressAcknowledgements bool          `yaml:"suppress_acknowledgements"`
}

type MQTTConfig struct {
	// ClientID defaults to the prefix plus a random suffix.
	ClientID  string `yaml:"client_id"`
	Host      string `yaml:"host"`
	Port      int    `yaml:"port"`
	Keepalive int    `yaml:"keepalive"`
	Username  string `yaml:"username"`
	Password  string `yaml:"password"`
	QOS       int    `yaml:"qos"`
	Retain    bool   `yaml:"retain"`
	Prefix    string `yaml:"prefix"`
	Clean     bool   `yaml:"clean"`
}

type HomeAssistantConfig struct {
	Discovery bool   `yaml:"discovery"`
	Prefix    string `yaml:"prefix"`
}

type HTTPConfig struct {
	// Listen is the address of the status API. Empty disables it.
	Listen string `yaml:"listen"`
}

type PartitionConfig struct {
	Number int    `yaml:"number"`
	Name   string `yaml:"name"`
}

type ZoneConfig struct {
	Number      int    `yaml:"number"`
	Partition   int    `yaml:"partition"`
	Name        string `yaml:"name"`
	DeviceClass string `yaml:"device_class"`
}

type LogConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Compress   bool   `yaml:"compress"`
}

type CacheConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

func LoadConfig(configFile string) (*Config, error) {
	data, err := os.ReadFile(configFile)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %v", err)
	}
	return Parse(data)
}

// Parse decodes YAML and fills in defaults.
func Parse(data []byte) (*Config, error) {
	var config Config
	err := yaml.Unmarshal(data, &config)
	if err != nil {
		return nil, fmt.Errorf("error parsing config file: %v", err)
	}

	config.setDefaults()
	return &config, nil
}

func (c *Config) setDefaults() {
	if c.DSC.Dialect == "" {
		c.DSC.Dialect = "envisalink"
	}
	if c.DSC.Port == 0 {
		c.DSC.Port = 4025
	}
	if c.DSC.BaudRate == 0 {
		c.DSC.BaudRate = 9600
	}
	if c.DSC.Password == "" {
		c.DSC.Password = "user"
	}
	if c.DSC.PollPeriod == 0 {
		c.DSC.PollPeriod = 1
	}
	if c.DSC.PollInterval == 0 {
		c.DSC.PollInterval = 5 * time.Second
	}
	if c.DSC.ConnectTimeout == 0 {
		c.DSC.ConnectTimeout = 10 * time.Second
	}
	if c.MQTT.Host == "" {
		c.MQTT.Host = "localhost"
	}
	if c.MQTT.Port == 0 {
		c.MQTT.Port = 1883
	}
	if c.MQTT.Keepalive == 0 {
		c.MQTT.Keepalive = 60
	}
	if c.MQTT.Prefix == "" {
		c.MQTT.Prefix = "dsc2mqtt"
	}
	if c.HomeAssistant.Prefix == "" {
		c.HomeAssistant.Prefix = "homeassistant"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.MaxSizeMB == 0 {
		c.Log.MaxSizeMB = 10
	}
	if c.Log.MaxBackups == 0 {
		c.Log.MaxBackups = 3
	}
	if c.Log.MaxAgeDays == 0 {
		c.Log.MaxAgeDays = 28
	}
}

// Validate checks the settings a bridge cannot run without. Problems with the
// panel connection itself are left to the bridge, which stays offline and
// reports them.
func (c *Config) Validate() error {
	switch c.DSC.Dialect {
	case "envisalink", "tpi", "envisalink_tpi", "it100", "it-100", "it100_api":
	default:
		return fmt.Errorf("unknown dsc dialect %q", c.DSC.Dialect)
	}
	if c.DSC.Host == "" && c.DSC.SerialPort == "" {
		return fmt.Errorf("one of dsc.host or dsc.serial_port must be set")
	}
	if c.DSC.UserCode != "" && (len(c.DSC.UserCode) < 4 || len(c.DSC.UserCode) > 6) {
		return fmt.Errorf("dsc.user_code must be 4-6 digits")
	}
	for _, p := range c.Partitions {
		if p.Number < 1 || p.Number > 8 {
			return fmt.Errorf("partition number %d out of range 1-8", p.Number)
		}
	}
	for _, z := range c.Zones {
		if z.Number < 1 {
			return fmt.Errorf("zone number %d must be positive", z.Number)
		}
	}
	return nil
}

// UsesSerial reports whether the panel is reached over a local serial port.
func (c *DSCConfig) UsesSerial() bool {
	return c.SerialPort != ""
}

package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// FileName is the configuration file looked up in the config directory.
const FileName = "navalsim.cfg.json"

// SimConfig holds run loop and battle settings.
type SimConfig struct {
	TickInterval    time.Duration `json:"tickInterval" mapstructure:"tickInterval"`
	TickDuration    time.Duration `json:"tickDuration" mapstructure:"tickDuration"`
	Seed            int64         `json:"seed" mapstructure:"seed"`
	MaxTicks        uint64        `json:"maxTicks" mapstructure:"maxTicks"`
	Scenario        string        `json:"scenario" mapstructure:"scenario"`
	StopWhenDecided bool          `json:"stopWhenDecided" mapstructure:"stopWhenDecided"`
	QueueCapacity   int           `json:"queueCapacity" mapstructure:"queueCapacity"`
}

// InterpretConfig configures the order interpretation service.
type InterpretConfig struct {
	Endpoint      string        `json:"endpoint" mapstructure:"endpoint"`
	APIKey        string        `json:"apiKey" mapstructure:"apiKey"`
	Timeout       time.Duration `json:"timeout" mapstructure:"timeout"`
	MaxConcurrent int64         `json:"maxConcurrent" mapstructure:"maxConcurrent"`
}

// MemoryConfig holds in-memory/JSON storage backend settings
type MemoryConfig struct {
	OutputDir      string `json:"outputDir" mapstructure:"outputDir"`
	CompressOutput bool   `json:"compressOutput" mapstructure:"compressOutput"`
}

// SQLiteConfig holds sqlite storage backend settings
type SQLiteConfig struct {
	Path         string        `json:"path" mapstructure:"path"`
	DumpInterval time.Duration `json:"dumpInterval" mapstructure:"dumpInterval"`
}

// WebSocketConfig holds the status stream settings
type WebSocketConfig struct {
	URL          string `json:"url" mapstructure:"url"`
	Secret       string `json:"secret" mapstructure:"secret"`
	StreamStatus bool   `json:"streamStatus" mapstructure:"streamStatus"`
}

// StorageConfig holds storage backend configuration
type StorageConfig struct {
	Type       string          `json:"type" mapstructure:"type"`
	BufferSize int             `json:"bufferSize" mapstructure:"bufferSize"`
	Memory     MemoryConfig    `json:"memory" mapstructure:"memory"`
	SQLite     SQLiteConfig    `json:"sqlite" mapstructure:"sqlite"`
	WebSocket  WebSocketConfig `json:"websocket" mapstructure:"websocket"`
}

// OTelConfig holds OpenTelemetry settings
type OTelConfig struct {
	Enabled      bool          `json:"enabled" mapstructure:"enabled"`
	ServiceName  string        `json:"serviceName" mapstructure:"serviceName"`
	BatchTimeout time.Duration `json:"batchTimeout" mapstructure:"batchTimeout"`
	Endpoint     string        `json:"endpoint" mapstructure:"endpoint"`
	Insecure     bool          `json:"insecure" mapstructure:"insecure"`
}

// Load reads configuration from JSON file and sets default values.
// configDir is the directory containing the config file.
func Load(configDir string) error {
	viper.SetDefault("logLevel", "info")
	viper.SetDefault("logsDir", "./navallogs")

	viper.SetDefault("sim.tickInterval", "1s")
	viper.SetDefault("sim.tickDuration", "1m")
	viper.SetDefault("sim.seed", 1)
	viper.SetDefault("sim.maxTicks", 0)
	viper.SetDefault("sim.scenario", "")
	viper.SetDefault("sim.stopWhenDecided", true)
	viper.SetDefault("sim.queueCapacity", 256)

	viper.SetDefault("interpret.endpoint", "")
	viper.SetDefault("interpret.apiKey", "")
	viper.SetDefault("interpret.timeout", "30s")
	viper.SetDefault("interpret.maxConcurrent", 4)

	viper.SetDefault("api.serverUrl", "")
	viper.SetDefault("api.apiKey", "")

	viper.SetDefault("db.host", "localhost")
	viper.SetDefault("db.port", "5432")
	viper.SetDefault("db.username", "postgres")
	viper.SetDefault("db.password", "postgres")
	viper.SetDefault("db.database", "navalsim")

	viper.SetDefault("influx.enabled", false)
	viper.SetDefault("influx.host", "localhost")
	viper.SetDefault("influx.port", "8086")
	viper.SetDefault("influx.protocol", "http")
	viper.SetDefault("influx.token", "supersecrettoken")
	viper.SetDefault("influx.org", "navalsim")
	viper.SetDefault("influx.bucket", "battles")

	viper.SetDefault("monitor.interval", "5s")

	viper.SetDefault("graylog.enabled", false)
	viper.SetDefault("graylog.address", "localhost:12201")

	viper.SetDefault("storage.type", "memory")
	viper.SetDefault("storage.bufferSize", 4096)
	viper.SetDefault("storage.memory.outputDir", "./recordings")
	viper.SetDefault("storage.memory.compressOutput", true)
	viper.SetDefault("storage.sqlite.path", "./recordings/navalsim.db")
	viper.SetDefault("storage.sqlite.dumpInterval", "1m")
	viper.SetDefault("storage.websocket.url", "")
	viper.SetDefault("storage.websocket.secret", "")
	viper.SetDefault("storage.websocket.streamStatus", true)

	viper.SetDefault("otel.enabled", false)
	viper.SetDefault("otel.serviceName", "navalsim")
	viper.SetDefault("otel.batchTimeout", "5s")
	viper.SetDefault("otel.endpoint", "")
	viper.SetDefault("otel.insecure", true)

	viper.SetConfigName(FileName)
	viper.AddConfigPath(configDir)
	viper.SetConfigType("json")

	err := viper.ReadInConfig()
	if err != nil {
		return fmt.Errorf("error reading config file: %v", err)
	}

	return nil
}

// GetString returns a string config value.
func GetString(key string) string {
	return viper.GetString(key)
}

// GetInt returns an int config value.
func GetInt(key string) int {
	return viper.GetInt(key)
}

// GetBool returns a bool config value.
func GetBool(key string) bool {
	return viper.GetBool(key)
}

// GetDuration returns a duration config value.
func GetDuration(key string) time.Duration {
	return viper.GetDuration(key)
}

// GetSimConfig returns the run loop configuration.
func GetSimConfig() SimConfig {
	return SimConfig{
		TickInterval:    viper.GetDuration("sim.tickInterval"),
		TickDuration:    viper.GetDuration("sim.tickDuration"),
		Seed:            viper.GetInt64("sim.seed"),
		MaxTicks:        viper.GetUint64("sim.maxTicks"),
		Scenario:        viper.GetString("sim.scenario"),
		StopWhenDecided: viper.GetBool("sim.stopWhenDecided"),
		QueueCapacity:   viper.GetInt("sim.queueCapacity"),
	}
}

// GetInterpretConfig returns the interpretation service configuration.
func GetInterpretConfig() InterpretConfig {
	return InterpretConfig{
		Endpoint:      viper.GetString("interpret.endpoint"),
		APIKey:        viper.GetString("interpret.apiKey"),
		Timeout:       viper.GetDuration("interpret.timeout"),
		MaxConcurrent: viper.GetInt64("interpret.maxConcurrent"),
	}
}

// GetStorageConfig returns the storage backend configuration.
func GetStorageConfig() StorageConfig {
	var cfg StorageConfig
	if err := viper.UnmarshalKey("storage", &cfg); err != nil {
		return StorageConfig{Type: "memory"}
	}
	return cfg
}

// GetOTelConfig returns the OpenTelemetry configuration.
func GetOTelConfig() OTelConfig {
	return OTelConfig{
		Enabled:      viper.GetBool("otel.enabled"),
		ServiceName:  viper.GetString("otel.serviceName"),
		BatchTimeout: viper.GetDuration("otel.batchTimeout"),
		Endpoint:     viper.GetString("otel.endpoint"),
		Insecure:     viper.GetBool("otel.insecure"),
	}
}

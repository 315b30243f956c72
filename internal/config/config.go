package config

import (
	"fmt"
	"runtime"
	"time"

	"github.com/spf13/viper"
)

// FileName is the config file looked up in the config directory.
const FileName = "pearl_calculator.cfg.json"

// SolverConfig holds the defaults applied to solve and trace requests.
type SolverConfig struct {
	MaxTicks      uint32  `json:"maxTicks" mapstructure:"maxTicks"`
	MaxDistance   float64 `json:"maxDistance" mapstructure:"maxDistance"`
	Workers       int     `json:"workers" mapstructure:"workers"`
	SearchRadius  int32   `json:"searchRadius" mapstructure:"searchRadius"`
	TraceMaxTicks uint32  `json:"traceMaxTicks" mapstructure:"traceMaxTicks"`
	CacheCapacity int     `json:"cacheCapacity" mapstructure:"cacheCapacity"`
	Timeout       time.Duration
}

// MemoryConfig holds in-memory/JSON storage backend settings
type MemoryConfig struct {
	OutputDir      string `json:"outputDir" mapstructure:"outputDir"`
	CompressOutput bool   `json:"compressOutput" mapstructure:"compressOutput"`
}

// SQLiteConfig holds settings for the in-memory SQLite backend.
type SQLiteConfig struct {
	DumpInterval time.Duration
	OutputPath   string
}

// PostgresConfig holds settings for the batched Postgres backend.
type PostgresConfig struct {
	FlushInterval time.Duration
	BatchSize     int
}

// StorageConfig selects and configures a storage backend.
type StorageConfig struct {
	Type     string
	Memory   MemoryConfig
	SQLite   SQLiteConfig
	Postgres PostgresConfig
}

// OTelConfig configures the OpenTelemetry provider.
type OTelConfig struct {
	Enabled      bool
	ServiceName  string
	BatchTimeout time.Duration
	Endpoint     string
	Insecure     bool
}

// InfluxConfig configures the InfluxDB metrics writer.
type InfluxConfig struct {
	Enabled  bool
	Host     string
	Port     string
	Protocol string
	Token    string
	Org      string
	Bucket   string
}

// Load reads configuration from JSON file and sets default values.
// configDir is the directory containing the config file.
func Load(configDir string) error {
	setDefaults()

	viper.SetConfigName(FileName)
	viper.AddConfigPath(configDir)
	viper.SetConfigType("json")

	err := viper.ReadInConfig()
	if err != nil {
		return fmt.Errorf("error reading config file: %v", err)
	}

	return nil
}

func setDefaults() {
	viper.SetDefault("logLevel", "info")
	viper.SetDefault("logsDir", "./pearllogs")

	viper.SetDefault("solver.maxTicks", 200)
	viper.SetDefault("solver.maxDistance", 10.0)
	viper.SetDefault("solver.workers", 0)
	viper.SetDefault("solver.searchRadius", 5)
	viper.SetDefault("solver.timeout", "30s")
	viper.SetDefault("trace.maxTicks", 10000)
	viper.SetDefault("cache.capacity", 256)

	viper.SetDefault("storage.type", "memory")
	viper.SetDefault("storage.memory.outputDir", "./calculations")
	viper.SetDefault("storage.memory.compressOutput", true)
	viper.SetDefault("storage.sqlite.dumpInterval", "3m")
	viper.SetDefault("storage.sqlite.outputPath", "./pearl_calculator.db")
	viper.SetDefault("storage.postgres.flushInterval", "5s")
	viper.SetDefault("storage.postgres.batchSize", 100)

	viper.SetDefault("api.serverUrl", "http://localhost:5000")
	viper.SetDefault("api.apiKey", "")
	viper.SetDefault("api.uploadExports", false)

	viper.SetDefault("db.host", "localhost")
	viper.SetDefault("db.port", "5432")
	viper.SetDefault("db.username", "postgres")
	viper.SetDefault("db.password", "postgres")
	viper.SetDefault("db.database", "pearl")

	viper.SetDefault("influx.enabled", false)
	viper.SetDefault("influx.host", "localhost")
	viper.SetDefault("influx.port", "8086")
	viper.SetDefault("influx.protocol", "http")
	viper.SetDefault("influx.token", "supersecrettoken")
	viper.SetDefault("influx.org", "pearl-metrics")
	viper.SetDefault("influx.bucket", "solver_performance")

	viper.SetDefault("otel.enabled", false)
	viper.SetDefault("otel.serviceName", "pearl-calculator")
	viper.SetDefault("otel.batchTimeout", "5s")
	viper.SetDefault("otel.endpoint", "")
	viper.SetDefault("otel.insecure", true)
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

// GetSolverConfig returns the request defaults. A workers value of 0 or less
// means one worker per GOMAXPROCS slot.
func GetSolverConfig() SolverConfig {
	workers := viper.GetInt("solver.workers")
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return SolverConfig{
		MaxTicks:      viper.GetUint32("solver.maxTicks"),
		MaxDistance:   viper.GetFloat64("solver.maxDistance"),
		Workers:       workers,
		SearchRadius:  viper.GetInt32("solver.searchRadius"),
		Timeout:       viper.GetDuration("solver.timeout"),
		TraceMaxTicks: viper.GetUint32("trace.maxTicks"),
		CacheCapacity: viper.GetInt("cache.capacity"),
	}
}

// GetStorageConfig returns the storage backend settings.
func GetStorageConfig() StorageConfig {
	return StorageConfig{
		Type: viper.GetString("storage.type"),
		Memory: MemoryConfig{
			OutputDir:      viper.GetString("storage.memory.outputDir"),
			CompressOutput: viper.GetBool("storage.memory.compressOutput"),
		},
		SQLite: SQLiteConfig{
			DumpInterval: viper.GetDuration("storage.sqlite.dumpInterval"),
			OutputPath:   viper.GetString("storage.sqlite.outputPath"),
		},
		Postgres: PostgresConfig{
			FlushInterval: viper.GetDuration("storage.postgres.flushInterval"),
			BatchSize:     viper.GetInt("storage.postgres.batchSize"),
		},
	}
}

// GetOTelConfig returns the telemetry settings.
func GetOTelConfig() OTelConfig {
	return OTelConfig{
		Enabled:      viper.GetBool("otel.enabled"),
		ServiceName:  viper.GetString("otel.serviceName"),
		BatchTimeout: viper.GetDuration("otel.batchTimeout"),
		Endpoint:     viper.GetString("otel.endpoint"),
		Insecure:     viper.GetBool("otel.insecure"),
	}
}

// GetInfluxConfig returns the metrics writer settings.
func GetInfluxConfig() InfluxConfig {
	return InfluxConfig{
		Enabled:  viper.GetBool("influx.enabled"),
		Host:     viper.GetString("influx.host"),
		Port:     viper.GetString("influx.port"),
		Protocol: viper.GetString("influx.protocol"),
		Token:    viper.GetString("influx.token"),
		Org:      viper.GetString("influx.org"),
		Bucket:   viper.GetString("influx.bucket"),
	}
}

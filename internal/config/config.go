package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Kafka    KafkaConfig    `mapstructure:"kafka"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	Log      LogConfig      `mapstructure:"log"`
	Analysis AnalysisConfig `mapstructure:"analysis"`
	Digest   DigestConfig   `mapstructure:"digest"`
}

// ServerConfig holds server-specific configuration
type ServerConfig struct {
	Port         int    `mapstructure:"port"`
	Host         string `mapstructure:"host"`
	ReadTimeout  int    `mapstructure:"read_timeout"`
	WriteTimeout int    `mapstructure:"write_timeout"`
	IdleTimeout  int    `mapstructure:"idle_timeout"`
	Environment  string `mapstructure:"environment"`
}

// DatabaseConfig holds database-specific configuration
type DatabaseConfig struct {
	// Driver is either "postgres" or "sqlite"
	Driver   string `mapstructure:"driver"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
	TimeZone string `mapstructure:"timezone"`
	// Path is the sqlite database file
	Path string `mapstructure:"path"`
}

// KafkaConfig holds Kafka configuration
type KafkaConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	Brokers        string `mapstructure:"brokers"`
	ConsumerGroup  string `mapstructure:"consumer_group"`
	SecurityEnable bool   `mapstructure:"security_enable"`
	SecurityUser   string `mapstructure:"security_user"`
	SecurityPass   string `mapstructure:"security_pass"`
	IngestTopic    string `mapstructure:"ingest_topic"`
	AnalyzedTopic  string `mapstructure:"analyzed_topic"`
	AlertsTopic    string `mapstructure:"alerts_topic"`
}

// JWTConfig holds JWT authentication configuration
type JWTConfig struct {
	Secret                 string `mapstructure:"secret"`
	ExpirationHours        int    `mapstructure:"expiration_hours"`
	RefreshSecret          string `mapstructure:"refresh_secret"`
	RefreshExpirationHours int    `mapstructure:"refresh_expiration_hours"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputPath string `mapstructure:"output_path"`
}

// AnalysisConfig tunes the image analysis pipeline
type AnalysisConfig struct {
	// DelayMS is the simulated processing latency
	DelayMS int `mapstructure:"delay_ms"`
	// RandomSeed makes metric synthesis reproducible; 0 seeds from the clock
	RandomSeed uint64 `mapstructure:"random_seed"`
	// MaxPayloadBytes caps the decoded image size
	MaxPayloadBytes int `mapstructure:"max_payload_bytes"`
	TrendWindowDays int `mapstructure:"trend_window_days"`
}

// Delay returns the configured latency as a duration
func (c *AnalysisConfig) Delay() time.Duration {
	return time.Duration(c.DelayMS) * time.Millisecond
}

// DigestConfig controls the scheduled water-quality digest
type DigestConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	Schedule     string `mapstructure:"schedule"`
	LookbackDays int    `mapstructure:"lookback_days"`
}

// LoadConfig loads the application configuration from file and environment variables
func LoadConfig(configPath string) (*Config, error) {
	var config Config

	if configPath == "" {
		configPath = "./config"
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)

	v.SetEnvPrefix("AQUASCAN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read configuration from file
	if err := v.ReadInConfig(); err != nil {
		// A missing file is fine, defaults and env vars still apply
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read configuration file: %w", err)
		}
	}

	v.AutomaticEnv()

	setDefaults(v)

	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// setDefaults sets default values for the configuration
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.read_timeout", 15)  // seconds
	v.SetDefault("server.write_timeout", 30) // seconds, analysis runs inside the request
	v.SetDefault("server.idle_timeout", 60)  // seconds
	v.SetDefault("server.environment", "development")

	// Database defaults
	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.dbname", "aquascan")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.timezone", "UTC")
	v.SetDefault("database.path", "aquascan.db")

	// Kafka defaults
	v.SetDefault("kafka.enabled", false)
	v.SetDefault("kafka.brokers", "kafka:9092")
	v.SetDefault("kafka.consumer_group", "aquascan")
	v.SetDefault("kafka.security_enable", false)
	v.SetDefault("kafka.ingest_topic", "water-samples.ingest")
	v.SetDefault("kafka.analyzed_topic", "water-samples.analyzed")
	v.SetDefault("kafka.alerts_topic", "water-quality.alerts")

	// JWT defaults
	v.SetDefault("jwt.expiration_hours", 24)
	v.SetDefault("jwt.refresh_expiration_hours", 168) // 7 days

	// Log defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.output_path", "stdout")

	// Analysis defaults
	v.SetDefault("analysis.delay_ms", 2500)
	v.SetDefault("analysis.random_seed", 0)
	v.SetDefault("analysis.max_payload_bytes", 10<<20)
	v.SetDefault("analysis.trend_window_days", 30)

	// Digest defaults
	v.SetDefault("digest.enabled", false)
	v.SetDefault("digest.schedule", "0 8 * * *")
	v.SetDefault("digest.lookback_days", 30)
}

// validateConfig validates the configuration
func validateConfig(config *Config) error {
	if config.JWT.Secret == "" {
		if config.Server.Environment == "development" {
			config.JWT.Secret = "development-jwt-secret-key-change-in-production"
		} else {
			return fmt.Errorf("JWT secret is required in non-development environments")
		}
	}

	if config.JWT.RefreshSecret == "" {
		if config.Server.Environment == "development" {
			config.JWT.RefreshSecret = "development-refresh-secret-key-change-in-production"
		} else {
			return fmt.Errorf("JWT refresh secret is required in non-development environments")
		}
	}

	switch config.Database.Driver {
	case "postgres":
		if config.Database.Password == "" {
			dbPassword := os.Getenv("AQUASCAN_DATABASE_PASSWORD")
			if dbPassword == "" {
				if config.Server.Environment != "development" {
					return fmt.Errorf("database password is required in non-development environments")
				}
			} else {
				config.Database.Password = dbPassword
			}
		}
	case "sqlite":
		if config.Database.Path == "" {
			return fmt.Errorf("database path is required for the sqlite driver")
		}
	default:
		return fmt.Errorf("unsupported database driver %q", config.Database.Driver)
	}

	if config.Analysis.DelayMS < 0 {
		return fmt.Errorf("analysis delay must not be negative")
	}
	if config.Analysis.MaxPayloadBytes <= 0 {
		return fmt.Errorf("analysis max payload size must be positive")
	}
	if config.Analysis.TrendWindowDays <= 0 {
		return fmt.Errorf("analysis trend window must be positive")
	}

	if config.Digest.Enabled && config.Digest.Schedule == "" {
		return fmt.Errorf("digest schedule is required when the digest is enabled")
	}

	return nil
}

// GetDSN returns the database connection string
func (c *DatabaseConfig) GetDSN() string {
	if c.Driver == "sqlite" {
		return c.Path
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s TimeZone=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode, c.TimeZone)
}

// IsProduction returns true if the environment is production
func (c *ServerConfig) IsProduction() bool {
	return c.Environment == "production"
}

// IsDevelopment returns true if the environment is development
func (c *ServerConfig) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsTest returns true if the environment is test
func (c *ServerConfig) IsTest() bool {
	return c.Environment == "test"
}

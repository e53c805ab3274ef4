package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server      ServerConfig
	MongoDB     MongoDBConfig
	Redis       RedisConfig
	JWT         JWTConfig
	VoucherAI   VoucherAIConfig
	LotteryFeed LotteryFeedConfig
	LogLevel    string
}

// ServerConfig holds server-specific configuration
type ServerConfig struct {
	Port            string
	AllowedOrigins  []string
	ShutdownTimeout time.Duration
}

// MongoDBConfig holds MongoDB-specific configuration
type MongoDBConfig struct {
	URI            string
	Database       string
	ConnectTimeout time.Duration
}

// RedisConfig holds the allocation lock store. An empty URL selects the in-process lock.
type RedisConfig struct {
	URL     string
	LockTTL time.Duration
}

// JWTConfig holds JWT-specific configuration
type JWTConfig struct {
	Secret string
}

// VoucherAIConfig holds voucher validation client configuration
type VoucherAIConfig struct {
	BaseURL      string
	APIKey       string
	MockAPI      bool
	MockLatency  time.Duration
	ApprovalRate float64
}

// LotteryFeedConfig holds the external draw source configuration
type LotteryFeedConfig struct {
	URL     string
	MockAPI bool
}

// Load loads and validates the server configuration
func Load() (*Config, error) {
	cfg, err := LoadUnchecked()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadUnchecked loads configuration from environment variables and config
// files without the server checks. Tools that only touch MongoDB use it.
func LoadUnchecked() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		// It's okay if config file is not found, we'll use environment variables
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}
	return &config, nil
}

// Validate checks settings the server cannot start without
func (c *Config) Validate() error {
	if c.JWT.Secret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if c.MongoDB.URI == "" {
		return errors.New("MONGODB_URI is required")
	}
	if c.VoucherAI.ApprovalRate < 0 || c.VoucherAI.ApprovalRate > 1 {
		return errors.New("VOUCHERAI_APPROVALRATE must be between 0 and 1")
	}
	return nil
}

// setDefaults sets default values for configuration
func setDefaults(v *viper.Viper) {
	v.SetDefault("Server.Port", "4000")
	v.SetDefault("Server.AllowedOrigins", []string{"http://localhost:3000"})
	v.SetDefault("Server.ShutdownTimeout", 10*time.Second)
	v.SetDefault("MongoDB.URI", "mongodb://localhost:27017")
	v.SetDefault("MongoDB.Database", "raffle")
	v.SetDefault("MongoDB.ConnectTimeout", 10*time.Second)
	v.SetDefault("Redis.URL", "")
	v.SetDefault("Redis.LockTTL", 30*time.Second)
	v.SetDefault("JWT.Secret", "")
	v.SetDefault("VoucherAI.BaseURL", "")
	v.SetDefault("VoucherAI.APIKey", "")
	v.SetDefault("VoucherAI.MockAPI", true)
	v.SetDefault("VoucherAI.MockLatency", 1500*time.Millisecond)
	v.SetDefault("VoucherAI.ApprovalRate", 0.9)
	v.SetDefault("LotteryFeed.URL", "")
	v.SetDefault("LotteryFeed.MockAPI", true)
	v.SetDefault("LogLevel", "info")
}

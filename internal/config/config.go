// Package config loads runtime settings from defaults, an optional
// hackathon.yaml/json file and HACKATHON_* environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

var validate = validator.New()

type Config struct {
	Data     DataConfig     `mapstructure:"data"`
	Report   ReportConfig   `mapstructure:"report"`
	HTTP     HTTPConfig     `mapstructure:"http"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	S3       S3Config       `mapstructure:"s3"`
	Kafka    KafkaConfig    `mapstructure:"kafka"`
	Log      LogConfig      `mapstructure:"log"`
}

type DataConfig struct {
	Path string `mapstructure:"path" validate:"required"`
}

type ReportConfig struct {
	Path string `mapstructure:"path" validate:"required"`
}

type HTTPConfig struct {
	Addr      string  `mapstructure:"addr" validate:"required"`
	APIToken  string  `mapstructure:"api_token"`
	RateLimit float64 `mapstructure:"rate_limit" validate:"gte=0"`
	RateBurst int     `mapstructure:"rate_burst" validate:"gte=1"`
}

type DatabaseConfig struct {
	URL string `mapstructure:"url"`
}

type RedisConfig struct {
	Addr string `mapstructure:"addr"`
}

type S3Config struct {
	Endpoint  string `mapstructure:"endpoint"`
	Bucket    string `mapstructure:"bucket" validate:"required_with=Endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Region    string `mapstructure:"region" validate:"required"`
}

type KafkaConfig struct {
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic" validate:"required"`
}

type LogConfig struct {
	Level string `mapstructure:"level" validate:"oneof=debug info warn error"`
	File  string `mapstructure:"file"`
}

// legacyEnv keeps the variable names used by existing deployments working.
var legacyEnv = map[string]string{
	"database.url":   "DATABASE_URL",
	"redis.addr":     "REDIS_ADDR",
	"http.api_token": "API_TOKEN",
	"s3.endpoint":    "MINIO_ENDPOINT",
	"s3.bucket":      "MINIO_BUCKET",
	"s3.access_key":  "MINIO_ACCESS_KEY",
	"s3.secret_key":  "MINIO_SECRET_KEY",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("data.path", "HackathonTeams.csv")
	v.SetDefault("report.path", "HackathonReport.txt")
	v.SetDefault("http.addr", ":8000")
	v.SetDefault("http.api_token", "")
	v.SetDefault("http.rate_limit", 20.0)
	v.SetDefault("http.rate_burst", 40)
	v.SetDefault("database.url", "")
	v.SetDefault("redis.addr", "")
	v.SetDefault("s3.endpoint", "")
	v.SetDefault("s3.bucket", "")
	v.SetDefault("s3.access_key", "")
	v.SetDefault("s3.secret_key", "")
	v.SetDefault("s3.region", "us-east-1")
	v.SetDefault("kafka.brokers", []string{})
	v.SetDefault("kafka.topic", "hackathon.teams")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")
}

// Load reads the configuration into v. A nil v gets a fresh instance; the
// CLI passes its own so that bound flags take precedence.
func Load(v *viper.Viper) (*Config, error) {
	if v == nil {
		v = viper.New()
	}
	setDefaults(v)

	v.SetConfigName("hackathon")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	v.SetEnvPrefix("HACKATHON")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, env := range legacyEnv {
		_ = v.BindEnv(key, "HACKATHON_"+strings.ToUpper(strings.ReplaceAll(key, ".", "_")), env)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

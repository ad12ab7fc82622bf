package global

import (
	"fmt"
	"os"

	"github.com/go-redis/redis_rate/v10"
	"gopkg.in/yaml.v3"
)

// Conf global config
var Conf Config

// Global rate limiter (per-client request throttling; the login attempt
// limiter is a separate injected collaborator, see services.LoginLimiter)
var RateLimiter *redis_rate.Limiter

type Config struct {
	Version    string           `yaml:"version"`
	Host       string           `yaml:"host"`
	Port       int              `yaml:"port"`
	Mode       string           `yaml:"mode"` // debug or release
	CorsOrigin []string         `yaml:"corsOrigin"`
	Database   DatabaseConfig   `yaml:"database"`
	Redis      RedisConfig      `yaml:"redis"`
	Queue      Queue            `yaml:"queue"`
	Session    SessionConfig    `yaml:"session"`
	Storage    StorageConfig    `yaml:"storage"`
	Prometheus PrometheusConfig `yaml:"prometheus"`
}

type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

type RedisConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Password string `yaml:"password"`
	Username string `yaml:"username"`
}

type Queue struct {
	Concurrency int `yaml:"concurrency"`
}

type SessionConfig struct {
	DurationHours int  `yaml:"durationHours"`
	SecureCookie  bool `yaml:"secureCookie"`
}

type StorageConfig struct {
	Type   string `yaml:"type"`
	Key    string `yaml:"key"`
	Secret string `yaml:"secret"`
	Bucket string `yaml:"bucket"`
	Region string `yaml:"region"`
	// Endpoint overrides the S3 endpoint (minio and friends); empty for AWS
	Endpoint string `yaml:"endpoint"`
}

type PrometheusConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// LoadConfig reads a yaml configuration file into conf.
func LoadConfig(path string, conf *Config) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(content, conf); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	if conf.Port == 0 {
		conf.Port = 8000
	}
	if conf.Session.DurationHours == 0 {
		conf.Session.DurationHours = 24
	}
	return nil
}

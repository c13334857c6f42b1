// Package config loads the gateway and identity service configuration
// from environment variables into typed sub-configs, using a
// struct-of-structs with a Validate() error method.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
)

// Config is the root configuration for both cmd/gatewayd and
// cmd/identityd; each binary reads only the sub-structs it needs.
type Config struct {
	Broker BrokerConfig
	Store  StoreConfig
	Codec  CodecConfig
	Cache  CacheConfig
	Mail   MailConfig
	Vision VisionConfig
}

type BrokerConfig struct {
	User       string
	Pass       string
	Host       string
	Queue      string
	CertPath   string
	KeyPath    string
	Passphrase string
	CAPath     string
}

type StoreConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	Name     string
}

func (s StoreConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s", s.Username, s.Password, s.Host, s.Port, s.Name)
}

type CodecConfig struct {
	JWTSecret string
}

type CacheConfig struct {
	Host     string
	Port     int
	Password string
}

func (c CacheConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type MailConfig struct {
	Host    string
	Port    int
	User    string
	Pass    string
	URLHost string
	URLPort string
}

type VisionConfig struct {
	Host string
	Port int
}

func (v VisionConfig) Addr() string {
	return fmt.Sprintf("%s:%d", v.Host, v.Port)
}

// Load reads Config from the environment: broker, store, codec, cache
// and mail variable groups, plus vision.
func Load() (*Config, error) {
	cfg := &Config{
		Broker: BrokerConfig{
			User:       os.Getenv("USER"),
			Pass:       os.Getenv("PASS"),
			Host:       os.Getenv("HOST"),
			Queue:      os.Getenv("QUEUE"),
			CertPath:   os.Getenv("CERT_PATH"),
			KeyPath:    os.Getenv("KEY_PATH"),
			Passphrase: os.Getenv("PASSPHRASE"),
			CAPath:     os.Getenv("CA_PATH"),
		},
		Store: StoreConfig{
			Host:     os.Getenv("DB_HOST"),
			Port:     envInt("DB_PORT", 5432),
			Username: os.Getenv("DB_USERNAME"),
			Password: os.Getenv("DB_PASSWORD"),
			Name:     os.Getenv("DB_NAME"),
		},
		Codec: CodecConfig{
			JWTSecret: os.Getenv("JWT_SECRET"),
		},
		Cache: CacheConfig{
			Host:     os.Getenv("REDIS_HOST"),
			Port:     envInt("REDIS_PORT", 6379),
			Password: os.Getenv("REDIS_PASSWORD"),
		},
		Mail: MailConfig{
			Host:    os.Getenv("MAIL_HOST"),
			Port:    envInt("MAIL_PORT", 587),
			User:    os.Getenv("MAIL_USER"),
			Pass:    os.Getenv("MAIL_PASS"),
			URLHost: os.Getenv("URL_HOST"),
			URLPort: os.Getenv("URL_PORT"),
		},
		Vision: VisionConfig{
			Host: os.Getenv("VISION_HOST"),
			Port: envInt("VISION_PORT", 50051),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

// Validate checks the fields every deployment must set regardless of which
// binary is reading Config. No other field is checked, here or by the
// cmds; the remaining sub-configs are passed to their dependencies as
// loaded.
func (c *Config) Validate() error {
	if c.Codec.JWTSecret == "" {
		return errors.New("JWT_SECRET must be set")
	}
	if c.Broker.Queue == "" {
		return errors.New("QUEUE must be set")
	}
	return nil
}

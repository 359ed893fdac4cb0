// Package config loads the relay configuration: defaults, then an optional
// YAML file, then environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/caarlos0/env/v7"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/antqd/emailsender/internal/module"
)

// defaultMaxBodyBytes is 10 MB, enough for a handful of base64 documents.
const defaultMaxBodyBytes = 10 << 20

// Provider names accepted in PROVIDER.
const (
	ProviderSMTP   = "smtp"
	ProviderSES    = "ses"
	ProviderGraph  = "graph"
	ProviderStdout = "stdout"
)

// Legacy variable names still set by older deployments.
const (
	envLegacyUser = "EMAIL_USER"
	envLegacyPass = "EMAIL_PASS"
)

// Config holds the complete application configuration.
type Config struct {
	Provider string        `yaml:"provider" env:"PROVIDER"`
	HTTP     HTTPConfig    `yaml:"http"`
	Mail     MailConfig    `yaml:"mail"`
	SES      SESConfig     `yaml:"ses"`
	Graph    GraphConfig   `yaml:"graph"`
	TLS      TLSConfig     `yaml:"tls"`
	Logging  LoggingConfig `yaml:"logging"`

	// Modules overrides or extends the built-in module table, keyed by
	// module key.
	Modules map[string]module.Descriptor `yaml:"modules"`
}

// HTTPConfig holds the form endpoint listener settings.
type HTTPConfig struct {
	Port         string   `yaml:"port" env:"PORT"`
	MaxBodyBytes int64    `yaml:"max_body_bytes" env:"HTTP_MAX_BODY_BYTES"`
	CORSOrigins  []string `yaml:"cors_origins" env:"CORS_ORIGINS" envSeparator:","`
}

// MailConfig holds the SMTP account. User doubles as the sender address for
// the smtp provider.
type MailConfig struct {
	User     string `yaml:"user" env:"MAIL_USER"`
	Password string `yaml:"password" env:"MAIL_PASS"`
	Host     string `yaml:"host" env:"MAIL_HOST"`
	Port     int    `yaml:"port" env:"MAIL_PORT"`
	FromName string `yaml:"from_name" env:"MAIL_FROM_NAME"`
}

// SESConfig holds AWS SES configuration.
type SESConfig struct {
	Region          string `yaml:"region" env:"SES_REGION"`
	AccessKeyID     string `yaml:"access_key_id" env:"SES_ACCESS_KEY_ID"`
	SecretAccessKey string `yaml:"secret_access_key" env:"SES_SECRET_ACCESS_KEY"`
	Sender          string `yaml:"sender" env:"SES_SENDER"`
}

// GraphConfig holds Microsoft Graph API configuration.
type GraphConfig struct {
	TenantID     string `yaml:"tenant_id" env:"GRAPH_TENANT_ID"`
	ClientID     string `yaml:"client_id" env:"GRAPH_CLIENT_ID"`
	ClientSecret string `yaml:"client_secret" env:"GRAPH_CLIENT_SECRET"`
	Sender       string `yaml:"sender" env:"GRAPH_SENDER"`
}

// TLSConfig controls HTTPS on the listener. With Enabled and no files a
// self-signed certificate is generated.
type TLSConfig struct {
	Enabled      bool   `yaml:"enabled" env:"TLS_ENABLED"`
	CertFile     string `yaml:"cert_file" env:"TLS_CERT_FILE"`
	KeyFile      string `yaml:"key_file" env:"TLS_KEY_FILE"`
	ClientCAFile string `yaml:"client_ca_file" env:"TLS_CLIENT_CA_FILE"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level" env:"LOG_LEVEL"`
	Format string `yaml:"format" env:"LOG_FORMAT"`
}

// LoadEnvFile loads a dotenv file into the process environment without
// overriding variables that are already set. A missing file is not an error.
func LoadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load env file: %w", err)
	}
	return nil
}

// Load builds the configuration from defaults and environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	cfg.applyDefaults()
	if err := cfg.applyEnvVars(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromFile loads a YAML file over the defaults, then applies environment
// variables. Returns an error if the file does not exist.
func LoadFromFile(path string) (*Config, error) {
	cfg := &Config{}
	cfg.applyDefaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.applyEnvVars(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// GraphConfigured returns true if all four Graph API credentials are set.
func (c *Config) GraphConfigured() bool {
	return c.Graph.TenantID != "" &&
		c.Graph.ClientID != "" &&
		c.Graph.ClientSecret != "" &&
		c.Graph.Sender != ""
}

// SESConfigured returns true if the SES region and sender are set.
func (c *Config) SESConfigured() bool {
	return c.SES.Region != "" && c.SES.Sender != ""
}

// SMTPConfigured returns true if the SMTP account is complete.
func (c *Config) SMTPConfigured() bool {
	return c.Mail.User != "" && c.Mail.Password != "" && c.Mail.Host != ""
}

// ResolveProvider returns the provider to use. An explicit PROVIDER wins;
// otherwise the first fully configured one of smtp, graph and ses is picked,
// falling back to stdout.
func (c *Config) ResolveProvider() (string, error) {
	switch c.Provider {
	case ProviderSMTP, ProviderSES, ProviderGraph, ProviderStdout:
		return c.Provider, nil
	case "", "auto":
	default:
		return "", fmt.Errorf("unknown provider %q", c.Provider)
	}

	switch {
	case c.SMTPConfigured():
		return ProviderSMTP, nil
	case c.GraphConfigured():
		return ProviderGraph, nil
	case c.SESConfigured():
		return ProviderSES, nil
	default:
		return ProviderStdout, nil
	}
}

// Sender returns the From address for the given provider.
func (c *Config) Sender(provider string) string {
	switch provider {
	case ProviderSES:
		return c.SES.Sender
	case ProviderGraph:
		return c.Graph.Sender
	default:
		return c.Mail.User
	}
}

// ListenAddr returns the HTTP listen address.
func (c *Config) ListenAddr() string {
	if strings.Contains(c.HTTP.Port, ":") {
		return c.HTTP.Port
	}
	return ":" + c.HTTP.Port
}

func (c *Config) applyDefaults() {
	c.HTTP.Port = "3001"
	c.HTTP.MaxBodyBytes = defaultMaxBodyBytes
	c.HTTP.CORSOrigins = []string{"*"}
	c.Mail.Host = "smtp.gmail.com"
	c.Mail.Port = 465
	c.Mail.FromName = "Energy Planner"
	c.Logging.Level = "info"
	c.Logging.Format = "json"
}

// applyEnvVars overrides configuration with environment variable values.
// Only non-empty environment variables override existing values.
func (c *Config) applyEnvVars() error {
	if err := env.Parse(c); err != nil {
		return fmt.Errorf("failed to parse environment: %w", err)
	}

	if os.Getenv("MAIL_USER") == "" {
		if v := os.Getenv(envLegacyUser); v != "" {
			c.Mail.User = v
		}
	}
	if os.Getenv("MAIL_PASS") == "" {
		if v := os.Getenv(envLegacyPass); v != "" {
			c.Mail.Password = v
		}
	}

	c.Provider = strings.ToLower(strings.TrimSpace(c.Provider))
	c.Logging.Level = strings.ToLower(c.Logging.Level)
	c.Logging.Format = strings.ToLower(c.Logging.Format)
	return nil
}

package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/turtacn/sfauth/pkg/constants"
)

// Config holds the application's configuration.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Vault      VaultConfig      `mapstructure:"vault"`
	Kafka      KafkaConfig      `mapstructure:"kafka"`
	Salesforce SalesforceConfig `mapstructure:"salesforce"`
	Crypto     CryptoConfig     `mapstructure:"crypto"`
	Log        LogConfig        `mapstructure:"log"`
	Tracing    TracingConfig    `mapstructure:"tracing"`
}

type ServerConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	GRPCPort     int    `mapstructure:"grpc_port"`
	ReadTimeout  int    `mapstructure:"read_timeout"`  // in seconds
	WriteTimeout int    `mapstructure:"write_timeout"` // in seconds
}

type DatabaseConfig struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	Database        string `mapstructure:"database"`
	SSLMode         string `mapstructure:"ssl_mode"`
	MaxConns        int    `mapstructure:"max_conns"`
	MinConns        int    `mapstructure:"min_conns"`
	MaxConnLifetime int    `mapstructure:"max_conn_lifetime"`  // in minutes
	MaxConnIdleTime int    `mapstructure:"max_conn_idle_time"` // in minutes
}

func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode)
}

type RedisConfig struct {
	Address      string `mapstructure:"address"`
	Password     string `mapstructure:"password"`
	DB           int    `mapstructure:"db"`
	PoolSize     int    `mapstructure:"pool_size"`
	MinIdleConns int    `mapstructure:"min_idle_conns"`
}

type VaultConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Address   string `mapstructure:"address"`
	Token     string `mapstructure:"token"`
	MountPath string `mapstructure:"mount_path"`
	KeyName   string `mapstructure:"key_name"`
}

type KafkaConfig struct {
	Enabled bool     `mapstructure:"enabled"`
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

// SalesforceConfig carries the org connection settings and the registered
// OAuth2 connected-app credentials.
type SalesforceConfig struct {
	// OrgEnvironment selects the login host: production, sandbox, or custom.
	OrgEnvironment string `mapstructure:"org_environment"`

	// CustomEndpoint is the My Domain base URL, required when
	// OrgEnvironment is "custom".
	CustomEndpoint string `mapstructure:"custom_endpoint"`

	// APIVersion is the Salesforce API version used for SOAP endpoints.
	APIVersion string `mapstructure:"api_version"`

	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
	RedirectURI  string `mapstructure:"redirect_uri"`

	// CLIBinary is the Salesforce CLI executable name or path.
	CLIBinary string `mapstructure:"cli_binary"`

	// SessionTimeoutSeconds bounds how long a login session stays usable.
	SessionTimeoutSeconds int `mapstructure:"session_timeout_seconds"`

	ConnectTimeout int `mapstructure:"connect_timeout"` // in seconds
	ReadTimeout    int `mapstructure:"read_timeout"`    // in seconds
}

// BaseEndpoint resolves the login host for the configured environment.
func (c *SalesforceConfig) BaseEndpoint() (string, error) {
	return ResolveEndpoint(constants.OrgEnvironment(c.OrgEnvironment), c.CustomEndpoint)
}

// ResolveEndpoint maps an org environment onto its login base URL.
func ResolveEndpoint(orgEnvironment constants.OrgEnvironment, customEndpoint string) (string, error) {
	switch orgEnvironment {
	case constants.OrgEnvironmentProduction, "":
		return constants.ProductionLoginHost, nil
	case constants.OrgEnvironmentSandbox:
		return constants.SandboxLoginHost, nil
	case constants.OrgEnvironmentCustom:
		if customEndpoint == "" {
			return "", fmt.Errorf("custom endpoint is required for custom org environment")
		}
		return strings.TrimRight(customEndpoint, "/"), nil
	default:
		return "", fmt.Errorf("unknown org environment: %s", orgEnvironment)
	}
}

// SessionTimeout returns the configured session lifetime as a duration.
func (c *SalesforceConfig) SessionTimeout() time.Duration {
	if c.SessionTimeoutSeconds <= 0 {
		return time.Duration(constants.DefaultSessionTimeoutSeconds) * time.Second
	}
	return time.Duration(c.SessionTimeoutSeconds) * time.Second
}

// ConnectTimeoutDuration returns the outbound connect timeout.
func (c *SalesforceConfig) ConnectTimeoutDuration() time.Duration {
	if c.ConnectTimeout <= 0 {
		return constants.ConnectTimeout
	}
	return time.Duration(c.ConnectTimeout) * time.Second
}

// ReadTimeoutDuration returns the outbound read timeout.
func (c *SalesforceConfig) ReadTimeoutDuration() time.Duration {
	if c.ReadTimeout <= 0 {
		return constants.ReadTimeout
	}
	return time.Duration(c.ReadTimeout) * time.Second
}

// CryptoConfig carries the AES key used to encrypt credentials at rest when
// Vault is disabled. The key must decode to 32 bytes.
type CryptoConfig struct {
	EncryptionKey string `mapstructure:"encryption_key"`
}

type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputPath string `mapstructure:"output_path"`
}

type TracingConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	JaegerEndpoint string `mapstructure:"jaeger_endpoint"`
	ServiceName    string `mapstructure:"service_name"`
}

// Validate checks for essential configuration values.
func (c *Config) Validate() error {
	if _, err := c.Salesforce.BaseEndpoint(); err != nil {
		return err
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka is enabled but no brokers are configured")
	}
	if c.Vault.Enabled && c.Vault.Address == "" {
		return fmt.Errorf("vault is enabled but no address is configured")
	}
	return nil
}

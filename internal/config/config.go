package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/cyclebill/cyclebill/internal/types"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

type Configuration struct {
	Deployment     DeploymentConfig     `validate:"required"`
	Server         ServerConfig         `validate:"required"`
	Postgres       PostgresConfig       `validate:"required"`
	Logging        LoggingConfig        `validate:"required"`
	Reconciliation ReconciliationConfig `validate:"required"`
	Provisioning   ProvisioningConfig
	Email          EmailConfig
	Webhook        WebhookConfig
}

type DeploymentConfig struct {
	Mode types.RunMode `validate:"required"`
}

type ServerConfig struct {
	Address string `validate:"required"`
	// APIKey guards the cron endpoints; empty disables the check.
	APIKey string
}

type PostgresConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type LoggingConfig struct {
	Level types.LogLevel `validate:"required"`
}

// ReconciliationConfig carries the windows of the reconciliation run. A
// non-positive value falls back to the default of 7 days.
type ReconciliationConfig struct {
	GraceDays         int
	RenewalWindowDays int
	LogRetentionDays  int
	// Schedule is an optional cron expression; when set the server runs the
	// reconciliation job on that schedule in-process.
	Schedule string
}

type ProvisioningConfig struct {
	BaseURL string
	APIKey  string
}

type EmailConfig struct {
	Enabled     bool
	APIKey      string
	FromAddress string
}

type WebhookConfig struct {
	Enabled  bool
	Topic    string
	Endpoint string
}

func NewConfig() (*Configuration, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./internal/config")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/cyclebill")

	v.SetEnvPrefix("CYCLEBILL")
	v.SetEnvKeyReplacer(strings.NewReplacer(
		".", "_",
		"-", "_",
	))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		fmt.Printf("Error reading config file: %v\n", err)
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, err
		}
	}

	var config Configuration
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func (c Configuration) Validate() error {
	validate := validator.New()
	return validate.Struct(c)
}

// GetDefaultConfig returns a default configuration for local development
// This is useful for running scripts or other non-web applications
func GetDefaultConfig() *Configuration {
	return &Configuration{
		Deployment: DeploymentConfig{Mode: types.ModeLocal},
		Server:     ServerConfig{Address: ":8080"},
		Logging:    LoggingConfig{Level: types.LogLevelDebug},
		Reconciliation: ReconciliationConfig{
			GraceDays:         types.DefaultGraceDays,
			RenewalWindowDays: types.DefaultRenewalWindowDays,
			LogRetentionDays:  types.DefaultLogRetentionDays,
		},
		Webhook: WebhookConfig{Topic: "webhooks"},
	}
}

func (c PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"user=%s password=%s dbname=%s host=%s port=%d sslmode=%s",
		c.User,
		c.Password,
		c.DBName,
		c.Host,
		c.Port,
		c.SSLMode,
	)
}

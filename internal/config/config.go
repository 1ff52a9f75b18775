// Package config builds the job configuration from environment
// variables (which main populates from an optional .env file).
package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/BartekS5/order-etl/pkg/etlerr"
)

// Endpoint holds the connection settings for one database.
type Endpoint struct {
	Host           string
	Port           int
	Name           string
	User           string
	Password       string
	ConnectTimeout time.Duration
	// Options is the driver-specific transport setting: sslmode for
	// Postgres, encrypt for SQL Server.
	Options string
}

// Address returns host:port.
func (e Endpoint) Address() string {
	return fmt.Sprintf("%s:%d", e.Host, e.Port)
}

// Logging configures the zap logger.
type Logging struct {
	Level    string
	Encoding string
}

// Metrics configures the optional Pushgateway report.
type Metrics struct {
	PushgatewayURL string
	JobName        string
}

// Config holds all configuration for a run. It is built once at
// process entry and passed down explicitly.
type Config struct {
	Source           Endpoint
	Destination      Endpoint
	AcceptedStatuses []string
	Logging          Logging
	Metrics          Metrics
}

const (
	defaultSourceTimeout      = 10 * time.Second
	defaultDestinationTimeout = 15 * time.Second
)

// LoadConfig reads the job settings from the environment. Every missing
// required setting is reported in a single configuration error.
func LoadConfig() (*Config, error) {
	var missing []string
	required := func(key string) string {
		v := strings.TrimSpace(getEnv(key, ""))
		if v == "" {
			missing = append(missing, key)
		}
		return v
	}

	srcHost := required("EXT_DB_HOST")
	srcPort := required("EXT_DB_PORT")
	srcName := required("EXT_DB_NAME")
	srcUser := required("EXT_DB_USER")
	srcPass := required("EXT_DB_PASSWORD")

	dstHost := required("INT_DB_HOST")
	dstPort := required("INT_DB_PORT")
	dstName := required("INT_DB_NAME")
	dstUser := required("INT_DB_USER")
	dstPass := required("INT_DB_PASSWORD")

	if len(missing) > 0 {
		return nil, etlerr.Configuration(
			"missing required environment variables: "+strings.Join(missing, ", "),
			etlerr.WithDetail("missing", missing),
		)
	}

	sp, err := parsePort("EXT_DB_PORT", srcPort)
	if err != nil {
		return nil, err
	}
	dp, err := parsePort("INT_DB_PORT", dstPort)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Source: Endpoint{
			Host:           srcHost,
			Port:           sp,
			Name:           srcName,
			User:           srcUser,
			Password:       srcPass,
			ConnectTimeout: getEnvAsDuration("EXT_DB_CONNECT_TIMEOUT", defaultSourceTimeout),
			Options:        getEnv("EXT_DB_SSLMODE", "prefer"),
		},
		Destination: Endpoint{
			Host:           dstHost,
			Port:           dp,
			Name:           dstName,
			User:           dstUser,
			Password:       dstPass,
			ConnectTimeout: getEnvAsDuration("INT_DB_CONNECT_TIMEOUT", defaultDestinationTimeout),
			Options:        getEnv("INT_DB_ENCRYPT", "disable"),
		},
		AcceptedStatuses: getEnvAsStringSlice("ETL_ACCEPTED_STATUSES", []string{"confirmed"}),
		Logging: Logging{
			Level:    strings.ToLower(strings.TrimSpace(getEnv("ETL_LOG_LEVEL", "info"))),
			Encoding: strings.ToLower(strings.TrimSpace(getEnv("ETL_LOG_ENCODING", "json"))),
		},
		Metrics: Metrics{
			PushgatewayURL: strings.TrimSpace(getEnv("ETL_PUSHGATEWAY_URL", "")),
			JobName:        getEnv("ETL_JOB_NAME", "order-etl"),
		},
	}

	if cfg.Source.ConnectTimeout <= 0 {
		cfg.Source.ConnectTimeout = defaultSourceTimeout
	}
	if cfg.Destination.ConnectTimeout <= 0 {
		cfg.Destination.ConnectTimeout = defaultDestinationTimeout
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	switch cfg.Logging.Encoding {
	case "json", "console":
	default:
		cfg.Logging.Encoding = "json"
	}
	if cfg.Metrics.JobName == "" {
		cfg.Metrics.JobName = "order-etl"
	}

	return cfg, nil
}

func parsePort(key, value string) (int, error) {
	port, err := strconv.Atoi(value)
	if err != nil || port <= 0 || port > 65535 {
		return 0, etlerr.Configuration(fmt.Sprintf("invalid %s: %q", key, value))
	}
	return port, nil
}

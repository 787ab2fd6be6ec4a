package observability

import (
	"strings"
	"time"

	"github.com/smallbiznis/warrantyhub/internal/config"
)

const (
	defaultServiceName   = "warrantyhub"
	defaultSlowQuery     = 200 * time.Millisecond
	defaultSamplingRatio = 0.1
)

// Config is the normalized observability view of the application config.
type Config struct {
	ServiceName string
	Environment string
	Version     string

	LogLevel  string
	LogFormat string

	OtelEnabled          bool
	OtelExporterEndpoint string
	OtelExporterProtocol string
	OtelSamplingRatio    float64

	// SlowQuery is the duration after which gorm statements log at warn.
	SlowQuery time.Duration
}

func LoadConfig(cfg config.Config) Config {
	obs := cfg.Observability

	serviceName := strings.TrimSpace(cfg.AppName)
	if serviceName == "" {
		serviceName = defaultServiceName
	}
	ratio := obs.SamplingRatio
	if ratio < 0 || ratio > 1 {
		ratio = defaultSamplingRatio
	}
	slow := time.Duration(obs.SlowQueryMillis) * time.Millisecond
	if slow <= 0 {
		slow = defaultSlowQuery
	}

	return Config{
		ServiceName:          serviceName,
		Environment:          strings.TrimSpace(cfg.Environment),
		Version:              strings.TrimSpace(cfg.AppVersion),
		LogLevel:             lower(obs.LogLevel, "info"),
		LogFormat:            lower(obs.LogFormat, "json"),
		OtelEnabled:          obs.OtelEnabled,
		OtelExporterEndpoint: strings.TrimSpace(cfg.OTLPEndpoint),
		OtelExporterProtocol: lower(obs.OtelProtocol, "grpc"),
		OtelSamplingRatio:    ratio,
		SlowQuery:            slow,
	}
}

// Debug turns on development logging for debug level or non-production
// environments.
func (c Config) Debug() bool {
	if strings.EqualFold(strings.TrimSpace(c.LogLevel), "debug") {
		return true
	}
	switch strings.ToLower(strings.TrimSpace(c.Environment)) {
	case "dev", "development", "local", "test":
		return true
	default:
		return false
	}
}

func lower(value, def string) string {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "" {
		return def
	}
	return value
}

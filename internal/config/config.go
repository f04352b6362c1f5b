package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config represents the complete application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server" envconfig:"SERVER"`
	Source    SourceConfig    `yaml:"source" envconfig:"SOURCE"`
	Security  SecurityConfig  `yaml:"security" envconfig:"SECURITY"`
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Report    ReportConfig    `yaml:"report" envconfig:"REPORT"`
	Telemetry TelemetryConfig `yaml:"telemetry" envconfig:"TELEMETRY"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Host            string        `yaml:"host" envconfig:"HOST"`
	Port            int           `yaml:"port" envconfig:"PORT"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT"`
	MaxHeaderBytes  int           `yaml:"max_header_bytes" envconfig:"MAX_HEADER_BYTES"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT"`
	RequestTimeout  time.Duration `yaml:"request_timeout" envconfig:"REQUEST_TIMEOUT"`
}

// Addr returns the listen address
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// SourceConfig selects and tunes the survey data source
type SourceConfig struct {
	Kind            string        `yaml:"kind" envconfig:"KIND"`
	URL             string        `yaml:"url" envconfig:"URL"`
	Timeout         time.Duration `yaml:"timeout" envconfig:"TIMEOUT"`
	CacheTTL        time.Duration `yaml:"cache_ttl" envconfig:"CACHE_TTL"`
	RetryAttempts   int           `yaml:"retry_attempts" envconfig:"RETRY_ATTEMPTS"`
	RetryDelay      time.Duration `yaml:"retry_delay" envconfig:"RETRY_DELAY"`
	SheetID         string        `yaml:"sheet_id" envconfig:"SHEET_ID"`
	SheetRange      string        `yaml:"sheet_range" envconfig:"SHEET_RANGE"`
	APIKey          string        `yaml:"api_key" envconfig:"API_KEY"`
	CredentialsFile string        `yaml:"credentials_file" envconfig:"CREDENTIALS_FILE"`
}

// SecurityConfig contains security-related configuration
type SecurityConfig struct {
	AllowedOrigins []string        `yaml:"allowed_origins" envconfig:"ALLOWED_ORIGINS"`
	EnableCORS     bool            `yaml:"enable_cors" envconfig:"ENABLE_CORS"`
	RateLimit      RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
}

// RateLimitConfig contains rate limiting configuration
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED"`
	RPS     float64 `yaml:"rps" envconfig:"RPS"`
	Burst   int     `yaml:"burst" envconfig:"BURST"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level       string `yaml:"level" envconfig:"LEVEL"`
	Format      string `yaml:"format" envconfig:"FORMAT"`
	Output      string `yaml:"output" envconfig:"OUTPUT"`
	FilePath    string `yaml:"file_path" envconfig:"FILE_PATH"`
	Development bool   `yaml:"development" envconfig:"DEVELOPMENT"`
}

// ReportConfig tunes the PDF report and the statistics page
type ReportConfig struct {
	Title          string   `yaml:"title" envconfig:"TITLE"`
	ExcludedPrefix string   `yaml:"excluded_prefix" envconfig:"EXCLUDED_PREFIX"`
	ProfileFields  []string `yaml:"profile_fields" envconfig:"PROFILE_FIELDS"`
	AgeField       string   `yaml:"age_field" envconfig:"AGE_FIELD"`
	Timezone       string   `yaml:"timezone" envconfig:"TIMEZONE"`
	Compress       bool     `yaml:"compress" envconfig:"COMPRESS"`
}

// Location resolves the report timezone
func (r ReportConfig) Location() (*time.Location, error) {
	if r.Timezone == "" || strings.EqualFold(r.Timezone, "local") {
		return time.Local, nil
	}
	return time.LoadLocation(r.Timezone)
}

// TelemetryConfig contains OpenTelemetry configuration
type TelemetryConfig struct {
	Environment    string  `yaml:"environment" envconfig:"ENVIRONMENT"`
	TraceExporter  string  `yaml:"trace_exporter" envconfig:"TRACE_EXPORTER"`
	MetricExporter string  `yaml:"metric_exporter" envconfig:"METRIC_EXPORTER"`
	SampleRatio    float64 `yaml:"sample_ratio" envconfig:"SAMPLE_RATIO"`
}

// Load layers defaults, the optional YAML file and environment variables
func Load() (*Config, error) {
	cfg := Default()

	if configFile := getConfigFilePath(); configFile != "" {
		if err := loadFromFile(configFile, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file %s: %w", configFile, err)
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// loadFromFile overlays the YAML file on cfg; keys absent from the file keep
// their current value.
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// Validate checks ranges and normalizes enumerations
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("invalid server port: %d", c.Server.Port))
	}
	if c.Server.ReadTimeout <= 0 {
		errs = append(errs, errors.New("server read timeout must be positive"))
	}
	if c.Server.WriteTimeout <= 0 {
		errs = append(errs, errors.New("server write timeout must be positive"))
	}

	c.Source.Kind = strings.ToLower(strings.TrimSpace(c.Source.Kind))
	switch c.Source.Kind {
	case SourceCSV:
		if u, err := url.Parse(c.Source.URL); err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, fmt.Errorf("invalid source url: %q", c.Source.URL))
		}
	case SourceSheets:
		if c.Source.SheetID == "" {
			errs = append(errs, errors.New("sheets source requires a sheet id"))
		}
		if c.Source.SheetRange == "" {
			errs = append(errs, errors.New("sheets source requires a range"))
		}
	default:
		errs = append(errs, fmt.Errorf("unsupported source kind: %q", c.Source.Kind))
	}
	if c.Source.Timeout <= 0 {
		errs = append(errs, errors.New("source timeout must be positive"))
	}
	if c.Source.CacheTTL < 0 {
		errs = append(errs, errors.New("cache ttl must not be negative"))
	}
	if c.Source.RetryAttempts < 1 {
		c.Source.RetryAttempts = 1
	}

	if c.Security.EnableCORS && len(c.Security.AllowedOrigins) == 0 {
		errs = append(errs, errors.New("at least one allowed origin must be specified"))
	}
	if c.Security.RateLimit.Enabled && (c.Security.RateLimit.RPS <= 0 || c.Security.RateLimit.Burst <= 0) {
		errs = append(errs, errors.New("rate limit rps and burst must be positive"))
	}

	switch c.Logging.Output {
	case "console", "file", "both":
	default:
		c.Logging.Output = "console"
	}
	if c.Logging.Output != "console" && c.Logging.FilePath == "" {
		c.Logging.FilePath = "logs/app.log"
	}

	if _, err := c.Report.Location(); err != nil {
		errs = append(errs, fmt.Errorf("invalid report timezone %q: %w", c.Report.Timezone, err))
	}

	if c.Telemetry.SampleRatio < 0 || c.Telemetry.SampleRatio > 1 {
		errs = append(errs, fmt.Errorf("sample ratio must be within [0, 1]: %v", c.Telemetry.SampleRatio))
	}

	return errors.Join(errs...)
}

// getConfigFilePath returns the path to the config file, or "" when none exists
func getConfigFilePath() string {
	if explicit := os.Getenv(ConfigFileEnv); explicit != "" {
		return explicit
	}

	locations := []string{
		"config.yaml",
		"configs/config.yaml",
	}
	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}
	return ""
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    60 * time.Second,
			IdleTimeout:     60 * time.Second,
			MaxHeaderBytes:  1 << 20, // 1MB
			ShutdownTimeout: 30 * time.Second,
			RequestTimeout:  45 * time.Second,
		},
		Source: SourceConfig{
			Kind:          SourceCSV,
			URL:           DefaultSourceURL,
			Timeout:       DefaultSourceTimeout,
			CacheTTL:      DefaultCacheTTL,
			RetryAttempts: DefaultRetryAttempts,
			RetryDelay:    DefaultRetryDelay,
			SheetRange:    "A:ZZ",
		},
		Security: SecurityConfig{
			AllowedOrigins: []string{"http://localhost:8080"},
			EnableCORS:     true,
			RateLimit: RateLimitConfig{
				Enabled: true,
				RPS:     20,
				Burst:   40,
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "console",
		},
		Report: ReportConfig{
			Title:          DefaultReportTitle,
			ExcludedPrefix: "p",
			AgeField:       "idade",
			Timezone:       "America/Recife",
		},
		Telemetry: TelemetryConfig{
			Environment:    "development",
			TraceExporter:  "none",
			MetricExporter: "prometheus",
			SampleRatio:    1.0,
		},
	}
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chdirTemp isolates Load from config files in the working directory
func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	return dir
}

// TestLoad tests the Load function with various scenarios
func TestLoad(t *testing.T) {
	tests := []struct {
		name        string
		env         map[string]string
		file        string
		wantErr     string
		validateCfg func(*testing.T, *Config)
	}{
		{
			name: "defaults with no env vars",
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 8080, cfg.Server.Port)
				assert.Equal(t, SourceCSV, cfg.Source.Kind)
				assert.Equal(t, DefaultSourceURL, cfg.Source.URL)
				assert.Equal(t, 120*time.Second, cfg.Source.CacheTTL)
				assert.Equal(t, 15*time.Second, cfg.Source.Timeout)
				assert.Equal(t, 2, cfg.Source.RetryAttempts)
				assert.Equal(t, "p", cfg.Report.ExcludedPrefix)
				assert.Equal(t, "idade", cfg.Report.AgeField)
			},
		},
		{
			name: "environment overrides",
			env: map[string]string{
				"MENTE_SERVER_PORT":              "9090",
				"MENTE_SOURCE_CACHE_TTL":         "30s",
				"MENTE_SECURITY_ALLOWED_ORIGINS": "http://a.test,http://b.test",
				"MENTE_SECURITY_RATE_LIMIT_RPS":  "5",
				"MENTE_REPORT_PROFILE_FIELDS":    "gênero,cidade",
				"MENTE_LOGGING_LEVEL":            "debug",
			},
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 9090, cfg.Server.Port)
				assert.Equal(t, 30*time.Second, cfg.Source.CacheTTL)
				assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.Security.AllowedOrigins)
				assert.Equal(t, 5.0, cfg.Security.RateLimit.RPS)
				assert.Equal(t, []string{"gênero", "cidade"}, cfg.Report.ProfileFields)
				assert.Equal(t, "debug", cfg.Logging.Level)
			},
		},
		{
			name: "yaml file below environment",
			file: "server:\n  port: 7000\nsource:\n  cache_ttl: 1m\nreport:\n  title: Outro\n",
			env:  map[string]string{"MENTE_SERVER_PORT": "7001"},
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 7001, cfg.Server.Port)
				assert.Equal(t, time.Minute, cfg.Source.CacheTTL)
				assert.Equal(t, "Outro", cfg.Report.Title)
				assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout, "keys absent from the file keep defaults")
			},
		},
		{
			name: "sheets source",
			env: map[string]string{
				"MENTE_SOURCE_KIND":     "Sheets",
				"MENTE_SOURCE_SHEET_ID": "abc",
			},
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, SourceSheets, cfg.Source.Kind)
				assert.Equal(t, "A:ZZ", cfg.Source.SheetRange)
			},
		},
		{
			name:    "invalid port",
			env:     map[string]string{"MENTE_SERVER_PORT": "70000"},
			wantErr: "invalid server port",
		},
		{
			name:    "unparsable duration",
			env:     map[string]string{"MENTE_SOURCE_TIMEOUT": "soon"},
			wantErr: "failed to load config from env",
		},
		{
			name:    "sheets without id",
			env:     map[string]string{"MENTE_SOURCE_KIND": "sheets"},
			wantErr: "sheet id",
		},
		{
			name:    "unknown source kind",
			env:     map[string]string{"MENTE_SOURCE_KIND": "ftp"},
			wantErr: "unsupported source kind",
		},
		{
			name:    "invalid yaml",
			file:    "server: [",
			wantErr: "failed to load config from file",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := chdirTemp(t)
			if tt.file != "" {
				path := filepath.Join(dir, "config.yaml")
				require.NoError(t, os.WriteFile(path, []byte(tt.file), 0o644))
			}
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			cfg, err := Load()
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			tt.validateCfg(t, cfg)
		})
	}
}

func TestLoad_ExplicitFile(t *testing.T) {
	dir := chdirTemp(t)
	path := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 8181\n"), 0o644))
	t.Setenv(ConfigFileEnv, path)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 8181, cfg.Server.Port)
}

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, ":8080", cfg.Server.Addr())
}

func TestValidate_NormalizesLogging(t *testing.T) {
	cfg := Default()
	cfg.Logging.Output = "syslog"
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "console", cfg.Logging.Output)

	cfg.Logging.Output = "both"
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "logs/app.log", cfg.Logging.FilePath)
}

func TestValidate_CollectsErrors(t *testing.T) {
	cfg := Default()
	cfg.Server.Port = 0
	cfg.Source.Timeout = 0
	cfg.Report.Timezone = "Mars/Olympus"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid server port")
	assert.Contains(t, err.Error(), "source timeout")
	assert.Contains(t, err.Error(), "timezone")
}

func TestReportLocation(t *testing.T) {
	loc, err := ReportConfig{Timezone: "America/Recife"}.Location()
	require.NoError(t, err)
	assert.Equal(t, "America/Recife", loc.String())

	loc, err = ReportConfig{}.Location()
	require.NoError(t, err)
	assert.Equal(t, time.Local, loc)
}

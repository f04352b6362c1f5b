package config

import "time"

// Application constants
const (
	AppName    = "Mente Digital"
	AppVersion = "1.2.0"

	// EnvPrefix namespaces every environment variable, e.g. MENTE_SERVER_PORT
	EnvPrefix = "MENTE"
	// ConfigFileEnv points at an explicit YAML configuration file
	ConfigFileEnv = "MENTE_CONFIG_FILE"

	DefaultSourceURL     = "https://docs.google.com/spreadsheets/d/1M0YOy5YtE7BgeD45BAzVBXZCIGtAfdkonv0rHlri9sg/export?format=csv&gid=898962914"
	DefaultSourceTimeout = 15 * time.Second
	DefaultCacheTTL      = 120 * time.Second
	DefaultRetryAttempts = 2
	DefaultRetryDelay    = 500 * time.Millisecond

	DefaultReportTitle = "Mente Digital - Relatório de Estatísticas"
)

// Source kinds
const (
	SourceCSV    = "csv"
	SourceSheets = "sheets"
)

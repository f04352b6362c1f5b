// Package config loads the dashboard configuration.
//
// # Configuration Sources
//
// Configuration is layered, later sources overriding earlier ones:
//
//	1. Default values
//	2. YAML file (MENTE_CONFIG_FILE, config.yaml or configs/config.yaml)
//	3. Environment variables (highest priority)
//
// # Environment Variables
//
// All environment variables follow the pattern MENTE_<SECTION>_<FIELD>:
//
//	MENTE_SERVER_PORT=8080
//	MENTE_SOURCE_URL=https://docs.google.com/spreadsheets/d/.../export?format=csv
//	MENTE_SOURCE_CACHE_TTL=2m
//	MENTE_LOGGING_LEVEL=debug
//	MENTE_REPORT_TIMEZONE=America/Recife
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// Tests use config.Default(), which needs no environment or files.
package config

// Package app wires the dashboard together and manages its lifecycle.
//
// NewApplication builds, in order: the slog logger, the OpenTelemetry
// providers and dashboard metrics, the survey source with its loader and
// snapshot cache, the PDF renderer, the survey and health services, and
// finally the chi router and HTTP server.
//
// # Routes
//
//	/api/survey/...   JSON API, PDF report and CSV/XLSX exports
//	/api/health/...   health, readiness and liveness
//	/api/version      build information
//	/metrics          Prometheus scrape endpoint
//	/, /consultar, /estatisticas, /dados, /relatorio.pdf   HTML pages
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    return err
//	}
//	application, err := app.NewApplication(cfg)
//	if err != nil {
//	    return err
//	}
//	return application.Run()
//
// Run blocks until SIGINT or SIGTERM, then shuts the server down within
// the configured shutdown timeout and flushes telemetry. Errors are
// returned to the caller; the package never calls os.Exit.
package app

// Package services implements the business logic of the dashboard. It sits
// between the HTTP handlers and the data pipeline: handlers never touch the
// source cache or the survey tables directly.
//
// # Services
//
//	- SurveyService: serves the cached snapshot through the cleaning and
//	  aggregation pipeline, renders the PDF report and writes exports
//	- HealthService: liveness, readiness and version information
//
// # Snapshots
//
// Every request works on one snapshot of the source cache. The snapshot is
// cleaned once (normalized text, integer ages) and the cleaned table is
// reused until the cache hands out a new snapshot:
//
//	snap := svc.Snapshot(ctx)
//	freq, err := svc.Frequency(ctx, "gênero")
//
// # Error Handling
//
// Services return sentinel errors that the transport layer maps to RFC 7807
// problems with errors.Is:
//
//	- ErrNoData when the snapshot is empty
//	- survey.ErrFieldNotFound for unknown fields
//	- survey.ErrNoValidData, survey.ErrInsufficientData and
//	  survey.ErrNotBinary from the aggregations
//
// Errors are wrapped with fmt.Errorf and %w so the sentinels survive.
//
// # Testing
//
// Services depend on small interfaces (SnapshotProvider, ReportRenderer) so
// tests can drive them with fakes or testify mocks instead of a live source.
package services

package services

import (
	"context"
	"log/slog"
	"runtime"
	"time"
)

// SnapshotStatus reports the state of the survey snapshot. *SurveyService
// implements it.
type SnapshotStatus interface {
	Snapshot(ctx context.Context) DataSnapshot
}

// BuildInfo identifies the running binary
type BuildInfo struct {
	Version   string
	Commit    string
	BuildTime string
}

// HealthService provides health check functionality
type HealthService struct {
	build     BuildInfo
	data      SnapshotStatus
	startTime time.Time
	now       func() time.Time
	logger    *slog.Logger
}

// HealthStatus represents the health status response
type HealthStatus struct {
	Status    string                   `json:"status"`
	Timestamp time.Time                `json:"timestamp"`
	Version   string                   `json:"version"`
	Runtime   map[string]interface{}   `json:"runtime,omitempty"`
	Services  map[string]ServiceHealth `json:"services,omitempty"`
}

// ServiceHealth represents individual service health
type ServiceHealth struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Rows    int    `json:"rows,omitempty"`
}

// Health states
const (
	StatusOK       = "ok"
	StatusReady    = "ready"
	StatusNotReady = "not_ready"
	StatusAlive    = "alive"
)

// NewHealthService creates a health service. data may be nil, in which
// case readiness only reflects the process.
func NewHealthService(build BuildInfo, data SnapshotStatus, logger *slog.Logger) *HealthService {
	if logger == nil {
		logger = slog.Default()
	}
	if build.Version == "" {
		build.Version = "dev"
	}

	logger.Info("HealthService initialized",
		slog.String("version", build.Version),
		slog.String("commit", build.Commit),
		slog.String("build_time", build.BuildTime))

	return &HealthService{
		build:     build,
		data:      data,
		startTime: time.Now(),
		now:       time.Now,
		logger:    logger.With(slog.String("component", "health_service")),
	}
}

// HealthCheck returns overall health status
func (hs *HealthService) HealthCheck(ctx context.Context) HealthStatus {
	hs.logger.DebugContext(ctx, "HealthCheck: performing health check",
		slog.String("uptime", hs.now().Sub(hs.startTime).String()))

	return HealthStatus{
		Status:    StatusOK,
		Timestamp: hs.now(),
		Version:   hs.build.Version,
	}
}

// ReadinessCheck is ready when the last snapshot came from a successful
// fetch. An empty survey with a healthy source is still ready.
func (hs *HealthService) ReadinessCheck(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:    StatusReady,
		Timestamp: hs.now(),
		Version:   hs.build.Version,
		Services:  map[string]ServiceHealth{},
	}
	if hs.data == nil {
		return status
	}

	data := hs.checkDataHealth(ctx)
	status.Services["survey_source"] = data
	if data.Status != StatusReady {
		status.Status = StatusNotReady
	}
	return status
}

func (hs *HealthService) checkDataHealth(ctx context.Context) ServiceHealth {
	snap := hs.data.Snapshot(ctx)
	if snap.Warning != "" {
		hs.logger.WarnContext(ctx, "Survey source not ready", slog.String("warning", snap.Warning))
		return ServiceHealth{Status: StatusNotReady, Message: snap.Warning}
	}
	return ServiceHealth{
		Status:  StatusReady,
		Message: "fetched " + snap.FetchedAt.Format(time.RFC3339) + " from " + snap.Source,
		Rows:    snap.Rows,
	}
}

// LivenessCheck returns liveness status
func (hs *HealthService) LivenessCheck(ctx context.Context) HealthStatus {
	return HealthStatus{
		Status:    StatusAlive,
		Timestamp: hs.now(),
		Version:   hs.build.Version,
		Runtime: map[string]interface{}{
			"uptime":     hs.now().Sub(hs.startTime).Seconds(),
			"go_version": runtime.Version(),
			"goroutines": runtime.NumGoroutine(),
		},
	}
}

// Version returns version information
func (hs *HealthService) Version() map[string]interface{} {
	result := map[string]interface{}{
		"version":      hs.build.Version,
		"go_version":   runtime.Version(),
		"os":           runtime.GOOS,
		"arch":         runtime.GOARCH,
		"uptime":       hs.now().Sub(hs.startTime).Seconds(),
		"start_time":   hs.startTime.Format(time.RFC3339),
		"current_time": hs.now().Format(time.RFC3339),
	}
	if hs.build.Commit != "" {
		result["commit"] = hs.build.Commit
	}
	if hs.build.BuildTime != "" {
		result["build_time"] = hs.build.BuildTime
	}
	return result
}

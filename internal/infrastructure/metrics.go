package infrastructure

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// DashboardMetrics holds the application instruments. It satisfies the
// observer interfaces of the source and report packages.
type DashboardMetrics struct {
	HTTPRequestsTotal   metric.Int64Counter
	HTTPRequestDuration metric.Float64Histogram
	HTTPActiveRequests  metric.Int64UpDownCounter

	FetchTotal    metric.Int64Counter
	FetchDuration metric.Float64Histogram
	RowsLoaded    metric.Int64Gauge
	CacheRequests metric.Int64Counter

	ReportsTotal    metric.Int64Counter
	ReportDuration  metric.Float64Histogram
	ReportSections  metric.Int64Counter
	ExportsTotal    metric.Int64Counter
	ValidationFails metric.Int64Counter
}

// NewDashboardMetrics creates the instruments on meter, or on the global
// meter provider when meter is nil.
func NewDashboardMetrics(meter metric.Meter) (*DashboardMetrics, error) {
	if meter == nil {
		meter = otel.Meter(MeterName)
	}

	var (
		m   DashboardMetrics
		err error
	)
	counter := func(name, desc string) metric.Int64Counter {
		if err != nil {
			return nil
		}
		var c metric.Int64Counter
		c, err = meter.Int64Counter(name, metric.WithDescription(desc))
		return c
	}
	seconds := func(name, desc string) metric.Float64Histogram {
		if err != nil {
			return nil
		}
		var h metric.Float64Histogram
		h, err = meter.Float64Histogram(name, metric.WithDescription(desc), metric.WithUnit("s"))
		return h
	}

	m.HTTPRequestsTotal = counter("http_requests_total", "Total number of HTTP requests")
	m.HTTPRequestDuration = seconds("http_request_duration_seconds", "HTTP request duration in seconds")
	m.FetchTotal = counter("survey_fetch_total", "Survey source fetches by outcome")
	m.FetchDuration = seconds("survey_fetch_duration_seconds", "Survey source fetch duration in seconds")
	m.CacheRequests = counter("survey_cache_requests_total", "Snapshot cache lookups by result")
	m.ReportsTotal = counter("report_render_total", "PDF reports rendered")
	m.ReportDuration = seconds("report_render_duration_seconds", "PDF report render duration in seconds")
	m.ReportSections = counter("report_sections_total", "Report sections by status")
	m.ExportsTotal = counter("survey_exports_total", "Table exports by format")
	m.ValidationFails = counter("http_validation_failures_total", "Rejected request parameters")
	if err != nil {
		return nil, err
	}

	if m.HTTPActiveRequests, err = meter.Int64UpDownCounter(
		"http_active_requests",
		metric.WithDescription("Number of active HTTP requests"),
	); err != nil {
		return nil, err
	}
	if m.RowsLoaded, err = meter.Int64Gauge(
		"survey_rows_loaded",
		metric.WithDescription("Data rows in the latest fetched snapshot"),
	); err != nil {
		return nil, err
	}
	return &m, nil
}

func status(err error) attribute.KeyValue {
	if err != nil {
		return attribute.String("status", "failure")
	}
	return attribute.String("status", "success")
}

// ObserveFetch records one source fetch
func (m *DashboardMetrics) ObserveFetch(ctx context.Context, source string, rows int, elapsed time.Duration, err error) {
	attrs := metric.WithAttributes(attribute.String("source", source), status(err))
	m.FetchTotal.Add(ctx, 1, attrs)
	m.FetchDuration.Record(ctx, elapsed.Seconds(), attrs)
	if err == nil {
		m.RowsLoaded.Record(ctx, int64(rows), metric.WithAttributes(attribute.String("source", source)))
	}
}

// ObserveCache records a cache hit or miss
func (m *DashboardMetrics) ObserveCache(ctx context.Context, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.CacheRequests.Add(ctx, 1, metric.WithAttributes(attribute.String("result", result)))
}

// ObserveReport records one rendered report
func (m *DashboardMetrics) ObserveReport(ctx context.Context, elapsed time.Duration, sections, failed int) {
	m.ReportsTotal.Add(ctx, 1)
	m.ReportDuration.Record(ctx, elapsed.Seconds())
	m.ReportSections.Add(ctx, int64(sections-failed), metric.WithAttributes(attribute.String("status", "ok")))
	if failed > 0 {
		m.ReportSections.Add(ctx, int64(failed), metric.WithAttributes(attribute.String("status", "failed")))
	}
}

// ObserveExport records one table export
func (m *DashboardMetrics) ObserveExport(ctx context.Context, format string, err error) {
	m.ExportsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("format", format), status(err)))
}

// ObserveValidationFailure records a rejected request parameter set
func (m *DashboardMetrics) ObserveValidationFailure(ctx context.Context, route string) {
	m.ValidationFails.Add(ctx, 1, metric.WithAttributes(attribute.String("route", route)))
}

// ObserveHTTPRequest records a completed HTTP request
func (m *DashboardMetrics) ObserveHTTPRequest(ctx context.Context, method, route string, statusCode int, elapsed time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String("method", method),
		attribute.String("route", route),
		attribute.Int("status_code", statusCode),
	)
	m.HTTPRequestsTotal.Add(ctx, 1, attrs)
	m.HTTPRequestDuration.Record(ctx, elapsed.Seconds(), attrs)
}

package http

import (
	"context"
	"io"

	"mentedigital/internal/exporter"
	"mentedigital/internal/report"
	"mentedigital/internal/services"
	"mentedigital/internal/survey"
)

// SurveyServiceInterface defines the survey operations used by the handlers
type SurveyServiceInterface interface {
	Snapshot(ctx context.Context) services.DataSnapshot
	Refresh(ctx context.Context) services.DataSnapshot
	Fields(ctx context.Context) ([]string, error)
	ReportableFields(ctx context.Context) ([]string, error)
	Values(ctx context.Context, field string) ([]string, error)
	Frequency(ctx context.Context, field string) (survey.FieldFrequency, error)
	Records(ctx context.Context, field, value string) (*survey.Table, error)
	AgeBands(ctx context.Context, category string) (survey.CrossTab, error)
	Pyramid(ctx context.Context, category string) (survey.Pyramid, error)
	Statistics(ctx context.Context) (services.Statistics, error)
	Report(ctx context.Context, theme report.Theme) (services.RenderedReport, error)
	Export(ctx context.Context, format exporter.Format, w io.Writer) (string, error)
}

var _ SurveyServiceInterface = (*services.SurveyService)(nil)

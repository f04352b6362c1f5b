package http

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"

	"mentedigital/internal/exporter"
	"mentedigital/internal/report"
	"mentedigital/internal/services"
	"mentedigital/internal/survey"
)

type mockSurveyService struct {
	mock.Mock
}

func (m *mockSurveyService) Snapshot(ctx context.Context) services.DataSnapshot {
	return m.Called(ctx).Get(0).(services.DataSnapshot)
}

func (m *mockSurveyService) Refresh(ctx context.Context) services.DataSnapshot {
	return m.Called(ctx).Get(0).(services.DataSnapshot)
}

func (m *mockSurveyService) Fields(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	fields, _ := args.Get(0).([]string)
	return fields, args.Error(1)
}

func (m *mockSurveyService) ReportableFields(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	fields, _ := args.Get(0).([]string)
	return fields, args.Error(1)
}

func (m *mockSurveyService) Values(ctx context.Context, field string) ([]string, error) {
	args := m.Called(ctx, field)
	values, _ := args.Get(0).([]string)
	return values, args.Error(1)
}

func (m *mockSurveyService) Frequency(ctx context.Context, field string) (survey.FieldFrequency, error) {
	args := m.Called(ctx, field)
	return args.Get(0).(survey.FieldFrequency), args.Error(1)
}

func (m *mockSurveyService) Records(ctx context.Context, field, value string) (*survey.Table, error) {
	args := m.Called(ctx, field, value)
	table, _ := args.Get(0).(*survey.Table)
	return table, args.Error(1)
}

func (m *mockSurveyService) AgeBands(ctx context.Context, category string) (survey.CrossTab, error) {
	args := m.Called(ctx, category)
	return args.Get(0).(survey.CrossTab), args.Error(1)
}

func (m *mockSurveyService) Pyramid(ctx context.Context, category string) (survey.Pyramid, error) {
	args := m.Called(ctx, category)
	return args.Get(0).(survey.Pyramid), args.Error(1)
}

func (m *mockSurveyService) Statistics(ctx context.Context) (services.Statistics, error) {
	args := m.Called(ctx)
	return args.Get(0).(services.Statistics), args.Error(1)
}

func (m *mockSurveyService) Report(ctx context.Context, theme report.Theme) (services.RenderedReport, error) {
	args := m.Called(ctx, theme)
	return args.Get(0).(services.RenderedReport), args.Error(1)
}

func (m *mockSurveyService) Export(ctx context.Context, format exporter.Format, w io.Writer) (string, error) {
	args := m.Called(ctx, format, w)
	if body, ok := args.Get(2).(string); ok && args.Error(1) == nil {
		_, _ = io.WriteString(w, body)
	}
	return args.String(0), args.Error(1)
}

func sampleTable() *survey.Table {
	return survey.NewTable(
		[]string{"gênero", "idade", "cidade", survey.TimestampColumn},
		[]survey.Record{
			{survey.Text("masculino"), survey.Int(22), survey.Text("recife"), survey.Text("t1")},
			{survey.Text("feminino"), survey.Int(29), survey.Text("olinda"), survey.Text("t2")},
			{survey.Text("feminino"), survey.Int(31), survey.Text("recife"), survey.Text("t3")},
		},
	)
}

func sampleSnapshot() services.DataSnapshot {
	t := sampleTable()
	return services.DataSnapshot{
		Table:     t,
		Columns:   t.Columns(),
		Rows:      t.Len(),
		Source:    "csv",
		FetchedAt: fetchedAt,
	}
}

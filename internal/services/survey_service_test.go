package services

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"mentedigital/internal/config"
	"mentedigital/internal/exporter"
	"mentedigital/internal/report"
	"mentedigital/internal/source"
	"mentedigital/internal/survey"
)

type mockSnapshots struct {
	mock.Mock
}

func (m *mockSnapshots) Get(ctx context.Context) source.Snapshot {
	args := m.Called(ctx)
	return args.Get(0).(source.Snapshot)
}

func (m *mockSnapshots) Invalidate() {
	m.Called()
}

func (m *mockSnapshots) ValidUntil() time.Time {
	return time.Date(2025, 3, 1, 12, 2, 0, 0, time.UTC)
}

type recordingExports struct {
	formats []string
	errs    []error
}

func (r *recordingExports) ObserveExport(_ context.Context, format string, err error) {
	r.formats = append(r.formats, format)
	r.errs = append(r.errs, err)
}

var fetchedAt = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func surveyRows() [][]string {
	return [][]string{
		{"Timestamp", "Gênero", "Idade (anos)", "Raça", "Estado Civil", "P1 Você usa redes sociais?", "Cidade"},
		{"t1", " Masculino ", "22", "Parda", "Solteiro", "Sim", "Recife"},
		{"t2", "Feminino", "29", "Branca", "Casado", "Não", "Olinda"},
		{"t3", "FEMININO", "31", "Parda", "", "Sim", "Recife"},
		{"t4", "Feminino", "45", "Preta", "Solteiro", "Sim", "Recife"},
	}
}

func okSnapshot() source.Snapshot {
	return source.Snapshot{
		Table:     survey.BuildTable(surveyRows(), survey.DefaultHeaderRules),
		FetchedAt: fetchedAt,
		Source:    "csv",
	}
}

func failedSnapshot() source.Snapshot {
	return source.Snapshot{
		Table:     survey.EmptyTable(),
		FetchedAt: fetchedAt,
		Source:    "csv",
		Warning:   errors.New("failed to load survey data: connection refused"),
	}
}

func newTestService(t *testing.T, snap source.Snapshot, opts ...SurveyOption) (*SurveyService, *mockSnapshots) {
	t.Helper()
	snapshots := &mockSnapshots{}
	snapshots.On("Get", mock.Anything).Return(snap)
	cfg := DefaultSurveyConfig()
	cfg.Location = time.UTC
	svc := NewSurveyService(snapshots, report.NewRenderer(nil), cfg, nil, opts...)
	return svc, snapshots
}

func TestSurveyService_Snapshot(t *testing.T) {
	svc, snapshots := newTestService(t, okSnapshot())

	snap := svc.Snapshot(context.Background())
	assert.Equal(t, 4, snap.Rows)
	assert.Equal(t, "csv", snap.Source)
	assert.Equal(t, fetchedAt, snap.FetchedAt)
	assert.Empty(t, snap.Warning)
	assert.Contains(t, snap.Columns, "gênero")
	assert.Contains(t, snap.Columns, survey.TimestampColumn)

	again := svc.Snapshot(context.Background())
	assert.Same(t, snap.Table, again.Table, "cleaned table is reused for the same snapshot")
	snapshots.AssertNumberOfCalls(t, "Get", 2)
}

func TestSurveyService_SnapshotWarning(t *testing.T) {
	svc, _ := newTestService(t, failedSnapshot())

	snap := svc.Snapshot(context.Background())
	assert.True(t, snap.Empty())
	assert.Contains(t, snap.Warning, "connection refused")

	_, err := svc.Fields(context.Background())
	assert.ErrorIs(t, err, ErrNoData)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestSurveyService_Refresh(t *testing.T) {
	svc, snapshots := newTestService(t, okSnapshot())
	snapshots.On("Invalidate").Return()

	snap := svc.Refresh(context.Background())
	assert.Equal(t, 4, snap.Rows)
	snapshots.AssertCalled(t, "Invalidate")
}

func TestSurveyService_Fields(t *testing.T) {
	svc, _ := newTestService(t, okSnapshot())

	fields, err := svc.Fields(context.Background())
	require.NoError(t, err)
	assert.NotContains(t, fields, survey.TimestampColumn)
	assert.Contains(t, fields, "cidade")

	reportable, err := svc.ReportableFields(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"gênero", "raça", "estado civil"}, reportable)
}

func TestSurveyService_Frequency(t *testing.T) {
	svc, _ := newTestService(t, okSnapshot())

	freq, err := svc.Frequency(context.Background(), "gênero")
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"masculino": 1, "feminino": 3}, freq.Counts())
	assert.Equal(t, 4, freq.Total)

	civil, err := svc.Frequency(context.Background(), "estado civil")
	require.NoError(t, err)
	assert.Equal(t, 3, civil.Total, "blank answers are not counted")

	_, err = svc.Frequency(context.Background(), "religião")
	assert.ErrorIs(t, err, survey.ErrFieldNotFound)
}

func TestSurveyService_Values(t *testing.T) {
	svc, _ := newTestService(t, okSnapshot())

	values, err := svc.Values(context.Background(), "raça")
	require.NoError(t, err)
	assert.Equal(t, []string{"branca", "parda", "preta"}, values)

	_, err = svc.Values(context.Background(), "nope")
	assert.ErrorIs(t, err, survey.ErrFieldNotFound)
}

func TestSurveyService_Records(t *testing.T) {
	svc, _ := newTestService(t, okSnapshot())
	ctx := context.Background()

	tests := []struct {
		name    string
		field   string
		value   string
		rows    int
		wantErr error
	}{
		{"no filter", "", "", 4, nil},
		{"field without value", "cidade", "", 4, nil},
		{"filter", "cidade", "recife", 3, nil},
		{"no match", "cidade", "caruaru", 0, nil},
		{"unknown field", "bairro", "x", 0, survey.ErrFieldNotFound},
		{"unknown field without value", "bairro", "", 0, survey.ErrFieldNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table, err := svc.Records(ctx, tt.field, tt.value)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.rows, table.Len())
		})
	}
}

func TestSurveyService_AgeBandsAndPyramid(t *testing.T) {
	svc, _ := newTestService(t, okSnapshot())
	ctx := context.Background()

	ct, err := svc.AgeBands(ctx, "gênero")
	require.NoError(t, err)
	assert.Equal(t, []survey.AgeBand{{20, 30}, {30, 40}, {40, 50}}, ct.Bands)
	assert.Equal(t, 1, ct.Count(survey.AgeBand{20, 30}, "masculino"))
	assert.Equal(t, 1, ct.Count(survey.AgeBand{20, 30}, "feminino"))

	p, err := svc.Pyramid(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, "gênero", p.CategoryField)
	require.Len(t, p.Rows, 3)

	_, err = svc.Pyramid(ctx, "raça")
	assert.ErrorIs(t, err, survey.ErrNotBinary)
}

func TestSurveyService_Statistics(t *testing.T) {
	svc, _ := newTestService(t, okSnapshot())

	st, err := svc.Statistics(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, st.Rows)
	require.Len(t, st.Fields, 3)
	for _, f := range st.Fields {
		require.NotNil(t, f.Frequency, f.Field)
		assert.Empty(t, f.Error)
	}

	require.NotNil(t, st.Ages)
	assert.Equal(t, 4, st.Ages.Count)
	assert.Equal(t, 22, st.Ages.Min)
	assert.Equal(t, 45, st.Ages.Max)
	assert.NotEmpty(t, st.Histogram)
	require.NotNil(t, st.Pyramid)
	assert.Empty(t, st.PyramidErr)
}

func TestSurveyService_Report(t *testing.T) {
	now := time.Date(2025, 3, 1, 9, 5, 7, 0, time.UTC)
	svc, _ := newTestService(t, okSnapshot(), WithServiceClock(func() time.Time { return now }))

	rendered, err := svc.Report(context.Background(), report.Dark())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(rendered.PDF, []byte("%PDF-")))
	assert.Equal(t, "resumo_em_grafico_20250301_090507.pdf", rendered.Filename)
	assert.NotEmpty(t, rendered.Sections)
}

func TestSurveyService_ReportNoData(t *testing.T) {
	svc, _ := newTestService(t, failedSnapshot())

	_, err := svc.Report(context.Background(), report.Light())
	assert.ErrorIs(t, err, ErrNoData)
}

func TestSurveyService_Export(t *testing.T) {
	exports := &recordingExports{}
	svc, _ := newTestService(t, okSnapshot(), WithExportObserver(exports))

	var buf bytes.Buffer
	name, err := svc.Export(context.Background(), exporter.FormatCSV, &buf)
	require.NoError(t, err)
	assert.Equal(t, "dados_pesquisa.csv", name)

	body := strings.TrimPrefix(buf.String(), "\ufeff")
	header := strings.SplitN(body, "\n", 2)[0]
	assert.NotContains(t, header, survey.TimestampColumn)
	assert.Contains(t, header, "gênero")

	assert.Equal(t, []string{"csv"}, exports.formats)
	assert.NoError(t, exports.errs[0])
}

func TestSurveyService_ExportNoData(t *testing.T) {
	exports := &recordingExports{}
	svc, _ := newTestService(t, failedSnapshot(), WithExportObserver(exports))

	_, err := svc.Export(context.Background(), exporter.FormatXLSX, &bytes.Buffer{})
	assert.ErrorIs(t, err, ErrNoData)
	require.Len(t, exports.errs, 1)
	assert.ErrorIs(t, exports.errs[0], ErrNoData)
}

func TestSurveyConfigFrom(t *testing.T) {
	cfg, err := SurveyConfigFrom(configReport("America/Recife"))
	require.NoError(t, err)
	assert.Equal(t, "America/Recife", cfg.Location.String())
	assert.Equal(t, "q", cfg.Selector.ExcludedPrefix)
	assert.Equal(t, []string{"cidade"}, cfg.Selector.Profile)

	_, err = SurveyConfigFrom(configReport("Mars/Olympus"))
	assert.Error(t, err)
}

func configReport(tz string) config.ReportConfig {
	return config.ReportConfig{
		ExcludedPrefix: "q",
		ProfileFields:  []string{"cidade"},
		Timezone:       tz,
	}
}

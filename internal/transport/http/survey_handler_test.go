package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apierrors "mentedigital/internal/errors"
	"mentedigital/internal/exporter"
	"mentedigital/internal/middleware"
	"mentedigital/internal/report"
	"mentedigital/internal/services"
	"mentedigital/internal/survey"
)

var fetchedAt = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

type countingValidation struct {
	routes []string
}

func (c *countingValidation) ObserveValidationFailure(_ context.Context, route string) {
	c.routes = append(c.routes, route)
}

func newSurveyRouter(svc SurveyServiceInterface, validation ValidationObserver) http.Handler {
	errorHandler := apierrors.NewErrorHandler(nil, false, ProblemMappings()...)
	h := NewSurveyHandler(svc, middleware.NewQueryValidator(), errorHandler, validation, nil)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Mount("/api/survey", h.Routes())
	return r
}

func do(t *testing.T, h http.Handler, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body
}

func TestSurveyHandler_Snapshot(t *testing.T) {
	svc := &mockSurveyService{}
	svc.On("Snapshot", mock.Anything).Return(sampleSnapshot())

	rec := do(t, newSurveyRouter(svc, nil), http.MethodGet, "/api/survey/snapshot")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/json")

	body := decodeJSON(t, rec)
	assert.Equal(t, float64(3), body["rows"])
	assert.Equal(t, "csv", body["source"])
	assert.NotContains(t, body, "warning")
	svc.AssertExpectations(t)
}

func TestSurveyHandler_Refresh(t *testing.T) {
	svc := &mockSurveyService{}
	svc.On("Refresh", mock.Anything).Return(sampleSnapshot())

	rec := do(t, newSurveyRouter(svc, nil), http.MethodPost, "/api/survey/refresh")
	assert.Equal(t, http.StatusOK, rec.Code)
	svc.AssertExpectations(t)
}

func TestSurveyHandler_Fields(t *testing.T) {
	svc := &mockSurveyService{}
	svc.On("Fields", mock.Anything).Return([]string{"gênero", "idade", "cidade"}, nil)
	svc.On("ReportableFields", mock.Anything).Return([]string{"gênero"}, nil)

	rec := do(t, newSurveyRouter(svc, nil), http.MethodGet, "/api/survey/fields")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeJSON(t, rec)
	assert.Equal(t, []interface{}{"gênero", "idade", "cidade"}, body["fields"])
	assert.Equal(t, []interface{}{"gênero"}, body["reportable"])
}

func TestSurveyHandler_NoData(t *testing.T) {
	svc := &mockSurveyService{}
	svc.On("Fields", mock.Anything).Return(nil, fmt.Errorf("%w: connection refused", services.ErrNoData))

	rec := do(t, newSurveyRouter(svc, nil), http.MethodGet, "/api/survey/fields")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, apierrors.ProblemContentType, rec.Header().Get("Content-Type"))

	body := decodeJSON(t, rec)
	assert.Equal(t, apierrors.TypeNoData, body["type"])
	assert.NotEmpty(t, body["trace_id"])
}

func TestSurveyHandler_Frequency(t *testing.T) {
	svc := &mockSurveyService{}
	svc.On("Frequency", mock.Anything, "gênero").Return(survey.FieldFrequency{
		Field:   "gênero",
		Entries: []survey.FrequencyEntry{{Value: "feminino", Count: 3}, {Value: "masculino", Count: 1}},
		Total:   4,
	}, nil)

	rec := do(t, newSurveyRouter(svc, nil), http.MethodGet, "/api/survey/fields/"+url.PathEscape("gênero")+"/frequency")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp FrequencyResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 4, resp.Total)
	require.Len(t, resp.Entries, 2)
	assert.InDelta(t, 75.0, resp.Entries[0].Percent, 1e-9)
	assert.InDelta(t, 25.0, resp.Entries[1].Percent, 1e-9)
}

func TestSurveyHandler_FieldNotFound(t *testing.T) {
	svc := &mockSurveyService{}
	svc.On("Values", mock.Anything, "religião").
		Return(nil, fmt.Errorf("distinct values of %q: %w", "religião", survey.ErrFieldNotFound))

	rec := do(t, newSurveyRouter(svc, nil), http.MethodGet, "/api/survey/fields/"+url.PathEscape("religião")+"/values")
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, apierrors.TypeFieldNotFound, decodeJSON(t, rec)["type"])
}

func TestSurveyHandler_Values(t *testing.T) {
	svc := &mockSurveyService{}
	svc.On("Values", mock.Anything, "estado civil").Return([]string{"casado", "solteiro"}, nil)

	rec := do(t, newSurveyRouter(svc, nil), http.MethodGet, "/api/survey/fields/estado%20civil/values")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decodeJSON(t, rec)
	assert.Equal(t, "estado civil", body["field"])
	assert.Equal(t, []interface{}{"casado", "solteiro"}, body["values"])
}

func TestSurveyHandler_Records(t *testing.T) {
	tests := []struct {
		name   string
		query  string
		field  string
		value  string
		rows   int
		total  int
		offset int
	}{
		{"all records", "", "", "", 3, 3, 0},
		{"filtered", "?field=cidade&value=recife", "cidade", "recife", 3, 3, 0},
		{"paged", "?limit=2&offset=1", "", "", 2, 3, 1},
		{"offset past end", "?offset=10", "", "", 0, 3, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockSurveyService{}
			svc.On("Records", mock.Anything, tt.field, tt.value).Return(sampleTable(), nil)

			rec := do(t, newSurveyRouter(svc, nil), http.MethodGet, "/api/survey/records"+tt.query)
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

			var resp RecordsResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Len(t, resp.Rows, tt.rows)
			assert.Equal(t, tt.total, resp.Total)
			assert.Equal(t, tt.offset, resp.Offset)
			assert.Equal(t, sampleTable().Columns(), resp.Columns)
			svc.AssertExpectations(t)
		})
	}
}

func TestSurveyHandler_RecordsValidation(t *testing.T) {
	tests := []struct {
		name  string
		query string
		field string
	}{
		{"value without field", "?value=recife", "field"},
		{"negative offset", "?offset=-1", "offset"},
		{"limit too large", "?limit=20000", "limit"},
		{"non numeric limit", "?limit=abc", "query"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockSurveyService{}
			validation := &countingValidation{}

			rec := do(t, newSurveyRouter(svc, validation), http.MethodGet, "/api/survey/records"+tt.query)
			require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())

			body := decodeJSON(t, rec)
			assert.Equal(t, apierrors.TypeValidation, body["type"])
			errs, ok := body["errors"].([]interface{})
			require.True(t, ok, rec.Body.String())
			require.NotEmpty(t, errs)
			assert.Equal(t, tt.field, errs[0].(map[string]interface{})["field"])

			assert.Len(t, validation.routes, 1)
			svc.AssertNotCalled(t, "Records", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestSurveyHandler_AgeBands(t *testing.T) {
	svc := &mockSurveyService{}
	svc.On("AgeBands", mock.Anything, "gênero").Return(survey.CrossTab{
		AgeField:      "idade",
		CategoryField: "gênero",
		Bands:         []survey.AgeBand{{Start: 20, End: 30}, {Start: 30, End: 40}},
		Categories:    []string{"feminino", "masculino"},
		Counts:        [][]int{{1, 1}, {1, 0}},
	}, nil)

	rec := do(t, newSurveyRouter(svc, nil), http.MethodGet, "/api/survey/age-bands?category="+url.QueryEscape("gênero"))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decodeJSON(t, rec)
	assert.Equal(t, []interface{}{"20-29", "30-39"}, body["labels"])
	assert.Equal(t, float64(3), body["total"])
}

func TestSurveyHandler_AgeBandsRequiresCategory(t *testing.T) {
	svc := &mockSurveyService{}
	rec := do(t, newSurveyRouter(svc, nil), http.MethodGet, "/api/survey/age-bands")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSurveyHandler_Pyramid(t *testing.T) {
	svc := &mockSurveyService{}
	svc.On("Pyramid", mock.Anything, "").Return(survey.Pyramid{}, fmt.Errorf("pyramid: %w", survey.ErrNotBinary))

	rec := do(t, newSurveyRouter(svc, nil), http.MethodGet, "/api/survey/pyramid")
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, apierrors.TypeInsufficientData, decodeJSON(t, rec)["type"])
}

func TestSurveyHandler_Statistics(t *testing.T) {
	svc := &mockSurveyService{}
	svc.On("Statistics", mock.Anything).Return(services.Statistics{Rows: 3}, nil)

	rec := do(t, newSurveyRouter(svc, nil), http.MethodGet, "/api/survey/statistics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(3), decodeJSON(t, rec)["rows"])
}

func TestSurveyHandler_Report(t *testing.T) {
	svc := &mockSurveyService{}
	svc.On("Report", mock.Anything, mock.MatchedBy(func(th report.Theme) bool { return th.Name == "escuro" })).
		Return(services.RenderedReport{PDF: []byte("%PDF-1.3 test"), Filename: "resumo_em_grafico_20250301_090507.pdf"}, nil)

	rec := do(t, newSurveyRouter(svc, nil), http.MethodGet, "/api/survey/report.pdf?tema=escuro")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="resumo_em_grafico_20250301_090507.pdf"`, rec.Header().Get("Content-Disposition"))
	assert.Equal(t, "%PDF-1.3 test", rec.Body.String())
}

func TestSurveyHandler_ReportRejectsTheme(t *testing.T) {
	svc := &mockSurveyService{}
	rec := do(t, newSurveyRouter(svc, nil), http.MethodGet, "/api/survey/report.pdf?tema=roxo")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	svc.AssertNotCalled(t, "Report", mock.Anything, mock.Anything)
}

func TestSurveyHandler_Export(t *testing.T) {
	svc := &mockSurveyService{}
	svc.On("Export", mock.Anything, exporter.FormatCSV, mock.Anything).
		Return("dados_pesquisa.csv", nil, "gênero,idade\nfeminino,29\n")

	rec := do(t, newSurveyRouter(svc, nil), http.MethodGet, "/api/survey/export.csv")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, exporter.FormatCSV.ContentType(), rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "dados_pesquisa.csv")
	assert.Equal(t, "gênero,idade\nfeminino,29\n", rec.Body.String())
}

func TestSurveyHandler_ExportFailureIsProblem(t *testing.T) {
	svc := &mockSurveyService{}
	svc.On("Export", mock.Anything, exporter.FormatXLSX, mock.Anything).
		Return("", errors.New("disk on fire"), nil)

	rec := do(t, newSurveyRouter(svc, nil), http.MethodGet, "/api/survey/export.xlsx")
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Empty(t, rec.Header().Get("Content-Disposition"))
	assert.Equal(t, apierrors.ProblemContentType, rec.Header().Get("Content-Type"))
}

func TestSurveyHandler_UnknownExport(t *testing.T) {
	rec := do(t, newSurveyRouter(&mockSurveyService{}, nil), http.MethodGet, "/api/survey/export.json")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

package http

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "mentedigital/internal/errors"
	"mentedigital/internal/exporter"
	"mentedigital/internal/middleware"
	"mentedigital/internal/report"
	"mentedigital/internal/survey"
)

// ValidationObserver records rejected queries
type ValidationObserver interface {
	ObserveValidationFailure(ctx context.Context, route string)
}

// SurveyHandler serves the survey JSON API with RFC 7807 errors
type SurveyHandler struct {
	service      SurveyServiceInterface
	validator    *middleware.QueryValidator
	errorHandler *apierrors.ErrorHandler
	validation   ValidationObserver
	logger       *slog.Logger
}

// NewSurveyHandler creates the survey API handler. validation may be nil.
func NewSurveyHandler(service SurveyServiceInterface, validator *middleware.QueryValidator, errorHandler *apierrors.ErrorHandler, validation ValidationObserver, logger *slog.Logger) *SurveyHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &SurveyHandler{
		service:      service,
		validator:    validator,
		errorHandler: errorHandler,
		validation:   validation,
		logger:       logger.With(slog.String("component", "survey_handler")),
	}
}

// Routes returns the survey routes, mounted under /api/survey
func (h *SurveyHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Group(func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))
		r.Get("/snapshot", h.Snapshot)
		r.Post("/refresh", h.Refresh)
		r.Get("/fields", h.Fields)
		r.Route("/fields/{field}", func(r chi.Router) {
			r.Use(h.FieldCtx)
			r.Get("/values", h.Values)
			r.Get("/frequency", h.Frequency)
		})
		r.Get("/records", h.Records)
		r.Get("/age-bands", h.AgeBands)
		r.Get("/pyramid", h.Pyramid)
		r.Get("/statistics", h.Statistics)
	})

	r.Get("/report.pdf", h.Report)
	r.Get("/export.csv", h.Export(exporter.FormatCSV))
	r.Get("/export.xlsx", h.Export(exporter.FormatXLSX))
	return r
}

type fieldKey struct{}

// FieldCtx validates and unescapes the {field} path parameter
func (h *SurveyHandler) FieldCtx(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := chi.URLParam(r, "field")
		field, err := url.PathUnescape(raw)
		if err != nil {
			field = raw
		}

		params := struct {
			Field string `form:"field" validate:"required,fieldname"`
		}{Field: field}
		if err := h.validator.Struct(&params); err != nil {
			h.reject(w, r, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), fieldKey{}, field)))
	})
}

func fieldParam(r *http.Request) string {
	field, _ := r.Context().Value(fieldKey{}).(string)
	return field
}

// reject answers a validation failure and counts it
func (h *SurveyHandler) reject(w http.ResponseWriter, r *http.Request, err error) {
	if h.validation != nil {
		h.validation.ObserveValidationFailure(r.Context(), routePattern(r))
	}
	h.errorHandler.HandleError(w, r, err)
}

func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return r.URL.Path
}

// Snapshot handles GET /api/survey/snapshot
func (h *SurveyHandler) Snapshot(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, h.service.Snapshot(r.Context()))
}

// Refresh handles POST /api/survey/refresh
func (h *SurveyHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, h.service.Refresh(r.Context()))
}

// Fields handles GET /api/survey/fields
func (h *SurveyHandler) Fields(w http.ResponseWriter, r *http.Request) {
	fields, err := h.service.Fields(r.Context())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	reportable, err := h.service.ReportableFields(r.Context())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, map[string]interface{}{
		"fields":     fields,
		"reportable": reportable,
	})
}

// Values handles GET /api/survey/fields/{field}/values
func (h *SurveyHandler) Values(w http.ResponseWriter, r *http.Request) {
	field := fieldParam(r)
	values, err := h.service.Values(r.Context(), field)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, map[string]interface{}{
		"field":  field,
		"values": values,
	})
}

// FrequencyResponse is a frequency table with percentages
type FrequencyResponse struct {
	Field   string           `json:"field"`
	Total   int              `json:"total"`
	Entries []FrequencyEntry `json:"entries"`
}

// FrequencyEntry is one row of a frequency table
type FrequencyEntry struct {
	Value   string  `json:"value"`
	Count   int     `json:"count"`
	Percent float64 `json:"percent"`
}

func newFrequencyResponse(f survey.FieldFrequency) FrequencyResponse {
	out := FrequencyResponse{Field: f.Field, Total: f.Total, Entries: make([]FrequencyEntry, 0, len(f.Entries))}
	for _, e := range f.Entries {
		out.Entries = append(out.Entries, FrequencyEntry{Value: e.Value, Count: e.Count, Percent: f.Percent(e)})
	}
	return out
}

// Frequency handles GET /api/survey/fields/{field}/frequency
func (h *SurveyHandler) Frequency(w http.ResponseWriter, r *http.Request) {
	freq, err := h.service.Frequency(r.Context(), fieldParam(r))
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, newFrequencyResponse(freq))
}

type recordsQuery struct {
	Field  string `form:"field" validate:"omitempty,fieldname"`
	Value  string `form:"value" validate:"max=500"`
	Limit  int    `form:"limit" validate:"min=0,max=10000"`
	Offset int    `form:"offset" validate:"min=0"`
}

// RecordsResponse is one page of the cleaned table
type RecordsResponse struct {
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
	Total   int        `json:"total"`
	Offset  int        `json:"offset"`
	Limit   int        `json:"limit"`
}

// Records handles GET /api/survey/records?field=&value=&limit=&offset=
func (h *SurveyHandler) Records(w http.ResponseWriter, r *http.Request) {
	var q recordsQuery
	if err := h.validator.Decode(r, &q); err != nil {
		h.reject(w, r, err)
		return
	}
	if q.Value != "" && q.Field == "" {
		h.reject(w, r, apierrors.NewValidationErrors([]apierrors.ValidationError{
			{Field: "field", Message: "field is required when value is set"},
		}))
		return
	}

	table, err := h.service.Records(r.Context(), q.Field, q.Value)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	rows := table.Strings()
	total := len(rows)
	start := min(q.Offset, total)
	end := total
	if q.Limit > 0 {
		end = min(start+q.Limit, total)
	}
	render.JSON(w, r, RecordsResponse{
		Columns: table.Columns(),
		Rows:    rows[start:end],
		Total:   total,
		Offset:  start,
		Limit:   q.Limit,
	})
}

type categoryQuery struct {
	Category string `form:"category" validate:"required,fieldname"`
}

// AgeBands handles GET /api/survey/age-bands?category=
func (h *SurveyHandler) AgeBands(w http.ResponseWriter, r *http.Request) {
	var q categoryQuery
	if err := h.validator.Decode(r, &q); err != nil {
		h.reject(w, r, err)
		return
	}
	ct, err := h.service.AgeBands(r.Context(), q.Category)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	labels := make([]string, len(ct.Bands))
	for i, b := range ct.Bands {
		labels[i] = b.Label()
	}
	render.JSON(w, r, map[string]interface{}{
		"age_field":      ct.AgeField,
		"category_field": ct.CategoryField,
		"bands":          ct.Bands,
		"labels":         labels,
		"categories":     ct.Categories,
		"counts":         ct.Counts,
		"total":          ct.Total(),
	})
}

type pyramidQuery struct {
	Category string `form:"category" validate:"omitempty,fieldname"`
}

// Pyramid handles GET /api/survey/pyramid?category=
func (h *SurveyHandler) Pyramid(w http.ResponseWriter, r *http.Request) {
	var q pyramidQuery
	if err := h.validator.Decode(r, &q); err != nil {
		h.reject(w, r, err)
		return
	}
	p, err := h.service.Pyramid(r.Context(), q.Category)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, p)
}

// Statistics handles GET /api/survey/statistics
func (h *SurveyHandler) Statistics(w http.ResponseWriter, r *http.Request) {
	st, err := h.service.Statistics(r.Context())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, st)
}

type themeQuery struct {
	Theme string `form:"tema" validate:"omitempty,theme"`
}

// theme resolves ?tema= for one request
func (h *SurveyHandler) theme(r *http.Request) (report.Theme, error) {
	var q themeQuery
	if err := h.validator.Decode(r, &q); err != nil {
		return report.Theme{}, err
	}
	theme, _ := report.ThemeByName(q.Theme)
	return theme, nil
}

// Report handles GET /api/survey/report.pdf?tema=
func (h *SurveyHandler) Report(w http.ResponseWriter, r *http.Request) {
	theme, err := h.theme(r)
	if err != nil {
		h.reject(w, r, err)
		return
	}
	servePDF(w, r, h.service, theme, h.errorHandler.HandleError)
}

func servePDF(w http.ResponseWriter, r *http.Request, service SurveyServiceInterface, theme report.Theme, fail func(http.ResponseWriter, *http.Request, error)) {
	rendered, err := service.Report(r.Context(), theme)
	if err != nil {
		fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", attachment(rendered.Filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(rendered.PDF)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(rendered.PDF)
}

// Export handles GET /api/survey/export.csv and /api/survey/export.xlsx
func (h *SurveyHandler) Export(format exporter.Format) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		serveExport(w, r, h.service, format, h.errorHandler.HandleError)
	}
}

// serveExport buffers the whole file so a failure can still become a
// problem response
func serveExport(w http.ResponseWriter, r *http.Request, service SurveyServiceInterface, format exporter.Format, fail func(http.ResponseWriter, *http.Request, error)) {
	var buf bytes.Buffer
	filename, err := service.Export(r.Context(), format, &buf)
	if err != nil {
		fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", attachment(filename))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

func attachment(filename string) string {
	return fmt.Sprintf("attachment; filename=%q", filename)
}

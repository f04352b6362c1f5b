package http

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"github.com/gomarkdown/markdown"
	mdhtml "github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"

	apierrors "mentedigital/internal/errors"
	"mentedigital/internal/middleware"
	"mentedigital/internal/report"
	"mentedigital/internal/services"
	"mentedigital/internal/survey"
)

//go:embed templates/*.html content/*.md
var viewFiles embed.FS

// MaxViewRows caps the rows rendered in one HTML table
const MaxViewRows = 1000

// ThemeColors is a theme as CSS values
type ThemeColors struct {
	Name        string
	Background  template.CSS
	Text        template.CSS
	Muted       template.CSS
	Accent      template.CSS
	Border      template.CSS
	TableHeader template.CSS
	TableRow    template.CSS
	TableAltRow template.CSS
}

func themeColors(t report.Theme) ThemeColors {
	css := func(c report.Color) template.CSS { return template.CSS(c.CSS()) }
	return ThemeColors{
		Name:        t.Name,
		Background:  css(t.Background),
		Text:        css(t.Text),
		Muted:       css(t.Muted),
		Accent:      css(t.Accent),
		Border:      css(t.Border),
		TableHeader: css(t.TableHeader),
		TableRow:    css(t.TableRow),
		TableAltRow: css(t.TableAltRow),
	}
}

// Page is the data of every view
type Page struct {
	Title     string
	Active    string
	Theme     ThemeColors
	ThemeName string
	Warning   string
	FetchedAt time.Time
	Data      interface{}
}

// RecordsView is a rendered slice of a table
type RecordsView struct {
	Columns   []string
	Rows      [][]string
	Total     int
	Truncated bool
}

func newRecordsView(t *survey.Table) *RecordsView {
	rows := t.Strings()
	view := &RecordsView{Columns: t.Columns(), Rows: rows, Total: len(rows)}
	if len(rows) > MaxViewRows {
		view.Rows = rows[:MaxViewRows]
		view.Truncated = true
	}
	return view
}

// ViewHandler renders the server-side pages
type ViewHandler struct {
	service      SurveyServiceInterface
	validator    *middleware.QueryValidator
	errorHandler *apierrors.ErrorHandler
	pages        map[string]*template.Template
	intro        template.HTML
	location     *time.Location
	logger       *slog.Logger
}

// NewViewHandler parses the embedded templates and the home page text
func NewViewHandler(service SurveyServiceInterface, validator *middleware.QueryValidator, errorHandler *apierrors.ErrorHandler, location *time.Location, logger *slog.Logger) (*ViewHandler, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if location == nil {
		location = time.Local
	}

	funcs := template.FuncMap{
		"title": report.Capitalize,
		"datetime": func(t time.Time) string {
			return t.In(location).Format("02/01/2006 15:04:05")
		},
		"percent": func(f *survey.FieldFrequency, e survey.FrequencyEntry) string {
			return fmt.Sprintf("%.1f%%", f.Percent(e))
		},
		"barWidth": func(f *survey.FieldFrequency, e survey.FrequencyEntry) int {
			return int(f.Percent(e) * 3)
		},
		"neg": func(v float64) float64 { return -v },
	}

	pages := make(map[string]*template.Template)
	for _, name := range []string{"home", "query", "stats", "data", "error"} {
		tmpl, err := template.New(name).Funcs(funcs).ParseFS(viewFiles,
			"templates/layout.html", "templates/records.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s template: %w", name, err)
		}
		pages[name] = tmpl
	}

	md, err := viewFiles.ReadFile("content/home.md")
	if err != nil {
		return nil, fmt.Errorf("failed to read home text: %w", err)
	}

	return &ViewHandler{
		service:      service,
		validator:    validator,
		errorHandler: errorHandler,
		pages:        pages,
		intro:        renderMarkdown(md),
		location:     location,
		logger:       logger.With(slog.String("component", "view_handler")),
	}, nil
}

// renderMarkdown converts the embedded Markdown to HTML. The input ships
// with the binary, so the output is trusted.
func renderMarkdown(md []byte) template.HTML {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs)
	renderer := mdhtml.NewRenderer(mdhtml.RendererOptions{Flags: mdhtml.CommonFlags | mdhtml.HrefTargetBlank})
	return template.HTML(markdown.ToHTML(md, p, renderer))
}

type viewQuery struct {
	Theme string `form:"tema" validate:"omitempty,theme"`
	Field string `form:"campo" validate:"omitempty,fieldname"`
	Value string `form:"valor" validate:"max=500"`
}

// newPage decodes the shared query and stamps the snapshot state
func (h *ViewHandler) newPage(r *http.Request, active, title string, q *viewQuery) (Page, error) {
	err := h.validator.Decode(r, q)
	theme, _ := report.ThemeByName(q.Theme)
	page := Page{
		Title:     title,
		Active:    active,
		Theme:     themeColors(theme),
		ThemeName: theme.Name,
	}
	return page, err
}

func (h *ViewHandler) stamp(page *Page, snap services.DataSnapshot) {
	page.Warning = snap.Warning
	page.FetchedAt = snap.FetchedAt
}

func (h *ViewHandler) render(w http.ResponseWriter, r *http.Request, status int, name string, page Page) {
	var buf bytes.Buffer
	if err := h.pages[name].ExecuteTemplate(&buf, "layout", page); err != nil {
		h.logger.ErrorContext(r.Context(), "Failed to render view",
			slog.String("view", name),
			slog.String("error", err.Error()))
		h.errorHandler.HandleError(w, r, fmt.Errorf("render %s view: %w", name, err))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func (h *ViewHandler) renderError(w http.ResponseWriter, r *http.Request, page Page, err error) {
	status := h.errorHandler.ErrorToProblem(err, r).Status
	page.Title = http.StatusText(status)
	page.Data = err.Error()
	var apiErr *apierrors.APIError
	if errors.As(err, &apiErr) {
		if details, ok := apiErr.Details.([]apierrors.ValidationError); ok && len(details) > 0 {
			page.Data = details[0].Message
		}
	}
	h.render(w, r, status, "error", page)
}

// Home handles GET /
func (h *ViewHandler) Home(w http.ResponseWriter, r *http.Request) {
	var q viewQuery
	page, err := h.newPage(r, "home", "Início", &q)
	if err != nil {
		h.renderError(w, r, page, err)
		return
	}

	snap := h.service.Snapshot(r.Context())
	h.stamp(&page, snap)
	page.Data = struct {
		Intro template.HTML
		Rows  int
	}{h.intro, snap.Rows}
	h.render(w, r, http.StatusOK, "home", page)
}

// Query handles GET /consultar?campo=&valor=
func (h *ViewHandler) Query(w http.ResponseWriter, r *http.Request) {
	var q viewQuery
	page, err := h.newPage(r, "consultar", "Consultar", &q)
	if err != nil {
		h.renderError(w, r, page, err)
		return
	}

	snap := h.service.Snapshot(r.Context())
	h.stamp(&page, snap)
	data := struct {
		Fields  []string
		Values  []string
		Field   string
		Value   string
		Records *RecordsView
	}{Field: q.Field, Value: q.Value}

	if !snap.Empty() {
		data.Fields = survey.FilterableFields(snap.Table)
		if q.Field != "" {
			if data.Values, err = h.service.Values(r.Context(), q.Field); err != nil {
				h.renderError(w, r, page, err)
				return
			}
		}
		records, err := h.service.Records(r.Context(), q.Field, q.Value)
		if err != nil {
			h.renderError(w, r, page, err)
			return
		}
		data.Records = newRecordsView(records)
	}
	page.Data = data
	h.render(w, r, http.StatusOK, "query", page)
}

// Statistics handles GET /estatisticas
func (h *ViewHandler) Statistics(w http.ResponseWriter, r *http.Request) {
	var q viewQuery
	page, err := h.newPage(r, "estatisticas", "Estatísticas", &q)
	if err != nil {
		h.renderError(w, r, page, err)
		return
	}

	snap := h.service.Snapshot(r.Context())
	h.stamp(&page, snap)
	data := struct{ Stats *services.Statistics }{}
	if !snap.Empty() {
		st, err := h.service.Statistics(r.Context())
		if err != nil && !errors.Is(err, services.ErrNoData) {
			h.renderError(w, r, page, err)
			return
		}
		if err == nil {
			data.Stats = &st
		}
	}
	page.Data = data
	h.render(w, r, http.StatusOK, "stats", page)
}

// Data handles GET /dados
func (h *ViewHandler) Data(w http.ResponseWriter, r *http.Request) {
	var q viewQuery
	page, err := h.newPage(r, "dados", "Dados", &q)
	if err != nil {
		h.renderError(w, r, page, err)
		return
	}

	snap := h.service.Snapshot(r.Context())
	h.stamp(&page, snap)
	data := struct{ Records *RecordsView }{}
	if !snap.Empty() {
		data.Records = newRecordsView(snap.Table.Without(survey.TimestampColumn))
	}
	page.Data = data
	h.render(w, r, http.StatusOK, "data", page)
}

// ReportPDF handles GET /relatorio.pdf?tema=
func (h *ViewHandler) ReportPDF(w http.ResponseWriter, r *http.Request) {
	var q viewQuery
	page, err := h.newPage(r, "", "Relatório", &q)
	if err != nil {
		h.renderError(w, r, page, err)
		return
	}
	theme, _ := report.ThemeByName(q.Theme)
	servePDF(w, r, h.service, theme, func(w http.ResponseWriter, r *http.Request, err error) {
		h.stamp(&page, h.service.Snapshot(r.Context()))
		h.renderError(w, r, page, err)
	})
}

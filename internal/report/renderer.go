// Package report renders the survey summary as a paginated PDF.
package report

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/go-pdf/fpdf"

	"mentedigital/internal/survey"
)

// DefaultTitle is the heading of the first page
const DefaultTitle = "Mente Digital - Relatório de Estatísticas"

const (
	pageMargin  = 15.0
	chartHeight = 85.0
	lineHeight  = 6.0
)

// Options controls one rendering. The zero value renders the default
// report with the light theme.
type Options struct {
	Title       string
	Theme       Theme
	GeneratedAt time.Time
	Location    *time.Location
	Selector    survey.FieldSelector
	AgeField    string
	// Compress toggles PDF stream compression
	Compress bool
}

func (o Options) withDefaults() Options {
	if o.Title == "" {
		o.Title = DefaultTitle
	}
	if o.Theme.Name == "" {
		o.Theme = Light()
	}
	if o.GeneratedAt.IsZero() {
		o.GeneratedAt = time.Now()
	}
	if o.Location != nil {
		o.GeneratedAt = o.GeneratedAt.In(o.Location)
	}
	if o.Selector.ExcludedPrefix == "" && len(o.Selector.Profile) == 0 {
		o.Selector = survey.DefaultFieldSelector()
	}
	if o.AgeField == "" {
		o.AgeField = survey.DefaultAgeField
	}
	return o
}

// SectionStatus is the outcome of one section
type SectionStatus string

const (
	SectionRendered SectionStatus = "rendered"
	SectionNoData   SectionStatus = "no_data"
	SectionSkipped  SectionStatus = "skipped"
	SectionFailed   SectionStatus = "failed"
)

// SectionOutcome records what happened to one section
type SectionOutcome struct {
	Field  string
	Title  string
	Kind   ChartKind
	Status SectionStatus
	Err    error
}

// Result is a rendered report
type Result struct {
	PDF         []byte
	Sections    []SectionOutcome
	GeneratedAt time.Time
}

// Failed returns the sections that failed to render
func (r Result) Failed() []SectionOutcome {
	var out []SectionOutcome
	for _, s := range r.Sections {
		if s.Status == SectionFailed {
			out = append(out, s)
		}
	}
	return out
}

// Observer receives one event per rendered report
type Observer interface {
	ObserveReport(ctx context.Context, elapsed time.Duration, sections, failed int)
}

// Renderer turns a cleaned table into a PDF report
type Renderer struct {
	drawer   ChartDrawer
	logger   *slog.Logger
	observer Observer
}

// Option customizes a Renderer
type Option func(*Renderer)

// WithDrawer replaces the chart drawer
func WithDrawer(d ChartDrawer) Option {
	return func(r *Renderer) { r.drawer = d }
}

// WithObserver registers a metrics observer
func WithObserver(o Observer) Option {
	return func(r *Renderer) { r.observer = o }
}

// NewRenderer creates a renderer drawing vector charts
func NewRenderer(logger *slog.Logger, opts ...Option) *Renderer {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Renderer{
		drawer: VectorCharts{},
		logger: logger.With(slog.String("component", "report_renderer")),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Filename returns the download name of a report generated at t
func Filename(t time.Time) string {
	return "resumo_em_grafico_" + t.Format("20060102_150405") + ".pdf"
}

// Render produces the report. Sections fail independently: a failing
// section is replaced by an error note and the others are still rendered.
// An error is returned only when the document itself cannot be written.
func (r *Renderer) Render(ctx context.Context, table *survey.Table, opts Options) (Result, error) {
	start := time.Now()
	opts = opts.withDefaults()
	theme := opts.Theme

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetCompression(opts.Compress)
	pdf.SetMargins(pageMargin, pageMargin, pageMargin)
	pdf.SetAutoPageBreak(true, pageMargin)
	pdf.SetTitle(opts.Title, true)
	pdf.SetCreator("mentedigital", true)
	pdf.SetCreationDate(opts.GeneratedAt)
	pdf.SetModificationDate(opts.GeneratedAt)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetHeaderFunc(func() {
		w, h := pdf.GetPageSize()
		setFill(pdf, theme.Background)
		pdf.Rect(0, 0, w, h, "F")
	})
	pdf.SetFooterFunc(func() {
		pdf.SetY(-10)
		pdf.SetFont("Helvetica", "", 8)
		setText(pdf, theme.Muted)
		pdf.CellFormat(0, 5, fmt.Sprintf("%d", pdf.PageNo()), "", 0, "C", false, 0, "")
	})

	doc := &document{pdf: pdf, tr: tr, theme: theme, drawer: r.drawer}
	pdf.AddPage()
	doc.title(opts.Title)

	result := Result{GeneratedAt: opts.GeneratedAt}
	fields := opts.Selector.Select(table.Columns())
	ageField, hasAge := table.ColumnName(opts.AgeField)

	for i, field := range fields {
		if i > 0 {
			pdf.AddPage()
		}
		result.Sections = append(result.Sections, doc.fieldSection(table, field))

		if IsGenderField(field) && hasAge {
			result.Sections = append(result.Sections,
				doc.histogramSection(table, ageField),
				doc.pyramidSection(table, ageField, field))
		}
	}
	if len(fields) == 0 {
		doc.note("Nenhum campo de perfil encontrado nos dados.")
	}

	doc.ensureSpace(lineHeight * 3)
	pdf.Ln(lineHeight * 2)
	pdf.SetFont("Helvetica", "", 10)
	setText(pdf, theme.Text)
	pdf.CellFormat(0, lineHeight, "Gerado em: "+opts.GeneratedAt.Format("02/01/2006 15:04:05"), "", 1, "L", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return Result{}, fmt.Errorf("failed to write PDF: %w", err)
	}
	result.PDF = buf.Bytes()

	failed := len(result.Failed())
	for _, s := range result.Failed() {
		r.logger.WarnContext(ctx, "Report section failed",
			slog.String("field", s.Field),
			slog.String("kind", string(s.Kind)),
			slog.String("error", s.Err.Error()))
	}
	r.logger.InfoContext(ctx, "Report generated",
		slog.Int("sections", len(result.Sections)),
		slog.Int("failed_sections", failed),
		slog.Int("bytes", len(result.PDF)),
		slog.String("theme", theme.Name))
	if r.observer != nil {
		r.observer.ObserveReport(ctx, time.Since(start), len(result.Sections), failed)
	}
	return result, nil
}

// document is the page state shared by the sections of one rendering
type document struct {
	pdf    *fpdf.Fpdf
	tr     func(string) string
	theme  Theme
	drawer ChartDrawer
}

func (d *document) contentWidth() float64 {
	w, _ := d.pdf.GetPageSize()
	left, _, right, _ := d.pdf.GetMargins()
	return w - left - right
}

// ensureSpace starts a new page when less than h is left on this one
func (d *document) ensureSpace(h float64) {
	_, pageH := d.pdf.GetPageSize()
	_, _, _, bottom := d.pdf.GetMargins()
	if d.pdf.GetY()+h > pageH-bottom {
		d.pdf.AddPage()
	}
}

func (d *document) title(s string) {
	d.pdf.SetFont("Helvetica", "B", 18)
	setText(d.pdf, d.theme.Text)
	d.pdf.MultiCell(0, 9, d.tr(s), "", "C", false)
	d.pdf.Ln(8)
}

func (d *document) heading(s string, size float64) {
	d.ensureSpace(30)
	d.pdf.SetFont("Helvetica", "B", size)
	setText(d.pdf, d.theme.Text)
	d.pdf.MultiCell(0, lineHeight+1, d.tr(s), "", "L", false)
	d.pdf.Ln(3)
}

func (d *document) note(s string) {
	d.pdf.SetFont("Helvetica", "I", 10)
	setText(d.pdf, d.theme.Muted)
	d.pdf.MultiCell(0, lineHeight, d.tr(s), "", "L", false)
	d.pdf.Ln(2)
}

func (d *document) errorNote(err error) {
	d.pdf.SetFont("Helvetica", "I", 10)
	d.pdf.SetTextColor(200, 30, 30)
	d.pdf.MultiCell(0, lineHeight, d.tr("Erro ao gerar esta seção: "+err.Error()), "", "L", false)
	d.pdf.Ln(2)
}

// isolate runs one section body, turning panics and fpdf errors into a
// returned error so the rest of the document can still be produced.
func (d *document) isolate(body func() error) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic: %v", rec)
		}
		if d.pdf.Err() {
			if err == nil {
				err = d.pdf.Error()
			}
			d.pdf.ClearError()
		}
	}()
	return body()
}

func (d *document) fieldSection(table *survey.Table, field string) SectionOutcome {
	kind := KindFor(field)
	out := SectionOutcome{Field: field, Title: Capitalize(field), Kind: kind}
	d.heading(out.Title, 14)

	freq, err := survey.Frequency(table, field)
	if errors.Is(err, survey.ErrNoValidData) {
		d.note("Nenhum dado válido para esta coluna.")
		out.Status = SectionNoData
		return out
	}

	err = d.isolate(func() error {
		if err != nil {
			return err
		}
		d.frequencyTable(freq)
		chart := Chart{Kind: kind, Field: field, Title: out.Title}
		for _, e := range freq.Entries {
			chart.Labels = append(chart.Labels, e.Value)
			chart.Values = append(chart.Values, float64(e.Count))
		}
		return d.chart(chart)
	})
	return d.finish(out, err)
}

func (d *document) histogramSection(table *survey.Table, ageField string) SectionOutcome {
	out := SectionOutcome{Field: ageField, Title: "Idade", Kind: ChartHistogram}
	d.heading(out.Title, 12)

	hist, err := survey.AgeHistogram(table, ageField)
	if errors.Is(err, survey.ErrNoValidData) {
		d.note("Nenhum dado válido para idade.")
		out.Status = SectionNoData
		return out
	}

	err = d.isolate(func() error {
		if err != nil {
			return err
		}
		chart := Chart{Kind: ChartHistogram, Field: ageField, Title: out.Title}
		for _, b := range hist {
			chart.Labels = append(chart.Labels, b.Label)
			chart.Values = append(chart.Values, float64(b.Count))
		}
		return d.chart(chart)
	})
	return d.finish(out, err)
}

func (d *document) pyramidSection(table *survey.Table, ageField, categoryField string) SectionOutcome {
	out := SectionOutcome{Field: categoryField, Title: "Pirâmide etária por " + Capitalize(categoryField), Kind: ChartPyramid}
	d.heading(out.Title, 12)

	ct, err := survey.AgeBands(table, ageField, categoryField)
	var pyramid survey.Pyramid
	if err == nil {
		pyramid, err = survey.BuildPyramid(ct)
	}
	switch {
	case errors.Is(err, survey.ErrNoValidData):
		d.note("Nenhum dado válido para idade.")
		out.Status = SectionNoData
		return out
	case errors.Is(err, survey.ErrInsufficientData), errors.Is(err, survey.ErrNotBinary):
		d.note("Dados insuficientes para a pirâmide etária.")
		out.Status = SectionSkipped
		out.Err = err
		return out
	}

	err = d.isolate(func() error {
		if err != nil {
			return err
		}
		return d.chart(Chart{Kind: ChartPyramid, Field: categoryField, Title: out.Title, Pyramid: &pyramid})
	})
	return d.finish(out, err)
}

func (d *document) finish(out SectionOutcome, err error) SectionOutcome {
	if err != nil {
		d.errorNote(err)
		out.Status = SectionFailed
		out.Err = err
		return out
	}
	out.Status = SectionRendered
	return out
}

func (d *document) chart(c Chart) error {
	d.ensureSpace(chartHeight)
	left, _, _, _ := d.pdf.GetMargins()
	box := Box{X: left, Y: d.pdf.GetY(), W: d.contentWidth(), H: chartHeight}
	if err := d.drawer.Draw(d.pdf, d.tr, c, d.theme, box); err != nil {
		return fmt.Errorf("failed to draw %s chart: %w", c.Kind, err)
	}
	d.pdf.SetXY(left, box.Y+box.H+4)
	return nil
}

func (d *document) frequencyTable(freq survey.FieldFrequency) {
	w := d.contentWidth()
	cols := []float64{w * 0.6, w * 0.2, w * 0.2}

	header := func() {
		d.pdf.SetFont("Helvetica", "B", 10)
		setFill(d.pdf, d.theme.TableHeader)
		setDraw(d.pdf, d.theme.Border)
		setText(d.pdf, d.theme.Text)
		d.pdf.CellFormat(cols[0], lineHeight+1, "Valor", "1", 0, "L", true, 0, "")
		d.pdf.CellFormat(cols[1], lineHeight+1, "Quantidade", "1", 0, "R", true, 0, "")
		d.pdf.CellFormat(cols[2], lineHeight+1, "%", "1", 1, "R", true, 0, "")
	}

	d.ensureSpace(lineHeight * 3)
	header()
	d.pdf.SetFont("Helvetica", "", 10)
	for i, e := range freq.Entries {
		if _, pageH := d.pdf.GetPageSize(); d.pdf.GetY()+lineHeight > pageH-pageMargin {
			d.pdf.AddPage()
			header()
			d.pdf.SetFont("Helvetica", "", 10)
		}
		fill := d.theme.TableRow
		if i%2 == 1 {
			fill = d.theme.TableAltRow
		}
		setFill(d.pdf, fill)
		setText(d.pdf, d.theme.Text)
		d.pdf.CellFormat(cols[0], lineHeight, fitText(d.pdf, d.tr(e.Value), cols[0]-2), "1", 0, "L", true, 0, "")
		d.pdf.CellFormat(cols[1], lineHeight, fmt.Sprintf("%d", e.Count), "1", 0, "R", true, 0, "")
		d.pdf.CellFormat(cols[2], lineHeight, fmt.Sprintf("%.1f%%", freq.Percent(e)), "1", 1, "R", true, 0, "")
	}
	d.pdf.SetFont("Helvetica", "B", 10)
	setFill(d.pdf, d.theme.TableHeader)
	d.pdf.CellFormat(cols[0], lineHeight, "Total", "1", 0, "L", true, 0, "")
	d.pdf.CellFormat(cols[1], lineHeight, fmt.Sprintf("%d", freq.Total), "1", 0, "R", true, 0, "")
	d.pdf.CellFormat(cols[2], lineHeight, "100.0%", "1", 1, "R", true, 0, "")
	d.pdf.Ln(4)
}

// Capitalize upper-cases the first letter and lower-cases the rest, the way
// section headings are shown.
func Capitalize(s string) string {
	s = strings.TrimSpace(s)
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + strings.ToLower(s[size:])
}

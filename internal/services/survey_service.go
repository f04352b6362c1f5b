package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"mentedigital/internal/config"
	"mentedigital/internal/exporter"
	"mentedigital/internal/report"
	"mentedigital/internal/source"
	"mentedigital/internal/survey"
)

// SnapshotProvider hands out the current source snapshot. *source.Cache
// implements it.
type SnapshotProvider interface {
	Get(ctx context.Context) source.Snapshot
	Invalidate()
	ValidUntil() time.Time
}

// ReportRenderer renders the PDF report. *report.Renderer implements it.
type ReportRenderer interface {
	Render(ctx context.Context, table *survey.Table, opts report.Options) (report.Result, error)
}

// ExportObserver records export outcomes
type ExportObserver interface {
	ObserveExport(ctx context.Context, format string, err error)
}

type nopExportObserver struct{}

func (nopExportObserver) ObserveExport(context.Context, string, error) {}

// SurveyConfig holds the report and statistics settings of the service
type SurveyConfig struct {
	Title    string
	Selector survey.FieldSelector
	AgeField string
	Location *time.Location
	Compress bool
}

// DefaultSurveyConfig returns the settings used when nothing is configured
func DefaultSurveyConfig() SurveyConfig {
	return SurveyConfig{
		Title:    report.DefaultTitle,
		Selector: survey.DefaultFieldSelector(),
		AgeField: survey.DefaultAgeField,
		Location: time.Local,
	}
}

// SurveyConfigFrom builds the service settings from the report config
func SurveyConfigFrom(cfg config.ReportConfig) (SurveyConfig, error) {
	loc, err := cfg.Location()
	if err != nil {
		return SurveyConfig{}, fmt.Errorf("invalid report timezone: %w", err)
	}
	sc := DefaultSurveyConfig()
	sc.Location = loc
	sc.Compress = cfg.Compress
	if cfg.Title != "" {
		sc.Title = cfg.Title
	}
	if cfg.AgeField != "" {
		sc.AgeField = cfg.AgeField
	}
	if cfg.ExcludedPrefix != "" {
		sc.Selector.ExcludedPrefix = cfg.ExcludedPrefix
	}
	if len(cfg.ProfileFields) > 0 {
		sc.Selector.Profile = cfg.ProfileFields
	}
	return sc, nil
}

// SurveyService runs the cleaning and aggregation pipeline over the cached
// snapshot
type SurveyService struct {
	snapshots SnapshotProvider
	renderer  ReportRenderer
	exports   ExportObserver
	cfg       SurveyConfig
	logger    *slog.Logger
	now       func() time.Time

	mu       sync.Mutex
	rawTable *survey.Table
	cleaned  *survey.Table
}

// SurveyOption customizes a SurveyService
type SurveyOption func(*SurveyService)

// WithExportObserver registers a metrics observer for exports
func WithExportObserver(o ExportObserver) SurveyOption {
	return func(s *SurveyService) {
		if o != nil {
			s.exports = o
		}
	}
}

// WithServiceClock replaces the clock used for report timestamps
func WithServiceClock(now func() time.Time) SurveyOption {
	return func(s *SurveyService) { s.now = now }
}

// NewSurveyService creates the survey service
func NewSurveyService(snapshots SnapshotProvider, renderer ReportRenderer, cfg SurveyConfig, logger *slog.Logger, opts ...SurveyOption) *SurveyService {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.AgeField == "" {
		cfg.AgeField = survey.DefaultAgeField
	}
	if cfg.Selector.ExcludedPrefix == "" && len(cfg.Selector.Profile) == 0 {
		cfg.Selector = survey.DefaultFieldSelector()
	}
	s := &SurveyService{
		snapshots: snapshots,
		renderer:  renderer,
		exports:   nopExportObserver{},
		cfg:       cfg,
		logger:    logger.With(slog.String("component", "survey_service")),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Config returns the service settings
func (s *SurveyService) Config() SurveyConfig {
	return s.cfg
}

// DataSnapshot is the cleaned view of one source snapshot
type DataSnapshot struct {
	Table      *survey.Table `json:"-"`
	Columns    []string      `json:"columns"`
	Rows       int           `json:"rows"`
	Source     string        `json:"source"`
	FetchedAt  time.Time     `json:"fetched_at"`
	ValidUntil time.Time     `json:"valid_until"`
	Warning    string        `json:"warning,omitempty"`
}

// Empty reports whether the snapshot has no records
func (d DataSnapshot) Empty() bool {
	return d.Table == nil || d.Table.IsEmpty()
}

// Snapshot returns the current cleaned snapshot. It never fails: a source
// failure yields an empty table and a warning.
func (s *SurveyService) Snapshot(ctx context.Context) DataSnapshot {
	snap := s.snapshots.Get(ctx)
	table := s.clean(snap.Table)

	out := DataSnapshot{
		Table:      table,
		Columns:    table.Columns(),
		Rows:       table.Len(),
		Source:     snap.Source,
		FetchedAt:  snap.FetchedAt,
		ValidUntil: s.snapshots.ValidUntil(),
	}
	if snap.Warning != nil {
		out.Warning = snap.Warning.Error()
	}
	return out
}

// clean memoizes the cleaned table of the last raw snapshot table
func (s *SurveyService) clean(raw *survey.Table) *survey.Table {
	if raw == nil {
		return survey.EmptyTable()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.rawTable != raw {
		s.rawTable = raw
		s.cleaned = raw.Clean(s.cfg.AgeField)
	}
	return s.cleaned
}

// table returns the cleaned table or ErrNoData
func (s *SurveyService) table(ctx context.Context) (*survey.Table, error) {
	snap := s.Snapshot(ctx)
	if snap.Empty() {
		if snap.Warning != "" {
			return nil, fmt.Errorf("%w: %s", ErrNoData, snap.Warning)
		}
		return nil, ErrNoData
	}
	return snap.Table, nil
}

// Refresh drops the cached snapshot and loads a fresh one
func (s *SurveyService) Refresh(ctx context.Context) DataSnapshot {
	s.snapshots.Invalidate()
	s.logger.InfoContext(ctx, "Survey cache invalidated")
	return s.Snapshot(ctx)
}

// Fields returns the filterable columns
func (s *SurveyService) Fields(ctx context.Context) ([]string, error) {
	t, err := s.table(ctx)
	if err != nil {
		return nil, err
	}
	return survey.FilterableFields(t), nil
}

// ReportableFields returns the profile fields shown in the report and on
// the statistics page
func (s *SurveyService) ReportableFields(ctx context.Context) ([]string, error) {
	t, err := s.table(ctx)
	if err != nil {
		return nil, err
	}
	return s.cfg.Selector.Select(t.Columns()), nil
}

// Values returns the sorted distinct values of a field
func (s *SurveyService) Values(ctx context.Context, field string) ([]string, error) {
	t, err := s.table(ctx)
	if err != nil {
		return nil, err
	}
	values, err := survey.DistinctValues(t, field)
	if err != nil {
		return nil, fmt.Errorf("distinct values of %q: %w", field, err)
	}
	return values, nil
}

// Frequency returns the frequency table of a field
func (s *SurveyService) Frequency(ctx context.Context, field string) (survey.FieldFrequency, error) {
	t, err := s.table(ctx)
	if err != nil {
		return survey.FieldFrequency{}, err
	}
	freq, err := survey.Frequency(t, field)
	if err != nil {
		return survey.FieldFrequency{}, fmt.Errorf("frequency of %q: %w", field, err)
	}
	return freq, nil
}

// Records returns the cleaned table, restricted to the rows whose field
// equals value when both are given
func (s *SurveyService) Records(ctx context.Context, field, value string) (*survey.Table, error) {
	t, err := s.table(ctx)
	if err != nil {
		return nil, err
	}
	if field == "" {
		return t, nil
	}
	if value == "" {
		if !t.HasColumn(field) {
			return nil, fmt.Errorf("filter on %q: %w", field, survey.ErrFieldNotFound)
		}
		return t, nil
	}
	filtered, err := survey.Filter(t, field, value)
	if err != nil {
		return nil, fmt.Errorf("filter on %q: %w", field, err)
	}
	return filtered, nil
}

// AgeBands cross-tabulates the configured age field against category
func (s *SurveyService) AgeBands(ctx context.Context, category string) (survey.CrossTab, error) {
	t, err := s.table(ctx)
	if err != nil {
		return survey.CrossTab{}, err
	}
	ct, err := survey.AgeBands(t, s.cfg.AgeField, category)
	if err != nil {
		return survey.CrossTab{}, fmt.Errorf("age bands by %q: %w", category, err)
	}
	return ct, nil
}

// Pyramid builds the age pyramid of a binary category. An empty category
// selects the gender field.
func (s *SurveyService) Pyramid(ctx context.Context, category string) (survey.Pyramid, error) {
	t, err := s.table(ctx)
	if err != nil {
		return survey.Pyramid{}, err
	}
	if category == "" {
		category = genderField(t)
		if category == "" {
			return survey.Pyramid{}, fmt.Errorf("pyramid: no gender field: %w", survey.ErrFieldNotFound)
		}
	}
	ct, err := survey.AgeBands(t, s.cfg.AgeField, category)
	if err != nil {
		return survey.Pyramid{}, fmt.Errorf("pyramid by %q: %w", category, err)
	}
	p, err := survey.BuildPyramid(ct)
	if err != nil {
		return survey.Pyramid{}, fmt.Errorf("pyramid by %q: %w", category, err)
	}
	return p, nil
}

func genderField(t *survey.Table) string {
	for _, c := range t.Columns() {
		if report.IsGenderField(c) {
			return c
		}
	}
	return ""
}

// FieldStatistics is the frequency table of one reportable field, or the
// reason it has none
type FieldStatistics struct {
	Field     string                 `json:"field"`
	Frequency *survey.FieldFrequency `json:"frequency,omitempty"`
	Error     string                 `json:"error,omitempty"`
}

// Statistics is everything the statistics page shows
type Statistics struct {
	Rows       int                `json:"rows"`
	Fields     []FieldStatistics  `json:"fields"`
	Ages       *survey.AgeSummary `json:"ages,omitempty"`
	Histogram  []survey.BandCount `json:"histogram,omitempty"`
	Pyramid    *survey.Pyramid    `json:"pyramid,omitempty"`
	AgeError   string             `json:"age_error,omitempty"`
	PyramidErr string             `json:"pyramid_error,omitempty"`
}

// Statistics computes the frequency tables of the reportable fields and the
// age summaries. A field without valid data carries its error instead of
// failing the whole result.
func (s *SurveyService) Statistics(ctx context.Context) (Statistics, error) {
	t, err := s.table(ctx)
	if err != nil {
		return Statistics{}, err
	}

	st := Statistics{Rows: t.Len()}
	for _, field := range s.cfg.Selector.Select(t.Columns()) {
		fs := FieldStatistics{Field: field}
		freq, err := survey.Frequency(t, field)
		switch {
		case err != nil:
			fs.Error = err.Error()
		case freq.Total == 0:
			fs.Error = fmt.Sprintf("no valid data in %q", field)
		default:
			fs.Frequency = &freq
		}
		st.Fields = append(st.Fields, fs)
	}

	if !t.HasColumn(s.cfg.AgeField) {
		return st, nil
	}
	if ages, err := survey.DescribeAges(t, s.cfg.AgeField); err != nil {
		st.AgeError = err.Error()
	} else {
		st.Ages = &ages
	}
	if hist, err := survey.AgeHistogram(t, s.cfg.AgeField); err == nil {
		st.Histogram = hist
	}
	if gender := genderField(t); gender != "" {
		ct, err := survey.AgeBands(t, s.cfg.AgeField, gender)
		if err == nil {
			var p survey.Pyramid
			if p, err = survey.BuildPyramid(ct); err == nil {
				st.Pyramid = &p
			}
		}
		if err != nil {
			st.PyramidErr = err.Error()
		}
	}
	return st, nil
}

// RenderedReport is a generated PDF and its download name
type RenderedReport struct {
	PDF      []byte
	Filename string
	Sections []report.SectionOutcome
}

// Report renders the PDF report of the cleaned table with the given theme
func (s *SurveyService) Report(ctx context.Context, theme report.Theme) (RenderedReport, error) {
	t, err := s.table(ctx)
	if err != nil {
		return RenderedReport{}, err
	}

	result, err := s.renderer.Render(ctx, t, report.Options{
		Title:       s.cfg.Title,
		Theme:       theme,
		GeneratedAt: s.now(),
		Location:    s.cfg.Location,
		Selector:    s.cfg.Selector,
		AgeField:    s.cfg.AgeField,
		Compress:    s.cfg.Compress,
	})
	if err != nil {
		return RenderedReport{}, fmt.Errorf("render report: %w", err)
	}
	if failed := result.Failed(); len(failed) > 0 {
		s.logger.WarnContext(ctx, "Report rendered with failed sections",
			slog.Int("failed", len(failed)),
			slog.Int("sections", len(result.Sections)))
	}
	return RenderedReport{
		PDF:      result.PDF,
		Filename: report.Filename(result.GeneratedAt),
		Sections: result.Sections,
	}, nil
}

// ExportBaseName is the file name of exports without extension
const ExportBaseName = "dados_pesquisa"

// Export writes the cleaned table without the timestamp column in the given
// format and returns the download name
func (s *SurveyService) Export(ctx context.Context, format exporter.Format, w io.Writer) (filename string, err error) {
	defer func() { s.exports.ObserveExport(ctx, string(format), err) }()

	t, err := s.table(ctx)
	if err != nil {
		return "", err
	}
	if err = exporter.Write(w, format, t.Without(survey.TimestampColumn)); err != nil {
		return "", fmt.Errorf("export %s: %w", format, err)
	}
	s.logger.InfoContext(ctx, "Survey data exported",
		slog.String("format", string(format)),
		slog.Int("rows", t.Len()))
	return format.Filename(ExportBaseName), nil
}

package source

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"mentedigital/internal/survey"
)

const tracerName = "mentedigital/source"

// DefaultTimeout bounds one fetch cycle, retries included
const DefaultTimeout = 15 * time.Second

// Snapshot is the result of one load cycle. Warning holds the fetch error
// when the table is empty because the source failed.
type Snapshot struct {
	Table     *survey.Table
	FetchedAt time.Time
	Source    string
	Warning   error
}

// OK reports whether the snapshot came from a successful fetch
func (s Snapshot) OK() bool {
	return s.Warning == nil
}

// Observer receives loader and cache events, typically for metrics
type Observer interface {
	ObserveFetch(ctx context.Context, source string, rows int, elapsed time.Duration, err error)
	ObserveCache(ctx context.Context, hit bool)
}

type nopObserver struct{}

func (nopObserver) ObserveFetch(context.Context, string, int, time.Duration, error) {}
func (nopObserver) ObserveCache(context.Context, bool)                              {}

// Loader fetches the raw export and turns it into a table. Load never fails:
// a fetch error yields an empty table and the error as a warning.
type Loader struct {
	source   Source
	rules    []survey.HeaderRule
	timeout  time.Duration
	retry    Retry
	logger   *slog.Logger
	observer Observer
	tracer   trace.Tracer
	now      func() time.Time
}

// LoaderOption customizes a Loader
type LoaderOption func(*Loader)

// WithTimeout sets the fetch budget
func WithTimeout(d time.Duration) LoaderOption {
	return func(l *Loader) { l.timeout = d }
}

// WithRetry sets the retry policy
func WithRetry(attempts int, baseDelay time.Duration) LoaderOption {
	return func(l *Loader) {
		l.retry.MaxAttempts = attempts
		l.retry.BaseDelay = baseDelay
	}
}

// WithHeaderRules replaces the header detection rules
func WithHeaderRules(rules []survey.HeaderRule) LoaderOption {
	return func(l *Loader) { l.rules = rules }
}

// WithObserver registers a metrics observer
func WithObserver(o Observer) LoaderOption {
	return func(l *Loader) {
		if o != nil {
			l.observer = o
		}
	}
}

// WithClock replaces the clock used to stamp snapshots
func WithClock(now func() time.Time) LoaderOption {
	return func(l *Loader) { l.now = now }
}

// NewLoader creates a loader for src
func NewLoader(src Source, logger *slog.Logger, opts ...LoaderOption) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("component", "source_loader"), slog.String("source", src.Name()))

	l := &Loader{
		source:   src,
		rules:    survey.DefaultHeaderRules,
		timeout:  DefaultTimeout,
		retry:    Retry{MaxAttempts: 2, BaseDelay: 500 * time.Millisecond, Logger: logger},
		logger:   logger,
		observer: nopObserver{},
		tracer:   otel.Tracer(tracerName),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load runs one fetch cycle
func (l *Loader) Load(ctx context.Context) Snapshot {
	ctx, span := l.tracer.Start(ctx, "source.Load",
		trace.WithAttributes(attribute.String("source.name", l.source.Name())))
	defer span.End()

	if l.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}

	start := l.now()
	var rows [][]string
	err := l.retry.Do(ctx, "fetch "+l.source.Name(), func(ctx context.Context) error {
		var ferr error
		rows, ferr = l.source.Fetch(ctx)
		return ferr
	})
	elapsed := l.now().Sub(start)

	snap := Snapshot{FetchedAt: l.now(), Source: l.source.Name()}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch failed")
		l.logger.WarnContext(ctx, "Failed to load survey data, serving empty table",
			slog.String("error", err.Error()),
			slog.Duration("elapsed", elapsed))
		l.observer.ObserveFetch(ctx, l.source.Name(), 0, elapsed, err)

		snap.Table = survey.EmptyTable()
		snap.Warning = fmt.Errorf("failed to load survey data: %w", err)
		return snap
	}

	snap.Table = survey.BuildTable(rows, l.rules)
	span.SetAttributes(
		attribute.Int("survey.rows", snap.Table.Len()),
		attribute.Int("survey.columns", len(snap.Table.Columns())))
	l.logger.InfoContext(ctx, "Survey data loaded",
		slog.Int("rows", snap.Table.Len()),
		slog.Int("columns", len(snap.Table.Columns())),
		slog.Duration("elapsed", elapsed))
	l.observer.ObserveFetch(ctx, l.source.Name(), snap.Table.Len(), elapsed, nil)
	return snap
}

package summary

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/i474232898/gridmet-summary/internal/gridmet"
	"github.com/i474232898/gridmet-summary/internal/observability"
)

// ErrUnknownPreset is returned for preset names outside the known set.
var ErrUnknownPreset = errors.New("unknown preset")

// Service validates aggregation requests, exports them and records the results.
type Service struct {
	store    Store
	exporter Exporter
	metrics  *observability.Metrics
	clock    clockwork.Clock
	logger   *zap.Logger
}

// NewService creates a new Service.
func NewService(logger *zap.Logger, store Store, exporter Exporter, metrics *observability.Metrics, clock clockwork.Clock) *Service {
	return &Service{
		store:    store,
		exporter: exporter,
		metrics:  metrics,
		clock:    clock,
		logger:   logger,
	}
}

// Preview validates req and returns its descriptor without calling the platform.
func (s *Service) Preview(req gridmet.Request) (gridmet.Descriptor, error) {
	d, err := gridmet.Build(req)
	if err != nil {
		var verr *gridmet.ValidationError
		if errors.As(err, &verr) {
			s.metrics.Builds.WithLabelValues(string(verr.Kind)).Inc()
		}
		return gridmet.Descriptor{}, err
	}
	s.metrics.Builds.WithLabelValues("ok").Inc()
	return d, nil
}

// Run validates req, exports it and stores the resulting record. Invalid
// requests never reach the exporter.
func (s *Service) Run(ctx context.Context, req gridmet.Request) (Record, error) {
	d, err := s.Preview(req)
	if err != nil {
		s.logger.Info("rejected aggregation request",
			zap.String("variable", req.Variable),
			zap.String("unit", req.Unit),
			zap.String("statistic", req.Statistic),
			zap.Error(err),
		)
		return Record{}, err
	}

	start := s.clock.Now()
	files, err := s.exporter.Export(ctx, d)
	elapsed := s.clock.Since(start)
	s.metrics.ExportDuration.Observe(elapsed.Seconds())
	if err != nil {
		s.metrics.Exports.WithLabelValues("error").Inc()
		s.logger.Error("export failed",
			zap.String("band", d.Band),
			zap.Time("start", d.Window.Start),
			zap.Time("end", d.Window.End),
			zap.Error(err),
		)
		return Record{}, fmt.Errorf("export %s: %w", d.Band, err)
	}
	s.metrics.Exports.WithLabelValues("success").Inc()
	s.metrics.BandsWritten.Add(float64(len(files)))

	rec := Record{
		ID:         uuid.NewString(),
		Request:    req,
		Descriptor: d,
		Files:      files,
		Sink:       s.exporter.SinkName(),
		CreatedAt:  s.clock.Now().UTC(),
		Duration:   elapsed,
	}
	s.store.Save(rec)

	s.logger.Info("export complete",
		zap.String("id", rec.ID),
		zap.String("band", d.Band),
		zap.String("reducer", string(d.Reducer)),
		zap.Strings("files", files),
		zap.Duration("duration", elapsed),
	)
	return rec, nil
}

// MonthlyPrecip sums precipitation over the calendar month starting on the first.
func (s *Service) MonthlyPrecip(ctx context.Context, year, month int, path string) (Record, error) {
	return s.Run(ctx, gridmet.Request{
		Variable:   "pr",
		Year:       year,
		Month:      month,
		Day:        1,
		Length:     1,
		Unit:       string(gridmet.UnitMonth),
		Statistic:  string(gridmet.ReducerSum),
		OutputPath: path,
	})
}

// AnnualPrecip sums precipitation over the year starting on the first of month.
func (s *Service) AnnualPrecip(ctx context.Context, year, month int, path string) (Record, error) {
	return s.Run(ctx, gridmet.Request{
		Variable:   "pr",
		Year:       year,
		Month:      month,
		Day:        1,
		Length:     1,
		Unit:       string(gridmet.UnitYear),
		Statistic:  string(gridmet.ReducerSum),
		OutputPath: path,
	})
}

// RunPreset runs p for the most recent complete period as of the service clock.
func (s *Service) RunPreset(ctx context.Context, p Preset, outputDir string) (Record, error) {
	now := s.clock.Now().UTC()
	thisMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)

	switch p {
	case PresetMonthlyPrecip:
		start := thisMonth.AddDate(0, -1, 0)
		path := filepath.Join(outputDir, fmt.Sprintf("pr_monthly_%s.tif", start.Format("200601")))
		return s.MonthlyPrecip(ctx, start.Year(), int(start.Month()), path)
	case PresetAnnualPrecip:
		start := thisMonth.AddDate(-1, 0, 0)
		path := filepath.Join(outputDir, fmt.Sprintf("pr_12month_%s.tif", start.Format("200601")))
		return s.AnnualPrecip(ctx, start.Year(), int(start.Month()), path)
	default:
		return Record{}, fmt.Errorf("%w: %q", ErrUnknownPreset, p)
	}
}

// ParsePreset validates a preset name.
func ParsePreset(name string) (Preset, error) {
	switch p := Preset(name); p {
	case PresetMonthlyPrecip, PresetAnnualPrecip:
		return p, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownPreset, name)
	}
}

// Get delegates to the underlying store.
func (s *Service) Get(id string) (Record, error) {
	return s.store.Get(id)
}

// Latest delegates to the underlying store.
func (s *Service) Latest(variable string) (Record, error) {
	return s.store.Latest(variable)
}

// History delegates to the underlying store.
func (s *Service) History(variable string, from, to time.Time) ([]Record, error) {
	return s.store.Range(variable, from, to)
}

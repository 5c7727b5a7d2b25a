package services

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"appliance-dashboard/internal/models"
	"appliance-dashboard/internal/observability"
)

// Tick is the full result of one pass of the pipeline.
type Tick struct {
	Options       models.FilterOptions   `json:"options"`
	Selection     models.SelectionInput  `json:"selection"`
	View          []models.SalesRecord   `json:"-"`
	KPIs          models.KPISnapshot     `json:"kpis"`
	Display       models.KPIDisplay      `json:"display"`
	CategorySales []models.CategorySales `json:"category_sales"`
	SalesTrend    []models.DailySales    `json:"sales_trend"`
	RatingBins    []models.RatingBin     `json:"rating_bins"`
	TotalRecords  int                    `json:"total_records"`
	GeneratedAt   time.Time              `json:"generated_at"`
}

// Source yields the current dataset snapshot.
type Source interface {
	Dataset(ctx context.Context) (*Dataset, error)
}

type Dashboard struct {
	source Source
	bins   int
	logger *slog.Logger
}

type DashboardOption func(*Dashboard)

func WithHistogramBins(n int) DashboardOption {
	return func(d *Dashboard) {
		if n > 0 {
			d.bins = n
		}
	}
}

func WithLogger(logger *slog.Logger) DashboardOption {
	return func(d *Dashboard) {
		d.logger = logger
	}
}

func NewDashboard(source Source, opts ...DashboardOption) *Dashboard {
	d := &Dashboard{
		source: source,
		bins:   DefaultHistogramBins,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Dataset returns the snapshot the next tick would use.
func (d *Dashboard) Dataset(ctx context.Context) (*Dataset, error) {
	return d.source.Dataset(ctx)
}

// Tick loads the current snapshot and recomputes every view from scratch.
func (d *Dashboard) Tick(ctx context.Context, in models.SelectionInput) (*Tick, error) {
	ctx, span := observability.StartSpan(ctx, "dashboard.tick")
	defer span.Finish()

	ds, err := d.source.Dataset(ctx)
	if err != nil {
		span.SetError(err)
		return nil, err
	}

	sel, err := ResolveSelection(in, ds.Options)
	if err != nil {
		span.SetError(err)
		return nil, err
	}

	tick := Compute(ds, sel, d.bins)
	tick.Selection = EchoSelection(sel, ds.Options)

	span.SetTag("view.rows", strconv.Itoa(len(tick.View)))
	d.logger.DebugContext(ctx, "dashboard tick",
		"trace_id", span.TraceID,
		"records", tick.TotalRecords,
		"view_rows", len(tick.View),
		"duration", time.Since(span.StartTime),
	)

	return tick, nil
}

// Compute runs filter, KPI and chart preparation over a snapshot.
func Compute(ds *Dataset, sel models.Selection, bins int) *Tick {
	view := Filter(ds.Records, sel)
	kpis := ComputeKPIs(view)

	return &Tick{
		Options:       ds.Options,
		View:          view,
		KPIs:          kpis,
		Display:       FormatKPIs(kpis),
		CategorySales: SalesByCategory(view),
		SalesTrend:    SalesTrend(view),
		RatingBins:    RatingDistribution(view, bins),
		TotalRecords:  len(ds.Records),
		GeneratedAt:   time.Now(),
	}
}

// EchoSelection reports a resolved selection in input form, ordered like the
// dataset's options.
func EchoSelection(sel models.Selection, opts models.FilterOptions) models.SelectionInput {
	pick := func(set map[string]struct{}, all []string) []string {
		out := make([]string, 0, len(set))
		for _, v := range all {
			if _, ok := set[v]; ok {
				out = append(out, v)
			}
		}
		return out
	}
	return models.SelectionInput{
		Categories: pick(sel.Categories, opts.Categories),
		Regions:    pick(sel.Regions, opts.Regions),
		Start:      sel.Start.Format(dateLayout),
		End:        sel.End.Format(dateLayout),
	}
}

// FileSource serves snapshots of one CSV file through a DatasetCache.
type FileSource struct {
	Path  string
	Cache *DatasetCache
}

func (s *FileSource) Dataset(ctx context.Context) (*Dataset, error) {
	return s.Cache.Get(ctx, s.Path)
}

// StaticSource always returns the same snapshot.
type StaticSource struct {
	Data *Dataset
}

func (s StaticSource) Dataset(context.Context) (*Dataset, error) {
	return s.Data, nil
}

type statsProvider interface {
	Stats() CacheStats
}

// Stats reports the current snapshot and, for cached sources, cache counters.
func (d *Dashboard) Stats(ctx context.Context) map[string]any {
	stats := map[string]any{}

	if ds, err := d.source.Dataset(ctx); err != nil {
		stats["dataset_error"] = err.Error()
	} else {
		stats["source"] = ds.Source
		stats["record_count"] = len(ds.Records)
		stats["categories"] = len(ds.Options.Categories)
		stats["regions"] = len(ds.Options.Regions)
		stats["min_date"] = ds.Options.MinDate.Format(dateLayout)
		stats["max_date"] = ds.Options.MaxDate.Format(dateLayout)
		stats["loaded_at"] = ds.LoadedAt
		stats["modified_at"] = ds.ModTime
	}

	if sp, ok := d.source.(statsProvider); ok {
		stats["cache"] = sp.Stats()
	}

	return stats
}

func (s *FileSource) Stats() CacheStats {
	return s.Cache.Stats()
}

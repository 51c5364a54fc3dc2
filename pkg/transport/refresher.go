package transport

import (
	"context"
	"log/slog"
	"time"

	"github.com/thefitz/companion/pkg/config"
	"github.com/thefitz/companion/pkg/events"
	"github.com/thefitz/companion/pkg/metrics"
	"github.com/thefitz/companion/pkg/models"
	"github.com/thefitz/companion/pkg/services"
)

// Refresh job names, used in metrics and warnings.
const (
	JobFlights = "flights"
	JobTraffic = "traffic"
	JobRail    = "rail"
)

// railLateMinutes is the announced delay from which a train counts as late.
const railLateMinutes = 5

// FlightsResult reports a flight refresh.
type FlightsResult struct {
	Tracked   int
	Timestamp time.Time
}

// TrafficResult reports a traffic refresh.
type TrafficResult struct {
	TravelTimeMins *int
	TrafficStatus  string
	Timestamp      time.Time
}

// RailResult reports a rail refresh.
type RailResult struct {
	Summary   string
	Status    string
	Timestamp time.Time
}

// Refresher updates the transport cache from the providers. Each refresh is
// idempotent and safe to run from several replicas. Provider failures are
// recorded as warnings and never fail a refresh; store failures do.
type Refresher struct {
	cfg       *config.TransportConfig
	store     Store
	traffic   TrafficProvider
	rail      RailFetcher
	metrics   *metrics.JobMetrics
	warnings  *services.SystemWarningsService
	publisher events.Publisher
	now       func() time.Time
	logger    *slog.Logger

	cancel context.CancelFunc
	done   chan struct{}
}

// RefresherOptions wires the optional collaborators of a Refresher. A nil
// provider skips that source.
type RefresherOptions struct {
	Traffic   TrafficProvider
	Rail      RailFetcher
	Metrics   *metrics.JobMetrics
	Warnings  *services.SystemWarningsService
	Publisher events.Publisher
}

// NewRefresher creates a Refresher.
func NewRefresher(cfg *config.TransportConfig, store Store, opts RefresherOptions) *Refresher {
	return &Refresher{
		cfg:       cfg,
		store:     store,
		traffic:   opts.Traffic,
		rail:      opts.Rail,
		metrics:   opts.Metrics,
		warnings:  opts.Warnings,
		publisher: opts.Publisher,
		now:       time.Now,
		logger:    slog.Default().With("component", "transport-refresher"),
	}
}

// RefreshFlights stamps the cache row of every flight a guest is on.
func (r *Refresher) RefreshFlights(ctx context.Context) (*FlightsResult, error) {
	res, err := r.refreshFlights(ctx)
	r.finish(ctx, JobFlights, err)
	return res, err
}

func (r *Refresher) refreshFlights(ctx context.Context) (*FlightsResult, error) {
	numbers, err := r.store.TrackedFlightNumbers(ctx)
	if err != nil {
		return nil, err
	}
	now := r.now().UTC()
	if len(numbers) == 0 {
		return &FlightsResult{Timestamp: now}, nil
	}
	n, err := r.store.TouchFlights(ctx, numbers, now)
	if err != nil {
		return nil, err
	}
	return &FlightsResult{Tracked: n, Timestamp: now}, nil
}

// RefreshTraffic stores the current airport-to-hotel travel time. Without a
// provider, or when it fails, the route is stored as unknown.
func (r *Refresher) RefreshTraffic(ctx context.Context) (*TrafficResult, error) {
	res := &TrafficResult{TrafficStatus: models.TrafficUnknown, Timestamp: r.now().UTC()}

	if r.traffic != nil {
		callCtx, cancel := r.callContext(ctx)
		inTraffic, normal, err := r.traffic.TravelTimes(callCtx, r.cfg.Origin, r.cfg.Destination)
		cancel()
		if err != nil {
			r.logger.Error("Traffic lookup failed", "error", err)
			r.warnings.Add(services.WarningCategoryRefresh, JobTraffic, "Traffic lookup failed", err.Error())
		} else {
			travel := RoundMinutes(inTraffic)
			res.TravelTimeMins = &travel
			res.TrafficStatus = ClassifyTraffic(travel, RoundMinutes(normal))
		}
	}

	ts := res.Timestamp
	err := r.store.UpsertRoute(ctx, &models.TransportStatus{
		RouteKey:       r.cfg.RouteKey,
		TransportType:  models.TransportRoad,
		TravelTimeMins: res.TravelTimeMins,
		TrafficStatus:  res.TrafficStatus,
		LastUpdated:    &ts,
	})
	r.finish(ctx, JobTraffic, err)
	if err != nil {
		return nil, err
	}
	if res.TravelTimeMins != nil {
		r.warnings.Clear(services.WarningCategoryRefresh, JobTraffic)
	}
	return res, nil
}

// RefreshRail summarises the running trains into the rail cache row. A feed
// failure leaves the previous row in place.
func (r *Refresher) RefreshRail(ctx context.Context) (*RailResult, error) {
	res := &RailResult{Timestamp: r.now().UTC()}
	if r.rail == nil {
		return res, nil
	}

	callCtx, cancel := r.callContext(ctx)
	trains, err := r.rail.CurrentTrains(callCtx)
	cancel()
	if err != nil {
		r.logger.Error("Irish Rail lookup failed", "error", err)
		r.warnings.Add(services.WarningCategoryRefresh, JobRail, "Irish Rail lookup failed", err.Error())
		r.metrics.RecordRefresh(JobRail, err)
		return res, nil
	}

	summary := SummarizeTrains(trains, railLateMinutes)
	res.Summary = summary.Text()
	res.Status = summary.Level()

	ts := res.Timestamp
	text := res.Summary
	err = r.store.UpsertRoute(ctx, &models.TransportStatus{
		RouteKey:      RailRouteKey,
		TransportType: models.TransportRail,
		TrafficStatus: res.Status,
		Summary:       &text,
		LastUpdated:   &ts,
	})
	r.finish(ctx, JobRail, err)
	if err != nil {
		return nil, err
	}
	r.warnings.Clear(services.WarningCategoryRefresh, JobRail)
	return res, nil
}

func (r *Refresher) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.cfg.RequestTimeout > 0 {
		return context.WithTimeout(ctx, r.cfg.RequestTimeout)
	}
	return context.WithCancel(ctx)
}

// finish records the outcome of a job and signals dashboards on success.
func (r *Refresher) finish(ctx context.Context, job string, err error) {
	r.metrics.RecordRefresh(job, err)
	if err != nil {
		r.logger.Error("Transport refresh failed", "job", job, "error", err)
		return
	}
	if r.publisher != nil {
		if err := r.publisher.Publish(ctx, events.NewChange(events.ResourceTransport, events.ActionRefreshed, job)); err != nil {
			r.logger.Warn("Failed to publish change", "resource", events.ResourceTransport, "error", err)
		}
	}
}

// Start launches the in-process refresh loop. It does nothing when no
// refresh interval is configured.
func (r *Refresher) Start(ctx context.Context) {
	if r.cancel != nil || r.cfg.RefreshInterval <= 0 {
		return
	}
	ctx, r.cancel = context.WithCancel(ctx)
	r.done = make(chan struct{})

	go r.run(ctx)

	r.logger.Info("Transport refresher started", "interval", r.cfg.RefreshInterval,
		"traffic", r.traffic != nil, "rail", r.rail != nil)
}

// Stop signals the refresh loop to exit and waits for it to finish.
func (r *Refresher) Stop() {
	if r.cancel == nil {
		return
	}
	r.cancel()
	<-r.done
	r.logger.Info("Transport refresher stopped")
}

func (r *Refresher) run(ctx context.Context) {
	defer close(r.done)

	r.runAll(ctx)

	ticker := time.NewTicker(r.cfg.RefreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.runAll(ctx)
		}
	}
}

func (r *Refresher) runAll(ctx context.Context) {
	if res, err := r.RefreshFlights(ctx); err == nil && res.Tracked > 0 {
		r.logger.Debug("Refreshed flights", "tracked", res.Tracked)
	}
	_, _ = r.RefreshTraffic(ctx)
	_, _ = r.RefreshRail(ctx)
}

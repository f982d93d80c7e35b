// Package metrics exposes Prometheus metrics for catalog refreshes, roster
// syncs and trade searches. All methods are safe on a nil *Registry.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds all Prometheus metrics for the dynasty service
type Registry struct {
	reg *prometheus.Registry

	RefreshTotal    *prometheus.CounterVec
	RefreshDuration prometheus.Histogram
	CatalogEntries  prometheus.Gauge
	CatalogBuiltAt  prometheus.Gauge

	SyncTotal      *prometheus.CounterVec
	IngestSkipped  *prometheus.CounterVec
	TeamsTracked   prometheus.Gauge
	PhaseTeams     *prometheus.GaugeVec
	TradeDuration  *prometheus.HistogramVec
	ProposalsTotal *prometheus.CounterVec
}

// New creates a registry with every dynasty metric plus the Go and process
// collectors
func New() *Registry {
	r := &Registry{
		reg: prometheus.NewRegistry(),

		RefreshTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dynasty_catalog_refresh_total",
				Help: "Catalog refresh attempts by result",
			},
			[]string{"result"},
		),
		RefreshDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "dynasty_catalog_refresh_duration_seconds",
				Help:    "Duration of a catalog refresh including the feed fetch",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
			},
		),
		CatalogEntries: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "dynasty_catalog_entries",
				Help: "Player entries in the live catalog",
			},
		),
		CatalogBuiltAt: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "dynasty_catalog_built_timestamp_seconds",
				Help: "Unix time the live catalog was built",
			},
		),
		SyncTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dynasty_roster_sync_total",
				Help: "Roster sync attempts by result",
			},
			[]string{"result"},
		),
		IngestSkipped: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dynasty_ingest_skipped_total",
				Help: "Malformed feed entries skipped during ingest",
			},
			[]string{"source"},
		),
		TeamsTracked: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "dynasty_teams",
				Help: "Teams in the league",
			},
		),
		PhaseTeams: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "dynasty_phase_teams",
				Help: "Teams per classified phase",
			},
			[]string{"phase"},
		),
		TradeDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "dynasty_trade_search_duration_seconds",
				Help:    "Duration of a trade search for one team",
				Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25},
			},
			[]string{"mode"},
		),
		ProposalsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dynasty_trade_proposals_total",
				Help: "Trade proposals returned by type",
			},
			[]string{"type"},
		),
	}

	r.reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		r.RefreshTotal,
		r.RefreshDuration,
		r.CatalogEntries,
		r.CatalogBuiltAt,
		r.SyncTotal,
		r.IngestSkipped,
		r.TeamsTracked,
		r.PhaseTeams,
		r.TradeDuration,
		r.ProposalsTotal,
	)
	return r
}

// Handler serves the registry in the Prometheus exposition format
func (r *Registry) Handler() http.Handler {
	if r == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// ObserveRefresh records a refresh attempt. entries and builtAt describe the
// live catalog afterwards, which is unchanged when err is set.
func (r *Registry) ObserveRefresh(started time.Time, err error, entries int, builtAt time.Time) {
	if r == nil {
		return
	}
	r.RefreshTotal.WithLabelValues(result(err)).Inc()
	r.RefreshDuration.Observe(time.Since(started).Seconds())
	r.SetCatalog(entries, builtAt)
}

// SetCatalog describes the live catalog without counting a refresh
func (r *Registry) SetCatalog(entries int, builtAt time.Time) {
	if r == nil || entries <= 0 {
		return
	}
	r.CatalogEntries.Set(float64(entries))
	r.CatalogBuiltAt.Set(float64(builtAt.Unix()))
}

// ObserveUnchanged records a refresh that fetched the same snapshot again
func (r *Registry) ObserveUnchanged(started time.Time) {
	if r == nil {
		return
	}
	r.RefreshTotal.WithLabelValues("unchanged").Inc()
	r.RefreshDuration.Observe(time.Since(started).Seconds())
}

// ObserveSync records a roster sync attempt
func (r *Registry) ObserveSync(err error, teams int, skipped map[string]int) {
	if r == nil {
		return
	}
	r.SyncTotal.WithLabelValues(result(err)).Inc()
	if err != nil {
		return
	}
	r.TeamsTracked.Set(float64(teams))
	for source, n := range skipped {
		r.IngestSkipped.WithLabelValues(source).Add(float64(n))
	}
}

// SetPhases replaces the per-phase team counts
func (r *Registry) SetPhases(counts map[string]int) {
	if r == nil {
		return
	}
	r.PhaseTeams.Reset()
	for phase, n := range counts {
		r.PhaseTeams.WithLabelValues(phase).Set(float64(n))
	}
}

// ObserveTrades records one trade search
func (r *Registry) ObserveTrades(mode string, started time.Time, byType map[string]int) {
	if r == nil {
		return
	}
	r.TradeDuration.WithLabelValues(mode).Observe(time.Since(started).Seconds())
	for t, n := range byType {
		r.ProposalsTotal.WithLabelValues(t).Add(float64(n))
	}
}

//Package metrics provides Prometheus metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/version"
)

var (
	// ExposedChannels tracks the total number of known acestream channels.
	ExposedChannels = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "aceguide",
			Subsystem: "channels",
			Name:      "total",
			Help:      "Number of known acestream channels.",
		},
		[]string{"status"},
	)
	// EPGChannels tracks the number of channels imported from EPG sources.
	EPGChannels = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "aceguide",
			Subsystem: "epg",
			Name:      "channels_total",
			Help:      "Number of channels imported from EPG sources.",
		},
		[]string{"source_name"},
	)
	// MatcherRuns counts completed auto-mapping runs.
	MatcherRuns = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "aceguide",
			Subsystem: "matcher",
			Name:      "runs_total",
			Help:      "Number of completed EPG auto-mapping runs.",
		},
	)
	// MatcherAssignments reports the outcome counts of the most recent auto-mapping run.
	MatcherAssignments = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "aceguide",
			Subsystem: "matcher",
			Name:      "last_run",
			Help:      "Outcome counts of the most recent EPG auto-mapping run.",
		},
		[]string{"outcome"},
	)
	// OnlineChannels tracks how many active channels the engine reported live.
	OnlineChannels = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "aceguide",
			Subsystem: "channels",
			Name:      "online",
			Help:      "Number of active channels the acestream engine reports as live.",
		},
	)
	// ScrapeErrors counts failed scrape attempts per URL.
	ScrapeErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "aceguide",
			Subsystem: "scraper",
			Name:      "errors_total",
			Help:      "Number of failed scrape attempts.",
		},
		[]string{"url"},
	)
)

// nolint
func init() {
	prometheus.MustRegister(version.NewCollector("aceguide"))
	prometheus.MustRegister(ExposedChannels)
	prometheus.MustRegister(EPGChannels)
	prometheus.MustRegister(MatcherRuns)
	prometheus.MustRegister(MatcherAssignments)
	prometheus.MustRegister(OnlineChannels)
	prometheus.MustRegister(ScrapeErrors)
}

// Package metrics exposes Prometheus metrics for the photo map viewer.
package metrics

import (
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector bundles the viewer metrics. A nil *Collector is valid and
// records nothing.
type Collector struct {
	gatherer prometheus.Gatherer

	Clicks           *prometheus.CounterVec
	Sessions         prometheus.Gauge
	DatasetRecords   prometheus.Gauge
	DroppedRecords   prometheus.Counter
	LanguageControls prometheus.Counter
}

// New registers the metrics against reg, defaulting to the global registry.
func New(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	clicks, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "photomap_clicks_total",
		Help: "Map clicks handled, labeled by outcome (selected or cleared).",
	}, []string{"result"}))
	if err != nil {
		return nil, err
	}
	sessions, err := register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "photomap_sessions",
		Help: "Open viewer sessions.",
	}))
	if err != nil {
		return nil, err
	}
	records, err := register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "photomap_dataset_records",
		Help: "Photo records in the current dataset.",
	}))
	if err != nil {
		return nil, err
	}
	dropped, err := register(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "photomap_dropped_records_total",
		Help: "Upstream photo records dropped for missing coordinates.",
	}))
	if err != nil {
		return nil, err
	}
	languages, err := register(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "photomap_language_controls_total",
		Help: "Language controls attached to map surfaces.",
	}))
	if err != nil {
		return nil, err
	}

	c := &Collector{
		gatherer:         gatherer,
		Clicks:           clicks,
		Sessions:         sessions,
		DatasetRecords:   records,
		DroppedRecords:   dropped,
		LanguageControls: languages,
	}
	return c, nil
}

// register adds col to reg, reusing an identical collector that is already
// registered.
func register[T prometheus.Collector](reg prometheus.Registerer, col T) (T, error) {
	if err := reg.Register(col); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing, nil
			}
		}
		return col, err
	}
	return col, nil
}

// Handler serves the metrics in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	if c == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(c.gatherer, promhttp.HandlerOpts{})
}

// Click records a map click outcome.
func (c *Collector) Click(selected bool) {
	if c == nil {
		return
	}
	result := "cleared"
	if selected {
		result = "selected"
	}
	c.Clicks.WithLabelValues(result).Inc()
}

// SessionOpened and SessionClosed track open sessions.
func (c *Collector) SessionOpened() {
	if c != nil {
		c.Sessions.Inc()
	}
}

func (c *Collector) SessionClosed() {
	if c != nil {
		c.Sessions.Dec()
	}
}

// Dataset records the size of a newly loaded dataset.
func (c *Collector) Dataset(records, dropped int) {
	if c == nil {
		return
	}
	c.DatasetRecords.Set(float64(records))
	c.DroppedRecords.Add(float64(dropped))
}

// LanguageControlAttached counts a language control attachment.
func (c *Collector) LanguageControlAttached() {
	if c != nil {
		c.LanguageControls.Inc()
	}
}

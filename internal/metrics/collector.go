// Package metrics exposes wall activity to Prometheus.
package metrics

import (
	"context"
	"net/http"

	"lennonwall/backend/internal/events"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "lennonwall"

// Collector counts engagement events. It owns its registry so tests and
// multiple servers in one process do not collide on the default one.
type Collector struct {
	registry *prometheus.Registry
	events   *prometheus.CounterVec
	hidden   prometheus.Counter
}

// NewCollector registers the event counters plus the Go runtime collectors.
func NewCollector() *Collector {
	reg := prometheus.NewRegistry()
	c := &Collector{
		registry: reg,
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_total",
			Help:      "Committed wall events by type.",
		}, []string{"type"}),
		hidden: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_hidden_total",
			Help:      "Messages hidden by the moderation policy.",
		}),
	}
	reg.MustRegister(
		c.events,
		c.hidden,
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
	)
	return c
}

// TrackVisible exports the current visible message count.
func (c *Collector) TrackVisible(count func() int) {
	c.registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "visible_messages",
		Help:      "Messages currently shown on the wall.",
	}, func() float64 { return float64(count()) }))
}

// TrackDropped exports the number of events the dispatcher discarded.
func (c *Collector) TrackDropped(dropped func() uint64) {
	c.registry.MustRegister(prometheus.NewCounterFunc(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "events_dropped_total",
		Help:      "Events discarded because the dispatcher buffer was full.",
	}, func() float64 { return float64(dropped()) }))
}

// Handle implements events.Sink.
func (c *Collector) Handle(ctx context.Context, e events.Event) error {
	c.events.WithLabelValues(string(e.Type)).Inc()
	if e.Type == events.MessageHidden {
		c.hidden.Inc()
	}
	return nil
}

func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

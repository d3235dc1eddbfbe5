// Package metrics collects and exposes Prometheus metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector gathers request and note-operation metrics.
type Collector struct {
	requests       *prometheus.CounterVec
	requestLatency prometheus.Histogram
	notesCreated   prometheus.Counter
	notesDeleted   prometheus.Counter
	emailsSent     prometheus.Counter
	emailsFailed   prometheus.Counter
}

// NewCollector creates a Collector and registers its metrics on reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "notepad_http_requests_total",
			Help: "HTTP requests by method, route and status code",
		}, []string{"method", "route", "status_code"}),
		requestLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "notepad_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		}),
		notesCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "notepad_notes_created_total",
			Help: "Total notes created",
		}),
		notesDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "notepad_notes_deleted_total",
			Help: "Total notes deleted",
		}),
		emailsSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "notepad_emails_sent_total",
			Help: "Total note emails delivered",
		}),
		emailsFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "notepad_emails_failed_total",
			Help: "Total note email delivery failures",
		}),
	}

	reg.MustRegister(
		c.requests,
		c.requestLatency,
		c.notesCreated,
		c.notesDeleted,
		c.emailsSent,
		c.emailsFailed,
	)

	return c
}

func (c *Collector) RecordRequest(method, route string, status int, duration time.Duration) {
	c.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.requestLatency.Observe(duration.Seconds())
}

func (c *Collector) RecordNoteCreated() { c.notesCreated.Inc() }
func (c *Collector) RecordNoteDeleted() { c.notesDeleted.Inc() }
func (c *Collector) RecordEmailSent()   { c.emailsSent.Inc() }
func (c *Collector) RecordEmailFailed() { c.emailsFailed.Inc() }

// Handler returns the HTTP handler for Prometheus scrapes.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

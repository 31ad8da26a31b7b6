package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/i474232898/calendar-reminders/internal/reminder"
	"github.com/i474232898/calendar-reminders/internal/weather"
)

// Metrics owns a private registry so tests and multiple servers in one
// process do not collide on the default one.
type Metrics struct {
	registry  *prometheus.Registry
	mutations *prometheus.CounterVec
	lookups   *prometheus.CounterVec
	requests  *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		mutations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "calendar_reminder_mutations_total",
				Help: "Reminder store mutations by operation.",
			},
			[]string{"op"},
		),
		lookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "calendar_weather_lookups_total",
				Help: "Weather lookups by outcome.",
			},
			[]string{"outcome"},
		),
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "calendar_http_requests_total",
				Help: "HTTP requests by route, method and status.",
			},
			[]string{"route", "method", "status"},
		),
	}
	m.registry.MustRegister(
		m.mutations,
		m.lookups,
		m.requests,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveMutation is meant to be passed to Repository.Subscribe.
func (m *Metrics) ObserveMutation(ev reminder.Event) {
	m.mutations.WithLabelValues(string(ev.Op)).Inc()
}

func (m *Metrics) ObserveLookup(o weather.Outcome) {
	m.lookups.WithLabelValues(string(o)).Inc()
}

func (m *Metrics) ObserveRequest(route, method, status string) {
	m.requests.WithLabelValues(route, method, status).Inc()
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

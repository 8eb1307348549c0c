package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry *prometheus.Registry

	LoginAttempts *prometheus.CounterVec
	Submissions   prometheus.Counter
	Requests      *prometheus.CounterVec
}

// New registers the application's collectors on a private registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		LoginAttempts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "reflections_login_attempts_total",
				Help: "Login attempts by result",
			},
			[]string{"result"},
		),
		Submissions: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "reflections_submitted_total",
				Help: "Reflections stored",
			},
		),
		Requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "reflections_http_requests_total",
				Help: "HTTP requests by method and status",
			},
			[]string{"method", "status"},
		),
	}

	m.registry.MustRegister(m.LoginAttempts, m.Submissions, m.Requests)
	return m
}

func (m *Metrics) LoginSucceeded() {
	m.LoginAttempts.WithLabelValues("success").Inc()
}

func (m *Metrics) LoginFailed() {
	m.LoginAttempts.WithLabelValues("failure").Inc()
}

func (m *Metrics) ObserveRequest(method string, status int) {
	m.Requests.WithLabelValues(method, strconv.Itoa(status)).Inc()
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

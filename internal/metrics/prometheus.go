package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "inkpost"

// PrometheusRecorder implements Recorder on a dedicated Prometheus registry.
type PrometheusRecorder struct {
	registry *prometheus.Registry

	articles      *prometheus.CounterVec
	accounts      prometheus.Counter
	loginAttempts *prometheus.CounterVec
	logouts       prometheus.Counter
}

// NewPrometheus creates a recorder with its own registry, including the
// Go runtime and process collectors.
func NewPrometheus() *PrometheusRecorder {
	p := &PrometheusRecorder{
		registry: prometheus.NewRegistry(),
		articles: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "articles",
				Name:      "operations_total",
				Help:      "Total number of article mutations.",
			},
			[]string{"operation"},
		),
		accounts: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "accounts",
				Name:      "registered_total",
				Help:      "Total number of registered accounts.",
			},
		),
		loginAttempts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "auth",
				Name:      "login_attempts_total",
				Help:      "Total number of login attempts by outcome.",
			},
			[]string{"status"},
		),
		logouts: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "auth",
				Name:      "logouts_total",
				Help:      "Total number of logouts.",
			},
		),
	}

	p.registry.MustRegister(
		p.articles,
		p.accounts,
		p.loginAttempts,
		p.logouts,
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)

	return p
}

// Registry returns the underlying registry.
func (p *PrometheusRecorder) Registry() *prometheus.Registry {
	return p.registry
}

// Handler returns an HTTP handler exposing the registered metrics.
func (p *PrometheusRecorder) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}

// IncArticleCreated increments the created articles counter.
func (p *PrometheusRecorder) IncArticleCreated() {
	p.articles.WithLabelValues("create").Inc()
}

// IncArticleUpdated increments the updated articles counter.
func (p *PrometheusRecorder) IncArticleUpdated() {
	p.articles.WithLabelValues("update").Inc()
}

// IncArticleDeleted increments the deleted articles counter.
func (p *PrometheusRecorder) IncArticleDeleted() {
	p.articles.WithLabelValues("delete").Inc()
}

// IncAccountRegistered increments the registered accounts counter.
func (p *PrometheusRecorder) IncAccountRegistered() {
	p.accounts.Inc()
}

// IncLoginAttempt increments the login attempts counter for status.
func (p *PrometheusRecorder) IncLoginAttempt(status string) {
	p.loginAttempts.WithLabelValues(status).Inc()
}

// IncLogout increments the logouts counter.
func (p *PrometheusRecorder) IncLogout() {
	p.logouts.Inc()
}

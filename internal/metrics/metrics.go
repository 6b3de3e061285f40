package metrics

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
)

// HTTP holds the request counters observed by Middleware.
type HTTP struct {
	totalRequests   *prometheus.CounterVec
	durationSec     *prometheus.HistogramVec
	inflightRequest *prometheus.GaugeVec
}

func NewHTTP(reg prometheus.Registerer, namespace string) *HTTP {
	labels := []string{"route", "method", "code"}
	inflightLabels := []string{"route", "method"}

	t := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total number of requests",
	}, labels)
	d := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "requests_duration",
		Help:      "Duration of requests",
		Buckets: []float64{
			0.01, 0.025, 0.05, 0.1,
			0.25, 0.5, 0.75, 1,
			1.5, 2, 3, 5,
		},
	}, labels)
	i := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "requests_inflight",
		Help:      "Number of inflight requests",
	}, inflightLabels)

	reg.MustRegister(t, d, i)

	return &HTTP{
		totalRequests:   t,
		durationSec:     d,
		inflightRequest: i,
	}
}

func (m *HTTP) Middleware(c *fiber.Ctx) (err error) {
	s := time.Now()

	routeLabel := "<unmatched>"
	if r := c.Route(); r != nil && r.Path != "" {
		routeLabel = r.Path
	}
	method := string(c.Context().Method())

	m.inflightRequest.WithLabelValues(routeLabel, method).Inc()
	defer m.inflightRequest.WithLabelValues(routeLabel, method).Dec()

	err = c.Next()

	// The route is only known after routing, so re-read it for the final labels.
	if r := c.Route(); r != nil && r.Path != "" {
		routeLabel = r.Path
	}
	code := strconv.Itoa(c.Response().StatusCode())

	m.totalRequests.WithLabelValues(routeLabel, method, code).Inc()
	m.durationSec.WithLabelValues(routeLabel, method, code).Observe(time.Since(s).Seconds())

	return
}

// Recorder counts domain events. A nil *Recorder is valid and records nothing,
// which keeps services usable without a registry in tests.
type Recorder struct {
	transitions *prometheus.CounterVec
	penalties   *prometheus.CounterVec
	submissions *prometheus.CounterVec
}

func NewRecorder(reg prometheus.Registerer, namespace string) *Recorder {
	t := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "reports",
		Name:      "transitions_total",
		Help:      "Applied lifecycle transitions by action",
	}, []string{"action"})
	p := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "reports",
		Name:      "penalties_total",
		Help:      "False-report penalties issued by tier",
	}, []string{"tier"})
	s := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "reports",
		Name:      "submissions_total",
		Help:      "Submitted reports by category",
	}, []string{"category"})

	reg.MustRegister(t, p, s)

	return &Recorder{transitions: t, penalties: p, submissions: s}
}

func (r *Recorder) Transition(action string) {
	if r == nil {
		return
	}
	r.transitions.WithLabelValues(action).Inc()
}

func (r *Recorder) Penalty(tier string) {
	if r == nil {
		return
	}
	r.penalties.WithLabelValues(tier).Inc()
}

func (r *Recorder) Submission(category string) {
	if r == nil {
		return
	}
	r.submissions.WithLabelValues(category).Inc()
}

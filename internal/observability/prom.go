package observability

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

type Prom struct {
	RequestsTotal    *prometheus.CounterVec
	RequestsDuration *prometheus.HistogramVec
	InFlight         *prometheus.GaugeVec
	// DB
	DbQueryDuration *prometheus.HistogramVec
	DbErrorsTotal   *prometheus.CounterVec

	// admission protocol
	AdmissionResults     *prometheus.CounterVec
	AdmissionRetries     prometheus.Counter
	Promotions           prometheus.Counter
	PromotionFailures    prometheus.Counter
	CompensationFailures prometheus.Counter
}

func NewProm(reg prometheus.Registerer) *Prom {
	p := &Prom{
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "admithub",
				Name:      "http_requests_total",
				Help:      "Total HTTP requests processed",
			},
			[]string{"method", "route", "status"},
		),
		RequestsDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "admithub",
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request latency distributions.",
				// Sane initial defaults
				Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
			},
			[]string{"method", "route", "status"},
		),
		InFlight: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "admithub",
				Name:      "http_in_flight_requests",
				Help:      "Current number of in-flight HTTP requests.",
			},
			[]string{"method", "route"},
		),
		DbQueryDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "admithub",
				Subsystem: "db",
				Name:      "query_duration_seconds",
				Help:      "DB operation latency (logical op, not raw SQL)",
				Buckets:   []float64{0.005, 0.01, 0.02, 0.05, 0.1, 0.2, 0.35, 0.5, 1, 2, 5},
			},
			[]string{"op", "status"},
		),
		DbErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "admithub",
				Subsystem: "db",
				Name:      "errors_total",
				Help:      "DB errors by logical op and class.",
			},
			[]string{"op", "class"},
		),

		AdmissionResults: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "admithub",
				Subsystem: "admission",
				Name:      "results_total",
				Help:      "Admission outcomes by result.",
			},
			[]string{"result"}, // result=confirmed|waitlisted|rejected
		),
		AdmissionRetries: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "admithub",
				Subsystem: "admission",
				Name:      "race_retries_total",
				Help:      "Conditional-write predicate failures retried by the admission loop.",
			},
		),
		Promotions: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "admithub",
				Subsystem: "admission",
				Name:      "promotions_total",
				Help:      "Waitlist heads promoted to confirmed.",
			},
		),
		PromotionFailures: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "admithub",
				Subsystem: "admission",
				Name:      "promotion_failures_total",
				Help:      "Promotion transactions that aborted (logged, not surfaced).",
			},
		),
		CompensationFailures: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "admithub",
				Subsystem: "admission",
				Name:      "compensation_failures_total",
				Help:      "Failed rollbacks after a ledger write error (accepted drift).",
			},
		),
	}
	reg.MustRegister(
		p.RequestsTotal, p.RequestsDuration, p.InFlight,
		p.DbQueryDuration, p.DbErrorsTotal,
		p.AdmissionResults, p.AdmissionRetries,
		p.Promotions, p.PromotionFailures, p.CompensationFailures,
	)

	return p
}

func (p *Prom) GinHandleMiddleware() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start := time.Now()

		// route template is only available after routing; best effort:
		route := ctx.FullPath()

		if route == "" {
			route = "unmatched"
		}

		method := ctx.Request.Method
		p.InFlight.WithLabelValues(method, route).Inc()
		defer p.InFlight.WithLabelValues(method, route).Dec()
		ctx.Next()

		status := strconv.Itoa(ctx.Writer.Status())
		secs := time.Since(start).Seconds()

		p.RequestsTotal.WithLabelValues(method, route, status).Inc()
		p.RequestsDuration.WithLabelValues(method, route, status).Observe(secs)
	}
}

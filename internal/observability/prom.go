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

	// Blog
	PostViews     prometheus.Counter
	CommentsAdded prometheus.Counter
	UploadsTotal  *prometheus.CounterVec
	CacheLookups  *prometheus.CounterVec
}

func NewProm(reg prometheus.Registerer) *Prom {
	p := &Prom{
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "bloghub",
				Name:      "http_requests_total",
				Help:      "Total HTTP requests processed",
			},
			[]string{"method", "route", "status"},
		),
		RequestsDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "bloghub",
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request latency distributions.",
				Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
			},
			[]string{"method", "route", "status"},
		),
		InFlight: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "bloghub",
				Name:      "http_in_flight_requests",
				Help:      "Current number of in-flight HTTP requests.",
			},
			[]string{"method", "route"},
		),
		DbQueryDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "bloghub",
				Subsystem: "db",
				Name:      "query_duration_seconds",
				Help:      "DB operation latency (logical op, not raw SQL)",
				Buckets:   []float64{0.005, 0.01, 0.02, 0.05, 0.1, 0.2, 0.35, 0.5, 1, 2, 5},
			},
			[]string{"op", "status"},
		),
		DbErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "bloghub",
				Subsystem: "db",
				Name:      "errors_total",
				Help:      "DB errors by logical op and class.",
			},
			[]string{"op", "class"},
		),
		PostViews: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "bloghub",
				Subsystem: "posts",
				Name:      "views_total",
				Help:      "Single post reads that incremented a view count.",
			},
		),
		CommentsAdded: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "bloghub",
				Subsystem: "posts",
				Name:      "comments_total",
				Help:      "Comments appended to posts.",
			},
		),
		UploadsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "bloghub",
				Subsystem: "uploads",
				Name:      "total",
				Help:      "Featured image uploads by result.",
			},
			[]string{"result"}, // result=stored|rejected|failed
		),
		CacheLookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "bloghub",
				Subsystem: "cache",
				Name:      "lookups_total",
				Help:      "Listing cache lookups by namespace and result.",
			},
			[]string{"namespace", "result"}, // result=hit|miss|error
		),
	}
	reg.MustRegister(
		p.RequestsTotal, p.RequestsDuration, p.InFlight,
		p.DbQueryDuration, p.DbErrorsTotal,
		p.PostViews, p.CommentsAdded, p.UploadsTotal, p.CacheLookups,
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

// the helpers below are nil safe so callers can run without metrics (tests, tools)

func (p *Prom) IncPostViews() {
	if p != nil {
		p.PostViews.Inc()
	}
}

func (p *Prom) IncCommentsAdded() {
	if p != nil {
		p.CommentsAdded.Inc()
	}
}

func (p *Prom) IncUploads(result string) {
	if p != nil {
		p.UploadsTotal.WithLabelValues(result).Inc()
	}
}

func (p *Prom) IncCacheLookup(namespace, result string) {
	if p != nil {
		p.CacheLookups.WithLabelValues(namespace, result).Inc()
	}
}

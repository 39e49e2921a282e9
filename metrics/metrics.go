package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pizzaking_http_requests_total",
		Help: "HTTP requests by route, method and status.",
	}, []string{"route", "method", "status"})

	httpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pizzaking_http_request_duration_seconds",
		Help:    "HTTP request latency by route and method.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route", "method"})

	OrdersCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pizzaking_orders_created_total",
		Help: "Orders created by payment method.",
	}, []string{"payment_method"})

	Payments = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pizzaking_payments_total",
		Help: "Payment attempts by provider and outcome.",
	}, []string{"provider", "status"})

	Webhooks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pizzaking_webhooks_total",
		Help: "Provider webhooks by outcome.",
	}, []string{"provider", "result"})

	JobRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pizzaking_job_runs_total",
		Help: "Scheduled job runs by outcome.",
	}, []string{"job", "result"})
)

// Result labels shared by the counters.
const (
	ResultOK        = "ok"
	ResultError     = "error"
	ResultDuplicate = "duplicate"
	ResultRejected  = "rejected"
)

// Middleware records request count and latency per matched route.
func Middleware() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start := time.Now()
		ctx.Next()

		route := ctx.FullPath()
		if route == "" {
			route = "unmatched"
		}
		method := ctx.Request.Method
		httpRequests.WithLabelValues(route, method, strconv.Itoa(ctx.Writer.Status())).Inc()
		httpDuration.WithLabelValues(route, method).Observe(time.Since(start).Seconds())
	}
}

func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}

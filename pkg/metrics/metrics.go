package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector holds the Prometheus metrics of the raffle service
type Collector struct {
	registry *prometheus.Registry

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	vouchersTotal      *prometheus.CounterVec
	numbersAllocated   prometheus.Counter
	allocationDuration prometheus.Histogram
	drawsTotal         *prometheus.CounterVec
	couponRedemptions  *prometheus.CounterVec
}

// NewCollector creates a Collector on its own registry
func NewCollector(namespace string) *Collector {
	c := &Collector{registry: prometheus.NewRegistry()}

	c.httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)
	c.httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)
	c.vouchersTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "vouchers_total",
			Help:      "Vouchers by outcome (submitted, auto_approved, approved, rejected)",
		},
		[]string{"outcome"},
	)
	c.numbersAllocated = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "numbers_allocated_total",
		Help:      "Raffle numbers issued",
	})
	c.allocationDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "allocation_duration_seconds",
		Help:      "Time spent allocating numbers for one voucher, lock wait included",
		Buckets:   prometheus.DefBuckets,
	})
	c.drawsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "draws_total",
			Help:      "Raffle draws by strategy and result",
		},
		[]string{"strategy", "result"},
	)
	c.couponRedemptions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "coupon_redemptions_total",
			Help:      "Coupon redemption attempts by status",
		},
		[]string{"status"},
	)

	c.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		c.httpRequestsTotal,
		c.httpRequestDuration,
		c.vouchersTotal,
		c.numbersAllocated,
		c.allocationDuration,
		c.drawsTotal,
		c.couponRedemptions,
	)
	return c
}

// Registry exposes the underlying registry
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Middleware returns middleware that records HTTP metrics
func (c *Collector) Middleware() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start := time.Now()
		ctx.Next()

		endpoint := ctx.FullPath()
		if endpoint == "" {
			endpoint = "unknown"
		}
		status := strconv.Itoa(ctx.Writer.Status())
		c.httpRequestsTotal.WithLabelValues(ctx.Request.Method, endpoint, status).Inc()
		c.httpRequestDuration.WithLabelValues(ctx.Request.Method, endpoint).Observe(time.Since(start).Seconds())
	}
}

// Handler returns the Prometheus scrape handler
func (c *Collector) Handler() gin.HandlerFunc {
	handler := promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
	return func(ctx *gin.Context) {
		handler.ServeHTTP(ctx.Writer, ctx.Request)
	}
}

// VoucherOutcome counts a voucher event
func (c *Collector) VoucherOutcome(outcome string) {
	if c == nil {
		return
	}
	c.vouchersTotal.WithLabelValues(outcome).Inc()
}

// NumbersAllocated records an allocation of n numbers that took d
func (c *Collector) NumbersAllocated(n int, d time.Duration) {
	if c == nil {
		return
	}
	c.numbersAllocated.Add(float64(n))
	c.allocationDuration.Observe(d.Seconds())
}

// Draw counts a draw attempt
func (c *Collector) Draw(strategy string, err error) {
	if c == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	c.drawsTotal.WithLabelValues(strategy, result).Inc()
}

// CouponRedemption counts a coupon redemption attempt
func (c *Collector) CouponRedemption(status string) {
	if c == nil {
		return
	}
	c.couponRedemptions.WithLabelValues(status).Inc()
}

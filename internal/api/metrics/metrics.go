// Package metrics exposes Prometheus instrumentation for the check API.
package metrics

import (
	"strconv"
	"time"

	"github.com/DjordjeVuckovic/modelcfg/internal/check"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "modelcfg"

var (
	checksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checks_total",
			Help:      "Descriptor checks by kind and status",
		},
		[]string{"kind", "status"},
	)

	issuesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "check_issues_total",
			Help:      "Issues reported by descriptor checks",
		},
		[]string{"kind", "severity"},
	)

	checkDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "check_duration_seconds",
			Help:      "Time spent parsing and validating a descriptor",
			Buckets:   []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25},
		},
		[]string{"kind"},
	)

	httpRequests = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)
)

// ObserveCheck records one finished check.
func ObserveCheck(r check.Result) {
	kind := string(r.Kind)
	checksTotal.WithLabelValues(kind, string(r.Status)).Inc()
	for _, i := range r.Issues {
		issuesTotal.WithLabelValues(kind, string(i.Severity)).Inc()
	}
	checkDuration.WithLabelValues(kind).Observe(r.Duration.Seconds())
}

// Middleware records request latency labelled by the matched route.
func Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				// The error handler writes the status. Later calls see a
				// committed response and leave it alone.
				c.Error(err)
			}

			status := c.Response().Status
			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			httpRequests.WithLabelValues(c.Request().Method, route, strconv.Itoa(status)).
				Observe(time.Since(start).Seconds())
			return err
		}
	}
}

func Handler() echo.HandlerFunc {
	return echo.WrapHandler(promhttp.Handler())
}

package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/uptrace/bunrouter"
	"go.uber.org/zap"
)

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "openshelf",
		Subsystem: "reputation_api",
		Name:      "requests_total",
		Help:      "HTTP requests handled, by route and status code.",
	}, []string{"method", "route", "status"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "openshelf",
		Subsystem: "reputation_api",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency, by route.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})
)

// statusRecorder captures the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Logging logs every request and records request metrics.
type Logging struct {
	logger *zap.Logger
}

// NewLogging creates a new logging middleware.
func NewLogging(logger *zap.Logger) *Logging {
	return &Logging{
		logger: logger.Named("http"),
	}
}

// AsRESTMiddleware returns a bunrouter middleware handler.
func (m *Logging) AsRESTMiddleware(next bunrouter.HandlerFunc) bunrouter.HandlerFunc {
	return func(w http.ResponseWriter, req bunrouter.Request) error {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		err := next(recorder, req)
		if err != nil && recorder.status < http.StatusBadRequest {
			recorder.status = http.StatusInternalServerError
		}

		route := req.Route()
		if route == "" {
			route = "unmatched"
		}

		elapsed := time.Since(start)
		requestsTotal.WithLabelValues(req.Method, route, strconv.Itoa(recorder.status)).Inc()
		requestDuration.WithLabelValues(req.Method, route).Observe(elapsed.Seconds())

		fields := []zap.Field{
			zap.String("method", req.Method),
			zap.String("route", route),
			zap.Int("status", recorder.status),
			zap.Duration("duration", elapsed),
			zap.String("remoteAddr", req.RemoteAddr),
		}

		switch {
		case err != nil:
			m.logger.Error("Request failed", append(fields, zap.Error(err))...)
		case recorder.status >= http.StatusInternalServerError:
			m.logger.Warn("Request returned server error", fields...)
		default:
			m.logger.Debug("Request handled", fields...)
		}

		return err
	}
}

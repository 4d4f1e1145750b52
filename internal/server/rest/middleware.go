package rest

import (
	"strconv"
	"time"

	"github.com/dmitrijs2005/assetflow/internal/common"
	"github.com/dmitrijs2005/assetflow/internal/requestid"
	"github.com/dmitrijs2005/assetflow/internal/server/models"
	"github.com/dmitrijs2005/assetflow/internal/server/services"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

const userKey = "user"

// RequestID propagates X-Request-ID, generating one when the caller sent
// none.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(common.RequestIDHeaderName)
		if id == "" {
			id = requestid.New()
		}

		ctx := requestid.WithRequestID(c.Request.Context(), id)
		c.Request = c.Request.WithContext(ctx)
		c.Header(common.RequestIDHeaderName, id)
		c.Next()
	}
}

// Identity resolves the X-User-Email header to a signed-in user and stores
// it in the gin context.
func (h *Handler) Identity() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := h.auth.Authenticate(c.Request.Context(), c.GetHeader(common.IdentityHeaderName))
		if err != nil {
			h.fail(c, err)
			return
		}
		c.Set(userKey, user)
		c.Next()
	}
}

// Collection rejects paths naming an unknown collection.
func (h *Handler) Collection() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !models.ValidCollection(c.Param("collection")) {
			h.fail(c, services.ErrUnknownCollection)
			return
		}
		c.Next()
	}
}

func currentUser(c *gin.Context) models.Document {
	if v, ok := c.Get(userKey); ok {
		if u, ok := v.(models.Document); ok {
			return u
		}
	}
	return models.Document{}
}

type httpMetrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

func newHTTPMetrics(reg prometheus.Registerer) *httpMetrics {
	m := &httpMetrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "assetflow",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests served, by route and status.",
		}, []string{"method", "path", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "assetflow",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path", "status"}),
	}
	reg.MustRegister(m.requests, m.duration)
	return m
}

func (m *httpMetrics) middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := strconv.Itoa(c.Writer.Status())
		path := c.FullPath()
		if path == "" {
			path = "unknown"
		}
		method := c.Request.Method

		m.duration.WithLabelValues(method, path, status).Observe(time.Since(start).Seconds())
		m.requests.WithLabelValues(method, path, status).Inc()
	}
}

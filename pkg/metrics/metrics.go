package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/amoylab/choirhub/internal/common/config"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Upload results recorded by UploadFile
const (
	ResultAccepted = "accepted"
	ResultRejected = "rejected"
	ResultFailed   = "failed"
)

type Metrics struct {
	registry    *prometheus.Registry
	namespace   string
	httpReqCnt  *prometheus.CounterVec
	httpDur     *prometheus.HistogramVec
	httpInfl    *prometheus.GaugeVec
	uploadFiles *prometheus.CounterVec
	uploadBytes prometheus.Counter
	cacheLookup *prometheus.CounterVec
}

func New(cfg config.MetricsConfig) *Metrics {
	ns := cfg.Namespace
	buckets := cfg.Buckets
	if len(buckets) == 0 {
		buckets = prometheus.DefBuckets
	}
	r := prometheus.NewRegistry()
	// Register standard process and Go collectors
	r.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	r.MustRegister(collectors.NewGoCollector())

	httpReqCnt := prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: ns, Name: "http_requests_total"}, []string{"method", "route", "status"})
	httpDur := prometheus.NewHistogramVec(prometheus.HistogramOpts{Namespace: ns, Name: "http_request_duration_seconds", Buckets: buckets}, []string{"method", "route", "status"})
	httpInfl := prometheus.NewGaugeVec(prometheus.GaugeOpts{Namespace: ns, Name: "http_requests_inflight"}, []string{"route"})
	r.MustRegister(httpReqCnt, httpDur, httpInfl)

	uploadFiles := prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: ns, Name: "upload_files_total", Help: "Uploaded audio files by result"}, []string{"result"})
	uploadBytes := prometheus.NewCounter(prometheus.CounterOpts{Namespace: ns, Name: "upload_bytes_total", Help: "Bytes of audio written to disk"})
	r.MustRegister(uploadFiles, uploadBytes)

	cacheLookup := prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: ns, Name: "cache_lookups_total"}, []string{"cache", "result"})
	r.MustRegister(cacheLookup)

	return &Metrics{
		registry:    r,
		namespace:   ns,
		httpReqCnt:  httpReqCnt,
		httpDur:     httpDur,
		httpInfl:    httpInfl,
		uploadFiles: uploadFiles,
		uploadBytes: uploadBytes,
		cacheLookup: cacheLookup,
	}
}

// UploadFile counts one uploaded file. Bytes are only added for accepted files.
// A nil receiver is a no-op.
func (m *Metrics) UploadFile(result string, size int64) {
	if m == nil {
		return
	}
	m.uploadFiles.WithLabelValues(result).Inc()
	if result == ResultAccepted && size > 0 {
		m.uploadBytes.Add(float64(size))
	}
}

// CacheLookup counts a cache hit or miss. A nil receiver is a no-op.
func (m *Metrics) CacheLookup(cache string, hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookup.WithLabelValues(cache, result).Inc()
}

func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.httpInfl.WithLabelValues(route).Inc()
		start := time.Now()
		c.Next()
		status := httpStatus(c.Writer.Status())
		m.httpReqCnt.WithLabelValues(c.Request.Method, route, status).Inc()
		m.httpDur.WithLabelValues(c.Request.Method, route, status).Observe(time.Since(start).Seconds())
		m.httpInfl.WithLabelValues(route).Dec()
	}
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry for tests and extra collectors
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func httpStatus(code int) string { return strconv.Itoa(code) }

/* metrics.go
 * Prometheus instrumentation for grading runs, the shared browser and the http surface. A nil *Recorder is valid
 * and records nothing.
 */

package metrics

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"bootcamp-grader/api/browser"
)

// Recorder owns a registry and the collectors registered on it
type Recorder struct {
	registry        *prometheus.Registry
	handler         http.Handler
	outcomes        *prometheus.CounterVec
	settlements     *prometheus.CounterVec
	batchDuration   *prometheus.HistogramVec
	activePages     prometheus.Gauge
	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

// NewRecorder registers the grader's collectors on a fresh registry
func NewRecorder() *Recorder {
	registry := prometheus.NewRegistry()

	outcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "grader_outcomes_total",
		Help: "Graded submissions by stage and outcome",
	}, []string{"stage", "outcome"})

	settlements := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "grader_batch_settlements_total",
		Help: "Batch task settlements by stage and status",
	}, []string{"stage", "status"})

	batchDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "grader_batch_duration_seconds",
		Help:    "Wall time of a grading batch",
		Buckets: prometheus.ExponentialBuckets(1, 2, 12),
	}, []string{"stage"})

	activePages := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "grader_browser_active_pages",
		Help: "Browser pages currently open",
	})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	registry.MustRegister(outcomes, settlements, batchDuration, activePages, requestTotal, requestDuration)

	return &Recorder{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		outcomes:        outcomes,
		settlements:     settlements,
		batchDuration:   batchDuration,
		activePages:     activePages,
		requestTotal:    requestTotal,
		requestDuration: requestDuration,
	}
}

// Handler exposes the registry in the Prometheus text format
func (r *Recorder) Handler() http.Handler {
	if r == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return r.handler
}

// Registry returns the underlying registry
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

func (r *Recorder) ObserveOutcome(stage, outcome string) {
	if r == nil {
		return
	}
	r.outcomes.WithLabelValues(stage, outcome).Inc()
}

// ObserveBatch records a finished batch: its duration and how many tasks settled each way
func (r *Recorder) ObserveBatch(stage string, duration time.Duration, fulfilled, rejected int) {
	if r == nil {
		return
	}
	r.batchDuration.WithLabelValues(stage).Observe(duration.Seconds())
	r.settlements.WithLabelValues(stage, "fulfilled").Add(float64(fulfilled))
	r.settlements.WithLabelValues(stage, "rejected").Add(float64(rejected))
}

func (r *Recorder) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if r == nil {
		return
	}
	code := strconv.Itoa(status)
	r.requestTotal.WithLabelValues(method, path, code).Inc()
	r.requestDuration.WithLabelValues(method, path, code).Observe(duration.Seconds())
}

// InstrumentBrowser wraps b so the active pages gauge follows pages being opened and closed
func (r *Recorder) InstrumentBrowser(b browser.Browser) browser.Browser {
	if r == nil {
		return b
	}
	return &instrumentedBrowser{Browser: b, gauge: r.activePages}
}

type instrumentedBrowser struct {
	browser.Browser
	gauge prometheus.Gauge
}

func (b *instrumentedBrowser) NewPage(ctx context.Context) (browser.Page, error) {
	p, err := b.Browser.NewPage(ctx)
	if err != nil {
		return nil, err
	}
	b.gauge.Inc()
	return &instrumentedPage{Page: p, gauge: b.gauge}, nil
}

type instrumentedPage struct {
	browser.Page
	gauge prometheus.Gauge
	once  sync.Once
}

func (p *instrumentedPage) Close() error {
	p.once.Do(p.gauge.Dec)
	return p.Page.Close()
}

// Package metrics 暴露 Prometheus 指标。Recorder 为 nil 时所有方法为空操作，
// 服务层无需判断是否启用了指标。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "league"

type Recorder struct {
	registry *prometheus.Registry

	rescores       *prometheus.CounterVec
	rescoredRows   prometheus.Counter
	seasonCloses   *prometheus.CounterVec
	reconciled     *prometheus.CounterVec
	httpRequests   *prometheus.CounterVec
	httpLatency    *prometheus.HistogramVec
	pendingRescore prometheus.Gauge
}

// NewRecorder 创建独立 registry，附带 Go 运行时与进程指标
func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	r := &Recorder{
		registry: reg,
		rescores: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rescores_total",
			Help:      "Match rescoring runs by outcome.",
		}, []string{"outcome"}),
		rescoredRows: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "predictions_rescored_total",
			Help:      "Prediction rows written by the scoring engine.",
		}),
		seasonCloses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "season_closes_total",
			Help:      "Season close-and-open attempts by outcome.",
		}, []string{"outcome"}),
		reconciled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reconciled_matches_total",
			Help:      "Externally observed matches processed by the sync reconciler.",
		}, []string{"result"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status.",
		}, []string{"method", "route", "status"}),
		httpLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		pendingRescore: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "rescore_pending_matches",
			Help:      "Matches flagged for rescoring at the last scheduler run.",
		}),
	}
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		r.rescores, r.rescoredRows, r.seasonCloses, r.reconciled,
		r.httpRequests, r.httpLatency, r.pendingRescore,
	)
	return r
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// RecordRescore 记录一次比赛重新计分
func (r *Recorder) RecordRescore(rows int, err error) {
	if r == nil {
		return
	}
	r.rescores.WithLabelValues(outcome(err)).Inc()
	if err == nil {
		r.rescoredRows.Add(float64(rows))
	}
}

func (r *Recorder) RecordSeasonClose(err error) {
	if r == nil {
		return
	}
	r.seasonCloses.WithLabelValues(outcome(err)).Inc()
}

// RecordReconcile result 取值 created/updated/unchanged/error
func (r *Recorder) RecordReconcile(result string, n int) {
	if r == nil || n == 0 {
		return
	}
	r.reconciled.WithLabelValues(result).Add(float64(n))
}

func (r *Recorder) SetPendingRescore(n int) {
	if r == nil {
		return
	}
	r.pendingRescore.Set(float64(n))
}

func (r *Recorder) RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	if r == nil {
		return
	}
	r.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	r.httpLatency.WithLabelValues(method, route).Observe(duration.Seconds())
}

// Handler /metrics 输出
func (r *Recorder) Handler() http.Handler {
	if r == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

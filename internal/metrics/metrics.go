// Package metrics 查重分析与合并的 Prometheus 指标
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	namespace = "hubadmin"
	subsystem = "dedupe"
)

// outcome 标签取值
const (
	OutcomeMerged   = "merged"
	OutcomeNotFound = "not_found"
	OutcomeFailed   = "failed"
)

// Recorder 持有全部指标。nil *Recorder 可以直接调用，不记录任何数据。
type Recorder struct {
	registry *prometheus.Registry

	merges           *prometheus.CounterVec
	resultsMoved     *prometheus.CounterVec
	resultsDropped   *prometheus.CounterVec
	batchFailures    *prometheus.CounterVec
	analysisDuration *prometheus.HistogramVec
	candidateGroups  *prometheus.GaugeVec
}

// New 在新的 registry 上注册指标
func New() *Recorder {
	return NewWithRegistry(prometheus.NewRegistry())
}

func NewWithRegistry(reg *prometheus.Registry) *Recorder {
	auto := promauto.With(reg)
	return &Recorder{
		registry: reg,
		merges: auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "merges_total",
			Help:      "Merge attempts by entity kind and outcome",
		}, []string{"kind", "outcome"}),
		resultsMoved: auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "results_moved_total",
			Help:      "Result rows repointed to the kept record",
		}, []string{"kind"}),
		resultsDropped: auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "results_dropped_total",
			Help:      "Result rows deleted as duplicates of the kept record",
		}, []string{"kind"}),
		batchFailures: auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "batch_failures_total",
			Help:      "Candidates that failed during a batch apply",
		}, []string{"kind"}),
		analysisDuration: auto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "analysis_duration_seconds",
			Help:      "Time spent loading, grouping and classifying candidates",
			Buckets:   prometheus.DefBuckets,
		}, []string{"kind"}),
		candidateGroups: auto.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "candidate_groups",
			Help:      "Candidate groups reported by the last analysis",
		}, []string{"kind"}),
	}
}

// ObserveAnalysis 记录一次分析
func (r *Recorder) ObserveAnalysis(kind string, took time.Duration, groups int) {
	if r == nil {
		return
	}
	r.analysisDuration.WithLabelValues(kind).Observe(took.Seconds())
	r.candidateGroups.WithLabelValues(kind).Set(float64(groups))
}

// RecordMerge 记录一次合并；moved/dropped 仅在成功时累加
func (r *Recorder) RecordMerge(kind, outcome string, moved, dropped int64) {
	if r == nil {
		return
	}
	r.merges.WithLabelValues(kind, outcome).Inc()
	if outcome != OutcomeMerged {
		return
	}
	r.resultsMoved.WithLabelValues(kind).Add(float64(moved))
	r.resultsDropped.WithLabelValues(kind).Add(float64(dropped))
}

func (r *Recorder) RecordBatchFailure(kind string) {
	if r == nil {
		return
	}
	r.batchFailures.WithLabelValues(kind).Inc()
}

// Handler 以 Prometheus 文本格式输出
func (r *Recorder) Handler() http.Handler {
	if r == nil {
		return promhttp.HandlerFor(prometheus.NewRegistry(), promhttp.HandlerOpts{})
	}
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

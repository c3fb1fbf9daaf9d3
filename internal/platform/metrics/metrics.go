// Package metrics は定期ジョブの実行結果を Prometheus カウンタとして公開します。
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics はジョブ実行に関するカウンタ群です。
type Metrics struct {
	registry *prometheus.Registry

	JobRuns  *prometheus.CounterVec
	JobItems *prometheus.CounterVec
}

// New は専用レジストリ付きの Metrics を生成します。
func New() *Metrics {
	registry := prometheus.NewRegistry()

	jobRuns := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "onboarding_job_runs_total",
		Help: "Number of scheduled job runs by job name and result.",
	}, []string{"job", "result"})

	jobItems := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "onboarding_job_items_total",
		Help: "Number of records processed by job name and outcome.",
	}, []string{"job", "outcome"})

	registry.MustRegister(jobRuns, jobItems)

	return &Metrics{
		registry: registry,
		JobRuns:  jobRuns,
		JobItems: jobItems,
	}
}

// Handler は /metrics 用の HTTP ハンドラを返します。
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Package jobs は定期実行ドライバ群を提供します。
// 各ドライバは判定をライフサイクルエンジンに委ね、副作用の実行と集計のみを担います。
package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ogurasousui/onboarding-checklist/internal/platform/metrics"
)

// ErrNoManagedTenants は管理対象テナントが未設定の場合の致命的な設定エラーです。
// このエラーは当該パスのみを中断し、他のジョブには影響しません。
var ErrNoManagedTenants = errors.New("jobs: no managed tenants configured")

// Job はスケジュール実行可能なジョブの共通インターフェースです。
type Job interface {
	Name() string
}

// TenantJob はテナントごとに処理を行うジョブです。
type TenantJob interface {
	Job
	RunTenant(ctx context.Context, tenant string) (Result, error)
}

// GlobalJob はテナント横断で 1 回だけ処理を行うジョブです。
type GlobalJob interface {
	Job
	RunAll(ctx context.Context) (Result, error)
}

// Detail は 1 レコード分の処理結果です。
type Detail struct {
	Tenant  string
	Outcome string
	Message string
}

// Result は 1 テナント分 (または GlobalJob の 1 回分) の処理結果です。
type Result struct {
	Details []Detail
}

// Add は処理結果を 1 件追記します。
func (r *Result) Add(tenant, outcome, message string) {
	r.Details = append(r.Details, Detail{Tenant: tenant, Outcome: outcome, Message: message})
}

// Summary は 1 パス全体の集計です。
type Summary struct {
	Job      string
	Skipped  bool
	Outcomes map[string]int
	Details  []Detail
}

// Locker はジョブ単位の相互排他を提供します (postgres.JobLock が実装します)。
type Locker interface {
	WithLock(ctx context.Context, jobName string, maxHold time.Duration, fn func(context.Context) error) (bool, error)
}

// Runner は設定されたテナント一覧に対してジョブを 1 パス実行します。
// テナント単位の失敗は捕捉して残りのテナントの処理を続行します。
type Runner struct {
	tenants []string
	locker  Locker
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// NewRunner は Runner を生成します。
func NewRunner(tenants []string, locker Locker, m *metrics.Metrics, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{tenants: tenants, locker: locker, metrics: m, logger: logger}
}

// Run はジョブを 1 パス実行し、集計を返します。
// テナント未設定は致命的な設定エラーとしてパスを中断します。
// 同名ジョブのロックが取得できなかった場合は Skipped な Summary を返します。
func (r *Runner) Run(ctx context.Context, job Job, maxHold time.Duration) (*Summary, error) {
	summary := &Summary{Job: job.Name(), Outcomes: map[string]int{}}

	if len(r.tenants) == 0 {
		r.countRun(job.Name(), "config_error")
		r.logger.Error("no managed tenants configured, aborting pass", slog.String("job", job.Name()))
		return nil, ErrNoManagedTenants
	}

	acquired, err := r.locker.WithLock(ctx, job.Name(), maxHold, func(lockCtx context.Context) error {
		switch j := job.(type) {
		case TenantJob:
			r.runPerTenant(lockCtx, j, summary)
			return nil
		case GlobalJob:
			result, err := j.RunAll(lockCtx)
			r.collect(summary, result)
			if err != nil {
				summary.Outcomes["pass_failed"]++
				r.logger.Error("job pass failed", slog.String("job", job.Name()), slog.String("error", err.Error()))
			}
			return nil
		default:
			return fmt.Errorf("jobs: %s implements neither TenantJob nor GlobalJob", job.Name())
		}
	})
	if err != nil {
		r.countRun(job.Name(), "failed")
		return nil, err
	}
	if !acquired {
		summary.Skipped = true
		r.countRun(job.Name(), "skipped")
		return summary, nil
	}

	for outcome, n := range summary.Outcomes {
		r.countItems(job.Name(), outcome, n)
	}
	runResult := "ok"
	if summary.Outcomes["pass_failed"] > 0 {
		runResult = "failed"
	}
	r.countRun(job.Name(), runResult)
	r.logger.Info("job pass completed",
		slog.String("job", job.Name()),
		slog.Any("outcomes", summary.Outcomes))

	return summary, nil
}

// runPerTenant は設定順にテナントを逐次処理します。
func (r *Runner) runPerTenant(ctx context.Context, job TenantJob, summary *Summary) {
	for _, tenant := range r.tenants {
		result, err := job.RunTenant(ctx, tenant)
		r.collect(summary, result)
		if err != nil {
			summary.Outcomes["tenant_failed"]++
			r.logger.Error("tenant pass failed, continuing with remaining tenants",
				slog.String("job", job.Name()),
				slog.String("tenant", tenant),
				slog.String("error", err.Error()))
		}
	}
}

func (r *Runner) collect(summary *Summary, result Result) {
	for _, d := range result.Details {
		summary.Outcomes[d.Outcome]++
		summary.Details = append(summary.Details, d)
	}
}

func (r *Runner) countRun(job, result string) {
	if r.metrics == nil {
		return
	}
	r.metrics.JobRuns.WithLabelValues(job, result).Inc()
}

func (r *Runner) countItems(job, outcome string, n int) {
	if r.metrics == nil {
		return
	}
	r.metrics.JobItems.WithLabelValues(job, outcome).Add(float64(n))
}

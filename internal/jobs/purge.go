package jobs

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ogurasousui/onboarding-checklist/internal/core/audit"
)

// PurgeAuditJob は保持期間を過ぎた監査行を削除するドライバです。
// 監査テーブルはテナント横断で 1 回の purge で処理します。
type PurgeAuditJob struct {
	sink            audit.Sink
	clock           Clock
	logger          *slog.Logger
	maxLifetimeDays int
}

// NewPurgeAuditJob は PurgeAuditJob を生成します。
func NewPurgeAuditJob(sink audit.Sink, clock Clock, logger *slog.Logger, maxLifetimeDays int) *PurgeAuditJob {
	if clock == nil {
		clock = realClock{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	if maxLifetimeDays <= 0 {
		maxLifetimeDays = 90
	}
	return &PurgeAuditJob{sink: sink, clock: clock, logger: logger, maxLifetimeDays: maxLifetimeDays}
}

// Name はジョブ名を返します。
func (j *PurgeAuditJob) Name() string {
	return "purge-audit"
}

// RunAll は cutoff = now - maxLifetimeDays より古い監査行を削除します。
func (j *PurgeAuditJob) RunAll(ctx context.Context) (Result, error) {
	var result Result

	cutoff := j.clock.Now().AddDate(0, 0, -j.maxLifetimeDays)
	deleted, err := j.sink.PurgeBefore(ctx, cutoff)
	if err != nil {
		return result, fmt.Errorf("purge audit rows before %s: %w", cutoff.Format("2006-01-02"), err)
	}

	result.Add("", "purged", fmt.Sprintf("deleted %d audit rows older than %s", deleted, cutoff.Format("2006-01-02")))
	j.logger.Info("audit retention purge completed",
		slog.Int64("deleted", deleted),
		slog.String("cutoff", cutoff.Format("2006-01-02")))

	return result, nil
}

package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ogurasousui/onboarding-checklist/internal/core/checklist"
)

// ChecklistLocker はロック処理のユースケース境界です。
type ChecklistLocker interface {
	DueForLocking(ctx context.Context, tenant string, asOf time.Time) ([]*checklist.Checklist, error)
	Lock(ctx context.Context, checklistID string) (*checklist.Checklist, error)
}

// LockExpiredJob は失効日を過ぎたチェックリストをロックするドライバです。
type LockExpiredJob struct {
	checklists ChecklistLocker
	clock      Clock
	logger     *slog.Logger
}

// NewLockExpiredJob は LockExpiredJob を生成します。
func NewLockExpiredJob(checklists ChecklistLocker, clock Clock, logger *slog.Logger) *LockExpiredJob {
	if clock == nil {
		clock = realClock{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &LockExpiredJob{checklists: checklists, clock: clock, logger: logger}
}

// Name はジョブ名を返します。
func (j *LockExpiredJob) Name() string {
	return "lock-expired"
}

// RunTenant は 1 テナント分のロック候補を処理します。
// 判定はエンジンの ClassifyForLocking に従い、ロック済みレコードには触れません。
func (j *LockExpiredJob) RunTenant(ctx context.Context, tenant string) (Result, error) {
	var result Result

	today := j.clock.Now()
	candidates, err := j.checklists.DueForLocking(ctx, tenant, today)
	if err != nil {
		return result, fmt.Errorf("find due for locking in %s: %w", tenant, err)
	}

	for _, rec := range candidates {
		if checklist.ClassifyForLocking(rec, today) != checklist.ActionLock {
			result.Add(tenant, "kept", fmt.Sprintf("checklist %s not due", rec.ID))
			continue
		}

		if _, err := j.checklists.Lock(ctx, rec.ID); err != nil {
			result.Add(tenant, "failed", fmt.Sprintf("failed to lock checklist %s: %v", rec.ID, err))
			j.logger.Warn("failed to lock checklist",
				slog.String("tenant", tenant),
				slog.String("checklist_id", rec.ID),
				slog.String("error", err.Error()))
			continue
		}

		result.Add(tenant, "locked", fmt.Sprintf("locked checklist %s (expired %s)", rec.ID, rec.ExpirationDate.Format("2006-01-02")))
	}

	return result, nil
}

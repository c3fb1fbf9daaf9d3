package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ogurasousui/onboarding-checklist/internal/core/checklist"
	"github.com/ogurasousui/onboarding-checklist/internal/core/directory"
)

// ManagerUpdater は上長差し替えのユースケース境界です。
type ManagerUpdater interface {
	List(ctx context.Context, filter checklist.ListFilter) ([]*checklist.Checklist, error)
	UpdateManager(ctx context.Context, checklistID string, manager *checklist.ManagerRef) (*checklist.Checklist, error)
}

// RefreshManagersJob は未ロックのチェックリストについて、ディレクトリ上の
// 現在の上長とスナップショットの差分を検出して反映するドライバです。
type RefreshManagersJob struct {
	checklists ManagerUpdater
	gateway    directory.Gateway
	logger     *slog.Logger
}

// NewRefreshManagersJob は RefreshManagersJob を生成します。
func NewRefreshManagersJob(checklists ManagerUpdater, gateway directory.Gateway, logger *slog.Logger) *RefreshManagersJob {
	if logger == nil {
		logger = slog.Default()
	}
	return &RefreshManagersJob{checklists: checklists, gateway: gateway, logger: logger}
}

// Name はジョブ名を返します。
func (j *RefreshManagersJob) Name() string {
	return "refresh-managers"
}

// RunTenant は 1 テナント分の上長差分を反映します。ロック済みレコードは対象外です。
func (j *RefreshManagersJob) RunTenant(ctx context.Context, tenant string) (Result, error) {
	var result Result

	unlocked := false
	records, err := j.checklists.List(ctx, checklist.ListFilter{Tenant: tenant, Locked: &unlocked})
	if err != nil {
		return result, fmt.Errorf("list open checklists in %s: %w", tenant, err)
	}

	for _, rec := range records {
		emp, err := j.gateway.FetchEmployee(ctx, tenant, rec.Employee.PersonID)
		if err != nil {
			if errors.Is(err, directory.ErrEmployeeNotFound) {
				result.Add(tenant, "employee_gone", fmt.Sprintf("employee %s no longer in directory", rec.Employee.PersonID))
				continue
			}
			result.Add(tenant, "failed", fmt.Sprintf("failed to fetch employee %s: %v", rec.Employee.PersonID, err))
			continue
		}

		if emp.Manager == nil {
			result.Add(tenant, "no_manager", fmt.Sprintf("employee %s has no manager in directory", rec.Employee.PersonID))
			continue
		}

		if rec.Manager != nil && rec.Manager.PersonID == emp.Manager.PersonID {
			result.Add(tenant, "unchanged", fmt.Sprintf("checklist %s manager unchanged", rec.ID))
			continue
		}

		if _, err := j.checklists.UpdateManager(ctx, rec.ID, toManagerRef(emp.Manager)); err != nil {
			result.Add(tenant, "failed", fmt.Sprintf("failed to update manager on checklist %s: %v", rec.ID, err))
			j.logger.Warn("failed to update manager snapshot",
				slog.String("tenant", tenant),
				slog.String("checklist_id", rec.ID),
				slog.String("error", err.Error()))
			continue
		}

		result.Add(tenant, "updated", fmt.Sprintf("checklist %s manager changed to %s", rec.ID, emp.Manager.PersonID))
	}

	return result, nil
}

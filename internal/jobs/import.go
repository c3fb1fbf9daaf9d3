package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ogurasousui/onboarding-checklist/internal/core/audit"
	"github.com/ogurasousui/onboarding-checklist/internal/core/checklist"
	"github.com/ogurasousui/onboarding-checklist/internal/core/directory"
	"github.com/ogurasousui/onboarding-checklist/internal/core/template"
)

// Clock は現在時刻を提供します。
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now().UTC()
}

// ChecklistInitiator はチェックリスト作成のユースケース境界です。
type ChecklistInitiator interface {
	InitiateForEmployee(ctx context.Context, in checklist.InitiateInput) (*checklist.Checklist, error)
}

// ImportJob は新規従業員を検出してチェックリストを作成するドライバです。
// 試行ごとに監査行を記録します。
type ImportJob struct {
	gateway    directory.Gateway
	checklists ChecklistInitiator
	audit      audit.Sink
	clock      Clock
	logger     *slog.Logger
	windowDays int
}

// NewImportJob は ImportJob を生成します。windowDays は着任日の遡り日数です。
func NewImportJob(gateway directory.Gateway, checklists ChecklistInitiator, sink audit.Sink, clock Clock, logger *slog.Logger, windowDays int) *ImportJob {
	if clock == nil {
		clock = realClock{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	if windowDays <= 0 {
		windowDays = 30
	}
	return &ImportJob{
		gateway:    gateway,
		checklists: checklists,
		audit:      sink,
		clock:      clock,
		logger:     logger,
		windowDays: windowDays,
	}
}

// Name はジョブ名を返します。
func (j *ImportJob) Name() string {
	return "import-checklists"
}

// RunTenant は 1 テナント分の新規従業員を取り込みます。
func (j *ImportJob) RunTenant(ctx context.Context, tenant string) (Result, error) {
	var result Result

	now := j.clock.Now()
	from := now.AddDate(0, 0, -j.windowDays)

	employees, err := j.gateway.FetchNewEmployees(ctx, tenant, directory.EmployeeFilter{
		HiredFrom:     &from,
		HiredTo:       &now,
		IncludeManual: true,
		EventTypes:    directory.MoveEventTypes(),
	})
	if err != nil {
		return result, fmt.Errorf("fetch new employees for %s: %w", tenant, err)
	}

	for _, emp := range employees {
		outcome, status, message := j.initiate(ctx, tenant, emp)
		result.Add(tenant, outcome, message)
		j.record(ctx, tenant, status, message)
	}

	return result, nil
}

func (j *ImportJob) initiate(ctx context.Context, tenant string, emp *directory.Employee) (outcome string, status audit.Status, message string) {
	created, err := j.checklists.InitiateForEmployee(ctx, toInitiateInput(tenant, emp))
	switch {
	case err == nil:
		return "created", audit.StatusOK,
			fmt.Sprintf("created checklist %s for employee %s", created.ID, emp.PersonID)
	case errors.Is(err, checklist.ErrChecklistExists):
		return "duplicate", audit.StatusSkipped,
			fmt.Sprintf("employee %s already has a checklist", emp.PersonID)
	case errors.Is(err, template.ErrNoActiveTemplate):
		return "no_template", audit.StatusFailed,
			fmt.Sprintf("no active template for employee %s (organization %d, role %s)", emp.PersonID, emp.OrganizationNumber, roleFor(emp))
	default:
		return "failed", audit.StatusFailed,
			fmt.Sprintf("failed to create checklist for employee %s: %v", emp.PersonID, err)
	}
}

func (j *ImportJob) record(ctx context.Context, tenant string, status audit.Status, detail string) {
	err := j.audit.Record(ctx, audit.Entry{
		Tenant:    tenant,
		Status:    status,
		Detail:    detail,
		CreatedAt: j.clock.Now(),
	})
	if err != nil {
		j.logger.Warn("failed to write audit entry",
			slog.String("tenant", tenant),
			slog.String("error", err.Error()))
	}
}

package jobs

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ogurasousui/onboarding-checklist/internal/core/checklist"
	"github.com/ogurasousui/onboarding-checklist/internal/core/directory"
)

// PendingNotificationSource は通知候補取得と結果書き戻しのユースケース境界です。
type PendingNotificationSource interface {
	PendingNotification(ctx context.Context, tenant string) ([]*checklist.Checklist, error)
	SaveCorrespondence(ctx context.Context, checklistID string, c *checklist.Correspondence) error
}

// NotificationDispatcher は 1 レコード分の通知試行を実行します。
type NotificationDispatcher interface {
	Dispatch(ctx context.Context, rec *checklist.Checklist) (*checklist.Correspondence, error)
}

// SendNotificationsJob は未通知レコードの上長へメール通知を行うドライバです。
type SendNotificationsJob struct {
	checklists PendingNotificationSource
	gateway    directory.Gateway
	dispatcher NotificationDispatcher
	clock      Clock
	logger     *slog.Logger
}

// NewSendNotificationsJob は SendNotificationsJob を生成します。
func NewSendNotificationsJob(checklists PendingNotificationSource, gateway directory.Gateway, dispatcher NotificationDispatcher, clock Clock, logger *slog.Logger) *SendNotificationsJob {
	if clock == nil {
		clock = realClock{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SendNotificationsJob{
		checklists: checklists,
		gateway:    gateway,
		dispatcher: dispatcher,
		clock:      clock,
		logger:     logger,
	}
}

// Name はジョブ名を返します。
func (j *SendNotificationsJob) Name() string {
	return "send-notifications"
}

// RunTenant は 1 テナント分の通知候補を処理します。
// 候補は correspondence が無いか NOT_SENT のレコードに限られます。
// レコード単位の失敗は結果に変換し、残りのレコードの処理を続けます。
func (j *SendNotificationsJob) RunTenant(ctx context.Context, tenant string) (Result, error) {
	var result Result

	pending, err := j.checklists.PendingNotification(ctx, tenant)
	if err != nil {
		return result, fmt.Errorf("find pending notifications in %s: %w", tenant, err)
	}

	// 組織のチャネル設定はテナント内で使い回します。
	channels := map[int][]checklist.CommunicationChannel{}

	for _, rec := range pending {
		orgChannels, ok := channels[rec.OrganizationNumber]
		if !ok {
			org, err := j.gateway.FetchOrganization(ctx, tenant, rec.OrganizationNumber)
			if err != nil {
				result.Add(tenant, "failed", fmt.Sprintf("failed to resolve organization %d for checklist %s: %v", rec.OrganizationNumber, rec.ID, err))
				continue
			}
			orgChannels = org.CommunicationChannels
			channels[rec.OrganizationNumber] = orgChannels
		}

		switch checklist.ClassifyForNotification(rec, orgChannels) {
		case checklist.DecisionSkipAlreadyHandled:
			result.Add(tenant, "already_handled", fmt.Sprintf("checklist %s already notified", rec.ID))

		case checklist.DecisionSkipOptedOut:
			// 監査のため WILL_NOT_SEND を正規化して書き戻します。
			c := checklist.OptOutCorrespondence(rec, j.clock.Now())
			if err := j.checklists.SaveCorrespondence(ctx, rec.ID, c); err != nil {
				result.Add(tenant, "failed", fmt.Sprintf("failed to record opt-out for checklist %s: %v", rec.ID, err))
				continue
			}
			result.Add(tenant, "opted_out", fmt.Sprintf("organization %d opted out of email for checklist %s", rec.OrganizationNumber, rec.ID))

		case checklist.DecisionSend:
			outcome, err := j.dispatcher.Dispatch(ctx, rec)
			if err != nil {
				result.Add(tenant, "failed", fmt.Sprintf("failed to persist outcome for checklist %s: %v", rec.ID, err))
				continue
			}
			result.Add(tenant, outcomeLabel(outcome.Status), fmt.Sprintf("checklist %s dispatch resulted in %s", rec.ID, outcome.Status))
		}
	}

	return result, nil
}

func outcomeLabel(status checklist.CorrespondenceStatus) string {
	switch status {
	case checklist.CorrespondenceSent:
		return "sent"
	case checklist.CorrespondenceNotSent:
		return "not_sent"
	case checklist.CorrespondenceError:
		return "error"
	case checklist.CorrespondenceWillNotSend:
		return "will_not_send"
	default:
		return "unknown"
	}
}

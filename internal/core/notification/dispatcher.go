package notification

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ogurasousui/onboarding-checklist/internal/core/checklist"
)

// TemplateRenderer は外部テンプレートレンダリングサービスの抽象です。
type TemplateRenderer interface {
	Render(ctx context.Context, templateID string, params map[string]string) (string, error)
}

// MailSender はメール送信プロバイダの抽象です。送信成功時にメッセージ ID を返します。
type MailSender interface {
	Send(ctx context.Context, msg Message) (string, error)
}

// Message は送信する 1 通のメールです。
type Message struct {
	Recipient  string
	Sender     string
	SenderName string
	Subject    string
	HTMLBody   string
}

// CorrespondenceStore は通知試行結果の書き戻し先です。
type CorrespondenceStore interface {
	SaveCorrespondence(ctx context.Context, checklistID string, c *checklist.Correspondence) error
}

// Clock は現在時刻を提供します。
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now().UTC()
}

// Config はマネージャー向け通知メールの固定設定です。
type Config struct {
	TemplateID string
	Subject    string
	Sender     string
	SenderName string
}

// Dispatcher は SEND 判定を受けてレンダリングと送信を実行し、
// 結果を correspondence としてレコードに書き戻します。
// 連携先のエラーは例外としては伝播させず、常に状態へ変換します。
type Dispatcher struct {
	renderer TemplateRenderer
	sender   MailSender
	store    CorrespondenceStore
	clock    Clock
	logger   *slog.Logger
	cfg      Config
}

// NewDispatcher は Dispatcher を生成します。
func NewDispatcher(renderer TemplateRenderer, sender MailSender, store CorrespondenceStore, clock Clock, logger *slog.Logger, cfg Config) *Dispatcher {
	if clock == nil {
		clock = realClock{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{renderer: renderer, sender: sender, store: store, clock: clock, logger: logger, cfg: cfg}
}

// Dispatch は 1 レコード分の通知を試行し、書き戻した correspondence を返します。
//
//   - 上長参照が無い場合は送信せず ERROR を記録します (恒久障害、自動再送対象外)。
//   - レンダリング失敗・送信失敗は NOT_SENT を記録し attempts を加算します (次回パスで再試行)。
//   - 送信成功は SENT とメッセージ ID・送信時刻・宛先を記録します。
//
// 戻り値の error は書き戻しの失敗のみを表し、連携先の失敗では発生しません。
func (d *Dispatcher) Dispatch(ctx context.Context, rec *checklist.Checklist) (*checklist.Correspondence, error) {
	outcome := d.attempt(ctx, rec)

	if err := d.store.SaveCorrespondence(ctx, rec.ID, outcome); err != nil {
		d.logger.Warn("failed to persist correspondence",
			slog.String("checklist_id", rec.ID),
			slog.String("status", string(outcome.Status)),
			slog.String("error", err.Error()))
		return outcome, fmt.Errorf("notification: save correspondence for %s: %w", rec.ID, err)
	}

	return outcome, nil
}

func (d *Dispatcher) attempt(ctx context.Context, rec *checklist.Checklist) *checklist.Correspondence {
	now := d.clock.Now()
	attempts := 0
	if rec.Correspondence != nil {
		attempts = rec.Correspondence.Attempts
	}

	if rec.Manager == nil || rec.Manager.Email == "" {
		d.logger.Warn("checklist has no manager reference, marking correspondence as error",
			slog.String("checklist_id", rec.ID),
			slog.String("tenant", rec.Tenant))
		return &checklist.Correspondence{
			Status:     checklist.CorrespondenceError,
			Channel:    checklist.ChannelEmail,
			Attempts:   attempts,
			ModifiedAt: now,
		}
	}

	body, err := d.renderer.Render(ctx, d.cfg.TemplateID, renderParams(rec))
	if err != nil {
		d.logger.Warn("template rendering failed",
			slog.String("checklist_id", rec.ID),
			slog.String("template_id", d.cfg.TemplateID),
			slog.String("error", err.Error()))
		return &checklist.Correspondence{
			Status:     checklist.CorrespondenceNotSent,
			Channel:    checklist.ChannelEmail,
			Recipient:  rec.Manager.Email,
			Attempts:   attempts + 1,
			ModifiedAt: now,
		}
	}

	messageID, err := d.sender.Send(ctx, Message{
		Recipient:  rec.Manager.Email,
		Sender:     d.cfg.Sender,
		SenderName: d.cfg.SenderName,
		Subject:    d.cfg.Subject,
		HTMLBody:   body,
	})
	if err != nil {
		d.logger.Warn("mail delivery failed",
			slog.String("checklist_id", rec.ID),
			slog.String("recipient", rec.Manager.Email),
			slog.String("error", err.Error()))
		return &checklist.Correspondence{
			Status:     checklist.CorrespondenceNotSent,
			Channel:    checklist.ChannelEmail,
			Recipient:  rec.Manager.Email,
			Attempts:   attempts + 1,
			ModifiedAt: now,
		}
	}

	sentAt := now
	return &checklist.Correspondence{
		Status:     checklist.CorrespondenceSent,
		Channel:    checklist.ChannelEmail,
		Recipient:  rec.Manager.Email,
		Attempts:   attempts,
		MessageID:  messageID,
		SentAt:     &sentAt,
		ModifiedAt: now,
	}
}

// renderParams はレコードからレンダリングパラメータを組み立てます。
func renderParams(rec *checklist.Checklist) map[string]string {
	params := map[string]string{
		"employeeFirstName": rec.Employee.FirstName,
		"employeeLastName":  rec.Employee.LastName,
	}
	if rec.Manager != nil {
		params["managerFirstName"] = rec.Manager.FirstName
		params["managerLastName"] = rec.Manager.LastName
	}
	if rec.StartDate != nil {
		params["employeeStartDate"] = rec.StartDate.Format("2006-01-02")
	}
	return params
}

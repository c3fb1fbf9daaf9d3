package checklist

import (
	"time"

	"github.com/ogurasousui/onboarding-checklist/internal/core/template"
)

// rolePeriod は役割ごとの完了期限と失効期限の組です。
// timeToComplete < timeToExpiration が全役割で成り立ちます。
type rolePeriod struct {
	timeToComplete   Period
	timeToExpiration Period
}

var rolePeriods = map[template.RoleType]rolePeriod{
	template.RoleNewEmployee:           {MustParsePeriod("P6M"), MustParsePeriod("P9M")},
	template.RoleManagerForNewEmployee: {MustParsePeriod("P6M"), MustParsePeriod("P9M")},
	template.RoleNewManager:            {MustParsePeriod("P24M"), MustParsePeriod("P27M")},
	template.RoleManagerForNewManager:  {MustParsePeriod("P24M"), MustParsePeriod("P27M")},
}

// TimeToComplete は役割の完了期限期間を返します。
func TimeToComplete(role template.RoleType) Period {
	return rolePeriods[role].timeToComplete
}

// TimeToExpiration は役割の失効期限期間を返します。
func TimeToExpiration(role template.RoleType) Period {
	return rolePeriods[role].timeToExpiration
}

// ComputeDueDates は着任日から完了期限と失効期限を導出します。
// startDate が nil のときは両方 nil を返し、レコードは未起算として扱います。
func ComputeDueDates(role template.RoleType, startDate *time.Time) (endDate, expirationDate *time.Time) {
	if startDate == nil {
		return nil, nil
	}

	periods, ok := rolePeriods[role]
	if !ok {
		return nil, nil
	}

	end := periods.timeToComplete.AddTo(*startDate)
	expiration := periods.timeToExpiration.AddTo(*startDate)
	return &end, &expiration
}

// LockAction はロック判定の結果です。
type LockAction string

const (
	ActionLock LockAction = "LOCK"
	ActionKeep LockAction = "KEEP"
)

// ClassifyForLocking はレコードをロックすべきかどうかを判定します。
// 失効日が today より厳密に過去の場合のみ LOCK を返します (当日はロックしない)。
// 既にロック済みのレコードは常に KEEP であり、再適用は no-op です。
func ClassifyForLocking(rec *Checklist, today time.Time) LockAction {
	if rec.Locked {
		return ActionKeep
	}
	if rec.ExpirationDate == nil {
		return ActionKeep
	}
	if rec.ExpirationDate.Before(truncateToDate(today)) {
		return ActionLock
	}
	return ActionKeep
}

// NotificationDecision は通知判定の結果です。
type NotificationDecision string

const (
	DecisionSend               NotificationDecision = "SEND"
	DecisionSkipOptedOut       NotificationDecision = "SKIP_OPTED_OUT"
	DecisionSkipAlreadyHandled NotificationDecision = "SKIP_ALREADY_HANDLED"
)

// ClassifyForNotification は上長宛メール通知の可否を判定します。
// channels はレコードが属する組織の通知チャネル設定です。
//
//   - 直近の通知が SENT なら SKIP_ALREADY_HANDLED。
//   - 組織がメールを選択していない (NO_COMMUNICATION のみ、または空) なら SKIP_OPTED_OUT。
//   - それ以外 (未通知、または NOT_SENT で再試行待ち) は SEND。
func ClassifyForNotification(rec *Checklist, channels []CommunicationChannel) NotificationDecision {
	if rec.Correspondence != nil && rec.Correspondence.Status == CorrespondenceSent {
		return DecisionSkipAlreadyHandled
	}
	if !emailSelected(channels) {
		return DecisionSkipOptedOut
	}
	return DecisionSend
}

// EligibleForNotificationRetry は自動再送対象かどうかを返します。
// 未通知 (correspondence なし) と NOT_SENT のみが対象です。SENT と WILL_NOT_SEND は
// 完了扱い、ERROR は恒久障害として手動対応に回し、自動再送の嵐を避けます。
func EligibleForNotificationRetry(rec *Checklist) bool {
	if rec.Correspondence == nil {
		return true
	}
	return rec.Correspondence.Status == CorrespondenceNotSent
}

// IsValidChannelSelection は組織のチャネル設定が妥当かどうかを返します。
// NO_COMMUNICATION は単独でのみ有効で、他チャネルとの併用は無効です。
// 空集合も無効です (オプトアウト扱いになりますが正規のオプトアウト形式ではありません)。
func IsValidChannelSelection(channels []CommunicationChannel) bool {
	if len(channels) == 0 {
		return false
	}
	for _, c := range channels {
		if c == ChannelNoCommunication {
			return len(channels) == 1
		}
	}
	return true
}

// OptOutCorrespondence はオプトアウト組織のレコードに記録する WILL_NOT_SEND の
// 監査用エントリを構築します。過去の NOT_SENT/ERROR の宛先は現在の上長アドレスで
// 上書きされ、attempts は引き継がれます。
func OptOutCorrespondence(rec *Checklist, now time.Time) *Correspondence {
	attempts := 0
	if rec.Correspondence != nil {
		attempts = rec.Correspondence.Attempts
	}

	recipient := ""
	if rec.Manager != nil {
		recipient = rec.Manager.Email
	}

	return &Correspondence{
		Status:     CorrespondenceWillNotSend,
		Channel:    ChannelEmail,
		Recipient:  recipient,
		Attempts:   attempts,
		ModifiedAt: now,
	}
}

func emailSelected(channels []CommunicationChannel) bool {
	if !IsValidChannelSelection(channels) {
		return false
	}
	for _, c := range channels {
		if c == ChannelEmail {
			return true
		}
	}
	return false
}

func truncateToDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

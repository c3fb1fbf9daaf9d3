package checklist

import (
	"context"
	"time"
)

// Repository はチェックリスト永続化の抽象です。
type Repository interface {
	Create(ctx context.Context, rec *Checklist) (*Checklist, error)
	Update(ctx context.Context, rec *Checklist) (*Checklist, error)
	FindByID(ctx context.Context, id string) (*Checklist, error)
	FindByEmployee(ctx context.Context, tenant, personID string) (*Checklist, error)
	List(ctx context.Context, filter ListFilter) ([]*Checklist, error)
	// FindDueForLocking は未ロックかつ失効日が asOf より過去のレコードを返します。
	FindDueForLocking(ctx context.Context, tenant string, asOf time.Time) ([]*Checklist, error)
	// FindPendingNotification は correspondence が無いか NOT_SENT のレコードを返します。
	// SENT / WILL_NOT_SEND / ERROR は自動再送の対象外です。
	FindPendingNotification(ctx context.Context, tenant string) ([]*Checklist, error)
	// SaveCorrespondence は通知試行の結果のみを書き戻します。
	SaveCorrespondence(ctx context.Context, checklistID string, c *Correspondence) error
}

// ListFilter は一覧取得用フィルタです。ゼロ値のフィールドは条件に含まれません。
type ListFilter struct {
	Tenant          string
	ManagerPersonID string
	Locked          *bool
	Limit           int
	Offset          int
}

package directory

import (
	"context"
	"errors"
	"time"
)

var (
	ErrEmployeeNotFound     = errors.New("directory: employee not found")
	ErrOrganizationNotFound = errors.New("directory: organization not found")
)

// 異動イベントとして認識するイベントタグです。"any historical move" 問い合わせで使われます。
const (
	EventMover           = "Mover"
	EventCorporate       = "Corporate"
	EventCompany         = "Company"
	EventRehireCorporate = "Rehire,Corporate"
)

// MoveEventTypes は既定の異動イベントタグ一覧を返します。
func MoveEventTypes() []string {
	return []string{EventMover, EventCorporate, EventCompany, EventRehireCorporate}
}

// EmployeeFilter はディレクトリ検索の条件です。
type EmployeeFilter struct {
	HiredFrom     *time.Time
	HiredTo       *time.Time
	IncludeManual bool
	EventTypes    []string
	PersonID      string
}

// Gateway は外部 HR ディレクトリへの読み取り専用アクセスの抽象です。
type Gateway interface {
	// FetchNewEmployees はフィルタに一致する従業員の一覧を返します。
	FetchNewEmployees(ctx context.Context, tenant string, filter EmployeeFilter) ([]*Employee, error)
	// FetchEmployee は 1 人の従業員を返します。見つからなければ ErrEmployeeNotFound です。
	FetchEmployee(ctx context.Context, tenant, personID string) (*Employee, error)
	// FetchOrganization は組織と通知チャネル設定を返します。
	FetchOrganization(ctx context.Context, tenant string, organizationNumber int) (*Organization, error)
}

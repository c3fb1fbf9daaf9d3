// Package audit はチェックリスト作成試行の追記専用監査行を扱います。
// 行は保持期間経過後にスケジューラによって purge されます。
package audit

import (
	"context"
	"errors"
	"time"
)

var ErrInvalidTenant = errors.New("audit: invalid tenant")

// Status は 1 回の作成試行の結果区分です。
type Status string

const (
	StatusOK      Status = "OK"
	StatusFailed  Status = "FAILED"
	StatusSkipped Status = "SKIPPED"
)

// Entry は 1 件の監査行です。作成後に更新されることはありません。
type Entry struct {
	ID        string
	Tenant    string
	Status    Status
	Detail    string
	CreatedAt time.Time
}

// Sink は監査行の書き込み先の抽象です。
type Sink interface {
	Record(ctx context.Context, entry Entry) error
	ListByTenant(ctx context.Context, tenant string) ([]*Entry, error)
	// PurgeBefore は cutoff より古い行を削除し、削除件数を返します。
	PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

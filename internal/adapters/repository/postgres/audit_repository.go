package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/ogurasousui/onboarding-checklist/internal/core/audit"
	pgdb "github.com/ogurasousui/onboarding-checklist/internal/platform/db/postgres"
)

// AuditRepository は PostgreSQL を利用した監査行シンクの実装です。
type AuditRepository struct {
	pool pgdb.Querier
}

// NewAuditRepository は AuditRepository を生成します。
func NewAuditRepository(pool pgdb.Querier) *AuditRepository {
	return &AuditRepository{pool: pool}
}

// Record は監査行を 1 件追記します。
func (r *AuditRepository) Record(ctx context.Context, entry audit.Entry) error {
	if entry.Tenant == "" {
		return audit.ErrInvalidTenant
	}

	exec := pgdb.QuerierFromContext(ctx, r.pool)
	_, err := exec.Exec(ctx, `
        INSERT INTO initiation_audit (tenant, status, detail, created_at)
        VALUES ($1,$2,$3,$4)
    `, entry.Tenant, string(entry.Status), entry.Detail, entry.CreatedAt)
	return err
}

// ListByTenant はテナントの監査行を新しい順に返します。
func (r *AuditRepository) ListByTenant(ctx context.Context, tenant string) ([]*audit.Entry, error) {
	if tenant == "" {
		return nil, audit.ErrInvalidTenant
	}

	exec := pgdb.QuerierFromContext(ctx, r.pool)
	rows, err := exec.Query(ctx, `
        SELECT id, tenant, status, detail, created_at
          FROM initiation_audit
         WHERE tenant = $1
         ORDER BY created_at DESC, id DESC
    `, tenant)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*audit.Entry
	for rows.Next() {
		var e audit.Entry
		var status string
		if err := rows.Scan(&e.ID, &e.Tenant, &status, &e.Detail, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.Status = audit.Status(status)
		entries = append(entries, &e)
	}
	if err := rows.Err(); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return entries, nil
}

// PurgeBefore は cutoff より古い監査行を削除し、削除件数を返します。
func (r *AuditRepository) PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	exec := pgdb.QuerierFromContext(ctx, r.pool)
	tag, err := exec.Exec(ctx, `DELETE FROM initiation_audit WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

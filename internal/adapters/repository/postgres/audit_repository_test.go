package postgres

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	pgxmock "github.com/pashagolub/pgxmock/v4"

	"github.com/ogurasousui/onboarding-checklist/internal/core/audit"
)

func TestAuditRepository_Record_InvalidTenant(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	defer mock.Close()

	repo := NewAuditRepository(mock)

	if err := repo.Record(context.Background(), audit.Entry{Status: audit.StatusOK}); !errors.Is(err, audit.ErrInvalidTenant) {
		t.Fatalf("expected ErrInvalidTenant, got %v", err)
	}
}

func TestAuditRepository_Record_Inserts(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	defer mock.Close()

	repo := NewAuditRepository(mock)
	now := time.Now().UTC()

	mock.ExpectExec(regexp.QuoteMeta(`
        INSERT INTO initiation_audit (tenant, status, detail, created_at)
        VALUES ($1,$2,$3,$4)
    `)).
		WithArgs("acme", "OK", "created checklist cl-1", now).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err = repo.Record(context.Background(), audit.Entry{
		Tenant:    "acme",
		Status:    audit.StatusOK,
		Detail:    "created checklist cl-1",
		CreatedAt: now,
	})
	if err != nil {
		t.Fatalf("Record returned error: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestAuditRepository_ListByTenant_NewestFirst(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	defer mock.Close()

	repo := NewAuditRepository(mock)
	now := time.Now().UTC()

	mock.ExpectQuery(regexp.QuoteMeta(`
        SELECT id, tenant, status, detail, created_at
          FROM initiation_audit
         WHERE tenant = $1
         ORDER BY created_at DESC, id DESC
    `)).
		WithArgs("acme").
		WillReturnRows(pgxmock.NewRows([]string{"id", "tenant", "status", "detail", "created_at"}).
			AddRow("a-2", "acme", "FAILED", "no active template", now).
			AddRow("a-1", "acme", "OK", "created checklist cl-1", now.Add(-time.Hour)))

	entries, err := repo.ListByTenant(context.Background(), "acme")
	if err != nil {
		t.Fatalf("ListByTenant returned error: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].ID != "a-2" || entries[0].Status != audit.StatusFailed {
		t.Fatalf("unexpected first entry %+v", entries[0])
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestAuditRepository_PurgeBefore_ReturnsDeletedCount(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	defer mock.Close()

	repo := NewAuditRepository(mock)
	cutoff := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM initiation_audit WHERE created_at < $1`)).
		WithArgs(cutoff).
		WillReturnResult(pgxmock.NewResult("DELETE", 17))

	deleted, err := repo.PurgeBefore(context.Background(), cutoff)
	if err != nil {
		t.Fatalf("PurgeBefore returned error: %v", err)
	}
	if deleted != 17 {
		t.Fatalf("expected 17 deleted rows, got %d", deleted)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

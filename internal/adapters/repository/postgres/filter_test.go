package postgres

import (
	"reflect"
	"testing"
)

func TestFilter_Where_Empty(t *testing.T) {
	t.Parallel()

	where, args := Filter{}.Where(1)
	if where != "" {
		t.Fatalf("expected empty clause, got %q", where)
	}
	if args != nil {
		t.Fatalf("expected nil args, got %v", args)
	}
}

func TestFilter_Where_NumbersFromStartIndex(t *testing.T) {
	t.Parallel()

	f := Filter{
		Eq("c.tenant", "acme"),
		{Field: "c.expiration_date", Op: OpLess, Value: "2025-03-10"},
	}

	where, args := f.Where(3)
	if where != " WHERE c.tenant = $3 AND c.expiration_date < $4" {
		t.Fatalf("unexpected clause %q", where)
	}
	if !reflect.DeepEqual(args, []any{"acme", "2025-03-10"}) {
		t.Fatalf("unexpected args %v", args)
	}
}

func TestFilter_Where_NullOperatorsConsumeNoArgs(t *testing.T) {
	t.Parallel()

	f := Filter{
		{Field: "c.expiration_date", Op: OpIsNotNull},
		Eq("c.locked", false),
		{Field: "c.corr_status", Op: OpIsNull},
	}

	where, args := f.Where(1)
	if where != " WHERE c.expiration_date IS NOT NULL AND c.locked = $1 AND c.corr_status IS NULL" {
		t.Fatalf("unexpected clause %q", where)
	}
	if len(args) != 1 || args[0] != false {
		t.Fatalf("unexpected args %v", args)
	}
}

package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/ogurasousui/onboarding-checklist/internal/core/audit"
)

type stubSink struct {
	entries []*audit.Entry
	err     error
}

func (s *stubSink) Record(context.Context, audit.Entry) error {
	return s.err
}

func (s *stubSink) ListByTenant(context.Context, string) ([]*audit.Entry, error) {
	return s.entries, s.err
}

func (s *stubSink) PurgeBefore(context.Context, time.Time) (int64, error) {
	return 0, s.err
}

func TestAuditHandler_ListByTenant_OK(t *testing.T) {
	t.Parallel()

	sink := &stubSink{entries: []*audit.Entry{
		{ID: "a-1", Tenant: "acme", Status: audit.StatusOK, Detail: "created checklist cl-1", CreatedAt: time.Now().UTC()},
	}}
	router := NewRouter(Deps{Audit: NewAuditHandler(sink)})

	w := doRequest(router, http.MethodGet, "/api/v1/tenants/acme/audit", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var body struct {
		Entries []map[string]any `json:"entries"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if len(body.Entries) != 1 || body.Entries[0]["status"] != "OK" {
		t.Fatalf("unexpected body %+v", body)
	}
}

func TestAuditHandler_ListByTenant_SinkError(t *testing.T) {
	t.Parallel()

	sink := &stubSink{err: errors.New("db down")}
	router := NewRouter(Deps{Audit: NewAuditHandler(sink)})

	w := doRequest(router, http.MethodGet, "/api/v1/tenants/acme/audit", "")
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
}

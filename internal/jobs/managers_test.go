package jobs

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ogurasousui/onboarding-checklist/internal/core/checklist"
	"github.com/ogurasousui/onboarding-checklist/internal/core/directory"
)

type fakeManagerUpdater struct {
	records    []*checklist.Checklist
	listErr    error
	updateErr  map[string]error
	updated    map[string]*checklist.ManagerRef
	lastFilter checklist.ListFilter
}

func (f *fakeManagerUpdater) List(_ context.Context, filter checklist.ListFilter) ([]*checklist.Checklist, error) {
	f.lastFilter = filter
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.records, nil
}

func (f *fakeManagerUpdater) UpdateManager(_ context.Context, checklistID string, manager *checklist.ManagerRef) (*checklist.Checklist, error) {
	if err := f.updateErr[checklistID]; err != nil {
		return nil, err
	}
	if f.updated == nil {
		f.updated = map[string]*checklist.ManagerRef{}
	}
	f.updated[checklistID] = manager
	return &checklist.Checklist{ID: checklistID, Manager: manager}, nil
}

func openChecklist(id, personID, managerPersonID string) *checklist.Checklist {
	rec := &checklist.Checklist{
		ID:       id,
		Tenant:   "acme",
		Employee: checklist.EmployeeRef{PersonID: personID},
	}
	if managerPersonID != "" {
		rec.Manager = &checklist.ManagerRef{PersonID: managerPersonID, Email: "old@example.com"}
	}
	return rec
}

func TestRefreshManagersJob_RunTenant_UpdatesChangedManager(t *testing.T) {
	t.Parallel()

	emp := newEmployee("p-1", false)
	emp.Manager = &directory.Manager{PersonID: "mgr-new", Email: "new.boss@example.com"}

	updater := &fakeManagerUpdater{records: []*checklist.Checklist{openChecklist("cl-1", "p-1", "mgr-old")}}
	gateway := &fakeGateway{byPerson: map[string]*directory.Employee{"p-1": emp}}

	job := NewRefreshManagersJob(updater, gateway, nil)
	result, err := job.RunTenant(context.Background(), "acme")
	require.NoError(t, err)

	require.Len(t, result.Details, 1)
	assert.Equal(t, "updated", result.Details[0].Outcome)
	require.NotNil(t, updater.updated["cl-1"])
	assert.Equal(t, "mgr-new", updater.updated["cl-1"].PersonID)
	assert.Equal(t, "new.boss@example.com", updater.updated["cl-1"].Email)
}

func TestRefreshManagersJob_RunTenant_ListsOnlyUnlocked(t *testing.T) {
	t.Parallel()

	updater := &fakeManagerUpdater{}

	job := NewRefreshManagersJob(updater, &fakeGateway{}, nil)
	_, err := job.RunTenant(context.Background(), "acme")
	require.NoError(t, err)

	assert.Equal(t, "acme", updater.lastFilter.Tenant)
	require.NotNil(t, updater.lastFilter.Locked)
	assert.False(t, *updater.lastFilter.Locked)
}

func TestRefreshManagersJob_RunTenant_SkipOutcomes(t *testing.T) {
	t.Parallel()

	sameManager := newEmployee("p-same", false)
	sameManager.Manager = &directory.Manager{PersonID: "mgr-1"}
	orphan := newEmployee("p-orphan", false)
	orphan.Manager = nil

	updater := &fakeManagerUpdater{records: []*checklist.Checklist{
		openChecklist("cl-same", "p-same", "mgr-1"),
		openChecklist("cl-orphan", "p-orphan", "mgr-1"),
		openChecklist("cl-gone", "p-gone", "mgr-1"),
	}}
	gateway := &fakeGateway{byPerson: map[string]*directory.Employee{
		"p-same":   sameManager,
		"p-orphan": orphan,
	}}

	job := NewRefreshManagersJob(updater, gateway, nil)
	result, err := job.RunTenant(context.Background(), "acme")
	require.NoError(t, err)

	require.Len(t, result.Details, 3)
	assert.Equal(t, "unchanged", result.Details[0].Outcome)
	assert.Equal(t, "no_manager", result.Details[1].Outcome)
	assert.Equal(t, "employee_gone", result.Details[2].Outcome)
	assert.Empty(t, updater.updated)
}

func TestRefreshManagersJob_RunTenant_FetchAndUpdateFailures(t *testing.T) {
	t.Parallel()

	changed := newEmployee("p-2", false)
	changed.Manager = &directory.Manager{PersonID: "mgr-new"}

	updater := &fakeManagerUpdater{
		records: []*checklist.Checklist{
			openChecklist("cl-1", "p-1", "mgr-1"),
			openChecklist("cl-2", "p-2", "mgr-old"),
		},
		updateErr: map[string]error{"cl-2": errors.New("row locked")},
	}
	gateway := &fakeGateway{
		byPerson:  map[string]*directory.Employee{"p-2": changed},
		personErr: map[string]error{"p-1": errors.New("directory timeout")},
	}

	job := NewRefreshManagersJob(updater, gateway, nil)
	result, err := job.RunTenant(context.Background(), "acme")
	require.NoError(t, err)

	require.Len(t, result.Details, 2)
	assert.Equal(t, "failed", result.Details[0].Outcome)
	assert.Equal(t, "failed", result.Details[1].Outcome)
}

func TestRefreshManagersJob_RunTenant_ListError(t *testing.T) {
	t.Parallel()

	updater := &fakeManagerUpdater{listErr: errors.New("db down")}

	job := NewRefreshManagersJob(updater, &fakeGateway{}, nil)
	_, err := job.RunTenant(context.Background(), "acme")
	require.Error(t, err)
}

package template

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"
)

type stubClock struct {
	now time.Time
}

func (s stubClock) Now() time.Time {
	return s.now
}

type fakeRepo struct {
	templates map[string]*Template
	order     []string
	seq       int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{templates: make(map[string]*Template)}
}

func (r *fakeRepo) nextID(prefix string) string {
	r.seq++
	return prefix + "-" + strconv.Itoa(r.seq)
}

func (r *fakeRepo) Create(_ context.Context, tpl *Template) (*Template, error) {
	for _, existing := range r.templates {
		if existing.Tenant == tpl.Tenant && existing.Name == tpl.Name && existing.Version == tpl.Version {
			return nil, ErrActiveVersionExists
		}
	}
	copy := cloneTemplate(tpl)
	copy.ID = r.nextID("tpl")
	r.templates[copy.ID] = copy
	r.order = append(r.order, copy.ID)
	return cloneTemplate(copy), nil
}

func (r *fakeRepo) Update(_ context.Context, tpl *Template) (*Template, error) {
	if _, ok := r.templates[tpl.ID]; !ok {
		return nil, ErrTemplateNotFound
	}
	copy := cloneTemplate(tpl)
	for _, p := range copy.Phases {
		if p.ID == "" {
			p.ID = r.nextID("phase")
		}
		for _, task := range p.Tasks {
			if task.ID == "" {
				task.ID = r.nextID("task")
			}
		}
	}
	r.templates[tpl.ID] = copy
	return cloneTemplate(copy), nil
}

func (r *fakeRepo) FindByID(_ context.Context, id string) (*Template, error) {
	tpl, ok := r.templates[id]
	if !ok {
		return nil, ErrTemplateNotFound
	}
	return cloneTemplate(tpl), nil
}

func (r *fakeRepo) FindActive(_ context.Context, tenant string, organizationNumber int, role RoleType) (*Template, error) {
	for _, id := range r.order {
		tpl := r.templates[id]
		if tpl.Tenant == tenant && tpl.OrganizationNumber == organizationNumber && tpl.RoleType == role && tpl.State == StateActive {
			return cloneTemplate(tpl), nil
		}
	}
	return nil, ErrNoActiveTemplate
}

func (r *fakeRepo) FindVersions(_ context.Context, tenant, name string) ([]*Template, error) {
	var result []*Template
	for _, id := range r.order {
		tpl := r.templates[id]
		if tpl.Tenant == tenant && tpl.Name == name {
			result = append(result, cloneTemplate(tpl))
		}
	}
	return result, nil
}

func (r *fakeRepo) List(_ context.Context, tenant string) ([]*Template, error) {
	var result []*Template
	for _, id := range r.order {
		tpl := r.templates[id]
		if tpl.Tenant == tenant {
			result = append(result, cloneTemplate(tpl))
		}
	}
	return result, nil
}

func cloneTemplate(tpl *Template) *Template {
	if tpl == nil {
		return nil
	}
	copy := *tpl
	copy.Phases = make([]*Phase, 0, len(tpl.Phases))
	for _, p := range tpl.Phases {
		pc := *p
		pc.Tasks = make([]*Task, 0, len(p.Tasks))
		for _, t := range p.Tasks {
			tc := *t
			pc.Tasks = append(pc.Tasks, &tc)
		}
		copy.Phases = append(copy.Phases, &pc)
	}
	return &copy
}

func validDraftInput() CreateDraftInput {
	return CreateDraftInput{
		Tenant:             "acme",
		OrganizationNumber: 100,
		Name:               " New-Employee ",
		DisplayName:        "New employee onboarding",
		RoleType:           RoleNewEmployee,
		LastSavedBy:        "admin",
	}
}

func TestService_CreateDraft_Success(t *testing.T) {
	t.Parallel()

	clk := stubClock{now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	repo := newFakeRepo()
	svc := NewService(repo, clk, nil)

	created, err := svc.CreateDraft(context.Background(), validDraftInput())
	if err != nil {
		t.Fatalf("CreateDraft returned error: %v", err)
	}

	if created.Name != "new-employee" {
		t.Errorf("expected normalized name, got %q", created.Name)
	}
	if created.Version != 1 {
		t.Errorf("first draft version = %d, want 1", created.Version)
	}
	if created.State != StateCreated {
		t.Errorf("state = %s, want CREATED", created.State)
	}
	if created.CreatedAt != clk.now || created.UpdatedAt != clk.now {
		t.Errorf("expected timestamps from clock, got %v and %v", created.CreatedAt, created.UpdatedAt)
	}
}

func TestService_CreateDraft_VersionIncrements(t *testing.T) {
	t.Parallel()

	repo := newFakeRepo()
	svc := NewService(repo, stubClock{now: time.Now()}, nil)

	first, err := svc.CreateDraft(context.Background(), validDraftInput())
	if err != nil {
		t.Fatalf("CreateDraft error: %v", err)
	}
	second, err := svc.CreateDraft(context.Background(), validDraftInput())
	if err != nil {
		t.Fatalf("second CreateDraft error: %v", err)
	}

	if first.Version != 1 || second.Version != 2 {
		t.Errorf("versions = %d and %d, want 1 and 2", first.Version, second.Version)
	}
}

func TestService_CreateDraft_InvalidInput(t *testing.T) {
	t.Parallel()

	svc := NewService(newFakeRepo(), stubClock{now: time.Now()}, nil)

	cases := []struct {
		name    string
		mutate  func(*CreateDraftInput)
		wantErr error
	}{
		{"empty tenant", func(in *CreateDraftInput) { in.Tenant = " " }, ErrInvalidTenant},
		{"empty name", func(in *CreateDraftInput) { in.Name = "" }, ErrInvalidName},
		{"bad organization", func(in *CreateDraftInput) { in.OrganizationNumber = 0 }, ErrInvalidOrganization},
		{"bad role", func(in *CreateDraftInput) { in.RoleType = "CONTRACTOR" }, ErrInvalidRoleType},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			input := validDraftInput()
			tc.mutate(&input)
			if _, err := svc.CreateDraft(context.Background(), input); !errors.Is(err, tc.wantErr) {
				t.Errorf("expected %v, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestService_Activate_DeprecatesPreviousActive(t *testing.T) {
	t.Parallel()

	repo := newFakeRepo()
	svc := NewService(repo, stubClock{now: time.Now()}, nil)

	v1, err := svc.CreateDraft(context.Background(), validDraftInput())
	if err != nil {
		t.Fatalf("CreateDraft error: %v", err)
	}
	if _, err := svc.Activate(context.Background(), v1.ID); err != nil {
		t.Fatalf("Activate v1 error: %v", err)
	}

	v2, err := svc.CreateDraft(context.Background(), validDraftInput())
	if err != nil {
		t.Fatalf("second CreateDraft error: %v", err)
	}
	activated, err := svc.Activate(context.Background(), v2.ID)
	if err != nil {
		t.Fatalf("Activate v2 error: %v", err)
	}

	if activated.State != StateActive {
		t.Errorf("v2 state = %s, want ACTIVE", activated.State)
	}
	previous, err := svc.Get(context.Background(), v1.ID)
	if err != nil {
		t.Fatalf("Get v1 error: %v", err)
	}
	if previous.State != StateDeprecated {
		t.Errorf("v1 state = %s, want DEPRECATED", previous.State)
	}

	current, err := svc.FindActive(context.Background(), "acme", 100, RoleNewEmployee)
	if err != nil {
		t.Fatalf("FindActive error: %v", err)
	}
	if current.ID != v2.ID {
		t.Errorf("active template = %s, want %s", current.ID, v2.ID)
	}
}

func TestService_Activate_RejectsNonDraft(t *testing.T) {
	t.Parallel()

	repo := newFakeRepo()
	svc := NewService(repo, stubClock{now: time.Now()}, nil)

	tpl, err := svc.CreateDraft(context.Background(), validDraftInput())
	if err != nil {
		t.Fatalf("CreateDraft error: %v", err)
	}
	if _, err := svc.Activate(context.Background(), tpl.ID); err != nil {
		t.Fatalf("Activate error: %v", err)
	}

	_, err = svc.Activate(context.Background(), tpl.ID)
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestService_Retire_Transitions(t *testing.T) {
	t.Parallel()

	repo := newFakeRepo()
	svc := NewService(repo, stubClock{now: time.Now()}, nil)

	draft, err := svc.CreateDraft(context.Background(), validDraftInput())
	if err != nil {
		t.Fatalf("CreateDraft error: %v", err)
	}

	if _, err := svc.Retire(context.Background(), draft.ID); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("retiring a draft: expected ErrInvalidTransition, got %v", err)
	}

	if _, err := svc.Activate(context.Background(), draft.ID); err != nil {
		t.Fatalf("Activate error: %v", err)
	}
	retired, err := svc.Retire(context.Background(), draft.ID)
	if err != nil {
		t.Fatalf("Retire returned error: %v", err)
	}
	if retired.State != StateRetired {
		t.Errorf("state = %s, want RETIRED", retired.State)
	}

	if _, err := svc.Activate(context.Background(), draft.ID); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("reactivating retired: expected ErrInvalidTransition, got %v", err)
	}
}

func TestService_AddPhaseAndTask(t *testing.T) {
	t.Parallel()

	repo := newFakeRepo()
	svc := NewService(repo, stubClock{now: time.Now()}, nil)

	draft, err := svc.CreateDraft(context.Background(), validDraftInput())
	if err != nil {
		t.Fatalf("CreateDraft error: %v", err)
	}

	withPhase, err := svc.AddPhase(context.Background(), AddPhaseInput{
		TemplateID:     draft.ID,
		Name:           "Before start",
		TimeToComplete: "P2W",
		Permission:     PermissionAdmin,
		SortOrder:      1,
	})
	if err != nil {
		t.Fatalf("AddPhase returned error: %v", err)
	}
	if len(withPhase.Phases) != 1 || withPhase.Phases[0].ID == "" {
		t.Fatalf("expected phase with assigned ID, got %+v", withPhase.Phases)
	}
	phaseID := withPhase.Phases[0].ID

	withTask, err := svc.AddTask(context.Background(), AddTaskInput{
		TemplateID:   draft.ID,
		PhaseID:      phaseID,
		Heading:      "Order laptop",
		QuestionType: QuestionYesOrNo,
		RoleType:     RoleNewEmployee,
		Permission:   PermissionAdmin,
		SortOrder:    1,
	})
	if err != nil {
		t.Fatalf("AddTask returned error: %v", err)
	}
	if got := len(withTask.Phases[0].Tasks); got != 1 {
		t.Fatalf("expected 1 task, got %d", got)
	}
}

func TestService_AddPhase_DuplicateSortOrder(t *testing.T) {
	t.Parallel()

	repo := newFakeRepo()
	svc := NewService(repo, stubClock{now: time.Now()}, nil)

	draft, err := svc.CreateDraft(context.Background(), validDraftInput())
	if err != nil {
		t.Fatalf("CreateDraft error: %v", err)
	}

	input := AddPhaseInput{TemplateID: draft.ID, Name: "Phase", Permission: PermissionAdmin, SortOrder: 1}
	if _, err := svc.AddPhase(context.Background(), input); err != nil {
		t.Fatalf("AddPhase error: %v", err)
	}

	input.Name = "Another phase"
	_, err = svc.AddPhase(context.Background(), input)
	if !errors.Is(err, ErrDuplicateSortOrder) {
		t.Fatalf("expected ErrDuplicateSortOrder, got %v", err)
	}
}

func TestService_AddPhase_RejectedAfterActivation(t *testing.T) {
	t.Parallel()

	repo := newFakeRepo()
	svc := NewService(repo, stubClock{now: time.Now()}, nil)

	draft, err := svc.CreateDraft(context.Background(), validDraftInput())
	if err != nil {
		t.Fatalf("CreateDraft error: %v", err)
	}
	if _, err := svc.Activate(context.Background(), draft.ID); err != nil {
		t.Fatalf("Activate error: %v", err)
	}

	_, err = svc.AddPhase(context.Background(), AddPhaseInput{
		TemplateID: draft.ID,
		Name:       "Late phase",
		Permission: PermissionAdmin,
		SortOrder:  1,
	})
	if !errors.Is(err, ErrNotEditable) {
		t.Fatalf("expected ErrNotEditable, got %v", err)
	}
}

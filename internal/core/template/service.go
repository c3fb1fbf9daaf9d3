package template

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Clock は現在時刻を提供します。
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now().UTC()
}

// TransactionManager はトランザクション制御の抽象化です。
type TransactionManager interface {
	WithinReadOnly(ctx context.Context, fn func(context.Context) error) error
	WithinReadWrite(ctx context.Context, fn func(context.Context) error) error
}

type noopTransactionManager struct{}

func (noopTransactionManager) WithinReadOnly(ctx context.Context, fn func(context.Context) error) error {
	if fn == nil {
		return nil
	}
	return fn(ctx)
}

func (noopTransactionManager) WithinReadWrite(ctx context.Context, fn func(context.Context) error) error {
	if fn == nil {
		return nil
	}
	return fn(ctx)
}

// UseCase はテンプレートユースケースの公開インターフェースです。
type UseCase interface {
	CreateDraft(ctx context.Context, in CreateDraftInput) (*Template, error)
	Activate(ctx context.Context, id string) (*Template, error)
	Retire(ctx context.Context, id string) (*Template, error)
	AddPhase(ctx context.Context, in AddPhaseInput) (*Template, error)
	AddTask(ctx context.Context, in AddTaskInput) (*Template, error)
	Get(ctx context.Context, id string) (*Template, error)
	List(ctx context.Context, tenant string) ([]*Template, error)
	FindActive(ctx context.Context, tenant string, organizationNumber int, role RoleType) (*Template, error)
}

// Service はテンプレート管理のユースケースをまとめます。
type Service struct {
	repo  Repository
	clock Clock
	tx    TransactionManager
}

// NewService は Service を生成します。
func NewService(repo Repository, clock Clock, tx TransactionManager) *Service {
	if clock == nil {
		clock = realClock{}
	}
	if tx == nil {
		tx = noopTransactionManager{}
	}
	return &Service{repo: repo, clock: clock, tx: tx}
}

// CreateDraftInput はドラフト作成時の入力です。
type CreateDraftInput struct {
	Tenant             string
	OrganizationNumber int
	Name               string
	DisplayName        string
	RoleType           RoleType
	LastSavedBy        string
}

// AddPhaseInput はフェーズ追加時の入力です。
type AddPhaseInput struct {
	TemplateID     string
	Name           string
	BodyText       string
	TimeToComplete string
	Permission     Permission
	SortOrder      int
}

// AddTaskInput はタスク追加時の入力です。
type AddTaskInput struct {
	TemplateID   string
	PhaseID      string
	Heading      string
	Text         string
	QuestionType QuestionType
	RoleType     RoleType
	Permission   Permission
	SortOrder    int
}

// CreateDraft は新しいドラフト版テンプレートを作成します。
// 同一名の既存バージョンがあれば、その最大バージョン + 1 を割り当てます。
func (s *Service) CreateDraft(ctx context.Context, in CreateDraftInput) (*Template, error) {
	tenant, err := normalizeTenant(in.Tenant)
	if err != nil {
		return nil, err
	}

	name, err := normalizeName(in.Name)
	if err != nil {
		return nil, err
	}

	if in.OrganizationNumber <= 0 {
		return nil, ErrInvalidOrganization
	}

	if !IsValidRoleType(in.RoleType) {
		return nil, ErrInvalidRoleType
	}

	var created *Template
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		versions, err := s.repo.FindVersions(txCtx, tenant, name)
		if err != nil {
			return err
		}

		version := 1
		for _, v := range versions {
			if v.Version >= version {
				version = v.Version + 1
			}
		}

		now := s.clock.Now()
		tpl := &Template{
			Tenant:             tenant,
			OrganizationNumber: in.OrganizationNumber,
			Name:               name,
			DisplayName:        strings.TrimSpace(in.DisplayName),
			Version:            version,
			RoleType:           in.RoleType,
			State:              StateCreated,
			LastSavedBy:        strings.TrimSpace(in.LastSavedBy),
			CreatedAt:          now,
			UpdatedAt:          now,
		}

		result, err := s.repo.Create(txCtx, tpl)
		if err != nil {
			return err
		}

		created = result
		return nil
	}); err != nil {
		return nil, err
	}

	return created, nil
}

// Activate はドラフトを ACTIVE へ遷移させます。
// 同一名で既に ACTIVE なバージョンがあれば、同一トランザクション内で DEPRECATED に落とします。
func (s *Service) Activate(ctx context.Context, id string) (*Template, error) {
	if strings.TrimSpace(id) == "" {
		return nil, ErrInvalidID
	}

	var activated *Template
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		tpl, err := s.repo.FindByID(txCtx, id)
		if err != nil {
			return err
		}

		if tpl.State != StateCreated {
			return fmt.Errorf("activate %s from %s: %w", tpl.Name, tpl.State, ErrInvalidTransition)
		}

		versions, err := s.repo.FindVersions(txCtx, tpl.Tenant, tpl.Name)
		if err != nil {
			return err
		}

		now := s.clock.Now()
		for _, v := range versions {
			if v.ID == tpl.ID || v.State != StateActive {
				continue
			}
			v.State = StateDeprecated
			v.UpdatedAt = now
			if _, err := s.repo.Update(txCtx, v); err != nil {
				return err
			}
		}

		tpl.State = StateActive
		tpl.UpdatedAt = now

		result, err := s.repo.Update(txCtx, tpl)
		if err != nil {
			return err
		}

		activated = result
		return nil
	}); err != nil {
		return nil, err
	}

	return activated, nil
}

// Retire はテンプレートを RETIRED へ遷移させます。RETIRED からの復帰はできません。
func (s *Service) Retire(ctx context.Context, id string) (*Template, error) {
	if strings.TrimSpace(id) == "" {
		return nil, ErrInvalidID
	}

	var retired *Template
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		tpl, err := s.repo.FindByID(txCtx, id)
		if err != nil {
			return err
		}

		switch tpl.State {
		case StateActive, StateDeprecated:
			// ok
		default:
			return fmt.Errorf("retire %s from %s: %w", tpl.Name, tpl.State, ErrInvalidTransition)
		}

		tpl.State = StateRetired
		tpl.UpdatedAt = s.clock.Now()

		result, err := s.repo.Update(txCtx, tpl)
		if err != nil {
			return err
		}

		retired = result
		return nil
	}); err != nil {
		return nil, err
	}

	return retired, nil
}

// AddPhase はドラフト版テンプレートにフェーズを追加します。
func (s *Service) AddPhase(ctx context.Context, in AddPhaseInput) (*Template, error) {
	name, err := normalizeName(in.Name)
	if err != nil {
		return nil, err
	}

	if !isValidPermission(in.Permission) {
		return nil, ErrInvalidPermission
	}

	if in.SortOrder < 0 {
		return nil, ErrInvalidSortOrder
	}

	var updated *Template
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		tpl, err := s.editableTemplate(txCtx, in.TemplateID)
		if err != nil {
			return err
		}

		for _, p := range tpl.Phases {
			if p.SortOrder == in.SortOrder {
				return ErrDuplicateSortOrder
			}
		}

		tpl.Phases = append(tpl.Phases, &Phase{
			Name:           name,
			BodyText:       in.BodyText,
			TimeToComplete: in.TimeToComplete,
			Permission:     in.Permission,
			SortOrder:      in.SortOrder,
		})
		tpl.UpdatedAt = s.clock.Now()

		result, err := s.repo.Update(txCtx, tpl)
		if err != nil {
			return err
		}

		updated = result
		return nil
	}); err != nil {
		return nil, err
	}

	return updated, nil
}

// AddTask はドラフト版テンプレートの指定フェーズにタスクを追加します。
func (s *Service) AddTask(ctx context.Context, in AddTaskInput) (*Template, error) {
	heading := strings.TrimSpace(in.Heading)
	if heading == "" {
		return nil, ErrInvalidName
	}

	if !IsValidQuestionType(in.QuestionType) {
		return nil, ErrInvalidQuestionType
	}

	if !IsValidRoleType(in.RoleType) {
		return nil, ErrInvalidRoleType
	}

	if !isValidPermission(in.Permission) {
		return nil, ErrInvalidPermission
	}

	if in.SortOrder < 0 {
		return nil, ErrInvalidSortOrder
	}

	var updated *Template
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		tpl, err := s.editableTemplate(txCtx, in.TemplateID)
		if err != nil {
			return err
		}

		phase := tpl.FindPhase(in.PhaseID)
		if phase == nil {
			return ErrPhaseNotFound
		}

		for _, t := range phase.Tasks {
			if t.SortOrder == in.SortOrder {
				return ErrDuplicateSortOrder
			}
		}

		phase.Tasks = append(phase.Tasks, &Task{
			Heading:      heading,
			Text:         in.Text,
			QuestionType: in.QuestionType,
			RoleType:     in.RoleType,
			Permission:   in.Permission,
			SortOrder:    in.SortOrder,
		})
		tpl.UpdatedAt = s.clock.Now()

		result, err := s.repo.Update(txCtx, tpl)
		if err != nil {
			return err
		}

		updated = result
		return nil
	}); err != nil {
		return nil, err
	}

	return updated, nil
}

// Get はテンプレートを取得します。
func (s *Service) Get(ctx context.Context, id string) (*Template, error) {
	if strings.TrimSpace(id) == "" {
		return nil, ErrInvalidID
	}

	var result *Template
	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		found, err := s.repo.FindByID(txCtx, id)
		if err != nil {
			return err
		}
		result = found
		return nil
	}); err != nil {
		return nil, err
	}

	return result, nil
}

// List はテナント内の全テンプレートを取得します。
func (s *Service) List(ctx context.Context, tenant string) ([]*Template, error) {
	normalized, err := normalizeTenant(tenant)
	if err != nil {
		return nil, err
	}

	var result []*Template
	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		found, err := s.repo.List(txCtx, normalized)
		if err != nil {
			return err
		}
		result = found
		return nil
	}); err != nil {
		return nil, err
	}

	return result, nil
}

// FindActive は組織と役割に対する ACTIVE なテンプレートを取得します。
func (s *Service) FindActive(ctx context.Context, tenant string, organizationNumber int, role RoleType) (*Template, error) {
	normalized, err := normalizeTenant(tenant)
	if err != nil {
		return nil, err
	}

	if !IsValidRoleType(role) {
		return nil, ErrInvalidRoleType
	}

	var result *Template
	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		found, err := s.repo.FindActive(txCtx, normalized, organizationNumber, role)
		if err != nil {
			return err
		}
		result = found
		return nil
	}); err != nil {
		return nil, err
	}

	return result, nil
}

func (s *Service) editableTemplate(ctx context.Context, id string) (*Template, error) {
	if strings.TrimSpace(id) == "" {
		return nil, ErrInvalidID
	}

	tpl, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if tpl.State != StateCreated {
		return nil, ErrNotEditable
	}

	return tpl, nil
}

func normalizeTenant(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", ErrInvalidTenant
	}
	return trimmed, nil
}

func normalizeName(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", ErrInvalidName
	}
	return trimmed, nil
}

// IsValidRoleType は role が定義済みの RoleType かどうかを返します。
func IsValidRoleType(role RoleType) bool {
	switch role {
	case RoleNewEmployee, RoleManagerForNewEmployee, RoleNewManager, RoleManagerForNewManager:
		return true
	default:
		return false
	}
}

// IsValidQuestionType は q が定義済みの QuestionType かどうかを返します。
func IsValidQuestionType(q QuestionType) bool {
	switch q {
	case QuestionYesOrNo, QuestionYesOrNoWithText, QuestionCompletedOrNotRelevant, QuestionCompletedOrNotRelevantWithTxt:
		return true
	default:
		return false
	}
}

func isValidPermission(p Permission) bool {
	switch p {
	case PermissionAdmin, PermissionSuperAdmin:
		return true
	default:
		return false
	}
}

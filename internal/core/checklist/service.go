package checklist

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/ogurasousui/onboarding-checklist/internal/core/template"
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

// UseCase はチェックリストユースケースの公開インターフェースです。
type UseCase interface {
	InitiateForEmployee(ctx context.Context, in InitiateInput) (*Checklist, error)
	Get(ctx context.Context, id string) (*Checklist, error)
	GetByEmployee(ctx context.Context, tenant, personID string) (*Checklist, error)
	List(ctx context.Context, filter ListFilter) ([]*Checklist, error)
	UpdateFulfilment(ctx context.Context, in UpdateFulfilmentInput) (*Checklist, error)
	AddCustomTask(ctx context.Context, in AddCustomTaskInput) (*Checklist, error)
	UpdateCustomTaskFulfilment(ctx context.Context, checklistID, customTaskID string, completed FulfilmentStatus, responseText, savedBy string) (*Checklist, error)
	DeleteCustomTask(ctx context.Context, checklistID, customTaskID string) (*Checklist, error)
	AssignMentor(ctx context.Context, checklistID string, mentor Mentor) (*Checklist, error)
	RemoveMentor(ctx context.Context, checklistID string) (*Checklist, error)
	AddDelegate(ctx context.Context, checklistID string, delegate Delegate) (*Checklist, error)
	RemoveDelegate(ctx context.Context, checklistID, partyID string) (*Checklist, error)
	UpdateManager(ctx context.Context, checklistID string, manager *ManagerRef) (*Checklist, error)
}

// Service はチェックリストに関するユースケースをまとめます。
type Service struct {
	repo      Repository
	templates template.Repository
	clock     Clock
	tx        TransactionManager
}

// NewService は Service を生成します。
func NewService(repo Repository, templates template.Repository, clock Clock, tx TransactionManager) *Service {
	if clock == nil {
		clock = realClock{}
	}
	if tx == nil {
		tx = noopTransactionManager{}
	}
	return &Service{repo: repo, templates: templates, clock: clock, tx: tx}
}

// InitiateInput はチェックリスト新規作成時の入力です。
type InitiateInput struct {
	Tenant             string
	OrganizationNumber int
	RoleType           template.RoleType
	Employee           EmployeeRef
	Manager            *ManagerRef
	StartDate          *time.Time
}

// UpdateFulfilmentInput は回答更新時の入力です。
type UpdateFulfilmentInput struct {
	ChecklistID  string
	TaskID       string
	Completed    FulfilmentStatus
	ResponseText string
	SavedBy      string
}

// AddCustomTaskInput はカスタムタスク追加時の入力です。
type AddCustomTaskInput struct {
	ChecklistID  string
	PhaseID      string
	Heading      string
	Text         string
	QuestionType template.QuestionType
	SortOrder    int
	SavedBy      string
}

// InitiateForEmployee は従業員 1 人分のチェックリストを作成します。
// 役割と組織に対する ACTIVE テンプレートのスナップショットを紐づけ、
// 着任日から期限を導出し、全タスク分の空回答を展開します。
// 同一従業員のチェックリストが既に存在する場合は ErrChecklistExists を返します。
func (s *Service) InitiateForEmployee(ctx context.Context, in InitiateInput) (*Checklist, error) {
	tenant, err := normalizeTenant(in.Tenant)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(in.Employee.PersonID) == "" {
		return nil, ErrInvalidEmployee
	}

	if !template.IsValidRoleType(in.RoleType) {
		return nil, template.ErrInvalidRoleType
	}

	var created *Checklist
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		existing, err := s.repo.FindByEmployee(txCtx, tenant, in.Employee.PersonID)
		if err != nil && !errors.Is(err, ErrChecklistNotFound) {
			return err
		}
		if existing != nil {
			return ErrChecklistExists
		}

		tpl, err := s.templates.FindActive(txCtx, tenant, in.OrganizationNumber, in.RoleType)
		if err != nil {
			return err
		}

		endDate, expirationDate := ComputeDueDates(in.RoleType, in.StartDate)

		now := s.clock.Now()
		rec := &Checklist{
			Tenant:             tenant,
			TemplateID:         tpl.ID,
			TemplateVersion:    tpl.Version,
			OrganizationNumber: in.OrganizationNumber,
			RoleType:           in.RoleType,
			Employee:           in.Employee,
			Manager:            in.Manager,
			StartDate:          in.StartDate,
			EndDate:            endDate,
			ExpirationDate:     expirationDate,
			CreatedAt:          now,
			UpdatedAt:          now,
		}

		for _, task := range tpl.Tasks() {
			rec.Fulfilments = append(rec.Fulfilments, &Fulfilment{
				TaskID:    task.ID,
				Completed: FulfilmentEmpty,
				UpdatedAt: now,
			})
		}

		result, err := s.repo.Create(txCtx, rec)
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

// Get はチェックリストを取得します。
func (s *Service) Get(ctx context.Context, id string) (*Checklist, error) {
	if strings.TrimSpace(id) == "" {
		return nil, ErrInvalidID
	}

	var result *Checklist
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

// GetByEmployee は従業員のチェックリストを取得します。
func (s *Service) GetByEmployee(ctx context.Context, tenant, personID string) (*Checklist, error) {
	normalized, err := normalizeTenant(tenant)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(personID) == "" {
		return nil, ErrInvalidEmployee
	}

	var result *Checklist
	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		found, err := s.repo.FindByEmployee(txCtx, normalized, personID)
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

// List はフィルタに一致するチェックリストの一覧を取得します。
func (s *Service) List(ctx context.Context, filter ListFilter) ([]*Checklist, error) {
	tenant, err := normalizeTenant(filter.Tenant)
	if err != nil {
		return nil, err
	}
	filter.Tenant = tenant

	var result []*Checklist
	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		found, err := s.repo.List(txCtx, filter)
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

// UpdateFulfilment はタスクへの回答を更新します。ロック済みレコードは更新できません。
func (s *Service) UpdateFulfilment(ctx context.Context, in UpdateFulfilmentInput) (*Checklist, error) {
	if strings.TrimSpace(in.ChecklistID) == "" {
		return nil, ErrInvalidID
	}
	if strings.TrimSpace(in.TaskID) == "" {
		return nil, ErrInvalidTaskID
	}
	if !isValidFulfilmentStatus(in.Completed) {
		return nil, ErrInvalidFulfilment
	}

	var updated *Checklist
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		rec, err := s.editableChecklist(txCtx, in.ChecklistID)
		if err != nil {
			return err
		}

		f := rec.FindFulfilment(in.TaskID)
		if f == nil {
			return ErrTaskNotFound
		}

		now := s.clock.Now()
		f.Completed = in.Completed
		f.ResponseText = in.ResponseText
		f.LastSavedBy = strings.TrimSpace(in.SavedBy)
		f.UpdatedAt = now
		rec.UpdatedAt = now

		result, err := s.repo.Update(txCtx, rec)
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

// AddCustomTask は従業員個別のタスクを追加します。
func (s *Service) AddCustomTask(ctx context.Context, in AddCustomTaskInput) (*Checklist, error) {
	if strings.TrimSpace(in.ChecklistID) == "" {
		return nil, ErrInvalidID
	}
	if strings.TrimSpace(in.Heading) == "" {
		return nil, ErrInvalidHeading
	}
	if !template.IsValidQuestionType(in.QuestionType) {
		return nil, ErrInvalidQuestionType
	}

	var updated *Checklist
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		rec, err := s.editableChecklist(txCtx, in.ChecklistID)
		if err != nil {
			return err
		}

		now := s.clock.Now()
		rec.CustomTasks = append(rec.CustomTasks, &CustomTask{
			PhaseID:      in.PhaseID,
			Heading:      strings.TrimSpace(in.Heading),
			Text:         in.Text,
			QuestionType: in.QuestionType,
			SortOrder:    in.SortOrder,
			Completed:    FulfilmentEmpty,
			LastSavedBy:  strings.TrimSpace(in.SavedBy),
			CreatedAt:    now,
			UpdatedAt:    now,
		})
		rec.UpdatedAt = now

		result, err := s.repo.Update(txCtx, rec)
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

// UpdateCustomTaskFulfilment はカスタムタスクへの回答を更新します。
func (s *Service) UpdateCustomTaskFulfilment(ctx context.Context, checklistID, customTaskID string, completed FulfilmentStatus, responseText, savedBy string) (*Checklist, error) {
	if strings.TrimSpace(checklistID) == "" {
		return nil, ErrInvalidID
	}
	if !isValidFulfilmentStatus(completed) {
		return nil, ErrInvalidFulfilment
	}

	var updated *Checklist
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		rec, err := s.editableChecklist(txCtx, checklistID)
		if err != nil {
			return err
		}

		task := rec.FindCustomTask(customTaskID)
		if task == nil {
			return ErrCustomTaskNotFound
		}

		now := s.clock.Now()
		task.Completed = completed
		task.ResponseText = responseText
		task.LastSavedBy = strings.TrimSpace(savedBy)
		task.UpdatedAt = now
		rec.UpdatedAt = now

		result, err := s.repo.Update(txCtx, rec)
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

// DeleteCustomTask はカスタムタスクを削除します。
func (s *Service) DeleteCustomTask(ctx context.Context, checklistID, customTaskID string) (*Checklist, error) {
	if strings.TrimSpace(checklistID) == "" {
		return nil, ErrInvalidID
	}

	var updated *Checklist
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		rec, err := s.editableChecklist(txCtx, checklistID)
		if err != nil {
			return err
		}

		idx := -1
		for i, t := range rec.CustomTasks {
			if t.ID == customTaskID {
				idx = i
				break
			}
		}
		if idx < 0 {
			return ErrCustomTaskNotFound
		}

		rec.CustomTasks = append(rec.CustomTasks[:idx], rec.CustomTasks[idx+1:]...)
		rec.UpdatedAt = s.clock.Now()

		result, err := s.repo.Update(txCtx, rec)
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

// AssignMentor はメンターを割り当てます。ロック済みでも割当は許可されます。
func (s *Service) AssignMentor(ctx context.Context, checklistID string, mentor Mentor) (*Checklist, error) {
	if strings.TrimSpace(checklistID) == "" {
		return nil, ErrInvalidID
	}
	if strings.TrimSpace(mentor.UserID) == "" {
		return nil, ErrInvalidMentor
	}

	return s.mutate(ctx, checklistID, func(rec *Checklist) error {
		rec.Mentor = &mentor
		return nil
	})
}

// RemoveMentor はメンター割当を解除します。
func (s *Service) RemoveMentor(ctx context.Context, checklistID string) (*Checklist, error) {
	if strings.TrimSpace(checklistID) == "" {
		return nil, ErrInvalidID
	}

	return s.mutate(ctx, checklistID, func(rec *Checklist) error {
		rec.Mentor = nil
		return nil
	})
}

// AddDelegate は閲覧委任先を追加します。
func (s *Service) AddDelegate(ctx context.Context, checklistID string, delegate Delegate) (*Checklist, error) {
	if strings.TrimSpace(checklistID) == "" {
		return nil, ErrInvalidID
	}
	if strings.TrimSpace(delegate.PartyID) == "" || strings.TrimSpace(delegate.Email) == "" {
		return nil, ErrInvalidDelegate
	}

	return s.mutate(ctx, checklistID, func(rec *Checklist) error {
		if rec.HasDelegate(delegate.PartyID) {
			return ErrDelegateAlreadyExists
		}
		rec.Delegates = append(rec.Delegates, delegate)
		return nil
	})
}

// RemoveDelegate は閲覧委任先を削除します。
func (s *Service) RemoveDelegate(ctx context.Context, checklistID, partyID string) (*Checklist, error) {
	if strings.TrimSpace(checklistID) == "" {
		return nil, ErrInvalidID
	}

	return s.mutate(ctx, checklistID, func(rec *Checklist) error {
		for i, d := range rec.Delegates {
			if d.PartyID == partyID {
				rec.Delegates = append(rec.Delegates[:i], rec.Delegates[i+1:]...)
				return nil
			}
		}
		return ErrInvalidDelegate
	})
}

// UpdateManager は上長スナップショットを差し替えます。上長異動の反映に使われます。
func (s *Service) UpdateManager(ctx context.Context, checklistID string, manager *ManagerRef) (*Checklist, error) {
	if strings.TrimSpace(checklistID) == "" {
		return nil, ErrInvalidID
	}

	return s.mutate(ctx, checklistID, func(rec *Checklist) error {
		rec.Manager = manager
		return nil
	})
}

// DueForLocking はロック対象候補のレコードを取得します。
func (s *Service) DueForLocking(ctx context.Context, tenant string, asOf time.Time) ([]*Checklist, error) {
	normalized, err := normalizeTenant(tenant)
	if err != nil {
		return nil, err
	}

	var result []*Checklist
	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		found, err := s.repo.FindDueForLocking(txCtx, normalized, asOf)
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

// Lock はレコードをロックします。既にロック済みなら何もしません。
func (s *Service) Lock(ctx context.Context, checklistID string) (*Checklist, error) {
	if strings.TrimSpace(checklistID) == "" {
		return nil, ErrInvalidID
	}

	var locked *Checklist
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		rec, err := s.repo.FindByID(txCtx, checklistID)
		if err != nil {
			return err
		}

		if rec.Locked {
			locked = rec
			return nil
		}

		rec.Locked = true
		rec.UpdatedAt = s.clock.Now()

		result, err := s.repo.Update(txCtx, rec)
		if err != nil {
			return err
		}

		locked = result
		return nil
	}); err != nil {
		return nil, err
	}

	return locked, nil
}

// PendingNotification は自動通知の対象候補を取得します。
func (s *Service) PendingNotification(ctx context.Context, tenant string) ([]*Checklist, error) {
	normalized, err := normalizeTenant(tenant)
	if err != nil {
		return nil, err
	}

	var result []*Checklist
	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		found, err := s.repo.FindPendingNotification(txCtx, normalized)
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

// SaveCorrespondence は通知試行結果を書き戻します。
func (s *Service) SaveCorrespondence(ctx context.Context, checklistID string, c *Correspondence) error {
	if strings.TrimSpace(checklistID) == "" {
		return ErrInvalidID
	}

	return s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		return s.repo.SaveCorrespondence(txCtx, checklistID, c)
	})
}

func (s *Service) mutate(ctx context.Context, checklistID string, apply func(*Checklist) error) (*Checklist, error) {
	var updated *Checklist
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		rec, err := s.repo.FindByID(txCtx, checklistID)
		if err != nil {
			return err
		}

		if err := apply(rec); err != nil {
			return err
		}

		rec.UpdatedAt = s.clock.Now()

		result, err := s.repo.Update(txCtx, rec)
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

func (s *Service) editableChecklist(ctx context.Context, id string) (*Checklist, error) {
	rec, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if rec.Locked {
		return nil, ErrChecklistLocked
	}

	return rec, nil
}

func normalizeTenant(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", ErrInvalidTenant
	}
	return trimmed, nil
}

func isValidFulfilmentStatus(s FulfilmentStatus) bool {
	switch s {
	case FulfilmentEmpty, FulfilmentTrue, FulfilmentFalse:
		return true
	default:
		return false
	}
}

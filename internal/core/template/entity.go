package template

import "time"

// RoleType はチェックリストが対象とする役割の種別を表します。
type RoleType string

const (
	RoleNewEmployee           RoleType = "NEW_EMPLOYEE"
	RoleManagerForNewEmployee RoleType = "MANAGER_FOR_NEW_EMPLOYEE"
	RoleNewManager            RoleType = "NEW_MANAGER"
	RoleManagerForNewManager  RoleType = "MANAGER_FOR_NEW_MANAGER"
)

// QuestionType はタスクへの回答形式を表します。
type QuestionType string

const (
	QuestionYesOrNo                       QuestionType = "YES_OR_NO"
	QuestionYesOrNoWithText               QuestionType = "YES_OR_NO_WITH_TEXT"
	QuestionCompletedOrNotRelevant        QuestionType = "COMPLETED_OR_NOT_RELEVANT"
	QuestionCompletedOrNotRelevantWithTxt QuestionType = "COMPLETED_OR_NOT_RELEVANT_WITH_TEXT"
)

// Permission はフェーズ・タスクの編集に必要な権限レベルです。
type Permission string

const (
	PermissionAdmin      Permission = "ADMIN"
	PermissionSuperAdmin Permission = "SUPERADMIN"
)

// LifecycleState はテンプレートのライフサイクル状態を表します。
// 遷移は CREATED → ACTIVE → DEPRECATED → RETIRED の一方向のみです。
type LifecycleState string

const (
	StateCreated    LifecycleState = "CREATED"
	StateActive     LifecycleState = "ACTIVE"
	StateDeprecated LifecycleState = "DEPRECATED"
	StateRetired    LifecycleState = "RETIRED"
)

// Template はオンボーディングチェックリストの雛形です。
// 同一名のテンプレートはバージョンで世代管理され、ACTIVE は常に高々 1 世代です。
type Template struct {
	ID                 string
	Tenant             string
	OrganizationNumber int
	Name               string
	DisplayName        string
	Version            int
	RoleType           RoleType
	State              LifecycleState
	Phases             []*Phase
	LastSavedBy        string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// Phase はテンプレート内の 1 フェーズです。SortOrder はテンプレート内で一意です。
type Phase struct {
	ID             string
	Name           string
	BodyText       string
	TimeToComplete string
	Permission     Permission
	SortOrder      int
	Tasks          []*Task
}

// Task はフェーズ内の 1 タスクです。SortOrder はフェーズ内で一意です。
type Task struct {
	ID           string
	Heading      string
	HeadingRef   string
	Text         string
	QuestionType QuestionType
	RoleType     RoleType
	Permission   Permission
	SortOrder    int
}

// ActiveTemplate は state が ACTIVE かどうかを返します。
func (t *Template) ActiveTemplate() bool {
	return t.State == StateActive
}

// FindPhase は ID でフェーズを検索します。
func (t *Template) FindPhase(phaseID string) *Phase {
	for _, p := range t.Phases {
		if p.ID == phaseID {
			return p
		}
	}
	return nil
}

// FindTask は ID でタスクを全フェーズ横断で検索します。
func (t *Template) FindTask(taskID string) *Task {
	for _, p := range t.Phases {
		for _, task := range p.Tasks {
			if task.ID == taskID {
				return task
			}
		}
	}
	return nil
}

// Tasks は全フェーズのタスクをフェーズ順・タスク順で返します。
func (t *Template) Tasks() []*Task {
	var tasks []*Task
	for _, p := range t.Phases {
		tasks = append(tasks, p.Tasks...)
	}
	return tasks
}

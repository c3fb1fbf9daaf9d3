package checklist

import (
	"time"

	"github.com/ogurasousui/onboarding-checklist/internal/core/template"
)

// FulfilmentStatus はタスクに対する従業員の回答状態を表します。
type FulfilmentStatus string

const (
	FulfilmentEmpty FulfilmentStatus = "EMPTY"
	FulfilmentTrue  FulfilmentStatus = "TRUE"
	FulfilmentFalse FulfilmentStatus = "FALSE"
)

// CorrespondenceStatus は直近の通知試行の結果を表します。
type CorrespondenceStatus string

const (
	CorrespondenceSent        CorrespondenceStatus = "SENT"
	CorrespondenceNotSent     CorrespondenceStatus = "NOT_SENT"
	CorrespondenceError       CorrespondenceStatus = "ERROR"
	CorrespondenceWillNotSend CorrespondenceStatus = "WILL_NOT_SEND"
)

// CommunicationChannel は組織が選択した通知チャネルです。
type CommunicationChannel string

const (
	ChannelEmail           CommunicationChannel = "EMAIL"
	ChannelNoCommunication CommunicationChannel = "NO_COMMUNICATION"
)

// Checklist は 1 人の従業員に紐づくオンボーディングチェックリストです。
// テンプレートのスナップショットを参照し、消込・通知状態を自身が所有します。
type Checklist struct {
	ID                 string
	Tenant             string
	TemplateID         string
	TemplateVersion    int
	OrganizationNumber int
	RoleType           template.RoleType
	Employee           EmployeeRef
	Manager            *ManagerRef
	StartDate          *time.Time
	EndDate            *time.Time
	ExpirationDate     *time.Time
	Locked             bool
	Mentor             *Mentor
	Delegates          []Delegate
	Fulfilments        []*Fulfilment
	CustomTasks        []*CustomTask
	Correspondence     *Correspondence
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// EmployeeRef はディレクトリから取り込んだ従業員情報のスナップショットです。
type EmployeeRef struct {
	PersonID  string
	Username  string
	FirstName string
	LastName  string
	Email     string
	Title     string
}

// ManagerRef はディレクトリから取り込んだ上長情報のスナップショットです。
type ManagerRef struct {
	PersonID  string
	Username  string
	FirstName string
	LastName  string
	Email     string
}

// Mentor はチェックリストの支援役です。ライフサイクル状態の所有者ではありません。
type Mentor struct {
	UserID string
	Name   string
}

// Delegate は閲覧を委任されたユーザーです。
type Delegate struct {
	PartyID   string
	Email     string
	FirstName string
	LastName  string
}

// Fulfilment はテンプレート由来タスク 1 件に対する回答です。
type Fulfilment struct {
	TaskID       string
	Completed    FulfilmentStatus
	ResponseText string
	LastSavedBy  string
	UpdatedAt    time.Time
}

// CustomTask はテンプレート外で個別に追加されたタスクです。回答も自身が保持します。
type CustomTask struct {
	ID           string
	PhaseID      string
	Heading      string
	Text         string
	QuestionType template.QuestionType
	SortOrder    int
	Completed    FulfilmentStatus
	ResponseText string
	LastSavedBy  string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Correspondence は直近の上長宛通知の試行記録です。
type Correspondence struct {
	Status     CorrespondenceStatus
	Channel    CommunicationChannel
	Recipient  string
	Attempts   int
	MessageID  string
	SentAt     *time.Time
	ModifiedAt time.Time
}

// FindFulfilment はタスク ID で回答を検索します。
func (c *Checklist) FindFulfilment(taskID string) *Fulfilment {
	for _, f := range c.Fulfilments {
		if f.TaskID == taskID {
			return f
		}
	}
	return nil
}

// FindCustomTask は ID でカスタムタスクを検索します。
func (c *Checklist) FindCustomTask(id string) *CustomTask {
	for _, t := range c.CustomTasks {
		if t.ID == id {
			return t
		}
	}
	return nil
}

// HasDelegate は partyID が委任先に含まれるかどうかを返します。
func (c *Checklist) HasDelegate(partyID string) bool {
	for _, d := range c.Delegates {
		if d.PartyID == partyID {
			return true
		}
	}
	return false
}

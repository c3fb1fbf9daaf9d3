package directory

import (
	"time"

	"github.com/ogurasousui/onboarding-checklist/internal/core/checklist"
)

// Employee は外部 HR ディレクトリ上の従業員です (読み取り専用)。
type Employee struct {
	PersonID           string
	Username           string
	FirstName          string
	LastName           string
	Email              string
	Title              string
	IsManager          bool
	IsManual           bool
	EventType          string
	StartDate          *time.Time
	OrganizationNumber int
	CompanyID          int
	Manager            *Manager
}

// Manager はディレクトリ上の上長情報です。
type Manager struct {
	PersonID  string
	Username  string
	FirstName string
	LastName  string
	Email     string
}

// Organization はディレクトリ上の組織と通知チャネル設定です。
type Organization struct {
	OrganizationNumber    int
	Name                  string
	CommunicationChannels []checklist.CommunicationChannel
}

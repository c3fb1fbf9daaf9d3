package directory

import (
	"time"

	"github.com/ogurasousui/onboarding-checklist/internal/core/checklist"
	core "github.com/ogurasousui/onboarding-checklist/internal/core/directory"
)

type employeePayload struct {
	PersonID           string          `json:"personId"`
	Username           string          `json:"username"`
	FirstName          string          `json:"firstName"`
	LastName           string          `json:"lastName"`
	Email              string          `json:"email"`
	Title              string          `json:"title"`
	IsManager          bool            `json:"isManager"`
	IsManual           bool            `json:"isManual"`
	EventType          string          `json:"eventInfo"`
	StartDate          string          `json:"hireDate"`
	OrganizationNumber int             `json:"organizationNumber"`
	CompanyID          int             `json:"companyId"`
	Manager            *managerPayload `json:"manager"`
}

type managerPayload struct {
	PersonID  string `json:"personId"`
	Username  string `json:"username"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
}

type organizationPayload struct {
	OrganizationNumber    int      `json:"organizationNumber"`
	Name                  string   `json:"name"`
	CommunicationChannels []string `json:"communicationChannels"`
}

func toEmployee(p *employeePayload) *core.Employee {
	employee := &core.Employee{
		PersonID:           p.PersonID,
		Username:           p.Username,
		FirstName:          p.FirstName,
		LastName:           p.LastName,
		Email:              p.Email,
		Title:              p.Title,
		IsManager:          p.IsManager,
		IsManual:           p.IsManual,
		EventType:          p.EventType,
		OrganizationNumber: p.OrganizationNumber,
		CompanyID:          p.CompanyID,
	}
	if p.StartDate != "" {
		if parsed, err := time.Parse("2006-01-02", p.StartDate); err == nil {
			employee.StartDate = &parsed
		}
	}
	if p.Manager != nil {
		employee.Manager = &core.Manager{
			PersonID:  p.Manager.PersonID,
			Username:  p.Manager.Username,
			FirstName: p.Manager.FirstName,
			LastName:  p.Manager.LastName,
			Email:     p.Manager.Email,
		}
	}
	return employee
}

func toOrganization(p *organizationPayload) *core.Organization {
	channels := make([]checklist.CommunicationChannel, 0, len(p.CommunicationChannels))
	for _, raw := range p.CommunicationChannels {
		channels = append(channels, checklist.CommunicationChannel(raw))
	}
	return &core.Organization{
		OrganizationNumber:    p.OrganizationNumber,
		Name:                  p.Name,
		CommunicationChannels: channels,
	}
}

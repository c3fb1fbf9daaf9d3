package handler

import (
	"time"

	"github.com/ogurasousui/onboarding-checklist/internal/core/audit"
	"github.com/ogurasousui/onboarding-checklist/internal/core/checklist"
	"github.com/ogurasousui/onboarding-checklist/internal/core/template"
)

type checklistResponse struct {
	ID                 string                  `json:"id"`
	Tenant             string                  `json:"tenant"`
	TemplateID         string                  `json:"templateId"`
	TemplateVersion    int                     `json:"templateVersion"`
	OrganizationNumber int                     `json:"organizationNumber"`
	RoleType           string                  `json:"roleType"`
	Employee           employeeRefResponse     `json:"employee"`
	Manager            *managerRefResponse     `json:"manager,omitempty"`
	StartDate          *string                 `json:"startDate,omitempty"`
	EndDate            *string                 `json:"endDate,omitempty"`
	ExpirationDate     *string                 `json:"expirationDate,omitempty"`
	Locked             bool                    `json:"locked"`
	Mentor             *mentorResponse         `json:"mentor,omitempty"`
	Delegates          []delegateResponse      `json:"delegates"`
	Fulfilments        []fulfilmentResponse    `json:"fulfilments"`
	CustomTasks        []customTaskResponse    `json:"customTasks"`
	Correspondence     *correspondenceResponse `json:"correspondence,omitempty"`
	CreatedAt          time.Time               `json:"createdAt"`
	UpdatedAt          time.Time               `json:"updatedAt"`
}

type employeeRefResponse struct {
	PersonID  string `json:"personId"`
	Username  string `json:"username"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Title     string `json:"title"`
}

type managerRefResponse struct {
	PersonID  string `json:"personId"`
	Username  string `json:"username"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
}

type mentorResponse struct {
	UserID string `json:"userId"`
	Name   string `json:"name"`
}

type delegateResponse struct {
	PartyID   string `json:"partyId"`
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

type fulfilmentResponse struct {
	TaskID       string    `json:"taskId"`
	Completed    string    `json:"completed"`
	ResponseText string    `json:"responseText"`
	LastSavedBy  string    `json:"lastSavedBy"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

type customTaskResponse struct {
	ID           string `json:"id"`
	PhaseID      string `json:"phaseId"`
	Heading      string `json:"heading"`
	Text         string `json:"text"`
	QuestionType string `json:"questionType"`
	SortOrder    int    `json:"sortOrder"`
	Completed    string `json:"completed"`
	ResponseText string `json:"responseText"`
	LastSavedBy  string `json:"lastSavedBy"`
}

type correspondenceResponse struct {
	Status     string     `json:"status"`
	Channel    string     `json:"channel,omitempty"`
	Recipient  string     `json:"recipient,omitempty"`
	Attempts   int        `json:"attempts"`
	MessageID  string     `json:"messageId,omitempty"`
	SentAt     *time.Time `json:"sentAt,omitempty"`
	ModifiedAt time.Time  `json:"modifiedAt"`
}

type templateResponse struct {
	ID                 string          `json:"id"`
	Tenant             string          `json:"tenant"`
	OrganizationNumber int             `json:"organizationNumber"`
	Name               string          `json:"name"`
	DisplayName        string          `json:"displayName"`
	Version            int             `json:"version"`
	RoleType           string          `json:"roleType"`
	State              string          `json:"state"`
	Phases             []phaseResponse `json:"phases"`
	LastSavedBy        string          `json:"lastSavedBy"`
	CreatedAt          time.Time       `json:"createdAt"`
	UpdatedAt          time.Time       `json:"updatedAt"`
}

type phaseResponse struct {
	ID             string         `json:"id"`
	Name           string         `json:"name"`
	BodyText       string         `json:"bodyText"`
	TimeToComplete string         `json:"timeToComplete"`
	Permission     string         `json:"permission"`
	SortOrder      int            `json:"sortOrder"`
	Tasks          []taskResponse `json:"tasks"`
}

type taskResponse struct {
	ID           string `json:"id"`
	Heading      string `json:"heading"`
	HeadingRef   string `json:"headingRef,omitempty"`
	Text         string `json:"text"`
	QuestionType string `json:"questionType"`
	RoleType     string `json:"roleType"`
	Permission   string `json:"permission"`
	SortOrder    int    `json:"sortOrder"`
}

type auditEntryResponse struct {
	ID        string    `json:"id"`
	Tenant    string    `json:"tenant"`
	Status    string    `json:"status"`
	Detail    string    `json:"detail,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

func toChecklistResponse(rec *checklist.Checklist) *checklistResponse {
	if rec == nil {
		return nil
	}

	resp := &checklistResponse{
		ID:                 rec.ID,
		Tenant:             rec.Tenant,
		TemplateID:         rec.TemplateID,
		TemplateVersion:    rec.TemplateVersion,
		OrganizationNumber: rec.OrganizationNumber,
		RoleType:           string(rec.RoleType),
		Employee: employeeRefResponse{
			PersonID:  rec.Employee.PersonID,
			Username:  rec.Employee.Username,
			FirstName: rec.Employee.FirstName,
			LastName:  rec.Employee.LastName,
			Email:     rec.Employee.Email,
			Title:     rec.Employee.Title,
		},
		StartDate:      formatDate(rec.StartDate),
		EndDate:        formatDate(rec.EndDate),
		ExpirationDate: formatDate(rec.ExpirationDate),
		Locked:         rec.Locked,
		Delegates:      make([]delegateResponse, 0, len(rec.Delegates)),
		Fulfilments:    make([]fulfilmentResponse, 0, len(rec.Fulfilments)),
		CustomTasks:    make([]customTaskResponse, 0, len(rec.CustomTasks)),
		CreatedAt:      rec.CreatedAt,
		UpdatedAt:      rec.UpdatedAt,
	}

	if rec.Manager != nil {
		resp.Manager = &managerRefResponse{
			PersonID:  rec.Manager.PersonID,
			Username:  rec.Manager.Username,
			FirstName: rec.Manager.FirstName,
			LastName:  rec.Manager.LastName,
			Email:     rec.Manager.Email,
		}
	}
	if rec.Mentor != nil {
		resp.Mentor = &mentorResponse{UserID: rec.Mentor.UserID, Name: rec.Mentor.Name}
	}
	for _, d := range rec.Delegates {
		resp.Delegates = append(resp.Delegates, delegateResponse{
			PartyID:   d.PartyID,
			Email:     d.Email,
			FirstName: d.FirstName,
			LastName:  d.LastName,
		})
	}
	for _, f := range rec.Fulfilments {
		resp.Fulfilments = append(resp.Fulfilments, fulfilmentResponse{
			TaskID:       f.TaskID,
			Completed:    string(f.Completed),
			ResponseText: f.ResponseText,
			LastSavedBy:  f.LastSavedBy,
			UpdatedAt:    f.UpdatedAt,
		})
	}
	for _, t := range rec.CustomTasks {
		resp.CustomTasks = append(resp.CustomTasks, customTaskResponse{
			ID:           t.ID,
			PhaseID:      t.PhaseID,
			Heading:      t.Heading,
			Text:         t.Text,
			QuestionType: string(t.QuestionType),
			SortOrder:    t.SortOrder,
			Completed:    string(t.Completed),
			ResponseText: t.ResponseText,
			LastSavedBy:  t.LastSavedBy,
		})
	}
	if rec.Correspondence != nil {
		resp.Correspondence = &correspondenceResponse{
			Status:     string(rec.Correspondence.Status),
			Channel:    string(rec.Correspondence.Channel),
			Recipient:  rec.Correspondence.Recipient,
			Attempts:   rec.Correspondence.Attempts,
			MessageID:  rec.Correspondence.MessageID,
			SentAt:     rec.Correspondence.SentAt,
			ModifiedAt: rec.Correspondence.ModifiedAt,
		}
	}

	return resp
}

func toTemplateResponse(tpl *template.Template) *templateResponse {
	if tpl == nil {
		return nil
	}

	resp := &templateResponse{
		ID:                 tpl.ID,
		Tenant:             tpl.Tenant,
		OrganizationNumber: tpl.OrganizationNumber,
		Name:               tpl.Name,
		DisplayName:        tpl.DisplayName,
		Version:            tpl.Version,
		RoleType:           string(tpl.RoleType),
		State:              string(tpl.State),
		Phases:             make([]phaseResponse, 0, len(tpl.Phases)),
		LastSavedBy:        tpl.LastSavedBy,
		CreatedAt:          tpl.CreatedAt,
		UpdatedAt:          tpl.UpdatedAt,
	}

	for _, p := range tpl.Phases {
		phase := phaseResponse{
			ID:             p.ID,
			Name:           p.Name,
			BodyText:       p.BodyText,
			TimeToComplete: p.TimeToComplete,
			Permission:     string(p.Permission),
			SortOrder:      p.SortOrder,
			Tasks:          make([]taskResponse, 0, len(p.Tasks)),
		}
		for _, t := range p.Tasks {
			phase.Tasks = append(phase.Tasks, taskResponse{
				ID:           t.ID,
				Heading:      t.Heading,
				HeadingRef:   t.HeadingRef,
				Text:         t.Text,
				QuestionType: string(t.QuestionType),
				RoleType:     string(t.RoleType),
				Permission:   string(t.Permission),
				SortOrder:    t.SortOrder,
			})
		}
		resp.Phases = append(resp.Phases, phase)
	}

	return resp
}

func toAuditEntryResponse(entry *audit.Entry) auditEntryResponse {
	return auditEntryResponse{
		ID:        entry.ID,
		Tenant:    entry.Tenant,
		Status:    string(entry.Status),
		Detail:    entry.Detail,
		CreatedAt: entry.CreatedAt,
	}
}

func formatDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	formatted := t.Format("2006-01-02")
	return &formatted
}

package jobs

import (
	"github.com/ogurasousui/onboarding-checklist/internal/core/checklist"
	"github.com/ogurasousui/onboarding-checklist/internal/core/directory"
	"github.com/ogurasousui/onboarding-checklist/internal/core/template"
)

// roleFor はディレクトリ上の従業員区分からチェックリストの役割を決めます。
func roleFor(emp *directory.Employee) template.RoleType {
	if emp.IsManager {
		return template.RoleNewManager
	}
	return template.RoleNewEmployee
}

// toInitiateInput はディレクトリの従業員をチェックリスト作成入力へ写像します。
func toInitiateInput(tenant string, emp *directory.Employee) checklist.InitiateInput {
	return checklist.InitiateInput{
		Tenant:             tenant,
		OrganizationNumber: emp.OrganizationNumber,
		RoleType:           roleFor(emp),
		Employee: checklist.EmployeeRef{
			PersonID:  emp.PersonID,
			Username:  emp.Username,
			FirstName: emp.FirstName,
			LastName:  emp.LastName,
			Email:     emp.Email,
			Title:     emp.Title,
		},
		Manager:   toManagerRef(emp.Manager),
		StartDate: emp.StartDate,
	}
}

// toManagerRef はディレクトリの上長をスナップショットへ写像します。
func toManagerRef(m *directory.Manager) *checklist.ManagerRef {
	if m == nil {
		return nil
	}
	return &checklist.ManagerRef{
		PersonID:  m.PersonID,
		Username:  m.Username,
		FirstName: m.FirstName,
		LastName:  m.LastName,
		Email:     m.Email,
	}
}

package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ogurasousui/onboarding-checklist/internal/core/checklist"
	"github.com/ogurasousui/onboarding-checklist/internal/core/template"
)

func statusForError(err error) int {
	switch {
	case errors.Is(err, checklist.ErrInvalidID),
		errors.Is(err, checklist.ErrInvalidTenant),
		errors.Is(err, checklist.ErrInvalidEmployee),
		errors.Is(err, checklist.ErrInvalidTaskID),
		errors.Is(err, checklist.ErrInvalidFulfilment),
		errors.Is(err, checklist.ErrInvalidHeading),
		errors.Is(err, checklist.ErrInvalidQuestionType),
		errors.Is(err, checklist.ErrInvalidDelegate),
		errors.Is(err, checklist.ErrInvalidMentor),
		errors.Is(err, checklist.ErrInvalidPeriod),
		errors.Is(err, template.ErrInvalidID),
		errors.Is(err, template.ErrInvalidTenant),
		errors.Is(err, template.ErrInvalidName),
		errors.Is(err, template.ErrInvalidOrganization),
		errors.Is(err, template.ErrInvalidRoleType),
		errors.Is(err, template.ErrInvalidQuestionType),
		errors.Is(err, template.ErrInvalidPermission),
		errors.Is(err, template.ErrInvalidSortOrder):
		return http.StatusBadRequest
	case errors.Is(err, checklist.ErrChecklistExists),
		errors.Is(err, checklist.ErrDelegateAlreadyExists),
		errors.Is(err, template.ErrDuplicateSortOrder),
		errors.Is(err, template.ErrActiveVersionExists),
		errors.Is(err, template.ErrInvalidTransition),
		errors.Is(err, template.ErrNotEditable):
		return http.StatusConflict
	case errors.Is(err, checklist.ErrChecklistLocked):
		return http.StatusLocked
	case errors.Is(err, checklist.ErrChecklistNotFound),
		errors.Is(err, checklist.ErrTaskNotFound),
		errors.Is(err, checklist.ErrCustomTaskNotFound),
		errors.Is(err, template.ErrTemplateNotFound),
		errors.Is(err, template.ErrPhaseNotFound),
		errors.Is(err, template.ErrTaskNotFound),
		errors.Is(err, template.ErrNoActiveTemplate):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func writeError(c *gin.Context, err error) {
	status := statusForError(err)
	if status == http.StatusInternalServerError {
		c.JSON(status, gin.H{"error": "internal error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

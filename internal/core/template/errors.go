package template

import "errors"

var (
	ErrInvalidID           = errors.New("template: invalid id")
	ErrInvalidTenant       = errors.New("template: invalid tenant")
	ErrInvalidName         = errors.New("template: invalid name")
	ErrInvalidOrganization = errors.New("template: invalid organization number")
	ErrInvalidRoleType     = errors.New("template: invalid role type")
	ErrInvalidQuestionType = errors.New("template: invalid question type")
	ErrInvalidPermission   = errors.New("template: invalid permission")
	ErrInvalidSortOrder    = errors.New("template: invalid sort order")
	ErrDuplicateSortOrder  = errors.New("template: sort order already in use")
	ErrInvalidTransition   = errors.New("template: invalid lifecycle transition")
	ErrNotEditable         = errors.New("template: only CREATED templates are editable")
	ErrTemplateNotFound    = errors.New("template: not found")
	ErrPhaseNotFound       = errors.New("template: phase not found")
	ErrTaskNotFound        = errors.New("template: task not found")
	ErrNoActiveTemplate    = errors.New("template: no active template for role")
	ErrActiveVersionExists = errors.New("template: an active version already exists")
)

package checklist

import "errors"

var (
	ErrInvalidID             = errors.New("checklist: invalid id")
	ErrInvalidTenant         = errors.New("checklist: invalid tenant")
	ErrInvalidEmployee       = errors.New("checklist: invalid employee reference")
	ErrInvalidTaskID         = errors.New("checklist: invalid task id")
	ErrInvalidFulfilment     = errors.New("checklist: invalid fulfilment status")
	ErrInvalidHeading        = errors.New("checklist: invalid heading")
	ErrInvalidQuestionType   = errors.New("checklist: invalid question type")
	ErrInvalidDelegate       = errors.New("checklist: invalid delegate")
	ErrInvalidMentor         = errors.New("checklist: invalid mentor")
	ErrInvalidPeriod         = errors.New("checklist: invalid iso-8601 period")
	ErrChecklistNotFound     = errors.New("checklist: not found")
	ErrTaskNotFound          = errors.New("checklist: task not found")
	ErrCustomTaskNotFound    = errors.New("checklist: custom task not found")
	ErrChecklistLocked       = errors.New("checklist: record is locked")
	ErrChecklistExists       = errors.New("checklist: employee already has a checklist")
	ErrDelegateAlreadyExists = errors.New("checklist: delegate already present")
)

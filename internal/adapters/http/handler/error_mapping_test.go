package handler

import (
	"errors"
	"net/http"
	"testing"

	"github.com/ogurasousui/onboarding-checklist/internal/core/checklist"
	"github.com/ogurasousui/onboarding-checklist/internal/core/template"
)

func TestStatusForError(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		err  error
		want int
	}{
		{"invalid input", checklist.ErrInvalidFulfilment, http.StatusBadRequest},
		{"invalid template input", template.ErrInvalidRoleType, http.StatusBadRequest},
		{"duplicate checklist", checklist.ErrChecklistExists, http.StatusConflict},
		{"duplicate sort order", template.ErrDuplicateSortOrder, http.StatusConflict},
		{"not editable", template.ErrNotEditable, http.StatusConflict},
		{"locked record", checklist.ErrChecklistLocked, http.StatusLocked},
		{"checklist not found", checklist.ErrChecklistNotFound, http.StatusNotFound},
		{"no active template", template.ErrNoActiveTemplate, http.StatusNotFound},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			if got := statusForError(tc.err); got != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, got)
			}
		})
	}
}

// Package handler は REST API のハンドラ群を提供します。
package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ogurasousui/onboarding-checklist/internal/core/checklist"
	"github.com/ogurasousui/onboarding-checklist/internal/core/template"
)

// ChecklistHandler はチェックリスト API の HTTP 実装です。
type ChecklistHandler struct {
	svc checklist.UseCase
}

// NewChecklistHandler は ChecklistHandler を生成します。
func NewChecklistHandler(svc checklist.UseCase) *ChecklistHandler {
	return &ChecklistHandler{svc: svc}
}

// Get はチェックリストを ID で取得します。
func (h *ChecklistHandler) Get(c *gin.Context) {
	found, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toChecklistResponse(found))
}

// GetByEmployee は従業員 ID でチェックリストを取得します。
func (h *ChecklistHandler) GetByEmployee(c *gin.Context) {
	found, err := h.svc.GetByEmployee(c.Request.Context(), c.Param("tenant"), c.Param("personId"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toChecklistResponse(found))
}

// List はテナント内のチェックリストを検索します。
func (h *ChecklistHandler) List(c *gin.Context) {
	filter := checklist.ListFilter{
		Tenant:          c.Param("tenant"),
		ManagerPersonID: c.Query("managerPersonId"),
	}
	if raw := c.Query("locked"); raw != "" {
		locked, err := strconv.ParseBool(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "locked must be a boolean"})
			return
		}
		filter.Locked = &locked
	}
	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a non-negative integer"})
			return
		}
		filter.Limit = limit
	}
	if raw := c.Query("offset"); raw != "" {
		offset, err := strconv.Atoi(raw)
		if err != nil || offset < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "offset must be a non-negative integer"})
			return
		}
		filter.Offset = offset
	}

	found, err := h.svc.List(c.Request.Context(), filter)
	if err != nil {
		writeError(c, err)
		return
	}

	items := make([]*checklistResponse, 0, len(found))
	for _, rec := range found {
		items = append(items, toChecklistResponse(rec))
	}
	c.JSON(http.StatusOK, gin.H{"checklists": items})
}

type updateFulfilmentRequest struct {
	Completed    string `json:"completed" binding:"required"`
	ResponseText string `json:"responseText"`
	SavedBy      string `json:"savedBy" binding:"required"`
}

// UpdateFulfilment はテンプレート由来タスクの回答を更新します。
func (h *ChecklistHandler) UpdateFulfilment(c *gin.Context) {
	var req updateFulfilmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	updated, err := h.svc.UpdateFulfilment(c.Request.Context(), checklist.UpdateFulfilmentInput{
		ChecklistID:  c.Param("id"),
		TaskID:       c.Param("taskId"),
		Completed:    checklist.FulfilmentStatus(req.Completed),
		ResponseText: req.ResponseText,
		SavedBy:      req.SavedBy,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toChecklistResponse(updated))
}

type addCustomTaskRequest struct {
	PhaseID      string `json:"phaseId" binding:"required"`
	Heading      string `json:"heading" binding:"required"`
	Text         string `json:"text"`
	QuestionType string `json:"questionType" binding:"required"`
	SortOrder    int    `json:"sortOrder"`
	SavedBy      string `json:"savedBy" binding:"required"`
}

// AddCustomTask はカスタムタスクを追加します。
func (h *ChecklistHandler) AddCustomTask(c *gin.Context) {
	var req addCustomTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	updated, err := h.svc.AddCustomTask(c.Request.Context(), checklist.AddCustomTaskInput{
		ChecklistID:  c.Param("id"),
		PhaseID:      req.PhaseID,
		Heading:      req.Heading,
		Text:         req.Text,
		QuestionType: template.QuestionType(req.QuestionType),
		SortOrder:    req.SortOrder,
		SavedBy:      req.SavedBy,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toChecklistResponse(updated))
}

// UpdateCustomTask はカスタムタスクの回答を更新します。
func (h *ChecklistHandler) UpdateCustomTask(c *gin.Context) {
	var req updateFulfilmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	updated, err := h.svc.UpdateCustomTaskFulfilment(c.Request.Context(),
		c.Param("id"), c.Param("taskId"),
		checklist.FulfilmentStatus(req.Completed), req.ResponseText, req.SavedBy)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toChecklistResponse(updated))
}

// DeleteCustomTask はカスタムタスクを削除します。
func (h *ChecklistHandler) DeleteCustomTask(c *gin.Context) {
	updated, err := h.svc.DeleteCustomTask(c.Request.Context(), c.Param("id"), c.Param("taskId"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toChecklistResponse(updated))
}

type assignMentorRequest struct {
	UserID string `json:"userId" binding:"required"`
	Name   string `json:"name"`
}

// AssignMentor はメンターを割り当てます。ロック後も変更できます。
func (h *ChecklistHandler) AssignMentor(c *gin.Context) {
	var req assignMentorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	updated, err := h.svc.AssignMentor(c.Request.Context(), c.Param("id"), checklist.Mentor{
		UserID: req.UserID,
		Name:   req.Name,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toChecklistResponse(updated))
}

// RemoveMentor はメンターの割り当てを解除します。
func (h *ChecklistHandler) RemoveMentor(c *gin.Context) {
	updated, err := h.svc.RemoveMentor(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toChecklistResponse(updated))
}

type addDelegateRequest struct {
	PartyID   string `json:"partyId" binding:"required"`
	Email     string `json:"email" binding:"required,email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// AddDelegate は閲覧委任先を追加します。
func (h *ChecklistHandler) AddDelegate(c *gin.Context) {
	var req addDelegateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	updated, err := h.svc.AddDelegate(c.Request.Context(), c.Param("id"), checklist.Delegate{
		PartyID:   req.PartyID,
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toChecklistResponse(updated))
}

// RemoveDelegate は閲覧委任先を削除します。
func (h *ChecklistHandler) RemoveDelegate(c *gin.Context) {
	updated, err := h.svc.RemoveDelegate(c.Request.Context(), c.Param("id"), c.Param("partyId"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toChecklistResponse(updated))
}

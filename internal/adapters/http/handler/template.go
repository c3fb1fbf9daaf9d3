package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ogurasousui/onboarding-checklist/internal/core/template"
)

// TemplateHandler はテンプレート管理 API の HTTP 実装です。
type TemplateHandler struct {
	svc template.UseCase
}

// NewTemplateHandler は TemplateHandler を生成します。
func NewTemplateHandler(svc template.UseCase) *TemplateHandler {
	return &TemplateHandler{svc: svc}
}

type createDraftRequest struct {
	OrganizationNumber int    `json:"organizationNumber" binding:"required"`
	Name               string `json:"name" binding:"required"`
	DisplayName        string `json:"displayName"`
	RoleType           string `json:"roleType" binding:"required"`
	SavedBy            string `json:"savedBy" binding:"required"`
}

// CreateDraft はドラフト版テンプレートを作成します。
func (h *TemplateHandler) CreateDraft(c *gin.Context) {
	var req createDraftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	created, err := h.svc.CreateDraft(c.Request.Context(), template.CreateDraftInput{
		Tenant:             c.Param("tenant"),
		OrganizationNumber: req.OrganizationNumber,
		Name:               req.Name,
		DisplayName:        req.DisplayName,
		RoleType:           template.RoleType(req.RoleType),
		LastSavedBy:        req.SavedBy,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toTemplateResponse(created))
}

// Get はテンプレートを ID で取得します。
func (h *TemplateHandler) Get(c *gin.Context) {
	found, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toTemplateResponse(found))
}

// List はテナント内のテンプレートを一覧します。
func (h *TemplateHandler) List(c *gin.Context) {
	found, err := h.svc.List(c.Request.Context(), c.Param("tenant"))
	if err != nil {
		writeError(c, err)
		return
	}

	items := make([]*templateResponse, 0, len(found))
	for _, tpl := range found {
		items = append(items, toTemplateResponse(tpl))
	}
	c.JSON(http.StatusOK, gin.H{"templates": items})
}

// FindActive は組織と役割に対する ACTIVE テンプレートを返します。
func (h *TemplateHandler) FindActive(c *gin.Context) {
	organizationNumber, err := strconv.Atoi(c.Query("organizationNumber"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "organizationNumber must be an integer"})
		return
	}

	found, err := h.svc.FindActive(c.Request.Context(),
		c.Param("tenant"), organizationNumber, template.RoleType(c.Query("roleType")))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toTemplateResponse(found))
}

// Activate はドラフト版を ACTIVE にします。既存 ACTIVE は DEPRECATED になります。
func (h *TemplateHandler) Activate(c *gin.Context) {
	activated, err := h.svc.Activate(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toTemplateResponse(activated))
}

// Retire はテンプレートを RETIRED にします。
func (h *TemplateHandler) Retire(c *gin.Context) {
	retired, err := h.svc.Retire(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toTemplateResponse(retired))
}

type addPhaseRequest struct {
	Name           string `json:"name" binding:"required"`
	BodyText       string `json:"bodyText"`
	TimeToComplete string `json:"timeToComplete"`
	Permission     string `json:"permission" binding:"required"`
	SortOrder      int    `json:"sortOrder"`
}

// AddPhase はドラフト版にフェーズを追加します。
func (h *TemplateHandler) AddPhase(c *gin.Context) {
	var req addPhaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	updated, err := h.svc.AddPhase(c.Request.Context(), template.AddPhaseInput{
		TemplateID:     c.Param("id"),
		Name:           req.Name,
		BodyText:       req.BodyText,
		TimeToComplete: req.TimeToComplete,
		Permission:     template.Permission(req.Permission),
		SortOrder:      req.SortOrder,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toTemplateResponse(updated))
}

type addTaskRequest struct {
	Heading      string `json:"heading" binding:"required"`
	Text         string `json:"text"`
	QuestionType string `json:"questionType" binding:"required"`
	RoleType     string `json:"roleType" binding:"required"`
	Permission   string `json:"permission" binding:"required"`
	SortOrder    int    `json:"sortOrder"`
}

// AddTask はドラフト版のフェーズにタスクを追加します。
func (h *TemplateHandler) AddTask(c *gin.Context) {
	var req addTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	updated, err := h.svc.AddTask(c.Request.Context(), template.AddTaskInput{
		TemplateID:   c.Param("id"),
		PhaseID:      c.Param("phaseId"),
		Heading:      req.Heading,
		Text:         req.Text,
		QuestionType: template.QuestionType(req.QuestionType),
		RoleType:     template.RoleType(req.RoleType),
		Permission:   template.Permission(req.Permission),
		SortOrder:    req.SortOrder,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toTemplateResponse(updated))
}

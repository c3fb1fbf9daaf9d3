package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Deps はルータ構築に必要なハンドラ群です。
type Deps struct {
	Checklists     *ChecklistHandler
	Templates      *TemplateHandler
	Audit          *AuditHandler
	Jobs           *JobHandler
	MetricsHandler http.Handler
}

// NewRouter は全ルートを構成した gin.Engine を返します。
func NewRouter(deps Deps) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if deps.MetricsHandler != nil {
		router.GET("/metrics", gin.WrapH(deps.MetricsHandler))
	}

	v1 := router.Group("/api/v1")

	if deps.Checklists != nil {
		v1.GET("/checklists/:id", deps.Checklists.Get)
		v1.PUT("/checklists/:id/tasks/:taskId/fulfilment", deps.Checklists.UpdateFulfilment)
		v1.POST("/checklists/:id/custom-tasks", deps.Checklists.AddCustomTask)
		v1.PUT("/checklists/:id/custom-tasks/:taskId/fulfilment", deps.Checklists.UpdateCustomTask)
		v1.DELETE("/checklists/:id/custom-tasks/:taskId", deps.Checklists.DeleteCustomTask)
		v1.PUT("/checklists/:id/mentor", deps.Checklists.AssignMentor)
		v1.DELETE("/checklists/:id/mentor", deps.Checklists.RemoveMentor)
		v1.POST("/checklists/:id/delegates", deps.Checklists.AddDelegate)
		v1.DELETE("/checklists/:id/delegates/:partyId", deps.Checklists.RemoveDelegate)
		v1.GET("/tenants/:tenant/checklists", deps.Checklists.List)
		v1.GET("/tenants/:tenant/employees/:personId/checklist", deps.Checklists.GetByEmployee)
	}

	if deps.Templates != nil {
		v1.GET("/templates/:id", deps.Templates.Get)
		v1.POST("/templates/:id/activate", deps.Templates.Activate)
		v1.POST("/templates/:id/retire", deps.Templates.Retire)
		v1.POST("/templates/:id/phases", deps.Templates.AddPhase)
		v1.POST("/templates/:id/phases/:phaseId/tasks", deps.Templates.AddTask)
		v1.GET("/tenants/:tenant/templates", deps.Templates.List)
		v1.POST("/tenants/:tenant/templates", deps.Templates.CreateDraft)
		v1.GET("/tenants/:tenant/templates/active", deps.Templates.FindActive)
	}

	if deps.Audit != nil {
		v1.GET("/tenants/:tenant/audit", deps.Audit.ListByTenant)
	}
	if deps.Jobs != nil {
		v1.POST("/jobs/:name/run", deps.Jobs.Run)
	}

	return router
}

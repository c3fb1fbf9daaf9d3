package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ogurasousui/onboarding-checklist/internal/jobs"
)

// JobFunc は 1 つのジョブを 1 パス実行します。
type JobFunc func(ctx context.Context) (*jobs.Summary, error)

// JobHandler はスケジュールを待たずにジョブを起動する運用向け API です。
type JobHandler struct {
	triggers map[string]JobFunc
}

// NewJobHandler は JobHandler を生成します。
func NewJobHandler(triggers map[string]JobFunc) *JobHandler {
	return &JobHandler{triggers: triggers}
}

// Run は指定されたジョブを即時実行し、集計を返します。
func (h *JobHandler) Run(c *gin.Context) {
	name := c.Param("name")
	trigger, ok := h.triggers[name]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown job: " + name})
		return
	}

	summary, err := trigger(c.Request.Context())
	if err != nil {
		if errors.Is(err, jobs.ErrNoManagedTenants) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	if summary.Skipped {
		c.JSON(http.StatusConflict, gin.H{
			"job":     summary.Job,
			"skipped": true,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"job":      summary.Job,
		"skipped":  false,
		"outcomes": summary.Outcomes,
	})
}

package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ogurasousui/onboarding-checklist/internal/core/audit"
)

// AuditHandler は監査行の参照 API です。
type AuditHandler struct {
	sink audit.Sink
}

// NewAuditHandler は AuditHandler を生成します。
func NewAuditHandler(sink audit.Sink) *AuditHandler {
	return &AuditHandler{sink: sink}
}

// ListByTenant はテナントの監査行を新しい順に返します。
func (h *AuditHandler) ListByTenant(c *gin.Context) {
	tenant := strings.TrimSpace(c.Param("tenant"))
	if tenant == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": audit.ErrInvalidTenant.Error()})
		return
	}

	entries, err := h.sink.ListByTenant(c.Request.Context(), tenant)
	if err != nil {
		writeError(c, err)
		return
	}

	items := make([]auditEntryResponse, 0, len(entries))
	for _, entry := range entries {
		items = append(items, toAuditEntryResponse(entry))
	}
	c.JSON(http.StatusOK, gin.H{"entries": items})
}

package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sysmonctl/controlplane/internal/services"
)

// AuditHandler exposes the append-only audit log (spec §2 C9) for
// operator review; there is no write endpoint here, only Log() calls
// made internally by every other handler as a side effect of the
// action it records.
type AuditHandler struct {
	audit *services.AuditService
}

func NewAuditHandler(audit *services.AuditService) *AuditHandler {
	return &AuditHandler{audit: audit}
}

func RegisterAuditRoutes(r *gin.Engine, h *AuditHandler) {
	r.GET("/api/v1/audit", h.List)
}

const defaultAuditLimit = 200

func (h *AuditHandler) List(c *gin.Context) {
	since := time.Time{}
	if raw := c.Query("since"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "since must be an RFC3339 timestamp"})
			return
		}
		since = parsed
	}

	limit := defaultAuditLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = parsed
	}

	entries, err := h.audit.List(c.Request.Context(), since, limit)
	if err != nil {
		writeOperatorError(c, err, "list_audit")
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries})
}

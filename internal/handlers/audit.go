package handlers

import (
	"net/http"
	"strconv"

	"compliance-ledger/internal/database"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	defaultAuditLimit = 200
	maxAuditLimit     = 1000
)

func (h *Handler) ListAuditLogs(c *gin.Context) {
	limit := defaultAuditLimit
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			h.fail(c, badRequest("limit", "must be a positive integer"))
			return
		}
		limit = min(n, maxAuditLimit)
	}

	logs, err := database.ListAuditLogs(h.db.WithContext(c.Request.Context()), limit)
	if err != nil {
		h.log.Error("failed to list audit logs", zap.Error(err))
		render(c, http.StatusServiceUnavailable, gin.H{"error": "the store is unavailable, try again later"})
		return
	}

	render(c, http.StatusOK, gin.H{"logs": logs})
}

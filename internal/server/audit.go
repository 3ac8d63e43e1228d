package server

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	auditdomain "github.com/smallbiznis/marketplace/internal/audit/domain"
)

// ListAuditLogs returns recent audit entries, newest first.
// Query: action, since (RFC 3339), limit.
func (s *Server) ListAuditLogs(c *gin.Context) {
	q := auditdomain.Query{Action: strings.TrimSpace(c.Query("action"))}

	if raw := strings.TrimSpace(c.Query("since")); raw != "" {
		since, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			AbortWithError(c, newValidationError("since", "invalid_since", "since must be an RFC 3339 timestamp"))
			return
		}
		q.Since = since
	}
	if raw := strings.TrimSpace(c.Query("limit")); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			AbortWithError(c, newValidationError("limit", "invalid_limit", "limit must be a positive integer"))
			return
		}
		q.Limit = limit
	}

	logs, err := s.auditSvc.Recent(c.Request.Context(), q)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": logs})
}

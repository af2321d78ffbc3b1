package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/obe-attainment-api/internal/middleware"
	"github.com/noah-isme/obe-attainment-api/internal/models"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	value, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.JWTClaims)
	if !ok {
		return nil
	}
	return claims
}

// auditRun records run provenance on the request's audit entry.
func auditRun(c *gin.Context, runID string, configVersion, results, failures int) {
	middleware.SetAuditDetail(c, "run_id", runID)
	middleware.SetAuditDetail(c, "config_version", configVersion)
	middleware.SetAuditDetail(c, "computed", results)
	middleware.SetAuditDetail(c, "failed", failures)
}

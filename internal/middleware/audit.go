package middleware

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/obe-attainment-api/internal/models"
	"github.com/noah-isme/obe-attainment-api/pkg/middleware/requestid"
)

const auditDetailsKey = "auditDetails"

// SetAuditDetail attaches a value to the audit entry written for the current request.
// Reserved request fields take precedence over details with the same key.
func SetAuditDetail(c *gin.Context, key string, value interface{}) {
	details, _ := c.Get(auditDetailsKey)
	m, ok := details.(map[string]interface{})
	if !ok {
		m = map[string]interface{}{}
		c.Set(auditDetailsKey, m)
	}
	m[key] = value
}

// AuditRecorder persists audit entries.
type AuditRecorder interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// Audit records an audit entry after each successful request. resourceParam names the route
// parameter that identifies the affected resource; empty means none.
func Audit(recorder AuditRecorder, logger *zap.Logger, action, resource, resourceParam string) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		start := time.Now().UTC()
		c.Next()

		if recorder == nil || c.Writer.Status() >= 400 {
			return
		}

		var userID *string
		if value, ok := c.Get(ContextUserKey); ok {
			if claims, ok := value.(*models.JWTClaims); ok {
				userID = &claims.UserID
			}
		}
		var resourceID *string
		if resourceParam != "" {
			if id := c.Param(resourceParam); id != "" {
				resourceID = &id
			}
		}

		values := map[string]interface{}{}
		if details, ok := c.Get(auditDetailsKey); ok {
			if m, ok := details.(map[string]interface{}); ok {
				for k, v := range m {
					values[k] = v
				}
			}
		}
		values["path"] = c.FullPath()
		values["method"] = c.Request.Method
		values["status"] = c.Writer.Status()
		values["latency"] = time.Since(start).Milliseconds()
		values["request_id"] = requestid.Value(c)
		body, _ := json.Marshal(values)

		entry := &models.AuditLog{
			UserID:     userID,
			Action:     action,
			Resource:   resource,
			ResourceID: resourceID,
			NewValues:  body,
			IPAddress:  c.ClientIP(),
			UserAgent:  c.GetHeader("User-Agent"),
		}
		if err := recorder.CreateAuditLog(c.Request.Context(), entry); err != nil {
			logger.Warn("audit log write failed", zap.String("action", action), zap.Error(err))
		}
	}
}

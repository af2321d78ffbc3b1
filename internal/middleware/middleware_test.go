package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/obe-attainment-api/internal/models"
	appErrors "github.com/noah-isme/obe-attainment-api/pkg/errors"
)

type stubVerifier struct {
	claims *models.JWTClaims
}

func (s stubVerifier) ValidateToken(token string) (*models.JWTClaims, error) {
	if token != "good" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token")
	}
	return s.claims, nil
}

type recordingAudit struct {
	entries []*models.AuditLog
}

func (r *recordingAudit) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	r.entries = append(r.entries, log)
	return nil
}

func newRouter(role models.UserRole, audit *recordingAudit, status int) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	verifier := stubVerifier{claims: &models.JWTClaims{UserID: "u-1", Role: role}}
	r.POST("/courses/:courseId/recompute",
		JWT(verifier),
		RequireRoles(models.RoleAdmin, models.RoleTeacher),
		Audit(audit, nil, models.AuditActionRecomputeCourse, "course_attainment", "courseId"),
		func(c *gin.Context) { c.Status(status) },
	)
	return r
}

func do(r *gin.Engine, auth string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/courses/c-9/recompute", nil)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestJWTRejectsMissingAndMalformedHeaders(t *testing.T) {
	audit := &recordingAudit{}
	r := newRouter(models.RoleTeacher, audit, http.StatusOK)

	assert.Equal(t, http.StatusUnauthorized, do(r, "").Code)
	assert.Equal(t, http.StatusUnauthorized, do(r, "Token good").Code)
	assert.Equal(t, http.StatusUnauthorized, do(r, "Bearer bad").Code)
	assert.Empty(t, audit.entries)
}

func TestRequireRoles(t *testing.T) {
	for role, want := range map[models.UserRole]int{
		models.RoleTeacher:    http.StatusOK,
		models.RoleAdmin:      http.StatusOK,
		models.RoleSuperAdmin: http.StatusOK,
		"STUDENT":             http.StatusForbidden,
	} {
		r := newRouter(role, &recordingAudit{}, http.StatusOK)
		assert.Equal(t, want, do(r, "Bearer good").Code, string(role))
	}
}

func TestAuditRecordsSuccessfulRequests(t *testing.T) {
	audit := &recordingAudit{}
	r := newRouter(models.RoleTeacher, audit, http.StatusOK)

	require.Equal(t, http.StatusOK, do(r, "Bearer good").Code)
	require.Len(t, audit.entries, 1)
	entry := audit.entries[0]
	assert.Equal(t, models.AuditActionRecomputeCourse, entry.Action)
	require.NotNil(t, entry.UserID)
	assert.Equal(t, "u-1", *entry.UserID)
	require.NotNil(t, entry.ResourceID)
	assert.Equal(t, "c-9", *entry.ResourceID)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(entry.NewValues, &body))
	assert.Equal(t, "/courses/:courseId/recompute", body["path"])
}

func TestAuditSkipsFailedRequests(t *testing.T) {
	audit := &recordingAudit{}
	r := newRouter(models.RoleTeacher, audit, http.StatusLocked)
	assert.Equal(t, http.StatusLocked, do(r, "Bearer good").Code)
	assert.Empty(t, audit.entries)
}

func TestAuditCopiesHandlerDetails(t *testing.T) {
	gin.SetMode(gin.TestMode)
	audit := &recordingAudit{}
	r := gin.New()
	r.POST("/courses/:courseId/recompute",
		Audit(audit, nil, models.AuditActionRecomputeCourse, "course_attainment", "courseId"),
		func(c *gin.Context) {
			SetAuditDetail(c, "run_id", "run-42")
			SetAuditDetail(c, "config_version", 4)
			SetAuditDetail(c, "status", "overridden")
			c.Status(http.StatusOK)
		},
	)

	require.Equal(t, http.StatusOK, do(r, "").Code)
	require.Len(t, audit.entries, 1)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(audit.entries[0].NewValues, &body))
	assert.Equal(t, "run-42", body["run_id"])
	assert.Equal(t, float64(4), body["config_version"])
	assert.Equal(t, float64(http.StatusOK), body["status"])
	assert.Equal(t, "POST", body["method"])
}

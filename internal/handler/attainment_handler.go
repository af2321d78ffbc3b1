package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/obe-attainment-api/internal/dto"
	"github.com/noah-isme/obe-attainment-api/internal/models"
	appErrors "github.com/noah-isme/obe-attainment-api/pkg/errors"
	"github.com/noah-isme/obe-attainment-api/pkg/response"
)

type attainmentService interface {
	ComputeCourseOutcomeAttainment(ctx context.Context, courseID string) (*models.CourseAttainmentRun, error)
	ComputeProgramOutcomeAttainment(ctx context.Context, programID, semesterID string) (*models.ProgramAttainmentRun, error)
	ComputeCourseLevelPO(ctx context.Context, programOutcomeID, courseID string) (*models.CourseLevelPO, error)
	CourseAttainment(ctx context.Context, courseID string) ([]models.COAttainment, error)
	ProgramAttainment(ctx context.Context, programID, semesterID string) ([]models.POAttainment, error)
}

// AttainmentHandler exposes CO and PO attainment endpoints.
type AttainmentHandler struct {
	service attainmentService
}

// NewAttainmentHandler constructs the handler.
func NewAttainmentHandler(service attainmentService) *AttainmentHandler {
	return &AttainmentHandler{service: service}
}

// RecomputeCourse godoc
// @Summary Recompute course outcome attainment
// @Description Recomputes every CO of the course from the latest marks and surveys. Entities without evidence are reported in failures.
// @Tags Attainment
// @Produce json
// @Param courseId path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Failure 423 {object} response.Envelope
// @Router /courses/{courseId}/attainment/recompute [post]
func (h *AttainmentHandler) RecomputeCourse(c *gin.Context) {
	run, err := h.service.ComputeCourseOutcomeAttainment(c.Request.Context(), c.Param("courseId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	auditRun(c, run.RunID, run.ConfigVersion, len(run.Results), len(run.Failures))
	response.JSON(c, http.StatusOK, run, nil, runMeta(len(run.Results), len(run.Failures)))
}

// CourseAttainment godoc
// @Summary Stored course outcome attainment
// @Tags Attainment
// @Produce json
// @Param courseId path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /courses/{courseId}/attainment [get]
func (h *AttainmentHandler) CourseAttainment(c *gin.Context) {
	rows, err := h.service.CourseAttainment(c.Request.Context(), c.Param("courseId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rows, nil)
}

// RecomputeProgram godoc
// @Summary Recompute program outcome attainment
// @Description Aggregates stored CO attainments into PO attainment for one program and semester.
// @Tags Attainment
// @Accept json
// @Produce json
// @Param programId path string true "Program ID"
// @Param payload body dto.RecomputeProgramRequest true "Semester scope"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Failure 423 {object} response.Envelope
// @Router /programs/{programId}/attainment/recompute [post]
func (h *AttainmentHandler) RecomputeProgram(c *gin.Context) {
	var req dto.RecomputeProgramRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	run, err := h.service.ComputeProgramOutcomeAttainment(c.Request.Context(), c.Param("programId"), req.SemesterID)
	if err != nil {
		response.Error(c, err)
		return
	}
	auditRun(c, run.RunID, run.ConfigVersion, len(run.Results), len(run.Failures))
	response.JSON(c, http.StatusOK, run, nil, runMeta(len(run.Results), len(run.Failures)))
}

// ProgramAttainment godoc
// @Summary Stored program outcome attainment
// @Tags Attainment
// @Produce json
// @Param programId path string true "Program ID"
// @Param semesterId query string true "Semester ID"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /programs/{programId}/attainment [get]
func (h *AttainmentHandler) ProgramAttainment(c *gin.Context) {
	semesterID := c.Query("semesterId")
	if semesterID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "semesterId is required"))
		return
	}
	rows, err := h.service.ProgramAttainment(c.Request.Context(), c.Param("programId"), semesterID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rows, nil)
}

// CourseLevelPO godoc
// @Summary Course-level program outcome value
// @Description Mapping-strength weighted projection of a course's finalized CO attainment onto one PO. value is null when no mapped CO has attainment.
// @Tags Attainment
// @Produce json
// @Param poId path string true "Program outcome ID"
// @Param courseId path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /program-outcomes/{poId}/courses/{courseId}/level [get]
func (h *AttainmentHandler) CourseLevelPO(c *gin.Context) {
	result, err := h.service.ComputeCourseLevelPO(c.Request.Context(), c.Param("poId"), c.Param("courseId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil, map[string]interface{}{"incomplete": result.Incomplete()})
}

func runMeta(results, failures int) map[string]interface{} {
	return map[string]interface{}{
		"computed": results,
		"failed":   failures,
		"partial":  failures > 0,
	}
}

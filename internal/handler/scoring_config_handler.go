package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/obe-attainment-api/internal/dto"
	"github.com/noah-isme/obe-attainment-api/internal/models"
	"github.com/noah-isme/obe-attainment-api/internal/service"
	appErrors "github.com/noah-isme/obe-attainment-api/pkg/errors"
	"github.com/noah-isme/obe-attainment-api/pkg/response"
)

type scoringConfigService interface {
	Active(ctx context.Context) (*models.ScoringConfig, error)
	Get(ctx context.Context, id string) (*models.ScoringConfig, error)
	History(ctx context.Context, filter models.ScoringConfigFilter) ([]models.ScoringConfig, *models.Pagination, error)
	Create(ctx context.Context, req service.CreateScoringConfigRequest) (*models.ScoringConfig, error)
}

// ScoringConfigHandler exposes scoring config versions.
type ScoringConfigHandler struct {
	service scoringConfigService
}

// NewScoringConfigHandler constructs the handler.
func NewScoringConfigHandler(service scoringConfigService) *ScoringConfigHandler {
	return &ScoringConfigHandler{service: service}
}

// Active godoc
// @Summary Active scoring config
// @Tags ScoringConfig
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /scoring-configs/active [get]
func (h *ScoringConfigHandler) Active(c *gin.Context) {
	cfg, err := h.service.Active(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, cfg, nil)
}

// Get godoc
// @Summary Scoring config version
// @Tags ScoringConfig
// @Produce json
// @Param id path string true "Config ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /scoring-configs/{id} [get]
func (h *ScoringConfigHandler) Get(c *gin.Context) {
	cfg, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, cfg, nil)
}

// History godoc
// @Summary Scoring config history
// @Tags ScoringConfig
// @Produce json
// @Param page query int false "Page"
// @Param pageSize query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /scoring-configs [get]
func (h *ScoringConfigHandler) History(c *gin.Context) {
	var query dto.ScoringConfigHistoryQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query"))
		return
	}
	configs, pagination, err := h.service.History(c.Request.Context(), models.ScoringConfigFilter{Page: query.Page, PageSize: query.PageSize})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, configs, pagination)
}

// Create godoc
// @Summary Publish a scoring config version
// @Description Validates the config and makes it the single active version. Existing attainment rows keep the version they were computed with.
// @Tags ScoringConfig
// @Accept json
// @Produce json
// @Param payload body service.CreateScoringConfigRequest true "Scoring config"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /scoring-configs [post]
func (h *ScoringConfigHandler) Create(c *gin.Context) {
	var req service.CreateScoringConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	if claims := claimsFromContext(c); claims != nil {
		req.CreatedBy = claims.UserID
	}
	cfg, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, cfg)
}

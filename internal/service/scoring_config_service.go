package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/obe-attainment-api/internal/attainment"
	"github.com/noah-isme/obe-attainment-api/internal/models"
	appErrors "github.com/noah-isme/obe-attainment-api/pkg/errors"
)

type scoringConfigRepository interface {
	FindActive(ctx context.Context) (*models.ScoringConfig, error)
	FindByID(ctx context.Context, id string) (*models.ScoringConfig, error)
	List(ctx context.Context, filter models.ScoringConfigFilter) ([]models.ScoringConfig, int, error)
	CreateVersion(ctx context.Context, cfg *models.ScoringConfig) error
}

// CreateScoringConfigRequest is the payload for publishing a new scoring config version.
// Weightages are fractions; targets and thresholds are percentages.
type CreateScoringConfigRequest struct {
	COTargetMarksPercent float64 `json:"co_target_marks_percent" validate:"gte=0,lte=100"`
	COTargetPercent      float64 `json:"co_target_percent" validate:"gte=0,lte=100"`
	IA1Weightage         float64 `json:"ia1_weightage" validate:"gte=0,lte=1"`
	IA2Weightage         float64 `json:"ia2_weightage" validate:"gte=0,lte=1"`
	EndSemWeightage      float64 `json:"end_sem_weightage" validate:"gte=0,lte=1"`
	DirectWeightage      float64 `json:"direct_weightage" validate:"gte=0,lte=1"`
	IndirectWeightage    float64 `json:"indirect_weightage" validate:"gte=0,lte=1"`
	POTargetLevel        float64 `json:"po_target_level" validate:"gte=0,lte=3"`
	Level3Threshold      float64 `json:"level3_threshold" validate:"gte=0,lte=100"`
	Level2Threshold      float64 `json:"level2_threshold" validate:"gte=0,lte=100"`
	Level1Threshold      float64 `json:"level1_threshold" validate:"gte=0,lte=100"`
	CreatedBy            string  `json:"-"`
}

// ScoringConfigService publishes scoring config versions and serves the active one.
type ScoringConfigService struct {
	repo      scoringConfigRepository
	cache     *CacheService
	cacheTTL  time.Duration
	validator *validator.Validate
	logger    *zap.Logger
}

// NewScoringConfigService constructs the service. cache may be nil.
func NewScoringConfigService(repo scoringConfigRepository, cache *CacheService, cacheTTL time.Duration, validate *validator.Validate, logger *zap.Logger) *ScoringConfigService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScoringConfigService{repo: repo, cache: cache, cacheTTL: cacheTTL, validator: validate, logger: logger}
}

// Active returns the active scoring config. Callers receive their own copy.
func (s *ScoringConfigService) Active(ctx context.Context) (*models.ScoringConfig, error) {
	var cached models.ScoringConfig
	if s.cache.Get(ctx, activeScoringConfigKey, &cached) {
		return &cached, nil
	}
	cfg, err := s.repo.FindActive(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrConfigurationAbsent
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load active scoring config")
	}
	s.cache.Set(ctx, activeScoringConfigKey, cfg, s.cacheTTL)
	return cfg, nil
}

// Get returns one config version by ID.
func (s *ScoringConfigService) Get(ctx context.Context, id string) (*models.ScoringConfig, error) {
	cfg, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "scoring config not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load scoring config")
	}
	return cfg, nil
}

// History lists config versions newest first.
func (s *ScoringConfigService) History(ctx context.Context, filter models.ScoringConfigFilter) ([]models.ScoringConfig, *models.Pagination, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 || filter.PageSize > 100 {
		filter.PageSize = 20
	}
	configs, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list scoring configs")
	}
	return configs, &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}, nil
}

// Create validates the payload and publishes it as the next active version.
func (s *ScoringConfigService) Create(ctx context.Context, req CreateScoringConfigRequest) (*models.ScoringConfig, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid scoring config payload")
	}
	cfg := &models.ScoringConfig{
		COTargetMarksPercent: req.COTargetMarksPercent,
		COTargetPercent:      req.COTargetPercent,
		IA1Weightage:         req.IA1Weightage,
		IA2Weightage:         req.IA2Weightage,
		EndSemWeightage:      req.EndSemWeightage,
		DirectWeightage:      req.DirectWeightage,
		IndirectWeightage:    req.IndirectWeightage,
		POTargetLevel:        req.POTargetLevel,
		Level3Threshold:      req.Level3Threshold,
		Level2Threshold:      req.Level2Threshold,
		Level1Threshold:      req.Level1Threshold,
	}
	if req.CreatedBy != "" {
		createdBy := req.CreatedBy
		cfg.CreatedBy = &createdBy
	}
	if err := attainment.ValidateConfig(*cfg); err != nil {
		var cfgErr *attainment.ConfigError
		if errors.As(err, &cfgErr) && cfgErr.Weights {
			return nil, appErrors.Wrap(err, appErrors.ErrInvalidWeights.Code, appErrors.ErrInvalidWeights.Status, strings.Join(cfgErr.Problems, "; "))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
	}

	if err := s.repo.CreateVersion(ctx, cfg); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create scoring config")
	}
	s.cache.Invalidate(ctx, activeScoringConfigKey)
	s.logger.Info("scoring config published",
		zap.String("config_id", cfg.ID),
		zap.Int("version", cfg.Version),
		zap.String("fingerprint", cfg.Fingerprint()),
	)
	return cfg, nil
}

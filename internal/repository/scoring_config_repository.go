package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/obe-attainment-api/internal/models"
	"github.com/noah-isme/obe-attainment-api/pkg/database"
)

const scoringConfigColumns = `id, version, is_active, co_target_marks_percent, co_target_percent,
        ia1_weightage, ia2_weightage, end_sem_weightage, direct_weightage, indirect_weightage,
        po_target_level, level3_threshold, level2_threshold, level1_threshold, created_by, created_at`

// ScoringConfigRepository persists versioned scoring configurations.
type ScoringConfigRepository struct {
	db *sqlx.DB
}

// NewScoringConfigRepository constructs the repository.
func NewScoringConfigRepository(db *sqlx.DB) *ScoringConfigRepository {
	return &ScoringConfigRepository{db: db}
}

// FindActive returns the single active configuration or sql.ErrNoRows.
func (r *ScoringConfigRepository) FindActive(ctx context.Context) (*models.ScoringConfig, error) {
	query := `SELECT ` + scoringConfigColumns + ` FROM scoring_configs WHERE is_active = TRUE LIMIT 1`
	var cfg models.ScoringConfig
	if err := r.db.GetContext(ctx, &cfg, query); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// FindByID returns a configuration version by ID.
func (r *ScoringConfigRepository) FindByID(ctx context.Context, id string) (*models.ScoringConfig, error) {
	query := `SELECT ` + scoringConfigColumns + ` FROM scoring_configs WHERE id = $1`
	var cfg models.ScoringConfig
	if err := r.db.GetContext(ctx, &cfg, query, id); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// List returns configuration versions newest first along with the total count.
func (r *ScoringConfigRepository) List(ctx context.Context, filter models.ScoringConfigFilter) ([]models.ScoringConfig, int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM scoring_configs`); err != nil {
		return nil, 0, fmt.Errorf("count scoring configs: %w", err)
	}

	page, size := filter.Page, filter.PageSize
	if page <= 0 {
		page = 1
	}
	if size <= 0 {
		size = 20
	}
	query := `SELECT ` + scoringConfigColumns + ` FROM scoring_configs ORDER BY version DESC LIMIT $1 OFFSET $2`
	var configs []models.ScoringConfig
	if err := r.db.SelectContext(ctx, &configs, query, size, (page-1)*size); err != nil {
		return nil, 0, fmt.Errorf("list scoring configs: %w", err)
	}
	return configs, total, nil
}

// CreateVersion stores cfg as the next version and makes it the only active row.
func (r *ScoringConfigRepository) CreateVersion(ctx context.Context, cfg *models.ScoringConfig) error {
	return database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		// Serialize concurrent writers so versions stay gapless and one row stays active.
		if _, err := tx.ExecContext(ctx, `LOCK TABLE scoring_configs IN SHARE ROW EXCLUSIVE MODE`); err != nil {
			return fmt.Errorf("lock scoring configs: %w", err)
		}
		var latest int
		if err := tx.GetContext(ctx, &latest, `SELECT COALESCE(MAX(version), 0) FROM scoring_configs`); err != nil {
			return fmt.Errorf("read latest scoring config version: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `UPDATE scoring_configs SET is_active = FALSE WHERE is_active = TRUE`); err != nil {
			return fmt.Errorf("deactivate scoring config: %w", err)
		}

		if cfg.ID == "" {
			cfg.ID = uuid.NewString()
		}
		cfg.Version = latest + 1
		cfg.IsActive = true
		cfg.CreatedAt = time.Now().UTC()
		const insert = `INSERT INTO scoring_configs (id, version, is_active, co_target_marks_percent, co_target_percent,
        ia1_weightage, ia2_weightage, end_sem_weightage, direct_weightage, indirect_weightage,
        po_target_level, level3_threshold, level2_threshold, level1_threshold, created_by, created_at)
        VALUES (:id, :version, :is_active, :co_target_marks_percent, :co_target_percent,
        :ia1_weightage, :ia2_weightage, :end_sem_weightage, :direct_weightage, :indirect_weightage,
        :po_target_level, :level3_threshold, :level2_threshold, :level1_threshold, :created_by, :created_at)`
		if _, err := tx.NamedExecContext(ctx, insert, cfg); err != nil {
			return fmt.Errorf("insert scoring config: %w", err)
		}
		return nil
	})
}

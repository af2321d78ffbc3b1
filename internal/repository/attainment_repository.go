package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/obe-attainment-api/internal/models"
	"github.com/noah-isme/obe-attainment-api/pkg/database"
)

const coAttainmentSelect = `SELECT a.id, a.course_outcome_id, co.code AS course_outcome_code, co.course_id,
        a.ia1_level, a.ia2_level, a.end_sem_level, a.direct_score, a.indirect_score, a.final_score,
        a.level, a.achieved, a.scoring_config_id, a.config_version, a.config_fingerprint, a.calculated_at
        FROM co_attainments a
        JOIN course_outcomes co ON co.id = a.course_outcome_id`

const poAttainmentSelect = `SELECT a.id, a.program_outcome_id, po.code AS program_outcome_code, po.program_id, a.semester_id,
        a.direct_score, a.indirect_score, a.final_score, a.level, a.achieved, a.contributing_courses,
        a.scoring_config_id, a.config_version, a.config_fingerprint, a.calculated_at
        FROM po_attainments a
        JOIN program_outcomes po ON po.id = a.program_outcome_id`

// AttainmentRepository stores the derived CO and PO attainment rows. Each CO owns one row
// and each (PO, semester) owns one row; recomputes overwrite them.
type AttainmentRepository struct {
	db *sqlx.DB
}

// NewAttainmentRepository constructs the repository.
func NewAttainmentRepository(db *sqlx.DB) *AttainmentRepository {
	return &AttainmentRepository{db: db}
}

// ReplaceCourseAttainments upserts rows for the course in one transaction and removes rows of
// the course's outcomes that this run could not compute.
func (r *AttainmentRepository) ReplaceCourseAttainments(ctx context.Context, courseID string, rows []models.COAttainment) error {
	return database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		kept := make([]string, len(rows))
		for i := range rows {
			kept[i] = rows[i].CourseOutcomeID
		}
		const prune = `DELETE FROM co_attainments
        WHERE course_outcome_id IN (SELECT id FROM course_outcomes WHERE course_id = $1)
        AND NOT (course_outcome_id = ANY($2))`
		if _, err := tx.ExecContext(ctx, prune, courseID, pq.Array(kept)); err != nil {
			return fmt.Errorf("prune co attainments: %w", err)
		}

		const upsert = `INSERT INTO co_attainments (id, course_outcome_id, ia1_level, ia2_level, end_sem_level,
        direct_score, indirect_score, final_score, level, achieved, scoring_config_id, config_version,
        config_fingerprint, calculated_at)
        VALUES (:id, :course_outcome_id, :ia1_level, :ia2_level, :end_sem_level,
        :direct_score, :indirect_score, :final_score, :level, :achieved, :scoring_config_id, :config_version,
        :config_fingerprint, :calculated_at)
        ON CONFLICT (course_outcome_id)
        DO UPDATE SET ia1_level = EXCLUDED.ia1_level, ia2_level = EXCLUDED.ia2_level, end_sem_level = EXCLUDED.end_sem_level,
                      direct_score = EXCLUDED.direct_score, indirect_score = EXCLUDED.indirect_score,
                      final_score = EXCLUDED.final_score, level = EXCLUDED.level, achieved = EXCLUDED.achieved,
                      scoring_config_id = EXCLUDED.scoring_config_id, config_version = EXCLUDED.config_version,
                      config_fingerprint = EXCLUDED.config_fingerprint, calculated_at = EXCLUDED.calculated_at
        RETURNING id`
		for i := range rows {
			if rows[i].ID == "" {
				rows[i].ID = uuid.NewString()
			}
			if err := namedGet(ctx, tx, &rows[i].ID, upsert, rows[i]); err != nil {
				return fmt.Errorf("upsert co attainment %s: %w", rows[i].CourseOutcomeID, err)
			}
		}
		return nil
	})
}

// ListCourseAttainments returns the stored CO attainments of a course.
func (r *AttainmentRepository) ListCourseAttainments(ctx context.Context, courseID string) ([]models.COAttainment, error) {
	query := coAttainmentSelect + ` WHERE co.course_id = $1 ORDER BY co.code`
	var rows []models.COAttainment
	if err := r.db.SelectContext(ctx, &rows, query, courseID); err != nil {
		return nil, fmt.Errorf("list co attainments: %w", err)
	}
	return rows, nil
}

// ListCourseAttainmentsByCourses returns stored CO attainments for several courses at once.
func (r *AttainmentRepository) ListCourseAttainmentsByCourses(ctx context.Context, courseIDs []string) ([]models.COAttainment, error) {
	if len(courseIDs) == 0 {
		return nil, nil
	}
	query := coAttainmentSelect + ` WHERE co.course_id = ANY($1) ORDER BY co.course_id, co.code`
	var rows []models.COAttainment
	if err := r.db.SelectContext(ctx, &rows, query, pq.Array(courseIDs)); err != nil {
		return nil, fmt.Errorf("list co attainments by courses: %w", err)
	}
	return rows, nil
}

// ReplaceProgramAttainments upserts the program's PO rows for the semester in one transaction
// and removes rows of POs that this run could not compute.
func (r *AttainmentRepository) ReplaceProgramAttainments(ctx context.Context, programID, semesterID string, rows []models.POAttainment) error {
	return database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		kept := make([]string, len(rows))
		for i := range rows {
			kept[i] = rows[i].ProgramOutcomeID
		}
		const prune = `DELETE FROM po_attainments
        WHERE semester_id = $2
        AND program_outcome_id IN (SELECT id FROM program_outcomes WHERE program_id = $1)
        AND NOT (program_outcome_id = ANY($3))`
		if _, err := tx.ExecContext(ctx, prune, programID, semesterID, pq.Array(kept)); err != nil {
			return fmt.Errorf("prune po attainments: %w", err)
		}

		const upsert = `INSERT INTO po_attainments (id, program_outcome_id, semester_id, direct_score, indirect_score,
        final_score, level, achieved, contributing_courses, scoring_config_id, config_version, config_fingerprint, calculated_at)
        VALUES (:id, :program_outcome_id, :semester_id, :direct_score, :indirect_score,
        :final_score, :level, :achieved, :contributing_courses, :scoring_config_id, :config_version, :config_fingerprint, :calculated_at)
        ON CONFLICT (program_outcome_id, semester_id)
        DO UPDATE SET direct_score = EXCLUDED.direct_score, indirect_score = EXCLUDED.indirect_score,
                      final_score = EXCLUDED.final_score, level = EXCLUDED.level, achieved = EXCLUDED.achieved,
                      contributing_courses = EXCLUDED.contributing_courses, scoring_config_id = EXCLUDED.scoring_config_id,
                      config_version = EXCLUDED.config_version, config_fingerprint = EXCLUDED.config_fingerprint,
                      calculated_at = EXCLUDED.calculated_at
        RETURNING id`
		for i := range rows {
			if rows[i].ID == "" {
				rows[i].ID = uuid.NewString()
			}
			if err := namedGet(ctx, tx, &rows[i].ID, upsert, rows[i]); err != nil {
				return fmt.Errorf("upsert po attainment %s: %w", rows[i].ProgramOutcomeID, err)
			}
		}
		return nil
	})
}

// ListProgramAttainments returns the stored PO attainments of a program for a semester.
func (r *AttainmentRepository) ListProgramAttainments(ctx context.Context, programID, semesterID string) ([]models.POAttainment, error) {
	query := poAttainmentSelect + ` WHERE po.program_id = $1 AND a.semester_id = $2 ORDER BY po.code`
	var rows []models.POAttainment
	if err := r.db.SelectContext(ctx, &rows, query, programID, semesterID); err != nil {
		return nil, fmt.Errorf("list po attainments: %w", err)
	}
	return rows, nil
}

// namedGet runs a named statement and scans its single returned column into dest. The
// stored id survives an upsert conflict, so the caller learns it either way.
func namedGet(ctx context.Context, tx *sqlx.Tx, dest interface{}, query string, arg interface{}) error {
	bound, args, err := tx.BindNamed(query, arg)
	if err != nil {
		return err
	}
	return tx.GetContext(ctx, dest, bound, args...)
}

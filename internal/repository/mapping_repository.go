package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/obe-attainment-api/internal/models"
)

const mappingSelect = `SELECT m.course_outcome_id, m.program_outcome_id, m.value, po.program_id, co.course_id
        FROM co_po_mappings m
        JOIN course_outcomes co ON co.id = m.course_outcome_id
        JOIN program_outcomes po ON po.id = m.program_outcome_id`

// MappingRepository reads the CO→PO contribution matrix.
type MappingRepository struct {
	db *sqlx.DB
}

// NewMappingRepository constructs the repository.
func NewMappingRepository(db *sqlx.DB) *MappingRepository {
	return &MappingRepository{db: db}
}

// ListByProgramSemester returns every mapping whose CO belongs to a course of the program
// in the semester. The owning program of each mapped PO is joined in as-is so foreign
// POs can be detected.
func (r *MappingRepository) ListByProgramSemester(ctx context.Context, programID, semesterID string) ([]models.CoPoMapping, error) {
	query := mappingSelect + `
        JOIN courses c ON c.id = co.course_id
        WHERE c.program_id = $1 AND c.semester_id = $2
        ORDER BY co.course_id, m.program_outcome_id, m.course_outcome_id`
	var mappings []models.CoPoMapping
	if err := r.db.SelectContext(ctx, &mappings, query, programID, semesterID); err != nil {
		return nil, fmt.Errorf("list co-po mappings: %w", err)
	}
	return mappings, nil
}

// ListByCourseAndProgramOutcome returns the mappings from one course's outcomes to one PO.
func (r *MappingRepository) ListByCourseAndProgramOutcome(ctx context.Context, courseID, programOutcomeID string) ([]models.CoPoMapping, error) {
	query := mappingSelect + `
        WHERE co.course_id = $1 AND m.program_outcome_id = $2
        ORDER BY m.course_outcome_id`
	var mappings []models.CoPoMapping
	if err := r.db.SelectContext(ctx, &mappings, query, courseID, programOutcomeID); err != nil {
		return nil, fmt.Errorf("list course co-po mappings: %w", err)
	}
	return mappings, nil
}

package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/obe-attainment-api/internal/models"
)

// SurveyRepository reads exit-survey answer counts per outcome.
type SurveyRepository struct {
	db *sqlx.DB
}

// NewSurveyRepository constructs the repository.
func NewSurveyRepository(db *sqlx.DB) *SurveyRepository {
	return &SurveyRepository{db: db}
}

// CourseOutcomeTallies counts course exit-survey answers per CO and option.
func (r *SurveyRepository) CourseOutcomeTallies(ctx context.Context, courseID string) ([]models.SurveyTally, error) {
	const query = `SELECT s.course_outcome_id AS entity_id, s.answer, COUNT(*) AS responses
        FROM course_survey_responses s
        JOIN course_outcomes co ON co.id = s.course_outcome_id
        WHERE co.course_id = $1
        GROUP BY s.course_outcome_id, s.answer
        ORDER BY s.course_outcome_id, s.answer`
	var tallies []models.SurveyTally
	if err := r.db.SelectContext(ctx, &tallies, query, courseID); err != nil {
		return nil, fmt.Errorf("count course survey responses: %w", err)
	}
	return tallies, nil
}

// ProgramOutcomeTallies counts program exit-survey answers per PO and option for a semester.
func (r *SurveyRepository) ProgramOutcomeTallies(ctx context.Context, programID, semesterID string) ([]models.SurveyTally, error) {
	const query = `SELECT s.program_outcome_id AS entity_id, s.answer, COUNT(*) AS responses
        FROM program_survey_responses s
        JOIN program_outcomes po ON po.id = s.program_outcome_id
        WHERE po.program_id = $1 AND s.semester_id = $2
        GROUP BY s.program_outcome_id, s.answer
        ORDER BY s.program_outcome_id, s.answer`
	var tallies []models.SurveyTally
	if err := r.db.SelectContext(ctx, &tallies, query, programID, semesterID); err != nil {
		return nil, fmt.Errorf("count program survey responses: %w", err)
	}
	return tallies, nil
}

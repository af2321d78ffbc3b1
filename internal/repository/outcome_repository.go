package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/obe-attainment-api/internal/models"
)

// OutcomeRepository reads course, semester and outcome metadata owned by the curriculum service.
type OutcomeRepository struct {
	db *sqlx.DB
}

// NewOutcomeRepository constructs the repository.
func NewOutcomeRepository(db *sqlx.DB) *OutcomeRepository {
	return &OutcomeRepository{db: db}
}

// FindCourse returns a course offering by ID.
func (r *OutcomeRepository) FindCourse(ctx context.Context, id string) (*models.Course, error) {
	const query = `SELECT id, code, name, program_id, semester_id FROM courses WHERE id = $1`
	var course models.Course
	if err := r.db.GetContext(ctx, &course, query, id); err != nil {
		return nil, err
	}
	return &course, nil
}

// FindSemester returns a semester with its edit lock flag.
func (r *OutcomeRepository) FindSemester(ctx context.Context, id string) (*models.Semester, error) {
	const query = `SELECT id, name, is_locked FROM semesters WHERE id = $1`
	var semester models.Semester
	if err := r.db.GetContext(ctx, &semester, query, id); err != nil {
		return nil, err
	}
	return &semester, nil
}

// ProgramExists reports whether the program is known.
func (r *OutcomeRepository) ProgramExists(ctx context.Context, id string) (bool, error) {
	var exists bool
	if err := r.db.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM programs WHERE id = $1)`, id); err != nil {
		return false, fmt.Errorf("check program: %w", err)
	}
	return exists, nil
}

// ListCoursesByProgramSemester returns the course offerings of a program in a semester.
func (r *OutcomeRepository) ListCoursesByProgramSemester(ctx context.Context, programID, semesterID string) ([]models.Course, error) {
	const query = `SELECT id, code, name, program_id, semester_id FROM courses
        WHERE program_id = $1 AND semester_id = $2 ORDER BY code`
	var courses []models.Course
	if err := r.db.SelectContext(ctx, &courses, query, programID, semesterID); err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	return courses, nil
}

// ListCourseOutcomes returns the outcomes defined for a course.
func (r *OutcomeRepository) ListCourseOutcomes(ctx context.Context, courseID string) ([]models.CourseOutcome, error) {
	const query = `SELECT id, code, course_id FROM course_outcomes WHERE course_id = $1 ORDER BY code`
	var outcomes []models.CourseOutcome
	if err := r.db.SelectContext(ctx, &outcomes, query, courseID); err != nil {
		return nil, fmt.Errorf("list course outcomes: %w", err)
	}
	return outcomes, nil
}

// FindProgramOutcome returns a program outcome by ID.
func (r *OutcomeRepository) FindProgramOutcome(ctx context.Context, id string) (*models.ProgramOutcome, error) {
	const query = `SELECT id, code, program_id FROM program_outcomes WHERE id = $1`
	var po models.ProgramOutcome
	if err := r.db.GetContext(ctx, &po, query, id); err != nil {
		return nil, err
	}
	return &po, nil
}

// ListProgramOutcomes returns the outcomes defined for a program.
func (r *OutcomeRepository) ListProgramOutcomes(ctx context.Context, programID string) ([]models.ProgramOutcome, error) {
	const query = `SELECT id, code, program_id FROM program_outcomes WHERE program_id = $1 ORDER BY code`
	var outcomes []models.ProgramOutcome
	if err := r.db.SelectContext(ctx, &outcomes, query, programID); err != nil {
		return nil, fmt.Errorf("list program outcomes: %w", err)
	}
	return outcomes, nil
}

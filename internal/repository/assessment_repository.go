package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/obe-attainment-api/internal/models"
)

// AssessmentRepository reads assessment questions and the marks of each active upload.
type AssessmentRepository struct {
	db *sqlx.DB
}

// NewAssessmentRepository constructs the repository.
func NewAssessmentRepository(db *sqlx.DB) *AssessmentRepository {
	return &AssessmentRepository{db: db}
}

// ListQuestionsByCourse returns every question of every assessment of the course.
func (r *AssessmentRepository) ListQuestionsByCourse(ctx context.Context, courseID string) ([]models.AssessmentQuestion, error) {
	const query = `SELECT q.id, q.assessment_id, a.type AS assessment_type, q.course_outcome_id, q.max_marks
        FROM assessment_questions q
        JOIN assessments a ON a.id = q.assessment_id
        WHERE a.course_id = $1
        ORDER BY a.type, q.id`
	var questions []models.AssessmentQuestion
	if err := r.db.SelectContext(ctx, &questions, query, courseID); err != nil {
		return nil, fmt.Errorf("list assessment questions: %w", err)
	}
	return questions, nil
}

type markRow struct {
	AssessmentType models.AssessmentType `db:"assessment_type"`
	models.StudentMark
}

// ListActiveMarks returns the course's marks grouped by assessment type. Only rows of the
// active upload of each assessment are read; superseded uploads are ignored.
func (r *AssessmentRepository) ListActiveMarks(ctx context.Context, courseID string) (map[models.AssessmentType][]models.StudentMark, error) {
	const query = `SELECT a.type AS assessment_type, m.roll_no, m.question_id, m.marks
        FROM student_marks m
        JOIN mark_uploads u ON u.id = m.upload_id AND u.is_active = TRUE
        JOIN assessments a ON a.id = u.assessment_id
        WHERE a.course_id = $1
        ORDER BY a.type, m.roll_no, m.question_id`
	var rows []markRow
	if err := r.db.SelectContext(ctx, &rows, query, courseID); err != nil {
		return nil, fmt.Errorf("list student marks: %w", err)
	}
	marks := make(map[models.AssessmentType][]models.StudentMark, len(models.AssessmentTypes))
	for _, row := range rows {
		marks[row.AssessmentType] = append(marks[row.AssessmentType], row.StudentMark)
	}
	return marks, nil
}

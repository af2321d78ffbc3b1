package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/obe-attainment-api/internal/models"
)

func TestAttainmentRepositoryReplaceCourseAttainments(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM co_attainments").
		WithArgs("course-1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("INSERT INTO co_attainments").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("existing-row"))
	mock.ExpectQuery("INSERT INTO co_attainments").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("new-row"))
	mock.ExpectCommit()

	direct := 2.3
	rows := []models.COAttainment{
		{CourseOutcomeID: "co1", DirectScore: &direct, FinalScore: 2.3, Level: models.Level3, CalculatedAt: time.Now()},
		{CourseOutcomeID: "co2", FinalScore: 1.2, Level: models.Level0, CalculatedAt: time.Now()},
	}
	require.NoError(t, NewAttainmentRepository(db).ReplaceCourseAttainments(context.Background(), "course-1", rows))
	assert.Equal(t, "existing-row", rows[0].ID)
	assert.Equal(t, "new-row", rows[1].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttainmentRepositoryReplaceCourseAttainmentsRollsBack(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM co_attainments").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("INSERT INTO co_attainments").WillReturnError(sql.ErrConnDone)
	mock.ExpectRollback()

	err := NewAttainmentRepository(db).ReplaceCourseAttainments(context.Background(), "course-1", []models.COAttainment{{CourseOutcomeID: "co1"}})
	assert.ErrorIs(t, err, sql.ErrConnDone)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttainmentRepositoryListCourseAttainments(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	columns := []string{"id", "course_outcome_id", "course_outcome_code", "course_id", "ia1_level", "ia2_level", "end_sem_level",
		"direct_score", "indirect_score", "final_score", "level", "achieved", "scoring_config_id", "config_version",
		"config_fingerprint", "calculated_at"}
	rows := sqlmock.NewRows(columns).
		AddRow("row-1", "co1", "CO1", "course-1", 3, nil, 2, 2.3, nil, 2.3, "LEVEL_3", true, "cfg-1", 1, "abc", time.Now())
	mock.ExpectQuery("FROM co_attainments").WithArgs("course-1").WillReturnRows(rows)

	result, err := NewAttainmentRepository(db).ListCourseAttainments(context.Background(), "course-1")
	require.NoError(t, err)
	require.Len(t, result, 1)
	assert.Equal(t, "CO1", result[0].CourseOutcomeCode)
	require.NotNil(t, result[0].IA1Level)
	assert.Equal(t, 3, *result[0].IA1Level)
	assert.Nil(t, result[0].IA2Level)
	assert.Nil(t, result[0].IndirectScore)
	assert.Equal(t, models.Level3, result[0].Level)
}

func TestAttainmentRepositoryListCourseAttainmentsByCoursesEmpty(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	result, err := NewAttainmentRepository(db).ListCourseAttainmentsByCourses(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, result)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttainmentRepositoryReplaceProgramAttainments(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM po_attainments").
		WithArgs("prog-1", "sem-1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("INSERT INTO po_attainments").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("po-row"))
	mock.ExpectCommit()

	rows := []models.POAttainment{{ProgramOutcomeID: "po1", SemesterID: "sem-1", FinalScore: 2.24, Level: models.Level3}}
	require.NoError(t, NewAttainmentRepository(db).ReplaceProgramAttainments(context.Background(), "prog-1", "sem-1", rows))
	assert.Equal(t, "po-row", rows[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttainmentRepositoryListProgramAttainments(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	columns := []string{"id", "program_outcome_id", "program_outcome_code", "program_id", "semester_id",
		"direct_score", "indirect_score", "final_score", "level", "achieved", "contributing_courses",
		"scoring_config_id", "config_version", "config_fingerprint", "calculated_at"}
	rows := sqlmock.NewRows(columns).
		AddRow("po-row", "po1", "PO1", "prog-1", "sem-1", 2.3, 2.0, 2.24, "LEVEL_3", true, 2, "cfg-1", 1, "abc", time.Now())
	mock.ExpectQuery("FROM po_attainments").WithArgs("prog-1", "sem-1").WillReturnRows(rows)

	result, err := NewAttainmentRepository(db).ListProgramAttainments(context.Background(), "prog-1", "sem-1")
	require.NoError(t, err)
	require.Len(t, result, 1)
	assert.Equal(t, 2, result[0].ContributingCourses)
	assert.InDelta(t, 2.24, result[0].FinalScore, 1e-12)
}

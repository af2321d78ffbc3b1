package models

// Semester is the academic term a course offering runs in. Locked semesters reject writes.
type Semester struct {
	ID       string `db:"id" json:"id"`
	Name     string `db:"name" json:"name"`
	IsLocked bool   `db:"is_locked" json:"is_locked"`
}

// Course is a course offering within a program and semester.
type Course struct {
	ID         string `db:"id" json:"id"`
	Code       string `db:"code" json:"code"`
	Name       string `db:"name" json:"name"`
	ProgramID  string `db:"program_id" json:"program_id"`
	SemesterID string `db:"semester_id" json:"semester_id"`
}

// CourseOutcome is a skill/knowledge objective defined for one course.
type CourseOutcome struct {
	ID       string `db:"id" json:"id"`
	Code     string `db:"code" json:"code"`
	CourseID string `db:"course_id" json:"course_id"`
}

// ProgramOutcome is a program-wide objective fed by course outcomes.
type ProgramOutcome struct {
	ID        string `db:"id" json:"id"`
	Code      string `db:"code" json:"code"`
	ProgramID string `db:"program_id" json:"program_id"`
}

// MaxMappingValue is the strongest CO→PO contribution.
const MaxMappingValue = 3

// CoPoMapping records how strongly a course outcome contributes to a program outcome.
// A zero value or a missing row means no contribution.
type CoPoMapping struct {
	CourseOutcomeID  string `db:"course_outcome_id" json:"course_outcome_id"`
	ProgramOutcomeID string `db:"program_outcome_id" json:"program_outcome_id"`
	Value            int    `db:"value" json:"value"`
	// ProgramID is the program owning the mapped PO, joined in for consistency checks.
	ProgramID string `db:"program_id" json:"-"`
	// CourseID is the course owning the mapped CO.
	CourseID string `db:"course_id" json:"-"`
}

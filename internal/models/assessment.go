package models

// AssessmentType identifies the direct assessment an exam belongs to.
type AssessmentType string

const (
	AssessmentIA1    AssessmentType = "IA1"
	AssessmentIA2    AssessmentType = "IA2"
	AssessmentEndSem AssessmentType = "END_SEM"
)

// AssessmentTypes lists direct assessments in reporting order.
var AssessmentTypes = []AssessmentType{AssessmentIA1, AssessmentIA2, AssessmentEndSem}

// AssessmentQuestion belongs to exactly one assessment and one course outcome.
type AssessmentQuestion struct {
	ID              string         `db:"id" json:"id"`
	AssessmentID    string         `db:"assessment_id" json:"assessment_id"`
	AssessmentType  AssessmentType `db:"assessment_type" json:"assessment_type"`
	CourseOutcomeID string         `db:"course_outcome_id" json:"course_outcome_id"`
	MaxMarks        float64        `db:"max_marks" json:"max_marks"`
}

// StudentMark is one student's mark on one question from the active upload.
type StudentMark struct {
	RollNo     string  `db:"roll_no" json:"roll_no"`
	QuestionID string  `db:"question_id" json:"question_id"`
	Marks      float64 `db:"marks" json:"marks"`
}

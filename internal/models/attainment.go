package models

import (
	"fmt"
	"time"
)

// AttainmentLevel is the discrete 0..3 classification of how well a cohort met a target.
type AttainmentLevel string

const (
	Level0 AttainmentLevel = "LEVEL_0"
	Level1 AttainmentLevel = "LEVEL_1"
	Level2 AttainmentLevel = "LEVEL_2"
	Level3 AttainmentLevel = "LEVEL_3"
)

// LevelOf converts a numeric level into its enum, clamping to 0..3.
func LevelOf(n int) AttainmentLevel {
	switch {
	case n >= 3:
		return Level3
	case n == 2:
		return Level2
	case n == 1:
		return Level1
	default:
		return Level0
	}
}

// Int returns the numeric value of the level.
func (l AttainmentLevel) Int() int {
	switch l {
	case Level3:
		return 3
	case Level2:
		return 2
	case Level1:
		return 1
	default:
		return 0
	}
}

// COAttainment is the single overwritable attainment record owned by a course outcome.
type COAttainment struct {
	ID                string          `db:"id" json:"id"`
	CourseOutcomeID   string          `db:"course_outcome_id" json:"course_outcome_id"`
	CourseOutcomeCode string          `db:"course_outcome_code" json:"course_outcome_code"`
	CourseID          string          `db:"course_id" json:"course_id"`
	IA1Level          *int            `db:"ia1_level" json:"ia1_level"`
	IA2Level          *int            `db:"ia2_level" json:"ia2_level"`
	EndSemLevel       *int            `db:"end_sem_level" json:"end_sem_level"`
	DirectScore       *float64        `db:"direct_score" json:"direct_score"`
	IndirectScore     *float64        `db:"indirect_score" json:"indirect_score"`
	FinalScore        float64         `db:"final_score" json:"final_score"`
	Level             AttainmentLevel `db:"level" json:"level"`
	Achieved          bool            `db:"achieved" json:"achieved"`
	ScoringConfigID   string          `db:"scoring_config_id" json:"scoring_config_id"`
	ConfigVersion     int             `db:"config_version" json:"config_version"`
	ConfigFingerprint string          `db:"config_fingerprint" json:"config_fingerprint"`
	CalculatedAt      time.Time       `db:"calculated_at" json:"calculated_at"`
}

// POAttainment is the single overwritable attainment record of a program outcome per semester.
type POAttainment struct {
	ID                  string          `db:"id" json:"id"`
	ProgramOutcomeID    string          `db:"program_outcome_id" json:"program_outcome_id"`
	ProgramOutcomeCode  string          `db:"program_outcome_code" json:"program_outcome_code"`
	ProgramID           string          `db:"program_id" json:"program_id"`
	SemesterID          string          `db:"semester_id" json:"semester_id"`
	DirectScore         *float64        `db:"direct_score" json:"direct_score"`
	IndirectScore       *float64        `db:"indirect_score" json:"indirect_score"`
	FinalScore          float64         `db:"final_score" json:"final_score"`
	Level               AttainmentLevel `db:"level" json:"level"`
	Achieved            bool            `db:"achieved" json:"achieved"`
	ContributingCourses int             `db:"contributing_courses" json:"contributing_courses"`
	ScoringConfigID     string          `db:"scoring_config_id" json:"scoring_config_id"`
	ConfigVersion       int             `db:"config_version" json:"config_version"`
	ConfigFingerprint   string          `db:"config_fingerprint" json:"config_fingerprint"`
	CalculatedAt        time.Time       `db:"calculated_at" json:"calculated_at"`
}

// FailureReason classifies why an entity could not be computed.
type FailureReason string

const (
	FailureInsufficientEvidence  FailureReason = "INSUFFICIENT_EVIDENCE"
	FailureInvalidSurvey         FailureReason = "INVALID_SURVEY"
	FailureNoContributingCourses FailureReason = "NO_CONTRIBUTING_COURSES"
)

// AttainmentFailure reports one CO or PO that could not be computed in a run.
type AttainmentFailure struct {
	EntityID   string        `json:"entity_id"`
	EntityCode string        `json:"entity_code,omitempty"`
	Reason     FailureReason `json:"reason"`
	Message    string        `json:"message"`
}

// Error lets a failure travel as an error value.
func (f *AttainmentFailure) Error() string {
	return fmt.Sprintf("%s %s: %s", f.EntityCode, f.Reason, f.Message)
}

// CourseAttainmentRun is the outcome of a course-scoped recompute.
type CourseAttainmentRun struct {
	RunID         string              `json:"run_id"`
	CourseID      string              `json:"course_id"`
	ConfigVersion int                 `json:"config_version"`
	Results       []COAttainment      `json:"results"`
	Failures      []AttainmentFailure `json:"failures"`
	CalculatedAt  time.Time           `json:"calculated_at"`
}

// ProgramAttainmentRun is the outcome of a program-scoped recompute.
type ProgramAttainmentRun struct {
	RunID         string              `json:"run_id"`
	ProgramID     string              `json:"program_id"`
	SemesterID    string              `json:"semester_id"`
	ConfigVersion int                 `json:"config_version"`
	Results       []POAttainment      `json:"results"`
	CourseLevels  []CourseLevelPO     `json:"course_levels"`
	Failures      []AttainmentFailure `json:"failures"`
	CalculatedAt  time.Time           `json:"calculated_at"`
}

// COContribution is one course outcome feeding a course-level PO value.
type COContribution struct {
	CourseOutcomeID   string  `json:"course_outcome_id"`
	CourseOutcomeCode string  `json:"course_outcome_code"`
	MappingValue      int     `json:"mapping_value"`
	FinalScore        float64 `json:"final_score"`
}

// ExcludedOutcome is a mapped course outcome left out of a projection.
type ExcludedOutcome struct {
	CourseOutcomeID   string `json:"course_outcome_id"`
	CourseOutcomeCode string `json:"course_outcome_code"`
	MappingValue      int    `json:"mapping_value"`
	Reason            string `json:"reason"`
}

// CourseLevelPO is a course's mapping-strength-weighted contribution to a program outcome.
// Value is nil when no mapped course outcome has a finalized attainment.
type CourseLevelPO struct {
	ProgramOutcomeID string            `json:"program_outcome_id"`
	CourseID         string            `json:"course_id"`
	Value            *float64          `json:"value"`
	Contributions    []COContribution  `json:"contributions"`
	Excluded         []ExcludedOutcome `json:"excluded,omitempty"`
}

// Incomplete reports whether mapped outcomes were left out for lack of data.
func (c CourseLevelPO) Incomplete() bool {
	return len(c.Excluded) > 0
}

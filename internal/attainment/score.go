package attainment

import (
	"errors"
	"fmt"

	"github.com/noah-isme/obe-attainment-api/internal/models"
)

// MaxScore is the top of the 0..3 attainment scale.
const MaxScore = 3.0

// ErrInvalidSurvey marks a survey aggregate whose average falls outside the Likert scale.
var ErrInvalidSurvey = errors.New("survey average outside 0..3")

// AssessmentLevels holds the per-assessment levels of one course outcome. Nil means the
// assessment has not been given (or has no mapped questions) yet.
type AssessmentLevels struct {
	IA1    *int
	IA2    *int
	EndSem *int
}

// Get returns the level recorded for an assessment type.
func (l AssessmentLevels) Get(t models.AssessmentType) *int {
	switch t {
	case models.AssessmentIA1:
		return l.IA1
	case models.AssessmentIA2:
		return l.IA2
	case models.AssessmentEndSem:
		return l.EndSem
	default:
		return nil
	}
}

// Set records the level for an assessment type.
func (l *AssessmentLevels) Set(t models.AssessmentType, level *int) {
	switch t {
	case models.AssessmentIA1:
		l.IA1 = level
	case models.AssessmentIA2:
		l.IA2 = level
	case models.AssessmentEndSem:
		l.EndSem = level
	}
}

// Empty reports whether no assessment produced a level.
func (l AssessmentLevels) Empty() bool {
	return l.IA1 == nil && l.IA2 == nil && l.EndSem == nil
}

// CombineDirect blends the present assessment levels by their configured weightages,
// renormalizing over the assessments that have a level.
func CombineDirect(levels AssessmentLevels, cfg models.ScoringConfig) (float64, bool) {
	inputs := make([]Input, 0, len(models.AssessmentTypes))
	for _, t := range models.AssessmentTypes {
		level := levels.Get(t)
		if level == nil {
			continue
		}
		inputs = append(inputs, Term(float64(*level), cfg.AssessmentWeightage(t)))
	}
	return WeightedAverage(inputs...)
}

// MapIndirect passes a survey average through on the native 0..3 scale. A survey with
// no responses yields no indirect score.
func MapIndirect(survey *models.SurveyAggregate) (float64, bool, error) {
	if survey == nil || survey.Responses <= 0 {
		return 0, false, nil
	}
	if survey.AverageScore < 0 || survey.AverageScore > MaxScore {
		return 0, false, fmt.Errorf("%w: %.4f", ErrInvalidSurvey, survey.AverageScore)
	}
	return survey.AverageScore, true, nil
}

// Blend is the direct/indirect combination shared by CO finalization and PO aggregation.
type Blend struct {
	Direct   *float64
	Indirect *float64
	Final    float64
	Level    int
	Achieved bool
}

// BlendScores weights direct and indirect scores by the configured weightages,
// renormalizing over whichever is defined. ok is false when neither is.
func BlendScores(direct, indirect *float64, cfg models.ScoringConfig) (Blend, bool) {
	final, ok := WeightedAverage(
		OptionalTerm(direct, cfg.DirectWeightage),
		OptionalTerm(indirect, cfg.IndirectWeightage),
	)
	if !ok {
		return Blend{Direct: direct, Indirect: indirect}, false
	}
	return Blend{
		Direct:   direct,
		Indirect: indirect,
		Final:    final,
		Level:    LevelForScore(final, cfg),
		Achieved: final+epsilon >= cfg.POTargetLevel,
	}, true
}
